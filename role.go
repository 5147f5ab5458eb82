package main

// Role models an operator privilege bundle, grounded on
// original_source/mammon/roles.py's Role class: a named set of
// capability strings (e.g. "oper:kill", "oper:rehash", "metadata:set"),
// a set of metadata key globs the role may read/write, and a parent role
// this one extends. Inheritance is flattened once, at config load time,
// so the hot path (privilege checks during command dispatch) never walks
// a chain.
type Role struct {
	Name         string
	Capabilities CaseInsensitiveSet
	MetaKeysGet  []string
	MetaKeysSet  []string
	WhoisLine    string
}

func newRole(name string) *Role {
	return &Role{Name: name, Capabilities: newCaseInsensitiveSet()}
}

// HasCapability reports whether the role grants cap, honoring the
// roles.py convention that a literal "*" entry grants everything.
func (r *Role) HasCapability(cap string) bool {
	if r.Capabilities.Contains("*") {
		return true
	}
	return r.Capabilities.Contains(cap)
}

func (r *Role) CanGetMetaKey(key string) bool {
	return matchesAnyGlob(r.MetaKeysGet, key)
}

func (r *Role) CanSetMetaKey(key string) bool {
	return matchesAnyGlob(r.MetaKeysSet, key)
}

func matchesAnyGlob(patterns []string, s string) bool {
	cs := casefold(s)
	for _, p := range patterns {
		if p == "*" || globMatch(casefold(p), cs) {
			return true
		}
	}
	return false
}

// RoleRegistry holds every configured role, keyed by name, and resolves
// "extends" inheritance by flattening a child role's capability and
// metadata-key sets with its ancestor's at registration time (roles.py
// resolves extends lazily per-lookup; flattening once here keeps
// privilege checks allocation-free).
type RoleRegistry struct {
	byName map[string]*Role
}

func newRoleRegistry() *RoleRegistry {
	return &RoleRegistry{byName: map[string]*Role{}}
}

func (rr *RoleRegistry) Get(name string) (*Role, bool) {
	r, ok := rr.byName[name]
	return r, ok
}

// Define registers role, flattening in the capabilities/meta-key globs
// of the role named by extends, if any and if already defined.  Roles
// should be defined in dependency order (parents before children); a
// forward reference to an undefined extends base is simply skipped.
func (rr *RoleRegistry) Define(role *Role, extends string) {
	if extends != "" {
		if base, ok := rr.byName[extends]; ok {
			for k := range base.Capabilities {
				role.Capabilities[k] = base.Capabilities[k]
			}
			role.MetaKeysGet = append(append([]string(nil), base.MetaKeysGet...), role.MetaKeysGet...)
			role.MetaKeysSet = append(append([]string(nil), base.MetaKeysSet...), role.MetaKeysSet...)
			if role.WhoisLine == "" {
				role.WhoisLine = base.WhoisLine
			}
		}
	}
	rr.byName[role.Name] = role
}
