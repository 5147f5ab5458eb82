package main

import "testing"

func TestRoleHasCapability(t *testing.T) {
	r := newRole("oper")
	r.Capabilities.Add("oper:kill")

	if !r.HasCapability("oper:kill") {
		t.Errorf("expected role to grant a capability it was given")
	}
	if r.HasCapability("oper:rehash") {
		t.Errorf("expected role to not grant a capability it wasn't given")
	}

	admin := newRole("admin")
	admin.Capabilities.Add("*")
	if !admin.HasCapability("oper:rehash") {
		t.Errorf("expected a role holding '*' to grant any capability")
	}
}

func TestRoleMetaKeyGlobs(t *testing.T) {
	r := newRole("user")
	r.MetaKeysGet = []string{"avatar", "url.*"}
	r.MetaKeysSet = []string{"avatar"}

	if !r.CanGetMetaKey("avatar") {
		t.Errorf("expected exact match key to be gettable")
	}
	if !r.CanGetMetaKey("url.homepage") {
		t.Errorf("expected glob match key to be gettable")
	}
	if r.CanGetMetaKey("bio") {
		t.Errorf("expected unlisted key to not be gettable")
	}
	if !r.CanSetMetaKey("avatar") {
		t.Errorf("expected avatar to be settable")
	}
	if r.CanSetMetaKey("url.homepage") {
		t.Errorf("expected url.homepage to not be settable")
	}
}

func TestRoleRegistryInheritance(t *testing.T) {
	rr := newRoleRegistry()

	base := newRole("base")
	base.Capabilities.Add("chan:join")
	base.MetaKeysGet = []string{"avatar"}
	base.WhoisLine = "is a user"
	rr.Define(base, "")

	child := newRole("oper")
	child.Capabilities.Add("oper:kill")
	child.MetaKeysGet = []string{"url.*"}
	rr.Define(child, "base")

	got, ok := rr.Get("oper")
	if !ok {
		t.Fatalf("expected oper role to be registered")
	}
	if !got.HasCapability("chan:join") {
		t.Errorf("expected oper to inherit chan:join from base")
	}
	if !got.HasCapability("oper:kill") {
		t.Errorf("expected oper to keep its own capability")
	}
	if !got.CanGetMetaKey("avatar") || !got.CanGetMetaKey("url.homepage") {
		t.Errorf("expected oper to inherit and keep meta-key globs")
	}
	if got.WhoisLine != "is a user" {
		t.Errorf("expected oper to inherit WhoisLine from base, got %q", got.WhoisLine)
	}
}

func TestRoleRegistryForwardExtendsIsSkipped(t *testing.T) {
	rr := newRoleRegistry()

	child := newRole("oper")
	child.Capabilities.Add("oper:kill")
	rr.Define(child, "base-not-yet-defined")

	got, ok := rr.Get("oper")
	if !ok {
		t.Fatalf("expected oper role to be registered despite missing base")
	}
	if !got.HasCapability("oper:kill") {
		t.Errorf("expected oper to keep its own capability despite missing base")
	}
	if got.HasCapability("chan:join") {
		t.Errorf("did not expect any capability from an undefined base")
	}
}
