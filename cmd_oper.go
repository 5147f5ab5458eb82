package main

// cmdOper handles OPER, generalized from local_user.go's operCommand: the
// teacher compares a plaintext password straight out of config; this
// module verifies a bcrypt hash (hash.go's PasswordHasher) and attaches
// the operator's configured Role rather than only flipping usermode 'o'.
func cmdOper(info *EventInfo) bool {
	c := info.Client
	msg := info.Payload.(Message)
	s := c.server

	if len(msg.Params) < 2 {
		c.sendNumeric(errNeedMoreParams, "OPER", "Not enough parameters")
		return false
	}

	if c.isOperator() {
		c.sendNumeric(rplYoureOper, "You are already an IRC operator")
		return false
	}

	name, password := msg.Params[0], msg.Params[1]

	var matched *OperConfig
	for i := range s.Config.Opers {
		if s.Config.Opers[i].Name == name {
			matched = &s.Config.Opers[i]
			break
		}
	}

	if matched == nil || !s.hasher.Verify(matched.PasswordHash, password) {
		c.sendNumeric(errPasswdMismatch, "Password incorrect")
		return false
	}

	role, ok := s.roles.Get(matched.Role)
	if !ok {
		role, _ = s.roles.Get("operator")
	}
	c.role = role
	c.modes['o'] = struct{}{}

	c.send(Message{Source: c.source(), Verb: "MODE", Params: []string{c.Nick, "+o"}})
	c.sendNumeric(rplYoureOper, "You are now an IRC operator")
	return false
}
