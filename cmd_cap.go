package main

import "strings"

// capReply sends a CAP reply with the client's current display nick (or
// "*" before NICK has landed) as the target, per the CAP message format
// "CAP <nick> <subcommand> [params...]".
func capReply(c *Client, subcommand string, rest ...string) {
	nick := c.Nick
	if nick == "" {
		nick = "*"
	}
	params := append([]string{nick, subcommand}, rest...)
	c.send(Message{Source: c.server.name(), Verb: "CAP", Params: params})
}

// cmdCap dispatches CAP subcommands, a direct generalization of
// original_source/mammon/capability.py's m_CAP and cap_cmds dispatch
// table: every subcommand but END pushes the CAP registration lock so
// registration cannot complete mid-negotiation, and END releases it.
func cmdCap(info *EventInfo) bool {
	c := info.Client
	msg := info.Payload.(Message)

	sub := strings.ToUpper(msg.Params[0])

	switch sub {
	case "LS":
		c.addLock(lockCap)
		capLS(c, msg)
	case "LIST":
		c.addLock(lockCap)
		capLIST(c)
	case "CLEAR":
		c.addLock(lockCap)
		capCLEAR(c)
	case "REQ":
		c.addLock(lockCap)
		capREQ(c, msg)
	case "ACK":
		c.addLock(lockCap)
		capACK(c, msg)
	case "END":
		if c.clearLock(lockCap) {
			completeRegistration(c)
		}
	default:
		c.sendNumeric("410", sub, "Invalid CAP subcommand")
	}
	return false
}

func capLS(c *Client, msg Message) {
	ircv32 := len(msg.Params) > 1 && atoiSafe(msg.Params[1]) > 301
	if ircv32 {
		c.addCap(capCapNotify)
	}

	var atoms []string
	for _, cap := range c.server.caps.All() {
		atoms = append(atoms, cap.Atom(ircv32))
	}

	lines := chunkCapabilityAtoms(atoms)
	for i, line := range lines {
		if i < len(lines)-1 {
			capReply(c, "LS", "*", line)
		} else {
			capReply(c, "LS", line)
		}
	}
}

func capLIST(c *Client) {
	var names []string
	for name := range c.caps {
		names = append(names, name)
	}
	lines := chunkCapabilityAtoms(names)
	for i, line := range lines {
		if i < len(lines)-1 {
			capReply(c, "LIST", "*", line)
		} else {
			capReply(c, "LIST", line)
		}
	}
}

func capCLEAR(c *Client) {
	var changes []string
	for name := range c.caps {
		cap, ok := c.server.caps.Get(name)
		if ok && cap.Sticky {
			continue
		}
		changes = append(changes, "-"+name)
	}
	for _, ch := range changes {
		c.removeCap(strings.TrimPrefix(ch, "-"))
	}
	if len(changes) > 0 {
		// XXX trailing space retained for mIRC, per capability.py's own comment.
		capReply(c, "ACK", strings.Join(changes, " ")+" ")
	}
}

func capREQ(c *Client, msg Message) {
	if len(msg.Params) < 2 {
		return
	}

	var add, del []string
	args := msg.Params[1]

	nak := func() {
		capReply(c, "NAK", args+" ")
	}

	for _, arg := range strings.Fields(args) {
		negate := strings.HasPrefix(arg, "-")
		name := strings.TrimPrefix(arg, "-")

		cap, known := c.server.caps.Get(name)
		if !known {
			nak()
			return
		}

		if negate {
			if !c.hasCap(name) {
				nak()
				return
			}
			if cap.Sticky {
				nak()
				return
			}
			del = append(del, name)
			continue
		}

		if c.hasCap(name) {
			nak()
			return
		}
		add = append(add, name)
	}

	var sb strings.Builder
	sb.WriteString(strings.Join(add, " "))
	for _, d := range del {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString("-" + d)
	}
	capReply(c, "ACK", sb.String()+" ")

	for _, name := range add {
		c.addCap(name)
		if name == capSASL {
			c.addLock(lockSASL)
		}
	}
	for _, name := range del {
		c.removeCap(name)
	}
}

// capACK acknowledges a server-initiated capability change; nothing in
// this module sends CAP ACK to a client unprompted, so this only
// handles the sanity-check/NAK path capability.py's own comment notes
// ("implement CAP ACK for real if it becomes necessary").
func capACK(c *Client, msg Message) {
	if len(msg.Params) < 2 {
		return
	}
	args := msg.Params[1]
	for _, arg := range strings.Fields(args) {
		negate := strings.HasPrefix(arg, "-")
		name := strings.TrimPrefix(arg, "-")
		cap, known := c.server.caps.Get(name)
		if !known {
			capReply(c, "NAK", args+" ")
			return
		}
		if negate && cap.Sticky {
			capReply(c, "NAK", args+" ")
			return
		}
		if !negate && !c.hasCap(name) {
			capReply(c, "NAK", args+" ")
			return
		}
	}
	capReply(c, "ACK", args+" ")
}
