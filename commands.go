package main

// registerCommands wires every verb handler into s.protocol, the
// generalization of local_client.go/local_user.go's big command-name
// switch statements into a table, matching the component design's
// event-bus split (§2's "command handlers" component): min-param counts
// and registration gating live here instead of being re-checked at the
// top of every handler.
func registerCommands(s *Server) {
	reg := func(verb string, minParams int, allowUnregistered, updatesIdle bool, fn EventHandlerFunc) {
		s.protocol.Register(ProtocolCommand{
			Verb:              verb,
			MinParams:         minParams,
			AllowUnregistered: allowUnregistered,
			UpdatesIdle:       updatesIdle,
			Handler:           fn,
		})
	}

	// Registration and connection lifecycle.
	reg("CAP", 1, true, false, cmdCap)
	reg("PASS", 1, true, false, cmdPass)
	reg("NICK", 1, true, false, cmdNick)
	reg("USER", 4, true, false, cmdUser)
	reg("AUTHENTICATE", 1, true, false, cmdAuthenticate)
	reg("REG", 1, true, false, cmdReg)
	reg("PING", 0, true, false, cmdPing)
	reg("PONG", 0, true, true, cmdPong)
	reg("QUIT", 0, true, false, cmdQuit)

	// Channel membership and state.
	reg("JOIN", 1, false, true, cmdJoin)
	reg("PART", 1, false, true, cmdPart)
	reg("TOPIC", 1, false, true, cmdTopic)
	reg("INVITE", 2, false, true, cmdInvite)
	reg("KICK", 2, false, true, cmdKick)
	reg("MODE", 1, false, true, cmdMode)

	// Messaging.
	reg("PRIVMSG", 1, false, true, cmdPrivmsg)
	reg("NOTICE", 1, false, true, cmdPrivmsg)
	reg("AWAY", 0, false, true, cmdAway)
	reg("WALLOPS", 1, false, true, cmdWallops)

	// Queries.
	reg("WHOIS", 1, false, true, cmdWhois)
	reg("WHO", 1, false, true, cmdWho)
	reg("WHOWAS", 1, false, true, cmdWhowas)
	reg("LIST", 0, false, true, cmdList)
	reg("LUSERS", 0, false, true, cmdLusers)
	reg("MOTD", 0, false, true, cmdMotd)

	// Operator and notification extensions.
	reg("OPER", 2, false, true, cmdOper)
	reg("MONITOR", 1, false, true, cmdMonitor)
	reg("METADATA", 2, false, true, cmdMetadata)
}
