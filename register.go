package main

import (
	"net"
	"strconv"
	"strings"
)

// sendConnectionNumerics is emitted once the TCP/TLS connection is
// accepted, mirroring the teacher's separation between connection setup
// and registration completion: nothing identifying the client has
// arrived yet, so nothing is sent here beyond resolving its display
// hostname. Kept as an explicit hook so listener-level features (e.g.
// identd lookups) have a natural place to run.
func (s *Server) sendConnectionNumerics(c *Client) {
	c.Hostname = c.conn.IP.String()
	if host, err := reverseLookup(c.conn.IP); err == nil && host != "" {
		c.Hostname = host
	}
}

// reverseLookup does a best-effort PTR lookup. It runs on the event loop
// when the connection is accepted; there is no DNS registration lock, so
// a failure here never blocks registration, only falls back to the literal IP the
// teacher's own registerUser() does ("hostname := c.Conn.IP.String()").
func reverseLookup(ip net.IP) (string, error) {
	names, err := net.LookupAddr(ip.String())
	if err != nil || len(names) == 0 {
		return "", err
	}
	return strings.TrimSuffix(names[0], "."), nil
}

func registerBuiltinCapabilities(r *CapabilityRegistry) {
	r.Register(Capability{Name: capCapNotify})
	r.Register(Capability{Name: capMultiPrefix})
	r.Register(Capability{Name: capExtendedJoin})
	r.Register(Capability{Name: capAwayNotify})
	r.Register(Capability{Name: capAccountNotify})
	r.Register(Capability{Name: capEchoMessage})
	r.Register(Capability{Name: capServerTime})
	r.Register(Capability{Name: capUserhostInNames})
	r.Register(Capability{Name: capMetadataNotify})
	r.Register(Capability{Name: capSASL, Value: "PLAIN"})
}

func registerBuiltinRoles(rr *RoleRegistry, cfg *Config) {
	base := newRole("operator")
	base.Capabilities.Add("oper:kill")
	base.Capabilities.Add("oper:notice")
	base.WhoisLine = "is an IRC Operator"
	rr.Define(base, "")

	for _, rc := range cfg.Roles {
		r := newRole(rc.Name)
		for _, c := range rc.Capabilities {
			r.Capabilities.Add(c)
		}
		r.MetaKeysGet = rc.MetaKeysGet
		r.MetaKeysSet = rc.MetaKeysSet
		r.WhoisLine = rc.WhoisLine
		rr.Define(r, rc.Extends)
	}
}

// cmdNick handles both pre-registration nick selection and post-
// registration nick changes, generalized from local_client.go's
// nickCommand (pre-reg) and local_user.go's NICK handler (post-reg),
// which the teacher keeps as two separate methods on two separate types.
func cmdNick(info *EventInfo) bool {
	c := info.Client
	msg := info.Payload.(Message)

	if len(msg.Params) < 1 || msg.Params[0] == "" {
		c.sendNumeric(errNoNicknameGiven, "No nickname given")
		return false
	}

	nick := msg.Params[0]
	if !isValidNick(c.server.Config.Limits.MaxNickLength, nick) {
		c.sendNumeric(errErroneousNick, nick, "Erroneous nickname")
		return false
	}

	if existing, ok := c.server.findClientByNick(nick); ok && existing != c {
		c.sendNumeric(errNicknameInUse, nick, "Nickname is already in use")
		return false
	}

	wasRegistered := c.isRegistered()
	oldSource := c.source()
	oldFolded := canonicalizeNick(c.Nick)

	if !c.server.registerClientNick(c, nick) {
		c.sendNumeric(errNicknameInUse, nick, "Nickname is already in use")
		return false
	}

	if !wasRegistered {
		if c.clearLock(lockNick) {
			completeRegistration(c)
		}
		return false
	}

	c.server.history.Forget(nick)

	notified := map[uint64]struct{}{c.ID: {}}
	c.send(Message{Source: oldSource, Verb: "NICK", Params: []string{nick}})
	for _, ch := range c.Channels {
		ch.RemoveMember(oldFolded)
		ch.AddMember(canonicalizeNick(nick), ch.MemberFlag(oldFolded))
		for _, n := range ch.MemberNicks() {
			peer, ok := c.server.findClientByNick(n)
			if !ok {
				continue
			}
			if _, done := notified[peer.ID]; done {
				continue
			}
			notified[peer.ID] = struct{}{}
			peer.send(Message{Source: oldSource, Verb: "NICK", Params: []string{nick}})
		}
	}

	return false
}

// cmdUser handles USER, grounded on local_client.go's userCommand.
func cmdUser(info *EventInfo) bool {
	c := info.Client
	msg := info.Payload.(Message)

	if c.isRegistered() {
		c.sendNumeric(errAlreadyRegistred, "Unauthorized command (already registered)")
		return false
	}

	if len(msg.Params) < 4 {
		c.sendNumeric(errNeedMoreParams, "USER", "Not enough parameters")
		return false
	}

	if !isValidUser(c.server.Config.Limits.MaxUserLength, msg.Params[0]) {
		c.Username = "~user"
	} else {
		c.Username = "~" + msg.Params[0]
	}
	c.RealName = msg.Params[3]

	if c.clearLock(lockUser) {
		completeRegistration(c)
	}

	return false
}

// completeRegistration sends the post-registration numeric burst, the
// generalized equivalent of local_client.go's registerUser tail (001-004,
// LUSERS, MOTD, then the default +i usermode), minus the TS6
// UID-propagation and oper-notification blocks that only apply to a
// multi-server network.
func completeRegistration(c *Client) {
	s := c.server
	welcome := "Welcome to the " + s.Config.Server.Network + " IRC Network, " + c.hostmask()

	c.sendNumeric(rplWelcome, welcome)
	c.sendNumeric(rplYourHost, "Your host is "+s.name()+", running version "+s.Config.Server.Version)
	c.sendNumeric(rplCreated, "This server was created "+s.Config.Server.CreatedDate)
	c.sendNumeric(rplMyInfo, s.name(), s.Config.Server.Version, "ioC", "ns")
	sendISupport(c)

	cmdLusers(&EventInfo{Client: c})
	cmdMotd(&EventInfo{Client: c})

	c.modes['i'] = struct{}{}
	c.sendFromServer("MODE", c.Nick, "+i")

	if s.metrics != nil {
		s.metrics.ClientConnected()
	}

	s.notifyMonitorsOnline(c.Nick)
	s.core.Dispatch(&EventInfo{Key: topicClientRegistered, Client: c})
}

// sendISupport emits RPL_ISUPPORT (005), advertising the fixed feature
// set spec.md requires in the post-registration burst: the network name,
// the IRCv3 client version this server negotiates, the ASCII casefold
// the server actually implements (identifiers.go's casefold), and the
// per-target limits METADATA/MONITOR enforce.
func sendISupport(c *Client) {
	s := c.server
	tokens := []string{
		"NETWORK=" + s.Config.Server.Network,
		"CLIENTVER=3.2",
		"CASEMAPPING=ascii",
		"CHARSET=utf-8",
		"SAFELIST",
		"METADATA=" + strconv.Itoa(s.Config.Metadata.MaxKeysPerTarget),
		"MONITOR=" + strconv.Itoa(s.Config.Monitor.MaxEntries),
		"CHANTYPES=#",
	}
	c.sendNumeric(rplISupport, append(tokens, "are supported by this server")...)
}

// cmdPass handles PASS, grounded on local_client.go's passCommand;
// verification is deferred until registration completes since USER may
// arrive before PASS is needed for a SASL-less operator auto-login flow.
func cmdPass(info *EventInfo) bool {
	c := info.Client
	msg := info.Payload.(Message)
	if len(msg.Params) < 1 {
		c.sendNumeric(errNeedMoreParams, "PASS", "Not enough parameters")
		return false
	}
	if c.isRegistered() {
		c.sendNumeric(errAlreadyRegistred, "Unauthorized command (already registered)")
		return false
	}
	c.password = msg.Params[0]
	return false
}

func cmdPing(info *EventInfo) bool {
	c := info.Client
	msg := info.Payload.(Message)
	token := c.server.name()
	if len(msg.Params) > 0 {
		token = msg.Params[0]
	}
	c.sendFromServer("PONG", c.server.name(), token)
	return false
}

func cmdPong(info *EventInfo) bool {
	info.Client.touchIdle()
	return false
}

func cmdQuit(info *EventInfo) bool {
	c := info.Client
	msg := info.Payload.(Message)
	reason := "Client Quit"
	if len(msg.Params) > 0 {
		reason = msg.Params[0]
	}
	c.server.disconnectClient(c, reason)
	return false
}
