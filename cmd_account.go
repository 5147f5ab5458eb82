package main

// registerCoreHandlers wires the core event bus (Server.core), the
// topic-keyed EventManager mammon's own extensions hang observer
// handlers off of (events.py's EventManager instance separate from the
// per-verb protocol bus). Without these registrations the Dispatch calls
// in completeRegistration/cmd_reg.go/cmd_sasl.go are no-ops.
func registerCoreHandlers(s *Server) {
	s.core.Register(topicClientRegistered, 0, onClientRegistered)
	s.core.Register(topicAccountLogin, 0, onAccountChange)
	s.core.Register(topicAccountLogout, 0, onAccountChange)
}

func onClientRegistered(info *EventInfo) bool {
	c := info.Client
	c.log.debugf("client %s registered (account=%q)", c.id(), c.Account)
	return false
}

// onAccountChange implements account-notify: broadcast ACCOUNT
// <account-or-*> to every common-channel peer holding account-notify
// whenever c.Account changes, grounded on
// original_source/mammon/ext/ircv3/account_notify.py.
func onAccountChange(info *EventInfo) bool {
	c := info.Client
	account := c.Account
	if account == "" {
		account = "*"
	}

	notified := map[uint64]struct{}{c.ID: {}}
	for _, ch := range c.Channels {
		for _, nick := range ch.MemberNicks() {
			peer, ok := c.server.findClientByNick(nick)
			if !ok || !peer.hasCap(capAccountNotify) {
				continue
			}
			if _, done := notified[peer.ID]; done {
				continue
			}
			notified[peer.ID] = struct{}{}
			peer.send(Message{Source: c.source(), Verb: "ACCOUNT", Params: []string{account}})
		}
	}
	return false
}
