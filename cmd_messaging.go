package main

// cmdPrivmsg handles PRIVMSG and NOTICE (registered as the same handler
// function for both verbs, per RFC1459 and matching local_user.go's own
// comment that "PRIVMSG and NOTICE are essentially the same"). Adds
// echo-message (send the message back to the sender if they negotiated
// it) and away-reply (send RPL_AWAY back for a direct message to an away
// user) on top of the teacher's channel/nick fanout.
func cmdPrivmsg(info *EventInfo) bool {
	c := info.Client
	msg := info.Payload.(Message)

	if len(msg.Params) == 0 {
		c.sendNumeric(errNoRecipient, "No recipient given ("+msg.Verb+")")
		return false
	}
	if len(msg.Params) == 1 || msg.Params[1] == "" {
		c.sendNumeric(errNoTextToSend, "No text to send")
		return false
	}

	target := msg.Params[0]
	text := msg.Params[1]

	if target[0] == '#' {
		deliverChannelMessage(c, msg.Verb, target, text)
	} else {
		deliverPrivateMessage(c, msg.Verb, target, text)
	}

	if c.hasCap(capEchoMessage) {
		c.send(Message{Source: c.source(), Verb: msg.Verb, Params: []string{target, text}})
	}

	c.touchIdle()
	return false
}

func deliverChannelMessage(c *Client, verb, target, text string) {
	s := c.server
	ch, ok := s.findChannel(target)
	if !ok {
		if verb != "NOTICE" {
			c.sendNumeric(errNoSuchChannel, target, "No such channel")
		}
		return
	}

	folded := canonicalizeNick(c.Nick)
	if ch.NoExternal && !ch.HasMember(folded) {
		c.sendNumeric(errCannotSendToChan, ch.Name, "Cannot send to channel")
		return
	}
	if ch.HasMember(folded) && !ch.canSpeak(folded, c.hostmask()) {
		c.sendNumeric(errCannotSendToChan, ch.Name, "Cannot send to channel")
		return
	}

	for _, nick := range ch.MemberNicks() {
		if nick == folded {
			continue
		}
		peer, ok := s.findClientByNick(nick)
		if !ok {
			continue
		}
		peer.send(Message{Source: c.source(), Verb: verb, Params: []string{ch.Name, text}})
	}
}

func deliverPrivateMessage(c *Client, verb, target, text string) {
	s := c.server
	peer, ok := s.findClientByNick(target)
	if !ok {
		if verb != "NOTICE" {
			c.sendNumeric(errNoSuchNick, target, "No such nick/channel")
		}
		return
	}

	peer.send(Message{Source: c.source(), Verb: verb, Params: []string{peer.Nick, text}})

	if peer.isAway() {
		c.sendNumeric(rplAway, peer.Nick, peer.awayMessage)
	}
}

// cmdAway handles AWAY, and fans out away-notify to common channels,
// grounded on the component design's away-notify section (§4.14): the
// teacher has no AWAY handler at all since the mature generation never
// finished user-facing command support beyond what ircd_test.go exercises.
func cmdAway(info *EventInfo) bool {
	c := info.Client
	msg := info.Payload.(Message)

	was := c.isAway()
	if len(msg.Params) == 0 || msg.Params[0] == "" {
		c.awayMessage = ""
	} else {
		c.awayMessage = msg.Params[0]
	}

	if c.isAway() {
		c.sendNumeric("306", "You have been marked as being away")
	} else {
		c.sendNumeric("305", "You are no longer marked as being away")
	}

	if was != c.isAway() {
		notifyAwayChange(c)
	}
	return false
}

func notifyAwayChange(c *Client) {
	notified := map[uint64]struct{}{c.ID: {}}
	for _, ch := range c.Channels {
		for _, nick := range ch.MemberNicks() {
			peer, ok := c.server.findClientByNick(nick)
			if !ok || !peer.hasCap(capAwayNotify) {
				continue
			}
			if _, done := notified[peer.ID]; done {
				continue
			}
			notified[peer.ID] = struct{}{}
			if c.isAway() {
				peer.send(Message{Source: c.source(), Verb: "AWAY", Params: []string{c.awayMessage}})
			} else {
				peer.send(Message{Source: c.source(), Verb: "AWAY"})
			}
		}
	}
}

// cmdWallops handles WALLOPS, grounded on local_server.go's
// wallopsCommand (S2S fanout) generalized to fan out to every locally
// connected client holding special:oper (SPEC_FULL.md §4.17) instead of
// every linked server.
func cmdWallops(info *EventInfo) bool {
	c := info.Client
	msg := info.Payload.(Message)
	s := c.server

	if !c.isOperator() {
		c.sendNumeric(errNoPrivileges, "Permission Denied- You're not an IRC operator")
		return false
	}
	if len(msg.Params) < 1 {
		c.sendNumeric(errNeedMoreParams, "WALLOPS", "Not enough parameters")
		return false
	}

	for _, peer := range s.clients {
		if peer.isOperator() {
			peer.send(Message{Source: c.source(), Verb: "WALLOPS", Params: []string{msg.Params[0]}})
		}
	}
	return false
}
