package main

import "strings"

// cmdJoin handles JOIN, grounded on local_user.go's joinCommand:
// channel-name validation, ERR_NOSUCHCHANNEL on a bad name, creating the
// channel (and granting the creator +o) if it didn't exist, then
// broadcasting JOIN plus the RPL_TOPIC/RPL_NAMREPLY/RPL_ENDOFNAMES burst.
// Generalizes the teacher's single-channel-at-a-time handling to the
// comma-separated multi-channel form RFC1459 allows, and adds the
// property checks (key/limit/ban/invite-only) local_user.go never had to
// do because S2S SJOIN never re-validates membership.
func cmdJoin(info *EventInfo) bool {
	c := info.Client
	msg := info.Payload.(Message)

	names := strings.Split(msg.Params[0], ",")
	var keys []string
	if len(msg.Params) > 1 {
		keys = strings.Split(msg.Params[1], ",")
	}

	for i, name := range names {
		key := ""
		if i < len(keys) {
			key = keys[i]
		}
		joinOneChannel(c, name, key)
	}

	return false
}

func joinOneChannel(c *Client, name, key string) {
	s := c.server

	if !isValidChannel(name) {
		c.sendNumeric(errNoSuchChannel, name, "No such channel")
		return
	}

	if len(c.Channels) >= s.Config.Limits.MaxChannelsJoined {
		c.sendNumeric(errNoSuchChannel, name, "Too many channels joined")
		return
	}

	folded := canonicalizeChannel(name)
	if c.Channels[folded] != nil {
		return
	}

	ch, created := s.getOrCreateChannel(name)

	if !created {
		if !authorizeJoin(c, ch, key) {
			return
		}
		if !ch.allowJoinThrottle() {
			c.sendNumeric(errNoSuchChannel, name, "Channel join rate exceeded")
			return
		}
	}

	flag := flagNone
	if created {
		flag = flagOperator
	}
	ch.AddMember(canonicalizeNick(c.Nick), flag)
	ch.Invited.Remove(c.Nick)
	c.Channels[ch.NameFolded] = ch

	joinParams := []string{ch.Name}
	if c.hasCap(capExtendedJoin) {
		account := c.Account
		if account == "" {
			account = "*"
		}
		joinParams = append(joinParams, account, c.RealName)
	}

	for _, nick := range ch.MemberNicks() {
		peer, ok := s.findClientByNick(nick)
		if !ok {
			continue
		}
		peer.send(Message{Source: c.source(), Verb: "JOIN", Params: joinParams})
	}

	if ch.Topic != "" {
		c.sendNumeric(rplTopic, ch.Name, ch.Topic)
	} else {
		c.sendNumeric(rplNoTopic, ch.Name, "No topic is set")
	}

	sendNames(c, ch)

	if s.metrics != nil {
		s.metrics.ChannelJoined()
	}
	s.core.Dispatch(&EventInfo{Key: topicChannelJoin, Client: c, Payload: ch})
}

// authorizeJoin implements the join-authorization checks for an
// already-existing channel: ban, invite-only, key, and limit, in the
// order local_user.go's joinCommand comments imply (ERR_BANNEDFROMCHAN
// before ERR_INVITEONLYCHAN before ERR_BADCHANNELKEY before
// ERR_CHANNELISFULL).
func authorizeJoin(c *Client, ch *Channel, key string) bool {
	hostmask := c.hostmask()

	if ch.isBanned(hostmask) {
		c.sendNumeric(errBannedFromChan, ch.Name, "Cannot join channel (+b)")
		return false
	}

	if ch.InviteOnly && !ch.Invited.Contains(c.Nick) && !ch.isInviteExempt(hostmask) {
		// Open Question decision 1: invite-only JOIN failure always emits
		// 473 ERR_INVITEONLYCHAN, even when the channel is also +k or +l.
		c.sendNumeric(errInviteOnlyChan, ch.Name, "Cannot join channel (+i)")
		return false
	}

	wantKey, limit, memberCount := ch.keyAndLimit()

	if wantKey != "" && wantKey != key {
		c.sendNumeric(errBadChannelKey, ch.Name, "Cannot join channel (+k)")
		return false
	}

	if limit >= 0 && memberCount >= limit {
		c.sendNumeric(errChannelIsFull, ch.Name, "Cannot join channel (+l)")
		return false
	}

	return true
}

func sendNames(c *Client, ch *Channel) {
	s := c.server
	var sb []string
	for _, nick := range ch.MemberNicks() {
		peer, ok := s.findClientByNick(nick)
		if !ok {
			continue
		}
		entry := ch.MemberFlag(nick).Prefix() + peer.Nick
		if c.hasCap(capUserhostInNames) {
			entry = ch.MemberFlag(nick).Prefix() + peer.hostmask()
		}
		sb = append(sb, entry)
	}

	symbol := "="
	if ch.Secret {
		symbol = "@"
	}

	const maxPerLine = 20
	for len(sb) > 0 {
		n := len(sb)
		if n > maxPerLine {
			n = maxPerLine
		}
		c.sendNumeric(rplNamReply, symbol, ch.Name, strings.Join(sb[:n], " "))
		sb = sb[n:]
	}
	c.sendNumeric(rplEndOfNames, ch.Name, "End of /NAMES list")
}

// cmdPart handles PART, grounded on local_user.go's partCommand.
func cmdPart(info *EventInfo) bool {
	c := info.Client
	msg := info.Payload.(Message)

	reason := c.Nick
	if len(msg.Params) > 1 {
		reason = msg.Params[1]
	}

	for _, name := range strings.Split(msg.Params[0], ",") {
		partOneChannel(c, name, reason)
	}
	return false
}

func partOneChannel(c *Client, name, reason string) {
	s := c.server
	ch, ok := s.findChannel(name)
	if !ok {
		c.sendNumeric(errNoSuchChannel, name, "No such channel")
		return
	}
	folded := canonicalizeNick(c.Nick)
	if !ch.HasMember(folded) {
		c.sendNumeric(errNotOnChannel, ch.Name, "You're not on that channel")
		return
	}

	for _, nick := range ch.MemberNicks() {
		peer, ok := s.findClientByNick(nick)
		if !ok {
			continue
		}
		peer.send(Message{Source: c.source(), Verb: "PART", Params: []string{ch.Name, reason}})
	}

	ch.RemoveMember(folded)
	delete(c.Channels, ch.NameFolded)
	s.removeChannelIfEmpty(ch)

	if s.metrics != nil {
		s.metrics.ChannelParted()
	}
}

// cmdTopic handles TOPIC, grounded on local_user.go's topicCommand
// (RPL_NOTOPIC/RPL_TOPIC query form, ERR_CHANOPRIVSNEEDED under +t).
func cmdTopic(info *EventInfo) bool {
	c := info.Client
	msg := info.Payload.(Message)
	s := c.server

	ch, ok := s.findChannel(msg.Params[0])
	if !ok {
		c.sendNumeric(errNoSuchChannel, msg.Params[0], "No such channel")
		return false
	}

	folded := canonicalizeNick(c.Nick)
	if !ch.HasMember(folded) {
		c.sendNumeric(errNotOnChannel, ch.Name, "You're not on that channel")
		return false
	}

	if len(msg.Params) < 2 {
		if ch.Topic == "" {
			c.sendNumeric(rplNoTopic, ch.Name, "No topic is set")
		} else {
			c.sendNumeric(rplTopic, ch.Name, ch.Topic)
		}
		return false
	}

	if ch.OpsTopicOnly && ch.MemberFlag(folded) < flagOperator {
		c.sendNumeric(errChanOPrivsNeeded, ch.Name, "You're not channel operator")
		return false
	}

	topic := msg.Params[1]
	if max := s.Config.Limits.MaxTopicLength; len(topic) > max {
		topic = topic[:max]
	}
	ch.Topic = topic
	ch.TopicSetBy = c.source()

	for _, nick := range ch.MemberNicks() {
		peer, ok := s.findClientByNick(nick)
		if !ok {
			continue
		}
		peer.send(Message{Source: c.source(), Verb: "TOPIC", Params: []string{ch.Name, topic}})
	}
	return false
}

// cmdInvite handles INVITE, grounded on the RFC1459 invite semantics
// local_user.go's ERR_USERONCHANNEL check (for JOIN) implies the
// counterpart for; the teacher itself never implements standalone
// INVITE since TS6 propagates invites over the server link instead.
func cmdInvite(info *EventInfo) bool {
	c := info.Client
	msg := info.Payload.(Message)
	s := c.server

	target, ok := s.findClientByNick(msg.Params[0])
	if !ok {
		c.sendNumeric(errNoSuchNick, msg.Params[0], "No such nick/channel")
		return false
	}

	ch, ok := s.findChannel(msg.Params[1])
	if !ok {
		c.sendNumeric(errNoSuchChannel, msg.Params[1], "No such channel")
		return false
	}

	folded := canonicalizeNick(c.Nick)
	if !ch.HasMember(folded) {
		c.sendNumeric(errNotOnChannel, ch.Name, "You're not on that channel")
		return false
	}
	if ch.InviteOnly && ch.MemberFlag(folded) < flagOperator {
		c.sendNumeric(errChanOPrivsNeeded, ch.Name, "You're not channel operator")
		return false
	}
	if ch.HasMember(canonicalizeNick(target.Nick)) {
		c.sendNumeric(errUserOnChannel, target.Nick, ch.Name, "is already on channel")
		return false
	}

	ch.Invited.Add(target.Nick)
	c.sendNumeric(rplInviting, target.Nick, ch.Name)
	target.send(Message{Source: c.source(), Verb: "INVITE", Params: []string{target.Nick, ch.Name}})
	return false
}

// cmdKick handles KICK.
func cmdKick(info *EventInfo) bool {
	c := info.Client
	msg := info.Payload.(Message)
	s := c.server

	ch, ok := s.findChannel(msg.Params[0])
	if !ok {
		c.sendNumeric(errNoSuchChannel, msg.Params[0], "No such channel")
		return false
	}

	actorFolded := canonicalizeNick(c.Nick)
	if !ch.HasMember(actorFolded) {
		c.sendNumeric(errNotOnChannel, ch.Name, "You're not on that channel")
		return false
	}
	if ch.MemberFlag(actorFolded) < flagOperator {
		c.sendNumeric(errChanOPrivsNeeded, ch.Name, "You're not channel operator")
		return false
	}

	target, ok := s.findClientByNick(msg.Params[1])
	targetFolded := canonicalizeNick(msg.Params[1])
	if !ok || !ch.HasMember(targetFolded) {
		c.sendNumeric(errUserNotInChannel, msg.Params[1], ch.Name, "They aren't on that channel")
		return false
	}

	reason := c.Nick
	if len(msg.Params) > 2 {
		reason = msg.Params[2]
	}

	for _, nick := range ch.MemberNicks() {
		peer, ok := s.findClientByNick(nick)
		if !ok {
			continue
		}
		peer.send(Message{Source: c.source(), Verb: "KICK", Params: []string{ch.Name, target.Nick, reason}})
	}

	ch.RemoveMember(targetFolded)
	delete(target.Channels, ch.NameFolded)
	s.removeChannelIfEmpty(ch)
	return false
}
