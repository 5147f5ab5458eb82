package main

import (
	"strconv"
	"strings"
	"time"
)

// cmdWhois handles WHOIS, generalized from local_user.go's whoisCommand
// (itself already single-nick-only, matching the component design's
// scope) with AWAY, account, and role whois-line reporting layered on.
func cmdWhois(info *EventInfo) bool {
	c := info.Client
	msg := info.Payload.(Message)

	if len(msg.Params) == 0 {
		c.sendNumeric(errNoNicknameGiven, "No nickname given")
		return false
	}

	nick := msg.Params[len(msg.Params)-1]
	target, ok := c.server.findClientByNick(nick)
	if !ok {
		c.sendNumeric(errNoSuchNick, nick, "No such nick/channel")
		return false
	}

	c.sendNumeric(rplWhoisUser, target.Nick, target.Username, target.Hostname, "*", target.RealName)

	var chans []string
	for _, ch := range target.Channels {
		if ch.Secret && !ch.HasMember(canonicalizeNick(c.Nick)) {
			continue
		}
		folded := canonicalizeNick(target.Nick)
		chans = append(chans, ch.MemberFlag(folded).Prefix()+ch.Name)
	}
	if len(chans) > 0 {
		c.sendNumeric(rplWhoisChannels, target.Nick, joinSpace(chans))
	}

	c.sendNumeric(rplWhoisServer, target.Nick, c.server.name(), c.server.Config.Server.Description)

	if target.role != nil {
		line := target.role.WhoisLine
		if line == "" {
			line = "is an IRC Operator"
		}
		c.sendNumeric(rplWhoisOperator, target.Nick, line)
	}

	if target.Account != "" {
		c.sendNumeric(rplWhoisAccount, target.Nick, target.Account, "is logged in as")
	}

	if target.isAway() {
		c.sendNumeric(rplAway, target.Nick, target.awayMessage)
	}

	c.sendNumeric(rplWhoisIdle, target.Nick, strconv.FormatInt(target.idleSeconds(), 10), "seconds idle")
	c.sendNumeric(rplEndOfWhois, target.Nick, "End of WHOIS list")
	return false
}

// cmdWho handles WHO, restricted to a channel target the way
// local_user.go's whoCommand is ("Contrary to RFC 2812, I support only
// 'WHO #channel'").
func cmdWho(info *EventInfo) bool {
	c := info.Client
	msg := info.Payload.(Message)

	ch, ok := c.server.findChannel(msg.Params[0])
	if !ok {
		c.sendNumeric(errNoSuchChannel, msg.Params[0], "Invalid channel name")
		return false
	}

	if !ch.HasMember(canonicalizeNick(c.Nick)) {
		c.sendNumeric(errNotOnChannel, ch.Name, "You're not on that channel")
		return false
	}

	for _, nick := range ch.MemberNicks() {
		member, ok := c.server.findClientByNick(nick)
		if !ok {
			continue
		}
		status := "H"
		if member.isAway() {
			status = "G"
		}
		if member.isOperator() {
			status += "*"
		}
		status += ch.MemberFlag(nick).Prefix()
		c.sendNumeric(rplWhoReply, ch.Name, member.Username, member.Hostname, c.server.name(),
			member.Nick, status, "0 "+member.RealName)
	}
	c.sendNumeric(rplEndOfWho, ch.Name, "End of WHO list")
	return false
}

// cmdWhowas handles WHOWAS, backed by Server.history (ClientHistory),
// since the teacher never implements a nickname history at all (TS6
// relies on NICK collision resolution across the network instead of a
// local history lookup).
func cmdWhowas(info *EventInfo) bool {
	c := info.Client
	msg := info.Payload.(Message)

	if len(msg.Params) == 0 {
		c.sendNumeric(errNoNicknameGiven, "No nickname given")
		return false
	}

	entry, ok := c.server.history.Get(msg.Params[0], time.Now())
	if !ok {
		c.sendNumeric("406", msg.Params[0], "There was no such nickname")
		c.sendNumeric(rplEndOfWhoWas, msg.Params[0], "End of WHOWAS")
		return false
	}

	c.sendNumeric(rplWhoWasUser, entry.Nickname, entry.Username, entry.Hostname, "*", entry.RealName)
	c.sendNumeric(rplEndOfWhoWas, msg.Params[0], "End of WHOWAS")
	return false
}

// cmdList handles LIST, generalized since the teacher never implements
// it (its mature generation has no LIST handler at all).
func cmdList(info *EventInfo) bool {
	c := info.Client
	s := c.server

	c.sendNumeric(rplListStart, "Channel", "Users  Name")
	for _, ch := range s.channels {
		if ch.Secret && !ch.HasMember(canonicalizeNick(c.Nick)) {
			continue
		}
		c.sendNumeric(rplList, ch.Name, strconv.Itoa(len(ch.MemberNicks())), ch.Topic)
	}
	c.sendNumeric(rplListEnd, "End of /LIST")
	return false
}

// cmdLusers handles LUSERS, grounded on local_user.go's lusersCommand.
func cmdLusers(info *EventInfo) bool {
	c := info.Client
	s := c.server

	registered := 0
	opers := 0
	for _, peer := range s.clients {
		if peer.isRegistered() {
			registered++
			if peer.isOperator() {
				opers++
			}
		}
	}
	unknown := len(s.clients) - registered

	c.sendNumeric(rplLUserClient, "There are "+strconv.Itoa(registered)+" users and 0 services on 1 servers.")
	if opers > 0 {
		c.sendNumeric(rplLUserOp, strconv.Itoa(opers), "operator(s) online")
	}
	if unknown > 0 {
		c.sendNumeric(rplLUserUnknown, strconv.Itoa(unknown), "unknown connection(s)")
	}
	if len(s.channels) > 0 {
		c.sendNumeric(rplLUserChannels, strconv.Itoa(len(s.channels)), "channels formed")
	}
	c.sendNumeric(rplLUserMe, "I have "+strconv.Itoa(registered)+" clients and 1 servers")
	return false
}

// cmdMotd handles MOTD, grounded on local_user.go's motdCommand.
func cmdMotd(info *EventInfo) bool {
	c := info.Client
	s := c.server

	if s.motd == "" {
		c.sendNumeric(errNoMotd, "MOTD File is missing")
		return false
	}

	c.sendNumeric(rplMotdStart, "- "+s.name()+" Message of the day - ")
	for _, line := range strings.Split(s.motd, "\n") {
		c.sendNumeric(rplMotd, "- "+line)
	}
	c.sendNumeric(rplEndOfMotd, "End of MOTD command")
	return false
}
