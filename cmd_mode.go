package main

import (
	"strconv"
	"strings"
	"time"
)

// modeChange is one +/-<letter>[ arg] unit of a MODE command.
type modeChange struct {
	add   bool
	letter byte
	arg   string
}

// cmdMode dispatches to channel-mode or user-mode handling depending on
// the target, grounded on local_user.go's modeCommand which does the
// same dispatch (it checks isValidChannel(target) to decide between
// "things.go" channel-mode handling and user umode handling).
func cmdMode(info *EventInfo) bool {
	c := info.Client
	msg := info.Payload.(Message)

	target := msg.Params[0]
	if isValidChannel(target) {
		channelMode(c, msg)
	} else {
		userMode(c, msg)
	}
	return false
}

func userMode(c *Client, msg Message) {
	if !strings.EqualFold(msg.Params[0], c.Nick) {
		c.sendNumeric(errUsersDontMatch, "Cannot change mode for other users")
		return
	}

	if len(msg.Params) < 2 {
		c.sendNumeric(rplUmodeIs, c.modesString())
		return
	}

	changes := parseModeString(msg.Params[1], nil)
	var applied []modeChange
	for _, ch := range changes {
		if !strings.ContainsRune("iow", rune(ch.letter)) {
			c.sendNumeric(errUModeUnknownFlag, "Unknown MODE flag")
			continue
		}
		if ch.letter == 'o' && ch.add {
			continue // operator status is granted only via OPER
		}
		if ch.add {
			c.modes[ch.letter] = struct{}{}
		} else {
			delete(c.modes, ch.letter)
		}
		applied = append(applied, ch)
	}

	if len(applied) > 0 {
		c.send(Message{Source: c.source(), Verb: "MODE", Params: []string{c.Nick, renderModeChanges(applied)}})
	}
}

// channelModeLetters enumerates the letters recognized by channelMode,
// and whether each takes an argument (for the add direction; ban-style
// letters take an argument for removal too).
var channelModeLetters = map[byte]bool{
	's': false, 'm': false, 'n': false, 't': false, 'i': false,
	'k': true, 'l': true, 'b': true, 'e': true, 'I': true,
	'o': true, 'v': true, 'f': true, 'j': true, 'q': true,
}

// argOnlyOnAdd is the set of single-valued letters that take an argument
// only when being set, never when cleared (-l, -f, -j just drop the
// setting with no argument to match back against).
var argOnlyOnAdd = map[byte]bool{'l': true, 'f': true, 'j': true}

func channelMode(c *Client, msg Message) {
	s := c.server
	ch, ok := s.findChannel(msg.Params[0])
	if !ok {
		c.sendNumeric(errNoSuchChannel, msg.Params[0], "No such channel")
		return
	}

	folded := canonicalizeNick(c.Nick)

	if len(msg.Params) < 2 {
		flags, args := ch.modeString()
		c.sendNumeric(rplChannelModeIs, append([]string{ch.Name, flags}, args...)...)
		return
	}

	if !ch.HasMember(folded) {
		c.sendNumeric(errNotOnChannel, ch.Name, "You're not on that channel")
		return
	}

	args := msg.Params[2:]
	changes := parseModeString(msg.Params[1], args)

	if len(changes) == 0 {
		return
	}

	// Querying a list-mode with no argument (MODE #chan b) lists it
	// instead of toggling.
	if len(changes) == 1 && changes[0].arg == "" && strings.ContainsRune("beIq", rune(changes[0].letter)) {
		listChannelMode(c, ch, changes[0].letter)
		return
	}

	if ch.MemberFlag(folded) < flagOperator {
		c.sendNumeric(errChanOPrivsNeeded, ch.Name, "You're not channel operator")
		return
	}

	applied := applyChannelModeChanges(c, ch, changes)
	if len(applied) == 0 {
		return
	}

	line := renderModeChanges(applied)
	for _, nick := range ch.MemberNicks() {
		peer, ok := s.findClientByNick(nick)
		if !ok {
			continue
		}
		peer.send(Message{Source: c.source(), Verb: "MODE", Params: append([]string{ch.Name}, splitModeLine(line)...)})
	}
	s.core.Dispatch(&EventInfo{Key: topicChannelMode, Client: c, Payload: ch})
}

func listChannelMode(c *Client, ch *Channel, letter byte) {
	var list []channelBan
	var startCode, endCode string
	switch letter {
	case 'b':
		list, startCode, endCode = ch.Bans, rplBanList, rplEndOfBanList
	case 'e':
		list, startCode, endCode = ch.Exempts, rplBanList, rplEndOfBanList
	case 'I':
		list, startCode, endCode = ch.InviteExempts, rplBanList, rplEndOfBanList
	case 'q':
		list, startCode, endCode = ch.Quiets, rplBanList, rplEndOfBanList
	}
	for _, b := range list {
		c.sendNumeric(startCode, ch.Name, b.Mask, b.SetBy)
	}
	c.sendNumeric(endCode, ch.Name, "End of list")
}

// applyChannelModeChanges mutates ch per changes and returns the subset
// that actually changed state, so a no-op toggle (e.g. +m on an already
// moderated channel) is not echoed, matching RFC1459 practice.
func applyChannelModeChanges(c *Client, ch *Channel, changes []modeChange) []modeChange {
	var applied []modeChange
	for _, m := range changes {
		ok := true
		switch m.letter {
		case 's':
			ok = ch.Secret != m.add
			ch.Secret = m.add
		case 'm':
			ok = ch.Moderated != m.add
			ch.Moderated = m.add
		case 'n':
			ok = ch.NoExternal != m.add
			ch.NoExternal = m.add
		case 't':
			ok = ch.OpsTopicOnly != m.add
			ch.OpsTopicOnly = m.add
		case 'i':
			ok = ch.InviteOnly != m.add
			ch.InviteOnly = m.add
		case 'k':
			if m.add {
				ok = ch.Key != m.arg
				ch.Key = m.arg
			} else {
				ok = ch.Key != ""
				ch.Key = ""
			}
		case 'l':
			if m.add {
				ok = ch.Limit != atoiSafe(m.arg)
				ch.Limit = atoiSafe(m.arg)
			} else {
				ok = ch.Limit != -1
				ch.Limit = -1
			}
		case 'b':
			ok = applyMaskMode(&ch.Bans, m, c.source())
		case 'e':
			ok = applyMaskMode(&ch.Exempts, m, c.source())
		case 'I':
			ok = applyMaskMode(&ch.InviteExempts, m, c.source())
		case 'o':
			ok = applyPrivilegeMode(ch, m, flagOperator)
		case 'v':
			ok = applyPrivilegeMode(ch, m, flagVoice)
		case 'q':
			ok = applyMaskMode(&ch.Quiets, m, c.source())
		case 'f':
			if m.add {
				ok = ch.ForwardTo != m.arg
				ch.ForwardTo = m.arg
			} else {
				ok = ch.ForwardTo != ""
				ch.ForwardTo = ""
			}
		case 'j':
			if m.add {
				n, window, valid := parseJoinThrottle(m.arg)
				if !valid {
					c.sendNumeric(errUnknownMode, string(m.letter), "invalid join-throttle value")
					continue
				}
				ch.SetJoinThrottle(n, window)
			} else {
				ok = ch.joinLimiter != nil
				ch.SetJoinThrottle(0, time.Second)
			}
		default:
			c.sendNumeric(errUnknownMode, string(m.letter), "is unknown mode char to me")
			continue
		}
		if ok {
			applied = append(applied, m)
		}
	}
	return applied
}

func applyMaskMode(list *[]channelBan, m modeChange, setBy string) bool {
	if m.add {
		for _, b := range *list {
			if casefold(b.Mask) == casefold(m.arg) {
				return false
			}
		}
		*list = append(*list, channelBan{Mask: m.arg, SetBy: setBy})
		return true
	}
	for i, b := range *list {
		if casefold(b.Mask) == casefold(m.arg) {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return true
		}
	}
	return false
}

func applyPrivilegeMode(ch *Channel, m modeChange, flag memberFlag) bool {
	folded := canonicalizeNick(m.arg)
	if !ch.HasMember(folded) {
		return false
	}
	current := ch.MemberFlag(folded)
	if m.add {
		if current >= flag {
			return false
		}
		ch.SetMemberFlag(folded, flag)
	} else {
		if current != flag {
			return false
		}
		ch.SetMemberFlag(folded, flagNone)
	}
	return true
}

// parseJoinThrottle parses the "+j N:M" argument (N joins per M seconds).
func parseJoinThrottle(arg string) (n int, window time.Duration, ok bool) {
	parts := strings.SplitN(arg, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	count, err1 := strconv.Atoi(parts[0])
	secs, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || count <= 0 || secs <= 0 {
		return 0, 0, false
	}
	return count, time.Duration(secs) * time.Second, true
}

func atoiSafe(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return -1
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// parseModeString parses a "+o-v+k" style string into modeChange units,
// consuming args for letters that need them, in the order listed.
func parseModeString(s string, args []string) []modeChange {
	var out []modeChange
	add := true
	argIdx := 0
	for _, r := range s {
		switch r {
		case '+':
			add = true
		case '-':
			add = false
		default:
			letter := byte(r)
			arg := ""
			takesArg := channelModeLetters[letter] && (!argOnlyOnAdd[letter] || add)
			if takesArg && argIdx < len(args) {
				arg = args[argIdx]
				argIdx++
			}
			out = append(out, modeChange{add: add, letter: letter, arg: arg})
		}
	}
	return out
}

// renderModeChanges implements Open-Question decision 3: emit one
// '+'-prefixed group of every added letter followed by one '-'-prefixed
// group of every removed letter (never interleaved), each letter's
// argument appended in the same order after the flag string. This
// favors the symmetric-difference testable property (a MODE applied then
// immediately reverted nets to the identity) over reproducing the
// teacher's own in-order +/- interleaving, which ircd_test.go's
// TestParseAndResolveUmodeChanges shows can otherwise emit redundant
// "+o-o" pairs for the same target.
func renderModeChanges(changes []modeChange) string {
	var plus, minus strings.Builder
	var args []string

	for _, c := range changes {
		if c.add {
			plus.WriteByte(c.letter)
		} else {
			minus.WriteByte(c.letter)
		}
	}
	for _, c := range changes {
		if c.add && c.arg != "" {
			args = append(args, c.arg)
		}
	}
	for _, c := range changes {
		if !c.add && c.arg != "" {
			args = append(args, c.arg)
		}
	}

	var sb strings.Builder
	if plus.Len() > 0 {
		sb.WriteByte('+')
		sb.WriteString(plus.String())
	}
	if minus.Len() > 0 {
		sb.WriteByte('-')
		sb.WriteString(minus.String())
	}
	for _, a := range args {
		sb.WriteByte(' ')
		sb.WriteString(a)
	}
	return sb.String()
}

func splitModeLine(line string) []string {
	return strings.Fields(line)
}
