package main

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	irc "gopkg.in/irc.v3"
)

// maxLineLength is the wire limit for a single frame, CRLF included, per
// §6 of the external interfaces.
const maxLineLength = 512

// Message is the intermediate representation every command handler works
// with: tags, an optional source, a verb, and ordered parameters, the last
// of which may contain spaces. It is built on top of gopkg.in/irc.v3's
// Message, which already implements IRCv3 message-tag escaping; horgh/irc
// (the teacher's own vendored codec) has no notion of tags at all, and
// tags are load-bearing for server-time/account-notify/echo-message, so
// parsing and encoding is delegated to irc.v3 rather than re-implemented.
type Message struct {
	Tags   map[string]string
	Source string
	Verb   string
	Params []string
}

// parseMessage decodes one CRLF-stripped line into a Message. On malformed
// input it returns whatever it can recover rather than an error, matching
// §4.1: a frame is never dropped solely for a parse error at this layer.
func parseMessage(line string) Message {
	raw, err := irc.ParseMessage(line)
	if err != nil || raw == nil {
		// Recover a best-effort verb/params split so the caller can still
		// reply with 421 unknown-command instead of silently eating the line.
		fields := strings.Fields(line)
		if len(fields) == 0 {
			return Message{}
		}
		return Message{Verb: strings.ToUpper(fields[0]), Params: fields[1:]}
	}

	m := Message{
		Verb:   strings.ToUpper(raw.Command),
		Params: append([]string(nil), raw.Params...),
	}

	if raw.Prefix != nil {
		m.Source = raw.Prefix.String()
	}

	if len(raw.Tags) > 0 {
		m.Tags = make(map[string]string, len(raw.Tags))
		for k, v := range raw.Tags {
			m.Tags[string(k)] = string(v)
		}
	}

	return m
}

// encode serializes a Message back to wire form (without the trailing
// CRLF). A parameter containing a space, a leading ':', or being empty
// must be placed last and carry the leading ':' (round-trip property P9).
func (m Message) encode() (string, error) {
	raw := &irc.Message{
		Command: m.Verb,
		Params:  m.Params,
	}

	if len(m.Tags) > 0 {
		raw.Tags = make(irc.Tags, len(m.Tags))
		for k, v := range m.Tags {
			raw.Tags[irc.TagKey(k)] = irc.TagValue(v)
		}
	}

	if m.Source != "" {
		raw.Prefix = irc.ParsePrefix(m.Source)
	}

	line := raw.String()
	if len(line)+2 > maxLineLength {
		return "", errors.Errorf("encoded message exceeds %d bytes: %q", maxLineLength, line)
	}

	return line, nil
}

// sourceNick extracts the nickname portion of a source (nick!user@host),
// matching the shape of horgh/irc's SourceNick helper the teacher relies
// on throughout local_user.go's common-peer iteration.
func (m Message) sourceNick() string {
	if i := strings.IndexByte(m.Source, '!'); i >= 0 {
		return m.Source[:i]
	}
	return m.Source
}

// numeric builds a numeric reply Message: the destination nickname is
// always the first parameter, per §4.1.
func numeric(source, code, nick string, params ...string) Message {
	full := append([]string{nick}, params...)
	return Message{Source: source, Verb: code, Params: full}
}

// isNumeric reports whether verb looks like a three-digit numeric code.
func isNumeric(verb string) bool {
	if len(verb) != 3 {
		return false
	}
	_, err := strconv.Atoi(verb)
	return err == nil
}
