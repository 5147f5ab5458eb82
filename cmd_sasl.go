package main

import (
	"encoding/base64"
	"strings"

	"github.com/emersion/go-sasl"
	"github.com/pkg/errors"
)

var (
	errAuthzMismatch  = errors.New("authorization identity does not match account")
	errNoSuchAccount  = errors.New("no such account")
	errBadPassword    = errors.New("incorrect password")
)

// maxSASLLineLength and the continuation-chunk accounting below are
// grounded directly on original_source/mammon/ext/ircv3/sasl.py's
// m_AUTHENTICATE: a 400-byte line means "more is coming", up to 4
// continuation lines, and a literal "*" aborts.
const (
	maxSASLLineLength  = 400
	maxSASLContinuations = 4
)

type saslSession struct {
	mechanism string
	server    sasl.Server
	buffer    strings.Builder
	chunks    int
}

// cmdAuthenticate handles AUTHENTICATE, generalized from sasl.py's
// m_AUTHENTICATE onto emersion/go-sasl's Server interface instead of
// hand-decoding the PLAIN payload, since go-sasl is already the SASL
// library the rest of the retrieval pack (soju) depends on for this
// exact purpose.
func cmdAuthenticate(info *EventInfo) bool {
	c := info.Client
	msg := info.Payload.(Message)

	raw := msg.Params[0]

	if raw == "*" {
		abortSASL(c)
		return false
	}

	sess, active := c.saslState.(*saslSession)

	if !active {
		startSASL(c, raw)
		return false
	}

	if len(raw) > maxSASLLineLength {
		failSASL(c, "SASL message too long")
		return false
	}

	if len(raw) == maxSASLLineLength {
		sess.buffer.WriteString(raw)
		sess.chunks++
		if sess.chunks > maxSASLContinuations {
			failSASL(c, "SASL authentication failed: Password too long")
		}
		return false
	}

	if sess.buffer.Len() > 0 && raw != "+" {
		sess.buffer.WriteString(raw)
	}

	payload := raw
	if sess.buffer.Len() > 0 {
		payload = sess.buffer.String()
	}
	sess.buffer.Reset()
	sess.chunks = 0

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		failSASL(c, "SASL authentication failed")
		return false
	}

	_, done, err := sess.server.Next(decoded)
	if err != nil {
		failSASL(c, "SASL authentication failed")
		return false
	}
	if done {
		succeedSASL(c)
	}
	return false
}

func startSASL(c *Client, mechanism string) {
	mechanism = strings.ToUpper(mechanism)
	if mechanism != "PLAIN" {
		c.sendNumeric(errSaslFail, "SASL authentication failed")
		return
	}

	c.saslState = &saslSession{
		mechanism: mechanism,
		server:    sasl.NewPlainServer(plainAuthenticator(c)),
	}
	c.addLock(lockSASL)
	c.sendFromServer("AUTHENTICATE", "+")
}

// plainAuthenticator is the verification callback go-sasl's PLAIN server
// calls with the decoded identity/username/password, grounded on
// sasl.py's m_sasl_plain: the account must exist, have a password
// credential, and the given authorization identity must equal the
// account name (no acting-as-another-account support).
func plainAuthenticator(c *Client) func(identity, username, password string) error {
	return func(identity, username, password string) error {
		if identity != "" && identity != username {
			return errAuthzMismatch
		}

		account, ok, err := c.server.accounts.Get(username)
		if err != nil || !ok {
			return errNoSuchAccount
		}

		if !c.server.hasher.Verify(account.PasswordHash, password) {
			return errBadPassword
		}

		c.Account = account.Name
		return nil
	}
}

func succeedSASL(c *Client) {
	c.saslState = nil
	c.sendNumeric(rplLoggedIn, c.hostmask(), c.Account, "You are now logged in as "+c.Account)
	c.sendNumeric(rplSaslSuccess, "SASL authentication successful")
	c.server.core.Dispatch(&EventInfo{Key: topicAccountLogin, Client: c})
	if c.clearLock(lockSASL) {
		completeRegistration(c)
	}
}

func failSASL(c *Client, reason string) {
	c.saslState = nil
	c.clearLock(lockSASL)
	c.sendNumeric(errSaslFail, reason)
}

func abortSASL(c *Client) {
	_, active := c.saslState.(*saslSession)
	c.saslState = nil
	c.clearLock(lockSASL)
	if active {
		c.sendNumeric(errSaslAborted, "SASL authentication aborted")
	} else {
		c.sendNumeric(errSaslFail, "SASL authentication failed")
	}
}
