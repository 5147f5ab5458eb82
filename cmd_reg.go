package main

import "strings"

// cmdReg handles REG CREATE, a generalization of
// original_source/mammon/ext/ircv3/register.py's m_REG: this module
// supports only the "*" (no verification callback) namespace and the
// "passphrase" credential type, since email-based verification callbacks
// would require wiring an SMTP dependency nothing in the retrieval pack
// provides (see DESIGN.md). REG VERIFY is accepted but always succeeds
// immediately for a "*"-callback account, since there is never anything
// to verify.
func cmdReg(info *EventInfo) bool {
	c := info.Client
	msg := info.Payload.(Message)

	sub := strings.ToLower(msg.Params[0])
	switch sub {
	case "create":
		regCreate(c, msg.Params[1:])
	case "verify":
		regVerify(c, msg.Params[1:])
	default:
		c.sendNumeric(errUnknownCommand, "REG", msg.Params[0], "Unknown subcommand")
	}
	return false
}

func regCreate(c *Client, params []string) {
	if len(params) < 2 {
		c.sendNumeric(errNeedMoreParams, "REG", "Not enough parameters")
		return
	}

	account := params[0]
	callback := params[1]

	if _, exists, _ := c.server.accounts.Get(account); exists {
		c.sendNumeric(errAccountExists, account, "Account already exists")
		return
	}

	if callback != "*" {
		c.sendNumeric(errRegInvalidCallback, account, callback, "Callback token is invalid")
		return
	}

	credType := "passphrase"
	credential := ""
	switch {
	case len(params) >= 4:
		credType, credential = params[2], params[3]
	case len(params) == 3:
		credential = params[2]
	default:
		c.sendNumeric(errNeedMoreParams, "REG", "Not enough parameters")
		return
	}

	if credType != "passphrase" {
		c.sendNumeric(errRegInvalidCredType, account, credType, "Credential type is invalid")
		return
	}

	hash, err := c.server.hasher.Hash(credential)
	if err != nil {
		c.sendNumeric(errRegInvalidCredType, account, credType, "Unable to hash credential")
		return
	}

	if err := c.server.accounts.Put(Account{Name: account, PasswordHash: hash}); err != nil {
		c.log.debugf("REG CREATE: unable to persist account %s: %v", account, err)
		c.sendNumeric(errRegInvalidCredType, account, credType, "Unable to create account")
		return
	}

	c.Account = account
	c.sendNumeric(rplRegistered, account, "*", "Account created")
	c.server.core.Dispatch(&EventInfo{Key: topicAccountLogin, Client: c})
}

func regVerify(c *Client, params []string) {
	if len(params) < 1 {
		c.sendNumeric(errNeedMoreParams, "REG", "Not enough parameters")
		return
	}
	account := params[0]
	if _, exists, _ := c.server.accounts.Get(account); !exists {
		c.sendNumeric(errNoSuchNick, account, "No such account")
		return
	}
	c.Account = account
	c.sendNumeric(rplLoggedIn, c.hostmask(), account, "You are now logged in as "+account)
	c.sendNumeric(rplSaslSuccess, "Account verified")
	c.server.core.Dispatch(&EventInfo{Key: topicAccountLogin, Client: c})
}
