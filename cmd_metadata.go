package main

import "strings"

// isValidMetaKey restricts metadata keys to the character class the
// component design's METADATA section specifies, grounded on
// original_source/mammon/ext/ircv3/metadata.py's own key regex.
func isValidMetaKey(key string) bool {
	if key == "" {
		return false
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.', r == ':':
		default:
			return false
		}
	}
	return true
}

func isRestrictedKey(s *Server, key string) bool {
	for _, p := range s.Config.Metadata.RestrictedKeys {
		if globMatch(casefold(p), casefold(key)) {
			return true
		}
	}
	return false
}

// resolveMetaTarget maps a METADATA target token to a display name and
// the canonical key the backing MetadataStore indexes it under: "*"
// means self, a "#"-prefixed token is a channel, anything else is
// another client's current nick.
func resolveMetaTarget(c *Client, token string) (displayName, storeKey string, ok bool) {
	if token == "*" {
		return c.Nick, "nick:" + casefold(c.Nick), true
	}
	if strings.HasPrefix(token, "#") {
		if _, exists := c.server.findChannel(token); !exists {
			return "", "", false
		}
		return token, "chan:" + casefold(token), true
	}
	peer, exists := c.server.findClientByNick(token)
	if !exists {
		return "", "", false
	}
	return peer.Nick, "nick:" + casefold(peer.Nick), true
}

// canEditMetaTarget implements the component design's permission rule:
// self always; otherwise the role needs metadata:set_global, or
// metadata:set_local for a target on this (the only) server.
func canEditMetaTarget(c *Client, token string) bool {
	if token == "*" || casefold(token) == casefold(c.Nick) {
		return true
	}
	if c.role != nil && c.role.HasCapability("metadata:set_global") {
		return true
	}
	if c.role != nil && c.role.HasCapability("metadata:set_local") {
		return true
	}
	return false
}

func canReadMetaKey(c *Client, key string) bool {
	if !isRestrictedKey(c.server, key) {
		return true
	}
	return c.role != nil && c.role.CanGetMetaKey(key)
}

func canSetMetaKey(c *Client, key string) bool {
	if !isRestrictedKey(c.server, key) {
		return true
	}
	return c.role != nil && c.role.CanSetMetaKey(key)
}

// cmdMetadata handles METADATA GET/LIST/SET/CLEAR, grounded on
// original_source/mammon/ext/ircv3/metadata.py's m_METADATA and the
// component design's §4.9, backed by the Server.metadata JSON store.
func cmdMetadata(info *EventInfo) bool {
	c := info.Client
	msg := info.Payload.(Message)

	target := msg.Params[0]
	sub := strings.ToUpper(msg.Params[1])

	switch sub {
	case "GET":
		metadataGet(c, target, msg.Params[2:])
	case "LIST":
		metadataList(c, target)
	case "SET":
		metadataSet(c, target, msg.Params[2:])
	case "CLEAR":
		metadataClear(c, target)
	default:
		c.sendNumeric(errUnknownCommand, "METADATA", sub, "Unknown subcommand")
	}
	return false
}

func metadataGet(c *Client, target string, keys []string) {
	display, storeKey, ok := resolveMetaTarget(c, target)
	if !ok {
		c.sendNumeric(errNoSuchNick, target, "No such target")
		return
	}
	if len(keys) == 0 {
		c.sendNumeric(errMetadataSyntax, "Not enough parameters")
		return
	}
	for _, key := range keys {
		if !isValidMetaKey(key) {
			c.sendNumeric(errKeyInvalid, display, key, "Key is invalid")
			continue
		}
		if !canReadMetaKey(c, key) {
			c.sendNumeric(errKeyNoPermission, display, key, "Key not permitted")
			continue
		}
		value, found := c.server.metadata.Get(storeKey, key)
		if !found {
			c.sendNumeric(errKeyNotSet, display, key, "Key not set")
			continue
		}
		c.sendNumeric(rplMetadataKeyValue, display, key, "*", value)
	}
	c.sendNumeric(rplMetadataEnd, display, "End of METADATA")
}

func metadataList(c *Client, target string) {
	display, storeKey, ok := resolveMetaTarget(c, target)
	if !ok {
		c.sendNumeric(errNoSuchNick, target, "No such target")
		return
	}
	for key, value := range c.server.metadata.List(storeKey) {
		if !canReadMetaKey(c, key) {
			continue
		}
		c.sendNumeric(rplMetadataKeyValue, display, key, "*", value)
	}
	c.sendNumeric(rplMetadataEnd, display, "End of METADATA")
}

func metadataSet(c *Client, target string, rest []string) {
	display, storeKey, ok := resolveMetaTarget(c, target)
	if !ok {
		c.sendNumeric(errNoSuchNick, target, "No such target")
		return
	}
	if len(rest) == 0 {
		c.sendNumeric(errMetadataSyntax, "Not enough parameters")
		return
	}
	key := rest[0]
	value := ""
	if len(rest) > 1 {
		value = rest[1]
	}

	if !isValidMetaKey(key) {
		c.sendNumeric(errKeyInvalid, display, key, "Key is invalid")
		return
	}
	if !canEditMetaTarget(c, target) {
		c.sendNumeric(errKeyNoPermission, display, key, "Permission denied")
		return
	}
	if !canSetMetaKey(c, key) {
		c.sendNumeric(errKeyNoPermission, display, key, "Key not permitted")
		return
	}

	limit := c.server.Config.Metadata.MaxKeysPerTarget
	if limit > 0 && !isRestrictedKey(c.server, key) {
		if _, exists := c.server.metadata.Get(storeKey, key); !exists && c.server.metadata.KeyCount(storeKey) >= limit {
			c.sendNumeric(errMetadataLimit, display, "Metadata limit reached")
			return
		}
	}

	if value == "" {
		if err := c.server.metadata.Clear(storeKey, key); err != nil {
			c.log.debugf("METADATA CLEAR: %v", err)
		}
	} else if err := c.server.metadata.Set(storeKey, key, value); err != nil {
		c.log.debugf("METADATA SET: %v", err)
		c.sendNumeric(errMetadataSyntax, "Unable to set key")
		return
	}

	c.sendNumeric(rplMetadataKeyValue, display, key, "*", value)
	notifyMetadataChange(c, target, display, key, value)
}

func metadataClear(c *Client, target string) {
	display, storeKey, ok := resolveMetaTarget(c, target)
	if !ok {
		c.sendNumeric(errNoSuchNick, target, "No such target")
		return
	}
	if !canEditMetaTarget(c, target) {
		c.sendNumeric(errKeyNoPermission, display, "*", "Permission denied")
		return
	}

	for key := range c.server.metadata.List(storeKey) {
		if !canSetMetaKey(c, key) {
			continue
		}
		if err := c.server.metadata.Clear(storeKey, key); err != nil {
			c.log.debugf("METADATA CLEAR: %v", err)
			continue
		}
		notifyMetadataChange(c, target, display, key, "")
	}
	c.sendNumeric(rplMetadataEnd, display, "End of METADATA")
}

// notifyMetadataChange broadcasts a METADATA verb to the union of the
// target's MONITOR watchers and the target's common peers holding
// metadata-notify, excluding the source and target, per §4.9. The target
// is resolved from targetToken/display rather than assumed to be the
// editing client, since an oper with metadata:set_global/set_local may
// be editing someone else's (or a channel's) metadata.
func notifyMetadataChange(c *Client, targetToken, display, key, value string) {
	notified := map[uint64]struct{}{c.ID: {}}

	announce := func(peer *Client) {
		if _, done := notified[peer.ID]; done {
			return
		}
		notified[peer.ID] = struct{}{}
		peer.send(Message{Source: c.server.name(), Verb: "METADATA", Params: []string{display, key, "*", value}})
	}

	if !strings.HasPrefix(display, "#") {
		if target, ok := c.server.findClientByNick(display); ok {
			notified[target.ID] = struct{}{}
		}
	}

	for clientID := range c.server.monitors[casefold(display)] {
		if watcher, ok := c.server.clients[clientID]; ok {
			announce(watcher)
		}
	}

	if strings.HasPrefix(display, "#") {
		ch, ok := c.server.findChannel(display)
		if !ok {
			return
		}
		for _, nick := range ch.MemberNicks() {
			peer, ok := c.server.findClientByNick(nick)
			if !ok || !peer.hasCap(capMetadataNotify) {
				continue
			}
			announce(peer)
		}
		return
	}

	target, ok := c.server.findClientByNick(display)
	if !ok {
		return
	}
	notified[target.ID] = struct{}{}
	for _, ch := range target.Channels {
		for _, nick := range ch.MemberNicks() {
			peer, ok := c.server.findClientByNick(nick)
			if !ok || !peer.hasCap(capMetadataNotify) {
				continue
			}
			announce(peer)
		}
	}
}
