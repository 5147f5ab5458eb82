package main

import (
	"strconv"
	"strings"
)

// cmdMonitor handles MONITOR +/-/C/L/S, a direct generalization of
// original_source/mammon/core/ircv3/monitor.py's m_MONITOR and its four
// core-bus handlers, collapsed into one Go function per subcommand since
// there is no need here for mammon's own core-bus indirection (that
// indirection exists in Python so other extensions can hook monitor
// add/remove; nothing else in this module needs to).
func cmdMonitor(info *EventInfo) bool {
	c := info.Client
	msg := info.Payload.(Message)

	switch strings.ToLower(msg.Params[0]) {
	case "+":
		monitorAdd(c, msg)
	case "-":
		monitorRemove(c, msg)
	case "c":
		monitorClear(c)
	case "l":
		monitorList(c)
	case "s":
		monitorStatus(c)
	default:
		c.sendNumeric(errUnknownCommand, "MONITOR", msg.Params[0], "Unknown subcommand")
	}
	return false
}

func monitorAdd(c *Client, msg Message) {
	if len(msg.Params) < 2 {
		c.sendNumeric(errNeedMoreParams, "MONITOR", "Not enough parameters")
		return
	}
	s := c.server
	limit := s.Config.Monitor.MaxEntries

	targets := strings.Split(msg.Params[1], ",")
	if limit > 0 && len(c.monitoring)+len(targets) > limit {
		c.sendNumeric(errMonListFull, strconv.Itoa(limit), msg.Params[1], "Monitor list is full")
		return
	}

	var online, offline []string
	for _, target := range targets {
		if !isValidNick(s.Config.Limits.MaxNickLength, target) {
			continue
		}
		c.monitoring.Add(target)
		s.addMonitor(target, c.ID)

		if _, ok := s.findClientByNick(target); ok {
			online = append(online, target)
		} else {
			offline = append(offline, target)
		}
	}

	if len(online) > 0 {
		c.sendNumeric(rplMonOnline, strings.Join(online, ","))
	}
	if len(offline) > 0 {
		c.sendNumeric(rplMonOffline, strings.Join(offline, ","))
	}
}

func monitorRemove(c *Client, msg Message) {
	if len(msg.Params) < 2 {
		c.sendNumeric(errNeedMoreParams, "MONITOR", "Not enough parameters")
		return
	}
	for _, target := range strings.Split(msg.Params[1], ",") {
		c.monitoring.Remove(target)
		c.server.removeMonitor(target, c.ID)
	}
}

func monitorClear(c *Client) {
	for _, target := range c.monitoring.Values() {
		c.server.removeMonitor(target, c.ID)
	}
	c.monitoring = newCaseInsensitiveSet()
}

func monitorList(c *Client) {
	c.sendNumeric(rplMonList, strings.Join(c.monitoring.Values(), ","))
	c.sendNumeric(rplEndOfMonList, "End of MONITOR list")
}

func monitorStatus(c *Client) {
	var online, offline []string
	for _, target := range c.monitoring.Values() {
		if _, ok := c.server.findClientByNick(target); ok {
			online = append(online, target)
		} else {
			offline = append(offline, target)
		}
	}
	if len(online) > 0 {
		c.sendNumeric(rplMonOnline, strings.Join(online, ","))
	}
	if len(offline) > 0 {
		c.sendNumeric(rplMonOffline, strings.Join(offline, ","))
	}
}

// addMonitor/removeMonitor maintain Server.monitors, the inverse index
// (monitored nick -> watching client IDs) mammon's own `monitored`
// CaseInsensitiveDict-of-sets plays the same role for.
func (s *Server) addMonitor(target string, clientID uint64) {
	key := casefold(target)
	if s.monitors[key] == nil {
		s.monitors[key] = map[uint64]struct{}{}
	}
	s.monitors[key][clientID] = struct{}{}
}

func (s *Server) removeMonitor(target string, clientID uint64) {
	key := casefold(target)
	delete(s.monitors[key], clientID)
	if len(s.monitors[key]) == 0 {
		delete(s.monitors, key)
	}
}

// notifyMonitorsOnline/notifyMonitorsOffline announce a nick's
// connect/disconnect to everyone watching it, grounded on monitor.py's
// m_monitor_handle_connect/disconnect handlers on the "client connect"/
// "client disconnect" core-bus topics.
func (s *Server) notifyMonitorsOnline(nick string) {
	for clientID := range s.monitors[casefold(nick)] {
		watcher, ok := s.clients[clientID]
		if !ok {
			continue
		}
		watcher.sendNumeric(rplMonOnline, nick)
	}
}

func (s *Server) notifyMonitorsOffline(nick string) {
	for clientID := range s.monitors[casefold(nick)] {
		watcher, ok := s.clients[clientID]
		if !ok {
			continue
		}
		watcher.sendNumeric(rplMonOffline, nick)
	}
}
