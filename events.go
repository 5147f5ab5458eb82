package main

import (
	"fmt"
	"sort"
	"sync"
)

// EventManager is the generic priority-ordered synchronous dispatcher
// mammon builds both its protocol bus and core bus on top of
// (events.py's EventManager). Handlers are registered under a string key
// (a verb for the protocol bus, a topic for the core bus) with a priority;
// dispatch runs handlers lowest-priority-first and stops early only if a
// handler explicitly requests it.
type EventManager struct {
	mu       sync.RWMutex
	handlers map[string][]*eventHandler
}

type eventHandler struct {
	priority int
	seq      int // insertion order, for stable sort of equal priorities
	fn       EventHandlerFunc
}

// EventHandlerFunc runs against an EventInfo and may halt further
// dispatch for this event by returning stopPropagation=true.
type EventHandlerFunc func(info *EventInfo) (stopPropagation bool)

// EventInfo carries the event's key plus a free-form payload. Handlers
// type-assert Payload to whatever concrete type the key implies (e.g.
// Message for a protocol-bus verb such as "PRIVMSG"), the way mammon handlers destructure the
// **kwargs dict.
type EventInfo struct {
	Key     string
	Payload interface{}

	// Client is set for protocol-bus dispatch: the client the inbound
	// message came from.
	Client *Client

	// Err, when non-nil after dispatch, is surfaced by the caller
	// (generally by sending an ERR_* numeric).
	Err error
}

func newEventManager() *EventManager {
	return &EventManager{handlers: map[string][]*eventHandler{}}
}

// Register adds a handler for key at the given priority. Lower priority
// values run first, matching mammon's ascending-priority convention.
func (m *EventManager) Register(key string, priority int, fn EventHandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.handlers[key]
	list = append(list, &eventHandler{priority: priority, seq: len(list), fn: fn})
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].priority != list[j].priority {
			return list[i].priority < list[j].priority
		}
		return list[i].seq < list[j].seq
	})
	m.handlers[key] = list
}

// Dispatch runs every handler registered for info.Key in priority order.
// A handler panic is recovered and converted into info.Err rather than
// taking the whole event loop down with it, matching mammon's
// try/except around each handler invocation in EventManager.dispatch().
func (m *EventManager) Dispatch(info *EventInfo) {
	m.mu.RLock()
	list := append([]*eventHandler(nil), m.handlers[info.Key]...)
	m.mu.RUnlock()

	for _, h := range list {
		if m.runHandler(h, info) {
			return
		}
	}
}

func (m *EventManager) runHandler(h *eventHandler, info *EventInfo) (stop bool) {
	defer func() {
		if r := recover(); r != nil {
			info.Err = fmt.Errorf("handler panic: %v", r)
			stop = false
		}
	}()
	return h.fn(info)
}

// HasHandlers reports whether any handler is registered for key, used by
// the protocol bus to distinguish "unknown command" (421) from "known
// command, handler chose to do nothing".
func (m *EventManager) HasHandlers(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handlers[key]) > 0
}

// Core-bus topic names used across the module.
const (
	topicClientRegistered   = "client register"
	topicClientDisconnected = "client disconnect"
	topicChannelJoin        = "channel join"
	topicChannelPart        = "channel part"
	topicChannelMode        = "channel mode changed"
	topicAccountLogin       = "account login"
	topicAccountLogout      = "account logout"
	topicMetadataSet        = "metadata set"
)

// ProtocolCommand describes one registered verb on the protocol bus,
// grounded on RFC1459EventManager.message()'s decorator in events.py:
// a minimum parameter count, whether unregistered clients may use it,
// and whether using it updates the client's idle timer.
type ProtocolCommand struct {
	Verb             string
	MinParams        int
	AllowUnregistered bool
	UpdatesIdle      bool
	Handler          EventHandlerFunc
}

// ProtocolBus dispatches inbound client commands, enforcing the
// min-params/registration-state gate before the handler ever runs, the
// way RFC1459EventManager.dispatch() does around its wrapped handlers.
type ProtocolBus struct {
	mgr      *EventManager
	commands map[string]ProtocolCommand
}

func newProtocolBus() *ProtocolBus {
	return &ProtocolBus{mgr: newEventManager(), commands: map[string]ProtocolCommand{}}
}

// Register installs a command, and also registers its handler on the
// underlying EventManager at priority 0 so other modules may still chain
// additional priority-ordered handlers onto the same verb.
func (b *ProtocolBus) Register(cmd ProtocolCommand) {
	b.commands[cmd.Verb] = cmd
	b.mgr.Register(cmd.Verb, 0, cmd.Handler)
}

// Dispatch runs the command registered for msg.Verb against c, handling
// the 421/451/461 gating. It returns false if the verb is unknown so the
// caller can numeric 421.
func (b *ProtocolBus) Dispatch(c *Client, msg Message) bool {
	cmd, ok := b.commands[msg.Verb]
	if !ok {
		return false
	}

	if !cmd.AllowUnregistered && !c.isRegistered() {
		c.sendNumeric(errNotRegistered, "You have not registered")
		return true
	}

	if len(msg.Params) < cmd.MinParams {
		c.sendNumeric(errNeedMoreParams, msg.Verb, "Not enough parameters")
		return true
	}

	if cmd.UpdatesIdle {
		c.touchIdle()
	}

	info := &EventInfo{Key: msg.Verb, Payload: msg, Client: c}
	b.mgr.Dispatch(info)
	if info.Err != nil {
		c.log.debugf("handler error for %s from %s: %v", msg.Verb, c.id(), info.Err)
	}
	return true
}
