package main

import (
	"io/ioutil"
	"net"
	"sync"
	"time"
)

func readFile(path string) (string, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// clientEvent is the single message type fed into the server's inbound
// channel by every client's readLoop/writeLoop: either an inbound
// protocol message, or a report that the client's connection died.
// Grounded on local_client.go's Catbox.newEvent(Event{...}) plumbing,
// generalized from the teacher's many Event.Type variants (MessageFromClientEvent,
// DeadClientEvent, MessageFromServerEvent, ...) down to the two that
// still apply once S2S linking is out of scope.
type clientEvent struct {
	client     *Client
	message    Message
	disconnect bool
	err        error
}

// newConnEvent is pushed by the listener goroutines when a new TCP
// connection has completed its accept (and optional TLS handshake).
type newConnEvent struct {
	conn net.Conn
	tls  bool
}

// Server is the central singleton: the single-threaded event loop owns
// every map below, so no mutex guards them. It is the module's
// equivalent of the teacher's undocumented Catbox type, reconstructed
// from its usage sites across local_client.go/local_user.go/local_server.go
// and the two top-level test files, generalized from a TS6 hub (which
// tracked LocalServers, remote Users, and a burst state machine) down to
// a single-node daemon: every field here is either carried over 1:1
// (Config, WG, ShutdownChan, isShuttingDown, newEvent's role, the
// client-ID counter) or is new state the multi-node fields used to
// cover implicitly (the nick/channel/account indices, which on a hub are
// sharded across LocalServer bursts instead of held directly).
type Server struct {
	Config *Config

	log *logger

	wg           sync.WaitGroup
	shutdownChan chan struct{}
	shuttingDown bool

	inbound chan interface{} // clientEvent or newConnEvent

	nextClientID uint64

	clients map[uint64]*Client

	// nicks maps a casefolded nickname to its client, for O(1) collision
	// and lookup checks the way local_user.go's Catbox.Nicks map did.
	nicks map[string]*Client

	channels map[string]*Channel

	history *ClientHistory

	caps  *CapabilityRegistry
	roles *RoleRegistry

	protocol *ProtocolBus
	core     *EventManager

	accounts AccountStore
	metadata *MetadataStore
	hasher   PasswordHasher
	metrics  Metrics

	// monitors maps a casefolded monitored nick to the set of client IDs
	// watching it, the inverse index MONITOR needs to notify watchers
	// cheaply on that nick's connect/disconnect.
	monitors map[string]map[uint64]struct{}

	startedAt time.Time

	motd string
}

// NewServer builds a Server ready to run, wiring the pluggable
// collaborators (AccountStore, PasswordHasher, Metrics) the way the
// component design's dependency-injection note describes.
func NewServer(cfg *Config, log *logger, accounts AccountStore, hasher PasswordHasher, metrics Metrics) *Server {
	metadata, err := newMetadataStore(cfg.Data.Directory)
	if err != nil {
		log.debugf("unable to open metadata store: %v", err)
		metadata = &MetadataStore{data: map[string]map[string]string{}}
	}

	s := &Server{
		Config:       cfg,
		log:          log,
		shutdownChan: make(chan struct{}),
		inbound:      make(chan interface{}, 4096),
		clients:      map[uint64]*Client{},
		nicks:        map[string]*Client{},
		channels:     map[string]*Channel{},
		history:      newClientHistory(cfg.Limits.WhowasEntries, time.Duration(cfg.Limits.WhowasSeconds)*time.Second),
		caps:         newCapabilityRegistry(),
		roles:        newRoleRegistry(),
		protocol:     newProtocolBus(),
		core:         newEventManager(),
		accounts:     accounts,
		metadata:     metadata,
		hasher:       hasher,
		metrics:      metrics,
		monitors:     map[string]map[uint64]struct{}{},
		startedAt:    time.Now(),
	}

	registerBuiltinCapabilities(s.caps)
	registerBuiltinRoles(s.roles, cfg)
	registerCommands(s)
	registerCoreHandlers(s)

	if cfg.MOTDFile != "" {
		if raw, err := readFile(cfg.MOTDFile); err == nil {
			s.motd = raw
		}
	}

	return s
}

func (s *Server) name() string {
	return s.Config.Server.Name
}

func (s *Server) isShuttingDown() bool {
	return s.shuttingDown
}

// Run is the single-threaded cooperative event loop: every inbound
// event, plus a periodic tick for idle timeouts, is handled by this one
// goroutine, matching the concurrency model's rule that all mutable
// server state (nicks, channels, client registry) is owned by exactly
// one goroutine.
func (s *Server) Run() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case ev := <-s.inbound:
			switch e := ev.(type) {
			case clientEvent:
				s.handleClientEvent(e)
			case newConnEvent:
				s.acceptConn(e)
			}
		case <-ticker.C:
			s.tick()
		case <-s.shutdownChan:
			return
		}
	}
}

func (s *Server) handleClientEvent(e clientEvent) {
	if e.disconnect {
		s.disconnectClient(e.client, quitReasonFor(e.err))
		return
	}
	s.dispatchMessage(e.client, e.message)
}

func quitReasonFor(err error) string {
	if err == nil {
		return "Connection closed"
	}
	return "Read error: " + err.Error()
}

// dispatchMessage runs one inbound frame through the protocol bus,
// replying 421 for unknown verbs per §4.1.
func (s *Server) dispatchMessage(c *Client, msg Message) {
	if !s.protocol.Dispatch(c, msg) {
		c.sendNumeric(errUnknownCommand, msg.Verb, "Unknown command")
		return
	}
	if s.metrics != nil {
		s.metrics.CommandHandled(msg.Verb)
	}
}

// tick runs once a second: it disconnects clients whose send queue
// overflowed and registered clients idle longer than DeadTimeSeconds.
// Unregistered clients are not timed out here. Kept minimal and explicit rather than
// spawning a timer per client, mirroring the teacher's single periodic
// loop idiom in spirit (ircd.go's original generation ran an explicit
// poll loop; the mature generation moved timeouts onto per-client
// deadlines in Conn, which this module keeps via net.go's ioWait).
func (s *Server) tick() {
	now := time.Now()
	for _, c := range s.clients {
		if c.isSendQueueExceeded() {
			s.disconnectClient(c, "Excess flood")
			continue
		}
		if !c.isRegistered() {
			continue
		}
		if now.Sub(c.lastActive) > time.Duration(s.Config.Limits.DeadTimeSeconds)*time.Second {
			s.disconnectClient(c, "Ping timeout")
		}
	}
}

func (s *Server) acceptConn(e newConnEvent) {
	conn, err := NewConn(e.conn, time.Duration(s.Config.Limits.DeadTimeSeconds)*time.Second, s.log)
	if err != nil {
		s.log.debugf("rejecting connection: %v", err)
		_ = e.conn.Close()
		return
	}
	conn.TLS = e.tls

	s.nextClientID++
	c := newClient(s, s.nextClientID, conn)
	s.clients[c.ID] = c

	s.wg.Add(2)
	go c.readLoop()
	go c.writeLoop()

	s.sendConnectionNumerics(c)
}

// registerClientNick claims nick for c in the nick index, releasing c's
// previous nick, if no other client holds it. cmdNick calls it for every
// NICK, before and after registration. Grounded on local_client.go's
// registerUser's re-check of the Nicks map immediately before
// committing.
func (s *Server) registerClientNick(c *Client, nick string) bool {
	folded := canonicalizeNick(nick)
	if existing, ok := s.nicks[folded]; ok && existing != c {
		return false
	}
	if old := canonicalizeNick(c.Nick); old != "" {
		delete(s.nicks, old)
	}
	s.nicks[folded] = c
	c.Nick = nick
	return true
}

func (s *Server) findClientByNick(nick string) (*Client, bool) {
	c, ok := s.nicks[canonicalizeNick(nick)]
	return c, ok
}

func (s *Server) findChannel(name string) (*Channel, bool) {
	ch, ok := s.channels[canonicalizeChannel(name)]
	return ch, ok
}

func (s *Server) getOrCreateChannel(name string) (*Channel, bool) {
	folded := canonicalizeChannel(name)
	ch, ok := s.channels[folded]
	if ok {
		return ch, false
	}
	ch = newChannel(name)
	s.channels[folded] = ch
	return ch, true
}

func (s *Server) removeChannelIfEmpty(ch *Channel) {
	if ch.IsEmpty() {
		delete(s.channels, ch.NameFolded)
	}
}

// disconnectClient removes c from every index, notifies its common
// peers with QUIT, records it in WHOWAS history, and closes its
// connection. Grounded on local_user.go's quit handling and
// local_server.go's issueKillToAllServers, whose dedup-by-client-ID
// idiom (send each peer exactly one QUIT even if they share multiple
// channels with the quitting client) is reused here without the
// multi-server fanout.
func (s *Server) disconnectClient(c *Client, reason string) {
	if c.isRegistered() {
		notified := map[uint64]struct{}{}
		for _, ch := range c.Channels {
			for _, nick := range ch.MemberNicks() {
				peer, ok := s.findClientByNick(nick)
				if !ok || peer == c {
					continue
				}
				if _, done := notified[peer.ID]; done {
					continue
				}
				notified[peer.ID] = struct{}{}
				peer.send(Message{Source: c.source(), Verb: "QUIT", Params: []string{reason}})
			}
			ch.RemoveMember(canonicalizeNick(c.Nick))
			s.removeChannelIfEmpty(ch)
		}

		s.history.Insert(ClientHistoryEntry{
			Nickname: c.Nick,
			Username: c.Username,
			Hostname: c.Hostname,
			RealName: c.RealName,
			Account:  c.Account,
		}, time.Now())

		s.notifyMonitorsOffline(c.Nick)
		delete(s.nicks, canonicalizeNick(c.Nick))
		if s.metrics != nil {
			s.metrics.ClientDisconnected()
		}
	} else if c.Nick != "" && s.nicks[canonicalizeNick(c.Nick)] == c {
		delete(s.nicks, canonicalizeNick(c.Nick))
	}

	delete(s.clients, c.ID)
	c.quit(reason)
}

// Shutdown stops the event loop and every client goroutine.
func (s *Server) Shutdown() {
	s.shuttingDown = true
	close(s.shutdownChan)
	s.wg.Wait()
}
