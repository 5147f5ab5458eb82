package main

import (
	"net"
	"testing"
)

// newTestServer builds a Server with no listeners, backed by a temp-dir
// account store, suitable for driving cmd_*.go handlers directly without
// a real network connection. Grounded on the same Config/NewServer wiring
// main.go uses, minus the listener/log-file setup.
func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := &Config{
		Server: ServerConfig{Name: "irc.test", Network: "TestNet", Version: "test", CreatedDate: "today"},
		Data:   DataConfig{Directory: t.TempDir()},
	}
	cfg.applyDefaults()

	accounts, err := newJSONAccountStore(cfg.Data.Directory)
	if err != nil {
		t.Fatalf("newJSONAccountStore: %v", err)
	}

	log := newLogger(nopWriter{}, false)
	return NewServer(cfg, log, accounts, newBcryptHasher(), nil)
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

// pipeConn gives a net.Pipe end a host:port remote address, which NewConn
// needs to derive the client's IP ("pipe" alone has no port).
type pipeConn struct{ net.Conn }

func (pipeConn) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 6667}
}

// newTestClient builds a registered Client wired into s, using net.Pipe
// as a stand-in connection since handler functions only ever write to
// writeChan, never touch the socket directly.
func newTestClient(t *testing.T, s *Server, nick string) *Client {
	t.Helper()

	clientSide, serverSide := net.Pipe()
	t.Cleanup(func() {
		_ = clientSide.Close()
		_ = serverSide.Close()
	})

	conn, err := NewConn(pipeConn{serverSide}, 0, s.log)
	if err != nil {
		t.Fatalf("NewConn: %v", err)
	}

	s.nextClientID++
	c := newClient(s, s.nextClientID, conn)
	c.Nick = nick
	c.Username = "u"
	c.Hostname = "host.example"
	c.state = stateRegistered
	c.pendingLocks = map[registrationLock]struct{}{}

	s.clients[c.ID] = c
	s.nicks[canonicalizeNick(nick)] = c
	return c
}

// joinTogether puts both clients on #common, bypassing cmdJoin's
// authorization checks since these tests only need shared membership.
func joinTogether(ch *Channel, clients ...*Client) {
	for _, c := range clients {
		ch.AddMember(canonicalizeNick(c.Nick), flagNone)
		c.Channels[ch.NameFolded] = ch
	}
}

func drainOne(t *testing.T, c *Client) (Message, bool) {
	t.Helper()
	select {
	case m := <-c.writeChan:
		return m, true
	default:
		return Message{}, false
	}
}

func findMessage(t *testing.T, c *Client, verb string) (Message, bool) {
	t.Helper()
	for {
		m, ok := drainOne(t, c)
		if !ok {
			return Message{}, false
		}
		if m.Verb == verb {
			return m, true
		}
	}
}

// TestAccountNotifyOnRegCreate exercises review-identified defect 1: the
// core event bus was constructed but never wired to any handler, so
// REG CREATE's topicAccountLogin dispatch was a no-op and account-notify
// watchers never received an ACCOUNT verb.
func TestAccountNotifyOnRegCreate(t *testing.T) {
	s := newTestServer(t)

	watcher := newTestClient(t, s, "watcher")
	watcher.addCap(capAccountNotify)

	registrant := newTestClient(t, s, "registrant")

	ch := newChannel("#common")
	s.channels[ch.NameFolded] = ch
	joinTogether(ch, watcher, registrant)

	regCreate(registrant, []string{"registrant", "*", "hunter2"})

	got, ok := findMessage(t, watcher, "ACCOUNT")
	if !ok {
		t.Fatalf("watcher did not receive ACCOUNT after REG CREATE")
	}
	if len(got.Params) != 1 || got.Params[0] != "registrant" {
		t.Errorf("ACCOUNT params = %v, wanted [registrant]", got.Params)
	}
	if got.Source != registrant.source() {
		t.Errorf("ACCOUNT source = %s, wanted %s", got.Source, registrant.source())
	}
}

// TestRegCreateNumerics exercises review-identified defect 6: REG's
// numeric assignments were inverted (success and already-exists swapped).
func TestRegCreateNumerics(t *testing.T) {
	s := newTestServer(t)
	c := newTestClient(t, s, "alice")

	regCreate(c, []string{"alice", "*", "hunter2"})
	got, ok := findMessage(t, c, rplRegistered)
	if !ok {
		t.Fatalf("expected %s (account created) reply, got none", rplRegistered)
	}
	if rplRegistered != "920" {
		t.Errorf("rplRegistered = %s, wanted 920", rplRegistered)
	}
	if len(got.Params) < 2 || got.Params[1] != "alice" {
		t.Errorf("%s params = %v, wanted account name after the nick", rplRegistered, got.Params)
	}

	c2 := newTestClient(t, s, "bob")
	regCreate(c2, []string{"alice", "*", "hunter2"})
	if _, ok := findMessage(t, c2, errAccountExists); !ok {
		t.Fatalf("expected %s (account exists) reply for duplicate REG CREATE", errAccountExists)
	}
	if errAccountExists != "921" {
		t.Errorf("errAccountExists = %s, wanted 921", errAccountExists)
	}
}

// TestRegVerifyLogsIn exercises review-identified defect 6's second half:
// REG VERIFY must log the client in (900/903), not echo the REG-created
// numeral.
func TestRegVerifyLogsIn(t *testing.T) {
	s := newTestServer(t)
	c := newTestClient(t, s, "alice")
	regCreate(c, []string{"alice", "*", "hunter2"})
	for {
		if _, ok := drainOne(t, c); !ok {
			break
		}
	}

	regVerify(c, []string{"alice"})

	if _, ok := findMessage(t, c, rplLoggedIn); !ok {
		t.Errorf("REG VERIFY did not send %s (rplLoggedIn)", rplLoggedIn)
	}
	if c.Account != "alice" {
		t.Errorf("c.Account = %q, wanted alice", c.Account)
	}
}

// TestWallopsReachesOnlyOperators exercises review-identified defect 5:
// cmdWallops filtered on an usermode letter nothing ever sets.
func TestWallopsReachesOnlyOperators(t *testing.T) {
	s := newTestServer(t)

	oper1 := newTestClient(t, s, "oper1")
	oper1.role = newRole("operator")
	oper2 := newTestClient(t, s, "oper2")
	oper2.role = newRole("operator")
	plain := newTestClient(t, s, "plain")

	cmdWallops(&EventInfo{Client: oper1, Payload: Message{Verb: "WALLOPS", Params: []string{"server is going down"}}})

	if _, ok := findMessage(t, oper2, "WALLOPS"); !ok {
		t.Errorf("oper2 did not receive WALLOPS")
	}
	if _, ok := findMessage(t, plain, "WALLOPS"); ok {
		t.Errorf("non-operator plain received WALLOPS")
	}
}

// TestMetadataNotifyUsesTarget exercises review-identified defect 7:
// notifyMetadataChange must fan out to the target's common peers, not the
// editing client's, so a privileged edit of someone else's metadata
// still reaches the right audience.
func TestMetadataNotifyUsesTarget(t *testing.T) {
	s := newTestServer(t)

	editor := newTestClient(t, s, "oper")
	editor.role = newRole("oper")
	editor.role.Capabilities.Add("metadata:set_global")

	target := newTestClient(t, s, "target")
	peerOfTarget := newTestClient(t, s, "peer")

	editorOnly := newChannel("#editoronly")
	s.channels[editorOnly.NameFolded] = editorOnly
	joinTogether(editorOnly, editor)

	targetChan := newChannel("#targetchan")
	s.channels[targetChan.NameFolded] = targetChan
	joinTogether(targetChan, target, peerOfTarget)

	peerOfTarget.addCap(capMetadataNotify)

	metadataSet(editor, "target", []string{"color", "blue"})

	if _, ok := findMessage(t, peerOfTarget, "METADATA"); !ok {
		t.Errorf("target's common peer did not receive METADATA notification")
	}
}
