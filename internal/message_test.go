package internal

import (
	"fmt"
	"log"
	"testing"
	"time"

	irc "gopkg.in/irc.v3"
)

// TestPRIVMSG drives two real client connections against a harnessed
// daemon process and checks a channel-less direct PRIVMSG is delivered.
func TestPRIVMSG(t *testing.T) {
	daemon, err := harnessDaemon("irc.example.org")
	if err != nil {
		t.Fatalf("error harnessing daemon: %s", err)
	}
	defer daemon.stop()

	client1 := NewClient("client1", "127.0.0.1", daemon.Port)
	recvChan1, sendChan1, _, err := client1.Start()
	if err != nil {
		t.Fatalf("error starting client: %s", err)
	}
	defer client1.Stop()

	client2 := NewClient("client2", "127.0.0.1", daemon.Port)
	recvChan2, _, _, err := client2.Start()
	if err != nil {
		t.Fatalf("error starting client: %s", err)
	}
	defer client2.Stop()

	if waitForMessage(t, recvChan1, "001", "welcome from %s", client1.GetNick()) == nil {
		t.Fatalf("client1 did not get welcome")
	}
	if waitForMessage(t, recvChan2, "001", "welcome from %s", client2.GetNick()) == nil {
		t.Fatalf("client2 did not get welcome")
	}

	sendChan1 <- irc.Message{
		Command: "PRIVMSG",
		Params:  []string{client2.GetNick(), "hi there"},
	}

	got := waitForMessage(t, recvChan2, "PRIVMSG",
		"%s received PRIVMSG from %s", client1.GetNick(), client2.GetNick())
	if got == nil {
		t.Fatalf("client2 did not receive message from client1")
	}
	if len(got.Params) != 2 || got.Params[1] != "hi there" {
		t.Errorf("PRIVMSG params = %v, wanted [%s hi there]", got.Params, client2.GetNick())
	}
}

func waitForMessage(
	t *testing.T,
	ch <-chan irc.Message,
	wantCommand string,
	format string,
	a ...interface{},
) *irc.Message {
	for {
		select {
		case <-time.After(10 * time.Second):
			t.Logf("timeout waiting for message: %s", wantCommand)
			return nil
		case got := <-ch:
			if got.Command == wantCommand {
				log.Printf("got command: %s", fmt.Sprintf(format, a...))
				return &got
			}
		}
	}
}
