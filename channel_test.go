package main

import (
	"testing"
	"time"
)

func TestChannelMembership(t *testing.T) {
	c := newChannel("#test")

	if !c.IsEmpty() {
		t.Fatalf("new channel should be empty")
	}

	c.AddMember("alice", flagOperator)
	if c.IsEmpty() {
		t.Fatalf("channel with a member should not be empty")
	}
	if !c.HasMember("alice") {
		t.Fatalf("expected alice to be a member")
	}
	if c.MemberFlag("alice") != flagOperator {
		t.Fatalf("expected alice to hold operator flag")
	}

	c.SetMemberFlag("alice", flagVoice)
	if c.MemberFlag("alice") != flagVoice {
		t.Fatalf("expected alice to hold voice flag after SetMemberFlag")
	}

	c.RemoveMember("alice")
	if c.HasMember("alice") {
		t.Fatalf("expected alice to no longer be a member")
	}
}

func TestMemberFlagPrefix(t *testing.T) {
	tests := []struct {
		flag memberFlag
		want string
	}{
		{flagNone, ""},
		{flagVoice, "+"},
		{flagOperator, "@"},
	}

	for _, test := range tests {
		if got := test.flag.Prefix(); got != test.want {
			t.Errorf("memberFlag(%d).Prefix() = %q, wanted %q", test.flag, got, test.want)
		}
	}
}

func TestChannelIsBanned(t *testing.T) {
	c := newChannel("#test")
	c.Bans = append(c.Bans, channelBan{Mask: "*!*@bad.example.com", SetBy: "op", SetAt: time.Now()})

	if !c.isBanned("nick!user@bad.example.com") {
		t.Errorf("expected hostmask matching ban to be banned")
	}
	if c.isBanned("nick!user@good.example.com") {
		t.Errorf("expected hostmask not matching ban to not be banned")
	}

	c.Exempts = append(c.Exempts, channelBan{Mask: "*!*@bad.example.com", SetBy: "op", SetAt: time.Now()})
	if c.isBanned("nick!user@bad.example.com") {
		t.Errorf("expected exempt hostmask to override ban")
	}
}

func TestChannelCanSpeak(t *testing.T) {
	c := newChannel("#test")
	c.AddMember("alice", flagNone)
	c.AddMember("bob", flagVoice)

	c.mu.Lock()
	c.Moderated = true
	c.mu.Unlock()

	if c.canSpeak("alice", "alice!user@host") {
		t.Errorf("expected unvoiced member to be unable to speak in a moderated channel")
	}
	if !c.canSpeak("bob", "bob!user@host") {
		t.Errorf("expected voiced member to be able to speak in a moderated channel")
	}
}

func TestChannelModeString(t *testing.T) {
	c := newChannel("#test")
	c.mu.Lock()
	c.Secret = true
	c.Moderated = true
	c.Key = "hunter2"
	c.Limit = 10
	c.mu.Unlock()

	flags, args := c.modeString()
	if flags != "+smkl" {
		t.Errorf("modeString() flags = %q, wanted +smkl", flags)
	}
	if len(args) != 2 || args[0] != "hunter2" || args[1] != "10" {
		t.Errorf("modeString() args = %v, wanted [hunter2 10]", args)
	}
}

func TestChannelJoinThrottle(t *testing.T) {
	c := newChannel("#test")

	// No limiter installed: always allowed.
	if !c.allowJoinThrottle() {
		t.Fatalf("expected join allowed with no throttle configured")
	}

	c.SetJoinThrottle(1, time.Minute)
	if !c.allowJoinThrottle() {
		t.Fatalf("expected first join within the throttle window to be allowed")
	}
	if c.allowJoinThrottle() {
		t.Fatalf("expected second immediate join to be throttled")
	}

	c.SetJoinThrottle(0, time.Minute)
	if !c.allowJoinThrottle() {
		t.Fatalf("expected join allowed after throttle cleared")
	}
}

func TestChannelKeyAndLimit(t *testing.T) {
	c := newChannel("#test")
	c.AddMember("alice", flagOperator)

	key, limit, count := c.keyAndLimit()
	if key != "" {
		t.Errorf("expected no key by default, got %q", key)
	}
	if limit != -1 {
		t.Errorf("expected limit -1 by default, got %d", limit)
	}
	if count != 1 {
		t.Errorf("expected member count 1, got %d", count)
	}
}
