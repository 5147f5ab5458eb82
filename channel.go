package main

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// memberFlag is a per-channel membership privilege flag. Ordered from
// lowest to highest so that "highest flag held" comparisons are a simple
// index comparison, the way local_user.go's prefix-ordering comments
// imply without ever making it a type of its own. Owner/admin/halfop are
// a deliberate scope reduction from the five-level model, not an
// oversight — see DESIGN.md's Open Question decisions.
type memberFlag byte

const (
	flagNone     memberFlag = 0
	flagVoice    memberFlag = 1
	flagOperator memberFlag = 2
)

// channelBan is one entry in a ban/exempt/invite-exempt list: a mask plus
// who set it and when, so list replies (367/348/346-style) can report
// the setter.
type channelBan struct {
	Mask   string
	SetBy  string
	SetAt  time.Time
}

// Channel is the unified channel model. Unlike the teacher's split
// Channel/LocalChannel (channel.go's 18-line TS6 stub held only a TS and
// a bare member-UID set because membership mode letters lived on the
// server-linking layer), this Channel owns full membership state
// directly since server-to-server propagation is out of scope.
type Channel struct {
	mu sync.Mutex

	// Name is the original-case name as first created; NameFolded is the
	// casefolded lookup key.
	Name       string
	NameFolded string

	Topic       string
	TopicSetBy  string
	TopicSetAt  time.Time

	CreatedAt time.Time

	// Members maps a client's canonical nick to its membership flags.
	Members map[string]memberFlag

	// Props, the channel-wide boolean/valued settings (+s +m +n +t +i +k +l
	// etc.), grounded on local_user.go's MODE handling and generalized per
	// the component design's channel property table.
	Secret          bool
	Moderated       bool
	NoExternal      bool
	InviteOnly      bool
	OpsTopicOnly    bool
	Key             string
	Limit           int
	ForwardTo       string

	Bans           []channelBan
	Exempts        []channelBan
	InviteExempts  []channelBan
	Quiets         []channelBan
	Invited        CaseInsensitiveSet

	// joinLimiter enforces the optional join-throttle property
	// ("N joins per M seconds"), backed by golang.org/x/time/rate the way
	// senpai's manifest shows the library used for simple token-bucket
	// pacing; the teacher has no equivalent since S2S bursts were never
	// throttled per-channel.
	joinLimiter *rate.Limiter
}

func newChannel(name string) *Channel {
	return &Channel{
		Name:       name,
		NameFolded: canonicalizeChannel(name),
		CreatedAt:  time.Now(),
		Members:    map[string]memberFlag{},
		Invited:    newCaseInsensitiveSet(),
		Limit:      -1,
	}
}

// SetJoinThrottle installs (or clears, if n<=0) a join rate limiter of n
// joins per window.
func (c *Channel) SetJoinThrottle(n int, window time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n <= 0 {
		c.joinLimiter = nil
		return
	}
	c.joinLimiter = rate.NewLimiter(rate.Every(window/time.Duration(n)), n)
}

func (c *Channel) allowJoinThrottle() bool {
	c.mu.Lock()
	limiter := c.joinLimiter
	c.mu.Unlock()
	if limiter == nil {
		return true
	}
	return limiter.Allow()
}

// keyAndLimit returns the channel's current key and limit (-1 if unset)
// along with its live member count, for join authorization checks.
func (c *Channel) keyAndLimit() (key string, limit, memberCount int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Key, c.Limit, len(c.Members)
}

func (c *Channel) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Members) == 0
}

func (c *Channel) HasMember(nickFolded string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.Members[nickFolded]
	return ok
}

func (c *Channel) MemberFlag(nickFolded string) memberFlag {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Members[nickFolded]
}

func (c *Channel) AddMember(nickFolded string, flag memberFlag) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Members[nickFolded] = flag
}

func (c *Channel) RemoveMember(nickFolded string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.Members, nickFolded)
}

func (c *Channel) SetMemberFlag(nickFolded string, flag memberFlag) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Members[nickFolded] = flag
}

func (c *Channel) MemberNicks() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.Members))
	for n := range c.Members {
		out = append(out, n)
	}
	return out
}

// Prefix returns the NAMES/WHO membership prefix for flag: '@' for
// operator, '+' for voice, "" otherwise. Matches RFC2812's PREFIX list
// order the way local_user.go's RPL_NAMREPLY assembly implies.
func (f memberFlag) Prefix() string {
	switch f {
	case flagOperator:
		return "@"
	case flagVoice:
		return "+"
	default:
		return ""
	}
}

// matchesAnyMask reports whether hostmask matches any mask in list.
func matchesAnyMask(list []channelBan, hostmask string) bool {
	for _, b := range list {
		if matchesHostmask(b.Mask, hostmask) {
			return true
		}
	}
	return false
}

// isBanned reports whether hostmask is banned and not exempted.
func (c *Channel) isBanned(hostmask string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !matchesAnyMask(c.Bans, hostmask) {
		return false
	}
	return !matchesAnyMask(c.Exempts, hostmask)
}

func (c *Channel) isInviteExempt(hostmask string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return matchesAnyMask(c.InviteExempts, hostmask)
}

// canSpeak implements Open-Question decision 2: moderated-channel speech
// requires voice or higher. A quiet mask (+q) silences a matching hostmask
// the same way a ban would, except channel operators are never silenced.
func (c *Channel) canSpeak(nickFolded, hostmask string) bool {
	c.mu.Lock()
	moderated := c.Moderated
	flag := c.Members[nickFolded]
	quieted := matchesAnyMask(c.Quiets, hostmask)
	c.mu.Unlock()

	if c.isBanned(hostmask) && flag < flagVoice {
		return false
	}
	if quieted && flag < flagOperator {
		return false
	}
	if moderated && flag < flagVoice {
		return false
	}
	return true
}

// modeString renders the channel's boolean modes as "+smitnk" style,
// excluding the value-carrying modes' values (those are appended by the
// caller per RPL_CHANNELMODEIS convention).
func (c *Channel) modeString() (flags string, args []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var sb strings.Builder
	sb.WriteByte('+')
	if c.Secret {
		sb.WriteByte('s')
	}
	if c.Moderated {
		sb.WriteByte('m')
	}
	if c.NoExternal {
		sb.WriteByte('n')
	}
	if c.OpsTopicOnly {
		sb.WriteByte('t')
	}
	if c.InviteOnly {
		sb.WriteByte('i')
	}
	if c.Key != "" {
		sb.WriteByte('k')
		args = append(args, c.Key)
	}
	if c.Limit >= 0 {
		sb.WriteByte('l')
		args = append(args, strconv.Itoa(c.Limit))
	}
	if c.ForwardTo != "" {
		sb.WriteByte('f')
		args = append(args, c.ForwardTo)
	}
	if c.joinLimiter != nil {
		sb.WriteByte('j')
	}
	return sb.String(), args
}
