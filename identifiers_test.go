package main

import "testing"

func TestCanonicalizeNick(t *testing.T) {
	tests := []struct {
		input  string
		output string
	}{
		{"ABC", "abc"},
		{"abc", "abc"},
		{"Abc", "abc"},
		{"a12", "a12"},
		{"A12", "a12"},
		{"{}|^~", "{}|^~"},
		{"[]\\~", "[]\\~"},
	}

	for _, test := range tests {
		out := canonicalizeNick(test.input)
		if out != test.output {
			t.Errorf("canonicalizeNick(%s) = %s, wanted %s", test.input, out,
				test.output)
		}
	}
}

func TestIsValidNick(t *testing.T) {
	tests := []struct {
		nick string
		ok   bool
	}{
		{"abc", true},
		{"ABC123", true},
		{"", false},
		{"1abc", false},
		{"-abc", false},
		{"abc def", false},
		{"averyveryverylongnickname", false},
	}

	for _, test := range tests {
		got := isValidNick(9, test.nick)
		if got != test.ok {
			t.Errorf("isValidNick(%q) = %v, wanted %v", test.nick, got, test.ok)
		}
	}
}

func TestGlobMatch(t *testing.T) {
	tests := []struct {
		pattern string
		s       string
		ok      bool
	}{
		{"*", "anything", true},
		{"nick!*@host", "nick!user@host", true},
		{"nick!*@host", "nick!user@otherhost", false},
		{"metadata.*", "metadata.avatar", true},
		{"metadata.*", "other.key", false},
	}

	for _, test := range tests {
		got := globMatch(test.pattern, test.s)
		if got != test.ok {
			t.Errorf("globMatch(%q, %q) = %v, wanted %v", test.pattern, test.s, got, test.ok)
		}
	}
}
