package main

import "testing"

func TestBcryptHasherRoundTrip(t *testing.T) {
	h := newBcryptHasher()

	hash, err := h.Hash("hunter2")
	if err != nil {
		t.Fatalf("Hash() error: %s", err)
	}

	if !h.Verify(hash, "hunter2") {
		t.Errorf("expected Verify to accept the correct password")
	}
	if h.Verify(hash, "wrong password") {
		t.Errorf("expected Verify to reject an incorrect password")
	}
}
