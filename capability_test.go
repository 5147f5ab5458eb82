package main

import "testing"

func TestCapabilityAtom(t *testing.T) {
	c := Capability{Name: "sasl", Value: "PLAIN,EXTERNAL"}

	if got := c.Atom(false); got != "sasl" {
		t.Errorf("Atom(false) = %q, wanted %q", got, "sasl")
	}
	if got := c.Atom(true); got != "sasl=PLAIN,EXTERNAL" {
		t.Errorf("Atom(true) = %q, wanted %q", got, "sasl=PLAIN,EXTERNAL")
	}

	plain := Capability{Name: "away-notify"}
	if got := plain.Atom(true); got != "away-notify" {
		t.Errorf("Atom(true) on a valueless capability = %q, wanted %q", got, "away-notify")
	}
}

func TestCapabilityRegistry(t *testing.T) {
	r := newCapabilityRegistry()

	r.Register(Capability{Name: "SASL", Value: "PLAIN"})
	r.Register(Capability{Name: "away-notify"})

	c, ok := r.Get("sasl")
	if !ok {
		t.Fatalf("expected to find sasl by a differently-cased lookup")
	}
	if c.Value != "PLAIN" {
		t.Errorf("sasl value = %q, wanted PLAIN", c.Value)
	}

	all := r.All()
	if len(all) != 2 {
		t.Fatalf("All() returned %d capabilities, wanted 2", len(all))
	}
	// Names keep their registered case, and "SASL" sorts before
	// "away-notify" in byte order.
	if all[0].Name != "SASL" || all[1].Name != "away-notify" {
		t.Errorf("All() order = [%s %s], wanted sorted [SASL away-notify]", all[0].Name, all[1].Name)
	}

	r.Unregister("sasl")
	if _, ok := r.Get("sasl"); ok {
		t.Errorf("expected sasl to be gone after Unregister")
	}
}

func TestChunkCapabilityAtoms(t *testing.T) {
	if lines := chunkCapabilityAtoms(nil); lines != nil {
		t.Errorf("chunkCapabilityAtoms(nil) = %v, wanted nil", lines)
	}

	atoms := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	lines := chunkCapabilityAtoms(atoms)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines for 10 atoms at page size 8, got %d", len(lines))
	}
	if lines[0] != "a b c d e f g h" {
		t.Errorf("first line = %q, wanted %q", lines[0], "a b c d e f g h")
	}
	if lines[1] != "i j" {
		t.Errorf("second line = %q, wanted %q", lines[1], "i j")
	}
}
