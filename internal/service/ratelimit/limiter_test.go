package ratelimit

import "testing"

func TestAllowConsumesTokens(t *testing.T) {
	l := New()
	for i := 0; i < 3; i++ {
		if !l.Allow("client", 3, 0) {
			t.Fatalf("expected token %d to be granted", i)
		}
	}
	if l.Allow("client", 3, 0) {
		t.Fatalf("expected bucket to be empty")
	}
}

func TestAllowIsolatesKeys(t *testing.T) {
	l := New()
	if !l.Allow("a", 1, 0) {
		t.Fatalf("expected first token for a")
	}
	if l.Allow("a", 1, 0) {
		t.Fatalf("expected a to be exhausted")
	}
	if !l.Allow("b", 1, 0) {
		t.Fatalf("expected b to have its own bucket")
	}
}
