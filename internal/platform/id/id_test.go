package id

import (
	"encoding/base32"
	"strings"
	"testing"
)

func TestNewIDFormat(t *testing.T) {
	id, err := NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	if len(id) != 26 {
		t.Fatalf("expected 26-character id, got %d", len(id))
	}
	for _, r := range id {
		if (r < 'a' || r > 'z') && (r < '2' || r > '7') {
			t.Fatalf("unexpected character %q in id", r)
		}
	}
	if !Valid(id) {
		t.Fatalf("Valid(%q) = false, want true", id)
	}
}

func TestNewIDSetsUUIDVersion(t *testing.T) {
	id, err := NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	decoded, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.ToUpper(id))
	if err != nil {
		t.Fatalf("decode id: %v", err)
	}
	if version := decoded[6] >> 4; version != 4 {
		t.Fatalf("expected version 4, got %d", version)
	}
}

func TestValidRejectsForeignShapes(t *testing.T) {
	for _, s := range []string{"", "abc", "0123456789abcdef0123456789", strings.Repeat("a", 27)} {
		if Valid(s) {
			t.Fatalf("Valid(%q) = true, want false", s)
		}
	}
}
