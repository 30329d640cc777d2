package normalization

import (
	"strings"
	"testing"
)

type backend string

const (
	backendSQLite backend = "sqlite"
	backendNATS   backend = "nats"
)

func newBackendNormalizer() *Normalizer[backend] {
	return NewNormalizer("backend", map[string]backend{
		"sqlite": backendSQLite,
		"NATS":   backendNATS,
	}, backendSQLite)
}

func TestNormalizer_Basic(t *testing.T) {
	n := newBackendNormalizer()
	cases := map[string]backend{
		"sqlite":    backendSQLite,
		"  NaTs  ":  backendNATS,
		"nats":      backendNATS,
		"bogus":     backendSQLite,
		"":          backendSQLite,
	}
	for in, want := range cases {
		if got := n.Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizer_WithError(t *testing.T) {
	n := newBackendNormalizer()
	if v, err := n.NormalizeWithError("NATS"); err != nil || v != backendNATS {
		t.Fatalf("expected nats, got %q err=%v", v, err)
	}
	if v, err := n.NormalizeWithError(""); err != nil || v != backendSQLite {
		t.Fatalf("expected default for empty input, got %q err=%v", v, err)
	}
	_, err := n.NormalizeWithError("redis")
	if err == nil {
		t.Fatal("expected error for unknown value")
	}
	if !strings.Contains(err.Error(), "backend") || !strings.Contains(err.Error(), "[nats sqlite]") {
		t.Errorf("error should name the enum and list options, got %q", err)
	}
}

func TestValidKeys(t *testing.T) {
	keys := newBackendNormalizer().ValidKeys()
	if len(keys) != 2 || keys[0] != "nats" || keys[1] != "sqlite" {
		t.Fatalf("unexpected keys %v", keys)
	}
	keys[0] = "mutated"
	if newBackendNormalizer().ValidKeys()[0] != "nats" {
		t.Fatal("ValidKeys must return a copy")
	}
}
