package idgen

import (
	"regexp"
	"strings"
	"testing"
)

func TestNewRouteID_Format(t *testing.T) {
	pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(RoutePrefix) + `[a-zA-Z0-9]{10}$`)
	for i := 0; i < 100; i++ {
		id, err := NewRouteID()
		if err != nil {
			t.Fatalf("NewRouteID() error on iteration %d: %v", i, err)
		}
		if !pattern.MatchString(id) {
			t.Fatalf("NewRouteID() = %q, does not match %s", id, pattern)
		}
	}
}

func TestNewRouteID_Uniqueness(t *testing.T) {
	const count = 10_000
	seen := make(map[string]struct{}, count)
	for i := 0; i < count; i++ {
		id, err := NewRouteID()
		if err != nil {
			t.Fatalf("NewRouteID() error on iteration %d: %v", i, err)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate ID after %d iterations: %q", i, id)
		}
		seen[id] = struct{}{}
	}
}

func TestGenerateWithPrefix(t *testing.T) {
	id, err := GenerateWithPrefix("x-")
	if err != nil {
		t.Fatalf("GenerateWithPrefix() error: %v", err)
	}
	if !strings.HasPrefix(id, "x-") || len(id) != 2+Length {
		t.Errorf("GenerateWithPrefix(\"x-\") = %q", id)
	}
}

func TestNewToken(t *testing.T) {
	a, err := NewToken()
	if err != nil {
		t.Fatalf("NewToken() error: %v", err)
	}
	b, _ := NewToken()
	if len(a) != TokenLength || a == b {
		t.Errorf("NewToken() = %q, %q", a, b)
	}
}
