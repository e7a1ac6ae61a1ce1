package xid

import (
	"strings"
	"testing"
)

func TestNewIsPrefixedAndUnique(t *testing.T) {
	seen := make(map[string]struct{}, 100)
	for i := 0; i < 100; i++ {
		id := New("abn")
		if !strings.HasPrefix(id, "abn-") {
			t.Fatalf("expected abn- prefix, got %s", id)
		}
		if len(id) != len("abn-")+32 {
			t.Fatalf("unexpected id length %d", len(id))
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = struct{}{}
	}
}
