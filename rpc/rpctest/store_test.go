package rpctest

import (
	"testing"
)

// TestMatchPattern tests the subscription pattern semantics
func TestMatchPattern(t *testing.T) {
	tests := []struct {
		pattern string
		key     string
		want    bool
	}{
		{"", "anything", true},
		{"*", "anything", true},
		{"user/*", "user/1", true},
		{"user/*", "session/1", false},
		{"exact", "exact", true},
		{"exact", "exact-not", false},
	}

	for _, tt := range tests {
		if got := matchPattern(tt.pattern, tt.key); got != tt.want {
			t.Errorf("matchPattern(%q, %q) = %v, want %v", tt.pattern, tt.key, got, tt.want)
		}
	}
}

// TestStoreScanOrder tests that scans are ordered and bounded
func TestStoreScanOrder(t *testing.T) {
	st := newStore()
	for _, key := range []string{"c", "a", "b", "d"} {
		st.put(key, key)
	}

	pairs := st.scan("a", "c", 0)
	want := []string{"a", "b", "c"}
	if len(pairs) != len(want) {
		t.Fatalf("scan returned %d pairs, want %d", len(pairs), len(want))
	}
	for i, key := range want {
		if pairs[i].Key != key {
			t.Errorf("scan[%d] = %q, want %q", i, pairs[i].Key, key)
		}
	}

	if pairs := st.scan("", "", 2); len(pairs) != 2 {
		t.Errorf("bounded scan returned %d pairs, want 2", len(pairs))
	}
}

// TestStoreSnapshotIsolation tests that snapshots freeze the state
func TestStoreSnapshotIsolation(t *testing.T) {
	st := newStore()
	st.put("k", "old")

	id := st.createSnapshot()
	st.put("k", "new")

	if value, found, err := st.getAtSnapshot("k", id); err != nil || !found || value != "old" {
		t.Errorf("getAtSnapshot = (%q, %v, %v), want (old, true, nil)", value, found, err)
	}

	if err := st.releaseSnapshot(id); err != nil {
		t.Fatalf("releaseSnapshot failed: %v", err)
	}
	if err := st.releaseSnapshot(id); err == nil {
		t.Errorf("double release must fail")
	}
	if _, _, err := st.getAtSnapshot("k", id); err == nil {
		t.Errorf("read from a released snapshot must fail")
	}
}
