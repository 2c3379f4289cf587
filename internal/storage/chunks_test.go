package storage

import (
	"os"
	"strings"
	"testing"
)

func TestChunkStore_AssembleOrderIndependent(t *testing.T) {
	store := NewChunkStore(t.TempDir())
	const session = "session-1"

	// Chunks arrive out of order; assembly must still produce 0..n-1 order.
	chunks := map[int]string{2: "cc", 0: "aa", 1: "bb"}
	for n, data := range chunks {
		written, err := store.SaveChunk(session, n, strings.NewReader(data))
		if err != nil {
			t.Fatalf("save chunk %d: %v", n, err)
		}
		if written != int64(len(data)) {
			t.Fatalf("chunk %d: expected %d bytes written, got %d", n, len(data), written)
		}
	}

	path, err := store.Assemble(session, 3)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read assembled: %v", err)
	}
	if string(got) != "aabbcc" {
		t.Fatalf("expected aabbcc, got %q", got)
	}
}

func TestChunkStore_SaveOverwritesChunk(t *testing.T) {
	store := NewChunkStore(t.TempDir())
	const session = "session-2"

	if _, err := store.SaveChunk(session, 0, strings.NewReader("first")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := store.SaveChunk(session, 0, strings.NewReader("second")); err != nil {
		t.Fatalf("resave: %v", err)
	}

	path, err := store.Assemble(session, 1)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "second" {
		t.Fatalf("expected last write to win, got %q", got)
	}
}

func TestChunkStore_AssembleMissingChunkFails(t *testing.T) {
	store := NewChunkStore(t.TempDir())
	const session = "session-3"

	if _, err := store.SaveChunk(session, 0, strings.NewReader("aa")); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := store.Assemble(session, 2); err == nil {
		t.Fatal("expected error assembling with a missing chunk")
	}
}

func TestChunkStore_HasChunk(t *testing.T) {
	store := NewChunkStore(t.TempDir())
	const session = "session-4"

	if store.HasChunk(session, 0) {
		t.Fatal("chunk should not exist before save")
	}
	if _, err := store.SaveChunk(session, 0, strings.NewReader("x")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !store.HasChunk(session, 0) {
		t.Fatal("chunk should exist after save")
	}
	if store.HasChunk(session, 1) {
		t.Fatal("unexpected chunk 1")
	}
}

func TestChunkStore_RemoveSession(t *testing.T) {
	store := NewChunkStore(t.TempDir())
	const session = "session-5"

	if _, err := store.SaveChunk(session, 0, strings.NewReader("x")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.RemoveSession(session); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if store.HasChunk(session, 0) {
		t.Fatal("chunk survived session removal")
	}

	// Removing a session that never existed is not an error.
	if err := store.RemoveSession("never-created"); err != nil {
		t.Fatalf("remove unknown session: %v", err)
	}
}
