package fileid

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fileid.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestGet_Miss(t *testing.T) {
	s, _ := openTestStore(t)

	id, ok, err := s.Get(context.Background(), "11 laugh.mp3")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok || id != "" {
		t.Errorf("got (%q, %v), want miss", id, ok)
	}
}

func TestPutGet_RoundTrip(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "11 laugh.mp3", "CQACAgQAAx0"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	id, ok, err := s.Get(ctx, "11 laugh.mp3")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || id != "CQACAgQAAx0" {
		t.Errorf("got (%q, %v)", id, ok)
	}
}

func TestPut_Replaces(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "Britons.mp3", "old"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, "Britons.mp3", "new"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	id, ok, _ := s.Get(ctx, "Britons.mp3")
	if !ok || id != "new" {
		t.Errorf("got (%q, %v), want new id", id, ok)
	}

	n, err := s.Len(ctx)
	if err != nil {
		t.Fatalf("Len: %v", err)
	}
	if n != 1 {
		t.Errorf("Len = %d, want 1", n)
	}
}

func TestReopen_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fileid.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Put(ctx, "monk1.wav", "id-1"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = s2.Close() }()

	id, ok, err := s2.Get(ctx, "monk1.wav")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || id != "id-1" {
		t.Errorf("got (%q, %v) after reopen", id, ok)
	}
}

func TestClear(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"a.mp3", "b.mp3", "c.wav"} {
		if err := s.Put(ctx, name, "id-"+name); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	n, err := s.Len(ctx)
	if err != nil {
		t.Fatalf("Len: %v", err)
	}
	if n != 0 {
		t.Errorf("Len = %d after Clear, want 0", n)
	}
}

func TestOpen_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "fileid.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = s.Close()
}
