package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func newStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(t.TempDir(), "http://localhost:8080/media/")
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	return s
}

func TestPutAndOpen(t *testing.T) {
	s := newStore(t)
	url, err := s.Put(context.Background(), "guest_cards/wedding_invitation_Smith Wedding_1.png", []byte("png"), "image/png")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != "http://localhost:8080/media/guest_cards/wedding_invitation_Smith%20Wedding_1.png" {
		t.Fatalf("unexpected url %q", url)
	}

	rc, err := s.Open("guest_cards/wedding_invitation_Smith Wedding_1.png")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "png" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestPutIsWriteOnce(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	if _, err := s.Put(ctx, "qr_codes/a.png", []byte("1"), "image/png"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	_, err := s.Put(ctx, "qr_codes/a.png", []byte("2"), "image/png")
	if !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
}

func TestRejectsTraversal(t *testing.T) {
	s := newStore(t)
	for _, key := range []string{"", "/etc/passwd", "../x", "a/../../x", "a\\b", "a//b"} {
		if _, err := s.Put(context.Background(), key, nil, ""); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("key %q: expected ErrInvalidKey, got %v", key, err)
		}
	}
	if _, err := s.Open("missing.png"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPutIgnoresInterruptedWrite(t *testing.T) {
	s := newStore(t)
	dir := filepath.Join(s.root, "qr_codes")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	// a write cut short by a crash before it was linked into place
	if err := os.WriteFile(filepath.Join(dir, ".a.png.123.tmp"), []byte("tru"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Open("qr_codes/a.png"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before Put, got %v", err)
	}

	if _, err := s.Put(context.Background(), "qr_codes/a.png", []byte("complete"), "image/png"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	rc, err := s.Open("qr_codes/a.png")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	if data, _ := io.ReadAll(rc); string(data) != "complete" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestPutLeavesNoTempFiles(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	if _, err := s.Put(ctx, "guest_cards/g/card.png", []byte("1"), "image/png"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := s.Put(ctx, "guest_cards/g/card.png", []byte("2"), "image/png"); !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	entries, err := os.ReadDir(filepath.Join(s.root, "guest_cards", "g"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "card.png" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("unexpected files: %s", strings.Join(names, ", "))
	}
}

func TestConcurrentPutSameKey(t *testing.T) {
	s := newStore(t)
	const writers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Put(context.Background(), "qr_codes/race.png", []byte("payload"), "image/png")
			if err != nil && !errors.Is(err, ErrExists) {
				t.Errorf("Put: %v", err)
				return
			}
			if err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if created != 1 {
		t.Fatalf("created = %d, want 1", created)
	}
	rc, err := s.Open("qr_codes/race.png")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	if data, _ := io.ReadAll(rc); string(data) != "payload" {
		t.Fatalf("unexpected content %q", data)
	}
}
