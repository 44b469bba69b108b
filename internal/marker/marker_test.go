package marker

import (
	"path/filepath"
	"testing"
)

func TestPeekAbsent(t *testing.T) {
	m := New(filepath.Join(t.TempDir(), "flag"))

	pointer, present, err := m.Peek()
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	if present || pointer != "" {
		t.Errorf("Peek() = (%q, %v), want empty and absent", pointer, present)
	}
}

func TestPublishPeekClear(t *testing.T) {
	m := New(filepath.Join(t.TempDir(), "flag"))

	if err := m.Publish("/etc/letsencrypt/live/npm-2"); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	pointer, present, err := m.Peek()
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	if !present || pointer != "/etc/letsencrypt/live/npm-2" {
		t.Errorf("Peek() = (%q, %v), want pointer and present", pointer, present)
	}

	if err := m.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, present, _ := m.Peek(); present {
		t.Error("marker still present after Clear")
	}
}

func TestPublishSupersedes(t *testing.T) {
	m := New(filepath.Join(t.TempDir(), "flag"))

	if err := m.Publish("/etc/letsencrypt/live/npm-1"); err != nil {
		t.Fatal(err)
	}
	if err := m.Publish("/etc/letsencrypt/live/npm-2"); err != nil {
		t.Fatal(err)
	}

	pointer, _, err := m.Peek()
	if err != nil {
		t.Fatal(err)
	}
	if pointer != "/etc/letsencrypt/live/npm-2" {
		t.Errorf("pointer = %q, want the latest write to win", pointer)
	}
}

func TestClearAbsentFails(t *testing.T) {
	m := New(filepath.Join(t.TempDir(), "flag"))
	if err := m.Clear(); err == nil {
		t.Error("Clear of absent marker succeeded, want error")
	}
}
