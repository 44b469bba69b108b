package status

import (
	"path/filepath"
	"testing"
	"time"

	"dockhand"
)

func TestRoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "push.status.json")
	want := dockhand.RunStatus{
		Timestamp: time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
		Success:   true,
		Message:   "certificate push completed",
	}

	if err := Write(p, want); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(p)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != want {
		t.Errorf("Read() = %+v, want %+v", got, want)
	}
}

func TestWriteOverwritesSlot(t *testing.T) {
	p := filepath.Join(t.TempDir(), "push.status.json")

	if err := Write(p, dockhand.Now(false, "dsm unreachable")); err != nil {
		t.Fatal(err)
	}
	if err := Write(p, dockhand.Now(true, "certificate push completed")); err != nil {
		t.Fatal(err)
	}

	got, err := Read(p)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Success || got.Message != "certificate push completed" {
		t.Errorf("slot holds %+v, want the latest record", got)
	}
}

func TestReadMissing(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("Read of missing record succeeded")
	}
}
