package gpio

import (
	"errors"
	"testing"
)

func TestFakeOutputsRecordsWrites(t *testing.T) {
	f := NewFakeOutputs()

	if err := f.Set(true, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.Set(false, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.Writes) != 2 {
		t.Fatalf("expected 2 writes, got %d", len(f.Writes))
	}
	if f.Writes[0] != (Write{Firing: true}) {
		t.Errorf("write 0: expected firing only, got %+v", f.Writes[0])
	}
	if f.Writes[1] != (Write{Tripped: true}) {
		t.Errorf("write 1: expected tripped only, got %+v", f.Writes[1])
	}
	if f.Last() != (Write{Tripped: true}) {
		t.Errorf("Last: expected most recent write, got %+v", f.Last())
	}
}

func TestFakeOutputsLastWhenEmpty(t *testing.T) {
	f := NewFakeOutputs()
	if f.Last() != (Write{}) {
		t.Errorf("expected zero write, got %+v", f.Last())
	}
}

func TestFakeOutputsError(t *testing.T) {
	f := NewFakeOutputs()
	f.SetError = errors.New("simulated error")

	if err := f.Set(true, true); err == nil {
		t.Error("expected error to be returned")
	}
	if len(f.Writes) != 0 {
		t.Error("failed Set should not record a write")
	}
}

func TestFakeOutputsClose(t *testing.T) {
	f := NewFakeOutputs()

	if f.Closed {
		t.Error("should not be closed initially")
	}
	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !f.Closed {
		t.Error("should be closed after Close()")
	}
}

func TestFakeOutputsReset(t *testing.T) {
	f := NewFakeOutputs()
	f.Set(true, true)
	f.Close()

	f.Reset()
	if len(f.Writes) != 0 || f.Closed {
		t.Error("Reset should clear writes and closed flag")
	}
}
