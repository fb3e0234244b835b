package viewmodel

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/S2BlueMoon01/send-media/internal/connection"
)

type fakeWakeLock struct {
	mu       sync.Mutex
	acquired int
	released int
}

func (f *fakeWakeLock) Acquire() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acquired++
	return nil
}
func (f *fakeWakeLock) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released++
}

func waitForSnapshot(t *testing.T, changes chan Snapshot, timeout time.Duration, pred func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case s := <-changes:
			if pred(s) {
				return s
			}
		case <-deadline:
			t.Fatal("timed out waiting for snapshot condition")
		}
	}
}

func TestSendFilesEnqueuesTransfer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hello.txt")
	if err := os.WriteFile(path, []byte("hello world"), 0o644); err != nil {
		t.Fatal(err)
	}

	a := New()
	changes := make(chan Snapshot, 64)
	a.OnChange(func(s Snapshot) { changes <- s })

	ids, err := a.SendFiles([]string{path})
	if err != nil {
		t.Fatalf("SendFiles: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("expected 1 transfer id, got %d", len(ids))
	}

	// No data channel attached, so nothing actually gets sent on the
	// wire, but the engine still reports the file as queued.
	waitForSnapshot(t, changes, time.Second, func(s Snapshot) bool {
		for _, tr := range s.Transfers {
			if tr.ID == ids[0] {
				return true
			}
		}
		return false
	})
}

func TestDisconnectClearsTransfersAndMessages(t *testing.T) {
	a := New()
	changes := make(chan Snapshot, 64)
	a.OnChange(func(s Snapshot) { changes <- s })

	dir := t.TempDir()
	path := filepath.Join(dir, "a.bin")
	os.WriteFile(path, []byte("data"), 0o644)
	if _, err := a.SendFiles([]string{path}); err != nil {
		t.Fatal(err)
	}
	waitForSnapshot(t, changes, time.Second, func(s Snapshot) bool { return len(s.Transfers) > 0 })

	a.Disconnect()
	snap := a.Snapshot()
	if snap.ConnectionState != connection.StateIdle {
		t.Fatalf("expected idle after disconnect, got %s", snap.ConnectionState)
	}
	if len(snap.Transfers) != 0 || len(snap.Messages) != 0 {
		t.Fatalf("expected empty transfers/messages after disconnect, got %+v", snap)
	}
}

func TestClearError(t *testing.T) {
	a := New()
	a.mu.Lock()
	a.errVal = "iceFailed"
	a.mu.Unlock()

	a.ClearError()
	if a.Snapshot().Error != "" {
		t.Fatal("expected error cleared")
	}
}

func TestNotifyHostVisibilityWarnsOnlyDuringHandshake(t *testing.T) {
	a := New()
	a.NotifyHostVisibility(true)
	if a.Snapshot().Warning != "" {
		t.Fatal("expected no warning while idle")
	}

	a.mu.Lock()
	a.state = connection.StateConnecting
	a.mu.Unlock()

	a.NotifyHostVisibility(true)
	if a.Snapshot().Warning == "" {
		t.Fatal("expected a warning while connecting and backgrounded")
	}

	a.NotifyHostVisibility(false)
	if a.Snapshot().Warning != "" {
		t.Fatal("expected warning cleared when foregrounded")
	}
}

func TestSendMessageRequiresChannelAndDoesNotAppendOnFailure(t *testing.T) {
	a := New()
	if err := a.SendMessage("hi"); err == nil {
		t.Fatal("expected error with no data channel attached")
	}
	if len(a.Snapshot().Messages) != 0 {
		t.Fatal("failed send must not append a message")
	}
}

func TestWakeLockAcquiredWhileTransferActive(t *testing.T) {
	wake := &fakeWakeLock{}
	a := New()
	a.SetWakeLock(wake)

	changes := make(chan Snapshot, 64)
	a.OnChange(func(s Snapshot) { changes <- s })

	dir := t.TempDir()
	path := filepath.Join(dir, "a.bin")
	os.WriteFile(path, []byte("data"), 0o644)
	if _, err := a.SendFiles([]string{path}); err != nil {
		t.Fatal(err)
	}
	waitForSnapshot(t, changes, time.Second, func(s Snapshot) bool { return len(s.Transfers) > 0 })

	wake.mu.Lock()
	acquired := wake.acquired
	wake.mu.Unlock()
	if acquired == 0 {
		t.Fatal("expected wake lock to be acquired once a transfer is queued")
	}

	a.Disconnect()
	wake.mu.Lock()
	released := wake.released
	wake.mu.Unlock()
	if released == 0 {
		t.Fatal("expected wake lock released on disconnect")
	}
}
