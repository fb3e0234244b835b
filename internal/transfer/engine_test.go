package transfer

import (
	"bytes"
	"encoding/json"
	"sync"
	"testing"
	"time"

	pion "github.com/pion/webrtc/v4"
)

// fakeSource is an in-memory SourceHandle for tests.
type fakeSource struct{ data []byte }

func (f *fakeSource) Slice(offset, end int64) ([]byte, error) {
	return f.data[offset:end], nil
}
func (f *fakeSource) Close() error { return nil }

// fakeChannel records every Send/SendText call and reports an
// always-open, never-backed-up channel unless told otherwise.
type fakeChannel struct {
	mu       sync.Mutex
	texts    []string
	binaries [][]byte
	buffered uint64
	state    pion.DataChannelState
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{state: pion.DataChannelStateOpen}
}

func (f *fakeChannel) Send(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := append([]byte(nil), data...)
	f.binaries = append(f.binaries, cp)
	return nil
}

func (f *fakeChannel) SendText(s string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, s)
	return nil
}

func (f *fakeChannel) BufferedAmount() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buffered
}

func (f *fakeChannel) ReadyState() pion.DataChannelState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeChannel) snapshotTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

func (f *fakeChannel) snapshotBinaries() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.binaries...)
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	if !cond() {
		t.Fatalf("condition not met within %s", timeout)
	}
}

func TestEnqueueSendProducesExactChunkCount(t *testing.T) {
	ch := newFakeChannel()
	e := New()
	e.SetChannel(ch)

	size := int64(ChunkSize*2 + 100)
	src := &fakeSource{data: bytes.Repeat([]byte{'x'}, int(size))}

	var mu sync.Mutex
	var statuses []Status
	e.OnUpdate(func(tr Transfer) {
		mu.Lock()
		statuses = append(statuses, tr.Status)
		mu.Unlock()
	})

	e.EnqueueSend("file.bin", size, src)

	waitUntil(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(statuses) > 0 && statuses[len(statuses)-1] == StatusCompleted
	})

	if len(ch.snapshotBinaries()) != 3 {
		t.Fatalf("expected 3 chunks (ceil(%d/%d)), got %d", size, ChunkSize, len(ch.snapshotBinaries()))
	}

	texts := ch.snapshotTexts()
	if len(texts) != 2 {
		t.Fatalf("expected file-meta + file-complete text frames, got %d: %v", len(texts), texts)
	}
	var meta fileMetaMsg
	if err := json.Unmarshal([]byte(texts[0]), &meta); err != nil {
		t.Fatalf("decode meta: %v", err)
	}
	if meta.Type != msgFileMeta || meta.TotalChunks != 3 || meta.Size != size {
		t.Fatalf("unexpected meta: %+v", meta)
	}
	var complete fileCompleteMsg
	if err := json.Unmarshal([]byte(texts[1]), &complete); err != nil {
		t.Fatalf("decode complete: %v", err)
	}
	if complete.Type != msgFileComplete {
		t.Fatalf("unexpected complete: %+v", complete)
	}
}

func TestBackpressurePausesUntilBufferDrains(t *testing.T) {
	ch := newFakeChannel()
	ch.mu.Lock()
	ch.buffered = HighWaterMark + 1
	ch.mu.Unlock()

	e := New()
	e.SetChannel(ch)
	src := &fakeSource{data: bytes.Repeat([]byte{'y'}, ChunkSize)}

	done := make(chan struct{})
	e.OnUpdate(func(tr Transfer) {
		if tr.Status == StatusCompleted {
			close(done)
		}
	})
	e.EnqueueSend("paused.bin", ChunkSize, src)

	select {
	case <-done:
		t.Fatal("transfer completed despite buffer staying above high water mark")
	case <-time.After(150 * time.Millisecond):
	}

	ch.mu.Lock()
	ch.buffered = 0
	ch.mu.Unlock()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("transfer never completed after buffer drained")
	}
}

func TestCancelQueuedSendEmitsNoWireMessage(t *testing.T) {
	ch := newFakeChannel()
	ch.mu.Lock()
	ch.buffered = HighWaterMark + 1 // keep the first file blocked so the second stays queued
	ch.mu.Unlock()

	e := New()
	e.SetChannel(ch)

	blocker := &fakeSource{data: bytes.Repeat([]byte{'z'}, ChunkSize)}
	e.EnqueueSend("blocker.bin", ChunkSize, blocker)

	queued := &fakeSource{data: []byte("hello")}
	id := e.EnqueueSend("queued.bin", 5, queued)

	e.Cancel(id)

	time.Sleep(50 * time.Millisecond)
	for _, text := range ch.snapshotTexts() {
		var env envelope
		json.Unmarshal([]byte(text), &env)
		if env.Type == msgFileMeta {
			var m fileMetaMsg
			json.Unmarshal([]byte(text), &m)
			if m.ID == id {
				t.Fatalf("queued cancel must not emit file-meta, got %s", text)
			}
		}
	}
}

func TestReceiveRoundTripAssemblesFile(t *testing.T) {
	e := New()
	var received []byte
	var gotComplete bool
	e.OnFileReceived(func(id, name string, data []byte) {
		received = data
	})
	e.OnUpdate(func(tr Transfer) {
		if tr.Direction == DirectionReceive && tr.Status == StatusCompleted {
			gotComplete = true
		}
	})

	meta, _ := json.Marshal(fileMetaMsg{Type: msgFileMeta, ID: "abc", Name: "x.txt", Size: 10, TotalChunks: 1})
	e.HandleMessage(pion.DataChannelMessage{IsString: true, Data: meta})
	e.HandleMessage(pion.DataChannelMessage{Data: []byte("0123456789")})
	complete, _ := json.Marshal(fileCompleteMsg{Type: msgFileComplete, ID: "abc"})
	e.HandleMessage(pion.DataChannelMessage{IsString: true, Data: complete})

	if !gotComplete {
		t.Fatal("expected a completed receive-direction update")
	}
	if string(received) != "0123456789" {
		t.Fatalf("unexpected assembled data: %q", received)
	}
}

func TestChatMessageDispatch(t *testing.T) {
	e := New()
	var got string
	e.OnChatReceived(func(text string) { got = text })

	msg, _ := json.Marshal(chatMsg{Type: msgChat, Text: "hi there", Timestamp: 1})
	e.HandleMessage(pion.DataChannelMessage{IsString: true, Data: msg})

	if got != "hi there" {
		t.Fatalf("expected chat text to dispatch, got %q", got)
	}
}

func TestSendChatMessageRejectsEmpty(t *testing.T) {
	e := New()
	e.SetChannel(newFakeChannel())
	if err := e.SendChatMessage(""); err == nil {
		t.Fatal("expected error sending an empty chat message")
	}
}

func TestSendChatMessageRequiresOpenChannel(t *testing.T) {
	e := New()
	if err := e.SendChatMessage("hi"); err != ErrChannelNotOpen {
		t.Fatalf("expected ErrChannelNotOpen, got %v", err)
	}
}
