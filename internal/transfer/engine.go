package transfer

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/S2BlueMoon01/send-media/internal/files"
	"github.com/google/uuid"
	pion "github.com/pion/webrtc/v4"
)

// Direction is which side of a transfer this process played.
type Direction string

const (
	DirectionSend    Direction = "send"
	DirectionReceive Direction = "receive"
)

// Status is a transfer's lifecycle phase, per spec.md §3's FileTransfer
// record.
type Status string

const (
	StatusQueued       Status = "queued"
	StatusTransferring Status = "transferring"
	StatusCompleted    Status = "completed"
	StatusCancelled    Status = "cancelled"
	StatusError        Status = "error"
)

// Transfer is a point-in-time snapshot the engine emits on every state
// change. The view-model owns appending/updating its own list by ID;
// Engine itself keeps no ordered history.
type Transfer struct {
	ID        string
	Name      string
	Size      int64
	Direction Direction
	Status    Status
	Progress  int
	Speed     float64
	ETA       *float64
	StartTime *time.Time
	EndTime   *time.Time
}

// WireChannel is the subset of *pion.DataChannel the send/receive loops
// need. It exists so tests can exercise the engine against a fake
// channel instead of a live WebRTC transport; *pion.DataChannel already
// satisfies it structurally.
type WireChannel interface {
	Send(data []byte) error
	SendText(s string) error
	BufferedAmount() uint64
	ReadyState() pion.DataChannelState
}

type sendEntry struct {
	id     string
	name   string
	size   int64
	source files.SourceHandle
}

type incomingAssembly struct {
	id            string
	name          string
	size          int64
	totalChunks   int
	chunks        [][]byte
	receivedBytes int64
	startTime     time.Time
	lastUpdate    time.Time
}

// Engine drives one data channel's worth of file transfers and chat
// messages: a FIFO send queue feeding a single background send loop, and
// an inbound dispatcher that reassembles at most one incoming file at a
// time. Grounded on the teacher's ChunkSender/SingleChannelFileSender
// back-pressure loop, generalized from msgpack/adaptive-chunk-size to
// JSON/fixed-chunk-size per spec.md.
type Engine struct {
	mu        sync.Mutex
	ch        WireChannel
	queue     []*sendEntry
	isSending bool
	cancelled map[string]bool
	// remoteCancelled marks cancellations that arrived as a peer's
	// file-cancel message, so the send loop that notices them knows not
	// to echo file-cancel back (onFileCancel already emitted the status).
	remoteCancelled map[string]bool
	incoming        *incomingAssembly

	onUpdate       func(Transfer)
	onChat         func(string)
	onFileReceived func(id, name string, data []byte)
}

// New creates an Engine with no channel attached. Register On* callbacks
// and call SetChannel once the connection controller opens a channel.
func New() *Engine {
	return &Engine{cancelled: make(map[string]bool), remoteCancelled: make(map[string]bool)}
}

func (e *Engine) OnUpdate(fn func(Transfer))                          { e.onUpdate = fn }
func (e *Engine) OnChatReceived(fn func(text string))                 { e.onChat = fn }
func (e *Engine) OnFileReceived(fn func(id, name string, data []byte)) { e.onFileReceived = fn }

// SetChannel attaches the live channel and starts the send loop if any
// sends are already queued.
func (e *Engine) SetChannel(ch WireChannel) {
	e.mu.Lock()
	e.ch = ch
	e.mu.Unlock()
	e.maybeStartSendLoop()
}

// Close detaches the channel and drops all queued/in-flight state. The
// send loop, if running, observes a nil channel and exits on its next
// iteration.
func (e *Engine) Close() {
	e.mu.Lock()
	e.ch = nil
	e.queue = nil
	e.cancelled = make(map[string]bool)
	e.remoteCancelled = make(map[string]bool)
	e.incoming = nil
	e.mu.Unlock()
}

// EnqueueSend adds a file to the send queue and returns its transfer ID.
func (e *Engine) EnqueueSend(name string, size int64, source files.SourceHandle) string {
	id := uuid.NewString()
	e.mu.Lock()
	e.queue = append(e.queue, &sendEntry{id: id, name: name, size: size, source: source})
	e.mu.Unlock()

	e.emit(Transfer{ID: id, Name: name, Size: size, Direction: DirectionSend, Status: StatusQueued})
	e.maybeStartSendLoop()
	return id
}

// SendChatMessage writes a chat control message to the wire. The
// view-model is responsible for appending it to its own message list
// under the local sender's identity.
func (e *Engine) SendChatMessage(text string) error {
	if text == "" {
		return ErrEmptyMessage
	}
	e.mu.Lock()
	ch := e.ch
	e.mu.Unlock()
	if ch == nil {
		return ErrChannelNotOpen
	}
	return e.sendControl(ch, chatMsg{Type: msgChat, Text: text, Timestamp: time.Now().UnixMilli()})
}

// Cancel cancels a transfer by ID, whichever side and phase it's in:
// still queued (removed with no wire message), actively sending (wire
// file-cancel sent, loop stops after the current chunk), or actively
// receiving (assembly discarded, wire file-cancel sent).
func (e *Engine) Cancel(id string) {
	e.mu.Lock()
	for i, entry := range e.queue {
		if entry.id == id {
			e.queue = append(e.queue[:i], e.queue[i+1:]...)
			e.mu.Unlock()
			e.emit(Transfer{ID: id, Name: entry.name, Size: entry.size, Direction: DirectionSend, Status: StatusCancelled})
			return
		}
	}
	incoming := e.incoming
	if incoming != nil && incoming.id == id {
		e.incoming = nil
		e.mu.Unlock()

		e.emit(Transfer{ID: id, Name: incoming.name, Size: incoming.size, Direction: DirectionReceive, Status: StatusCancelled})
		if ch := e.channel(); ch != nil {
			e.sendControl(ch, fileCancelMsg{Type: msgFileCancel, ID: id})
		}
		return
	}

	// In-flight send: the running loop notices this on its next chunk
	// boundary and emits file-cancel itself.
	e.cancelled[id] = true
	e.mu.Unlock()
}

func (e *Engine) channel() WireChannel {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ch
}

func (e *Engine) isCancelled(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancelled[id]
}

func (e *Engine) clearCancelled(id string) {
	e.mu.Lock()
	delete(e.cancelled, id)
	delete(e.remoteCancelled, id)
	e.mu.Unlock()
}

// isRemoteCancelled reports whether id was cancelled by an incoming
// file-cancel rather than a local Cancel call.
func (e *Engine) isRemoteCancelled(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.remoteCancelled[id]
}

func (e *Engine) emit(t Transfer) {
	e.mu.Lock()
	cb := e.onUpdate
	e.mu.Unlock()
	if cb != nil {
		cb(t)
	}
}

func (e *Engine) sendControl(ch WireChannel, v any) error {
	data, err := marshalControl(v)
	if err != nil {
		return err
	}
	return ch.SendText(string(data))
}

// ---- send loop ----

func (e *Engine) maybeStartSendLoop() {
	e.mu.Lock()
	if e.isSending {
		e.mu.Unlock()
		return
	}
	e.isSending = true
	e.mu.Unlock()
	go e.runSendLoop()
}

func (e *Engine) runSendLoop() {
	for {
		e.mu.Lock()
		ch := e.ch
		if ch == nil || len(e.queue) == 0 {
			// Cleared under the same lock as the empty check, so an
			// EnqueueSend racing with this exit starts a new loop.
			e.isSending = false
			e.mu.Unlock()
			return
		}
		entry := e.queue[0]
		e.queue = e.queue[1:]
		e.mu.Unlock()

		if e.isCancelled(entry.id) {
			remote := e.isRemoteCancelled(entry.id)
			e.clearCancelled(entry.id)
			entry.source.Close()
			if !remote {
				e.emit(Transfer{ID: entry.id, Name: entry.name, Size: entry.size, Direction: DirectionSend, Status: StatusCancelled})
			}
			continue
		}

		e.sendOneFile(ch, entry)
		time.Sleep(InterFilePause)
	}
}

func (e *Engine) sendOneFile(ch WireChannel, entry *sendEntry) {
	defer entry.source.Close()

	totalChunks := chunkCount(entry.size)
	startTime := time.Now()
	e.emit(Transfer{ID: entry.id, Name: entry.name, Size: entry.size, Direction: DirectionSend, Status: StatusTransferring, StartTime: &startTime})

	if err := e.sendControl(ch, fileMetaMsg{Type: msgFileMeta, ID: entry.id, Name: entry.name, Size: entry.size, TotalChunks: totalChunks}); err != nil {
		e.emit(Transfer{ID: entry.id, Name: entry.name, Size: entry.size, Direction: DirectionSend, Status: StatusError, StartTime: &startTime})
		return
	}

	var sentBytes int64
	lastUpdate := startTime
	for i := 0; i < totalChunks; i++ {
		if e.isCancelled(entry.id) {
			remote := e.isRemoteCancelled(entry.id)
			e.clearCancelled(entry.id)
			if remote {
				// onFileCancel already emitted StatusCancelled for this
				// file and originated the cancellation; don't echo it
				// back to the peer or emit a second status.
				return
			}
			e.sendControl(ch, fileCancelMsg{Type: msgFileCancel, ID: entry.id})
			e.emit(Transfer{ID: entry.id, Name: entry.name, Size: entry.size, Direction: DirectionSend, Status: StatusCancelled, Progress: transferringProgressPercent(sentBytes, entry.size), StartTime: &startTime})
			return
		}
		if ch.ReadyState() != pion.DataChannelStateOpen {
			e.emit(Transfer{ID: entry.id, Name: entry.name, Size: entry.size, Direction: DirectionSend, Status: StatusError, StartTime: &startTime})
			return
		}

		off := int64(i) * ChunkSize
		end := off + ChunkSize
		if end > entry.size {
			end = entry.size
		}
		data, err := entry.source.Slice(off, end)
		if err != nil {
			e.emit(Transfer{ID: entry.id, Name: entry.name, Size: entry.size, Direction: DirectionSend, Status: StatusError, StartTime: &startTime})
			return
		}

		e.waitForWindow(ch)

		if err := ch.Send(data); err != nil {
			e.emit(Transfer{ID: entry.id, Name: entry.name, Size: entry.size, Direction: DirectionSend, Status: StatusError, StartTime: &startTime})
			return
		}
		sentBytes += int64(len(data))

		now := time.Now()
		final := i == totalChunks-1
		if final || now.Sub(lastUpdate) >= ProgressThrottle {
			lastUpdate = now
			speed := speedBytesPerSecond(sentBytes, now.Sub(startTime).Seconds())
			eta, ok := etaSeconds(entry.size-sentBytes, speed)
			t := Transfer{ID: entry.id, Name: entry.name, Size: entry.size, Direction: DirectionSend, Status: StatusTransferring, Progress: transferringProgressPercent(sentBytes, entry.size), Speed: speed, StartTime: &startTime}
			if ok {
				t.ETA = &eta
			}
			e.emit(t)
		}
	}

	if err := e.sendControl(ch, fileCompleteMsg{Type: msgFileComplete, ID: entry.id}); err != nil {
		e.emit(Transfer{ID: entry.id, Name: entry.name, Size: entry.size, Direction: DirectionSend, Status: StatusError, StartTime: &startTime})
		return
	}
	endTime := time.Now()
	e.emit(Transfer{ID: entry.id, Name: entry.name, Size: entry.size, Direction: DirectionSend, Status: StatusCompleted, Progress: 100, StartTime: &startTime, EndTime: &endTime})
}

func (e *Engine) waitForWindow(ch WireChannel) {
	for ch.BufferedAmount() > HighWaterMark {
		time.Sleep(BackpressurePollInterval)
	}
}

func chunkCount(size int64) int {
	if size <= 0 {
		return 0
	}
	return int((size + ChunkSize - 1) / ChunkSize)
}

// ---- inbound dispatch ----

// HandleMessage routes one data channel frame: control messages are
// dispatched by type, everything else is appended to the active
// incoming assembly.
func (e *Engine) HandleMessage(msg pion.DataChannelMessage) {
	if looksLikeJSON(msg) {
		var env envelope
		if err := json.Unmarshal(msg.Data, &env); err == nil {
			e.handleControl(env.Type, msg.Data)
			return
		}
	}
	e.handleChunk(msg.Data)
}

func (e *Engine) handleControl(t string, data []byte) {
	switch t {
	case msgFileMeta:
		var m fileMetaMsg
		if err := json.Unmarshal(data, &m); err == nil {
			e.onFileMeta(m)
		}
	case msgFileComplete:
		var m fileCompleteMsg
		if err := json.Unmarshal(data, &m); err == nil {
			e.onFileComplete(m)
		}
	case msgFileCancel:
		var m fileCancelMsg
		if err := json.Unmarshal(data, &m); err == nil {
			e.onFileCancel(m)
		}
	case msgChat:
		var m chatMsg
		if err := json.Unmarshal(data, &m); err == nil && e.onChat != nil {
			e.onChat(m.Text)
		}
	}
}

func (e *Engine) onFileMeta(m fileMetaMsg) {
	now := time.Now()

	e.mu.Lock()
	prev := e.incoming
	e.incoming = &incomingAssembly{id: m.ID, name: m.Name, size: m.Size, totalChunks: m.TotalChunks, startTime: now, lastUpdate: now}
	e.mu.Unlock()

	if prev != nil {
		// A new file-meta arrived before the previous assembly finished:
		// the protocol guarantees strict meta/chunks/complete ordering
		// per file, so this means the prior file was truncated.
		e.emit(Transfer{ID: prev.id, Name: prev.name, Size: prev.size, Direction: DirectionReceive, Status: StatusError, StartTime: &prev.startTime})
	}

	e.emit(Transfer{ID: m.ID, Name: m.Name, Size: m.Size, Direction: DirectionReceive, Status: StatusTransferring, StartTime: &now})
}

func (e *Engine) handleChunk(data []byte) {
	e.mu.Lock()
	inc := e.incoming
	if inc == nil {
		e.mu.Unlock()
		return
	}
	inc.chunks = append(inc.chunks, data)
	inc.receivedBytes += int64(len(data))

	now := time.Now()
	shouldEmit := inc.receivedBytes >= inc.size || now.Sub(inc.lastUpdate) >= ProgressThrottle
	if shouldEmit {
		inc.lastUpdate = now
	}
	id, name, size, receivedBytes, startTime := inc.id, inc.name, inc.size, inc.receivedBytes, inc.startTime
	e.mu.Unlock()

	if !shouldEmit {
		return
	}
	speed := speedBytesPerSecond(receivedBytes, now.Sub(startTime).Seconds())
	eta, ok := etaSeconds(size-receivedBytes, speed)
	t := Transfer{ID: id, Name: name, Size: size, Direction: DirectionReceive, Status: StatusTransferring, Progress: transferringProgressPercent(receivedBytes, size), Speed: speed, StartTime: &startTime}
	if ok {
		t.ETA = &eta
	}
	e.emit(t)
}

func (e *Engine) onFileComplete(m fileCompleteMsg) {
	e.mu.Lock()
	inc := e.incoming
	if inc == nil || (m.ID != "" && m.ID != inc.id) {
		e.mu.Unlock()
		return
	}
	e.incoming = nil
	e.mu.Unlock()

	data := make([]byte, 0, inc.receivedBytes)
	for _, c := range inc.chunks {
		data = append(data, c...)
	}

	endTime := time.Now()
	e.emit(Transfer{ID: inc.id, Name: inc.name, Size: inc.size, Direction: DirectionReceive, Status: StatusCompleted, Progress: 100, StartTime: &inc.startTime, EndTime: &endTime})
	if e.onFileReceived != nil {
		e.onFileReceived(inc.id, inc.name, data)
	}
}

func (e *Engine) onFileCancel(m fileCancelMsg) {
	e.mu.Lock()
	inc := e.incoming
	if inc != nil && inc.id == m.ID {
		e.incoming = nil
		e.mu.Unlock()
		e.emit(Transfer{ID: m.ID, Name: inc.name, Size: inc.size, Direction: DirectionReceive, Status: StatusCancelled, StartTime: &inc.startTime})
		return
	}
	e.mu.Unlock()

	// Not our active assembly: the peer is cancelling a file we're
	// sending to them. Mark it cancelled so the send loop stops at its
	// next chunk boundary, tagged remote so it doesn't echo file-cancel
	// back or emit a second StatusCancelled for the same file.
	e.mu.Lock()
	e.cancelled[m.ID] = true
	e.remoteCancelled[m.ID] = true
	e.mu.Unlock()
	e.emit(Transfer{ID: m.ID, Direction: DirectionSend, Status: StatusCancelled})
}
