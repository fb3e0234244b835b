// Package viewmodel aggregates internal/connection and internal/transfer
// into the single reactive surface spec.md §4.4 hands to a UI
// collaborator: a snapshot of state plus a fixed set of imperative
// commands. Nothing here renders anything; it owns the transfer and
// message lists (§4.4's "append-with-in-place-update semantics") and
// forwards everything else to the two components that own it.
package viewmodel

import (
	"sync"
	"time"

	"github.com/S2BlueMoon01/send-media/internal/connection"
	"github.com/S2BlueMoon01/send-media/internal/files"
	"github.com/S2BlueMoon01/send-media/internal/transfer"
	pion "github.com/pion/webrtc/v4"
)

// ChatMessage is one entry in the view-model's message list.
type ChatMessage struct {
	Text     string
	FromPeer bool
	At       time.Time
}

// WakeLock is a host-provided collaborator for keeping the screen awake
// during transfer activity, per spec.md §5. The bundled terminal UI has
// no such concept, so Adapter defaults to a no-op implementation; a host
// that has one calls SetWakeLock.
type WakeLock interface {
	Acquire() error
	Release()
}

type noopWakeLock struct{}

func (noopWakeLock) Acquire() error { return nil }
func (noopWakeLock) Release()       {}

// Snapshot is a consistent, point-in-time copy of the view-model's
// reactive state.
type Snapshot struct {
	ConnectionState connection.State
	SignalStatus    connection.SignalStatus
	LocalSignal     string
	Error           string
	Warning         string
	Transfers       []transfer.Transfer
	Messages        []ChatMessage
}

// Adapter is the view-model. All exported methods are safe to call
// concurrently.
type Adapter struct {
	mu   sync.Mutex
	conn *connection.Controller
	eng  *transfer.Engine
	wake WakeLock

	state        connection.State
	signalStatus connection.SignalStatus
	localSignal  string
	errVal       string
	warning      string
	transfers    []transfer.Transfer
	messages     []ChatMessage
	wakeHeld     bool

	onChange       func(Snapshot)
	onFileReceived func(id, name string, data []byte)
}

// New wires a fresh Connection Controller and Transfer Engine together
// behind one Adapter.
func New() *Adapter {
	a := &Adapter{
		conn:  connection.New(),
		eng:   transfer.New(),
		wake:  noopWakeLock{},
		state: connection.StateIdle,
	}

	a.conn.OnStateChange(a.handleState)
	a.conn.OnSignalStatus(a.handleSignalStatus)
	a.conn.OnLocalSignal(a.handleLocalSignal)
	a.conn.OnError(a.handleConnError)
	a.conn.OnDataChannel(a.handleDataChannel)

	a.eng.OnUpdate(a.handleTransferUpdate)
	a.eng.OnChatReceived(a.handleChatReceived)
	a.eng.OnFileReceived(a.dispatchFileReceived)

	return a
}

// OnChange registers the callback invoked after every reactive field
// change, with a fresh Snapshot.
func (a *Adapter) OnChange(fn func(Snapshot)) {
	a.mu.Lock()
	a.onChange = fn
	a.mu.Unlock()
}

// OnFileReceived registers the callback invoked when an inbound transfer
// completes, so a host can save the bytes somewhere.
func (a *Adapter) OnFileReceived(fn func(id, name string, data []byte)) {
	a.mu.Lock()
	a.onFileReceived = fn
	a.mu.Unlock()
}

// SetWakeLock overrides the no-op default.
func (a *Adapter) SetWakeLock(w WakeLock) {
	a.mu.Lock()
	a.wake = w
	a.mu.Unlock()
}

// Snapshot returns a consistent copy of the current reactive state.
func (a *Adapter) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Snapshot{
		ConnectionState: a.state,
		SignalStatus:    a.signalStatus,
		LocalSignal:     a.localSignal,
		Error:           a.errVal,
		Warning:         a.warning,
		Transfers:       append([]transfer.Transfer(nil), a.transfers...),
		Messages:        append([]ChatMessage(nil), a.messages...),
	}
}

// ---- commands (spec.md §4.4) ----

func (a *Adapter) CreateOffer() error              { return a.conn.CreateOffer() }
func (a *Adapter) AcceptOffer(signal string) error  { return a.conn.AcceptOffer(signal) }
func (a *Adapter) AcceptAnswer(signal string) error { return a.conn.AcceptAnswer(signal) }
func (a *Adapter) CancelTransfer(id string)         { a.eng.Cancel(id) }

// SendFiles validates paths, opens each as a random-access source, and
// enqueues it on the transfer engine. It returns the transfer ID
// assigned to each file it managed to enqueue, in the same order as
// paths; a validation failure enqueues nothing.
func (a *Adapter) SendFiles(paths []string) ([]string, error) {
	infos, err := files.Validate(paths)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(infos))
	for _, info := range infos {
		src, err := files.OpenSource(info.Path)
		if err != nil {
			return ids, err
		}
		ids = append(ids, a.eng.EnqueueSend(info.Name, info.Size, src))
	}
	return ids, nil
}

// SendMessage sends a chat control message and appends it to the
// message list under the local sender's identity.
func (a *Adapter) SendMessage(text string) error {
	if err := a.eng.SendChatMessage(text); err != nil {
		return err
	}
	a.mu.Lock()
	a.messages = append(a.messages, ChatMessage{Text: text, FromPeer: false, At: time.Now()})
	a.mu.Unlock()
	a.notify()
	return nil
}

// Disconnect is a hard cancel: destroys the peer, clears the send
// queue/cancelled set/incoming assembly, and empties transfers and
// messages. Idempotent.
func (a *Adapter) Disconnect() {
	a.conn.Disconnect()
	a.eng.Close()

	a.mu.Lock()
	a.transfers = nil
	a.messages = nil
	a.localSignal = ""
	a.errVal = ""
	a.warning = ""
	wake, held := a.wake, a.wakeHeld
	a.wakeHeld = false
	a.mu.Unlock()

	if held {
		wake.Release()
	}
	a.notify()
}

// ResetConnection is an alias of Disconnect, per spec.md §4.4.
func (a *Adapter) ResetConnection() { a.Disconnect() }

// ClearError clears the surfaced error without otherwise changing state.
func (a *Adapter) ClearError() {
	a.mu.Lock()
	a.errVal = ""
	a.mu.Unlock()
	a.notify()
}

// NotifyHostVisibility lets a host collaborator report
// backgrounded/foregrounded transitions; a persistent warning is
// surfaced while backgrounded during connecting/waitingForPeer, per
// spec.md §5. It never alters connectionState itself.
func (a *Adapter) NotifyHostVisibility(hidden bool) {
	a.mu.Lock()
	if hidden && (a.state == connection.StateConnecting || a.state == connection.StateWaitingForPeer) {
		a.warning = "app backgrounded during handshake"
	} else {
		a.warning = ""
	}
	a.mu.Unlock()
	a.notify()
}

// ---- connection callbacks ----

func (a *Adapter) handleState(s connection.State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
	a.notify()
}

func (a *Adapter) handleSignalStatus(s connection.SignalStatus) {
	a.mu.Lock()
	a.signalStatus = s
	a.mu.Unlock()
	a.notify()
}

func (a *Adapter) handleLocalSignal(signal string) {
	a.mu.Lock()
	a.localSignal = signal
	a.mu.Unlock()
	a.notify()
}

func (a *Adapter) handleConnError(err error) {
	a.mu.Lock()
	a.errVal = err.Error()
	a.mu.Unlock()
	a.notify()
}

func (a *Adapter) handleDataChannel(dc *pion.DataChannel) {
	a.eng.SetChannel(dc)
	dc.OnMessage(func(msg pion.DataChannelMessage) {
		a.eng.HandleMessage(msg)
	})
}

// ---- transfer engine callbacks ----

func (a *Adapter) handleTransferUpdate(t transfer.Transfer) {
	a.mu.Lock()
	found := false
	for i := range a.transfers {
		if a.transfers[i].ID == t.ID {
			a.transfers[i] = t
			found = true
			break
		}
	}
	if !found {
		a.transfers = append(a.transfers, t)
	}
	a.mu.Unlock()

	a.updateWakeLock()
	a.notify()
}

func (a *Adapter) handleChatReceived(text string) {
	a.mu.Lock()
	a.messages = append(a.messages, ChatMessage{Text: text, FromPeer: true, At: time.Now()})
	a.mu.Unlock()
	a.notify()
}

func (a *Adapter) dispatchFileReceived(id, name string, data []byte) {
	a.mu.Lock()
	cb := a.onFileReceived
	a.mu.Unlock()
	if cb != nil {
		cb(id, name, data)
	}
}

func (a *Adapter) updateWakeLock() {
	a.mu.Lock()
	active := false
	for _, t := range a.transfers {
		if t.Status == transfer.StatusQueued || t.Status == transfer.StatusTransferring {
			active = true
			break
		}
	}
	held, wake := a.wakeHeld, a.wake
	a.mu.Unlock()

	switch {
	case active && !held:
		if wake.Acquire() == nil {
			a.mu.Lock()
			a.wakeHeld = true
			a.mu.Unlock()
		}
	case !active && held:
		wake.Release()
		a.mu.Lock()
		a.wakeHeld = false
		a.mu.Unlock()
	}
}

func (a *Adapter) notify() {
	a.mu.Lock()
	cb := a.onChange
	a.mu.Unlock()
	if cb != nil {
		cb(a.Snapshot())
	}
}
