package connection

// State is the connection controller's current phase. Exactly one value
// holds at a time; transitions are driven by Controller per the table in
// spec.md §4.2.
type State string

const (
	StateIdle           State = "idle"
	StateConnecting     State = "connecting"
	StateWaitingForPeer State = "waitingForPeer"
	StateConnected      State = "connected"
	StateDisconnected   State = "disconnected"
	StateError          State = "error"
)

// SignalStatus tracks local-signal production separately from State, so
// a UI can distinguish "generating signal" from "waiting for the peer to
// paste their side back".
type SignalStatus string

const (
	SignalNone      SignalStatus = ""
	SignalGathering SignalStatus = "gathering"
	SignalReady     SignalStatus = "ready"
)
