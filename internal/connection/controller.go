// Package connection drives a single WebRTC peer through non-trickle
// offer/answer exchange to an open data channel. It owns exactly one
// peer handle at a time, per spec.md §4.2 / §9 ("Global-ish peer
// handle"): a plain field on Controller with an explicit
// destroy-and-replace discipline on every new handshake, no module-level
// singleton.
package connection

import (
	"fmt"
	"sync"
	"time"

	"github.com/S2BlueMoon01/send-media/internal/iceconfig"
	"github.com/S2BlueMoon01/send-media/internal/signalcodec"
	pion "github.com/pion/webrtc/v4"
)

// handshakeTimeout is spec.md §4.2's 180s bound from entering the
// handshake to reaching StateConnected.
const handshakeTimeout = 180 * time.Second

// dataChannelLabel is the single data channel multiplexing both control
// messages and file chunks (spec.md §4.3).
const dataChannelLabel = "data"

// Controller owns the peer connection and its one data channel, and
// drives the state machine in spec.md §4.2. All exported methods are
// safe to call concurrently; callbacks registered via the On* setters
// run under Controller's lock is released, so they may call back into
// Controller (e.g. Disconnect from an OnError handler) without
// deadlocking.
type Controller struct {
	mu    sync.Mutex
	pc    *pion.PeerConnection
	dc    *pion.DataChannel
	state State
	sigSt SignalStatus
	err   error
	timer *time.Timer
	role  role

	onStateChange  func(State)
	onSignalStatus func(SignalStatus)
	onLocalSignal  func(string)
	onError        func(error)
	onDataChannel  func(*pion.DataChannel)
}

type role int

const (
	roleNone role = iota
	roleInitiator
	roleResponder
)

// New creates an idle Controller. Register On* callbacks before calling
// CreateOffer/AcceptOffer.
func New() *Controller {
	return &Controller{state: StateIdle}
}

func (c *Controller) OnStateChange(fn func(State))             { c.onStateChange = fn }
func (c *Controller) OnSignalStatus(fn func(SignalStatus))     { c.onSignalStatus = fn }
func (c *Controller) OnLocalSignal(fn func(string))            { c.onLocalSignal = fn }
func (c *Controller) OnError(fn func(error))                   { c.onError = fn }
func (c *Controller) OnDataChannel(fn func(*pion.DataChannel)) { c.onDataChannel = fn }

// State returns the current connection state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CreateOffer constructs an initiator peer, begins ICE gathering, and
// (once gathering completes) emits the encoded offer via OnLocalSignal.
func (c *Controller) CreateOffer() error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return fmt.Errorf("createOffer: not idle (state=%s)", c.state)
	}
	c.role = roleInitiator
	c.mu.Unlock()

	pc, err := pion.NewPeerConnection(iceconfig.Configuration())
	if err != nil {
		return c.fail(classifyNewPeerErr(err))
	}

	c.setState(StateConnecting)
	c.setSignalStatus(SignalGathering)
	c.startHandshakeTimer()
	c.bind(pc)

	dc, err := pc.CreateDataChannel(dataChannelLabel, &pion.DataChannelInit{Ordered: boolPtr(true)})
	if err != nil {
		pc.Close()
		return c.fail(err)
	}
	c.bindDataChannel(dc)

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		pc.Close()
		return c.fail(err)
	}
	if err := pc.SetLocalDescription(offer); err != nil {
		pc.Close()
		return c.fail(err)
	}

	go c.awaitGatheringAndPublish(pc, signalcodec.KindOffer)
	return nil
}

// AcceptOffer decodes a peer-supplied offer, constructs a responder
// peer, and once ICE gathering completes emits the encoded answer via
// OnLocalSignal.
func (c *Controller) AcceptOffer(encoded string) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return fmt.Errorf("acceptOffer: not idle (state=%s)", c.state)
	}
	c.role = roleResponder
	c.mu.Unlock()

	blob, err := signalcodec.Decode(encoded)
	if err != nil {
		return c.fail(ErrInvalidOfferFormat)
	}
	if blob.Kind != signalcodec.KindOffer {
		return c.fail(ErrInvalidOffer)
	}

	pc, err := pion.NewPeerConnection(iceconfig.Configuration())
	if err != nil {
		return c.fail(classifyNewPeerErr(err))
	}

	c.setState(StateConnecting)
	c.setSignalStatus(SignalGathering)
	c.startHandshakeTimer()
	c.bind(pc)

	if err := pc.SetRemoteDescription(pion.SessionDescription{Type: pion.SDPTypeOffer, SDP: blob.SDP}); err != nil {
		pc.Close()
		return c.fail(ErrInvalidOffer)
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		pc.Close()
		return c.fail(err)
	}
	if err := pc.SetLocalDescription(answer); err != nil {
		pc.Close()
		return c.fail(err)
	}

	go c.awaitGatheringAndPublish(pc, signalcodec.KindAnswer)
	return nil
}

// AcceptAnswer feeds a peer-supplied answer to the initiator's peer.
// Valid only from StateWaitingForPeer, and only for the initiator.
func (c *Controller) AcceptAnswer(encoded string) error {
	c.mu.Lock()
	if c.state != StateWaitingForPeer || c.role != roleInitiator {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("acceptAnswer: not waiting for peer (state=%s)", state)
	}
	pc := c.pc
	c.mu.Unlock()

	blob, err := signalcodec.Decode(encoded)
	if err != nil {
		return c.fail(ErrInvalidAnswerFormat)
	}
	if blob.Kind != signalcodec.KindAnswer {
		return c.fail(ErrInvalidAnswer)
	}

	if err := pc.SetRemoteDescription(pion.SessionDescription{Type: pion.SDPTypeAnswer, SDP: blob.SDP}); err != nil {
		return c.fail(ErrInvalidAnswer)
	}

	c.setState(StateConnecting)
	return nil
}

// DataChannel returns the current data channel, or nil if none is open
// yet.
func (c *Controller) DataChannel() *pion.DataChannel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dc
}

// Disconnect is a hard reset: destroys the peer (if any) and returns to
// StateIdle. Idempotent.
func (c *Controller) Disconnect() {
	c.mu.Lock()
	pc := c.pc
	timer := c.timer
	c.pc = nil
	c.dc = nil
	c.timer = nil
	c.role = roleNone
	c.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
	if pc != nil {
		pc.Close()
	}

	c.setSignalStatus(SignalNone)
	c.setErrVal(nil)
	c.setState(StateIdle)
}

func (c *Controller) bind(pc *pion.PeerConnection) {
	c.mu.Lock()
	c.pc = pc
	c.mu.Unlock()

	pc.OnConnectionStateChange(func(s pion.PeerConnectionState) {
		switch s {
		case pion.PeerConnectionStateConnected:
			c.stopHandshakeTimer()
			c.setErrVal(nil)
			c.setSignalStatus(SignalNone)
			c.setState(StateConnected)
		case pion.PeerConnectionStateClosed:
			c.stopHandshakeTimer()
			c.setState(StateDisconnected)
		case pion.PeerConnectionStateFailed:
			c.fail(classifyPeerError("Ice connection failed"))
		}
	})
	pc.OnICEConnectionStateChange(func(s pion.ICEConnectionState) {
		if s == pion.ICEConnectionStateFailed {
			c.fail(classifyPeerError("Ice connection failed"))
		}
	})
	pc.OnDataChannel(func(dc *pion.DataChannel) {
		if dc.Label() != dataChannelLabel {
			return
		}
		c.bindDataChannel(dc)
	})
}

func (c *Controller) bindDataChannel(dc *pion.DataChannel) {
	c.mu.Lock()
	c.dc = dc
	cb := c.onDataChannel
	c.mu.Unlock()

	if cb != nil {
		cb(dc)
	}
}

// awaitGatheringAndPublish blocks (in its own goroutine) until ICE
// gathering completes, then encodes and publishes the local signal.
// This is the non-trickle property spec.md §4.2/§6 requires: exactly one
// signal emission per side, containing every candidate.
func (c *Controller) awaitGatheringAndPublish(pc *pion.PeerConnection, kind signalcodec.Kind) {
	<-pion.GatheringCompletePromise(pc)

	desc := pc.LocalDescription()
	if desc == nil {
		c.fail(fmt.Errorf("no local description after gathering"))
		return
	}

	encoded, err := signalcodec.Encode(signalcodec.SignalBlob{Kind: kind, SDP: desc.SDP})
	if err != nil {
		c.fail(err)
		return
	}

	c.mu.Lock()
	if c.pc != pc {
		// superseded by a later Disconnect/new handshake
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.setSignalStatus(SignalReady)
	c.setState(StateWaitingForPeer)

	c.mu.Lock()
	cb := c.onLocalSignal
	c.mu.Unlock()
	if cb != nil {
		cb(encoded)
	}
}

func (c *Controller) startHandshakeTimer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(handshakeTimeout, func() {
		c.fail(ErrConnectionTimeout)
	})
}

func (c *Controller) stopHandshakeTimer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// fail destroys the peer and moves to StateError, surfacing err. Always
// returns err so call sites can `return c.fail(err)`.
func (c *Controller) fail(err error) error {
	c.mu.Lock()
	pc := c.pc
	c.pc = nil
	c.dc = nil
	c.mu.Unlock()

	c.stopHandshakeTimer()
	if pc != nil {
		pc.Close()
	}

	c.setErrVal(err)
	c.setSignalStatus(SignalNone)
	c.setState(StateError)
	return err
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	if c.state == s {
		c.mu.Unlock()
		return
	}
	c.state = s
	cb := c.onStateChange
	c.mu.Unlock()
	if cb != nil {
		cb(s)
	}
}

func (c *Controller) setSignalStatus(s SignalStatus) {
	c.mu.Lock()
	c.sigSt = s
	cb := c.onSignalStatus
	c.mu.Unlock()
	if cb != nil {
		cb(s)
	}
}

func (c *Controller) setErrVal(err error) {
	c.mu.Lock()
	c.err = err
	cb := c.onError
	c.mu.Unlock()
	if cb != nil && err != nil {
		cb(err)
	}
}

func classifyNewPeerErr(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if msg == "" {
		return ErrWebRTCUnsupported
	}
	return err
}

func boolPtr(b bool) *bool { return &b }
