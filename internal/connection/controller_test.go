package connection

import "testing"

func TestAcceptOfferRejectsGarbageSignal(t *testing.T) {
	c := New()
	err := c.AcceptOffer("not a real signal")
	if err == nil {
		t.Fatal("expected an error for a garbage signal")
	}
	if c.State() != StateError {
		t.Fatalf("expected StateError, got %s", c.State())
	}
}

func TestAcceptAnswerRejectsWrongState(t *testing.T) {
	c := New()
	if err := c.AcceptAnswer("anything"); err == nil {
		t.Fatal("expected an error when not waiting for a peer")
	}
	if c.State() != StateIdle {
		t.Fatalf("a rejected AcceptAnswer must not change state, got %s", c.State())
	}
}

func TestDisconnectIsIdempotent(t *testing.T) {
	c := New()
	c.Disconnect()
	c.Disconnect()
	if c.State() != StateIdle {
		t.Fatalf("expected StateIdle after repeated Disconnect, got %s", c.State())
	}
	if c.DataChannel() != nil {
		t.Fatal("expected no data channel after Disconnect")
	}
}

func TestClassifyPeerErrorMapsICEMessages(t *testing.T) {
	err := classifyPeerError("Ice connection failed")
	if err != ErrICEFailed {
		t.Fatalf("expected ErrICEFailed, got %v", err)
	}

	other := classifyPeerError("something unrelated")
	if other == ErrICEFailed {
		t.Fatal("unrelated messages must not classify as ErrICEFailed")
	}
}

func TestCallbacksFireOnStateAndErrorChanges(t *testing.T) {
	c := New()
	var states []State
	var errs []error
	c.OnStateChange(func(s State) { states = append(states, s) })
	c.OnError(func(e error) { errs = append(errs, e) })

	c.AcceptOffer("garbage")

	if len(states) == 0 || states[len(states)-1] != StateError {
		t.Fatalf("expected a StateError transition to be observed, got %v", states)
	}
	if len(errs) == 0 {
		t.Fatal("expected OnError to fire for a rejected offer")
	}
}
