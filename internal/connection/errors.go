package connection

import (
	"errors"
	"strings"
)

// Error keys surfaced to the view-model / UI, per spec.md §6. Anything
// else observed from the peer library is passed through verbatim instead
// of being mapped to one of these.
var (
	ErrConnectionTimeout   = errors.New("connectionTimeout")
	ErrICEFailed           = errors.New("iceFailed")
	ErrWebRTCUnsupported   = errors.New("webrtcUnsupported")
	ErrInvalidOffer        = errors.New("invalidOffer")
	ErrInvalidOfferFormat  = errors.New("invalidOfferFormat")
	ErrInvalidAnswer       = errors.New("invalidAnswer")
	ErrInvalidAnswerFormat = errors.New("invalidAnswerFormat")
)

// classifyPeerError maps a raw error message from the peer library to one
// of the known error keys, per spec.md §4.2's classification rule.
func classifyPeerError(msg string) error {
	if strings.Contains(msg, "Ice connection") || strings.Contains(msg, "ICE") {
		return ErrICEFailed
	}
	return errors.New(msg)
}
