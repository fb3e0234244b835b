// Package signalcodec turns a WebRTC session description into a compact
// ASCII string (standard, padded base64) short enough to display as a QR
// code, and back.
// It is pure and stateless: the same blob always encodes to the same
// string, and decoding never depends on anything but its input.
package signalcodec

import (
	"bytes"
	"compress/flate"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Kind distinguishes an SDP offer from an SDP answer.
type Kind string

const (
	KindOffer  Kind = "offer"
	KindAnswer Kind = "answer"
)

// SignalBlob is the session description exchanged out of band between the
// two peers: produced once by the local side after ICE gathering
// completes, consumed once by the remote side.
type SignalBlob struct {
	Kind Kind
	SDP  string
}

// wireBlob is the on-the-wire shape: short keys, minified SDP.
type wireBlob struct {
	T string `json:"t"`
	S string `json:"s"`
}

// ErrDecode is the sentinel every decode failure wraps, regardless of
// which stage (base64, inflate, JSON) rejected the input.
var ErrDecode = errors.New("signalcodec: malformed signal")

// stripPrefixes lists the SDP attribute lines that carry no information
// the data-channel-only negotiation needs; they are the bulk of what a
// real-world SDP costs in size.
var stripPrefixes = []string{
	"a=rtpmap",
	"a=fmtp",
	"a=rtcp-fb",
	"a=ssrc",
	"a=extmap",
	"a=msid:", // the trailing colon matters: a=msid-semantic: is kept
}

// Encode runs the full pipeline: minify the SDP, shorten the JSON keys,
// DEFLATE, then base64. Deterministic for a given input.
func Encode(blob SignalBlob) (string, error) {
	wire := wireBlob{T: string(blob.Kind), S: minifySDP(blob.SDP)}

	payload, err := json.Marshal(wire)
	if err != nil {
		return "", fmt.Errorf("%w: marshal: %v", ErrDecode, err)
	}

	var compressed bytes.Buffer
	fw, err := flate.NewWriter(&compressed, flate.BestCompression)
	if err != nil {
		return "", fmt.Errorf("%w: deflate init: %v", ErrDecode, err)
	}
	if _, err := fw.Write(payload); err != nil {
		return "", fmt.Errorf("%w: deflate write: %v", ErrDecode, err)
	}
	if err := fw.Close(); err != nil {
		return "", fmt.Errorf("%w: deflate close: %v", ErrDecode, err)
	}

	return base64.StdEncoding.EncodeToString(compressed.Bytes()), nil
}

// Decode reverses Encode: base64 decode, inflate, JSON parse, restore
// keys and CRLF line endings. On failure it retries once against a plain
// base64-of-JSON encoding to tolerate blobs produced before compression
// was added, then gives up with an error wrapping ErrDecode.
func Decode(s string) (SignalBlob, error) {
	if blob, err := decodeCompressed(s); err == nil {
		return blob, nil
	}
	if blob, err := decodeLegacy(s); err == nil {
		return blob, nil
	}
	return SignalBlob{}, fmt.Errorf("%w: not valid base64/deflate/json", ErrDecode)
}

func decodeCompressed(s string) (SignalBlob, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return SignalBlob{}, fmt.Errorf("%w: base64: %v", ErrDecode, err)
	}

	fr := flate.NewReader(bytes.NewReader(raw))
	defer fr.Close()

	payload, err := io.ReadAll(fr)
	if err != nil {
		return SignalBlob{}, fmt.Errorf("%w: inflate: %v", ErrDecode, err)
	}

	return parseWire(payload)
}

// decodeLegacy tolerates a blob that is base64-of-JSON with no DEFLATE
// stage, in case an older peer ships one.
func decodeLegacy(s string) (SignalBlob, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return SignalBlob{}, fmt.Errorf("%w: base64: %v", ErrDecode, err)
	}
	return parseWire(raw)
}

func parseWire(payload []byte) (SignalBlob, error) {
	var wire wireBlob
	if err := json.Unmarshal(payload, &wire); err != nil {
		return SignalBlob{}, fmt.Errorf("%w: json: %v", ErrDecode, err)
	}
	if wire.T == "" {
		return SignalBlob{}, fmt.Errorf("%w: missing type", ErrDecode)
	}
	return SignalBlob{Kind: Kind(wire.T), SDP: restoreLineEndings(wire.S)}, nil
}

// minifySDP normalizes line endings, trims each line, drops empty lines
// and junk media-section attributes, and rejoins with CRLF plus a
// trailing CRLF.
func minifySDP(sdp string) string {
	normalized := strings.ReplaceAll(sdp, "\r\n", "\n")
	lines := strings.Split(normalized, "\n")

	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || hasStripPrefix(line) {
			continue
		}
		kept = append(kept, line)
	}

	return strings.Join(kept, "\r\n") + "\r\n"
}

func hasStripPrefix(line string) bool {
	for _, prefix := range stripPrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// restoreLineEndings guarantees every line, including the last, ends in
// CRLF — the peer library silently rejects anything less.
func restoreLineEndings(sdp string) string {
	normalized := strings.ReplaceAll(sdp, "\r\n", "\n")
	normalized = strings.TrimRight(normalized, "\n")
	if normalized == "" {
		return ""
	}
	lines := strings.Split(normalized, "\n")
	return strings.Join(lines, "\r\n") + "\r\n"
}
