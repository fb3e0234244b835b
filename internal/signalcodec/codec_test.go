package signalcodec

import (
	"encoding/base64"
	"strings"
	"testing"
)

const sampleSDP = "v=0\r\n" +
	"o=- 46117317 2 IN IP4 127.0.0.1\r\n" +
	"s=-\r\n" +
	"t=0 0\r\n" +
	"a=group:BUNDLE 0\r\n" +
	"a=msid-semantic: WMS\r\n" +
	"m=application 9 UDP/DTLS/SCTP webrtc-datachannel\r\n" +
	"c=IN IP4 0.0.0.0\r\n" +
	"a=ice-ufrag:abcd\r\n" +
	"a=ice-pwd:abcdefghijklmnopqrstuvwx\r\n" +
	"a=fingerprint:sha-256 AA:BB:CC\r\n" +
	"a=setup:actpass\r\n" +
	"a=mid:0\r\n" +
	"a=sctp-port:5000\r\n" +
	"a=candidate:1 1 UDP 2122260223 10.0.0.1 54321 typ host\r\n" +
	"a=rtpmap:111 opus/48000/2\r\n" +
	"a=fmtp:111 minptime=10\r\n" +
	"a=rtcp-fb:111 transport-cc\r\n" +
	"a=ssrc:12345 cname:abc\r\n" +
	"a=extmap:1 urn:ietf:params:rtp-hdrext:sdes:mid\r\n" +
	"a=msid:- abc\r\n"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	blob := SignalBlob{Kind: KindOffer, SDP: sampleSDP}

	encoded, err := Encode(blob)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if decoded.Kind != blob.Kind {
		t.Fatalf("kind mismatch: got %q want %q", decoded.Kind, blob.Kind)
	}

	keepLines := []string{
		"a=candidate:1 1 UDP 2122260223 10.0.0.1 54321 typ host",
		"a=ice-ufrag:abcd",
		"a=ice-pwd:abcdefghijklmnopqrstuvwx",
		"a=fingerprint:sha-256 AA:BB:CC",
		"a=setup:actpass",
		"a=sctp-port:5000",
		"a=mid:0",
		"a=msid-semantic: WMS",
	}
	for _, line := range keepLines {
		if !strings.Contains(decoded.SDP, line) {
			t.Errorf("expected decoded SDP to contain %q, got:\n%s", line, decoded.SDP)
		}
	}

	stripLines := []string{"a=rtpmap", "a=fmtp", "a=rtcp-fb", "a=ssrc", "a=extmap", "a=msid:-"}
	for _, line := range stripLines {
		if strings.Contains(decoded.SDP, line) {
			t.Errorf("expected decoded SDP to NOT contain %q", line)
		}
	}

	if !strings.HasSuffix(decoded.SDP, "\r\n") {
		t.Errorf("decoded SDP must end with CRLF, got %q", decoded.SDP[len(decoded.SDP)-4:])
	}
	for _, line := range strings.Split(strings.TrimSuffix(decoded.SDP, "\r\n"), "\r\n") {
		if strings.Contains(line, "\n") {
			t.Errorf("line contains bare LF: %q", line)
		}
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	blob := SignalBlob{Kind: KindAnswer, SDP: sampleSDP}

	a, err := Encode(blob)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	b, err := Encode(blob)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if a != b {
		t.Fatalf("encode not deterministic: %q != %q", a, b)
	}
}

func TestDecodeLegacyPlainBase64JSON(t *testing.T) {
	// No DEFLATE stage, just base64(JSON) with short keys.
	const legacy = "eyJ0Ijoib2ZmZXIiLCJzIjoidj0wXHJcbiJ9"
	blob, err := Decode(legacy)
	if err != nil {
		t.Fatalf("decode legacy: %v", err)
	}
	if blob.Kind != KindOffer {
		t.Fatalf("kind mismatch: got %q", blob.Kind)
	}
	if blob.SDP != "v=0\r\n" {
		t.Fatalf("sdp mismatch: got %q", blob.SDP)
	}
}

func TestDecodeGarbageFails(t *testing.T) {
	_, err := Decode("not base64!")
	if err == nil {
		t.Fatal("expected decode error for invalid input")
	}
}

func TestDecodeValidBase64InvalidInflateFails(t *testing.T) {
	// Valid base64, but not a DEFLATE stream nor JSON.
	encoded := base64.StdEncoding.EncodeToString([]byte("this is not deflate or json"))
	_, err := Decode(encoded)
	if err == nil {
		t.Fatal("expected decode error")
	}
}
