// Package iceconfig holds the fixed ICE server list the connection
// controller hands to pion. There is no signaling server and no TURN
// relay in this system (spec Non-goals), so there is nothing here to
// load from a remote source the way the teacher's config package did —
// just the STUN list and an environment override for local testing.
package iceconfig

import (
	"os"
	"strings"

	pion "github.com/pion/webrtc/v4"
)

// DefaultSTUNServers is the fixed list spec.md §4.2 requires.
var DefaultSTUNServers = []string{
	"stun:stun.l.google.com:19302",
	"stun:stun1.l.google.com:19302",
	"stun:stun2.l.google.com:19302",
	"stun:stun.cloudflare.com:3478",
	"stun:global.stun.twilio.com:3478",
}

// STUNServers returns the STUN URLs to use: the SEND_MEDIA_STUN_SERVERS
// env var (comma separated) if set, otherwise DefaultSTUNServers.
func STUNServers() []string {
	if raw := os.Getenv("SEND_MEDIA_STUN_SERVERS"); raw != "" {
		var servers []string
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s != "" {
				servers = append(servers, s)
			}
		}
		if len(servers) > 0 {
			return servers
		}
	}
	return DefaultSTUNServers
}

// Configuration builds the pion RTCConfiguration for a new peer
// connection: STUN only, no TURN, no ICE transport policy restriction.
func Configuration() pion.Configuration {
	return pion.Configuration{
		ICEServers: []pion.ICEServer{{URLs: STUNServers()}},
	}
}
