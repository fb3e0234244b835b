package transfer

import (
	"encoding/json"
	"unicode/utf8"

	pion "github.com/pion/webrtc/v4"
)

// Control message type tags, per spec.md §4.3. These travel as JSON text
// frames; raw binary frames in between are chunk payloads with no
// envelope of their own.
const (
	msgFileMeta     = "file-meta"
	msgFileComplete = "file-complete"
	msgFileCancel   = "file-cancel"
	msgChat         = "chat"
)

type envelope struct {
	Type string `json:"type"`
}

type fileMetaMsg struct {
	Type        string `json:"type"`
	ID          string `json:"id"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	TotalChunks int    `json:"totalChunks"`
}

type fileCompleteMsg struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
}

type fileCancelMsg struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type chatMsg struct {
	Type      string `json:"type"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// looksLikeJSON decides whether an inbound data channel frame should be
// treated as a control message rather than a binary chunk: a text frame
// always is one, and a binary frame only is one if it parses as UTF-8
// and is brace-delimited. Chunks are the default when neither holds, or
// when JSON parsing of a brace-delimited frame fails outright.
func looksLikeJSON(msg pion.DataChannelMessage) bool {
	if msg.IsString {
		return true
	}
	data := msg.Data
	if len(data) < 2 || data[0] != '{' || data[len(data)-1] != '}' {
		return false
	}
	return utf8.Valid(data)
}

func marshalControl(v any) ([]byte, error) {
	return json.Marshal(v)
}
