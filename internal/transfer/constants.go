// Package transfer implements the chunked file-transfer and chat protocol
// that runs over the single data channel a connection.Controller opens.
// Unlike the teacher's transfer package, chunk size here is fixed rather
// than adaptive: spec.md §4.3 pins CHUNK_SIZE so the number of chunks a
// transfer produces is a deterministic function of file size, which the
// wire protocol's ordering guarantees depend on.
package transfer

import "time"

const (
	// ChunkSize is the fixed size in bytes of every chunk except
	// possibly the last one of a file.
	ChunkSize = 65536

	// HighWaterMark is the outbound buffered-amount threshold above
	// which the send loop pauses before writing the next chunk.
	HighWaterMark = 1048576

	// ProgressThrottle bounds how often a transferring update fires.
	ProgressThrottle = 80 * time.Millisecond

	// InterFilePause is the pause the send loop takes between
	// finishing one queued file and starting the next.
	InterFilePause = 200 * time.Millisecond

	// BackpressurePollInterval is how often the send loop rechecks
	// BufferedAmount() while paused above HighWaterMark.
	BackpressurePollInterval = 20 * time.Millisecond

	// HandshakeTimeout mirrors connection.handshakeTimeout; the two
	// packages don't import each other, so the constant is restated
	// here for callers that only depend on transfer.
	HandshakeTimeout = 180 * time.Second
)
