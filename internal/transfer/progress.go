package transfer

import "math"

// progressPercent clamps bytesSoFar/size to an integer percentage in
// [0,100]. A non-positive size (shouldn't happen; files.Validate rejects
// empty files) is reported complete rather than dividing by zero.
func progressPercent(bytesSoFar, size int64) int {
	if size <= 0 {
		return 100
	}
	p := int(math.Round(100 * float64(bytesSoFar) / float64(size)))
	if p > 100 {
		p = 100
	}
	if p < 0 {
		p = 0
	}
	return p
}

// transferringProgressPercent is progressPercent clamped below 100, for
// use on StatusTransferring emits: spec.md §3's invariant reserves
// progress=100 for status=completed, so the final chunk of an in-flight
// send/receive reports 99 until the completed emit that follows it.
func transferringProgressPercent(bytesSoFar, size int64) int {
	p := progressPercent(bytesSoFar, size)
	if p > 99 {
		p = 99
	}
	return p
}

// speedBytesPerSecond is the cumulative average rate since a transfer
// started, per spec.md §4.3's ("averaged from the start, not
// instantaneous") smoothing choice.
func speedBytesPerSecond(bytesSoFar int64, elapsed float64) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(bytesSoFar) / elapsed
}

// etaSeconds estimates remaining seconds from the cumulative average
// speed, or returns (0, false) when the rate isn't yet known.
func etaSeconds(remaining int64, speed float64) (float64, bool) {
	if speed <= 0 {
		return 0, false
	}
	return float64(remaining) / speed, true
}
