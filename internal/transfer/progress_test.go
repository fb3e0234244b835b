package transfer

import "testing"

func TestProgressPercentClampsAndRounds(t *testing.T) {
	cases := []struct {
		bytesSoFar, size int64
		want             int
	}{
		{0, 100, 0},
		{50, 100, 50},
		{100, 100, 100},
		{150, 100, 100},
		{1, 3, 33},
		{2, 3, 67},
	}
	for _, c := range cases {
		if got := progressPercent(c.bytesSoFar, c.size); got != c.want {
			t.Errorf("progressPercent(%d,%d) = %d, want %d", c.bytesSoFar, c.size, got, c.want)
		}
	}
}

func TestProgressPercentZeroSizeIsComplete(t *testing.T) {
	if got := progressPercent(0, 0); got != 100 {
		t.Errorf("progressPercent(0,0) = %d, want 100", got)
	}
}

func TestSpeedBytesPerSecond(t *testing.T) {
	if got := speedBytesPerSecond(1000, 2); got != 500 {
		t.Errorf("speedBytesPerSecond(1000,2) = %v, want 500", got)
	}
	if got := speedBytesPerSecond(1000, 0); got != 0 {
		t.Errorf("speedBytesPerSecond with zero elapsed should be 0, got %v", got)
	}
}

func TestETASeconds(t *testing.T) {
	eta, ok := etaSeconds(1000, 500)
	if !ok || eta != 2 {
		t.Errorf("etaSeconds(1000,500) = (%v,%v), want (2,true)", eta, ok)
	}
	if _, ok := etaSeconds(1000, 0); ok {
		t.Error("etaSeconds with zero speed should report not-ok")
	}
}

func TestChunkCount(t *testing.T) {
	cases := []struct{ size int64; want int }{
		{0, 0},
		{1, 1},
		{ChunkSize, 1},
		{ChunkSize + 1, 2},
		{ChunkSize * 3, 3},
	}
	for _, c := range cases {
		if got := chunkCount(c.size); got != c.want {
			t.Errorf("chunkCount(%d) = %d, want %d", c.size, got, c.want)
		}
	}
}
