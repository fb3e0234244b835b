package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFormatSize(t *testing.T) {
	cases := []struct {
		bytes int64
		want  string
	}{
		{500, "500 B"},
		{2048, "2.00 KB"},
		{5 * 1024 * 1024, "5.00 MB"},
	}
	for _, c := range cases {
		if got := FormatSize(c.bytes); got != c.want {
			t.Errorf("FormatSize(%d) = %q, want %q", c.bytes, got, c.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Millisecond, "<1s"},
		{45 * time.Second, "45s"},
		{90 * time.Second, "1m30s"},
	}
	for _, c := range cases {
		if got := FormatDuration(c.d); got != c.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", c.d, got, c.want)
		}
	}
}

func TestTruncateString(t *testing.T) {
	if got := TruncateString("short", 10); got != "short" {
		t.Fatalf("expected unchanged short string, got %q", got)
	}
	if got := TruncateString("a very long filename.txt", 10); len(got) != 10 {
		t.Fatalf("expected truncated length 10, got %q (len %d)", got, len(got))
	}
}

func TestGetUniqueFilenameAvoidsCollision(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.txt")
	os.WriteFile(path, []byte("x"), 0o644)

	got := GetUniqueFilename(path)
	if got == path {
		t.Fatal("expected a different filename when the original exists")
	}
	want := filepath.Join(dir, "report (1).txt")
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestZipFilesProducesReadableArchive(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	os.WriteFile(a, []byte("aaa"), 0o644)
	os.WriteFile(b, []byte("bbbb"), 0o644)

	target := filepath.Join(dir, "bundle.zip")
	if err := ZipFiles([]string{a, b}, target); err != nil {
		t.Fatalf("ZipFiles: %v", err)
	}

	info, err := os.Stat(target)
	if err != nil {
		t.Fatalf("expected archive to exist: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("expected non-empty archive")
	}
}
