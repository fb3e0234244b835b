package files

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateRejectsMissingEmptyAndDirectory(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.txt")
	os.WriteFile(empty, nil, 0o644)

	sub := filepath.Join(dir, "subdir")
	os.Mkdir(sub, 0o755)

	missing := filepath.Join(dir, "nope.txt")

	for _, path := range []string{empty, sub, missing} {
		if _, err := Validate([]string{path}); err == nil {
			t.Fatalf("expected Validate(%s) to fail", path)
		}
	}
}

func TestValidateReturnsInfoForGoodFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	infos, err := Validate([]string{path})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("expected 1 info, got %d", len(infos))
	}
	if infos[0].Name != "note.txt" || infos[0].Size != 5 {
		t.Fatalf("unexpected info: %+v", infos[0])
	}
}

func TestValidateAbortsBatchOnAnyFailure(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.txt")
	os.WriteFile(good, []byte("data"), 0o644)
	bad := filepath.Join(dir, "missing.txt")

	if _, err := Validate([]string{good, bad}); err == nil {
		t.Fatal("expected a batch with one bad path to fail entirely")
	}
}

func TestOpenSourceSliceReadsExactRange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	content := []byte("0123456789")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := OpenSource(path)
	if err != nil {
		t.Fatalf("OpenSource: %v", err)
	}
	defer src.Close()

	got, err := src.Slice(3, 7)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if string(got) != "3456" {
		t.Fatalf("expected %q, got %q", "3456", got)
	}
}

func TestTotalSizeSumsAllInfos(t *testing.T) {
	infos := []Info{{Size: 10}, {Size: 20}, {Size: 5}}
	if got := TotalSize(infos); got != 35 {
		t.Fatalf("expected 35, got %d", got)
	}
}
