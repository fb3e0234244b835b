// Package files validates local paths picked for sending and wraps them
// behind a random-access SourceHandle, so the transfer engine's send loop
// can satisfy spec.md §9's requirement to read by [offset, end) instead
// of streaming — retries after a back-pressure pause never re-buffer the
// whole file.
package files

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// Info describes a file picked for sending.
type Info struct {
	Path string
	Name string
	Size int64
	Type string
}

// SourceHandle gives the sender random-access reads into a file's bytes.
type SourceHandle interface {
	// Slice reads [offset, end) and returns exactly end-offset bytes,
	// or an error if the read falls short.
	Slice(offset, end int64) ([]byte, error)
	Close() error
}

// fileHandle is the on-disk SourceHandle implementation.
type fileHandle struct {
	f *os.File
}

// OpenSource opens path for random-access reads.
func OpenSource(path string) (SourceHandle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &fileHandle{f: f}, nil
}

func (h *fileHandle) Slice(offset, end int64) ([]byte, error) {
	buf := make([]byte, end-offset)
	n, err := h.f.ReadAt(buf, offset)
	if err != nil && n != len(buf) {
		return nil, fmt.Errorf("read [%d,%d): %w", offset, end, err)
	}
	return buf[:n], nil
}

func (h *fileHandle) Close() error {
	return h.f.Close()
}

// Validate checks that paths exist, are regular non-empty files, and are
// readable, returning Info for each in the same order. Any single
// failure aborts validation of the whole batch, matching the teacher's
// all-or-nothing ValidateFiles behavior.
func Validate(paths []string) ([]Info, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files specified")
	}

	infos := make([]Info, 0, len(paths))
	var problems []string

	for _, path := range paths {
		info, err := validateSingle(path)
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		infos = append(infos, info)
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("file validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return infos, nil
}

func validateSingle(path string) (Info, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return Info{}, fmt.Errorf("%s: failed to resolve path: %w", path, err)
	}

	stat, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Info{}, fmt.Errorf("%s: file does not exist", path)
		}
		return Info{}, fmt.Errorf("%s: failed to stat file: %w", path, err)
	}
	if stat.IsDir() {
		return Info{}, fmt.Errorf("%s: is a directory (directories not supported)", path)
	}
	if stat.Size() == 0 {
		return Info{}, fmt.Errorf("%s: file is empty", path)
	}

	f, err := os.Open(absPath)
	if err != nil {
		return Info{}, fmt.Errorf("%s: cannot open file (check permissions): %w", path, err)
	}
	f.Close()

	mimeType := mime.TypeByExtension(filepath.Ext(absPath))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	return Info{
		Path: absPath,
		Name: filepath.Base(absPath),
		Size: stat.Size(),
		Type: mimeType,
	}, nil
}

// TotalSize sums the sizes of infos.
func TotalSize(infos []Info) int64 {
	var total int64
	for _, info := range infos {
		total += info.Size
	}
	return total
}
