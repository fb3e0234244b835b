package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/S2BlueMoon01/send-media/internal/connection"
	"github.com/S2BlueMoon01/send-media/internal/files"
	"github.com/S2BlueMoon01/send-media/internal/transfer"
	"github.com/S2BlueMoon01/send-media/internal/ui"
	"github.com/S2BlueMoon01/send-media/internal/utils"
	"github.com/S2BlueMoon01/send-media/internal/viewmodel"
)

// sessionOptions holds the flags shared by the offer and answer commands.
type sessionOptions struct {
	files   []string
	outDir  string
	noTUI   bool
	message string
	zip     bool
}

// resolveFiles bundles multiple files into one zip archive under a temp
// directory when zip is requested, matching the teacher's zip-on-receive
// feature but applied on the sending side: one archive, one transfer.
func resolveFiles(paths []string, zip bool) ([]string, error) {
	if !zip || len(paths) < 2 {
		return paths, nil
	}

	dir, err := os.MkdirTemp("", "send-media-zip-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	archive := filepath.Join(dir, fmt.Sprintf("bundle-%d.zip", time.Now().UnixNano()))
	if err := utils.ZipFiles(paths, archive); err != nil {
		return nil, fmt.Errorf("zip files: %w", err)
	}
	return []string{archive}, nil
}

// readLine prompts on stdout and reads one trimmed line from stdin.
func readLine(prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// waitForLocalSignal blocks until the adapter has produced a non-empty
// local signal.
func waitForLocalSignal(a *viewmodel.Adapter) string {
	if s := a.Snapshot().LocalSignal; s != "" {
		return s
	}
	ch := make(chan string, 1)
	a.OnChange(func(s viewmodel.Snapshot) {
		if s.LocalSignal != "" {
			select {
			case ch <- s.LocalSignal:
			default:
			}
		}
	})
	return <-ch
}

// waitForConnected blocks until the adapter reaches StateConnected or
// StateError, returning the terminal error if any.
func waitForConnected(a *viewmodel.Adapter) error {
	ch := make(chan connection.State, 1)
	a.OnChange(func(s viewmodel.Snapshot) {
		if s.ConnectionState == connection.StateConnected || s.ConnectionState == connection.StateError {
			select {
			case ch <- s.ConnectionState:
			default:
			}
		}
	})
	if st := <-ch; st == connection.StateError {
		return fmt.Errorf("connection failed: %s", a.Snapshot().Error)
	}
	return nil
}

// runSession queues files and an optional one-shot chat message, saves
// any inbound files under opts.outDir as they complete, then renders
// the transfer until the user quits the interactive TUI or, in the
// non-interactive fallback, every transfer reaches a terminal status.
func runSession(adapter *viewmodel.Adapter, opts sessionOptions) error {
	outDir := opts.outDir
	if outDir == "" {
		outDir, _ = os.Getwd()
	} else if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	// When --zip is set, received files land in a staging directory and
	// are bundled into one archive under outDir once the session ends,
	// mirroring the teacher's receive-side zip feature.
	saveDir := outDir
	var zipStaging string
	var received int32
	if opts.zip {
		dir, err := os.MkdirTemp("", "send-media-recv-*")
		if err != nil {
			return fmt.Errorf("create receive staging dir: %w", err)
		}
		zipStaging = dir
		saveDir = dir
		defer os.RemoveAll(zipStaging)
	}

	adapter.OnFileReceived(func(id, name string, data []byte) {
		atomic.AddInt32(&received, 1)
		dest := utils.GetUniqueFilename(filepath.Join(saveDir, filepath.Base(name)))
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			ui.PrintErrorf("save %s: %v", name, err)
			return
		}
		if zipStaging == "" {
			ui.PrintSuccessf("saved %s (%d bytes)", dest, len(data))
		}
	})

	if len(opts.files) > 0 {
		paths, err := resolveFiles(opts.files, opts.zip)
		if err != nil {
			return err
		}
		if infos, err := files.Validate(paths); err == nil {
			ui.RenderFileTable(fileTableItems(infos))
			fmt.Println()
		}
		if _, err := adapter.SendFiles(paths); err != nil {
			return fmt.Errorf("queue files: %w", err)
		}
	}
	if opts.message != "" {
		if err := adapter.SendMessage(opts.message); err != nil {
			ui.PrintWarningf("message not sent: %v", err)
		}
	}

	var runErr error
	if !opts.noTUI && ui.IsInteractive() {
		runErr = ui.NewSession("send-media", adapter).Run()
	} else {
		ui.NewFallbackRenderer(adapter)
		runErr = waitForAllTerminal(adapter)
	}

	if zipStaging != "" && atomic.LoadInt32(&received) > 0 {
		archive := utils.GetUniqueFilename(filepath.Join(outDir, "received.zip"))
		if err := utils.ZipDirectory(zipStaging, archive); err != nil {
			ui.PrintErrorf("zip received files: %v", err)
		} else {
			ui.PrintSuccessf("saved %s", archive)
		}
	}

	renderTransferSummary(adapter)
	return runErr
}

// fileTableItems adapts validated file info into the pre-send summary
// table rendered before files are queued.
func fileTableItems(infos []files.Info) []ui.FileTableItem {
	items := make([]ui.FileTableItem, len(infos))
	for i, info := range infos {
		items[i] = ui.FileTableItem{Index: i + 1, Name: info.Name, Size: info.Size, Type: info.Type}
	}
	return items
}

// renderTransferSummary prints a plain-text summary of every transfer in
// the batch once the session ends, covering both the interactive TUI and
// the non-interactive fallback.
func renderTransferSummary(adapter *viewmodel.Adapter) {
	transfers := adapter.Snapshot().Transfers
	if len(transfers) == 0 {
		return
	}

	var totalSize int64
	var earliestStart, latestEnd time.Time
	completed := 0
	for _, t := range transfers {
		totalSize += t.Size
		if t.StartTime != nil && (earliestStart.IsZero() || t.StartTime.Before(earliestStart)) {
			earliestStart = *t.StartTime
		}
		if t.EndTime != nil && t.EndTime.After(latestEnd) {
			latestEnd = *t.EndTime
		}
		if t.Status == transfer.StatusCompleted {
			completed++
		}
	}

	var duration time.Duration
	if !earliestStart.IsZero() && !latestEnd.IsZero() {
		duration = latestEnd.Sub(earliestStart)
	}
	var speed float64
	if duration > 0 {
		speed = float64(totalSize) / duration.Seconds()
	}

	fmt.Println()
	ui.RenderTransferSummary(ui.TransferSummary{
		Status:    fmt.Sprintf("%d/%d completed", completed, len(transfers)),
		Files:     len(transfers),
		TotalSize: utils.FormatSize(totalSize),
		Duration:  utils.FormatDuration(duration),
		Speed:     utils.FormatSpeed(speed),
	})
}

// waitForAllTerminal polls the snapshot until every transfer reaches a
// terminal status, since the non-interactive fallback has no keypress
// to quit on.
func waitForAllTerminal(adapter *viewmodel.Adapter) error {
	if len(adapter.Snapshot().Transfers) == 0 {
		return nil
	}
	for {
		time.Sleep(200 * time.Millisecond)
		done := true
		for _, t := range adapter.Snapshot().Transfers {
			if t.Status == "queued" || t.Status == "transferring" {
				done = false
				break
			}
		}
		if done {
			return nil
		}
	}
}
