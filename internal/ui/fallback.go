package ui

import (
	"fmt"
	"os"
	"sync"

	"github.com/S2BlueMoon01/send-media/internal/transfer"
	"github.com/S2BlueMoon01/send-media/internal/viewmodel"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// IsInteractive reports whether stdout looks like a terminal the
// bubbletea TUI (Session) can safely take over. Piped output, CI logs,
// and --no-tui all fall back to FallbackRenderer.
func IsInteractive() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// FallbackRenderer prints plain-text progress lines driven by a
// viewmodel.Adapter, for environments where an interactive TUI doesn't
// make sense. One progressbar.ProgressBar per transfer ID, in the
// style rudransh-shrivastava-peer-it uses the same library for.
type FallbackRenderer struct {
	mu   sync.Mutex
	bars map[string]*progressbar.ProgressBar
}

// NewFallbackRenderer subscribes to adapter's reactive output.
func NewFallbackRenderer(adapter *viewmodel.Adapter) *FallbackRenderer {
	r := &FallbackRenderer{bars: make(map[string]*progressbar.ProgressBar)}
	adapter.OnChange(r.render)
	return r
}

func (r *FallbackRenderer) render(s viewmodel.Snapshot) {
	if s.Error != "" {
		PrintError(s.Error)
	}
	if s.Warning != "" {
		PrintWarning(s.Warning)
	}

	for _, t := range s.Transfers {
		r.renderTransfer(t)
	}
}

func (r *FallbackRenderer) renderTransfer(t transfer.Transfer) {
	r.mu.Lock()
	bar, ok := r.bars[t.ID]
	if !ok {
		label := t.Name
		if t.Direction == transfer.DirectionReceive {
			label = IconReceive + " " + label
		} else {
			label = IconSend + " " + label
		}
		bar = progressbar.DefaultBytes(t.Size, label)
		r.bars[t.ID] = bar
	}
	r.mu.Unlock()

	switch t.Status {
	case transfer.StatusTransferring:
		bar.Set64(int64(t.Progress) * t.Size / 100)
	case transfer.StatusCompleted:
		bar.Finish()
	case transfer.StatusCancelled:
		fmt.Printf("\n%s %s cancelled\n", IconWarning, t.Name)
	case transfer.StatusError:
		fmt.Printf("\n%s %s failed\n", IconError, t.Name)
	}
}
