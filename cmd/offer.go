package cmd

import (
	"fmt"

	"github.com/S2BlueMoon01/send-media/internal/ui"
	"github.com/S2BlueMoon01/send-media/internal/viewmodel"
	"github.com/spf13/cobra"
)

var (
	flagOfferFiles   []string
	flagOfferOutDir  string
	flagOfferNoTUI   bool
	flagOfferMessage string
	flagOfferZip     bool
)

var offerCmd = &cobra.Command{
	Use:   "offer",
	Short: "Start a transfer session as the initiator",
	Long: `Start a transfer session by generating an offer signal. Copy the
printed signal to your peer, have them run "send-media answer", paste
the answer signal they send back when prompted, and the transfer begins.

Examples:
  send-media offer --files photo.jpg,video.mp4
  send-media offer --files report.pdf --out ./received --message "here's the report"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOffer(sessionOptions{
			files:   flagOfferFiles,
			outDir:  flagOfferOutDir,
			noTUI:   flagOfferNoTUI,
			message: flagOfferMessage,
			zip:     flagOfferZip,
		})
	},
}

func runOffer(opts sessionOptions) error {
	adapter := viewmodel.New()

	stop := ui.RunConnectionSpinner("Generating offer signal...")
	if err := adapter.CreateOffer(); err != nil {
		stop()
		return fmt.Errorf("create offer: %w", err)
	}
	signal := waitForLocalSignal(adapter)
	stop()

	fmt.Println()
	ui.RenderSignalBox("offer", signal)
	fmt.Println()

	answer, err := readLine("Paste your peer's answer signal: ")
	if err != nil {
		return fmt.Errorf("read answer signal: %w", err)
	}
	if err := adapter.AcceptAnswer(answer); err != nil {
		return fmt.Errorf("accept answer: %w", err)
	}

	stop = ui.RunWaitingSpinner("Establishing connection...")
	err = waitForConnected(adapter)
	stop()
	if err != nil {
		return err
	}
	ui.PrintSuccess("connected")

	return runSession(adapter, opts)
}

func init() {
	rootCmd.AddCommand(offerCmd)

	offerCmd.Flags().StringSliceVarP(&flagOfferFiles, "files", "f", nil, "Files to send once connected")
	offerCmd.Flags().StringVarP(&flagOfferOutDir, "out", "o", "", "Directory to save received files (default: current directory)")
	offerCmd.Flags().BoolVar(&flagOfferNoTUI, "no-tui", false, "Disable the interactive TUI and use plain progress output")
	offerCmd.Flags().StringVarP(&flagOfferMessage, "message", "m", "", "Send a one-shot chat message once connected")
	offerCmd.Flags().BoolVarP(&flagOfferZip, "zip", "z", false, "Bundle multiple --files into one zip archive before sending")
}
