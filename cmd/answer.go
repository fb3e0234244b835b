package cmd

import (
	"fmt"

	"github.com/S2BlueMoon01/send-media/internal/ui"
	"github.com/S2BlueMoon01/send-media/internal/viewmodel"
	"github.com/spf13/cobra"
)

var (
	flagAnswerFiles   []string
	flagAnswerOutDir  string
	flagAnswerNoTUI   bool
	flagAnswerMessage string
	flagAnswerZip     bool
)

var answerCmd = &cobra.Command{
	Use:   "answer",
	Short: "Join a transfer session started with \"offer\"",
	Long: `Join a transfer session by pasting the offer signal your peer sent
you. An answer signal is generated in turn — send it back to your peer
to complete the handshake.

Examples:
  send-media answer
  send-media answer --out ./downloads`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnswer(sessionOptions{
			files:   flagAnswerFiles,
			outDir:  flagAnswerOutDir,
			noTUI:   flagAnswerNoTUI,
			message: flagAnswerMessage,
			zip:     flagAnswerZip,
		})
	},
}

func runAnswer(opts sessionOptions) error {
	adapter := viewmodel.New()

	offer, err := readLine("Paste the offer signal from your peer: ")
	if err != nil {
		return fmt.Errorf("read offer signal: %w", err)
	}

	stop := ui.RunConnectionSpinner("Generating answer signal...")
	if err := adapter.AcceptOffer(offer); err != nil {
		stop()
		return fmt.Errorf("accept offer: %w", err)
	}
	signal := waitForLocalSignal(adapter)
	stop()

	fmt.Println()
	ui.RenderSignalBox("answer", signal)
	fmt.Println()

	stop = ui.RunWaitingSpinner("Waiting for connection...")
	err = waitForConnected(adapter)
	stop()
	if err != nil {
		return err
	}
	ui.PrintSuccess("connected")

	return runSession(adapter, opts)
}

func init() {
	rootCmd.AddCommand(answerCmd)

	answerCmd.Flags().StringSliceVarP(&flagAnswerFiles, "files", "f", nil, "Files to send once connected")
	answerCmd.Flags().StringVarP(&flagAnswerOutDir, "out", "o", "", "Directory to save received files (default: current directory)")
	answerCmd.Flags().BoolVar(&flagAnswerNoTUI, "no-tui", false, "Disable the interactive TUI and use plain progress output")
	answerCmd.Flags().StringVarP(&flagAnswerMessage, "message", "m", "", "Send a one-shot chat message once connected")
	answerCmd.Flags().BoolVarP(&flagAnswerZip, "zip", "z", false, "Bundle multiple --files into one zip archive before sending")
}
