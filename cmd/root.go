package cmd

import (
	"os"
	"os/signal"

	"github.com/S2BlueMoon01/send-media/internal/ui"
	"github.com/S2BlueMoon01/send-media/internal/version"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "send-media",
	Short:   "Peer-to-peer file and chat transfer over a hand-carried WebRTC signal",
	Long: `send-media moves files and chat messages directly between two
peers over a WebRTC data channel. There is no signaling server: one side
runs "offer" and copies out a signal string, the other runs "answer"
with that string and copies back its own, and the first side feeds that
back in to complete the handshake.`,
	Version: version.Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		os.Exit(0)
	}()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}
