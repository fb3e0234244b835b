package version

// Version is the current version of the send-media CLI.
// This value can be overridden at build time using:
//   go build -ldflags="-X 'github.com/S2BlueMoon01/send-media/internal/version.Version=v1.0.0'"
var Version = "dev"
