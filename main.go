package main

import (
	"github.com/S2BlueMoon01/send-media/cmd"
	"github.com/S2BlueMoon01/send-media/internal/logging"
)

func main() {
	logging.Init()
	cmd.Execute()
}
