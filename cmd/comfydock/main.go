package main

import (
	"os"

	"github.com/comfyops/comfydock/cmd/comfydock/app"
)

func main() {
	cmd := app.NewComfydockCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
