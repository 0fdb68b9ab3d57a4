package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
)

// Version will be set at build time via -ldflags
var Version = "v0.1.0"

func main() {
	// A local .env may carry JBUNDLE_* settings; its absence is not an error
	_ = godotenv.Load()

	if err := fang.Execute(
		context.Background(),
		newRootCmd(),
		fang.WithVersion(Version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
