package main

import (
	"fmt"
	"os"

	_ "github.com/wowup/wowup-shell/internal/builtins/addonscanner"
	_ "github.com/wowup/wowup-shell/internal/builtins/welcome"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	if err := newRootCommand(Version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
