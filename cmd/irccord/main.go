package main

import (
	"fmt"
	"os"

	"github.com/soyeahso/irccord/internal/cli"
	"github.com/tillberg/autorestart"
)

func main() {
	if os.Getenv("IRCCORD_AUTORESTART") != "" {
		go autorestart.RestartOnChange()
	}

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "irccord:", err)
		os.Exit(1)
	}
}
