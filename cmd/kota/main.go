// Package main is the entry point for the kota CLI.
package main

import (
	"errors"
	"os"

	"github.com/xdg/kota/internal/clog"
	"github.com/xdg/kota/internal/cmd"
	"github.com/xdg/kota/internal/term"
)

func main() {
	err := cmd.Execute()
	_ = clog.Close()
	if err != nil {
		var exitErr *cmd.ExitCodeError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		term.Error("%v", err)
		os.Exit(1)
	}
}
