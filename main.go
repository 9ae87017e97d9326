package main

import (
	"os"

	"github.com/firefly-engineering/beadm/cmd"
	"github.com/firefly-engineering/beadm/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(errors.GetExitCode(err))
	}
}
