package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"syscall"

	"github.com/mauricelam/pyolin/cli"
	"github.com/mauricelam/pyolin/log"
)

func main() {
	err := cli.Run(context.Background(), os.Exit, os.Args[1:]...)
	if err != nil {
		// A closed downstream pipe is a normal way for output to end.
		if errors.Is(err, syscall.EPIPE) {
			os.Exit(0)
		}

		log.Error(
			"run failed",
			slog.Any("error", err),
		) // slog automatically uses LogValue()
		os.Exit(1)
	}
}
