package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"tableflip.dev/taskmate/pkg/commands"
	"tableflip.dev/taskmate/pkg/printers"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printers.ConfigureColor(os.Stdout)
	if err := commands.New().ExecuteContext(ctx); err != nil {
		stop()
		log.Fatal("error during command execution", "err", err)
	}
}
