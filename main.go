// tcpchat - a line-oriented TCP chat server for the operator's console.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tcpchat/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "tcpchat: %v\n", err)
		os.Exit(1)
	}
}
