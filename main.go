// file: main.go
// version: 2.0.0
// guid: 5f1c2a7e-9b3d-4e60-8a1f-2c4d6e8f0a1b

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/jdfalk/mbseries/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
