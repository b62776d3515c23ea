// srag answers questions over local documents with a retrieval-augmented
// generation pipeline.
//
// Usage:
//
//	srag ask -d notes.md "what changed in the release?"
//	srag stream -d docs/ --rewrite "how do I configure redis?"
//	srag config
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
