// Command chtl compiles CHTL sources to HTML.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/ardnew/chtl/cli"
	"github.com/ardnew/chtl/log"
)

func main() {
	err := cli.Run(context.Background(), os.Exit, os.Args[1:]...)
	if err != nil {
		log.Error("run failed", slog.Any("error", err)) // uses LogValue
		os.Exit(1)
	}
}
