package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:   "articlesum",
		Usage:  "summarize web articles with a generative model",
		Action: serveAction,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP server",
				Action: serveAction,
			},
			{
				Name:      "summarize",
				Usage:     "print the Markdown summary of one article",
				ArgsUsage: "<url>",
				Action:    summarizeAction,
			},
			{
				Name:      "digest",
				Usage:     "fold several articles into one Markdown notes document",
				ArgsUsage: "<url>...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "from",
						Usage: "read article URLs from a file, - for stdin",
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "write the notes to a file instead of stdout",
					},
				},
				Action: digestAction,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
