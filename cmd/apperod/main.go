package main

import (
	"appero/internal/di"
	"appero/internal/structures"
	"context"
	"flag"
	"fmt"
	"os"
)

func main() {
	flags := &structures.CliFlags{}
	flag.StringVar(&flags.ConfigPath, "config", "config.yaml", "path to the YAML configuration file")
	flag.BoolVar(&flags.DebugMode, "debug", false, "also log to stderr")
	flag.Parse()

	app, err := di.InitApp(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "apperod: %s\n", err)
		os.Exit(1)
	}

	if err = app.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "apperod: %s\n", err)
		os.Exit(1)
	}
}
