// apiserver is the standalone dashboard API server, equivalent to
// `trackerctl serve` for deployments that ship a single-purpose binary.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/Lossfunk/indiaml-tracker-sub001/internal/config"
	"github.com/Lossfunk/indiaml-tracker-sub001/internal/interfaces/cli"
)

func main() {
	cfgPath := flag.String("config", "", "config file (default: environment only)")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *cfgPath != "" {
		cfg, err = config.Load(*cfgPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	if err := cli.RunServe(context.Background(), cfg); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
