package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/treasurehunt/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     address and port of the treasure server
//	-o string     download directory
//	-t duration   dial timeout (e.g. "3s")
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-o", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.StringVar(&cfg.DownloadDir, "o", cfg.DownloadDir, "download directory")
	fs.DurationVar(&cfg.DialTimeout, "t", cfg.DialTimeout, "dial timeout")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
