// Package cli provides the interactive treasure hunt client.
//
// It dials the server, prints the greeting and runs a REPL over one
// connection:
//
//   - treasure <path>  upload a local file
//   - reveal <name>    download a stored file, resuming a local .part file
//   - map              list stored files
//   - endquest         say goodbye and leave (also: end quest, exit, quit)
//   - help             show the commands
//
// Transfers show a progress bar when stdout is a terminal. The REPL is
// started via App.Run(ctx), which blocks until the quest ends.
package cli
