/*
main.go - Application entry point

PURPOSE:
  Runs the farm-ledger command line. With no subcommand it prints help;
  `serve` starts the HTTP API.

EXAMPLES:
  # Run the API on the default sqlite file
  ./server serve

  # Run against Redis, JSON logs
  FARMLEDGER_STORAGE_DRIVER=redis FARMLEDGER_LOG_FORMAT=json ./server serve

  # Print the dashboard
  ./server --config farm.yaml summary --format json

  # Convert stored data to the single-document layout
  ./server migrate

SEE ALSO:
  - cli/root.go: Commands and global flags
  - config/config.go: Config file and environment variables
*/
package main

import (
	"fmt"
	"os"

	"github.com/warp/farm-ledger/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
