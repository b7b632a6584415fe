// Command promptlab is the entry point for the promptlab LLM request CLI.
// It provides provider-agnostic chat calls (via Cobra) with token
// budgeting, retry/backoff, and a persisted run log.
package main

import (
	"fmt"
	"os"

	"github.com/piyumiimasha/promptlab-go/cmd/promptlab/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
