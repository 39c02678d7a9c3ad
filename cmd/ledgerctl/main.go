// Command ledgerctl runs operator tasks against the ledger database:
// rebuilding aggregate counters and draining the task queue.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:          "ledgerctl",
		Short:        "Operator commands for the donation ledger",
		Version:      Version,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(reconcileCmd())
	rootCmd.AddCommand(drainCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
