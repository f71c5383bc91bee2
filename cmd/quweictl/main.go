// quweictl inspects the quwei code table and the local commit history.
//
//	quweictl lookup 160       show the ten candidates of page 160
//	quweictl code 啊阿        show the sub-codes of characters
//	quweictl table 160 169    dump a range of pages
//	quweictl history          most recent commits
//	quweictl top              most used candidates
//	quweictl config           print the effective configuration
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cobra.EnableCommandSorting = false

	root := &cobra.Command{
		Use:           "quweictl",
		Short:         "Inspect the quwei input method",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	root.PersistentFlags().String("config", "", "configuration file (default: platform config dir)")

	root.AddCommand(
		newLookupCmd(),
		newCodeCmd(),
		newTableCmd(),
		newHistoryCmd(),
		newTopCmd(),
		newStatsCmd(),
		newConfigCmd(),
		newPunctuationCmd(),
	)
	return root
}
