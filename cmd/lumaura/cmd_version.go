package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			if jsonOutput(cmd) {
				json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{"version": version})
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "lumaura version %s\n", version)
			}
		},
	}
}
