package cmd

import (
	"errors"

	"github.com/spf13/cobra"
)

var quitCmd = &cobra.Command{
	Use:   "quit",
	Short: "Tells the server process to quit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !remoteRunning() {
			return fail(6, errors.New("no server process found"))
		}

		return sendViaIPC(cmd, "quit")
	},
}

func init() {
	rootCmd.AddCommand(quitCmd)
}
