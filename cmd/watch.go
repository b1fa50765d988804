package cmd

import (
	"errors"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Prints the server's theme every time it changes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, err := formatFlag(cmd)
		if err != nil {
			return fail(2, err)
		}

		if !remoteRunning() {
			return fail(6, errors.New("no server process found"))
		}

		return sendViaIPC(cmd, "watch", format)
	},
}

func init() {
	addFormatFlag(watchCmd)
	rootCmd.AddCommand(watchCmd)
}
