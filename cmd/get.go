package cmd

import (
	"github.com/BitPonyLLC/framehue/pkg/theme"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Shows the current theme",
	Long:  "Shows the theme held by the running server, or the default theme when none is running.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, err := formatFlag(cmd)
		if err != nil {
			return fail(2, err)
		}

		if remoteRunning() {
			return sendViaIPC(cmd, "get", format)
		}

		return writeSnapshot(cmd.OutOrStdout(), format, theme.NewState().Snapshot())
	},
}

func init() {
	addFormatFlag(getCmd)
	rootCmd.AddCommand(getCmd)
}
