package cmd

import (
	"github.com/spf13/cobra"
)

var analyzeLocal bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze <source>",
	Short: "Derives a palette from one frame of a video, stream, or image",
	Long: "Derives a palette from one frame of a video, stream, or image. When a server " +
		"is running the request is handed to it, which also updates its theme.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := formatFlag(cmd)
		if err != nil {
			return fail(2, err)
		}

		if !analyzeLocal && remoteRunning() {
			return sendViaIPC(cmd, "analyze", args[0], format)
		}

		a, err := newAnalyzer(nil)
		if err != nil {
			return fail(10, err)
		}

		res, err := a.analyze(cmd.Context(), args[0])
		if err != nil {
			return fail(11, "unable to analyze %s: %w", args[0], err)
		}

		return writeResult(cmd.OutOrStdout(), format, res)
	},
}

func init() {
	addFormatFlag(analyzeCmd)
	analyzeCmd.Flags().BoolVar(&analyzeLocal, "local", false, "analyze in this process even if a server is running")
	rootCmd.AddCommand(analyzeCmd)
}
