package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/BitPonyLLC/framehue/buildinfo"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var dumpCmd = &cobra.Command{
	Use:    "dump",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, arg := range args {
			err := dump(arg, cmd.OutOrStdout())
			if err != nil {
				return err
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)
}

func dump(key string, writer io.Writer) error {
	val := ""

	switch key {
	case "config":
		return showConfig(writer, viper.AllSettings())
	case "name":
		val = buildinfo.App.Name
	case "desc":
		val = buildinfo.App.Description
	case "full":
		val = buildinfo.App.FullDescription
	case "version":
		val = buildinfo.All
	case "formats":
		val = strings.Join(formats, "\n")
	default:
		return fmt.Errorf("unknown dump key requested: %s", key)
	}

	_, err := fmt.Fprintln(writer, val)
	return err
}

// showConfig writes settings in the same TOML form the config file is read in.
func showConfig(writer io.Writer, settings map[string]any) error {
	err := toml.NewEncoder(writer).Encode(settings)
	if err != nil {
		return fmt.Errorf("unable to encode config: %w", err)
	}
	return nil
}
