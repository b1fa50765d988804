package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/BitPonyLLC/framehue/pkg/palette"
	"github.com/BitPonyLLC/framehue/pkg/sampler"
	"github.com/BitPonyLLC/framehue/pkg/theme"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

const (
	formatText = "text"
	formatCSS  = "css"
	formatJSON = "json"
	formatYAML = "yaml"
	formatTOML = "toml"
)

var formats = []string{formatText, formatCSS, formatJSON, formatYAML, formatTOML}

func addFormatFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", formatText, "output format: "+strings.Join(formats, ", "))
}

func formatFlag(cmd *cobra.Command) (string, error) {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return "", err
	}
	return format, checkFormat(format)
}

func checkFormat(format string) error {
	for _, f := range formats {
		if f == format {
			return nil
		}
	}
	return fmt.Errorf("unknown format %q: use one of %s", format, strings.Join(formats, ", "))
}

func writeResult(w io.Writer, format string, res *sampler.Result) error {
	switch format {
	case formatText:
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "Source\t%s\n", res.Source)
		fmt.Fprintf(tw, "Position\t%s\n", res.Position)
		for i, entry := range res.Ranked {
			label := ""
			if i == 0 {
				label = "Ranked"
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\n", label, entry.Color.Hex(), entry.Count)
		}
		writePaletteRows(tw, res.Palette)
		return tw.Flush()
	case formatCSS:
		_, err := io.WriteString(w, theme.For(res.Palette).CSS())
		return err
	default:
		return encode(w, format, res)
	}
}

func writeSnapshot(w io.Writer, format string, snap theme.Snapshot) error {
	switch format {
	case formatText:
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		writePaletteRows(tw, snap.Palette)
		for _, key := range theme.Keys {
			fmt.Fprintf(tw, "%s\t%s\n", key, snap.Vars[key])
		}
		return tw.Flush()
	case formatCSS:
		_, err := io.WriteString(w, snap.CSS())
		return err
	default:
		return encode(w, format, snap)
	}
}

func writePaletteRows(w io.Writer, p palette.Palette) {
	// a Caser keeps state between calls, so each writer gets its own
	titler := cases.Title(language.English)
	for i, hex := range p.Hexes() {
		fmt.Fprintf(w, "%s\t%s\n", titler.String(palette.SlotNames[i]), hex)
	}
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		return json.NewEncoder(w).Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		err := enc.Encode(v)
		if err != nil {
			return err
		}
		return enc.Close()
	case formatTOML:
		return toml.NewEncoder(w).Encode(v)
	}

	return checkFormat(format)
}
