package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/facmaker/facmaker/sim/description"
)

var (
	exportFormat  string // json or yaml
	exportOut     string // Output path, stdout when empty
	exportHorizon int64  // Overrides the horizon written, -1 keeps it
)

// exportCmd re-encodes a description in canonical form
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Rewrite a factory description in canonical JSON or YAML",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		format, err := description.ParseFormat(exportFormat)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		var buf bytes.Buffer
		if err := exportFactory(factoryPath, format, exportHorizon, &buf); err != nil {
			logrus.Fatalf("%v", err)
		}
		if exportOut == "" {
			_, _ = os.Stdout.Write(buf.Bytes())
			return
		}
		if err := os.WriteFile(exportOut, buf.Bytes(), 0o644); err != nil {
			logrus.Fatalf("writing %s: %v", exportOut, err)
		}
	},
}

// exportFactory builds the description at path and encodes it back. The id pool keeps
// its loaded position since port ids are drawn afresh on every load.
func exportFactory(path string, format description.Format, horizon int64, out io.Writer) error {
	d, err := description.Load(path)
	if err != nil {
		return err
	}
	built, err := d.Build()
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if horizon >= 0 {
		built.Horizon = horizon
	}
	return description.FromFactory(built.Factory, built.Horizon, built.NextUID, built.Layout).Encode(out, format)
}

func init() {
	exportCmd.Flags().StringVarP(&factoryPath, "factory", "f", "", "Factory description file (JSON or YAML)")
	exportCmd.Flags().StringVar(&exportFormat, "format", string(description.FormatJSON), "Output format (json, yaml)")
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "Output file (default stdout)")
	exportCmd.Flags().Int64Var(&exportHorizon, "horizon", -1, "Horizon to write (-1 keeps the description's)")
	_ = exportCmd.MarkFlagRequired("factory")
}
