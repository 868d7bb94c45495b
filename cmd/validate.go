package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/facmaker/facmaker/sim"
	"github.com/facmaker/facmaker/sim/description"
)

// validateCmd checks a description without simulating it
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a factory description against the schema and its references",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := validateFactory(factoryPath, os.Stdout); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

func validateFactory(path string, out io.Writer) error {
	d, err := description.Load(path)
	if err != nil {
		return err
	}
	built, err := d.Build()
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	machines := built.Factory.Machines()
	topology := sim.BuildTopology(machines)
	if err := topology.Validate(machines); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	ports := 0
	for _, m := range machines {
		ports += len(m.Inputs) + len(m.Outputs)
	}
	fmt.Fprintf(out, "%s: OK (%d items, %d machines, %d ports, %d linked items, horizon %d, next uid %d)\n",
		path, len(built.Factory.Items()), len(machines), ports, topology.Len(), built.Horizon, built.Pool.Next())
	return nil
}

func init() {
	validateCmd.Flags().StringVarP(&factoryPath, "factory", "f", "", "Factory description file (JSON or YAML)")
	_ = validateCmd.MarkFlagRequired("factory")
}
