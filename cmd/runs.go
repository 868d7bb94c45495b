package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/facmaker/facmaker/sim"
	"github.com/facmaker/facmaker/sim/store"
)

var (
	runsDB     string // Run history database, overrides store.path
	runsItem   uint32 // Item whose series to print
	seriesTail int    // Print only the last n values, 0 prints all
)

// runsCmd inspects the run history written by "run --db"
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect recorded simulation runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, most recent first",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		withStore(cmd, func(ctx context.Context, st *store.Store) error {
			return listRuns(ctx, st, os.Stdout)
		})
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print the summary of a run, or one item series with --item",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := uuid.Parse(args[0])
		if err != nil {
			logrus.Fatalf("invalid run id %q: %v", args[0], err)
		}
		withStore(cmd, func(ctx context.Context, st *store.Store) error {
			if runsItem != 0 {
				return showSeries(ctx, st, id, sim.ID(runsItem), seriesTail, os.Stdout)
			}
			return showRun(ctx, st, id, os.Stdout)
		})
	},
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a recorded run",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := uuid.Parse(args[0])
		if err != nil {
			logrus.Fatalf("invalid run id %q: %v", args[0], err)
		}
		withStore(cmd, func(ctx context.Context, st *store.Store) error {
			return st.DeleteRun(ctx, id)
		})
	},
}

func withStore(cmd *cobra.Command, fn func(context.Context, *store.Store) error) {
	path := cfg.Store.Path
	if cmd.Flags().Changed("db") {
		path = runsDB
	}
	if path == "" {
		logrus.Fatalf("no run database configured; pass --db or set store.path")
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(ctx, path)
	if err != nil {
		logrus.Fatalf("%v", err)
	}
	defer st.Close()
	if err := fn(ctx, st); err != nil {
		logrus.Fatalf("%v", err)
	}
}

func listRuns(ctx context.Context, st *store.Store, out io.Writer) error {
	runs, err := st.ListRuns(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs recorded")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tHORIZON\tITEMS\tMACHINES\tIN FLIGHT\tSOURCE")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			r.ID, humanize.Time(r.CreatedAt), humanize.Comma(r.Horizon), r.Items, r.Machines, r.InFlight, r.Source)
	}
	return tw.Flush()
}

func showRun(ctx context.Context, st *store.Store, id uuid.UUID, out io.Writer) error {
	run, err := st.Run(ctx, id)
	if err != nil {
		return err
	}
	sum, err := st.Summary(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Run %s of %s, recorded %s\n\n", run.ID, run.Source, humanize.Time(run.CreatedAt))
	sum.Print(out)
	return nil
}

func showSeries(ctx context.Context, st *store.Store, id uuid.UUID, item sim.ID, tail int, out io.Writer) error {
	rec, err := st.Series(ctx, id, item)
	if err != nil {
		return err
	}
	values := rec.Values
	offset := 0
	if tail > 0 && tail < len(values) {
		offset = len(values) - tail
		values = values[offset:]
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatInt(v, 10)
	}
	fmt.Fprintf(out, "%s (%s, item %d) from tick %d:\n%s\n", rec.Name, rec.Role, rec.Item, offset, strings.Join(parts, " "))
	return nil
}

func init() {
	runsCmd.PersistentFlags().StringVar(&runsDB, "db", "", "Run history database (default store.path)")
	runsShowCmd.Flags().Uint32Var(&runsItem, "item", 0, "Print the quantity series of this item id")
	runsShowCmd.Flags().IntVar(&seriesTail, "tail", 0, "With --item, print only the last n values")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsDeleteCmd)
}
