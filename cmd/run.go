package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/facmaker/facmaker/sim"
	"github.com/facmaker/facmaker/sim/description"
	"github.com/facmaker/facmaker/sim/report"
	"github.com/facmaker/facmaker/sim/store"
	"github.com/facmaker/facmaker/sim/trace"
)

var (
	// CLI flags for the run command
	factoryPath string // Factory description (JSON or YAML)
	horizonFlag int64  // Ticks to simulate, -1 uses the description
	traceLevel  string // Operation trace level
	summaryOut  string // Summary JSON output path
	xlsxOut     string // Workbook output path
	seriesOut   string // Compressed series output path
	metricsOut  string // Prometheus textfile output path
	dbPath      string // Run history database
)

// runOptions gathers everything runSimulation needs once flags and config are merged.
type runOptions struct {
	Path       string
	Horizon    int64 // -1 uses the description's horizon
	Trace      string
	SummaryOut string
	XLSXOut    string
	SeriesOut  string
	MetricsOut string
	DBPath     string
}

// runCmd simulates a factory description and reports the result
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate a factory description",
	Run: func(cmd *cobra.Command, args []string) {
		opts := runOptions{
			Path:       factoryPath,
			Horizon:    cfg.Run.Horizon,
			Trace:      cfg.Run.Trace,
			SummaryOut: summaryOut,
			XLSXOut:    xlsxOut,
			SeriesOut:  seriesOut,
			MetricsOut: metricsOut,
			DBPath:     cfg.Store.Path,
		}
		if cmd.Flags().Changed("horizon") {
			opts.Horizon = horizonFlag
		}
		if cmd.Flags().Changed("trace") {
			opts.Trace = traceLevel
		}
		if cmd.Flags().Changed("db") {
			opts.DBPath = dbPath
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		start := time.Now()
		if _, err := runSimulation(ctx, opts, os.Stdout); err != nil {
			logrus.Fatalf("simulation failed; %v", err)
		}
		logrus.Infof("Simulation complete in %s.", time.Since(start).Round(time.Millisecond))
	},
}

// runSimulation loads, simulates and reports one factory. The summary is printed to out;
// the optional outputs are written to the paths set in opts.
func runSimulation(ctx context.Context, opts runOptions, out io.Writer) (*report.Summary, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("no factory description given")
	}
	if !trace.IsValidTraceLevel(opts.Trace) {
		return nil, fmt.Errorf("invalid trace level %q", opts.Trace)
	}
	if opts.Horizon < -1 {
		return nil, fmt.Errorf("horizon %d: %w", opts.Horizon, sim.ErrInvalidHorizon)
	}

	d, err := description.Load(opts.Path)
	if err != nil {
		return nil, err
	}
	built, err := d.Build()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opts.Path, err)
	}
	horizon := built.Horizon
	if opts.Horizon >= 0 {
		horizon = opts.Horizon
	}

	logrus.Infof("simulating %s for %d ticks", opts.Path, horizon)
	session, err := sim.NewSession(ctx, built.Factory, sim.CacheConfig{
		Horizon: horizon,
		Trace:   trace.TraceConfig{Level: trace.TraceLevel(opts.Trace)},
	})
	if err != nil {
		return nil, err
	}
	c := session.Cache()

	sum := report.Summarize(built.Factory, c)
	sum.Print(out)
	if tr := c.Trace(); tr != nil {
		printTraceDigest(out, sum, trace.Summarize(tr))
	}

	if err := writeOutputs(opts, sum, c); err != nil {
		return nil, err
	}

	if opts.DBPath != "" {
		st, err := store.Open(ctx, opts.DBPath)
		if err != nil {
			return nil, err
		}
		defer st.Close()
		run, err := st.SaveRun(ctx, opts.Path, sum, report.SeriesRecords(sum, c))
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(out, "\nStored run %s\n", run.ID)
	}
	return sum, nil
}

func writeOutputs(opts runOptions, sum *report.Summary, c *sim.Cache) error {
	if opts.SummaryOut != "" {
		if err := sum.SaveJSON(opts.SummaryOut); err != nil {
			return err
		}
	}
	if opts.XLSXOut != "" {
		f, err := os.Create(opts.XLSXOut)
		if err != nil {
			return fmt.Errorf("creating workbook: %w", err)
		}
		if err := report.WriteXLSX(f, sum, c); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	if opts.SeriesOut != "" {
		if err := report.SaveSeries(opts.SeriesOut, report.SeriesRecords(sum, c)); err != nil {
			return err
		}
	}
	if opts.MetricsOut != "" {
		m := report.NewMetrics()
		m.Observe(sum)
		if err := m.WriteTextfile(opts.MetricsOut); err != nil {
			return err
		}
	}
	return nil
}

func printTraceDigest(w io.Writer, sum *report.Summary, ts *trace.TraceSummary) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Operation Trace ===")
	fmt.Fprintf(w, "Dispatches           : %d\n", ts.TotalDispatches)
	fmt.Fprintf(w, "Completions          : %d\n", ts.TotalCompletions)
	fmt.Fprintf(w, "Active machines      : %d\n", ts.ActiveMachines)
	for _, m := range sum.Machines {
		ms, ok := ts.Machines[uint32(m.ID)]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "  %-20s first start %d, mean gap %.2f ticks\n", truncate(m.Name, 20), ms.FirstStart, ms.MeanGap)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func init() {
	runCmd.Flags().StringVarP(&factoryPath, "factory", "f", "", "Factory description file (JSON or YAML)")
	runCmd.Flags().Int64Var(&horizonFlag, "horizon", -1, "Ticks to simulate (-1 uses the description's simulate value)")
	runCmd.Flags().StringVar(&traceLevel, "trace", string(trace.TraceLevelNone), "Operation trace level (none, operations)")
	runCmd.Flags().StringVar(&summaryOut, "summary-out", "", "Write the summary as JSON to this file")
	runCmd.Flags().StringVar(&xlsxOut, "xlsx", "", "Write a spreadsheet report to this file")
	runCmd.Flags().StringVar(&seriesOut, "series-out", "", "Write zstd-compressed quantity series to this file")
	runCmd.Flags().StringVar(&metricsOut, "metrics-out", "", "Write Prometheus metrics in textfile format to this file")
	runCmd.Flags().StringVar(&dbPath, "db", "", "Record the run in this SQLite database")
	_ = runCmd.MarkFlagRequired("factory")
}
