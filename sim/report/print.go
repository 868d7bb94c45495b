package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/facmaker/facmaker/sim"
)

// Print writes a human readable summary to w.
func (s *Summary) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Simulation Summary ===")
	fmt.Fprintf(w, "Ticks simulated      : %s\n", humanize.Comma(s.Horizon))
	fmt.Fprintf(w, "Operations in flight : %d\n", s.InFlight)
	fmt.Fprintf(w, "Input items          : %s\n", s.names(s.Inputs))
	fmt.Fprintf(w, "Output items         : %s\n", s.names(s.Outputs))

	if len(s.Items) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%-20s %-9s %14s %14s %14s %10s %12s\n", "ITEM", "ROLE", "START", "FINAL", "MAX", "AT TICK", "NET/TICK")
		for _, it := range s.Items {
			fmt.Fprintf(w, "%-20s %-9s %14s %14s %14s %10d %12s\n",
				truncate(it.Name, 20), it.Role,
				humanize.Comma(it.Start), humanize.Comma(it.Final), humanize.Comma(it.Max),
				it.MaxTick, it.NetRate.StringFixed(ratePlaces))
		}
	}
	if len(s.Machines) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%-20s %12s %12s %12s %8s\n", "MACHINE", "DISPATCHES", "COMPLETIONS", "BUSY TICKS", "UTIL")
		for _, m := range s.Machines {
			fmt.Fprintf(w, "%-20s %12s %12s %12s %7s%%\n",
				truncate(m.Name, 20),
				humanize.Comma(m.Dispatches), humanize.Comma(m.Completions), humanize.Comma(m.BusyTicks),
				m.Utilization.Shift(2).StringFixed(1))
		}
	}
}

func (s *Summary) names(ids []sim.ID) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		if it, ok := s.Item(id); ok && it.Name != "" {
			parts = append(parts, it.Name)
			continue
		}
		parts = append(parts, fmt.Sprintf("#%d", id))
	}
	return strings.Join(parts, ", ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
