// Package report turns a simulated cache into human and machine readable outputs:
// a printed summary, a JSON summary, an XLSX workbook, a compressed series dump and a
// Prometheus textfile.
package report

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/facmaker/facmaker/sim"
)

// ratePlaces is the number of decimal places kept for per-tick rates and utilization.
const ratePlaces = 4

// ItemSummary describes one item's stock over a run.
type ItemSummary struct {
	ID      sim.ID          `json:"id"`
	Name    string          `json:"name"`
	Role    string          `json:"role"`
	Start   int64           `json:"start"` // configured starting stock
	Final   int64           `json:"final"`
	Max     int64           `json:"max"`
	MaxTick int64           `json:"max_tick"`
	NetRate decimal.Decimal `json:"net_rate_per_tick"` // (final - start) / horizon
}

// MachineSummary describes what one machine did during a run.
type MachineSummary struct {
	ID          sim.ID          `json:"id"`
	Name        string          `json:"name"`
	Dispatches  int64           `json:"dispatches"`
	Completions int64           `json:"completions"`
	BusyTicks   int64           `json:"busy_ticks"`
	Utilization decimal.Decimal `json:"utilization"` // busy ticks / horizon
}

// Summary aggregates a cache for reporting. Items and machines keep definition order.
type Summary struct {
	Horizon  int64            `json:"horizon"`
	Items    []ItemSummary    `json:"items"`
	Machines []MachineSummary `json:"machines"`
	Inputs   []sim.ID         `json:"inputs"`
	Outputs  []sim.ID         `json:"outputs"`
	InFlight int              `json:"in_flight"`
}

// Summarize builds a Summary of c. The factory supplies names and roles; entries of f
// that c has no data for (edited in after c was generated) are skipped.
func Summarize(f *sim.Factory, c *sim.Cache) *Summary {
	s := &Summary{
		Horizon:  c.TicksSimulated(),
		Items:    []ItemSummary{},
		Machines: []MachineSummary{},
		Inputs:   c.Inputs(),
		Outputs:  c.Outputs(),
		InFlight: len(c.InFlight()),
	}
	for _, it := range f.Items() {
		series, ok := c.Series(it.ID)
		if !ok {
			continue
		}
		start := it.StartingQuantity
		final := series.Last()
		s.Items = append(s.Items, ItemSummary{
			ID:      it.ID,
			Name:    it.Name,
			Role:    it.Role.String(),
			Start:   start,
			Final:   final,
			Max:     series.MaxValue(),
			MaxTick: series.MaxTick(),
			NetRate: perTick(final-start, s.Horizon),
		})
	}
	for _, m := range f.Machines() {
		st, ok := c.MachineStats(m.ID)
		if !ok {
			continue
		}
		s.Machines = append(s.Machines, MachineSummary{
			ID:          m.ID,
			Name:        m.Name,
			Dispatches:  st.Dispatches,
			Completions: st.Completions,
			BusyTicks:   st.BusyTicks,
			Utilization: perTick(st.BusyTicks, s.Horizon),
		})
	}
	return s
}

func perTick(amount, horizon int64) decimal.Decimal {
	if horizon == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(amount).DivRound(decimal.NewFromInt(horizon), ratePlaces)
}

// Item returns the summary of item id.
func (s *Summary) Item(id sim.ID) (ItemSummary, bool) {
	for _, it := range s.Items {
		if it.ID == id {
			return it, true
		}
	}
	return ItemSummary{}, false
}

// SaveJSON writes the summary as indented JSON to path.
func (s *Summary) SaveJSON(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling summary: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	return nil
}
