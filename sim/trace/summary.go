package trace

// MachineSummary aggregates the trace records of one machine.
type MachineSummary struct {
	Dispatches  int
	Completions int
	FirstStart  int64 // -1 if the machine never dispatched
	MeanGap     float64
}

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalDispatches  int
	TotalCompletions int
	InFlight         int // dispatched but not completed within the horizon
	ActiveMachines   int
	Machines         map[uint32]*MachineSummary
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
// MeanGap is the average number of ticks between consecutive dispatches of a machine.
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		Machines: make(map[uint32]*MachineSummary),
	}
	if st == nil {
		return summary
	}

	machine := func(id uint32) *MachineSummary {
		ms, ok := summary.Machines[id]
		if !ok {
			ms = &MachineSummary{FirstStart: -1}
			summary.Machines[id] = ms
		}
		return ms
	}

	lastStart := make(map[uint32]int64)
	gapTotals := make(map[uint32]int64)
	for _, d := range st.Dispatches {
		ms := machine(d.Machine)
		if ms.Dispatches == 0 {
			ms.FirstStart = d.Tick
		} else {
			gapTotals[d.Machine] += d.Tick - lastStart[d.Machine]
		}
		lastStart[d.Machine] = d.Tick
		ms.Dispatches++
	}
	for _, c := range st.Completions {
		machine(c.Machine).Completions++
	}
	for id, ms := range summary.Machines {
		if ms.Dispatches > 1 {
			ms.MeanGap = float64(gapTotals[id]) / float64(ms.Dispatches-1)
		}
		if ms.Dispatches > 0 {
			summary.ActiveMachines++
		}
	}

	summary.TotalDispatches = len(st.Dispatches)
	summary.TotalCompletions = len(st.Completions)
	summary.InFlight = summary.TotalDispatches - summary.TotalCompletions

	return summary
}
