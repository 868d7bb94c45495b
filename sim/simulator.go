// sim/simulator.go
package sim

import (
	"container/heap"
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/facmaker/facmaker/sim/trace"
)

// ProcessingTask is an in-flight machine operation. A machine runs at most one at a time.
type ProcessingTask struct {
	Machine   ID
	StartTick int64
}

// MachineStats counts what one machine did during a run.
type MachineStats struct {
	Dispatches  int64 // operations started
	Completions int64 // operations whose outputs landed before the horizon
	BusyTicks   int64 // ticks spent inside an operation, clipped to the horizon
}

// portPlan is a machine port resolved to its item's ledger.
type portPlan struct {
	item     ID
	series   *QuantitySeries
	quantity int64
	exempt   bool // input-role item, never gates dispatch
}

// machinePlan holds the resolved ports of one machine. Input ports that share an item
// are merged so readiness compares the total requirement against the stock.
type machinePlan struct {
	inputs  []portPlan
	outputs []portPlan
}

// Simulator steps a factory through a fixed tick horizon.
//
// Each tick runs a completion pass (operations due at this tick add their outputs) and
// then a dispatch pass (idle machines, in definition order, start an operation if their
// inputs are in stock). Resource contention is therefore first-come-first-served by
// machine definition order.
type Simulator struct {
	Clock   int64
	Horizon int64
	// EventQueue holds one CompletionEvent per busy machine
	EventQueue EventQueue
	// Series is the stock ledger of every item
	Series map[ID]*QuantitySeries
	// Trace receives dispatch and completion records when non-nil
	Trace *trace.SimulationTrace

	items    []Item
	machines []Machine
	plans    []machinePlan
	tasks    []ProcessingTask // indexed like machines
	busy     []bool
	events   []CompletionEvent // one reusable completion per machine
	stats    []MachineStats
	next     int64 // first tick not yet processed
	finished bool
}

// NewSimulator prepares a run of items and machines over horizon ticks.
// Every port must reference one of items; the factory validates this before calling.
func NewSimulator(items []Item, machines []Machine, horizon int64) *Simulator {
	if horizon < 0 {
		panic(fmt.Sprintf("sim: negative horizon %d", horizon))
	}
	s := &Simulator{
		Horizon:    horizon,
		EventQueue: make(EventQueue, 0, len(machines)),
		Series:     make(map[ID]*QuantitySeries, len(items)),
		items:      items,
		machines:   machines,
		plans:      make([]machinePlan, len(machines)),
		tasks:      make([]ProcessingTask, len(machines)),
		busy:       make([]bool, len(machines)),
		events:     make([]CompletionEvent, len(machines)),
		stats:      make([]MachineStats, len(machines)),
	}

	roles := make(map[ID]Role, len(items))
	capacity := int(horizon) + 1
	for _, it := range items {
		s.Series[it.ID] = NewQuantitySeries(it.StartingQuantity, capacity)
		roles[it.ID] = it.Role
	}

	for i, m := range machines {
		s.plans[i] = machinePlan{
			inputs:  s.resolvePorts(m, m.Inputs, roles, true),
			outputs: s.resolvePorts(m, m.Outputs, roles, false),
		}
	}
	return s
}

func (sim *Simulator) resolvePorts(m Machine, ports []ItemStream, roles map[ID]Role, merge bool) []portPlan {
	plans := make([]portPlan, 0, len(ports))
	for _, p := range ports {
		series, ok := sim.Series[p.Item]
		if !ok {
			panic(fmt.Sprintf("sim: machine %d port %d references unknown item %d", m.ID, p.ID, p.Item))
		}
		if merge {
			merged := false
			for j := range plans {
				if plans[j].item == p.Item {
					plans[j].quantity += p.Quantity
					merged = true
					break
				}
			}
			if merged {
				continue
			}
		}
		plans = append(plans, portPlan{
			item:     p.Item,
			series:   series,
			quantity: p.Quantity,
			exempt:   roles[p.Item] == RoleInput,
		})
	}
	return plans
}

// Schedule pushes an event into the simulator's EventQueue.
func (sim *Simulator) Schedule(ev Event) {
	heap.Push(&sim.EventQueue, ev)
}

// Run simulates the whole horizon.
func (sim *Simulator) Run() {
	if err := sim.RunContext(context.Background()); err != nil {
		panic(err) // background context is never cancelled
	}
}

// RunContext simulates the whole horizon, checking ctx between ticks.
// A cancelled run returns ctx's error with the series simulated up to the last full tick;
// calling RunContext again resumes from there.
func (sim *Simulator) RunContext(ctx context.Context) error {
	if sim.finished {
		return nil
	}
	for ; sim.next < sim.Horizon; sim.next++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		sim.Clock = sim.next
		sim.completionPass()
		sim.dispatchPass()
	}
	sim.Clock = sim.Horizon

	for _, it := range sim.items {
		sim.Series[it.ID].ExtrapolateUntil(sim.Horizon)
	}
	for i, task := range sim.tasks {
		if sim.busy[i] {
			sim.stats[i].BusyTicks += sim.Horizon - task.StartTick
		}
	}
	sim.finished = true
	logrus.Infof("[tick %07d] Simulation ended, %d operations in flight", sim.Clock, sim.EventQueue.Len())
	return nil
}

// completionPass executes every completion due at or before the current tick.
func (sim *Simulator) completionPass() {
	for sim.EventQueue.Len() > 0 && sim.EventQueue[0].Timestamp() <= sim.Clock {
		ev := heap.Pop(&sim.EventQueue).(Event)
		ev.Execute(sim)
	}
}

func (sim *Simulator) complete(i int) {
	if !sim.busy[i] {
		panic(fmt.Sprintf("sim: completion for idle machine %d", sim.machines[i].ID))
	}
	task := sim.tasks[i]
	for _, out := range sim.plans[i].outputs {
		out.series.ChangeValue(sim.Clock, out.quantity)
	}
	sim.stats[i].Completions++
	sim.stats[i].BusyTicks += sim.Clock - task.StartTick
	sim.busy[i] = false

	if sim.Trace != nil {
		sim.Trace.RecordCompletion(trace.CompletionRecord{
			Machine:   uint32(task.Machine),
			StartTick: task.StartTick,
			Tick:      sim.Clock,
		})
	}
}

// dispatchPass starts an operation on every idle machine whose inputs are available.
func (sim *Simulator) dispatchPass() {
	for i := range sim.machines {
		if sim.busy[i] || !sim.ready(i) {
			continue
		}
		sim.dispatch(i)
	}
}

func (sim *Simulator) ready(i int) bool {
	for _, in := range sim.plans[i].inputs {
		if in.exempt {
			continue
		}
		if in.series.ExtrapolateUntil(sim.Clock) < in.quantity {
			return false
		}
	}
	return true
}

func (sim *Simulator) dispatch(i int) {
	m := &sim.machines[i]
	for _, in := range sim.plans[i].inputs {
		in.series.ChangeValue(sim.Clock, -in.quantity)
	}
	sim.tasks[i] = ProcessingTask{Machine: m.ID, StartTick: sim.Clock}
	sim.busy[i] = true
	sim.stats[i].Dispatches++
	sim.events[i] = CompletionEvent{time: sim.Clock + m.Duration, machine: i}
	sim.Schedule(&sim.events[i])

	logrus.Debugf(">> Dispatch: machine %d (%s) at %d ticks", m.ID, m.Name, sim.Clock)
	if sim.Trace != nil {
		sim.Trace.RecordDispatch(trace.DispatchRecord{
			Machine: uint32(m.ID),
			Tick:    sim.Clock,
		})
	}
}

// ActiveTasks returns the operations currently in flight, in machine definition order.
func (sim *Simulator) ActiveTasks() []ProcessingTask {
	var active []ProcessingTask
	for i, t := range sim.tasks {
		if sim.busy[i] {
			active = append(active, t)
		}
	}
	return active
}

// Stats returns per-machine counters keyed by machine id.
func (sim *Simulator) Stats() map[ID]MachineStats {
	out := make(map[ID]MachineStats, len(sim.machines))
	for i, m := range sim.machines {
		out[m.ID] = sim.stats[i]
	}
	return out
}
