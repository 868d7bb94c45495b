package sim

import "github.com/sirupsen/logrus"

// Event defines the interface for scheduled simulation events.
// Each event has a Timestamp (in ticks), an Order used to break ties between
// events at the same tick, and an Execute method that advances simulation state.
type Event interface {
	Timestamp() int64
	Order() int
	Execute(*Simulator)
}

// EventQueue implements heap.Interface and orders events by timestamp, then Order.
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap
type EventQueue []Event

func (eq EventQueue) Len() int { return len(eq) }
func (eq EventQueue) Less(i, j int) bool {
	if eq[i].Timestamp() != eq[j].Timestamp() {
		return eq[i].Timestamp() < eq[j].Timestamp()
	}
	return eq[i].Order() < eq[j].Order()
}
func (eq EventQueue) Swap(i, j int) { eq[i], eq[j] = eq[j], eq[i] }

func (eq *EventQueue) Push(x any) {
	*eq = append(*eq, x.(Event))
}

func (eq *EventQueue) Pop() any {
	old := *eq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*eq = old[0 : n-1]
	return item
}

// CompletionEvent fires at the tick a machine's in-flight operation finishes.
type CompletionEvent struct {
	time    int64 // start tick + machine duration
	machine int   // machine position in definition order
}

// Timestamp returns the tick the operation completes.
func (e *CompletionEvent) Timestamp() int64 {
	return e.time
}

// Order returns the machine's definition-order position.
func (e *CompletionEvent) Order() int {
	return e.machine
}

// Execute applies the machine's outputs and frees it for the dispatch pass of the same tick.
func (e *CompletionEvent) Execute(sim *Simulator) {
	logrus.Debugf("<< Completion: machine %d at %d ticks", sim.machines[e.machine].ID, sim.Clock)
	sim.complete(e.machine)
}
