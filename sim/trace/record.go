// Package trace provides operation-trace recording for factory simulations.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// DispatchRecord captures a machine starting an operation.
type DispatchRecord struct {
	Machine uint32
	Tick    int64
}

// CompletionRecord captures a machine finishing an operation and landing its outputs.
type CompletionRecord struct {
	Machine   uint32
	StartTick int64
	Tick      int64
}
