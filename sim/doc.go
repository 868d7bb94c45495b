// Package sim provides the tick-based production simulation engine of facmaker.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - item.go: Items, roles and machine ports (ItemStream)
//   - series.go: QuantitySeries, the per-item stock ledger with running maximum
//   - simulator.go: The tick loop (completion pass, then dispatch pass)
//   - factory.go: Validated definitions, edits, and GenerateCache
//
// # Architecture
//
// The sim package owns the model and the engine; everything around it lives in
// sub-packages:
//   - sim/description/: JSON/YAML factory descriptions (decode, validate, encode)
//   - sim/report/: Run summaries, spreadsheets, series and metrics exports
//   - sim/store/: SQLite run history
//   - sim/trace/: Dispatch and completion recording
//
// # Semantics
//
// A run covers ticks 0..horizon-1. At each tick, operations finishing at that tick add
// their outputs first; then idle machines, in definition order, start a new operation when
// every internal or output item they consume is in stock. Input-role items are supplied
// externally and never block a machine; their series goes negative to show total demand.
// After the last tick every series is held flat to the horizon, so all series have
// horizon+1 entries.
package sim
