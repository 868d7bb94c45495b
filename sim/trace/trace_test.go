package trace

import (
	"testing"
)

func TestSimulationTrace_RecordDispatch_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for operations
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelOperations})

	// WHEN a dispatch record is recorded
	st.RecordDispatch(DispatchRecord{Machine: 7, Tick: 12})

	// THEN the trace contains one dispatch record with correct data
	if len(st.Dispatches) != 1 {
		t.Fatalf("expected 1 dispatch, got %d", len(st.Dispatches))
	}
	if st.Dispatches[0].Machine != 7 || st.Dispatches[0].Tick != 12 {
		t.Errorf("unexpected record %+v", st.Dispatches[0])
	}
}

func TestSimulationTrace_RecordCompletion_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for operations
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelOperations})

	// WHEN a completion record is recorded
	st.RecordCompletion(CompletionRecord{Machine: 3, StartTick: 2, Tick: 4})

	// THEN the trace contains one completion record with correct data
	if len(st.Completions) != 1 {
		t.Fatalf("expected 1 completion, got %d", len(st.Completions))
	}
	if st.Completions[0].StartTick != 2 || st.Completions[0].Tick != 4 {
		t.Errorf("unexpected record %+v", st.Completions[0])
	}
}

func TestSimulationTrace_MultipleRecords_PreservesOrder(t *testing.T) {
	// GIVEN a trace
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelOperations})

	// WHEN multiple records are added
	st.RecordDispatch(DispatchRecord{Machine: 1, Tick: 0})
	st.RecordDispatch(DispatchRecord{Machine: 2, Tick: 0})
	st.RecordCompletion(CompletionRecord{Machine: 1, StartTick: 0, Tick: 3})

	// THEN order is preserved
	if len(st.Dispatches) != 2 {
		t.Fatalf("expected 2 dispatches, got %d", len(st.Dispatches))
	}
	if st.Dispatches[0].Machine != 1 || st.Dispatches[1].Machine != 2 {
		t.Error("dispatch order not preserved")
	}
	if len(st.Completions) != 1 || st.Completions[0].Machine != 1 {
		t.Error("completion record mismatch")
	}
}

func TestTraceConfig_Enabled(t *testing.T) {
	if (TraceConfig{}).Enabled() {
		t.Error("empty level must not be enabled")
	}
	if (TraceConfig{Level: TraceLevelNone}).Enabled() {
		t.Error("none must not be enabled")
	}
	if !(TraceConfig{Level: TraceLevelOperations}).Enabled() {
		t.Error("operations must be enabled")
	}
}

func TestIsValidTraceLevel_ValidLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"none", true},
		{"operations", true},
		{"", true}, // empty defaults to none
		{"decisions", false},
		{"foobar", false},
		{"NONE", false}, // case-sensitive
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := IsValidTraceLevel(tt.level); got != tt.valid {
				t.Errorf("IsValidTraceLevel(%q) = %v, want %v", tt.level, got, tt.valid)
			}
		})
	}
}
