// Package testutil provides shared test infrastructure for the simulator.
// It holds the golden scenario dataset and its assertion helpers.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/goldendataset.json.
type GoldenDataset struct {
	Tests []GoldenTestCase `json:"tests"`
}

// GoldenTestCase is one factory description with the expected outcome of simulating it
// for the horizon it declares.
type GoldenTestCase struct {
	Name    string          `json:"name"`
	Factory json.RawMessage `json:"factory"`
	// Series maps item ids to the full quantity series, tick 0 through the horizon.
	Series map[string][]int64 `json:"series"`
	// Dispatches maps machine ids to the number of operations started.
	Dispatches map[string]int64 `json:"dispatches"`
	InFlight   int              `json:"in_flight"`
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	// Navigate from sim/internal/testutil/ to repo root testdata/
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "goldendataset.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}
	if len(dataset.Tests) == 0 {
		t.Fatal("Golden dataset has no tests")
	}
	return &dataset
}

// AssertSeriesEqual compares two quantity series and reports the first diverging tick.
func AssertSeriesEqual(t *testing.T, name string, want, got []int64) {
	t.Helper()
	if len(want) != len(got) {
		t.Errorf("%s: got %d entries, want %d", name, len(got), len(want))
		return
	}
	for tick := range want {
		if want[tick] != got[tick] {
			t.Errorf("%s: tick %d: got %d, want %d (got %v, want %v)", name, tick, got[tick], want[tick], got, want)
			return
		}
	}
}
