package sim

import "testing"

// port builds an ItemStream; port ids only need to be unique within a test factory.
func port(id, item ID, quantity int64) ItemStream {
	return ItemStream{ID: id, Item: item, Quantity: quantity}
}

// mustFactory builds a factory or fails the test.
func mustFactory(t *testing.T, items []Item, machines []Machine) *Factory {
	t.Helper()
	f, err := NewFactory(items, machines)
	if err != nil {
		t.Fatalf("NewFactory: %v", err)
	}
	return f
}

// pressFactory is one unlimited Ore input feeding a Press that turns 1 Ore into 1 Plate in 2 ticks.
func pressFactory(t *testing.T) *Factory {
	t.Helper()
	return mustFactory(t,
		[]Item{
			{ID: 1, Name: "Ore", Role: RoleInput},
			{ID: 2, Name: "Plate", Role: RoleInternal},
		},
		[]Machine{{
			ID:       3,
			Name:     "Press",
			Inputs:   []ItemStream{port(10, 1, 1)},
			Outputs:  []ItemStream{port(11, 2, 1)},
			Duration: 2,
		}},
	)
}

func seriesValues(t *testing.T, c *Cache, item ID) []int64 {
	t.Helper()
	s, ok := c.Series(item)
	if !ok {
		t.Fatalf("no series for item %d", item)
	}
	return s.Values()
}
