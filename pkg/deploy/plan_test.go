package deploy_test

import (
	"fmt"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	. "github.com/pseudomuto/transformctl/pkg/deploy"
	"github.com/stretchr/testify/require"
)

func TestPartition(t *testing.T) {
	tests := []struct {
		name     string
		desired  []string
		existing []string
		expected Plan[string]
	}{
		{
			name:     "nothing exists",
			desired:  []string{"a", "b"},
			expected: Plan[string]{Create: []string{"a", "b"}},
		},
		{
			name:     "everything exists",
			desired:  []string{"a", "b"},
			existing: []string{"b", "a"},
			expected: Plan[string]{Update: []string{"a", "b"}},
		},
		{
			name:     "nothing desired",
			existing: []string{"a", "b"},
			expected: Plan[string]{Delete: []string{"a", "b"}},
		},
		{
			name:     "mixed",
			desired:  []string{"c", "b", "d"},
			existing: []string{"a", "b", "e"},
			expected: Plan[string]{
				Delete: []string{"a", "e"},
				Update: []string{"b"},
				Create: []string{"c", "d"},
			},
		},
		{
			name:     "duplicates collapse",
			desired:  []string{"a", "a", "c"},
			existing: []string{"b", "b", "a"},
			expected: Plan[string]{
				Delete: []string{"b"},
				Update: []string{"a"},
				Create: []string{"c"},
			},
		},
		{
			name:     "empty",
			expected: Plan[string]{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, Partition(tt.desired, tt.existing))
		})
	}
}

func TestPartitionCompleteness(t *testing.T) {
	universe := []string{"a", "b", "c", "d", "e"}

	// Every combination of desired and existing subsets of the universe.
	for dMask := 0; dMask < 1<<len(universe); dMask++ {
		for eMask := 0; eMask < 1<<len(universe); eMask++ {
			desired := subset(universe, dMask)
			existing := subset(universe, eMask)

			t.Run(fmt.Sprintf("%v-%v", desired, existing), func(t *testing.T) {
				plan := Partition(desired, existing)

				d := mapset.NewSet(desired...)
				e := mapset.NewSet(existing...)
				del := mapset.NewSet(plan.Delete...)
				upd := mapset.NewSet(plan.Update...)
				cre := mapset.NewSet(plan.Create...)

				require.True(t, del.Equal(e.Difference(d)))
				require.True(t, cre.Equal(d.Difference(e)))
				require.True(t, upd.Equal(e.Intersect(d)))

				require.True(t, del.Intersect(upd).IsEmpty())
				require.True(t, del.Intersect(cre).IsEmpty())
				require.True(t, upd.Intersect(cre).IsEmpty())
				require.True(t, del.Union(upd).Union(cre).Equal(d.Union(e)))
			})
		}
	}
}

func subset(universe []string, mask int) []string {
	var out []string
	for i, v := range universe {
		if mask&(1<<i) != 0 {
			out = append(out, v)
		}
	}

	return out
}
