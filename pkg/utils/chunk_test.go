package utils_test

import (
	"testing"

	"github.com/pseudomuto/transformctl/pkg/utils"
	"github.com/stretchr/testify/require"
)

func TestChunk(t *testing.T) {
	tests := []struct {
		name     string
		items    int
		size     int
		expected []int
	}{
		{name: "empty input", items: 0, size: 5, expected: nil},
		{name: "smaller than batch", items: 3, size: 5, expected: []int{3}},
		{name: "exact multiple", items: 10, size: 5, expected: []int{5, 5}},
		{name: "remainder batch", items: 12, size: 5, expected: []int{5, 5, 2}},
		{name: "batch of one", items: 3, size: 1, expected: []int{1, 1, 1}},
		{name: "non-positive size", items: 4, size: 0, expected: []int{4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := make([]int, tt.items)
			for i := range items {
				items[i] = i
			}

			chunks := utils.Chunk(items, tt.size)

			var sizes []int
			var flattened []int
			for _, c := range chunks {
				sizes = append(sizes, len(c))
				flattened = append(flattened, c...)
			}

			require.Equal(t, tt.expected, sizes)
			if tt.items > 0 {
				require.Equal(t, items, flattened)
			}
		})
	}
}

func TestChunk_DoesNotAliasOnAppend(t *testing.T) {
	items := []string{"a", "b", "c", "d"}
	chunks := utils.Chunk(items, 2)

	_ = append(chunks[0], "x")
	require.Equal(t, []string{"a", "b", "c", "d"}, items)
}

func TestPtr(t *testing.T) {
	p := utils.Ptr(int64(42))
	require.NotNil(t, p)
	require.Equal(t, int64(42), *p)
}
