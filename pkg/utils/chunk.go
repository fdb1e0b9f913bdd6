package utils

// Chunk splits items into consecutive slices of at most size elements. The
// returned slices share the backing array of items. A non-positive size yields
// a single chunk holding every item, and an empty input yields no chunks.
//
// Examples:
//   - Chunk([1..12], 5) -> [[1..5], [6..10], [11, 12]]
//   - Chunk([], 5) -> []
func Chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}

	if size <= 0 {
		return [][]T{items}
	}

	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end:end])
	}

	return chunks
}
