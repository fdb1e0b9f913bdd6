// Package utils provides small generic helpers shared across transformctl.
//
// # Pointers (ptr.go)
//
// Ptr returns a pointer to any value, which is mostly useful for optional wire
// fields and test fixtures:
//
//	shared := utils.Ptr(true)
//
// # Batching (chunk.go)
//
// Chunk splits a slice into bounded batches. The reconciler uses it to keep every
// mutating API call under the remote payload limits:
//
//	for _, batch := range utils.Chunk(items, consts.DefaultBatchSize) {
//		if err := client.Create(ctx, batch); err != nil {
//			return err
//		}
//	}
//
// Batches are views into the original slice and must not be appended to.
package utils
