package extraction

import "github.com/xkilldash9x/eventmodel-cli/api/schemas"

// DefaultBatchSize bounds how many tasks go into one oracle call; large task
// sets are split to respect the oracle's context limits.
const DefaultBatchSize = 20

// SplitBatches partitions tasks into fixed-size batches preserving input
// order. A non-positive size falls back to DefaultBatchSize.
func SplitBatches(tasks []schemas.TaskNode, size int) [][]schemas.TaskNode {
	if size <= 0 {
		size = DefaultBatchSize
	}
	if len(tasks) == 0 {
		return nil
	}

	batches := make([][]schemas.TaskNode, 0, (len(tasks)+size-1)/size)
	for start := 0; start < len(tasks); start += size {
		end := start + size
		if end > len(tasks) {
			end = len(tasks)
		}
		batches = append(batches, tasks[start:end])
	}
	return batches
}
