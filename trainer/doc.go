// Package trainer provides the high-level orchestration of a training run:
// command-line configuration, run-directory bookkeeping, the epoch CSV log,
// and the assembly of the framework's training loop with checkpointing and
// learning-rate scheduling.
package trainer
