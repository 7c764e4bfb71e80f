// Package main evaluates a finished training run: it re-reads the run's
// config snapshot, rebuilds the model, restores the latest checkpoint and
// reports metrics on the train, validation and test sets.
package main
