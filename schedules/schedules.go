// Package schedules provides the learning-rate schedules selectable on the
// command line.
package schedules

import (
	"math"
	"strings"

	"github.com/pkg/errors"
)

// Func maps a zero-based epoch index to the learning rate for that epoch.
type Func func(epoch int) float64

// Names of the selectable schedules.
var Names = []string{"no_schedule", "cifar10_scheduler", "keras_lr_scheduler"}

// ByName returns the schedule for name, with initial the configured learning
// rate. It returns a nil Func for "no_schedule": the learning rate then stays
// at its configured value and no per-epoch adjustment runs.
func ByName(name string, initial float64) (Func, error) {
	switch name {
	case "no_schedule":
		return nil, nil
	case "cifar10_scheduler":
		return CIFAR10, nil
	case "keras_lr_scheduler":
		return KerasExp(initial), nil
	}
	return nil, errors.Errorf("unknown learning-rate schedule %q (available: %s)", name, strings.Join(Names, ", "))
}

// CIFAR10 is the staircase used for CIFAR-10 ResNets: 1e-3 up to epoch 80,
// then shrinking by 10x steps. Absolute values, the configured learning rate
// is not consulted.
func CIFAR10(epoch int) float64 {
	lr := 1e-3
	switch {
	case epoch > 180:
		lr *= 0.5e-3
	case epoch > 160:
		lr *= 1e-3
	case epoch > 120:
		lr *= 1e-2
	case epoch > 80:
		lr *= 1e-1
	}
	return lr
}

// KerasExp holds the initial rate for the first 10 epochs, then decays it by
// exp(-0.1) every epoch.
func KerasExp(initial float64) Func {
	return func(epoch int) float64 {
		if epoch < 10 {
			return initial
		}
		return initial * math.Exp(-0.1*float64(epoch-9))
	}
}
