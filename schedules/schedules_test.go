package schedules

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	sched, err := ByName("no_schedule", 0.5)
	require.NoError(t, err)
	assert.Nil(t, sched)

	sched, err = ByName("cifar10_scheduler", 0.5)
	require.NoError(t, err)
	require.NotNil(t, sched)
	assert.Equal(t, 1e-3, sched(0))

	sched, err = ByName("keras_lr_scheduler", 0.5)
	require.NoError(t, err)
	require.NotNil(t, sched)
	assert.Equal(t, 0.5, sched(0))

	_, err = ByName("cosine", 0.5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cosine")
}

func TestCIFAR10Staircase(t *testing.T) {
	tests := []struct {
		epoch int
		want  float64
	}{
		{0, 1e-3},
		{80, 1e-3},
		{81, 1e-4},
		{120, 1e-4},
		{121, 1e-5},
		{160, 1e-5},
		{161, 1e-6},
		{180, 1e-6},
		{181, 0.5e-6},
		{200, 0.5e-6},
	}
	for _, tc := range tests {
		assert.InEpsilon(t, tc.want, CIFAR10(tc.epoch), 1e-9, "epoch %d", tc.epoch)
	}
}

func TestKerasExp(t *testing.T) {
	sched := KerasExp(0.1)
	for epoch := 0; epoch < 10; epoch++ {
		assert.Equal(t, 0.1, sched(epoch), "epoch %d", epoch)
	}
	assert.InEpsilon(t, 0.1*math.Exp(-0.1), sched(10), 1e-12)
	assert.InEpsilon(t, 0.1*math.Exp(-1.0), sched(19), 1e-12)
	// successive epochs decay by the same factor
	ratio := sched(15) / sched(14)
	assert.InEpsilon(t, math.Exp(-0.1), ratio, 1e-12)
}
