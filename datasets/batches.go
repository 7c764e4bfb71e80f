package datasets

import (
	"io"
	"math/rand"
	"sync"

	"github.com/gomlx/gomlx/types/tensor"
)

// Batches iterates over a Set in fixed-size batches, implementing the
// training loop's dataset interface. Yield returns io.EOF at the end of an
// epoch and Reset rewinds, reshuffling first when the Batches was built with
// shuffling. Yield is safe for concurrent use.
type Batches struct {
	set       *Set
	batchSize int
	shuffle   bool
	rng       *rand.Rand

	mu   sync.Mutex
	next int
}

// NewBatches returns a batch iterator over set. When shuffle is set, the
// set is reordered from the seed before the first epoch and on every Reset.
func NewBatches(set *Set, batchSize int, shuffle bool, seed int64) *Batches {
	b := &Batches{
		set:       set,
		batchSize: batchSize,
		shuffle:   shuffle,
		rng:       rand.New(rand.NewSource(seed)),
	}
	if shuffle {
		set.Shuffle(b.rng)
	}
	return b
}

// Name identifies the dataset in progress bars and evaluation reports.
func (b *Batches) Name() string { return b.set.Name }

// NumBatches reports the number of full batches per epoch. A trailing
// partial batch is dropped so every step sees the same batch shape.
func (b *Batches) NumBatches() int { return b.set.Len() / b.batchSize }

// Yield returns the next batch as one NHWC float32 image tensor and one
// [batch, 1] label tensor, or io.EOF at the end of the epoch.
func (b *Batches) Yield() (spec any, inputs []tensor.Tensor, labels []tensor.Tensor, err error) {
	b.mu.Lock()
	lo := b.next
	if lo+b.batchSize > b.set.Len() {
		b.mu.Unlock()
		return nil, nil, nil, io.EOF
	}
	b.next += b.batchSize
	b.mu.Unlock()

	size := b.set.ImageSize()
	images := tensor.FromFlatDataAndDimensions(
		b.set.Images[lo*size:(lo+b.batchSize)*size],
		b.batchSize, b.set.Height, b.set.Width, b.set.Channels)
	classes := tensor.FromFlatDataAndDimensions(
		b.set.Labels[lo:lo+b.batchSize], b.batchSize, 1)
	return b.set, []tensor.Tensor{images}, []tensor.Tensor{classes}, nil
}

// Reset rewinds the iterator for the next epoch.
func (b *Batches) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.shuffle {
		b.set.Shuffle(b.rng)
	}
	b.next = 0
}
