// Package datasets implements in-memory labeled image sets, their
// preprocessing, and the batching adapter that feeds the training loop.
package datasets

import (
	"math/rand"
	"sync"

	"github.com/pkg/errors"

	"github.com/imgclass/trainer/parallel"
)

// Set is a labeled image set kept fully in memory.
// Images are flat NHWC float32, labels are class indices.
type Set struct {
	Name     string
	Images   []float32
	Labels   []int
	Height   int
	Width    int
	Channels int
}

// New allocates a Set for n images of the given dimensions.
func New(name string, n, height, width, channels int) *Set {
	return &Set{
		Name:     name,
		Images:   make([]float32, n*height*width*channels),
		Labels:   make([]int, n),
		Height:   height,
		Width:    width,
		Channels: channels,
	}
}

// Len reports the number of images.
func (s *Set) Len() int { return len(s.Labels) }

// ImageSize reports the number of float32 values per image.
func (s *Set) ImageSize() int { return s.Height * s.Width * s.Channels }

// Image returns the i-th image as a subslice of the backing array.
func (s *Set) Image(i int) []float32 {
	size := s.ImageSize()
	return s.Images[i*size : (i+1)*size]
}

// Shuffle reorders images and labels in place using rng.
func (s *Set) Shuffle(rng *rand.Rand) {
	scratch := make([]float32, s.ImageSize())
	rng.Shuffle(s.Len(), func(i, j int) {
		s.Labels[i], s.Labels[j] = s.Labels[j], s.Labels[i]
		a, b := s.Image(i), s.Image(j)
		copy(scratch, a)
		copy(a, b)
		copy(b, scratch)
	})
}

// TrainValSplit shuffles s in place with the seed and splits off the last
// fraction of it as a validation set. The returned sets share s's backing
// arrays. A zero fraction returns s itself and a nil validation set.
func (s *Set) TrainValSplit(fraction float64, seed int64) (train, val *Set, err error) {
	if fraction == 0 {
		return s, nil, nil
	}
	if fraction < 0 || fraction >= 1 {
		return nil, nil, errors.Errorf("validation fraction %g outside [0, 1)", fraction)
	}
	s.Shuffle(rand.New(rand.NewSource(seed)))
	nVal := int(float64(s.Len()) * fraction)
	nTrain := s.Len() - nVal
	size := s.ImageSize()
	train = &Set{
		Name:     s.Name,
		Images:   s.Images[:nTrain*size],
		Labels:   s.Labels[:nTrain],
		Height:   s.Height,
		Width:    s.Width,
		Channels: s.Channels,
	}
	val = &Set{
		Name:     s.Name + "-val",
		Images:   s.Images[nTrain*size:],
		Labels:   s.Labels[nTrain:],
		Height:   s.Height,
		Width:    s.Width,
		Channels: s.Channels,
	}
	return train, val, nil
}

// Normalize scales all pixel values by 1/255.
func (s *Set) Normalize() {
	parallel.ForEachChunk(len(s.Images), 0, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			s.Images[i] /= 255
		}
	})
}

// PixelMean computes the per-pixel mean image over the set.
func (s *Set) PixelMean() []float32 {
	size := s.ImageSize()
	sum := make([]float64, size)
	var mu sync.Mutex
	parallel.ForEachChunk(s.Len(), 0, func(lo, hi int) {
		local := make([]float64, size)
		for i := lo; i < hi; i++ {
			for j, v := range s.Image(i) {
				local[j] += float64(v)
			}
		}
		mu.Lock()
		for j, v := range local {
			sum[j] += v
		}
		mu.Unlock()
	})
	mean := make([]float32, size)
	n := float64(s.Len())
	for j, v := range sum {
		mean[j] = float32(v / n)
	}
	return mean
}

// SubtractPixels subtracts a per-pixel image, typically the training set's
// PixelMean, from every image.
func (s *Set) SubtractPixels(mean []float32) error {
	size := s.ImageSize()
	if len(mean) != size {
		return errors.Errorf("pixel mean has %d values, images have %d", len(mean), size)
	}
	parallel.ForEachChunk(s.Len(), 0, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			img := s.Image(i)
			for j := range img {
				img[j] -= mean[j]
			}
		}
	})
	return nil
}
