package mnist

import (
	"compress/gzip"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeIDX gzips an IDX file with the given big-endian header words and
// payload bytes into dir.
func writeIDX(t *testing.T, dir, name string, header []uint32, payload []byte) {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	require.NoError(t, binary.Write(gz, binary.BigEndian, header))
	_, err = gz.Write(payload)
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
}

// writeSet writes a tiny image/label file pair of n 2x3 images, where image
// i is filled with the byte value 10*i and labeled i.
func writeSet(t *testing.T, dir, imagesName, labelsName string, n int) {
	t.Helper()
	pixels := make([]byte, n*2*3)
	labels := make([]byte, n)
	for i := 0; i < n; i++ {
		for j := 0; j < 2*3; j++ {
			pixels[i*2*3+j] = byte(10 * i)
		}
		labels[i] = byte(i)
	}
	writeIDX(t, dir, imagesName, []uint32{imagesMagic, uint32(n), 2, 3}, pixels)
	writeIDX(t, dir, labelsName, []uint32{labelsMagic, uint32(n)}, labels)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeSet(t, dir, trainImagesFile, trainLabelsFile, 5)
	writeSet(t, dir, testImagesFile, testLabelsFile, 2)

	train, test, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "train", train.Name)
	assert.Equal(t, 5, train.Len())
	assert.Equal(t, 2, train.Height)
	assert.Equal(t, 3, train.Width)
	assert.Equal(t, 1, train.Channels)
	for i := 0; i < train.Len(); i++ {
		assert.Equal(t, i, train.Labels[i])
		for _, v := range train.Image(i) {
			assert.Equal(t, float32(10*i), v)
		}
	}

	assert.Equal(t, "test", test.Name)
	assert.Equal(t, 2, test.Len())
}

func TestLoadBadMagic(t *testing.T) {
	dir := t.TempDir()
	writeSet(t, dir, trainImagesFile, trainLabelsFile, 2)
	writeSet(t, dir, testImagesFile, testLabelsFile, 1)
	// Clobber the train images file with a labels-style header.
	writeIDX(t, dir, trainImagesFile, []uint32{labelsMagic, 2, 2, 3}, make([]byte, 2*2*3))

	_, _, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "magic")
}

func TestLoadCountMismatch(t *testing.T) {
	dir := t.TempDir()
	writeSet(t, dir, trainImagesFile, trainLabelsFile, 3)
	writeSet(t, dir, testImagesFile, testLabelsFile, 1)
	// Three images but four labels.
	writeIDX(t, dir, trainLabelsFile, []uint32{labelsMagic, 4}, []byte{0, 1, 2, 3})

	_, _, err := Load(dir)
	require.Error(t, err)
}

func TestLoadTruncated(t *testing.T) {
	dir := t.TempDir()
	writeSet(t, dir, testImagesFile, testLabelsFile, 1)
	// Header promises two images, payload holds one.
	writeIDX(t, dir, trainImagesFile, []uint32{imagesMagic, 2, 2, 3}, make([]byte, 2*3))
	writeIDX(t, dir, trainLabelsFile, []uint32{labelsMagic, 2}, []byte{0, 1})

	_, _, err := Load(dir)
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := Load(t.TempDir())
	require.Error(t, err)
}
