// Package mnist downloads and decodes the MNIST handwritten-digits dataset.
package mnist

import (
	"compress/gzip"
	"context"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/imgclass/trainer/datasets"
	"github.com/imgclass/trainer/parallel"
)

// Image dimensions of the raw files.
const (
	Height   = 28
	Width    = 28
	Channels = 1
)

const baseURL = "https://storage.googleapis.com/cvdf-datasets/mnist/"

const (
	trainImagesFile = "train-images-idx3-ubyte.gz"
	trainLabelsFile = "train-labels-idx1-ubyte.gz"
	testImagesFile  = "t10k-images-idx3-ubyte.gz"
	testLabelsFile  = "t10k-labels-idx1-ubyte.gz"

	trainImagesSHA = "440fcabf73cc546fa21475e81ea370265605f56be210a4024d2ca8f203523609"
	trainLabelsSHA = "3552534a0a558bbed6aed32b30c495cca23d567ec52cac8be1a0730e8010255c"
	testImagesSHA  = "8d422c7b0a1c1c79245a5bcf07fe86e33eeafee792b84584aec276f5a2dbc4e6"
	testLabelsSHA  = "f7ae60f92e00ec6debd23a6088c31dbd2371eca3ffa0defaefb259924204aec6"
)

const (
	imagesMagic = 2051
	labelsMagic = 2049
)

var files = []datasets.File{
	{URL: baseURL + trainImagesFile, Name: trainImagesFile, SHA256: trainImagesSHA},
	{URL: baseURL + trainLabelsFile, Name: trainLabelsFile, SHA256: trainLabelsSHA},
	{URL: baseURL + testImagesFile, Name: testImagesFile, SHA256: testImagesSHA},
	{URL: baseURL + testLabelsFile, Name: testLabelsFile, SHA256: testLabelsSHA},
}

// Download fetches the four IDX files into dir, skipping files already
// cached there with a good checksum.
func Download(ctx context.Context, dir string) error {
	return datasets.Fetch(ctx, dir, files)
}

// Load decodes the cached files into the train (60000) and test (10000)
// sets, with pixel values 0..255 as float32.
func Load(dir string) (train, test *datasets.Set, err error) {
	train, err = loadSet("train", dir, trainImagesFile, trainLabelsFile)
	if err != nil {
		return nil, nil, err
	}
	test, err = loadSet("test", dir, testImagesFile, testLabelsFile)
	if err != nil {
		return nil, nil, err
	}
	return train, test, nil
}

func loadSet(name, dir, imagesFile, labelsFile string) (*datasets.Set, error) {
	pixels, height, width, err := readImages(filepath.Join(dir, imagesFile))
	if err != nil {
		return nil, err
	}
	labels, err := readLabels(filepath.Join(dir, labelsFile))
	if err != nil {
		return nil, err
	}
	n := len(labels)
	if len(pixels) != n*height*width {
		return nil, errors.Errorf("%s: %d labels but %d images", name, n, len(pixels)/(height*width))
	}
	s := datasets.New(name, n, height, width, Channels)
	parallel.ForEachChunk(len(pixels), 0, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			s.Images[i] = float32(pixels[i])
		}
	})
	for i, l := range labels {
		s.Labels[i] = int(l)
	}
	return s, nil
}

// readImages decodes a gzipped IDX image file into flat row-major bytes.
func readImages(path string) (pixels []byte, height, width int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, errors.Wrapf(err, "opening %q", path)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, 0, 0, errors.Wrapf(err, "ungzipping %q", path)
	}
	defer gz.Close()

	var hdr struct {
		Magic uint32
		Count uint32
		Rows  uint32
		Cols  uint32
	}
	if err := binary.Read(gz, binary.BigEndian, &hdr); err != nil {
		return nil, 0, 0, errors.Wrapf(err, "reading header of %q", path)
	}
	if hdr.Magic != imagesMagic {
		return nil, 0, 0, errors.Errorf("%q: magic %d, want %d", path, hdr.Magic, imagesMagic)
	}
	pixels = make([]byte, int(hdr.Count)*int(hdr.Rows)*int(hdr.Cols))
	if _, err := io.ReadFull(gz, pixels); err != nil {
		return nil, 0, 0, errors.Wrapf(err, "reading pixels of %q", path)
	}
	return pixels, int(hdr.Rows), int(hdr.Cols), nil
}

// readLabels decodes a gzipped IDX label file.
func readLabels(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %q", path)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "ungzipping %q", path)
	}
	defer gz.Close()

	var hdr struct {
		Magic uint32
		Count uint32
	}
	if err := binary.Read(gz, binary.BigEndian, &hdr); err != nil {
		return nil, errors.Wrapf(err, "reading header of %q", path)
	}
	if hdr.Magic != labelsMagic {
		return nil, errors.Errorf("%q: magic %d, want %d", path, hdr.Magic, labelsMagic)
	}
	labels := make([]byte, hdr.Count)
	if _, err := io.ReadFull(gz, labels); err != nil {
		return nil, errors.Wrapf(err, "reading labels of %q", path)
	}
	return labels, nil
}
