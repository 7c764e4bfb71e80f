// Package cifar10 downloads and decodes the CIFAR-10 dataset (binary version).
package cifar10

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/imgclass/trainer/datasets"
	"github.com/imgclass/trainer/parallel"
)

// Image dimensions of the raw files.
const (
	Height   = 32
	Width    = 32
	Channels = 3
)

const (
	archiveURL  = "https://www.cs.toronto.edu/~kriz/cifar-10-binary.tar.gz"
	archiveName = "cifar-10-binary.tar.gz"
	archiveMD5  = "c32a1d4ab5d03f1284b67883e8d87530"
)

// Each record is one label byte followed by a 32x32 image in channel-planar
// order: 1024 red bytes, 1024 green, 1024 blue.
const (
	recordBytes     = 1 + Height*Width*Channels
	recordsPerBatch = 10000
)

var trainBatches = []string{
	"data_batch_1.bin",
	"data_batch_2.bin",
	"data_batch_3.bin",
	"data_batch_4.bin",
	"data_batch_5.bin",
}

const testBatch = "test_batch.bin"

func allBatches() []string {
	return append(trainBatches[:len(trainBatches):len(trainBatches)], testBatch)
}

// Download fetches the binary archive into dir, skipping it when already
// cached there with a good checksum.
func Download(ctx context.Context, dir string) error {
	return datasets.Fetch(ctx, dir, []datasets.File{
		{URL: archiveURL, Name: archiveName, MD5: archiveMD5},
	})
}

// Load decodes the cached archive into the train (50000) and test (10000)
// sets, converting images to NHWC with pixel values 0..255 as float32.
func Load(dir string) (train, test *datasets.Set, err error) {
	batches, err := readArchive(filepath.Join(dir, archiveName))
	if err != nil {
		return nil, nil, err
	}
	for _, name := range allBatches() {
		raw, ok := batches[name]
		if !ok {
			return nil, nil, errors.Errorf("archive is missing %q", name)
		}
		if len(raw) != recordsPerBatch*recordBytes {
			return nil, nil, errors.Errorf("%q has %d bytes, want %d", name, len(raw), recordsPerBatch*recordBytes)
		}
	}

	train = datasets.New("train", len(trainBatches)*recordsPerBatch, Height, Width, Channels)
	parallel.ForEach(len(trainBatches), 0, func(i int) {
		decodeBatch(batches[trainBatches[i]], train, i*recordsPerBatch)
	})
	test = datasets.New("test", recordsPerBatch, Height, Width, Channels)
	decodeBatch(batches[testBatch], test, 0)
	return train, test, nil
}

// readArchive extracts the batch files from the tar.gz into memory.
func readArchive(path string) (map[string][]byte, error) {
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

	wanted := make(map[string]bool)
	for _, name := range allBatches() {
		wanted[name] = true
	}

	batches := make(map[string][]byte, len(wanted))
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "reading archive %q", path)
		}
		name := filepath.Base(hdr.Name)
		if !wanted[name] {
			continue
		}
		raw := make([]byte, hdr.Size)
		if _, err := io.ReadFull(tr, raw); err != nil {
			return nil, errors.Wrapf(err, "reading %q from archive", name)
		}
		batches[name] = raw
	}
	return batches, nil
}

// decodeBatch decodes one validated batch file into s starting at image `at`,
// converting channel-planar records to interleaved NHWC.
func decodeBatch(raw []byte, s *datasets.Set, at int) {
	const plane = Height * Width
	for i := 0; i < len(raw)/recordBytes; i++ {
		rec := raw[i*recordBytes : (i+1)*recordBytes]
		s.Labels[at+i] = int(rec[0])
		img := s.Image(at + i)
		pixels := rec[1:]
		for p := 0; p < plane; p++ {
			img[p*Channels+0] = float32(pixels[p])
			img[p*Channels+1] = float32(pixels[plane+p])
			img[p*Channels+2] = float32(pixels[2*plane+p])
		}
	}
}
