package trainer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gomlx/gomlx/ml/data"
	"github.com/pkg/errors"
)

// Artifact names under a run directory.
const (
	CkptsDirName   = "ckpts"
	LogsDirName    = "logs"
	ConfigFileName = "config.json"
	CSVFileName    = "training.log.csv"
)

const timestampFormat = "20060102-150405"

// Run is one training run's artifact tree on disk.
type Run struct {
	Dir      string
	CkptsDir string
	LogsDir  string
}

// RunPath assembles the run directory for a model name:
// <prefix>/<dataset>/<model>/b{batch}-e{epochs}-lr{lr}/<optimizer>/<timestamp>.
func (a *Args) RunPath(modelName string, now time.Time) string {
	leaf := "b" + strconv.Itoa(a.BatchSize) + "-e" + strconv.Itoa(a.Epochs) + "-lr" + FormatLR(a.LearningRate)
	return filepath.Join(data.ReplaceTildeInDir(a.Prefix),
		a.Dataset, modelName, leaf, a.OptimizerName, now.Format(timestampFormat))
}

// NewRun creates the ckpts/ and logs/ directories for a fresh run and writes
// the config snapshot. depth is recorded when positive (the CIFAR-10 path).
func NewRun(a *Args, modelName string, depth int) (*Run, error) {
	dir := a.RunPath(modelName, time.Now())
	r := &Run{
		Dir:      dir,
		CkptsDir: filepath.Join(dir, CkptsDirName),
		LogsDir:  filepath.Join(dir, LogsDirName),
	}
	for _, d := range []string{r.CkptsDir, r.LogsDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return nil, errors.Wrapf(err, "creating run directory %q", d)
		}
	}
	if err := writeConfig(filepath.Join(r.LogsDir, ConfigFileName), a, depth); err != nil {
		return nil, err
	}
	return r, nil
}

// configRecord is the config.json layout: the flag record, the computed
// depth on the CIFAR-10 path, and the host the run executed on.
type configRecord struct {
	*Args
	Depth *int `json:"depth,omitempty"`
	Host  Host `json:"host"`
}

func writeConfig(path string, a *Args, depth int) error {
	rec := configRecord{Args: a, Host: CaptureHost()}
	if depth > 0 {
		rec.Depth = &depth
	}
	raw, err := json.MarshalIndent(&rec, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling config")
	}
	raw = append(raw, '\n')
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return errors.Wrapf(err, "writing %q", path)
	}
	return nil
}

// ReadConfig loads the flag record back from a run directory's snapshot.
func ReadConfig(runDir string) (*Args, error) {
	path := filepath.Join(runDir, LogsDirName, ConfigFileName)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %q", path)
	}
	a := &Args{}
	if err := json.Unmarshal(raw, a); err != nil {
		return nil, errors.Wrapf(err, "parsing %q", path)
	}
	return a, nil
}

// FormatLR renders a learning rate the way the run layout names it: shortest
// decimal form, with a trailing ".0" for integral values ("0.1", "1e-05",
// "1.0").
func FormatLR(lr float64) string {
	s := strconv.FormatFloat(lr, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
