package trainer

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
)

// CSVLogger appends one row per epoch to training.log.csv. The file is
// opened in append mode and the header written only when it is new, so an
// interrupted run's log keeps growing on the next run over the same
// directory.
type CSVLogger struct {
	file    *os.File
	w       *csv.Writer
	withVal bool
}

// NewCSVLogger opens the epoch log in dir. withVal adds the validation
// columns.
func NewCSVLogger(dir string, withVal bool) (*CSVLogger, error) {
	path := filepath.Join(dir, CSVFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %q", path)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "stating %q", path)
	}
	l := &CSVLogger{file: f, w: csv.NewWriter(f), withVal: withVal}
	if info.Size() == 0 {
		header := []string{"epoch", "accuracy", "loss", "lr"}
		if withVal {
			header = append(header, "val_accuracy", "val_loss")
		}
		l.w.Write(header)
		l.w.Flush()
		if err := l.w.Error(); err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "writing header of %q", path)
		}
	}
	return l, nil
}

// Log appends one epoch row. The validation values are dropped when the
// logger was opened without them.
func (l *CSVLogger) Log(epoch int, accuracy, loss, lr, valAccuracy, valLoss float64) error {
	row := []string{
		strconv.Itoa(epoch),
		formatMetric(accuracy),
		formatMetric(loss),
		formatMetric(lr),
	}
	if l.withVal {
		row = append(row, formatMetric(valAccuracy), formatMetric(valLoss))
	}
	l.w.Write(row)
	l.w.Flush()
	return errors.Wrap(l.w.Error(), "writing epoch row")
}

// Close flushes and closes the log file.
func (l *CSVLogger) Close() error {
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		l.file.Close()
		return errors.Wrap(err, "flushing epoch log")
	}
	return errors.Wrap(l.file.Close(), "closing epoch log")
}

func formatMetric(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
