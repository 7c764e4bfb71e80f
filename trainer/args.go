package trainer

import (
	"flag"
	"math/rand"
	"strings"

	"github.com/pkg/errors"

	"github.com/imgclass/trainer/models"
	"github.com/imgclass/trainer/schedules"
)

// Args holds the run configuration parsed from the command line. The JSON
// tags are the layout of the config.json snapshot written per run.
type Args struct {
	Dataset         string  `json:"dataset"`
	NumClasses      int     `json:"num_classes"`
	ModelName       string  `json:"model_name"`
	N               int     `json:"n"`
	Version         int     `json:"version"`
	BatchSize       int     `json:"batch_size"`
	Seed            int     `json:"seed"`
	ValidationSplit float64 `json:"validation_split"`
	Norm            bool    `json:"norm"`
	Epochs          int     `json:"epochs"`
	OptimizerName   string  `json:"optimizer_name"`
	LearningRate    float64 `json:"learning_rate"`
	WeightDecay     float64 `json:"weight_decay"`
	Momentum        float64 `json:"momentum"`
	LRSchedule      string  `json:"lr_schedule"`
	Attention       bool    `json:"attention"`
	AttentionType   string  `json:"attention_type"`

	// Driver settings, not part of the snapshot.
	Prefix         string `json:"-"`
	DataDir        string `json:"-"`
	Bar            bool   `json:"-"`
	Plots          bool   `json:"-"`
	CheckpointKeep int    `json:"-"`
}

// Register declares the command-line flags on fs. Defaults follow the
// original training recipe; the seed defaults to a random value in [0, 10000).
func (a *Args) Register(fs *flag.FlagSet) {
	fs.StringVar(&a.Dataset, "dataset", "mnist", "dataset to train on: mnist or cifar10")
	fs.IntVar(&a.NumClasses, "num_classes", 10, "number of label classes")
	fs.StringVar(&a.ModelName, "model_name", "NoModel",
		"model to train, one of: "+strings.Join(models.Available, ", "))
	fs.IntVar(&a.N, "n", 3, "CIFAR-10 ResNet size parameter")
	fs.IntVar(&a.Version, "version", 1, "CIFAR-10 ResNet version, 1 or 2")
	fs.IntVar(&a.BatchSize, "batch_size", 32, "training batch size")
	fs.IntVar(&a.Seed, "seed", rand.Intn(10000), "seed for shuffling and the train/validation split")
	fs.Float64Var(&a.ValidationSplit, "validation_split", 0.2,
		"fraction of the training set held out for validation, 0 to disable")
	fs.BoolVar(&a.Norm, "norm", false, "scale pixel values to [0, 1]")
	fs.IntVar(&a.Epochs, "epochs", 100, "number of training epochs")
	fs.StringVar(&a.OptimizerName, "optimizer_name", "SGD", "optimizer: SGD or Adam")
	fs.Float64Var(&a.LearningRate, "learning_rate", 0.1, "initial learning rate")
	fs.Float64Var(&a.WeightDecay, "weight_decay", 0.0001, "L2 regularization strength")
	fs.Float64Var(&a.Momentum, "momentum", 0.9, "momentum, recorded in the run config")
	fs.StringVar(&a.LRSchedule, "lr_schedule", "no_schedule",
		"learning-rate schedule: "+strings.Join(schedules.Names, ", "))
	fs.Var(newBoolString(&a.Attention, false), "attention",
		`add an attention block to LeNet5, exactly "True" or "False"`)
	fs.StringVar(&a.AttentionType, "attention_type", "official", "attention block type: official or senet")

	fs.StringVar(&a.Prefix, "prefix", "~/Documents/DeepLearningData", "root directory for run artifacts")
	fs.StringVar(&a.DataDir, "data_dir", "~/.cache/imgclass", "directory caching downloaded datasets")
	fs.BoolVar(&a.Bar, "bar", true, "show a progress bar during training")
	fs.BoolVar(&a.Plots, "plots", true, "save evaluation plot points under the run's logs directory")
	fs.IntVar(&a.CheckpointKeep, "checkpoint_keep", 10, "number of checkpoints to keep")
}

// Validate rejects inconsistent configurations before any data is touched.
func (a *Args) Validate() error {
	switch a.Dataset {
	case "mnist", "cifar10":
	default:
		return errors.Errorf("unknown dataset %q (available: mnist, cifar10)", a.Dataset)
	}
	if a.Attention {
		if _, err := models.AttentionName(a.AttentionType); err != nil {
			return err
		}
	}
	if _, err := OptimizerName(a.OptimizerName); err != nil {
		return err
	}
	if _, err := schedules.ByName(a.LRSchedule, a.LearningRate); err != nil {
		return err
	}
	if a.Dataset == "mnist" && !models.IsAvailable(a.ModelName) {
		return errors.Errorf("model %q is not available (available: %s)",
			a.ModelName, strings.Join(models.Available, ", "))
	}
	if a.BatchSize < 1 {
		return errors.Errorf("batch_size must be positive, got %d", a.BatchSize)
	}
	if a.ValidationSplit < 0 || a.ValidationSplit >= 1 {
		return errors.Errorf("validation_split %g outside [0, 1)", a.ValidationSplit)
	}
	return nil
}

// EffectiveModelName is the model actually built on the MNIST path: the
// attention expansion when --attention is set, the raw model_name otherwise.
func (a *Args) EffectiveModelName() (string, error) {
	if a.Attention {
		return models.AttentionName(a.AttentionType)
	}
	return a.ModelName, nil
}

// OptimizerName maps an optimizer name to the framework registry's
// lower-case name, accepting any capitalization of SGD and Adam.
func OptimizerName(name string) (string, error) {
	switch strings.ToLower(name) {
	case "sgd":
		return "sgd", nil
	case "adam":
		return "adam", nil
	}
	return "", errors.Errorf("unknown optimizer %q (available: SGD, Adam)", name)
}

// boolString is a flag value accepting exactly the literals "True" and
// "False".
type boolString struct {
	value *bool
}

func newBoolString(p *bool, def bool) *boolString {
	*p = def
	return &boolString{value: p}
}

func (b *boolString) String() string {
	if b.value != nil && *b.value {
		return "True"
	}
	return "False"
}

func (b *boolString) Set(s string) error {
	switch s {
	case "True":
		*b.value = true
	case "False":
		*b.value = false
	default:
		return errors.Errorf("%q is not a boolean value", s)
	}
	return nil
}
