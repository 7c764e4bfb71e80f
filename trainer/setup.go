package trainer

import (
	"context"
	"fmt"

	"github.com/gomlx/gomlx/ml/data"
	"github.com/pkg/errors"

	"github.com/imgclass/trainer/datasets"
	"github.com/imgclass/trainer/datasets/cifar10"
	"github.com/imgclass/trainer/datasets/mnist"
	"github.com/imgclass/trainer/models"
)

// ResolveModel returns the graph builder for the configuration, the name the
// run is filed under, and the network depth on the CIFAR-10 path (0
// otherwise). No dataset work happens here, so bad model configurations fail
// before any download.
func ResolveModel(args *Args) (models.GraphFn, string, int, error) {
	if args.Dataset == "cifar10" {
		depth := models.Depth(args.N, args.Version)
		name := fmt.Sprintf("ResNet%dv%d_CIFAR10", depth, args.Version)
		fn, err := models.NewCIFAR(args.N, args.Version, args.NumClasses)
		return fn, name, depth, err
	}
	name, err := args.EffectiveModelName()
	if err != nil {
		return nil, "", 0, err
	}
	fn, err := models.ByName(name, args.NumClasses)
	return fn, name, 0, err
}

// LoadSets downloads the configured dataset into the cache directory when
// missing and loads its train and test sets into memory.
func LoadSets(ctx context.Context, args *Args) (train, test *datasets.Set, err error) {
	dir := data.ReplaceTildeInDir(args.DataDir)
	switch args.Dataset {
	case "mnist":
		if err := mnist.Download(ctx, dir); err != nil {
			return nil, nil, err
		}
		return mnist.Load(dir)
	case "cifar10":
		if err := cifar10.Download(ctx, dir); err != nil {
			return nil, nil, err
		}
		return cifar10.Load(dir)
	}
	return nil, nil, errors.Errorf("unknown dataset %q (available: mnist, cifar10)", args.Dataset)
}

// PrepareSets applies the configured preprocessing and the seeded
// train/validation split: optional [0, 1] scaling, and on the CIFAR-10 path
// subtraction of the training set's per-pixel mean from every set. val is
// nil when validation_split is 0.
func PrepareSets(args *Args, trainSet, testSet *datasets.Set) (train, val, test *datasets.Set, err error) {
	if args.Norm {
		trainSet.Normalize()
		testSet.Normalize()
	}
	if args.Dataset == "cifar10" {
		mean := trainSet.PixelMean()
		if err := trainSet.SubtractPixels(mean); err != nil {
			return nil, nil, nil, err
		}
		if err := testSet.SubtractPixels(mean); err != nil {
			return nil, nil, nil, err
		}
	}
	train, val, err = trainSet.TrainValSplit(args.ValidationSplit, int64(args.Seed))
	if err != nil {
		return nil, nil, nil, err
	}
	return train, val, testSet, nil
}
