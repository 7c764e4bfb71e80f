package trainer

import (
	"github.com/gomlx/gomlx/examples/notebook/gonb/margaid"
	"github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/ml/context"
	"github.com/gomlx/gomlx/ml/context/checkpoints"
	"github.com/gomlx/gomlx/ml/data"
	"github.com/gomlx/gomlx/ml/layers"
	"github.com/gomlx/gomlx/ml/train"
	"github.com/gomlx/gomlx/ml/train/commandline"
	"github.com/gomlx/gomlx/ml/train/losses"
	"github.com/gomlx/gomlx/ml/train/metrics"
	"github.com/gomlx/gomlx/ml/train/optimizers"
	"github.com/gomlx/gomlx/types/shapes"
	"github.com/gomlx/gomlx/types/tensor"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/imgclass/trainer/datasets"
	"github.com/imgclass/trainer/models"
	"github.com/imgclass/trainer/schedules"
)

// Fit trains modelFn on trainSet for the configured number of epochs,
// writing checkpoints, the epoch CSV log and plot points under the run
// directories, and reports final metrics on all the sets.
func Fit(args *Args, run *Run, modelFn models.GraphFn, trainSet, valSet, testSet *datasets.Set) error {
	manager := graph.BuildManager().Done()

	optName, err := OptimizerName(args.OptimizerName)
	if err != nil {
		return err
	}
	sched, err := schedules.ByName(args.LRSchedule, args.LearningRate)
	if err != nil {
		return err
	}

	trainBatches := datasets.NewBatches(trainSet, args.BatchSize, true, int64(args.Seed))
	stepsPerEpoch := trainBatches.NumBatches()
	if stepsPerEpoch == 0 {
		return errors.Errorf("training set of %d images is smaller than one batch of %d",
			trainSet.Len(), args.BatchSize)
	}
	trainDS := data.Parallel(trainBatches)
	trainEvalDS := data.Parallel(datasets.NewBatches(trainSet, args.BatchSize, false, 0))
	var valDS train.Dataset
	if valSet != nil {
		if valSet.Len() >= args.BatchSize {
			valDS = data.Parallel(datasets.NewBatches(valSet, args.BatchSize, false, 0))
		} else {
			klog.Warningf("Validation set of %d images is smaller than one batch, skipping validation", valSet.Len())
		}
	}
	var testDS train.Dataset
	if testSet.Len() >= args.BatchSize {
		testDS = data.Parallel(datasets.NewBatches(testSet, args.BatchSize, false, 0))
	} else {
		klog.Warningf("Test set of %d images is smaller than one batch, skipping its evaluation", testSet.Len())
	}

	// The staircase schedules define their own starting rate.
	currentLR := args.LearningRate
	if sched != nil {
		currentLR = sched(0)
	}

	ctx := context.NewContext(manager)
	ctx.SetParam(optimizers.LearningRateKey, currentLR)
	ctx.SetParam(layers.L2RegularizationKey, args.WeightDecay)

	checkpoint, err := checkpoints.Build(ctx).
		DirFromBase(CkptsDirName, run.Dir).
		Keep(args.CheckpointKeep).Done()
	if err != nil {
		return errors.Wrap(err, "building checkpoint handler")
	}

	movingAcc := metrics.NewMovingAverageSparseCategoricalAccuracy("Moving Average Accuracy", "~acc", 0.01)
	meanAcc := metrics.NewSparseCategoricalAccuracy("Mean Accuracy", "#acc")
	trainer := train.NewTrainer(manager, ctx, modelFn,
		losses.SparseCategoricalCrossEntropyLogits,
		optimizers.MustOptimizerByName(optName),
		[]metrics.Interface{movingAcc},
		[]metrics.Interface{meanAcc})

	loop := train.NewLoop(trainer)
	if args.Bar {
		commandline.AttachProgressBar(loop)
	}

	csvLog, err := NewCSVLogger(run.LogsDir, valDS != nil)
	if err != nil {
		return err
	}
	defer csvLog.Close()

	lrVar := optimizers.LearningRateVar(ctx, shapes.Float32, currentLR)
	completed := 0
	train.EveryNSteps(loop, stepsPerEpoch, "end of epoch", 100,
		func(loop *train.Loop, stepMetrics []tensor.Tensor) error {
			completed++
			trainLoss := scalarFloat(stepMetrics[0])
			trainAcc := scalarFloat(stepMetrics[1])
			var valLoss, valAcc float64
			if valDS != nil {
				var err error
				valLoss, valAcc, err = evalOn(trainer, valDS)
				if err != nil {
					return err
				}
			}
			if err := csvLog.Log(completed-1, trainAcc, trainLoss, currentLR, valAcc, valLoss); err != nil {
				return err
			}
			if sched != nil && completed < args.Epochs {
				currentLR = sched(completed)
				lrVar.SetValue(tensor.FromValue(float32(currentLR)))
			}
			return errors.Wrap(checkpoint.Save(), "saving checkpoint")
		})

	if args.Plots {
		plotDSs := []train.Dataset{trainEvalDS}
		if valDS != nil {
			plotDSs = append(plotDSs, valDS)
		}
		if testDS != nil {
			plotDSs = append(plotDSs, testDS)
		}
		_ = margaid.NewDefault(loop, run.LogsDir, 100, 1.1, plotDSs...)
	}

	klog.Infof("Training for %d epochs, %d steps per epoch", args.Epochs, stepsPerEpoch)
	if _, err := loop.RunEpochs(trainDS, args.Epochs); err != nil {
		return errors.Wrap(err, "training loop")
	}

	evalDSs := []train.Dataset{trainEvalDS}
	if valDS != nil {
		evalDSs = append(evalDSs, valDS)
	}
	if testDS != nil {
		evalDSs = append(evalDSs, testDS)
	}
	return errors.Wrap(commandline.ReportEval(trainer, evalDSs...), "evaluation report")
}

// Eval restores the latest checkpoint under runDir and reports metrics over
// the given sets.
func Eval(args *Args, runDir string, modelFn models.GraphFn, sets ...*datasets.Set) error {
	manager := graph.BuildManager().Done()

	optName, err := OptimizerName(args.OptimizerName)
	if err != nil {
		return err
	}

	ctx := context.NewContext(manager)
	ctx.SetParam(optimizers.LearningRateKey, args.LearningRate)
	ctx.SetParam(layers.L2RegularizationKey, args.WeightDecay)
	ctx = ctx.Checked(false)

	keep := args.CheckpointKeep
	if keep < 1 {
		keep = 1
	}
	if _, err := checkpoints.Build(ctx).
		DirFromBase(CkptsDirName, runDir).
		Keep(keep).Done(); err != nil {
		return errors.Wrapf(err, "loading checkpoint under %q", runDir)
	}

	meanAcc := metrics.NewSparseCategoricalAccuracy("Mean Accuracy", "#acc")
	trainer := train.NewTrainer(manager, ctx, modelFn,
		losses.SparseCategoricalCrossEntropyLogits,
		optimizers.MustOptimizerByName(optName),
		nil,
		[]metrics.Interface{meanAcc})

	dss := make([]train.Dataset, 0, len(sets))
	for _, s := range sets {
		if s.Len() < args.BatchSize {
			klog.Warningf("Set %q of %d images is smaller than one batch, skipping", s.Name, s.Len())
			continue
		}
		dss = append(dss, data.Parallel(datasets.NewBatches(s, args.BatchSize, false, 0)))
	}
	return errors.Wrap(commandline.ReportEval(trainer, dss...), "evaluation report")
}

// evalOn runs the trainer's eval metrics over ds, returning mean loss and
// accuracy.
func evalOn(trainer *train.Trainer, ds train.Dataset) (loss, accuracy float64, err error) {
	results, err := trainer.Eval(ds)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "evaluating %s", ds.Name())
	}
	return scalarFloat(results[0]), scalarFloat(results[1]), nil
}

// scalarFloat reads a scalar metric tensor.
func scalarFloat(t tensor.Tensor) float64 {
	ref := t.Local().AcquireData()
	defer ref.Release()
	return shapes.CastAsDType(ref.Flat(), shapes.Float64).([]float64)[0]
}
