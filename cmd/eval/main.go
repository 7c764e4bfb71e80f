package main

import (
	"context"
	"flag"

	"k8s.io/klog/v2"

	"github.com/imgclass/trainer/datasets"
	"github.com/imgclass/trainer/trainer"
)

var (
	flagRun     = flag.String("run", "", "run directory holding logs/config.json and ckpts/")
	flagDataDir = flag.String("data_dir", "~/.cache/imgclass", "directory caching downloaded datasets")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if *flagRun == "" {
		klog.Exit("--run is required")
	}
	if err := run(*flagRun); err != nil {
		klog.Fatalf("Evaluation failed: %+v", err)
	}
}

func run(runDir string) error {
	args, err := trainer.ReadConfig(runDir)
	if err != nil {
		return err
	}
	args.DataDir = *flagDataDir

	modelFn, modelName, _, err := trainer.ResolveModel(args)
	if err != nil {
		return err
	}
	fullTrain, test, err := trainer.LoadSets(context.Background(), args)
	if err != nil {
		return err
	}
	trainSet, valSet, testSet, err := trainer.PrepareSets(args, fullTrain, test)
	if err != nil {
		return err
	}
	klog.Infof("Evaluating %s from %s", modelName, runDir)
	sets := []*datasets.Set{trainSet}
	if valSet != nil {
		sets = append(sets, valSet)
	}
	sets = append(sets, testSet)
	return trainer.Eval(args, runDir, modelFn, sets...)
}
