package main

import (
	"context"
	"flag"

	"k8s.io/klog/v2"

	"github.com/imgclass/trainer/trainer"
)

func main() {
	args := &trainer.Args{}
	args.Register(flag.CommandLine)
	klog.InitFlags(nil)
	flag.Parse()
	if err := args.Validate(); err != nil {
		klog.Exitf("Invalid arguments: %v", err)
	}
	if err := run(args); err != nil {
		klog.Fatalf("Training failed: %+v", err)
	}
}

func run(args *trainer.Args) error {
	modelFn, modelName, depth, err := trainer.ResolveModel(args)
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
	r, err := trainer.NewRun(args, modelName, depth)
	if err != nil {
		return err
	}
	klog.Infof("Training %s on %s, run directory %s", modelName, args.Dataset, r.Dir)
	return trainer.Fit(args, r, modelFn, trainSet, valSet, testSet)
}
