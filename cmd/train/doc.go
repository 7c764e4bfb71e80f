// Package main provides the training driver for image-classification models
// on MNIST and CIFAR-10. It selects the model, optimizer and learning-rate
// schedule by name, downloads the dataset on first use, and delegates the
// numerical work to the GoMLX training loop, leaving the config snapshot,
// epoch CSV log and checkpoints under a per-run directory.
package main
