// Package irisml is a small, deterministic supervised classification pipeline
// for tabular data, built on gonum.
//
// A run loads a delimited table of numeric features plus one categorical
// label, one-hot encodes the labels, splits the rows into train and test sets,
// trains a single-layer softmax classifier by gradient descent on categorical
// cross-entropy and evaluates it with accuracy and a confusion matrix.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/irisml/config"
//	    "github.com/YuminosukeSato/irisml/pipeline"
//	)
//
//	func main() {
//	    cfg := config.GetDefaultConfig() // bundled Iris dataset
//	    cfg.Model.LearningRate = 0.1
//	    cfg.Model.Epochs = 200
//
//	    res, err := pipeline.Run(cfg)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Printf("test accuracy: %.3f\n", res.TestAccuracy)
//	}
//
// # Packages
//
//   - datasets: CSV loading and the bundled Iris table
//   - preprocessing: one-hot label encoding and feature standardization
//   - sklearn/model_selection: seeded train/test splitting
//   - sklearn/linear_model: SoftmaxRegression with SGD and Adam solvers
//   - metrics: accuracy, cross-entropy, confusion matrix, classification report
//   - pipeline: the end-to-end run and prediction from saved artifacts
//   - config: viper-based configuration with IRISML_* environment overrides
//   - core/model: model state, interfaces and JSON weight artifacts
//   - core/parallel: deterministic chunked row reductions
//   - pkg/errors, pkg/log: typed errors and structured logging
//
// The irisml command (cmd/irisml) exposes train, predict and version.
//
// # Determinism
//
// Every random choice (split permutation, weight initialization, validation
// hold-out, mini-batch shuffling) draws from a PCG generator seeded from the
// configuration, and parallel gradient reductions sum fixed-size chunks in
// order, so identical inputs give bit-identical results for any worker count.
package irisml
