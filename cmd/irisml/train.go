package main

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/irisml/config"
	"github.com/YuminosukeSato/irisml/metrics"
	"github.com/YuminosukeSato/irisml/pipeline"
	"github.com/YuminosukeSato/irisml/pkg/errors"
	"github.com/YuminosukeSato/irisml/sklearn/linear_model"
)

func newTrainCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a classifier and evaluate it on a held-out split",
		Long: `Train loads a table, one-hot encodes the labels, splits the rows into
train and test sets, trains a softmax classifier on the train rows and
reports accuracy, a confusion matrix and per-class scores on the test rows.
Without --data the bundled Iris dataset is used.`,
		Args: cobra.NoArgs,
		RunE: runTrain,
	}

	d := config.GetDefaultConfig()
	addDataFlags(cmd)
	cmd.Flags().StringSlice("feature-columns", d.Data.FeatureColumns, "feature columns (default: all other columns)")
	// Splitter
	cmd.Flags().Float64("test-size", d.Split.TestSize, "fraction of rows held out for testing")
	cmd.Flags().Uint64("seed", d.Split.Seed, "seed of the train/test split")
	// Preprocessing
	cmd.Flags().Bool("standardize", d.Preprocess.Standardize, "standardize features with train statistics")
	cmd.Flags().String("label-order", d.Preprocess.LabelOrder, "class order: sorted or first_seen")
	// Hyper-parameters
	cmd.Flags().String("solver", d.Model.Solver, "optimizer: sgd or adam")
	cmd.Flags().Float64("learning-rate", d.Model.LearningRate, "learning rate")
	cmd.Flags().Int("epochs", d.Model.Epochs, "number of training epochs")
	cmd.Flags().Int("batch-size", d.Model.BatchSize, "mini-batch size, 0 for full batch")
	cmd.Flags().Float64("validation-fraction", d.Model.ValidationFraction, "fraction of train rows held out for validation reporting")
	cmd.Flags().Float64("init-std", d.Model.InitStd, "standard deviation of the initial weights")
	cmd.Flags().Uint64("model-seed", d.Model.Seed, "seed of weight initialization and shuffling")
	cmd.Flags().Int("n-jobs", d.Model.NJobs, "workers for gradient computation, 0 for all CPUs")
	// Output
	cmd.Flags().StringP("output", "o", d.Output.ModelPath, "write the trained model to this JSON file")
	cmd.Flags().Bool("no-progress", false, "hide the progress bar")
	return cmd
}

func runTrain(cmd *cobra.Command, _ []string) (err error) {
	defer errors.Recover(&err, "irisml train")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	bar := progressbar.NewOptions(cfg.Model.Epochs,
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetDescription("training"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetVisibility(!noProgress),
	)
	res, err := pipeline.Run(cfg, pipeline.WithEpochCallback(func(s linear_model.EpochStats) {
		bar.Describe(fmt.Sprintf("loss %.4f", s.Loss))
		_ = bar.Add(1)
	}))
	_ = bar.Finish()
	if err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), res)
}

func printResult(w io.Writer, res *pipeline.Result) error {
	fmt.Fprintf(w, "run:      %s\n", res.RunID)
	fmt.Fprintf(w, "samples:  %d train, %d test\n", res.TrainSize, res.TestSize)
	if n := len(res.History); n > 0 {
		last := res.History[n-1]
		fmt.Fprintf(w, "epoch %d: loss %.4f, accuracy %.4f", last.Epoch, last.Loss, last.Accuracy)
		if last.HasValidation {
			fmt.Fprintf(w, ", val_loss %.4f, val_accuracy %.4f", last.ValLoss, last.ValAccuracy)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "train accuracy: %.4f\n", res.TrainAccuracy)
	fmt.Fprintf(w, "test accuracy:  %.4f\n", res.TestAccuracy)
	fmt.Fprintf(w, "test loss:      %.4f\n\n", res.TestLoss)

	if err := metrics.WriteConfusionTable(w, res.Confusion, res.Classes); err != nil {
		return err
	}
	fmt.Fprintln(w)
	if err := metrics.WriteReportTable(w, res.Report); err != nil {
		return err
	}
	if res.ModelPath != "" {
		fmt.Fprintf(w, "\nmodel saved to %s\n", res.ModelPath)
	}
	return nil
}
