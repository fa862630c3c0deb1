package main

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/irisml/pipeline"
	"github.com/YuminosukeSato/irisml/pkg/errors"
)

func newPredictCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict labels with a saved model",
		Long: `Predict applies a model written by "irisml train --output" to the rows of
a CSV file. Feature columns are matched by name. When the file has a label
column the accuracy is printed as well.`,
		Args: cobra.NoArgs,
		RunE: runPredict,
	}
	cmd.Flags().StringP("model", "m", "", "model JSON file")
	_ = cmd.MarkFlagRequired("model")
	addDataFlags(cmd)
	cmd.Flags().Bool("no-label", false, "the input has no label column")
	return cmd
}

func runPredict(cmd *cobra.Command, _ []string) (err error) {
	defer errors.Recover(&err, "irisml predict")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	modelPath, _ := cmd.Flags().GetString("model")
	noLabel, _ := cmd.Flags().GetBool("no-label")

	p, err := pipeline.LoadPredictor(modelPath)
	if err != nil {
		return err
	}
	ds, err := p.LoadDataset(cfg.Data, !noLabel)
	if err != nil {
		return err
	}
	pred, err := p.Predict(ds)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	table := tablewriter.NewWriter(w)
	table.Header("row", "predicted", "probability")
	for i, label := range pred.Labels {
		row := []string{
			strconv.Itoa(i + 1),
			label,
			strconv.FormatFloat(floats.Max(pred.Proba.RawRowView(i)), 'f', 4, 64),
		}
		if err := table.Append(row); err != nil {
			return errors.Wrap(err, "append prediction row")
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	if pred.HasAccuracy {
		fmt.Fprintf(w, "accuracy: %.4f\n", pred.Accuracy)
	}
	return nil
}
