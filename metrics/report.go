package metrics

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"github.com/YuminosukeSato/irisml/pkg/errors"
)

// ClassMetrics holds the per-class scores of a Report.
type ClassMetrics struct {
	Label     string  `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Report は sklearn の classification_report に相当する集計
type Report struct {
	Classes           []ClassMetrics `json:"classes"`
	Accuracy          float64        `json:"accuracy"`
	MacroPrecision    float64        `json:"macro_precision"`
	MacroRecall       float64        `json:"macro_recall"`
	MacroF1           float64        `json:"macro_f1"`
	WeightedPrecision float64        `json:"weighted_precision"`
	WeightedRecall    float64        `json:"weighted_recall"`
	WeightedF1        float64        `json:"weighted_f1"`
	Total             int            `json:"total"`
}

// ClassificationReport は混同行列からクラスごとの適合率・再現率・F1 を計算する
//
// 分母が 0 になる指標は 0 とし、UndefinedMetricWarning を errors.Warn で通知する。
func ClassificationReport(cm *ConfusionMatrix, classes []string) (*Report, error) {
	c := cm.NClasses()
	if len(classes) != c {
		return nil, errors.NewShapeError("ClassificationReport", []int{c}, []int{len(classes)})
	}

	r := &Report{
		Classes:  make([]ClassMetrics, c),
		Accuracy: cm.Accuracy(),
		Total:    cm.Total(),
	}
	for k := 0; k < c; k++ {
		tp := float64(cm.At(k, k))
		support := cm.Support(k)
		predicted := cm.Predicted(k)

		m := ClassMetrics{
			Label:     classes[k],
			Support:   support,
			Precision: errors.SafeDivide(tp, float64(predicted)),
			Recall:    errors.SafeDivide(tp, float64(support)),
		}
		if predicted == 0 {
			errors.Warn(errors.NewUndefinedMetricWarning("precision",
				fmt.Sprintf("no samples predicted as %q", classes[k]), 0))
		}
		if support == 0 {
			errors.Warn(errors.NewUndefinedMetricWarning("recall",
				fmt.Sprintf("no true samples of %q", classes[k]), 0))
		}
		m.F1 = errors.SafeDivide(2*m.Precision*m.Recall, m.Precision+m.Recall)
		r.Classes[k] = m
	}

	r.MacroPrecision = lo.MeanBy(r.Classes, func(m ClassMetrics) float64 { return m.Precision })
	r.MacroRecall = lo.MeanBy(r.Classes, func(m ClassMetrics) float64 { return m.Recall })
	r.MacroF1 = lo.MeanBy(r.Classes, func(m ClassMetrics) float64 { return m.F1 })
	for _, m := range r.Classes {
		w := errors.SafeDivide(float64(m.Support), float64(r.Total))
		r.WeightedPrecision += w * m.Precision
		r.WeightedRecall += w * m.Recall
		r.WeightedF1 += w * m.F1
	}
	return r, nil
}

// WriteConfusionTable renders cm with one row per true class and one column per
// predicted class.
func WriteConfusionTable(w io.Writer, cm *ConfusionMatrix, classes []string) error {
	if len(classes) != cm.NClasses() {
		return errors.NewShapeError("WriteConfusionTable", []int{cm.NClasses()}, []int{len(classes)})
	}
	table := tablewriter.NewWriter(w)
	header := append([]any{"true \\ predicted"}, lo.ToAnySlice(classes)...)
	table.Header(header...)
	for i, label := range classes {
		row := []string{label}
		for j := range classes {
			row = append(row, strconv.Itoa(cm.At(i, j)))
		}
		if err := table.Append(row); err != nil {
			return errors.Wrap(err, "append confusion row")
		}
	}
	return table.Render()
}

// WriteReportTable renders r as a precision / recall / f1 / support table.
func WriteReportTable(w io.Writer, r *Report) error {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) }

	table := tablewriter.NewWriter(w)
	table.Header("class", "precision", "recall", "f1", "support")
	rows := lo.Map(r.Classes, func(m ClassMetrics, _ int) []string {
		return []string{m.Label, f(m.Precision), f(m.Recall), f(m.F1), strconv.Itoa(m.Support)}
	})
	rows = append(rows,
		[]string{"macro avg", f(r.MacroPrecision), f(r.MacroRecall), f(r.MacroF1), strconv.Itoa(r.Total)},
		[]string{"weighted avg", f(r.WeightedPrecision), f(r.WeightedRecall), f(r.WeightedF1), strconv.Itoa(r.Total)},
		[]string{"accuracy", "", "", f(r.Accuracy), strconv.Itoa(r.Total)},
	)
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return errors.Wrap(err, "append report row")
		}
	}
	return table.Render()
}
