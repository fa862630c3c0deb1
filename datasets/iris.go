package datasets

import (
	"bytes"
	_ "embed"
)

//go:embed data/iris.csv
var irisCSV []byte

// Column names of the bundled Iris table.
const (
	IrisIDColumn    = "Id"
	IrisLabelColumn = "Species"
)

// LoadIris parses the bundled 150-row Iris table (4 features, 3 classes).
// The Id column is dropped.
func LoadIris() (*Dataset, error) {
	return ReadCSV(bytes.NewReader(irisCSV),
		WithDropColumns(IrisIDColumn),
		WithLabelColumn(IrisLabelColumn),
	)
}

// IrisCSV returns a copy of the bundled Iris table.
func IrisCSV() []byte {
	return append([]byte(nil), irisCSV...)
}
