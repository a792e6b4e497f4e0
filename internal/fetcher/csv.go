package fetcher

import (
	"encoding/csv"
	"os"

	"github.com/rotisserie/eris"

	"github.com/flarelog/insight-cli/internal/model"
)

// ReadCSV reads observations from a CSV export. The first row is the header.
func ReadCSV(path string) ([]model.Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "csv: open file")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "csv: read %s", path)
	}

	return parseRows(rows, path)
}
