package pipeline

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/datakith/cleanse/internal/model"
)

// derivedColumns selects which derived columns appear in the output.
// A derived column is present only when its stage ran to completion (or,
// for Valid Entry, when the detector at least attempted the batch).
type derivedColumns struct {
	Duplicate bool
	Anomaly   bool
	Validity  bool
	Company   bool
}

// SaveCSV writes the annotated batch: the original columns in input
// order, then the selected derived columns. Already-computed results are
// never altered by a save failure.
func SaveCSV(path string, batch *model.Batch, derived derivedColumns) error {
	f, err := os.Create(path)
	if err != nil {
		return &SaveError{Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)

	header := append([]string(nil), batch.Columns...)
	if derived.Duplicate {
		header = append(header, model.ColumnDuplicate)
	}
	if derived.Anomaly {
		header = append(header, model.ColumnAnomaly)
	}
	if derived.Validity {
		header = append(header, model.ColumnValidity)
	}
	if derived.Company {
		header = append(header, model.ColumnCompany)
	}
	if err := w.Write(header); err != nil {
		return &SaveError{Path: path, Err: err}
	}

	for _, rec := range batch.Records {
		row := make([]string, 0, len(header))
		for _, col := range batch.Columns {
			switch col {
			case model.ColumnName:
				row = append(row, rec.Name)
			case model.ColumnEmail:
				row = append(row, rec.Email)
			case model.ColumnPhone:
				row = append(row, rec.Phone)
			default:
				row = append(row, rec.Extra[col])
			}
		}
		if derived.Duplicate {
			if rec.DuplicateMatch != nil {
				row = append(row, *rec.DuplicateMatch)
			} else {
				row = append(row, "")
			}
		}
		if derived.Anomaly {
			if rec.AnomalyScore != nil {
				row = append(row, strconv.FormatFloat(*rec.AnomalyScore, 'f', 4, 64))
			} else {
				row = append(row, "")
			}
		}
		if derived.Validity {
			row = append(row, string(rec.Validity))
		}
		if derived.Company {
			row = append(row, rec.Company)
		}
		if err := w.Write(row); err != nil {
			return &SaveError{Path: path, Err: err}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return &SaveError{Path: path, Err: err}
	}
	return nil
}
