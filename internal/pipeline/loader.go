package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/datakith/cleanse/internal/model"
)

// LoadCSV reads a tabular batch from a CSV file. Headers are trimmed and
// leading whitespace inside fields is dropped. The recognized columns
// map onto Record fields; everything else passes through untouched.
func LoadCSV(path string) (*model.Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	batch, err := readBatch(f)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return batch, nil
}

func readBatch(r io.Reader) (*model.Batch, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty input")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}

	batch := &model.Batch{Columns: columns}
	for _, c := range columns {
		switch c {
		case model.ColumnName:
			batch.HasName = true
		case model.ColumnEmail:
			batch.HasEmail = true
		case model.ColumnPhone:
			batch.HasPhone = true
		}
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(batch.Records)+2, err)
		}

		rec := model.Record{}
		for i, value := range row {
			switch columns[i] {
			case model.ColumnName:
				rec.Name = value
			case model.ColumnEmail:
				rec.Email = value
			case model.ColumnPhone:
				rec.Phone = value
			default:
				if rec.Extra == nil {
					rec.Extra = make(map[string]string)
				}
				rec.Extra[columns[i]] = value
			}
		}
		batch.Records = append(batch.Records, rec)
	}

	return batch, nil
}
