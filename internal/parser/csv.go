package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// csvBatchRows is how many data rows share one paragraph. Batches break
// on blank lines downstream, and each repeats the header row so a batch
// still reads on its own after splitting.
const csvBatchRows = 20

// CSVParser renders CSV files as labelled rows grouped into paragraphs.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*Result, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	result := &Result{Title: titleFromFilename(filename)}
	if len(records) == 0 {
		return result, nil
	}

	headers := records[0]
	dataRows := records[1:]

	var paragraphs []string
	for i := 0; i < len(dataRows); i += csvBatchRows {
		end := i + csvBatchRows
		if end > len(dataRows) {
			end = len(dataRows)
		}

		var batch strings.Builder
		batch.WriteString("Headers: " + strings.Join(headers, ", "))
		for _, row := range dataRows[i:end] {
			batch.WriteString("\n")
			batch.WriteString(csvRowText(headers, row))
		}
		paragraphs = append(paragraphs, batch.String())
	}

	if len(paragraphs) == 0 {
		paragraphs = []string{"Headers: " + strings.Join(headers, ", ")}
	}

	result.Text = strings.Join(paragraphs, "\n\n")
	return result, nil
}

func csvRowText(headers, row []string) string {
	parts := make([]string, 0, len(row))
	for j, cell := range row {
		if j < len(headers) {
			parts = append(parts, headers[j]+": "+cell)
		} else {
			parts = append(parts, cell)
		}
	}
	return strings.Join(parts, ", ")
}
