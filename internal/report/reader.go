// Fleetstats - Alliance Fleet Participation Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetstats

// Package report handles external-report spreadsheet uploads: parsing the
// delimited file, the two-phase column-mapping handshake against the
// persisted mapping store, and the in-memory upload sessions that bridge the
// two phases.
package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// AccountColumn is the literal header label of the identity column. An
// upload without it is rejected before any processing.
const AccountColumn = "Account"

// ErrMissingAccountColumn marks an upload without the identity column.
var ErrMissingAccountColumn = errors.New("report has no Account column")

// Row is one data row keyed by header.
type Row map[string]string

// Report is a parsed external report: the header row plus all data rows.
type Report struct {
	Headers []string
	Rows    []Row
}

// Parse reads a delimited report whose first row is the header. Rows with a
// column count different from the header are skipped, matching the forgiving
// cell-level error policy of ingestion.
func Parse(r io.Reader) (*Report, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("report is empty: %w", ErrMissingAccountColumn)
		}
		return nil, fmt.Errorf("failed to read report header: %w", err)
	}

	headers := make([]string, len(header))
	hasAccount := false
	for i, h := range header {
		headers[i] = strings.TrimSpace(h)
		if headers[i] == AccountColumn {
			hasAccount = true
		}
	}
	if !hasAccount {
		return nil, ErrMissingAccountColumn
	}

	report := &Report{Headers: headers}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read report row: %w", err)
		}
		if len(record) != len(headers) {
			continue
		}
		row := make(Row, len(headers))
		for i, h := range headers {
			row[h] = strings.TrimSpace(record[i])
		}
		report.Rows = append(report.Rows, row)
	}

	return report, nil
}
