// Copyright 2026 The ZenaManage Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package matrix

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/kha997/zenamanage/internal/permission"
	"github.com/kha997/zenamanage/internal/rbac"
)

var csvHeader = []string{"role_name", "scope", "permission_code", "granted"}

// ReadCSV decodes matrix rows from the exchange format. Shape problems
// (wrong header, missing/extra columns, non-boolean granted, malformed
// codes) are reported as ValidationErrors; rows that parsed cleanly are
// still returned so semantic validation can report everything at once.
func ReadCSV(r io.Reader) ([]Row, ValidationErrors, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ValidationErrors{{Line: 1, Field: "header", Message: "empty file"}}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	if !equalHeader(header) {
		return nil, ValidationErrors{{Line: 1, Field: "header",
			Message: fmt.Sprintf("expected columns %v, got %v", csvHeader, header)}}, nil
	}

	var (
		rows []Row
		errs ValidationErrors
	)
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			errs = append(errs, ValidationError{Line: line, Field: "row",
				Message: fmt.Sprintf("malformed row: %v", parseErr.Err)})
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read csv row: %w", err)
		}

		row, rowErrs := parseRecord(line, record)
		if len(rowErrs) > 0 {
			errs = append(errs, rowErrs...)
			continue
		}
		rows = append(rows, row)
	}
	return rows, errs, nil
}

func parseRecord(line int, record []string) (Row, ValidationErrors) {
	var errs ValidationErrors

	if record[0] == "" {
		errs = append(errs, ValidationError{Line: line, Field: "role_name", Message: "must not be empty"})
	}

	scope, err := rbac.ParseScope(record[1])
	if err != nil {
		errs = append(errs, ValidationError{Line: line, Field: "scope",
			Message: fmt.Sprintf("must be one of system|tenant|project, got %q", record[1])})
	}

	code, err := permission.Parse(record[2])
	if err != nil {
		errs = append(errs, ValidationError{Line: line, Field: "permission_code", Message: err.Error()})
	}

	granted, err := parseGranted(record[3])
	if err != nil {
		errs = append(errs, ValidationError{Line: line, Field: "granted",
			Message: fmt.Sprintf("must be true or false, got %q", record[3])})
	}

	if len(errs) > 0 {
		return Row{}, errs
	}
	return Row{RoleName: record[0], Scope: scope, PermissionCode: code, Granted: granted}, nil
}

// parseGranted accepts exactly "true" and "false"; strconv.ParseBool is too
// permissive for an exchange format reviewed by humans.
func parseGranted(raw string) (bool, error) {
	switch raw {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("invalid granted value %q", raw)
}

// WriteCSV encodes rows in the exchange format.
func WriteCSV(w io.Writer, rows []Row) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.RoleName,
			string(row.Scope),
			row.PermissionCode.String(),
			strconv.FormatBool(row.Granted),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func equalHeader(header []string) bool {
	if len(header) != len(csvHeader) {
		return false
	}
	for i := range header {
		if header[i] != csvHeader[i] {
			return false
		}
	}
	return true
}
