package scsv

import (
	"encoding/csv"
	"strings"
)

// sep splits the annotation header from the CSV grid. Only the first
// occurrence counts; later ones belong to the grid.
const sep = "@@"

func parseDocument(content string) (*Document, error) {
	head, tail, found := strings.Cut(content, sep)
	if !found {
		return nil, errorf(CodeParse, "header separator %q not found", sep)
	}
	annotations, err := parseHeader(head)
	if err != nil {
		return nil, err
	}
	fields, rows, err := parseGrid(tail)
	if err != nil {
		return nil, err
	}
	if err := checkCoverage(annotations, fields); err != nil {
		return nil, err
	}
	return &Document{
		annotations: annotations,
		fields:      fields,
		rows:        rows,
		rawHeader:   head,
	}, nil
}

// parseHeader reads "COLUMN: TYPE" annotation lines. Blank lines are
// allowed anywhere in the header block.
func parseHeader(head string) (map[string]Type, error) {
	annotations := map[string]Type{}
	for _, line := range strings.Split(head, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		col, alias, found := strings.Cut(line, ":")
		if !found {
			return nil, errorf(CodeParse, "malformed header line %q: missing %q", line, ":")
		}
		col = strings.TrimSpace(col)
		alias = strings.TrimSpace(alias)
		t, ok := TypeFromAlias(alias)
		if !ok {
			return nil, errorf(CodeParse, "invalid data type for column %q: %q", col, alias).
				withDetail("column", col).
				withDetail("alias", alias)
		}
		if _, dup := annotations[col]; dup {
			return nil, errorf(CodeParse, "column %q declared twice", col).withDetail("column", col)
		}
		annotations[col] = t
	}
	return annotations, nil
}

// parseGrid reads the CSV block. The first record names the fields; every
// following record is a row. All records must have the same width.
func parseGrid(tail string) (fields []string, rows []map[string]string, err error) {
	block := strings.TrimSpace(tail)
	if block == "" {
		return nil, nil, errorf(CodeParse, "document has no field line")
	}
	records, err := csv.NewReader(strings.NewReader(block)).ReadAll()
	if err != nil {
		return nil, nil, errorf(CodeParse, "malformed grid").wrap(err)
	}
	fields = records[0]
	seen := map[string]bool{}
	for _, f := range fields {
		if seen[f] {
			return nil, nil, errorf(CodeParse, "field %q appears twice in the grid", f).withDetail("column", f)
		}
		seen[f] = true
	}
	rows = make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(fields))
		for i, f := range fields {
			row[f] = rec[i]
		}
		rows = append(rows, row)
	}
	return fields, rows, nil
}

// checkCoverage enforces that header annotations and grid fields name the
// same columns, in both directions.
func checkCoverage(annotations map[string]Type, fields []string) error {
	named := map[string]bool{}
	for _, f := range fields {
		if _, ok := annotations[f]; !ok {
			return errorf(CodeCoverage, "field %q is not annotated", f).withDetail("column", f)
		}
		named[f] = true
	}
	for col := range annotations {
		if !named[col] {
			return errorf(CodeCoverage, "annotated column %q does not appear in the grid", col).
				withDetail("column", col)
		}
	}
	return nil
}
