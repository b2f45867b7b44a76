package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	scsv "github.com/7hebel/SuperCSV"
	"github.com/7hebel/SuperCSV/internal/history"
)

// parseIndex converts a row index argument.
func parseIndex(arg string) (int, error) {
	i, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("row index %q is not a number", arg)
	}
	return i, nil
}

// literalJSON interprets a command line literal through the column's
// declared type, so age=30 and name=30 both do what they look like.
func literalJSON(t scsv.Type, raw string) (scsv.JSON, error) {
	switch t {
	case scsv.TypeString:
		return scsv.StringJSON(raw), nil
	case scsv.TypeInteger, scsv.TypeFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return scsv.JSON{}, fmt.Errorf("%q is not a number", raw)
		}
		return scsv.NumberJSON(f), nil
	case scsv.TypeBoolean:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return scsv.JSON{}, fmt.Errorf("%q is not a boolean", raw)
		}
		return scsv.BoolJSON(b), nil
	case scsv.TypeDateTime:
		// POSIX seconds or an RFC 3339 string; the document validates.
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return scsv.NumberJSON(f), nil
		}
		return scsv.StringJSON(raw), nil
	case scsv.TypeArray, scsv.TypeObject:
		var v scsv.JSON
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return scsv.JSON{}, fmt.Errorf("%s column wants JSON text: %w", t, err)
		}
		return v, nil
	}
	return scsv.JSON{}, fmt.Errorf("unsupported column type %s", t)
}

// parseAssignments turns "column=value" arguments into JSON values, each
// literal read through its column's declared type.
func parseAssignments(doc *scsv.Document, args []string) (map[string]scsv.JSON, error) {
	values := make(map[string]scsv.JSON, len(args))
	for _, arg := range args {
		column, raw, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("argument %q is not of the form column=value", arg)
		}
		t, ok := doc.TypeOf(column)
		if !ok {
			return nil, fmt.Errorf("no column %q", column)
		}
		v, err := literalJSON(t, raw)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", column, err)
		}
		values[column] = v
	}
	return values, nil
}

// printTable renders the document as an aligned text table.
func printTable(w io.Writer, doc *scsv.Document) error {
	tw := tabwriter.NewWriter(w, 2, 8, 2, ' ', 0)
	header := make([]string, 0, len(doc.Fields()))
	for _, f := range doc.Fields() {
		t, _ := doc.TypeOf(f)
		header = append(header, fmt.Sprintf("%s (%s)", f, t))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for row, err := range doc.All() {
		if err != nil {
			return err
		}
		cells := make([]string, 0, len(doc.Fields()))
		for _, f := range doc.Fields() {
			cells = append(cells, row[f].String())
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// recordHistory commits the document's state to the revision store in its
// directory. Failures are logged, not returned; the document write already
// succeeded.
func recordHistory(path, msg string) {
	hist, err := history.Open(filepath.Dir(path))
	if err != nil {
		slog.Warn("Failed to open history", "err", err)
		return
	}
	if err := hist.Commit(filepath.Base(path), msg); err != nil {
		slog.Warn("Failed to record history", "err", err)
	}
}
