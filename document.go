package scsv

import (
	"bytes"
	"encoding/csv"
	"iter"
	"maps"
	"os"
	"slices"

	"github.com/7hebel/SuperCSV/internal/lockfile"
)

// Row maps column names to decoded values.
type Row map[string]Value

// Document is a parsed SuperCSV document. Rows are kept in their encoded
// grid form and decoded on access, so a malformed cell surfaces when read,
// not at parse time.
//
// A Document is not safe for concurrent mutation; callers that share one
// across goroutines must synchronize. Cross-process writers are coordinated
// through the sibling lock file during saves.
type Document struct {
	annotations map[string]Type
	fields      []string
	rows        []map[string]string
	path        string
	rawHeader   string
}

// Len returns the number of rows.
func (d *Document) Len() int {
	return len(d.rows)
}

// Path returns the backing file path, empty for in-memory documents.
func (d *Document) Path() string {
	return d.path
}

// Fields returns the column names in grid order.
func (d *Document) Fields() []string {
	return slices.Clone(d.fields)
}

// Types returns the column type annotations.
func (d *Document) Types() map[string]Type {
	return maps.Clone(d.annotations)
}

// TypeOf returns the declared type of a column.
func (d *Document) TypeOf(column string) (Type, bool) {
	t, ok := d.annotations[column]
	return t, ok
}

// Read decodes row i. It reports ok=false without an error when i is out of
// range; reads treat a missing row as an absent result, not a failure.
func (d *Document) Read(i int) (Row, bool, error) {
	if i < 0 || i >= len(d.rows) {
		return nil, false, nil
	}
	row, err := d.decodeRow(d.rows[i])
	if err != nil {
		return nil, false, err
	}
	return row, true, nil
}

// All iterates over every row in order. The iteration works on a snapshot
// taken when All is called, so mutating the document meanwhile is safe. A
// cell that fails to decode is yielded as the error and ends the iteration.
func (d *Document) All() iter.Seq2[Row, error] {
	snapshot := slices.Clone(d.rows)
	return func(yield func(Row, error) bool) {
		for _, enc := range snapshot {
			row, err := d.decodeRow(enc)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}

// Append adds a row at the end and saves. The row must carry a value for
// every declared column.
func (d *Document) Append(row Row) error {
	enc, err := d.encodeRow(row, nil)
	if err != nil {
		return err
	}
	d.rows = append(d.rows, enc)
	return d.save()
}

// UpdateRow replaces the named columns of row i and saves. Columns absent
// from row keep their stored values. Updating a row that does not exist is
// an error, unlike reading one.
func (d *Document) UpdateRow(i int, row Row) error {
	if err := d.checkIndex(i); err != nil {
		return err
	}
	enc, err := d.encodeRow(row, d.rows[i])
	if err != nil {
		return err
	}
	d.rows[i] = enc
	return d.save()
}

// UpdateField sets a single cell of row i and saves.
func (d *Document) UpdateField(i int, column string, v Value) error {
	return d.UpdateRow(i, Row{column: v})
}

// DeleteRow removes row i and saves.
func (d *Document) DeleteRow(i int) error {
	if err := d.checkIndex(i); err != nil {
		return err
	}
	d.rows = slices.Delete(d.rows, i, i+1)
	return d.save()
}

func (d *Document) checkIndex(i int) error {
	if i < 0 || i >= len(d.rows) {
		return errorf(CodeIndex, "row index %d out of range [0, %d)", i, len(d.rows)).
			withDetail("index", i)
	}
	return nil
}

// encodeRow encodes row into grid form. With a prev row, columns absent
// from row inherit prev's encoded cells; without one, every column is
// required. Any failure leaves the document untouched.
func (d *Document) encodeRow(row Row, prev map[string]string) (map[string]string, error) {
	for col := range row {
		if _, ok := d.annotations[col]; !ok {
			return nil, errorf(CodeUnknownColumn, "unknown column %q", col).withDetail("column", col)
		}
	}
	enc := make(map[string]string, len(d.fields))
	for _, f := range d.fields {
		v, ok := row[f]
		if !ok {
			if prev == nil {
				return nil, errorf(CodeMissingColumn, "missing value for column %q", f).withDetail("column", f)
			}
			enc[f] = prev[f]
			continue
		}
		s, err := d.annotations[f].Encode(v)
		if err != nil {
			return nil, errorf(CodeEncode, "column %q", f).withDetail("column", f).wrap(err)
		}
		enc[f] = s
	}
	return enc, nil
}

// RowFromJSON converts JSON column values into a Row using the declared
// column types. It is how request payloads and CLI literals become typed
// cells.
func (d *Document) RowFromJSON(values map[string]JSON) (Row, error) {
	row := make(Row, len(values))
	for col, j := range values {
		t, ok := d.annotations[col]
		if !ok {
			return nil, errorf(CodeUnknownColumn, "unknown column %q", col).withDetail("column", col)
		}
		v, err := t.FromJSON(j)
		if err != nil {
			return nil, errorf(CodeEncode, "column %q", col).withDetail("column", col).wrap(err)
		}
		row[col] = v
	}
	return row, nil
}

func (d *Document) decodeRow(enc map[string]string) (Row, error) {
	row := make(Row, len(d.fields))
	for _, f := range d.fields {
		v, err := d.annotations[f].Decode(enc[f])
		if err != nil {
			return nil, errorf(CodeDecode, "column %q", f).withDetail("column", f).wrap(err)
		}
		row[f] = v
	}
	return row, nil
}

// Bytes serializes the document. The annotation header is reproduced
// verbatim as parsed; only the grid is re-rendered.
func (d *Document) Bytes() ([]byte, error) {
	return d.serialize()
}

func (d *Document) serialize() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(d.rawHeader)
	buf.WriteString(sep)
	buf.WriteByte('\n')
	w := csv.NewWriter(&buf)
	if err := w.Write(d.fields); err != nil {
		return nil, errorf(CodeStorage, "render grid").wrap(err)
	}
	rec := make([]string, len(d.fields))
	for _, row := range d.rows {
		for i, f := range d.fields {
			rec[i] = row[f]
		}
		if err := w.Write(rec); err != nil {
			return nil, errorf(CodeStorage, "render grid").wrap(err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errorf(CodeStorage, "render grid").wrap(err)
	}
	return buf.Bytes(), nil
}

// save rewrites the whole backing file under the cross-process lock.
// Serialization happens before the lock is taken so an encode problem never
// holds it. In-memory documents skip persistence.
func (d *Document) save() error {
	if d.path == "" {
		return nil
	}
	data, err := d.serialize()
	if err != nil {
		return err
	}
	lock, err := lockfile.Acquire(d.path)
	if err != nil {
		return errorf(CodeStorage, "lock %s", d.path).wrap(err)
	}
	defer func() {
		_ = lock.Release()
	}()
	if err := os.WriteFile(d.path, data, 0o644); err != nil {
		return errorf(CodeStorage, "write %s", d.path).wrap(err)
	}
	return nil
}
