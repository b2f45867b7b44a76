package scsv

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/7hebel/SuperCSV/internal/lockfile"
)

func mustParse(t *testing.T, content string) *Document {
	t.Helper()
	d, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	return d
}

func TestRead(t *testing.T) {
	d := mustParse(t, sampleDoc)

	t.Run("valid", func(t *testing.T) {
		row, ok, err := d.Read(0)
		if err != nil {
			t.Fatalf("Read error: %v", err)
		}
		if !ok {
			t.Fatal("Read(0) ok = false, want true")
		}
		if got, _ := row["a"].AsInt(); got != 1 {
			t.Errorf("row[a] = %d, want 1", got)
		}
		if got, _ := row["b"].AsString(); got != "x" {
			t.Errorf("row[b] = %q, want \"x\"", got)
		}
	})

	t.Run("out of range is absent, not an error", func(t *testing.T) {
		for _, i := range []int{2, 100, -1} {
			row, ok, err := d.Read(i)
			if err != nil {
				t.Errorf("Read(%d) error: %v, want nil", i, err)
			}
			if ok {
				t.Errorf("Read(%d) ok = true, want false", i)
			}
			if row != nil {
				t.Errorf("Read(%d) row = %v, want nil", i, row)
			}
		}
	})

	t.Run("malformed cell surfaces on read", func(t *testing.T) {
		// Parsing does not decode cells, so a bad cell parses fine and fails
		// here.
		bad := mustParse(t, "a: int\n@@\na\nbogus\n")
		row, ok, err := bad.Read(0)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if CodeOf(err) != CodeDecode {
			t.Errorf("CodeOf() = %q, want %q", CodeOf(err), CodeDecode)
		}
		if ok || row != nil {
			t.Errorf("failed Read returned %v, %v, want nil, false", row, ok)
		}
	})
}

func TestAll(t *testing.T) {
	t.Run("in order", func(t *testing.T) {
		d := mustParse(t, sampleDoc)
		var got []int64
		for row, err := range d.All() {
			if err != nil {
				t.Fatalf("All yielded error: %v", err)
			}
			n, _ := row["a"].AsInt()
			got = append(got, n)
		}
		if !reflect.DeepEqual(got, []int64{1, 2}) {
			t.Errorf("All() order = %v, want [1 2]", got)
		}
	})

	t.Run("early break", func(t *testing.T) {
		d := mustParse(t, sampleDoc)
		n := 0
		for _, err := range d.All() {
			if err != nil {
				t.Fatalf("All yielded error: %v", err)
			}
			n++
			break
		}
		if n != 1 {
			t.Errorf("visited %d rows, want 1", n)
		}
	})

	t.Run("snapshot ignores later mutations", func(t *testing.T) {
		d := mustParse(t, sampleDoc)
		seq := d.All()
		if err := d.Append(Row{"a": Int(3), "b": Str("z")}); err != nil {
			t.Fatalf("Append error: %v", err)
		}
		n := 0
		for _, err := range seq {
			if err != nil {
				t.Fatalf("All yielded error: %v", err)
			}
			n++
		}
		if n != 2 {
			t.Errorf("snapshot visited %d rows, want 2", n)
		}
		if d.Len() != 3 {
			t.Errorf("Len() = %d, want 3", d.Len())
		}
	})

	t.Run("decode failure ends the iteration", func(t *testing.T) {
		d := mustParse(t, "a: int\n@@\na\n1\nbogus\n7\n")
		var rows int
		var sawErr error
		for row, err := range d.All() {
			if err != nil {
				sawErr = err
				continue
			}
			_ = row
			rows++
		}
		if rows != 1 {
			t.Errorf("yielded %d good rows, want 1", rows)
		}
		if sawErr == nil {
			t.Fatal("expected a yielded error, got none")
		}
		if CodeOf(sawErr) != CodeDecode {
			t.Errorf("CodeOf() = %q, want %q", CodeOf(sawErr), CodeDecode)
		}
	})
}

func TestAppend(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		d := mustParse(t, sampleDoc)
		if err := d.Append(Row{"a": Int(3), "b": Str("z")}); err != nil {
			t.Fatalf("Append error: %v", err)
		}
		if d.Len() != 3 {
			t.Errorf("Len() = %d, want 3", d.Len())
		}
		row, ok, err := d.Read(2)
		if err != nil || !ok {
			t.Fatalf("Read(2) = %v, %v, %v", row, ok, err)
		}
		if got, _ := row["a"].AsInt(); got != 3 {
			t.Errorf("row[a] = %d, want 3", got)
		}
	})

	t.Run("missing column", func(t *testing.T) {
		d := mustParse(t, sampleDoc)
		err := d.Append(Row{"a": Int(3)})
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if CodeOf(err) != CodeMissingColumn {
			t.Errorf("CodeOf() = %q, want %q", CodeOf(err), CodeMissingColumn)
		}
		if d.Len() != 2 {
			t.Errorf("failed Append changed Len() to %d, want 2", d.Len())
		}
	})

	t.Run("unknown column", func(t *testing.T) {
		d := mustParse(t, sampleDoc)
		err := d.Append(Row{"a": Int(3), "b": Str("z"), "c": Int(1)})
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if CodeOf(err) != CodeUnknownColumn {
			t.Errorf("CodeOf() = %q, want %q", CodeOf(err), CodeUnknownColumn)
		}
		if d.Len() != 2 {
			t.Errorf("failed Append changed Len() to %d, want 2", d.Len())
		}
	})

	t.Run("encode failure", func(t *testing.T) {
		d := mustParse(t, sampleDoc)
		err := d.Append(Row{"a": Str("not an int"), "b": Str("z")})
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if CodeOf(err) != CodeEncode {
			t.Errorf("CodeOf() = %q, want %q", CodeOf(err), CodeEncode)
		}
		if d.Len() != 2 {
			t.Errorf("failed Append changed Len() to %d, want 2", d.Len())
		}
	})
}

func TestUpdateRow(t *testing.T) {
	t.Run("merge keeps omitted columns", func(t *testing.T) {
		d := mustParse(t, sampleDoc)
		if err := d.UpdateRow(0, Row{"a": Int(9)}); err != nil {
			t.Fatalf("UpdateRow error: %v", err)
		}
		row, ok, err := d.Read(0)
		if err != nil || !ok {
			t.Fatalf("Read(0) = %v, %v, %v", row, ok, err)
		}
		if got, _ := row["a"].AsInt(); got != 9 {
			t.Errorf("row[a] = %d, want 9", got)
		}
		if got, _ := row["b"].AsString(); got != "x" {
			t.Errorf("row[b] = %q, want \"x\" (kept)", got)
		}
	})

	t.Run("full replacement", func(t *testing.T) {
		d := mustParse(t, sampleDoc)
		if err := d.UpdateRow(1, Row{"a": Int(20), "b": Str("yy")}); err != nil {
			t.Fatalf("UpdateRow error: %v", err)
		}
		row, _, err := d.Read(1)
		if err != nil {
			t.Fatalf("Read(1) error: %v", err)
		}
		if got, _ := row["a"].AsInt(); got != 20 {
			t.Errorf("row[a] = %d, want 20", got)
		}
		if got, _ := row["b"].AsString(); got != "yy" {
			t.Errorf("row[b] = %q, want \"yy\"", got)
		}
	})

	t.Run("out of range", func(t *testing.T) {
		d := mustParse(t, sampleDoc)
		for _, i := range []int{2, 100, -1} {
			err := d.UpdateRow(i, Row{"a": Int(0)})
			if err == nil {
				t.Fatalf("UpdateRow(%d) expected error, got nil", i)
			}
			if CodeOf(err) != CodeIndex {
				t.Errorf("UpdateRow(%d) CodeOf() = %q, want %q", i, CodeOf(err), CodeIndex)
			}
		}
	})

	t.Run("unknown column", func(t *testing.T) {
		d := mustParse(t, sampleDoc)
		err := d.UpdateRow(0, Row{"nope": Int(1)})
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if CodeOf(err) != CodeUnknownColumn {
			t.Errorf("CodeOf() = %q, want %q", CodeOf(err), CodeUnknownColumn)
		}
	})

	t.Run("failed update leaves the row untouched", func(t *testing.T) {
		d := mustParse(t, sampleDoc)
		err := d.UpdateRow(0, Row{"a": Str("nope")})
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if CodeOf(err) != CodeEncode {
			t.Errorf("CodeOf() = %q, want %q", CodeOf(err), CodeEncode)
		}
		row, _, err := d.Read(0)
		if err != nil {
			t.Fatalf("Read(0) error: %v", err)
		}
		if got, _ := row["a"].AsInt(); got != 1 {
			t.Errorf("row[a] = %d, want 1 (unchanged)", got)
		}
	})
}

func TestUpdateField(t *testing.T) {
	d := mustParse(t, sampleDoc)
	if err := d.UpdateField(1, "b", Str("zz")); err != nil {
		t.Fatalf("UpdateField error: %v", err)
	}
	row, _, err := d.Read(1)
	if err != nil {
		t.Fatalf("Read(1) error: %v", err)
	}
	if got, _ := row["b"].AsString(); got != "zz" {
		t.Errorf("row[b] = %q, want \"zz\"", got)
	}
	if got, _ := row["a"].AsInt(); got != 2 {
		t.Errorf("row[a] = %d, want 2 (kept)", got)
	}

	if err := d.UpdateField(0, "nope", Int(1)); CodeOf(err) != CodeUnknownColumn {
		t.Errorf("CodeOf() = %q, want %q", CodeOf(err), CodeUnknownColumn)
	}
	if err := d.UpdateField(9, "b", Str("x")); CodeOf(err) != CodeIndex {
		t.Errorf("CodeOf() = %q, want %q", CodeOf(err), CodeIndex)
	}
}

func TestDeleteRow(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		d := mustParse(t, sampleDoc)
		if err := d.DeleteRow(0); err != nil {
			t.Fatalf("DeleteRow error: %v", err)
		}
		if d.Len() != 1 {
			t.Errorf("Len() = %d, want 1", d.Len())
		}
		row, _, err := d.Read(0)
		if err != nil {
			t.Fatalf("Read(0) error: %v", err)
		}
		if got, _ := row["a"].AsInt(); got != 2 {
			t.Errorf("row[a] = %d, want 2 (rows shifted)", got)
		}
	})

	t.Run("out of range", func(t *testing.T) {
		d := mustParse(t, sampleDoc)
		for _, i := range []int{2, -1} {
			if err := d.DeleteRow(i); CodeOf(err) != CodeIndex {
				t.Errorf("DeleteRow(%d) CodeOf() = %q, want %q", i, CodeOf(err), CodeIndex)
			}
		}
	})
}

// TestIndexAsymmetry pins the intended difference between reads and
// mutations: reading a missing row is an absent result, mutating one is an
// INDEX error.
func TestIndexAsymmetry(t *testing.T) {
	d := mustParse(t, sampleDoc)

	if _, ok, err := d.Read(5); ok || err != nil {
		t.Errorf("Read(5) = _, %v, %v, want false, nil", ok, err)
	}
	if err := d.UpdateRow(5, Row{"a": Int(0)}); CodeOf(err) != CodeIndex {
		t.Errorf("UpdateRow(5) CodeOf() = %q, want %q", CodeOf(err), CodeIndex)
	}
	if err := d.UpdateField(5, "a", Int(0)); CodeOf(err) != CodeIndex {
		t.Errorf("UpdateField(5) CodeOf() = %q, want %q", CodeOf(err), CodeIndex)
	}
	if err := d.DeleteRow(5); CodeOf(err) != CodeIndex {
		t.Errorf("DeleteRow(5) CodeOf() = %q, want %q", CodeOf(err), CodeIndex)
	}
}

func TestRowFromJSON(t *testing.T) {
	d := mustParse(t, sampleDoc)

	t.Run("valid", func(t *testing.T) {
		row, err := d.RowFromJSON(map[string]JSON{"a": NumberJSON(5), "b": StringJSON("v")})
		if err != nil {
			t.Fatalf("RowFromJSON error: %v", err)
		}
		if got, _ := row["a"].AsInt(); got != 5 {
			t.Errorf("row[a] = %d, want 5", got)
		}
		if got, _ := row["b"].AsString(); got != "v" {
			t.Errorf("row[b] = %q, want \"v\"", got)
		}
	})

	t.Run("unknown column", func(t *testing.T) {
		_, err := d.RowFromJSON(map[string]JSON{"nope": NumberJSON(1)})
		if CodeOf(err) != CodeUnknownColumn {
			t.Errorf("CodeOf() = %q, want %q", CodeOf(err), CodeUnknownColumn)
		}
	})

	t.Run("wrong value shape", func(t *testing.T) {
		_, err := d.RowFromJSON(map[string]JSON{"a": StringJSON("five")})
		if CodeOf(err) != CodeEncode {
			t.Errorf("CodeOf() = %q, want %q", CodeOf(err), CodeEncode)
		}
	})
}

func TestBytes(t *testing.T) {
	t.Run("untouched document serializes byte-identical", func(t *testing.T) {
		d := mustParse(t, sampleDoc)
		got, err := d.Bytes()
		if err != nil {
			t.Fatalf("Bytes error: %v", err)
		}
		if string(got) != sampleDoc {
			t.Errorf("Bytes() = %q, want %q", got, sampleDoc)
		}
	})

	t.Run("header formatting survives verbatim", func(t *testing.T) {
		const content = "name:str\n\nAge:  INT\n@@\nname,Age\nalice,30\n"
		d := mustParse(t, content)
		got, err := d.Bytes()
		if err != nil {
			t.Fatalf("Bytes error: %v", err)
		}
		if string(got) != content {
			t.Errorf("Bytes() = %q, want %q", got, content)
		}
	})

	t.Run("round trip", func(t *testing.T) {
		d := mustParse(t, sampleDoc)
		if err := d.Append(Row{"a": Int(3), "b": Str("c,d")}); err != nil {
			t.Fatalf("Append error: %v", err)
		}
		data, err := d.Bytes()
		if err != nil {
			t.Fatalf("Bytes error: %v", err)
		}
		again := mustParse(t, string(data))
		if again.Len() != 3 {
			t.Errorf("Len() = %d, want 3", again.Len())
		}
		row, _, err := again.Read(2)
		if err != nil {
			t.Fatalf("Read(2) error: %v", err)
		}
		if got, _ := row["b"].AsString(); got != "c,d" {
			t.Errorf("row[b] = %q, want \"c,d\"", got)
		}
	})
}

func TestOpen(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "doc.scsv")
		if err := os.WriteFile(path, []byte(sampleDoc), 0o644); err != nil {
			t.Fatal(err)
		}
		d, err := Open(path)
		if err != nil {
			t.Fatalf("Open error: %v", err)
		}
		if d.Path() != path {
			t.Errorf("Path() = %q, want %q", d.Path(), path)
		}
		if d.Len() != 2 {
			t.Errorf("Len() = %d, want 2", d.Len())
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Open(filepath.Join(t.TempDir(), "absent.scsv"))
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if CodeOf(err) != CodeStorage {
			t.Errorf("CodeOf() = %q, want %q", CodeOf(err), CodeStorage)
		}
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.scsv")
		if err := os.WriteFile(path, []byte("no separator here\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := Open(path)
		if CodeOf(err) != CodeParse {
			t.Errorf("CodeOf() = %q, want %q", CodeOf(err), CodeParse)
		}
	})
}

func TestPersistence(t *testing.T) {
	t.Run("mutations rewrite the file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "doc.scsv")
		if err := os.WriteFile(path, []byte(sampleDoc), 0o644); err != nil {
			t.Fatal(err)
		}
		d, err := Open(path)
		if err != nil {
			t.Fatalf("Open error: %v", err)
		}
		if err := d.UpdateField(0, "b", Str("updated")); err != nil {
			t.Fatalf("UpdateField error: %v", err)
		}

		again, err := Open(path)
		if err != nil {
			t.Fatalf("re-Open error: %v", err)
		}
		row, _, err := again.Read(0)
		if err != nil {
			t.Fatalf("Read(0) error: %v", err)
		}
		if got, _ := row["b"].AsString(); got != "updated" {
			t.Errorf("row[b] = %q, want \"updated\"", got)
		}
	})

	t.Run("only the touched cell changes on disk", func(t *testing.T) {
		const content = "name:str\n\nAge:  INT\n@@\nname,Age\nalice,30\nbob,25\n"
		path := filepath.Join(t.TempDir(), "people.scsv")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		d, err := Open(path)
		if err != nil {
			t.Fatalf("Open error: %v", err)
		}
		if err := d.UpdateField(0, "Age", Int(31)); err != nil {
			t.Fatalf("UpdateField error: %v", err)
		}

		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		const want = "name:str\n\nAge:  INT\n@@\nname,Age\nalice,31\nbob,25\n"
		if string(got) != want {
			t.Errorf("file after update = %q, want %q", got, want)
		}
	})

	t.Run("append and delete persist", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "doc.scsv")
		if err := os.WriteFile(path, []byte(sampleDoc), 0o644); err != nil {
			t.Fatal(err)
		}
		d, err := Open(path)
		if err != nil {
			t.Fatalf("Open error: %v", err)
		}
		if err := d.Append(Row{"a": Int(3), "b": Str("z")}); err != nil {
			t.Fatalf("Append error: %v", err)
		}
		if err := d.DeleteRow(0); err != nil {
			t.Fatalf("DeleteRow error: %v", err)
		}

		again, err := Open(path)
		if err != nil {
			t.Fatalf("re-Open error: %v", err)
		}
		if again.Len() != 2 {
			t.Errorf("Len() = %d, want 2", again.Len())
		}
		row, _, err := again.Read(0)
		if err != nil {
			t.Fatalf("Read(0) error: %v", err)
		}
		if got, _ := row["a"].AsInt(); got != 2 {
			t.Errorf("row[a] = %d, want 2", got)
		}
	})

	t.Run("saves leave a lock file behind", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "doc.scsv")
		if err := os.WriteFile(path, []byte(sampleDoc), 0o644); err != nil {
			t.Fatal(err)
		}
		d, err := Open(path)
		if err != nil {
			t.Fatalf("Open error: %v", err)
		}
		if err := d.DeleteRow(1); err != nil {
			t.Fatalf("DeleteRow error: %v", err)
		}

		owner, err := lockfile.ReadOwner(path)
		if err != nil {
			t.Fatalf("ReadOwner error: %v", err)
		}
		if owner.PID != os.Getpid() {
			t.Errorf("owner PID = %d, want %d", owner.PID, os.Getpid())
		}
		if owner.AcquiredAt.IsZero() {
			t.Error("owner AcquiredAt is zero")
		}
	})

	t.Run("every column type survives a file cycle", func(t *testing.T) {
		const content = "id: int\nratio: f\nname: str\nok: bool\ntags: arr\nseen: dt\nmeta: obj\n" +
			"@@\nid,ratio,name,ok,tags,seen,meta\n"
		path := filepath.Join(t.TempDir(), "all.scsv")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		d, err := Open(path)
		if err != nil {
			t.Fatalf("Open error: %v", err)
		}
		seen := time.Unix(1700000000, 250000000)
		row := Row{
			"id":    Int(7),
			"ratio": Float(0.75),
			"name":  Str("box, large"),
			"ok":    Bool(false),
			"tags":  Array(Str("red"), Int(3), Bool(true)),
			"seen":  Time(seen),
			"meta":  Object(ObjectJSON(map[string]JSON{"depth": NumberJSON(2)})),
		}
		if err := d.Append(row); err != nil {
			t.Fatalf("Append error: %v", err)
		}

		again, err := Open(path)
		if err != nil {
			t.Fatalf("re-Open error: %v", err)
		}
		got, ok, err := again.Read(0)
		if err != nil || !ok {
			t.Fatalf("Read(0) = %v, %v, %v", got, ok, err)
		}
		if v, _ := got["id"].AsInt(); v != 7 {
			t.Errorf("id = %d, want 7", v)
		}
		if v, _ := got["ratio"].AsFloat(); v != 0.75 {
			t.Errorf("ratio = %v, want 0.75", v)
		}
		if v, _ := got["name"].AsString(); v != "box, large" {
			t.Errorf("name = %q, want \"box, large\"", v)
		}
		if v, _ := got["ok"].AsBool(); v {
			t.Error("ok = true, want false")
		}
		if !reflect.DeepEqual(got["tags"], row["tags"]) {
			t.Errorf("tags = %#v, want %#v", got["tags"], row["tags"])
		}
		if v, _ := got["seen"].AsTime(); !v.Equal(seen) {
			t.Errorf("seen = %v, want %v", v, seen)
		}
		if !reflect.DeepEqual(got["meta"], row["meta"]) {
			t.Errorf("meta = %#v, want %#v", got["meta"], row["meta"])
		}
	})
}

func BenchmarkParse(b *testing.B) {
	for b.Loop() {
		_, _ = Parse(sampleDoc)
	}
}

func BenchmarkRead(b *testing.B) {
	d, err := Parse(sampleDoc)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for b.Loop() {
		_, _, _ = d.Read(1)
	}
}

func BenchmarkBytes(b *testing.B) {
	d, err := Parse(sampleDoc)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for b.Loop() {
		_, _ = d.Bytes()
	}
}
