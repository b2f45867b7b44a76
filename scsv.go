// Package scsv reads and mutates SuperCSV documents, a typed flavor of CSV
// that carries its own schema.
//
// A document is a block of column annotations, a "@@" separator and a CSV
// grid whose first record repeats the column names:
//
//	a: int
//	b: str
//	@@
//	a,b
//	1,x
//	2,y
//
// Every grid column must be annotated and every annotated column must
// appear in the grid. Cell text is decoded per the column's type on access
// and encoded back on writes. Documents opened from a file persist each
// mutation by rewriting the file under a cooperative cross-process lock.
package scsv

import (
	"os"
)

// Parse reads a document from memory. The document is detached: mutations
// succeed but nothing is persisted.
func Parse(content string) (*Document, error) {
	return parseDocument(content)
}

// Open reads and parses the document at path. Mutations on the returned
// document rewrite the file.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errorf(CodeStorage, "read %s", path).wrap(err)
	}
	d, err := parseDocument(string(data))
	if err != nil {
		return nil, err
	}
	d.path = path
	return d, nil
}
