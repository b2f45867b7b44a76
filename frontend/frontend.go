// Package frontend provides the embedded document viewer assets.
package frontend

import (
	"embed"
	"io/fs"
)

// Files contains the embedded web viewer.
//
//go:embed dist/*
var Files embed.FS

// Dist returns the viewer files rooted at the directory served as /.
func Dist() fs.FS {
	sub, err := fs.Sub(Files, "dist")
	if err != nil {
		panic(err)
	}
	return sub
}
