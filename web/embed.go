// Package web bundles the board's front end.
package web

import (
	"embed"
	"io/fs"
	"log"
	"os"
)

//go:embed static templates
var content embed.FS

// StaticFS returns the static assets. A non-empty dir serves assets from disk
// instead of the embedded bundle.
func StaticFS(dir string) fs.FS {
	if dir != "" {
		return os.DirFS(dir)
	}
	sub, err := fs.Sub(content, "static")
	if err != nil {
		log.Fatalf("failed to create static sub-filesystem: %v", err)
	}
	return sub
}

// TemplatesFS returns the templates file system.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(content, "templates")
	if err != nil {
		log.Fatalf("failed to create templates sub-filesystem: %v", err)
	}
	return sub
}
