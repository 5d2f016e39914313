// Package content embeds the built-in curriculum. Each subject lives in its
// own directory with a subject.yaml manifest and one YAML file per topic.
package content

import (
	"embed"
	"io/fs"
)

//go:embed */*.yaml
var files embed.FS

// FS returns the embedded content tree with subject directories at its root.
func FS() fs.FS {
	return files
}
