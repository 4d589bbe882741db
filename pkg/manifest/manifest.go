// Package manifest extracts the default branch declared by a repo-tool
// style multi-repository manifest.
package manifest

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Candidate manifest file names, checked in order.
var fileNames = []string{"manifest.xml", "default.xml"}

// ParseError reports a manifest file that exists but cannot be parsed.
// Callers treat it as "no declared branch" rather than a fatal failure.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse manifest %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type manifestXML struct {
	XMLName xml.Name   `xml:"manifest"`
	Default defaultXML `xml:"default"`
}

type defaultXML struct {
	Revision string `xml:"revision,attr"`
}

// Find scans root for a manifest file and returns its declared default
// branch. A missing manifest is not an error: it yields an empty branch
// name, deferring to the next branch-resolution precedence level.
func Find(root string) (string, error) {
	for _, name := range fileNames {
		path := filepath.Join(root, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", &ParseError{Path: path, Err: err}
		}
		return parse(path, data)
	}
	return "", nil
}

func parse(path string, data []byte) (string, error) {
	var m manifestXML
	if err := xml.Unmarshal(data, &m); err != nil {
		return "", &ParseError{Path: path, Err: err}
	}
	revision := strings.TrimSpace(m.Default.Revision)
	// Manifests commonly qualify the revision as a full ref name.
	revision = strings.TrimPrefix(revision, "refs/heads/")
	return revision, nil
}
