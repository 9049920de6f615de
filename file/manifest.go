package file

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/pilosa/ecomgen"
)

// ManifestName is the name of the manifest file in a dataset directory.
const ManifestName = "manifest.json"

// Manifest describes the contents of a dataset directory.
type Manifest struct {
	Seed     int64            `json:"seed"`
	Epoch    time.Time        `json:"epoch"`
	Counts   map[string]int64 `json:"counts"`
	Rejected int              `json:"rejected"`
	Files    []string         `json:"files"`
}

// Count returns the number of records of kind k listed in the manifest.
func (m *Manifest) Count(k ecomgen.Kind) int64 {
	return m.Counts[k.Collection()]
}

// FileName is the name of the file holding records of kind k.
func FileName(k ecomgen.Kind) string {
	return k.Collection() + ".jsonl"
}

// ReadManifest reads the manifest of the dataset in dir.
func ReadManifest(dir string) (*Manifest, error) {
	name := filepath.Join(dir, ManifestName)
	data, err := ioutil.ReadFile(name)
	if err != nil {
		return nil, &ecomgen.IOError{Path: name, Err: err}
	}
	m := &Manifest{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, &ecomgen.IOError{Path: name, Err: err}
	}
	return m, nil
}

func writeManifest(dir string, m *Manifest) error {
	name := filepath.Join(dir, ManifestName)
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return &ecomgen.IOError{Path: name, Err: err}
	}
	if err := ioutil.WriteFile(name, append(data, '\n'), 0644); err != nil {
		return &ecomgen.IOError{Path: name, Err: err}
	}
	return nil
}

// Exists reports whether dir holds a dataset manifest.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ManifestName))
	return err == nil
}
