// Package h5ptest builds in-memory H5P packages for tests.
package h5ptest

import (
	"archive/zip"
	"bytes"
	"sort"
)

// EssayManifest is a minimal h5p.json for an Essay package.
const EssayManifest = `{
  "title": "Basic essay",
  "language": "en",
  "mainLibrary": "H5P.Essay",
  "embedTypes": ["iframe"],
  "preloadedDependencies": [
    {"machineName": "H5P.Essay", "majorVersion": 1, "minorVersion": 5},
    {"machineName": "H5P.Question", "majorVersion": 1, "minorVersion": 5}
  ]
}`

// EssayLibrary is the library.json of H5P.Essay 1.5.
const EssayLibrary = `{"title": "Essay", "machineName": "H5P.Essay", "majorVersion": 1, "minorVersion": 5}`

// Build zips files (name to content) in a stable order.
func Build(files map[string]string) ([]byte, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	for _, name := range names {
		entry, err := writer.Create(name)
		if err != nil {
			return nil, err
		}
		if _, err := entry.Write([]byte(files[name])); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Essay returns a well formed Essay package.
func Essay() ([]byte, error) {
	return Build(map[string]string{
		"h5p.json":                   EssayManifest,
		"content/content.json":       `{"taskDescription": "Write about Go"}`,
		"H5P.Essay-1.5/library.json": EssayLibrary,
	})
}

// NoManifest returns a zip without h5p.json.
func NoManifest() ([]byte, error) {
	return Build(map[string]string{
		"content/content.json": `{}`,
	})
}

// Unzippable returns bytes that are not a zip archive.
func Unzippable() []byte {
	return []byte("this is not an h5p package at all, just plain text")
}
