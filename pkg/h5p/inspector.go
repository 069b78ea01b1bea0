// Package h5p reads metadata out of H5P content packages.
package h5p

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/microcosm-cc/bluemonday"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	// ErrNotZip indicates the package bytes are not a zip archive.
	ErrNotZip = errors.New("h5p package is not a zip archive")
	// ErrMissingManifest indicates the archive has no h5p.json.
	ErrMissingManifest = errors.New("h5p package has no h5p.json")
	// ErrInvalidManifest indicates h5p.json failed to parse or validate.
	ErrInvalidManifest = errors.New("h5p package has an invalid h5p.json")
)

const (
	manifestName     = "h5p.json"
	manifestSchemaID = "h5p.schema.json"
	maxManifestBytes = 1 << 20
)

const manifestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["mainLibrary", "preloadedDependencies"],
  "properties": {
    "title": {"type": "string"},
    "mainLibrary": {"type": "string", "minLength": 1},
    "preloadedDependencies": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["machineName", "majorVersion", "minorVersion"],
        "properties": {
          "machineName": {"type": "string", "minLength": 1},
          "majorVersion": {"type": ["integer", "string"]},
          "minorVersion": {"type": ["integer", "string"]}
        }
      }
    }
  }
}`

// Dependency is a library reference inside h5p.json.
type Dependency struct {
	MachineName  string      `json:"machineName"`
	MajorVersion json.Number `json:"majorVersion"`
	MinorVersion json.Number `json:"minorVersion"`
}

// Manifest is the subset of h5p.json the service relies on.
type Manifest struct {
	Title                 string       `json:"title"`
	MainLibrary           string       `json:"mainLibrary"`
	PreloadedDependencies []Dependency `json:"preloadedDependencies"`
}

// MainDependency returns the preloaded dependency matching the main library.
func (m Manifest) MainDependency() (Dependency, bool) {
	for _, dep := range m.PreloadedDependencies {
		if dep.MachineName == m.MainLibrary {
			return dep, true
		}
	}
	return Dependency{}, false
}

type libraryDescriptor struct {
	Title string `json:"title"`
}

// Inspector extracts content type information from H5P packages.
type Inspector struct {
	schema    *jsonschema.Schema
	sanitizer *bluemonday.Policy
}

// NewInspector compiles the manifest schema.
func NewInspector() (*Inspector, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(manifestSchemaID, strings.NewReader(manifestSchema)); err != nil {
		return nil, fmt.Errorf("load h5p manifest schema: %w", err)
	}
	schema, err := compiler.Compile(manifestSchemaID)
	if err != nil {
		return nil, fmt.Errorf("compile h5p manifest schema: %w", err)
	}

	return &Inspector{schema: schema, sanitizer: bluemonday.StrictPolicy()}, nil
}

// ContentType returns the human readable content type title of the package, e.g. "Essay".
func (i *Inspector) ContentType(data []byte) (string, error) {
	archive, err := openArchive(data)
	if err != nil {
		return "", err
	}

	manifest, err := i.readManifest(archive)
	if err != nil {
		return "", err
	}

	title := ""
	if dep, ok := manifest.MainDependency(); ok {
		title = libraryTitle(archive, dep)
	}
	if title == "" {
		title = machineNameTitle(manifest.MainLibrary)
	}

	title = strings.TrimSpace(html.UnescapeString(i.sanitizer.Sanitize(title)))
	if title == "" {
		return "", ErrInvalidManifest
	}
	return title, nil
}

// ReadManifest parses and validates the h5p.json of a package.
func (i *Inspector) ReadManifest(data []byte) (Manifest, error) {
	archive, err := openArchive(data)
	if err != nil {
		return Manifest{}, err
	}
	return i.readManifest(archive)
}

func openArchive(data []byte) (*zip.Reader, error) {
	if !isZip(data) {
		return nil, ErrNotZip
	}
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotZip, err)
	}
	return archive, nil
}

func isZip(data []byte) bool {
	for mime := mimetype.Detect(data); mime != nil; mime = mime.Parent() {
		if mime.Is("application/zip") {
			return true
		}
	}
	return false
}

func (i *Inspector) readManifest(archive *zip.Reader) (Manifest, error) {
	raw, err := readEntry(archive, manifestName)
	if err != nil {
		return Manifest{}, err
	}
	if raw == nil {
		return Manifest{}, ErrMissingManifest
	}

	var document interface{}
	if err := json.Unmarshal(raw, &document); err != nil {
		return Manifest{}, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if err := i.schema.Validate(document); err != nil {
		return Manifest{}, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}

	var manifest Manifest
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&manifest); err != nil {
		return Manifest{}, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	return manifest, nil
}

func libraryTitle(archive *zip.Reader, dep Dependency) string {
	name := fmt.Sprintf("%s-%s.%s/library.json", dep.MachineName, dep.MajorVersion, dep.MinorVersion)
	raw, err := readEntry(archive, name)
	if err != nil || raw == nil {
		return ""
	}
	var descriptor libraryDescriptor
	if err := json.Unmarshal(raw, &descriptor); err != nil {
		return ""
	}
	return strings.TrimSpace(descriptor.Title)
}

// machineNameTitle turns "H5P.Essay" into "Essay".
func machineNameTitle(machineName string) string {
	machineName = strings.TrimSpace(machineName)
	if idx := strings.LastIndex(machineName, "."); idx >= 0 {
		return machineName[idx+1:]
	}
	return machineName
}

// readEntry returns nil, nil when the entry does not exist.
func readEntry(archive *zip.Reader, name string) ([]byte, error) {
	for _, file := range archive.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(io.LimitReader(rc, maxManifestBytes))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return data, nil
	}
	return nil, nil
}
