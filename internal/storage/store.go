// Package storage holds deployed H5P packages.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-overview-api/internal/config"
)

// MaxPackageBytes bounds how much of a package is read into memory.
const MaxPackageBytes = 64 << 20

var (
	// ErrPackageNotFound indicates no package is stored under the reference.
	ErrPackageNotFound = errors.New("h5p package not found")
	// ErrInvalidRef indicates a reference that does not name a file inside the store.
	ErrInvalidRef = errors.New("invalid h5p package reference")
	// ErrPackageTooLarge indicates a package larger than MaxPackageBytes.
	ErrPackageTooLarge = errors.New("h5p package too large")
)

// PackageStore reads and writes H5P packages by reference.
type PackageStore interface {
	Open(ctx context.Context, ref string) ([]byte, error)
	Put(ctx context.Context, ref string, reader io.Reader, size int64) error
}

// New builds the store selected by configuration.
func New(ctx context.Context, cfg config.Config, logger zerolog.Logger) (PackageStore, error) {
	switch cfg.Packages.Driver {
	case config.PackageDriverFile:
		return NewFileStore(cfg.Packages.Dir)
	case config.PackageDriverMinIO:
		store, err := NewMinIOStore(cfg.MinIO, logger)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported packages driver %q", cfg.Packages.Driver)
	}
}

// cleanRef normalises a reference into a relative slash separated path.
func cleanRef(ref string) (string, error) {
	ref = strings.TrimSpace(strings.ReplaceAll(ref, "\\", "/"))
	if ref == "" {
		return "", ErrInvalidRef
	}

	cleaned := path.Clean("/" + ref)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(ref, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return cleaned, nil
}

func readLimited(reader io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(reader, MaxPackageBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxPackageBytes {
		return nil, ErrPackageTooLarge
	}
	return data, nil
}
