package storage

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-overview-api/internal/config"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	payload := []byte("PK\x03\x04package")
	require.NoError(t, store.Put(ctx, "course-1/essay.h5p", bytes.NewReader(payload), int64(len(payload))))

	data, err := store.Open(ctx, "course-1/essay.h5p")
	require.NoError(t, err)
	require.Equal(t, payload, data)
}

func TestFileStoreMissingPackage(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Open(context.Background(), "missing.h5p")
	require.ErrorIs(t, err, ErrPackageNotFound)
}

func TestCleanRefRejectsEscapes(t *testing.T) {
	for _, ref := range []string{"", "   ", "../etc/passwd", "a/../../b", "a/./b", "dir/"} {
		_, err := cleanRef(ref)
		require.ErrorIs(t, err, ErrInvalidRef, ref)
	}

	cleaned, err := cleanRef("/course-1/essay.h5p")
	require.NoError(t, err)
	require.Equal(t, "course-1/essay.h5p", cleaned)
}

func TestPutRejectsOversizedPackages(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	err = store.Put(context.Background(), "big.h5p", bytes.NewReader(nil), MaxPackageBytes+1)
	require.ErrorIs(t, err, ErrPackageTooLarge)
}

func TestNewSelectsDriver(t *testing.T) {
	cfg := config.Config{Packages: config.PackagesConfig{Driver: config.PackageDriverFile, Dir: t.TempDir()}}
	store, err := New(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	require.IsType(t, &FileStore{}, store)

	cfg.Packages.Driver = "ftp"
	_, err = New(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
}

func TestNewMinIOStoreValidatesEndpoint(t *testing.T) {
	store, err := NewMinIOStore(config.MinIOConfig{Endpoint: "localhost:9000", Bucket: "h5p"}, zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, "h5p", store.bucket)

	_, err = NewMinIOStore(config.MinIOConfig{Endpoint: "http://localhost:9000/path", Bucket: "h5p"}, zerolog.Nop())
	require.Error(t, err)
}
