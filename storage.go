package microbiogeo

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
)

// GSPrefix marks a path as a Google Storage URL.
const GSPrefix = "gs://"

// IsGoogleStoragePath reports whether path should be fetched from Google
// Storage.
func IsGoogleStoragePath(path string) bool {
	return strings.HasPrefix(path, GSPrefix)
}

// MaybeStorageClient creates a Google Storage client only if at least one of
// paths is a gs:// URL. Otherwise it returns a nil client and no error.
// Credentials come from the environment (Application Default Credentials).
func MaybeStorageClient(ctx context.Context, paths ...string) (*storage.Client, error) {
	needed := false
	for _, path := range paths {
		if IsGoogleStoragePath(path) {
			needed = true
			break
		}
	}

	if !needed {
		return nil, nil
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("a gs:// path was given but no Google Storage client could be created: %w", err))
	}

	return client, nil
}

// MaybeOpenFromGoogleStorage opens path from Google Storage if it starts with
// gs:// and client is set, and from the local filesystem otherwise. The size
// of the object is returned alongside the reader.
func MaybeOpenFromGoogleStorage(path string, client *storage.Client) (io.ReadCloser, int64, error) {
	if IsGoogleStoragePath(path) {
		if client == nil {
			return nil, 0, fmt.Errorf("%s: no Google Storage client available", path)
		}

		// Detect the bucket and the path to the actual file
		pathParts := strings.SplitN(strings.TrimPrefix(path, GSPrefix), "/", 2)
		if len(pathParts) != 2 {
			return nil, 0, fmt.Errorf("Tried to split your google storage path into 2 parts, but got %d: %v", len(pathParts), pathParts)
		}

		// Open the bucket with default credentials
		handle := client.Bucket(pathParts[0]).Object(pathParts[1])

		rdr, err := handle.NewReader(context.Background())
		if err != nil {
			return nil, 0, pfx.Err(fmt.Errorf("%s: %w", path, err))
		}

		return rdr, rdr.Attrs.Size, nil
	}

	f, err := os.Open(ExpandHome(path))
	if err != nil {
		return nil, 0, err
	}
	fstat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}

	return f, fstat.Size(), nil
}
