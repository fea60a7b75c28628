// Package blob stores the images referenced by staff avatars and map
// backgrounds. The store is an S3-like key/value surface with filesystem and
// in-memory drivers for development and tests.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// Driver identifies a blob storage backend.
type Driver string

// Supported drivers.
const (
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
	DriverMemory     Driver = "memory"
)

// ImageKind classifies an upload for size gating.
type ImageKind string

// Image kinds and their size ceilings. Oversized images are rejected before
// any bytes reach the backend.
const (
	ImageMapBackground ImageKind = "map"
	ImageAvatar        ImageKind = "avatar"

	MaxMapImageBytes = 2 << 20
	MaxAvatarBytes   = 1 << 20
)

// SizeLimit returns the byte ceiling for an image kind.
func SizeLimit(kind ImageKind) (int64, error) {
	switch kind {
	case ImageMapBackground:
		return MaxMapImageBytes, nil
	case ImageAvatar:
		return MaxAvatarBytes, nil
	}
	return 0, fmt.Errorf("blob: unknown image kind %q", kind)
}

// ErrTooLarge reports an upload exceeding its kind's ceiling.
type ErrTooLarge struct {
	Kind  ImageKind
	Size  int64
	Limit int64
}

func (e ErrTooLarge) Error() string {
	return fmt.Sprintf("blob: %s image of %d bytes exceeds the %d byte limit", e.Kind, e.Size, e.Limit)
}

// CheckImageSize validates an upload's declared size against its kind.
func CheckImageSize(kind ImageKind, size int64) error {
	limit, err := SizeLimit(kind)
	if err != nil {
		return err
	}
	if size > limit {
		return ErrTooLarge{Kind: kind, Size: size, Limit: limit}
	}
	return nil
}

// PutOptions carries optional upload parameters.
type PutOptions struct {
	ContentType string
}

// Info describes a stored blob.
type Info struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size_bytes"`
	ContentType  string    `json:"content_type,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Store is the blob backend contract. Put is create-only; image uploads use
// fresh keys, so overwrite semantics are never needed.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Head(ctx context.Context, key string) (Info, error)
	// Delete reports false when the key was absent.
	Delete(ctx context.Context, key string) (bool, error)
	// List returns blobs under prefix in key order.
	List(ctx context.Context, prefix string) ([]Info, error)
	// PresignURL returns a time-limited GET URL, or ErrUnsupported.
	PresignURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	Driver() Driver
}

// ErrUnsupported is returned for capabilities a driver does not provide.
var ErrUnsupported = errors.New("blob: unsupported operation")

// Environment variables selecting and configuring the driver.
const (
	EnvDriver = "STAFFMAP_BLOB_DRIVER"
	EnvFSRoot = "STAFFMAP_BLOB_FS_ROOT"
)

// Open selects a Store from environment configuration.
//
//	STAFFMAP_BLOB_DRIVER: fs|s3|memory (default fs)
//	STAFFMAP_BLOB_FS_ROOT: directory root when driver=fs (default ./blobdata)
//	(S3 variables documented in s3.go)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv(EnvDriver)
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		return NewFilesystem(os.Getenv(EnvFSRoot))
	case DriverS3:
		return OpenS3FromEnv(ctx)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}

// PutImage gates an upload on its kind's size ceiling and stores it. The
// reader is not trusted to honor the declared size; one extra byte past the
// limit fails the upload.
func PutImage(ctx context.Context, store Store, kind ImageKind, key string, r io.Reader, opts PutOptions) (Info, error) {
	limit, err := SizeLimit(kind)
	if err != nil {
		return Info{}, err
	}
	limited := &limitedReader{r: io.LimitReader(r, limit+1), limit: limit}
	info, err := store.Put(ctx, key, limited, opts)
	if err != nil {
		return Info{}, err
	}
	if limited.n > limit {
		if _, derr := store.Delete(ctx, key); derr != nil {
			return Info{}, errors.Join(ErrTooLarge{Kind: kind, Size: limited.n, Limit: limit}, derr)
		}
		return Info{}, ErrTooLarge{Kind: kind, Size: limited.n, Limit: limit}
	}
	return info, nil
}

type limitedReader struct {
	r     io.Reader
	limit int64
	n     int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.n += int64(n)
	return n, err
}
