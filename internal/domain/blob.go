package domain

import (
	"context"
	"io"
)

// BlobWriter uploads data to object storage. Used to archive completed scan
// reports; archival is fire-and-forget and never blocks a scan result.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
	PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error
}
