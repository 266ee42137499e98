// Package objstore is the Object-Store Client external collaborator of
// stat, fetch JSON, put bytes, list prefix against the bucket, plus
// the DN-delete RPC the Sweeper issues. Everything here is an I/O boundary;
// the reconciliation engine only ever sees the Client/DNClient interfaces.
package objstore

import (
	"context"
	"fmt"
)

// Stats is the result of a HEAD-style stat call: etag, size, and
// last-modified (epoch seconds).
type Stats struct {
	ETag         string
	Size         int64
	LastModified int64
}

// ListEntry is one key returned by ListKeys, carrying whatever stats the
// backend returned inline with the listing (object stores commonly return
// size/etag/last-modified from a list call). The Lister reads only Key and
// still issues a Stat call for every listed key.
type ListEntry struct {
	Key   string
	Stats Stats
}

// Client is the bucket-facing surface the engine consumes. Implementations:
// S3Client (production, backed by aws-sdk-go-v2) and MemClient (tests).
type Client interface {
	// Stat returns the etag/size/last-modified of key.
	Stat(ctx context.Context, key string) (Stats, error)
	// GetJSON fetches key and unmarshals it into v.
	GetJSON(ctx context.Context, key string, v any) error
	// PutBytes writes data to key, overwriting any existing object.
	PutBytes(ctx context.Context, key string, data []byte) error
	// Exists reports whether key is present, without erroring on a miss.
	Exists(ctx context.Context, key string) (bool, error)
	// ListKeys enumerates every key under prefix.
	ListKeys(ctx context.Context, prefix string) ([]ListEntry, error)
}

// DNClient issues the delete-via-DN RPC the Sweeper uses:
// DELETE <dn_url>/<collection>/<objid>?Notify=0.
type DNClient interface {
	Delete(ctx context.Context, dnURL, collection, objid string) error
}

// ErrNotFound is returned by Stat/GetJSON when the key does not exist.
var ErrNotFound = fmt.Errorf("key not found")
