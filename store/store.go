// Package store defines the remote object store the publisher mirrors into,
// with S3, SFTP and in-memory implementations.
package store

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"io"
)

var (
	ErrNotFound = errors.New("store: object not found")
	ErrInjected = errors.New("store: injected failure")
)

// Object is one entry returned by List. Fingerprint is the hex MD5 of the
// content. CacheControl is empty when the backend does not report it.
type Object struct {
	Key          string
	Fingerprint  string
	Size         int64
	CacheControl string
}

// Metadata is applied to an object on Put.
type Metadata struct {
	ContentType  string
	CacheControl string
}

// Store is the remote side of a publish. Every call may fail independently.
type Store interface {
	List(ctx context.Context, prefix string) ([]Object, error)
	Put(ctx context.Context, key string, body io.Reader, size int64, meta Metadata) error
	Delete(ctx context.Context, key string) error
}

// Fingerprint returns the hex MD5 of everything read from r.
func Fingerprint(r io.Reader) (string, int64, error) {
	h := md5.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", n, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
