// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package blob

import (
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/gorse-io/recdata/config"
	"github.com/juju/errors"
)

const (
	SchemeFile  = "file"
	SchemeS3    = "s3"
	SchemeGCS   = "gs"
	SchemeAzure = "azblob"
)

// Store reads and writes objects in a bucket, a container or a directory.
type Store interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Create returns a writer and a channel that receives the upload result, nil on success, once the writer
	// is closed and the object is persisted.
	Create(ctx context.Context, name string) (io.WriteCloser, chan error, error)
}

// Location is a parsed object URL such as s3://bucket/key.
type Location struct {
	Scheme string
	Bucket string
	Key    string
}

func (l Location) String() string {
	if l.Scheme == SchemeFile {
		return l.Key
	}
	return l.Scheme + "://" + l.Bucket + "/" + l.Key
}

// ParseLocation parses an object URL. A string without scheme is a local path.
func ParseLocation(rawURL string) (Location, error) {
	if !strings.Contains(rawURL, "://") {
		if rawURL == "" {
			return Location{}, errors.NotValidf("empty location")
		}
		return Location{Scheme: SchemeFile, Key: rawURL}, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return Location{}, errors.Trace(err)
	}
	switch u.Scheme {
	case SchemeFile:
		if u.Path == "" {
			return Location{}, errors.NotValidf("location %s", rawURL)
		}
		return Location{Scheme: SchemeFile, Key: u.Path}, nil
	case SchemeS3, SchemeGCS, SchemeAzure:
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return Location{}, errors.NotValidf("location %s", rawURL)
		}
		return Location{Scheme: u.Scheme, Bucket: u.Host, Key: key}, nil
	default:
		return Location{}, errors.NotSupportedf("scheme %s", u.Scheme)
	}
}

// NewStore creates the store holding the location.
func NewStore(ctx context.Context, cfg config.BlobConfig, location Location) (Store, error) {
	switch location.Scheme {
	case SchemeFile:
		return NewPOSIX(""), nil
	case SchemeS3:
		return NewS3(cfg.S3, location.Bucket)
	case SchemeGCS:
		return NewGCS(ctx, cfg.GCS, location.Bucket)
	case SchemeAzure:
		return NewAzureBlob(cfg.Azure, location.Bucket)
	default:
		return nil, errors.NotSupportedf("scheme %s", location.Scheme)
	}
}

// Open opens an object URL for reading.
func Open(ctx context.Context, cfg config.BlobConfig, rawURL string) (io.ReadCloser, error) {
	location, err := ParseLocation(rawURL)
	if err != nil {
		return nil, errors.Trace(err)
	}
	store, err := NewStore(ctx, cfg, location)
	if err != nil {
		return nil, errors.Trace(err)
	}
	r, err := store.Open(ctx, location.Key)
	if err != nil {
		return nil, errors.Annotatef(err, "open %s", location)
	}
	return r, nil
}

// Create opens an object URL for writing.
func Create(ctx context.Context, cfg config.BlobConfig, rawURL string) (io.WriteCloser, chan error, error) {
	location, err := ParseLocation(rawURL)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	store, err := NewStore(ctx, cfg, location)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	w, done, err := store.Create(ctx, location.Key)
	if err != nil {
		return nil, nil, errors.Annotatef(err, "create %s", location)
	}
	return w, done, nil
}
