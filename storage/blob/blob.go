// Copyright 2025 gorse Project Authors
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
	"io"
	"net/url"
	"strings"

	"github.com/gorse-io/gridsearch/config"
	"github.com/juju/errors"
)

const (
	S3Prefix     = "s3://"
	GCSPrefix    = "gcs://"
	AzurePrefix  = "azblob://"
	RedisPrefix  = "redis://"
	RedissPrefix = "rediss://"
	FilePrefix   = "file://"
)

// Store is a flat namespace of named blobs.
type Store interface {
	// Open a blob for reading. A missing blob yields an error satisfying errors.Is(err, errors.NotFound).
	Open(name string) (io.ReadCloser, error)
	// Create a blob for writing. The returned channel receives the result of the upload once the writer
	// is closed, and is closed afterwards.
	Create(name string) (io.WriteCloser, <-chan error, error)
	List() ([]string, error)
	Remove(name string) error
}

// Open a store from a root URL. Roots without a known scheme are local directories.
func Open(root string, cfg *config.Config) (Store, error) {
	switch {
	case strings.HasPrefix(root, S3Prefix):
		bucket, prefix, err := splitRoot(root)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return NewS3(cfg.S3, bucket, prefix)
	case strings.HasPrefix(root, GCSPrefix):
		bucket, prefix, err := splitRoot(root)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return NewGCS(cfg.GCS, bucket, prefix)
	case strings.HasPrefix(root, AzurePrefix):
		container, prefix, err := splitRoot(root)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return NewAzureBlob(cfg.Azure, container, prefix)
	case strings.HasPrefix(root, RedisPrefix), strings.HasPrefix(root, RedissPrefix):
		return NewRedis(root)
	case strings.HasPrefix(root, FilePrefix):
		return NewPOSIX(root[len(FilePrefix):]), nil
	case strings.Contains(root, "://"):
		return nil, errors.NotSupportedf("blob store %s", root)
	default:
		return NewPOSIX(root), nil
	}
}

// splitRoot splits scheme://bucket/prefix into bucket and prefix.
func splitRoot(root string) (string, string, error) {
	u, err := url.Parse(root)
	if err != nil {
		return "", "", errors.NotValidf("blob root %s", root)
	}
	if u.Host == "" {
		return "", "", errors.NotValidf("blob root %s without bucket", root)
	}
	return u.Host, strings.Trim(u.Path, "/"), nil
}
