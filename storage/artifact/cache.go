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


// Package artifact persists gob-encoded artifacts by name on a blob store. Loading a missing artifact is
// not an error. Concurrent writers of one name race and the last one wins.
package artifact

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorse-io/gridsearch/base/encoding"
	"github.com/gorse-io/gridsearch/base/log"
	"github.com/gorse-io/gridsearch/storage/blob"
	"github.com/jellydator/ttlcache/v3"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

const maxTries = 3

type Cache struct {
	store     blob.Store
	local     *ttlcache.Cache[string, []byte]
	closeOnce sync.Once
}

// NewCache wraps a store. Encoded artifacts are kept in memory for ttl; a zero ttl disables the front cache.
func NewCache(store blob.Store, ttl time.Duration) *Cache {
	c := &Cache{store: store}
	if ttl > 0 {
		c.local = ttlcache.New(ttlcache.WithTTL[string, []byte](ttl))
		go c.local.Start()
	}
	return c
}

func (c *Cache) Store() blob.Store {
	return c.store
}

// Close stops the expiration loop of the front cache.
func (c *Cache) Close() {
	c.closeOnce.Do(func() {
		if c.local != nil {
			c.local.Stop()
		}
	})
}

// Save encodes v and replaces the artifact stored under name.
func (c *Cache) Save(ctx context.Context, name string, v any) error {
	buf := bytes.NewBuffer(nil)
	if err := encoding.WriteGob(buf, v); err != nil {
		return errors.Annotatef(err, "failed to encode artifact %s", name)
	}
	data := buf.Bytes()
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, c.write(name, data)
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(maxTries))
	if err != nil {
		if c.local != nil {
			c.local.Delete(name)
		}
		return errors.Annotatef(err, "failed to save artifact %s", name)
	}
	if c.local != nil {
		c.local.Set(name, data, ttlcache.DefaultTTL)
	}
	log.Logger().Debug("save artifact", zap.String("name", name), zap.Int("size", len(data)))
	return nil
}

func (c *Cache) write(name string, data []byte) error {
	w, result, err := c.store.Create(name)
	if err != nil {
		return errors.Trace(err)
	}
	if _, err = w.Write(data); err != nil {
		_ = w.Close()
		<-result
		return errors.Trace(err)
	}
	if err = w.Close(); err != nil {
		<-result
		return errors.Trace(err)
	}
	return errors.Trace(<-result)
}

// Load decodes the artifact stored under name into ptr. It returns false without error if the artifact
// does not exist. Unreadable or undecodable artifacts are reported as errors.
func (c *Cache) Load(ctx context.Context, name string, ptr any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, errors.Trace(err)
	}
	var data []byte
	if c.local != nil {
		if item := c.local.Get(name); item != nil {
			data = item.Value()
		}
	}
	if data == nil {
		r, err := c.store.Open(name)
		if errors.Is(err, errors.NotFound) {
			return false, nil
		} else if err != nil {
			return false, errors.Annotatef(err, "failed to open artifact %s", name)
		}
		data, err = io.ReadAll(r)
		_ = r.Close()
		if err != nil {
			return false, errors.Annotatef(err, "failed to read artifact %s", name)
		}
	}
	if err := encoding.ReadGob(bytes.NewReader(data), ptr); err != nil {
		return false, errors.NewNotValid(err, "corrupt artifact "+name)
	}
	if c.local != nil {
		c.local.Set(name, data, ttlcache.DefaultTTL)
	}
	return true, nil
}

// Remove deletes the artifact stored under name. Removing a missing artifact succeeds.
func (c *Cache) Remove(_ context.Context, name string) error {
	if c.local != nil {
		c.local.Delete(name)
	}
	return errors.Trace(c.store.Remove(name))
}
