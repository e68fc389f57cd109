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
	"bytes"
	"context"
	"io"
	"sort"
	"strings"

	"github.com/juju/errors"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "gridsearch/"

// Redis keeps each blob in a single string value.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

func NewRedis(rawURL string) (*Redis, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return NewRedisWithClient(redis.NewClient(opt)), nil
}

func NewRedisWithClient(client redis.UniversalClient) *Redis {
	return &Redis{client: client, prefix: redisKeyPrefix}
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) Open(name string) (io.ReadCloser, error) {
	data, err := r.client.Get(context.Background(), r.prefix+name).Bytes()
	if err == redis.Nil {
		return nil, errors.NotFoundf("blob %s", name)
	}
	if err != nil {
		return nil, errors.Trace(err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (r *Redis) Create(name string) (io.WriteCloser, <-chan error, error) {
	result := make(chan error, 1)
	return &redisWriter{store: r, key: r.prefix + name, result: result}, result, nil
}

type redisWriter struct {
	bytes.Buffer
	store  *Redis
	key    string
	result chan error
}

func (w *redisWriter) Close() error {
	err := w.store.client.Set(context.Background(), w.key, w.Bytes(), 0).Err()
	w.result <- errors.Trace(err)
	close(w.result)
	return errors.Trace(err)
}

func (r *Redis) List() ([]string, error) {
	var (
		ctx    = context.Background()
		names  []string
		cursor uint64
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefix+"*", 100).Result()
		if err != nil {
			return nil, errors.Trace(err)
		}
		for _, key := range keys {
			names = append(names, strings.TrimPrefix(key, r.prefix))
		}
		if cursor = next; cursor == 0 {
			break
		}
	}
	sort.Strings(names)
	return names, nil
}

func (r *Redis) Remove(name string) error {
	return errors.Trace(r.client.Del(context.Background(), r.prefix+name).Err())
}
