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
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gorse-io/gridsearch/base/log"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

const tempSuffix = ".tmp"

type POSIX struct {
	dir string
}

func NewPOSIX(dir string) *POSIX {
	return &POSIX{dir: dir}
}

// Open a file for reading.
func (p *POSIX) Open(name string) (io.ReadCloser, error) {
	file, err := os.Open(filepath.Join(p.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, errors.NotFoundf("blob %s", name)
	}
	return file, errors.Trace(err)
}

// Create a file for writing. Data goes to a temporary file that replaces the target once the writer
// is closed, so readers never observe a partial blob.
func (p *POSIX) Create(name string) (io.WriteCloser, <-chan error, error) {
	fullPath := filepath.Join(p.dir, name)
	if err := os.MkdirAll(filepath.Dir(fullPath), os.ModePerm); err != nil {
		return nil, nil, errors.Trace(err)
	}
	file, err := os.CreateTemp(filepath.Dir(fullPath), filepath.Base(fullPath)+".*"+tempSuffix)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	result := make(chan error, 1)
	pr, pw := io.Pipe()
	go func() {
		defer close(result)
		_, err := io.Copy(file, pr)
		if closeErr := file.Close(); err == nil {
			err = closeErr
		}
		if err == nil {
			err = os.Rename(file.Name(), fullPath)
		}
		if err != nil {
			_ = os.Remove(file.Name())
			_ = pr.CloseWithError(err)
			log.Logger().Error("failed to write to file", zap.String("file", fullPath), zap.Error(err))
		}
		result <- errors.Trace(err)
	}()
	return pw, result, nil
}

func (p *POSIX) List() ([]string, error) {
	var names []string
	err := filepath.WalkDir(p.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, tempSuffix) {
			return nil
		}
		name, err := filepath.Rel(p.dir, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(name))
		return nil
	})
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	sort.Strings(names)
	return names, errors.Trace(err)
}

func (p *POSIX) Remove(name string) error {
	err := os.Remove(filepath.Join(p.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return errors.Trace(err)
}
