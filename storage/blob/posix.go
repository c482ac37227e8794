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
	"os"
	"path/filepath"

	"github.com/gorse-io/recdata/common/log"
	"go.uber.org/zap"
)

type POSIX struct {
	dir string
}

func NewPOSIX(dir string) *POSIX {
	return &POSIX{dir: dir}
}

func (p *POSIX) path(name string) string {
	if filepath.IsAbs(name) || p.dir == "" {
		return name
	}
	return filepath.Join(p.dir, name)
}

// Open a file for reading.
func (p *POSIX) Open(_ context.Context, name string) (io.ReadCloser, error) {
	return os.Open(p.path(name))
}

// Create a new file for writing. The done channel yields the write result after the file is closed.
func (p *POSIX) Create(_ context.Context, name string) (io.WriteCloser, chan error, error) {
	fullPath := p.path(name)
	if dir := filepath.Dir(fullPath); dir != "." {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return nil, nil, err
		}
	}
	file, err := os.Create(fullPath)
	if err != nil {
		return nil, nil, err
	}
	w, done := pipeTo(file, fullPath)
	return w, done, nil
}

// pipeTo copies everything written to the returned writer into dst. The channel receives the first copy or
// close error, nil on success, after dst is closed.
func pipeTo(dst io.WriteCloser, name string) (io.WriteCloser, chan error) {
	done := make(chan error, 1)
	pr, pw := io.Pipe()
	go func() {
		defer close(done)
		_, err := io.Copy(dst, pr)
		if err != nil {
			log.Logger().Error("failed to write to file", zap.String("file", name), zap.Error(err))
			_ = pr.CloseWithError(err)
		}
		if closeErr := dst.Close(); closeErr != nil {
			log.Logger().Error("failed to close file", zap.String("file", name), zap.Error(closeErr))
			if err == nil {
				err = closeErr
			}
		}
		done <- err
	}()
	return pw, done
}
