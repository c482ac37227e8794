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
package datautil

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useTempDirs(t *testing.T) {
	datasetDir, tempDir, maxTries := DatasetDir, TempDir, MaxTries
	DatasetDir = filepath.Join(t.TempDir(), "dataset")
	TempDir = filepath.Join(t.TempDir(), "temp")
	MaxTries = 2
	t.Cleanup(func() {
		DatasetDir, TempDir, MaxTries = datasetDir, tempDir, maxTries
	})
}

func zipArchive(t *testing.T, files map[string]string) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestDownloadAndUnzip(t *testing.T) {
	useTempDirs(t)
	archive := zipArchive(t, map[string]string{"ml-tiny/ratings.dat": "1::1::5::978300760\n"})
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_, _ = w.Write(archive)
	}))
	defer server.Close()

	path, err := DownloadAndUnzip(context.Background(), server.URL+"/ml-tiny.zip")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(DatasetDir, "ml-tiny"), path)
	data, err := os.ReadFile(filepath.Join(path, "ratings.dat"))
	require.NoError(t, err)
	assert.Equal(t, "1::1::5::978300760\n", string(data))

	// extracted datasets are not downloaded again
	_, err = DownloadAndUnzip(context.Background(), server.URL+"/ml-tiny.zip")
	require.NoError(t, err)
	assert.Equal(t, int32(1), requests.Load())
}

func TestDownloadRetry(t *testing.T) {
	useTempDirs(t)
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.URL.Path == "/missing.zip" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	// client errors are not retried
	_, err := DownloadAndUnzip(context.Background(), server.URL+"/missing.zip")
	assert.Error(t, err)
	assert.Equal(t, int32(1), requests.Load())

	// server errors are retried
	requests.Store(0)
	_, err = DownloadAndUnzip(context.Background(), server.URL+"/unavailable.zip")
	assert.Error(t, err)
	assert.Equal(t, int32(MaxTries), requests.Load())
}

func TestUnzipIllegalPath(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "evil.zip")
	require.NoError(t, os.WriteFile(src, zipArchive(t, map[string]string{"../evil.txt": "evil"}), 0o644))
	_, err := unzip(src, filepath.Join(dir, "dataset"))
	assert.ErrorContains(t, err, "illegal file path")
	assert.NoFileExists(t, filepath.Join(dir, "evil.txt"))
}

func TestLocateBuiltin(t *testing.T) {
	useTempDirs(t)
	assert.True(t, IsBuiltin("builtin://ml-1m"))
	assert.False(t, IsBuiltin("/data/ml-1m/ratings.dat"))

	// extracted datasets are located without download
	require.NoError(t, os.MkdirAll(filepath.Join(DatasetDir, "ml-1m"), os.ModePerm))
	path, err := LocateBuiltin(context.Background(), "builtin://ml-1m")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(DatasetDir, "ml-1m", "ratings.dat"), path)

	_, err = LocateBuiltin(context.Background(), "builtin://netflix")
	assert.True(t, errors.Is(err, errors.NotFound))
	// the raw Criteo TSV has no built-in archive
	_, err = LocateBuiltin(context.Background(), "builtin://criteo")
	assert.True(t, errors.Is(err, errors.NotFound))
}
