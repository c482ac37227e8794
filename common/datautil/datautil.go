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
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorse-io/recdata/common/log"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

const BuiltinScheme = "builtin://"

type builtinDataset struct {
	url  string
	path string
}

var builtinDatasets = map[string]builtinDataset{
	// MovieLens: https://grouplens.org/datasets/movielens/
	"ml-1m": {
		url:  "https://files.grouplens.org/datasets/movielens/ml-1m.zip",
		path: "ml-1m/ratings.dat",
	},
}

var (
	DatasetDir string
	TempDir    string
	MaxTries   uint = 3
)

func init() {
	usr, err := user.Current()
	if err != nil {
		log.Logger().Fatal("failed to get user directory", zap.Error(err))
	}
	DatasetDir = filepath.Join(usr.HomeDir, ".recdata", "dataset")
	TempDir = filepath.Join(usr.HomeDir, ".recdata", "temp")
}

// IsBuiltin reports whether the location names a built-in dataset.
func IsBuiltin(location string) bool {
	return strings.HasPrefix(location, BuiltinScheme)
}

// LocateBuiltin downloads a built-in dataset if absent and returns the path of its data file.
func LocateBuiltin(ctx context.Context, location string) (string, error) {
	name := strings.TrimPrefix(location, BuiltinScheme)
	dataset, exist := builtinDatasets[name]
	if !exist {
		return "", errors.NotFoundf("built-in dataset %s", name)
	}
	if _, err := DownloadAndUnzip(ctx, dataset.url); err != nil {
		return "", errors.Trace(err)
	}
	return filepath.Join(DatasetDir, dataset.path), nil
}

// DownloadAndUnzip downloads a zip archive into TempDir and extracts it into DatasetDir. The download is skipped
// if the archive has been extracted before.
func DownloadAndUnzip(ctx context.Context, url string) (string, error) {
	name := strings.TrimSuffix(filepath.Base(url), ".zip")
	path := filepath.Join(DatasetDir, name)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !os.IsNotExist(err) {
		return "", errors.Trace(err)
	}
	zipFileName, err := backoff.Retry(ctx, func() (string, error) {
		fileName, err := downloadFromUrl(ctx, url, TempDir)
		var statusErr *httpStatusError
		if errors.As(err, &statusErr) && statusErr.code < http.StatusInternalServerError {
			return "", backoff.Permanent(err)
		}
		return fileName, err
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(MaxTries))
	if err != nil {
		return "", errors.Annotatef(err, "download %s", url)
	}
	if _, err = unzip(zipFileName, DatasetDir); err != nil {
		return "", errors.Trace(err)
	}
	return path, nil
}

type httpStatusError struct {
	url  string
	code int
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.url, e.code)
}

// downloadFromUrl downloads file from URL.
func downloadFromUrl(ctx context.Context, src, dst string) (string, error) {
	log.Logger().Info("download dataset", zap.String("source", src), zap.String("destination", dst))
	// Extract file name
	tokens := strings.Split(src, "/")
	fileName := filepath.Join(dst, tokens[len(tokens)-1])
	// Create file
	if err := os.MkdirAll(filepath.Dir(fileName), os.ModePerm); err != nil {
		return fileName, err
	}
	output, err := os.Create(fileName)
	if err != nil {
		log.Logger().Error("failed to create file", zap.Error(err), zap.String("filename", fileName))
		return fileName, err
	}
	defer output.Close()
	// Download file
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return fileName, err
	}
	response, err := http.DefaultClient.Do(request)
	if err != nil {
		log.Logger().Error("failed to download", zap.Error(err), zap.String("source", src))
		return fileName, err
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return fileName, &httpStatusError{url: src, code: response.StatusCode}
	}
	// Save file
	_, err = io.Copy(output, response.Body)
	if err != nil {
		log.Logger().Error("failed to download", zap.Error(err), zap.String("source", src))
		return fileName, err
	}
	return fileName, nil
}

// unzip zip file.
func unzip(src, dst string) ([]string, error) {
	var fileNames []string
	// Open zip file
	r, err := zip.OpenReader(src)
	if err != nil {
		return fileNames, err
	}
	defer r.Close()
	// Extract files
	for _, f := range r.File {
		filePath := filepath.Join(dst, f.Name)
		// Check for ZipSlip. More Info: http://bit.ly/2MsjAWE
		if !strings.HasPrefix(filePath, filepath.Clean(dst)+string(os.PathSeparator)) {
			return fileNames, fmt.Errorf("%s: illegal file path", filePath)
		}
		fileNames = append(fileNames, filePath)
		if f.FileInfo().IsDir() {
			if err = os.MkdirAll(filePath, os.ModePerm); err != nil {
				return fileNames, err
			}
			continue
		}
		if err = extractFile(f, filePath); err != nil {
			return fileNames, err
		}
	}
	return fileNames, nil
}

func extractFile(f *zip.File, filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), os.ModePerm); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	outFile, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
	if err != nil {
		return err
	}
	if _, err = io.Copy(outFile, rc); err != nil {
		_ = outFile.Close()
		return err
	}
	return outFile.Close()
}
