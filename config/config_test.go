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

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, text string) string {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestUnmarshal(t *testing.T) {
	data, err := os.ReadFile("config.toml.template")
	require.NoError(t, err)
	text := string(data)
	text = strings.Replace(text, "endpoint = \"\"\n\n# The access key ID", "endpoint = \"localhost:9000\"\n\n# The access key ID", 1)
	text = strings.Replace(text, "data_store = \"\"", "data_store = \"sqlite:///tmp/recdata.db\"", 1)
	config, err := LoadConfig(writeConfig(t, text))
	require.NoError(t, err)

	// [criteo]
	assert.Empty(t, config.Criteo.File)
	assert.Equal(t, 8, config.Criteo.EmbedDim)
	assert.True(t, config.Criteo.ReadPart)
	assert.Equal(t, 100000, config.Criteo.SampleNum)
	assert.Equal(t, float32(0.2), config.Criteo.TestSize)
	assert.Equal(t, int64(0), config.Criteo.Seed)
	assert.Equal(t, 1, config.Criteo.NumJobs)
	// [movielens]
	assert.Equal(t, "builtin://ml-1m", config.MovieLens.File)
	assert.Equal(t, 4, config.MovieLens.LatentDim)
	assert.Equal(t, float32(0.2), config.MovieLens.TestSize)
	assert.False(t, config.MovieLens.SortByTimestamp)
	// [blob]
	assert.Equal(t, "localhost:9000", config.Blob.S3.Endpoint)
	assert.False(t, config.Blob.S3.UseSSL)
	assert.Empty(t, config.Blob.GCS.CredentialsFile)
	assert.Empty(t, config.Blob.Azure.AccountName)
	// [dump]
	assert.Equal(t, "sqlite:///tmp/recdata.db", config.Dump.DataStore)
	assert.Equal(t, 1000, config.Dump.BatchSize)
	assert.Equal(t, 10*time.Minute, config.Dump.Timeout)
	// [tracing]
	assert.False(t, config.Tracing.EnableTracing)
	assert.Equal(t, "otlp", config.Tracing.Exporter)
	assert.Equal(t, "localhost:4317", config.Tracing.CollectorEndpoint)
	assert.Equal(t, "always", config.Tracing.Sampler)
	assert.Equal(t, 1.0, config.Tracing.Ratio)
}

func TestSetDefault(t *testing.T) {
	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), config)

	config, err = LoadConfig(writeConfig(t, "[criteo]\nseed = 42\n"))
	require.NoError(t, err)
	expected := GetDefaultConfig()
	expected.Criteo.Seed = 42
	assert.Equal(t, expected, config)
}

func TestBindEnv(t *testing.T) {
	variables := []struct {
		key   string
		value string
	}{
		{"RECDATA_CRITEO_FILE", "s3://datasets/criteo.txt"},
		{"RECDATA_MOVIELENS_FILE", "gs://datasets/ratings.dat"},
		{"S3_ENDPOINT", "localhost:9000"},
		{"S3_ACCESS_KEY_ID", "minioadmin"},
		{"S3_SECRET_ACCESS_KEY", "minioadmin"},
		{"GCS_CREDENTIALS_FILE", "/etc/gcs.json"},
		{"AZURE_STORAGE_ACCOUNT", "devstoreaccount1"},
		{"AZURE_STORAGE_KEY", "key"},
		{"AZURE_STORAGE_CONNECTION_STRING", "UseDevelopmentStorage=true"},
		{"RECDATA_DUMP_DATA_STORE", "postgres://localhost/recdata"},
		{"RECDATA_DUMP_TABLE_PREFIX", "ml_"},
	}
	for _, variable := range variables {
		t.Setenv(variable.key, variable.value)
	}

	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "s3://datasets/criteo.txt", config.Criteo.File)
	assert.Equal(t, "gs://datasets/ratings.dat", config.MovieLens.File)
	assert.Equal(t, "localhost:9000", config.Blob.S3.Endpoint)
	assert.Equal(t, "minioadmin", config.Blob.S3.AccessKeyID)
	assert.Equal(t, "minioadmin", config.Blob.S3.SecretAccessKey)
	assert.Equal(t, "/etc/gcs.json", config.Blob.GCS.CredentialsFile)
	assert.Equal(t, "devstoreaccount1", config.Blob.Azure.AccountName)
	assert.Equal(t, "key", config.Blob.Azure.AccountKey)
	assert.Equal(t, "UseDevelopmentStorage=true", config.Blob.Azure.ConnectionString)
	assert.Equal(t, "postgres://localhost/recdata", config.Dump.DataStore)
	assert.Equal(t, "ml_", config.Dump.TablePrefix)

	// environment variables override the config file
	config, err = LoadConfig(writeConfig(t, "[criteo]\nfile = \"criteo.txt\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "s3://datasets/criteo.txt", config.Criteo.File)
}

func TestValidate(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "[criteo]\ntest_size = 1.5\n"))
	assert.ErrorContains(t, err, "test_size must be less than 1")

	_, err = LoadConfig(writeConfig(t, "[movielens]\nlatent_dim = 0\n"))
	assert.ErrorContains(t, err, "latent_dim must be greater than 0")

	_, err = LoadConfig(writeConfig(t, "[tracing]\nexporter = \"jaeger\"\n"))
	assert.ErrorContains(t, err, "exporter must be one of [zipkin otlp otlphttp]")

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestNewTracerProvider(t *testing.T) {
	config := GetDefaultConfig()
	provider, err := config.Tracing.NewTracerProvider()
	require.NoError(t, err)
	assert.NotNil(t, provider.Tracer("test"))

	config.Tracing.EnableTracing = true
	for _, exporter := range []string{"zipkin", "otlp", "otlphttp"} {
		for _, sampler := range []string{"always", "never", "ratio"} {
			config.Tracing.Exporter = exporter
			config.Tracing.Sampler = sampler
			config.Tracing.CollectorEndpoint = "localhost:4317"
			if exporter == "zipkin" {
				config.Tracing.CollectorEndpoint = "http://localhost:9411/api/v2/spans"
			}
			provider, err = config.Tracing.NewTracerProvider()
			assert.NoError(t, err)
			assert.NotNil(t, provider)
		}
	}

	config.Tracing.Exporter = "jaeger"
	_, err = config.Tracing.NewTracerProvider()
	assert.Error(t, err)
}
