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
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/go-viper/mapstructure/v2"
	"github.com/juju/errors"
	"github.com/spf13/viper"
)

// Config is the configuration of dataset preparation.
type Config struct {
	Criteo    CriteoConfig    `mapstructure:"criteo"`
	MovieLens MovieLensConfig `mapstructure:"movielens"`
	Blob      BlobConfig      `mapstructure:"blob"`
	Dump      DumpConfig      `mapstructure:"dump"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

type CriteoConfig struct {
	File      string  `mapstructure:"file"`
	EmbedDim  int     `mapstructure:"embed_dim" validate:"gt=0"`
	ReadPart  bool    `mapstructure:"read_part"`
	SampleNum int     `mapstructure:"sample_num" validate:"gt=0"`
	TestSize  float32 `mapstructure:"test_size" validate:"gte=0,lt=1"`
	Seed      int64   `mapstructure:"seed"`
	NumJobs   int     `mapstructure:"num_jobs" validate:"gt=0"`
}

type MovieLensConfig struct {
	File            string  `mapstructure:"file"`
	LatentDim       int     `mapstructure:"latent_dim" validate:"gt=0"`
	TestSize        float32 `mapstructure:"test_size" validate:"gte=0,lt=1"`
	Seed            int64   `mapstructure:"seed"`
	SortByTimestamp bool    `mapstructure:"sort_by_timestamp"`
}

type BlobConfig struct {
	S3    S3Config        `mapstructure:"s3"`
	GCS   GCSConfig       `mapstructure:"gcs"`
	Azure AzureBlobConfig `mapstructure:"azure"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

type GCSConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
}

type AzureBlobConfig struct {
	AccountName      string `mapstructure:"account_name"`
	AccountKey       string `mapstructure:"account_key"`
	ConnectionString string `mapstructure:"connection_string"`
	Endpoint         string `mapstructure:"endpoint"`
}

type DumpConfig struct {
	DataStore   string        `mapstructure:"data_store"`
	TablePrefix string        `mapstructure:"table_prefix"`
	BatchSize   int           `mapstructure:"batch_size" validate:"gt=0"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

func GetDefaultConfig() *Config {
	return &Config{
		Criteo: CriteoConfig{
			EmbedDim:  8,
			ReadPart:  true,
			SampleNum: 100000,
			TestSize:  0.2,
			NumJobs:   1,
		},
		MovieLens: MovieLensConfig{
			LatentDim: 4,
			TestSize:  0.2,
		},
		Dump: DumpConfig{
			BatchSize: 1000,
			Timeout:   10 * time.Minute,
		},
		Tracing: TracingConfig{
			Exporter: "otlp",
			Sampler:  "always",
			Ratio:    1,
		},
	}
}

func setDefault(v *viper.Viper) {
	defaultConfig := GetDefaultConfig()
	// [criteo]
	v.SetDefault("criteo.file", defaultConfig.Criteo.File)
	v.SetDefault("criteo.embed_dim", defaultConfig.Criteo.EmbedDim)
	v.SetDefault("criteo.read_part", defaultConfig.Criteo.ReadPart)
	v.SetDefault("criteo.sample_num", defaultConfig.Criteo.SampleNum)
	v.SetDefault("criteo.test_size", defaultConfig.Criteo.TestSize)
	v.SetDefault("criteo.seed", defaultConfig.Criteo.Seed)
	v.SetDefault("criteo.num_jobs", defaultConfig.Criteo.NumJobs)
	// [movielens]
	v.SetDefault("movielens.file", defaultConfig.MovieLens.File)
	v.SetDefault("movielens.latent_dim", defaultConfig.MovieLens.LatentDim)
	v.SetDefault("movielens.test_size", defaultConfig.MovieLens.TestSize)
	v.SetDefault("movielens.seed", defaultConfig.MovieLens.Seed)
	v.SetDefault("movielens.sort_by_timestamp", defaultConfig.MovieLens.SortByTimestamp)
	// [dump]
	v.SetDefault("dump.batch_size", defaultConfig.Dump.BatchSize)
	v.SetDefault("dump.timeout", defaultConfig.Dump.Timeout)
	// [tracing]
	v.SetDefault("tracing.exporter", defaultConfig.Tracing.Exporter)
	v.SetDefault("tracing.sampler", defaultConfig.Tracing.Sampler)
	v.SetDefault("tracing.ratio", defaultConfig.Tracing.Ratio)
}

type configBinding struct {
	key string
	env string
}

// LoadConfig loads configuration from a TOML file. An empty path loads the
// defaults. Environment variables override the file.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefault(v)

	// bind environment variables
	bindings := []configBinding{
		{"criteo.file", "RECDATA_CRITEO_FILE"},
		{"movielens.file", "RECDATA_MOVIELENS_FILE"},
		{"blob.s3.endpoint", "S3_ENDPOINT"},
		{"blob.s3.access_key_id", "S3_ACCESS_KEY_ID"},
		{"blob.s3.secret_access_key", "S3_SECRET_ACCESS_KEY"},
		{"blob.gcs.credentials_file", "GCS_CREDENTIALS_FILE"},
		{"blob.azure.account_name", "AZURE_STORAGE_ACCOUNT"},
		{"blob.azure.account_key", "AZURE_STORAGE_KEY"},
		{"blob.azure.connection_string", "AZURE_STORAGE_CONNECTION_STRING"},
		{"dump.data_store", "RECDATA_DUMP_DATA_STORE"},
		{"dump.table_prefix", "RECDATA_DUMP_TABLE_PREFIX"},
	}
	for _, binding := range bindings {
		if err := v.BindEnv(binding.key, binding.env); err != nil {
			return nil, errors.Trace(err)
		}
	}

	// load config file
	if path != "" {
		v.SetConfigType("toml")
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Trace(err)
		}
	}

	// unmarshal config file
	var conf Config
	if err := v.Unmarshal(&conf, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, errors.Trace(err)
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &conf, nil
}

// Validate checks the config and reports the first violation in English.
func (config *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	english := en.New()
	universalTranslator := ut.New(english, english)
	translator, _ := universalTranslator.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, translator); err != nil {
		return errors.Trace(err)
	}
	if err := validate.Struct(config); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			for _, e := range validationErrors {
				return errors.New(e.Translate(translator))
			}
		}
		return errors.Trace(err)
	}
	return nil
}
