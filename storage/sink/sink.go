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
package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/XSAM/otelsql"
	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/gorse-io/recdata/common/log"
	"github.com/gorse-io/recdata/dataset"
	"github.com/gorse-io/recdata/feature"
	"github.com/juju/errors"
	_ "github.com/lib/pq"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
	_ "modernc.org/sqlite"
)

const (
	MySQLPrefix      = "mysql://"
	PostgresPrefix   = "postgres://"
	PostgreSQLPrefix = "postgresql://"
	SQLitePrefix     = "sqlite://"
)

const (
	PartitionTrain = "train"
	PartitionTest  = "test"
)

// Run is a dump of one prepared dataset.
type Run struct {
	ID        string `gorm:"type:varchar(36);primaryKey"`
	Dataset   string `gorm:"type:varchar(64);not null"`
	Columns   string `gorm:"type:text;not null"`
	NumTrain  int
	NumTest   int
	CreatedAt time.Time
}

// Sample is a row of a prepared split. Dense and sparse features are stored as JSON arrays.
type Sample struct {
	RunID     string `gorm:"type:varchar(36);primaryKey"`
	Partition string `gorm:"column:split_name;type:varchar(8);primaryKey"`
	Row       int    `gorm:"column:row_index;primaryKey;autoIncrement:false"`
	Label     int32
	Dense     string `gorm:"type:text"`
	Sparse    string `gorm:"type:text"`
}

type Sink struct {
	client    *sql.DB
	gormDB    *gorm.DB
	batchSize int
}

func newGORMConfig(tablePrefix string) *gorm.Config {
	return &gorm.Config{
		Logger: logger.New(zap.NewStdLog(log.Logger()), logger.Config{
			SlowThreshold:             10 * time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		SkipDefaultTransaction: true,
		NamingStrategy: schema.NamingStrategy{
			TablePrefix: tablePrefix,
		},
	}
}

func appendURLParams(rawURL string, params []lo.Tuple2[string, string]) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Trace(err)
	}
	q := parsed.Query()
	for _, tuple := range params {
		q.Add(tuple.A, tuple.B)
	}
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}

func appendMySQLParams(dsn string, params map[string]string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", errors.Trace(err)
	}
	if cfg.Params == nil {
		cfg.Params = make(map[string]string)
	}
	for key, value := range params {
		if _, exist := cfg.Params[key]; !exist {
			cfg.Params[key] = value
		}
	}
	return cfg.FormatDSN(), nil
}

func openSQL(driver, dsn string) (*sql.DB, error) {
	client, err := otelsql.Open(driver, dsn,
		otelsql.WithAttributes(attribute.String("db.system", driver)),
		otelsql.WithSpanOptions(otelsql.SpanOptions{DisableErrSkip: true}),
	)
	return client, errors.Trace(err)
}

// Open connects to a database. Supported prefixes are mysql://, postgres://, postgresql:// and sqlite://.
func Open(path, tablePrefix string, batchSize int) (*Sink, error) {
	if batchSize <= 0 {
		return nil, errors.NotValidf("batch size %d", batchSize)
	}
	var (
		dialector gorm.Dialector
		err       error
	)
	s := &Sink{batchSize: batchSize}
	if strings.HasPrefix(path, MySQLPrefix) {
		name := path[len(MySQLPrefix):]
		if name, err = appendMySQLParams(name, map[string]string{"parseTime": "true"}); err != nil {
			return nil, errors.Trace(err)
		}
		if s.client, err = openSQL("mysql", name); err != nil {
			return nil, errors.Trace(err)
		}
		dialector = gormmysql.New(gormmysql.Config{Conn: s.client})
	} else if strings.HasPrefix(path, PostgresPrefix) || strings.HasPrefix(path, PostgreSQLPrefix) {
		if s.client, err = openSQL("postgres", path); err != nil {
			return nil, errors.Trace(err)
		}
		dialector = postgres.New(postgres.Config{Conn: s.client})
	} else if strings.HasPrefix(path, SQLitePrefix) {
		if path, err = appendURLParams(path, []lo.Tuple2[string, string]{
			{A: "_pragma", B: "busy_timeout(10000)"},
			{A: "_pragma", B: "journal_mode(wal)"},
		}); err != nil {
			return nil, errors.Trace(err)
		}
		if s.client, err = openSQL("sqlite", path[len(SQLitePrefix):]); err != nil {
			return nil, errors.Trace(err)
		}
		dialector = sqlite.Dialector{Conn: s.client}
	} else {
		return nil, errors.NotSupportedf("database %s", log.RedactDBURL(path))
	}
	if s.gormDB, err = gorm.Open(dialector, newGORMConfig(tablePrefix)); err != nil {
		_ = s.client.Close()
		return nil, errors.Trace(err)
	}
	return s, nil
}

// Init creates tables if not exist.
func (s *Sink) Init() error {
	return errors.Trace(s.gormDB.AutoMigrate(&Run{}, &Sample{}))
}

func (s *Sink) Close() error {
	return s.client.Close()
}

func encodeSamples(runID, partition string, split *dataset.Split) ([]Sample, error) {
	samples := make([]Sample, split.Count())
	for i := range samples {
		dense, err := json.Marshal(split.X.Dense[i])
		if err != nil {
			return nil, errors.Trace(err)
		}
		sparse, err := json.Marshal(split.X.Sparse[i])
		if err != nil {
			return nil, errors.Trace(err)
		}
		samples[i] = Sample{
			RunID:     runID,
			Partition: partition,
			Row:       i,
			Label:     split.Y[i],
			Dense:     string(dense),
			Sparse:    string(sparse),
		}
	}
	return samples, nil
}

// Dump writes feature columns and both splits in a transaction and returns the run ID.
func (s *Sink) Dump(ctx context.Context, name string, columns feature.Columns, train, test *dataset.Split) (string, error) {
	runID := uuid.NewString()
	data, err := json.Marshal(columns)
	if err != nil {
		return "", errors.Trace(err)
	}
	run := Run{
		ID:        runID,
		Dataset:   name,
		Columns:   string(data),
		NumTrain:  train.Count(),
		NumTest:   test.Count(),
		CreatedAt: time.Now().UTC(),
	}
	err = s.gormDB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&run).Error; err != nil {
			return errors.Trace(err)
		}
		for _, partition := range []lo.Tuple2[string, *dataset.Split]{
			{A: PartitionTrain, B: train},
			{A: PartitionTest, B: test},
		} {
			samples, err := encodeSamples(runID, partition.A, partition.B)
			if err != nil {
				return errors.Trace(err)
			}
			if len(samples) == 0 {
				continue
			}
			if err = tx.CreateInBatches(samples, s.batchSize).Error; err != nil {
				return errors.Annotatef(err, "dump %s split", partition.A)
			}
		}
		return nil
	})
	if err != nil {
		return "", errors.Trace(err)
	}
	log.Logger().Info("dump dataset",
		zap.String("dataset", name),
		zap.String("run_id", runID),
		zap.Int("n_train", run.NumTrain),
		zap.Int("n_test", run.NumTest))
	return runID, nil
}

// Runs lists dumps of a dataset, newest first.
func (s *Sink) Runs(ctx context.Context, name string) ([]Run, error) {
	var runs []Run
	err := s.gormDB.WithContext(ctx).
		Where("dataset = ?", name).
		Order("created_at DESC").
		Find(&runs).Error
	return runs, errors.Trace(err)
}

// Load reads back the feature columns and the splits of a dump.
func (s *Sink) Load(ctx context.Context, runID string) (feature.Columns, *dataset.Split, *dataset.Split, error) {
	var run Run
	if err := s.gormDB.WithContext(ctx).Where("id = ?", runID).Take(&run).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return feature.Columns{}, nil, nil, errors.NotFoundf("run %s", runID)
		}
		return feature.Columns{}, nil, nil, errors.Trace(err)
	}
	var columns feature.Columns
	if err := json.Unmarshal([]byte(run.Columns), &columns); err != nil {
		return feature.Columns{}, nil, nil, errors.Trace(err)
	}
	train, err := s.loadSplit(ctx, runID, PartitionTrain, run.NumTrain)
	if err != nil {
		return feature.Columns{}, nil, nil, errors.Trace(err)
	}
	test, err := s.loadSplit(ctx, runID, PartitionTest, run.NumTest)
	if err != nil {
		return feature.Columns{}, nil, nil, errors.Trace(err)
	}
	return columns, train, test, nil
}

func (s *Sink) loadSplit(ctx context.Context, runID, partition string, n int) (*dataset.Split, error) {
	var samples []Sample
	if err := s.gormDB.WithContext(ctx).
		Where("run_id = ? AND split_name = ?", runID, partition).
		Order("row_index").
		Find(&samples).Error; err != nil {
		return nil, errors.Trace(err)
	}
	if len(samples) != n {
		return nil, errors.Errorf("%s split of run %s has %d rows, expected %d", partition, runID, len(samples), n)
	}
	split := &dataset.Split{
		X: dataset.Features{
			Dense:  make([][]float32, n),
			Sparse: make([][]int32, n),
		},
		Y: make([]int32, n),
	}
	for i, sample := range samples {
		if err := json.Unmarshal([]byte(sample.Dense), &split.X.Dense[i]); err != nil {
			return nil, errors.Trace(err)
		}
		if err := json.Unmarshal([]byte(sample.Sparse), &split.X.Sparse[i]); err != nil {
			return nil, errors.Trace(err)
		}
		split.Y[i] = sample.Label
	}
	return split, nil
}
