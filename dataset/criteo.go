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

package dataset

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/gorse-io/recdata/common/log"
	"github.com/gorse-io/recdata/common/parallel"
	"github.com/gorse-io/recdata/common/util"
	"github.com/gorse-io/recdata/feature"
	"github.com/gorse-io/recdata/preprocessing"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	criteoNumDense  = 13
	criteoNumSparse = 26
	// label, I1-I13, C1-C26
	criteoNumColumns = 1 + criteoNumDense + criteoNumSparse

	// MissingCategory replaces empty categorical values before encoding.
	MissingCategory = "-1"
)

var (
	CriteoDenseFeatures  = lo.Map(lo.Range(criteoNumDense), func(i, _ int) string { return fmt.Sprintf("I%d", i+1) })
	CriteoSparseFeatures = lo.Map(lo.Range(criteoNumSparse), func(i, _ int) string { return fmt.Sprintf("C%d", i+1) })
)

type CriteoOptions struct {
	// EmbedDim is recorded in the sparse feature descriptors.
	EmbedDim int
	// ReadPart limits reading to the first SampleNum rows.
	ReadPart  bool
	SampleNum int
	TestSize  float32
	Seed      int64
	// NumJobs is the number of workers encoding sparse columns.
	NumJobs int
}

func DefaultCriteoOptions() CriteoOptions {
	return CriteoOptions{
		EmbedDim:  8,
		ReadPart:  true,
		SampleNum: 100000,
		TestSize:  0.2,
		NumJobs:   1,
	}
}

// LoadCriteoFile opens a local Criteo file and calls LoadCriteo.
func LoadCriteoFile(ctx context.Context, path string, opts CriteoOptions) (feature.Columns, *Split, *Split, error) {
	file, err := os.Open(path)
	if err != nil {
		return feature.Columns{}, nil, nil, errors.Trace(err)
	}
	defer file.Close()
	return LoadCriteo(ctx, file, opts)
}

// LoadCriteo builds the click-through-rate dataset from tab separated rows of
// label, 13 integer features and 26 categorical features.
func LoadCriteo(ctx context.Context, r io.Reader, opts CriteoOptions) (feature.Columns, *Split, *Split, error) {
	ctx, span := tracer.Start(ctx, "LoadCriteo")
	defer span.End()
	if err := validateRatio(opts.TestSize); err != nil {
		return feature.Columns{}, nil, nil, err
	}
	limit := 0
	if opts.ReadPart {
		if opts.SampleNum <= 0 {
			return feature.Columns{}, nil, nil, errors.NotValidf("sample number %d", opts.SampleNum)
		}
		limit = opts.SampleNum
	}

	// read rows
	rows, err := readCriteo(r, limit)
	if err != nil {
		return feature.Columns{}, nil, nil, err
	}
	span.SetAttributes(attribute.Int("rows", len(rows.labels)))
	log.Logger().Debug("load criteo rows", zap.Int("rows", len(rows.labels)))
	if err = ctx.Err(); err != nil {
		return feature.Columns{}, nil, nil, errors.Trace(err)
	}

	// encode sparse features column by column
	var columns feature.Columns
	n := len(rows.labels)
	sparse := make([][]int32, n)
	for i := range sparse {
		sparse[i] = make([]int32, criteoNumSparse)
	}
	columns.Sparse = make([]feature.Feature, criteoNumSparse)
	err = parallel.Parallel(ctx, criteoNumSparse, opts.NumJobs, func(_, j int) error {
		encoder := preprocessing.NewLabelEncoder()
		codes, err := encoder.FitTransform(rows.sparse[j])
		if err != nil {
			return errors.Annotatef(err, "encode %s", CriteoSparseFeatures[j])
		}
		for i, code := range codes {
			sparse[i][j] = code
		}
		columns.Sparse[j] = feature.Sparse(CriteoSparseFeatures[j], encoder.Count(), opts.EmbedDim)
		return nil
	})
	if err != nil {
		return feature.Columns{}, nil, nil, errors.Trace(err)
	}

	// scale dense features jointly; engineered dense features join here
	denseFeatures := CriteoDenseFeatures
	scaler := preprocessing.NewMinMaxScaler[float64]()
	if err = scaler.FitTransform(rows.dense); err != nil {
		return feature.Columns{}, nil, nil, errors.Trace(err)
	}
	columns.Dense = lo.Map(denseFeatures, func(name string, _ int) feature.Feature {
		return feature.Dense(name)
	})

	dense := lo.Map(rows.dense, func(row []float64, _ int) []float32 {
		return lo.Map(row, func(value float64, _ int) float32 { return float32(value) })
	})

	train, test := splitByRatio(Features{Dense: dense, Sparse: sparse}, rows.labels, opts.TestSize, opts.Seed)
	log.Logger().Info("prepare criteo dataset",
		zap.Int("train", train.Count()),
		zap.Int("test", test.Count()))
	return columns, train, test, nil
}

type criteoRows struct {
	labels []int32
	dense  [][]float64
	// sparse is column-major: sparse[j][i] is column j of row i.
	sparse [][]string
}

func readCriteo(r io.Reader, limit int) (*criteoRows, error) {
	rows := &criteoRows{sparse: make([][]string, criteoNumSparse)}
	err := scanLines(r, "\t", limit, func(_ int, fields []string) error {
		if len(fields) > criteoNumColumns {
			return errors.Errorf("expected %d fields but got %d", criteoNumColumns, len(fields))
		}
		// short rows are padded with missing values
		for len(fields) < criteoNumColumns {
			fields = append(fields, "")
		}
		label, err := util.ParseInt[int32](fields[0])
		if err != nil {
			return errors.Annotate(err, "label")
		}
		rows.labels = append(rows.labels, label)
		dense := make([]float64, criteoNumDense)
		for j := range dense {
			field := fields[1+j]
			if isMissing(field) {
				continue
			}
			if dense[j], err = util.ParseFloat[float64](field); err != nil {
				return errors.Annotate(err, CriteoDenseFeatures[j])
			}
		}
		rows.dense = append(rows.dense, dense)
		for j := 0; j < criteoNumSparse; j++ {
			field := fields[1+criteoNumDense+j]
			if isMissing(field) {
				field = MissingCategory
			}
			rows.sparse[j] = append(rows.sparse[j], field)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}
