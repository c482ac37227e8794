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
	"os"
	"path/filepath"
	"testing"

	"github.com/gorse-io/recdata/common/log"
	"github.com/gorse-io/recdata/dataset"
	"github.com/gorse-io/recdata/feature"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestMain(m *testing.M) {
	log.CloseLogger()
	os.Exit(m.Run())
}

type SQLiteTestSuite struct {
	suite.Suite
	sink *Sink
}

func (suite *SQLiteTestSuite) SetupTest() {
	var err error
	path := filepath.Join(suite.T().TempDir(), "recdata.db")
	suite.sink, err = Open(SQLitePrefix+path, "recdata_", 2)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.sink.Init())
}

func (suite *SQLiteTestSuite) TearDownTest() {
	suite.NoError(suite.sink.Close())
}

func (suite *SQLiteTestSuite) TestDumpAndLoad() {
	ctx := context.Background()
	columns := feature.Columns{
		Dense: []feature.Feature{feature.Dense("avg_score")},
		Sparse: []feature.Feature{
			feature.Sparse("user_id", 4, 4),
			feature.Sparse("item_id", 51, 4),
		},
	}
	train := &dataset.Split{
		X: dataset.Features{
			Dense:  [][]float32{{3}, {3}, {4.5}},
			Sparse: [][]int32{{1, 10}, {1, 20}, {2, 30}},
		},
		Y: []int32{5, 1, 4},
	}
	test := &dataset.Split{
		X: dataset.Features{
			Dense:  [][]float32{{0.25}},
			Sparse: [][]int32{{1, 50}},
		},
		Y: []int32{3},
	}
	runID, err := suite.sink.Dump(ctx, "movielens", columns, train, test)
	suite.Require().NoError(err)
	suite.NotEmpty(runID)

	runs, err := suite.sink.Runs(ctx, "movielens")
	suite.Require().NoError(err)
	suite.Require().Len(runs, 1)
	suite.Equal(runID, runs[0].ID)
	suite.Equal(3, runs[0].NumTrain)
	suite.Equal(1, runs[0].NumTest)

	loadedColumns, loadedTrain, loadedTest, err := suite.sink.Load(ctx, runID)
	suite.Require().NoError(err)
	suite.Equal(columns, loadedColumns)
	suite.Equal(train, loadedTrain)
	suite.Equal(test, loadedTest)
}

func (suite *SQLiteTestSuite) TestDumpEmptySplit() {
	ctx := context.Background()
	columns := feature.Columns{Dense: []feature.Feature{feature.Dense("I1")}}
	train := &dataset.Split{
		X: dataset.Features{Dense: [][]float32{{0}}, Sparse: [][]int32{{}}},
		Y: []int32{1},
	}
	runID, err := suite.sink.Dump(ctx, "criteo", columns, train, &dataset.Split{})
	suite.Require().NoError(err)
	_, _, loadedTest, err := suite.sink.Load(ctx, runID)
	suite.Require().NoError(err)
	suite.Zero(loadedTest.Count())

	runs, err := suite.sink.Runs(ctx, "movielens")
	suite.NoError(err)
	suite.Empty(runs)
}

func (suite *SQLiteTestSuite) TestLoadNotFound() {
	_, _, _, err := suite.sink.Load(context.Background(), "missing")
	suite.True(errors.Is(err, errors.NotFound))
}

func TestSQLite(t *testing.T) {
	suite.Run(t, new(SQLiteTestSuite))
}

func TestOpen(t *testing.T) {
	_, err := Open("redis://localhost:6379/0", "", 10)
	assert.True(t, errors.Is(err, errors.NotSupported))
	_, err = Open(SQLitePrefix+filepath.Join(t.TempDir(), "recdata.db"), "", 0)
	assert.True(t, errors.Is(err, errors.NotValid))

	s, err := Open(SQLitePrefix+filepath.Join(t.TempDir(), "recdata.db"), "", 10)
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}
