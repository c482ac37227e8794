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
	"bytes"
	"testing"

	"github.com/gorse-io/recdata/feature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	columns := feature.Columns{
		Dense:  []feature.Feature{feature.Dense(AvgScoreFeature)},
		Sparse: []feature.Feature{feature.Sparse(UserIdFeature, 3, 4), feature.Sparse(ItemIdFeature, 21, 4)},
	}
	split := &Split{
		X: Features{
			Dense:  [][]float32{{3.5}, {0.25}},
			Sparse: [][]int32{{1, 10}, {2, 20}},
		},
		Y: []int32{4, 1},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, columns, split))
	assert.Equal(t, "label,avg_score,user_id,item_id\n4,3.5,1,10\n1,0.25,2,20\n", buf.String())

	split.X.Sparse[1] = []int32{2}
	assert.Error(t, WriteCSV(&buf, columns, split))
}
