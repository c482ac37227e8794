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
	"encoding/csv"
	"io"
	"strconv"

	"github.com/gorse-io/recdata/feature"
	"github.com/juju/errors"
)

// WriteCSV writes a split with a header row: label, dense names, sparse names.
func WriteCSV(w io.Writer, columns feature.Columns, split *Split) error {
	numDense, numSparse := len(columns.Dense), len(columns.Sparse)
	writer := csv.NewWriter(w)
	if err := writer.Write(append([]string{"label"}, columns.Names()...)); err != nil {
		return errors.Trace(err)
	}
	record := make([]string, 1+numDense+numSparse)
	for i := 0; i < split.Count(); i++ {
		if len(split.X.Dense[i]) != numDense || len(split.X.Sparse[i]) != numSparse {
			return errors.Errorf("row %d has %d dense and %d sparse values, expected %d and %d",
				i, len(split.X.Dense[i]), len(split.X.Sparse[i]), numDense, numSparse)
		}
		record[0] = strconv.FormatInt(int64(split.Y[i]), 10)
		for j, value := range split.X.Dense[i] {
			record[1+j] = strconv.FormatFloat(float64(value), 'g', -1, 32)
		}
		for j, value := range split.X.Sparse[i] {
			record[1+numDense+j] = strconv.FormatInt(int64(value), 10)
		}
		if err := writer.Write(record); err != nil {
			return errors.Trace(err)
		}
	}
	writer.Flush()
	return errors.Trace(writer.Error())
}
