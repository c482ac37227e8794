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
	"bufio"
	"io"
	"strings"

	"github.com/bits-and-blooms/bitset"
	"github.com/chewxy/math32"
	"github.com/gorse-io/recdata/base"
	"github.com/juju/errors"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("github.com/gorse-io/recdata/dataset")

// Features holds the model inputs of a split, one row per sample.
type Features struct {
	Dense  [][]float32
	Sparse [][]int32
}

// Split is a (features, labels) pair.
type Split struct {
	X Features
	Y []int32
}

// Count returns the number of samples.
func (s *Split) Count() int {
	if len(s.X.Dense) != len(s.Y) || len(s.X.Sparse) != len(s.Y) {
		panic("len(X.Dense) != len(Y) || len(X.Sparse) != len(Y)")
	}
	return len(s.Y)
}

func (s *Split) append(dense []float32, sparse []int32, label int32) {
	s.X.Dense = append(s.X.Dense, dense)
	s.X.Sparse = append(s.X.Sparse, sparse)
	s.Y = append(s.Y, label)
}

func newSplit(capacity int) *Split {
	return &Split{
		X: Features{
			Dense:  make([][]float32, 0, capacity),
			Sparse: make([][]int32, 0, capacity),
		},
		Y: make([]int32, 0, capacity),
	}
}

// splitByRatio moves ceil(ratio*n) random samples into the test set.
func splitByRatio(features Features, labels []int32, ratio float32, seed int64) (*Split, *Split) {
	n := len(labels)
	numTest := int(math32.Ceil(ratio * float32(n)))
	if numTest > n {
		numTest = n
	}
	rng := base.NewRandomGenerator(seed)
	testIndex := bitset.New(uint(n))
	for _, i := range rng.Sample(0, n, numTest) {
		testIndex.Set(uint(i))
	}
	train, test := newSplit(n-numTest), newSplit(numTest)
	for i := 0; i < n; i++ {
		if testIndex.Test(uint(i)) {
			test.append(features.Dense[i], features.Sparse[i], labels[i])
		} else {
			train.append(features.Dense[i], features.Sparse[i], labels[i])
		}
	}
	return train, test
}

func validateRatio(ratio float32) error {
	if ratio < 0 || ratio >= 1 {
		return errors.NotValidf("test size %v", ratio)
	}
	return nil
}

const maxLineSize = 1024 * 1024

// scanLines calls handler for each line split by sep. Reading stops when
// limit lines were handled (limit <= 0 reads everything) or handler fails.
func scanLines(r io.Reader, sep string, limit int, handler func(lineNumber int, fields []string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNumber := 0
	for scanner.Scan() {
		if limit > 0 && lineNumber >= limit {
			break
		}
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		if err := handler(lineNumber, strings.Split(line, sep)); err != nil {
			return errors.Annotatef(err, "line %d", lineNumber+1)
		}
		lineNumber++
	}
	return errors.Trace(scanner.Err())
}

func isMissing(s string) bool {
	switch s {
	case "", "NaN", "NA", "nan":
		return true
	default:
		return false
	}
}
