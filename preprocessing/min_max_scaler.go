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

package preprocessing

import (
	"math"

	"github.com/juju/errors"
	"golang.org/x/exp/constraints"
)

// MinMaxScaler rescales every column of a row-major matrix to [Low, High]
// using the minimum and maximum observed while fitting.
type MinMaxScaler[T constraints.Float] struct {
	Low  T
	High T

	min   []T
	scale []T
}

func NewMinMaxScaler[T constraints.Float]() *MinMaxScaler[T] {
	return &MinMaxScaler[T]{Low: 0, High: 1}
}

// Fit computes per-column statistics. A constant column gets unit range, so
// all of its values map to Low.
func (s *MinMaxScaler[T]) Fit(rows [][]T) error {
	if s.High <= s.Low {
		return errors.NotValidf("feature range [%v, %v]", s.Low, s.High)
	}
	if len(rows) == 0 {
		s.min, s.scale = nil, nil
		return nil
	}
	numColumns := len(rows[0])
	minValues := make([]T, numColumns)
	maxValues := make([]T, numColumns)
	for j := range minValues {
		minValues[j] = T(math.Inf(1))
		maxValues[j] = T(math.Inf(-1))
	}
	for i, row := range rows {
		if len(row) != numColumns {
			return errors.Errorf("row %d has %d columns, expected %d", i, len(row), numColumns)
		}
		for j, value := range row {
			minValues[j] = min(minValues[j], value)
			maxValues[j] = max(maxValues[j], value)
		}
	}
	s.min = minValues
	s.scale = make([]T, numColumns)
	for j := range s.scale {
		dataRange := maxValues[j] - minValues[j]
		if dataRange == 0 {
			dataRange = 1
		}
		s.scale[j] = (s.High - s.Low) / dataRange
	}
	return nil
}

// Transform scales rows in place.
func (s *MinMaxScaler[T]) Transform(rows [][]T) error {
	for i, row := range rows {
		if len(row) != len(s.min) {
			return errors.Errorf("row %d has %d columns, expected %d", i, len(row), len(s.min))
		}
		for j := range row {
			row[j] = (row[j]-s.min[j])*s.scale[j] + s.Low
		}
	}
	return nil
}

func (s *MinMaxScaler[T]) FitTransform(rows [][]T) error {
	if err := s.Fit(rows); err != nil {
		return err
	}
	return s.Transform(rows)
}
