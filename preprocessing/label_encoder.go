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
	"sort"

	"github.com/juju/errors"
	"modernc.org/sortutil"
	"modernc.org/strutil"
)

// LabelEncoder maps the distinct values of one column to 0..n-1 in sorted
// order of the raw values.
type LabelEncoder struct {
	pool    *strutil.Pool
	classes []string
	index   map[string]int32
}

func NewLabelEncoder() *LabelEncoder {
	return &LabelEncoder{pool: strutil.NewPool()}
}

// Fit learns the classes of values. Previous classes are discarded.
func (e *LabelEncoder) Fit(values []string) {
	classes := make([]string, len(values))
	for i, value := range values {
		classes[i] = e.pool.Align(value)
	}
	sort.Strings(classes)
	n := sortutil.Dedupe(sort.StringSlice(classes))
	e.classes = classes[:n:n]
	e.index = make(map[string]int32, n)
	for i, class := range e.classes {
		e.index[class] = int32(i)
	}
}

// Transform encodes values with the fitted classes.
func (e *LabelEncoder) Transform(values []string) ([]int32, error) {
	if e.index == nil {
		return nil, errors.New("label encoder is not fitted")
	}
	codes := make([]int32, len(values))
	for i, value := range values {
		code, ok := e.index[value]
		if !ok {
			return nil, errors.NotFoundf("label %q", value)
		}
		codes[i] = code
	}
	return codes, nil
}

func (e *LabelEncoder) FitTransform(values []string) ([]int32, error) {
	e.Fit(values)
	return e.Transform(values)
}

// Classes returns the fitted raw values, indexed by code.
func (e *LabelEncoder) Classes() []string {
	return e.classes
}

// Count returns the number of classes, which is the size of the code space.
func (e *LabelEncoder) Count() int {
	return len(e.classes)
}
