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

// Package feature describes the columns a prepared dataset exposes to models.
package feature

import "github.com/samber/lo"

// DefaultEmbedDim is used by Sparse when no embedding dimension is given.
const DefaultEmbedDim = 4

type Kind int

const (
	KindDense Kind = iota
	KindSparse
)

func (k Kind) String() string {
	switch k {
	case KindDense:
		return "dense"
	case KindSparse:
		return "sparse"
	default:
		return "unknown"
	}
}

// Feature is a dense or sparse feature descriptor. Cardinality and EmbedDim
// are zero for dense features.
type Feature struct {
	Kind        Kind   `json:"kind"`
	Name        string `json:"feat"`
	Cardinality int    `json:"feat_num,omitempty"`
	EmbedDim    int    `json:"embed_dim,omitempty"`
}

func Dense(name string) Feature {
	return Feature{Kind: KindDense, Name: name}
}

// Sparse creates a categorical feature whose ids lie in [0, cardinality).
func Sparse(name string, cardinality, embedDim int) Feature {
	if embedDim <= 0 {
		embedDim = DefaultEmbedDim
	}
	return Feature{
		Kind:        KindSparse,
		Name:        name,
		Cardinality: cardinality,
		EmbedDim:    embedDim,
	}
}

// Columns is the ordered pair of dense and sparse descriptors.
type Columns struct {
	Dense  []Feature `json:"dense"`
	Sparse []Feature `json:"sparse"`
}

func (c Columns) DenseNames() []string {
	return lo.Map(c.Dense, func(f Feature, _ int) string { return f.Name })
}

func (c Columns) SparseNames() []string {
	return lo.Map(c.Sparse, func(f Feature, _ int) string { return f.Name })
}

// Names returns dense names followed by sparse names.
func (c Columns) Names() []string {
	return append(c.DenseNames(), c.SparseNames()...)
}
