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
	"io"
	"strconv"

	"github.com/gorse-io/recdata/feature"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
)

// RenderSummary writes feature columns and split sizes as tables.
func RenderSummary(w io.Writer, columns feature.Columns, train, test *Split) error {
	table := tablewriter.NewWriter(w)
	table.Header("Feature", "Kind", "Cardinality", "Embed Dim")
	for _, f := range columns.Dense {
		if err := table.Append([]string{f.Name, f.Kind.String(), "-", "-"}); err != nil {
			return errors.Trace(err)
		}
	}
	for _, f := range columns.Sparse {
		if err := table.Append([]string{f.Name, f.Kind.String(), strconv.Itoa(f.Cardinality), strconv.Itoa(f.EmbedDim)}); err != nil {
			return errors.Trace(err)
		}
	}
	if err := table.Render(); err != nil {
		return errors.Trace(err)
	}

	table = tablewriter.NewWriter(w)
	table.Header("Split", "Samples")
	if err := table.Append([]string{"train", strconv.Itoa(train.Count())}); err != nil {
		return errors.Trace(err)
	}
	if err := table.Append([]string{"test", strconv.Itoa(test.Count())}); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(table.Render())
}
