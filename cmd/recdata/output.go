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
package main

import (
	"context"
	"io"
	"strings"

	"github.com/gorse-io/recdata/common/datautil"
	"github.com/gorse-io/recdata/common/log"
	"github.com/gorse-io/recdata/config"
	"github.com/gorse-io/recdata/dataset"
	"github.com/gorse-io/recdata/feature"
	"github.com/gorse-io/recdata/storage/blob"
	"github.com/gorse-io/recdata/storage/sink"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// output describes where prepared splits go besides the summary table.
type output struct {
	Dump        string
	TablePrefix string
	Export      string
}

func outputFromFlags(cmd *cobra.Command, conf *config.Config) output {
	flags := cmd.Root().PersistentFlags()
	out := output{Dump: conf.Dump.DataStore, TablePrefix: conf.Dump.TablePrefix}
	if flags.Changed("dump") {
		out.Dump, _ = flags.GetString("dump")
	}
	if flags.Changed("table-prefix") {
		out.TablePrefix, _ = flags.GetString("table-prefix")
	}
	out.Export, _ = flags.GetString("export")
	return out
}

// openInput opens a local path, an object URL or a built-in dataset.
func openInput(ctx context.Context, conf *config.Config, location string) (io.ReadCloser, error) {
	if location == "" {
		return nil, errors.NotValidf("empty input file")
	}
	if datautil.IsBuiltin(location) {
		path, err := datautil.LocateBuiltin(ctx, location)
		if err != nil {
			return nil, errors.Trace(err)
		}
		location = path
	}
	log.Logger().Info("open input", zap.String("location", location))
	return blob.Open(ctx, conf.Blob, location)
}

// emit renders the summary, then exports and dumps the splits if requested.
func emit(ctx context.Context, conf *config.Config, out output, w io.Writer,
	name string, columns feature.Columns, train, test *dataset.Split) error {
	if err := dataset.RenderSummary(w, columns, train, test); err != nil {
		return errors.Trace(err)
	}
	if out.Export != "" {
		for _, split := range []struct {
			name  string
			split *dataset.Split
		}{{"train", train}, {"test", test}} {
			if err := exportCSV(ctx, conf, strings.TrimSuffix(out.Export, "/")+"/"+split.name+".csv", columns, split.split); err != nil {
				return errors.Trace(err)
			}
		}
	}
	if out.Dump != "" {
		if conf.Dump.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, conf.Dump.Timeout)
			defer cancel()
		}
		s, err := sink.Open(out.Dump, out.TablePrefix, conf.Dump.BatchSize)
		if err != nil {
			return errors.Annotatef(err, "open %s", log.RedactDBURL(out.Dump))
		}
		defer func() {
			if err := s.Close(); err != nil {
				log.Logger().Error("failed to close database", zap.Error(err))
			}
		}()
		if err = s.Init(); err != nil {
			return errors.Trace(err)
		}
		if _, err = s.Dump(ctx, name, columns, train, test); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

func exportCSV(ctx context.Context, conf *config.Config, location string, columns feature.Columns, split *dataset.Split) error {
	w, done, err := blob.Create(ctx, conf.Blob, location)
	if err != nil {
		return errors.Trace(err)
	}
	err = dataset.WriteCSV(w, columns, split)
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	if uploadErr := <-done; err == nil {
		err = uploadErr
	}
	if err != nil {
		return errors.Annotatef(err, "export %s", location)
	}
	log.Logger().Info("export split", zap.String("location", location), zap.Int("n", split.Count()))
	return nil
}
