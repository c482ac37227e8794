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

	"github.com/gorse-io/recdata/common/log"
	"github.com/gorse-io/recdata/config"
	"github.com/gorse-io/recdata/dataset"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var criteoCommand = &cobra.Command{
	Use:   "criteo",
	Short: "Prepare the Criteo click-through rate dataset.",
	Run: func(cmd *cobra.Command, args []string) {
		conf, shutdown := setup(cmd)
		defer shutdown()
		criteoFlags(cmd, &conf.Criteo)
		if err := conf.Validate(); err != nil {
			log.Logger().Fatal("invalid flags", zap.Error(err))
		}
		if err := runCriteo(cmd.Context(), conf, outputFromFlags(cmd, conf), cmd.OutOrStdout()); err != nil {
			log.Logger().Fatal("failed to prepare criteo dataset", zap.Error(err))
		}
	},
}

func init() {
	criteoCommand.Flags().StringP("file", "f", "", "path or URL of the dataset")
	criteoCommand.Flags().Int("embed-dim", 8, "embedding dimension of sparse features")
	criteoCommand.Flags().Bool("read-part", true, "read only the first sample-num rows")
	criteoCommand.Flags().Int("sample-num", 100000, "number of rows to read")
	criteoCommand.Flags().Float32("test-size", 0.2, "fraction of rows in the test split")
	criteoCommand.Flags().Int64("seed", 0, "random seed of the split")
	criteoCommand.Flags().IntP("jobs", "j", 1, "number of workers encoding categorical columns")
}

// criteoFlags overrides the config with flags set on the command line.
func criteoFlags(cmd *cobra.Command, conf *config.CriteoConfig) {
	flags := cmd.Flags()
	if flags.Changed("file") {
		conf.File, _ = flags.GetString("file")
	}
	if flags.Changed("embed-dim") {
		conf.EmbedDim, _ = flags.GetInt("embed-dim")
	}
	if flags.Changed("read-part") {
		conf.ReadPart, _ = flags.GetBool("read-part")
	}
	if flags.Changed("sample-num") {
		conf.SampleNum, _ = flags.GetInt("sample-num")
	}
	if flags.Changed("test-size") {
		conf.TestSize, _ = flags.GetFloat32("test-size")
	}
	if flags.Changed("seed") {
		conf.Seed, _ = flags.GetInt64("seed")
	}
	if flags.Changed("jobs") {
		conf.NumJobs, _ = flags.GetInt("jobs")
	}
}

func runCriteo(ctx context.Context, conf *config.Config, out output, w io.Writer) error {
	r, err := openInput(ctx, conf, conf.Criteo.File)
	if err != nil {
		return errors.Trace(err)
	}
	defer r.Close()
	columns, train, test, err := dataset.LoadCriteo(ctx, r, dataset.CriteoOptions{
		EmbedDim:  conf.Criteo.EmbedDim,
		ReadPart:  conf.Criteo.ReadPart,
		SampleNum: conf.Criteo.SampleNum,
		TestSize:  conf.Criteo.TestSize,
		Seed:      conf.Criteo.Seed,
		NumJobs:   conf.Criteo.NumJobs,
	})
	if err != nil {
		return errors.Trace(err)
	}
	return emit(ctx, conf, out, w, "criteo", columns, train, test)
}
