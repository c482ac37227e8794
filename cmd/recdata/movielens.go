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

var movieLensCommand = &cobra.Command{
	Use:   "movielens",
	Short: "Prepare the MovieLens-1M rating dataset.",
	Run: func(cmd *cobra.Command, args []string) {
		conf, shutdown := setup(cmd)
		defer shutdown()
		movieLensFlags(cmd, &conf.MovieLens)
		if err := conf.Validate(); err != nil {
			log.Logger().Fatal("invalid flags", zap.Error(err))
		}
		if err := runMovieLens(cmd.Context(), conf, outputFromFlags(cmd, conf), cmd.OutOrStdout(), cmd.ErrOrStderr()); err != nil {
			log.Logger().Fatal("failed to prepare movielens dataset", zap.Error(err))
		}
	},
}

func init() {
	movieLensCommand.Flags().StringP("file", "f", "", "path or URL of the ratings file")
	movieLensCommand.Flags().Int("latent-dim", 4, "embedding dimension of user and item ids")
	movieLensCommand.Flags().Float32("test-size", 0.2, "accepted for compatibility, the last 20% of each user is held out")
	movieLensCommand.Flags().Int64("seed", 0, "random seed of the shuffle")
	movieLensCommand.Flags().Bool("sort-by-timestamp", false, "sort ratings of each user by timestamp before the split")
}

// movieLensFlags overrides the config with flags set on the command line.
func movieLensFlags(cmd *cobra.Command, conf *config.MovieLensConfig) {
	flags := cmd.Flags()
	if flags.Changed("file") {
		conf.File, _ = flags.GetString("file")
	}
	if flags.Changed("latent-dim") {
		conf.LatentDim, _ = flags.GetInt("latent-dim")
	}
	if flags.Changed("test-size") {
		conf.TestSize, _ = flags.GetFloat32("test-size")
	}
	if flags.Changed("seed") {
		conf.Seed, _ = flags.GetInt64("seed")
	}
	if flags.Changed("sort-by-timestamp") {
		conf.SortByTimestamp, _ = flags.GetBool("sort-by-timestamp")
	}
}

func runMovieLens(ctx context.Context, conf *config.Config, out output, w, progress io.Writer) error {
	r, err := openInput(ctx, conf, conf.MovieLens.File)
	if err != nil {
		return errors.Trace(err)
	}
	defer r.Close()
	columns, train, test, err := dataset.LoadMovieLens(ctx, r, dataset.MovieLensOptions{
		LatentDim:       conf.MovieLens.LatentDim,
		TestSize:        conf.MovieLens.TestSize,
		Seed:            conf.MovieLens.Seed,
		SortByTimestamp: conf.MovieLens.SortByTimestamp,
		Progress:        progress,
	})
	if err != nil {
		return errors.Trace(err)
	}
	return emit(ctx, conf, out, w, "movielens", columns, train, test)
}
