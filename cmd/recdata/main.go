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
	"fmt"
	"os"
	"os/signal"

	"github.com/gorse-io/recdata/cmd/version"
	"github.com/gorse-io/recdata/common/log"
	"github.com/gorse-io/recdata/config"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

var rootCommand = &cobra.Command{
	Use:   "recdata",
	Short: "Prepare click-through rate and rating datasets for recommender models.",
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion, _ := cmd.PersistentFlags().GetBool("version"); showVersion {
			fmt.Println(version.BuildInfo())
			return
		}
		_ = cmd.Help()
	},
}

// setup configures the logger and the tracer provider, then loads the config. The returned
// function flushes traces.
func setup(cmd *cobra.Command) (*config.Config, func()) {
	flags := cmd.Root().PersistentFlags()
	debug, _ := flags.GetBool("debug")
	log.SetLogger(flags, debug)

	configPath, _ := flags.GetString("config")
	log.Logger().Info("load config", zap.String("config", configPath))
	conf, err := config.LoadConfig(configPath)
	if err != nil {
		log.Logger().Fatal("failed to load config", zap.Error(err))
	}

	provider, err := conf.Tracing.NewTracerProvider()
	if err != nil {
		log.Logger().Fatal("failed to create trace provider", zap.Error(err))
	}
	otel.SetTracerProvider(provider)
	otel.SetErrorHandler(log.GetErrorHandler())
	return conf, func() {
		if sdkProvider, ok := provider.(*tracesdk.TracerProvider); ok {
			if err := sdkProvider.Shutdown(context.Background()); err != nil {
				log.Logger().Error("failed to shutdown trace provider", zap.Error(err))
			}
		}
		_ = log.Logger().Sync()
	}
}

func init() {
	log.AddFlags(rootCommand.PersistentFlags())
	rootCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	rootCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	rootCommand.PersistentFlags().BoolP("version", "v", false, "recdata version")
	rootCommand.PersistentFlags().String("dump", "", "database to dump prepared splits into (sqlite://, mysql://, postgres://)")
	rootCommand.PersistentFlags().String("table-prefix", "", "prefix of dumped tables")
	rootCommand.PersistentFlags().String("export", "", "directory or bucket URL to export train.csv and test.csv into")
	rootCommand.AddCommand(criteoCommand, movieLensCommand)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCommand.ExecuteContext(ctx); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}
