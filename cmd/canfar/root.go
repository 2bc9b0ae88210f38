// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
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
	"net/http"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/walteh/canfar/cmd/canfar/commands"
	"github.com/walteh/canfar/cmd/canfar/opts"
	"github.com/walteh/canfar/pkg/auth"
	"github.com/walteh/canfar/pkg/config"
	"github.com/walteh/canfar/pkg/images"
	"github.com/walteh/canfar/pkg/log"
	"github.com/walteh/canfar/pkg/storage"
	"github.com/walteh/canfar/pkg/storage/local"
	"github.com/walteh/canfar/pkg/storage/remote"
	"github.com/walteh/canfar/pkg/vospace"
	"gitlab.com/tozd/go/errors"
)

var (
	// Flags
	configFile string
	debugLog   bool
)

// newRootCmd builds the command tree. ro is filled in once flags are parsed,
// unless the caller already provided a configuration.
func newRootCmd(ro *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "canfar",
		Short: "Manage data in the CANFAR node store and browse platform images",
		Long: `canfar moves data between your machine and the CANFAR node store.
It also lists the container images available on the science platform.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			zlog := setupLogging(ro.Err)
			ctx := zlog.WithContext(cmd.Context())
			cmd.SetContext(ctx)

			if ro.Logger == nil {
				ro.Logger = log.New(ro.Err, zlog)
			}
			if ro.Config != nil {
				return nil
			}
			return newRootOpts(ctx, ro)
		},
	}

	addRootFlags(cmd)

	cmd.AddCommand(
		commands.NewVosCmd(ro),
		commands.NewImageCmd(ro),
		commands.NewConfigCmd(ro),
		newVersionCmd(ro),
	)

	return cmd
}

// newRootOpts loads the configuration and builds the service clients
func newRootOpts(ctx context.Context, ro *opts.RootOpts) error {
	cfg, err := config.Load(ctx, configFile)
	if err != nil {
		return errors.Errorf("loading config: %w", err)
	}

	httpClient := auth.NewHTTPClient(ctx, cfg.Auth(), auth.Options{
		Timeout: cfg.VOSpace.RequestTimeout(),
		Clock:   ro.Clock,
	})

	registry, err := newRegistry(cfg, httpClient, afero.NewOsFs())
	if err != nil {
		return err
	}

	ro.Config = cfg
	ro.Registry = registry
	ro.Images = images.New(cfg.Images.Endpoint, httpClient)
	return nil
}

// newRegistry serves local paths from fs and each configured scheme from the node service
func newRegistry(cfg *config.Config, httpClient *http.Client, fs afero.Fs) (*storage.Registry, error) {
	registry := storage.NewRegistry(local.New(fs))
	for _, scheme := range cfg.VOSpace.Schemes {
		client, err := vospace.New(scheme, cfg.VOSpace.ServiceURL(scheme), httpClient)
		if err != nil {
			return nil, errors.Errorf("creating %s client: %w", scheme, err)
		}
		registry.Register(remote.New(client))
	}
	return registry, nil
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (default ~/.canfar/config.yaml)")
	cmd.PersistentFlags().BoolVarP(&debugLog, "debug", "d", false, "enable debug logging")
}

// setupLogging configures zerolog based on flags. Without --debug the
// structured log stays silent and only console lines are shown.
func setupLogging(w io.Writer) zerolog.Logger {
	level := zerolog.Disabled
	if debugLog {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: w}).Level(level).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &logger
	return logger
}
