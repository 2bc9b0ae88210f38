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

package commands

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/canfar/cmd/canfar/opts"
	"github.com/walteh/canfar/pkg/log"
	"github.com/walteh/canfar/pkg/transfer"
	"gitlab.com/tozd/go/errors"
)

// NewCpCmd creates the vos cp command
func NewCpCmd(opts *opts.RootOpts) *cobra.Command {
	var (
		exclude string
		include string
		flags   transfer.Options
	)

	cmd := &cobra.Command{
		Use:   "cp <source>... <destination>",
		Short: "Copy files and directories to, from and within the node store",
		Long: `Copy files and directories between the local filesystem and the node store.
Sources may contain wildcards and may end in a cutout, either pixel
ranges like image.fits[1:100,1:100] or a spatial cone like
image.fits(10.5,20.5,0.1). Directories are copied recursively.

The exit status is 0 when every file was copied; any other value means
at least one file was skipped or failed.`,
		Example: `  canfar vos cp data/ vos:/project/data
  canfar vos cp 'vos:/project/*.fits' .
  canfar vos cp --head vos:/project/image.fits header.txt`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "cp").Logger().WithContext(cmd.Context())

			flags.Exclude = transfer.SplitPatterns(exclude)
			flags.Include = transfer.SplitPatterns(include)

			return Copy(ctx, opts, transfer.Spec{
				Sources:     args[:len(args)-1],
				Destination: args[len(args)-1],
				Options:     flags,
			})
		},
	}

	cmd.Flags().StringVar(&exclude, "exclude", "", "skip files whose destination contains any of these comma separated strings")
	cmd.Flags().StringVar(&include, "include", "", "only copy files whose destination contains one of these comma separated strings")
	cmd.Flags().BoolVarP(&flags.Interrogate, "interrogate", "i", false, "ask before overwriting an existing file")
	cmd.Flags().BoolVarP(&flags.FollowLinks, "follow-links", "L", false, "follow symbolic links")
	cmd.Flags().BoolVar(&flags.IgnoreErrors, "ignore", false, "retry failed transfers a bounded number of times, then skip them")
	cmd.Flags().BoolVar(&flags.HeadOnly, "head", false, "copy only the header of remote files")

	return cmd
}

// 🚚 Copy plans and runs one copy request, reporting progress through the
// logger. A non-zero run status is returned as an ExitError.
func Copy(ctx context.Context, o *opts.RootOpts, spec transfer.Spec) error {
	o.Logger.Header("copying to " + spec.Destination)

	plan, err := transfer.NewPlanner(o.Registry, o.Logger).Plan(ctx, spec)
	if err != nil {
		return reportCopyFailure(ctx, o, spec, transfer.RunResult{}, err)
	}

	engine := transfer.NewEngine(o.Registry,
		transfer.WithObserver(o.Logger),
		transfer.WithPrompter(log.NewPrompter(o.In, o.Err)),
		transfer.WithClock(o.Clock),
		transfer.WithRetryPolicy(transfer.RetryPolicy{
			Limit: o.Config.Copy.RetryLimit,
			Delay: o.Config.Copy.Delay(),
		}),
	)

	res, err := engine.Run(ctx, plan.Tasks)
	res = plan.Result.Merge(res)
	if err != nil {
		return reportCopyFailure(ctx, o, spec, res, err)
	}

	o.Logger.LogNewline()
	o.Logger.Summary(res)
	if status := res.ExitStatus(); status != 0 {
		return opts.NewExitError(status)
	}
	return nil
}

// reportCopyFailure prints the message matching an aborted run
func reportCopyFailure(ctx context.Context, o *opts.RootOpts, spec transfer.Spec, res transfer.RunResult, err error) error {
	src, dst := strings.Join(spec.Sources, " "), spec.Destination
	var te *transfer.TaskError
	if errors.As(err, &te) {
		src, dst = te.Source, te.Destination
	}

	switch transfer.KindOf(err) {
	case transfer.KindInterrupted:
		o.Logger.Error("Received keyboard interrupt. Execution aborted.")
	case transfer.KindLockedNode:
		o.Logger.Errorf("%s is locked", dst)
		o.Logger.Infof("Use vlock to unlock the node before copying to %s", dst)
	case transfer.KindRemoteService:
		o.Logger.Errorf("Failure at remote server while copying %s -> %s", src, dst)
	default:
		o.Logger.Error(err.Error())
	}

	zerolog.Ctx(ctx).Debug().Err(err).Str("source", src).Str("destination", dst).Msg("copy aborted")

	if len(res.Outcomes()) > 0 {
		o.Logger.LogNewline()
		o.Logger.Summary(res)
	}
	return opts.NewExitError(res.ExitStatus())
}
