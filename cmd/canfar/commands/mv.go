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

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/canfar/cmd/canfar/opts"
	"github.com/walteh/canfar/pkg/storage"
	"gitlab.com/tozd/go/errors"
)

// NewMvCmd creates the vos mv command
func NewMvCmd(opts *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "mv <source> <destination>",
		Short: "Move or rename a node",
		Long: `Move or rename a node within one node store.
When the destination is a container the source is moved into it.`,
		Example: `  canfar vos mv vos:/data/old.txt vos:/data/new.txt
  canfar vos mv vos:/data/file.txt vos:/archive/`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "mv").Logger().WithContext(cmd.Context())
			return Move(ctx, opts, args[0], args[1])
		},
	}
}

// 🚚 Move renames a node; both ends must be in the same node store
func Move(ctx context.Context, o *opts.RootOpts, rawSrc, rawDst string) error {
	src, err := o.Registry.Parse(rawSrc)
	if err != nil {
		return errors.Errorf("parsing %q: %w", rawSrc, err)
	}
	if !src.IsRemote() {
		return errors.Errorf("%w: source %s is not a remote node", storage.ErrInvalidReference, rawSrc)
	}

	dst, err := o.Registry.Parse(rawDst)
	if err != nil {
		return errors.Errorf("parsing %q: %w", rawDst, err)
	}
	if !dst.IsRemote() {
		return errors.Errorf("%w: destination %s is not a remote node", storage.ErrInvalidReference, rawDst)
	}

	if src.Scheme() != dst.Scheme() {
		return errors.Errorf("%w: move between services not supported", storage.ErrInvalidReference)
	}

	manager, err := o.Registry.Manager(src)
	if err != nil {
		return err
	}

	zerolog.Ctx(ctx).Info().Str("source", src.String()).Str("destination", dst.String()).Msg("moving node")
	if err := manager.Move(ctx, src, dst); err != nil {
		return err
	}
	o.Logger.Successf("Moved %s -> %s", src, dst)
	return nil
}
