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
	"github.com/walteh/canfar/pkg/node"
	"github.com/walteh/canfar/pkg/storage"
	"gitlab.com/tozd/go/errors"
)

// NewRmCmd creates the vos rm command
func NewRmCmd(opts *opts.RootOpts) *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "rm <uri>...",
		Short: "Remove nodes",
		Long: `Remove data nodes and links from the node store.
A container is only removed with -R, which removes everything below it.`,
		Example: `  canfar vos rm vos:/data/file.txt
  canfar vos rm -R vos:/data/old_dir/`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "rm").Logger().WithContext(cmd.Context())
			for _, arg := range args {
				if err := Remove(ctx, opts, arg, recursive); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "R", false, "delete a container even if it is not empty")

	return cmd
}

// 🗑️ Remove deletes one node. Without recursive a container is refused; with
// it the tree is removed bottom up and any failure ends in exit status 1.
func Remove(ctx context.Context, o *opts.RootOpts, raw string, recursive bool) error {
	p, err := o.Registry.Parse(raw)
	if err != nil {
		return errors.Errorf("parsing %q: %w", raw, err)
	}
	if !p.IsRemote() {
		return errors.Errorf("%w: %s is not a valid node store handle", storage.ErrInvalidReference, raw)
	}

	adapter, err := o.Registry.For(p)
	if err != nil {
		return err
	}
	manager, err := o.Registry.Manager(p)
	if err != nil {
		return err
	}

	if recursive {
		successes, failures := removeTree(ctx, adapter, manager, p)
		if failures > 0 {
			o.Logger.Warningf("deleted %d, failed %d", successes, failures)
			return opts.NewExitError(1)
		}
		o.Logger.Successf("Deleted %d node(s)", successes)
		return nil
	}

	if !p.HasTrailingSeparator() {
		link, err := adapter.IsSymlink(ctx, p)
		if err != nil {
			return err
		}
		if link {
			if err := manager.Delete(ctx, p); err != nil {
				return err
			}
			o.Logger.Successf("Deleted link %s", p)
			return nil
		}
	}

	isDir, err := adapter.IsDir(ctx, p)
	if err != nil {
		return err
	}
	switch {
	case isDir:
		return errors.Errorf("%s is a directory (use -R for recursive delete)", p)
	case p.HasTrailingSeparator():
		return errors.Errorf("%s is not a directory", p)
	}

	exists, err := adapter.Exists(ctx, p, storage.AccessExists)
	if err != nil {
		return err
	}
	if !exists {
		return errors.Errorf("%w: %s", storage.ErrNotFound, p)
	}

	if err := manager.Delete(ctx, p); err != nil {
		return err
	}
	o.Logger.Successf("Deleted %s", p)
	return nil
}

// removeTree deletes the children of a container before the container. Links
// are removed without touching their targets. A container whose content could
// not all be removed is kept and counted as a failure.
func removeTree(ctx context.Context, adapter storage.Adapter, manager storage.NodeManager, p node.Path) (successes, failures int) {
	logger := zerolog.Ctx(ctx)

	link, err := adapter.IsSymlink(ctx, p)
	if err != nil {
		logger.Warn().Err(err).Str("path", p.String()).Msg("checking node")
		return 0, 1
	}

	if !link {
		isDir, err := adapter.IsDir(ctx, p)
		if err != nil {
			logger.Warn().Err(err).Str("path", p.String()).Msg("checking node")
			return 0, 1
		}
		if isDir {
			names, err := adapter.List(ctx, p)
			if err != nil {
				logger.Warn().Err(err).Str("path", p.String()).Msg("listing container")
				return 0, 1
			}
			for _, name := range names {
				s, f := removeTree(ctx, adapter, manager, p.Join(name))
				successes += s
				failures += f
			}
			if failures > 0 {
				return successes, failures + 1
			}
		}
	}

	if err := manager.Delete(ctx, p); err != nil {
		logger.Warn().Err(err).Str("path", p.String()).Msg("deleting node")
		return successes, failures + 1
	}
	logger.Debug().Str("path", p.String()).Msg("deleted")
	return successes + 1, failures
}
