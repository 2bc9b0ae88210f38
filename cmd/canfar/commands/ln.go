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

// NewLnCmd creates the vos ln command
func NewLnCmd(opts *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "ln <source> <target>",
		Short: "Create a link node",
		Long: `Create a link node at target pointing at source. The source may be a
node, an external URL or a file: URI and is not checked.`,
		Example: `  canfar vos ln vos:/data/original.txt vos:/data/link.txt
  canfar vos ln https://example.com/data.fits vos:/data/external_link`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "ln").Logger().WithContext(cmd.Context())
			return Link(ctx, opts, args[0], args[1])
		},
	}
}

// 🔗 Link creates a link node at rawTarget pointing at source
func Link(ctx context.Context, o *opts.RootOpts, source, rawTarget string) error {
	target, err := o.Registry.Parse(rawTarget)
	if err != nil {
		return errors.Errorf("parsing %q: %w", rawTarget, err)
	}
	if !target.IsRemote() {
		return errors.Errorf("%w: target %s must be a node store uri", storage.ErrInvalidReference, rawTarget)
	}

	manager, err := o.Registry.Manager(target)
	if err != nil {
		return err
	}

	if err := manager.Link(ctx, target, source); err != nil {
		return err
	}
	o.Logger.Successf("Created link %s -> %s", target, source)
	return nil
}
