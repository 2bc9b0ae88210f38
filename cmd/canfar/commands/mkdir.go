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

// NewMkdirCmd creates the vos mkdir command
func NewMkdirCmd(opts *opts.RootOpts) *cobra.Command {
	var parents bool

	cmd := &cobra.Command{
		Use:   "mkdir <uri>...",
		Short: "Create container nodes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "mkdir").Logger().WithContext(cmd.Context())
			for _, arg := range args {
				if err := Mkdir(ctx, opts, arg, parents); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&parents, "parents", "p", false, "create missing parent containers, no error if the container exists")

	return cmd
}

// 📁 Mkdir creates a container. With parents, missing ancestors are created
// from the top down and an existing container is not an error.
func Mkdir(ctx context.Context, o *opts.RootOpts, raw string, parents bool) error {
	p, err := o.Registry.Parse(raw)
	if err != nil {
		return errors.Errorf("parsing %q: %w", raw, err)
	}
	if !p.IsRemote() {
		return errors.Errorf("%w: %s is not a node store uri", storage.ErrInvalidReference, raw)
	}

	adapter, err := o.Registry.For(p)
	if err != nil {
		return err
	}

	exists, err := adapter.Exists(ctx, p, storage.AccessExists)
	if err != nil {
		return err
	}
	if exists {
		if parents {
			return nil
		}
		return errors.Errorf("%s already exists", p)
	}

	var missing []node.Path
	if parents {
		for dir := p.Dir(); !isRoot(dir); dir = dir.Dir() {
			ok, err := adapter.Exists(ctx, dir, storage.AccessExists)
			if err != nil {
				return err
			}
			if ok {
				break
			}
			missing = append([]node.Path{dir}, missing...)
		}
	}

	for _, dir := range append(missing, p) {
		if err := adapter.MakeDir(ctx, dir); err != nil {
			return err
		}
		o.Logger.Successf("Created %s", dir)
	}
	return nil
}

func isRoot(p node.Path) bool {
	rest := p.NodePath()
	return rest == "/" || rest == "." || rest == ""
}
