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
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/canfar/cmd/canfar/opts"
	"github.com/walteh/canfar/pkg/node"
	"gitlab.com/tozd/go/errors"
)

// NewCatCmd creates the vos cat command
func NewCatCmd(opts *opts.RootOpts) *cobra.Command {
	var head bool

	cmd := &cobra.Command{
		Use:   "cat <uri>...",
		Short: "Write the content of files to standard output",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "cat").Logger().WithContext(cmd.Context())
			for _, arg := range args {
				if err := Cat(ctx, opts, arg, head); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&head, "head", false, "print only the header of remote files")

	return cmd
}

// 📄 Cat streams one file, or its header view, to the command output
func Cat(ctx context.Context, o *opts.RootOpts, raw string, head bool) (err error) {
	bare, cutout := node.ParseSource(raw)
	p, err := o.Registry.Parse(bare)
	if err != nil {
		return errors.Errorf("parsing %q: %w", raw, err)
	}
	if head && !p.IsRemote() {
		return errors.Errorf("--head only works for remote source files: %s", raw)
	}

	adapter, err := o.Registry.For(p)
	if err != nil {
		return err
	}

	rc, err := adapter.Open(ctx, p.WithCutout(cutout), head)
	if err != nil {
		return errors.Errorf("opening %s: %w", raw, err)
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil && err == nil {
			err = errors.Errorf("closing %s: %w", raw, cerr)
		}
	}()

	if _, err := io.Copy(o.Out, rc); err != nil {
		return errors.Errorf("reading %s: %w", raw, err)
	}
	return nil
}
