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
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/canfar/cmd/canfar/opts"
	"github.com/walteh/canfar/pkg/images"
	"gitlab.com/tozd/go/errors"
)

// NewImageCmd groups the image catalog commands
func NewImageCmd(opts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "image",
		Short: "Browse the container images available on the platform",
	}

	cmd.AddCommand(newImageLsCmd(opts))

	return cmd
}

func newImageLsCmd(opts *opts.RootOpts) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List container images",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "image ls").Logger().WithContext(cmd.Context())

			ids, err := opts.Images.Fetch(ctx, kind)
			if err != nil {
				return errors.Errorf("listing images: %w", err)
			}
			return images.RenderTable(opts.Out, ids)
		},
	}

	cmd.Flags().StringVarP(&kind, "filter", "f", "", "only list images of this kind, e.g. notebook or headless")

	return cmd
}
