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
	"fmt"

	"github.com/spf13/cobra"
	"github.com/walteh/canfar/cmd/canfar/opts"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// NewConfigCmd groups the configuration commands
func NewConfigCmd(opts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the loaded configuration with secrets hidden",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if opts.Config.Discovered() {
					opts.Logger.Infof("%s discovered", opts.Config.Path())
				} else {
					opts.Logger.Warningf("%s does not exist, showing defaults.", opts.Config.Path())
				}

				out, err := yaml.Marshal(opts.Config.Redacted())
				if err != nil {
					return errors.Errorf("encoding config: %w", err)
				}
				_, err = opts.Out.Write(out)
				return err
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the configuration file path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				_, err := fmt.Fprintln(opts.Out, opts.Config.Path())
				return err
			},
		},
	)

	return cmd
}
