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

package opts

import (
	"fmt"
	"io"

	"github.com/jonboulle/clockwork"
	"github.com/walteh/canfar/pkg/config"
	"github.com/walteh/canfar/pkg/images"
	"github.com/walteh/canfar/pkg/log"
	"github.com/walteh/canfar/pkg/storage"
)

// maxExitStatus is the largest status a process can report
const maxExitStatus = 255

// RootOpts contains shared options used by all commands. The root command
// fills it in before any subcommand runs.
type RootOpts struct {
	Config   *config.Config
	Logger   *log.Logger
	Registry *storage.Registry
	Images   *images.Client
	Clock    clockwork.Clock

	In  io.Reader // answers to interactive questions
	Out io.Writer // command output, e.g. file content for cat
	Err io.Writer // console messages
}

// 🚪 ExitError ends the process with Code. Its message has already been
// reported on the console.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// 🏭 NewExitError converts an accumulated run status into a process exit code.
// Any failure reports at least 1; larger sums stop at 255 so they never wrap
// around to success.
func NewExitError(status int) *ExitError {
	switch {
	case status < 1:
		status = 1
	case status > maxExitStatus:
		status = maxExitStatus
	}
	return &ExitError{Code: status}
}
