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
	"os"
	"os/signal"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/walteh/canfar/cmd/canfar/opts"
	"github.com/walteh/canfar/pkg/log"
	"gitlab.com/tozd/go/errors"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes one invocation and returns the process exit code. An interrupt
// cancels the context; commands report what they managed before stopping.
func run(ctx context.Context, args []string, in io.Reader, out, errw io.Writer) int {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	ro := &opts.RootOpts{
		Clock: clockwork.NewRealClock(),
		In:    in,
		Out:   out,
		Err:   errw,
	}

	cmd := newRootCmd(ro)
	cmd.SetArgs(args)
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errw)

	return exitCode(ro, cmd.ExecuteContext(ctx))
}

// exitCode reports err, unless a command already did, and picks the exit code
func exitCode(ro *opts.RootOpts, err error) int {
	if err == nil {
		return 0
	}

	var exit *opts.ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}

	logger := ro.Logger
	if logger == nil {
		logger = log.New(ro.Err, zerolog.Nop())
	}
	logger.Errorf("Command failed: %v", err)
	return 1
}
