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

package log

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/pterm/pterm"
	"github.com/walteh/canfar/pkg/transfer"
	"gitlab.com/tozd/go/errors"
)

var _ transfer.Prompter = (*Prompter)(nil)

// ❓ Prompter asks yes/no questions on a line-oriented terminal. A single
// goroutine owns the input, so a question abandoned on cancellation leaves the
// next one free to read.
type Prompter struct {
	in    *bufio.Reader
	out   io.Writer
	start sync.Once
	lines chan answer
}

// 🏭 NewPrompter reads answers from in and writes questions to out
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out, lines: make(chan answer)}
}

type answer struct {
	line string
	err  error
}

func (p *Prompter) readLines() {
	defer close(p.lines)
	for {
		line, err := p.in.ReadString('\n')
		p.lines <- answer{line: line, err: err}
		if err != nil {
			return
		}
	}
}

// Confirm accepts "y" or "yes" in any case; anything else is a no. A
// cancelled context abandons the question.
func (p *Prompter) Confirm(ctx context.Context, question string) (bool, error) {
	pterm.Fprint(p.out, pterm.Yellow(question)+" ")

	if err := ctx.Err(); err != nil {
		pterm.Fprintln(p.out)
		return false, err
	}
	p.start.Do(func() { go p.readLines() })

	select {
	case <-ctx.Done():
		pterm.Fprintln(p.out)
		return false, ctx.Err()
	case a, ok := <-p.lines:
		if !ok {
			return false, nil
		}
		if a.err != nil && !errors.Is(a.err, io.EOF) {
			return false, errors.Errorf("reading answer: %w", a.err)
		}
		switch strings.ToLower(strings.TrimSpace(a.line)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	}
}
