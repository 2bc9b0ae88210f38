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

// Package status renders copy outcomes as console text.
package status

import (
	"fmt"
	"strings"

	"github.com/walteh/canfar/pkg/transfer"
)

// 🎨 Formatter renders copy results
type Formatter interface {
	// FormatOutcome formats the final line for one task
	FormatOutcome(o transfer.Outcome) string
	// FormatSummary formats the totals of a run
	FormatSummary(res transfer.RunResult) string
}

// DefaultFormatter provides a default implementation of Formatter
type DefaultFormatter struct{}

// NewDefaultFormatter creates a new DefaultFormatter
func NewDefaultFormatter() *DefaultFormatter {
	return &DefaultFormatter{}
}

// FormatOutcome formats a task outcome with emojis
func (f *DefaultFormatter) FormatOutcome(o transfer.Outcome) string {
	switch o.Status {
	case transfer.StatusCopied:
		line := fmt.Sprintf("✨ Copied %s -> %s", o.Source, o.Destination)
		if o.Attempts > 1 {
			line += fmt.Sprintf(" (after %d attempts)", o.Attempts)
		}
		return line
	case transfer.StatusSkipped:
		line := fmt.Sprintf("⏭️  Skipped %s", o.Source)
		if o.Reason != transfer.ReasonNone {
			line += fmt.Sprintf(" (%s)", o.Reason)
		}
		return line
	default:
		line := fmt.Sprintf("❌ Failed %s -> %s", o.Source, o.Destination)
		if o.Err != nil {
			line += ": " + o.Err.Error()
		} else if o.Reason != transfer.ReasonNone {
			line += fmt.Sprintf(" (%s)", o.Reason)
		}
		return line
	}
}

// FormatSummary formats the counts per status and any non-zero exit status
func (f *DefaultFormatter) FormatSummary(res transfer.RunResult) string {
	parts := []string{
		fmt.Sprintf("%d copied", res.Count(transfer.StatusCopied)),
		fmt.Sprintf("%d skipped", res.Count(transfer.StatusSkipped)),
		fmt.Sprintf("%d failed", res.Count(transfer.StatusFailed)),
	}
	line := "📦 " + strings.Join(parts, ", ")
	if code := res.ExitStatus(); code != 0 {
		line += fmt.Sprintf(" (exit status %d)", code)
	}
	return line
}
