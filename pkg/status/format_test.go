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

package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/walteh/canfar/pkg/transfer"
	"gitlab.com/tozd/go/errors"
)

func TestFormatOutcome(t *testing.T) {
	tests := []struct {
		name        string
		outcome     transfer.Outcome
		want        string
		description string
	}{
		{
			name:        "copied_first_try",
			outcome:     transfer.Outcome{Source: "/src/a.txt", Destination: "vos:/dst/a.txt", Status: transfer.StatusCopied, Attempts: 1},
			want:        "✨ Copied /src/a.txt -> vos:/dst/a.txt",
			description: "should show the transfer pair",
		},
		{
			name:        "copied_after_retries",
			outcome:     transfer.Outcome{Source: "/a", Destination: "vos:/a", Status: transfer.StatusCopied, Attempts: 3},
			want:        "✨ Copied /a -> vos:/a (after 3 attempts)",
			description: "should mention retries",
		},
		{
			name:        "skipped_with_reason",
			outcome:     transfer.Outcome{Source: "/src/link", Status: transfer.StatusSkipped, Reason: transfer.ReasonSymlink},
			want:        "⏭️  Skipped /src/link (symbolic link)",
			description: "should show why the task was skipped",
		},
		{
			name:        "failed_with_error",
			outcome:     transfer.Outcome{Source: "/a", Destination: "vos:/a", Status: transfer.StatusFailed, Err: errors.New("NodeLocked")},
			want:        "❌ Failed /a -> vos:/a: NodeLocked",
			description: "should include the cause",
		},
		{
			name:        "failed_without_error",
			outcome:     transfer.Outcome{Source: "/a", Destination: "vos:/a", Status: transfer.StatusFailed, Reason: transfer.ReasonAccess},
			want:        "❌ Failed /a -> vos:/a (cannot access source)",
			description: "should fall back to the reason",
		},
	}

	f := NewDefaultFormatter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.FormatOutcome(tt.outcome), tt.description)
		})
	}
}

func TestFormatSummary(t *testing.T) {
	tests := []struct {
		name string
		res  transfer.RunResult
		want string
	}{
		{name: "empty", res: transfer.NewRunResult(), want: "📦 0 copied, 0 skipped, 0 failed"},
		{
			name: "clean_run",
			res: transfer.NewRunResult(
				transfer.Outcome{Status: transfer.StatusCopied},
				transfer.Outcome{Status: transfer.StatusCopied},
				transfer.Outcome{Status: transfer.StatusSkipped, Reason: transfer.ReasonFiltered},
			),
			want: "📦 2 copied, 1 skipped, 0 failed",
		},
		{
			name: "partial_failure",
			res: transfer.NewRunResult(
				transfer.Outcome{Status: transfer.StatusCopied, Contribution: 104},
				transfer.Outcome{Status: transfer.StatusFailed, Contribution: 13},
			),
			want: "📦 1 copied, 0 skipped, 1 failed (exit status 117)",
		},
	}

	f := NewDefaultFormatter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.FormatSummary(tt.res))
		})
	}
}
