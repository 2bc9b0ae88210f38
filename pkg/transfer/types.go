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

package transfer

import (
	"github.com/walteh/canfar/pkg/node"
)

// 🔧 Options are the per-request copy flags, inherited by every task
type Options struct {
	Exclude      []string // substrings; a match skips the leaf
	Include      []string // substrings; when set only matching leaves are copied
	Interrogate  bool     // prompt before overwriting an existing destination
	FollowLinks  bool
	IgnoreErrors bool // retry generic failures a bounded number of times, then skip
	HeadOnly     bool // copy only the header view of remote sources
}

// 📋 Spec is one copy request. Sources are raw tokens that may carry wildcards
// and cutouts; Destination is a raw token.
type Spec struct {
	Sources     []string
	Destination string
	Options     Options
}

// 📦 Task is one concrete source and its fully resolved destination
type Task struct {
	Source      node.Path
	Destination node.Path
	Options     Options
}

// child derives the task for a directory entry
func (t Task) child(name string) Task {
	return Task{
		Source:      t.Source.Join(name),
		Destination: t.Destination.Join(name),
		Options:     t.Options,
	}
}

// 🎯 Status is the final state of one task
type Status int

const (
	StatusCopied Status = iota
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusCopied:
		return "copied"
	case StatusSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// 🏷️ Reason says why a task ended the way it did
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonSymlink      Reason = "symbolic link"
	ReasonFiltered     Reason = "filtered"
	ReasonRetryLimit   Reason = "retry limit"
	ReasonUserDeclined Reason = "overwrite declined"
	ReasonInvalidRef   Reason = "invalid reference"
	ReasonAccess       Reason = "cannot access source"
	ReasonHeadLocal    Reason = "header view needs a remote source"
	ReasonCycle        Reason = "symbolic link cycle"
)

// 📝 Outcome is the immutable record of one executed task
type Outcome struct {
	Source       string
	Destination  string
	Status       Status
	Reason       Reason
	Attempts     int
	Kind         ErrorKind
	Err          error
	Contribution int // amount added to the exit status
}

// 📊 RunResult aggregates the outcomes of one invocation. Values are merged by
// the caller rather than shared, so each recursive step returns its own result.
type RunResult struct {
	outcomes []Outcome
}

// 🏭 NewRunResult creates a result holding outcomes in order
func NewRunResult(outcomes ...Outcome) RunResult {
	return RunResult{}.Merge(RunResult{outcomes: outcomes})
}

// record returns a result with o appended
func (r RunResult) record(o Outcome) RunResult {
	return RunResult{outcomes: append(r.Outcomes(), o)}
}

// 🔗 Merge returns a result holding r's outcomes followed by other's
func (r RunResult) Merge(other RunResult) RunResult {
	out := make([]Outcome, 0, len(r.outcomes)+len(other.outcomes))
	out = append(out, r.outcomes...)
	out = append(out, other.outcomes...)
	return RunResult{outcomes: out}
}

// Outcomes returns a copy of the recorded outcomes
func (r RunResult) Outcomes() []Outcome {
	out := make([]Outcome, len(r.outcomes))
	copy(out, r.outcomes)
	return out
}

// Count returns how many outcomes ended with status s
func (r RunResult) Count(s Status) int {
	n := 0
	for _, o := range r.outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// 🚦 ExitStatus is the accumulated exit status; zero means every task succeeded or
// was skipped without an error contribution. Non-zero values are an opaque
// partial-failure signal.
func (r RunResult) ExitStatus() int {
	sum := 0
	for _, o := range r.outcomes {
		sum += o.Contribution
	}
	return sum
}
