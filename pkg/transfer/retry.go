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
	"context"
	"syscall"
	"time"

	"gitlab.com/tozd/go/errors"
)

const (
	DefaultRetryLimit = 100
	DefaultRetryDelay = 5 * time.Second
)

// 🎯 Action is what the retry loop does next
type Action int

const (
	ActionSucceed Action = iota
	ActionRetry
	ActionSkipAfterLimit
	ActionAbort
)

func (a Action) String() string {
	switch a {
	case ActionSucceed:
		return "succeed"
	case ActionRetry:
		return "retry"
	case ActionSkipAfterLimit:
		return "skip"
	default:
		return "abort"
	}
}

// 🏷️ Decision is the classified result of one transfer attempt
type Decision struct {
	Action       Action
	Delay        time.Duration // pause before the next attempt, ActionRetry only
	Contribution int           // amount added to the exit status
	Bounded      bool          // the failure counts toward the retry limit
}

// 🔁 RetryPolicy classifies transfer failures
type RetryPolicy struct {
	Limit int
	Delay time.Duration
}

// 🏭 DefaultRetryPolicy allows 100 attempts 5 seconds apart
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Limit: DefaultRetryLimit, Delay: DefaultRetryDelay}
}

// 🔍 Classify decides what follows an attempt that returned err. attempt is the
// number of bounded failures so far, this one included.
func (p RetryPolicy) Classify(err error, attempt int, ignoreErrors bool) Decision {
	switch {
	case err == nil:
		return Decision{Action: ActionSucceed}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Decision{Action: ActionAbort}
	case errors.Is(err, syscall.ECONNRESET):
		return Decision{Action: ActionRetry, Contribution: contributionConnReset}
	case errors.Is(err, syscall.EIO):
		return Decision{Action: ActionRetry}
	case !ignoreErrors:
		return Decision{Action: ActionAbort}
	case attempt >= p.Limit:
		return Decision{Action: ActionSkipAfterLimit, Bounded: true}
	default:
		return Decision{Action: ActionRetry, Delay: p.Delay, Bounded: true}
	}
}
