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
)

// 📣 EventKind is the kind of progress event emitted while planning or copying
type EventKind int

const (
	EventAnnounce  EventKind = iota // a leaf transfer is about to start
	EventDirectory                  // a destination directory was created
	EventRetry                      // an attempt failed and will be retried
	EventWarning                    // a non-fatal problem, the run continues
	EventOutcome                    // a task finished
)

// 📣 Event is a structured progress report; formatting is left to the observer
type Event struct {
	Kind        EventKind
	Source      string
	Destination string
	Attempt     int
	Err         error
	Outcome     *Outcome
	Message     string
}

// 🔌 Observer receives progress events
type Observer interface {
	Observe(ctx context.Context, ev Event)
}

// 🔌 Prompter asks the user a yes/no question
type Prompter interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

type nopObserver struct{}

func (nopObserver) Observe(context.Context, Event) {}

// declineAll answers no to every question
type declineAll struct{}

func (declineAll) Confirm(context.Context, string) (bool, error) { return false, nil }

// ObserverFunc adapts a function to Observer
type ObserverFunc func(ctx context.Context, ev Event)

func (f ObserverFunc) Observe(ctx context.Context, ev Event) { f(ctx, ev) }
