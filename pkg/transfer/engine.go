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
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/walteh/canfar/pkg/storage"
	"gitlab.com/tozd/go/errors"
)

// 🚂 Engine walks task trees and drives each leaf transfer through the retry
// policy. It runs on the calling goroutine only.
type Engine struct {
	backends Backends
	policy   RetryPolicy
	clock    clockwork.Clock
	prompter Prompter
	observer Observer
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

func WithRetryPolicy(p RetryPolicy) EngineOption { return func(e *Engine) { e.policy = p } }

func WithClock(c clockwork.Clock) EngineOption { return func(e *Engine) { e.clock = c } }

func WithPrompter(p Prompter) EngineOption { return func(e *Engine) { e.prompter = p } }

func WithObserver(o Observer) EngineOption { return func(e *Engine) { e.observer = o } }

// 🏭 NewEngine creates an engine over backends
func NewEngine(backends Backends, opts ...EngineOption) *Engine {
	e := &Engine{
		backends: backends,
		policy:   DefaultRetryPolicy(),
		clock:    clockwork.NewRealClock(),
		prompter: declineAll{},
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// 🏃 Run executes tasks in order. An aborting failure or a cancelled context
// stops the run; the result accumulated so far is returned with the error.
func (e *Engine) Run(ctx context.Context, tasks []Task) (RunResult, error) {
	var res RunResult
	for _, t := range tasks {
		if err := ctx.Err(); err != nil {
			return res, errors.Errorf("%w: %v", ErrInterrupted, err)
		}

		r, err := e.copy(ctx, t, ancestry{})
		res = res.Merge(r)
		if err != nil {
			return res, err
		}
	}
	return res, nil
}

// ancestry holds the resolved directories on the current branch
type ancestry map[string]bool

func (a ancestry) with(key string) ancestry {
	next := make(ancestry, len(a)+1)
	for k := range a {
		next[k] = true
	}
	next[key] = true
	return next
}

// copy handles one node. Invalid references are downgraded to a warning so the
// caller continues with the next sibling.
func (e *Engine) copy(ctx context.Context, t Task, seen ancestry) (RunResult, error) {
	res, err := e.copyNode(ctx, t, seen)
	if err == nil || !isInvalidReference(err) || KindOf(err) == KindInterrupted {
		return res, err
	}

	o := Outcome{
		Source:       t.Source.String(),
		Destination:  t.Destination.String(),
		Status:       StatusSkipped,
		Reason:       ReasonInvalidRef,
		Kind:         KindInvalidReference,
		Err:          err,
		Contribution: contributionInvalidRef,
	}
	e.observer.Observe(ctx, Event{
		Kind:        EventWarning,
		Source:      o.Source,
		Destination: o.Destination,
		Err:         err,
		Message:     fmt.Sprintf("%v: Skipping", err),
	})
	return e.finish(ctx, res, o), nil
}

func (e *Engine) copyNode(ctx context.Context, t Task, seen ancestry) (RunResult, error) {
	var res RunResult

	src, err := e.backends.For(t.Source)
	if err != nil {
		return res, err
	}

	if !t.Options.FollowLinks {
		link, err := src.IsSymlink(ctx, t.Source)
		if err != nil {
			return res, errors.Errorf("checking %s: %w", t.Source, err)
		}
		if link {
			return e.finish(ctx, res, Outcome{
				Source:      t.Source.String(),
				Destination: t.Destination.String(),
				Status:      StatusSkipped,
				Reason:      ReasonSymlink,
			}), nil
		}
	}

	isDir, err := src.IsDir(ctx, t.Source)
	if err != nil {
		return res, errors.Errorf("checking %s: %w", t.Source, err)
	}
	if !isDir {
		return e.copyFile(ctx, t)
	}

	key, err := e.directoryKey(ctx, src, t)
	if err != nil {
		return res, err
	}
	if seen[key] {
		e.observer.Observe(ctx, Event{
			Kind:    EventWarning,
			Source:  t.Source.String(),
			Message: fmt.Sprintf("%s: Skipping (symbolic link cycle back to %s)", t.Source, key),
		})
		return e.finish(ctx, res, Outcome{
			Source:      t.Source.String(),
			Destination: t.Destination.String(),
			Status:      StatusSkipped,
			Reason:      ReasonCycle,
		}), nil
	}

	if err := e.ensureDir(ctx, t); err != nil {
		return res, err
	}

	names, err := src.List(ctx, t.Source)
	if err != nil {
		return res, errors.Errorf("listing %s: %w", t.Source, err)
	}

	branch := seen.with(key)
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return res, errors.Errorf("%w: %v", ErrInterrupted, err)
		}
		zerolog.Ctx(ctx).Debug().Str("name", name).Str("directory", t.Source.String()).Msg("descending")

		r, err := e.copy(ctx, t.child(name), branch)
		res = res.Merge(r)
		if err != nil {
			return res, err
		}
	}

	return res, nil
}

// directoryKey identifies a directory by its resolved location so a followed
// link back to an ancestor is recognized
func (e *Engine) directoryKey(ctx context.Context, src storage.Adapter, t Task) (string, error) {
	if !t.Options.FollowLinks {
		return t.Source.Location(), nil
	}
	link, err := src.IsSymlink(ctx, t.Source)
	if err != nil {
		return "", errors.Errorf("checking %s: %w", t.Source, err)
	}
	if !link {
		return t.Source.Location(), nil
	}
	target, err := src.ResolveLink(ctx, t.Source)
	if err != nil {
		return "", errors.Errorf("resolving %s: %w", t.Source, err)
	}
	return target.Location(), nil
}

func (e *Engine) ensureDir(ctx context.Context, t Task) error {
	dst, err := e.backends.For(t.Destination)
	if err != nil {
		return err
	}

	isDir, err := dst.IsDir(ctx, t.Destination)
	if err != nil {
		return errors.Errorf("checking %s: %w", t.Destination, err)
	}
	if isDir {
		return nil
	}

	if err := dst.MakeDir(ctx, t.Destination); err != nil {
		return &TaskError{Source: t.Source.String(), Destination: t.Destination.String(), Err: err}
	}
	e.observer.Observe(ctx, Event{Kind: EventDirectory, Source: t.Source.String(), Destination: t.Destination.String()})
	return nil
}

// copyFile runs one leaf through the overwrite check, the filters and the retry loop
func (e *Engine) copyFile(ctx context.Context, t Task) (RunResult, error) {
	var res RunResult
	source, destination := t.Source.String(), t.Destination.String()

	if t.Options.Interrogate {
		dst, err := e.backends.For(t.Destination)
		if err != nil {
			return res, err
		}
		exists, err := dst.Exists(ctx, t.Destination, storage.AccessExists)
		if err != nil {
			return res, errors.Errorf("checking %s: %w", t.Destination, err)
		}
		if exists {
			ok, err := e.prompter.Confirm(ctx, fmt.Sprintf("File %s exists. Overwrite? (y/n)", destination))
			if err != nil {
				return res, errors.Errorf("asking to overwrite %s: %w", destination, err)
			}
			if !ok {
				err := errors.Errorf("%w: %s", ErrUserDeclined, destination)
				e.observer.Observe(ctx, Event{Kind: EventWarning, Source: source, Destination: destination, Err: err, Message: err.Error()})
				return e.finish(ctx, res, Outcome{
					Source:       source,
					Destination:  destination,
					Status:       StatusFailed,
					Reason:       ReasonUserDeclined,
					Kind:         KindUserDeclined,
					Err:          err,
					Contribution: contributionDeclined,
				}), nil
			}
		}
	}

	if t.Options.shouldSkip(destination) {
		zerolog.Ctx(ctx).Debug().Str("destination", destination).Msg("filtered")
		return e.finish(ctx, res, Outcome{
			Source:      source,
			Destination: destination,
			Status:      StatusSkipped,
			Reason:      ReasonFiltered,
		}), nil
	}

	e.observer.Observe(ctx, Event{Kind: EventAnnounce, Source: source, Destination: destination})

	outcome := Outcome{Source: source, Destination: destination}
	bounded := 0
	for {
		outcome.Attempts++
		err := e.backends.Transfer(ctx, t.Source, t.Destination, t.Options.HeadOnly)
		d := e.policy.Classify(err, bounded+1, t.Options.IgnoreErrors)
		if d.Bounded {
			bounded++
		}
		outcome.Contribution += d.Contribution

		switch d.Action {
		case ActionSucceed:
			outcome.Status = StatusCopied
			return e.finish(ctx, res, outcome), nil

		case ActionSkipAfterLimit:
			outcome.Status = StatusSkipped
			outcome.Reason = ReasonRetryLimit
			outcome.Kind = KindOf(err)
			outcome.Err = err
			e.observer.Observe(ctx, Event{
				Kind:        EventWarning,
				Source:      source,
				Destination: destination,
				Attempt:     outcome.Attempts,
				Err:         err,
				Message:     fmt.Sprintf("%v (skipping after %d attempts)", err, outcome.Attempts),
			})
			return e.finish(ctx, res, outcome), nil

		case ActionRetry:
			e.observer.Observe(ctx, Event{
				Kind:        EventRetry,
				Source:      source,
				Destination: destination,
				Attempt:     outcome.Attempts,
				Err:         err,
				Message:     fmt.Sprintf("%v (retrying)", err),
			})
			if d.Delay > 0 {
				select {
				case <-e.clock.After(d.Delay):
				case <-ctx.Done():
					outcome.Status = StatusFailed
					outcome.Kind = KindInterrupted
					outcome.Err = ctx.Err()
					return e.finish(ctx, res, outcome), errors.Errorf("%w: %v", ErrInterrupted, ctx.Err())
				}
			}

		default:
			outcome.Kind = KindOf(err)
			outcome.Err = err
			if outcome.Kind == KindInvalidReference {
				outcome.Status = StatusSkipped
				outcome.Reason = ReasonInvalidRef
				outcome.Contribution += contributionInvalidRef
				e.observer.Observe(ctx, Event{Kind: EventWarning, Source: source, Destination: destination, Err: err, Message: fmt.Sprintf("%v: Skipping", err)})
				return e.finish(ctx, res, outcome), nil
			}
			outcome.Status = StatusFailed
			res = e.finish(ctx, res, outcome)
			if outcome.Kind == KindInterrupted {
				return res, errors.Errorf("%w: %v", ErrInterrupted, err)
			}
			return res, &TaskError{Source: source, Destination: destination, Err: err}
		}
	}
}

func (e *Engine) finish(ctx context.Context, res RunResult, o Outcome) RunResult {
	zerolog.Ctx(ctx).Debug().
		Str("source", o.Source).
		Str("destination", o.Destination).
		Stringer("status", o.Status).
		Int("attempts", o.Attempts).
		Msg("task finished")
	e.observer.Observe(ctx, Event{Kind: EventOutcome, Source: o.Source, Destination: o.Destination, Outcome: &o})
	return res.record(o)
}
