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

	"github.com/rs/zerolog"
	"github.com/walteh/canfar/pkg/node"
	"github.com/walteh/canfar/pkg/storage"
	"gitlab.com/tozd/go/errors"
)

// 🔌 Backends resolves paths to storage adapters and moves bytes between them
type Backends interface {
	Parse(raw string) (node.Path, error)
	For(p node.Path) (storage.Adapter, error)
	Transfer(ctx context.Context, src, dst node.Path, head bool) error
}

var _ Backends = (*storage.Registry)(nil)

// 📋 Plan is the set of top-level tasks for a Spec, plus the outcomes of sources
// that were rejected while planning
type Plan struct {
	Tasks  []Task
	Result RunResult
}

// 🗺️ Planner expands source tokens and resolves destinations
type Planner struct {
	backends Backends
	observer Observer
}

// 🏭 NewPlanner creates a planner; a nil observer discards events
func NewPlanner(backends Backends, observer Observer) *Planner {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Planner{backends: backends, observer: observer}
}

// 🗺️ Plan turns spec into tasks. Remote-to-remote requests fail before any probe.
func (p *Planner) Plan(ctx context.Context, spec Spec) (*Plan, error) {
	logger := zerolog.Ctx(ctx)

	if len(spec.Sources) == 0 {
		return nil, errors.New("no sources given")
	}

	dest, err := p.backends.Parse(spec.Destination)
	if err != nil {
		return nil, errors.Errorf("parsing destination: %w", err)
	}

	if dest.IsRemote() {
		for _, token := range spec.Sources {
			bare, _ := node.ParseSource(token)
			src, err := p.backends.Parse(bare)
			if err != nil {
				return nil, errors.Errorf("parsing source %q: %w", token, err)
			}
			if src.IsRemote() {
				return nil, errors.WithDetails(ErrCrossBackend, "source", token, "destination", spec.Destination)
			}
		}
	}

	dstAdapter, err := p.backends.For(dest)
	if err != nil {
		return nil, err
	}

	destExists, err := dstAdapter.Exists(ctx, dest, storage.AccessExists)
	if err != nil {
		return nil, errors.Errorf("checking destination %s: %w", dest, err)
	}

	if !destExists && len(spec.Sources) > 1 {
		return nil, errors.Errorf("%w (%s)", ErrAmbiguousDestination, dest)
	}

	destIsDir := false
	if destExists {
		if destIsDir, err = dstAdapter.IsDir(ctx, dest); err != nil {
			return nil, errors.Errorf("checking destination %s: %w", dest, err)
		}
	}

	plan := &Plan{}

	for _, token := range spec.Sources {
		bare, cutout := node.ParseSource(token)
		logger.Debug().Str("token", token).Str("cutout", cutout.Raw).Msg("parsed source")

		pattern, err := p.backends.Parse(bare)
		if err != nil {
			return nil, errors.Errorf("parsing source %q: %w", token, err)
		}

		if spec.Options.HeadOnly && !pattern.IsRemote() {
			plan.Result = p.reject(ctx, plan.Result, Outcome{
				Source: token,
				Status: StatusSkipped,
				Reason: ReasonHeadLocal,
			}, "--head only works for remote source files")
			continue
		}

		srcAdapter, err := p.backends.For(pattern)
		if err != nil {
			return nil, err
		}

		matches := []node.Path{pattern}
		if pattern.HasMeta() {
			expanded, err := srcAdapter.Expand(ctx, pattern)
			if err != nil {
				return nil, errors.Errorf("expanding %s: %w", token, err)
			}
			if len(expanded) > 0 {
				matches = expanded
			}
		}

		for _, m := range matches {
			src := m.WithCutout(cutout)

			task, outcome, err := p.resolve(ctx, srcAdapter, src, dstAdapter, dest, destExists, destIsDir, spec)
			if err != nil {
				return nil, err
			}
			if outcome != nil {
				plan.Result = p.reject(ctx, plan.Result, *outcome, "")
				continue
			}
			plan.Tasks = append(plan.Tasks, *task)
		}
	}

	return plan, nil
}

// resolve applies the cp destination rules to one concrete source
func (p *Planner) resolve(ctx context.Context, srcAdapter storage.Adapter, src node.Path, dstAdapter storage.Adapter, dest node.Path, destExists, destIsDir bool, spec Spec) (*Task, *Outcome, error) {
	// a link is skipped whatever its target, so it is checked before the
	// read probe follows it
	if !spec.Options.FollowLinks {
		link, err := srcAdapter.IsSymlink(ctx, src)
		if err != nil {
			return nil, nil, errors.Errorf("checking source %s: %w", src, err)
		}
		if link {
			return nil, &Outcome{Source: src.String(), Status: StatusSkipped, Reason: ReasonSymlink}, nil
		}
	}

	readable, err := srcAdapter.Exists(ctx, src, storage.AccessRead)
	if err != nil {
		return nil, nil, errors.Errorf("checking source %s: %w", src, err)
	}
	if !readable {
		return nil, &Outcome{
			Source:       src.String(),
			Status:       StatusFailed,
			Reason:       ReasonAccess,
			Kind:         KindAccess,
			Err:          errors.Errorf("%w: %s", ErrAccess, src),
			Contribution: contributionAccess,
		}, nil
	}

	srcIsDir, err := srcAdapter.IsDir(ctx, src)
	if err != nil {
		return nil, nil, errors.Errorf("checking source %s: %w", src, err)
	}

	effective := dest
	switch {
	case srcIsDir && destExists:
		if !destIsDir {
			return nil, nil, errors.Errorf("%w (%s -> %s)", ErrDirectoryOntoFile, src, dest)
		}
		effective = dest.Join(src.Base())
	case srcIsDir:
		// dest is created by the traversal
	case dest.HasTrailingSeparator() || destIsDir:
		effective = dest.Join(src.Base())
	}

	return &Task{Source: src, Destination: effective, Options: spec.Options}, nil, nil
}

func (p *Planner) reject(ctx context.Context, res RunResult, o Outcome, msg string) RunResult {
	if msg == "" && o.Err != nil {
		msg = o.Err.Error()
	}
	if msg == "" {
		msg = o.Source + ": Skipping (" + string(o.Reason) + ")"
	}
	p.observer.Observe(ctx, Event{Kind: EventWarning, Source: o.Source, Err: o.Err, Message: msg})
	p.observer.Observe(ctx, Event{Kind: EventOutcome, Source: o.Source, Outcome: &o})
	return res.record(o)
}
