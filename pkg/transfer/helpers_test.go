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
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/mock"
	"github.com/walteh/canfar/pkg/node"
	"github.com/walteh/canfar/pkg/storage"
	"github.com/walteh/canfar/pkg/storage/local"
	"github.com/walteh/canfar/pkg/storage/remote"
	"github.com/walteh/canfar/pkg/storage/storagetest"
)

type fixture struct {
	fs       afero.Fs
	store    *storagetest.MemStore
	backends *countingBackends
	events   *eventLog
}

func newFixture(t *testing.T, fs afero.Fs) *fixture {
	t.Helper()
	if fs == nil {
		fs = afero.NewMemMapFs()
	}
	store := storagetest.NewMemStore("vos")
	reg := storage.NewRegistry(local.New(fs))
	reg.Register(remote.New(store))
	return &fixture{
		fs:       fs,
		store:    store,
		backends: &countingBackends{Backends: reg},
		events:   &eventLog{},
	}
}

func testContext(t *testing.T) context.Context {
	return zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
}

// countingBackends records adapter lookups and transfers
type countingBackends struct {
	Backends
	mu        sync.Mutex
	lookups   int
	transfers int
}

func (c *countingBackends) For(p node.Path) (storage.Adapter, error) {
	c.mu.Lock()
	c.lookups++
	c.mu.Unlock()
	return c.Backends.For(p)
}

func (c *countingBackends) Transfer(ctx context.Context, src, dst node.Path, head bool) error {
	c.mu.Lock()
	c.transfers++
	c.mu.Unlock()
	return c.Backends.Transfer(ctx, src, dst, head)
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) Observe(ctx context.Context, ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) count(kind EventKind) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, ev := range l.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

type mockPrompter struct {
	mock.Mock
}

func (m *mockPrompter) Confirm(ctx context.Context, question string) (bool, error) {
	args := m.Called(ctx, question)
	return args.Bool(0), args.Error(1)
}
