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

// Package auth builds the HTTP clients used to talk to CANFAR services.
package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/walteh/canfar/pkg/storage"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/oauth2"
)

// 🔑 Context is the credential attached to outgoing requests
type Context struct {
	Token  string
	Expiry time.Time // zero means no expiry
}

// Expired reports whether the context has expired at now
func (c Context) Expired(now time.Time) bool {
	return !c.Expiry.IsZero() && !now.Before(c.Expiry)
}

// Options tune the client built by NewHTTPClient
type Options struct {
	Timeout time.Duration
	Clock   clockwork.Clock
	Base    http.RoundTripper
}

// 🏭 NewHTTPClient returns a client that refuses every request once c has
// expired and sends the bearer token otherwise
func NewHTTPClient(ctx context.Context, c Context, opts Options) *http.Client {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Base == nil {
		opts.Base = http.DefaultTransport
	}

	var rt http.RoundTripper = opts.Base
	if c.Token != "" {
		rt = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.Token, TokenType: "Bearer"}),
			Base:   rt,
		}
	} else {
		zerolog.Ctx(ctx).Debug().Msg("no token configured, sending anonymous requests")
	}

	return &http.Client{
		Timeout:   opts.Timeout,
		Transport: &expiryGuard{next: rt, auth: c, clock: opts.Clock},
	}
}

// expiryGuard checks the auth context before each request leaves the process
type expiryGuard struct {
	next  http.RoundTripper
	auth  Context
	clock clockwork.Clock
}

func (g *expiryGuard) RoundTrip(req *http.Request) (*http.Response, error) {
	if g.auth.Expired(g.clock.Now()) {
		if req.Body != nil {
			req.Body.Close()
		}
		return nil, errors.Errorf("%w: context expired at %s", storage.ErrAuthExpired, g.auth.Expiry.Format(time.RFC3339))
	}
	return g.next.RoundTrip(req)
}
