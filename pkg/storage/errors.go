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

package storage

import (
	"gitlab.com/tozd/go/errors"
)

// Backend error kinds. Adapters wrap these so callers can classify with errors.Is.
var (
	ErrNotFound         = errors.Base("node not found")
	ErrForbidden        = errors.Base("forbidden")
	ErrUnauthorized     = errors.Base("unauthorized")
	ErrNodeLocked       = errors.Base("NodeLocked")
	ErrRemoteService    = errors.Base("remote service failure")
	ErrInvalidReference = errors.Base("invalid reference")
	ErrAuthExpired      = errors.Base("auth expired")
	ErrUnknownScheme    = errors.Base("no adapter registered for scheme")
)

// 🔍 IsDenied reports whether err means the path cannot be seen by this caller
func IsDenied(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden) || errors.Is(err, ErrUnauthorized)
}
