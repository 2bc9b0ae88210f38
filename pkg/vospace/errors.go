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

package vospace

import (
	"io"
	"net/http"
	"strings"

	"github.com/walteh/canfar/pkg/storage"
	"gitlab.com/tozd/go/errors"
)

const maxErrorBody = 4 << 10

// statusError maps a failed response onto the storage error kinds. The
// service reports locked nodes in the body, sometimes without a 423.
func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	var kind error
	switch {
	case resp.StatusCode == http.StatusLocked || strings.Contains(msg, "NodeLocked"):
		kind = storage.ErrNodeLocked
	case resp.StatusCode == http.StatusNotFound:
		kind = storage.ErrNotFound
	case resp.StatusCode == http.StatusForbidden:
		kind = storage.ErrForbidden
	case resp.StatusCode == http.StatusUnauthorized:
		kind = storage.ErrUnauthorized
	case resp.StatusCode == http.StatusBadRequest:
		kind = storage.ErrInvalidReference
	case resp.StatusCode >= 500:
		kind = storage.ErrRemoteService
	default:
		return errors.Errorf("unexpected status code %d: %s", resp.StatusCode, msg)
	}

	err := errors.WithDetails(errors.Errorf("%w: %s", kind, msg), "status", resp.StatusCode)
	if resp.Request != nil {
		err = errors.WithDetails(err, "url", resp.Request.URL.String())
	}
	return err
}
