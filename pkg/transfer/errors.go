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
	"syscall"

	"github.com/walteh/canfar/pkg/storage"
	"gitlab.com/tozd/go/errors"
)

var (
	ErrCrossBackend         = errors.Base("cannot (yet) copy from a remote store to a remote store")
	ErrAccess               = errors.Base("can't access source")
	ErrDirectoryOntoFile    = errors.Base("can't write a directory to a file")
	ErrAmbiguousDestination = errors.Base("cannot copy multiple things into non-existent location")
	ErrUserDeclined         = errors.Base("file exists")
	ErrInterrupted          = errors.Base("execution aborted")
)

// Exit status contributions, matching the low-level error numbers they stand for
const (
	contributionConnReset  = int(syscall.ECONNRESET)
	contributionInvalidRef = int(syscall.EINVAL)
	contributionAccess     = int(syscall.EACCES)
	contributionDeclined   = 1
)

// 🏷️ ErrorKind classifies a failure for reporting
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindInvalidReference
	KindAccess
	KindLockedNode
	KindRemoteService
	KindTransfer
	KindCrossBackend
	KindUserDeclined
	KindInterrupted
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidReference:
		return "InvalidReference"
	case KindAccess:
		return "Access"
	case KindLockedNode:
		return "LockedNode"
	case KindRemoteService:
		return "RemoteServiceFailure"
	case KindTransfer:
		return "Transfer"
	case KindCrossBackend:
		return "CrossBackendUnsupported"
	case KindUserDeclined:
		return "UserDeclined"
	case KindInterrupted:
		return "Interrupted"
	default:
		return "None"
	}
}

// 🔍 KindOf maps an error chain onto its kind
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, context.Canceled), errors.Is(err, ErrInterrupted):
		return KindInterrupted
	case errors.Is(err, ErrCrossBackend):
		return KindCrossBackend
	case errors.Is(err, ErrUserDeclined):
		return KindUserDeclined
	case errors.Is(err, ErrAccess), storage.IsDenied(err):
		return KindAccess
	case errors.Is(err, storage.ErrNodeLocked):
		return KindLockedNode
	case errors.Is(err, storage.ErrRemoteService), errors.Is(err, syscall.EREMOTE):
		return KindRemoteService
	case isInvalidReference(err):
		return KindInvalidReference
	default:
		return KindTransfer
	}
}

func isInvalidReference(err error) bool {
	return errors.Is(err, storage.ErrInvalidReference) || errors.Is(err, syscall.EINVAL)
}

// ❌ TaskError carries the source and destination an aborting failure happened on
type TaskError struct {
	Source      string
	Destination string
	Err         error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("copying %s -> %s: %v", e.Source, e.Destination, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }
