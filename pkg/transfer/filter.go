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
	"strings"
)

// 🔍 SplitPatterns turns a comma separated flag value into a pattern list.
// An empty value means no list at all.
func SplitPatterns(value string) []string {
	if value == "" {
		return nil
	}
	return strings.Split(value, ",")
}

// 🔍 shouldSkip tests the destination against the exclude list and then the
// include list; include is applied last, so an include match re-admits a leaf
// that an exclude pattern matched.
func (o Options) shouldSkip(destination string) bool {
	skip := false
	for _, pattern := range o.Exclude {
		if strings.Contains(destination, pattern) {
			skip = true
		}
	}

	if o.Include != nil {
		skip = true
		for _, pattern := range o.Include {
			if strings.Contains(destination, pattern) {
				skip = false
			}
		}
	}

	return skip
}
