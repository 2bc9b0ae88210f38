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

/*
Package config loads the canfar client configuration.

	            +-------------+
	            |   Config    |
	            +------+------+
	                   |
	      +------------+------------+
	      |            |            |
	+-----+----+ +-----+----+ +-----+----+
	|   YAML   | |   JSON   | |   HCL    |
	+----------+ +----------+ +----------+

🎯 Sections:
- vospace: node service endpoint, recognized URI schemes, request timeout
- images: container image catalog endpoint
- context: bearer token and its expiry
- copy: retry limit and delay used with --ignore

🔄 Flow:
1. Resolve the path (--config, else ~/.canfar/config.yaml)
2. Pick a parser by file extension
3. Fill defaults, apply CANFAR_TOKEN, validate

A missing file is not an error: the defaults are returned and
Discovered reports false.

🔍 Example:

	cfg, err := config.Load(ctx, "")
	if err != nil {
		return err
	}
	client := auth.NewHTTPClient(ctx, cfg.Auth(), auth.Options{Timeout: cfg.VOSpace.RequestTimeout()})
*/
package config
