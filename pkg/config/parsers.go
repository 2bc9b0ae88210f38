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

package config

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var parsers []Parser

func init() {
	Register(&YAMLParser{})
	Register(&JSONParser{})
	Register(&HCLParser{})
}

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

func hasExt(filename string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// 🔧 YAMLParser implements the Parser interface for YAML files
type YAMLParser struct{}

func (p *YAMLParser) CanParse(filename string) bool { return hasExt(filename, ".yaml", ".yml") }

func (p *YAMLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &cfg, nil
		}
		return nil, errors.Errorf("parsing YAML: %w", err)
	}
	return &cfg, nil
}

// 🔧 JSONParser implements the Parser interface for JSON files
type JSONParser struct{}

func (p *JSONParser) CanParse(filename string) bool { return hasExt(filename, ".json") }

func (p *JSONParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	var cfg Config
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return nil, errors.Errorf("parsing JSON: %w", err)
	}
	return &cfg, nil
}

// 🔧 HCLParser implements the Parser interface for HCL files. String
// attributes may reference env.NAME for the process environment.
type HCLParser struct {
	// Env seeds the env variable; nil means the process environment
	Env map[string]string
}

func (p *HCLParser) CanParse(filename string) bool { return hasExt(filename, ".hcl") }

type hclConfig struct {
	VOSpace *struct {
		Endpoint string   `hcl:"endpoint,optional"`
		Schemes  []string `hcl:"schemes,optional"`
		Timeout  string   `hcl:"timeout,optional"`
	} `hcl:"vospace,block"`
	Images *struct {
		Endpoint string `hcl:"endpoint,optional"`
	} `hcl:"images,block"`
	Context *struct {
		Token  string `hcl:"token,optional"`
		Expiry string `hcl:"expiry,optional"`
	} `hcl:"context,block"`
	Copy *struct {
		RetryLimit int    `hcl:"retry_limit,optional"`
		RetryDelay string `hcl:"retry_delay,optional"`
	} `hcl:"copy,block"`
}

func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": envObject(p.Env)},
	}

	var raw hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &raw)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	cfg := &Config{}
	if raw.VOSpace != nil {
		cfg.VOSpace = VOSpace{Endpoint: raw.VOSpace.Endpoint, Schemes: raw.VOSpace.Schemes, Timeout: raw.VOSpace.Timeout}
	}
	if raw.Images != nil {
		cfg.Images = Images{Endpoint: raw.Images.Endpoint}
	}
	if raw.Context != nil {
		cfg.Context = AuthContext{Token: raw.Context.Token, Expiry: raw.Context.Expiry}
	}
	if raw.Copy != nil {
		cfg.Copy = Copy{RetryLimit: raw.Copy.RetryLimit, RetryDelay: raw.Copy.RetryDelay}
	}
	return cfg, nil
}

func envObject(env map[string]string) cty.Value {
	if env == nil {
		env = map[string]string{}
		for _, kv := range os.Environ() {
			k, v, ok := strings.Cut(kv, "=")
			if ok && hclIdentifier(k) {
				env[k] = v
			}
		}
	}
	if len(env) == 0 {
		return cty.EmptyObjectVal
	}
	vals := make(map[string]cty.Value, len(env))
	for k, v := range env {
		vals[k] = cty.StringVal(v)
	}
	return cty.ObjectVal(vals)
}

func hclIdentifier(s string) bool {
	for i, r := range s {
		letter := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if !letter && (i == 0 || r < '0' || r > '9') {
			return false
		}
	}
	return s != ""
}
