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
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"
	"github.com/walteh/canfar/pkg/auth"
	"gitlab.com/tozd/go/errors"
)

const (
	// TokenEnv overrides context.token when set
	TokenEnv = "CANFAR_TOKEN"

	DefaultEndpoint       = "https://ws-uv.canfar.net"
	DefaultImagesEndpoint = "https://ws-uv.canfar.net/skaha/v0/image"
	DefaultRetryLimit     = 100
	DefaultRetryDelay     = "5s"
)

// DefaultSchemes are the node store schemes recognized out of the box
var DefaultSchemes = []string{"vos", "arc"}

// 🛰️ VOSpace configures the node service
type VOSpace struct {
	Endpoint string   `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Schemes  []string `json:"schemes,omitempty" yaml:"schemes,omitempty"`
	Timeout  string   `json:"timeout,omitempty" yaml:"timeout,omitempty"` // empty means no limit

	timeout time.Duration
}

// 🖼️ Images configures the image catalog
type Images struct {
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
}

// 🔑 AuthContext is the credential sent to every service
type AuthContext struct {
	Token  string `json:"token,omitempty" yaml:"token,omitempty"`
	Expiry string `json:"expiry,omitempty" yaml:"expiry,omitempty"` // RFC 3339

	expiry time.Time
}

// 🔁 Copy tunes the copy command
type Copy struct {
	RetryLimit int    `json:"retry_limit,omitempty" yaml:"retry_limit,omitempty"`
	RetryDelay string `json:"retry_delay,omitempty" yaml:"retry_delay,omitempty"`

	retryDelay time.Duration
}

// 📚 Config represents the complete configuration
type Config struct {
	VOSpace VOSpace     `json:"vospace" yaml:"vospace"`
	Images  Images      `json:"images" yaml:"images"`
	Context AuthContext `json:"context" yaml:"context"`
	Copy    Copy        `json:"copy" yaml:"copy"`

	path       string
	discovered bool
}

// 🏠 DefaultPath is ~/.canfar/config.yaml
func DefaultPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", errors.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".canfar", "config.yaml"), nil
}

// 🎯 Load reads the configuration at path, or at DefaultPath when path is
// empty. A missing file yields the defaults.
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, errors.Errorf("expanding config path: %w", err)
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Debug().Str("path", path).Msg("no configuration file, using defaults")
	case err != nil:
		return nil, errors.Errorf("reading config file: %w", err)
	default:
		logger.Debug().Str("path", path).Msg("loading configuration")
		p := GetParser(path)
		if p == nil {
			return nil, errors.Errorf("no parser found for file: %s", path)
		}
		cfg, err = p.Parse(ctx, data)
		if err != nil {
			return nil, errors.Errorf("parsing config: %w", err)
		}
		cfg.discovered = true
	}
	cfg.path = path

	if tok := os.Getenv(TokenEnv); tok != "" {
		logger.Debug().Msg("token taken from " + TokenEnv)
		cfg.Context.Token = tok
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// 🔍 Validate fills defaults and checks every value
func (cfg *Config) Validate() error {
	if cfg.VOSpace.Endpoint == "" {
		cfg.VOSpace.Endpoint = DefaultEndpoint
	}
	if err := absoluteURL("vospace.endpoint", cfg.VOSpace.Endpoint); err != nil {
		return err
	}
	if len(cfg.VOSpace.Schemes) == 0 {
		cfg.VOSpace.Schemes = append([]string(nil), DefaultSchemes...)
	}
	for _, s := range cfg.VOSpace.Schemes {
		if s == "" || strings.ContainsAny(s, ":/ ") {
			return errors.Errorf("vospace.schemes: invalid scheme %q", s)
		}
	}
	if cfg.VOSpace.Timeout != "" {
		d, err := time.ParseDuration(cfg.VOSpace.Timeout)
		if err != nil || d < 0 {
			return errors.Errorf("vospace.timeout: invalid duration %q", cfg.VOSpace.Timeout)
		}
		cfg.VOSpace.timeout = d
	}

	if cfg.Images.Endpoint == "" {
		cfg.Images.Endpoint = DefaultImagesEndpoint
	}
	if err := absoluteURL("images.endpoint", cfg.Images.Endpoint); err != nil {
		return err
	}

	if cfg.Context.Expiry != "" {
		t, err := time.Parse(time.RFC3339, cfg.Context.Expiry)
		if err != nil {
			return errors.Errorf("context.expiry: %w", err)
		}
		cfg.Context.expiry = t
	}

	if cfg.Copy.RetryLimit == 0 {
		cfg.Copy.RetryLimit = DefaultRetryLimit
	}
	if cfg.Copy.RetryLimit < 0 {
		return errors.Errorf("copy.retry_limit must be positive, got %d", cfg.Copy.RetryLimit)
	}
	if cfg.Copy.RetryDelay == "" {
		cfg.Copy.RetryDelay = DefaultRetryDelay
	}
	d, err := time.ParseDuration(cfg.Copy.RetryDelay)
	if err != nil || d < 0 {
		return errors.Errorf("copy.retry_delay: invalid duration %q", cfg.Copy.RetryDelay)
	}
	cfg.Copy.retryDelay = d

	return nil
}

func absoluteURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.Errorf("%s must be an absolute URL, got %q", field, raw)
	}
	return nil
}

// Path is the file the configuration was looked up at
func (cfg *Config) Path() string { return cfg.path }

// Discovered reports whether the file existed
func (cfg *Config) Discovered() bool { return cfg.discovered }

func (v VOSpace) RequestTimeout() time.Duration { return v.timeout }

// ServiceURL is the node service base URL for scheme. "vos" is served by
// the vault service, any other scheme by the service of the same name.
func (v VOSpace) ServiceURL(scheme string) string {
	service := scheme
	if scheme == "vos" {
		service = "vault"
	}
	return strings.TrimSuffix(v.Endpoint, "/") + "/" + service
}

func (c Copy) Delay() time.Duration { return c.retryDelay }

// Auth converts the context section for the HTTP client
func (cfg *Config) Auth() auth.Context {
	return auth.Context{Token: cfg.Context.Token, Expiry: cfg.Context.expiry}
}

// 🙈 Redacted returns a copy safe to print
func (cfg *Config) Redacted() Config {
	out := *cfg
	out.VOSpace.Schemes = append([]string(nil), cfg.VOSpace.Schemes...)
	if out.Context.Token != "" {
		out.Context.Token = "********"
	}
	return out
}
