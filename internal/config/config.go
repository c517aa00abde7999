// Package config loads backline configuration from CUE files.
//
// The schema lives in schema.cue and is embedded at build time. A user
// file is unified with the schema, so defaults come from the schema and
// malformed or unknown settings are load-time errors with CUE's own
// diagnostics.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaCUE string

// Config is the decoded, validated configuration.
type Config struct {
	API     APIConfig     `json:"api"`
	Journal JournalConfig `json:"journal"`
	Poll    PollConfig    `json:"poll"`
	Log     LogConfig     `json:"log"`
	Policy  string        `json:"policy"`
}

type APIConfig struct {
	BaseURL        string `json:"base_url"`
	Token          string `json:"token"`
	TokenFile      string `json:"token_file"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// Timeout returns the request timeout as a duration.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

type JournalConfig struct {
	Path string `json:"path"`
}

type PollConfig struct {
	IntervalSeconds int `json:"interval_seconds"`
}

// Interval returns the poll interval as a duration.
func (p PollConfig) Interval() time.Duration {
	return time.Duration(p.IntervalSeconds) * time.Second
}

type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Load reads, unifies, and decodes the CUE config file at path.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(string(raw), path)
}

// Parse unifies CUE source with the embedded schema and decodes it.
// filename is used in error positions.
func Parse(source, filename string) (Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("internal schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))
	if err := def.Err(); err != nil {
		return Config{}, fmt.Errorf("internal schema: %w", err)
	}

	user := ctx.CompileString(source, cue.Filename(filename))
	if err := user.Err(); err != nil {
		return Config{}, fmt.Errorf("parse config: %s", cueerrors.Details(err, nil))
	}

	unified := def.Unify(user)
	if err := unified.Validate(cue.Concrete(true), cue.Final()); err != nil {
		return Config{}, fmt.Errorf("validate config: %s", cueerrors.Details(err, nil))
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}
