/*
Package config holds the options of a codec engine.

Baseline Options

Indent, Canonical, HTMLCharsAsIs, PreferFloat and SignedInteger are passed unmodified to
the baseline JSON handle (github.com/ugorji/go/codec). The engine adds no formatting
control of its own.

Engine Options

FallThrough, MaxDepth and Logger control the strategy walk.

Options can be read from YAML:

	indent: 2
	canonical: true
	fall_through: false
	max_depth: 512
*/
package config

import (
	"bytes"
	"io"
	"io/ioutil"

	"go.uber.org/zap"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"
)

// DefaultMaxDepth bounds nesting when Opts.MaxDepth is zero.
const DefaultMaxDepth = 1024

// Opts holds engine options.
type Opts struct {
	// Spaces used to indent output. Negative values indent with that many tabs, zero
	// writes compact output.
	Indent int8 `yaml:"indent"`
	// Sort mapping keys on output. On by default so output is deterministic.
	Canonical bool `yaml:"canonical"`
	// Write <, > and & as is instead of escaping them.
	HTMLCharsAsIs bool `yaml:"html_chars_as_is"`
	// Parse every JSON number as float64.
	PreferFloat bool `yaml:"prefer_float"`
	// Parse integers as int64 rather than uint64 when positive. On by default. Positive
	// integers above math.MaxInt64 (a uint64 written by Dumps) then fail to parse; turn
	// it off to read them back as uint64.
	SignedInteger bool `yaml:"signed_integer"`

	// When a registered function or self-describing method fails, log a warning and try
	// the next strategy instead of failing the call.
	FallThrough bool `yaml:"fall_through"`
	// Maximum nesting depth of encoded and decoded values.
	MaxDepth int `yaml:"max_depth"`

	// Logger for strategy selection and fall-through warnings. Nil discards logs.
	Logger *zap.Logger `yaml:"-"`
}

// Default returns the options used when none are given.
func Default() *Opts {
	return &Opts{
		Canonical:     true,
		SignedInteger: true,
		MaxDepth:      DefaultMaxDepth,
	}
}

// Validate checks option ranges.
func (opts *Opts) Validate() error {
	if opts.MaxDepth < 0 {
		return xerrors.Errorf("max_depth must not be negative, got %d", opts.MaxDepth)
	}
	if opts.Indent > 16 || opts.Indent < -16 {
		return xerrors.Errorf("indent must be within [-16, 16], got %d", opts.Indent)
	}
	return nil
}

// Depth returns MaxDepth, or DefaultMaxDepth when unset.
func (opts *Opts) Depth() int {
	if opts.MaxDepth == 0 {
		return DefaultMaxDepth
	}
	return opts.MaxDepth
}

// GetLogger returns Logger, or a no-op logger when unset.
func (opts *Opts) GetLogger() *zap.Logger {
	if opts.Logger == nil {
		return zap.NewNop()
	}
	return opts.Logger
}

// Load reads YAML options from reader. Keys missing from the document keep the values
// of Default().
func Load(reader io.Reader) (*Opts, error) {
	content := new(bytes.Buffer)
	if _, err := content.ReadFrom(reader); err != nil {
		return nil, xerrors.Errorf("error reading options: %w", err)
	}

	opts := Default()
	if err := yaml.UnmarshalStrict(content.Bytes(), opts); err != nil {
		return nil, xerrors.Errorf("error parsing options: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return nil, xerrors.Errorf("invalid options: %w", err)
	}
	return opts, nil
}

// LoadFile reads YAML options from the file at path.
func LoadFile(path string) (*Opts, error) {
	content, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, xerrors.Errorf("error reading options file: %w", err)
	}
	return Load(bytes.NewReader(content))
}
