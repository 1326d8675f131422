package config

//revive:disable:import-shadowing reason: Disabled for assert := assert.New(), which is
// the preferred method of using multiple asserts in a test.

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDefault(test *testing.T) {
	assert := assert.New(test)

	opts := Default()
	assert.True(opts.Canonical)
	assert.True(opts.SignedInteger)
	assert.False(opts.FallThrough)
	assert.Equal(DefaultMaxDepth, opts.Depth())
	assert.NoError(opts.Validate())
	assert.NotNil(opts.GetLogger())
}

func TestLoadKeepsDefaults(test *testing.T) {
	assert := assert.New(test)

	opts, err := Load(strings.NewReader("indent: 2\nfall_through: true\n"))
	require.NoError(test, err)

	assert.Equal(int8(2), opts.Indent)
	assert.True(opts.FallThrough)
	assert.True(opts.Canonical)
	assert.Equal(DefaultMaxDepth, opts.MaxDepth)
}

func TestLoadUnknownKey(test *testing.T) {
	_, err := Load(strings.NewReader("indnet: 2\n"))
	assert.Error(test, err)
	assert.Contains(test, err.Error(), "error parsing options")
}

func TestLoadInvalid(test *testing.T) {
	_, err := Load(strings.NewReader("max_depth: -1\n"))
	assert.EqualError(
		test, err, "invalid options: max_depth must not be negative, got -1",
	)
}

func TestLoadFile(test *testing.T) {
	dir, err := ioutil.TempDir("", "unijson-config")
	require.NoError(test, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "opts.yaml")
	require.NoError(test, ioutil.WriteFile(path, []byte("canonical: false\n"), 0o600))

	opts, err := LoadFile(path)
	require.NoError(test, err)
	assert.False(test, opts.Canonical)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(test, err)
}

func TestGetLogger(test *testing.T) {
	logger := zap.NewExample()
	opts := &Opts{Logger: logger}
	assert.Same(test, logger, opts.GetLogger())
}
