// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModuleLevels(t *testing.T) {
	buf := new(bytes.Buffer)
	logger, err := NewLogger(buf, LogFormatJSON, "error;auth=debug")
	require.NoError(t, err)

	auth := logger.With("module", "auth")
	exec := logger.With("module", "executor")

	auth.Debug("auth debug")
	exec.Debug("executor debug")
	exec.Info("executor info")
	exec.Error("executor error")

	out := buf.String()
	require.Contains(t, out, "auth debug")
	require.NotContains(t, out, "executor debug")
	require.NotContains(t, out, "executor info")
	require.Contains(t, out, "executor error")
}

func TestSingleLevel(t *testing.T) {
	buf := new(bytes.Buffer)
	logger, err := NewLogger(buf, LogFormatPlain, "info")
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("shown", "key", Hex{0xAB, 0xCD})
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "shown")
	require.Contains(t, buf.String(), "abcd")
	require.Equal(t, 1, strings.Count(buf.String(), "\n"))
}

func TestBadLogConfig(t *testing.T) {
	_, err := NewLogger(new(bytes.Buffer), "xml", "info")
	require.Error(t, err)

	_, err = NewLogger(new(bytes.Buffer), LogFormatJSON, "loud")
	require.Error(t, err)

	_, err = NewLogger(new(bytes.Buffer), LogFormatJSON, "error;auth=loud")
	require.Error(t, err)
}
