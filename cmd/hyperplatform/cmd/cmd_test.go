/*
Copyright © 2025 blacktop

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hyperplatform "github.com/blacktop/go-hyperplatform"
	"github.com/blacktop/go-hyperplatform/internal/host"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		cfgFile = ""
		outputFormat = "table"
	})
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestVersion(t *testing.T) {
	out := run(t, "version")
	assert.True(t, strings.HasPrefix(out, "hyperplatform dev"), out)
}

func TestConfigPrintsTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hp.toml")
	require.NoError(t, os.WriteFile(path, []byte("[vm]\nbackend = \"null\"\n"), 0o644))

	out := run(t, "config", "--config", path)
	assert.Contains(t, out, "[vm]")
	assert.Contains(t, out, `backend = "null"`)
}

func TestConfigPrintsYAML(t *testing.T) {
	out := run(t, "config", "-o", "yaml")
	assert.Contains(t, out, "supported_majors:")
}

func TestCheckReport(t *testing.T) {
	sys := host.NewSystem()
	if _, err := sys.Version(); err != nil {
		t.Skipf("host version unavailable: %v", err)
	}

	r := check(sys, hyperplatform.Gate{SupportedMajors: []uint32{0}})
	assert.False(t, r.Supported)
	assert.Contains(t, r.Reason, "unsupported OS version")
	assert.NotEqual(t, "unknown", r.Version)

	rows := r.Rows()
	assert.Equal(t, []string{"reason", r.Reason}, rows[len(rows)-2])
}

func TestCheckJSON(t *testing.T) {
	out := run(t, "check", "-o", "json")
	assert.Contains(t, out, `"supported"`)
	assert.Contains(t, out, `"virtualization"`)
}
