// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package command

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp/hcredact/detector"
	"github.com/hashicorp/hcredact/redact"
	"github.com/hashicorp/hcredact/redactor"
)

func newTestCommand(t *testing.T, stdin string) (*RedactCommand, *cli.MockUi, *bytes.Buffer) {
	t.Helper()
	ui := cli.NewMockUi()
	c := NewRedactCommand(ui)
	c.in = strings.NewReader(stdin)
	out := new(bytes.Buffer)
	c.out = out
	return c, ui, out
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestRedactCommand_Golden(t *testing.T) {
	// NOTE: If you change the built-ins or the output format, regenerate the golden files with
	// `go test ./command -update` and review the diff under testdata/golden before committing.
	letter, err := os.ReadFile("testdata/input/letter.txt")
	require.NoError(t, err)

	testCases := []struct {
		name  string
		stdin string
		args  []string
	}{
		{
			name:  "stdin",
			stdin: string(letter),
		},
		{
			name: "disable_names",
			args: []string{"-disable", "names", "testdata/input/call.txt"},
		},
		{
			name: "global_replace",
			args: []string{"-replace", "XXX", "testdata/input/ip.txt"},
		},
		{
			name: "multiple_files",
			args: []string{"testdata/input/letter.txt", "testdata/input/call.txt"},
		},
		{
			name: "config",
			args: []string{"-config", "testdata/config/redact.hcl", "testdata/input/pantry.txt"},
		},
		{
			name: "json",
			args: []string{"-json", "testdata/input/event.json"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, ui, out := newTestCommand(t, tc.stdin)

			rc := c.Run(tc.args)
			require.Equal(t, Success, rc, ui.ErrorWriter.String())

			newGoldie(t).Assert(t, tc.name, out.Bytes())
		})
	}
}

func TestRedactCommand_List(t *testing.T) {
	c, ui, out := newTestCommand(t, "")

	rc := c.Run([]string{"-list", "-config", "testdata/config/redact.hcl"})
	require.Equal(t, Success, rc)

	assert.Empty(t, out.String(), "-list must not read or write any input")
	newGoldie(t).Assert(t, "list", []byte(ui.OutputWriter.String()))
}

func TestRedactCommand_Errors(t *testing.T) {
	testCases := []struct {
		name   string
		stdin  string
		args   []string
		expect int
	}{
		{
			name:   "unknown flag",
			args:   []string{"-no-such-flag"},
			expect: FlagParseError,
		},
		{
			name:   "missing config",
			args:   []string{"-config", "testdata/config/does-not-exist.hcl"},
			expect: ConfigError,
		},
		{
			name:   "missing env file",
			args:   []string{"-env-file", "testdata/config/does-not-exist.env"},
			expect: ConfigError,
		},
		{
			name:   "unknown built-in",
			args:   []string{"-disable", "digits,ssn"},
			expect: SetupError,
		},
		{
			name:   "missing input",
			args:   []string{"testdata/input/does-not-exist.txt"},
			expect: InputError,
		},
		{
			name:   "malformed JSON",
			args:   []string{"-json", "testdata/input/broken.json"},
			expect: DecodeError,
		},
		{
			name:   "empty JSON stdin",
			args:   []string{"-json"},
			expect: DecodeError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, _, out := newTestCommand(t, tc.stdin)

			rc := c.Run(tc.args)
			assert.Equal(t, tc.expect, rc)
			assert.Empty(t, out.String(), "nothing is written for a failed input")
		})
	}
}

func TestRedactCommand_FlagParseErrorShowsHelp(t *testing.T) {
	c, ui, _ := newTestCommand(t, "")

	rc := c.Run([]string{"-no-such-flag"})
	assert.Equal(t, FlagParseError, rc)
	assert.Contains(t, ui.ErrorWriter.String(), "flag provided but not defined: -no-such-flag")
	assert.Contains(t, ui.ErrorWriter.String(), "Usage: hcredact redact [options] [FILE...]")
}

func TestRedactCommand_Detector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer from-env-file" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		start := strings.Index(req.Text, "ACME Corp")
		_, _ = fmt.Fprintf(w, `{"findings": [{"start": %d, "end": %d, "type": "org"}]}`, start, start+len("ACME Corp"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	config := filepath.Join(dir, "redact.hcl")
	require.NoError(t, os.WriteFile(config, []byte(fmt.Sprintf("detector \"http\" {\n  address = %q\n}\n", srv.URL)), 0o600))

	// godotenv does not override variables that are already set, so make sure the token is unset for the run.
	t.Setenv(detector.EnvToken, "")
	require.NoError(t, os.Unsetenv(detector.EnvToken))

	c, ui, out := newTestCommand(t, "mail jane@example.com at ACME Corp\n")
	rc := c.Run([]string{"-env-file", "testdata/config/detector.env", "-config", config})
	require.Equal(t, Success, rc, ui.ErrorWriter.String())
	assert.Equal(t, "mail EMAIL_ADDRESS at ORG\n", out.String())

	c, ui, _ = newTestCommand(t, "")
	rc = c.Run([]string{"-list", "-config", config})
	require.Equal(t, Success, rc)
	assert.True(t, strings.HasSuffix(ui.OutputWriter.String(), "digits\ndetector[0]\n"))
}

func TestRedactCommand_DetectorFailureFailsClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	config := filepath.Join(t.TempDir(), "redact.hcl")
	require.NoError(t, os.WriteFile(config, []byte(fmt.Sprintf("detector \"http\" {\n  address = %q\n}\n", srv.URL)), 0o600))

	c, _, out := newTestCommand(t, "call 555-123-4567")
	rc := c.Run([]string{"-config", config})
	assert.Equal(t, RunError, rc)
	assert.Empty(t, out.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestRedactCommand_RedactInput(t *testing.T) {
	upper := redactor.Func(func(text string) (string, error) {
		return strings.ToUpper(text), nil
	})
	broken := redactor.Func(func(string) (string, error) {
		return "", errors.New("boom")
	})

	testCases := []struct {
		name      string
		r         redactor.Redactor
		writer    io.Writer
		expectRC  int
		expectOut string
	}{
		{
			name:      "text is streamed through the redactor",
			r:         upper,
			expectRC:  Success,
			expectOut: "CALL ME\n",
		},
		{
			name:     "redactor failure leaves no output",
			r:        broken,
			expectRC: RunError,
		},
		{
			name:     "write failure",
			r:        upper,
			writer:   failingWriter{},
			expectRC: OutputError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, _, out := newTestCommand(t, "call me\n")
			if tc.writer != nil {
				c.out = tc.writer
			}

			rc := c.redactInput(hclog.NewNullLogger(), tc.r, stdinName)
			assert.Equal(t, tc.expectRC, rc)
			assert.Equal(t, tc.expectOut, out.String())
		})
	}
}

func TestMergeOptions(t *testing.T) {
	testCases := []struct {
		name    string
		replace string
		disable []string
		opts    redact.Options
		expect  redact.Options
	}{
		{
			name:   "no flags leaves options alone",
			opts:   redact.Options{GlobalReplaceWith: "FROM_CONFIG"},
			expect: redact.Options{GlobalReplaceWith: "FROM_CONFIG"},
		},
		{
			name:    "replace flag wins over config",
			replace: "FROM_FLAG",
			opts:    redact.Options{GlobalReplaceWith: "FROM_CONFIG"},
			expect:  redact.Options{GlobalReplaceWith: "FROM_FLAG"},
		},
		{
			name:    "disable keeps configured replacement",
			disable: []string{"names", " digits ", ""},
			opts: redact.Options{BuiltIns: map[string]redact.BuiltInOptions{
				"names": {Enabled: redact.Bool(true), ReplaceWith: "NAME"},
			}},
			expect: redact.Options{BuiltIns: map[string]redact.BuiltInOptions{
				"names":  {Enabled: redact.Bool(false), ReplaceWith: "NAME"},
				"digits": {Enabled: redact.Bool(false)},
			}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewRedactCommand(cli.NewMockUi())
			c.replace = tc.replace
			c.disable = tc.disable
			assert.Equal(t, tc.expect, c.mergeOptions(tc.opts))
		})
	}
}

func TestCSVFlag(t *testing.T) {
	var values []string
	f := CSVFlag{Values: &values}
	assert.Equal(t, "", f.String())

	require.NoError(t, f.Set("digits,names"))
	assert.Equal(t, []string{"digits", "names"}, values)
	assert.Equal(t, "digits,names", f.String())

	assert.Equal(t, "", CSVFlag{}.String())
}
