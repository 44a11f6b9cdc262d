// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package redactor

import (
	"io"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegexRedactor_Redact(t *testing.T) {
	testCases := []struct {
		name     string
		redactor RegexRedactor
		input    string
		expected string
	}{
		{
			name: "Basic Redaction",
			redactor: RegexRedactor{
				RegEx:       `(SECRET=)[^ ]+`,
				Replacement: "${1}REDACTED",
			},
			input:    "SECRET=my-secret-password",
			expected: "SECRET=REDACTED",
		},
		{
			name: "Literal Redaction",
			redactor: RegexRedactor{
				RegEx:       "hello",
				Replacement: "REDACTED",
			},
			input:    "hello world",
			expected: "REDACTED world",
		},
		{
			name: "Middle Redaction",
			redactor: RegexRedactor{
				RegEx:       `(SECRET=)[^ ]+`,
				Replacement: "${1}REDACTED",
			},
			input:    "Other text SECRET=my-secret-password Other text",
			expected: "Other text SECRET=REDACTED Other text",
		},
		{
			name: "Beginning Only Redaction",
			redactor: RegexRedactor{
				RegEx:       `^(SECRET=)[^ ]+`,
				Replacement: "${1}REDACTED",
			},
			input:    "Other text SECRET=my-secret-password Other text",
			expected: "Other text SECRET=my-secret-password Other text",
		},
		{
			name: "Multiple Group Surround Redaction",
			redactor: RegexRedactor{
				RegEx:       `(\s+")[a-zA-Z0-9]{8}("\s+)`,
				Replacement: "${1}REDACTED${2}",
			},
			input:    "begin \"12345678\" end",
			expected: "begin \"REDACTED\" end",
		},
		{
			name: "More than One Redaction",
			redactor: RegexRedactor{
				RegEx:       `(SECRET=)[^\s]+`,
				Replacement: "${1}REDACTED",
			},
			input: `
SECRET=my-secret-password
other text
SECRET=my-other-password
`,
			expected: `
SECRET=REDACTED
other text
SECRET=REDACTED
`,
		},
		{
			name: "No Match Is Not An Error",
			redactor: RegexRedactor{
				RegEx:       `nothing-to-see`,
				Replacement: "REDACTED",
			},
			input:    "plain text",
			expected: "plain text",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			lr := tc.redactor
			result, err := lr.Redact(tc.input)
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, result)
			assert.Nil(t, lr.re, "redacting must not cache state on the redactor")
		})
	}
}

func TestNewRegexRedactor(t *testing.T) {
	t.Run("valid pattern", func(t *testing.T) {
		r, err := NewRegexRedactor(`\bcat\b`, "ANIMAL")
		require.NoError(t, err)
		assert.Equal(t, `\bcat\b`, r.RegEx)
		assert.Equal(t, "ANIMAL", r.Replacement)

		out, err := r.Redact("a cat and a category")
		require.NoError(t, err)
		assert.Equal(t, "a ANIMAL and a category", out)
	})

	t.Run("invalid pattern", func(t *testing.T) {
		r, err := NewRegexRedactor(`(unclosed`, "X")
		assert.Error(t, err)
		assert.Nil(t, r)
	})

	t.Run("invalid pattern in struct literal fails at redact time", func(t *testing.T) {
		r := RegexRedactor{RegEx: `(unclosed`, Replacement: "X"}
		out, err := r.Redact("text")
		assert.Error(t, err)
		assert.Empty(t, out)
	})

	t.Run("MustRegexRedactor panics on invalid pattern", func(t *testing.T) {
		assert.Panics(t, func() {
			MustRegexRedactor(`[`, "X")
		})
	})
}

func TestNewLiteralRegexRedactor(t *testing.T) {
	re := regexp.MustCompile(`(\d+)`)

	template := NewRegexRedactorFromRegexp(re, "<$1>")
	out, err := template.Redact("room 42")
	require.NoError(t, err)
	assert.Equal(t, "room <42>", out)

	literal := NewLiteralRegexRedactor(re, "<$1>")
	out, err = literal.Redact("room 42")
	require.NoError(t, err)
	assert.Equal(t, "room <$1>", out)
}

func TestRedactReader(t *testing.T) {
	r := MustRegexRedactor("hello", "REDACTED")

	rr, err := RedactReader(r, strings.NewReader("hello world"))
	require.NoError(t, err)

	// The output of one redaction can be fed to another.
	rr2, err := RedactReader(MustRegexRedactor("world", "PLANET"), rr)
	require.NoError(t, err)

	b, err := io.ReadAll(rr2)
	require.NoError(t, err)
	assert.Equal(t, "REDACTED PLANET", string(b))
}

func TestRedactReader_Error(t *testing.T) {
	failing := Func(func(string) (string, error) {
		return "partial", assert.AnError
	})

	rr, err := RedactReader(failing, strings.NewReader("secret"))
	assert.ErrorIs(t, err, assert.AnError)
	assert.Nil(t, rr.reader)
}

func FuzzRegexRedactor_Redact(f *testing.F) {
	testCases := []string{
		"hello",
		"world",
		"12345",
		" ",
	}
	for _, tc := range testCases {
		f.Add(tc)
	}

	f.Fuzz(func(t *testing.T, input string) {
		// We aren't doing too much here, but when fuzzing, we can at least make sure that weird input
		// doesn't cause errors, and we don't make unexpected changes to input.
		redactor := MustRegexRedactor("", "")
		out, err := redactor.Redact(input)
		if err != nil {
			t.Errorf("encountered error in test: %#v\n", err)
		}
		if out != input {
			t.Errorf("input was unexpectedly altered;\nINPUT = %q\nOUTPUT = %q\n", input, out)
		}
	})
}
