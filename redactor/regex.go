// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package redactor

import (
	"fmt"
	"regexp"
)

var _ Redactor = &RegexRedactor{}

// RegexRedactor replaces every non-overlapping match of a regular expression with Replacement. Unless the redactor
// was built with NewLiteralRegexRedactor, Replacement is a template: `${1}` and friends expand to capture groups, as
// with regexp.Regexp.ReplaceAllString.
type RegexRedactor struct {
	RegEx       string
	Replacement string

	re      *regexp.Regexp
	literal bool
}

// NewRegexRedactor compiles reg and returns a ready-to-use redactor.
func NewRegexRedactor(reg string, repl string) (*RegexRedactor, error) {
	re, err := regexp.Compile(reg)
	if err != nil {
		return nil, fmt.Errorf("could not compile regex, matcher=%s, err=%w", reg, err)
	}
	return NewRegexRedactorFromRegexp(re, repl), nil
}

// MustRegexRedactor is like NewRegexRedactor but panics if reg does not compile. It is intended for package-level
// patterns that are known to be valid.
func MustRegexRedactor(reg string, repl string) *RegexRedactor {
	r, err := NewRegexRedactor(reg, repl)
	if err != nil {
		panic(err)
	}
	return r
}

// NewRegexRedactorFromRegexp wraps an already-compiled expression. A *regexp.Regexp keeps no per-call state, so
// the same expression may back any number of redactors.
func NewRegexRedactorFromRegexp(re *regexp.Regexp, repl string) *RegexRedactor {
	return &RegexRedactor{
		RegEx:       re.String(),
		Replacement: repl,
		re:          re,
	}
}

// NewLiteralRegexRedactor is like NewRegexRedactorFromRegexp, but repl is substituted verbatim, with no `$`
// expansion. Placeholder tokens use this so that a user-provided token is never mangled.
func NewLiteralRegexRedactor(re *regexp.Regexp, repl string) *RegexRedactor {
	r := NewRegexRedactorFromRegexp(re, repl)
	r.literal = true
	return r
}

func (reg *RegexRedactor) Redact(text string) (string, error) {
	re := reg.re
	if re == nil {
		// Zero-value or struct-literal redactors compile per call; the result is never stored on the receiver.
		var err error
		re, err = regexp.Compile(reg.RegEx)
		if err != nil {
			return "", fmt.Errorf("could not compile regex, matcher=%s, err=%w", reg.RegEx, err)
		}
	}

	if reg.literal {
		return re.ReplaceAllLiteralString(text, reg.Replacement), nil
	}
	return re.ReplaceAllString(text, reg.Replacement), nil
}
