// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

// Package redactor includes a set of tools for redacting potentially sensitive data from free-form text.
package redactor

// Redactor indicates a type implements a Redact method, which takes text and returns it with any sensitive values
// replaced by placeholder tokens. Because a source usually needs to go through multiple Redactors, taking and
// returning plain strings makes it easy to chain them together.
//
// Implementations must behave as a pure function of their input and their own configuration: they may not keep
// text between calls, and they must be safe to call from multiple goroutines at once. Finding nothing to redact is
// not an error.
type Redactor interface {
	Redact(text string) (string, error)
}

var _ Redactor = Func(nil)

// Func adapts an ordinary function to the Redactor interface.
type Func func(text string) (string, error)

func (f Func) Redact(text string) (string, error) {
	return f(text)
}
