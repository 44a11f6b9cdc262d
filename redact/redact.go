// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

// Package redact assembles the redactors from package redactor into an ordered pipeline and runs it, either
// synchronously or followed by asynchronous detectors.
package redact

import (
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/hashicorp/hcredact/redactor"
)

var (
	// ErrUnknownBuiltIn is returned when options refer to a built-in redactor that does not exist.
	ErrUnknownBuiltIn = errors.New("unknown built-in redactor")

	// ErrInvalidCustomRedactor is returned for a custom redactor that is missing its pattern or replacement.
	ErrInvalidCustomRedactor = errors.New("invalid custom redactor")

	// ErrInvalidSpan is returned when a detector reports a span that cannot be applied to the text it was given.
	ErrInvalidSpan = errors.New("invalid span")
)

// BuiltInOptions configures a single built-in redactor.
type BuiltInOptions struct {
	// Enabled turns the built-in on or off. Nil means enabled.
	Enabled *bool

	// ReplaceWith overrides the built-in's placeholder.
	ReplaceWith string
}

// CustomRedactor is a caller-supplied redactor. Set either Redactor, or Pattern together with ReplaceWith.
// ReplaceWith may refer to capture groups of Pattern as ${1}, ${name} and so on.
type CustomRedactor struct {
	Pattern     *regexp.Regexp
	ReplaceWith string
	Redactor    redactor.Redactor
}

// CustomRedactors holds the custom redactors that run before and after the built-ins.
type CustomRedactors struct {
	Before []CustomRedactor
	After  []CustomRedactor
}

// Options is the construction-time configuration of a redaction pipeline. The zero value enables every built-in
// with its default placeholder.
type Options struct {
	// BuiltIns is keyed by built-in name, see redactor.BuiltIns.
	BuiltIns map[string]BuiltInOptions

	// GlobalReplaceWith, when set, replaces the placeholder of every built-in.
	GlobalReplaceWith string

	CustomRedactors CustomRedactors

	// Detectors are only used by AsyncRedactor.
	Detectors []Detector

	Logger hclog.Logger
}

// Bool returns a pointer to b, for BuiltInOptions.Enabled.
func Bool(b bool) *bool {
	return &b
}

type stage struct {
	name     string
	redactor redactor.Redactor
}

var _ redactor.Redactor = Pipeline{}

// Pipeline is an immutable, ordered list of redactors: custom "before" redactors, then the enabled built-ins in
// their canonical order, then custom "after" redactors.
type Pipeline struct {
	stages []stage
}

// Build validates opts and resolves them into a Pipeline. Every problem found is reported in the returned error.
func Build(opts Options) (Pipeline, error) {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.L()
	}

	var errs *multierror.Error

	keys := make([]string, 0, len(opts.BuiltIns))
	for k := range opts.BuiltIns {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, ok := redactor.LookupBuiltIn(k); !ok {
			errs = multierror.Append(errs, fmt.Errorf("%w: %q", ErrUnknownBuiltIn, k))
		}
	}

	before, err := customStages("before", opts.CustomRedactors.Before)
	if err != nil {
		errs = multierror.Append(errs, err)
	}
	after, err := customStages("after", opts.CustomRedactors.After)
	if err != nil {
		errs = multierror.Append(errs, err)
	}

	if err := errs.ErrorOrNil(); err != nil {
		return Pipeline{}, err
	}

	stages := before
	for _, b := range redactor.BuiltIns() {
		o := opts.BuiltIns[b.Name]
		if o.Enabled != nil && !*o.Enabled {
			continue
		}
		replace := o.ReplaceWith
		if opts.GlobalReplaceWith != "" {
			replace = opts.GlobalReplaceWith
		}
		stages = append(stages, stage{name: b.Name, redactor: b.New(replace)})
	}
	stages = append(stages, after...)

	p := Pipeline{stages: stages}
	logger.Trace("resolved redaction pipeline", "order", p.Names())
	return p, nil
}

func customStages(position string, customs []CustomRedactor) ([]stage, error) {
	var errs *multierror.Error
	var stages []stage

	for i, c := range customs {
		name := fmt.Sprintf("custom.%s[%d]", position, i)
		switch {
		case c.Redactor != nil && c.Pattern != nil:
			errs = multierror.Append(errs, fmt.Errorf("%w: %s sets both a redactor and a pattern", ErrInvalidCustomRedactor, name))
		case c.Redactor != nil:
			stages = append(stages, stage{name: name, redactor: c.Redactor})
		case c.Pattern == nil:
			errs = multierror.Append(errs, fmt.Errorf("%w: %s has no pattern", ErrInvalidCustomRedactor, name))
		case c.ReplaceWith == "":
			errs = multierror.Append(errs, fmt.Errorf("%w: %s has no replacement", ErrInvalidCustomRedactor, name))
		default:
			stages = append(stages, stage{name: name, redactor: redactor.NewRegexRedactorFromRegexp(c.Pattern, c.ReplaceWith)})
		}
	}

	return stages, errs.ErrorOrNil()
}

// Redact passes text through every redactor in order. If any redactor fails, Redact returns an empty string and an
// error naming it; a partially redacted result is never returned.
func (p Pipeline) Redact(text string) (string, error) {
	for _, s := range p.stages {
		out, err := s.redactor.Redact(text)
		if err != nil {
			return "", fmt.Errorf("redactor %q failed: %w", s.name, err)
		}
		text = out
	}
	return text, nil
}

// Names returns the name of each redactor in the order they run. Custom redactors are named
// custom.before[i] and custom.after[i].
func (p Pipeline) Names() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.name
	}
	return names
}

func (p Pipeline) Len() int {
	return len(p.stages)
}
