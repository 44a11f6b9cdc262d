// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package redact

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/hashicorp/hcredact/redactor"
)

var _ redactor.Redactor = (*SyncRedactor)(nil)

// SyncRedactor runs a Pipeline. It performs no I/O and is safe for concurrent use.
type SyncRedactor struct {
	pipeline Pipeline
}

// NewSyncRedactor builds a SyncRedactor from opts. Options that configure detectors are rejected, since detectors
// only run in an AsyncRedactor.
func NewSyncRedactor(opts Options) (*SyncRedactor, error) {
	if len(opts.Detectors) > 0 {
		return nil, errors.New("detectors are only supported by the async redactor")
	}
	p, err := Build(opts)
	if err != nil {
		return nil, err
	}
	return &SyncRedactor{pipeline: p}, nil
}

func (s *SyncRedactor) Redact(text string) (string, error) {
	return s.pipeline.Redact(text)
}

func (s *SyncRedactor) Pipeline() Pipeline {
	return s.pipeline
}

// Detector finds sensitive data that the built-in redactors cannot, typically by calling out to another service.
type Detector interface {
	// Detect returns the spans of text to replace. Offsets refer to the text passed in.
	Detect(ctx context.Context, text string) ([]Span, error)
}

// Span is a half-open byte range [Start, End) of a text, and what to replace it with.
type Span struct {
	Start       int
	End         int
	Replacement string
}

// AsyncRedactor runs the same pipeline as SyncRedactor, then hands the redacted text to its detectors and applies
// the spans they return. If any detector fails, the whole call fails.
type AsyncRedactor struct {
	pipeline  Pipeline
	detectors []Detector
	logger    hclog.Logger
}

func NewAsyncRedactor(opts Options) (*AsyncRedactor, error) {
	p, err := Build(opts)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = hclog.L()
	}

	return &AsyncRedactor{
		pipeline:  p,
		detectors: opts.Detectors,
		logger:    logger.Named("async"),
	}, nil
}

func (a *AsyncRedactor) Pipeline() Pipeline {
	return a.pipeline
}

// Redact runs the pipeline, then every detector concurrently on the pipeline's output. All detectors must succeed
// before any span is applied.
func (a *AsyncRedactor) Redact(ctx context.Context, text string) (string, error) {
	snapshot, err := a.pipeline.Redact(text)
	if err != nil {
		return "", err
	}
	if len(a.detectors) == 0 {
		return snapshot, nil
	}

	results := make([][]Span, len(a.detectors))
	g, gctx := errgroup.WithContext(ctx)
	for i, d := range a.detectors {
		i, d := i, d // per-iteration copies (pre-Go 1.22 loop semantics)
		g.Go(func() error {
			spans, err := d.Detect(gctx, snapshot)
			if err != nil {
				return fmt.Errorf("detector %d failed: %w", i, err)
			}
			results[i] = spans
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		a.logger.Error("detection failed", "error", err)
		return "", err
	}

	var spans []Span
	for _, r := range results {
		spans = append(spans, r...)
	}
	a.logger.Debug("detectors finished", "detectors", len(a.detectors), "spans", len(spans))

	out, err := ApplySpans(snapshot, spans)
	if err != nil {
		a.logger.Error("could not apply detector spans", "error", err)
		return "", err
	}
	return out, nil
}

// ApplySpans replaces each span of text with its Replacement in a single pass. Spans may arrive in any order. When
// spans overlap, the one that starts first wins, and the longer one wins between spans with the same start; the
// losers are dropped. Every span must lie within text, be non-empty, and start and end on a UTF-8 character
// boundary.
func ApplySpans(text string, spans []Span) (string, error) {
	if len(spans) == 0 {
		return text, nil
	}

	sorted := make([]Span, len(spans))
	copy(sorted, spans)
	for _, s := range sorted {
		if err := validateSpan(text, s); err != nil {
			return "", err
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start == sorted[j].Start {
			return sorted[i].End > sorted[j].End
		}
		return sorted[i].Start < sorted[j].Start
	})

	var b strings.Builder
	last := 0
	for _, s := range sorted {
		if s.Start < last {
			continue
		}
		b.WriteString(text[last:s.Start])
		b.WriteString(s.Replacement)
		last = s.End
	}
	b.WriteString(text[last:])
	return b.String(), nil
}

func validateSpan(text string, s Span) error {
	if s.Start < 0 || s.End > len(text) || s.Start >= s.End {
		return fmt.Errorf("%w: [%d, %d) in text of length %d", ErrInvalidSpan, s.Start, s.End, len(text))
	}
	if !utf8.RuneStart(text[s.Start]) || (s.End < len(text) && !utf8.RuneStart(text[s.End])) {
		return fmt.Errorf("%w: [%d, %d) splits a character", ErrInvalidSpan, s.Start, s.End)
	}
	return nil
}
