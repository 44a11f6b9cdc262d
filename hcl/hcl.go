// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package hcl

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/hashicorp/hcredact/detector"
	"github.com/hashicorp/hcredact/redact"
	"github.com/hashicorp/hcredact/redactor"
)

const (
	PositionBefore = "before"
	PositionAfter  = "after"

	DetectorKindHTTP = "http"
)

// HCL is the top-level configuration file. The same structure decodes from HCL, JSON and YAML; in YAML the block
// labels become the name, position and kind keys.
type HCL struct {
	GlobalReplaceWith string     `hcl:"global_replace_with,optional" yaml:"global_replace_with"`
	BuiltIns          []BuiltIn  `hcl:"builtin,block" yaml:"builtins"`
	Customs           []Custom   `hcl:"custom,block" yaml:"custom"`
	Detectors         []Detector `hcl:"detector,block" yaml:"detectors"`
}

type BuiltIn struct {
	Name    string `hcl:"name,label" yaml:"name"`
	Enabled *bool  `hcl:"enabled,optional" yaml:"enabled"`
	Replace string `hcl:"replace,optional" yaml:"replace"`
}

// Custom is a regular expression redactor. In HCL native syntax, capture group references in Replace must be
// escaped as $${1} so they are not read as template interpolation.
type Custom struct {
	Position string `hcl:"position,label" yaml:"position"`
	Match    string `hcl:"match" yaml:"match"`
	Replace  string `hcl:"replace" yaml:"replace"`
}

type Detector struct {
	Kind          string            `hcl:"kind,label" yaml:"kind"`
	Address       string            `hcl:"address" yaml:"address"`
	Path          string            `hcl:"path,optional" yaml:"path"`
	Token         string            `hcl:"token,optional" yaml:"token"`
	Timeout       string            `hcl:"timeout,optional" yaml:"timeout"`
	Headers       map[string]string `hcl:"headers,optional" yaml:"headers"`
	CACert        string            `hcl:"ca_cert,optional" yaml:"ca_cert"`
	CAPath        string            `hcl:"ca_path,optional" yaml:"ca_path"`
	ClientCert    string            `hcl:"client_cert,optional" yaml:"client_cert"`
	ClientKey     string            `hcl:"client_key,optional" yaml:"client_key"`
	TLSServerName string            `hcl:"tls_server_name,optional" yaml:"tls_server_name"`
	Insecure      bool              `hcl:"insecure,optional" yaml:"insecure"`
}

// Parse takes a file path and decodes the file from disk into HCL types. Files ending in .yaml or .yml are read as
// YAML, anything else goes through hclsimple, which accepts .hcl and .json.
func Parse(path string) (HCL, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return HCL{}, err
	}

	var h HCL
	switch strings.ToLower(filepath.Ext(expanded)) {
	case ".yaml", ".yml":
		err = decodeYAML(expanded, &h)
	default:
		err = hclsimple.DecodeFile(expanded, nil, &h)
	}
	if err != nil {
		return HCL{}, err
	}
	return h, nil
}

func decodeYAML(path string, h *HCL) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(h); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("unable to decode %s: %w", path, err)
	}
	return nil
}

// Load parses the file at path and maps it to redact.Options.
func Load(path string, logger hclog.Logger) (redact.Options, error) {
	h, err := Parse(path)
	if err != nil {
		return redact.Options{}, err
	}
	return MapOptions(h, logger)
}

// MapOptions maps the decoded configuration to redact.Options, compiling patterns and building detectors. Every
// problem found is reported; no options are returned if any part of the configuration is invalid.
func MapOptions(h HCL, logger hclog.Logger) (redact.Options, error) {
	if logger == nil {
		logger = hclog.L()
	}
	logger.Trace("hcl.MapOptions()", "builtins", len(h.BuiltIns), "customs", len(h.Customs), "detectors", len(h.Detectors))

	var errs *multierror.Error
	opts := redact.Options{
		GlobalReplaceWith: h.GlobalReplaceWith,
		Logger:            logger,
	}

	if err := ValidateBuiltIns(h.BuiltIns); err != nil {
		errs = multierror.Append(errs, err)
	}
	if len(h.BuiltIns) > 0 {
		opts.BuiltIns = make(map[string]redact.BuiltInOptions, len(h.BuiltIns))
		for _, b := range h.BuiltIns {
			opts.BuiltIns[b.Name] = redact.BuiltInOptions{Enabled: b.Enabled, ReplaceWith: b.Replace}
		}
	}

	if err := ValidateCustoms(h.Customs); err != nil {
		errs = multierror.Append(errs, err)
	} else {
		for _, c := range h.Customs {
			cr := redact.CustomRedactor{Pattern: regexp.MustCompile(c.Match), ReplaceWith: c.Replace}
			if c.Position == PositionBefore {
				opts.CustomRedactors.Before = append(opts.CustomRedactors.Before, cr)
			} else {
				opts.CustomRedactors.After = append(opts.CustomRedactors.After, cr)
			}
		}
	}

	for _, d := range h.Detectors {
		det, err := mapDetector(d, logger)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		opts.Detectors = append(opts.Detectors, det)
	}

	if err := errs.ErrorOrNil(); err != nil {
		return redact.Options{}, err
	}
	return opts, nil
}

// ValidateBuiltIns ensures every builtin block names a known built-in, and names it only once.
func ValidateBuiltIns(builtIns []BuiltIn) error {
	var errs *multierror.Error
	seen := make(map[string]bool, len(builtIns))
	for _, b := range builtIns {
		if _, ok := redactor.LookupBuiltIn(b.Name); !ok {
			errs = multierror.Append(errs, fmt.Errorf("%w: %q", redact.ErrUnknownBuiltIn, b.Name))
			continue
		}
		if seen[b.Name] {
			errs = multierror.Append(errs, fmt.Errorf("duplicate builtin block, name=%s", b.Name))
		}
		seen[b.Name] = true
	}
	return errs.ErrorOrNil()
}

// ValidateCustoms takes a slice of custom redactors and ensures they have valid positions and compilable patterns.
func ValidateCustoms(customs []Custom) error {
	hclog.L().Trace("hcl.ValidateCustoms()", "customs", len(customs))
	var errs *multierror.Error
	for i, c := range customs {
		switch c.Position {
		case PositionBefore, PositionAfter:
		default:
			errs = multierror.Append(errs, fmt.Errorf("%w: invalid custom position, position=%s", redact.ErrInvalidCustomRedactor, c.Position))
		}

		if c.Match == "" {
			errs = multierror.Append(errs, fmt.Errorf("%w: custom %d has an empty match", redact.ErrInvalidCustomRedactor, i))
		} else if _, err := regexp.Compile(c.Match); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("could not compile regex, matcher=%s, err=%s", c.Match, err))
		}

		if c.Replace == "" {
			errs = multierror.Append(errs, fmt.Errorf("%w: custom %d has an empty replace", redact.ErrInvalidCustomRedactor, i))
		}
	}
	return errs.ErrorOrNil()
}

func mapDetector(d Detector, logger hclog.Logger) (redact.Detector, error) {
	if d.Kind != DetectorKindHTTP {
		return nil, fmt.Errorf("invalid detector kind, kind=%s", d.Kind)
	}

	var timeout time.Duration
	if d.Timeout != "" {
		var err error
		timeout, err = time.ParseDuration(d.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid detector timeout, timeout=%s, err=%w", d.Timeout, err)
		}
	}

	token := d.Token
	if token == "" {
		token = os.Getenv(detector.EnvToken)
	}

	det, err := detector.NewHTTPDetector(detector.Config{
		Address: d.Address,
		Path:    d.Path,
		Token:   token,
		Headers: d.Headers,
		Timeout: timeout,
		TLS: detector.TLSConfig{
			CACert:        d.CACert,
			CAPath:        d.CAPath,
			ClientCert:    d.ClientCert,
			ClientKey:     d.ClientKey,
			TLSServerName: d.TLSServerName,
			Insecure:      d.Insecure,
		},
	}, logger)
	if err != nil {
		return nil, err
	}
	return det, nil
}
