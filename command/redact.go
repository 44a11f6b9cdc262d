// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package command

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/hashicorp/go-hclog"
	"github.com/joho/godotenv"
	"github.com/mitchellh/cli"

	"github.com/hashicorp/hcredact/hcl"
	"github.com/hashicorp/hcredact/redact"
	"github.com/hashicorp/hcredact/redactor"
)

// stdinName stands for standard input in log lines, and may be given explicitly as an argument.
const stdinName = "-"

var _ cli.Command = &RedactCommand{}

type RedactCommand struct {
	ui    cli.Ui
	flags *flag.FlagSet

	// in and out are os.Stdin and os.Stdout outside of tests
	in  io.Reader
	out io.Writer

	// HCL, JSON or YAML file location
	config string

	// replace is the global replacement for built-ins
	replace string

	// disable lists built-ins to turn off
	disable []string

	json    bool
	list    bool
	envFile string
}

func (c *RedactCommand) init() {
	const (
		configUsageText  = "Path to an HCL, JSON or YAML configuration file"
		replaceUsageText = "Replace every built-in match with this text instead of the built-in's placeholder. Overrides global_replace_with from -config; custom redactors keep their own replacements"
		disableUsageText = "Built-in redactors to turn off (comma-separated); e.g. 'digits,names'"
		jsonUsageText    = "Treat each input as a JSON document and redact every string value. Keys, numbers and structure are left alone"
		listUsageText    = "Print the resolved redactor order and exit without reading any input"
		envFileUsageText = "Path to a .env file to load before reading -config; e.g. to provide HCREDACT_DLP_TOKEN to an http detector. Variables already set in the environment win"
	)

	// flag.ContinueOnError allows flag.Parse to return an error if one comes up, rather than doing an `os.Exit(2)`
	// on its own.
	c.flags = flag.NewFlagSet("redact", flag.ContinueOnError)

	c.flags.StringVar(&c.config, "config", "", configUsageText)
	c.flags.StringVar(&c.replace, "replace", "", replaceUsageText)
	c.flags.Var(CSVFlag{Values: &c.disable}, "disable", disableUsageText)
	c.flags.BoolVar(&c.json, "json", false, jsonUsageText)
	c.flags.BoolVar(&c.list, "list", false, listUsageText)
	c.flags.StringVar(&c.envFile, "env-file", "", envFileUsageText)

	// When invalid flags are provided, Go will output a usage message of its own. If we direct our flag set to
	// io.Discard, it will effectively be hidden, allowing us to print our own Help message upon failure.
	c.flags.SetOutput(io.Discard)
}

// NewRedactCommand produces a new *RedactCommand, initialized for use in a CLI application.
func NewRedactCommand(ui cli.Ui) *RedactCommand {
	c := &RedactCommand{
		ui:  ui,
		in:  os.Stdin,
		out: os.Stdout,
	}
	c.init()
	return c
}

// RedactCommandFactory provides a cli.CommandFactory that will produce an appropriately-initiated *RedactCommand.
func RedactCommandFactory(ui cli.Ui) cli.CommandFactory {
	return func() (cli.Command, error) {
		return NewRedactCommand(ui), nil
	}
}

// Help provides help text to users who pass in the --help flag or who enter invalid options.
func (c *RedactCommand) Help() string {
	helpText := `Usage: hcredact redact [options] [FILE...]

Redacts personally identifiable information from each FILE, or from standard input when no files are given, and writes the result to standard output.
`

	return Usage(helpText, c.flags,
		"hcredact redact support-ticket.txt",
		"echo 'call 555-123-4567' | hcredact redact -disable names",
		"hcredact redact -config redact.hcl -json event.json",
	)
}

// Synopsis provides a brief description of the command, for inclusion in the application's primary --help.
func (c *RedactCommand) Synopsis() string {
	return "Redact personal information from text or JSON"
}

// Run executes the command.
func (c *RedactCommand) Run(args []string) int {
	if err := c.parseFlags(args); err != nil {
		// Output the specific error to help the user understand what went wrong.
		c.ui.Warn(err.Error())
		// Since there was an issue in input, let's show our Help to try and assist the user.
		c.ui.Warn(c.Help())
		return FlagParseError
	}

	l := configureLogging("hcredact")

	if c.envFile != "" {
		if err := godotenv.Load(c.envFile); err != nil {
			l.Error("Failed to load env file", "env-file", c.envFile, "error", err)
			return ConfigError
		}
	}

	opts := redact.Options{Logger: l}
	if c.config != "" {
		var err error
		opts, err = hcl.Load(c.config, l)
		if err != nil {
			l.Error("Failed to load configuration", "config", c.config, "error", err)
			return ConfigError
		}
	}
	opts = c.mergeOptions(opts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	r, pipeline, err := newRedactor(ctx, opts)
	if err != nil {
		l.Error("Failed to build redactor", "error", err)
		return SetupError
	}

	if c.list {
		for _, name := range pipeline.Names() {
			c.ui.Output(name)
		}
		for i := range opts.Detectors {
			c.ui.Output(fmt.Sprintf("detector[%d]", i))
		}
		return Success
	}

	inputs := c.flags.Args()
	if len(inputs) == 0 {
		inputs = []string{stdinName}
	}
	for _, name := range inputs {
		if rc := c.redactInput(l, r, name); rc != Success {
			return rc
		}
	}

	return Success
}

// configureLogging takes a logger name, sets the default configuration, grabs the LOG_LEVEL from our ENV vars, and
// returns a configured and usable logger.
func configureLogging(loggerName string) hclog.Logger {
	// Create logger, set default and log level
	appLogger := hclog.New(&hclog.LoggerOptions{
		Name:  loggerName,
		Color: hclog.AutoColor,
	})
	hclog.SetDefault(appLogger)
	if logStr := os.Getenv("LOG_LEVEL"); logStr != "" {
		if level := hclog.LevelFromString(logStr); level != hclog.NoLevel {
			appLogger.SetLevel(level)
			appLogger.Debug("Logger configuration change", "LOG_LEVEL", hclog.Fmt("%s", logStr))
		}
	}
	return hclog.Default()
}

type CSVFlag struct {
	Values *[]string
}

func (s CSVFlag) String() string {
	if s.Values == nil {
		return ""
	}
	return strings.Join(*s.Values, ",")
}

func (s CSVFlag) Set(v string) error {
	*s.Values = strings.Split(v, ",")
	return nil
}

func (c *RedactCommand) parseFlags(args []string) error {
	return c.flags.Parse(args)
}

// mergeOptions merges flags into the redact.Options, prioritizing flags over the configuration file.
func (c *RedactCommand) mergeOptions(opts redact.Options) redact.Options {
	if c.replace != "" {
		opts.GlobalReplaceWith = c.replace
	}

	for _, name := range c.disable {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if opts.BuiltIns == nil {
			opts.BuiltIns = make(map[string]redact.BuiltInOptions)
		}
		b := opts.BuiltIns[name]
		b.Enabled = redact.Bool(false)
		opts.BuiltIns[name] = b
	}

	return opts
}

// newRedactor returns a SyncRedactor when no detectors are configured. Otherwise it returns an AsyncRedactor bound to
// ctx, so that an interrupt cancels outstanding detector requests.
func newRedactor(ctx context.Context, opts redact.Options) (redactor.Redactor, redact.Pipeline, error) {
	if len(opts.Detectors) == 0 {
		s, err := redact.NewSyncRedactor(opts)
		if err != nil {
			return nil, redact.Pipeline{}, err
		}
		return s, s.Pipeline(), nil
	}

	a, err := redact.NewAsyncRedactor(opts)
	if err != nil {
		return nil, redact.Pipeline{}, err
	}
	r := redactor.Func(func(text string) (string, error) {
		return a.Redact(ctx, text)
	})
	return r, a.Pipeline(), nil
}

func (c *RedactCommand) readInput(name string) ([]byte, error) {
	if name == stdinName {
		return io.ReadAll(c.in)
	}
	return os.ReadFile(name)
}

func (c *RedactCommand) redactInput(l hclog.Logger, r redactor.Redactor, name string) int {
	data, err := c.readInput(name)
	if err != nil {
		l.Error("Failed to read input", "input", name, "error", err)
		return InputError
	}

	var out []byte
	if c.json {
		var rc int
		out, rc = redactJSON(l, r, name, data)
		if rc != Success {
			return rc
		}
	} else {
		// Redact into a buffer first so a redaction failure never leaves partial output behind.
		var buf bytes.Buffer
		if err := redact.Apply(r, &buf, bytes.NewReader(data)); err != nil {
			l.Error("Failed to redact input", "input", name, "error", err)
			return RunError
		}
		out = buf.Bytes()
	}

	if _, err := c.out.Write(out); err != nil {
		l.Error("Failed to write output", "input", name, "error", err)
		return OutputError
	}
	l.Debug("redacted input", "input", name, "bytes_in", len(data), "bytes_out", len(out))
	return Success
}

// redactJSON decodes a single JSON document, keeping numbers exactly as written, and re-encodes it indented with
// every string value redacted.
func redactJSON(l hclog.Logger, r redactor.Redactor, name string, data []byte) ([]byte, int) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		l.Error("Failed to decode JSON input", "input", name, "error", err)
		return nil, DecodeError
	}

	redacted, err := redact.JSON(doc, r)
	if err != nil {
		l.Error("Failed to redact input", "input", name, "error", err)
		return nil, RunError
	}

	out, err := json.MarshalIndent(redacted, "", "  ")
	if err != nil {
		l.Error("Failed to encode JSON output", "input", name, "error", err)
		return nil, OutputError
	}
	return append(out, '\n'), Success
}
