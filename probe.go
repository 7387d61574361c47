package pyfeatures

import (
	"bytes"
	"fmt"
	"io"

	"github.com/phuslu/log"
)

// probeConfig holds the configuration for a probe operation.
type probeConfig struct {
	interpreter string
	runner      Runner
	logger      *log.Logger
}

// ProbeOption configures how the interpreter is probed.
type ProbeOption func(*probeConfig)

// WithInterpreter sets the interpreter executable, resolved through $PATH
// unless it contains a path separator. Empty names are ignored.
func WithInterpreter(name string) ProbeOption {
	return func(c *probeConfig) {
		if name != "" {
			c.interpreter = name
		}
	}
}

// WithRunner replaces the subprocess runner.
// This is primarily for testing; production code uses [ExecRunner].
func WithRunner(r Runner) ProbeOption {
	return func(c *probeConfig) {
		if r != nil {
			c.runner = r
		}
	}
}

// WithLogger sets the logger receiving probe diagnostics.
// By default nothing is logged.
func WithLogger(l *log.Logger) ProbeOption {
	return func(c *probeConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

var discardLogger = log.Logger{
	Level:  log.ErrorLevel,
	Writer: &log.IOWriter{Writer: io.Discard},
}

// pathResolver is implemented by runners that can tell where an executable lives.
type pathResolver interface {
	LookPath(name string) (string, error)
}

// ProbeWith runs the interpreter once, parses its minor version and derives
// the feature flag set from it.
//
// The returned error is a *[ProbeError] of kind [LaunchFailure] when the
// interpreter cannot be started, or of kind [ParseFailure] when its output is
// not a minor version in [0, 255].
func ProbeWith(opts ...ProbeOption) (*Result, error) {
	cfg := &probeConfig{
		interpreter: DefaultInterpreter,
		runner:      ExecRunner{},
		logger:      &discardLogger,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	args := []string{"-c", VersionScript}
	cfg.logger.Debug().Str("interpreter", cfg.interpreter).Strs("args", args).Msg("launching interpreter")

	out, err := cfg.runner.Run(cfg.interpreter, args...)
	if err != nil {
		return nil, &ProbeError{
			Kind:        LaunchFailure,
			Interpreter: cfg.interpreter,
			Reason:      diagnoseLaunch(cfg.interpreter, err),
			Err:         err,
		}
	}
	if out.ExitCode != 0 {
		cfg.logger.Warn().Str("interpreter", cfg.interpreter).Int("exit_code", out.ExitCode).
			Str("stderr", string(bytes.TrimSpace(out.Stderr))).Msg("interpreter exited with non-zero status")
	}

	minor, err := ParseMinorVersion(out.Stdout)
	if err != nil {
		return nil, &ProbeError{
			Kind:        ParseFailure,
			Interpreter: cfg.interpreter,
			Reason:      diagnoseParse(out),
			Output:      out,
			Err:         err,
		}
	}

	res := &Result{
		Interpreter: cfg.interpreter,
		Minor:       minor,
		Flags:       Flags(minor),
	}
	if pr, ok := cfg.runner.(pathResolver); ok {
		if p, err := pr.LookPath(cfg.interpreter); err == nil {
			res.Path = p
		}
	}

	cfg.logger.Debug().Str("interpreter", cfg.interpreter).Int("minor", int(minor)).
		Int("flags", len(res.Flags)).Msg("interpreter version detected")
	return res, nil
}

// Probe probes the default interpreter found on $PATH.
func Probe() (*Result, error) {
	return ProbeWith()
}

// diagnoseParse explains why the interpreter output could not be parsed.
func diagnoseParse(out Output) string {
	if out.ExitCode != 0 {
		msg := fmt.Sprintf("interpreter exited with status %d", out.ExitCode)
		if line := firstLine(out.Stderr); line != "" {
			msg += ": " + line
		}
		return msg
	}
	if len(bytes.TrimSpace(out.Stdout)) == 0 {
		return "interpreter printed no version; make sure it is Python 3"
	}
	return "expected a single integer minor version in [0, 255]"
}

func firstLine(b []byte) string {
	b = bytes.TrimSpace(b)
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		b = bytes.TrimSpace(b[:i])
	}
	return string(b)
}

// Emit writes the directive of every flag in fs to w, one per line.
func Emit(w io.Writer, fs FlagSet) error {
	if _, err := fs.WriteTo(w); err != nil {
		return fmt.Errorf("emit directives: %w", err)
	}
	return nil
}

// DetectAndEmit probes the interpreter and writes its feature flag directives
// to w. Nothing is written when the probe fails.
func DetectAndEmit(w io.Writer, opts ...ProbeOption) error {
	res, err := ProbeWith(opts...)
	if err != nil {
		return err
	}
	return Emit(w, res.Flags)
}

// Check probes the interpreter and returns a *[RequirementError] if its minor
// version is below minMinor. Probe failures are wrapped and still match
// [ErrLaunch] or [ErrParse].
func Check(minMinor uint8, opts ...ProbeOption) (*Result, error) {
	res, err := ProbeWith(opts...)
	if err != nil {
		return nil, fmt.Errorf("probe interpreter: %w", err)
	}
	if res.Minor < minMinor {
		return res, &RequirementError{
			Required: Flag{Major: MajorVersion, Minor: minMinor},
			Detected: Flag{Major: MajorVersion, Minor: res.Minor},
		}
	}
	return res, nil
}
