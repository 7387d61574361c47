package pyfeatures

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	// MajorVersion is the interpreter major version the feature flags are named after.
	MajorVersion = 3
	// MinSupportedMinor is the first minor version that gets a feature flag.
	MinSupportedMinor = 8
	// DefaultInterpreter is the executable looked up on $PATH when none is configured.
	DefaultInterpreter = "python"
	// VersionScript prints the interpreter minor version and nothing else.
	VersionScript = "import sys; print(sys.version_info[1])"
	// DirectivePrefix marks a line as a compile-time cfg instruction for the build orchestrator.
	DirectivePrefix = "cargo:rustc-cfg="
)

// Flag is a compile-time feature flag stating that the feature set of
// interpreter version Major.Minor is available.
type Flag struct {
	Major uint8
	Minor uint8
}

// Name returns the cfg symbol, e.g. "Py_3_11".
func (f Flag) Name() string {
	return "Py_" + strconv.Itoa(int(f.Major)) + "_" + strconv.Itoa(int(f.Minor))
}

// Directive returns the build orchestrator line defining the flag.
func (f Flag) Directive() string {
	return DirectivePrefix + f.Name()
}

func (f Flag) String() string {
	return f.Name()
}

// FlagSet is an ordered, contiguous run of flags starting at [MinSupportedMinor].
type FlagSet []Flag

// Flags derives the flag set for a detected minor version.
// The set is empty when minor is below [MinSupportedMinor].
func Flags(minor uint8) FlagSet {
	if minor < MinSupportedMinor {
		return FlagSet{}
	}
	fs := make(FlagSet, 0, int(minor)-MinSupportedMinor+1)
	// int loop variable: minor may be 255.
	for v := MinSupportedMinor; v <= int(minor); v++ {
		fs = append(fs, Flag{Major: MajorVersion, Minor: uint8(v)})
	}
	return fs
}

// Names returns the cfg symbol of every flag in order.
func (fs FlagSet) Names() []string {
	names := make([]string, 0, len(fs))
	for _, f := range fs {
		names = append(names, f.Name())
	}
	return names
}

// Directives returns the directive line of every flag in order.
func (fs FlagSet) Directives() []string {
	lines := make([]string, 0, len(fs))
	for _, f := range fs {
		lines = append(lines, f.Directive())
	}
	return lines
}

// Has reports whether the flag for the given minor version is in the set.
func (fs FlagSet) Has(minor uint8) bool {
	for _, f := range fs {
		if f.Minor == minor {
			return true
		}
	}
	return false
}

// WriteTo writes one directive per line to w in a single write.
func (fs FlagSet) WriteTo(w io.Writer) (int64, error) {
	if len(fs) == 0 {
		return 0, nil
	}
	var b strings.Builder
	for _, line := range fs.Directives() {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// Output is what an interpreter subprocess left behind.
type Output struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Result holds the outcome of a probe.
type Result struct {
	// Interpreter is the executable name the probe was asked to run.
	Interpreter string
	// Path is the resolved executable path, empty if it could not be resolved.
	Path string
	// Minor is the detected minor version.
	Minor uint8
	// Flags is derived from Minor.
	Flags FlagSet
}

// ErrorKind classifies a probe failure.
type ErrorKind int

const (
	// LaunchFailure means the interpreter is not installed or could not be executed.
	LaunchFailure ErrorKind = iota + 1
	// ParseFailure means the interpreter output is not a minor version fitting in one byte.
	ParseFailure
)

func (k ErrorKind) String() string {
	switch k {
	case LaunchFailure:
		return "launch failure"
	case ParseFailure:
		return "parse failure"
	default:
		return fmt.Sprintf("ErrorKind(%d)", k)
	}
}

var (
	// ErrLaunch matches every [ProbeError] of kind [LaunchFailure].
	ErrLaunch = errors.New("interpreter launch failed")
	// ErrParse matches every [ProbeError] of kind [ParseFailure].
	ErrParse = errors.New("interpreter version was not parsed")
)

// ProbeError is returned when the interpreter version cannot be detected.
type ProbeError struct {
	Kind        ErrorKind
	Interpreter string
	// Reason is an operator-facing explanation with remediation hints.
	Reason string
	// Output is the captured subprocess output; zero for launch failures.
	Output Output
	Err    error
}

func (e *ProbeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Interpreter, e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Interpreter, e.Kind, e.Reason)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrLaunch) and errors.Is(err, ErrParse) match on kind.
func (e *ProbeError) Is(target error) bool {
	switch target {
	case ErrLaunch:
		return e.Kind == LaunchFailure
	case ErrParse:
		return e.Kind == ParseFailure
	}
	return false
}

// RequirementError is returned by [Check] when the detected interpreter is too old.
type RequirementError struct {
	Required Flag
	Detected Flag
}

func (e *RequirementError) Error() string {
	return fmt.Sprintf("requires python %d.%d or newer, found %d.%d",
		e.Required.Major, e.Required.Minor, e.Detected.Major, e.Detected.Minor)
}
