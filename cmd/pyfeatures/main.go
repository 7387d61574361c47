package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/leodido/pyfeatures"
	"github.com/leodido/structcli"
	"github.com/phuslu/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thediveo/enumflag/v2"
)

// Build metadata injected via ldflags.
// When built without ldflags (e.g., plain `go build`), these remain
// at their zero values and the version command omits them gracefully.
var (
	version = ""
	commit  = ""
	date    = ""
)

// runner executes the interpreter; tests swap it for a fake.
var runner pyfeatures.Runner = pyfeatures.ExecRunner{}

var validate = validator.New()

// errRequirementNotMet is returned by check after it has printed its verdict.
var errRequirementNotMet = errors.New("requirement not met")

func main() {
	root := emitCmd("pyfeatures")
	root.Short = "Python feature flags for build-time conditional compilation"
	root.Long = `pyfeatures detects the minor version of the Python interpreter on $PATH and
prints one cargo:rustc-cfg=Py_3_<minor> directive per supported minor version,
from 3.8 up to and including the detected one.

Run it without a subcommand from a build step. Any failure to launch the
interpreter or to parse its version aborts with a non-zero exit status and
prints nothing on stdout.`

	root.AddCommand(emitCmd("emit"))
	root.AddCommand(probeCmd())
	root.AddCommand(checkCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// EmitOptions defines flags for the emit command.
type EmitOptions struct {
	Python   string       `flag:"python" flagshort:"p" flagdescr:"Interpreter executable to probe" default:"python" validate:"required"`
	Format   outputFormat `flag:"format" flagshort:"f" flagdescr:"Output format (cargo, names, json)" flagcustom:"true"`
	LogLevel string       `flag:"log-level" flagdescr:"Level of diagnostics written to stderr (debug, info, warn, error)" default:"warn" validate:"omitempty,oneof=debug info warn error"`
}

func (o *EmitOptions) Attach(c *cobra.Command) error {
	return structcli.Define(c, o)
}

func (o *EmitOptions) DefineFormat(name, short, descr string, structField reflect.StructField, fieldValue reflect.Value) (pflag.Value, string) {
	fieldPtr := fieldValue.Addr().Interface().(*outputFormat)
	*fieldPtr = formatCargo
	return enumflag.New(fieldPtr, "format", formatIdentifiers, enumflag.EnumCaseInsensitive), descr
}

func (o *EmitOptions) DecodeFormat(input any) (any, error) {
	s, ok := input.(string)
	if !ok {
		return input, nil
	}

	return parseOutputFormat(s)
}

func emitCmd(use string) *cobra.Command {
	opts := &EmitOptions{Python: pyfeatures.DefaultInterpreter, LogLevel: "warn"}

	cmd := &cobra.Command{
		Use:          use,
		Short:        "Print feature flag directives for the detected interpreter",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		PreRunE: func(c *cobra.Command, args []string) error {
			return unmarshalAndValidate(c, opts)
		},
		RunE: func(c *cobra.Command, args []string) error {
			probeOpts := probeOptions(opts.Python, opts.LogLevel)
			out := c.OutOrStdout()

			if opts.Format == formatCargo {
				return pyfeatures.DetectAndEmit(out, probeOpts...)
			}

			res, err := pyfeatures.ProbeWith(probeOpts...)
			if err != nil {
				return err
			}
			if opts.Format == formatJSON {
				return printJSON(out, resultJSON(res))
			}
			for _, name := range res.Flags.Names() {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}

	if err := opts.Attach(cmd); err != nil {
		panic(err)
	}
	return cmd
}

// ProbeOptions defines flags for the probe subcommand.
type ProbeOptions struct {
	Python   string `flag:"python" flagshort:"p" flagdescr:"Interpreter executable to probe" default:"python" validate:"required"`
	JSON     bool   `flag:"json" flagshort:"j" flagdescr:"Output in JSON format"`
	LogLevel string `flag:"log-level" flagdescr:"Level of diagnostics written to stderr (debug, info, warn, error)" default:"warn" validate:"omitempty,oneof=debug info warn error"`
}

func (o *ProbeOptions) Attach(c *cobra.Command) error {
	return structcli.Define(c, o)
}

func probeCmd() *cobra.Command {
	opts := &ProbeOptions{Python: pyfeatures.DefaultInterpreter, LogLevel: "warn"}

	cmd := &cobra.Command{
		Use:          "probe",
		Short:        "Probe the interpreter and display the detected version and flags",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		PreRunE: func(c *cobra.Command, args []string) error {
			return unmarshalAndValidate(c, opts)
		},
		RunE: func(c *cobra.Command, args []string) error {
			res, err := pyfeatures.ProbeWith(probeOptions(opts.Python, opts.LogLevel)...)
			if err != nil {
				return err
			}

			if opts.JSON {
				return printJSON(c.OutOrStdout(), resultJSON(res))
			}

			fmt.Fprint(c.OutOrStdout(), res)
			return nil
		},
	}

	if err := opts.Attach(cmd); err != nil {
		panic(err)
	}
	return cmd
}

// CheckOptions defines flags for the check subcommand.
type CheckOptions struct {
	Python   string `flag:"python" flagshort:"p" flagdescr:"Interpreter executable to probe" default:"python" validate:"required"`
	Min      int    `flag:"min" flagshort:"m" flagdescr:"Minimum required minor version" default:"8" validate:"min=0,max=255"`
	JSON     bool   `flag:"json" flagshort:"j" flagdescr:"Output in JSON format"`
	LogLevel string `flag:"log-level" flagdescr:"Level of diagnostics written to stderr (debug, info, warn, error)" default:"warn" validate:"omitempty,oneof=debug info warn error"`
}

func (o *CheckOptions) Attach(c *cobra.Command) error {
	return structcli.Define(c, o)
}

func checkCmd() *cobra.Command {
	opts := &CheckOptions{Python: pyfeatures.DefaultInterpreter, Min: pyfeatures.MinSupportedMinor, LogLevel: "warn"}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check that the interpreter meets a minimum minor version",
		Long: `Check that the interpreter reports at least python 3.<min>.
Exits with code 0 if the requirement is met, 1 otherwise.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		PreRunE: func(c *cobra.Command, args []string) error {
			return unmarshalAndValidate(c, opts)
		},
		RunE: func(c *cobra.Command, args []string) error {
			out := c.OutOrStdout()
			res, err := pyfeatures.Check(uint8(opts.Min), probeOptions(opts.Python, opts.LogLevel)...)
			if err != nil {
				var re *pyfeatures.RequirementError
				if errors.As(err, &re) {
					if opts.JSON {
						if err := printJSON(out, map[string]any{
							"ok":       false,
							"required": versionString(re.Required),
							"detected": versionString(re.Detected),
						}); err != nil {
							return err
						}
					} else {
						fmt.Fprintf(c.ErrOrStderr(), "FAIL: %s\n", re)
					}
					// Already reported; main only needs the exit status.
					c.SilenceErrors = true
					return errRequirementNotMet
				}
				return err
			}

			if opts.JSON {
				return printJSON(out, map[string]any{
					"ok":       true,
					"detected": fmt.Sprintf("%d.%d", pyfeatures.MajorVersion, res.Minor),
				})
			}
			fmt.Fprintf(out, "OK: python %d.%d satisfies >= %d.%d\n",
				pyfeatures.MajorVersion, res.Minor, pyfeatures.MajorVersion, opts.Min)
			return nil
		},
	}

	if err := opts.Attach(cmd); err != nil {
		panic(err)
	}
	return cmd
}

// VersionOptions defines flags for the version subcommand.
type VersionOptions struct {
	Python   string `flag:"python" flagshort:"p" flagdescr:"Interpreter executable to probe" default:"python" validate:"required"`
	LogLevel string `flag:"log-level" flagdescr:"Level of diagnostics written to stderr (debug, info, warn, error)" default:"warn" validate:"omitempty,oneof=debug info warn error"`
}

func (o *VersionOptions) Attach(c *cobra.Command) error {
	return structcli.Define(c, o)
}

func versionCmd() *cobra.Command {
	opts := &VersionOptions{Python: pyfeatures.DefaultInterpreter, LogLevel: "warn"}

	cmd := &cobra.Command{
		Use:          "version",
		Short:        "Show tool and interpreter version",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		PreRunE: func(c *cobra.Command, args []string) error {
			return unmarshalAndValidate(c, opts)
		},
		RunE: func(c *cobra.Command, args []string) error {
			out := c.OutOrStdout()
			if version != "" {
				fmt.Fprintf(out, "pyfeatures %s", version)
				if commit != "" {
					fmt.Fprintf(out, " (%s)", commit)
				}
				if date != "" {
					fmt.Fprintf(out, " built %s", date)
				}
				fmt.Fprintln(out)
			} else {
				fmt.Fprintln(out, "pyfeatures (dev)")
			}

			res, err := pyfeatures.ProbeWith(probeOptions(opts.Python, opts.LogLevel)...)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Python (%s): %d.%d\n", res.Interpreter, pyfeatures.MajorVersion, res.Minor)
			return nil
		},
	}

	if err := opts.Attach(cmd); err != nil {
		panic(err)
	}
	return cmd
}

// unmarshalAndValidate reads flag values into opts and validates them.
func unmarshalAndValidate(c *cobra.Command, opts structcli.Options) error {
	if err := structcli.Unmarshal(c, opts); err != nil {
		return err
	}
	if err := validate.Struct(opts); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}

func probeOptions(python, level string) []pyfeatures.ProbeOption {
	return []pyfeatures.ProbeOption{
		pyfeatures.WithInterpreter(python),
		pyfeatures.WithRunner(runner),
		pyfeatures.WithLogger(newLogger(level)),
	}
}

// newLogger writes to stderr only: stdout carries the directives.
func newLogger(level string) *log.Logger {
	if level == "" {
		level = "warn"
	}
	return &log.Logger{
		Level:  log.ParseLevel(level),
		Writer: &log.ConsoleWriter{Writer: os.Stderr},
	}
}

func resultJSON(res *pyfeatures.Result) map[string]any {
	return map[string]any{
		"interpreter": res.Interpreter,
		"path":        res.Path,
		"version":     fmt.Sprintf("%d.%d", pyfeatures.MajorVersion, res.Minor),
		"minor":       res.Minor,
		"flags":       res.Flags.Names(),
	}
}

func versionString(f pyfeatures.Flag) string {
	return fmt.Sprintf("%d.%d", f.Major, f.Minor)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type outputFormat enumflag.Flag

const (
	formatCargo outputFormat = iota
	formatNames
	formatJSON
)

var formatIdentifiers = map[outputFormat][]string{
	formatCargo: {"cargo"},
	formatNames: {"names"},
	formatJSON:  {"json"},
}

func (f outputFormat) String() string {
	if ids, ok := formatIdentifiers[f]; ok {
		return ids[0]
	}
	return fmt.Sprintf("outputFormat(%d)", f)
}

func availableFormats() string {
	names := make([]string, 0, len(formatIdentifiers))
	for _, f := range []outputFormat{formatCargo, formatNames, formatJSON} {
		names = append(names, f.String())
	}
	return strings.Join(names, ", ")
}

func parseOutputFormat(input string) (outputFormat, error) {
	name := strings.TrimSpace(input)
	if name == "" {
		return formatCargo, nil
	}

	var format outputFormat
	enumValue := enumflag.New(&format, "format", formatIdentifiers, enumflag.EnumCaseInsensitive)
	if err := enumValue.Set(name); err != nil {
		return formatCargo, fmt.Errorf("unknown format: %q (available: %s)", name, availableFormats())
	}
	return format, nil
}
