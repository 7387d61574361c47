package main

import (
	"bytes"
	"encoding/json"
	"os/exec"
	"strings"
	"testing"

	"github.com/leodido/pyfeatures"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useInterpreter makes every command probe a fake interpreter printing stdout.
func useInterpreter(t *testing.T, stdout string) *[]string {
	t.Helper()
	var names []string
	prev := runner
	runner = pyfeatures.RunnerFunc(func(name string, args ...string) (pyfeatures.Output, error) {
		names = append(names, name)
		return pyfeatures.Output{Stdout: []byte(stdout)}, nil
	})
	t.Cleanup(func() { runner = prev })
	return &names
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	out, _, err := executeCapture(t, cmd, args...)
	return out, err
}

func executeCapture(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// missingInterpreter makes every command fail to start the interpreter.
func missingInterpreter(t *testing.T) {
	t.Helper()
	prev := runner
	runner = pyfeatures.RunnerFunc(func(string, ...string) (pyfeatures.Output, error) {
		return pyfeatures.Output{}, exec.ErrNotFound
	})
	t.Cleanup(func() { runner = prev })
}

func TestEmitCommand_Directives(t *testing.T) {
	useInterpreter(t, "11\n")

	out, err := execute(t, emitCmd("pyfeatures"))
	require.NoError(t, err)
	assert.Equal(t, "cargo:rustc-cfg=Py_3_8\ncargo:rustc-cfg=Py_3_9\ncargo:rustc-cfg=Py_3_10\ncargo:rustc-cfg=Py_3_11\n", out)
}

func TestEmitCommand_OldInterpreter(t *testing.T) {
	useInterpreter(t, "7\n")

	out, err := execute(t, emitCmd("pyfeatures"))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestEmitCommand_ParseFailure(t *testing.T) {
	useInterpreter(t, "abc\n")

	out, err := execute(t, emitCmd("pyfeatures"))
	require.ErrorIs(t, err, pyfeatures.ErrParse)
	assert.Empty(t, out)
}

func TestEmitCommand_Python(t *testing.T) {
	names := useInterpreter(t, "12\n")

	_, err := execute(t, emitCmd("emit"), "--python", "python3.12")
	require.NoError(t, err)
	assert.Equal(t, []string{"python3.12"}, *names)
}

func TestEmitCommand_NamesFormat(t *testing.T) {
	useInterpreter(t, "9\n")

	out, err := execute(t, emitCmd("emit"), "--format", "NAMES")
	require.NoError(t, err)
	assert.Equal(t, "Py_3_8\nPy_3_9\n", out)
}

func TestEmitCommand_JSONFormat(t *testing.T) {
	useInterpreter(t, "10\n")

	out, err := execute(t, emitCmd("emit"), "-f", "json")
	require.NoError(t, err)

	var got struct {
		Interpreter string   `json:"interpreter"`
		Version     string   `json:"version"`
		Minor       int      `json:"minor"`
		Flags       []string `json:"flags"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "python", got.Interpreter)
	assert.Equal(t, "3.10", got.Version)
	assert.Equal(t, 10, got.Minor)
	assert.Equal(t, []string{"Py_3_8", "Py_3_9", "Py_3_10"}, got.Flags)
}

func TestEmitCommand_InvalidLogLevel(t *testing.T) {
	useInterpreter(t, "11\n")

	out, err := execute(t, emitCmd("emit"), "--log-level", "chatty")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid options")
	assert.Empty(t, out)
}

func TestProbeCommand(t *testing.T) {
	useInterpreter(t, "11\n")

	out, err := execute(t, probeCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "Interpreter: python\n")
	assert.Contains(t, out, "Version: 3.11\n")
	assert.Contains(t, out, "  Py_3_11\n")
}

func TestProbeCommand_JSON(t *testing.T) {
	useInterpreter(t, "8\n")

	out, err := execute(t, probeCmd(), "--json")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "3.8", got["version"])
	assert.Equal(t, []any{"Py_3_8"}, got["flags"])
}

func TestCheckCommand_Satisfied(t *testing.T) {
	useInterpreter(t, "11\n")

	out, err := execute(t, checkCmd(), "--min", "10")
	require.NoError(t, err)
	assert.Equal(t, "OK: python 3.11 satisfies >= 3.10\n", out)
}

func TestCheckCommand_ProbeFailure(t *testing.T) {
	useInterpreter(t, "")

	_, err := execute(t, checkCmd())
	require.ErrorIs(t, err, pyfeatures.ErrParse)
}

func TestEmitCommand_LaunchFailure(t *testing.T) {
	missingInterpreter(t)

	out, errOut, err := executeCapture(t, emitCmd("pyfeatures"))
	require.ErrorIs(t, err, pyfeatures.ErrLaunch)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "launch failure")
}

func TestCheckCommand_TooOld(t *testing.T) {
	useInterpreter(t, "11\n")

	out, errOut, err := executeCapture(t, checkCmd(), "--min", "12")
	require.ErrorIs(t, err, errRequirementNotMet)
	assert.Empty(t, out)
	assert.Equal(t, "FAIL: requires python 3.12 or newer, found 3.11\n", errOut)
}

func TestCheckCommand_TooOldJSON(t *testing.T) {
	useInterpreter(t, "11\n")

	out, errOut, err := executeCapture(t, checkCmd(), "--min", "12", "--json")
	require.ErrorIs(t, err, errRequirementNotMet)
	assert.Empty(t, errOut)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, false, got["ok"])
	assert.Equal(t, "3.12", got["required"])
	assert.Equal(t, "3.11", got["detected"])
}

func TestVersionCommand_Python(t *testing.T) {
	names := useInterpreter(t, "13\n")

	out, err := execute(t, versionCmd(), "--python", "python3.13")
	require.NoError(t, err)
	assert.Equal(t, []string{"python3.13"}, *names)
	assert.Contains(t, out, "pyfeatures (dev)\n")
	assert.Contains(t, out, "Python (python3.13): 3.13\n")
}

func TestVersionCommand_InvalidLogLevel(t *testing.T) {
	useInterpreter(t, "13\n")

	_, err := execute(t, versionCmd(), "--log-level", "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid options")
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		input string
		want  outputFormat
	}{
		{"cargo", formatCargo},
		{" Names ", formatNames},
		{"JSON", formatJSON},
		{"", formatCargo},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseOutputFormat(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseOutputFormat_Unknown(t *testing.T) {
	_, err := parseOutputFormat("yaml")
	require.Error(t, err)

	msg := err.Error()
	assert.True(t, strings.Contains(msg, `unknown format: "yaml"`), msg)
	assert.Contains(t, msg, "available: cargo, names, json")
}

func TestOutputFormat_String(t *testing.T) {
	assert.Equal(t, "cargo", formatCargo.String())
	assert.Equal(t, "json", formatJSON.String())
	assert.Equal(t, "outputFormat(9)", outputFormat(9).String())
}
