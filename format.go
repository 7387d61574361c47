package pyfeatures

import (
	"fmt"
	"strings"
)

// String returns a human-readable summary of the probe result.
func (r *Result) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Interpreter: %s\n", r.Interpreter)
	if r.Path != "" {
		fmt.Fprintf(&b, "Path: %s\n", r.Path)
	}
	fmt.Fprintf(&b, "Version: %d.%d\n", MajorVersion, r.Minor)
	b.WriteString("\n")

	b.WriteString("Feature Flags:\n")
	if len(r.Flags) == 0 {
		fmt.Fprintf(&b, "  (none: %d.%d is older than %d.%d)\n", MajorVersion, r.Minor, MajorVersion, MinSupportedMinor)
		return b.String()
	}
	for _, f := range r.Flags {
		fmt.Fprintf(&b, "  %s\n", f.Name())
	}

	return b.String()
}
