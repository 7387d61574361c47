package pyfeatures

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// errEmptyVersion is returned when the interpreter printed nothing but whitespace.
var errEmptyVersion = errors.New("empty version output")

// decodeLossy decodes b as UTF-8, replacing invalid sequences with U+FFFD.
// The UTF-8 decoder never fails on malformed input, so its error is ignored.
func decodeLossy(b []byte) string {
	out, _ := unicode.UTF8.NewDecoder().Bytes(b)
	return string(out)
}

// ParseMinorVersion extracts the minor version from the interpreter output.
//
// The output is decoded permissively, surrounding whitespace is trimmed, and
// the remaining text must be a base-10 integer in [0, 255]. A single leading
// '+' is accepted; a sign of '-' is not.
func ParseMinorVersion(out []byte) (uint8, error) {
	text := strings.TrimSpace(decodeLossy(out))
	if text == "" {
		return 0, errEmptyVersion
	}

	digits := strings.TrimPrefix(text, "+")
	if digits == "" || strings.HasPrefix(digits, "+") {
		return 0, fmt.Errorf("invalid version %q", text)
	}

	v, err := strconv.ParseUint(digits, 10, 8)
	if err != nil {
		var ne *strconv.NumError
		if errors.As(err, &ne) && errors.Is(ne.Err, strconv.ErrRange) {
			return 0, fmt.Errorf("version %q out of range [0, 255]", text)
		}
		return 0, fmt.Errorf("invalid version %q", text)
	}
	return uint8(v), nil
}
