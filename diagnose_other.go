//go:build !unix

package pyfeatures

import (
	"errors"
	"fmt"
	"os/exec"
)

// diagnoseLaunch explains why the interpreter could not be started.
// Without execute-permission checks the answer is coarser than on Unix.
func diagnoseLaunch(name string, err error) string {
	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Sprintf("%s not found on %%PATH%%; install Python 3 or add it to the search path", name)
	}
	return fmt.Sprintf("cannot start %s", name)
}
