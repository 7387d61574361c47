//go:build unix

package pyfeatures

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// diagnoseLaunch explains why the interpreter could not be started.
func diagnoseLaunch(name string, err error) string {
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		// exec.LookPath skips files lacking the execute bit, so a file may
		// still be sitting on $PATH.
		if p := findOnPath(name); p != "" {
			if unix.Access(p, unix.X_OK) != nil {
				return fmt.Sprintf("%s exists at %s but is not executable; fix its permissions", name, p)
			}
		}
		return fmt.Sprintf("%s not found on $PATH; install Python 3 or add it to $PATH", name)
	}
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Sprintf("permission denied executing %s; check the file mode and mount options", name)
	}
	return fmt.Sprintf("cannot start %s", name)
}

// findOnPath returns the first regular file called name in $PATH,
// ignoring its permissions.
func findOnPath(name string) string {
	if strings.ContainsRune(name, os.PathSeparator) {
		if isRegular(name) {
			return name
		}
		return ""
	}
	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		if dir == "" {
			dir = "."
		}
		p := filepath.Join(dir, name)
		if isRegular(p) {
			return p
		}
	}
	return ""
}

func isRegular(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}
