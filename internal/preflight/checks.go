// Package preflight provides startup validation checks.
package preflight

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
)

// CheckExecutable reports whether the named executable can be resolved:
// via PATH lookup for bare names, or relative to dir (or the current
// directory) when the name contains a path separator.
func CheckExecutable(executable, dir string) error {
	if !strings.ContainsRune(executable, '/') &&
		!strings.ContainsRune(executable, os.PathSeparator) {
		_, err := exec.LookPath(executable)
		return err
	}

	path := executable
	if !filepath.IsAbs(path) && dir != "" {
		path = filepath.Join(dir, path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not an executable", path)
	}
	return nil
}

// Check represents the result of a single preflight check.
type Check struct {
	Name     string // Name of the check
	Required int    // Required value (if applicable)
	Actual   int    // Actual value found
	Passed   bool   // Whether the check passed
	Warning  bool   // True if it's a warning (non-fatal)
	Message  string // Additional context
}

// Result holds the results of all preflight checks.
type Result struct {
	Checks []Check
	Passed bool
}

// String returns a human-readable summary of the check.
func (c Check) String() string {
	status := "✓"
	if !c.Passed {
		status = "✗"
	} else if c.Warning {
		status = "⚠"
	}

	if c.Required > 0 {
		return fmt.Sprintf("  %s %s: %d available (need %d)", status, c.Name, c.Actual, c.Required)
	}
	return fmt.Sprintf("  %s %s: %s", status, c.Name, c.Message)
}

// RunAll executes all preflight checks for a run of the given commands.
// Each executable is resolved and the file-descriptor budget is sized by
// the command count (two pipes per live child plus supervisor overhead).
func RunAll(executables []string) *Result {
	result := &Result{
		Checks: make([]Check, 0, len(executables)+1),
		Passed: true,
	}

	fdCheck := checkFileDescriptors(len(executables))
	result.Checks = append(result.Checks, fdCheck)
	if !fdCheck.Passed {
		result.Passed = false
	}

	for _, exe := range executables {
		c := checkExecutableResolves(exe)
		result.Checks = append(result.Checks, c)
		if !c.Passed {
			result.Passed = false
		}
	}

	return result
}

// checkFileDescriptors verifies sufficient file descriptors are available.
func checkFileDescriptors(commands int) Check {
	var limit syscall.Rlimit
	syscall.Getrlimit(syscall.RLIMIT_NOFILE, &limit)

	// Each child needs its stdout/stderr pipe pairs plus slack for the
	// supervisor (metrics server, logging, writer sinks).
	required := commands*8 + 64
	actual := int(limit.Cur)

	return Check{
		Name:     "file_descriptors",
		Required: required,
		Actual:   actual,
		Passed:   actual >= required,
		Message:  fmt.Sprintf("ulimit -n %d (need %d for %d commands)", actual, required, commands),
	}
}

// checkExecutableResolves verifies one command executable resolves.
func checkExecutableResolves(executable string) Check {
	if err := CheckExecutable(executable, ""); err != nil {
		return Check{
			Name:    "executable",
			Passed:  false,
			Message: fmt.Sprintf("%s: %v", executable, err),
		}
	}
	return Check{
		Name:    "executable",
		Passed:  true,
		Message: executable,
	}
}

// PrintResults writes the check results to stderr.
func PrintResults(result *Result) {
	fmt.Fprintln(os.Stderr, "Preflight checks:")
	for _, c := range result.Checks {
		fmt.Fprintln(os.Stderr, c.String())
	}
	if !result.Passed {
		fmt.Fprintln(os.Stderr, "Preflight checks FAILED")
	}
}
