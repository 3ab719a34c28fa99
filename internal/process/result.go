// SPDX-License-Identifier: MPL-2.0

package process

type (
	// Result is the outcome of running a Command.
	//
	// ExitCode is the process exit status. Error is set only when the process
	// could not be started or waited on (binary missing, permission denied,
	// context canceled before start); a process that ran and exited non-zero
	// has a nil Error.
	Result struct {
		ExitCode  ExitCode
		Output    string
		ErrOutput string
		Error     error
	}
)

// NewErrorResult creates a Result with the given exit code and error.
func NewErrorResult(code ExitCode, err error) *Result {
	return &Result{ExitCode: code, Error: err}
}

// NewSuccessResult creates a Result with exit code 0 and no error.
func NewSuccessResult() *Result {
	return &Result{}
}

// NewExitCodeResult creates a Result with the given exit code and no error.
func NewExitCodeResult(code ExitCode) *Result {
	return &Result{ExitCode: code}
}

// Success reports whether the process ran and exited 0.
func (r *Result) Success() bool {
	return r.Error == nil && r.ExitCode.IsSuccess()
}
