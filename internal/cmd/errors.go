package cmd

import "errors"

// reportedError marks an error the command already showed to the user.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return &reportedError{err: err}
}

// IsReported reports whether err was already printed and main should only
// set the exit code.
func IsReported(err error) bool {
	var r *reportedError
	return errors.As(err, &r)
}
