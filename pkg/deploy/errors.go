package deploy

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrQueryFile is returned when a manifest references a SQL file that cannot be read.
var ErrQueryFile = errors.New("please provide a valid path for sql file")

// RemoteError reports a failed mutation during a reconciliation pass. Applied
// is the number of items of that operation that were committed by earlier
// batches; they are not rolled back.
type RemoteError struct {
	Resource  Resource
	Operation Operation
	Applied   int
	Err       error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf(
		"API error has occurred while trying to %s %s (%d applied before the failure): %v",
		e.Operation,
		e.Resource,
		e.Applied,
		e.Err,
	)
}

// Unwrap returns the underlying API error.
func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Cause returns the underlying API error for errors.Cause.
func (e *RemoteError) Cause() error {
	return e.Err
}
