package provider

import (
	"errors"
	"fmt"

	"github.com/shopmigrate/sw5-shopify-sync/internal/entity"
)

// NotFoundError reports a record or natural-key lookup miss. Upsert relies on
// this being distinguishable from transport failure: only a true miss may
// fall through to create.
type NotFoundError struct {
	Entity entity.Type
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with identifier '%s' not found", e.Entity, e.Key)
}

// TransportError reports a connectivity or authentication failure talking to
// either platform. It is an operation-level error: it stops the current
// operation instead of being downgraded to a failed item.
type TransportError struct {
	Platform string
	Op       string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s api error during %s: %s", e.Platform, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// TargetWriteError reports a create or update rejected by the target system,
// typically a validation failure. Item-level: recorded on the result,
// never aborts the batch.
type TargetWriteError struct {
	Entity entity.Type
	Op     string
	Status string
	Body   string
}

func (e *TargetWriteError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("target rejected %s of %s: %s - %s", e.Op, e.Entity, e.Status, e.Body)
	}
	return fmt.Sprintf("target rejected %s of %s: %s", e.Op, e.Entity, e.Status)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
