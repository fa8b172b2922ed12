package db

import (
	"context"
	"errors"
	"testing"
)

func TestError_Unwrap(t *testing.T) {
	err := &Error{Op: OpGet, Err: context.DeadlineExceeded}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("Error does not unwrap")
	}
	if err.Error() != "GET: context deadline exceeded" {
		t.Errorf("Error() = %q", err.Error())
	}
}
