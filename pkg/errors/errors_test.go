package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
)

func TestErrorIncludesInternal(t *testing.T) {
	internal := stdErrors.New("boom")
	err := Wrap(internal, "failed")

	if err.Error() != "failed: boom" {
		t.Fatalf("unexpected error string: %s", err.Error())
	}
	if err.Code != "500" {
		t.Fatalf("expected wrapped errors to carry code 500, got %s", err.Code)
	}
}

func TestNewDerivesCodeFromStatus(t *testing.T) {
	err := New("Email already exists!", http.StatusConflict)
	if err.Code != "409" {
		t.Fatalf("expected code 409, got %s", err.Code)
	}
}

func TestWithInternalCopies(t *testing.T) {
	base := New("test", http.StatusBadRequest)
	with := base.WithInternal(stdErrors.New("oops"))

	if with == base {
		t.Fatal("expected WithInternal to return a copy")
	}
	if base.Internal != nil {
		t.Fatal("expected original error to remain unchanged")
	}
	if with.Internal == nil {
		t.Fatal("expected internal error to be set")
	}
}

func TestFromError(t *testing.T) {
	appErr := ErrNotFound
	if out := FromError(appErr); out != appErr {
		t.Fatal("expected FromError to return the same AppError instance")
	}

	raw := stdErrors.New("raw")
	out := FromError(raw)
	if out.Code != ErrInternalServer.Code {
		t.Fatalf("expected internal server code, got %s", out.Code)
	}
	if out.Internal == nil {
		t.Fatal("expected internal error to be attached")
	}
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("Worker")
	if err.Message != "Worker not found!" {
		t.Fatalf("unexpected message %q", err.Message)
	}
	if err.Code != "404" {
		t.Fatalf("unexpected code %q", err.Code)
	}
	if ErrNotFound.Message != "Resource not found!" {
		t.Fatal("expected shared sentinel to stay untouched")
	}
}

func TestNewBadRequest(t *testing.T) {
	err := NewBadRequest("scheduleIds are required!")
	if err.StatusCode != http.StatusBadRequest || err.Code != "400" {
		t.Fatalf("unexpected error %+v", err)
	}
}
