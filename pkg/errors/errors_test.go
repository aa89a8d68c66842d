package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorRendering(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			"without cause",
			New(ErrCodeInvalidInput, "bad ref %q", "x!"),
			`INVALID_INPUT: bad ref "x!"`,
		},
		{
			"with cause",
			Wrap(ErrCodeRepoUnreachable, errors.New("dial tcp: refused"), "fetching document"),
			"REPOSITORY_UNREACHABLE: fetching document: dial tcp: refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeRepoUnreachable, cause, "failed to fetch")

	if err.Code != ErrCodeRepoUnreachable {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeRepoUnreachable)
	}
	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want the original cause", errors.Unwrap(err))
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"matching code", New(ErrCodeResolution, "x"), ErrCodeResolution, true},
		{"other code", New(ErrCodeResolution, "x"), ErrCodeRepoUnreachable, false},
		{"outermost code wins", Wrap(ErrCodeRepoUnreachable, New(ErrCodeResolution, "inner"), "outer"), ErrCodeRepoUnreachable, true},
		{"coder implementor", &RateLimitedError{RetryAfter: 1}, ErrCodeRateLimited, true},
		{"plain error", errors.New("plain"), ErrCodeResolution, false},
		{"nil error", nil, ErrCodeResolution, false},
		{"empty code", errors.New("plain"), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"error type", New(ErrCodePackageNotFound, "x"), ErrCodePackageNotFound},
		{"coder type", &RateLimitedError{RetryAfter: 3}, ErrCodeRateLimited},
		{"wrapped coder", fmt.Errorf("fetch: %w", &RateLimitedError{}), ErrCodeRateLimited},
		{"plain error", errors.New("plain"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	wrapped := Wrap(ErrCodeActivation, errors.New("exit status 1"), "activating core-lib")

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"error type", New(ErrCodeInvalidInput, "friendly message"), "friendly message"},
		{"wrapped keeps own message", wrapped, "activating core-lib"},
		{"plain error", errors.New("plain error"), "plain error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimitedError(t *testing.T) {
	if got := (&RateLimitedError{}).Error(); got != "rate limited" {
		t.Errorf("Error() = %q, want %q", got, "rate limited")
	}
	if got := (&RateLimitedError{RetryAfter: 30}).Error(); got != "rate limited: retry after 30 seconds" {
		t.Errorf("Error() = %q", got)
	}
}
