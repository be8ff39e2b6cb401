package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/csvprof/internal/chart"
	"github.com/JonMunkholm/csvprof/internal/dataset"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "parse error maps to invalid csv",
			err:         &ParseError{File: "a.csv", Err: errors.New("line 3: expected 2 fields, saw 3")},
			wantCode:    "FILE002",
			wantMessage: "File is not a valid CSV",
		},
		{
			name:        "parse error with empty input maps to empty file",
			err:         &ParseError{File: "a.csv", Err: dataset.ErrEmptyInput},
			wantCode:    "FILE005",
			wantMessage: "The uploaded file is empty",
		},
		{
			name:        "wrapped not found",
			err:         fmt.Errorf("get %q: %w", "x.csv", ErrNotFound),
			wantCode:    "DS001",
			wantMessage: "Dataset not found",
		},
		{
			name:     "empty selection",
			err:      fmt.Errorf("compare: %w", ErrEmptySelection),
			wantCode: "DS002",
		},
		{
			name:     "invalid value from edit",
			err:      fmt.Errorf("column n: %w: %q is not an integer", dataset.ErrInvalidValue, "abc"),
			wantCode: "VAL001",
		},
		{
			name:     "unknown column",
			err:      fmt.Errorf("%w: zzz", dataset.ErrUnknownColumn),
			wantCode: "VAL002",
		},
		{
			name:     "chart column type",
			err:      fmt.Errorf("%w: region is object", chart.ErrColumnType),
			wantCode: "VAL003",
		},
		{
			name:     "too many uploads",
			err:      ErrTooManyUploads,
			wantCode: "UPL002",
		},
		{
			name:     "deadline",
			err:      fmt.Errorf("acquire: %w", context.DeadlineExceeded),
			wantCode: "UPL005",
		},
		{
			name:     "not logged in",
			err:      ErrNotLoggedIn,
			wantCode: "SES001",
		},
		{
			name:        "body limit text maps to file too large",
			err:         errors.New("http: request body too large"),
			wantCode:    "FILE001",
			wantMessage: "File exceeds the maximum upload size",
		},
		{
			name:        "rate limit maps correctly",
			err:         errors.New("Rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if tt.wantMessage != "" && got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(fmt.Errorf("lookup: %w", ErrNotFound))

	expected := "Dataset not found (Code: DS001). It may have been removed. Select another dataset"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
	if FormatUserError(nil) != "" {
		t.Error("FormatUserError(nil) should be empty")
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"known error is user facing", ErrFileTooLarge, true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := &ParseError{File: "a.csv", Err: errors.New("bare quote")}
		userErr := NewUserError(techErr)

		if userErr.Error() != "File is not a valid CSV" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}
		var perr *ParseError
		if !errors.As(userErr, &perr) || perr.File != "a.csv" {
			t.Error("Unwrap() should expose the ParseError")
		}
	})
}
