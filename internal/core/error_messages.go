package core

// error_messages.go maps technical errors to user-facing messages with codes
// for support reference.
//
// Codes by category:
//
//	FILE001 - File too large              "file too large"
//	FILE002 - Invalid CSV                 *ParseError, "invalid csv"
//	FILE003 - Encoding error              "encoding error"
//	FILE004 - No file                     ErrNoFile, "no file provided"
//	FILE005 - Empty file                  dataset.ErrEmptyInput, "empty file"
//
//	DS001   - Dataset not found           ErrNotFound
//	DS002   - Nothing to compare or chart ErrEmptySelection
//
//	VAL001  - Invalid value               ErrInvalidValue
//	VAL002  - Column not found            ErrUnknownColumn
//	VAL003  - Wrong column type           chart.ErrColumnType
//	VAL004  - Unknown chart option        chart.ErrUnknownKind
//
//	UPL002  - System busy                 ErrTooManyUploads
//	UPL004  - Request cancelled           context.Canceled
//	UPL005  - Request timeout             context.DeadlineExceeded
//
//	SES001  - Not logged in               ErrNotLoggedIn
//	RATE001 - Rate limited                "rate limit"
//	ERR000  - Anything else; check the logs for the technical error.
//
// Sentinel errors are matched with errors.Is first. Errors that only carry
// text (for example from the multipart reader) fall through to
// case-insensitive substring patterns, first match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/csvprof/internal/chart"
	"github.com/JonMunkholm/csvprof/internal/dataset"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgFileTooLarge = UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE001",
	}
	msgInvalidCSV = UserMessage{
		Message: "File is not a valid CSV",
		Action:  "Ensure the file is comma-separated with the same number of fields on every row",
		Code:    "FILE002",
	}
	msgNoFile = UserMessage{
		Message: "No file was selected",
		Action:  "Please select a CSV file to upload",
		Code:    "FILE004",
	}
	msgEmptyFile = UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Please upload a CSV file with a header row",
		Code:    "FILE005",
	}
	msgNotFound = UserMessage{
		Message: "Dataset not found",
		Action:  "It may have been removed. Select another dataset",
		Code:    "DS001",
	}
	msgEmptySelection = UserMessage{
		Message: "Not enough data for this view",
		Action:  "Upload at least two datasets to compare, or pick a dataset with suitable columns",
		Code:    "DS002",
	}
	msgInvalidValue = UserMessage{
		Message: "Value does not fit the column",
		Action:  "Enter a value matching the column type, or leave it empty for missing",
		Code:    "VAL001",
	}
	msgUnknownColumn = UserMessage{
		Message: "Column not found",
		Action:  "Refresh the page and pick a column from the list",
		Code:    "VAL002",
	}
	msgColumnType = UserMessage{
		Message: "This chart cannot use the selected column",
		Action:  "Pick a numeric column for the values and a text column for categories",
		Code:    "VAL003",
	}
	msgUnknownOption = UserMessage{
		Message: "Unknown chart option",
		Action:  "Choose a chart type and aggregation from the list",
		Code:    "VAL004",
	}
	msgTooManyUploads = UserMessage{
		Message: "System is busy processing other uploads",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}
	msgCancelled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
	}
	msgTimeout = UserMessage{
		Message: "Request timed out",
		Action:  "Try uploading a smaller file or check your connection",
		Code:    "UPL005",
	}
	msgNotLoggedIn = UserMessage{
		Message: "You are not logged in",
		Action:  "Enter a username on the welcome page",
		Code:    "SES001",
	}
)

// errorSentinels are checked in order with errors.Is.
var errorSentinels = []struct {
	err error
	msg UserMessage
}{
	{ErrFileTooLarge, msgFileTooLarge},
	{ErrNoFile, msgNoFile},
	{dataset.ErrEmptyInput, msgEmptyFile},
	{ErrNotFound, msgNotFound},
	{ErrEmptySelection, msgEmptySelection},
	{ErrUnknownColumn, msgUnknownColumn},
	{ErrInvalidValue, msgInvalidValue},
	{chart.ErrColumnType, msgColumnType},
	{chart.ErrUnknownKind, msgUnknownOption},
	{ErrTooManyUploads, msgTooManyUploads},
	{ErrNotLoggedIn, msgNotLoggedIn},
	{context.Canceled, msgCancelled},
	{context.DeadlineExceeded, msgTimeout},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns are matched case-insensitively after the sentinels.
var errorPatterns = []errorPattern{
	{pattern: "request body too large", msg: msgFileTooLarge},
	{pattern: "file too large", msg: msgFileTooLarge},
	{pattern: "invalid csv", msg: msgInvalidCSV},
	{
		pattern: "encoding error",
		msg: UserMessage{
			Message: "File contains invalid characters",
			Action:  "Save file as UTF-8 encoding",
			Code:    "FILE003",
		},
	},
	{pattern: "no file provided", msg: msgNoFile},
	{pattern: "empty file", msg: msgEmptyFile},
	{pattern: "too many uploads", msg: msgTooManyUploads},
	{pattern: "too many concurrent uploads", msg: msgTooManyUploads},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. A
// *ParseError maps by its cause when the cause is known, otherwise to FILE002.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, s := range errorSentinels {
		if errors.Is(err, s.err) {
			return s.msg
		}
	}

	var perr *ParseError
	if errors.As(err, &perr) {
		return msgInvalidCSV
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error, kept for logging, with the message
// shown to the user.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
