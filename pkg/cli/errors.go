package cli

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ConnectionError means the gateway could not be reached
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot connect to gateway at %s: %v", e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// StatusMessages maps gateway status codes to human-readable messages
var StatusMessages = map[int]string{
	http.StatusBadRequest:          "Invalid request parameters",
	http.StatusUnauthorized:        "Authentication failed - invalid or missing token",
	http.StatusForbidden:           "Access denied - you don't have permission for this action",
	http.StatusNotFound:            "Resource not found",
	http.StatusConflict:            "Operation conflicts with the current state",
	http.StatusUnprocessableEntity: "The mail server rejected the request",
	http.StatusInternalServerError: "Internal server error",
	http.StatusBadGateway:          "Service unavailable - the gateway may be down or unreachable",
	http.StatusServiceUnavailable:  "Service unavailable - the gateway may be down or unreachable",
}

// StatusSuggestions provides helpful suggestions for specific status codes
var StatusSuggestions = map[int][]string{
	http.StatusUnauthorized: {
		"Check that your token is correct: " + CodeStyle.Render("--token <token>"),
		"Issue a user token with " + CodeStyle.Render("mailsync token issue"),
	},
	http.StatusForbidden: {
		"Verify the account belongs to the token's user",
		"Use the gateway admin token for cluster-wide operations",
	},
	http.StatusConflict: {
		"Another sweep may be running, try again shortly",
	},
}

// FormatError converts an error to a human-readable message
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		msg, ok := StatusMessages[apiErr.Status]
		if !ok {
			return apiErr.Error()
		}
		if apiErr.Message != "" && !strings.Contains(strings.ToLower(msg), strings.ToLower(apiErr.Message)) {
			return fmt.Sprintf("%s (%s)", msg, apiErr.Message)
		}
		return msg
	}

	return cleanErrorMessage(err.Error())
}

// GetErrorSuggestions returns helpful suggestions for an error
func GetErrorSuggestions(err error) []string {
	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		return []string{
			"Verify the gateway is running at " + CodeStyle.Render(connErr.Addr),
			"Check your " + CodeStyle.Render("MAILSYNC_GATEWAY") + " environment variable",
		}
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return StatusSuggestions[apiErr.Status]
	}
	return nil
}

// cleanErrorMessage cleans up common error message patterns
func cleanErrorMessage(msg string) string {
	msg = strings.TrimPrefix(msg, "error: ")
	msg = strings.TrimPrefix(msg, "Error: ")

	// For deeply nested errors, just show the most relevant part
	if parts := strings.Split(msg, ": "); len(parts) > 3 {
		msg = parts[0] + ": " + parts[len(parts)-1]
	}
	return msg
}

// PrintFormattedError prints an error with styling and optional suggestions
func PrintFormattedError(title string, err error) {
	fmt.Println()
	PrintErrorMsg(title)

	if err != nil {
		fmt.Printf("  %s\n", DimStyle.Render(FormatError(err)))

		if suggestions := GetErrorSuggestions(err); len(suggestions) > 0 {
			PrintSuggestions("Suggestions:", suggestions)
		}
	}
	fmt.Println()
}
