package providers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

type rateLimitError struct {
	body string
}

func (e *rateLimitError) Error() string { return "rate limited: " + e.body }

type authError struct {
	message string
}

func (e *authError) Error() string {
	return "authentication error: " + e.message
}

type serverError struct {
	statusCode int
	body       string
}

func (e *serverError) Error() string {
	return fmt.Sprintf("server error (status %d): %s", e.statusCode, e.body)
}

// IsAuthError checks if an error is, or wraps, an authentication error.
func IsAuthError(err error) bool {
	var ae *authError
	return errors.As(err, &ae)
}

// IsRateLimit checks if an error is, or wraps, a rate-limit response.
func IsRateLimit(err error) bool {
	var re *rateLimitError
	return errors.As(err, &re)
}

// IsServerError checks if an error is, or wraps, a 5xx response.
func IsServerError(err error) bool {
	var se *serverError
	return errors.As(err, &se)
}

// send performs a single request and classifies the response status.
func send(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &rateLimitError{body: string(body)}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &authError{message: string(body)}
	case resp.StatusCode >= 500:
		return nil, &serverError{statusCode: resp.StatusCode, body: string(body)}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}
	return body, nil
}
