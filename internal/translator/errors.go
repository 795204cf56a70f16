package translator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"unicode/utf8"
)

// Error kinds carried by TranslationError. Test with errors.Is.
var (
	ErrConnectivity     = errors.New("provider unreachable")
	ErrTimeout          = errors.New("provider request timed out")
	ErrProviderResponse = errors.New("unexpected provider response")
)

// TranslationError is returned by Provider.Translate for every failed call.
type TranslationError struct {
	Provider   string
	Kind       error // one of ErrConnectivity, ErrTimeout, ErrProviderResponse
	StatusCode int   // HTTP or API status, 0 when unknown
	Body       string
	Err        error
}

func (e *TranslationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %v", e.Provider, e.Kind)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.Body != "" {
		fmt.Fprintf(&b, ": %s", e.Body)
	}
	return b.String()
}

func (e *TranslationError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// transportError classifies a failed HTTP round trip.
func transportError(provider string, err error) *TranslationError {
	kind := ErrConnectivity
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = ErrTimeout
	}
	return &TranslationError{Provider: provider, Kind: kind, Err: err}
}

// responseError reports a non-success status or an unusable payload.
func responseError(provider string, status int, body []byte, err error) *TranslationError {
	return &TranslationError{
		Provider:   provider,
		Kind:       ErrProviderResponse,
		StatusCode: status,
		Body:       snippet(body),
		Err:        err,
	}
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		n := maxErrorBody
		for n > 0 && !utf8.RuneStart(s[n]) {
			n--
		}
		s = s[:n] + "..."
	}
	return s
}
