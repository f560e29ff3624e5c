package igdb

import (
	"fmt"
	"net/http"
	"strings"

	"game-release-tracker/internal/common/errors"
)

// Outcome classifies a single upstream call
type Outcome int

const (
	Success Outcome = iota
	RateLimited
	AuthFailed
	TransportError
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case RateLimited:
		return "rate_limited"
	case AuthFailed:
		return "auth_failed"
	case TransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

const maxErrorBody = 256

// Result is the outcome of one POST to an entity endpoint. Body holds the
// response body whenever one was read. Err holds the underlying failure for
// AuthFailed and for transport errors that produced no response.
type Result struct {
	Outcome    Outcome
	Endpoint   string
	StatusCode int
	Body       []byte
	RetryAfter string
	Err        error
}

// Error converts a failed result into the matching typed error. It returns
// nil on Success.
func (r Result) Error() error {
	switch r.Outcome {
	case Success:
		return nil
	case RateLimited:
		err := errors.RateLimitError(r.Endpoint).WithStatus(http.StatusTooManyRequests)
		if r.RetryAfter != "" {
			err = err.WithContext("retry_after", r.RetryAfter)
		}
		return err
	case AuthFailed:
		if errors.IsType(r.Err, errors.ErrTypeAuth) {
			return r.Err
		}
		return errors.AuthError("failed to obtain access token", r.Err)
	case TransportError:
		if r.StatusCode == 0 {
			return errors.UpstreamError(0, fmt.Sprintf("request to %s failed", r.Endpoint), r.Err)
		}
		return errors.UpstreamError(r.StatusCode,
			fmt.Sprintf("%s returned status %d: %s", r.Endpoint, r.StatusCode, snippet(r.Body)), r.Err)
	default:
		return errors.InternalError(fmt.Sprintf("unknown outcome %d", r.Outcome), nil)
	}
}

func snippet(body []byte) string {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return "empty response"
	}
	if len(text) > maxErrorBody {
		return text[:maxErrorBody] + "..."
	}
	return text
}
