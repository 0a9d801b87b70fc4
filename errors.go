package totalconnect

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is to branch on them.
var (
	// ErrAuthentication is returned for bad credentials, locked accounts and
	// for any call made after the credentials were marked invalid.
	ErrAuthentication = errors.New("authentication failed")

	// ErrInvalidSession signals an expired session. The dispatcher consumes
	// it to re-authenticate; callers never see it.
	ErrInvalidSession = errors.New("invalid session")

	// ErrRetryable marks transient failures: connection errors, transport
	// errors and partial responses.
	ErrRetryable = errors.New("retryable error")

	// ErrServiceUnavailable is returned when retries are exhausted or the
	// service replied without a result code.
	ErrServiceUnavailable = errors.New("service unavailable")

	ErrBadResultCode       = errors.New("bad result code")
	ErrFeatureNotSupported = errors.New("feature not supported")
	ErrUsercodeInvalid     = errors.New("usercode invalid")
	ErrUsercodeUnavailable = errors.New("usercode unavailable")
	ErrFailedToBypassZone  = errors.New("failed to bypass zone")
	ErrCommandFailed       = errors.New("command failed")
	ErrPartialResponse     = errors.New("partial response")

	// ErrMalformedReply is returned by transports for empty or undecodable
	// bodies. Such replies carry no result code and are not retried.
	ErrMalformedReply = errors.New("malformed reply")
)

// ResultError is a reply whose result code was not a success. Reply is the
// record as decoded from the service, kept for diagnostics.
type ResultError struct {
	Op       string
	Code     *ResultCode
	Data     string
	Category Category
	Reply    Response
}

func (e *ResultError) Error() string {
	code := "none"
	if e.Code != nil {
		code = fmt.Sprintf("%d (%s)", int(*e.Code), e.Code.String())
	}
	if e.Data == "" {
		return fmt.Sprintf("%s: %s: result code %s", e.Op, e.sentinel(), code)
	}
	return fmt.Sprintf("%s: %s: result code %s: %s", e.Op, e.sentinel(), code, e.Data)
}

func (e *ResultError) sentinel() error {
	switch e.Category {
	case CategoryRetryable:
		return ErrRetryable
	case CategorySessionInvalid:
		return ErrInvalidSession
	case CategoryAuthenticationFailed:
		return ErrAuthentication
	case CategoryFeatureNotSupported:
		return ErrFeatureNotSupported
	case CategoryCommandFailed:
		if e.Code != nil && *e.Code == ResultFailedToBypassZone {
			return ErrFailedToBypassZone
		}
		return ErrCommandFailed
	case CategoryUsercodeInvalid:
		return ErrUsercodeInvalid
	case CategoryUsercodeUnavailable:
		return ErrUsercodeUnavailable
	case CategoryServiceUnavailable:
		return ErrServiceUnavailable
	default:
		return ErrBadResultCode
	}
}

func (e *ResultError) Unwrap() []error {
	errs := []error{e.sentinel()}
	if errors.Is(errs[0], ErrFailedToBypassZone) {
		errs = append(errs, ErrCommandFailed)
	}
	return errs
}

// PartialResponseError is a successful reply missing an expected section.
// The service is known to truncate payloads now and then, so it is retried.
type PartialResponseError struct {
	Op      string
	Section string
}

func (e *PartialResponseError) Error() string {
	return fmt.Sprintf("%s: partial response: missing %s", e.Op, e.Section)
}

func (e *PartialResponseError) Is(target error) bool {
	return target == ErrPartialResponse || target == ErrRetryable
}

func partial(section string) error {
	return &PartialResponseError{Section: section}
}

// Retryable reports whether err is transient.
func Retryable(err error) bool {
	return errors.Is(err, ErrRetryable)
}

var errMissingCredentials = fmt.Errorf("%w: username and password are required", ErrAuthentication)

type usercodeError struct {
	location string
}

func (e *usercodeError) Error() string {
	return fmt.Sprintf("usercode for %q must be numeric", e.location)
}

func (e *usercodeError) Unwrap() error { return ErrUsercodeInvalid }
