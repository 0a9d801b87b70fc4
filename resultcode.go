package totalconnect

import (
	"fmt"
	"strconv"
	"strings"
)

// ResultCode is the numeric status the service attaches to every reply.
type ResultCode int

const (
	ResultSuccess            ResultCode = 0
	ResultArmSuccess         ResultCode = 4500
	ResultDisarmSuccess      ResultCode = 4500
	ResultSessionInitiated   ResultCode = 4501
	ResultConnectionError    ResultCode = 4101
	ResultFeatureUnsupported ResultCode = 4504

	ResultAuthenticationFailed  ResultCode = -100
	ResultInvalidSession        ResultCode = -102
	ResultCommandFailed         ResultCode = -4502
	ResultFailedToBypassZone    ResultCode = -4504
	ResultFailedToConnect       ResultCode = -4104
	ResultUsercodeInvalid       ResultCode = -4106
	ResultUsercodeUnavailable   ResultCode = -4114
	ResultInvalidSessionID      ResultCode = -30002
	ResultBadUserOrPassword     ResultCode = -50004
	ResultAccountLocked         ResultCode = -50009
	ResultFeatureNotSupported   ResultCode = -12104
	ResultBadObjectReference    ResultCode = -400
	ResultSessionIDExpired      ResultCode = -4107
	ResultPanelCommunicationErr ResultCode = -4108
)

// Category is the semantic outcome of a result code.
type Category uint8

const (
	CategoryUnknown Category = iota
	CategorySuccess
	CategoryRetryable
	CategorySessionInvalid
	CategoryAuthenticationFailed
	CategoryFeatureNotSupported
	CategoryCommandFailed
	CategoryUsercodeInvalid
	CategoryUsercodeUnavailable
	CategoryServiceUnavailable
)

func (c Category) String() string {
	switch c {
	case CategorySuccess:
		return "success"
	case CategoryRetryable:
		return "retryable"
	case CategorySessionInvalid:
		return "session-invalid"
	case CategoryAuthenticationFailed:
		return "authentication-failed"
	case CategoryFeatureNotSupported:
		return "feature-not-supported"
	case CategoryCommandFailed:
		return "command-failed"
	case CategoryUsercodeInvalid:
		return "usercode-invalid"
	case CategoryUsercodeUnavailable:
		return "usercode-unavailable"
	case CategoryServiceUnavailable:
		return "service-unavailable"
	default:
		return "unknown"
	}
}

// categories pins every known code to exactly one category.
// Anything missing from this table is CategoryUnknown.
var categories = map[ResultCode]Category{
	ResultSuccess:          CategorySuccess,
	ResultArmSuccess:       CategorySuccess,
	ResultSessionInitiated: CategorySuccess,

	ResultConnectionError:       CategoryRetryable,
	ResultFailedToConnect:       CategoryRetryable,
	ResultPanelCommunicationErr: CategoryRetryable,

	ResultInvalidSession:   CategorySessionInvalid,
	ResultInvalidSessionID: CategorySessionInvalid,
	ResultSessionIDExpired: CategorySessionInvalid,

	ResultAuthenticationFailed: CategoryAuthenticationFailed,
	ResultBadUserOrPassword:    CategoryAuthenticationFailed,
	ResultAccountLocked:        CategoryAuthenticationFailed,

	ResultFeatureUnsupported:  CategoryFeatureNotSupported,
	ResultFeatureNotSupported: CategoryFeatureNotSupported,

	ResultCommandFailed:      CategoryCommandFailed,
	ResultFailedToBypassZone: CategoryCommandFailed,
	ResultBadObjectReference: CategoryCommandFailed,

	ResultUsercodeInvalid:     CategoryUsercodeInvalid,
	ResultUsercodeUnavailable: CategoryUsercodeUnavailable,
}

// Classify maps a raw result code to its category. A nil code means the
// service sent no code at all and classifies as CategoryServiceUnavailable.
func Classify(code *ResultCode) Category {
	if code == nil {
		return CategoryServiceUnavailable
	}
	if c, ok := categories[*code]; ok {
		return c
	}
	return CategoryUnknown
}

// UnmarshalText rejects empty or non numeric codes. A present but blank
// ResultCode element would otherwise decode as ResultSuccess.
func (r *ResultCode) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" {
		return fmt.Errorf("%w: empty result code", ErrMalformedReply)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("%w: result code %q: %w", ErrMalformedReply, s, err)
	}
	*r = ResultCode(n)
	return nil
}

// Known reports whether the code is part of the vendor table.
func (r ResultCode) Known() bool {
	_, ok := categories[r]
	return ok
}

func (r ResultCode) String() string {
	switch r {
	case ResultSuccess:
		return "Success"
	case ResultArmSuccess:
		return "ArmSuccess"
	case ResultSessionInitiated:
		return "SessionInitiated"
	case ResultConnectionError:
		return "ConnectionError"
	case ResultFeatureUnsupported, ResultFeatureNotSupported:
		return "FeatureNotSupported"
	case ResultAuthenticationFailed:
		return "AuthenticationFailed"
	case ResultInvalidSession:
		return "InvalidSession"
	case ResultCommandFailed:
		return "CommandFailed"
	case ResultFailedToBypassZone:
		return "FailedToBypassZone"
	case ResultFailedToConnect:
		return "FailedToConnect"
	case ResultUsercodeInvalid:
		return "UsercodeInvalid"
	case ResultUsercodeUnavailable:
		return "UsercodeUnavailable"
	case ResultInvalidSessionID:
		return "InvalidSessionID"
	case ResultBadUserOrPassword:
		return "BadUserOrPassword"
	case ResultAccountLocked:
		return "AccountLocked"
	case ResultBadObjectReference:
		return "BadObjectReference"
	case ResultSessionIDExpired:
		return "SessionIDExpired"
	case ResultPanelCommunicationErr:
		return "PanelCommunicationError"
	default:
		return fmt.Sprintf("ResultCode(%d)", int(r))
	}
}
