package llm

import (
	"context"
	"errors"
	"net"
)

// ErrorKind buckets gateway failures for user-facing messages: the wizard
// reports auth and rate-limit problems differently from generic failures.
type ErrorKind int

const (
	KindGeneric ErrorKind = iota
	KindAuth
	KindRateLimited
	KindConnection
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindRateLimited:
		return "rate_limited"
	case KindConnection:
		return "connection"
	default:
		return "generic"
	}
}

// Classify maps a Complete error onto an ErrorKind.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindGeneric
	}
	var httpErr *gatewayHTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode == 401 || httpErr.StatusCode == 403:
			return KindAuth
		case httpErr.StatusCode == 429:
			return KindRateLimited
		}
		return KindGeneric
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindConnection
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindConnection
	}
	return KindGeneric
}
