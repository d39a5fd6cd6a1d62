package session

import "errors"

// Session errors. Provider errors stay reachable through errors.As.
var (
	ErrProviderMissing     = errors.New("no wallet provider available")
	ErrUserRejected        = errors.New("user rejected the request")
	ErrUnsupportedNetwork  = errors.New("unsupported network")
	ErrContractUnreachable = errors.New("contract unreachable")
	ErrNetworkSwitchFailed = errors.New("network switch failed")
	ErrInvalidRole         = errors.New("invalid role")
)
