package httpapi

import "errors"

var (
	errMethodNotAllowed     = errors.New("method not allowed")
	errMissingProxyIdentity = errors.New("address and port are required")
)
