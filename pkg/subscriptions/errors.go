package subscriptions

import "errors"

// ErrInvalidEndpoint is returned when an upsert is attempted without an endpoint.
var ErrInvalidEndpoint = errors.New("subscriptions: endpoint is required")
