package iriapi

import "net/http"

const (
	// APIVersionHeader selects the response schema on the node.
	APIVersionHeader = "X-IOTA-API-Version"
	// APIVersion is the only API version this client speaks.
	APIVersion = "1"

	mediaTypeJson = "application/json"
)

type header struct {
	name  string
	value string
}

// commandHeaders are set on every command request.
var commandHeaders = [...]header{
	{name: "Content-Type", value: mediaTypeJson},
	{name: "Accept", value: mediaTypeJson},
	{name: APIVersionHeader, value: APIVersion},
}

func setCommandHeaders(h http.Header) {
	for _, ch := range commandHeaders {
		h.Set(ch.name, ch.value)
	}
}
