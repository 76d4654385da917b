package endpoint

import (
	"context"
	"net/http"
	"net/url"
)

// Kind selects the lifecycle shape of an endpoint.
type Kind string

const (
	// KindSingle endpoints produce exactly one response per request.
	KindSingle Kind = "single-response"

	// KindStream endpoints produce a sequence of server-sent events.
	KindStream Kind = "stream"
)

// ParamType categorizes a path parameter for pattern translation.
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamInteger ParamType = "integer"
	ParamEnum    ParamType = "enum"
)

// ParamSchema declares the accepted values for one path parameter.
// Enum lists the literal members for ParamEnum; it is ignored for
// other types.
type ParamSchema struct {
	Type ParamType
	Enum []string
}

// Request carries the transport-independent input captured at the start
// of a request: body, headers, resolved path parameters, and query
// values. It is passed unchanged to every middleware stage and to the
// terminal handler.
type Request struct {
	Method string
	Path   string
	Params map[string]string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Result is the success payload of a terminal handler: headers to merge
// into the response and an optional body. A nil Body produces an empty
// 200 response.
type Result struct {
	Header http.Header
	Body   any
}

// Middleware is one stage of an endpoint's chain. On success it returns
// headers to merge into the accumulated header set (nil is fine). On
// error the chain stops and the error is normalized into the terminal
// response.
type Middleware func(ctx context.Context, c *Context, req *Request) (http.Header, error)

// Handler is the terminal handler of a single-response endpoint.
type Handler func(ctx context.Context, c *Context, req *Request) (*Result, error)

// StreamHandler is the terminal handler of a stream endpoint. It returns
// a lazily produced, non-restartable sequence of items. The producer
// must close the channel when the sequence ends and should stop when
// ctx is cancelled.
type StreamHandler func(ctx context.Context, c *Context, req *Request) (<-chan StreamItem, error)

// StreamItem is one element of a streamed sequence: either a data item
// or a producer error. An item with Err set ends the stream.
type StreamItem struct {
	Data any
	Err  error
}

// Build is the immutable descriptor of one logical endpoint. It is
// created once at startup, validated at registration, and shared
// read-only across all requests for the process lifetime.
type Build struct {
	// Paths are brace-style path templates ("/users/{id}"). At least
	// one is required.
	Paths []string

	// Methods are the accepted HTTP methods. At least one is required.
	Methods []string

	// Kind selects single-response or stream handling. Validated at
	// registration; an unknown kind never reaches request time.
	Kind Kind

	// Middleware runs in declared order before the terminal handler.
	Middleware []Middleware

	// Handler is the terminal handler for KindSingle builds.
	Handler Handler

	// Stream is the terminal handler for KindStream builds.
	Stream StreamHandler

	// Params optionally constrains path parameters by name.
	Params map[string]ParamSchema

	// Order is a display ordering key for route listings.
	Order int
}
