package endpoint

import (
	"fmt"
	"net/http"
)

var knownMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodHead:    true,
	http.MethodOptions: true,
}

// ValidateBuild checks a build for configuration defects. It is called
// at route-registration time; a build that fails validation is never
// bound to the router, so request-time code can assume a well-formed
// build.
func ValidateBuild(b *Build) error {
	if b == nil {
		return fmt.Errorf("endpoint: build must not be nil")
	}

	if len(b.Paths) == 0 {
		return fmt.Errorf("endpoint: build requires at least one path")
	}
	for _, p := range b.Paths {
		if p == "" || p[0] != '/' {
			return fmt.Errorf("endpoint: path %q must start with /", p)
		}
	}

	if len(b.Methods) == 0 {
		return fmt.Errorf("endpoint: build requires at least one method")
	}
	for _, m := range b.Methods {
		if !knownMethods[m] {
			return fmt.Errorf("endpoint: unknown method %q", m)
		}
	}

	switch b.Kind {
	case KindSingle:
		if b.Handler == nil {
			return fmt.Errorf("endpoint: single-response build requires a handler")
		}
		if b.Stream != nil {
			return fmt.Errorf("endpoint: single-response build must not set a stream handler")
		}
	case KindStream:
		if b.Stream == nil {
			return fmt.Errorf("endpoint: stream build requires a stream handler")
		}
		if b.Handler != nil {
			return fmt.Errorf("endpoint: stream build must not set a single-response handler")
		}
	default:
		return fmt.Errorf("endpoint: unknown endpoint kind %q", b.Kind)
	}

	for name, schema := range b.Params {
		switch schema.Type {
		case ParamString, ParamInteger:
		case ParamEnum:
			if len(schema.Enum) == 0 {
				return fmt.Errorf("endpoint: enum parameter %q requires at least one member", name)
			}
		default:
			return fmt.Errorf("endpoint: parameter %q has unknown type %q", name, schema.Type)
		}
	}

	return nil
}
