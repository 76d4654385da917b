package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/routebind/routebind/pkg/config"
	"github.com/routebind/routebind/pkg/endpoint"
)

// demoBuilds returns the example endpoint builds served by the demo
// binary. The set exercises both endpoint kinds, parameter schemas,
// middleware chains, and verbatim (non-JSON) responses.
func demoBuilds(cfg *config.Config) []*endpoint.Build {
	var protected []endpoint.Middleware
	if cfg.Auth.Type == "bearer" {
		protected = append(protected, bearerAuth(cfg.Auth.Secret))
	}

	return []*endpoint.Build{
		{
			Paths:   []string{"/v1/greetings/{name}"},
			Methods: []string{http.MethodGet},
			Kind:    endpoint.KindSingle,
			Handler: greetHandler,
			Order:   1,
		},
		{
			Paths:   []string{"/v1/users/{id}"},
			Methods: []string{http.MethodGet},
			Kind:    endpoint.KindSingle,
			Params: map[string]endpoint.ParamSchema{
				"id": {Type: endpoint.ParamInteger},
			},
			Handler: userHandler,
			Order:   2,
		},
		{
			Paths:   []string{"/v1/reports/{format}"},
			Methods: []string{http.MethodGet},
			Kind:    endpoint.KindSingle,
			Params: map[string]endpoint.ParamSchema{
				"format": {Type: endpoint.ParamEnum, Enum: []string{"json", "text"}},
			},
			Handler: reportHandler,
			Order:   3,
		},
		{
			Paths:   []string{"/v1/echo"},
			Methods: []string{http.MethodPost},
			Kind:    endpoint.KindSingle,
			Handler: echoHandler,
			Order:   4,
		},
		{
			Paths:      []string{"/v1/ticks/{count}"},
			Methods:    []string{http.MethodGet},
			Kind:       endpoint.KindStream,
			Middleware: protected,
			Params: map[string]endpoint.ParamSchema{
				"count": {Type: endpoint.ParamInteger},
			},
			Stream: tickStream,
			Order:  5,
		},
		{
			Paths:      []string{"/v1/whoami"},
			Methods:    []string{http.MethodGet},
			Kind:       endpoint.KindSingle,
			Middleware: protected,
			Handler:    whoamiHandler,
			Order:      6,
		},
	}
}

func greetHandler(ctx context.Context, c *endpoint.Context, req *endpoint.Request) (*endpoint.Result, error) {
	c.Log("greeting " + req.Params["name"])
	return &endpoint.Result{
		Body: map[string]string{"greeting": "hello, " + req.Params["name"]},
	}, nil
}

func userHandler(ctx context.Context, c *endpoint.Context, req *endpoint.Request) (*endpoint.Result, error) {
	// The route pattern only admits digits, so the id is numeric here.
	id := req.Params["id"]
	if id == "0" {
		return nil, endpoint.NotFound("user " + id + " not found")
	}
	return &endpoint.Result{
		Body: map[string]string{"id": id, "name": "user-" + id},
	}, nil
}

func reportHandler(ctx context.Context, c *endpoint.Context, req *endpoint.Request) (*endpoint.Result, error) {
	switch req.Params["format"] {
	case "text":
		hdr := http.Header{}
		hdr.Set("Content-Type", "text/plain; charset=utf-8")
		return &endpoint.Result{
			Header: hdr,
			Body:   "report generated at " + time.Now().UTC().Format(time.RFC3339) + "\n",
		}, nil
	default:
		return &endpoint.Result{
			Body: map[string]string{"generated_at": time.Now().UTC().Format(time.RFC3339)},
		}, nil
	}
}

func echoHandler(ctx context.Context, c *endpoint.Context, req *endpoint.Request) (*endpoint.Result, error) {
	if len(req.Body) == 0 {
		return nil, endpoint.BadRequest("request body is required")
	}
	var payload any
	if err := json.Unmarshal(req.Body, &payload); err != nil {
		return nil, endpoint.BadRequest("request body must be valid JSON")
	}
	return &endpoint.Result{Body: map[string]any{"echo": payload}}, nil
}

func whoamiHandler(ctx context.Context, c *endpoint.Context, req *endpoint.Request) (*endpoint.Result, error) {
	subject := "anonymous"
	if v, ok := c.Get("subject"); ok {
		subject, _ = v.(string)
	}
	return &endpoint.Result{Body: map[string]string{"subject": subject}}, nil
}

// tickStream emits one event per tick up to the requested count.
func tickStream(ctx context.Context, c *endpoint.Context, req *endpoint.Request) (<-chan endpoint.StreamItem, error) {
	var count int
	if _, err := fmt.Sscanf(req.Params["count"], "%d", &count); err != nil || count < 1 {
		return nil, endpoint.BadRequest("count must be a positive integer")
	}
	if count > 1000 {
		return nil, endpoint.BadRequest("count must be at most 1000")
	}

	ch := make(chan endpoint.StreamItem)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		for i := 1; i <= count; i++ {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				item := endpoint.StreamItem{Data: map[string]any{
					"tick": i,
					"at":   t.UTC().Format(time.RFC3339Nano),
				}}
				select {
				case <-ctx.Done():
					return
				case ch <- item:
				}
			}
		}
	}()
	return ch, nil
}
