package integration

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestSingleResponseEndpoint(t *testing.T) {
	var body map[string]string
	resp := getJSON(t, "/greetings/world", &body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing permissive CORS header")
	}
	if body["greeting"] != "hello, world" {
		t.Errorf("greeting = %q, want %q", body["greeting"], "hello, world")
	}
}

func TestRequestIDEchoed(t *testing.T) {
	resp := getJSON(t, "/greetings/id-check", nil)

	id := resp.Header.Get("X-Request-ID")
	if id == "" {
		t.Fatal("response is missing X-Request-ID")
	}
	if !strings.HasPrefix(id, "req_") {
		t.Errorf("X-Request-ID = %q, want req_ prefix", id)
	}
}

func TestIntegerParamRejectsNonDigits(t *testing.T) {
	resp := getJSON(t, "/users/abc", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for non-numeric id", resp.StatusCode)
	}

	var body map[string]string
	resp = getJSON(t, "/users/42", &body)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200 for numeric id", resp.StatusCode)
	}
	if body["id"] != "42" {
		t.Errorf("id = %q, want %q", body["id"], "42")
	}
}

func TestEnumParamRejectsUnknownMember(t *testing.T) {
	resp := getJSON(t, "/reports/xml", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for unknown enum member", resp.StatusCode)
	}
}

func TestVerbatimNonJSONResponse(t *testing.T) {
	resp, err := http.Get(testEnv.Server.URL + "/reports/text")
	if err != nil {
		t.Fatalf("GET /reports/text: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/plain; charset=utf-8" {
		t.Errorf("Content-Type = %q, want declared plain text", ct)
	}
	if got := readAll(t, resp.Body); got != "plain report\n" {
		t.Errorf("body = %q, want verbatim string", got)
	}
}

func TestHandlerErrorEnvelope(t *testing.T) {
	var envelope struct {
		Status int               `json:"status"`
		Body   map[string]string `json:"body"`
	}
	resp := getJSON(t, "/users/0", &envelope)

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	if envelope.Status != http.StatusNotFound {
		t.Errorf("envelope status = %d, want 404", envelope.Status)
	}
	if envelope.Body["error"] != "user 0 not found" {
		t.Errorf("envelope body = %v, want the handler's message", envelope.Body)
	}
}

func TestHandlerPanicBecomes500(t *testing.T) {
	resp := getJSON(t, "/boom", nil)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	resp := getJSON(t, "/no/such/route", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestRecordSavedForCompletedRequest(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, testEnv.Server.URL+"/greetings/recorded", nil)
	req.Header.Set("X-Request-ID", "req_recorded0000000000000000")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()

	// The record is flushed after the response; allow a moment.
	deadline := time.Now().Add(2 * time.Second)
	for {
		rec, err := testEnv.Records.Get(context.Background(), "req_recorded0000000000000000")
		if err == nil {
			if rec.State != "completed" {
				t.Errorf("record state = %q, want %q", rec.State, "completed")
			}
			if rec.Kind != "single-response" {
				t.Errorf("record kind = %q, want %q", rec.Kind, "single-response")
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("record not saved: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
