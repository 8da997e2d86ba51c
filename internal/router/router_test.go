package router

import (
	"testing"

	"github.com/kestrelhttp/kestrel/internal/message"
)

func newRequest(method message.Method, path, rawQuery string) *message.Request {
	return &message.Request{
		Method: method,
		Path:   path,
		Query:  message.ParseQuery(rawQuery),
	}
}

func TestFindMatchesLiteralPath(t *testing.T) {
	r := NewMuxRouter()
	called := false
	ep := Endpoint{
		Methods: message.NewSet(message.MethodGET),
		Pattern: "/health",
		Handler: func(req *message.Request, binding map[string]string) *message.Response {
			called = true
			return message.NewResponse(message.StatusOK)
		},
	}
	if err := r.Register(ep); err != nil {
		t.Fatalf("Register: %v", err)
	}

	matched, binding, ok := r.Find(newRequest(message.MethodGET, "/health", ""))
	if !ok {
		t.Fatalf("expected a match for /health")
	}
	if len(binding) != 0 {
		t.Fatalf("expected no path bindings, got %v", binding)
	}
	matched.Handler(nil, binding)
	if !called {
		t.Fatalf("expected the matched endpoint's handler to be resolvable and callable")
	}
}

func TestFindExtractsNamedParameters(t *testing.T) {
	r := NewMuxRouter()
	if err := r.Register(Endpoint{
		Methods: message.NewSet(message.MethodGET),
		Pattern: "/users/{id}",
		Handler: func(req *message.Request, binding map[string]string) *message.Response { return nil },
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, binding, ok := r.Find(newRequest(message.MethodGET, "/users/42", ""))
	if !ok {
		t.Fatalf("expected a match for /users/42")
	}
	if binding["id"] != "42" {
		t.Fatalf("expected id=42 binding, got %v", binding)
	}
}

func TestFindHonorsRegexConstraint(t *testing.T) {
	r := NewMuxRouter()
	if err := r.Register(Endpoint{
		Methods: message.NewSet(message.MethodGET),
		Pattern: "/items/{id:[0-9]+}",
		Handler: func(req *message.Request, binding map[string]string) *message.Response { return nil },
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, _, ok := r.Find(newRequest(message.MethodGET, "/items/abc", "")); ok {
		t.Fatalf("expected no match for a non-numeric id against [0-9]+")
	}
	if _, _, ok := r.Find(newRequest(message.MethodGET, "/items/7", "")); !ok {
		t.Fatalf("expected a match for a numeric id")
	}
}

func TestFindFiltersByMethod(t *testing.T) {
	r := NewMuxRouter()
	if err := r.Register(Endpoint{
		Methods: message.NewSet(message.MethodPOST),
		Pattern: "/submit",
		Handler: func(req *message.Request, binding map[string]string) *message.Response { return nil },
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, _, ok := r.Find(newRequest(message.MethodGET, "/submit", "")); ok {
		t.Fatalf("expected GET to be rejected by a POST-only endpoint")
	}
	if _, _, ok := r.Find(newRequest(message.MethodPOST, "/submit", "")); !ok {
		t.Fatalf("expected POST to match")
	}
}

func TestNotFoundDefaultAndOverride(t *testing.T) {
	r := NewMuxRouter()
	resp := r.NotFound(newRequest(message.MethodGET, "/missing", ""))
	if resp.StatusCode != message.StatusNotFound {
		t.Fatalf("expected default 404, got %v", resp.StatusCode)
	}

	r.SetNotFound(func(req *message.Request) *message.Response {
		return message.NewResponse(message.StatusCode(599))
	})
	resp = r.NotFound(newRequest(message.MethodGET, "/missing", ""))
	if resp.StatusCode != 599 {
		t.Fatalf("expected overridden not-found response, got %v", resp.StatusCode)
	}
}
