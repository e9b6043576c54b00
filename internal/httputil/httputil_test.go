package httputil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCheckResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.WriteHeader(http.StatusOK)
		case "/notfound":
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("no such vendor"))
		}
	}))
	defer srv.Close()

	get := func(path string) *http.Response {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		return resp
	}

	if err := CheckResponse(get("/ok")); err != nil {
		t.Errorf("CheckResponse(200) = %v, want nil", err)
	}
	err := CheckResponse(get("/notfound"))
	if err == nil {
		t.Fatal("CheckResponse(404) = nil, want error")
	}
	if !strings.Contains(err.Error(), "no such vendor") {
		t.Errorf("error %q should include response body", err)
	}
}
