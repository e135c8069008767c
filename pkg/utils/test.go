package utils

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestRequest runs handler against a request without extra headers.
func TestRequest(t *testing.T, method string, url string, body io.Reader, handler func(http.ResponseWriter, *http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	return TestRequestWithHeaders(t, method, url, nil, body, handler)
}

// TestRequestWithHeaders runs handler and returns the recorded response.
func TestRequestWithHeaders(t *testing.T, method string, url string, headers map[string][]string, body io.Reader, handler func(http.ResponseWriter, *http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatal(err)
	}

	for k, v := range headers {
		for _, h := range v {
			req.Header.Add(k, h)
		}
	}

	rr := httptest.NewRecorder()
	handler(rr, req)

	return rr
}

func TestExpectedStatus(t *testing.T, rr *httptest.ResponseRecorder, statusCode int) {
	t.Helper()

	if rr.Code != statusCode {
		t.Errorf("expected status code %d, got %d", statusCode, rr.Code)
	}
}

func TestExpectedMessage(t *testing.T, rr *httptest.ResponseRecorder, m string) {
	t.Helper()

	if !strings.Contains(rr.Body.String(), m) {
		t.Errorf("received body `%s`, expected it to contain `%s`", rr.Body.String(), m)
	}
}

// TestDecodeJSON decodes the response body into v, failing the test when the
// body is not JSON or the content type is wrong.
func TestDecodeJSON(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()

	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected content type application/json, got %q", ct)
	}

	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode body `%s`: %v", rr.Body.String(), err)
	}
}
