package telephony

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/clearvoice/recording-gateway/internal/agora"
)

type fakeBridge struct {
	calls     int
	lastPhone string
	resp      *agora.Response
	err       error
}

func (f *fakeBridge) PlaceCall(ctx context.Context, channel, phoneNumber, mediaToken, uid string) (*agora.Response, error) {
	f.calls++
	f.lastPhone = phoneNumber
	return f.resp, f.err
}

func newCallRouter(bridge Bridge) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(bridge, nil)
	r := gin.New()
	r.POST("/make-call", h.MakeCall)
	return r
}

func postCall(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/make-call", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMakeCallMissingFields(t *testing.T) {
	bridge := &fakeBridge{resp: &agora.Response{StatusCode: 200, Body: []byte(`{}`)}}
	r := newCallRouter(bridge)

	cases := []string{
		`{"phone":"+15550001","token":"t"}`,
		`{"channel":"room","token":"t"}`,
		`{"channel":"room","phone":"+15550001"}`,
	}
	for _, body := range cases {
		w := postCall(r, body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, w.Code)
		}
	}
	if bridge.calls != 0 {
		t.Fatalf("expected zero outbound calls, got %d", bridge.calls)
	}
}

func TestMakeCallRelaysUpstream(t *testing.T) {
	bridge := &fakeBridge{resp: &agora.Response{
		StatusCode: http.StatusAccepted,
		Body:       []byte(`{"callId":"c1"}`),
	}}
	r := newCallRouter(bridge)

	w := postCall(r, `{"channel":"room","phone":"+15550001","token":"tok"}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected upstream 202 relayed, got %d", w.Code)
	}
	if w.Body.String() != `{"callId":"c1"}` {
		t.Fatalf("expected verbatim body, got %s", w.Body.String())
	}
	if bridge.lastPhone != "+15550001" {
		t.Fatalf("expected callee passed through, got %q", bridge.lastPhone)
	}
}

func TestMakeCallDisabledReturns503(t *testing.T) {
	r := newCallRouter(nil)
	w := postCall(r, `{"channel":"room","phone":"+15550001","token":"tok"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "not configured") {
		t.Fatalf("expected configuration error, got %s", w.Body.String())
	}
}
