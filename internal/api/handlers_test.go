package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"moodchat/internal/client"
	"moodchat/internal/models"
	"moodchat/internal/service/bot"
	"moodchat/internal/widget"
	"moodchat/internal/worker"
)

func TestGetRepliesWithRules(t *testing.T) {
	router, cleanup := newTestServer(t)
	defer cleanup()

	first := doJSONRequest(t, router, http.MethodPost, "/get", map[string]string{"message": "alice"}, nil)
	assertStatus(t, first, http.StatusOK)
	var body models.ReplyResponse
	decodeJSON(t, first.Body.Bytes(), &body)
	if !strings.Contains(body.Response, "Nice to meet you, Alice!") {
		t.Fatalf("unexpected intro reply: %q", body.Response)
	}

	second := doJSONRequest(t, router, http.MethodPost, "/get", map[string]string{"message": "I am so happy"}, nil)
	assertStatus(t, second, http.StatusOK)
	decodeJSON(t, second.Body.Bytes(), &body)
	if !strings.Contains(body.Response, "That's amazing to hear, Alice!") {
		t.Fatalf("unexpected mood reply: %q", body.Response)
	}
}

func TestGetRejectsMissingMessage(t *testing.T) {
	router, cleanup := newTestServer(t)
	defer cleanup()

	for _, body := range []any{map[string]string{"text": "hi"}, nil} {
		rec := doJSONRequest(t, router, http.MethodPost, "/get", body, nil)
		assertStatus(t, rec, http.StatusBadRequest)
	}

	req := httptest.NewRequest(http.MethodPost, "/get", strings.NewReader("not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assertStatus(t, rec, http.StatusBadRequest)
}

func TestGetMapsReplierErrors(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{worker.ErrBusy, http.StatusTooManyRequests},
		{worker.ErrClosed, http.StatusServiceUnavailable},
		{errors.New("model down"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		gin.SetMode(gin.TestMode)
		router := gin.New()
		NewHandler(stubReplier{err: tc.err}).RegisterRoutes(router)

		rec := doJSONRequest(t, router, http.MethodPost, "/get", map[string]string{"message": "x"}, nil)
		assertStatus(t, rec, tc.want)
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	router, cleanup := newTestServer(t)
	defer cleanup()

	const id = "0d3c1c52-3b8f-4d55-9a8e-8d8f0b4b7c11"
	rec := doJSONRequest(t, router, http.MethodGet, "/healthz", nil, map[string]string{RequestIDHeader: id})
	assertStatus(t, rec, http.StatusOK)
	if got := rec.Header().Get(RequestIDHeader); got != id {
		t.Fatalf("request id not echoed, got %q", got)
	}

	rec = doJSONRequest(t, router, http.MethodGet, "/healthz", nil, map[string]string{RequestIDHeader: "garbage"})
	if got := rec.Header().Get(RequestIDHeader); got == "" || got == "garbage" {
		t.Fatalf("expected a fresh request id, got %q", got)
	}
}

func TestServesWidgetPage(t *testing.T) {
	router, cleanup := newTestServer(t)
	defer cleanup()

	page := doJSONRequest(t, router, http.MethodGet, "/", nil, nil)
	assertStatus(t, page, http.StatusOK)
	for _, id := range []string{`id="user-input"`, `id="chat-box"`, `/static/script.js`} {
		if !strings.Contains(page.Body.String(), id) {
			t.Fatalf("page missing %s", id)
		}
	}

	script := doJSONRequest(t, router, http.MethodGet, "/static/script.js", nil, nil)
	assertStatus(t, script, http.StatusOK)
	if !strings.Contains(script.Body.String(), `fetch("/get"`) {
		t.Fatalf("script does not post to /get")
	}
}

func TestWidgetAgainstServer(t *testing.T) {
	router, cleanup := newTestServer(t)
	defer cleanup()
	srv := httptest.NewServer(router)
	defer srv.Close()

	view := widget.NewLog()
	ctrl := widget.New(view, client.New(srv.URL), widget.WithOrderedReplies())

	// the first message teaches the bot a name, so let it land alone
	view.SetInput("Hi")
	ctrl.Submit()
	ctrl.Wait()
	for _, text := range []string{"what time is it", "   ", "bye"} {
		view.SetInput(text)
		ctrl.Submit()
	}
	ctrl.Wait()

	msgs := view.Messages()
	if len(msgs) != 6 {
		t.Fatalf("expected 6 messages, got %d: %#v", len(msgs), msgs)
	}
	want := []models.ChatMessage{
		models.UserMessage("Hi"),
		models.BotMessage("Nice to meet you, Hi! 😊 How are you feeling today? (happy/sad/stressed etc.)"),
		models.UserMessage("what time is it"),
		models.UserMessage("bye"),
	}
	for i, w := range want {
		if msgs[i] != w {
			t.Fatalf("message %d: want %#v got %#v", i, w, msgs[i])
		}
	}
	if !strings.HasPrefix(msgs[4].Text, "It's currently ") || msgs[4].Origin != models.OriginBot {
		t.Fatalf("unexpected time reply %#v", msgs[4])
	}
	if msgs[5] != models.BotMessage("Goodbye Hi! Take care and come back anytime 💙") {
		t.Fatalf("unexpected goodbye %#v", msgs[5])
	}
	if !view.ScrolledToBottom() {
		t.Fatalf("log should be scrolled to the newest message")
	}
}

type stubReplier struct {
	reply string
	err   error
}

func (s stubReplier) Do(context.Context, string) (string, error) {
	return s.reply, s.err
}

func newTestServer(t *testing.T) (*gin.Engine, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rules := bot.NewRules(bot.NewMemoryStore())
	dispatcher := worker.NewDispatcher(worker.Config{
		MinWorkers:  1,
		MaxWorkers:  4,
		QueueSize:   16,
		IdleTimeout: time.Minute,
	}, rules.Reply)

	router := gin.New()
	NewHandler(dispatcher).RegisterRoutes(router)
	return router, dispatcher.Close
}

func doJSONRequest(t *testing.T, router *gin.Engine, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, data []byte, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode json: %v", err)
	}
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("unexpected status %d, body: %s", rec.Code, rec.Body.String())
	}
}
