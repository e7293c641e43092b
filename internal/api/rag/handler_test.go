package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/snobbots/chatbot-backend/internal/entity"
)

type fakeIngest struct {
	lastReq *entity.IngestRequest
	result  *entity.IngestResult
	err     error
	flushed []string
}

func (f *fakeIngest) Ingest(_ context.Context, req *entity.IngestRequest) (*entity.IngestResult, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeIngest) IngestFromURL(_ context.Context, tenantID, title, crawlURL string) (*entity.IngestResult, error) {
	f.lastReq = &entity.IngestRequest{TenantID: tenantID, ChatbotTitle: title}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeIngest) Flush(_ context.Context, tenantID, title string) error {
	f.flushed = append(f.flushed, tenantID+"/"+title)
	return f.err
}

type fakeAsk struct {
	lastReq *entity.AskRequest
	answer  string
	err     error
}

func (f *fakeAsk) Ask(_ context.Context, req *entity.AskRequest) (*entity.AskResult, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &entity.AskResult{Answer: f.answer, Usage: entity.Usage{TotalTokens: 15}}, nil
}

func (f *fakeAsk) AskStream(_ context.Context, req *entity.AskRequest, onDelta func(string) error) (*entity.AskResult, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	for _, part := range strings.SplitAfter(f.answer, " ") {
		if err := onDelta(part); err != nil {
			return nil, err
		}
	}
	return &entity.AskResult{Answer: f.answer, Usage: entity.Usage{TotalTokens: 15}}, nil
}

type fakeResolver struct {
	keys     map[string]*entity.APIKey
	resolves int
}

func (f *fakeResolver) ResolveAPIKey(_ context.Context, key string) (*entity.APIKey, error) {
	f.resolves++
	if k, ok := f.keys[key]; ok {
		return k, nil
	}
	return nil, entity.ErrAPIKeyNotFound
}

func newTestRouter(ingest *fakeIngest, ask *fakeAsk, resolver *fakeResolver) http.Handler {
	if resolver == nil {
		resolver = &fakeResolver{}
	}
	h := NewHandler(ingest, ask, resolver, 1<<20)
	r := chi.NewRouter()
	RegisterRoutes(r, h)
	return r
}

func multipartBody(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestIngestDocsRawText(t *testing.T) {
	ingest := &fakeIngest{result: &entity.IngestResult{ChunksIndexed: 3, TokensUsed: 120, Namespace: "faq"}}
	router := newTestRouter(ingest, &fakeAsk{}, nil)

	body, contentType := multipartBody(t, map[string]string{
		"chatbot_title": "faq",
		"raw_text":      "some knowledge",
	})
	req := httptest.NewRequest(http.MethodPost, "/rag/docs", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Tenant-ID", "acme")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var result entity.IngestResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.ChunksIndexed != 3 || result.Namespace != "faq" {
		t.Errorf("result = %+v", result)
	}

	if ingest.lastReq.TenantID != "acme" || ingest.lastReq.Input.Kind != entity.InputRawText {
		t.Errorf("usecase request = %+v", ingest.lastReq)
	}
}

func TestIngestDocsRejectsAmbiguousInput(t *testing.T) {
	router := newTestRouter(&fakeIngest{}, &fakeAsk{}, nil)

	body, contentType := multipartBody(t, map[string]string{
		"chatbot_title": "faq",
		"raw_text":      "text",
		"qa_json":       `[{"question":"q","answer":"a"}]`,
	})
	req := httptest.NewRequest(http.MethodPost, "/rag/docs", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Tenant-ID", "acme")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestIngestDocsMalformedQAJSON(t *testing.T) {
	router := newTestRouter(&fakeIngest{}, &fakeAsk{}, nil)

	body, contentType := multipartBody(t, map[string]string{
		"chatbot_title": "faq",
		"qa_json":       `["just", "strings"]`,
	})
	req := httptest.NewRequest(http.MethodPost, "/rag/docs", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Tenant-ID", "acme")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestIngestDocsBotLimit(t *testing.T) {
	router := newTestRouter(&fakeIngest{err: entity.ErrBotLimitExceeded}, &fakeAsk{}, nil)

	body, contentType := multipartBody(t, map[string]string{
		"chatbot_title": "one-too-many",
		"raw_text":      "text",
	})
	req := httptest.NewRequest(http.MethodPost, "/rag/docs", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Tenant-ID", "acme")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestAsk(t *testing.T) {
	ask := &fakeAsk{answer: "the answer"}
	router := newTestRouter(&fakeIngest{}, ask, nil)

	req := httptest.NewRequest(http.MethodPost, "/rag/ask",
		strings.NewReader(`{"query":"hello?","chatbot_title":"faq"}`))
	req.Header.Set("X-Tenant-ID", "acme")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var result entity.AskResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Answer != "the answer" || result.Usage.TotalTokens != 15 {
		t.Errorf("result = %+v", result)
	}
	if ask.lastReq.TenantID != "acme" || ask.lastReq.ChatbotTitle != "faq" {
		t.Errorf("usecase request = %+v", ask.lastReq)
	}
}

const widgetKey = "sb-0123456789abcdef0123456789abcdef"

func TestAskWithAPIKey(t *testing.T) {
	ask := &fakeAsk{answer: "widget answer"}
	resolver := &fakeResolver{keys: map[string]*entity.APIKey{
		widgetKey: {Key: widgetKey, TenantID: "globex", ChatbotTitle: "widget bot"},
	}}
	router := newTestRouter(&fakeIngest{}, ask, resolver)

	// The key decides tenant and bot, whatever the body or header claim.
	req := httptest.NewRequest(http.MethodPost, "/rag/ask",
		strings.NewReader(`{"query":"hello?","chatbot_title":"something else"}`))
	req.Header.Set("X-Tenant-ID", "acme")
	req.Header.Set("X-API-Key", widgetKey)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ask.lastReq.TenantID != "globex" || ask.lastReq.ChatbotTitle != "widget bot" {
		t.Errorf("usecase request = %+v, want key-pinned tenant and bot", ask.lastReq)
	}
}

func TestAskUnknownAPIKey(t *testing.T) {
	router := newTestRouter(&fakeIngest{}, &fakeAsk{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/rag/ask",
		strings.NewReader(`{"query":"hello?","chatbot_title":"faq"}`))
	req.Header.Set("X-API-Key", "sb-ffffffffffffffffffffffffffffffff")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAskMalformedAPIKeySkipsLookup(t *testing.T) {
	resolver := &fakeResolver{}
	router := newTestRouter(&fakeIngest{}, &fakeAsk{}, resolver)

	for _, key := range []string{"sb-short", "no-prefix", "sb-zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz"} {
		req := httptest.NewRequest(http.MethodPost, "/rag/ask",
			strings.NewReader(`{"query":"hello?","chatbot_title":"faq"}`))
		req.Header.Set("X-API-Key", key)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("key %q: status = %d, want 401", key, rec.Code)
		}
	}
	if resolver.resolves != 0 {
		t.Errorf("resolver called %d times for malformed keys, want 0", resolver.resolves)
	}
}

func TestAskStreaming(t *testing.T) {
	ask := &fakeAsk{answer: "streamed answer text"}
	router := newTestRouter(&fakeIngest{}, ask, nil)

	req := httptest.NewRequest(http.MethodPost, "/rag/ask?stream=true",
		strings.NewReader(`{"query":"hello?","chatbot_title":"faq"}`))
	req.Header.Set("X-Tenant-ID", "acme")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}
	if rec.Header().Get("X-Accel-Buffering") != "no" {
		t.Errorf("X-Accel-Buffering header missing")
	}
	if rec.Body.String() != "streamed answer text" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestFlush(t *testing.T) {
	ingest := &fakeIngest{}
	router := newTestRouter(ingest, &fakeAsk{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/rag/flush",
		strings.NewReader(`{"chatbot_title":"faq"}`))
	req.Header.Set("X-Tenant-ID", "acme")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(ingest.flushed) != 1 || ingest.flushed[0] != "acme/faq" {
		t.Errorf("flushed = %v", ingest.flushed)
	}
}

func TestFlushUnknownIndex(t *testing.T) {
	router := newTestRouter(&fakeIngest{err: entity.ErrIndexNotFound}, &fakeAsk{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/rag/flush",
		strings.NewReader(`{"chatbot_title":"faq"}`))
	req.Header.Set("X-Tenant-ID", "nobody")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
