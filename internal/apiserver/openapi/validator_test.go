package openapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lending-api/api"
	"lending-api/internal/apiserver/payload"
	"lending-api/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	called bool
	body   string
}

func newValidated(t *testing.T) (http.Handler, *captured) {
	t.Helper()
	doc, err := Load(context.Background(), api.LendingSpec)
	require.NoError(t, err)
	v, err := NewValidator(doc)
	require.NoError(t, err)

	c := &captured{}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.called = true
		data, _ := io.ReadAll(r.Body)
		c.body = string(data)
		w.WriteHeader(http.StatusTeapot)
	})
	return v.Middleware(next), c
}

func fieldErrors(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	body := testutil.DecodeJSON[map[string]any](t, w)
	f, ok := body["fields"].(map[string]any)
	require.True(t, ok, "expected field errors, got %v", body)
	return f
}

func TestLoad_EmbeddedDocument(t *testing.T) {
	doc, err := Load(context.Background(), api.LendingSpec)
	require.NoError(t, err)
	assert.NotNil(t, doc.Paths.Value("/api/v1/moneyrequests/{id}"))
	assert.NotNil(t, doc.Paths.Value("/api/v1/accounts"))
}

func TestMiddleware_PassesValidRequestWithBodyIntact(t *testing.T) {
	h, c := newValidated(t)
	raw := `{"title":"Test title","amount":"777.77","frequency":"WEEKLY","term":7}`

	w := testutil.Do(h, testutil.Request(t, http.MethodPost, "/api/v1/moneyrequests", raw))
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.True(t, c.called)
	assert.JSONEq(t, raw, c.body)
}

func TestMiddleware_ReadOnlyFieldsPassThrough(t *testing.T) {
	h, c := newValidated(t)
	w := testutil.Do(h, testutil.Request(t, http.MethodPatch, "/api/v1/accounts/1",
		map[string]any{"balance": "888.66", "user": 3, "id": nil}))
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.True(t, c.called)

	// 更新时 type 同样被忽略，不受创建时的枚举约束
	for _, method := range []string{http.MethodPatch, http.MethodPut} {
		c.called = false
		w = testutil.Do(h, testutil.Request(t, method, "/api/v1/accounts/1", map[string]any{"type": "BOGUS"}))
		assert.Equal(t, http.StatusTeapot, w.Code, method)
		assert.True(t, c.called, method)
	}
}

func TestMiddleware_UndocumentedRoutesPassThrough(t *testing.T) {
	h, c := newValidated(t)
	w := testutil.Do(h, testutil.Request(t, http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.True(t, c.called)

	c.called = false
	w = testutil.Do(h, testutil.Request(t, http.MethodDelete, "/api/v1/user/me", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.True(t, c.called)
}

func TestMiddleware_FieldErrors(t *testing.T) {
	h, c := newValidated(t)
	w := testutil.Do(h, testutil.Request(t, http.MethodPost, "/api/v1/moneyrequests", map[string]any{
		"title":     strings.Repeat("x", 256),
		"amount":    nil,
		"frequency": "WEEKLY",
		"term":      7,
	}))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, c.called)

	errs := fieldErrors(t, w)
	assert.Equal(t, []any{payload.MaxLengthMsg(255)}, errs["title"])
	assert.Equal(t, []any{payload.MsgNull}, errs["amount"])
}

func TestMiddleware_InvalidChoice(t *testing.T) {
	h, _ := newValidated(t)
	w := testutil.Do(h, testutil.Request(t, http.MethodPost, "/api/v1/accounts", map[string]any{"type": "SAVER"}))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []any{payload.InvalidChoiceMsg("SAVER")}, fieldErrors(t, w)["type"])
}

func TestMiddleware_PasswordMustBeString(t *testing.T) {
	h, _ := newValidated(t)
	w := testutil.Do(h, testutil.Request(t, http.MethodPost, "/api/v1/user/create", map[string]any{
		"email": "a@example.com", "password": 12345, "name": "A",
	}))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []any{payload.MsgInvalidString}, fieldErrors(t, w)["password"])
}

func TestMiddleware_NonObjectBody(t *testing.T) {
	h, _ := newValidated(t)
	w := testutil.Do(h, testutil.Request(t, http.MethodPost, "/api/v1/accounts", `[1, 2]`))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []any{payload.NotObjectMsg("list")}, fieldErrors(t, w)[payload.NonFieldErrors])
}

func TestMiddleware_MalformedBody(t *testing.T) {
	h, c := newValidated(t)
	w := testutil.Do(h, testutil.Request(t, http.MethodPost, "/api/v1/accounts", `{"type":`))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, c.called)
	body := testutil.DecodeJSON[map[string]any](t, w)
	assert.Equal(t, payload.ErrMalformed.Error(), body["error"])
}

func TestMiddleware_MissingContentTypeTreatedAsJSON(t *testing.T) {
	h, c := newValidated(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts", strings.NewReader(`{"type":"LENDER"}`))
	w := testutil.Do(h, req)
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.True(t, c.called)
}

func TestDocumentHandler(t *testing.T) {
	w := testutil.Do(DocumentHandler(api.LendingSpec), testutil.Request(t, http.MethodGet, "/api/v1/openapi.yaml", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/yaml", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "openapi: 3.0.3")
}
