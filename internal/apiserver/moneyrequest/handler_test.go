package moneyrequest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"lending-api/internal/apiserver/auth"
	"lending-api/internal/apiserver/payload"
	"lending-api/internal/shared/model"
	"lending-api/internal/shared/storage/repository"
	"lending-api/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	testutil.FastPasswordHashing()
}

type fixture struct {
	store *repository.Store
	mux   *http.ServeMux
	user  *model.User
	other *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := testutil.NewStore(t)
	mux := http.NewServeMux()
	NewHandler(store, store).RegisterRoutes(mux)
	return &fixture{
		store: store,
		mux:   mux,
		user:  testutil.CreateUser(t, store, "borrower@example.com", "testpass"),
		other: testutil.CreateUser(t, store, "other@example.com", "testpass"),
	}
}

func (f *fixture) do(t *testing.T, as *model.User, method, path string, body any) (int, []byte) {
	t.Helper()
	req := testutil.Request(t, method, path, body)
	req = req.WithContext(auth.WithAuthUser(req.Context(), &auth.AuthUser{ID: as.ID, Email: as.Email}))
	w := testutil.Do(f.mux, req)
	return w.Code, w.Body.Bytes()
}

func (f *fixture) doJSON(t *testing.T, as *model.User, method, path string, body any) (int, map[string]any) {
	t.Helper()
	code, raw := f.do(t, as, method, path, body)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out), "body: %s", raw)
	return code, out
}

func (f *fixture) count(t *testing.T, borrower *model.User) int {
	t.Helper()
	items, err := f.store.ListMoneyRequestsByBorrower(context.Background(), borrower.ID)
	require.NoError(t, err)
	return len(items)
}

func (f *fixture) createRequest(t *testing.T, borrower *model.User, title string) *model.MoneyRequest {
	t.Helper()
	mr := model.NewMoneyRequest(borrower.ID)
	mr.Title = title
	mr.Amount = model.MustMoney("100.00")
	mr.Frequency = "MONTHLY"
	mr.Term = 12
	require.NoError(t, f.store.CreateMoneyRequest(context.Background(), mr))
	return mr
}

func detailURL(id int64) string {
	return fmt.Sprintf("/api/v1/moneyrequests/%d", id)
}

func fields(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	f, ok := body["fields"].(map[string]any)
	require.True(t, ok, "expected field errors, got %v", body)
	return f
}

// ============================================================================
// 完整生命周期
// ============================================================================

func TestLifecycle(t *testing.T) {
	f := newFixture(t)

	code, body := f.doJSON(t, f.user, http.MethodPost, "/api/v1/moneyrequests", map[string]any{
		"title":     "Test title",
		"amount":    "777.77",
		"frequency": "WEEKLY",
		"term":      7,
	})
	require.Equal(t, http.StatusCreated, code)
	id := int64(body["id"].(float64))
	assert.Equal(t, map[string]any{
		"id":          float64(id),
		"title":       "Test title",
		"amount":      "777.77",
		"frequency":   "WEEKLY",
		"term":        float64(7),
		"borrower":    float64(f.user.ID),
		"lender":      nil,
		"description": nil,
	}, body)

	code, got := f.doJSON(t, f.user, http.MethodGet, detailURL(id), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, body, got)

	before := f.count(t, f.user)
	code, raw := f.do(t, f.user, http.MethodDelete, detailURL(id), nil)
	assert.Equal(t, http.StatusNoContent, code)
	assert.Empty(t, raw)
	assert.Equal(t, before-1, f.count(t, f.user))

	code, _ = f.do(t, f.user, http.MethodGet, detailURL(id), nil)
	assert.Equal(t, http.StatusNotFound, code)
}

// ============================================================================
// 列表
// ============================================================================

func TestList_SummaryOfOwnRequests(t *testing.T) {
	f := newFixture(t)
	older := f.createRequest(t, f.user, "older")
	newer := f.createRequest(t, f.user, "newer")
	f.createRequest(t, f.other, "not mine")

	code, raw := f.do(t, f.user, http.MethodGet, "/api/v1/moneyrequests", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, fmt.Sprintf(`[
		{"id": %d, "title": "newer", "amount": "100.00", "frequency": "MONTHLY", "term": 12},
		{"id": %d, "title": "older", "amount": "100.00", "frequency": "MONTHLY", "term": 12}
	]`, newer.ID, older.ID), string(raw))
}

func TestList_Empty(t *testing.T) {
	f := newFixture(t)
	code, raw := f.do(t, f.user, http.MethodGet, "/api/v1/moneyrequests", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestProjection_FieldOrder(t *testing.T) {
	mr := &model.MoneyRequest{ID: 3, BorrowerID: 1, Title: "t", Amount: model.MustMoney("5"), Frequency: "DAILY", Term: 2}

	data, err := json.Marshal(summary(mr))
	require.NoError(t, err)
	assert.Equal(t, `{"id":3,"title":"t","amount":"5.00","frequency":"DAILY","term":2}`, string(data))

	data, err = json.Marshal(detail(mr))
	require.NoError(t, err)
	assert.Equal(t, `{"id":3,"title":"t","amount":"5.00","frequency":"DAILY","term":2,"borrower":1,"lender":null,"description":null}`, string(data))
}

// ============================================================================
// 创建
// ============================================================================

func TestCreate_BorrowerForcedToCaller(t *testing.T) {
	f := newFixture(t)
	code, body := f.doJSON(t, f.user, http.MethodPost, "/api/v1/moneyrequests", map[string]any{
		"title":     "Mine",
		"amount":    250,
		"frequency": "MONTHLY",
		"term":      "3",
		"borrower":  f.other.ID,
	})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, float64(f.user.ID), body["borrower"])
	assert.Equal(t, "250.00", body["amount"])
	assert.Equal(t, float64(3), body["term"])
	assert.Equal(t, 0, f.count(t, f.other))
}

func TestCreate_LenderIgnoredOnCreate(t *testing.T) {
	f := newFixture(t)
	code, body := f.doJSON(t, f.user, http.MethodPost, "/api/v1/moneyrequests", map[string]any{
		"title": "x", "amount": "1.00", "frequency": "DAILY", "term": 1, "lender": f.other.ID,
	})
	require.Equal(t, http.StatusCreated, code)
	assert.Nil(t, body["lender"])
}

func TestCreate_ValidationErrors(t *testing.T) {
	f := newFixture(t)
	code, body := f.doJSON(t, f.user, http.MethodPost, "/api/v1/moneyrequests", map[string]any{
		"title":  "",
		"amount": "12.345",
		"term":   "seven",
		"color":  "red",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	errs := fields(t, body)
	assert.Equal(t, []any{payload.MsgBlank}, errs["title"])
	assert.Equal(t, []any{"Ensure that there are no more than 2 decimal places."}, errs["amount"])
	assert.Equal(t, []any{payload.MsgRequired}, errs["frequency"])
	assert.Equal(t, []any{payload.MsgInvalidInt}, errs["term"])
	assert.Equal(t, []any{payload.MsgUnknown}, errs["color"])
	assert.Equal(t, 0, f.count(t, f.user))
}

func TestCreate_MalformedBody(t *testing.T) {
	f := newFixture(t)
	code, body := f.doJSON(t, f.user, http.MethodPost, "/api/v1/moneyrequests", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, payload.ErrMalformed.Error(), body["error"])
}

// ============================================================================
// 更新
// ============================================================================

func TestUpdate_PartialKeepsOtherFields(t *testing.T) {
	f := newFixture(t)
	mr := f.createRequest(t, f.user, "before")

	code, body := f.doJSON(t, f.user, http.MethodPatch, detailURL(mr.ID), map[string]any{
		"title":       "after",
		"description": "for a bike",
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "after", body["title"])
	assert.Equal(t, "for a bike", body["description"])
	assert.Equal(t, "100.00", body["amount"])
	assert.Equal(t, float64(12), body["term"])
}

func TestUpdate_BorrowerIgnored(t *testing.T) {
	f := newFixture(t)
	mr := f.createRequest(t, f.user, "mine")

	code, body := f.doJSON(t, f.user, http.MethodPatch, detailURL(mr.ID), map[string]any{"borrower": f.other.ID})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(f.user.ID), body["borrower"])

	got, err := f.store.GetMoneyRequestForBorrower(context.Background(), mr.ID, f.user.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, f.user.ID, got.BorrowerID)
}

func TestUpdate_LenderIsPermissive(t *testing.T) {
	f := newFixture(t)
	mr := f.createRequest(t, f.user, "needs a lender")

	code, body := f.doJSON(t, f.user, http.MethodPatch, detailURL(mr.ID), map[string]any{"lender": f.other.ID})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(f.other.ID), body["lender"])

	code, body = f.doJSON(t, f.user, http.MethodPatch, detailURL(mr.ID), map[string]any{"lender": 999999})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, []any{payload.InvalidPKMsg(999999)}, fields(t, body)["lender"])

	code, body = f.doJSON(t, f.user, http.MethodPatch, detailURL(mr.ID), map[string]any{"lender": nil})
	require.Equal(t, http.StatusOK, code)
	assert.Nil(t, body["lender"])

	got, err := f.store.GetMoneyRequestForBorrower(context.Background(), mr.ID, f.user.ID)
	require.NoError(t, err)
	assert.Nil(t, got.LenderID)
}

func TestUpdate_PutRequiresAllRequiredFields(t *testing.T) {
	f := newFixture(t)
	mr := f.createRequest(t, f.user, "put")

	code, body := f.doJSON(t, f.user, http.MethodPut, detailURL(mr.ID), map[string]any{"title": "only title"})
	assert.Equal(t, http.StatusBadRequest, code)
	errs := fields(t, body)
	assert.Contains(t, errs, "amount")
	assert.Contains(t, errs, "frequency")
	assert.Contains(t, errs, "term")

	code, body = f.doJSON(t, f.user, http.MethodPut, detailURL(mr.ID), map[string]any{
		"title": "replaced", "amount": "9.99", "frequency": "WEEKLY", "term": 4,
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "replaced", body["title"])
	assert.Equal(t, "9.99", body["amount"])
}

// ============================================================================
// 所有权
// ============================================================================

func TestOtherUsersRequestNotFound(t *testing.T) {
	f := newFixture(t)
	mr := f.createRequest(t, f.other, "theirs")

	code, _ := f.do(t, f.user, http.MethodGet, detailURL(mr.ID), nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = f.do(t, f.user, http.MethodPatch, detailURL(mr.ID), map[string]any{"title": "hijack"})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = f.do(t, f.user, http.MethodDelete, detailURL(mr.ID), nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, 1, f.count(t, f.other))

	code, _ = f.do(t, f.user, http.MethodGet, "/api/v1/moneyrequests/abc", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHandlers_RequireAuthUser(t *testing.T) {
	f := newFixture(t)
	w := testutil.Do(f.mux, testutil.Request(t, http.MethodGet, "/api/v1/moneyrequests", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

type brokenUsers struct{}

func (brokenUsers) GetUserByID(context.Context, int64) (*model.User, error) {
	return nil, errors.New("connection reset")
}

func TestUpdate_LenderLookupFailureIsServerError(t *testing.T) {
	f := newFixture(t)
	mr := f.createRequest(t, f.user, "lookup fails")

	mux := http.NewServeMux()
	NewHandler(f.store, brokenUsers{}).RegisterRoutes(mux)
	f.mux = mux

	code, body := f.doJSON(t, f.user, http.MethodPatch, detailURL(mr.ID), map[string]any{"lender": f.other.ID})
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.NotContains(t, body, "fields")

	got, err := f.store.GetMoneyRequestForBorrower(context.Background(), mr.ID, f.user.ID)
	require.NoError(t, err)
	assert.Nil(t, got.LenderID)
}
