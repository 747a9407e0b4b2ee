package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/momosms/backend/src/database"
	"github.com/username/momosms/backend/src/logger"
	"github.com/username/momosms/backend/src/models"
)

const (
	testUsername = "admin"
	testPassword = "password123"
)

func newTestServer(t *testing.T) (http.Handler, *sql.DB) {
	t.Helper()
	logger.InitLogger("error")

	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.SeedReferenceData(db, testUsername, testPassword))

	authMiddleware := NewAuthMiddleware(db, cache.New(time.Minute, 2*time.Minute))
	txHandler := NewTransactionHandler(db)

	mux := http.NewServeMux()
	withAuth := func(handler http.HandlerFunc) http.Handler {
		return authMiddleware.Middleware(handler)
	}
	mux.Handle("GET /transactions", withAuth(txHandler.HandleListTransactions))
	mux.Handle("GET /transactions/{id}", withAuth(txHandler.HandleGetTransaction))
	mux.Handle("POST /transactions", withAuth(txHandler.HandleCreateTransaction))
	mux.Handle("PUT /transactions/{id}", withAuth(txHandler.HandleUpdateTransaction))
	mux.Handle("DELETE /transactions/{id}", withAuth(txHandler.HandleDeleteTransaction))
	return mux, db
}

func doRequest(t *testing.T, handler http.Handler, method, path string, body interface{}, authenticated bool) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authenticated {
		req.SetBasicAuth(testUsername, testPassword)
	}

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func createBody(ref string) map[string]interface{} {
	return map[string]interface{}{
		"external_ref":       ref,
		"amount":             5000.0,
		"currency":           "RWF",
		"transaction_status": "COMPLETED",
		"raw_data":           "You have received 5000 RWF from Alice (250788123456). TxId: " + ref + ".",
		"transaction_date":   "2024-05-10T16:30:58Z",
		"counter_party":      "Alice",
		"category_code":      "TRANSFER",
		"fee_amount":         100.0,
	}
}

func TestMissingAuthorizationHeader(t *testing.T) {
	handler, _ := newTestServer(t)

	rec := doRequest(t, handler, http.MethodGet, "/transactions", nil, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")
}

func TestWrongCredentials(t *testing.T) {
	handler, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/transactions", nil)
	req.SetBasicAuth(testUsername, "wrong-password")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	handler, _ := newTestServer(t)

	rec := doRequest(t, handler, http.MethodPost, "/transactions", createBody("987654321"), true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Success bool               `json:"success"`
		Data    models.Transaction `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.True(t, created.Success)
	assert.Equal(t, "987654321", created.Data.ExternalRef)

	rec = doRequest(t, handler, http.MethodGet, fmt.Sprintf("/transactions/%d", created.Data.ID), nil, true)
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))

	var got models.Transaction
	require.NoError(t, json.Unmarshal(fetched.Data, &got))
	assert.Equal(t, "987654321", got.ExternalRef)
	assert.Equal(t, "5000", got.Amount.String())
	assert.Equal(t, "RWF", got.Currency)
	assert.Equal(t, models.StatusCompleted, got.TransactionStatus)
	assert.Equal(t, "Alice", got.CounterParty)

	require.NotNil(t, got.Category)
	assert.Equal(t, models.CategoryTransfer, got.Category.CategoryCode)

	require.Len(t, got.Fees, 1)
	assert.Equal(t, "Transaction Fee", got.Fees[0].FeeType)
	assert.Equal(t, "100", got.Fees[0].Amount.String())
}

func TestGetUnknownTransaction(t *testing.T) {
	handler, _ := newTestServer(t)

	rec := doRequest(t, handler, http.MethodGet, "/transactions/9999", nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Not Found", body["error"])
	assert.Contains(t, body["message"], "9999")
}

func TestCreateMissingRequiredFields(t *testing.T) {
	handler, _ := newTestServer(t)

	rec := doRequest(t, handler, http.MethodPost, "/transactions", map[string]interface{}{
		"external_ref": "555",
	}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["message"], "amount")
	assert.Contains(t, body["message"], "raw_data")
	assert.Contains(t, body["message"], "transaction_date")
}

func TestCreateInvalidJSON(t *testing.T) {
	handler, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewReader([]byte("{not json")))
	req.SetBasicAuth(testUsername, testPassword)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateDuplicateExternalRef(t *testing.T) {
	handler, _ := newTestServer(t)

	rec := doRequest(t, handler, http.MethodPost, "/transactions", createBody("777"), true)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, handler, http.MethodPost, "/transactions", createBody("777"), true)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateUnknownCategoryFallsBackToTransfer(t *testing.T) {
	handler, _ := newTestServer(t)

	body := createBody("888")
	body["category_code"] = "MYSTERY"
	rec := doRequest(t, handler, http.MethodPost, "/transactions", body, true)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"category_code":"TRANSFER"`)
}

func TestUpdatePartialFields(t *testing.T) {
	handler, _ := newTestServer(t)

	rec := doRequest(t, handler, http.MethodPost, "/transactions", createBody("321"), true)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Data struct {
			ID int64 `json:"transaction_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doRequest(t, handler, http.MethodPut, fmt.Sprintf("/transactions/%d", created.Data.ID), map[string]interface{}{
		"transaction_status": "FAILED",
		"sender_notes":       "disputed",
	}, true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, fmt.Sprintf("/transactions/%d", created.Data.ID), nil, true)
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Equal(t, "FAILED", fetched.Data["transaction_status"])
	assert.Equal(t, "disputed", fetched.Data["sender_notes"])
	// Unspecified fields are untouched.
	assert.Equal(t, "5000", fetched.Data["amount"])
	assert.Equal(t, "Alice", fetched.Data["counter_party"])
}

func TestUpdateUnknownTransaction(t *testing.T) {
	handler, _ := newTestServer(t)

	rec := doRequest(t, handler, http.MethodPut, "/transactions/9999", map[string]interface{}{
		"transaction_status": "FAILED",
	}, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteThenGet(t *testing.T) {
	handler, db := newTestServer(t)

	rec := doRequest(t, handler, http.MethodPost, "/transactions", createBody("654"), true)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Data struct {
			ID int64 `json:"transaction_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doRequest(t, handler, http.MethodDelete, fmt.Sprintf("/transactions/%d", created.Data.ID), nil, true)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, fmt.Sprintf("/transactions/%d", created.Data.ID), nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Fee rows go with the transaction.
	var feeCount int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM fees WHERE transaction_id = ?`, created.Data.ID).Scan(&feeCount))
	assert.Equal(t, 0, feeCount)
}

func TestDeleteUnknownTransaction(t *testing.T) {
	handler, _ := newTestServer(t)

	rec := doRequest(t, handler, http.MethodDelete, "/transactions/9999", nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListWithFilters(t *testing.T) {
	handler, _ := newTestServer(t)

	completed := createBody("111")
	rec := doRequest(t, handler, http.MethodPost, "/transactions", completed, true)
	require.Equal(t, http.StatusCreated, rec.Code)

	failedPayment := createBody("222")
	failedPayment["transaction_status"] = "FAILED"
	failedPayment["category_code"] = "PAYMENT"
	rec = doRequest(t, handler, http.MethodPost, "/transactions", failedPayment, true)
	require.Equal(t, http.StatusCreated, rec.Code)

	var list struct {
		Success bool                     `json:"success"`
		Count   int                      `json:"count"`
		Data    []map[string]interface{} `json:"data"`
	}

	rec = doRequest(t, handler, http.MethodGet, "/transactions", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.True(t, list.Success)
	assert.Equal(t, 2, list.Count)
	assert.Len(t, list.Data, 2)

	rec = doRequest(t, handler, http.MethodGet, "/transactions?status=FAILED", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, "222", list.Data[0]["external_ref"])

	rec = doRequest(t, handler, http.MethodGet, "/transactions?category=PAYMENT", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)

	rec = doRequest(t, handler, http.MethodGet, "/transactions?status=FAILED&category=TRANSFER", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 0, list.Count)
}

func TestInvalidIDInPath(t *testing.T) {
	handler, _ := newTestServer(t)

	rec := doRequest(t, handler, http.MethodGet, "/transactions/abc", nil, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
