package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/momosms/backend/src/logger"
	"github.com/username/momosms/backend/src/models"
	"github.com/username/momosms/backend/src/utils"
)

// TransactionHandler serves the CRUD surface over persisted transactions.
// The store handle is injected, never pulled from package state.
type TransactionHandler struct {
	db *sql.DB
}

func NewTransactionHandler(db *sql.DB) *TransactionHandler {
	return &TransactionHandler{db: db}
}

type listResponse struct {
	Success bool                 `json:"success"`
	Count   int                  `json:"count"`
	Data    []models.Transaction `json:"data"`
}

type itemResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Data    *models.Transaction `json:"data"`
}

// HandleListTransactions handles GET /transactions with optional status and
// category filters.
func (h *TransactionHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	query := `SELECT t.id, t.external_ref, t.amount, t.currency, t.transaction_status,
		COALESCE(t.sender_notes, ''), t.raw_data, t.transaction_date, COALESCE(t.counter_party, ''), t.created_at,
		t.category_id, t.user_id,
		c.category_name, c.category_code,
		u.full_name, u.phone_number
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		JOIN users u ON u.id = t.user_id`

	var conditions []string
	var args []interface{}
	if status := r.URL.Query().Get("status"); status != "" {
		conditions = append(conditions, "t.transaction_status = ?")
		args = append(args, status)
	}
	if categoryCode := r.URL.Query().Get("category"); categoryCode != "" {
		conditions = append(conditions, "c.category_code = ?")
		args = append(args, categoryCode)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY t.transaction_date DESC, t.id DESC"

	rows, err := h.db.Query(query, args...)
	if err != nil {
		utils.SendJSONError(w, "Internal Server Error", fmt.Sprintf("Error querying transactions: %v", err), http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		tx, scanErr := scanTransaction(rows)
		if scanErr != nil {
			utils.SendJSONError(w, "Internal Server Error", fmt.Sprintf("Error scanning transaction: %v", scanErr), http.StatusInternalServerError)
			return
		}
		transactions = append(transactions, *tx)
	}
	if err = rows.Err(); err != nil {
		utils.SendJSONError(w, "Internal Server Error", fmt.Sprintf("Error iterating over transactions: %v", err), http.StatusInternalServerError)
		return
	}

	for i := range transactions {
		if err := h.attachFees(&transactions[i]); err != nil {
			utils.SendJSONError(w, "Internal Server Error", fmt.Sprintf("Error loading fees: %v", err), http.StatusInternalServerError)
			return
		}
	}

	utils.SendJSON(w, listResponse{Success: true, Count: len(transactions), Data: transactions}, http.StatusOK)
}

// HandleGetTransaction handles GET /transactions/{id}.
func (h *TransactionHandler) HandleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	tx, err := h.fetchTransaction(id)
	if err == sql.ErrNoRows {
		utils.SendJSONError(w, "Not Found", fmt.Sprintf("Transaction %d not found", id), http.StatusNotFound)
		return
	}
	if err != nil {
		utils.SendJSONError(w, "Internal Server Error", fmt.Sprintf("Error querying transaction %d: %v", id, err), http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, itemResponse{Success: true, Data: tx}, http.StatusOK)
}

type createTransactionRequest struct {
	ExternalRef       string           `json:"external_ref"`
	Amount            *decimal.Decimal `json:"amount"`
	Currency          string           `json:"currency"`
	TransactionStatus string           `json:"transaction_status"`
	SenderNotes       string           `json:"sender_notes"`
	RawData           string           `json:"raw_data"`
	TransactionDate   string           `json:"transaction_date"`
	CounterParty      string           `json:"counter_party"`
	CategoryCode      string           `json:"category_code"`
	FeeAmount         *decimal.Decimal `json:"fee_amount"`
}

// HandleCreateTransaction handles POST /transactions.
func (h *TransactionHandler) HandleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Bad Request", "Invalid JSON in request body", http.StatusBadRequest)
		return
	}

	var missing []string
	if req.ExternalRef == "" {
		missing = append(missing, "external_ref")
	}
	if req.Amount == nil {
		missing = append(missing, "amount")
	}
	if req.RawData == "" {
		missing = append(missing, "raw_data")
	}
	if req.TransactionDate == "" {
		missing = append(missing, "transaction_date")
	}
	if len(missing) > 0 {
		utils.SendJSONError(w, "Bad Request", "Missing required fields: "+strings.Join(missing, ", "), http.StatusBadRequest)
		return
	}

	transactionDate, err := parseTransactionDate(req.TransactionDate)
	if err != nil {
		utils.SendJSONError(w, "Bad Request", fmt.Sprintf("Invalid transaction_date: %v", err), http.StatusBadRequest)
		return
	}

	if req.Currency == "" {
		req.Currency = "RWF"
	}
	if req.TransactionStatus == "" {
		req.TransactionStatus = models.StatusCompleted
	}
	if req.CategoryCode == "" {
		req.CategoryCode = models.CategoryTransfer
	}

	categoryID, err := h.resolveCategoryID(req.CategoryCode)
	if err != nil {
		utils.SendJSONError(w, "Internal Server Error", fmt.Sprintf("Error resolving category: %v", err), http.StatusInternalServerError)
		return
	}

	var userID int64
	if err := h.db.QueryRow(`SELECT id FROM users ORDER BY id LIMIT 1`).Scan(&userID); err != nil {
		utils.SendJSONError(w, "Internal Server Error", fmt.Sprintf("Error resolving default user: %v", err), http.StatusInternalServerError)
		return
	}

	dbTx, err := h.db.Begin()
	if err != nil {
		utils.SendJSONError(w, "Internal Server Error", fmt.Sprintf("Error beginning transaction: %v", err), http.StatusInternalServerError)
		return
	}
	defer dbTx.Rollback()

	res, err := dbTx.Exec(`INSERT INTO transactions
		(external_ref, amount, currency, transaction_status, sender_notes, raw_data, transaction_date, counter_party, created_at, category_id, user_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ExternalRef, req.Amount, req.Currency, req.TransactionStatus,
		req.SenderNotes, req.RawData, transactionDate, req.CounterParty, time.Now(),
		categoryID, userID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique constraint failed") {
			utils.SendJSONError(w, "Conflict", fmt.Sprintf("Transaction with external_ref %s already exists", req.ExternalRef), http.StatusConflict)
			return
		}
		utils.SendJSONError(w, "Internal Server Error", fmt.Sprintf("Error creating transaction: %v", err), http.StatusInternalServerError)
		return
	}

	id, err := res.LastInsertId()
	if err != nil {
		utils.SendJSONError(w, "Internal Server Error", fmt.Sprintf("Error reading created id: %v", err), http.StatusInternalServerError)
		return
	}

	if req.FeeAmount != nil {
		var feeTypeID int64
		if err := dbTx.QueryRow(`SELECT id FROM fee_types WHERE fee_name = 'Transaction Fee'`).Scan(&feeTypeID); err == nil {
			if _, err := dbTx.Exec(`INSERT INTO fees (amount, created_at, transaction_id, fee_type_id) VALUES (?, ?, ?, ?)`,
				req.FeeAmount, time.Now(), id, feeTypeID); err != nil {
				utils.SendJSONError(w, "Internal Server Error", fmt.Sprintf("Error creating fee: %v", err), http.StatusInternalServerError)
				return
			}
		}
	}

	if err := dbTx.Commit(); err != nil {
		utils.SendJSONError(w, "Internal Server Error", fmt.Sprintf("Error committing transaction: %v", err), http.StatusInternalServerError)
		return
	}

	created, err := h.fetchTransaction(id)
	if err != nil {
		utils.SendJSONError(w, "Internal Server Error", fmt.Sprintf("Error reading created transaction: %v", err), http.StatusInternalServerError)
		return
	}

	logger.L.Info("Transaction created", "id", id, "externalRef", req.ExternalRef)
	utils.SendJSON(w, itemResponse{Success: true, Message: "Transaction created successfully", Data: created}, http.StatusCreated)
}

type updateTransactionRequest struct {
	Amount            *decimal.Decimal `json:"amount"`
	TransactionStatus *string          `json:"transaction_status"`
	SenderNotes       *string          `json:"sender_notes"`
	CounterParty      *string          `json:"counter_party"`
	Currency          *string          `json:"currency"`
}

// HandleUpdateTransaction handles PUT /transactions/{id}. Only the restricted
// field set may change; unspecified fields are left untouched.
func (h *TransactionHandler) HandleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var exists int64
	err := h.db.QueryRow(`SELECT id FROM transactions WHERE id = ?`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		utils.SendJSONError(w, "Not Found", fmt.Sprintf("Transaction %d not found", id), http.StatusNotFound)
		return
	}
	if err != nil {
		utils.SendJSONError(w, "Internal Server Error", fmt.Sprintf("Error querying transaction %d: %v", id, err), http.StatusInternalServerError)
		return
	}

	var req updateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Bad Request", "Invalid JSON in request body", http.StatusBadRequest)
		return
	}

	var sets []string
	var args []interface{}
	if req.Amount != nil {
		sets = append(sets, "amount = ?")
		args = append(args, req.Amount)
	}
	if req.TransactionStatus != nil {
		sets = append(sets, "transaction_status = ?")
		args = append(args, *req.TransactionStatus)
	}
	if req.SenderNotes != nil {
		sets = append(sets, "sender_notes = ?")
		args = append(args, *req.SenderNotes)
	}
	if req.CounterParty != nil {
		sets = append(sets, "counter_party = ?")
		args = append(args, *req.CounterParty)
	}
	if req.Currency != nil {
		sets = append(sets, "currency = ?")
		args = append(args, *req.Currency)
	}

	if len(sets) > 0 {
		args = append(args, id)
		if _, err := h.db.Exec(`UPDATE transactions SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...); err != nil {
			utils.SendJSONError(w, "Internal Server Error", fmt.Sprintf("Error updating transaction %d: %v", id, err), http.StatusInternalServerError)
			return
		}
	}

	updated, err := h.fetchTransaction(id)
	if err != nil {
		utils.SendJSONError(w, "Internal Server Error", fmt.Sprintf("Error reading updated transaction: %v", err), http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, itemResponse{Success: true, Message: "Transaction updated successfully", Data: updated}, http.StatusOK)
}

// HandleDeleteTransaction handles DELETE /transactions/{id}. The fee rows go
// with the transaction.
func (h *TransactionHandler) HandleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	dbTx, err := h.db.Begin()
	if err != nil {
		utils.SendJSONError(w, "Internal Server Error", fmt.Sprintf("Error beginning transaction: %v", err), http.StatusInternalServerError)
		return
	}
	defer dbTx.Rollback()

	if _, err := dbTx.Exec(`DELETE FROM fees WHERE transaction_id = ?`, id); err != nil {
		utils.SendJSONError(w, "Internal Server Error", fmt.Sprintf("Error deleting fees for transaction %d: %v", id, err), http.StatusInternalServerError)
		return
	}

	res, err := dbTx.Exec(`DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		utils.SendJSONError(w, "Internal Server Error", fmt.Sprintf("Error deleting transaction %d: %v", id, err), http.StatusInternalServerError)
		return
	}
	affected, err := res.RowsAffected()
	if err != nil {
		utils.SendJSONError(w, "Internal Server Error", fmt.Sprintf("Error checking delete result: %v", err), http.StatusInternalServerError)
		return
	}
	if affected == 0 {
		utils.SendJSONError(w, "Not Found", fmt.Sprintf("Transaction %d not found", id), http.StatusNotFound)
		return
	}

	if err := dbTx.Commit(); err != nil {
		utils.SendJSONError(w, "Internal Server Error", fmt.Sprintf("Error committing delete: %v", err), http.StatusInternalServerError)
		return
	}

	logger.L.Info("Transaction deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *TransactionHandler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		utils.SendJSONError(w, "Bad Request", "Invalid transaction id in URL", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (h *TransactionHandler) resolveCategoryID(code string) (int64, error) {
	var id int64
	err := h.db.QueryRow(`SELECT id FROM categories WHERE category_code = ?`, code).Scan(&id)
	if err == sql.ErrNoRows {
		// Unknown codes fall back to TRANSFER.
		err = h.db.QueryRow(`SELECT id FROM categories WHERE category_code = ?`, models.CategoryTransfer).Scan(&id)
	}
	return id, err
}

func (h *TransactionHandler) fetchTransaction(id int64) (*models.Transaction, error) {
	row := h.db.QueryRow(`SELECT t.id, t.external_ref, t.amount, t.currency, t.transaction_status,
		COALESCE(t.sender_notes, ''), t.raw_data, t.transaction_date, COALESCE(t.counter_party, ''), t.created_at,
		t.category_id, t.user_id,
		c.category_name, c.category_code,
		u.full_name, u.phone_number
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		JOIN users u ON u.id = t.user_id
		WHERE t.id = ?`, id)

	tx, err := scanTransaction(row)
	if err != nil {
		return nil, err
	}
	if err := h.attachFees(tx); err != nil {
		return nil, err
	}
	return tx, nil
}

func (h *TransactionHandler) attachFees(tx *models.Transaction) error {
	rows, err := h.db.Query(`SELECT ft.fee_name, f.amount
		FROM fees f JOIN fee_types ft ON ft.id = f.fee_type_id
		WHERE f.transaction_id = ?`, tx.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	tx.Fees = []models.FeeView{}
	for rows.Next() {
		var fee models.FeeView
		if err := rows.Scan(&fee.FeeType, &fee.Amount); err != nil {
			return err
		}
		tx.Fees = append(tx.Fees, fee)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var tx models.Transaction
	var category models.Category
	var user models.UserBrief

	err := row.Scan(
		&tx.ID, &tx.ExternalRef, &tx.Amount, &tx.Currency, &tx.TransactionStatus,
		&tx.SenderNotes, &tx.RawData, &tx.TransactionDate, &tx.CounterParty, &tx.CreatedAt,
		&tx.CategoryID, &tx.UserID,
		&category.CategoryName, &category.CategoryCode,
		&user.FullName, &user.PhoneNumber)
	if err != nil {
		return nil, err
	}

	category.ID = tx.CategoryID
	user.ID = tx.UserID
	tx.Category = &category
	tx.User = &user
	return &tx, nil
}

func parseTransactionDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", s)
}
