package etl

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/username/momosms/backend/src/logger"
	"github.com/username/momosms/backend/src/models"
)

const transactionFeeTypeName = "Transaction Fee"

type loaderImpl struct {
	db *sql.DB
}

// NewLoader returns a Loader writing through the given database handle.
func NewLoader(db *sql.DB) Loader {
	return &loaderImpl{db: db}
}

// Load persists a classified batch as a single database transaction.
// Records whose external reference is already present are skipped, so
// re-running a batch is a no-op. The batch outcome is recorded in
// system_logs either way.
func (l *loaderImpl) Load(transactions []models.ClassifiedTransaction, runID string) (LoadResult, error) {
	result, err := l.loadBatch(transactions)
	if err != nil {
		l.audit("DB_ERROR", "ERROR", err.Error(), runID)
		return result, err
	}

	l.audit("BATCH_COMPLETE", "INFO",
		fmt.Sprintf("Loaded %d transactions, skipped %d", result.Loaded, result.Skipped), runID)
	if logger.L != nil {
		logger.L.Info("Load complete", "loaded", result.Loaded, "skipped", result.Skipped, "runID", runID)
	}
	return result, nil
}

func (l *loaderImpl) loadBatch(transactions []models.ClassifiedTransaction) (LoadResult, error) {
	var result LoadResult

	categories, err := l.categoryIDsByCode()
	if err != nil {
		return result, err
	}
	defaultCategoryID, ok := categories[models.CategoryTransfer]
	if !ok {
		return result, fmt.Errorf("category vocabulary not seeded: %s missing", models.CategoryTransfer)
	}

	feeTypeID, err := l.feeTypeID(transactionFeeTypeName)
	if err != nil {
		return result, err
	}

	defaultUserID, err := l.defaultUserID()
	if err != nil {
		return result, err
	}

	dbTx, err := l.db.Begin()
	if err != nil {
		return result, fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	existsStmt, err := dbTx.Prepare(`SELECT id FROM transactions WHERE external_ref = ?`)
	if err != nil {
		return result, fmt.Errorf("error preparing existence check: %w", err)
	}
	defer existsStmt.Close()

	insertTxStmt, err := dbTx.Prepare(`INSERT INTO transactions
		(external_ref, amount, currency, transaction_status, sender_notes, raw_data, transaction_date, counter_party, created_at, category_id, user_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return result, fmt.Errorf("error preparing transaction insert: %w", err)
	}
	defer insertTxStmt.Close()

	insertFeeStmt, err := dbTx.Prepare(`INSERT INTO fees
		(amount, created_at, transaction_id, fee_type_id) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return result, fmt.Errorf("error preparing fee insert: %w", err)
	}
	defer insertFeeStmt.Close()

	now := time.Now()
	for _, tx := range transactions {
		var existingID int64
		err := existsStmt.QueryRow(tx.ExternalRef).Scan(&existingID)
		if err == nil {
			if logger.L != nil {
				logger.L.Debug("Skipping duplicate transaction", "externalRef", tx.ExternalRef)
			}
			result.Skipped++
			continue
		}
		if err != sql.ErrNoRows {
			return result, fmt.Errorf("error checking for existing transaction %s: %w", tx.ExternalRef, err)
		}

		categoryID, ok := categories[tx.CategoryCode]
		if !ok {
			categoryID = defaultCategoryID
		}

		res, err := insertTxStmt.Exec(
			tx.ExternalRef, tx.Amount, tx.Currency, tx.TransactionStatus,
			nil, tx.Body, tx.TransactionDate, tx.CounterParty, now,
			categoryID, defaultUserID)
		if err != nil {
			return result, fmt.Errorf("error inserting transaction %s: %w", tx.ExternalRef, err)
		}

		transactionID, err := res.LastInsertId()
		if err != nil {
			return result, fmt.Errorf("error reading inserted id for %s: %w", tx.ExternalRef, err)
		}

		if _, err := insertFeeStmt.Exec(tx.FeeAmount, now, transactionID, feeTypeID); err != nil {
			return result, fmt.Errorf("error inserting fee for transaction %s: %w", tx.ExternalRef, err)
		}

		result.Loaded++
	}

	if err := dbTx.Commit(); err != nil {
		return result, fmt.Errorf("error committing batch: %w", err)
	}
	return result, nil
}

func (l *loaderImpl) categoryIDsByCode() (map[string]int64, error) {
	rows, err := l.db.Query(`SELECT id, category_code FROM categories`)
	if err != nil {
		return nil, fmt.Errorf("error loading categories: %w", err)
	}
	defer rows.Close()

	categories := make(map[string]int64)
	for rows.Next() {
		var id int64
		var code string
		if err := rows.Scan(&id, &code); err != nil {
			return nil, fmt.Errorf("error scanning category: %w", err)
		}
		categories[code] = id
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("no categories found; seed reference data first")
	}
	return categories, nil
}

func (l *loaderImpl) feeTypeID(name string) (int64, error) {
	var id int64
	err := l.db.QueryRow(`SELECT id FROM fee_types WHERE fee_name = ?`, name).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("fee type %q not found; seed reference data first", name)
	}
	if err != nil {
		return 0, fmt.Errorf("error loading fee type: %w", err)
	}
	return id, nil
}

func (l *loaderImpl) defaultUserID() (int64, error) {
	var id int64
	err := l.db.QueryRow(`SELECT id FROM users ORDER BY id LIMIT 1`).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("no users found; seed reference data first")
	}
	if err != nil {
		return 0, fmt.Errorf("error loading default user: %w", err)
	}
	return id, nil
}

// audit writes a system_logs row outside the batch transaction so an error
// entry survives the rollback.
func (l *loaderImpl) audit(logType, severity, message, runID string) {
	_, err := l.db.Exec(
		`INSERT INTO system_logs (log_type, severity, message, run_id, log_time) VALUES (?, ?, ?, ?, ?)`,
		logType, severity, message, runID, time.Now())
	if err != nil && logger.L != nil {
		logger.L.Error("Failed to write audit entry", "logType", logType, "error", err)
	}
}
