package persistence

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/xolodev/xolo-go/internal/domain/state"
	"github.com/xolodev/xolo-go/internal/infrastructure/observability/logging"
)

// AuditLog is an append-only SQLite trail of every simulated purchase. The
// snapshot can be reset at will; the audit trail survives it.
type AuditLog struct {
	db     *sql.DB
	logger *logging.ChanneledLogger
}

const auditSchema = `
	CREATE TABLE IF NOT EXISTS purchase_audit (
		id           TEXT PRIMARY KEY,
		item_id      INTEGER NOT NULL,
		item_name    TEXT NOT NULL,
		item_type    TEXT NOT NULL,
		price        INTEGER NOT NULL,
		transaction_type TEXT NOT NULL,
		ineffective  INTEGER NOT NULL DEFAULT 0,
		purchase_token TEXT,
		created_at   TEXT NOT NULL
	)`

// OpenAuditLog opens (creating if needed) the audit database at path.
func OpenAuditLog(path string, logger *logging.ChanneledLogger) (*AuditLog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit database ping failed: %w", err)
	}
	if _, err := db.Exec(auditSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create audit schema: %w", err)
	}

	logger.Persist().Info("Audit log opened", "path", path)
	return &AuditLog{db: db, logger: logger}, nil
}

// RecordPurchase appends one purchase record to the trail. Failures are
// logged and returned; the purchase itself has already happened and is never
// rolled back over an audit miss.
func (a *AuditLog) RecordPurchase(record *state.PurchaseRecord) error {
	start := time.Now()

	const query = `
		INSERT INTO purchase_audit
			(id, item_id, item_name, item_type, price, transaction_type, ineffective, purchase_token, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var price int64
	if record.Currency != nil {
		price = record.Currency.Amount
	}
	ineffective := 0
	if record.Ineffective {
		ineffective = 1
	}

	_, err := a.db.Exec(
		query,
		record.ID,
		record.Details.ID,
		record.Details.Name,
		record.Details.Type,
		price,
		record.TransactionType,
		ineffective,
		record.PurchaseToken,
		record.Created,
	)
	if err != nil {
		a.logger.Persist().Error("Audit insert failed",
			"error", err.Error(),
			"recordId", record.ID,
			"itemId", record.Details.ID)
		return fmt.Errorf("failed to record purchase audit: %w", err)
	}

	a.logger.Persist().Debug("Purchase audited",
		"recordId", record.ID,
		"itemId", record.Details.ID,
		"price", price,
		"duration", time.Since(start))
	return nil
}

// Count returns the number of audited purchases.
func (a *AuditLog) Count() (int64, error) {
	var n int64
	if err := a.db.QueryRow(`SELECT COUNT(*) FROM purchase_audit`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count audit rows: %w", err)
	}
	return n, nil
}

// Close releases the underlying database handle.
func (a *AuditLog) Close() error {
	return a.db.Close()
}
