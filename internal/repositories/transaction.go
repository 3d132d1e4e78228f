package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-remit/internal/logger"
	"github.com/sbilibin2017/gw-remit/internal/models"
)

// ErrDuplicateInvoice is returned when a transaction with the same invoice id already exists.
var ErrDuplicateInvoice = errors.New("duplicate invoice id")

const uniqueViolation = "23505"

const transactionColumns = `
	id, invoice_id, order_id, service_type, address_receiver,
	amount_paid, volume_received, fees, payment_responds, send_responds,
	status, created_by_ip, created_at, updated_at, account_id`

// TransactionReadRepository handles transaction read operations
type TransactionReadRepository struct {
	db *sqlx.DB
}

func NewTransactionReadRepository(db *sqlx.DB) *TransactionReadRepository {
	return &TransactionReadRepository{db: db}
}

// GetByInvoiceID returns the transaction with the given invoice id, or nil if none exists.
func (r *TransactionReadRepository) GetByInvoiceID(ctx context.Context, invoiceID string) (*models.TransactionDB, error) {
	query := `SELECT` + transactionColumns + `
		FROM transactions
		WHERE invoice_id = $1`

	var txn models.TransactionDB
	err := r.db.GetContext(ctx, &txn, query, invoiceID)

	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{invoiceID},
		"result", txn.Status,
		"error", err,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// ListByAccountID returns every transaction owned by the account, oldest first.
func (r *TransactionReadRepository) ListByAccountID(ctx context.Context, accountID int64) ([]models.TransactionDB, error) {
	query := `SELECT` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at, id`

	txns := []models.TransactionDB{}
	err := r.db.SelectContext(ctx, &txns, query, accountID)

	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{accountID},
		"result", len(txns),
		"error", err,
	)

	if err != nil {
		return nil, err
	}
	return txns, nil
}

// ListStalled returns transactions whose processing started but that have not
// changed since before: Completing Transaction, or Initiated with a recorded callback.
func (r *TransactionReadRepository) ListStalled(ctx context.Context, before time.Time) ([]models.TransactionDB, error) {
	query := `SELECT` + transactionColumns + `
		FROM transactions
		WHERE (status = $1 OR (status = $2 AND payment_responds IS NOT NULL))
		  AND COALESCE(updated_at, created_at) < $3
		ORDER BY created_at, id`
	args := []any{models.StatusCompletingTransaction, models.StatusInitiated, before}

	txns := []models.TransactionDB{}
	err := r.db.SelectContext(ctx, &txns, query, args...)

	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", args,
		"result", len(txns),
		"error", err,
	)

	if err != nil {
		return nil, err
	}
	return txns, nil
}

// TransactionWriteRepository handles transaction write operations
type TransactionWriteRepository struct {
	db       *sqlx.DB
	txGetter func(ctx context.Context) *sqlx.Tx
}

func NewTransactionWriteRepository(db *sqlx.DB, txGetter func(ctx context.Context) *sqlx.Tx) *TransactionWriteRepository {
	return &TransactionWriteRepository{db: db, txGetter: txGetter}
}

func (r *TransactionWriteRepository) executor(ctx context.Context) sqlx.ExtContext {
	if r.txGetter != nil {
		if tx := r.txGetter(ctx); tx != nil {
			return tx
		}
	}
	return r.db
}

// Create inserts txn and fills its generated id and creation time.
func (r *TransactionWriteRepository) Create(ctx context.Context, txn *models.TransactionDB) error {
	query := `
		INSERT INTO transactions (
			invoice_id, order_id, service_type, address_receiver,
			amount_paid, volume_received, fees, payment_responds, send_responds,
			status, created_by_ip, created_at, account_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), $12)
		RETURNING id, created_at
	`
	args := []any{
		txn.InvoiceID, txn.OrderID, txn.ServiceType, txn.AddressReceiver,
		txn.AmountPaid, txn.VolumeReceived, txn.Fees, txn.PaymentResponds, txn.SendResponds,
		txn.Status, txn.CreatedByIP, txn.AccountID,
	}

	var created struct {
		ID        int64     `db:"id"`
		CreatedAt time.Time `db:"created_at"`
	}
	err := sqlx.GetContext(ctx, r.executor(ctx), &created, query, args...)

	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{txn.InvoiceID, txn.ServiceType, txn.AddressReceiver, txn.VolumeReceived, txn.AccountID},
		"result", created.ID,
		"error", err,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateInvoice
		}
		return err
	}

	txn.ID = created.ID
	txn.CreatedAt = created.CreatedAt
	return nil
}

// Save writes every mutable field of txn. Returns sql.ErrNoRows if the record is gone.
func (r *TransactionWriteRepository) Save(ctx context.Context, txn *models.TransactionDB) error {
	query := `
		UPDATE transactions
		SET order_id = $1,
		    amount_paid = $2,
		    volume_received = $3,
		    fees = $4,
		    payment_responds = $5,
		    send_responds = $6,
		    status = $7,
		    updated_at = $8
		WHERE id = $9
	`
	args := []any{
		txn.OrderID, txn.AmountPaid, txn.VolumeReceived, txn.Fees,
		txn.PaymentResponds, txn.SendResponds, txn.Status, txn.UpdatedAt, txn.ID,
	}

	res, err := r.executor(ctx).ExecContext(ctx, query, args...)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}

	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{txn.ID, txn.InvoiceID, txn.Status},
		"result", rowsAffected,
		"error", err,
	)

	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
