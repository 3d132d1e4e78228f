package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx/types"
	"github.com/sbilibin2017/gw-remit/internal/facades"
	"github.com/sbilibin2017/gw-remit/internal/logger"
	"github.com/sbilibin2017/gw-remit/internal/models"
	"github.com/sbilibin2017/gw-remit/internal/repositories"
	"github.com/sbilibin2017/gw-remit/internal/scheduler"
)

//go:generate mockgen -source=transaction.go -destination=transaction_mock.go -package=services

// TransactionReader defines methods for reading transactions.
type TransactionReader interface {
	GetByInvoiceID(ctx context.Context, invoiceID string) (*models.TransactionDB, error)  // Returns nil when missing
	ListByAccountID(ctx context.Context, accountID int64) ([]models.TransactionDB, error) // Returns all transactions of an account
	ListStalled(ctx context.Context, before time.Time) ([]models.TransactionDB, error)    // Returns in-flight transactions untouched since before
}

// TransactionWriter defines methods for persisting transactions.
type TransactionWriter interface {
	Create(ctx context.Context, txn *models.TransactionDB) error // Inserts a new transaction
	Save(ctx context.Context, txn *models.TransactionDB) error   // Writes mutable fields back
}

// AccountReader loads account contact details for notifications.
type AccountReader interface {
	GetByID(ctx context.Context, id int64) (*models.AccountDB, error)
}

// PaymentGateway is the mobile-money gateway.
type PaymentGateway interface {
	InitiateOrder(ctx context.Context) (string, error)
	ExecuteTransfer(ctx context.Context, orderID, receiver string, volume float64) (*models.ExecuteTransferResponse, error)
}

// Notifier hands milestone events to the mailer.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// InvoiceLocker serializes mutations of one invoice across workers.
type InvoiceLocker interface {
	Lock(ctx context.Context, invoiceID string) (func(), error)
}

// TaskScheduler runs delayed actions.
type TaskScheduler interface {
	Schedule(name string, delay time.Duration, task scheduler.Task) error
}

// TransactionService drives a remittance from initiation to its terminal status.
type TransactionService struct {
	reader    TransactionReader
	writer    TransactionWriter
	accounts  AccountReader
	gateway   PaymentGateway
	notifier  Notifier
	locker    InvoiceLocker
	scheduler TaskScheduler

	orderDelay    time.Duration
	transferDelay time.Duration
	resolveDelay  time.Duration
	maxRetries    uint64
	retryInterval time.Duration
	now           func() time.Time
	afterCommit   func(ctx context.Context, fn func())
}

// Option configures TransactionService.
type Option func(*TransactionService)

// WithDelays sets the pauses before order fetch, transfer and final check.
func WithDelays(order, transfer, resolve time.Duration) Option {
	return func(s *TransactionService) {
		s.orderDelay = order
		s.transferDelay = transfer
		s.resolveDelay = resolve
	}
}

// WithRetries sets how many times a gateway call is retried and the first backoff interval.
func WithRetries(maxRetries uint64, interval time.Duration) Option {
	return func(s *TransactionService) {
		s.maxRetries = maxRetries
		s.retryInterval = interval
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *TransactionService) {
		s.now = now
	}
}

// WithAfterCommit defers side effects of a write until the caller's database
// transaction commits. hook runs fn once the commit succeeds and drops it otherwise.
func WithAfterCommit(hook func(ctx context.Context, fn func())) Option {
	return func(s *TransactionService) {
		s.afterCommit = hook
	}
}

// NewTransactionService creates a new TransactionService.
func NewTransactionService(
	reader TransactionReader,
	writer TransactionWriter,
	accounts AccountReader,
	gateway PaymentGateway,
	notifier Notifier,
	locker InvoiceLocker,
	scheduler TaskScheduler,
	opts ...Option,
) *TransactionService {
	s := &TransactionService{
		reader:        reader,
		writer:        writer,
		accounts:      accounts,
		gateway:       gateway,
		notifier:      notifier,
		locker:        locker,
		scheduler:     scheduler,
		transferDelay: 9 * time.Second,
		resolveDelay:  5 * time.Second,
		maxRetries:    3,
		retryInterval: 500 * time.Millisecond,
		now:           time.Now,
		afterCommit:   func(_ context.Context, fn func()) { fn() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initiate validates and records a new transaction in status Initiated.
func (s *TransactionService) Initiate(ctx context.Context, req models.InitiateTransactionRequest, accountID int64, sourceIP string) (*models.TransactionDB, error) {
	volume, err := validateInitiateRequest(&req)
	if err != nil {
		logger.Log.Warnw("rejected transaction initiation", "invoice_id", req.InvoiceID, "account_id", accountID, "error", err)
		return nil, err
	}

	txn := &models.TransactionDB{
		InvoiceID:       req.InvoiceID,
		ServiceType:     req.ServiceType,
		AddressReceiver: req.AddressReceiver,
		VolumeReceived:  volume,
		Status:          models.StatusInitiated,
		CreatedByIP:     sourceIP,
		AccountID:       accountID,
	}

	if err := s.writer.Create(ctx, txn); err != nil {
		if errors.Is(err, repositories.ErrDuplicateInvoice) {
			return nil, ErrInvoiceAlreadyExists
		}
		logger.Log.Errorw("failed to create transaction", "invoice_id", txn.InvoiceID, "error", err)
		return nil, err
	}

	logger.Log.Infow("transaction initiated", "invoice_id", txn.InvoiceID, "account_id", accountID, "volume", volume)
	initiated := *txn
	s.afterCommit(ctx, func() {
		s.notify(ctx, models.NotificationTransactionInitiated, &initiated)
	})
	return txn, nil
}

func validateInitiateRequest(req *models.InitiateTransactionRequest) (float64, error) {
	req.InvoiceID = strings.TrimSpace(req.InvoiceID)
	req.ServiceType = strings.TrimSpace(req.ServiceType)
	req.AddressReceiver = strings.TrimSpace(req.AddressReceiver)

	switch {
	case req.InvoiceID == "":
		return 0, fmt.Errorf("%w: invoiceId is required", ErrInvalidTransaction)
	case req.ServiceType == "":
		return 0, fmt.Errorf("%w: serviceType is required", ErrInvalidTransaction)
	case req.AddressReceiver == "":
		return 0, fmt.Errorf("%w: addressReceiver is required", ErrInvalidTransaction)
	}

	volume, err := strconv.ParseFloat(strings.TrimSpace(req.Volume), 64)
	if err != nil || math.IsNaN(volume) || math.IsInf(volume, 0) || volume <= 0 {
		return 0, fmt.Errorf("%w: volume must be a positive number", ErrInvalidTransaction)
	}
	return volume, nil
}

// HandlePaymentCallback records the payment front-end result for an invoice.
// A successful payment schedules the order fetch; anything else fails the
// transaction. Callbacks for a transaction that already has one are ignored.
func (s *TransactionService) HandlePaymentCallback(ctx context.Context, payload models.PaymentCallback) error {
	invoiceID := payload.InvoiceNo()
	if invoiceID == "" {
		return fmt.Errorf("%w: invoiceNo is required", ErrInvalidTransaction)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTransaction, err)
	}

	succeeded := payload.Succeeded()
	txn, changed, err := s.update(ctx, invoiceID, func(txn *models.TransactionDB) (bool, error) {
		if txn.Status != models.StatusInitiated || txn.PaymentResponds.Valid {
			logger.Log.Warnw("ignoring duplicate payment callback", "invoice_id", invoiceID, "status", txn.Status)
			return false, nil
		}
		txn.PaymentResponds = types.NullJSONText{JSONText: raw, Valid: true}
		if !succeeded {
			return true, transition(txn, models.StatusFailed)
		}
		return true, nil
	})
	if err != nil {
		if !errors.Is(err, ErrTransactionNotFound) {
			logger.Log.Errorw("failed to record payment callback", "invoice_id", invoiceID, "error", err)
		}
		return err
	}
	if !changed {
		return nil
	}

	if !succeeded {
		logger.Log.Infow("payment failed", "invoice_id", invoiceID, "result", payload.Result())
		s.notify(ctx, models.NotificationTransactionFailed, txn)
		return nil
	}

	logger.Log.Infow("payment confirmed", "invoice_id", invoiceID)
	s.schedule("fetch-order", invoiceID, s.orderDelay, s.FetchOrderID)
	return nil
}

// FetchOrderID obtains a gateway order id for a paid transaction and moves it
// to Completing Transaction. The transfer is scheduled only after it succeeds.
func (s *TransactionService) FetchOrderID(ctx context.Context, invoiceID string) error {
	txn, err := s.load(ctx, invoiceID)
	if err != nil {
		return err
	}
	if txn.Status != models.StatusInitiated || !txn.PaymentResponds.Valid || txn.HasOrderID() {
		logger.Log.Warnw("skipping order fetch", "invoice_id", invoiceID, "status", txn.Status)
		return nil
	}

	var orderID string
	err = s.retry(ctx, invoiceID, "initiate order", func() error {
		id, err := s.gateway.InitiateOrder(ctx)
		if err != nil {
			return err
		}
		orderID = id
		return nil
	})
	if err != nil {
		logger.Log.Errorw("failed to obtain order id", "invoice_id", invoiceID, "error", err)
		return s.escalate(ctx, invoiceID, models.StatusInitiated, err)
	}

	_, changed, err := s.update(ctx, invoiceID, func(txn *models.TransactionDB) (bool, error) {
		if txn.Status != models.StatusInitiated || txn.HasOrderID() {
			logger.Log.Warnw("order id arrived for a transaction that moved on", "invoice_id", invoiceID, "status", txn.Status, "order_id", orderID)
			return false, nil
		}
		txn.OrderID = &orderID
		return true, transition(txn, models.StatusCompletingTransaction)
	})
	if err != nil {
		logger.Log.Errorw("failed to store order id", "invoice_id", invoiceID, "order_id", orderID, "error", err)
		return err
	}
	if !changed {
		return nil
	}

	logger.Log.Infow("order id assigned", "invoice_id", invoiceID, "order_id", orderID)
	s.schedule("execute-transfer", invoiceID, s.transferDelay, s.ExecuteTransfer)
	return nil
}

// ExecuteTransfer moves the funds to the receiver and stores the gateway
// answer. A transfer is repeated only when the gateway refused it outright.
func (s *TransactionService) ExecuteTransfer(ctx context.Context, invoiceID string) error {
	txn, err := s.load(ctx, invoiceID)
	if err != nil {
		return err
	}
	if txn.Status != models.StatusCompletingTransaction || !txn.HasOrderID() || txn.SendResponds.Valid {
		logger.Log.Warnw("skipping transfer", "invoice_id", invoiceID, "status", txn.Status)
		return nil
	}

	var resp *models.ExecuteTransferResponse
	err = s.retry(ctx, invoiceID, "execute transfer", func() error {
		r, err := s.gateway.ExecuteTransfer(ctx, *txn.OrderID, txn.AddressReceiver, txn.VolumeReceived)
		if err != nil {
			if !errors.Is(err, facades.ErrGatewayUnavailable) {
				return backoff.Permanent(err)
			}
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		logger.Log.Errorw("failed to execute transfer", "invoice_id", invoiceID, "order_id", *txn.OrderID, "error", err)
		return s.escalate(ctx, invoiceID, models.StatusCompletingTransaction, err)
	}

	raw := resp.Raw
	if len(raw) == 0 {
		if raw, err = json.Marshal(resp); err != nil {
			return err
		}
	}

	_, changed, err := s.update(ctx, invoiceID, func(txn *models.TransactionDB) (bool, error) {
		if txn.Status != models.StatusCompletingTransaction || txn.SendResponds.Valid {
			logger.Log.Warnw("transfer response arrived for a transaction that moved on", "invoice_id", invoiceID, "status", txn.Status)
			return false, nil
		}
		txn.SendResponds = types.NullJSONText{JSONText: types.JSONText(raw), Valid: true}
		txn.AmountPaid = float64(resp.Data.Cash)
		txn.VolumeReceived = float64(resp.Data.Volume)
		txn.Fees = float64(resp.Data.Fee)
		return true, nil
	})
	if err != nil {
		logger.Log.Errorw("failed to store transfer response",
			"invoice_id", invoiceID,
			"order_id", *txn.OrderID,
			"statuscode", resp.StatusCode,
			"cash", float64(resp.Data.Cash),
			"volume", float64(resp.Data.Volume),
			"fee", float64(resp.Data.Fee),
			"body", string(raw),
			"error", err,
		)
		return err
	}
	if !changed {
		return nil
	}

	logger.Log.Infow("transfer response stored", "invoice_id", invoiceID, "statuscode", resp.StatusCode)
	s.schedule("resolve-transfer", invoiceID, s.resolveDelay, s.ResolveTransfer)
	return nil
}

// ResolveTransfer settles the transaction from the stored transfer response.
func (s *TransactionService) ResolveTransfer(ctx context.Context, invoiceID string) error {
	var kind string
	txn, changed, err := s.update(ctx, invoiceID, func(txn *models.TransactionDB) (bool, error) {
		if txn.Status != models.StatusCompletingTransaction || !txn.SendResponds.Valid {
			logger.Log.Warnw("skipping transfer resolution", "invoice_id", invoiceID, "status", txn.Status)
			return false, nil
		}

		var resp models.ExecuteTransferResponse
		if err := json.Unmarshal(txn.SendResponds.JSONText, &resp); err != nil {
			logger.Log.Warnw("unreadable transfer response", "invoice_id", invoiceID, "error", err)
		}

		if resp.Accepted() {
			kind = models.NotificationTransactionCompleted
			return true, transition(txn, models.StatusCompleted)
		}
		kind = models.NotificationTransactionFailed
		return true, transition(txn, models.StatusPaymentFailed)
	})
	if err != nil {
		logger.Log.Errorw("failed to resolve transfer", "invoice_id", invoiceID, "error", err)
		return err
	}
	if !changed {
		return nil
	}

	logger.Log.Infow("transaction resolved", "invoice_id", invoiceID, "status", txn.Status)
	s.notify(ctx, kind, txn)
	return nil
}

// GetHistory returns every transaction owned by accountID.
func (s *TransactionService) GetHistory(ctx context.Context, accountID int64) ([]models.TransactionDetails, error) {
	txns, err := s.reader.ListByAccountID(ctx, accountID)
	if err != nil {
		logger.Log.Errorw("failed to list transactions", "account_id", accountID, "error", err)
		return nil, err
	}

	details := make([]models.TransactionDetails, 0, len(txns))
	for i := range txns {
		details = append(details, models.NewTransactionDetails(&txns[i]))
	}
	return details, nil
}

// ReconcileStale escalates in-flight transactions untouched for olderThan
// and returns how many were marked Needs Reconciliation.
func (s *TransactionService) ReconcileStale(ctx context.Context, olderThan time.Duration) (int, error) {
	before := s.now().Add(-olderThan)

	txns, err := s.reader.ListStalled(ctx, before)
	if err != nil {
		logger.Log.Errorw("failed to list stalled transactions", "before", before, "error", err)
		return 0, err
	}

	reconciled := 0
	for _, stalled := range txns {
		txn, changed, err := s.update(ctx, stalled.InvoiceID, func(txn *models.TransactionDB) (bool, error) {
			if !isStalled(txn, before) {
				return false, nil
			}
			return true, transition(txn, models.StatusNeedsReconciliation)
		})
		if err != nil {
			logger.Log.Errorw("failed to reconcile transaction", "invoice_id", stalled.InvoiceID, "error", err)
			continue
		}
		if !changed {
			continue
		}
		reconciled++
		logger.Log.Warnw("stalled transaction needs reconciliation", "invoice_id", txn.InvoiceID, "updated_at", txn.UpdatedAt)
		s.alert(ctx, txn)
	}
	return reconciled, nil
}

func isStalled(txn *models.TransactionDB, before time.Time) bool {
	last := txn.CreatedAt
	if txn.UpdatedAt != nil {
		last = *txn.UpdatedAt
	}
	if !last.Before(before) {
		return false
	}
	switch txn.Status {
	case models.StatusCompletingTransaction:
		return true
	case models.StatusInitiated:
		return txn.PaymentResponds.Valid
	}
	return false
}

// escalate marks the transaction Needs Reconciliation when it is still in
// status from and alerts operators. cause is returned for the caller to log.
func (s *TransactionService) escalate(ctx context.Context, invoiceID, from string, cause error) error {
	txn, changed, err := s.update(ctx, invoiceID, func(txn *models.TransactionDB) (bool, error) {
		if txn.Status != from {
			return false, nil
		}
		return true, transition(txn, models.StatusNeedsReconciliation)
	})
	if err != nil {
		logger.Log.Errorw("failed to escalate transaction", "invoice_id", invoiceID, "error", err)
		return errors.Join(cause, err)
	}
	if changed {
		s.alert(ctx, txn)
	}
	return cause
}

// update reloads the transaction under its invoice lock, applies fn and saves
// it when fn reports a change.
func (s *TransactionService) update(ctx context.Context, invoiceID string, fn func(txn *models.TransactionDB) (bool, error)) (*models.TransactionDB, bool, error) {
	unlock, err := s.locker.Lock(ctx, invoiceID)
	if err != nil {
		return nil, false, err
	}
	defer unlock()

	txn, err := s.load(ctx, invoiceID)
	if err != nil {
		return nil, false, err
	}

	changed, err := fn(txn)
	if err != nil || !changed {
		return txn, false, err
	}

	now := s.now().UTC()
	txn.UpdatedAt = &now
	if err := s.writer.Save(ctx, txn); err != nil {
		return nil, false, err
	}
	return txn, true, nil
}

func (s *TransactionService) load(ctx context.Context, invoiceID string) (*models.TransactionDB, error) {
	txn, err := s.reader.GetByInvoiceID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, ErrTransactionNotFound
	}
	return txn, nil
}

func transition(txn *models.TransactionDB, to string) error {
	if !models.CanTransition(txn.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, txn.Status, to)
	}
	txn.Status = to
	return nil
}

// retry runs op with exponential backoff until it succeeds, returns a
// permanent error, or maxRetries is exhausted.
func (s *TransactionService) retry(ctx context.Context, invoiceID, op string, fn backoff.Operation) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.retryInterval
	b.MaxElapsedTime = 0

	return backoff.RetryNotify(fn,
		backoff.WithContext(backoff.WithMaxRetries(b, s.maxRetries), ctx),
		func(err error, next time.Duration) {
			logger.Log.Warnw("payment gateway call failed, retrying", "invoice_id", invoiceID, "op", op, "next", next, "error", err)
		},
	)
}

func (s *TransactionService) schedule(name, invoiceID string, delay time.Duration, step func(ctx context.Context, invoiceID string) error) {
	err := s.scheduler.Schedule(name+":"+invoiceID, delay, func(ctx context.Context) {
		if err := step(ctx, invoiceID); err != nil {
			logger.Log.Errorw("scheduled step failed", "step", name, "invoice_id", invoiceID, "error", err)
		}
	})
	if err != nil {
		logger.Log.Errorw("failed to schedule step", "step", name, "invoice_id", invoiceID, "error", err)
	}
}

// notify sends a customer notification. Failures are logged only.
func (s *TransactionService) notify(ctx context.Context, kind string, txn *models.TransactionDB) {
	account, err := s.accounts.GetByID(ctx, txn.AccountID)
	if err != nil {
		logger.Log.Warnw("failed to load account for notification", "account_id", txn.AccountID, "kind", kind, "error", err)
	}
	s.send(ctx, models.NewNotification(kind, account, txn, s.now()))
}

// alert sends an operator notification about a transaction needing manual review.
func (s *TransactionService) alert(ctx context.Context, txn *models.TransactionDB) {
	s.send(ctx, models.NewNotification(models.NotificationTransactionNeedsReconciliation, nil, txn, s.now()))
}

func (s *TransactionService) send(ctx context.Context, n models.Notification) {
	if err := s.notifier.Notify(ctx, n); err != nil {
		logger.Log.Errorw("failed to deliver notification", "event_id", n.EventID, "kind", n.Kind, "invoice_id", n.InvoiceID, "error", err)
	}
}
