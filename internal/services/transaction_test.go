package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/jmoiron/sqlx/types"
	"github.com/sbilibin2017/gw-remit/internal/facades"
	"github.com/sbilibin2017/gw-remit/internal/logger"
	"github.com/sbilibin2017/gw-remit/internal/models"
	"github.com/sbilibin2017/gw-remit/internal/repositories"
	"github.com/sbilibin2017/gw-remit/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var testNow = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

type scheduledTask struct {
	name  string
	delay time.Duration
	task  scheduler.Task
}

// harness wires the service to gomock doubles backed by an in-memory store.
type harness struct {
	svc      *TransactionService
	gateway  *MockPaymentGateway
	reader   *MockTransactionReader
	notifier *MockNotifier

	store   map[string]*models.TransactionDB
	nextID  int64
	saves   int
	saveErr error
	tasks   []scheduledTask
	sent    []models.Notification
}

func newHarness(t *testing.T, opts ...Option) *harness {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	h := &harness{store: map[string]*models.TransactionDB{}}

	h.reader = NewMockTransactionReader(ctrl)
	writer := NewMockTransactionWriter(ctrl)
	accounts := NewMockAccountReader(ctrl)
	h.gateway = NewMockPaymentGateway(ctrl)
	h.notifier = NewMockNotifier(ctrl)
	locker := NewMockInvoiceLocker(ctrl)
	sched := NewMockTaskScheduler(ctrl)

	h.reader.EXPECT().GetByInvoiceID(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, invoiceID string) (*models.TransactionDB, error) {
			txn, ok := h.store[invoiceID]
			if !ok {
				return nil, nil
			}
			cp := *txn
			return &cp, nil
		}).AnyTimes()

	writer.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, txn *models.TransactionDB) error {
			if _, ok := h.store[txn.InvoiceID]; ok {
				return repositories.ErrDuplicateInvoice
			}
			h.nextID++
			txn.ID = h.nextID
			txn.CreatedAt = testNow
			cp := *txn
			h.store[txn.InvoiceID] = &cp
			return nil
		}).AnyTimes()

	writer.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, txn *models.TransactionDB) error {
			if h.saveErr != nil {
				return h.saveErr
			}
			h.saves++
			cp := *txn
			h.store[txn.InvoiceID] = &cp
			return nil
		}).AnyTimes()

	accounts.EXPECT().GetByID(gomock.Any(), int64(7)).Return(&models.AccountDB{
		ID:        7,
		Email:     "ama@example.com",
		FirstName: "Ama",
		LastName:  "Mensah",
	}, nil).AnyTimes()

	locker.EXPECT().Lock(gomock.Any(), gomock.Any()).Return(func() {}, nil).AnyTimes()

	sched.EXPECT().Schedule(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(name string, delay time.Duration, task scheduler.Task) error {
			h.tasks = append(h.tasks, scheduledTask{name: name, delay: delay, task: task})
			return nil
		}).AnyTimes()

	h.svc = NewTransactionService(h.reader, writer, accounts, h.gateway, h.notifier, locker, sched,
		append([]Option{
			WithDelays(0, 9*time.Second, 5*time.Second),
			WithRetries(2, time.Millisecond),
			WithClock(func() time.Time { return testNow }),
		}, opts...)...,
	)
	return h
}

func (h *harness) expectNotifications() {
	h.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, n models.Notification) error {
			h.sent = append(h.sent, n)
			return nil
		}).AnyTimes()
}

// runNext runs the oldest scheduled task and returns its name.
func (h *harness) runNext(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, h.tasks, "no scheduled task")
	next := h.tasks[0]
	h.tasks = h.tasks[1:]
	next.task(context.Background())
	return next.name
}

func (h *harness) kinds() []string {
	kinds := make([]string, 0, len(h.sent))
	for _, n := range h.sent {
		kinds = append(kinds, n.Kind)
	}
	return kinds
}

func (h *harness) put(txn models.TransactionDB) {
	h.store[txn.InvoiceID] = &txn
}

func airtimeRequest() models.InitiateTransactionRequest {
	return models.InitiateTransactionRequest{
		InvoiceID:       "INV-1001",
		ServiceType:     "airtime",
		AddressReceiver: "0551234567",
		Volume:          "50",
	}
}

func strPtr(s string) *string { return &s }

func jsonText(t *testing.T, v any) types.NullJSONText {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return types.NullJSONText{JSONText: data, Valid: true}
}

func TestTransactionService_Initiate(t *testing.T) {
	h := newHarness(t)
	h.expectNotifications()

	txn, err := h.svc.Initiate(context.Background(), airtimeRequest(), 7, "10.0.0.1")
	require.NoError(t, err)

	assert.Equal(t, int64(1), txn.ID)
	assert.Equal(t, models.StatusInitiated, txn.Status)
	assert.Nil(t, txn.OrderID)
	assert.Equal(t, 50.0, txn.VolumeReceived)
	assert.Equal(t, "10.0.0.1", txn.CreatedByIP)
	assert.Equal(t, int64(7), txn.AccountID)

	require.Len(t, h.sent, 1)
	assert.Equal(t, models.NotificationTransactionInitiated, h.sent[0].Kind)
	assert.Equal(t, "ama@example.com", h.sent[0].Email)
	assert.Equal(t, "Trust Remit - Transaction Initiated", h.sent[0].Subject)
	assert.Empty(t, h.tasks)
}

func TestTransactionService_InitiateNotifiesAfterCommit(t *testing.T) {
	var pending []func()
	h := newHarness(t, WithAfterCommit(func(ctx context.Context, fn func()) {
		pending = append(pending, fn)
	}))
	h.expectNotifications()

	_, err := h.svc.Initiate(context.Background(), airtimeRequest(), 7, "10.0.0.1")
	require.NoError(t, err)

	assert.Empty(t, h.sent)
	require.Len(t, pending, 1)

	pending[0]()
	require.Len(t, h.sent, 1)
	assert.Equal(t, models.NotificationTransactionInitiated, h.sent[0].Kind)
	assert.Equal(t, "INV-1001", h.sent[0].InvoiceID)
}

func TestTransactionService_InitiateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *models.InitiateTransactionRequest)
	}{
		{"missing invoice", func(r *models.InitiateTransactionRequest) { r.InvoiceID = " " }},
		{"missing service type", func(r *models.InitiateTransactionRequest) { r.ServiceType = "" }},
		{"missing receiver", func(r *models.InitiateTransactionRequest) { r.AddressReceiver = "" }},
		{"volume not a number", func(r *models.InitiateTransactionRequest) { r.Volume = "fifty" }},
		{"zero volume", func(r *models.InitiateTransactionRequest) { r.Volume = "0" }},
		{"negative volume", func(r *models.InitiateTransactionRequest) { r.Volume = "-5" }},
		{"nan volume", func(r *models.InitiateTransactionRequest) { r.Volume = "NaN" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			req := airtimeRequest()
			tt.mutate(&req)

			txn, err := h.svc.Initiate(context.Background(), req, 7, "10.0.0.1")
			assert.ErrorIs(t, err, ErrInvalidTransaction)
			assert.Nil(t, txn)
			assert.Empty(t, h.store)
		})
	}
}

func TestTransactionService_InitiateDuplicateInvoice(t *testing.T) {
	h := newHarness(t)
	h.expectNotifications()

	_, err := h.svc.Initiate(context.Background(), airtimeRequest(), 7, "10.0.0.1")
	require.NoError(t, err)

	_, err = h.svc.Initiate(context.Background(), airtimeRequest(), 7, "10.0.0.1")
	assert.ErrorIs(t, err, ErrInvoiceAlreadyExists)
	assert.Len(t, h.sent, 1)
}

func TestTransactionService_InitiateNotifierFailure(t *testing.T) {
	h := newHarness(t)
	h.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

	txn, err := h.svc.Initiate(context.Background(), airtimeRequest(), 7, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInitiated, txn.Status)
}

func TestTransactionService_HandlePaymentCallback(t *testing.T) {
	t.Run("unknown invoice", func(t *testing.T) {
		h := newHarness(t)
		err := h.svc.HandlePaymentCallback(context.Background(), models.PaymentCallback{"invoiceNo": "INV-404", "result": "Y"})
		assert.ErrorIs(t, err, ErrTransactionNotFound)
	})

	t.Run("missing invoice number", func(t *testing.T) {
		h := newHarness(t)
		err := h.svc.HandlePaymentCallback(context.Background(), models.PaymentCallback{"result": "Y"})
		assert.ErrorIs(t, err, ErrInvalidTransaction)
	})

	t.Run("payment rejected", func(t *testing.T) {
		h := newHarness(t)
		h.expectNotifications()
		h.put(models.TransactionDB{ID: 1, InvoiceID: "INV-1", Status: models.StatusInitiated, AccountID: 7})

		err := h.svc.HandlePaymentCallback(context.Background(), models.PaymentCallback{"invoiceNo": "INV-1", "result": "N"})
		require.NoError(t, err)

		txn := h.store["INV-1"]
		assert.Equal(t, models.StatusFailed, txn.Status)
		assert.True(t, txn.PaymentResponds.Valid)
		assert.JSONEq(t, `{"invoiceNo":"INV-1","result":"N"}`, string(txn.PaymentResponds.JSONText))
		require.NotNil(t, txn.UpdatedAt)
		assert.Equal(t, testNow, *txn.UpdatedAt)
		assert.Equal(t, []string{models.NotificationTransactionFailed}, h.kinds())
		assert.Empty(t, h.tasks)
	})

	t.Run("payment confirmed", func(t *testing.T) {
		h := newHarness(t)
		h.put(models.TransactionDB{ID: 1, InvoiceID: "INV-1", Status: models.StatusInitiated, AccountID: 7})

		err := h.svc.HandlePaymentCallback(context.Background(), models.PaymentCallback{"invoiceNo": "INV-1", "result": "Y", "amount": "50"})
		require.NoError(t, err)

		txn := h.store["INV-1"]
		assert.Equal(t, models.StatusInitiated, txn.Status)
		assert.True(t, txn.PaymentResponds.Valid)
		require.Len(t, h.tasks, 1)
		assert.Equal(t, "fetch-order:INV-1", h.tasks[0].name)
		assert.Equal(t, time.Duration(0), h.tasks[0].delay)
	})

	t.Run("duplicate callback is ignored", func(t *testing.T) {
		h := newHarness(t)
		h.put(models.TransactionDB{ID: 1, InvoiceID: "INV-1", Status: models.StatusInitiated, AccountID: 7})

		cb := models.PaymentCallback{"invoiceNo": "INV-1", "result": "Y"}
		require.NoError(t, h.svc.HandlePaymentCallback(context.Background(), cb))
		require.NoError(t, h.svc.HandlePaymentCallback(context.Background(), cb))

		assert.Len(t, h.tasks, 1)
		assert.Equal(t, 1, h.saves)
	})

	t.Run("late callback on terminal record", func(t *testing.T) {
		h := newHarness(t)
		h.put(models.TransactionDB{ID: 1, InvoiceID: "INV-1", Status: models.StatusCompleted, AccountID: 7})

		err := h.svc.HandlePaymentCallback(context.Background(), models.PaymentCallback{"invoiceNo": "INV-1", "result": "N"})
		require.NoError(t, err)

		assert.Equal(t, models.StatusCompleted, h.store["INV-1"].Status)
		assert.False(t, h.store["INV-1"].PaymentResponds.Valid)
		assert.Zero(t, h.saves)
		assert.Empty(t, h.sent)
	})
}

func paidTransaction(t *testing.T) models.TransactionDB {
	return models.TransactionDB{
		ID:              1,
		InvoiceID:       "INV-1",
		ServiceType:     "airtime",
		AddressReceiver: "0551234567",
		VolumeReceived:  50,
		Status:          models.StatusInitiated,
		PaymentResponds: jsonText(t, map[string]string{"invoiceNo": "INV-1", "result": "Y"}),
		AccountID:       7,
		CreatedAt:       testNow,
	}
}

func TestTransactionService_FetchOrderID(t *testing.T) {
	t.Run("order assigned", func(t *testing.T) {
		h := newHarness(t)
		h.put(paidTransaction(t))
		h.gateway.EXPECT().InitiateOrder(gomock.Any()).Return("O1", nil)

		require.NoError(t, h.svc.FetchOrderID(context.Background(), "INV-1"))

		txn := h.store["INV-1"]
		assert.Equal(t, models.StatusCompletingTransaction, txn.Status)
		require.NotNil(t, txn.OrderID)
		assert.Equal(t, "O1", *txn.OrderID)
		require.Len(t, h.tasks, 1)
		assert.Equal(t, "execute-transfer:INV-1", h.tasks[0].name)
		assert.Equal(t, 9*time.Second, h.tasks[0].delay)
	})

	t.Run("transient failure is retried", func(t *testing.T) {
		h := newHarness(t)
		h.put(paidTransaction(t))
		gomock.InOrder(
			h.gateway.EXPECT().InitiateOrder(gomock.Any()).Return("", facades.ErrGatewayUnavailable),
			h.gateway.EXPECT().InitiateOrder(gomock.Any()).Return("O2", nil),
		)

		require.NoError(t, h.svc.FetchOrderID(context.Background(), "INV-1"))
		assert.Equal(t, "O2", *h.store["INV-1"].OrderID)
	})

	t.Run("retries exhausted", func(t *testing.T) {
		h := newHarness(t)
		h.expectNotifications()
		h.put(paidTransaction(t))
		h.gateway.EXPECT().InitiateOrder(gomock.Any()).Return("", errors.New("timeout")).Times(3)

		err := h.svc.FetchOrderID(context.Background(), "INV-1")
		assert.EqualError(t, err, "timeout")

		txn := h.store["INV-1"]
		assert.Equal(t, models.StatusNeedsReconciliation, txn.Status)
		assert.Nil(t, txn.OrderID)
		assert.Equal(t, []string{models.NotificationTransactionNeedsReconciliation}, h.kinds())
		assert.Empty(t, h.sent[0].Email)
		assert.Empty(t, h.tasks)
	})

	t.Run("no callback recorded", func(t *testing.T) {
		h := newHarness(t)
		txn := paidTransaction(t)
		txn.PaymentResponds = types.NullJSONText{}
		h.put(txn)

		require.NoError(t, h.svc.FetchOrderID(context.Background(), "INV-1"))
		assert.Zero(t, h.saves)
	})
}

func completingTransaction(t *testing.T) models.TransactionDB {
	txn := paidTransaction(t)
	txn.OrderID = strPtr("O1")
	txn.Status = models.StatusCompletingTransaction
	return txn
}

func transferResponse(t *testing.T, statusCode int) *models.ExecuteTransferResponse {
	raw := []byte(`{"statuscode":` + jsonNumber(statusCode) + `,"data":{"cash":"50.00","volume":50,"fee":"1.00"}}`)
	var resp models.ExecuteTransferResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	resp.Raw = raw
	return &resp
}

func jsonNumber(n int) string {
	data, _ := json.Marshal(n)
	return string(data)
}

func TestTransactionService_ExecuteTransfer(t *testing.T) {
	t.Run("response stored", func(t *testing.T) {
		h := newHarness(t)
		h.put(completingTransaction(t))
		h.gateway.EXPECT().ExecuteTransfer(gomock.Any(), "O1", "0551234567", 50.0).Return(transferResponse(t, 202), nil)

		require.NoError(t, h.svc.ExecuteTransfer(context.Background(), "INV-1"))

		txn := h.store["INV-1"]
		assert.Equal(t, models.StatusCompletingTransaction, txn.Status)
		assert.True(t, txn.SendResponds.Valid)
		assert.Equal(t, 50.0, txn.AmountPaid)
		assert.Equal(t, 50.0, txn.VolumeReceived)
		assert.Equal(t, 1.0, txn.Fees)
		require.Len(t, h.tasks, 1)
		assert.Equal(t, "resolve-transfer:INV-1", h.tasks[0].name)
		assert.Equal(t, 5*time.Second, h.tasks[0].delay)
	})

	t.Run("skipped before order id", func(t *testing.T) {
		h := newHarness(t)
		h.put(paidTransaction(t))

		require.NoError(t, h.svc.ExecuteTransfer(context.Background(), "INV-1"))

		assert.Equal(t, models.StatusInitiated, h.store["INV-1"].Status)
		assert.Zero(t, h.saves)
		assert.Empty(t, h.tasks)
	})

	t.Run("skipped when already sent", func(t *testing.T) {
		h := newHarness(t)
		txn := completingTransaction(t)
		txn.SendResponds = jsonText(t, map[string]int{"statuscode": 202})
		h.put(txn)

		require.NoError(t, h.svc.ExecuteTransfer(context.Background(), "INV-1"))
		assert.Zero(t, h.saves)
	})

	t.Run("refused transfer is retried", func(t *testing.T) {
		h := newHarness(t)
		h.put(completingTransaction(t))
		gomock.InOrder(
			h.gateway.EXPECT().ExecuteTransfer(gomock.Any(), "O1", "0551234567", 50.0).
				Return(nil, &facades.GatewayError{Op: "execute transfer", StatusCode: 503}),
			h.gateway.EXPECT().ExecuteTransfer(gomock.Any(), "O1", "0551234567", 50.0).
				Return(transferResponse(t, 202), nil),
		)

		require.NoError(t, h.svc.ExecuteTransfer(context.Background(), "INV-1"))
		assert.True(t, h.store["INV-1"].SendResponds.Valid)
	})

	t.Run("unreadable response is stored and fails", func(t *testing.T) {
		h := newHarness(t)
		h.expectNotifications()
		h.put(completingTransaction(t))
		h.gateway.EXPECT().ExecuteTransfer(gomock.Any(), "O1", "0551234567", 50.0).
			Return(&models.ExecuteTransferResponse{Raw: json.RawMessage(`"<html>ok</html>"`)}, nil)

		require.NoError(t, h.svc.ExecuteTransfer(context.Background(), "INV-1"))

		txn := h.store["INV-1"]
		require.True(t, txn.SendResponds.Valid)
		assert.JSONEq(t, `"<html>ok</html>"`, string(txn.SendResponds.JSONText))

		assert.Equal(t, "resolve-transfer:INV-1", h.runNext(t))
		assert.Equal(t, models.StatusPaymentFailed, h.store["INV-1"].Status)
		assert.Equal(t, []string{models.NotificationTransactionFailed}, h.kinds())
	})

	t.Run("store failure logs the gateway answer", func(t *testing.T) {
		core, logs := observer.New(zap.ErrorLevel)
		original := logger.Log
		logger.Log = zap.New(core).Sugar()
		t.Cleanup(func() { logger.Log = original })

		h := newHarness(t)
		h.put(completingTransaction(t))
		h.saveErr = errors.New("connection closed")
		resp := transferResponse(t, 202)
		h.gateway.EXPECT().ExecuteTransfer(gomock.Any(), "O1", "0551234567", 50.0).Return(resp, nil)

		assert.Error(t, h.svc.ExecuteTransfer(context.Background(), "INV-1"))
		assert.Empty(t, h.tasks)

		entries := logs.FilterMessage("failed to store transfer response").All()
		require.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		assert.Equal(t, string(resp.Raw), fields["body"])
		assert.Equal(t, "O1", fields["order_id"])
		assert.Equal(t, 50.0, fields["cash"])
	})

	t.Run("ambiguous failure is not retried", func(t *testing.T) {
		h := newHarness(t)
		h.expectNotifications()
		h.put(completingTransaction(t))
		h.gateway.EXPECT().ExecuteTransfer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, errors.New("read: connection reset by peer")).Times(1)

		err := h.svc.ExecuteTransfer(context.Background(), "INV-1")
		assert.Error(t, err)

		txn := h.store["INV-1"]
		assert.Equal(t, models.StatusNeedsReconciliation, txn.Status)
		assert.False(t, txn.SendResponds.Valid)
		assert.Equal(t, []string{models.NotificationTransactionNeedsReconciliation}, h.kinds())
	})
}

func TestTransactionService_ResolveTransfer(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantStatus string
		wantKind   string
	}{
		{"accepted", 202, models.StatusCompleted, models.NotificationTransactionCompleted},
		{"rejected", 400, models.StatusPaymentFailed, models.NotificationTransactionFailed},
		{"plain ok is not accepted", 200, models.StatusPaymentFailed, models.NotificationTransactionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.expectNotifications()
			txn := completingTransaction(t)
			txn.SendResponds = jsonText(t, map[string]any{"statuscode": tt.statusCode, "data": map[string]any{}})
			h.put(txn)

			require.NoError(t, h.svc.ResolveTransfer(context.Background(), "INV-1"))
			assert.Equal(t, tt.wantStatus, h.store["INV-1"].Status)
			assert.Equal(t, []string{tt.wantKind}, h.kinds())

			// a second run finds a terminal record
			require.NoError(t, h.svc.ResolveTransfer(context.Background(), "INV-1"))
			assert.Len(t, h.sent, 1)
			assert.Equal(t, 1, h.saves)
		})
	}

	t.Run("string statuscode accepted", func(t *testing.T) {
		h := newHarness(t)
		h.expectNotifications()
		txn := completingTransaction(t)
		txn.SendResponds = jsonText(t, map[string]any{"statuscode": "202", "data": map[string]any{"cash": "50"}})
		h.put(txn)

		require.NoError(t, h.svc.ResolveTransfer(context.Background(), "INV-1"))
		assert.Equal(t, models.StatusCompleted, h.store["INV-1"].Status)
	})

	t.Run("unknown invoice", func(t *testing.T) {
		h := newHarness(t)
		assert.ErrorIs(t, h.svc.ResolveTransfer(context.Background(), "INV-404"), ErrTransactionNotFound)
	})
}

func TestTransactionService_AirtimeEndToEnd(t *testing.T) {
	h := newHarness(t)
	h.expectNotifications()
	ctx := context.Background()

	h.gateway.EXPECT().InitiateOrder(gomock.Any()).Return("O1", nil)
	h.gateway.EXPECT().ExecuteTransfer(gomock.Any(), "O1", "0551234567", 50.0).Return(transferResponse(t, 202), nil)

	_, err := h.svc.Initiate(ctx, airtimeRequest(), 7, "10.0.0.1")
	require.NoError(t, err)

	require.NoError(t, h.svc.HandlePaymentCallback(ctx, models.PaymentCallback{"invoiceNo": "INV-1001", "result": "Y"}))

	assert.Equal(t, "fetch-order:INV-1001", h.runNext(t))
	assert.Equal(t, models.StatusCompletingTransaction, h.store["INV-1001"].Status)

	assert.Equal(t, "execute-transfer:INV-1001", h.runNext(t))
	assert.Equal(t, "resolve-transfer:INV-1001", h.runNext(t))
	assert.Empty(t, h.tasks)

	txn := h.store["INV-1001"]
	assert.Equal(t, models.StatusCompleted, txn.Status)
	assert.Equal(t, "O1", *txn.OrderID)
	assert.Equal(t, 50.0, txn.AmountPaid)
	assert.Equal(t, 50.0, txn.VolumeReceived)
	assert.Equal(t, 1.0, txn.Fees)
	assert.Equal(t, []string{
		models.NotificationTransactionInitiated,
		models.NotificationTransactionCompleted,
	}, h.kinds())

	// a duplicate callback after completion changes nothing
	require.NoError(t, h.svc.HandlePaymentCallback(ctx, models.PaymentCallback{"invoiceNo": "INV-1001", "result": "N"}))
	assert.Equal(t, models.StatusCompleted, h.store["INV-1001"].Status)
	assert.Len(t, h.sent, 2)
}

func TestTransactionService_GetHistory(t *testing.T) {
	t.Run("transactions", func(t *testing.T) {
		h := newHarness(t)
		h.reader.EXPECT().ListByAccountID(gomock.Any(), int64(7)).Return([]models.TransactionDB{
			{ID: 1, InvoiceID: "INV-1", Status: models.StatusCompleted, OrderID: strPtr("O1"), AccountID: 7},
			{ID: 2, InvoiceID: "INV-2", Status: models.StatusInitiated, AccountID: 7},
		}, nil)

		history, err := h.svc.GetHistory(context.Background(), 7)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, "INV-1", history[0].InvoiceID)
		assert.Equal(t, "O1", *history[0].OrderID)
		assert.Nil(t, history[1].OrderID)
	})

	t.Run("empty", func(t *testing.T) {
		h := newHarness(t)
		h.reader.EXPECT().ListByAccountID(gomock.Any(), int64(8)).Return([]models.TransactionDB{}, nil)

		history, err := h.svc.GetHistory(context.Background(), 8)
		require.NoError(t, err)
		assert.NotNil(t, history)
		assert.Empty(t, history)
	})

	t.Run("store error", func(t *testing.T) {
		h := newHarness(t)
		h.reader.EXPECT().ListByAccountID(gomock.Any(), int64(7)).Return(nil, errors.New("db down"))

		history, err := h.svc.GetHistory(context.Background(), 7)
		assert.EqualError(t, err, "db down")
		assert.Nil(t, history)
	})
}

func TestTransactionService_ReconcileStale(t *testing.T) {
	h := newHarness(t)
	h.expectNotifications()

	old := testNow.Add(-time.Hour)
	stuck := completingTransaction(t)
	stuck.CreatedAt = old
	stuck.UpdatedAt = &old
	h.put(stuck)

	waiting := paidTransaction(t)
	waiting.InvoiceID = "INV-2"
	waiting.CreatedAt = old
	h.put(waiting)

	// listed as stalled but completed in the meantime
	moved := completingTransaction(t)
	moved.InvoiceID = "INV-3"
	moved.Status = models.StatusCompleted
	h.put(moved)

	h.reader.EXPECT().ListStalled(gomock.Any(), testNow.Add(-30*time.Minute)).Return([]models.TransactionDB{
		stuck, waiting, {InvoiceID: "INV-3", Status: models.StatusCompletingTransaction, CreatedAt: old},
	}, nil)

	n, err := h.svc.ReconcileStale(context.Background(), 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, models.StatusNeedsReconciliation, h.store["INV-1"].Status)
	assert.Equal(t, models.StatusNeedsReconciliation, h.store["INV-2"].Status)
	assert.Equal(t, models.StatusCompleted, h.store["INV-3"].Status)
	assert.Equal(t, []string{
		models.NotificationTransactionNeedsReconciliation,
		models.NotificationTransactionNeedsReconciliation,
	}, h.kinds())
}

func TestTransactionService_ReconcileStaleListError(t *testing.T) {
	h := newHarness(t)
	h.reader.EXPECT().ListStalled(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

	n, err := h.svc.ReconcileStale(context.Background(), time.Minute)
	assert.Error(t, err)
	assert.Zero(t, n)
}
