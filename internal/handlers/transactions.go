package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sbilibin2017/gw-remit/internal/jwt"
	"github.com/sbilibin2017/gw-remit/internal/logger"
	"github.com/sbilibin2017/gw-remit/internal/models"
	"github.com/sbilibin2017/gw-remit/internal/services"
)

//go:generate mockgen -source=transactions.go -destination=transactions_mock.go -package=handlers

// TransactionTokener defines only the methods needed by the transaction handlers.
type TransactionTokener interface {
	GetTokenFromRequest(ctx context.Context, r *http.Request) (string, error)
	GetClaims(ctx context.Context, tokenString string) (*jwt.Claims, error)
}

// TransactionInitiator starts new transactions.
type TransactionInitiator interface {
	Initiate(ctx context.Context, req models.InitiateTransactionRequest, accountID int64, sourceIP string) (*models.TransactionDB, error)
}

// TransactionHistoryReader lists the transactions of an account.
type TransactionHistoryReader interface {
	GetHistory(ctx context.Context, accountID int64) ([]models.TransactionDetails, error)
}

// NewInitiateTransactionHandler returns an HTTP handler that starts a transaction.
// @Summary Initiate transaction
// @Description Records a new transfer awaiting the payment front-end callback
// @Tags transactions
// @Accept json
// @Produce json
// @Param request body models.InitiateTransactionRequest true "Transaction parameters"
// @Success 201 {object} models.InitiateTransactionResponse "Transaction initiated"
// @Failure 400 {object} models.TransactionErrorResponse "Invalid transaction parameters"
// @Failure 401 {object} models.TransactionErrorResponse "Unauthorized"
// @Failure 409 {object} models.TransactionErrorResponse "Invoice already exists"
// @Failure 500 {object} models.TransactionErrorResponse "Internal server error"
// @Router /transactions [post]
// @Security BearerAuth
func NewInitiateTransactionHandler(
	initiator TransactionInitiator,
	tokenGetter TransactionTokener,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		claims, ok := authorize(w, r, tokenGetter)
		if !ok {
			return
		}

		var req models.InitiateTransactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Log.Warnw("invalid initiate transaction body", "error", err)
			writeJSON(w, http.StatusBadRequest, models.TransactionErrorResponse{Error: "Invalid request body"})
			return
		}

		txn, err := initiator.Initiate(ctx, req, claims.AccountID, clientIP(r))
		switch {
		case errors.Is(err, services.ErrInvalidTransaction):
			writeJSON(w, http.StatusBadRequest, models.TransactionErrorResponse{Error: err.Error()})
			return
		case errors.Is(err, services.ErrInvoiceAlreadyExists):
			writeJSON(w, http.StatusConflict, models.TransactionErrorResponse{Error: "Invoice already exists"})
			return
		case err != nil:
			logger.Log.Errorw("failed to initiate transaction", "account_id", claims.AccountID, "invoice_id", req.InvoiceID, "error", err)
			writeJSON(w, http.StatusInternalServerError, models.TransactionErrorResponse{Error: "Internal server error"})
			return
		}

		writeJSON(w, http.StatusCreated, models.InitiateTransactionResponse{
			Message:     "Transaction initiated",
			Transaction: models.NewTransactionDetails(txn),
		})
	}
}

// RegisterInitiateTransactionHandler registers the initiation route
func RegisterInitiateTransactionHandler(r chi.Router, h http.HandlerFunc) {
	r.Post("/transactions", h)
}

// NewGetTransactionHistoryHandler returns an HTTP handler listing the caller's transactions.
// @Summary Transaction history
// @Description Returns every transaction of the authenticated account
// @Tags transactions
// @Produce json
// @Success 200 {object} models.TransactionHistoryResponse "Transactions"
// @Failure 401 {object} models.TransactionErrorResponse "Unauthorized"
// @Failure 500 {object} models.TransactionErrorResponse "Internal server error"
// @Router /transactions [get]
// @Security BearerAuth
func NewGetTransactionHistoryHandler(
	reader TransactionHistoryReader,
	tokenGetter TransactionTokener,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := authorize(w, r, tokenGetter)
		if !ok {
			return
		}

		history, err := reader.GetHistory(r.Context(), claims.AccountID)
		if err != nil {
			logger.Log.Errorw("failed to get transaction history", "account_id", claims.AccountID, "error", err)
			writeJSON(w, http.StatusInternalServerError, models.TransactionErrorResponse{Error: "Internal server error"})
			return
		}

		writeJSON(w, http.StatusOK, models.TransactionHistoryResponse{Transactions: history})
	}
}

// RegisterGetTransactionHistoryHandler registers the history route
func RegisterGetTransactionHistoryHandler(r chi.Router, h http.HandlerFunc) {
	r.Get("/transactions", h)
}

func authorize(w http.ResponseWriter, r *http.Request, tokenGetter TransactionTokener) (*jwt.Claims, bool) {
	ctx := r.Context()

	tokenStr, err := tokenGetter.GetTokenFromRequest(ctx, r)
	if err != nil {
		logger.Log.Warnw("unauthorized request: missing or invalid token", "uri", r.RequestURI)
		writeJSON(w, http.StatusUnauthorized, models.TransactionErrorResponse{Error: "Unauthorized"})
		return nil, false
	}

	claims, err := tokenGetter.GetClaims(ctx, tokenStr)
	if err != nil {
		logger.Log.Warnw("failed to parse token claims", "error", err)
		writeJSON(w, http.StatusUnauthorized, models.TransactionErrorResponse{Error: "Unauthorized"})
		return nil, false
	}
	return claims, true
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
