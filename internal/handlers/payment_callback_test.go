package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/sbilibin2017/gw-remit/internal/models"
	"github.com/sbilibin2017/gw-remit/internal/services"
	"github.com/stretchr/testify/assert"
)

func TestPaymentCallbackHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockProcessor := NewMockPaymentCallbackProcessor(ctrl)

	tests := []struct {
		name           string
		method         string
		target         string
		contentType    string
		body           io.Reader
		setupMocks     func()
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "query parameters",
			method: http.MethodGet,
			target: "/payments/callback?invoiceNo=INV-1&result=Y&amount=50",
			setupMocks: func() {
				mockProcessor.EXPECT().HandlePaymentCallback(gomock.Any(), models.PaymentCallback{
					"invoiceNo": "INV-1",
					"result":    "Y",
					"amount":    "50",
				}).Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"message":"Callback received"}`,
		},
		{
			name:        "json body",
			method:      http.MethodPost,
			target:      "/payments/callback",
			contentType: "application/json",
			body:        strings.NewReader(`{"invoiceNo":"INV-1","result":"N","extra":{"code":17}}`),
			setupMocks: func() {
				mockProcessor.EXPECT().HandlePaymentCallback(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ interface{}, payload models.PaymentCallback) error {
						assert.Equal(t, "INV-1", payload.InvoiceNo())
						assert.False(t, payload.Succeeded())
						assert.Contains(t, payload, "extra")
						return nil
					})
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "json body with numeric invoice",
			method:      http.MethodPost,
			target:      "/payments/callback",
			contentType: "application/json",
			body:        strings.NewReader(`{"invoiceNo":20240315001,"result":"Y"}`),
			setupMocks: func() {
				mockProcessor.EXPECT().HandlePaymentCallback(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ interface{}, payload models.PaymentCallback) error {
						assert.Equal(t, "20240315001", payload.InvoiceNo())
						assert.True(t, payload.Succeeded())
						raw, err := json.Marshal(payload)
						assert.NoError(t, err)
						assert.JSONEq(t, `{"invoiceNo":20240315001,"result":"Y"}`, string(raw))
						return nil
					})
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "form body",
			method:      http.MethodPost,
			target:      "/payments/callback",
			contentType: "application/x-www-form-urlencoded",
			body:        strings.NewReader("invoiceNo=INV-2&result=Y"),
			setupMocks: func() {
				mockProcessor.EXPECT().HandlePaymentCallback(gomock.Any(), models.PaymentCallback{
					"invoiceNo": "INV-2",
					"result":    "Y",
				}).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "malformed json",
			method:         http.MethodPost,
			target:         "/payments/callback",
			contentType:    "application/json",
			body:           strings.NewReader(`{"invoiceNo":`),
			setupMocks:     func() {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "missing invoice",
			method: http.MethodGet,
			target: "/payments/callback?result=Y",
			setupMocks: func() {
				mockProcessor.EXPECT().HandlePaymentCallback(gomock.Any(), gomock.Any()).
					Return(fmt.Errorf("%w: invoiceNo is required", services.ErrInvalidTransaction))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "unknown invoice",
			method: http.MethodGet,
			target: "/payments/callback?invoiceNo=INV-404&result=Y",
			setupMocks: func() {
				mockProcessor.EXPECT().HandlePaymentCallback(gomock.Any(), gomock.Any()).
					Return(services.ErrTransactionNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"error":"Transaction not found"}`,
		},
		{
			name:   "store failure",
			method: http.MethodGet,
			target: "/payments/callback?invoiceNo=INV-1&result=Y",
			setupMocks: func() {
				mockProcessor.EXPECT().HandlePaymentCallback(gomock.Any(), gomock.Any()).
					Return(errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMocks()
			handler := NewPaymentCallbackHandler(mockProcessor)

			req := httptest.NewRequest(tt.method, tt.target, tt.body)
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, rr.Body.String())
			}
		})
	}
}
