package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pzyt/crystal-healing/internal/domain"
	"github.com/pzyt/crystal-healing/internal/infra/alipay"
)

type createPaymentResponse struct {
	Payment    *domain.Payment `json:"payment"`
	PaymentURL string          `json:"payment_url"`
	Mock       bool            `json:"mock"`
}

// handleCreatePayment opens a pending order for the fixed credit package
// and returns the gateway redirect URL. Without merchant credentials the
// order is still created, pointed at the mock completion flow.
func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	payment := &domain.Payment{
		UserID:       claims.UserID,
		Amount:       s.payments.PackagePrice,
		Currency:     "CNY",
		Status:       domain.PaymentPending,
		Method:       "alipay",
		OutTradeNo:   newOrderNo(),
		CreditsAdded: s.payments.PackageCredits,
	}
	if err := s.store.CreatePayment(payment); err != nil {
		s.writeDomainError(w, err)
		return
	}

	resp := createPaymentResponse{Payment: payment}
	if s.alipay.Configured() {
		url, err := s.alipay.PagePayURL(alipay.Order{
			OutTradeNo:  payment.OutTradeNo,
			TotalAmount: payment.Amount,
			Subject:     "水晶疗愈测算次数",
			Body:        fmt.Sprintf("%d次测算", payment.CreditsAdded),
		})
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		resp.PaymentURL = url
	} else {
		resp.PaymentURL = fmt.Sprintf("/payment/mock?id=%d&amount=%.2f", payment.ID, payment.Amount)
		resp.Mock = true
	}
	writeJSON(w, http.StatusCreated, resp)
}

// handleAlipayNotify is the gateway's async webhook. The gateway expects the
// literal body "success" once the notification is accepted; anything else
// makes it retry.
func (s *Server) handleAlipayNotify(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeNotifyResult(w, false)
		return
	}
	if err := s.alipay.VerifyNotification(r.PostForm); err != nil {
		s.log.Warn("alipay notification rejected", zap.Error(err))
		writeNotifyResult(w, false)
		return
	}

	outTradeNo := r.PostForm.Get("out_trade_no")
	tradeNo := r.PostForm.Get("trade_no")
	switch r.PostForm.Get("trade_status") {
	case "TRADE_SUCCESS", "TRADE_FINISHED":
		_, err := s.store.SettlePayment(outTradeNo, tradeNo)
		if err != nil && !errors.Is(err, domain.ErrPaymentSettled) {
			// Replays of a settled order are acknowledged; real failures
			// are not, so the gateway retries.
			s.log.Error("settle payment", zap.String("out_trade_no", outTradeNo), zap.Error(err))
			writeNotifyResult(w, false)
			return
		}
		s.log.Info("payment settled", zap.String("out_trade_no", outTradeNo), zap.String("trade_no", tradeNo))
	case "TRADE_CLOSED":
		if err := s.store.MarkPaymentFailed(outTradeNo); err != nil && !errors.Is(err, domain.ErrPaymentNotFound) {
			writeNotifyResult(w, false)
			return
		}
	}
	writeNotifyResult(w, true)
}

// handleMockPaymentSuccess settles an order without the gateway, for
// development and tests. Same idempotency rules as the real webhook.
func (s *Server) handleMockPaymentSuccess(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PaymentID int64 `json:"payment_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := claimsFrom(r.Context())
	payment, err := s.store.PaymentByID(claims.UserID, req.PaymentID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	settled, err := s.store.SettlePayment(payment.OutTradeNo, "MOCK-"+uuid.NewString())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"payment": settled})
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	list, err := s.store.ListPayments(claims.UserID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"payments": list})
}

func (s *Server) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid payment id")
		return
	}

	claims := claimsFrom(r.Context())
	payment, err := s.store.PaymentByID(claims.UserID, id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"payment": payment})
}

func newOrderNo() string {
	return fmt.Sprintf("CH-%s-%s", time.Now().Format("20060102"), uuid.NewString()[:8])
}

func writeNotifyResult(w http.ResponseWriter, ok bool) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if ok {
		w.Write([]byte("success"))
		return
	}
	w.WriteHeader(http.StatusBadRequest)
	w.Write([]byte("failure"))
}
