package api

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pzyt/crystal-healing/internal/app/narrative"
	"github.com/pzyt/crystal-healing/internal/app/prediction"
	"github.com/pzyt/crystal-healing/internal/config"
	"github.com/pzyt/crystal-healing/internal/infra/alipay"
	"github.com/pzyt/crystal-healing/internal/infra/auth"
	"github.com/pzyt/crystal-healing/internal/infra/sqlite"
)

// newGatewayServer builds a server whose alipay client trusts the returned
// signing key, standing in for the real gateway.
func newGatewayServer(t *testing.T) (*Server, *sqlite.DB, *rsa.PrivateKey) {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.SeedCrystals(); err != nil {
		t.Fatal(err)
	}

	gatewayKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	pubPEM := string(pem.EncodeToMemory(&pem.Block{
		Type: "RSA PUBLIC KEY", Bytes: x509.MarshalPKCS1PublicKey(&gatewayKey.PublicKey),
	}))
	pay, err := alipay.New(alipay.Config{PublicKeyPEM: pubPEM})
	if err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	gen := narrative.NewGenerator(narrative.Config{}, zap.NewNop())
	svc := prediction.NewService(db, gen, zap.NewNop())
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	return NewServer(db, svc, tokens, pay, cfg, zap.NewNop()), db, gatewayKey
}

// signedNotifyForm signs the notification fields the way the gateway does.
func signedNotifyForm(t *testing.T, key *rsa.PrivateKey, fields map[string]string) string {
	t.Helper()
	keys := make([]string, 0, len(fields))
	for k, v := range fields {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+fields[k])
	}
	digest := sha256.Sum256([]byte(strings.Join(pairs, "&")))
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		t.Fatal(err)
	}

	form := make([]string, 0, len(fields)+2)
	for k, v := range fields {
		form = append(form, k+"="+v)
	}
	form = append(form, "sign="+url.QueryEscape(base64.StdEncoding.EncodeToString(sig)))
	form = append(form, "sign_type=RSA2")
	// Build form body without percent-encoding surprises for these values.
	return strings.Join(form, "&")
}

func postNotify(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/payments/alipay/notify", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestAlipayNotify_SettlesOrder(t *testing.T) {
	s, db, gatewayKey := newGatewayServer(t)
	token := register(t, s, "buyer@example.com")

	_, body := do(t, s, http.MethodPost, "/api/payments", token, map[string]any{})
	orderNo := body["payment"].(map[string]any)["out_trade_no"].(string)

	form := signedNotifyForm(t, gatewayKey, map[string]string{
		"out_trade_no": orderNo,
		"trade_no":     "2024011522001",
		"trade_status": "TRADE_SUCCESS",
		"total_amount": "5.00",
	})

	rec := postNotify(t, s, form)
	if rec.Code != http.StatusOK || rec.Body.String() != "success" {
		t.Fatalf("notify = %d %q, want 200 success", rec.Code, rec.Body.String())
	}

	user, _ := db.UserByEmail("buyer@example.com")
	if user.Credits != 3 {
		t.Errorf("credits = %d, want 1 free + 2 purchased", user.Credits)
	}

	// The gateway retries notifications; a replay must ack without paying
	// out twice.
	rec = postNotify(t, s, form)
	if rec.Code != http.StatusOK || rec.Body.String() != "success" {
		t.Fatalf("replay notify = %d %q, want 200 success", rec.Code, rec.Body.String())
	}
	user, _ = db.UserByEmail("buyer@example.com")
	if user.Credits != 3 {
		t.Errorf("credits after replay = %d, want 3", user.Credits)
	}
}

func TestAlipayNotify_TradeClosedMarksFailed(t *testing.T) {
	s, db, gatewayKey := newGatewayServer(t)
	token := register(t, s, "buyer@example.com")

	_, body := do(t, s, http.MethodPost, "/api/payments", token, map[string]any{})
	orderNo := body["payment"].(map[string]any)["out_trade_no"].(string)

	form := signedNotifyForm(t, gatewayKey, map[string]string{
		"out_trade_no": orderNo,
		"trade_no":     "2024011522002",
		"trade_status": "TRADE_CLOSED",
	})
	rec := postNotify(t, s, form)
	if rec.Code != http.StatusOK {
		t.Fatalf("notify = %d", rec.Code)
	}

	payment, err := db.PaymentByOrderNo(orderNo)
	if err != nil {
		t.Fatal(err)
	}
	if string(payment.Status) != "failed" {
		t.Errorf("status = %q, want failed", payment.Status)
	}

	user, _ := db.UserByEmail("buyer@example.com")
	if user.Credits != 1 {
		t.Errorf("credits = %d, want unchanged", user.Credits)
	}
}
