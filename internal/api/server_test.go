package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
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

func newTestServer(t *testing.T) (*Server, *sqlite.DB) {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.SeedCrystals(); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.Server.AllowedOrigins = []string{"*"}

	gen := narrative.NewGenerator(narrative.Config{}, zap.NewNop())
	svc := prediction.NewService(db, gen, zap.NewNop())
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	pay, err := alipay.New(alipay.Config{})
	if err != nil {
		t.Fatal(err)
	}
	return NewServer(db, svc, tokens, pay, cfg, zap.NewNop()), db
}

// do runs one request against the router and decodes the JSON body.
func do(t *testing.T, s *Server, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	parsed := map[string]any{}
	if rec.Body.Len() > 0 && strings.Contains(rec.Header().Get("Content-Type"), "json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &parsed); err != nil {
			t.Fatalf("response not JSON: %v\n%s", err, rec.Body.String())
		}
	}
	return rec, parsed
}

// register creates an account and returns its token.
func register(t *testing.T, s *Server, email string) string {
	t.Helper()
	rec, body := do(t, s, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": email, "password": "password123", "full_name": "测试用户",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d: %s", rec.Code, rec.Body.String())
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("no token in register response")
	}
	return token
}

// ─── Auth ───────────────────────────────────────────────────────────────────

func TestRegister(t *testing.T) {
	s, _ := newTestServer(t)
	rec, body := do(t, s, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "A@Example.com", "password": "password123", "full_name": "张三",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	user := body["user"].(map[string]any)
	if user["email"] != "a@example.com" {
		t.Errorf("email = %v, want lowercased", user["email"])
	}
	if user["prediction_count"] != float64(1) {
		t.Errorf("credits = %v, want 1 free credit", user["prediction_count"])
	}
	if _, leaked := user["password_hash"]; leaked {
		t.Error("password hash leaked in response")
	}
}

func TestRegister_Validation(t *testing.T) {
	s, _ := newTestServer(t)
	for name, req := range map[string]map[string]string{
		"bad email":      {"email": "nope", "password": "password123"},
		"short password": {"email": "a@example.com", "password": "123"},
	} {
		rec, _ := do(t, s, http.MethodPost, "/api/auth/register", "", req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", name, rec.Code)
		}
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	s, _ := newTestServer(t)
	register(t, s, "a@example.com")
	rec, _ := do(t, s, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "a@example.com", "password": "password123",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestLogin(t *testing.T) {
	s, _ := newTestServer(t)
	register(t, s, "a@example.com")

	rec, body := do(t, s, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "a@example.com", "password": "password123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if body["token"] == "" {
		t.Error("no token")
	}

	rec, _ = do(t, s, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "a@example.com", "password": "wrong-password",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d, want 401", rec.Code)
	}

	// Unknown email gets the same answer as a wrong password.
	rec, _ = do(t, s, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ghost@example.com", "password": "password123",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unknown email status = %d, want 401", rec.Code)
	}
}

func TestMe_RequiresToken(t *testing.T) {
	s, _ := newTestServer(t)
	token := register(t, s, "a@example.com")

	rec, _ := do(t, s, http.MethodGet, "/api/auth/me", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", rec.Code)
	}
	rec, _ = do(t, s, http.MethodGet, "/api/auth/me", "garbage-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token status = %d, want 401", rec.Code)
	}

	rec, body := do(t, s, http.MethodGet, "/api/auth/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["user"].(map[string]any)["email"] != "a@example.com" {
		t.Error("wrong user returned")
	}
}

func TestVerify(t *testing.T) {
	s, _ := newTestServer(t)
	token := register(t, s, "a@example.com")

	rec, body := do(t, s, http.MethodPost, "/api/auth/verify", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["valid"] != true {
		t.Error("valid != true")
	}
}

func TestUpdateProfile(t *testing.T) {
	s, _ := newTestServer(t)
	token := register(t, s, "a@example.com")

	rec, body := do(t, s, http.MethodPut, "/api/users/profile", token, map[string]string{"full_name": "新名字"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if body["user"].(map[string]any)["full_name"] != "新名字" {
		t.Error("display name not updated")
	}
}

// ─── Predictions ────────────────────────────────────────────────────────────

func TestCreatePrediction(t *testing.T) {
	s, _ := newTestServer(t)
	token := register(t, s, "a@example.com")

	rec, body := do(t, s, http.MethodPost, "/api/predictions", token, map[string]string{
		"birth_date": "1990-05-15", "birth_time": "14:30", "birth_location": "北京",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if body["remaining_credits"] != float64(0) {
		t.Errorf("remaining_credits = %v, want 0", body["remaining_credits"])
	}

	pred := body["prediction"].(map[string]any)
	for _, key := range []string{"chart", "element_analysis", "fortune", "feng_shui_advice", "crystal_recommendations", "narrative"} {
		if _, ok := pred[key]; !ok {
			t.Errorf("prediction missing %q", key)
		}
	}
}

func TestCreatePrediction_ExhaustedCredits(t *testing.T) {
	s, _ := newTestServer(t)
	token := register(t, s, "a@example.com")

	input := map[string]string{"birth_date": "1990-05-15", "birth_time": "14:30"}
	if rec, _ := do(t, s, http.MethodPost, "/api/predictions", token, input); rec.Code != http.StatusCreated {
		t.Fatal("first prediction failed")
	}

	rec, body := do(t, s, http.MethodPost, "/api/predictions", token, input)
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d, want 402", rec.Code)
	}
	errObj := body["error"].(map[string]any)
	if errObj["need_payment"] != true {
		t.Error("need_payment flag missing")
	}
}

func TestCreatePrediction_BadInput(t *testing.T) {
	s, _ := newTestServer(t)
	token := register(t, s, "a@example.com")

	rec, _ := do(t, s, http.MethodPost, "/api/predictions", token, map[string]string{
		"birth_date": "1990-13-45", "birth_time": "14:30",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	rec, _ = do(t, s, http.MethodPost, "/api/predictions", token, map[string]string{"birth_date": "1990-05-15"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing birth_time status = %d, want 400", rec.Code)
	}
}

func TestPredictionHistoryAndDetail(t *testing.T) {
	s, db := newTestServer(t)
	token := register(t, s, "a@example.com")
	other := register(t, s, "other@example.com")

	user, _ := db.UserByEmail("a@example.com")
	db.AddCredits(user.ID, 1)

	input := map[string]string{"birth_date": "1990-05-15", "birth_time": "14:30"}
	do(t, s, http.MethodPost, "/api/predictions", token, input)
	do(t, s, http.MethodPost, "/api/predictions", token, input)

	rec, body := do(t, s, http.MethodGet, "/api/predictions?page=1&page_size=1", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["total"] != float64(2) {
		t.Errorf("total = %v, want 2", body["total"])
	}
	if n := len(body["predictions"].([]any)); n != 1 {
		t.Errorf("page of 1 returned %d items", n)
	}

	first := body["predictions"].([]any)[0].(map[string]any)
	id := int64(first["id"].(float64))

	rec, _ = do(t, s, http.MethodGet, fmt.Sprintf("/api/predictions/%d", id), token, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("detail status = %d", rec.Code)
	}

	// Another user cannot read it.
	rec, _ = do(t, s, http.MethodGet, fmt.Sprintf("/api/predictions/%d", id), other, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("cross-user detail status = %d, want 404", rec.Code)
	}
}

// ─── Payments ───────────────────────────────────────────────────────────────

func TestCreatePayment_MockWithoutGateway(t *testing.T) {
	s, _ := newTestServer(t)
	token := register(t, s, "a@example.com")

	rec, body := do(t, s, http.MethodPost, "/api/payments", token, map[string]any{})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if body["mock"] != true {
		t.Error("mock flag missing without gateway credentials")
	}
	if !strings.HasPrefix(body["payment_url"].(string), "/payment/mock") {
		t.Errorf("payment_url = %v", body["payment_url"])
	}
	payment := body["payment"].(map[string]any)
	if payment["amount"] != float64(5) {
		t.Errorf("amount = %v, want 5", payment["amount"])
	}
	if payment["status"] != "pending" {
		t.Errorf("status = %v, want pending", payment["status"])
	}
}

func TestMockPaymentSuccess_GrantsCreditsOnce(t *testing.T) {
	s, db := newTestServer(t)
	token := register(t, s, "a@example.com")

	_, body := do(t, s, http.MethodPost, "/api/payments", token, map[string]any{})
	paymentID := int64(body["payment"].(map[string]any)["id"].(float64))

	rec, body := do(t, s, http.MethodPost, "/api/payments/mock/success", token, map[string]any{"payment_id": paymentID})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if body["payment"].(map[string]any)["status"] != "success" {
		t.Error("payment not settled")
	}

	user, _ := db.UserByEmail("a@example.com")
	if user.Credits != 3 {
		t.Errorf("credits = %d, want 1 free + 2 purchased", user.Credits)
	}

	// Replay must not grant again.
	rec, _ = do(t, s, http.MethodPost, "/api/payments/mock/success", token, map[string]any{"payment_id": paymentID})
	if rec.Code != http.StatusConflict {
		t.Errorf("replay status = %d, want 409", rec.Code)
	}
	user, _ = db.UserByEmail("a@example.com")
	if user.Credits != 3 {
		t.Errorf("credits after replay = %d, want 3", user.Credits)
	}
}

func TestMockPaymentSuccess_OwnerScoped(t *testing.T) {
	s, _ := newTestServer(t)
	token := register(t, s, "a@example.com")
	other := register(t, s, "other@example.com")

	_, body := do(t, s, http.MethodPost, "/api/payments", token, map[string]any{})
	paymentID := int64(body["payment"].(map[string]any)["id"].(float64))

	rec, _ := do(t, s, http.MethodPost, "/api/payments/mock/success", other, map[string]any{"payment_id": paymentID})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for another user's order", rec.Code)
	}
}

func TestPaymentListAndDetail(t *testing.T) {
	s, _ := newTestServer(t)
	token := register(t, s, "a@example.com")

	_, body := do(t, s, http.MethodPost, "/api/payments", token, map[string]any{})
	paymentID := int64(body["payment"].(map[string]any)["id"].(float64))

	rec, body := do(t, s, http.MethodGet, "/api/payments", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	if len(body["payments"].([]any)) != 1 {
		t.Error("expected one payment")
	}

	rec, _ = do(t, s, http.MethodGet, fmt.Sprintf("/api/payments/%d", paymentID), token, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("detail status = %d", rec.Code)
	}
}

func TestAlipayNotify_RejectedWithoutValidSignature(t *testing.T) {
	s, _ := newTestServer(t)

	form := url.Values{
		"out_trade_no": {"CH-1"},
		"trade_status": {"TRADE_SUCCESS"},
		"sign":         {"Zm9yZ2Vk"},
		"sign_type":    {"RSA2"},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/payments/alipay/notify", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if rec.Body.String() != "failure" {
		t.Errorf("body = %q, want failure", rec.Body.String())
	}
}

// ─── Crystals ───────────────────────────────────────────────────────────────

func TestCrystalEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	rec, body := do(t, s, http.MethodGet, "/api/crystals", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	crystals := body["crystals"].([]any)
	if len(crystals) != 8 {
		t.Fatalf("catalog size = %d, want 8", len(crystals))
	}

	rec, body = do(t, s, http.MethodGet, "/api/crystals/search?q=Quartz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("search status = %d", rec.Code)
	}
	if len(body["crystals"].([]any)) != 2 {
		t.Errorf("search Quartz = %d results, want 2", len(body["crystals"].([]any)))
	}

	rec, body = do(t, s, http.MethodGet, "/api/crystals/element/wood", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("element status = %d", rec.Code)
	}
	if len(body["crystals"].([]any)) != 1 {
		t.Errorf("wood crystals = %d, want 1", len(body["crystals"].([]any)))
	}

	rec, _ = do(t, s, http.MethodGet, "/api/crystals/element/plasma", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown element status = %d, want 400", rec.Code)
	}

	rec, body = do(t, s, http.MethodGet, "/api/crystals/stats", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d", rec.Code)
	}
	if body["total"] != float64(8) {
		t.Errorf("total = %v, want 8", body["total"])
	}

	first := crystals[0].(map[string]any)
	rec, _ = do(t, s, http.MethodGet, fmt.Sprintf("/api/crystals/%.0f", first["id"].(float64)), "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("detail status = %d", rec.Code)
	}

	rec, _ = do(t, s, http.MethodGet, "/api/crystals/9999", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing crystal status = %d, want 404", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec, body := do(t, s, http.MethodGet, "/api/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v", body["status"])
	}
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/crystals", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("preflight status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("no CORS allow-origin header")
	}
}
