// Package alipay builds and verifies RSA2-signed requests against the
// Alipay open gateway. Only the page-pay and async-notification flows are
// implemented; order state lives in the store, not here.
package alipay

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/pzyt/crystal-healing/internal/domain"
)

const (
	DefaultGateway = "https://openapi.alipay.com/gateway.do"

	signType        = "RSA2"
	format          = "JSON"
	charset         = "utf-8"
	version         = "1.0"
	timestampLayout = "2006-01-02 15:04:05"
)

// Config carries the merchant credentials. Keys are PEM-encoded; the private
// key signs outgoing requests, the Alipay public key verifies notifications.
type Config struct {
	AppID         string
	PrivateKeyPEM string
	PublicKeyPEM  string
	Gateway       string
	ReturnURL     string
	NotifyURL     string
}

// Order is one page-pay request.
type Order struct {
	OutTradeNo  string
	TotalAmount float64
	Subject     string
	Body        string
}

// Client signs page-pay URLs and verifies notification callbacks.
type Client struct {
	cfg        Config
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	now        func() time.Time
}

// New parses the configured keys. Missing credentials are not an error:
// the client reports itself unconfigured and the caller falls back to mock
// payments.
func New(cfg Config) (*Client, error) {
	if cfg.Gateway == "" {
		cfg.Gateway = DefaultGateway
	}
	c := &Client{cfg: cfg, now: time.Now}

	if cfg.PrivateKeyPEM != "" {
		key, err := parsePrivateKey(cfg.PrivateKeyPEM)
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		c.privateKey = key
	}
	if cfg.PublicKeyPEM != "" {
		key, err := parsePublicKey(cfg.PublicKeyPEM)
		if err != nil {
			return nil, fmt.Errorf("parse public key: %w", err)
		}
		c.publicKey = key
	}
	return c, nil
}

// Configured reports whether real payments can be signed.
func (c *Client) Configured() bool {
	return c.cfg.AppID != "" && c.privateKey != nil
}

// PagePayURL builds the signed redirect URL for a page-pay order.
func (c *Client) PagePayURL(order Order) (string, error) {
	if !c.Configured() {
		return "", errors.New("alipay credentials not configured")
	}

	bizContent, err := json.Marshal(map[string]any{
		"out_trade_no":    order.OutTradeNo,
		"total_amount":    fmt.Sprintf("%.2f", order.TotalAmount),
		"subject":         order.Subject,
		"body":            order.Body,
		"product_code":    "FAST_INSTANT_TRADE_PAY",
		"timeout_express": "10m",
	})
	if err != nil {
		return "", err
	}

	params := map[string]string{
		"app_id":      c.cfg.AppID,
		"method":      "alipay.trade.page.pay",
		"format":      format,
		"return_url":  c.cfg.ReturnURL,
		"notify_url":  c.cfg.NotifyURL,
		"charset":     charset,
		"sign_type":   signType,
		"timestamp":   c.now().Format(timestampLayout),
		"version":     version,
		"biz_content": string(bizContent),
	}

	sign, err := c.sign(params)
	if err != nil {
		return "", err
	}
	params["sign"] = sign

	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}
	return c.cfg.Gateway + "?" + query.Encode(), nil
}

// VerifyNotification checks the RSA2 signature on an async notification.
// sign and sign_type are excluded from the signed string, per the gateway
// protocol.
func (c *Client) VerifyNotification(values url.Values) error {
	if c.publicKey == nil {
		return errors.New("alipay public key not configured")
	}
	if values.Get("sign_type") != signType {
		return domain.ErrInvalidSignature
	}
	sig, err := base64.StdEncoding.DecodeString(values.Get("sign"))
	if err != nil {
		return domain.ErrInvalidSignature
	}

	params := make(map[string]string, len(values))
	for k := range values {
		if k == "sign" || k == "sign_type" {
			continue
		}
		params[k] = values.Get(k)
	}

	digest := sha256.Sum256([]byte(signString(params)))
	if err := rsa.VerifyPKCS1v15(c.publicKey, crypto.SHA256, digest[:], sig); err != nil {
		return domain.ErrInvalidSignature
	}
	return nil
}

func (c *Client) sign(params map[string]string) (string, error) {
	digest := sha256.Sum256([]byte(signString(params)))
	sig, err := rsa.SignPKCS1v15(rand.Reader, c.privateKey, crypto.SHA256, digest[:])
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// signString is the canonical form: empty values dropped, keys sorted,
// joined as k=v with & separators, unescaped.
func signString(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	return strings.Join(pairs, "&")
}

func parsePrivateKey(pemStr string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemStr))
	if block == nil {
		return nil, errors.New("no PEM block found")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("not an RSA private key")
	}
	return key, nil
}

func parsePublicKey(pemStr string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemStr))
	if block == nil {
		return nil, errors.New("no PEM block found")
	}
	if key, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("not an RSA public key")
	}
	return key, nil
}
