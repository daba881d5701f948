package notifications

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"

	"github.com/donhangtem/orderboard-backend/pkg/config"
	"github.com/donhangtem/orderboard-backend/pkg/db/models"
)

// ErrSubscriptionGone signals the push service no longer knows the endpoint.
// The caller should prune the subscription.
var ErrSubscriptionGone = errors.New("push subscription gone")

const (
	recordSize      = 4096
	vapidTokenTTL   = 12 * time.Hour
	maxErrorBodyLen = 1024
)

// WebPushClient delivers Web Push messages: VAPID-signed requests carrying
// an aes128gcm-encrypted payload, per RFC 8291/8292.
type WebPushClient struct {
	httpClient *http.Client
	privateKey *ecdsa.PrivateKey
	publicKey  string
	subject    string
	ttl        time.Duration
}

// NewWebPushClient builds a push client from the configured VAPID key pair.
func NewWebPushClient(cfg config.WebPushConfig) (*WebPushClient, error) {
	if cfg.VAPIDPublicKey == "" || cfg.VAPIDPrivateKey == "" {
		return nil, fmt.Errorf("vapid key pair required")
	}
	key, err := parseVAPIDPrivateKey(cfg.VAPIDPrivateKey)
	if err != nil {
		return nil, err
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &WebPushClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		privateKey: key,
		publicKey:  cfg.VAPIDPublicKey,
		subject:    cfg.Subject,
		ttl:        ttl,
	}, nil
}

// Send encrypts the payload for one subscription and posts it to the
// endpoint. A 404 or 410 response returns ErrSubscriptionGone.
func (c *WebPushClient) Send(ctx context.Context, subscription models.PushSubscription, payload []byte) error {
	clientKey, err := base64.RawURLEncoding.DecodeString(subscription.P256DH)
	if err != nil {
		return fmt.Errorf("decode p256dh: %w", err)
	}
	authSecret, err := base64.RawURLEncoding.DecodeString(subscription.Auth)
	if err != nil {
		return fmt.Errorf("decode auth secret: %w", err)
	}

	body, err := encryptPayload(clientKey, authSecret, payload)
	if err != nil {
		return fmt.Errorf("encrypt payload: %w", err)
	}

	token, err := c.vapidToken(subscription.Endpoint)
	if err != nil {
		return fmt.Errorf("sign vapid token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, subscription.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Encoding", "aes128gcm")
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("TTL", fmt.Sprintf("%d", int(c.ttl.Seconds())))
	req.Header.Set("Authorization", fmt.Sprintf("vapid t=%s, k=%s", token, c.publicKey))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ErrSubscriptionGone
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
		return fmt.Errorf("push endpoint returned %s: %s", resp.Status, bytes.TrimSpace(b))
	}
}

func (c *WebPushClient) vapidToken(endpoint string) (string, error) {
	audience, err := endpointAudience(endpoint)
	if err != nil {
		return "", err
	}
	claims := jwt.MapClaims{
		"aud": audience,
		"exp": time.Now().Add(vapidTokenTTL).Unix(),
		"sub": c.subject,
	}
	return jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(c.privateKey)
}

// endpointAudience reduces a push endpoint to its scheme://host origin,
// which is what the push service expects in the JWT aud claim.
func endpointAudience(endpoint string) (string, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("endpoint %q has no origin", endpoint)
	}
	return fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host), nil
}

func parseVAPIDPrivateKey(encoded string) (*ecdsa.PrivateKey, error) {
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode vapid private key: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("vapid private key must be 32 bytes, got %d", len(raw))
	}

	key := &ecdsa.PrivateKey{}
	key.Curve = elliptic.P256()
	key.D = new(big.Int).SetBytes(raw)
	key.X, key.Y = key.Curve.ScalarBaseMult(raw)
	if key.X == nil {
		return nil, fmt.Errorf("invalid vapid private key")
	}
	return key, nil
}

// encryptPayload implements the RFC 8291 aes128gcm scheme for one record:
// an ephemeral P-256 ECDH agreement with the browser's key, two HKDF
// expansions for the content key and nonce, and a single AES-128-GCM
// record carrying the whole payload.
func encryptPayload(clientPublicKey, authSecret, plaintext []byte) ([]byte, error) {
	if len(plaintext)+17+16 > recordSize {
		return nil, fmt.Errorf("payload too large for a single record")
	}

	curve := ecdh.P256()
	remote, err := curve.NewPublicKey(clientPublicKey)
	if err != nil {
		return nil, fmt.Errorf("parse client key: %w", err)
	}
	ephemeral, err := curve.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	sharedSecret, err := ephemeral.ECDH(remote)
	if err != nil {
		return nil, fmt.Errorf("ecdh agreement: %w", err)
	}

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}

	ephemeralPublic := ephemeral.PublicKey().Bytes()

	keyInfo := make([]byte, 0, 14+len(clientPublicKey)+len(ephemeralPublic))
	keyInfo = append(keyInfo, []byte("WebPush: info\x00")...)
	keyInfo = append(keyInfo, clientPublicKey...)
	keyInfo = append(keyInfo, ephemeralPublic...)
	ikm, err := hkdfExpand(sharedSecret, authSecret, keyInfo, 32)
	if err != nil {
		return nil, err
	}

	contentKey, err := hkdfExpand(ikm, salt, []byte("Content-Encoding: aes128gcm\x00"), 16)
	if err != nil {
		return nil, err
	}
	nonce, err := hkdfExpand(ikm, salt, []byte("Content-Encoding: nonce\x00"), 12)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(contentKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	// last-record delimiter
	record := append(append([]byte{}, plaintext...), 0x02)
	ciphertext := gcm.Seal(nil, nonce, record, nil)

	header := make([]byte, 0, 16+4+1+len(ephemeralPublic))
	header = append(header, salt...)
	header = binary.BigEndian.AppendUint32(header, recordSize)
	header = append(header, byte(len(ephemeralPublic)))
	header = append(header, ephemeralPublic...)

	return append(header, ciphertext...), nil
}

func hkdfExpand(secret, salt, info []byte, length int) ([]byte, error) {
	out := make([]byte, length)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, salt, info), out); err != nil {
		return nil, err
	}
	return out, nil
}
