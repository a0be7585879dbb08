package gcs

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/angelmondragon/fruitshop-backend/pkg/config"
	"github.com/golang-jwt/jwt/v5"
)

func staticTokens(token string) *tokenSource {
	return &tokenSource{fetch: func(context.Context) (string, time.Time, error) {
		return token, time.Now().Add(time.Hour), nil
	}}
}

func TestPutUploadsMedia(t *testing.T) {
	var gotName, gotType, gotBody, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/upload/storage/v1/b/fruit/o" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotName = r.URL.Query().Get("name")
		gotType = r.Header.Get("Content-Type")
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := newClient(srv.Client(), srv.URL, config.GCSConfig{BucketName: "fruit"}, staticTokens("tok"))
	if err := client.Put(context.Background(), "products/a.png", "image/png", strings.NewReader("pixels")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if gotName != "products/a.png" || gotType != "image/png" || gotBody != "pixels" || gotAuth != "Bearer tok" {
		t.Fatalf("unexpected upload name=%q type=%q body=%q auth=%q", gotName, gotType, gotBody, gotAuth)
	}
}

func TestPutSurfacesErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer srv.Close()

	client := newClient(srv.Client(), srv.URL, config.GCSConfig{BucketName: "fruit"}, staticTokens("tok"))
	err := client.Put(context.Background(), "products/a.png", "image/png", strings.NewReader("x"))
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}

func TestDeleteIgnoresMissingObjects(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.Method != http.MethodDelete {
			t.Errorf("unexpected method %s", r.Method)
		}
		if !strings.HasSuffix(r.URL.EscapedPath(), "/o/products%2Fa.png") {
			t.Errorf("unexpected path %s", r.URL.EscapedPath())
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := newClient(srv.Client(), srv.URL, config.GCSConfig{BucketName: "fruit"}, staticTokens("tok"))
	if err := client.Delete(context.Background(), "products/a.png"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatal("expected one call")
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/storage/v1/b/fruit/o" || r.URL.Query().Get("maxResults") != "1" {
			t.Errorf("unexpected ping %s", r.URL.String())
		}
		_, _ = w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()

	client := newClient(srv.Client(), srv.URL, config.GCSConfig{BucketName: "fruit"}, staticTokens("tok"))
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestURL(t *testing.T) {
	client := newClient(http.DefaultClient, apiBase, config.GCSConfig{BucketName: "fruit", PublicBaseURL: "https://cdn.example.com/"}, staticTokens("tok"))
	if got := client.URL("products/a.png"); got != "https://cdn.example.com/fruit/products/a.png" {
		t.Fatalf("unexpected url %s", got)
	}
}

func TestTokenSourceCachesUntilNearExpiry(t *testing.T) {
	var fetches int
	ts := &tokenSource{fetch: func(context.Context) (string, time.Time, error) {
		fetches++
		return "tok", time.Now().Add(10 * time.Minute), nil
	}}
	for i := 0; i < 3; i++ {
		if _, err := ts.Token(context.Background()); err != nil {
			t.Fatalf("token: %v", err)
		}
	}
	if fetches != 1 {
		t.Fatalf("expected one fetch, got %d", fetches)
	}

	ts.expiry = time.Now().Add(30 * time.Second)
	_, _ = ts.Token(context.Background())
	if fetches != 2 {
		t.Fatalf("expected refresh near expiry, got %d fetches", fetches)
	}
}

func TestServiceAccountAssertionExchange(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		assertion := r.PostForm.Get("assertion")
		claims := &assertionClaims{}
		_, err := jwt.ParseWithClaims(assertion, claims, func(*jwt.Token) (any, error) {
			return &key.PublicKey, nil
		}, jwt.WithValidMethods([]string{"RS256"}))
		if err != nil {
			t.Errorf("invalid assertion: %v", err)
		}
		if claims.Issuer != "svc@example.com" || claims.Scope != scope {
			t.Errorf("unexpected claims %+v", claims)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "minted", "expires_in": 3600})
	}))
	defer srv.Close()

	creds, _ := json.Marshal(map[string]string{
		"client_email": "svc@example.com",
		"private_key":  string(keyPEM),
		"token_uri":    srv.URL,
	})
	ts, err := newServiceAccountTokenSource(srv.Client(), creds)
	if err != nil {
		t.Fatalf("token source: %v", err)
	}
	token, err := ts.Token(context.Background())
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if token != "minted" {
		t.Fatalf("unexpected token %q", token)
	}
}

func TestServiceAccountRejectsBadCredentials(t *testing.T) {
	if _, err := newServiceAccountTokenSource(http.DefaultClient, []byte(`{}`)); err == nil {
		t.Fatal("expected error for empty credentials")
	}
	if _, err := newServiceAccountTokenSource(http.DefaultClient, []byte(`{"client_email":"a","private_key":"nope"}`)); err == nil {
		t.Fatal("expected error for bad key")
	}
}
