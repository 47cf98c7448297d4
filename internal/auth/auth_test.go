package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/clairehq/claire/internal/auth"
	"github.com/clairehq/claire/internal/user"
)

type jwksServer struct {
	*httptest.Server

	key      *rsa.PrivateKey
	kid      string
	requests int
}

func newJWKSServer(t *testing.T) *jwksServer {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	s := &jwksServer{key: key, kid: "test-key"}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests++

		doc := map[string]any{
			"keys": []map[string]string{
				{
					"kty": "RSA",
					"kid": s.kid,
					"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
					"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
				},
			},
		}

		_ = json.NewEncoder(w).Encode(doc)
	}))
	t.Cleanup(s.Close)

	return s
}

func (s *jwksServer) sign(t *testing.T, claims auth.Claims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = s.kid

	raw, err := token.SignedString(s.key)
	require.NoError(t, err)

	return raw
}

func validClaims(sub string) auth.Claims {
	return auth.Claims{
		Email: "person@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestVerifier_Verify(t *testing.T) {
	srv := newJWKSServer(t)
	verifier := auth.NewVerifier(auth.NewKeySet(srv.URL))

	claims, err := verifier.Verify(context.Background(), srv.sign(t, validClaims("user_123")))
	require.NoError(t, err)
	assert.Equal(t, "user_123", claims.Subject)
	assert.Equal(t, "person@example.com", claims.Email)
}

func TestVerifier_Verify_ExpiredWithinLeeway(t *testing.T) {
	srv := newJWKSServer(t)
	verifier := auth.NewVerifier(auth.NewKeySet(srv.URL))

	claims := validClaims("user_123")
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-30 * time.Second))

	_, err := verifier.Verify(context.Background(), srv.sign(t, claims))
	assert.NoError(t, err)
}

func TestVerifier_Verify_Expired(t *testing.T) {
	srv := newJWKSServer(t)
	verifier := auth.NewVerifier(auth.NewKeySet(srv.URL))

	claims := validClaims("user_123")
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-5 * time.Minute))

	_, err := verifier.Verify(context.Background(), srv.sign(t, claims))
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestVerifier_Verify_MissingSubject(t *testing.T) {
	srv := newJWKSServer(t)
	verifier := auth.NewVerifier(auth.NewKeySet(srv.URL))

	claims := validClaims("")

	_, err := verifier.Verify(context.Background(), srv.sign(t, claims))
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestVerifier_Verify_WrongAlgorithm(t *testing.T) {
	srv := newJWKSServer(t)
	verifier := auth.NewVerifier(auth.NewKeySet(srv.URL))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims("user_123"))
	token.Header["kid"] = "test-key"

	raw, err := token.SignedString([]byte("shared-secret"))
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), raw)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestKeySet_CachesAcrossLookups(t *testing.T) {
	srv := newJWKSServer(t)
	keys := auth.NewKeySet(srv.URL)

	_, err := keys.Key(context.Background(), "test-key")
	require.NoError(t, err)
	_, err = keys.Key(context.Background(), "test-key")
	require.NoError(t, err)

	assert.Equal(t, 1, srv.requests)
}

func TestKeySet_RefreshesOnUnknownKid(t *testing.T) {
	srv := newJWKSServer(t)
	keys := auth.NewKeySet(srv.URL)

	_, err := keys.Key(context.Background(), "test-key")
	require.NoError(t, err)

	// Simulated key rotation: the server now serves a different kid.
	srv.kid = "rotated-key"

	_, err = keys.Key(context.Background(), "rotated-key")
	require.NoError(t, err)
	assert.Equal(t, 2, srv.requests)

	_, err = keys.Key(context.Background(), "never-existed")
	assert.ErrorIs(t, err, auth.ErrUnknownKey)
}

func TestMiddleware(t *testing.T) {
	srv := newJWKSServer(t)
	verifier := auth.NewVerifier(auth.NewKeySet(srv.URL))

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := user.NewMockRepository(ctrl)
	repo.EXPECT().
		GetByClerkID(gomock.Any(), "user_123").
		Return(&user.User{ID: 9, ClerkID: "user_123", Email: "person@example.com"}, nil).
		AnyTimes()

	var seen *user.User

	handler := auth.Middleware(verifier, user.NewService(repo))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = auth.UserFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

	t.Run("ValidToken", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+srv.sign(t, validClaims("user_123")))

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, int64(9), seen.ID)
	})

	t.Run("MissingHeader", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "detail")
	})

	t.Run("GarbageToken", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
