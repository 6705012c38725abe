package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Dosada05/tournament-draw/middleware"
	"github.com/Dosada05/tournament-draw/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
)

const secret = "middleware-secret"

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func protected() http.Handler {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sub, err := middleware.GetSubjectFromContext(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Write([]byte(sub))
	})
	return middleware.Authenticate(secret)(middleware.Authorize(models.RoleOrganizer)(next))
}

func serve(t *testing.T, authorization string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/draws", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	protected().ServeHTTP(rec, req)
	return rec
}

func TestAuthenticate(t *testing.T) {
	valid := jwt.MapClaims{"sub": "organizer", "role": "organizer", "exp": time.Now().Add(time.Hour).Unix()}

	tests := []struct {
		name          string
		authorization string
		wantStatus    int
	}{
		{"valid token", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), valid), http.StatusOK},
		{"lowercase scheme", "bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), valid), http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"wrong key", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte("other"), valid), http.StatusUnauthorized},
		{"expired", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret),
			jwt.MapClaims{"sub": "organizer", "role": "organizer", "exp": time.Now().Add(-time.Hour).Unix()}), http.StatusUnauthorized},
		{"unknown role", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret),
			jwt.MapClaims{"sub": "x", "role": "player", "exp": time.Now().Add(time.Hour).Unix()}), http.StatusForbidden},
		{"no role", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret),
			jwt.MapClaims{"sub": "x", "exp": time.Now().Add(time.Hour).Unix()}), http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, tt.authorization)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus == http.StatusOK {
				require.Equal(t, "organizer", rec.Body.String())
			}
		})
	}
}

func TestAuthenticate_RejectsNoneAlgorithm(t *testing.T) {
	token := sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType,
		jwt.MapClaims{"sub": "organizer", "role": "organizer", "exp": time.Now().Add(time.Hour).Unix()})

	rec := serve(t, "Bearer "+token)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
