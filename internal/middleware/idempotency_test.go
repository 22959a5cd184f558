package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// idempotentRouter mounts the middleware on POST /redeem in front of a handler
// that answers with status and counts its invocations.
func idempotentRouter(t *testing.T, status int) (*gin.Engine, *miniredis.Miniredis, *int) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	calls := 0
	r := gin.New()
	r.POST("/redeem", IdempotencyMiddleware(client), func(c *gin.Context) {
		calls++
		c.JSON(status, gin.H{"call": calls})
	})
	return r, mr, &calls
}

func postWithKey(r *gin.Engine, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/redeem", bytes.NewBufferString(body))
	req.Header.Set(idempotencyHeader, key)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotencyMiddleware_ReplaysStoredResponse(t *testing.T) {
	r, mr, calls := idempotentRouter(t, http.StatusCreated)

	first := postWithKey(r, "k1", `{"amount":100}`)
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Empty(t, first.Header().Get("Idempotent-Replayed"))

	second := postWithKey(r, "k1", `{"amount":100}`)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, *calls)

	// The in-flight lock is released once the first request completes.
	assert.False(t, mr.Exists("idempotency::POST:/redeem:k1:lock"))
	assert.True(t, mr.Exists("idempotency::POST:/redeem:k1"))
	assert.InDelta(t, idempotencyTTL.Seconds(), mr.TTL("idempotency::POST:/redeem:k1").Seconds(), 1)
}

func TestIdempotencyMiddleware_RejectsKeyReuseWithDifferentBody(t *testing.T) {
	r, _, calls := idempotentRouter(t, http.StatusCreated)

	require.Equal(t, http.StatusCreated, postWithKey(r, "k1", `{"amount":100}`).Code)

	w := postWithKey(r, "k1", `{"amount":200}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "IDEMPOTENCY_KEY_REUSED")
	assert.Equal(t, 1, *calls)
}

func TestIdempotencyMiddleware_RejectsRequestInProgress(t *testing.T) {
	r, mr, calls := idempotentRouter(t, http.StatusCreated)

	// Another replica holds the lock for this key.
	require.NoError(t, mr.Set("idempotency::POST:/redeem:k1:lock", "1"))
	mr.SetTTL("idempotency::POST:/redeem:k1:lock", idempotencyLockTTL)

	w := postWithKey(r, "k1", `{"amount":100}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "IDEMPOTENCY_IN_PROGRESS")
	assert.Zero(t, *calls)

	// The lock expires and the request goes through.
	mr.FastForward(idempotencyLockTTL + time.Second)
	assert.Equal(t, http.StatusCreated, postWithKey(r, "k1", `{"amount":100}`).Code)
	assert.Equal(t, 1, *calls)
}

func TestIdempotencyMiddleware_DoesNotStoreServerErrors(t *testing.T) {
	r, mr, calls := idempotentRouter(t, http.StatusInternalServerError)

	for i := 0; i < 2; i++ {
		w := postWithKey(r, "k1", `{"amount":100}`)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Empty(t, w.Header().Get("Idempotent-Replayed"))
	}
	assert.Equal(t, 2, *calls)
	assert.False(t, mr.Exists("idempotency::POST:/redeem:k1"))
}

func TestIdempotencyMiddleware_StoresClientErrors(t *testing.T) {
	r, _, calls := idempotentRouter(t, http.StatusBadRequest)

	require.Equal(t, http.StatusBadRequest, postWithKey(r, "k1", `{"amount":0}`).Code)

	w := postWithKey(r, "k1", `{"amount":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "true", w.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, 1, *calls)
}

func TestIdempotencyMiddleware_KeysAreScopedToActor(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	calls := 0
	r := gin.New()
	r.POST("/redeem", AuthMiddleware(AuthConfig{}), IdempotencyMiddleware(client), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusCreated, gin.H{"actor": Actor(c)})
	})

	for _, actor := range []string{"GDRIVER", "GOTHER"} {
		req := httptest.NewRequest(http.MethodPost, "/redeem", bytes.NewBufferString(`{"amount":100}`))
		req.Header.Set(idempotencyHeader, "shared")
		req.Header.Set(DevActorHeader, actor)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Empty(t, w.Header().Get("Idempotent-Replayed"))
	}
	assert.Equal(t, 2, calls)
	assert.True(t, mr.Exists("idempotency:GDRIVER:POST:/redeem:shared"))
	assert.True(t, mr.Exists("idempotency:GOTHER:POST:/redeem:shared"))
}
