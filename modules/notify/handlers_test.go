package notify_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localserve/notify/modules/notify"
	"github.com/localserve/notify/pkg/jwt"
	"github.com/localserve/notify/pkg/notifications"
	"github.com/localserve/notify/pkg/subscriptions"
	"github.com/localserve/notify/pkg/users"
)

type apiFixture struct {
	router  http.Handler
	jwt     *jwt.Service
	service *notifications.Service
	subs    *subscriptions.MemoryStore
}

func newAPIFixture(t *testing.T, vapidKey string, recipients ...users.User) *apiFixture {
	t.Helper()

	jwtService, err := jwt.NewFromString("test-signing-key-at-least-32-bytes!!")
	require.NoError(t, err)

	subs := subscriptions.NewMemoryStore()
	service := notifications.NewService(
		notifications.NewMemoryStorage(),
		users.NewMemoryDirectory(recipients...),
		subs,
	)

	return &apiFixture{
		router: notify.Router(notify.RouterConfig{
			Service:        service,
			Subscriptions:  subs,
			JWT:            jwtService,
			VAPIDPublicKey: vapidKey,
		}),
		jwt:     jwtService,
		service: service,
		subs:    subs,
	}
}

func (f *apiFixture) token(t *testing.T, userID string) string {
	t.Helper()

	token, err := f.jwt.Generate(jwt.StandardClaims{
		Subject:   userID,
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)
	return token
}

func (f *apiFixture) do(t *testing.T, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestVapidEndpoint(t *testing.T) {
	t.Run("returns key when configured", func(t *testing.T) {
		f := newAPIFixture(t, "public-key")
		rec := f.do(t, http.MethodGet, "/vapid", "", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody[map[string]any](t, rec)
		assert.Equal(t, "public-key", body["publicKey"])
	})

	t.Run("returns null when push disabled", func(t *testing.T) {
		f := newAPIFixture(t, "")
		rec := f.do(t, http.MethodGet, "/vapid", "", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody[map[string]any](t, rec)
		assert.Nil(t, body["publicKey"])
	})
}

func TestListNotifications(t *testing.T) {
	f := newAPIFixture(t, "", users.User{ID: "u1"}, users.User{ID: "u2"})

	for i := 0; i < 3; i++ {
		_, err := f.service.Notify(context.Background(), notifications.Request{UserID: "u1", Message: "hi"})
		require.NoError(t, err)
	}
	_, err := f.service.Notify(context.Background(), notifications.Request{UserID: "u2", Message: "other"})
	require.NoError(t, err)
	f.service.Wait()

	t.Run("requires auth", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("paginated and scoped to caller", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/?page=1&limit=2", f.token(t, "u1"), nil)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody[struct {
			Total int64                        `json:"total"`
			Page  int                          `json:"page"`
			Limit int                          `json:"limit"`
			Items []notifications.Notification `json:"items"`
		}](t, rec)

		assert.EqualValues(t, 3, body.Total)
		assert.Equal(t, 1, body.Page)
		assert.Equal(t, 2, body.Limit)
		require.Len(t, body.Items, 2)
		for _, item := range body.Items {
			assert.Equal(t, "u1", item.UserID)
		}
	})

	t.Run("bogus paging falls back to defaults", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/?page=-4&limit=9999", f.token(t, "u1"), nil)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody[map[string]any](t, rec)
		assert.EqualValues(t, 1, body["page"])
		assert.EqualValues(t, 200, body["limit"])
	})
}

func TestUnreadCountEndpoint(t *testing.T) {
	f := newAPIFixture(t, "", users.User{ID: "u1"})

	notif, err := f.service.Notify(context.Background(), notifications.Request{UserID: "u1", Message: "hi"})
	require.NoError(t, err)
	f.service.Wait()

	rec := f.do(t, http.MethodGet, "/unread-count", f.token(t, "u1"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decodeBody[map[string]int64](t, rec)["unread"])

	require.NoError(t, f.service.MarkRead(context.Background(), "u1", notif.ID))

	rec = f.do(t, http.MethodGet, "/unread-count", f.token(t, "u1"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decodeBody[map[string]int64](t, rec)["unread"])
}

func TestMarkReadEndpoint(t *testing.T) {
	f := newAPIFixture(t, "", users.User{ID: "u1"}, users.User{ID: "u2"})

	notif, err := f.service.Notify(context.Background(), notifications.Request{UserID: "u1", Message: "hi"})
	require.NoError(t, err)
	f.service.Wait()

	t.Run("marks own notification", func(t *testing.T) {
		rec := f.do(t, http.MethodPut, "/"+notif.ID+"/read", f.token(t, "u1"), nil)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody[map[string]any](t, rec)
		assert.Equal(t, true, body["ok"])
		assert.Equal(t, notif.ID, body["id"])
	})

	t.Run("foreign notification is 404", func(t *testing.T) {
		rec := f.do(t, http.MethodPut, "/"+notif.ID+"/read", f.token(t, "u2"), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown id is 404", func(t *testing.T) {
		rec := f.do(t, http.MethodPut, "/nope/read", f.token(t, "u1"), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestSubscribeEndpoint(t *testing.T) {
	t.Run("anonymous wrapped body", func(t *testing.T) {
		f := newAPIFixture(t, "")
		rec := f.do(t, http.MethodPost, "/subscribe", "", map[string]any{
			"subscription": map[string]any{
				"endpoint": "https://push.example/ep1",
				"keys":     map[string]string{"p256dh": "p", "auth": "a"},
			},
		})
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody[map[string]any](t, rec)
		assert.Equal(t, true, body["ok"])
		assert.NotEmpty(t, body["id"])
	})

	t.Run("authenticated flat body attaches user", func(t *testing.T) {
		f := newAPIFixture(t, "")
		rec := f.do(t, http.MethodPost, "/subscribe", f.token(t, "u1"), map[string]any{
			"endpoint": "https://push.example/ep2",
			"keys":     map[string]string{"p256dh": "p", "auth": "a"},
		})
		require.Equal(t, http.StatusOK, rec.Code)

		subs, err := f.subs.ListForUser(context.Background(), "u1")
		require.NoError(t, err)
		require.Len(t, subs, 1)
		assert.Equal(t, "https://push.example/ep2", subs[0].Endpoint)
	})

	t.Run("repeat subscribe is idempotent", func(t *testing.T) {
		f := newAPIFixture(t, "")
		body := map[string]any{
			"endpoint": "https://push.example/ep3",
			"keys":     map[string]string{"p256dh": "p", "auth": "a"},
		}

		first := decodeBody[map[string]any](t, f.do(t, http.MethodPost, "/subscribe", "", body))
		second := decodeBody[map[string]any](t, f.do(t, http.MethodPost, "/subscribe", "", body))
		assert.Equal(t, first["id"], second["id"])
	})

	t.Run("missing endpoint is 400", func(t *testing.T) {
		f := newAPIFixture(t, "")
		rec := f.do(t, http.MethodPost, "/subscribe", "", map[string]any{"keys": map[string]string{}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUnsubscribeEndpoint(t *testing.T) {
	seed := func(t *testing.T, f *apiFixture) {
		t.Helper()
		_, err := f.subs.Upsert(context.Background(), "https://push.example/ep1", subscriptions.Keys{P256dh: "p", Auth: "a"}, "u1")
		require.NoError(t, err)
		_, err = f.subs.Upsert(context.Background(), "https://push.example/ep2", subscriptions.Keys{P256dh: "p", Auth: "a"}, "u1")
		require.NoError(t, err)
	}

	t.Run("by endpoint", func(t *testing.T) {
		f := newAPIFixture(t, "")
		seed(t, f)

		rec := f.do(t, http.MethodPost, "/unsubscribe", "", map[string]any{"endpoint": "https://push.example/ep1"})
		require.Equal(t, http.StatusOK, rec.Code)

		subs, err := f.subs.ListForUser(context.Background(), "u1")
		require.NoError(t, err)
		assert.Len(t, subs, 1)
	})

	t.Run("authenticated user removes all", func(t *testing.T) {
		f := newAPIFixture(t, "")
		seed(t, f)

		rec := f.do(t, http.MethodPost, "/unsubscribe", f.token(t, "u1"), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "u1", decodeBody[map[string]any](t, rec)["removedForUser"])

		subs, err := f.subs.ListForUser(context.Background(), "u1")
		require.NoError(t, err)
		assert.Empty(t, subs)
	})

	t.Run("body userId fallback", func(t *testing.T) {
		f := newAPIFixture(t, "")
		seed(t, f)

		rec := f.do(t, http.MethodPost, "/unsubscribe", "", map[string]any{"userId": "u1"})
		require.Equal(t, http.StatusOK, rec.Code)

		subs, err := f.subs.ListForUser(context.Background(), "u1")
		require.NoError(t, err)
		assert.Empty(t, subs)
	})

	t.Run("nothing to go on is 400", func(t *testing.T) {
		f := newAPIFixture(t, "")
		rec := f.do(t, http.MethodPost, "/unsubscribe", "", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
