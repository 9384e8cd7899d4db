package notify

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/localserve/notify/pkg/jwt"
	"github.com/localserve/notify/pkg/logger"
	"github.com/localserve/notify/pkg/notifications"
	"github.com/localserve/notify/pkg/subscriptions"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

type handlers struct {
	service *notifications.Service
	subs    subscriptions.Store

	// vapidPublicKey is empty when the push channel is disabled; the vapid
	// endpoint then returns null so clients skip push registration.
	vapidPublicKey string

	log *slog.Logger
}

// listResponse is the paginated envelope for GET /.
type listResponse struct {
	Total int64                        `json:"total"`
	Page  int                          `json:"page"`
	Limit int                          `json:"limit"`
	Items []notifications.Notification `json:"items"`
}

func (h *handlers) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := jwt.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	limit := queryInt(r, "limit", defaultPageSize)
	if limit < 1 {
		limit = 1
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	items, total, err := h.service.List(r.Context(), userID, notifications.ListOptions{
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		h.log.ErrorContext(r.Context(), "Failed to list notifications", logger.UserID(userID), logger.Error(err))
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusOK, listResponse{
		Total: total,
		Page:  page,
		Limit: limit,
		Items: items,
	})
}

func (h *handlers) unreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := jwt.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	count, err := h.service.CountUnread(r.Context(), userID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "Failed to count unread notifications", logger.UserID(userID), logger.Error(err))
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]int64{"unread": count})
}

func (h *handlers) markRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := jwt.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	notifID := chi.URLParam(r, "id")
	if err := h.service.MarkRead(r.Context(), userID, notifID); err != nil {
		if errors.Is(err, notifications.ErrNotificationNotFound) {
			respondError(w, http.StatusNotFound, "Notification not found")
			return
		}
		h.log.ErrorContext(r.Context(), "Failed to mark notification read",
			logger.UserID(userID),
			logger.NotificationID(notifID),
			logger.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"ok": true, "id": notifID})
}

func (h *handlers) vapid(w http.ResponseWriter, r *http.Request) {
	var key any
	if h.vapidPublicKey != "" {
		key = h.vapidPublicKey
	}
	respondJSON(w, http.StatusOK, map[string]any{"publicKey": key})
}

// subscribeRequest accepts both the wrapped and the flat subscription shape
// browsers produce from PushSubscription.toJSON().
type subscribeRequest struct {
	Subscription *pushSubscription `json:"subscription"`
	pushSubscription
	UserID string `json:"userId"`
}

type pushSubscription struct {
	Endpoint string             `json:"endpoint"`
	Keys     subscriptions.Keys `json:"keys"`
}

func (r subscribeRequest) resolve() pushSubscription {
	if r.Subscription != nil && r.Subscription.Endpoint != "" {
		return *r.Subscription
	}
	return r.pushSubscription
}

func (h *handlers) subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "subscription object required")
		return
	}

	sub := req.resolve()
	if sub.Endpoint == "" {
		respondError(w, http.StatusBadRequest, "subscription object required")
		return
	}

	// Authenticated identity wins over a client-supplied userId. Anonymous
	// subscriptions are stored unattached and adopted on the next
	// authenticated upsert of the same endpoint.
	userID, _ := jwt.UserID(r.Context())
	if userID == "" {
		userID = req.UserID
	}

	id, err := h.subs.Upsert(r.Context(), sub.Endpoint, sub.Keys, userID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "Failed to upsert push subscription",
			logger.Endpoint(sub.Endpoint),
			logger.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"ok": true, "id": id})
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
	UserID   string `json:"userId"`
}

func (h *handlers) unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req unsubscribeRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	// Precedence: explicit endpoint, then authenticated user, then a
	// client-supplied userId for unauthenticated detach flows.
	if req.Endpoint != "" {
		if err := h.subs.DetachByEndpoint(r.Context(), req.Endpoint); err != nil {
			h.log.ErrorContext(r.Context(), "Failed to detach push subscription",
				logger.Endpoint(req.Endpoint),
				logger.Error(err),
			)
			respondError(w, http.StatusInternalServerError, "Server error")
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	userID, _ := jwt.UserID(r.Context())
	if userID == "" {
		userID = req.UserID
	}
	if userID == "" {
		respondError(w, http.StatusBadRequest, "endpoint or authenticated user or userId required")
		return
	}

	if err := h.subs.DetachAllForUser(r.Context(), userID); err != nil {
		h.log.ErrorContext(r.Context(), "Failed to detach push subscriptions",
			logger.UserID(userID),
			logger.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"ok": true, "removedForUser": userID})
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
