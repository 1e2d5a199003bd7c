package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jaxxstorm/landlord/internal/api/apierror"
)

// handleListNotifications lists the authenticated user's notifications.
// @Summary List notifications
// @Tags notifications
// @Produce json
// @Success 200 {array} notification.Notification
// @Router /notifications [get]
func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	notifications, err := s.notifRepo.ListForUser(r.Context(), principal.UserID)
	if err != nil {
		apierror.Write(w, mapDomainError(err))
		return
	}
	writeJSON(w, http.StatusOK, notifications)
}

type unreadCountResponse struct {
	Count int `json:"count"`
}

// handleUnreadCount returns the authenticated user's unread notification
// count.
// @Summary Unread notification count
// @Tags notifications
// @Produce json
// @Success 200 {object} unreadCountResponse
// @Router /notifications/unread-count [get]
func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	count, err := s.notifications.UnreadCount(r.Context(), principal.UserID)
	if err != nil {
		apierror.Write(w, mapDomainError(err))
		return
	}
	writeJSON(w, http.StatusOK, unreadCountResponse{Count: count})
}

// handleMarkRead marks a single notification as read.
// @Summary Mark a notification as read
// @Tags notifications
// @Produce json
// @Param id path string true "notification id"
// @Success 204
// @Router /notifications/{id}/read [post]
func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, apiErr := parseUUIDParam(chi.URLParam(r, "id"))
	if apiErr != nil {
		apierror.Write(w, apiErr)
		return
	}
	if err := s.notifications.MarkRead(r.Context(), id, principal.UserID); err != nil {
		apierror.Write(w, mapDomainError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type markAllReadResponse struct {
	Count int `json:"count"`
}

// handleMarkAllRead marks every unread notification for the authenticated
// user as read.
// @Summary Mark all notifications as read
// @Tags notifications
// @Produce json
// @Success 200 {object} markAllReadResponse
// @Router /notifications/read-all [post]
func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	count, err := s.notifications.MarkAllRead(r.Context(), principal.UserID)
	if err != nil {
		apierror.Write(w, mapDomainError(err))
		return
	}
	writeJSON(w, http.StatusOK, markAllReadResponse{Count: count})
}

type createDigestRequest struct {
	DigestType string `json:"digest_type"`
	Force      bool   `json:"force"`
}

// handleCreateDigest builds (or rebuilds, if forced) the authenticated
// user's digest for the given period.
// @Summary Create a notification digest
// @Tags notifications
// @Accept json
// @Produce json
// @Param request body createDigestRequest true "digest request"
// @Success 201 {object} notification.NotificationDigest
// @Router /notifications/digests [post]
func (s *Server) handleCreateDigest(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req createDigestRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		apierror.Write(w, apiErr)
		return
	}
	if req.DigestType == "" {
		apierror.Write(w, apierror.Validation("digest_type is required"))
		return
	}
	digest, err := s.notifications.CreateDigest(r.Context(), principal.UserID, req.DigestType, req.Force)
	if err != nil {
		apierror.Write(w, mapDomainError(err))
		return
	}
	writeJSON(w, http.StatusCreated, digest)
}
