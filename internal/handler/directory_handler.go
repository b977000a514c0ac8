package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/octobees/user-directory/api/internal/auth"
	"github.com/octobees/user-directory/api/internal/directory"
	"github.com/octobees/user-directory/api/internal/dto"
	"github.com/octobees/user-directory/api/internal/export"
	middleware "github.com/octobees/user-directory/api/internal/middleware"
	"github.com/octobees/user-directory/api/internal/service"
	"github.com/octobees/user-directory/api/internal/session"
)

const eventsKeepAlive = 15 * time.Second

// DirectoryHandler exposes the directory session endpoints.
type DirectoryHandler struct {
	sessions  *session.Registry
	tokens    *auth.JWTManager
	contacts  *service.ContactFormatter
	logger    *zap.Logger
	keepAlive time.Duration
}

// NewDirectoryHandler creates a new handler instance.
func NewDirectoryHandler(sessions *session.Registry, tokens *auth.JWTManager, contacts *service.ContactFormatter, logger *zap.Logger) *DirectoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectoryHandler{
		sessions:  sessions,
		tokens:    tokens,
		contacts:  contacts,
		logger:    logger,
		keepAlive: eventsKeepAlive,
	}
}

// Mount handles POST /sessions: it mounts a view and starts its load cycle.
func (h *DirectoryHandler) Mount(c echo.Context) error {
	sess := h.sessions.Mount()

	token, expiresAt, err := h.tokens.GenerateToken(sess.ID)
	if err != nil {
		_ = h.sessions.Unmount(sess.ID)
		h.logger.Error("issue session token", zap.Error(err))
		return Error(c, http.StatusInternalServerError, "failed to issue session token")
	}

	return Success(c, http.StatusCreated, "session mounted", dto.SessionResponse{
		SessionID: sess.ID,
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

// Unmount handles DELETE /sessions/current and cancels any pending load.
func (h *DirectoryHandler) Unmount(c echo.Context) error {
	if err := h.sessions.Unmount(middleware.SessionIDFromContext(c)); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return Error(c, http.StatusNotFound, "session not found")
		}
		return Error(c, http.StatusInternalServerError, "failed to unmount session")
	}
	return Success(c, http.StatusOK, "session unmounted", nil)
}

// Snapshot handles GET /directory.
func (h *DirectoryHandler) Snapshot(c echo.Context) error {
	view, err := h.view(c)
	if err != nil {
		return Error(c, http.StatusNotFound, "session not found")
	}
	return Success(c, http.StatusOK, "directory retrieved", h.render(view.Snapshot()))
}

// UpdateFilters handles PATCH /directory/filters. All provided fields change in one update.
func (h *DirectoryHandler) UpdateFilters(c echo.Context) error {
	view, err := h.view(c)
	if err != nil {
		return Error(c, http.StatusNotFound, "session not found")
	}

	var req dto.UpdateFiltersRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return Error(c, http.StatusBadRequest, "filter values must be at most 200 characters")
	}

	view.SetFilters(directory.FilterUpdate{
		NameQuery: req.Name,
		City:      req.City,
		Company:   req.Company,
	})
	return Success(c, http.StatusOK, "filters updated", h.render(view.Snapshot()))
}

// ClearFilters handles DELETE /directory/filters.
func (h *DirectoryHandler) ClearFilters(c echo.Context) error {
	view, err := h.view(c)
	if err != nil {
		return Error(c, http.StatusNotFound, "session not found")
	}
	view.ClearFilters()
	return Success(c, http.StatusOK, "filters cleared", h.render(view.Snapshot()))
}

// Export handles GET /directory/export and returns the filtered users as XLSX.
func (h *DirectoryHandler) Export(c echo.Context) error {
	view, err := h.view(c)
	if err != nil {
		return Error(c, http.StatusNotFound, "session not found")
	}

	var buf bytes.Buffer
	if err := export.WriteUsers(&buf, view.Snapshot().Users, h.contacts); err != nil {
		h.logger.Error("export users", zap.Error(err))
		return Error(c, http.StatusInternalServerError, "failed to export users")
	}

	fileName := fmt.Sprintf("users_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Response().Header().Set("Content-Disposition", "attachment; filename="+fileName)
	return c.Blob(http.StatusOK, export.ContentType, buf.Bytes())
}

// Events handles GET /directory/events, streaming a snapshot after every change.
func (h *DirectoryHandler) Events(c echo.Context) error {
	sessionID := middleware.SessionIDFromContext(c)
	view, err := h.view(c)
	if err != nil {
		return Error(c, http.StatusNotFound, "session not found")
	}

	// Notifications only wake the writer; it always sends the current snapshot.
	changed := make(chan struct{}, 1)
	unsubscribe := view.Subscribe(func(directory.Snapshot) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)

	if err := h.writeEvent(c, view.Snapshot()); err != nil {
		return nil
	}

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-view.Closed():
			return nil
		case <-changed:
			if err := h.writeEvent(c, view.Snapshot()); err != nil {
				return nil
			}
		case <-ticker.C:
			if _, err := h.sessions.Get(sessionID); err != nil {
				return nil
			}
			if _, err := fmt.Fprint(res, ": keep-alive\n\n"); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}

func (h *DirectoryHandler) writeEvent(c echo.Context, snap directory.Snapshot) error {
	data, err := json.Marshal(h.render(snap))
	if err != nil {
		return err
	}
	res := c.Response()
	if _, err := fmt.Fprintf(res, "event: snapshot\ndata: %s\n\n", data); err != nil {
		return err
	}
	res.Flush()
	return nil
}

func (h *DirectoryHandler) view(c echo.Context) (*directory.View, error) {
	sess, err := h.sessions.Get(middleware.SessionIDFromContext(c))
	if err != nil {
		return nil, err
	}
	return sess.View, nil
}

func (h *DirectoryHandler) render(snap directory.Snapshot) dto.DirectoryResponse {
	users := make([]dto.UserResponse, 0, len(snap.Users))
	for _, u := range snap.Users {
		contact := h.contacts.Format(u)
		users = append(users, dto.UserResponse{
			ID:         u.ID,
			Name:       u.Name,
			Email:      contact.Email,
			MailtoURL:  contact.MailtoURL,
			Phone:      contact.Phone,
			PhoneE164:  contact.PhoneE164,
			Website:    contact.Website,
			WebsiteURL: contact.WebsiteURL,
			City:       u.City(),
			Company:    u.CompanyName(),
		})
	}

	return dto.DirectoryResponse{
		State:     string(snap.State),
		Loading:   snap.Loading,
		Error:     snap.Error,
		NoResults: snap.NoResults,
		Summary:   snap.Summary(),
		Total:     snap.Total,
		Showing:   snap.Showing,
		Filters: dto.FiltersResponse{
			Name:    snap.Filters.NameQuery,
			City:    snap.Filters.City,
			Company: snap.Filters.Company,
		},
		Cities:    nonNil(snap.CityOptions),
		Companies: nonNil(snap.CompanyOptions),
		Users:     users,
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
