package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"portfolio/src/config"
	"portfolio/src/repositories"
	"portfolio/src/services"
	"portfolio/src/utils"
	"portfolio/src/utils/render"

	"github.com/go-chi/jwtauth"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	CredentialService services.CredentialServiceI
	ReportService     services.ReportServiceI
	Repositories      repositories.PortfolioRepositoryFactory
	TokenAuth         *jwtauth.JWTAuth
	Renderer          *render.Renderer
	Logger            *logrus.Logger

	sessionTTL     time.Duration
	secureCookies  bool
	requestTimeout time.Duration
}

func NewHandler(
	credentialService services.CredentialServiceI,
	reportService services.ReportServiceI,
	repos repositories.PortfolioRepositoryFactory,
	logger *logrus.Logger,
	cfg *config.Config,
) (*Handler, error) {
	if cfg.Session.Secret == "" {
		return nil, errors.New("session secret is not configured")
	}
	renderer, err := render.NewRenderer()
	if err != nil {
		return nil, err
	}

	timeout := cfg.Service.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ttl := cfg.Session.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &Handler{
		CredentialService: credentialService,
		ReportService:     reportService,
		Repositories:      repos,
		TokenAuth:         jwtauth.New("HS256", []byte(cfg.Session.Secret), nil),
		Renderer:          renderer,
		Logger:            logger,
		sessionTTL:        ttl,
		secureCookies:     cfg.Session.Secure,
		requestTimeout:    timeout,
	}, nil
}

// requestContext bounds the request and carries the logger down to the gateway.
func (h *Handler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	ctx := utils.WithLogger(r.Context(), h.Logger)
	return context.WithTimeout(ctx, h.requestTimeout)
}

func wantsJSON(r *http.Request) bool {
	return r != nil && strings.Contains(r.Header.Get("Accept"), "application/json")
}

func (h *Handler) respond(w http.ResponseWriter, _ *http.Request, data interface{}, status int) {
	res, err := json.Marshal(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write(res)
}

// render writes the page as HTML, or as JSON for clients asking for it. Any
// pending flash from the previous request is shown along with extra.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, tpl, title string, data any, extra ...render.Flash) {
	flashes := append(h.popFlashes(w, r), extra...)

	if wantsJSON(r) {
		h.respond(w, r, map[string]interface{}{"data": data, "flashes": flashes}, status)
		return
	}

	page := render.Page{Title: title, Flashes: flashes, Data: data}
	if user, ok := currentUser(r); ok {
		page.Username = user.Username
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.Renderer.Render(w, tpl, page); err != nil {
		h.Logger.WithError(err).WithField("template", tpl).Error("Failed to render template")
	}
}

// redirect stores the flash for the next page and sends the browser to location.
// JSON clients get the flash and the location in the body instead.
func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, location string, flash render.Flash) {
	if wantsJSON(r) {
		h.respond(w, r, map[string]interface{}{"location": location, "flashes": []render.Flash{flash}}, http.StatusOK)
		return
	}
	h.setFlash(w, flash)
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// redirectTo is redirect without a flash.
func (h *Handler) redirectTo(w http.ResponseWriter, r *http.Request, location string) {
	if wantsJSON(r) {
		h.respond(w, r, map[string]interface{}{"location": location, "flashes": []render.Flash{}}, http.StatusOK)
		return
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func (h *Handler) HandleErrors(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		err = utils.NewHTTPError(http.StatusGatewayTimeout, "Request timed out")
	case errors.Is(err, repositories.ErrNotFound):
		err = utils.NotFound("Not found")
	case errors.Is(err, repositories.ErrInvalidInput):
		err = utils.UnprocessableEntity(err.Error())
	}

	var httpErr *utils.HTTPError
	if !errors.As(err, &httpErr) {
		h.Logger.WithError(err).Error("Unhandled error while serving request")
		httpErr = &utils.HTTPError{Code: http.StatusInternalServerError, Message: "Internal Server Error"}
	} else if httpErr.Code >= http.StatusInternalServerError {
		h.Logger.WithField("status", httpErr.Code).Warn(httpErr.Message)
	}

	if wantsJSON(r) {
		h.respond(w, r, map[string]string{"error": httpErr.Message}, httpErr.Code)
		return
	}
	h.render(w, r, httpErr.Code, "error.html", http.StatusText(httpErr.Code), httpErr)
}
