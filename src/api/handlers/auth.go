package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"portfolio/src/repositories"
	"portfolio/src/services"
	"portfolio/src/utils"
	"portfolio/src/utils/render"
)

func (h *Handler) GetCreateUser(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "create_user.html", "Create user", nil)
}

func (h *Handler) PostCreateUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	if err := r.ParseForm(); err != nil {
		h.HandleErrors(w, r, utils.BadRequest("invalid form"))
		return
	}
	username := strings.TrimSpace(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")

	_, err := h.CredentialService.Register(ctx, username, password)
	var message string
	switch {
	case err == nil:
		h.Logger.WithField("username", username).Info("User created")
		h.redirect(w, r, "/signin", render.Flash{Category: utils.FlashSuccess, Message: "New user successfully created."})
		return
	case errors.Is(err, services.ErrInvalidUsername):
		message = "Invalid username."
	case errors.Is(err, services.ErrInvalidPassword):
		message = "Invalid password."
	case errors.Is(err, repositories.ErrDuplicateUsername):
		message = "Username already taken."
	default:
		h.HandleErrors(w, r, err)
		return
	}
	h.render(w, r, http.StatusUnprocessableEntity, "create_user.html", "Create user", nil,
		render.Flash{Category: utils.FlashError, Message: message})
}

func (h *Handler) GetSignIn(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(r); ok {
		h.redirectTo(w, r, "/")
		return
	}
	h.render(w, r, http.StatusOK, "signin.html", "Sign in", nil)
}

func (h *Handler) PostSignIn(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(r); ok {
		h.redirectTo(w, r, "/")
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	if err := r.ParseForm(); err != nil {
		h.HandleErrors(w, r, utils.BadRequest("invalid form"))
		return
	}
	username := strings.TrimSpace(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")

	user, err := h.CredentialService.SignIn(ctx, username, password)
	switch {
	case errors.Is(err, services.ErrUnknownUsername):
		h.render(w, r, http.StatusUnprocessableEntity, "signin.html", "Sign in", nil,
			render.Flash{Category: utils.FlashError, Message: "Invalid username."})
		return
	case errors.Is(err, services.ErrWrongPassword):
		h.redirect(w, r, "/", render.Flash{Category: utils.FlashError, Message: "Invalid password."})
		return
	case err != nil:
		h.HandleErrors(w, r, err)
		return
	}

	if err := h.startSession(w, user); err != nil {
		h.HandleErrors(w, r, fmt.Errorf("failed to start session: %w", err))
		return
	}
	h.redirect(w, r, "/", render.Flash{Category: utils.FlashSuccess, Message: fmt.Sprintf("Welcome %s.", user.Username)})
}

func (h *Handler) PostSignOut(w http.ResponseWriter, r *http.Request) {
	h.endSession(w)
	h.redirect(w, r, "/signin", render.Flash{Category: utils.FlashSuccess, Message: "You have been signed out."})
}
