package handlers

import (
	"net/http"
	"strconv"
	"time"

	"portfolio/src/models"
	"portfolio/src/repositories"
	"portfolio/src/utils"
	"portfolio/src/utils/render"

	"github.com/go-chi/jwtauth"
)

const (
	usernameClaim = "username"
	userIDClaim   = "user_id"
	categoryClaim = "category"
	messageClaim  = "message"

	flashTTL = 5 * time.Minute

	mustSignIn = "You must be signed in to do that."
)

type sessionUser struct {
	ID       uint
	Username string
}

// currentUser reads the session verified by jwtauth.Verifier.
func currentUser(r *http.Request) (*sessionUser, bool) {
	if r == nil {
		return nil, false
	}
	token, claims, err := jwtauth.FromContext(r.Context())
	if err != nil || token == nil {
		return nil, false
	}
	username, _ := claims[usernameClaim].(string)
	rawID, _ := claims[userIDClaim].(string)
	id, err := strconv.ParseUint(rawID, 10, 64)
	if username == "" || err != nil || id == 0 {
		return nil, false
	}
	return &sessionUser{ID: uint(id), Username: username}, true
}

// repository returns the gateway bound to the signed-in user.
func (h *Handler) repository(r *http.Request) repositories.PortfolioRepository {
	user, _ := currentUser(r)
	return h.Repositories(user.ID)
}

func (h *Handler) startSession(w http.ResponseWriter, user *models.User) error {
	claims := map[string]interface{}{
		usernameClaim: user.Username,
		userIDClaim:   strconv.FormatUint(uint64(user.ID), 10),
	}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiryIn(claims, h.sessionTTL)

	_, tokenString, err := h.TokenAuth.Encode(claims)
	if err != nil {
		return err
	}
	http.SetCookie(w, h.cookie(utils.SessionCookieName, tokenString, h.sessionTTL))
	return nil
}

func (h *Handler) endSession(w http.ResponseWriter) {
	http.SetCookie(w, h.expiredCookie(utils.SessionCookieName))
}

func (h *Handler) setFlash(w http.ResponseWriter, flash render.Flash) {
	claims := map[string]interface{}{
		categoryClaim: flash.Category,
		messageClaim:  flash.Message,
	}
	jwtauth.SetExpiryIn(claims, flashTTL)

	_, tokenString, err := h.TokenAuth.Encode(claims)
	if err != nil {
		h.Logger.WithError(err).Warn("Failed to encode flash message")
		return
	}
	http.SetCookie(w, h.cookie(utils.FlashCookieName, tokenString, flashTTL))
}

// popFlashes consumes the flash cookie. Tampered or stale cookies are dropped.
func (h *Handler) popFlashes(w http.ResponseWriter, r *http.Request) []render.Flash {
	flashes := []render.Flash{}
	if r == nil {
		return flashes
	}
	cookie, err := r.Cookie(utils.FlashCookieName)
	if err != nil || cookie.Value == "" {
		return flashes
	}
	http.SetCookie(w, h.expiredCookie(utils.FlashCookieName))

	token, err := h.TokenAuth.Decode(cookie.Value)
	if err != nil || token == nil {
		return flashes
	}
	if exp := token.Expiration(); !exp.IsZero() && exp.Before(time.Now()) {
		return flashes
	}
	claims := token.PrivateClaims()
	message, _ := claims[messageClaim].(string)
	category, _ := claims[categoryClaim].(string)
	if message == "" {
		return flashes
	}
	return append(flashes, render.Flash{Category: category, Message: message})
}

func (h *Handler) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *Handler) expiredCookie(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

// RequireLogin guards the portfolio routes. Browsers are sent to the sign in
// page with a flash, JSON clients get a 401.
func (h *Handler) RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := currentUser(r); !ok {
			if wantsJSON(r) {
				h.HandleErrors(w, r, utils.Unauthorized(mustSignIn))
				return
			}
			h.redirect(w, r, "/signin", render.Flash{Category: utils.FlashError, Message: mustSignIn})
			return
		}
		next.ServeHTTP(w, r)
	})
}
