package handlers

import (
	"errors"
	"net/http"
	"strings"

	"portfolio/src/repositories"
	"portfolio/src/utils"
	"portfolio/src/utils/render"
)

func (h *Handler) GetAccounts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	totals, err := h.repository(r).AccountTotals(ctx)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "accounts.html", "Accounts", totals)
}

func (h *Handler) GetNewAccount(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "new_account.html", "New account", nil)
}

func (h *Handler) PostAccount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	accountName := strings.TrimSpace(r.FormValue("account_name"))
	accountType := strings.TrimSpace(r.FormValue("account_type"))

	err := h.repository(r).AddAccount(ctx, accountName, accountType)
	if errors.Is(err, repositories.ErrInvalidInput) {
		h.render(w, r, http.StatusUnprocessableEntity, "new_account.html", "New account", nil,
			render.Flash{Category: utils.FlashError, Message: "Account name and type are required."})
		return
	}
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.redirect(w, r, "/accounts", render.Flash{Category: utils.FlashSuccess, Message: "The account has been added."})
}

func (h *Handler) PostDeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	accountID, err := formInt(r, "account_id")
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	if err := h.repository(r).DeleteAccount(ctx, accountID); err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.redirect(w, r, "/accounts", render.Flash{Category: utils.FlashSuccess, Message: "The account has been deleted."})
}
