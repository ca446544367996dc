package handlers

import (
	"errors"
	"net/http"
	"strings"

	"portfolio/src/models"
	"portfolio/src/repositories"
	"portfolio/src/utils"
	"portfolio/src/utils/render"
)

type holdingsPage struct {
	Columns   []string            `json:"columns"`
	Accounts  []models.Account    `json:"accounts"`
	AccountID int                 `json:"account_id,omitempty"`
	Holdings  []models.HoldingRow `json:"holdings"`
}

type newHoldingPage struct {
	Accounts []models.Account `json:"accounts"`
	Assets   []models.Asset   `json:"assets"`
}

// GetHoldings lists every holding, or one account's rows when account_id is given.
func (h *Handler) GetHoldings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	repo := h.repository(r)
	page := holdingsPage{Columns: repo.Columns()}

	accounts, err := repo.AllAccounts(ctx)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	page.Accounts = accounts

	if strings.TrimSpace(r.URL.Query().Get("account_id")) == "" {
		page.Holdings, err = repo.AllHoldings(ctx)
	} else {
		page.AccountID, err = formInt(r, "account_id")
		if err == nil {
			page.Holdings, err = repo.AccountHoldings(ctx, page.AccountID)
		}
	}
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "holdings.html", "Holdings", page)
}

func (h *Handler) newHoldingPage(r *http.Request) (*newHoldingPage, error) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	repo := h.repository(r)
	accounts, err := repo.AllAccounts(ctx)
	if err != nil {
		return nil, err
	}
	assets, err := repo.AllAssets(ctx)
	if err != nil {
		return nil, err
	}
	return &newHoldingPage{Accounts: accounts, Assets: assets}, nil
}

func (h *Handler) GetNewHolding(w http.ResponseWriter, r *http.Request) {
	page, err := h.newHoldingPage(r)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "new_holding.html", "New holding", page)
}

func (h *Handler) PostHolding(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	accountID, err := formInt(r, "account_id")
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	assetID, err := formInt(r, "asset_id")
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	shares, err := formDecimal(r, "shares")
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}

	err = h.repository(r).AddHolding(ctx, accountID, assetID, shares)
	if errors.Is(err, repositories.ErrInvalidInput) {
		page, pageErr := h.newHoldingPage(r)
		if pageErr != nil {
			h.HandleErrors(w, r, pageErr)
			return
		}
		h.render(w, r, http.StatusUnprocessableEntity, "new_holding.html", "New holding", page,
			render.Flash{Category: utils.FlashError, Message: "Invalid holding details."})
		return
	}
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.redirect(w, r, "/holdings", render.Flash{Category: utils.FlashSuccess, Message: "The holding has been added."})
}

func (h *Handler) GetUpdateHolding(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	holdingID, err := formInt(r, "holding_id")
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	holding, err := h.repository(r).FindHolding(ctx, holdingID)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "update_holding.html", "Update holding", holding)
}

// PostUpdateHolding sets the share count and, when the form carries both
// asset_id and current_price, the asset's price as well.
func (h *Handler) PostUpdateHolding(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	holdingID, err := formInt(r, "holding_id")
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	shares, err := formDecimal(r, "shares")
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	price, hasPrice, err := optionalFormDecimal(r, "current_price")
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}

	repo := h.repository(r)
	if hasPrice && strings.TrimSpace(r.FormValue("asset_id")) != "" {
		var assetID int
		if assetID, err = formInt(r, "asset_id"); err != nil {
			h.HandleErrors(w, r, err)
			return
		}
		err = repo.UpdateHoldingAndPrice(ctx, holdingID, shares, assetID, price)
	} else {
		err = repo.UpdateHolding(ctx, holdingID, shares)
	}
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.redirect(w, r, "/holdings", render.Flash{Category: utils.FlashSuccess, Message: "The holding has been updated."})
}

func (h *Handler) PostDeleteHolding(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	holdingID, err := formInt(r, "holding_id")
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	if err := h.repository(r).DeleteHolding(ctx, holdingID); err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.redirect(w, r, "/holdings", render.Flash{Category: utils.FlashSuccess, Message: "The holding has been deleted."})
}
