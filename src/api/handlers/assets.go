package handlers

import (
	"errors"
	"net/http"
	"strings"

	"portfolio/src/repositories"
	"portfolio/src/utils"
	"portfolio/src/utils/render"

	"github.com/shopspring/decimal"
)

func (h *Handler) GetAssets(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	totals, err := h.repository(r).AssetTotals(ctx)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "assets.html", "Assets", totals)
}

func (h *Handler) GetNewAsset(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "new_asset.html", "New asset", nil)
}

func (h *Handler) PostAsset(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	ticker := strings.TrimSpace(r.FormValue("asset_ticker"))
	name := strings.TrimSpace(r.FormValue("asset_name"))
	category := strings.TrimSpace(r.FormValue("asset_category"))
	price, ok, err := optionalFormDecimal(r, "current_price")
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	if !ok {
		price = decimal.Zero
	}

	err = h.repository(r).AddAsset(ctx, ticker, name, category, price)
	if errors.Is(err, repositories.ErrInvalidInput) {
		h.render(w, r, http.StatusUnprocessableEntity, "new_asset.html", "New asset", nil,
			render.Flash{Category: utils.FlashError, Message: "Invalid asset details."})
		return
	}
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.redirect(w, r, "/assets", render.Flash{Category: utils.FlashSuccess, Message: "The asset has been added."})
}

func (h *Handler) GetUpdateAsset(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	assetID, err := formInt(r, "asset_id")
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	asset, err := h.repository(r).FindAsset(ctx, assetID)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "update_asset.html", "Update asset", asset)
}

func (h *Handler) PostUpdateAsset(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	assetID, err := formInt(r, "asset_id")
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	price, err := formDecimal(r, "current_price")
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}

	if err := h.repository(r).UpdateAsset(ctx, assetID, price); err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.redirect(w, r, "/assets", render.Flash{Category: utils.FlashSuccess, Message: "The asset has been updated."})
}

func (h *Handler) PostDeleteAsset(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	assetID, err := formInt(r, "asset_id")
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	if err := h.repository(r).DeleteAsset(ctx, assetID); err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.redirect(w, r, "/assets", render.Flash{Category: utils.FlashSuccess, Message: "The asset has been deleted."})
}
