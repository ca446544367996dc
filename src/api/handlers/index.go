package handlers

import (
	"net/http"
)

// GetIndex shows the portfolio total to signed in users and a welcome otherwise.
func (h *Handler) GetIndex(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(r); !ok {
		h.render(w, r, http.StatusOK, "index.html", "", nil)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	total, err := h.repository(r).PortfolioTotal(ctx)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "index.html", "", total)
}
