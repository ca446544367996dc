package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"portfolio/src/utils"

	"github.com/shopspring/decimal"
)

// formInt reads an integer from the query string or the posted form.
func formInt(r *http.Request, field string) (int, error) {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return 0, utils.BadRequest(fmt.Sprintf("missing %s", field))
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, utils.BadRequest(fmt.Sprintf("invalid %s", field))
	}
	return value, nil
}

func formDecimal(r *http.Request, field string) (decimal.Decimal, error) {
	value, ok, err := optionalFormDecimal(r, field)
	if err != nil {
		return decimal.Zero, err
	}
	if !ok {
		return decimal.Zero, utils.BadRequest(fmt.Sprintf("missing %s", field))
	}
	return value, nil
}

// optionalFormDecimal reports ok=false when the field is absent or blank.
func optionalFormDecimal(r *http.Request, field string) (decimal.Decimal, bool, error) {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return decimal.Zero, false, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, utils.BadRequest(fmt.Sprintf("invalid %s", field))
	}
	return value, true, nil
}
