package handlers_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"portfolio/src/api"
	"portfolio/src/api/handlers"
	"portfolio/src/config"
	"portfolio/src/models"
	"portfolio/src/services"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	ts    *httptest.Server
	users *memoryUsers
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Service: config.ServiceConfig{RequestTimeout: 5 * time.Second},
		Session: config.SessionConfig{Secret: "test-secret", TTL: time.Hour},
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	users := &memoryUsers{}
	credentialService := services.NewCredentialService(users).WithCost(bcrypt.MinCost)
	h, err := handlers.NewHandler(credentialService, services.NewReportService(), newMemoryStore().factory(), logger, cfg)
	require.NoError(t, err)

	ts := httptest.NewServer(api.NewServer(h))
	t.Cleanup(ts.Close)
	return &testEnv{ts: ts, users: users}
}

// client keeps cookies and stops at redirects so tests can inspect them.
func (e *testEnv) client(t *testing.T) *http.Client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (e *testEnv) get(t *testing.T, c *http.Client, path string, asJSON bool) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, e.ts.URL+path, nil)
	require.NoError(t, err)
	if asJSON {
		req.Header.Set("Accept", "application/json")
	}
	res, err := c.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func (e *testEnv) post(t *testing.T, c *http.Client, path string, form url.Values, asJSON bool) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, e.ts.URL+path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if asJSON {
		req.Header.Set("Accept", "application/json")
	}
	res, err := c.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func readBody(t *testing.T, res *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return string(body)
}

func decodeData(t *testing.T, res *http.Response, target interface{}) {
	t.Helper()
	payload := struct {
		Data json.RawMessage `json:"data"`
	}{}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&payload))
	require.NoError(t, json.Unmarshal(payload.Data, target))
}

func credentials(username, password string) url.Values {
	return url.Values{"username": {username}, "password": {password}}
}

// signedIn registers username and returns a client holding its session.
func (e *testEnv) signedIn(t *testing.T, username string) *http.Client {
	t.Helper()
	c := e.client(t)
	res := e.post(t, c, "/create_user", credentials(username, "password1"), false)
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	res = e.post(t, c, "/signin", credentials(username, "password1"), false)
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	return c
}

func TestHealthcheck(t *testing.T) {
	env := newTestEnv(t)
	res := env.get(t, env.client(t), "/alive", false)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "Im alive!", readBody(t, res))
}

func TestRequireLogin(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)

	for _, path := range []string{"/accounts", "/assets", "/holdings", "/holdings/export", "/assets/allocation"} {
		res := env.get(t, c, path, false)
		assert.Equal(t, http.StatusSeeOther, res.StatusCode, path)
		assert.Equal(t, "/signin", res.Header.Get("Location"), path)
	}

	res := env.get(t, c, "/signin", false)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, readBody(t, res), "You must be signed in to do that.")

	// the flash is shown once
	res = env.get(t, c, "/signin", false)
	assert.NotContains(t, readBody(t, res), "You must be signed in to do that.")

	res = env.get(t, c, "/accounts", true)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Contains(t, readBody(t, res), "You must be signed in to do that.")
}

func TestTamperedSessionIsRejected(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)
	u, err := url.Parse(env.ts.URL)
	require.NoError(t, err)
	c.Jar.SetCookies(u, []*http.Cookie{{Name: "jwt", Value: "not.a.token", Path: "/"}})

	res := env.get(t, c, "/accounts", false)
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/signin", res.Header.Get("Location"))
}

func TestCreateUser(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name     string
		username string
		password string
		message  string
	}{
		{name: "too short username", username: "a", password: "password1", message: "Invalid username."},
		{name: "symbols in username", username: "bob!", password: "password1", message: "Invalid username."},
		{name: "short password", username: "bob", password: "pass1", message: "Invalid password."},
		{name: "password without digit", username: "bob", password: "password", message: "Invalid password."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := env.post(t, env.client(t), "/create_user", credentials(tt.username, tt.password), false)
			assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
			assert.Contains(t, readBody(t, res), tt.message)
		})
	}

	c := env.client(t)
	res := env.post(t, c, "/create_user", credentials("bob", "password1"), false)
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/signin", res.Header.Get("Location"))

	res = env.get(t, c, "/signin", false)
	assert.Contains(t, readBody(t, res), "New user successfully created.")

	res = env.post(t, c, "/create_user", credentials("bob", "password2"), false)
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	assert.Contains(t, readBody(t, res), "Invalid username.")
}

func TestCreateUserDuplicateRace(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)

	res := env.post(t, c, "/create_user", credentials("bob", "password1"), false)
	require.Equal(t, http.StatusSeeOther, res.StatusCode)

	env.users.raceDuplicates = true
	res = env.post(t, c, "/create_user", credentials("bob", "password1"), false)
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	assert.Contains(t, readBody(t, res), "Username already taken.")
}

func TestSignInAndOut(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)
	res := env.post(t, c, "/create_user", credentials("alice", "password1"), false)
	require.Equal(t, http.StatusSeeOther, res.StatusCode)

	res = env.post(t, c, "/signin", credentials("nobody", "password1"), false)
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	assert.Contains(t, readBody(t, res), "Invalid username.")

	res = env.post(t, c, "/signin", credentials("alice", "wrongpass1"), false)
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/", res.Header.Get("Location"))
	res = env.get(t, c, "/", false)
	assert.Contains(t, readBody(t, res), "Invalid password.")

	res = env.post(t, c, "/signin", credentials("alice", "password1"), false)
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/", res.Header.Get("Location"))

	res = env.get(t, c, "/", false)
	body := readBody(t, res)
	assert.Contains(t, body, "Welcome alice.")
	assert.Contains(t, body, "Signed in as alice")
	assert.Contains(t, body, "Total market value: 0.00")

	res = env.get(t, c, "/signin", false)
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)

	res = env.get(t, c, "/signin", true)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	var redirect struct {
		Location string `json:"location"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&redirect))
	assert.Equal(t, "/", redirect.Location)

	res = env.post(t, c, "/signin", credentials("alice", "password1"), true)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, readBody(t, res), `"location":"/"`)

	res = env.get(t, c, "/accounts", false)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res = env.post(t, c, "/signout", url.Values{}, false)
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/signin", res.Header.Get("Location"))

	res = env.get(t, c, "/accounts", false)
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
}

func TestPortfolioFlow(t *testing.T) {
	env := newTestEnv(t)
	c := env.signedIn(t, "alice")

	res := env.post(t, c, "/accounts", url.Values{"account_name": {"  Brokerage "}, "account_type": {"Taxable"}}, true)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, readBody(t, res), "The account has been added.")

	res = env.post(t, c, "/accounts", url.Values{"account_name": {" "}, "account_type": {"Taxable"}}, false)
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	assert.Contains(t, readBody(t, res), "Account name and type are required.")

	res = env.post(t, c, "/assets", url.Values{
		"asset_ticker": {"vti"}, "asset_name": {"Total Market"}, "asset_category": {"Equity"}, "current_price": {"100"},
	}, true)
	require.Equal(t, http.StatusOK, res.StatusCode)

	res = env.post(t, c, "/assets", url.Values{
		"asset_ticker": {"BND"}, "asset_name": {"Bonds"}, "asset_category": {"Fixed Income"}, "current_price": {"abc"},
	}, false)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	var accounts []models.AccountTotal
	decodeData(t, env.get(t, c, "/accounts", true), &accounts)
	require.Len(t, accounts, 1)
	assert.Equal(t, "Brokerage", accounts[0].AccountName)
	accountID := strconv.Itoa(accounts[0].AccountID)

	var assets []models.AssetTotal
	decodeData(t, env.get(t, c, "/assets", true), &assets)
	require.Len(t, assets, 1)
	assert.Equal(t, "VTI", assets[0].Ticker)
	assert.Equal(t, int64(0), assets[0].NumberAccounts)
	assetID := strconv.Itoa(assets[0].AssetID)

	res = env.post(t, c, "/holdings", url.Values{"account_id": {accountID}, "asset_id": {assetID}, "shares": {"-1"}}, false)
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	assert.Contains(t, readBody(t, res), "Invalid holding details.")

	res = env.post(t, c, "/holdings", url.Values{"account_id": {"0"}, "asset_id": {assetID}, "shares": {"1"}}, false)
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	assert.Contains(t, readBody(t, res), "Invalid holding details.")

	res = env.post(t, c, "/holdings", url.Values{"account_id": {accountID}, "asset_id": {assetID}, "shares": {"10"}}, true)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var page struct {
		Columns  []string            `json:"columns"`
		Holdings []models.HoldingRow `json:"holdings"`
	}
	decodeData(t, env.get(t, c, "/holdings", true), &page)
	assert.Equal(t, models.HoldingColumns, page.Columns)
	require.Len(t, page.Holdings, 1)
	holding := page.Holdings[0]
	require.NotNil(t, holding.HoldingID)
	assert.True(t, holding.MarketValue.Decimal.Equal(decimal.NewFromInt(1000)))
	assert.True(t, holding.Percent.Decimal.Equal(decimal.NewFromInt(1)))
	holdingID := strconv.Itoa(*holding.HoldingID)

	res = env.get(t, c, "/holdings?account_id="+accountID, false)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, readBody(t, res), "Total Market")

	res = env.get(t, c, "/holdings/update?holding_id="+holdingID, false)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, readBody(t, res), "Update VTI in Brokerage")

	res = env.post(t, c, "/holdings/update", url.Values{
		"holding_id": {holdingID}, "asset_id": {assetID}, "shares": {"20"}, "current_price": {"50"},
	}, false)
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/holdings", res.Header.Get("Location"))

	decodeData(t, env.get(t, c, "/holdings", true), &page)
	require.Len(t, page.Holdings, 1)
	assert.True(t, page.Holdings[0].Shares.Decimal.Equal(decimal.NewFromInt(20)))
	assert.True(t, page.Holdings[0].CurrentPrice.Decimal.Equal(decimal.NewFromInt(50)))
	assert.True(t, page.Holdings[0].MarketValue.Decimal.Equal(decimal.NewFromInt(1000)))

	res = env.post(t, c, "/holdings/update", url.Values{
		"holding_id": {holdingID}, "asset_id": {"9999"}, "shares": {"30"}, "current_price": {"70"},
	}, false)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	decodeData(t, env.get(t, c, "/holdings", true), &page)
	require.Len(t, page.Holdings, 1)
	assert.True(t, page.Holdings[0].Shares.Decimal.Equal(decimal.NewFromInt(20)), "a failed price update leaves the shares alone")

	res = env.get(t, c, "/assets/update?asset_id="+assetID, false)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	res = env.post(t, c, "/assets/update", url.Values{"asset_id": {assetID}, "current_price": {"60"}}, false)
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)

	var asset models.Asset
	decodeData(t, env.get(t, c, "/assets/update?asset_id="+assetID, true), &asset)
	assert.True(t, asset.CurrentPrice.Equal(decimal.NewFromInt(60)))

	res = env.get(t, c, "/", false)
	assert.Contains(t, readBody(t, res), "Total market value: 1200.00")

	res = env.post(t, c, "/accounts/delete", url.Values{"account_id": {accountID}}, false)
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)

	decodeData(t, env.get(t, c, "/holdings", true), &page)
	assert.Empty(t, page.Holdings)
}

func TestNotFoundAndBadRequest(t *testing.T) {
	env := newTestEnv(t)
	c := env.signedIn(t, "alice")

	res := env.post(t, c, "/holdings/delete", url.Values{"holding_id": {"abc"}}, false)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = env.post(t, c, "/holdings/delete", url.Values{}, true)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = env.post(t, c, "/holdings/delete", url.Values{"holding_id": {"9999"}}, false)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res = env.get(t, c, "/assets/update?asset_id=9999", true)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Contains(t, readBody(t, res), "Not found")

	res = env.post(t, c, "/holdings", url.Values{"account_id": {"1"}, "asset_id": {"2"}, "shares": {"1"}}, false)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestUsersAreIsolated(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signedIn(t, "alice")
	carol := env.signedIn(t, "carol")

	env.post(t, alice, "/accounts", url.Values{"account_name": {"Roth"}, "account_type": {"Retirement"}}, true)
	env.post(t, alice, "/assets", url.Values{
		"asset_ticker": {"VTI"}, "asset_name": {"Total Market"}, "asset_category": {"Equity"}, "current_price": {"10"},
	}, true)

	var accounts []models.AccountTotal
	decodeData(t, env.get(t, alice, "/accounts", true), &accounts)
	require.Len(t, accounts, 1)
	var assets []models.AssetTotal
	decodeData(t, env.get(t, alice, "/assets", true), &assets)
	require.Len(t, assets, 1)
	accountID := strconv.Itoa(accounts[0].AccountID)
	assetID := strconv.Itoa(assets[0].AssetID)

	var carolAccounts []models.AccountTotal
	decodeData(t, env.get(t, carol, "/accounts", true), &carolAccounts)
	assert.Empty(t, carolAccounts)

	res := env.post(t, carol, "/holdings", url.Values{"account_id": {accountID}, "asset_id": {assetID}, "shares": {"1"}}, false)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res = env.post(t, carol, "/accounts/delete", url.Values{"account_id": {accountID}}, false)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res = env.get(t, carol, "/assets/update?asset_id="+assetID, false)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	decodeData(t, env.get(t, alice, "/accounts", true), &accounts)
	assert.Len(t, accounts, 1)
}

func TestReports(t *testing.T) {
	env := newTestEnv(t)
	c := env.signedIn(t, "alice")

	env.post(t, c, "/accounts", url.Values{"account_name": {"Brokerage"}, "account_type": {"Taxable"}}, true)
	env.post(t, c, "/accounts", url.Values{"account_name": {"Empty"}, "account_type": {"Other"}}, true)
	env.post(t, c, "/assets", url.Values{
		"asset_ticker": {"VTI"}, "asset_name": {"Total Market"}, "asset_category": {"Equity"}, "current_price": {"100"},
	}, true)

	var accounts []models.Account
	var page struct {
		Accounts []models.Account `json:"accounts"`
		Assets   []models.Asset   `json:"assets"`
	}
	decodeData(t, env.get(t, c, "/holdings/new", true), &page)
	accounts = page.Accounts
	require.Len(t, accounts, 2)
	require.Len(t, page.Assets, 1)
	assert.Equal(t, "Brokerage", accounts[0].AccountName)

	res := env.post(t, c, "/holdings", url.Values{
		"account_id": {strconv.Itoa(accounts[0].ID)}, "asset_id": {strconv.Itoa(page.Assets[0].ID)}, "shares": {"3"},
	}, true)
	require.Equal(t, http.StatusOK, res.StatusCode)

	res = env.get(t, c, "/holdings/export", false)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", res.Header.Get("Content-Type"))

	f, err := excelize.OpenReader(res.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Holdings")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	res = env.get(t, c, "/assets/allocation", false)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, readBody(t, res), "VTI")
}
