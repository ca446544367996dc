package handlers_test

import (
	"context"
	"sort"
	"strings"
	"sync"

	"portfolio/src/models"
	"portfolio/src/repositories"

	"github.com/shopspring/decimal"
)

// memoryStore keeps every user's rows; memoryRepo is its per-user view.
type memoryStore struct {
	mu       sync.Mutex
	nextID   int
	accounts map[int]models.Account
	assets   map[int]models.Asset
	holdings map[int]models.Holding
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		accounts: map[int]models.Account{},
		assets:   map[int]models.Asset{},
		holdings: map[int]models.Holding{},
	}
}

func (s *memoryStore) factory() repositories.PortfolioRepositoryFactory {
	return func(userID uint) repositories.PortfolioRepository {
		return &memoryRepo{store: s, userID: userID}
	}
}

type memoryRepo struct {
	store  *memoryStore
	userID uint
}

func (r *memoryRepo) id() int {
	r.store.nextID++
	return r.store.nextID
}

func (r *memoryRepo) AllAccounts(ctx context.Context) ([]models.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.accounts(), nil
}

func (r *memoryRepo) accounts() []models.Account {
	accounts := []models.Account{}
	for _, a := range r.store.accounts {
		if a.UserID == r.userID {
			accounts = append(accounts, a)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].AccountName < accounts[j].AccountName })
	return accounts
}

func (r *memoryRepo) AllAssets(ctx context.Context) ([]models.Asset, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.assets(), nil
}

func (r *memoryRepo) assets() []models.Asset {
	assets := []models.Asset{}
	for _, a := range r.store.assets {
		if a.UserID == r.userID {
			assets = append(assets, a)
		}
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].Ticker < assets[j].Ticker })
	return assets
}

// rows mirrors views.base_holdings for the user, percent included.
func (r *memoryRepo) rows() []models.HoldingRow {
	rows := []models.HoldingRow{}
	total := decimal.Zero
	for _, account := range r.accounts() {
		held := false
		for _, h := range r.store.holdings {
			if h.AccountID != account.ID {
				continue
			}
			held = true
			asset := r.store.assets[h.AssetID]
			holdingID, assetID := h.ID, asset.ID
			ticker, name, category := asset.Ticker, asset.Name, asset.Category
			value := asset.CurrentPrice.Mul(h.Shares)
			total = total.Add(value)
			rows = append(rows, models.HoldingRow{
				AccountID:    account.ID,
				AccountName:  account.AccountName,
				AccountType:  account.AccountType,
				HoldingID:    &holdingID,
				AssetID:      &assetID,
				Ticker:       &ticker,
				Name:         &name,
				Category:     &category,
				CurrentPrice: decimal.NewNullDecimal(asset.CurrentPrice),
				Shares:       decimal.NewNullDecimal(h.Shares),
				MarketValue:  decimal.NewNullDecimal(value),
			})
		}
		if !held {
			rows = append(rows, models.HoldingRow{
				AccountID:   account.ID,
				AccountName: account.AccountName,
				AccountType: account.AccountType,
			})
		}
	}
	for i := range rows {
		if rows[i].MarketValue.Valid && !total.IsZero() {
			rows[i].Percent = decimal.NewNullDecimal(rows[i].MarketValue.Decimal.Div(total))
		}
	}
	return rows
}

func (r *memoryRepo) AllHoldings(ctx context.Context) ([]models.HoldingRow, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	held := []models.HoldingRow{}
	for _, row := range r.rows() {
		if row.HasHolding() {
			held = append(held, row)
		}
	}
	return held, nil
}

func (r *memoryRepo) AccountHoldings(ctx context.Context, accountID int) ([]models.HoldingRow, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	rows := []models.HoldingRow{}
	for _, row := range r.rows() {
		if row.AccountID == accountID {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (r *memoryRepo) FindHolding(ctx context.Context, holdingID int) (*models.HoldingRow, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, row := range r.rows() {
		if row.HoldingID != nil && *row.HoldingID == holdingID {
			return &row, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *memoryRepo) FindAsset(ctx context.Context, assetID int) (*models.Asset, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	asset, ok := r.store.assets[assetID]
	if !ok || asset.UserID != r.userID {
		return nil, repositories.ErrNotFound
	}
	return &asset, nil
}

func (r *memoryRepo) AddAccount(ctx context.Context, accountName, accountType string) error {
	if accountName == "" || accountType == "" {
		return repositories.ErrInvalidInput
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	id := r.id()
	r.store.accounts[id] = models.Account{ID: id, AccountName: accountName, AccountType: accountType, UserID: r.userID}
	return nil
}

func (r *memoryRepo) AddAsset(ctx context.Context, ticker, name, category string, currentPrice decimal.Decimal) error {
	if ticker == "" || name == "" || category == "" || currentPrice.IsNegative() {
		return repositories.ErrInvalidInput
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	id := r.id()
	r.store.assets[id] = models.Asset{
		ID:           id,
		Ticker:       strings.ToUpper(ticker),
		Name:         name,
		Category:     category,
		CurrentPrice: currentPrice,
		UserID:       r.userID,
	}
	return nil
}

func (r *memoryRepo) AddHolding(ctx context.Context, accountID, assetID int, shares decimal.Decimal) error {
	if accountID <= 0 || assetID <= 0 || shares.IsNegative() {
		return repositories.ErrInvalidInput
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	account, okAccount := r.store.accounts[accountID]
	asset, okAsset := r.store.assets[assetID]
	if !okAccount || !okAsset || account.UserID != r.userID || asset.UserID != r.userID {
		return repositories.ErrNotFound
	}
	id := r.id()
	r.store.holdings[id] = models.Holding{ID: id, AccountID: accountID, AssetID: assetID, Shares: shares, UserID: r.userID}
	return nil
}

func (r *memoryRepo) UpdateHolding(ctx context.Context, holdingID int, shares decimal.Decimal) error {
	if shares.IsNegative() {
		return repositories.ErrInvalidInput
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	holding, ok := r.store.holdings[holdingID]
	if !ok || holding.UserID != r.userID {
		return repositories.ErrNotFound
	}
	holding.Shares = shares
	r.store.holdings[holdingID] = holding
	return nil
}

func (r *memoryRepo) UpdateHoldingAndPrice(ctx context.Context, holdingID int, shares decimal.Decimal, assetID int, currentPrice decimal.Decimal) error {
	if shares.IsNegative() || currentPrice.IsNegative() {
		return repositories.ErrInvalidInput
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	holding, okHolding := r.store.holdings[holdingID]
	asset, okAsset := r.store.assets[assetID]
	if !okHolding || !okAsset || holding.UserID != r.userID || asset.UserID != r.userID {
		return repositories.ErrNotFound
	}
	holding.Shares = shares
	asset.CurrentPrice = currentPrice
	r.store.holdings[holdingID] = holding
	r.store.assets[assetID] = asset
	return nil
}

func (r *memoryRepo) UpdateAsset(ctx context.Context, assetID int, currentPrice decimal.Decimal) error {
	if currentPrice.IsNegative() {
		return repositories.ErrInvalidInput
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	asset, ok := r.store.assets[assetID]
	if !ok || asset.UserID != r.userID {
		return repositories.ErrNotFound
	}
	asset.CurrentPrice = currentPrice
	r.store.assets[assetID] = asset
	return nil
}

func (r *memoryRepo) DeleteAccount(ctx context.Context, accountID int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	account, ok := r.store.accounts[accountID]
	if !ok || account.UserID != r.userID {
		return repositories.ErrNotFound
	}
	delete(r.store.accounts, accountID)
	for id, h := range r.store.holdings {
		if h.AccountID == accountID {
			delete(r.store.holdings, id)
		}
	}
	return nil
}

func (r *memoryRepo) DeleteAsset(ctx context.Context, assetID int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	asset, ok := r.store.assets[assetID]
	if !ok || asset.UserID != r.userID {
		return repositories.ErrNotFound
	}
	delete(r.store.assets, assetID)
	for id, h := range r.store.holdings {
		if h.AssetID == assetID {
			delete(r.store.holdings, id)
		}
	}
	return nil
}

func (r *memoryRepo) DeleteHolding(ctx context.Context, holdingID int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	holding, ok := r.store.holdings[holdingID]
	if !ok || holding.UserID != r.userID {
		return repositories.ErrNotFound
	}
	delete(r.store.holdings, holdingID)
	return nil
}

func (r *memoryRepo) AccountTotals(ctx context.Context) ([]models.AccountTotal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	totals := []models.AccountTotal{}
	index := map[int]int{}
	for _, row := range r.rows() {
		i, ok := index[row.AccountID]
		if !ok {
			i = len(totals)
			index[row.AccountID] = i
			totals = append(totals, models.AccountTotal{
				AccountID:   row.AccountID,
				AccountName: row.AccountName,
				AccountType: row.AccountType,
			})
		}
		if row.HasHolding() {
			totals[i].NumberHoldings++
			totals[i].TotalMarketValue = totals[i].TotalMarketValue.Add(row.MarketValue.Decimal)
			totals[i].Percent = totals[i].Percent.Add(row.Percent.Decimal)
		}
	}
	return totals, nil
}

func (r *memoryRepo) AssetTotals(ctx context.Context) ([]models.AssetTotal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	rows := r.rows()
	totals := []models.AssetTotal{}
	for _, asset := range r.assets() {
		total := models.AssetTotal{
			AssetID:      asset.ID,
			Ticker:       asset.Ticker,
			Name:         asset.Name,
			Category:     asset.Category,
			CurrentPrice: asset.CurrentPrice,
		}
		accounts := map[int]bool{}
		for _, row := range rows {
			if row.AssetID == nil || *row.AssetID != asset.ID {
				continue
			}
			accounts[row.AccountID] = true
			total.TotalShares = total.TotalShares.Add(row.Shares.Decimal)
			total.TotalMarketValue = total.TotalMarketValue.Add(row.MarketValue.Decimal)
			total.Percent = total.Percent.Add(row.Percent.Decimal)
		}
		total.NumberAccounts = int64(len(accounts))
		totals = append(totals, total)
	}
	return totals, nil
}

func (r *memoryRepo) PortfolioTotal(ctx context.Context) (decimal.Decimal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	total := decimal.Zero
	for _, row := range r.rows() {
		total = total.Add(row.MarketValue.Decimal)
	}
	return total, nil
}

func (r *memoryRepo) Columns() []string {
	return append([]string(nil), models.HoldingColumns...)
}

// memoryUsers is an in-memory repositories.UserRepository. With raceDuplicates
// set it hides existing names from AllUsers so CreateUser hits the unique check.
type memoryUsers struct {
	mu             sync.Mutex
	users          []models.User
	raceDuplicates bool
}

func (m *memoryUsers) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return nil, repositories.ErrDuplicateUsername
		}
	}
	user := models.User{ID: uint(len(m.users) + 1), Username: username, PasswordHash: passwordHash}
	m.users = append(m.users, user)
	return &user, nil
}

func (m *memoryUsers) AllUsers(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := []string{}
	if m.raceDuplicates {
		return names, nil
	}
	for _, u := range m.users {
		names = append(names, u.Username)
	}
	return names, nil
}

func (m *memoryUsers) LoadUserCredentials(ctx context.Context) (map[string]models.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	credentials := map[string]models.Credential{}
	for _, u := range m.users {
		credentials[u.Username] = models.Credential{ID: u.ID, PasswordHash: u.PasswordHash}
	}
	return credentials, nil
}
