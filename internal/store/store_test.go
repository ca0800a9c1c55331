package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bricks-admin/dashboard/internal/client"
	"github.com/bricks-admin/dashboard/internal/models"
	"github.com/bricks-admin/dashboard/internal/rules"
	"github.com/bricks-admin/dashboard/internal/storage"
	"github.com/bricks-admin/dashboard/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI serves canned data and counts calls
type fakeAPI struct {
	mu    sync.Mutex
	calls map[string]int

	users        []models.User
	tokens       []models.Token
	adminBalance []models.AdminBalanceRow
	bedash       []models.BedashItem

	tokensFn      func(ctx context.Context, userID int64) ([]models.Token, error)
	createTokenFn func(ctx context.Context, req models.CreateTokenRequest) (*models.Token, error)
	usersFn       func(ctx context.Context) ([]models.User, error)
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{calls: make(map[string]int)}
}

func (f *fakeAPI) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeAPI) Login(ctx context.Context, req models.LoginRequest) (string, error) {
	f.record("Login")
	if req.Password != "secret" {
		return "", &client.APIError{StatusCode: 401, Msg: "invalid email or password"}
	}
	return "credential", nil
}

func (f *fakeAPI) Logout(ctx context.Context) error {
	f.record("Logout")
	return nil
}

func (f *fakeAPI) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	f.record("Register")
	u := models.User{ID: int64(len(f.users) + 10), Name: req.Name, Email: req.Email, Role: req.Role, IsActive: true}
	f.users = append(f.users, u)
	return &u, nil
}

func (f *fakeAPI) Users(ctx context.Context) ([]models.User, error) {
	f.record("Users")
	if f.usersFn != nil {
		return f.usersFn(ctx)
	}
	return f.users, nil
}

func (f *fakeAPI) UpdateUser(ctx context.Context, userID int64, req models.UpdateUserRequest) (*models.User, error) {
	f.record("UpdateUser")
	return &models.User{ID: userID}, nil
}

func (f *fakeAPI) DeleteUser(ctx context.Context, userID int64) error {
	f.record("DeleteUser")
	return nil
}

func (f *fakeAPI) Balance(ctx context.Context, userID int64) (*models.BalanceSummary, error) {
	f.record("Balance")
	return &models.BalanceSummary{User: models.UserRef{ID: userID}}, nil
}

func (f *fakeAPI) AddBalance(ctx context.Context, req models.AddBalanceRequest) (*models.Transaction, error) {
	f.record("AddBalance")
	return &models.Transaction{ID: 1, UserID: req.UserID, PaymentMode: req.PaymentMode}, nil
}

func (f *fakeAPI) EditBalance(ctx context.Context, transactionID int64, req models.EditBalanceRequest) (*models.Transaction, error) {
	f.record("EditBalance")
	return &models.Transaction{ID: transactionID}, nil
}

func (f *fakeAPI) DeleteBalance(ctx context.Context, transactionID int64) error {
	f.record("DeleteBalance")
	return nil
}

func (f *fakeAPI) AdminBalance(ctx context.Context) ([]models.AdminBalanceRow, error) {
	f.record("AdminBalance")
	return f.adminBalance, nil
}

func (f *fakeAPI) Tokens(ctx context.Context, userID int64) ([]models.Token, error) {
	f.record("Tokens")
	if f.tokensFn != nil {
		return f.tokensFn(ctx, userID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Token
	for _, t := range f.tokens {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeAPI) AllTokens(ctx context.Context) ([]models.Token, error) {
	f.record("AllTokens")
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Token(nil), f.tokens...), nil
}

func (f *fakeAPI) CreateToken(ctx context.Context, req models.CreateTokenRequest) (*models.Token, error) {
	f.record("CreateToken")
	if f.createTokenFn != nil {
		return f.createTokenFn(ctx, req)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t := models.Token{
		ID:           int64(len(f.tokens) + 1),
		UserID:       req.UserID,
		CustomerName: req.CustomerName,
		MaterialType: req.MaterialType,
		Status:       models.TokenPending,
	}
	f.tokens = append(f.tokens, t)
	return &t, nil
}

func (f *fakeAPI) UpdateToken(ctx context.Context, req models.UpdateTokenRequest) (*models.Token, error) {
	f.record("UpdateToken")
	return &models.Token{ID: req.TokenID, Status: models.TokenUpdated}, nil
}

func (f *fakeAPI) ConfirmToken(ctx context.Context, req models.ConfirmTokenRequest) (*models.Token, error) {
	f.record("ConfirmToken")
	return &models.Token{ID: req.TokenID, Status: models.TokenCompleted}, nil
}

func (f *fakeAPI) DeleteToken(ctx context.Context, tokenID int64) error {
	f.record("DeleteToken")
	return nil
}

func (f *fakeAPI) Bedash(ctx context.Context) ([]models.BedashItem, error) {
	f.record("Bedash")
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.BedashItem(nil), f.bedash...), nil
}

func (f *fakeAPI) AddBedash(ctx context.Context, req models.AddBedashRequest) (*models.BedashItem, error) {
	f.record("AddBedash")
	return &models.BedashItem{ID: 1, UserID: req.UserID, Status: models.BedashPending}, nil
}

func (f *fakeAPI) ConfirmBedash(ctx context.Context, bedashID int64) (*models.BedashItem, error) {
	f.record("ConfirmBedash")
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.bedash {
		if f.bedash[i].ID == bedashID {
			f.bedash[i].Status = models.BedashCompleted
			item := f.bedash[i]
			return &item, nil
		}
	}
	return nil, &client.APIError{StatusCode: 404, Msg: "message not found"}
}

// fakeSession signs in as a fixed identity
type fakeSession struct {
	mu       sync.Mutex
	identity models.Identity
	token    string
}

func (s *fakeSession) Login(token string) (models.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return s.identity, nil
}

func (s *fakeSession) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

func (s *fakeSession) Restore() (models.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity, s.token != ""
}

func (s *fakeSession) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

var (
	admin = models.Identity{ID: 2, Name: "Anna Admin", Role: models.RoleAdmin}
	epoch = time.UnixMilli(1_760_000_000_000)
)

func setup(t *testing.T, opts ...store.Option) (*store.Store, *fakeAPI, storage.Store) {
	api := newFakeAPI()
	prefs := storage.NewMemoryStore()
	st := store.New(api, &fakeSession{identity: admin}, prefs, opts...)
	require.NoError(t, st.Login(context.Background(), "admin@example.com", "secret"))
	return st, api, prefs
}

func TestLoginMovesToDashboard(t *testing.T) {
	st, _, _ := setup(t)

	state := st.Snapshot()
	assert.Equal(t, store.RouteDashboard, state.Route)
	assert.Equal(t, "credential", state.Auth.Token)
	assert.Equal(t, admin, state.Auth.User)
	assert.Equal(t, models.NotifySuccess, state.Notification.Type)
}

func TestFailedLoginStaysOnLogin(t *testing.T) {
	st := store.New(newFakeAPI(), &fakeSession{identity: admin}, storage.NewMemoryStore())

	err := st.Login(context.Background(), "admin@example.com", "wrong")
	require.Error(t, err)

	state := st.Snapshot()
	assert.Equal(t, store.RouteLogin, state.Route)
	assert.Equal(t, "invalid email or password", state.Auth.Error)
	assert.Equal(t, models.Notification{Type: models.NotifyError, Message: "invalid email or password"}, state.Notification)
}

func TestCreateTokenRefetchesOwnerTokens(t *testing.T) {
	st, api, _ := setup(t)

	err := st.CreateToken(context.Background(), rules.TokenForm{
		UserID:       7,
		CustomerName: "  Acme ",
		MaterialType: models.MaterialFlyash,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, api.count("CreateToken"))
	assert.Equal(t, 1, api.count("Tokens"))

	state := st.Snapshot()
	require.Len(t, state.Tokens.Items, 1)
	assert.Equal(t, "Acme", state.Tokens.Items[0].CustomerName)
	assert.Equal(t, models.TokenPending, state.Tokens.Items[0].Status)
	assert.False(t, state.Tokens.Loading)
	assert.Equal(t, models.Notification{Type: models.NotifySuccess, Message: "Token created"}, state.Notification)
}

func TestInvalidFormMakesNoRequest(t *testing.T) {
	st, api, _ := setup(t, store.WithNotificationDelay(20*time.Millisecond))
	before := api.total()

	err := st.AddBalance(context.Background(), rules.BalanceForm{UserID: 7, PaymentMode: models.PaymentCash})
	require.Error(t, err)
	assert.True(t, rules.IsValidationError(err))
	assert.Equal(t, before, api.total())

	n := st.Snapshot().Notification
	assert.Equal(t, models.NotifyWarning, n.Type)
	assert.Equal(t, "Please fill required fields", n.Message)

	assert.Eventually(t, func() bool { return st.Snapshot().Notification.Empty() },
		time.Second, 5*time.Millisecond)
}

func TestUnauthorizedForcesLogout(t *testing.T) {
	st, api, prefs := setup(t)
	_, err := st.ToggleTheme()
	require.NoError(t, err)

	// the client calls its unauthorized handler before returning the error
	api.usersFn = func(ctx context.Context) ([]models.User, error) {
		st.ForceLogout()
		return nil, client.ErrUnauthorized
	}

	err = st.FetchUsers(context.Background())
	assert.ErrorIs(t, err, client.ErrUnauthorized)

	state := st.Snapshot()
	assert.Empty(t, state.Auth.Token)
	assert.Equal(t, models.Identity{}, state.Auth.User)
	assert.Equal(t, store.RouteLogin, state.Route)
	assert.Equal(t, storage.ThemeDark, state.Theme)
	assert.Equal(t, storage.ThemeDark, storage.Theme(prefs))
	assert.Equal(t, models.NotifyError, state.Notification.Type)
	// the rejected fetch belongs to the old session and leaves no trace
	assert.Empty(t, state.Users.Error)
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	st, api, _ := setup(t)

	started := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	first := true
	api.tokensFn = func(ctx context.Context, userID int64) ([]models.Token, error) {
		mu.Lock()
		slow := first
		first = false
		mu.Unlock()
		if slow {
			close(started)
			<-release
			return []models.Token{{ID: 1, UserID: userID, CustomerName: "old", Status: models.TokenPending}}, nil
		}
		return []models.Token{{ID: 2, UserID: userID, CustomerName: "new", Status: models.TokenPending}}, nil
	}

	done := make(chan error, 1)
	go func() { done <- st.FetchTokens(context.Background(), 7) }()
	<-started

	require.NoError(t, st.FetchTokens(context.Background(), 7))
	close(release)
	require.NoError(t, <-done)

	tokens := st.Snapshot().Tokens
	require.Len(t, tokens.Items, 1)
	assert.Equal(t, "new", tokens.Items[0].CustomerName)
	assert.False(t, tokens.Loading)
}

func TestLoadingLastsUntilNewestFetchSettles(t *testing.T) {
	st, api, _ := setup(t)

	type call struct {
		name    string
		release chan struct{}
	}
	calls := make(chan call, 2)
	api.tokensFn = func(ctx context.Context, userID int64) ([]models.Token, error) {
		c := <-calls
		<-c.release
		return []models.Token{{ID: 1, UserID: userID, CustomerName: c.name, Status: models.TokenPending}}, nil
	}

	older := call{"older", make(chan struct{})}
	newer := call{"newer", make(chan struct{})}
	olderDone := make(chan error, 1)
	newerDone := make(chan error, 1)

	calls <- older
	go func() { olderDone <- st.FetchTokens(context.Background(), 7) }()
	require.Eventually(t, func() bool { return len(calls) == 0 }, time.Second, time.Millisecond)
	calls <- newer
	go func() { newerDone <- st.FetchTokens(context.Background(), 7) }()
	require.Eventually(t, func() bool { return len(calls) == 0 }, time.Second, time.Millisecond)

	close(older.release)
	require.NoError(t, <-olderDone)
	tokens := st.Snapshot().Tokens
	require.Len(t, tokens.Items, 1)
	assert.Equal(t, "older", tokens.Items[0].CustomerName)
	assert.True(t, tokens.Loading)

	close(newer.release)
	require.NoError(t, <-newerDone)
	tokens = st.Snapshot().Tokens
	assert.Equal(t, "newer", tokens.Items[0].CustomerName)
	assert.False(t, tokens.Loading)
}

func TestLogoutDropsInFlightResponses(t *testing.T) {
	st, api, _ := setup(t)

	started := make(chan struct{})
	release := make(chan struct{})
	api.tokensFn = func(ctx context.Context, userID int64) ([]models.Token, error) {
		close(started)
		<-release
		return []models.Token{{ID: 1, UserID: userID, Status: models.TokenPending}}, nil
	}

	done := make(chan error, 1)
	go func() { done <- st.FetchTokens(context.Background(), 7) }()
	<-started

	st.Logout(context.Background())
	close(release)
	require.NoError(t, <-done)

	state := st.Snapshot()
	assert.Empty(t, state.Tokens.Items)
	assert.Equal(t, store.RouteLogin, state.Route)
	assert.Equal(t, 1, api.count("Logout"))
}

func TestRepeatedMutationIsRejectedWhileInFlight(t *testing.T) {
	st, api, _ := setup(t)

	started := make(chan struct{})
	release := make(chan struct{})
	api.createTokenFn = func(ctx context.Context, req models.CreateTokenRequest) (*models.Token, error) {
		close(started)
		<-release
		return &models.Token{ID: 1, UserID: req.UserID, Status: models.TokenPending}, nil
	}

	form := rules.TokenForm{UserID: 7, CustomerName: "Acme", MaterialType: models.MaterialBedash}
	done := make(chan error, 1)
	go func() { done <- st.CreateToken(context.Background(), form) }()
	<-started

	err := st.CreateToken(context.Background(), form)
	assert.ErrorIs(t, err, store.ErrInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, api.count("CreateToken"))
}

func TestMutationErrorKeepsServerMessage(t *testing.T) {
	st, api, _ := setup(t)
	api.createTokenFn = func(ctx context.Context, req models.CreateTokenRequest) (*models.Token, error) {
		return nil, &client.APIError{StatusCode: 400, Msg: "tokens can only be issued to user accounts"}
	}

	err := st.CreateToken(context.Background(), rules.TokenForm{UserID: 2, CustomerName: "Acme", MaterialType: models.MaterialFlyash})
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))

	assert.Zero(t, api.count("Tokens"))
	assert.Equal(t, models.Notification{Type: models.NotifyError, Message: "tokens can only be issued to user accounts"},
		st.Snapshot().Notification)
}

func TestConfirmBedashStampsConfirmationTime(t *testing.T) {
	st, api, prefs := setup(t, store.WithClock(func() time.Time { return epoch }))
	api.bedash = []models.BedashItem{
		{ID: 4, UserID: 7, Status: models.BedashPending, TargetDate: epoch.Add(24 * time.Hour)},
		{ID: 5, UserID: 7, Status: models.BedashPending, TargetDate: epoch.Add(-24 * time.Hour)},
	}

	require.NoError(t, st.ConfirmBedash(context.Background(), 4))
	assert.Equal(t, 1, api.count("Bedash"))

	stamp, ok := storage.ConfirmTimes(prefs)[4]
	require.True(t, ok)
	assert.True(t, epoch.Equal(stamp))

	pending := st.PendingBedash(epoch.Add(47 * time.Hour))
	require.Len(t, pending, 2)
	assert.Equal(t, int64(5), pending[0].ID)

	pending = st.PendingBedash(epoch.Add(48 * time.Hour))
	require.Len(t, pending, 1)
	assert.Equal(t, int64(5), pending[0].ID)
}

func TestSelectors(t *testing.T) {
	st, api, _ := setup(t)
	ctx := context.Background()

	api.users = []models.User{
		{ID: 1, Role: models.RoleSuperAdmin},
		{ID: 2, Role: models.RoleAdmin},
		{ID: 7, Role: models.RoleUser},
	}
	api.tokens = []models.Token{
		{ID: 1, UserID: 7, CustomerName: "Acme", Status: models.TokenPending},
		{ID: 2, UserID: 7, CustomerName: "acme ", Status: models.TokenPending},
		{ID: 3, UserID: 7, CustomerName: "Beta", Status: models.TokenUpdated, CarryForward: decimal.NewFromInt(-50)},
		{ID: 4, UserID: 7, CustomerName: " ACME", Status: models.TokenUpdated, CarryForward: decimal.NewFromInt(-120)},
		{ID: 5, UserID: 7, CustomerName: "Acme", Status: models.TokenUpdated, CarryForward: decimal.NewFromInt(30)},
	}
	api.adminBalance = []models.AdminBalanceRow{
		{User: models.UserRef{ID: 7}, TotalTons: decimal.NewFromInt(270)},
	}

	require.NoError(t, st.FetchUsers(ctx))
	require.NoError(t, st.FetchAllTokens(ctx))
	require.NoError(t, st.FetchAdminBalance(ctx))

	visible := st.VisibleUsers()
	require.Len(t, visible, 2)
	assert.Equal(t, int64(2), visible[0].ID)
	assert.Equal(t, int64(7), visible[1].ID)

	// (270 - 2*27) / 27
	assert.Equal(t, 8, st.PossibleTokensFor(7))
	assert.Equal(t, 0, st.PossibleTokensFor(99))

	assert.True(t, decimal.NewFromInt(-120).Equal(st.NegativeCarryFor("acme")))
	assert.Equal(t, []string{"Acme", "Beta"}, st.CustomerNames())
	assert.Len(t, st.PendingTokens(epoch), 5)
}

func TestSelectUser(t *testing.T) {
	st, _, _ := setup(t)
	st.SelectUser(7)
	assert.Equal(t, int64(7), st.Snapshot().SelectedUser)
}

func TestRestoreUsesPersistedSession(t *testing.T) {
	sess := &fakeSession{identity: admin, token: "credential"}
	st := store.New(newFakeAPI(), sess, storage.NewMemoryStore())

	require.True(t, st.Restore())
	state := st.Snapshot()
	assert.Equal(t, store.RouteDashboard, state.Route)
	assert.Equal(t, admin, state.Auth.User)

	require.NoError(t, sess.Logout())
	assert.False(t, st.Restore())
}
