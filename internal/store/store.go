// Package store is the dashboard's centralized client state. Actions call the
// API, and every mutation is followed by a re-fetch of the slice it touched.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bricks-admin/dashboard/internal/client"
	"github.com/bricks-admin/dashboard/internal/models"
	"github.com/bricks-admin/dashboard/internal/storage"
	"github.com/bricks-admin/dashboard/internal/utils"
	"github.com/google/uuid"
)

// ErrInFlight is returned when the same logical action is triggered again
// before the previous one settled
var ErrInFlight = errors.New("action already in progress")

const (
	RouteLogin     = "/login"
	RouteDashboard = "/dashboard"
)

// API is the transport the store drives; *client.Client implements it
type API interface {
	Login(ctx context.Context, req models.LoginRequest) (string, error)
	Logout(ctx context.Context) error
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Users(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, userID int64, req models.UpdateUserRequest) (*models.User, error)
	DeleteUser(ctx context.Context, userID int64) error
	Balance(ctx context.Context, userID int64) (*models.BalanceSummary, error)
	AddBalance(ctx context.Context, req models.AddBalanceRequest) (*models.Transaction, error)
	EditBalance(ctx context.Context, transactionID int64, req models.EditBalanceRequest) (*models.Transaction, error)
	DeleteBalance(ctx context.Context, transactionID int64) error
	AdminBalance(ctx context.Context) ([]models.AdminBalanceRow, error)
	Tokens(ctx context.Context, userID int64) ([]models.Token, error)
	AllTokens(ctx context.Context) ([]models.Token, error)
	CreateToken(ctx context.Context, req models.CreateTokenRequest) (*models.Token, error)
	UpdateToken(ctx context.Context, req models.UpdateTokenRequest) (*models.Token, error)
	ConfirmToken(ctx context.Context, req models.ConfirmTokenRequest) (*models.Token, error)
	DeleteToken(ctx context.Context, tokenID int64) error
	Bedash(ctx context.Context) ([]models.BedashItem, error)
	AddBedash(ctx context.Context, req models.AddBedashRequest) (*models.BedashItem, error)
	ConfirmBedash(ctx context.Context, bedashID int64) (*models.BedashItem, error)
}

// Session is the login the store signs in and out of
type Session interface {
	Login(token string) (models.Identity, error)
	Logout() error
	Restore() (models.Identity, bool)
	Token() string
}

// Meta is the loading and error state every slice carries
type Meta struct {
	Loading bool
	Error   string
}

type AuthState struct {
	Meta
	Token string
	User  models.Identity
}

type ListState[T any] struct {
	Meta
	Items []T
	Total int
}

type BalanceState struct {
	Meta
	Summary *models.BalanceSummary
}

// State is the whole client view state
type State struct {
	Auth         AuthState
	Users        ListState[models.User]
	SelectedUser int64
	Tokens       ListState[models.Token]
	AdminTokens  ListState[models.Token]
	Balance      BalanceState
	AdminBalance ListState[models.AdminBalanceRow]
	Bedash       ListState[models.BedashItem]
	Notification models.Notification
	Route        string
	Theme        storage.ThemeMode
}

type sliceKey int

const (
	sliceUsers sliceKey = iota
	sliceTokens
	sliceAdminTokens
	sliceBalance
	sliceAdminBalance
	sliceBedash
)

var allSlices = []sliceKey{sliceUsers, sliceTokens, sliceAdminTokens, sliceBalance, sliceAdminBalance, sliceBedash}

func (st *State) meta(k sliceKey) *Meta {
	switch k {
	case sliceUsers:
		return &st.Users.Meta
	case sliceTokens:
		return &st.Tokens.Meta
	case sliceAdminTokens:
		return &st.AdminTokens.Meta
	case sliceBalance:
		return &st.Balance.Meta
	case sliceAdminBalance:
		return &st.AdminBalance.Meta
	}
	return &st.Bedash.Meta
}

// Store holds State and runs the actions that change it
type Store struct {
	mu    sync.Mutex
	state State

	api     API
	session Session
	prefs   storage.Store
	logger  *utils.Logger
	now     func() time.Time

	// seq numbers every fetch; started holds the newest seq issued per slice
	// and applied the newest seq written
	seq     uint64
	started map[sliceKey]uint64
	applied map[sliceKey]uint64

	inFlight map[string]bool

	notifyAfter time.Duration
	notifyGen   uint64
}

type Option func(*Store)

// WithNotificationDelay sets how long a notification stays before it clears
func WithNotificationDelay(d time.Duration) Option {
	return func(s *Store) { s.notifyAfter = d }
}

func WithLogger(l *utils.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(api API, sess Session, prefs storage.Store, opts ...Option) *Store {
	s := &Store{
		api:         api,
		session:     sess,
		prefs:       prefs,
		logger:      utils.Discard(),
		now:         time.Now,
		started:     make(map[sliceKey]uint64),
		applied:     make(map[sliceKey]uint64),
		inFlight:    make(map[string]bool),
		notifyAfter: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state.Route = RouteLogin
	s.state.Theme = storage.Theme(prefs)
	return s
}

// Snapshot returns a copy of the current state. Slices inside are shared and
// must be treated as read-only.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Restore picks up a persisted login
func (s *Store) Restore() bool {
	profile, ok := s.session.Restore()
	s.mu.Lock()
	defer s.mu.Unlock()
	if !ok {
		s.state.Route = RouteLogin
		return false
	}
	s.state.Auth = AuthState{Token: s.session.Token(), User: profile}
	s.state.Route = RouteDashboard
	return true
}

func (s *Store) Login(ctx context.Context, email, password string) error {
	release, err := s.guard("login")
	if err != nil {
		return err
	}
	defer release()

	s.update(func(st *State) { st.Auth.Loading, st.Auth.Error = true, "" })
	token, err := s.api.Login(ctx, models.LoginRequest{Email: email, Password: password})
	var profile models.Identity
	if err == nil {
		profile, err = s.session.Login(token)
	}
	if err != nil {
		s.update(func(st *State) { st.Auth.Loading, st.Auth.Error = false, errorMessage(err) })
		s.notify(models.NotifyError, errorMessage(err))
		return err
	}

	s.update(func(st *State) {
		st.Auth = AuthState{Token: token, User: profile}
		st.Route = RouteDashboard
	})
	s.notify(models.NotifySuccess, "Login successful")
	return nil
}

// Logout tells the server, then drops the session regardless of its answer
func (s *Store) Logout(ctx context.Context) {
	if err := s.api.Logout(ctx); err != nil && !errors.Is(err, client.ErrUnauthorized) {
		s.logger.Error("logout request failed: %v", err)
	}
	s.signOut()
}

// ForceLogout ends the session after the server rejected the credential.
// It is the client's unauthorized handler.
func (s *Store) ForceLogout() {
	s.signOut()
	s.notify(models.NotifyError, "Session expired, please log in again")
}

func (s *Store) signOut() {
	if err := s.session.Logout(); err != nil {
		s.logger.Error("error clearing session: %v", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	theme := s.state.Theme
	s.state = State{Route: RouteLogin, Theme: theme, Notification: s.state.Notification}
	// responses still on the wire belong to the old session
	for _, k := range allSlices {
		s.applied[k] = s.seq
	}
}

func (s *Store) ToggleTheme() (storage.ThemeMode, error) {
	mode, err := storage.ToggleTheme(s.prefs)
	if err != nil {
		return s.Snapshot().Theme, err
	}
	s.update(func(st *State) { st.Theme = mode })
	return mode, nil
}

// ClearNotification drops the current notification
func (s *Store) ClearNotification() {
	s.update(func(st *State) { st.Notification = models.Notification{} })
}

func (s *Store) update(fn func(*State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
}

// notify shows n and clears it after notifyAfter unless a newer one replaced it
func (s *Store) notify(kind models.NotificationType, message string) {
	s.mu.Lock()
	s.notifyGen++
	gen := s.notifyGen
	s.state.Notification = models.Notification{Type: kind, Message: message}
	s.mu.Unlock()

	time.AfterFunc(s.notifyAfter, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.notifyGen == gen {
			s.state.Notification = models.Notification{}
		}
	})
}

// guard marks key as running, failing with ErrInFlight if it already is
func (s *Store) guard(key string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[key] {
		return nil, ErrInFlight
	}
	s.inFlight[key] = true
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.inFlight, key)
	}, nil
}

// fetch runs get for slice k and applies the result unless a newer fetch of
// the same slice already landed
func fetch[T any](ctx context.Context, s *Store, k sliceKey, get func(context.Context) (T, error), apply func(*State, T)) error {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.started[k] = seq
	s.state.meta(k).Loading = true
	s.mu.Unlock()

	v, err := get(ctx)

	s.mu.Lock()
	m := s.state.meta(k)
	if seq <= s.applied[k] {
		// the newest fetch settling stale means nothing is left in flight
		if seq == s.started[k] {
			m.Loading = false
		}
		s.mu.Unlock()
		s.logger.Info("discarding stale response %d", seq)
		return err
	}
	s.applied[k] = seq
	m.Loading = seq < s.started[k]
	if err != nil {
		m.Error = errorMessage(err)
		s.mu.Unlock()
		if !errors.Is(err, client.ErrUnauthorized) {
			s.notify(models.NotifyError, errorMessage(err))
		}
		return err
	}
	m.Error = ""
	apply(&s.state, v)
	s.mu.Unlock()
	return nil
}

// mutate runs one guarded mutation under a fresh idempotency key, announces
// the outcome and, on success, runs refetch
func (s *Store) mutate(ctx context.Context, key, success string, do func(context.Context) error, refetch func(context.Context) error) error {
	release, err := s.guard(key)
	if err != nil {
		return err
	}
	defer release()

	ctx = client.WithIdempotencyKey(ctx, uuid.NewString())
	if err := do(ctx); err != nil {
		if !errors.Is(err, client.ErrUnauthorized) {
			s.notify(models.NotifyError, errorMessage(err))
		}
		return err
	}
	s.notify(models.NotifySuccess, success)
	if refetch == nil {
		return nil
	}
	return refetch(ctx)
}

func errorMessage(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Msg != "" {
		return apiErr.Msg
	}
	return err.Error()
}
