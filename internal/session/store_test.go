package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/doc-portal/internal/domain"
	"github.com/spec-kit/doc-portal/internal/events"
	apperrors "github.com/spec-kit/doc-portal/pkg/util"
)

// fakeAPI reads the credential through the store at call time, the way the HTTP interceptor does.
type fakeAPI struct {
	source CredentialSource

	mu          sync.Mutex
	users       map[string]*domain.User
	loginToken  string
	loginErr    error
	meErr       error
	logoutErr   error
	registerErr error
	meCalls     int
	logoutSeen  []string
	inflight    int32
	overlapped  atomic.Bool
}

func (f *fakeAPI) enter() func() {
	if atomic.AddInt32(&f.inflight, 1) > 1 {
		f.overlapped.Store(true)
	}
	time.Sleep(2 * time.Millisecond)
	return func() { atomic.AddInt32(&f.inflight, -1) }
}

func (f *fakeAPI) Login(ctx context.Context, email, password string) (*domain.TokenResponse, error) {
	defer f.enter()()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &domain.TokenResponse{AccessToken: f.loginToken, TokenType: "bearer"}, nil
}

func (f *fakeAPI) Register(ctx context.Context, reg domain.Registration) (*domain.User, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &domain.User{ID: "new", Username: reg.Username, Email: reg.Email}, nil
}

func (f *fakeAPI) Logout(ctx context.Context) error {
	defer f.enter()()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutSeen = append(f.logoutSeen, f.source.Credential())
	return f.logoutErr
}

func (f *fakeAPI) Me(ctx context.Context) (*domain.User, error) {
	credential := f.source.Credential()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meCalls++
	if f.meErr != nil {
		return nil, f.meErr
	}
	user, ok := f.users[credential]
	if !ok {
		return nil, apperrors.FromStatus(http.StatusUnauthorized, "Could not validate credentials", nil)
	}
	return user, nil
}

type fixture struct {
	api    *fakeAPI
	jar    *MemoryJar
	nav    *RecordingNavigator
	store  *Store
	events *[]events.EventType
}

func newFixture(t *testing.T, configure func(*fakeAPI)) fixture {
	t.Helper()
	api := &fakeAPI{
		users:      map[string]*domain.User{"tok-ada": {ID: "u-ada", Username: "ada", Email: "ada@example.com"}},
		loginToken: "tok-ada",
	}
	if configure != nil {
		configure(api)
	}

	dispatcher := events.NewInMemoryDispatcher()
	var mu sync.Mutex
	seen := []events.EventType{}
	for _, eventType := range events.SessionEventTypes() {
		dispatcher.Subscribe(eventType, func(_ context.Context, evt events.Event) error {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, evt.Type)
			return nil
		})
	}

	jar := NewMemoryJar(nil)
	nav := &RecordingNavigator{}
	store := NewStore(Dependencies{
		Connect: func(src CredentialSource) AuthAPI {
			api.source = src
			return api
		},
		Jar:       jar,
		Navigator: nav,
		Events:    dispatcher,
	})
	return fixture{api: api, jar: jar, nav: nav, store: store, events: &seen}
}

func TestResolveWithoutPersistedCredential(t *testing.T) {
	f := newFixture(t, nil)
	if !f.store.IsResolving() {
		t.Fatalf("new store must start resolving")
	}

	f.store.Resolve(context.Background())

	if f.store.IsResolving() || f.store.IsAuthenticated() {
		t.Fatalf("expected resolved and signed out, got %+v", f.store.Snapshot())
	}
	if f.api.meCalls != 0 {
		t.Fatalf("who-am-I must not be called without a credential")
	}
	if len(*f.events) != 1 || (*f.events)[0] != events.EventSessionResolved {
		t.Fatalf("events = %v", *f.events)
	}
}

func TestResolveAdoptsValidCredential(t *testing.T) {
	f := newFixture(t, nil)
	f.jar.Write("tok-ada", time.Now().Add(time.Hour))

	f.store.Resolve(context.Background())

	if !f.store.IsAuthenticated() || f.store.IsResolving() {
		t.Fatalf("expected authenticated, got %+v", f.store.Snapshot())
	}
	if id := f.store.Identity(); id == nil || id.Username != "ada" {
		t.Fatalf("identity = %+v", id)
	}
	if len(f.nav.History()) != 0 {
		t.Fatalf("resolution must not navigate, got %v", f.nav.History())
	}
}

func TestResolveClearsOnAnyFailure(t *testing.T) {
	cases := map[string]error{
		"unauthorized": apperrors.FromStatus(http.StatusUnauthorized, "", nil),
		"forbidden":    apperrors.FromStatus(http.StatusForbidden, "", nil),
		"network":      apperrors.NewUpstreamError("", errors.New("connection refused")),
	}
	for name, meErr := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, func(api *fakeAPI) { api.meErr = meErr })
			f.jar.Write("tok-ada", time.Now().Add(time.Hour))

			f.store.Resolve(context.Background())

			if f.store.IsAuthenticated() || f.store.Identity() != nil || f.store.IsResolving() {
				t.Fatalf("expected cleared session, got %+v", f.store.Snapshot())
			}
			if _, ok := f.jar.Read(); ok {
				t.Fatalf("persisted credential must be removed")
			}
		})
	}
}

func TestResolveRunsExactlyOnce(t *testing.T) {
	f := newFixture(t, nil)
	f.jar.Write("tok-ada", time.Now().Add(time.Hour))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.store.Resolve(context.Background())
			if f.store.IsResolving() {
				t.Errorf("Resolve returned before resolution finished")
			}
		}()
	}
	wg.Wait()
	f.store.Resolve(context.Background())

	if f.api.meCalls != 1 {
		t.Fatalf("who-am-I called %d times, want 1", f.api.meCalls)
	}
}

func TestLoginThenLogout(t *testing.T) {
	f := newFixture(t, nil)
	f.store.Resolve(context.Background())

	if f.store.IsAuthenticated() {
		t.Fatalf("authenticated before login")
	}
	if err := f.store.Login(context.Background(), "ada@example.com", "S3cret!pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !f.store.IsAuthenticated() || f.store.Identity().ID != "u-ada" {
		t.Fatalf("expected ada signed in, got %+v", f.store.Snapshot())
	}
	if token, ok := f.jar.Read(); !ok || token != "tok-ada" {
		t.Fatalf("jar = %q %v", token, ok)
	}
	if f.nav.Last() != LandingPath {
		t.Fatalf("navigated to %q", f.nav.Last())
	}

	f.store.Logout(context.Background())

	if f.store.IsAuthenticated() || f.store.Identity() != nil {
		t.Fatalf("still authenticated after logout: %+v", f.store.Snapshot())
	}
	if _, ok := f.jar.Read(); ok {
		t.Fatalf("jar still holds credential")
	}
	if len(f.api.logoutSeen) != 1 || f.api.logoutSeen[0] != "tok-ada" {
		t.Fatalf("backend logout saw %v", f.api.logoutSeen)
	}
	if f.nav.Last() != LoginPath {
		t.Fatalf("navigated to %q", f.nav.Last())
	}

	want := []events.EventType{events.EventSessionResolved, events.EventSessionLoggedIn, events.EventSessionLoggedOut}
	if len(*f.events) != len(want) {
		t.Fatalf("events = %v", *f.events)
	}
	for i := range want {
		if (*f.events)[i] != want[i] {
			t.Fatalf("events = %v, want %v", *f.events, want)
		}
	}
}

func TestLogoutClearsWhenBackendFails(t *testing.T) {
	f := newFixture(t, func(api *fakeAPI) {
		api.logoutErr = apperrors.NewUpstreamError("", errors.New("network down"))
	})
	if err := f.store.Login(context.Background(), "ada@example.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	f.store.Logout(context.Background())

	if f.store.IsAuthenticated() || f.store.Credential() != "" {
		t.Fatalf("local state not cleared")
	}
	if _, ok := f.jar.Read(); ok {
		t.Fatalf("jar not cleared")
	}
	// the interceptor reads the store, so nothing is attached to later calls
	if f.api.source.Credential() != "" {
		t.Fatalf("credential still visible to outgoing calls")
	}
	if f.nav.Last() != LoginPath {
		t.Fatalf("navigated to %q", f.nav.Last())
	}
}

func TestLoginFailureLeavesStateUnchanged(t *testing.T) {
	loginErr := apperrors.FromStatus(http.StatusBadRequest, "Incorrect email or password", nil)
	f := newFixture(t, func(api *fakeAPI) { api.loginErr = loginErr })
	f.store.Resolve(context.Background())

	err := f.store.Login(context.Background(), "ada@example.com", "wrong")
	if !errors.Is(err, loginErr) {
		t.Fatalf("expected backend error to propagate, got %v", err)
	}
	if f.store.IsAuthenticated() {
		t.Fatalf("authenticated after failed login")
	}
	if _, ok := f.jar.Read(); ok {
		t.Fatalf("jar written on failed login")
	}
	if len(f.nav.History()) != 0 {
		t.Fatalf("navigated on failure: %v", f.nav.History())
	}
	if last := (*f.events)[len(*f.events)-1]; last != events.EventLoginFailed {
		t.Fatalf("last event = %s", last)
	}
}

func TestLoginRollsBackWhenIdentityFetchFails(t *testing.T) {
	f := newFixture(t, func(api *fakeAPI) {
		api.users["tok-old"] = &domain.User{ID: "u-old", Username: "old"}
		api.loginToken = "tok-unknown"
	})
	expires := time.Now().Add(time.Hour).Truncate(time.Second)
	f.jar.Write("tok-old", expires)
	f.store.Resolve(context.Background())

	err := f.store.Login(context.Background(), "ada@example.com", "pw")
	if !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if f.store.Credential() != "tok-old" || f.store.Identity().ID != "u-old" {
		t.Fatalf("previous session not restored: %+v", f.store.Snapshot())
	}
	if token, ok := f.jar.Read(); !ok || token != "tok-old" {
		t.Fatalf("jar = %q %v", token, ok)
	}
}

func TestFailedLoginKeepsUnresolvedPersistedCredential(t *testing.T) {
	f := newFixture(t, func(api *fakeAPI) {
		api.loginToken = "tok-unknown"
	})
	expires := time.Now().Add(time.Hour).Truncate(time.Second)
	f.jar.Write("tok-old", expires)

	if err := f.store.Login(context.Background(), "ada@example.com", "pw"); err == nil {
		t.Fatalf("expected login to fail")
	}
	if token, ok := f.jar.Read(); !ok || token != "tok-old" {
		t.Fatalf("jar = %q %v, want the pre-login record", token, ok)
	}
	if f.store.IsAuthenticated() || !f.store.IsResolving() {
		t.Fatalf("memory state changed: %+v", f.store.Snapshot())
	}
}

func TestConcurrentMutationsSerialize(t *testing.T) {
	f := newFixture(t, nil)
	f.store.Resolve(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_ = f.store.Login(context.Background(), "ada@example.com", "pw")
			} else {
				f.store.Logout(context.Background())
			}
		}(i)
	}
	wg.Wait()

	if f.api.overlapped.Load() {
		t.Fatalf("login/logout overlapped at the backend")
	}
	snap := f.store.Snapshot()
	if snap.Authenticated() != (snap.Identity != nil) {
		t.Fatalf("credential and identity out of step: %+v", snap)
	}
}

func TestRegisterNavigatesWithoutSession(t *testing.T) {
	f := newFixture(t, nil)
	if err := f.store.Register(context.Background(), "ada", "ada@example.com", "S3cret!pw"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if f.store.IsAuthenticated() {
		t.Fatalf("registration must not sign in")
	}
	if f.nav.Last() != LoginPath {
		t.Fatalf("navigated to %q", f.nav.Last())
	}

	regErr := apperrors.FromStatus(http.StatusBadRequest, "Email already registered", nil)
	f = newFixture(t, func(api *fakeAPI) { api.registerErr = regErr })
	if err := f.store.Register(context.Background(), "ada", "ada@example.com", "S3cret!pw"); !errors.Is(err, regErr) {
		t.Fatalf("expected registration error, got %v", err)
	}
	if len(f.nav.History()) != 0 {
		t.Fatalf("navigated on failure")
	}
}

func TestInvalidateOnlyOnUnauthorized(t *testing.T) {
	f := newFixture(t, nil)
	if err := f.store.Login(context.Background(), "ada@example.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if f.store.Invalidate(context.Background(), apperrors.FromStatus(http.StatusForbidden, "", nil)) {
		t.Fatalf("403 from an ordinary call must not end the session")
	}
	if !f.store.IsAuthenticated() {
		t.Fatalf("session lost on 403")
	}
	if !f.store.Invalidate(context.Background(), apperrors.FromStatus(http.StatusUnauthorized, "", nil)) {
		t.Fatalf("401 should end the session")
	}
	if f.store.IsAuthenticated() {
		t.Fatalf("still authenticated after invalidation")
	}
	if _, ok := f.jar.Read(); ok {
		t.Fatalf("jar not cleared")
	}
	if f.store.Invalidate(context.Background(), apperrors.FromStatus(http.StatusUnauthorized, "", nil)) {
		t.Fatalf("second invalidation should be a no-op")
	}
}

func TestRefreshClearsOnForbidden(t *testing.T) {
	f := newFixture(t, nil)
	if err := f.store.Login(context.Background(), "ada@example.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	f.api.meErr = apperrors.NewUpstreamError("", errors.New("timeout"))
	if err := f.store.Refresh(context.Background()); err == nil || !f.store.IsAuthenticated() {
		t.Fatalf("network failure on refresh must keep the session, err=%v", err)
	}

	f.api.meErr = apperrors.FromStatus(http.StatusForbidden, "", nil)
	if err := f.store.Refresh(context.Background()); err == nil {
		t.Fatalf("expected refresh error")
	}
	if f.store.IsAuthenticated() {
		t.Fatalf("403 on validation must clear the session")
	}
}

func TestLoginCapsCookieAtTokenExpiry(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u-ada",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	f := newFixture(t, func(api *fakeAPI) {
		api.loginToken = signed
		api.users[signed] = &domain.User{ID: "u-ada"}
	})
	if err := f.store.Login(context.Background(), "ada@example.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !f.jar.Expires().Equal(exp) {
		t.Fatalf("cookie expiry = %v, want %v", f.jar.Expires(), exp)
	}
}

func TestMemoryJarDropsExpiredRecord(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	jar := NewMemoryJar(func() time.Time { return now })
	jar.Write("tok", now.Add(time.Minute))
	if _, ok := jar.Read(); !ok {
		t.Fatalf("fresh record missing")
	}
	now = now.Add(2 * time.Minute)
	if _, ok := jar.Read(); ok {
		t.Fatalf("expired record still readable")
	}
}
