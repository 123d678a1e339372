package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/meinhoongagan/trucktrack/common"
	"github.com/meinhoongagan/trucktrack/logging"
	"github.com/meinhoongagan/trucktrack/models"
	"github.com/meinhoongagan/trucktrack/storage"
	"github.com/meinhoongagan/trucktrack/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type identityEnv struct {
	svc    *IdentityService
	store  *storage.GormStore
	otps   OTPStore
	mailer *fakeMailer
	clock  *clock
}

func newIdentityEnv(t *testing.T, otps OTPStore) *identityEnv {
	t.Helper()
	if otps == nil {
		otps = NewMemoryOTPStore()
	}
	store := testutil.NewStore(t)
	mailer := &fakeMailer{}
	cfg := IdentityConfig{
		JWTSecret:          []byte("test-secret"),
		TokenTTL:           time.Hour,
		OTPTTL:             10 * time.Minute,
		AdminRoleKey:       "admin-key",
		MasterAdminRoleKey: "master-key",
		BcryptCost:         bcrypt.MinCost,
	}
	svc := NewIdentityService(store, otps, mailer, cfg, logging.Discard())

	// tokens are checked against the wall clock, so start from it
	clk := newClock(time.Now())
	svc.now = clk.Now
	svc.newOTP = func() (string, error) { return "123456", nil }
	return &identityEnv{svc: svc, store: store, otps: otps, mailer: mailer, clock: clk}
}

func (e *identityEnv) register(t *testing.T, username, email string) *PendingRegistration {
	t.Helper()
	pending, err := e.svc.Register(context.Background(), RegisterInput{Username: username, Password: "s3cret", Email: email})
	require.NoError(t, err)
	return pending
}

func TestIdentity_RegisterVerifyLoginAuthorize(t *testing.T) {
	env := newIdentityEnv(t, nil)
	ctx := context.Background()

	pending, err := env.svc.Register(ctx, RegisterInput{
		Username: "ravi",
		Password: "s3cret",
		Email:    " Ravi@Example.com ",
		Role:     "admin",
		Company:  "acme",
		Key:      "admin-key",
	})
	require.NoError(t, err)
	assert.Equal(t, "ravi@example.com", pending.Email)
	require.Equal(t, 1, env.mailer.count())
	assert.Equal(t, "ravi@example.com", env.mailer.sent[0].to)
	assert.Contains(t, env.mailer.sent[0].body, "123456")

	_, err = env.svc.Login(ctx, "ravi", "s3cret")
	assert.ErrorIs(t, err, common.ErrAccountUnverified)

	require.NoError(t, env.svc.VerifyOTP(ctx, "RAVI@example.com", "123456"))

	res, err := env.svc.Login(ctx, "ravi", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, res.Role)
	assert.NotEmpty(t, res.Token)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(res.Token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "admin", claims["role"])
	assert.Equal(t, "ravi", claims["username"])
	assert.EqualValues(t, pending.UserID, claims["id"])
	exp, ok := claims["exp"].(float64)
	require.True(t, ok)
	assert.InDelta(t, env.clock.Now().Add(time.Hour).Unix(), int64(exp), 1)

	caller, err := env.svc.Authorize(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, pending.UserID, caller.UserID)
	assert.Equal(t, models.RoleAdmin, caller.Role)
	assert.Equal(t, "acme", caller.Company)
}

func TestIdentity_RegisterRejections(t *testing.T) {
	env := newIdentityEnv(t, nil)
	ctx := context.Background()

	_, err := env.svc.Register(ctx, RegisterInput{Username: "a", Password: "p", Email: "a@example.com", Role: "admin", Key: "wrong"})
	assert.ErrorIs(t, err, common.ErrInvalidRoleKey)

	_, err = env.svc.Register(ctx, RegisterInput{Username: "a", Password: "p", Email: "a@example.com", Role: "master_admin", Key: "admin-key"})
	assert.ErrorIs(t, err, common.ErrInvalidRoleKey)

	_, err = env.svc.Register(ctx, RegisterInput{Username: "a", Password: "p", Email: "a@example.com", Role: "owner"})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = env.svc.Register(ctx, RegisterInput{Username: "a", Email: "a@example.com"})
	assert.ErrorIs(t, err, common.ErrValidation)

	assert.Zero(t, env.mailer.count())

	testutil.SeedUser(t, env.store, "taken", models.RoleUser, "")
	_, err = env.svc.Register(ctx, RegisterInput{Username: "taken", Password: "p", Email: "taken@example.com"})
	assert.ErrorIs(t, err, common.ErrDuplicate)
}

func TestIdentity_RegisterDefaultsToUserRole(t *testing.T) {
	env := newIdentityEnv(t, nil)
	pending := env.register(t, "ravi", "ravi@example.com")

	user, err := env.store.GetUser(context.Background(), pending.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.False(t, user.Verified)
}

func TestIdentity_StaleUsernameReclaim(t *testing.T) {
	env := newIdentityEnv(t, nil)
	ctx := context.Background()
	env.register(t, "ravi", "ravi@example.com")

	// a live code held by someone else blocks the name
	_, err := env.svc.Register(ctx, RegisterInput{Username: "ravi", Password: "p", Email: "other@example.com"})
	assert.ErrorIs(t, err, common.ErrDuplicate)

	// the same address may start over at any time
	again := env.register(t, "ravi", "ravi@example.com")

	// once the code lapses the name is free
	env.clock.Advance(11 * time.Minute)
	taken := env.register(t, "ravi", "other@example.com")
	assert.NotEqual(t, again.UserID, taken.UserID)

	_, err = env.store.GetUser(ctx, again.UserID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestIdentity_EmailFailureRollsBack(t *testing.T) {
	env := newIdentityEnv(t, nil)
	ctx := context.Background()
	env.mailer.err = errors.New("smtp down")

	_, err := env.svc.Register(ctx, RegisterInput{Username: "ravi", Password: "p", Email: "ravi@example.com"})
	assert.ErrorIs(t, err, common.ErrEmailDeliveryFailed)
	assert.Equal(t, 502, common.StatusCode(err))

	_, err = env.store.GetUserByUsername(ctx, "ravi")
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, ok, err := env.otps.Get(ctx, "ravi@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIdentity_VerifyOTPFailures(t *testing.T) {
	env := newIdentityEnv(t, nil)
	ctx := context.Background()

	assert.ErrorIs(t, env.svc.VerifyOTP(ctx, "nobody@example.com", "123456"), common.ErrNoPendingRegistration)

	env.register(t, "ravi", "ravi@example.com")
	assert.ErrorIs(t, env.svc.VerifyOTP(ctx, "ravi@example.com", "654321"), common.ErrOtpMismatch)

	// a mismatch keeps the code usable
	require.NoError(t, env.svc.VerifyOTP(ctx, "ravi@example.com", "123456"))
	assert.ErrorIs(t, env.svc.VerifyOTP(ctx, "ravi@example.com", "123456"), common.ErrNoPendingRegistration)
}

func TestIdentity_ExpiredOTP(t *testing.T) {
	redisStore, _ := newRedisOTPStore(t, 20*time.Minute)
	for name, otps := range map[string]OTPStore{"memory": NewMemoryOTPStore(), "redis": redisStore} {
		t.Run(name, func(t *testing.T) {
			env := newIdentityEnv(t, otps)
			ctx := context.Background()
			env.register(t, "ravi", "ravi@example.com")

			env.clock.Advance(10*time.Minute + time.Second)
			assert.ErrorIs(t, env.svc.VerifyOTP(ctx, "ravi@example.com", "123456"), common.ErrOtpExpired)
			assert.ErrorIs(t, env.svc.VerifyOTP(ctx, "ravi@example.com", "123456"), common.ErrNoPendingRegistration)

			_, err := env.svc.Login(ctx, "ravi", "s3cret")
			assert.ErrorIs(t, err, common.ErrAccountUnverified)
		})
	}
}

func TestIdentity_VerifyOTPExactlyOnce(t *testing.T) {
	env := newIdentityEnv(t, nil)
	env.register(t, "ravi", "ravi@example.com")

	const n = 10
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = env.svc.VerifyOTP(context.Background(), "ravi@example.com", "123456")
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, common.ErrNoPendingRegistration)
	}
	assert.Equal(t, 1, ok)
}

func TestIdentity_LoginFailuresAreUniform(t *testing.T) {
	env := newIdentityEnv(t, nil)
	ctx := context.Background()
	env.register(t, "ravi", "ravi@example.com")
	require.NoError(t, env.svc.VerifyOTP(ctx, "ravi@example.com", "123456"))

	var hashes [][]byte
	env.svc.compare = func(hash, password []byte) error {
		hashes = append(hashes, hash)
		return bcrypt.CompareHashAndPassword(hash, password)
	}

	_, err := env.svc.Login(ctx, "ravi", "wrong")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	_, err = env.svc.Login(ctx, "nobody", "s3cret")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)

	// an unknown username still pays for a bcrypt comparison
	require.Len(t, hashes, 2)
	assert.Equal(t, env.svc.dummyHash, hashes[1])
	cost, err := bcrypt.Cost(hashes[1])
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
}

func TestIdentity_Authorize(t *testing.T) {
	env := newIdentityEnv(t, nil)
	ctx := context.Background()
	pending := env.register(t, "ravi", "ravi@example.com")
	require.NoError(t, env.svc.VerifyOTP(ctx, "ravi@example.com", "123456"))

	_, err := env.svc.Authorize(ctx, "")
	assert.ErrorIs(t, err, common.ErrMissingToken)

	_, err = env.svc.Authorize(ctx, "not.a.token")
	assert.ErrorIs(t, err, common.ErrInvalidOrExpiredToken)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  pending.UserID,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = env.svc.Authorize(ctx, forged)
	assert.ErrorIs(t, err, common.ErrInvalidOrExpiredToken)

	// issue a token that lapsed an hour ago
	env.clock.Advance(-2 * time.Hour)
	expired, err := env.svc.Login(ctx, "ravi", "s3cret")
	require.NoError(t, err)
	env.clock.Advance(2 * time.Hour)
	_, err = env.svc.Authorize(ctx, expired.Token)
	assert.ErrorIs(t, err, common.ErrInvalidOrExpiredToken)

	live, err := env.svc.Login(ctx, "ravi", "s3cret")
	require.NoError(t, err)
	require.NoError(t, env.store.DeleteUser(ctx, pending.UserID))
	_, err = env.svc.Authorize(ctx, live.Token)
	assert.ErrorIs(t, err, common.ErrInvalidOrExpiredToken)
}

func TestIdentity_PurgeStaleRegistrations(t *testing.T) {
	env := newIdentityEnv(t, nil)
	ctx := context.Background()
	old := env.clock.Now().Add(-48 * time.Hour)

	seed := func(username string, verified bool, created time.Time) *models.User {
		u := &models.User{
			Username:     username,
			PasswordHash: "x",
			Email:        username + "@example.com",
			Role:         models.RoleUser,
			Verified:     verified,
			CreatedAt:    created,
		}
		require.NoError(t, env.store.CreateUser(ctx, u))
		return u
	}
	stale := seed("stale", false, old)
	waiting := seed("waiting", false, old)
	verified := seed("verified", true, old)
	fresh := seed("fresh", false, env.clock.Now())

	require.NoError(t, env.otps.Put(ctx, waiting.Email, OTPRecord{OTP: "1", ExpiresAt: env.clock.Now().Add(time.Minute), UserID: waiting.ID}))

	n, err := env.svc.PurgeStaleRegistrations(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = env.store.GetUser(ctx, stale.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	for _, id := range []uint{waiting.ID, verified.ID, fresh.ID} {
		_, err := env.store.GetUser(ctx, id)
		assert.NoError(t, err)
	}
}

// reregisteringStore lets a new registration land right after the first
// read of a record.
type reregisteringStore struct {
	OTPStore
	once  sync.Once
	after func()
}

func (s *reregisteringStore) Get(ctx context.Context, email string) (OTPRecord, bool, error) {
	rec, ok, err := s.OTPStore.Get(ctx, email)
	s.once.Do(s.after)
	return rec, ok, err
}

func TestIdentity_VerifyKeepsNewerRegistration(t *testing.T) {
	inner := NewMemoryOTPStore()
	otps := &reregisteringStore{OTPStore: inner, after: func() {}}
	env := newIdentityEnv(t, otps)
	ctx := context.Background()

	pending := env.register(t, "ravi", "ravi@example.com")
	newer := OTPRecord{OTP: "999999", ExpiresAt: env.clock.Now().Add(10 * time.Minute), UserID: pending.UserID + 100}
	otps.once = sync.Once{}
	otps.after = func() {
		require.NoError(t, inner.Put(ctx, "ravi@example.com", newer))
	}

	assert.ErrorIs(t, env.svc.VerifyOTP(ctx, "ravi@example.com", "123456"), common.ErrNoPendingRegistration)

	rec, ok, err := inner.Get(ctx, "ravi@example.com")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, newer, rec)

	user, err := env.store.GetUser(ctx, pending.UserID)
	require.NoError(t, err)
	assert.False(t, user.Verified)
}
