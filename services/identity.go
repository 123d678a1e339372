package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/meinhoongagan/trucktrack/common"
	"github.com/meinhoongagan/trucktrack/logging"
	"github.com/meinhoongagan/trucktrack/models"
	"github.com/meinhoongagan/trucktrack/storage"
	"github.com/meinhoongagan/trucktrack/utils"
	"golang.org/x/crypto/bcrypt"
)

type IdentityConfig struct {
	JWTSecret          []byte
	TokenTTL           time.Duration
	OTPTTL             time.Duration
	AdminRoleKey       string
	MasterAdminRoleKey string
	BcryptCost         int
}

// IdentityService handles registration, OTP verification, login and token
// verification.
type IdentityService struct {
	store  storage.Store
	otps   OTPStore
	mailer utils.Mailer
	cfg    IdentityConfig
	log    logging.Logger

	now    func() time.Time
	newOTP func() (string, error)

	// dummyHash is compared for unknown usernames so both login failures
	// cost one bcrypt comparison.
	dummyHash []byte
	compare   func(hash, password []byte) error
}

func NewIdentityService(store storage.Store, otps OTPStore, mailer utils.Mailer, cfg IdentityConfig, log logging.Logger) *IdentityService {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("trucktrack-unknown-user"), cfg.BcryptCost)
	if err != nil {
		log.Warn(context.Background(), "dummy password hash", "err", err)
	}
	return &IdentityService{
		store:  store,
		otps:   otps,
		mailer: mailer,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
		newOTP: utils.GenerateOTP,

		dummyHash: dummy,
		compare:   bcrypt.CompareHashAndPassword,
	}
}

type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Company  string `json:"company"`
	Key      string `json:"key"`
}

// PendingRegistration is a stored, unverified user awaiting its OTP.
type PendingRegistration struct {
	UserID uint
	Email  string
}

type LoginResult struct {
	Token    string      `json:"token"`
	Role     models.Role `json:"role"`
	Username string      `json:"username"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register stores an unverified user and emails it a one-time code.
// If the code cannot be delivered the user and code are removed again.
func (s *IdentityService) Register(ctx context.Context, in RegisterInput) (*PendingRegistration, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)
	if in.Username == "" || in.Password == "" || in.Email == "" {
		return nil, fmt.Errorf("%w: username, password and email are required", common.ErrValidation)
	}

	role, ok := models.ParseRole(in.Role)
	if !ok {
		return nil, fmt.Errorf("%w: unknown role %q", common.ErrValidation, in.Role)
	}
	if role.Privileged() && !s.roleKeyMatches(role, in.Key) {
		return nil, common.ErrInvalidRoleKey
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	otp, err := s.newOTP()
	if err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}

	now := s.now()
	user := &models.User{
		Username:     in.Username,
		PasswordHash: string(hash),
		Email:        in.Email,
		Role:         role,
		Company:      strings.TrimSpace(in.Company),
	}

	err = s.store.Transaction(ctx, func(tx storage.Store) error {
		existing, err := tx.GetUserByUsername(ctx, in.Username)
		switch {
		case err == nil:
			reclaim, err := s.reclaimable(ctx, existing, in.Email, now)
			if err != nil {
				return err
			}
			if !reclaim {
				return fmt.Errorf("%w: username %q is taken", common.ErrDuplicate, in.Username)
			}
			if err := tx.DeleteUser(ctx, existing.ID); err != nil {
				return err
			}
		case !errors.Is(err, common.ErrNotFound):
			return err
		}
		return tx.CreateUser(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	rec := OTPRecord{OTP: otp, ExpiresAt: now.Add(s.cfg.OTPTTL), UserID: user.ID}
	if err := s.otps.Put(ctx, user.Email, rec); err != nil {
		s.discardRegistration(ctx, user)
		return nil, fmt.Errorf("store otp: %w", err)
	}

	if err := utils.SendOTPEmail(ctx, s.mailer, user.Email, otp, s.cfg.OTPTTL); err != nil {
		s.log.Error(ctx, "otp email failed", "email", user.Email, "err", err)
		s.discardRegistration(ctx, user)
		return nil, fmt.Errorf("%w: %v", common.ErrEmailDeliveryFailed, err)
	}

	s.log.Info(ctx, "registration pending", "user_id", user.ID, "role", role)
	return &PendingRegistration{UserID: user.ID, Email: user.Email}, nil
}

func (s *IdentityService) discardRegistration(ctx context.Context, user *models.User) {
	if _, err := s.otps.Delete(ctx, user.Email); err != nil {
		s.log.Warn(ctx, "discard otp", "email", user.Email, "err", err)
	}
	if err := s.store.DeleteUser(ctx, user.ID); err != nil {
		s.log.Warn(ctx, "discard user", "user_id", user.ID, "err", err)
	}
}

// reclaimable reports whether an existing username may be taken over by a
// new registration. Verified users are never reclaimed. An unverified user
// is reclaimed when its code has lapsed, or when the same email registers
// again.
func (s *IdentityService) reclaimable(ctx context.Context, existing *models.User, email string, now time.Time) (bool, error) {
	if existing.Verified {
		return false, nil
	}
	if existing.Email == email {
		return true, nil
	}
	live, err := s.hasLiveOTP(ctx, existing, now)
	if err != nil {
		return false, err
	}
	return !live, nil
}

func (s *IdentityService) hasLiveOTP(ctx context.Context, user *models.User, now time.Time) (bool, error) {
	rec, ok, err := s.otps.Get(ctx, user.Email)
	if err != nil {
		return false, err
	}
	return ok && rec.UserID == user.ID && !now.After(rec.ExpiresAt), nil
}

func (s *IdentityService) roleKeyMatches(role models.Role, key string) bool {
	var want string
	switch role {
	case models.RoleAdmin:
		want = s.cfg.AdminRoleKey
	case models.RoleMasterAdmin:
		want = s.cfg.MasterAdminRoleKey
	}
	if want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(key)) == 1
}

// VerifyOTP marks the pending user for email verified. A code verifies at
// most once: the record read is claimed before the user is updated, and a
// record replaced by a newer registration in between is left in place.
func (s *IdentityService) VerifyOTP(ctx context.Context, email, otp string) error {
	email = normalizeEmail(email)
	otp = strings.TrimSpace(otp)
	if email == "" || otp == "" {
		return fmt.Errorf("%w: email and otp are required", common.ErrValidation)
	}

	rec, ok, err := s.otps.Get(ctx, email)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrNoPendingRegistration
	}

	if s.now().After(rec.ExpiresAt) {
		if _, err := s.otps.Claim(ctx, email, rec); err != nil {
			s.log.Warn(ctx, "delete expired otp", "email", email, "err", err)
		}
		return common.ErrOtpExpired
	}
	if subtle.ConstantTimeCompare([]byte(rec.OTP), []byte(otp)) != 1 {
		return common.ErrOtpMismatch
	}

	removed, err := s.otps.Claim(ctx, email, rec)
	if err != nil {
		return err
	}
	if !removed {
		return common.ErrNoPendingRegistration
	}

	if err := s.store.MarkUserVerified(ctx, rec.UserID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNoPendingRegistration
		}
		return err
	}

	s.log.Info(ctx, "user verified", "user_id", rec.UserID)
	return nil
}

// Login checks credentials and issues a signed token. Unknown usernames and
// wrong passwords fail identically.
func (s *IdentityService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, common.ErrNotFound) {
		_ = s.compare(s.dummyHash, []byte(password))
		return nil, common.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := s.compare([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, common.ErrInvalidCredentials
	}
	if !user.Verified {
		return nil, common.ErrAccountUnverified
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, Role: user.Role, Username: user.Username}, nil
}

func (s *IdentityService) issueToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"id":       user.ID,
		"username": user.Username,
		"role":     string(user.Role),
		"exp":      s.now().Add(s.cfg.TokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.cfg.JWTSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Authorize verifies a raw bearer token and resolves the caller.
func (s *IdentityService) Authorize(ctx context.Context, raw string) (*Caller, error) {
	if raw == "" {
		return nil, common.ErrMissingToken
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.cfg.JWTSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, common.ErrInvalidOrExpiredToken
	}
	return s.ResolveCaller(ctx, token)
}

// ResolveCaller loads the user named by an already verified token. The
// stored role and company win over the claims, so demoted or deleted
// accounts lose access before their token expires.
func (s *IdentityService) ResolveCaller(ctx context.Context, token *jwt.Token) (*Caller, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, common.ErrInvalidOrExpiredToken
	}
	userID, err := extractUserID(claims)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidOrExpiredToken, err)
	}

	user, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.ErrInvalidOrExpiredToken
	}
	if err != nil {
		return nil, err
	}
	if !user.Verified {
		return nil, common.ErrInvalidOrExpiredToken
	}

	return &Caller{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		Company:  user.Company,
	}, nil
}

// extractUserID handles the numeric forms an id claim can decode to
func extractUserID(claims jwt.MapClaims) (uint, error) {
	switch v := claims["id"].(type) {
	case float64:
		return uint(v), nil
	case string:
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse ID string: %v", err)
		}
		return uint(parsed), nil
	case nil:
		return 0, errors.New("no ID found in claims")
	default:
		return 0, fmt.Errorf("unsupported ID type: %T", v)
	}
}

// PurgeStaleRegistrations deletes unverified users created more than
// olderThan ago whose code is no longer live.
func (s *IdentityService) PurgeStaleRegistrations(ctx context.Context, olderThan time.Duration) (int, error) {
	now := s.now()
	users, err := s.store.ListUnverifiedUsersBefore(ctx, now.Add(-olderThan))
	if err != nil {
		return 0, err
	}

	purged := 0
	for i := range users {
		live, err := s.hasLiveOTP(ctx, &users[i], now)
		if err != nil {
			return purged, err
		}
		if live {
			continue
		}
		if err := s.store.DeleteUser(ctx, users[i].ID); err != nil && !errors.Is(err, common.ErrNotFound) {
			return purged, err
		}
		purged++
	}
	return purged, nil
}
