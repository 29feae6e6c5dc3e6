package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"storeit/internal/cache"
	"storeit/internal/mail"
	"storeit/internal/model"
	"storeit/internal/repository"
)

var (
	ErrEmailRequired  = errors.New("email is required")
	ErrOTPDispatch    = errors.New("failed to send email OTP")
	ErrVerifyFailed   = errors.New("failed to verify OTP")
	ErrNoSession      = errors.New("no active session")
	ErrSessionExpired = errors.New("session expired")
	ErrUserNotFound   = errors.New("user not found")
)

const passcodeLength = 6

// SessionToken is returned by VerifySecret. Secret is the plaintext cookie
// value; it is never persisted and never appears in a response body.
type SessionToken struct {
	SessionID string
	Secret    string
	ExpiresAt time.Time
}

// IdentityService defines the passwordless authentication use cases: emailed
// one-time passcodes, passcode-for-session exchange, and session resolution.
type IdentityService interface {
	// SendEmailOTP issues a one-time passcode to the email, creating the
	// account if it does not exist yet. Returns the account id.
	SendEmailOTP(ctx context.Context, email string) (string, error)

	// CreateAccount performs the sign-up flow: sends an OTP and creates the
	// user record if the email has never been seen. Calling it twice for the
	// same email creates at most one user record.
	CreateAccount(ctx context.Context, fullName, email string) (string, error)

	// SignIn re-sends an OTP to a known email. Returns ErrUserNotFound if no
	// user record matches.
	SignIn(ctx context.Context, email string) (string, error)

	// VerifySecret exchanges a passcode for a session. The passcode is single
	// use. Returns ErrVerifyFailed on any mismatch.
	VerifySecret(ctx context.Context, accountID, passcode string) (*SessionToken, error)

	// CurrentUser resolves the user behind a session secret. Returns
	// ErrNoSession, ErrSessionExpired, or ErrUserNotFound; callers at the HTTP
	// boundary collapse all three to an unauthenticated response.
	CurrentUser(ctx context.Context, secret string) (*model.User, error)

	// SignOut invalidates the session behind the secret. A missing session is
	// not an error.
	SignOut(ctx context.Context, secret string) error
}

// identityService is a concrete implementation of IdentityService.
type identityService struct {
	accounts   repository.AccountRepository
	users      repository.UserRepository
	sessions   repository.SessionRepository
	codes      cache.Store
	mailer     mail.Mailer
	otpTTL     time.Duration
	sessionTTL time.Duration
}

// NewIdentityService constructs a new IdentityService.
func NewIdentityService(
	accounts repository.AccountRepository,
	users repository.UserRepository,
	sessions repository.SessionRepository,
	codes cache.Store,
	mailer mail.Mailer,
	otpTTL, sessionTTL time.Duration,
) IdentityService {
	return &identityService{
		accounts:   accounts,
		users:      users,
		sessions:   sessions,
		codes:      codes,
		mailer:     mailer,
		otpTTL:     otpTTL,
		sessionTTL: sessionTTL,
	}
}

func (s *identityService) SendEmailOTP(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", ErrEmailRequired
	}

	acc, err := s.accounts.Upsert(ctx, email)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOTPDispatch, err)
	}

	passcode, err := generatePasscode()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOTPDispatch, err)
	}

	// Only the bcrypt hash leaves this function; the plaintext code exists in
	// the email and nowhere else. A resend overwrites the previous code.
	hash, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOTPDispatch, err)
	}
	if err := s.codes.Set(ctx, otpKey(acc.ID), hash, s.otpTTL); err != nil {
		return "", fmt.Errorf("%w: %v", ErrOTPDispatch, err)
	}

	body := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.",
		passcode, int(s.otpTTL.Minutes()))
	if err := s.mailer.Send(ctx, email, "Your storeit verification code", body); err != nil {
		return "", fmt.Errorf("%w: %v", ErrOTPDispatch, err)
	}

	return acc.ID, nil
}

func (s *identityService) CreateAccount(ctx context.Context, fullName, email string) (string, error) {
	if email == "" {
		return "", ErrEmailRequired
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("lookup user: %w", err)
	}

	// OTP goes out regardless of whether the user record exists yet.
	accountID, err := s.SendEmailOTP(ctx, email)
	if err != nil {
		return "", err
	}

	if existing == nil {
		// The unique email constraint absorbs the race between two concurrent
		// first-time sign-ups: the second insert returns the existing row.
		if _, err := s.users.Create(ctx, &model.User{
			FullName:  fullName,
			Email:     email,
			Avatar:    model.AvatarPlaceholderURL,
			AccountID: accountID,
		}); err != nil {
			return "", fmt.Errorf("create user: %w", err)
		}
	}

	return accountID, nil
}

func (s *identityService) SignIn(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", ErrEmailRequired
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lookup user: %w", err)
	}

	if _, err := s.SendEmailOTP(ctx, email); err != nil {
		return "", err
	}
	return user.AccountID, nil
}

func (s *identityService) VerifySecret(ctx context.Context, accountID, passcode string) (*SessionToken, error) {
	if accountID == "" || passcode == "" {
		return nil, ErrVerifyFailed
	}

	hash, err := s.codes.Get(ctx, otpKey(accountID))
	if errors.Is(err, cache.ErrMiss) {
		return nil, ErrVerifyFailed
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerifyFailed, err)
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(passcode)); err != nil {
		return nil, ErrVerifyFailed
	}

	// Single use: burn the code before the session exists so a concurrent
	// verify with the same code cannot succeed twice.
	if err := s.codes.Del(ctx, otpKey(accountID)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerifyFailed, err)
	}

	secret, err := generateSecret()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerifyFailed, err)
	}

	now := time.Now().UTC()
	session := &model.Session{
		ID:         uuid.NewString(),
		SecretHash: hashSecret(secret),
		AccountID:  accountID,
		ExpiresAt:  now.Add(s.sessionTTL),
		CreatedAt:  now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerifyFailed, err)
	}

	return &SessionToken{
		SessionID: session.ID,
		Secret:    secret,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

func (s *identityService) CurrentUser(ctx context.Context, secret string) (*model.User, error) {
	if secret == "" {
		return nil, ErrNoSession
	}

	session, err := s.sessions.FindBySecretHash(ctx, hashSecret(secret))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}

	if session.Expired(time.Now().UTC()) {
		// Best effort: an expired row is dead weight either way.
		_ = s.sessions.Delete(ctx, session.ID)
		return nil, ErrSessionExpired
	}

	user, err := s.users.FindByAccountID(ctx, session.AccountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

func (s *identityService) SignOut(ctx context.Context, secret string) error {
	if secret == "" {
		return nil
	}

	session, err := s.sessions.FindBySecretHash(ctx, hashSecret(secret))
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup session: %w", err)
	}
	return s.sessions.Delete(ctx, session.ID)
}

func otpKey(accountID string) string {
	return "otp:" + accountID
}

func hashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

func generatePasscode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < passcodeLength; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", passcodeLength, n), nil
}

func generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
