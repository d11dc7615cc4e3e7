package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pitchside/apiserver/internal/mq"
	"github.com/pitchside/apiserver/internal/store"
	"github.com/pitchside/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest accepted password, in characters.
const MinPasswordLength = 6

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	GetByIdentifier(ctx context.Context, username, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
}

// EventEmitter publishes best-effort domain events.
type EventEmitter interface {
	Emit(ctx context.Context, channel, eventType string, data any)
}

// UserService encapsulates registration and credential use-cases.
type UserService struct {
	repo     UserRepository
	events   EventEmitter
	hashCost int

	// dummyHash is compared against when no user matches a login so both
	// failure paths spend similar time in bcrypt.
	dummyHash []byte
}

func NewUserService(repo UserRepository, events EventEmitter) *UserService {
	dummy, _ := bcrypt.GenerateFromPassword([]byte("pitchside-dummy-password"), bcrypt.DefaultCost)
	return &UserService{
		repo:      repo,
		events:    events,
		hashCost:  bcrypt.DefaultCost,
		dummyHash: dummy,
	}
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrUserNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

// Register creates a new account. Username and email must both be unused,
// and neither may collide with the other field of an existing account, since
// login accepts either one.
func (s *UserService) Register(ctx context.Context, username, email, password string) (types.User, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)
	if username == "" || email == "" || password == "" {
		return types.User{}, ErrMissingFields
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return types.User{}, err
	}

	if err := s.ensureAvailable(ctx, username, email); err != nil {
		return types.User{}, err
	}

	user, err := s.repo.Create(ctx, types.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.User{}, ErrUserExists
		}
		return types.User{}, fmt.Errorf("create user: %w", err)
	}

	s.emit(ctx, mq.ChannelUsers, mq.EventUserRegistered, map[string]any{
		"user_id":  user.ID,
		"username": user.Username,
	})
	return user, nil
}

// Authenticate resolves identifier as a username or email and checks the password.
func (s *UserService) Authenticate(ctx context.Context, identifier, password string) (types.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return types.User{}, ErrInvalidCredentials
	}

	user, err := s.repo.GetByIdentifier(ctx, identifier, normalizeEmail(identifier))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return types.User{}, ErrInvalidCredentials
		}
		return types.User{}, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return types.User{}, ErrInvalidCredentials
		}
		return types.User{}, fmt.Errorf("compare password: %w", err)
	}
	return user, nil
}

// ResetPassword replaces the password of the account registered under email.
// Knowing the email is sufficient; no ownership proof is requested.
func (s *UserService) ResetPassword(ctx context.Context, email, newPassword string) error {
	email = normalizeEmail(email)

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// ensureAvailable reports ErrUserExists when username or email is already
// used as either the username or the email of another account.
func (s *UserService) ensureAvailable(ctx context.Context, username, email string) error {
	lookups := [][2]string{
		{username, email},
		{email, normalizeEmail(username)},
	}
	for _, l := range lookups {
		_, err := s.repo.GetByIdentifier(ctx, l[0], l[1])
		if err == nil {
			return ErrUserExists
		}
		if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("check existing user: %w", err)
		}
	}
	return nil
}

func (s *UserService) hashPassword(password string) (string, error) {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func (s *UserService) emit(ctx context.Context, channel, eventType string, data any) {
	if s.events != nil {
		s.events.Emit(ctx, channel, eventType, data)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
