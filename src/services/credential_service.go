package services

import (
	"context"
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"portfolio/src/models"
	"portfolio/src/repositories"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidUsername = errors.New("invalid username")
	ErrInvalidPassword = errors.New("invalid password")
	ErrUnknownUsername = errors.New("unknown username")
	ErrWrongPassword   = errors.New("wrong password")
)

const minPasswordLength = 8

type CredentialServiceI interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	SignIn(ctx context.Context, username, password string) (*models.User, error)
}

type CredentialService struct {
	userRepo repositories.UserRepository
	cost     int
}

func NewCredentialService(userRepo repositories.UserRepository) *CredentialService {
	return &CredentialService{userRepo: userRepo, cost: bcrypt.DefaultCost}
}

// WithCost returns a copy hashing with the given bcrypt cost.
func (s *CredentialService) WithCost(cost int) *CredentialService {
	tmp := *s
	tmp.cost = cost
	return &tmp
}

// VerifyUsername accepts names longer than one character made only of
// letters and digits that are not already taken.
func VerifyUsername(candidate string, existing []string) bool {
	if utf8.RuneCountInString(candidate) <= 1 {
		return false
	}
	for _, r := range candidate {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	for _, name := range existing {
		if name == candidate {
			return false
		}
	}
	return true
}

// VerifyPassword accepts passwords of at least eight characters containing a decimal digit.
func VerifyPassword(candidate string) bool {
	if utf8.RuneCountInString(candidate) < minPasswordLength {
		return false
	}
	return strings.ContainsAny(candidate, "0123456789")
}

// Register validates the credentials and stores a bcrypt hash of the password.
// The unique index stays the final word on duplicates.
func (s *CredentialService) Register(ctx context.Context, username, password string) (*models.User, error) {
	existing, err := s.userRepo.AllUsers(ctx)
	if err != nil {
		return nil, err
	}
	if !VerifyUsername(username, existing) {
		return nil, ErrInvalidUsername
	}
	if !VerifyPassword(password) {
		return nil, ErrInvalidPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, err
	}
	return s.userRepo.CreateUser(ctx, username, string(hash))
}

func (s *CredentialService) SignIn(ctx context.Context, username, password string) (*models.User, error) {
	credentials, err := s.userRepo.LoadUserCredentials(ctx)
	if err != nil {
		return nil, err
	}
	credential, ok := credentials[username]
	if !ok {
		return nil, ErrUnknownUsername
	}
	if err := bcrypt.CompareHashAndPassword([]byte(credential.PasswordHash), []byte(password)); err != nil {
		return nil, ErrWrongPassword
	}
	return &models.User{ID: credential.ID, Username: username}, nil
}
