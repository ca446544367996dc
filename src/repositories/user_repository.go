package repositories

import (
	"context"
	"errors"

	"portfolio/src/models"

	"gorm.io/gorm"
)

// UserRepository stores credentials in users.users. It is not scoped to a
// user: registration and sign-in happen before there is one.
type UserRepository interface {
	CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error)
	AllUsers(ctx context.Context) ([]string, error)
	LoadUserCredentials(ctx context.Context) (map[string]models.Credential, error)
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	user := &models.User{Username: username, PasswordHash: passwordHash}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateUsername
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepo) AllUsers(ctx context.Context) ([]string, error) {
	usernames := []string{}
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Order("username").
		Pluck("username", &usernames).Error
	if err != nil {
		return nil, err
	}
	return usernames, nil
}

func (r *userRepo) LoadUserCredentials(ctx context.Context) (map[string]models.Credential, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Select("id", "username", "password_hash").
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	credentials := make(map[string]models.Credential, len(users))
	for _, user := range users {
		credentials[user.Username] = models.Credential{ID: user.ID, PasswordHash: user.PasswordHash}
	}
	return credentials, nil
}
