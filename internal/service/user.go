package service

import (
	"context"

	"github.com/yourname/snusquit/internal"
	"github.com/yourname/snusquit/internal/storage"
)

type CreateUserRequest struct {
	Name    string  `json:"name" validate:"required"`
	Email   *string `json:"email"`
	Country *string `json:"country"`
}

func ValidateCreateUserRequest(req *CreateUserRequest) (*internal.User, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	return &internal.User{Name: req.Name, Email: req.Email, Country: req.Country}, nil
}

func CreateUser(ctx context.Context, users storage.UserRepository, user *internal.User) (string, error) {
	return users.CreateUser(ctx, user)
}

// requireUser returns ErrNotFound when userID does not name a stored user.
func requireUser(ctx context.Context, users storage.UserRepository, userID string) error {
	ok, err := users.UserExists(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return internal.NotFound("User")
	}
	return nil
}
