// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"eatsy/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// RegisterCustomerInput defines the data required to register a new customer.
type RegisterCustomerInput struct {
	Name           string
	Email          string
	Password       string
	DefaultAddress string
}

// RegisterCookInput defines the data required to register a new cook.
type RegisterCookInput struct {
	Name        string
	Email       string
	Password    string
	KitchenName string
	Bio         string
	Latitude    float64
	Longitude   float64
}

// LoginInput defines the data required for a user to log in.
type LoginInput struct {
	Email    string
	Password string
	// DeviceToken optionally carries the device's FCM registration token, so
	// the session watchdog can notify this device when the session lapses.
	DeviceToken string
}

// RefreshTokenInput carries the refresh token presented by the client.
type RefreshTokenInput struct {
	RefreshToken string
}

// LogoutInput carries the refresh token of the session being closed.
type LogoutInput struct {
	RefreshToken string
}

// --- Output DTOs ---

// RegisterOutput returns the newly created user's basic information.
type RegisterOutput struct {
	User *entity.User
}

// LoginOutput returns the generated tokens after a successful login.
type LoginOutput struct {
	AccessToken  string
	RefreshToken string
	SessionID    uuid.UUID
	User         *entity.User
}

// RefreshTokenOutput returns the freshly minted access token.
type RefreshTokenOutput struct {
	AccessToken string
}

// UserUsecase defines the interface for user-related business operations.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type UserUsecase interface {
	RegisterCustomer(ctx context.Context, input *RegisterCustomerInput) (*RegisterOutput, error)
	RegisterCook(ctx context.Context, input *RegisterCookInput) (*RegisterOutput, error)
	Login(ctx context.Context, input *LoginInput) (*LoginOutput, error)
	RefreshToken(ctx context.Context, input *RefreshTokenInput) (*RefreshTokenOutput, error)
	Logout(ctx context.Context, input *LogoutInput) error
	LogoutAllDevices(ctx context.Context, userID uuid.UUID) error
	GetProfile(ctx context.Context, userID uuid.UUID) (*entity.User, error)
}
