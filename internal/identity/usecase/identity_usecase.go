// Package usecase implements business logic for identity operations.
package usecase

import (
	"context"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/sessions/internal/errors"
	identityDomain "github.com/allisson/sessions/internal/identity/domain"
	identityService "github.com/allisson/sessions/internal/identity/service"
	appValidation "github.com/allisson/sessions/internal/validation"
)

// IdentityUseCase handles identity-related business logic.
type IdentityUseCase struct {
	identityRepo    IdentityRepository
	passwordService identityService.PasswordService
}

// NewIdentityUseCase creates a new IdentityUseCase.
func NewIdentityUseCase(
	identityRepo IdentityRepository,
	passwordService identityService.PasswordService,
) *IdentityUseCase {
	return &IdentityUseCase{
		identityRepo:    identityRepo,
		passwordService: passwordService,
	}
}

// validateRegisterInput validates registration input using jellydator/validation.
func (uc *IdentityUseCase) validateRegisterInput(input RegisterIdentityInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Name,
			validation.Required.Error("name is required"),
			appValidation.NotBlank,
			validation.Length(1, 255).Error("name must be between 1 and 255 characters"),
		),
		validation.Field(&input.Email,
			validation.Required.Error("email is required"),
			appValidation.NotBlank,
			appValidation.Email,
			validation.Length(5, 255).Error("email must be between 5 and 255 characters"),
		),
		validation.Field(&input.Password,
			validation.Required.Error("password is required"),
			validation.Length(8, 128).Error("password must be between 8 and 128 characters"),
			appValidation.PasswordStrength{
				MinLength:     8,
				RequireUpper:  true,
				RequireLower:  true,
				RequireNumber: true,
			},
		),
	)
	return appValidation.WrapValidationError(err)
}

// Register creates a new identity with a hashed password.
func (uc *IdentityUseCase) Register(
	ctx context.Context,
	input RegisterIdentityInput,
) (*identityDomain.Identity, error) {
	if err := uc.validateRegisterInput(input); err != nil {
		return nil, err
	}

	hashedPassword, err := uc.passwordService.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	identity := &identityDomain.Identity{
		ID:       uuid.Must(uuid.NewV7()),
		Name:     input.Name,
		Email:    input.Email,
		Password: hashedPassword,
	}

	if err := uc.identityRepo.Create(ctx, identity); err != nil {
		return nil, err
	}

	return identity, nil
}

// Get retrieves an identity by ID.
func (uc *IdentityUseCase) Get(ctx context.Context, id uuid.UUID) (*identityDomain.Identity, error) {
	return uc.identityRepo.FindByID(ctx, id)
}

// VerifyCredentials checks an email/password pair and returns the matching identity.
func (uc *IdentityUseCase) VerifyCredentials(
	ctx context.Context,
	email, password string,
) (*identityDomain.Identity, error) {
	identity, err := uc.identityRepo.FindByEmail(ctx, email)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, identityDomain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !uc.passwordService.ComparePassword(password, identity.Password) {
		return nil, identityDomain.ErrInvalidCredentials
	}

	return identity, nil
}
