package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/allisson/sessions/internal/errors"
)

func TestWrapValidationError(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, WrapValidationError(nil))
	})

	t.Run("wraps as invalid input", func(t *testing.T) {
		err := WrapValidationError(apperrors.New("email: must be a valid email address"))
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	})
}

func TestEmail(t *testing.T) {
	assert.NoError(t, Email.Validate("user@example.com"))
	assert.Error(t, Email.Validate("not-an-email"))
	assert.Error(t, Email.Validate("user@"))
}

func TestNotBlank(t *testing.T) {
	assert.NoError(t, NotBlank.Validate("value"))
	assert.Error(t, NotBlank.Validate("   "))
	assert.Error(t, NotBlank.Validate(""))
}

func TestPasswordStrength(t *testing.T) {
	rule := PasswordStrength{MinLength: 8, RequireUpper: true, RequireLower: true, RequireNumber: true}

	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid password", "Sup3rSecret", false},
		{"too short", "Ab1", true},
		{"missing uppercase", "sup3rsecret", true},
		{"missing lowercase", "SUP3RSECRET", true},
		{"missing number", "SuperSecret", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := rule.Validate(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
