package account

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"simple", "creator", true},
		{"underscore", "first_player", true},
		{"dotted", "player.one", true},
		{"digits", "p42", true},
		{"minimum length", "abc", true},
		{"maximum length", strings.Repeat("a", MaxLength), true},
		{"empty", "", false},
		{"too short", "ab", false},
		{"too long", strings.Repeat("a", MaxLength+1), false},
		{"uppercase", "Creator", false},
		{"whitespace", "first player", false},
		{"leading dash", "-player", false},
		{"unicode", "jogadør", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := Validate(tt.input)
			if tt.valid {
				require.NoError(t, err)
				assert.Equal(t, ID(tt.input), id)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidAddress), "expected ErrInvalidAddress, got %v", err)
			assert.Empty(t, id)
		})
	}
}

func TestValidatorFunc(t *testing.T) {
	calls := 0
	v := ValidatorFunc(func(raw string) (ID, error) {
		calls++
		return ID("x-" + raw), nil
	})

	id, err := v.Validate("abc")
	require.NoError(t, err)
	assert.Equal(t, ID("x-abc"), id)
	assert.Equal(t, 1, calls)
}
