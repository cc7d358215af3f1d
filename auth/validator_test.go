package auth

import (
	"testing"

	"chat-client/errors"

	"github.com/stretchr/testify/require"
)

func TestValidateRegister(t *testing.T) {
	tests := []struct {
		name    string
		request RegisterRequest
		wantErr bool
	}{
		{
			name:    "valid user registration",
			request: RegisterRequest{Username: "alice", Password: "Str0ng&Secure!", Role: "user"},
			wantErr: false,
		},
		{
			name:    "valid admin registration",
			request: RegisterRequest{Username: "root-alice", Password: "Str0ng&Secure!", Role: "admin"},
			wantErr: false,
		},
		{
			name:    "username too short",
			request: RegisterRequest{Username: "al", Password: "Str0ng&Secure!", Role: "user"},
			wantErr: true,
		},
		{
			name:    "password too short",
			request: RegisterRequest{Username: "alice", Password: "Sh0rt!", Role: "user"},
			wantErr: true,
		},
		{
			name:    "unknown role",
			request: RegisterRequest{Username: "alice", Password: "Str0ng&Secure!", Role: "superuser"},
			wantErr: true,
		},
		{
			name:    "missing role",
			request: RegisterRequest{Username: "alice", Password: "Str0ng&Secure!"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			err := ValidateRegister(tt.request)
			if tt.wantErr {
				req.Error(err)
			} else {
				req.NoError(err)
			}
		})
	}
}

func TestValidateRegister_PasswordComplexity(t *testing.T) {
	req := require.New(t)

	// Long enough but missing character classes
	weak := []string{
		"alllowercasepassword", // no upper, digit, special
		"ALLUPPERCASEPASSWORD", // no lower, digit, special
		"NoDigitsHerePlease",   // no digit, special
		"n0specialchars00",     // no upper, special
	}

	for _, password := range weak {
		err := ValidateRegister(RegisterRequest{Username: "alice", Password: password, Role: "user"})
		req.ErrorIs(err, errors.ErrInvalidPassword, "password=%s", password)
	}

	err := ValidateRegister(RegisterRequest{Username: "alice", Password: "C0mpl3x&Enough!", Role: "user"})
	req.NoError(err)
}
