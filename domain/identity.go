// Package domain contains core concepts of the relay.
// This file defines client identities and their invariants.
// No runtime, network, or storage logic should be added here.
package domain

import (
	"chat-relay/errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxIdentityLength bounds an identity in characters.
const MaxIdentityLength = 64

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// A line break would split one frame into two on the wire.
	_ = v.RegisterValidation("singleline", func(fl validator.FieldLevel) bool {
		return !strings.ContainsAny(fl.Field().String(), "\r\n")
	})
	return v
}

// Identity names a connected client. It is unique among live sessions.
type Identity string

func (i Identity) String() string {
	return string(i)
}

// registration carries the rules an identity must satisfy.
// 0x7C is the pipe separator, which would corrupt LIST frames.
type registration struct {
	Identity string `validate:"required,max=64,excludesall=0x7C,singleline"`
}

// ParseIdentity validates a raw name received in a NAME frame.
func ParseIdentity(raw string) (Identity, error) {
	if err := validate.Struct(registration{Identity: raw}); err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidIdentity, err)
	}
	return Identity(raw), nil
}
