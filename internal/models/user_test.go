package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayName(t *testing.T) {
	cases := []struct {
		name string
		user User
		want string
	}{
		{"full name", User{FirstName: "Ada", LastName: "Lovelace", Username: "ada", Email: "a@b.c"}, "Ada Lovelace"},
		{"first name only", User{FirstName: "Ada", Username: "ada"}, "Ada"},
		{"username fallback", User{Username: "ada", Email: "a@b.c"}, "ada"},
		{"email fallback", User{Email: "a@b.c"}, "a@b.c"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.user.DisplayName())
		})
	}
}
