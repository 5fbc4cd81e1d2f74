package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic(t *testing.T) {
	s := NewStatic("")
	assert.Nil(t, s.CurrentUser())

	s.SignIn("ada")
	u := s.CurrentUser()
	require.NotNil(t, u)
	assert.Equal(t, "ada", u.Name)

	u.Name = "mallory"
	assert.Equal(t, "ada", s.CurrentUser().Name, "callers get a copy")

	s.SignOut()
	assert.Nil(t, s.CurrentUser())
}
