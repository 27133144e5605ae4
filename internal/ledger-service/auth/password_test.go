package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordRoundTrip(t *testing.T) {
	h, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", h)

	assert.NoError(t, CheckPassword(h, "s3cret!"))
	assert.ErrorIs(t, CheckPassword(h, "wrong"), ErrInvalidCredentials)
	assert.ErrorIs(t, CheckPassword("not-a-hash", "s3cret!"), ErrInvalidCredentials)
}
