package utils_test

import (
	"testing"

	"github.com/Dosada05/tournament-draw/utils"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := utils.HashPassword("draw-day")
	require.NoError(t, err)
	require.NotEqual(t, "draw-day", hash)

	require.True(t, utils.CheckPasswordHash("draw-day", hash))
	require.False(t, utils.CheckPasswordHash("draw-night", hash))
	require.False(t, utils.CheckPasswordHash("draw-day", "not-a-hash"))

	_, err = utils.HashPassword("")
	require.ErrorIs(t, err, utils.ErrEmptyPassword)
}
