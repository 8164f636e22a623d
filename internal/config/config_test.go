package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	t.Setenv("EARNINGS_WORKERS", "4")
	t.Setenv("ENCRYPTION_KEY", "a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6")
	t.Setenv("EARNINGS_SCHEDULE", "0 0 * * *")

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "0 0 * * *", cfg.EarningsSchedule)
	assert.Equal(t, 4, cfg.EarningsWorkers)

	key, err := cfg.EncryptionKeyBytes()
	require.NoError(t, err)
	assert.Len(t, key, 32)
}

func TestNewConfigRejectsBadValues(t *testing.T) {
	t.Setenv("EARNINGS_WORKERS", "zero")
	_, err := NewConfig()
	assert.Error(t, err)

	t.Setenv("EARNINGS_WORKERS", "2")
	t.Setenv("ENCRYPTION_KEY", "not-hex")
	_, err = NewConfig()
	assert.ErrorContains(t, err, "ENCRYPTION_KEY")

	t.Setenv("ENCRYPTION_KEY", "abcd")
	_, err = NewConfig()
	assert.ErrorContains(t, err, "16, 24 or 32 bytes")

	t.Setenv("ENCRYPTION_KEY", "00112233445566778899aabbccddeeff")
	t.Setenv("DB_CONN", "")
	_, err = NewConfig()
	assert.ErrorContains(t, err, "DB_CONN is required")
}
