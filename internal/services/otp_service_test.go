package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	svc := NewOTPServiceWithClient(newTestRedis(t))

	for i := 0; i < 50; i++ {
		code, err := svc.GenerateCode()
		require.NoError(t, err)
		assert.Regexp(t, `^\d{6}$`, code)
	}
}

func TestStoreAndGetCode(t *testing.T) {
	svc := NewOTPServiceWithClient(newTestRedis(t))

	require.NoError(t, svc.StoreCode("254712345678", "123456", 5))

	code, err := svc.GetCode("254712345678")
	require.NoError(t, err)
	assert.Equal(t, "123456", code)

	// Unknown number
	_, err = svc.GetCode("254799999999")
	assert.Error(t, err)
}

func TestDeleteCodeConsumesIt(t *testing.T) {
	svc := NewOTPServiceWithClient(newTestRedis(t))

	require.NoError(t, svc.StoreCode("254712345678", "123456", 5))
	require.NoError(t, svc.DeleteCode("254712345678"))

	_, err := svc.GetCode("254712345678")
	assert.Error(t, err)
}

func TestRateLimit(t *testing.T) {
	svc := NewOTPServiceWithClient(newTestRedis(t))

	limited, err := svc.CheckRateLimit("254712345678")
	require.NoError(t, err)
	assert.False(t, limited)

	require.NoError(t, svc.SetRateLimit("254712345678", 1))

	limited, err = svc.CheckRateLimit("254712345678")
	require.NoError(t, err)
	assert.True(t, limited)

	// Other numbers are unaffected
	limited, err = svc.CheckRateLimit("254700000000")
	require.NoError(t, err)
	assert.False(t, limited)
}
