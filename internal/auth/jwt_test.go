package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	token, exp, err := Issue("reporting-svc", "service", "attendance-engine", "secret", time.Minute)
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	claims, err := Parse(token, "secret", "attendance-engine")
	require.NoError(t, err)
	assert.Equal(t, "reporting-svc", claims.Subject)
	assert.Equal(t, "service", claims.Role)
}

func TestParseRejectsWrongKey(t *testing.T) {
	token, _, err := Issue("svc", "service", "attendance-engine", "secret", time.Minute)
	require.NoError(t, err)

	_, err = Parse(token, "other-secret", "attendance-engine")
	assert.Error(t, err)
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	token, _, err := Issue("svc", "service", "someone-else", "secret", time.Minute)
	require.NoError(t, err)

	_, err = Parse(token, "secret", "attendance-engine")
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	token, _, err := Issue("svc", "service", "attendance-engine", "secret", -time.Minute)
	require.NoError(t, err)

	_, err = Parse(token, "secret", "attendance-engine")
	assert.Error(t, err)
}
