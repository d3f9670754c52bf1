package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/content-console/pkg/config"
)

func TestAuthConfigFromJWTSettings(t *testing.T) {
	cfg := authConfig(config.JWTConfig{
		Secret:     "s3cret",
		Expiration: 2 * time.Hour,
		Issuer:     "content-console",
		Audience:   []string{"console", "cli"},
	})

	assert.Equal(t, "s3cret", cfg.AccessTokenSecret)
	assert.Equal(t, 2*time.Hour, cfg.AccessTokenExpiry)
	assert.Equal(t, "content-console", cfg.Issuer)
	assert.Equal(t, []string{"console", "cli"}, cfg.Audience)
}
