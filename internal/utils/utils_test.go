package utils

import (
	"testing"

	"coord2country/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestBuildPostgresDSN(t *testing.T) {
	c := config.PGConfig{Host: "db", Port: "5433", User: "c2c", Password: "p@ss word", DB: "geo", SSLMode: "require"}
	assert.Equal(t, "postgres://c2c:p%40ss%20word@db:5433/geo?sslmode=require", BuildPostgresDSN(c))

	c.Password = ""
	assert.Equal(t, "postgres://c2c@db:5433/geo?sslmode=require", BuildPostgresDSN(c))
}

func TestOpenRedisDisabled(t *testing.T) {
	assert.Nil(t, OpenRedis(config.RedisConfig{Enabled: false}))
	rc := OpenRedis(config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: "6379", DB: -1})
	if assert.NotNil(t, rc) {
		assert.Equal(t, 0, rc.Options().DB)
		_ = rc.Close()
	}
}
