package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"valid", Config{Host: "db", Database: "games", Username: "app"}, false},
		{"missing host", Config{Database: "games", Username: "app"}, true},
		{"missing database", Config{Host: "db", Username: "app"}, true},
		{"missing user", Config{Host: "db", Database: "games"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 5432, tt.config.Port)
			assert.Equal(t, "prefer", tt.config.SSLMode)
		})
	}
}

func TestConfig_ConnectionString(t *testing.T) {
	c := Config{Host: "db", Port: 5433, Database: "games", Username: "app", Password: "p@ss word", SSLMode: "disable", MaxConns: 8}

	parsed, err := NewConfigFromURL(c.GetConnectionString())
	require.NoError(t, err)
	assert.Equal(t, "db", parsed.Host)
	assert.Equal(t, 5433, parsed.Port)
	assert.Equal(t, "games", parsed.Database)
	assert.Equal(t, "app", parsed.Username)
	assert.Equal(t, "p@ss word", parsed.Password)
	assert.Equal(t, "disable", parsed.SSLMode)
	assert.Contains(t, c.GetConnectionString(), "pool_max_conns=8")
}

func TestNewConfigFromURL_Errors(t *testing.T) {
	_, err := NewConfigFromURL("postgres://user@host")
	assert.Error(t, err)

	_, err = NewConfigFromURL("://bad")
	assert.Error(t, err)
}

func TestNewConfigFromGeneric(t *testing.T) {
	c := NewConfigFromGeneric(map[string]interface{}{
		"host":     "db",
		"port":     "6543",
		"database": "games",
		"username": "app",
		"password": "secret",
		"sslmode":  "require",
	})
	assert.Equal(t, "db", c.Host)
	assert.Equal(t, 6543, c.Port)
	assert.Equal(t, "require", c.SSLMode)
	assert.Equal(t, "postgres", c.GetType())
}
