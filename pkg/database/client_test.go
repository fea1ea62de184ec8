package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				Password: "secret",
				MaxConns: 10,
				MinConns: 2,
			},
			wantErr: false,
		},
		{
			name:    "missing password",
			cfg:     Config{MaxConns: 10},
			wantErr: true,
		},
		{
			name: "min exceeds max",
			cfg: Config{
				Password: "secret",
				MaxConns: 2,
				MinConns: 10,
			},
			wantErr: true,
		},
		{
			name: "zero max conns",
			cfg: Config{
				Password: "secret",
				MaxConns: 0,
			},
			wantErr: true,
		},
		{
			name: "negative min conns",
			cfg: Config{
				Password: "secret",
				MaxConns: 10,
				MinConns: -1,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_DSN(t *testing.T) {
	cfg := Config{
		Host:     "db.internal",
		Port:     5432,
		User:     "reviewer",
		Password: "secret",
		Database: "contract_review",
		SSLMode:  "disable",
	}
	dsn := cfg.DSN()
	assert.Contains(t, dsn, "host=db.internal")
	assert.Contains(t, dsn, "port=5432")
	assert.Contains(t, dsn, "user=reviewer")
	assert.Contains(t, dsn, "dbname=contract_review")
	assert.Contains(t, dsn, "sslmode=disable")
}

func TestHasEmbeddedMigrations(t *testing.T) {
	ok, err := hasEmbeddedMigrations()
	assert.NoError(t, err)
	assert.True(t, ok, "expected at least one embedded *.sql migration file")
}
