package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandEnv(t *testing.T) {
	tests := []struct {
		name  string
		input string
		env   map[string]string
		want  string
	}{
		{
			name:  "braced substitution",
			input: "api_key: ${API_KEY}",
			env:   map[string]string{"API_KEY": "secret123"},
			want:  "api_key: secret123",
		},
		{
			name:  "bare $VAR substitution",
			input: "kubeconfig: $KUBECONFIG",
			env:   map[string]string{"KUBECONFIG": "/root/.kube/config"},
			want:  "kubeconfig: /root/.kube/config",
		},
		{
			name:  "multiple substitutions in one line",
			input: "dsn: ${DB_HOST}:${DB_PORT}",
			env:   map[string]string{"DB_HOST": "localhost", "DB_PORT": "5432"},
			want:  "dsn: localhost:5432",
		},
		{
			name:  "missing variable expands to empty string",
			input: "endpoint: ${MISSING_VAR}",
			env:   map[string]string{},
			want:  "endpoint: ",
		},
		{
			name:  "no variables is a no-op",
			input: "static: value",
			env:   map[string]string{"UNUSED": "value"},
			want:  "static: value",
		},
		{
			name:  "variables in nested YAML structure",
			input: "database:\n  host: ${DB_HOST}\n  port: ${DB_PORT}\n",
			env:   map[string]string{"DB_HOST": "localhost", "DB_PORT": "5432"},
			want:  "database:\n  host: localhost\n  port: 5432\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			assert.Equal(t, tt.want, string(ExpandEnv([]byte(tt.input))))
		})
	}
}

func TestExpandEnvWithEmptyInput(t *testing.T) {
	assert.Equal(t, "", string(ExpandEnv([]byte(""))))
}
