package config

import (
	"testing"
	"time"

	"book-rental-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimal = `
server:
  host: 0.0.0.0
  port: 50051
  http_port: 8080
jwt:
  secret: 0123456789abcdef0123456789abcdef
`

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(minimal))
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Database.Type)
	assert.Equal(t, 5*time.Second, cfg.Returns.UpstreamTimeout)
	assert.Equal(t, 3, cfg.Returns.MaxRetries)
	assert.Equal(t, 24*time.Hour, cfg.Returns.IdempotencyTTL)
	assert.Equal(t, "bookrental.returns", cfg.Kafka.Topic)
	assert.Equal(t, "0 0 1 * * *", cfg.Scheduler.MarkOverdueOrders)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "0.0.0.0:50051", cfg.GetServerAddress())
	assert.Equal(t, "0.0.0.0:8080", cfg.GetHTTPAddress())
}

func TestParseDurationsAndEnv(t *testing.T) {
	t.Setenv("RETURNS_UPSTREAM_TIMEOUT", "750ms")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Parse([]byte(minimal + `
returns:
  max_retries: 5
  retry_backoff: 20ms
`))
	require.NoError(t, err)
	assert.Equal(t, 750*time.Millisecond, cfg.Returns.UpstreamTimeout)
	assert.Equal(t, 5, cfg.Returns.MaxRetries)
	assert.Equal(t, 20*time.Millisecond, cfg.Returns.RetryBackoff)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"MissingPort", "jwt:\n  secret: 0123456789abcdef0123456789abcdef\n", "invalid server port"},
		{"ShortSecret", "server:\n  port: 1\njwt:\n  secret: short\n", "at least 32"},
		{"PostgresNeedsHost", minimal + "database:\n  type: postgres\n", "database host is required"},
		{"UnknownStore", minimal + "database:\n  type: mongo\n", "unknown database type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestEndpointSecurity(t *testing.T) {
	create := GetEndpointSecurity("/bookrental.v1.ReturnService/CreateReturnRequest")
	assert.Equal(t, SecurityAccess, create.Level)
	assert.True(t, create.Allows(domain.RoleCustomer))
	assert.False(t, create.Allows(domain.RoleAdmin))

	cancel := GetEndpointSecurity("/bookrental.v1.ReturnService/CancelReturnRequest")
	assert.True(t, cancel.Allows(domain.RoleAdmin))
	assert.True(t, cancel.Allows(domain.RoleCustomer))

	assert.Equal(t, SecurityPublic, GetEndpointSecurity("/bookrental.v1.ReturnService/ListReturnStatuses").Level)
	assert.False(t, GetEndpointSecurity("/unknown/Method").Allows(domain.RoleCustomer))
}
