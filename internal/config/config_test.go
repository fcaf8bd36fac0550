package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "chat_app", cfg.Mongo.Database)
	assert.Equal(t, 24*time.Hour, cfg.JWT.ExpirationTime)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "chat-events", cfg.Kafka.Topic)
	assert.Equal(t, "chat-eventlog", cfg.Kafka.GroupID)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("MONGO_DB", "chat_test")
	t.Setenv("JWT_EXPIRATION", "2h")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "chat_test", cfg.Mongo.Database)
	assert.Equal(t, 2*time.Hour, cfg.JWT.ExpirationTime)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.True(t, cfg.MinIO.UseSSL)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server: ServerConfig{Port: "8080"},
			Mongo:  MongoConfig{URI: "mongodb://x", Database: "db"},
			JWT:    JWTConfig{Secret: "s", ExpirationTime: time.Hour},
		}
	}

	assert.NoError(t, base().Validate())

	c := base()
	c.JWT.Secret = ""
	assert.Error(t, c.Validate())

	c = base()
	c.Mongo.Database = ""
	assert.Error(t, c.Validate())

	c = base()
	c.JWT.ExpirationTime = 0
	assert.Error(t, c.Validate())
}
