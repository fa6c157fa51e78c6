package config

import (
	"os"
	"path/filepath"
	"testing"

	"lendit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
app:
  name: lendit
  environment: test
database:
  path: ./data/test.db
api:
  port: 8081
  auth:
    enabled: true
    api_keys:
      - key: secret
        name: ops
        permissions: ["read:bookings"]
  rate_limit:
    rps: 25
    burst: 5
telegram:
  manager_chats: [100, 200]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "lendit", cfg.App.Name)
	assert.Equal(t, "./data/test.db", cfg.Database.Path)
	assert.Equal(t, 8081, cfg.API.Port)
	assert.True(t, cfg.API.Auth.Enabled)
	require.Len(t, cfg.API.Auth.APIKeys, 1)
	assert.Equal(t, []string{"read:bookings"}, cfg.API.Auth.APIKeys[0].Permissions)
	assert.Equal(t, float64(25), cfg.API.RateLimit.RPS)
	assert.Equal(t, []int64{100, 200}, cfg.Telegram.ManagerChats)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_DB_PATH", "/tmp/lendit.db")
	path := writeConfig(t, `
database:
  path: ${TEST_DB_PATH}
api:
  port: 8080
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/lendit.db", cfg.Database.Path)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
database:
  path: ./data/test.db
monitoring:
  prometheus_enabled: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "lendit", cfg.App.Name)
	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, 9090, cfg.Monitoring.PrometheusPort)
	assert.Equal(t, "x-api-key", cfg.API.Auth.HeaderAPIKey)
	assert.Equal(t, "x-user-id", cfg.API.Auth.HeaderUserID)
	assert.Equal(t, models.RateLimitRequests, cfg.API.RateLimit.ActorRequests)
	assert.Equal(t, models.RateLimitWindow, cfg.API.RateLimit.ActorWindow)
}

func TestLoad_MissingDatabasePath(t *testing.T) {
	path := writeConfig(t, `
api:
  port: 8080
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database path")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "api: [not: a map")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateSeed(t *testing.T) {
	users := []models.User{{ID: 1, Name: "Owner"}, {ID: 2, Name: "Booker"}}
	items := []models.Item{{ID: 1, OwnerID: 1, Name: "Drill"}}

	assert.NoError(t, ValidateSeed(users, items))
}

func TestValidateSeed_Errors(t *testing.T) {
	tests := []struct {
		name  string
		users []models.User
		items []models.Item
		want  string
	}{
		{
			name:  "zero user id",
			users: []models.User{{ID: 0, Name: "Ghost"}},
			want:  "invalid ID 0",
		},
		{
			name:  "duplicate user id",
			users: []models.User{{ID: 1, Name: "A"}, {ID: 1, Name: "B"}},
			want:  "duplicate user ID",
		},
		{
			name:  "zero item id",
			users: []models.User{{ID: 1, Name: "Owner"}},
			items: []models.Item{{ID: 0, OwnerID: 1, Name: "Ghost"}},
			want:  "invalid ID 0",
		},
		{
			name:  "duplicate item id",
			users: []models.User{{ID: 1, Name: "Owner"}},
			items: []models.Item{{ID: 1, OwnerID: 1, Name: "A"}, {ID: 1, OwnerID: 1, Name: "B"}},
			want:  "duplicate item ID",
		},
		{
			name:  "dangling owner",
			users: []models.User{{ID: 1, Name: "Owner"}},
			items: []models.Item{{ID: 1, OwnerID: 99, Name: "Orphan"}},
			want:  "unknown owner",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSeed(tt.users, tt.items)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
