package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gatewayConfig struct {
	ShopAPI   string        `env:"CFGTEST_SHOP_API_URL" envDefault:"http://localhost:3000/shop-api"`
	Timeout   time.Duration `env:"CFGTEST_TIMEOUT" envDefault:"30s"`
	Brokers   []string      `env:"CFGTEST_KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	RateLimit float64       `env:"CFGTEST_RATE_LIMIT" envDefault:"20"`
	DryRun    bool          `env:"CFGTEST_DRY_RUN"`
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want gatewayConfig
	}{
		{
			name: "defaults",
			want: gatewayConfig{
				ShopAPI:   "http://localhost:3000/shop-api",
				Timeout:   30 * time.Second,
				Brokers:   []string{"localhost:9092"},
				RateLimit: 20,
			},
		},
		{
			name: "overrides",
			env: map[string]string{
				"CFGTEST_SHOP_API_URL":  "https://tienda.uniclima.es/shop-api",
				"CFGTEST_TIMEOUT":       "1500ms",
				"CFGTEST_KAFKA_BROKERS": "kafka-0:9092,kafka-1:9092",
				"CFGTEST_RATE_LIMIT":    "2.5",
				"CFGTEST_DRY_RUN":       "true",
			},
			want: gatewayConfig{
				ShopAPI:   "https://tienda.uniclima.es/shop-api",
				Timeout:   1500 * time.Millisecond,
				Brokers:   []string{"kafka-0:9092", "kafka-1:9092"},
				RateLimit: 2.5,
				DryRun:    true,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			var got gatewayConfig
			require.NoError(t, Load(&got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("CFGTEST_TIMEOUT", "soon")
		assert.ErrorContains(t, Load(&gatewayConfig{}), "parse config")
	})

	t.Run("required missing", func(t *testing.T) {
		var cfg struct {
			Token string `env:"CFGTEST_ADMIN_TOKEN,required"`
		}
		assert.ErrorContains(t, Load(&cfg), "CFGTEST_ADMIN_TOKEN")
	})
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalogctl.env")
	require.NoError(t, os.WriteFile(path, []byte("CFGTEST_DOTENV_HOST=db.interno\nCFGTEST_DOTENV_PORT=6543\n"), 0o600))

	t.Setenv("CFGTEST_DOTENV_PORT", "5432")
	t.Cleanup(func() { _ = os.Unsetenv("CFGTEST_DOTENV_HOST") })

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "db.interno", os.Getenv("CFGTEST_DOTENV_HOST"))
	assert.Equal(t, "5432", os.Getenv("CFGTEST_DOTENV_PORT"), "process environment wins")
}

func TestLoadDotEnv_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("NOT A VALID LINE\n"), 0o600))
	assert.ErrorContains(t, LoadDotEnv(path), "load "+path)
}
