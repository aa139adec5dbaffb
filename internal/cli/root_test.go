package cli

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"pos_sales/internal/config"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "pos-sales", cmd.Use)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)
	assert.Equal(t, "", configFlag.DefValue)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"serve", "migrate"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Mode = "test"
	cfg.JWTSecret = "secret"
	cfg.Database.Driver = config.DriverMemory
	cfg.UserService.URL = ""
	cfg.UserService.KnownIDs = []string{"S1"}
	return cfg
}

func TestBuildApp_Memory(t *testing.T) {
	a, err := buildApp(testConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer a.close()

	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	a.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sales", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBuildApp_SQLite(t *testing.T) {
	cfg := testConfig()
	cfg.Database.Driver = config.DriverSQLite
	cfg.Database.DSN = filepath.Join(t.TempDir(), "sales.db")
	cfg.UserService.URL = "http://127.0.0.1:1/users"

	a, err := buildApp(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Len(t, a.closers, 2)
	a.close()
}

func TestRunMigrate(t *testing.T) {
	log := zaptest.NewLogger(t)
	cfg := testConfig()
	assert.NoError(t, runMigrate(cfg, log))

	cfg.Database.Driver = config.DriverSQLite
	cfg.Database.DSN = filepath.Join(t.TempDir(), "sales.db")
	assert.NoError(t, runMigrate(cfg, log))
	// idempotent
	assert.NoError(t, runMigrate(cfg, log))
}
