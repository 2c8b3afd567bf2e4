package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	c, err := LoadFrom(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, 8080, c.ServerPort)
	assert.Equal(t, "mongodb://127.0.0.1/final-project", c.StoreURL)
	assert.Equal(t, 10*time.Second, c.StoreTimeout)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, 10, c.BcryptCost)
	assert.Equal(t, DeletePolicyAny, c.DeletePolicy)
	assert.Equal(t, []string{"*"}, c.CORSOrigins)

	driver, err := c.StoreDriver()
	require.NoError(t, err)
	assert.Equal(t, DriverMongo, driver)
}

func TestLoadFrom_Overrides(t *testing.T) {
	c, err := LoadFrom(map[string]string{
		"PORT":          "9090",
		"MONGO_URL":     "sqlite:///tmp/accounts.db",
		"DELETE_POLICY": "owner",
		"CORS_ORIGINS":  "http://a.test,http://b.test",
	})
	require.NoError(t, err)

	assert.Equal(t, 9090, c.ServerPort)
	assert.Equal(t, DeletePolicyOwner, c.DeletePolicy)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, c.CORSOrigins)

	driver, err := c.StoreDriver()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, driver)
	assert.Equal(t, "/tmp/accounts.db", c.SQLitePath())
}

func TestLoadFrom_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"bad port":   {"PORT": "abc"},
		"port range": {"PORT": "70000"},
		"policy":     {"DELETE_POLICY": "admins"},
		"store url":  {"MONGO_URL": "postgres://localhost/db"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFrom(vars)
			assert.Error(t, err)
		})
	}
}

func TestSQLitePath_Memory(t *testing.T) {
	c := &Config{StoreURL: "sqlite::memory:"}
	assert.Equal(t, ":memory:", c.SQLitePath())
}
