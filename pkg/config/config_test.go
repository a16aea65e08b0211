package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, []string{"personal_email", "phone"}, cfg.Authz.LecturerSelfFields)
	assert.Empty(t, cfg.Authz.ReadOverrides)
	assert.False(t, cfg.Events.Enabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("AUTHZ_READ_OVERRIDES", "student:group=none, lecturer:lecturer=all")
	t.Setenv("AUTHZ_LECTURER_SELF_FIELDS", "phone,location")
	t.Setenv("CACHE_TTL", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"student:group=none", "lecturer:lecturer=all"}, cfg.Authz.ReadOverrides)
	assert.Equal(t, []string{"phone", "location"}, cfg.Authz.LecturerSelfFields)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a , ,b "))
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir on older toolchains).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
