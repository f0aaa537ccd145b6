package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"panellicense/models"
	"panellicense/services"
	"panellicense/utils"
)

const testSecret = "cli-test-secret"

func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PANELLICENSE_AUTH_JWT_SECRET", testSecret)
	t.Setenv("PANELLICENSE_DATABASE_DRIVER", "sqlite")
	t.Setenv("PANELLICENSE_DATABASE_DSN", filepath.Join(t.TempDir(), "cli.db"))
	t.Setenv("PANELLICENSE_LOGGER_LEVEL", "error")
	t.Setenv("PANELLICENSE_LOGGER_OUTPUT_PATH", "stderr")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLicenseLifecycleCommands(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "sqlite")

	out, err = run(t, "license", "generate", "--tier", "professional", "--domain", "Panel.Example.com", "--user", "user-1")
	require.NoError(t, err)
	var lic models.License
	require.NoError(t, json.Unmarshal([]byte(out), &lic))
	assert.Equal(t, models.TierProfessional, lic.Tier)
	assert.Nil(t, lic.ActivatedAt)

	out, err = run(t, "license", "activate", lic.LicenseKey, "--hardware-id", "hw-1")
	require.NoError(t, err)
	var activated models.License
	require.NoError(t, json.Unmarshal([]byte(out), &activated))
	require.NotNil(t, activated.ActivatedAt)

	_, err = run(t, "license", "activate", lic.LicenseKey)
	assert.True(t, services.IsKind(err, services.KindAlreadyActivated))

	out, err = run(t, "license", "validate", lic.LicenseKey, "--domain", "panel.example.com", "--hardware-id", "hw-1")
	require.NoError(t, err)
	var res models.ValidationResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Valid)

	_, err = run(t, "license", "suspend", lic.LicenseKey)
	require.NoError(t, err)
	_, err = run(t, "license", "validate", lic.LicenseKey)
	assert.True(t, services.IsKind(err, services.KindSuspended))

	_, err = run(t, "license", "set-status", lic.LicenseKey, "active")
	require.NoError(t, err)
	_, err = run(t, "license", "set-status", lic.LicenseKey, "expired")
	assert.True(t, services.IsKind(err, services.KindInvalidStatus))

	out, err = run(t, "license", "activity", lic.LicenseKey)
	require.NoError(t, err)
	var entries []models.LicenseActivity
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 4)
	assert.Equal(t, cliActor, entries[0].Actor)

	out, err = run(t, "license", "list", "--user", "user-1")
	require.NoError(t, err)
	var licenses []models.License
	require.NoError(t, json.Unmarshal([]byte(out), &licenses))
	assert.Len(t, licenses, 1)

	out, err = run(t, "license", "stats")
	require.NoError(t, err)
	var counts models.LicenseStateCounts
	require.NoError(t, json.Unmarshal([]byte(out), &counts))
	assert.Equal(t, 1, counts.Active)
}

func TestLicenseGenerateRejectsUnknownTier(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "license", "generate", "--tier", "gold", "--domain", "a.example.com")
	assert.True(t, services.IsKind(err, services.KindInvalidTier))

	_, err = run(t, "license", "generate", "--domain", "a.example.com")
	assert.Error(t, err)
}

func TestTokenIssue(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "token", "issue", "--user", "admin-1", "--role", "admin")
	require.NoError(t, err)

	tm, err := utils.NewTokenManager(testSecret, "panellicense", time.Hour)
	require.NoError(t, err)
	claims, err := tm.ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.UserID)
	assert.True(t, claims.IsAdmin())

	_, err = run(t, "token", "issue", "--user", "admin-1", "--role", "root")
	assert.Error(t, err)
}

func TestMissingSecretFails(t *testing.T) {
	setupEnv(t)
	t.Setenv("PANELLICENSE_AUTH_JWT_SECRET", "")

	_, err := run(t, "migrate")
	assert.ErrorContains(t, err, "jwt_secret")
}
