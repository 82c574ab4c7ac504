package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"contact-service/internal/dto"
	"contact-service/internal/service"
	"contact-service/pkg/config"
	"contact-service/pkg/database"
	"contact-service/pkg/jwtutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_SQLITE_PATH", filepath.Join(dir, "contacts.db"))
	t.Setenv("JWT_SIGNING_KEY", "cli-test-key")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestImportExportRoundTrip(t *testing.T) {
	dir := setupEnv(t)

	_, err := run(t, "migrate")
	require.NoError(t, err)

	input := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(input, []byte("phone_number,name,city\n9876543210,John,Delhi\n8765432109,Jane,Mumbai\n"), 0o600))

	out, err := run(t, "import", "--org", "1", "--file", input)
	require.NoError(t, err)

	var summary dto.ImportSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 2, summary.CreatedCount)
	assert.Zero(t, summary.FailedCount)

	out, err = run(t, "import", "--org", "1", "--file", input, "--update-existing=false")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 2, summary.SkippedCount)

	exported := filepath.Join(dir, "out.csv")
	_, err = run(t, "export", "--org", "1", "--out", exported)
	require.NoError(t, err)
	raw, err := os.ReadFile(exported)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "phone_number,name,city\n"))
	assert.Contains(t, string(raw), "+918765432109,Jane,Mumbai")

	_, err = run(t, "import", "--org", "0", "--file", input)
	assert.Error(t, err)
	_, err = run(t, "import", "--org", "1")
	assert.Error(t, err)
}

func TestTokenRequiresMembership(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "migrate")
	require.NoError(t, err)

	cfg, err := config.Load("contactctl-test")
	require.NoError(t, err)
	db, err := database.InitDB(&cfg.DB)
	require.NoError(t, err)

	svc := service.New(db, "91")
	ctx := context.Background()
	org, err := svc.Organizations.Create(ctx, dto.OrganizationRequest{Name: "Acme"})
	require.NoError(t, err)
	_, err = svc.Users.Create(ctx, dto.UserRequest{Name: "Ann", Email: "ann@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = run(t, "token", "--email", "ann@example.com", "--password", "s3cret-pass", "--org", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a member")

	out, err := run(t, "member", "add", "--org", "1", "--email", "ann@example.com", "--role", "admin")
	require.NoError(t, err)
	assert.Contains(t, out, "as admin")
	_, err = run(t, "member", "add", "--org", "1", "--email", "ann@example.com")
	assert.Error(t, err)

	out, err = run(t, "token", "--email", "ann@example.com", "--password", "s3cret-pass", "--org", "1")
	require.NoError(t, err)

	claims, err := jwtutil.NewJWTUtil(&cfg.JWT).ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	require.NotNil(t, claims.OrganizationID)
	assert.Equal(t, org.ID, *claims.OrganizationID)
	assert.Equal(t, "ann@example.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)

	_, err = run(t, "token", "--email", "ann@example.com", "--password", "wrong-pass", "--org", "1")
	assert.Error(t, err)
	_, err = run(t, "token", "--email", "ann@example.com", "--password", "s3cret-pass", "--org", "99")
	assert.Error(t, err)
}
