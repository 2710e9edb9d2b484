package admincli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/tact0/internal/common"
	"github.com/dmitrijs2005/tact0/internal/logging"
	"github.com/dmitrijs2005/tact0/internal/server/models"
	"github.com/dmitrijs2005/tact0/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

// memoryOpener hands out one shared in-memory store and records the dsn.
func memoryOpener(rm *repomanager.MemoryRepositoryManager, gotDSN *string) Opener {
	return func(ctx context.Context, dsn string) (repomanager.RepositoryManager, error) {
		*gotDSN = dsn
		return rm, nil
	}
}

func run(t *testing.T, open Opener, lookupEnv func(string) (string, bool), args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(open, lookupEnv, logging.Nop())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCreateAdmin_WithFlags(t *testing.T) {
	rm := repomanager.NewMemoryRepositoryManager()
	var dsn string
	env := func(k string) (string, bool) {
		if k == "DATABASE_URL" {
			return "postgres://env", true
		}
		return "", false
	}

	out, err := run(t, memoryOpener(rm, &dsn), env, "--email", "root@b.com", "--password", "secret1")
	require.NoError(t, err)
	assert.Contains(t, out, "admin created: root@b.com")
	assert.Equal(t, "postgres://env", dsn)

	u, err := rm.Users().GetByEmail(context.Background(), "root@b.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)

	out, err = run(t, memoryOpener(rm, &dsn), env, "-d", "postgres://flag", "--email", "root@b.com", "--password", "other12")
	require.NoError(t, err)
	assert.Contains(t, out, "admin promoted: root@b.com")
	assert.Equal(t, "postgres://flag", dsn)
}

func TestCreateAdmin_PromptsForPassword(t *testing.T) {
	orig := readPassword
	defer func() { readPassword = orig }()
	readPassword = func(fd int) ([]byte, error) { return []byte("prompted1"), nil }

	rm := repomanager.NewMemoryRepositoryManager()
	var dsn string
	out, err := run(t, memoryOpener(rm, &dsn), noEnv, "--email", "root@b.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Enter password: ")
	assert.Contains(t, out, "admin created")

	readPassword = func(fd int) ([]byte, error) { return nil, errors.New("not a terminal") }
	_, err = run(t, memoryOpener(rm, &dsn), noEnv, "--email", "x@b.com")
	assert.ErrorContains(t, err, "read password")
}

func TestCreateAdmin_Errors(t *testing.T) {
	rm := repomanager.NewMemoryRepositoryManager()
	var dsn string

	_, err := run(t, memoryOpener(rm, &dsn), noEnv)
	assert.ErrorContains(t, err, "--email is required")

	_, err = run(t, memoryOpener(rm, &dsn), noEnv, "--email", "root@b.com", "--password", "123")
	assert.ErrorIs(t, err, common.ErrValidation)

	failing := func(context.Context, string) (repomanager.RepositoryManager, error) {
		return nil, errors.New("db down")
	}
	_, err = run(t, failing, noEnv, "--email", "root@b.com", "--password", "secret1")
	assert.EqualError(t, err, "db down")
}

func TestSetRoleAndDeleteCommands(t *testing.T) {
	rm := repomanager.NewMemoryRepositoryManager()
	var dsn string
	open := memoryOpener(rm, &dsn)

	_, err := run(t, open, noEnv, "--email", "root@b.com", "--password", "secret1")
	require.NoError(t, err)

	out, err := run(t, open, noEnv, "set-role", "root@b.com", "USER")
	require.NoError(t, err)
	assert.Contains(t, out, "role of root@b.com set to USER")
	u, _ := rm.Users().GetByEmail(context.Background(), "root@b.com")
	assert.Equal(t, models.RoleUser, u.Role)

	_, err = run(t, open, noEnv, "set-role", "root@b.com", "OWNER")
	assert.ErrorContains(t, err, `unknown role "OWNER"`)

	_, err = run(t, open, noEnv, "set-role", "ghost@b.com", "ADMIN")
	assert.ErrorIs(t, err, common.ErrNotFound)

	out, err = run(t, open, noEnv, "delete", "root@b.com")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted root@b.com")
	_, err = rm.Users().GetByEmail(context.Background(), "root@b.com")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestOpenPostgres_RequiresDSN(t *testing.T) {
	_, err := OpenPostgres(logging.Nop())(context.Background(), "")
	assert.ErrorIs(t, err, common.ErrConfiguration)
}
