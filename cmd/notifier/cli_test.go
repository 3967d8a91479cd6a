package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/go-band-notify/internal/application/delivery"
	"github.com/go-band-notify/internal/config"
	"github.com/go-band-notify/internal/domain"
	"github.com/go-band-notify/internal/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Load()
	cfg.StoreBackend = config.BackendSQLite
	cfg.SQLitePath = filepath.Join(t.TempDir(), "notify.db")
	cfg.Push.Provider = config.ProviderLog
	return cfg
}

func TestCycle_EmptyQueuePrintsZeroReport(t *testing.T) {
	c := &cli{cfg: testConfig(t), log: logging.Discard()}
	var out bytes.Buffer

	require.NoError(t, c.cycle(context.Background(), &out))

	var report delivery.Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, delivery.Report{Status: "ok"}, report)
}

func TestCycle_UnreachableBackendStillExitsCleanly(t *testing.T) {
	cfg := testConfig(t)
	cfg.SQLitePath = "/dev/null/notify.db"
	c := &cli{cfg: cfg, log: logging.Discard()}
	var out bytes.Buffer

	require.NoError(t, c.cycle(context.Background(), &out))
	assert.Contains(t, out.String(), `"processed": 0`)
}

func TestMembers_PutThenList(t *testing.T) {
	cfg := testConfig(t)

	put := rootCommand(cfg)
	put.SetArgs([]string{"members", "put", "band-1", "ana"})
	require.NoError(t, put.ExecuteContext(context.Background()))

	inactive := rootCommand(cfg)
	inactive.SetArgs([]string{"members", "put", "band-1", "ben", "--inactive"})
	require.NoError(t, inactive.ExecuteContext(context.Background()))

	var out bytes.Buffer
	list := rootCommand(cfg)
	list.SetOut(&out)
	list.SetArgs([]string{"members", "list", "band-1"})
	require.NoError(t, list.ExecuteContext(context.Background()))

	var members []domain.BandMember
	require.NoError(t, json.Unmarshal(out.Bytes(), &members))
	require.Len(t, members, 2)
	assert.Equal(t, "ana", members[0].UserID)
	assert.True(t, members[0].Active)
	assert.False(t, members[1].Active)
}
