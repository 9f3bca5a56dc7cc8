package infra

import (
	"context"
	"testing"

	"lending-api/internal/config"
	"lending-api/internal/shared/cache"
	"lending-api/internal/shared/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStore_SQLiteMemory(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{DatabaseDriver: "sqlite", DatabaseURL: ":memory:"}

	store, err := OpenStore(ctx, cfg)
	require.NoError(t, err)
	defer store.Close()

	user, err := model.NewUser("infra@example.com", "secret", "Infra")
	require.NoError(t, err)
	require.NoError(t, store.CreateUser(ctx, user))
	assert.NotZero(t, user.ID)
}

func TestOpenStore_UnsupportedDriver(t *testing.T) {
	_, err := OpenStore(context.Background(), &config.Config{DatabaseDriver: "oracle"})
	assert.Error(t, err)
}

func TestNew_InMemoryDenylistWithoutRedis(t *testing.T) {
	i, err := New(context.Background(), &config.Config{DatabaseDriver: "sqlite", DatabaseURL: ":memory:"})
	require.NoError(t, err)
	defer i.Close()

	_, ok := i.Denylist.(*cache.MemoryDenylist)
	assert.True(t, ok)
}
