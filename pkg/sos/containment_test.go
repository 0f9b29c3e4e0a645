package sos

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liyu1981.xyz/sos-response-service/pkg/common"
	"liyu1981.xyz/sos-response-service/pkg/models"
	_ "liyu1981.xyz/sos-response-service/pkg/testing"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisContainmentStore) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisContainmentStore(client, time.Hour)
}

func TestRedisContainmentStore(t *testing.T) {
	mr, store := setupTestRedis(t)
	ctx := context.Background()

	userID, geofenceID := uuid.NewString(), uuid.NewString()

	c, found, err := store.Get(ctx, userID, geofenceID)
	require.NoError(t, err)
	assert.False(t, found)
	assert.False(t, c.Inside)
	assert.Equal(t, geofenceID, c.GeofenceID)

	entered := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Put(ctx, models.GeofenceContainment{
		UserID:     userID,
		GeofenceID: geofenceID,
		Inside:     true,
		EnteredAt:  &entered,
		UpdatedAt:  entered,
	}))
	assert.True(t, mr.Exists(containmentKey(userID, geofenceID)))

	c, found, err = store.Get(ctx, userID, geofenceID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, c.Inside)
	require.NotNil(t, c.EnteredAt)
	assert.True(t, c.EnteredAt.Equal(entered))

	mr.FastForward(2 * time.Hour)
	_, found, err = store.Get(ctx, userID, geofenceID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisContainmentStore_Corrupt(t *testing.T) {
	mr, store := setupTestRedis(t)

	userID, geofenceID := uuid.NewString(), uuid.NewString()
	require.NoError(t, mr.Set(containmentKey(userID, geofenceID), "not json"))

	_, _, err := store.Get(context.Background(), userID, geofenceID)
	assert.Error(t, err)
}

func TestEvaluate_WithRedisContainment(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, s, _, clock, _ := GetMockSOSWithMemorySqliteDialector(t, useMocks{})
	defer ctrl.Finish()
	ctx := context.Background()

	_, store := setupTestRedis(t)
	s.WithContainmentStore(store)

	userID := uuid.NewString()
	center := uniqueSpot()
	require.NoError(t, s.Geofence.Create(ctx, newGeofence(userID, center, models.GeofenceTypeDanger)))

	triggers, err := s.Geofence.Evaluate(ctx, userID, center)
	require.NoError(t, err)
	require.Len(t, triggers, 1)
	assert.Equal(t, models.DirectionEntry, triggers[0].Direction)

	clock.Advance(90 * time.Second)
	triggers, err = s.Geofence.Evaluate(ctx, userID, offsetNorth(center, 5000))
	require.NoError(t, err)
	require.Len(t, triggers, 1)
	assert.Equal(t, models.DirectionExit, triggers[0].Direction)
	assert.EqualValues(t, 90, triggers[0].DwellSeconds)
}

func TestGormContainmentStore_Upsert(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, s, _, _, _ := GetMockSOSWithMemorySqliteDialector(t, useMocks{})
	defer ctrl.Finish()
	ctx := context.Background()

	store := NewGormContainmentStore(s.Db)
	userID, geofenceID := uuid.NewString(), uuid.NewString()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, store.Put(ctx, models.GeofenceContainment{UserID: userID, GeofenceID: geofenceID, Inside: true, EnteredAt: &now, UpdatedAt: now}))
	require.NoError(t, store.Put(ctx, models.GeofenceContainment{UserID: userID, GeofenceID: geofenceID, Inside: false, UpdatedAt: now}))

	c, found, err := store.Get(ctx, userID, geofenceID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.False(t, c.Inside)
	assert.Nil(t, c.EnteredAt)

	var count int64
	require.NoError(t, s.Db.Conn.Model(&models.GeofenceContainment{}).
		Where("user_id = ? AND geofence_id = ?", userID, geofenceID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
