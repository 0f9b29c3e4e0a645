package sos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"liyu1981.xyz/sos-response-service/pkg/db"
	"liyu1981.xyz/sos-response-service/pkg/models"
)

// ContainmentStore remembers, per (user, geofence), whether the user was inside at the last
// evaluation. A missing record reads as outside.
type ContainmentStore interface {
	Get(ctx context.Context, userID, geofenceID string) (models.GeofenceContainment, bool, error)
	Put(ctx context.Context, c models.GeofenceContainment) error
}

type GormContainmentStore struct {
	db db.DB
}

func NewGormContainmentStore(dbInstance db.DB) *GormContainmentStore {
	return &GormContainmentStore{db: dbInstance}
}

func (g *GormContainmentStore) Get(ctx context.Context, userID, geofenceID string) (models.GeofenceContainment, bool, error) {
	var c models.GeofenceContainment
	err := g.db.Conn.WithContext(ctx).
		Where("user_id = ? AND geofence_id = ?", userID, geofenceID).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.GeofenceContainment{UserID: userID, GeofenceID: geofenceID}, false, nil
	}
	if err != nil {
		return models.GeofenceContainment{}, false, err
	}
	return c, true, nil
}

func (g *GormContainmentStore) Put(ctx context.Context, c models.GeofenceContainment) error {
	return g.db.Conn.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "geofence_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"inside", "entered_at", "updated_at"}),
	}).Create(&c).Error
}

const redisContainmentPrefix = "sos:containment:"

// RedisContainmentStore keeps containment state in redis as JSON, so several service instances
// see the same transitions.
type RedisContainmentStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisContainmentStore stores entries with ttl; zero keeps them forever.
func NewRedisContainmentStore(client *redis.Client, ttl time.Duration) *RedisContainmentStore {
	return &RedisContainmentStore{client: client, ttl: ttl}
}

func containmentKey(userID, geofenceID string) string {
	return fmt.Sprintf("%s%s:%s", redisContainmentPrefix, userID, geofenceID)
}

func (r *RedisContainmentStore) Get(ctx context.Context, userID, geofenceID string) (models.GeofenceContainment, bool, error) {
	data, err := r.client.Get(ctx, containmentKey(userID, geofenceID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.GeofenceContainment{UserID: userID, GeofenceID: geofenceID}, false, nil
	}
	if err != nil {
		return models.GeofenceContainment{}, false, err
	}
	var c models.GeofenceContainment
	if err := json.Unmarshal(data, &c); err != nil {
		return models.GeofenceContainment{}, false, fmt.Errorf("decode containment: %w", err)
	}
	return c, true, nil
}

func (r *RedisContainmentStore) Put(ctx context.Context, c models.GeofenceContainment) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, containmentKey(c.UserID, c.GeofenceID), data, r.ttl).Err()
}
