// Package cache directorio de tenants activos con caché en Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/jhoicas/ims-tenancy/internal/domain/repository"
	"github.com/jhoicas/ims-tenancy/internal/domain/tenancy"
	"github.com/jhoicas/ims-tenancy/pkg/config"
	"github.com/jhoicas/ims-tenancy/pkg/logger"
)

// NewRedisClient crea el cliente Redis.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Ping prueba la conexión.
func Ping(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}

// Directory directorio de tenants activos con invalidación tras dar de baja.
type Directory interface {
	IsActive(ctx context.Context, tenantID string) (bool, error)
	Invalidate(ctx context.Context, tenantID string) error
}

// StoreDirectory consulta el almacén sin caché.
type StoreDirectory struct {
	db repository.Database
}

// NewStoreDirectory construye el directorio sobre la base de datos.
func NewStoreDirectory(db repository.Database) *StoreDirectory {
	return &StoreDirectory{db: db}
}

// IsActive el tenant existe y no está borrado.
func (d *StoreDirectory) IsActive(ctx context.Context, tenantID string) (bool, error) {
	t, err := d.db.Session(tenancy.Unscoped()).Tenants().GetByID(ctx, tenantID)
	if err != nil {
		return false, err
	}
	return t != nil, nil
}

// Invalidate no hace nada: no hay caché.
func (d *StoreDirectory) Invalidate(context.Context, string) error { return nil }

// RedisDirectory cachea el resultado de next por TTL. Un fallo de Redis no bloquea:
// se consulta next directamente.
type RedisDirectory struct {
	rdb    *redis.Client
	next   tenancy.TenantDirectory
	ttl    time.Duration
	prefix string
	log    *logger.Logger
}

// NewRedisDirectory decora next con caché en Redis.
func NewRedisDirectory(rdb *redis.Client, next tenancy.TenantDirectory, ttl time.Duration, log *logger.Logger) *RedisDirectory {
	if log == nil {
		log = logger.Nop()
	}
	return &RedisDirectory{rdb: rdb, next: next, ttl: ttl, prefix: "ims:tenant:", log: log}
}

func (d *RedisDirectory) key(tenantID string) string {
	return d.prefix + tenantID + ":active"
}

// IsActive consulta la caché y, si no hay entrada, el directorio subyacente.
func (d *RedisDirectory) IsActive(ctx context.Context, tenantID string) (bool, error) {
	val, err := d.rdb.Get(ctx, d.key(tenantID)).Result()
	switch {
	case err == nil:
		return val == "1", nil
	case !errors.Is(err, redis.Nil):
		d.log.Warn().Err(err).Str("tenant", tenantID).Msg("caché de tenants no disponible")
		return d.next.IsActive(ctx, tenantID)
	}

	active, err := d.next.IsActive(ctx, tenantID)
	if err != nil {
		return false, err
	}
	v := "0"
	if active {
		v = "1"
	}
	if err := d.rdb.Set(ctx, d.key(tenantID), v, d.ttl).Err(); err != nil {
		d.log.Warn().Err(err).Str("tenant", tenantID).Msg("no se pudo cachear el tenant")
	}
	return active, nil
}

// Invalidate borra la entrada para que el próximo acceso consulte el almacén.
func (d *RedisDirectory) Invalidate(ctx context.Context, tenantID string) error {
	if err := d.rdb.Del(ctx, d.key(tenantID)).Err(); err != nil {
		return fmt.Errorf("invalidar tenant %s: %w", tenantID, err)
	}
	return nil
}
