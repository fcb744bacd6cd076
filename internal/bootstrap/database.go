package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/ims-tenancy/internal/domain/repository"
	"github.com/jhoicas/ims-tenancy/internal/domain/tenancy"
	"github.com/jhoicas/ims-tenancy/internal/infrastructure/memory"
	"github.com/jhoicas/ims-tenancy/internal/infrastructure/persistence"
	"github.com/jhoicas/ims-tenancy/internal/infrastructure/postgres"
	"github.com/jhoicas/ims-tenancy/pkg/config"
	"github.com/jhoicas/ims-tenancy/pkg/logger"
)

// Store almacén abierto según STORE_DRIVER. Pool es nil con el driver memory.
type Store struct {
	DB   repository.Database
	Pool *pgxpool.Pool
}

// Close libera el pool si existe.
func (s *Store) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}

// OpenStore conecta el almacén. Con postgres aplica las migraciones pendientes si migrate es true.
func OpenStore(ctx context.Context, cfg *config.Config, hasher repository.CredentialHasher, observer tenancy.CommitObserver, migrate bool, log *logger.Logger) (*Store, error) {
	model, err := persistence.NewModel()
	if err != nil {
		return nil, fmt.Errorf("modelo de persistencia: %w", err)
	}

	if cfg.App.StoreDriver == config.StoreDriverMemory {
		log.Warn().Msg("almacén en memoria: los datos se pierden al reiniciar")
		var opts []memory.Option
		if observer != nil {
			opts = append(opts, memory.WithCommitObserver(observer))
		}
		return &Store{DB: memory.NewDatabase(model, hasher, opts...)}, nil
	}

	if migrate {
		applied, err := postgres.Migrate(ctx, cfg.DB.ConnectionString())
		if err != nil {
			return nil, fmt.Errorf("migraciones: %w", err)
		}
		if len(applied) > 0 {
			log.Info().Ints("versions", applied).Msg("migraciones aplicadas")
		}
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	var opts []postgres.Option
	if observer != nil {
		opts = append(opts, postgres.WithCommitObserver(observer))
	}
	return &Store{DB: postgres.NewDatabase(pool, model, hasher, opts...), Pool: pool}, nil
}
