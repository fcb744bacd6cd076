package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/stokaro/ptah/dbschema"
	"github.com/stokaro/ptah/migration/migrator"
)

// Scripts NNNNNNNNNN_descripcion.{up,down}.sql; el registro de versiones vive en schema_migrations.
//
//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrations sistema de archivos con los scripts, sin el prefijo del directorio.
func Migrations() (fs.FS, error) {
	return fs.Sub(migrationsFS, "migrations")
}

// NewMigrationProvider carga y valida los scripts embebidos (cada versión con up y down).
func NewMigrationProvider() (*migrator.FSMigrationProvider, error) {
	fsys, err := Migrations()
	if err != nil {
		return nil, fmt.Errorf("leer migraciones: %w", err)
	}
	return migrator.NewFSMigrationProvider(fsys)
}

// Migrate aplica las migraciones pendientes sobre dsn. Devuelve las versiones aplicadas en esta corrida.
func Migrate(ctx context.Context, dsn string) ([]int, error) {
	provider, err := NewMigrationProvider()
	if err != nil {
		return nil, err
	}
	conn, err := dbschema.ConnectToDatabase(dsn)
	if err != nil {
		return nil, fmt.Errorf("conexión para migraciones: %w", err)
	}
	defer conn.Close()

	m := migrator.NewMigrator(conn, provider)
	pending, err := m.GetPendingMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("migraciones pendientes: %w", err)
	}
	if len(pending) == 0 {
		return nil, nil
	}
	if err := m.MigrateUp(ctx); err != nil {
		return nil, fmt.Errorf("aplicar migraciones: %w", err)
	}
	return pending, nil
}
