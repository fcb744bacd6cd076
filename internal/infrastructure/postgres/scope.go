package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/ims-tenancy/internal/domain/tenancy"
)

// setTenantSQL fija las variables que leen las políticas RLS; valen solo hasta el fin de la transacción.
const setTenantSQL = `SELECT set_config('app.current_tenant', $1, true), set_config('app.bypass_tenant', $2, true)`

func applyTenantSettings(ctx context.Context, tx pgx.Tx, tc tenancy.Context) error {
	bypass := "off"
	if tc.IsUnscoped() {
		bypass = "on"
	}
	if _, err := tx.Exec(ctx, setTenantSQL, tc.TenantID(), bypass); err != nil {
		return fmt.Errorf("fijar tenant de sesión: %w", err)
	}
	return nil
}

// withScope ejecuta fn en una (sub)transacción con las variables de tenant fijadas.
func withScope(ctx context.Context, q Querier, tc tenancy.Context, fn func(tx pgx.Tx) error) error {
	tx, err := q.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := applyTenantSettings(ctx, tx, tc); err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
