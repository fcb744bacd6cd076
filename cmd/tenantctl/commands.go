package main

import (
	"context"
	"fmt"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/jhoicas/ims-tenancy/internal/application/auth"
	"github.com/jhoicas/ims-tenancy/internal/application/dto"
	"github.com/jhoicas/ims-tenancy/internal/application/tenant"
	"github.com/jhoicas/ims-tenancy/internal/bootstrap"
	"github.com/jhoicas/ims-tenancy/internal/domain/tenancy"
	"github.com/jhoicas/ims-tenancy/internal/infrastructure/postgres"
	"github.com/jhoicas/ims-tenancy/internal/infrastructure/security"
	"github.com/jhoicas/ims-tenancy/pkg/config"
	"github.com/jhoicas/ims-tenancy/pkg/logger"
)

const (
	nameFlag     = "name"
	domainFlag   = "domain"
	emailFlag    = "email"
	phoneFlag    = "phone"
	cityFlag     = "city"
	addressFlag  = "address"
	passwordFlag = "password"
)

var provisionFlags = map[string]cobraflags.Flag{
	nameFlag:    &cobraflags.StringFlag{Name: nameFlag, Usage: "Nombre del tenant (requerido)"},
	domainFlag:  &cobraflags.StringFlag{Name: domainFlag, Usage: "Dominio único del tenant (requerido)"},
	emailFlag:   &cobraflags.StringFlag{Name: emailFlag, Usage: "Email del tenant y de su administrador; por defecto admin@<dominio>"},
	phoneFlag:   &cobraflags.StringFlag{Name: phoneFlag, Usage: "Teléfono"},
	cityFlag:    &cobraflags.StringFlag{Name: cityFlag, Usage: "Ciudad"},
	addressFlag: &cobraflags.StringFlag{Name: addressFlag, Usage: "Dirección"},
}

var superAdminFlags = map[string]cobraflags.Flag{
	emailFlag:    &cobraflags.StringFlag{Name: emailFlag, Usage: "Email del superusuario (requerido)"},
	passwordFlag: &cobraflags.StringFlag{Name: passwordFlag, Usage: "Contraseña; vacía genera una aleatoria"},
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones pendientes de PostgreSQL",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}
			applied, err := postgres.Migrate(cmd.Context(), cfg.DB.ConnectionString())
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				log.Info().Msg("sin migraciones pendientes")
				return nil
			}
			log.Info().Ints("versions", applied).Msg("migraciones aplicadas")
			return nil
		},
	}
}

func newProvisionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Crea un tenant con su usuario administrador",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}
			store, err := open(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer store.Close()

			svc := tenant.NewService(store.DB, tenant.WithLogger(log))
			out, err := svc.Provision(cmd.Context(), tenancy.Unscoped(), dto.CreateTenantRequest{
				Name:    provisionFlags[nameFlag].GetString(),
				Domain:  provisionFlags[domainFlag].GetString(),
				Email:   provisionFlags[emailFlag].GetString(),
				Phone:   provisionFlags[phoneFlag].GetString(),
				City:    provisionFlags[cityFlag].GetString(),
				Address: provisionFlags[addressFlag].GetString(),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tenant:     %s (%s)\nadmin:      %s\ncredencial: %s\n",
				out.Tenant.ID, out.Tenant.Domain, out.AdminEmail, out.InitialCredential)
			return nil
		},
	}
	cobraflags.RegisterMap(cmd, provisionFlags)
	return cmd
}

func newSuperAdminCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "superadmin",
		Short: "Crea el superusuario global",
		RunE: func(cmd *cobra.Command, _ []string) error {
			email := superAdminFlags[emailFlag].GetString()
			if email == "" {
				return fmt.Errorf("--%s es requerido", emailFlag)
			}
			credential := superAdminFlags[passwordFlag].GetString()
			generated := credential == ""
			if generated {
				var err error
				if credential, err = security.NewInitialCredential(); err != nil {
					return err
				}
			}

			cfg, log, err := load()
			if err != nil {
				return err
			}
			store, err := open(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer store.Close()

			uc := auth.NewAuthUseCase(store.DB, security.NewBcryptHasher(0), auth.JWTConfig{})
			id, err := uc.CreateSuperAdmin(cmd.Context(), email, credential)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "superusuario: %s (%s)\n", email, id)
			if generated {
				fmt.Fprintf(cmd.OutOrStdout(), "credencial:   %s\n", credential)
			}
			return nil
		},
	}
	cobraflags.RegisterMap(cmd, superAdminFlags)
	return cmd
}

func load() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}).Component("tenantctl")
	return cfg, log, nil
}

func open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*bootstrap.Store, error) {
	return bootstrap.OpenStore(ctx, cfg, security.NewBcryptHasher(0), nil, false, log)
}
