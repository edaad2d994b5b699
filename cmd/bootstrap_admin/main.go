// bootstrap_admin crea la primera cuenta administradora (identidad + perfil admin).
// Las rutas /api/admin exigen un admin existente, así que el primero se crea desde aquí
// con la credencial de servicio.
//
// Uso: go run ./cmd/bootstrap_admin -email admin@ejemplo.com -name "Nombre" [-password ...]
// Si -password se omite se lee de BOOTSTRAP_ADMIN_PASSWORD.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jhoicas/marketplace-accounts/internal/application/accounts"
	"github.com/jhoicas/marketplace-accounts/internal/application/dto"
	"github.com/jhoicas/marketplace-accounts/internal/domain/entity"
	"github.com/jhoicas/marketplace-accounts/internal/infrastructure/events"
	"github.com/jhoicas/marketplace-accounts/internal/infrastructure/identity"
	"github.com/jhoicas/marketplace-accounts/internal/infrastructure/postgres"
	"github.com/jhoicas/marketplace-accounts/pkg/config"
	"github.com/jhoicas/marketplace-accounts/pkg/logger"
)

const bootstrapActor = "bootstrap_admin"

type bootstrapArgs struct {
	email, name, password string
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run devuelve el error en vez de salir para que los defer (pool, contexto) se ejecuten.
func run(argv []string, out io.Writer) error {
	args, err := parseArgs(argv)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cargar configuración: %w", err)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	defer pool.Close()

	profiles := postgres.NewProfileRepository(pool)
	idClient := identity.NewClient(cfg.Identity.URL, cfg.Identity.ServiceKey, cfg.Identity.Timeout)
	p := accounts.NewProvisioner(idClient, profiles, nil, events.NewLogPublisher(log), nil, log)

	res, err := p.Provision(ctx, &entity.Subject{ID: bootstrapActor}, dto.CreateAccountRequest{
		FullName: args.name,
		Email:    args.email,
		Password: args.password,
		Role:     entity.RoleAdmin,
	}, "")
	if err != nil {
		return fmt.Errorf("crear administrador: %w", err)
	}
	fmt.Fprintf(out, "Administrador creado: profile_id=%s auth_user_id=%s\n", res.Profile.ID, res.Profile.AuthUserID)
	return nil
}

func parseArgs(argv []string) (bootstrapArgs, error) {
	var a bootstrapArgs
	fs := flag.NewFlagSet("bootstrap_admin", flag.ContinueOnError)
	fs.StringVar(&a.email, "email", "", "email del administrador")
	fs.StringVar(&a.name, "name", "", "nombre completo")
	fs.StringVar(&a.password, "password", os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"), "contraseña (mínimo 8 caracteres)")
	if err := fs.Parse(argv); err != nil {
		return a, err
	}
	if a.email == "" || a.name == "" {
		return a, errors.New("-email y -name son obligatorios")
	}
	return a, nil
}
