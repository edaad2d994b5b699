package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/marketplace-accounts/internal/domain"
	"github.com/jhoicas/marketplace-accounts/internal/domain/entity"
	"github.com/jhoicas/marketplace-accounts/internal/domain/repository"
)

var _ repository.ProfileRepository = (*ProfileRepo)(nil)

// Esquema esperado:
//
//	CREATE TABLE profiles (
//	  id             uuid PRIMARY KEY DEFAULT gen_random_uuid(),
//	  auth_user_id   uuid NOT NULL UNIQUE,
//	  role           text NOT NULL CHECK (role IN ('buyer','seller','collector','admin')),
//	  full_name      text NOT NULL,
//	  email          text NOT NULL,
//	  phone_number   text,
//	  city           text,
//	  is_verified    boolean NOT NULL DEFAULT false,
//	  public_profile boolean NOT NULL DEFAULT true,
//	  terms_accepted boolean NOT NULL DEFAULT false,
//	  profile_data   jsonb NOT NULL DEFAULT '{}'::jsonb,
//	  created_at     timestamptz NOT NULL DEFAULT now()
//	);

const profileColumns = `id, auth_user_id, role, full_name, email, phone_number, city,
	is_verified, public_profile, terms_accepted, profile_data, created_at`

// ProfileRepo implementación del puerto ProfileRepository sobre PostgreSQL.
type ProfileRepo struct {
	db Querier
}

// NewProfileRepository construye el adaptador. db puede ser el pool o una transacción.
func NewProfileRepository(db Querier) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// ExistsByAuthUserAndRole comprueba existencia de fila, sin traer el perfil.
func (r *ProfileRepo) ExistsByAuthUserAndRole(ctx context.Context, authUserID, role string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM profiles WHERE auth_user_id = $1 AND role = $2 LIMIT 1)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, authUserID, role).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists profile by auth user and role: %w", err)
	}
	return exists, nil
}

// GetByID obtiene un perfil por id. Devuelve nil, nil si no existe.
func (r *ProfileRepo) GetByID(ctx context.Context, id string) (*entity.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	p, err := scanProfile(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get profile by id: %w", err)
	}
	return p, nil
}

// GetByAuthUserID obtiene el perfil enlazado a una identidad. Devuelve nil, nil si no existe.
func (r *ProfileRepo) GetByAuthUserID(ctx context.Context, authUserID string) (*entity.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE auth_user_id = $1`
	p, err := scanProfile(r.db.QueryRow(ctx, query, authUserID))
	if err != nil {
		return nil, fmt.Errorf("get profile by auth user: %w", err)
	}
	return p, nil
}

func scanProfile(row pgx.Row) (*entity.Profile, error) {
	var p entity.Profile
	err := row.Scan(
		&p.ID, &p.AuthUserID, &p.Role, &p.FullName, &p.Email, &p.PhoneNumber, &p.City,
		&p.IsVerified, &p.PublicProfile, &p.TermsAccepted, &p.ProfileData, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if p.ProfileData == nil {
		p.ProfileData = map[string]any{}
	}
	return &p, nil
}

// Create inserta el perfil y completa ID y CreatedAt con los valores asignados por la DB.
func (r *ProfileRepo) Create(ctx context.Context, p *entity.Profile) error {
	data := p.ProfileData
	if data == nil {
		data = map[string]any{}
	}
	query := `
		INSERT INTO profiles (auth_user_id, role, full_name, email, phone_number, city,
			is_verified, public_profile, terms_accepted, profile_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query,
		p.AuthUserID, p.Role, p.FullName, p.Email, p.PhoneNumber, p.City,
		p.IsVerified, p.PublicProfile, p.TermsAccepted, data,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return fmt.Errorf("ya existe un perfil para auth_user_id %s: %w", p.AuthUserID, err)
		case isCheckViolation(err):
			return fmt.Errorf("perfil rechazado por constraint: %w", err)
		case isInsufficientPrivilege(err):
			return fmt.Errorf("insert profile sin privilegios (¿credencial de servicio?): %w", err)
		}
		return fmt.Errorf("insert profile: %w", err)
	}
	p.ProfileData = data
	return nil
}

// Delete borra el perfil por id. Nunca borra filas admin: si la fila no existe o es admin
// devuelve domain.ErrNotFound.
func (r *ProfileRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM profiles WHERE id = $1 AND role <> $2`, id, entity.RoleAdmin)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete profile %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Ping comprueba la conectividad con una consulta trivial.
func (r *ProfileRepo) Ping(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `SELECT 1`); err != nil {
		return fmt.Errorf("ping profile store: %w", err)
	}
	return nil
}
