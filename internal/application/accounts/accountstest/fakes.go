// Package accountstest provee dobles en memoria de los puertos de cuentas para tests.
package accountstest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/marketplace-accounts/internal/application/ports"
	"github.com/jhoicas/marketplace-accounts/internal/domain/entity"
	"github.com/jhoicas/marketplace-accounts/internal/domain/repository"
)

var (
	_ ports.IdentityService        = (*FakeIdentity)(nil)
	_ repository.ProfileRepository = (*FakeProfiles)(nil)
	_ ports.AccountEventPublisher  = (*FakeEvents)(nil)
	_ ports.SagaMetrics            = (*FakeMetrics)(nil)
	_ ports.IdempotencyStore       = (*FakeIdempotency)(nil)
)

// ─── Identity Service ────────────────────────────────────────────────────────

// FakeIdentity Identity Service en memoria. Tokens mapea bearer token -> sujeto.
type FakeIdentity struct {
	mu         sync.Mutex
	Tokens     map[string]*entity.Subject
	Identities map[string]*entity.Identity

	CreateErr error
	DeleteErr error
	VerifyErr error

	CreateCalls int
	DeleteCalls int
	DeletedIDs  []string
}

func NewFakeIdentity() *FakeIdentity {
	return &FakeIdentity{
		Tokens:     map[string]*entity.Subject{},
		Identities: map[string]*entity.Identity{},
	}
}

// AddToken registra un token válido para el sujeto y crea su identidad.
func (f *FakeIdentity) AddToken(token, subjectID, email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Tokens[token] = &entity.Subject{ID: subjectID, Email: email}
	f.Identities[subjectID] = &entity.Identity{ID: subjectID, Email: email}
}

// Seed registra una identidad existente.
func (f *FakeIdentity) Seed(id, email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Identities[id] = &entity.Identity{ID: id, Email: email}
}

func (f *FakeIdentity) Verify(_ context.Context, token string) (*entity.Subject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.VerifyErr != nil {
		return nil, f.VerifyErr
	}
	s, ok := f.Tokens[token]
	if !ok {
		return nil, errors.New("invalid JWT")
	}
	return s, nil
}

func (f *FakeIdentity) Create(_ context.Context, in ports.CreateIdentityInput) (*entity.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreateCalls++
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	for _, id := range f.Identities {
		if id.Email == in.Email {
			return nil, errors.New("A user with this email address has already been registered")
		}
	}
	idt := &entity.Identity{
		ID:             uuid.NewString(),
		Email:          in.Email,
		EmailConfirmed: in.EmailConfirm,
		Metadata:       in.Metadata,
	}
	f.Identities[idt.ID] = idt
	return idt, nil
}

func (f *FakeIdentity) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DeleteCalls++
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	if _, ok := f.Identities[id]; !ok {
		return fmt.Errorf("User not found: %s", id)
	}
	delete(f.Identities, id)
	f.DeletedIDs = append(f.DeletedIDs, id)
	return nil
}

// Has indica si la identidad existe.
func (f *FakeIdentity) Has(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.Identities[id]
	return ok
}

// Count número de identidades.
func (f *FakeIdentity) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Identities)
}

// MutatingCalls suma de llamadas Create y Delete.
func (f *FakeIdentity) MutatingCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.CreateCalls + f.DeleteCalls
}

// ─── Profile Store ───────────────────────────────────────────────────────────

// FakeProfiles Profile Store en memoria, indexado por id de perfil.
type FakeProfiles struct {
	mu       sync.Mutex
	Profiles map[string]*entity.Profile

	ExistsErr error
	GetErr    error
	CreateErr error
	DeleteErr error
	PingErr   error

	CreateCalls int
	DeleteCalls int
}

func NewFakeProfiles() *FakeProfiles {
	return &FakeProfiles{Profiles: map[string]*entity.Profile{}}
}

// Seed inserta un perfil existente.
func (f *FakeProfiles) Seed(id, authUserID, role string) *entity.Profile {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &entity.Profile{
		ID:            id,
		AuthUserID:    authUserID,
		Role:          role,
		FullName:      "Perfil " + id,
		Email:         id + "@example.com",
		PublicProfile: entity.PublicProfileFor(role),
		TermsAccepted: true,
		ProfileData:   map[string]any{},
		CreatedAt:     time.Now(),
	}
	f.Profiles[id] = p
	return p
}

func (f *FakeProfiles) ExistsByAuthUserAndRole(_ context.Context, authUserID, role string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ExistsErr != nil {
		return false, f.ExistsErr
	}
	for _, p := range f.Profiles {
		if p.AuthUserID == authUserID && p.Role == role {
			return true, nil
		}
	}
	return false, nil
}

func (f *FakeProfiles) GetByID(_ context.Context, id string) (*entity.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	p, ok := f.Profiles[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *FakeProfiles) GetByAuthUserID(_ context.Context, authUserID string) (*entity.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	for _, p := range f.Profiles {
		if p.AuthUserID == authUserID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *FakeProfiles) Create(_ context.Context, p *entity.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreateCalls++
	if f.CreateErr != nil {
		return f.CreateErr
	}
	for _, existing := range f.Profiles {
		if existing.AuthUserID == p.AuthUserID {
			return errors.New("duplicate key value violates unique constraint \"profiles_auth_user_id_key\"")
		}
	}
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now()
	cp := *p
	f.Profiles[p.ID] = &cp
	return nil
}

func (f *FakeProfiles) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DeleteCalls++
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	delete(f.Profiles, id)
	return nil
}

func (f *FakeProfiles) Ping(context.Context) error {
	return f.PingErr
}

// Has indica si el perfil existe.
func (f *FakeProfiles) Has(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.Profiles[id]
	return ok
}

// ByAuthUser devuelve el perfil que referencia la identidad, o nil.
func (f *FakeProfiles) ByAuthUser(authUserID string) *entity.Profile {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.Profiles {
		if p.AuthUserID == authUserID {
			cp := *p
			return &cp
		}
	}
	return nil
}

// Count número de perfiles.
func (f *FakeProfiles) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Profiles)
}

// MutatingCalls suma de llamadas Create y Delete.
func (f *FakeProfiles) MutatingCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.CreateCalls + f.DeleteCalls
}

// ─── Eventos y métricas ──────────────────────────────────────────────────────

// FakeEvents guarda los eventos publicados.
type FakeEvents struct {
	mu     sync.Mutex
	Events []ports.AccountEvent
	Err    error
}

func (f *FakeEvents) Publish(_ context.Context, ev ports.AccountEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Events = append(f.Events, ev)
	return f.Err
}

// Types tipos de evento en orden de publicación.
func (f *FakeEvents) Types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.Events))
	for i, ev := range f.Events {
		out[i] = ev.Type
	}
	return out
}

// FakeMetrics cuenta llamadas por "saga/step/outcome".
type FakeMetrics struct {
	mu              sync.Mutex
	Steps           map[string]int
	Compensations   map[string]int
	PartialFailures map[string]int
}

func NewFakeMetrics() *FakeMetrics {
	return &FakeMetrics{
		Steps:           map[string]int{},
		Compensations:   map[string]int{},
		PartialFailures: map[string]int{},
	}
}

func (f *FakeMetrics) StepCompleted(saga, step, outcome string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Steps[saga+"/"+step+"/"+outcome]++
}

func (f *FakeMetrics) CompensationRan(saga, step, outcome string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Compensations[saga+"/"+step+"/"+outcome]++
}

func (f *FakeMetrics) PartialFailure(saga string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PartialFailures[saga]++
}

// ─── Idempotencia ────────────────────────────────────────────────────────────

// FakeIdempotency almacén de idempotencia en memoria.
type FakeIdempotency struct {
	mu         sync.Mutex
	Records    map[string]*ports.IdempotencyRecord
	ReserveErr  error
	CompleteErr error
	Released    []string
}

func NewFakeIdempotency() *FakeIdempotency {
	return &FakeIdempotency{Records: map[string]*ports.IdempotencyRecord{}}
}

func (f *FakeIdempotency) Reserve(_ context.Context, key, fingerprint string) (*ports.IdempotencyRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ReserveErr != nil {
		return nil, f.ReserveErr
	}
	if rec, ok := f.Records[key]; ok {
		cp := *rec
		return &cp, nil
	}
	f.Records[key] = &ports.IdempotencyRecord{Fingerprint: fingerprint, Status: ports.IdempotencyPending}
	return nil, nil
}

func (f *FakeIdempotency) Complete(_ context.Context, key string, result []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CompleteErr != nil {
		return f.CompleteErr
	}
	rec, ok := f.Records[key]
	if !ok {
		return fmt.Errorf("clave %s no reservada", key)
	}
	rec.Status = ports.IdempotencyCompleted
	rec.Result = result
	return nil
}

func (f *FakeIdempotency) Release(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.Records, key)
	f.Released = append(f.Released, key)
	return nil
}
