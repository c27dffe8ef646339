package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ayudasocial/internal/logger"
	"ayudasocial/internal/metrics"
	"ayudasocial/internal/model"
	"ayudasocial/internal/policy"
	"ayudasocial/internal/repository"
	"ayudasocial/internal/workflow"
	"ayudasocial/pkg/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	dateLayout   = "2006-01-02"
	defaultLimit = 20
	campoVacio   = "Este campo es requerido"
)

// Clock returns the current time; replaced in tests
type Clock func() time.Time

// ErrInvalidCredentials is returned by Login for an unknown user or a wrong password
var ErrInvalidCredentials = errors.New("invalid username or password")

func normalizePage(page, limit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	return page, limit
}

// loadErr maps a missing row to NotFound and wraps anything else
func loadErr(err error, entity string, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(entity, id)
	}
	return fmt.Errorf("failed to load %s %s: %w", entity, id, err)
}

// referenceErr is loadErr for ids that come from a request body, where a dangling id is bad input
func referenceErr(err error, field, entity string, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return noExiste(field, entity, id)
	}
	return fmt.Errorf("failed to load %s %s: %w", entity, id, err)
}

func noExiste(field, entity string, id uuid.UUID) error {
	return apperror.Validation(field, "%s %s no existe", entity, id)
}

// relaciones resolves how an actor relates to a request, including through its children
type relaciones struct {
	inspecciones repository.InspeccionRepository
	entregas     repository.EntregaRepository
}

func (r relaciones) de(ctx context.Context, actor policy.Actor, sol *model.Solicitud) (policy.Relationship, error) {
	rel := policy.RelationshipTo(actor, sol)

	var err error
	switch actor.Rol {
	case model.RolTrabajoSocial:
		rel.Inspector, err = r.inspecciones.ExistsByInspector(ctx, sol.ID, actor.ID)
	case model.RolAlmacen:
		rel.Encargado, err = r.entregas.ExistsByEncargado(ctx, sol.ID, actor.ID)
	}
	if err != nil {
		return rel, fmt.Errorf("failed to resolve relationship: %w", err)
	}
	return rel, nil
}

// visible reports whether Get would show sol to the actor
func (r relaciones) visible(ctx context.Context, actor policy.Actor, sol *model.Solicitud) (bool, policy.Relationship, error) {
	rel, err := r.de(ctx, actor, sol)
	if err != nil {
		return false, rel, err
	}
	return policy.CanPerform(actor, policy.VerSolicitud, sol.Estado, rel), rel, nil
}

func authorize(actor policy.Actor, op policy.Operation, estado model.EstadoSolicitud, rel policy.Relationship) error {
	if !policy.CanPerform(actor, op, estado, rel) {
		return apperror.Forbidden("No tiene permiso para realizar esta acción")
	}
	return nil
}

func parseFecha(field string, value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, strings.TrimSpace(*value))
	if err != nil {
		return nil, apperror.Validation(field, "Fecha no válida, use el formato AAAA-MM-DD")
	}
	return &t, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// transitar applies cmd to a request already locked by the caller and persists it.
// It is the only place services hand a request to the state machine.
func transitar(ctx context.Context, repo repository.SolicitudRepository, sol *model.Solicitud, cmd workflow.Command, now time.Time) (workflow.Result, error) {
	res, err := workflow.Apply(sol, cmd, now)
	if err != nil {
		return res, err
	}
	if err := repo.Update(ctx, sol); err != nil {
		return res, fmt.Errorf("failed to update solicitud: %w", err)
	}
	return res, nil
}

// registrarTransicion logs and counts a committed transition
func registrarTransicion(ctx context.Context, solicitudID uuid.UUID, actor policy.Actor, cmd workflow.Command, res workflow.Result) {
	if !res.Cambio {
		return
	}
	metrics.RecordTransicion(string(res.Desde), string(res.Hacia))
	logger.FromContext(ctx).Info("Solicitud transition committed",
		zap.String("solicitud_id", solicitudID.String()),
		zap.String("command", string(cmd.Kind)),
		zap.String("desde", string(res.Desde)),
		zap.String("hacia", string(res.Hacia)),
		zap.String("actor_id", actor.ID.String()),
		zap.String("actor_rol", string(actor.Rol)),
	)
}
