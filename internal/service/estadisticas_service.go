package service

import (
	"context"
	"time"

	"ayudasocial/internal/model"
	"ayudasocial/internal/policy"
	"ayudasocial/internal/repository"
	"ayudasocial/pkg/apperror"
)

const topProductosLimit = 5

type EstadisticasService interface {
	Resumen(ctx context.Context, actor policy.Actor, desde, hasta time.Time) (*model.Estadisticas, error)
}

type estadisticasService struct {
	repo repository.EstadisticasRepository
}

func NewEstadisticasService(repo repository.EstadisticasRepository) EstadisticasService {
	return &estadisticasService{repo: repo}
}

// Resumen aggregates the requests the actor can see, created within [desde, hasta], and the
// products delivered in that window
func (s *estadisticasService) Resumen(ctx context.Context, actor policy.Actor, desde, hasta time.Time) (*model.Estadisticas, error) {
	if err := authorize(actor, policy.VerEstadisticas, "", policy.Relationship{}); err != nil {
		return nil, err
	}
	if hasta.Before(desde) {
		return nil, apperror.Validation("hasta", "La fecha final debe ser posterior a la inicial")
	}

	res := &model.Estadisticas{
		PorEstado: make(map[model.EstadoSolicitud]int64, len(model.Estados)),
		Desde:     desde,
		Hasta:     hasta,
	}
	for _, e := range model.Estados {
		res.PorEstado[e] = 0
	}

	counts, err := s.repo.ContarPorEstado(ctx, policy.ScopeFor(actor, policy.VerSolicitud), desde, hasta)
	if err != nil {
		return nil, err
	}
	for _, c := range counts {
		res.PorEstado[c.Estado] = c.Total
		res.TotalSolicitudes += c.Total
		switch c.Estado {
		case model.EstadoPendiente:
			res.Pendientes += c.Total
		case model.EstadoEntregado:
			res.Entregadas += c.Total
		case model.EstadoRechazadoRepresentante, model.EstadoRechazadoSocial, model.EstadoRechazado:
			res.Rechazadas += c.Total
		default:
			res.EnProceso += c.Total
		}
	}

	if res.InspeccionesPendientes, err = s.repo.ContarInspeccionesPendientes(ctx, policy.ScopeFor(actor, policy.VerInspeccion)); err != nil {
		return nil, err
	}
	if res.EntregasAbiertas, err = s.repo.ContarEntregasAbiertas(ctx, policy.ScopeFor(actor, policy.VerEntrega)); err != nil {
		return nil, err
	}
	if res.TopProductosEntregados, err = s.repo.TopProductosEntregados(ctx, desde, hasta, topProductosLimit); err != nil {
		return nil, err
	}
	return res, nil
}
