// Package workflow holds the solicitud lifecycle state machine. It is the only code that
// assigns Solicitud.Estado; inspection and delivery services express their effect on the
// parent request as a Command and hand it to Apply.
package workflow

import (
	"fmt"
	"time"

	"ayudasocial/internal/model"
	"ayudasocial/pkg/apperror"

	"github.com/google/uuid"
)

// Edges is the fixed transition graph. A state with no outgoing edge is terminal.
// en_inspeccion -> en_inspeccion is the idempotent edge used when another inspection is opened.
var Edges = map[model.EstadoSolicitud][]model.EstadoSolicitud{
	model.EstadoPendiente: {
		model.EstadoAprobadoRepresentante,
		model.EstadoRechazadoRepresentante,
		model.EstadoRechazado,
	},
	model.EstadoAprobadoRepresentante: {
		model.EstadoAprobadoSocial,
		model.EstadoRechazadoSocial,
		model.EstadoEnInspeccion,
		model.EstadoRechazado,
	},
	model.EstadoEnInspeccion: {
		model.EstadoEnInspeccion,
		model.EstadoAprobadoSocial,
		model.EstadoRechazadoSocial,
		model.EstadoRechazado,
	},
	model.EstadoAprobadoSocial: {
		model.EstadoEnEntrega,
		model.EstadoRechazado,
	},
	model.EstadoEnEntrega: {
		model.EstadoEntregado,
		model.EstadoRechazado,
	},
}

// CanTransition reports whether from -> to is an edge of the graph
func CanTransition(from, to model.EstadoSolicitud) bool {
	return contains(Edges[from], to)
}

// IsTerminal reports whether no transition leaves the state
func IsTerminal(e model.EstadoSolicitud) bool {
	return e.Valid() && len(Edges[e]) == 0
}

// Kind identifies the operation a Command originates from
type Kind string

const (
	DecisionRepresentante Kind = "decision_representante"
	DecisionSocial        Kind = "decision_social"
	AbrirInspeccion       Kind = "abrir_inspeccion"
	ResultadoInspeccion   Kind = "resultado_inspeccion"
	IniciarEntrega        Kind = "iniciar_entrega"
	CompletarEntrega      Kind = "completar_entrega"
	Rechazar              Kind = "rechazar"
)

type rule struct {
	desde    []model.EstadoSolicitud // nil means any non-terminal state
	hacia    []model.EstadoSolicitud
	conflict string
}

var rules = map[Kind]rule{
	DecisionRepresentante: {
		desde:    []model.EstadoSolicitud{model.EstadoPendiente},
		hacia:    []model.EstadoSolicitud{model.EstadoAprobadoRepresentante, model.EstadoRechazadoRepresentante},
		conflict: "Solo se pueden aprobar solicitudes en estado pendiente",
	},
	DecisionSocial: {
		desde:    []model.EstadoSolicitud{model.EstadoAprobadoRepresentante, model.EstadoEnInspeccion},
		hacia:    []model.EstadoSolicitud{model.EstadoAprobadoSocial, model.EstadoRechazadoSocial, model.EstadoEnInspeccion},
		conflict: "Solo se pueden procesar solicitudes aprobadas por representante o en inspección",
	},
	AbrirInspeccion: {
		desde:    []model.EstadoSolicitud{model.EstadoAprobadoRepresentante, model.EstadoEnInspeccion},
		hacia:    []model.EstadoSolicitud{model.EstadoEnInspeccion},
		conflict: "Solo se pueden crear inspecciones para solicitudes aprobadas por el representante o en inspección",
	},
	ResultadoInspeccion: {
		desde:    []model.EstadoSolicitud{model.EstadoEnInspeccion},
		hacia:    []model.EstadoSolicitud{model.EstadoAprobadoSocial, model.EstadoRechazadoSocial},
		conflict: "Solo se puede registrar el resultado de una inspección con la solicitud en inspección",
	},
	IniciarEntrega: {
		desde:    []model.EstadoSolicitud{model.EstadoAprobadoSocial},
		hacia:    []model.EstadoSolicitud{model.EstadoEnEntrega},
		conflict: "Solo se pueden programar entregas para solicitudes aprobadas por trabajo social",
	},
	CompletarEntrega: {
		desde:    []model.EstadoSolicitud{model.EstadoEnEntrega},
		hacia:    []model.EstadoSolicitud{model.EstadoEntregado},
		conflict: "Solo se pueden marcar como entregadas las solicitudes en proceso de entrega",
	},
	Rechazar: {
		hacia:    []model.EstadoSolicitud{model.EstadoRechazado},
		conflict: "La solicitud ya se encuentra en un estado final",
	},
}

// Command is a request to move a Solicitud to Destino
type Command struct {
	Kind    Kind
	Destino model.EstadoSolicitud
	ActorID uuid.UUID
	Notas   *string
}

// Result describes an applied command
type Result struct {
	Desde  model.EstadoSolicitud
	Hacia  model.EstadoSolicitud
	Cambio bool
}

// Check validates cmd against the current state of sol without mutating it
func Check(sol *model.Solicitud, cmd Command) error {
	r, ok := rules[cmd.Kind]
	if !ok {
		return fmt.Errorf("unknown workflow command %q", cmd.Kind)
	}
	if !contains(r.hacia, cmd.Destino) {
		return apperror.Validation("estado", "Estado no válido: %q", cmd.Destino)
	}
	if r.desde == nil {
		if IsTerminal(sol.Estado) {
			return apperror.Conflict("%s (%s)", r.conflict, sol.Estado)
		}
	} else if !contains(r.desde, sol.Estado) {
		return apperror.Conflict("%s (estado actual: %s)", r.conflict, sol.Estado)
	}
	if !CanTransition(sol.Estado, cmd.Destino) {
		return apperror.Conflict("transición no permitida: %s -> %s", sol.Estado, cmd.Destino)
	}
	return nil
}

// Apply checks cmd and, if legal, moves sol to cmd.Destino along with the side effects
// owned by the request itself (representative assignment, approval timestamp, notes).
func Apply(sol *model.Solicitud, cmd Command, now time.Time) (Result, error) {
	if err := Check(sol, cmd); err != nil {
		return Result{}, err
	}

	res := Result{Desde: sol.Estado, Hacia: cmd.Destino, Cambio: sol.Estado != cmd.Destino}

	if cmd.Kind == DecisionRepresentante {
		if sol.RepresentanteID == nil && cmd.ActorID != uuid.Nil {
			actor := cmd.ActorID
			sol.RepresentanteID = &actor
		}
		if cmd.Destino == model.EstadoAprobadoRepresentante {
			stamp := now
			sol.FechaAprobacionRepresentante = &stamp
		}
	}
	if cmd.Notas != nil {
		sol.NotasInternas = cmd.Notas
	}
	sol.Estado = cmd.Destino

	return res, nil
}

func contains(estados []model.EstadoSolicitud, e model.EstadoSolicitud) bool {
	for _, candidate := range estados {
		if candidate == e {
			return true
		}
	}
	return false
}
