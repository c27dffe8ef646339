package workflow

import (
	"ayudasocial/internal/model"
	"ayudasocial/pkg/apperror"

	"github.com/google/uuid"
)

func NuevaDecisionRepresentante(decision model.EstadoSolicitud, actorID uuid.UUID, notas *string) Command {
	return Command{Kind: DecisionRepresentante, Destino: decision, ActorID: actorID, Notas: notas}
}

func NuevaDecisionSocial(decision model.EstadoSolicitud, actorID uuid.UUID, notas *string) Command {
	return Command{Kind: DecisionSocial, Destino: decision, ActorID: actorID, Notas: notas}
}

// AperturaInspeccion moves the request into en_inspeccion; a no-op when it is already there
func AperturaInspeccion(actorID uuid.UUID) Command {
	return Command{Kind: AbrirInspeccion, Destino: model.EstadoEnInspeccion, ActorID: actorID}
}

// DesdeResultadoInspeccion maps a terminal inspection result onto the social-work decision it implies
func DesdeResultadoInspeccion(resultado model.ResultadoInspeccion, actorID uuid.UUID) (Command, error) {
	var destino model.EstadoSolicitud
	switch resultado {
	case model.ResultadoAprobado:
		destino = model.EstadoAprobadoSocial
	case model.ResultadoRechazado:
		destino = model.EstadoRechazadoSocial
	default:
		return Command{}, apperror.Validation("resultado", "El resultado de la inspección debe ser 'aprobado' o 'rechazado'")
	}
	return Command{Kind: ResultadoInspeccion, Destino: destino, ActorID: actorID}, nil
}

func InicioEntrega(actorID uuid.UUID) Command {
	return Command{Kind: IniciarEntrega, Destino: model.EstadoEnEntrega, ActorID: actorID}
}

func FinEntrega(actorID uuid.UUID) Command {
	return Command{Kind: CompletarEntrega, Destino: model.EstadoEntregado, ActorID: actorID}
}

func Rechazo(actorID uuid.UUID, notas *string) Command {
	return Command{Kind: Rechazar, Destino: model.EstadoRechazado, ActorID: actorID, Notas: notas}
}
