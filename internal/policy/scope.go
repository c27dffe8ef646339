package policy

import (
	"ayudasocial/internal/model"

	"github.com/google/uuid"
)

// Scope describes the requests an actor may list for an operation: every request when All is
// set, otherwise those in one of Estados or related to ActorID in one of the flagged ways.
// A zero Scope matches nothing.
type Scope struct {
	ActorID uuid.UUID
	All     bool
	Estados []model.EstadoSolicitud

	Ciudadano     bool
	Creador       bool
	Representante bool
	Inspector     bool
	Encargado     bool
}

// Empty reports whether the scope can match no request at all
func (s Scope) Empty() bool {
	return !s.All && len(s.Estados) == 0 &&
		!s.Ciudadano && !s.Creador && !s.Representante && !s.Inspector && !s.Encargado
}

// ScopeFor turns the grants for (actor, op) into a list filter
func ScopeFor(actor Actor, op Operation) Scope {
	s := Scope{ActorID: actor.ID}
	if actor.Superusuario {
		s.All = true
		return s
	}

	rel := relational[op]
	s.Ciudadano = rel.Ciudadano
	s.Creador = rel.Creador
	s.Representante = rel.Representante
	s.Inspector = rel.Inspector
	s.Encargado = rel.Encargado

	if estados, ok := roleGrants[actor.Rol][op]; ok {
		if estados == nil {
			s.All = true
		} else {
			s.Estados = append([]model.EstadoSolicitud(nil), estados...)
		}
	}
	return s
}
