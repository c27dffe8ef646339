// Package policy decides who may do what to a solicitud and its children.
//
// Permissions and list visibility come from the same two tables: relational grants, which follow
// how the actor relates to a request whatever their role, and role grants, keyed by (role,
// operation) and holding the request states in which the role may act. Anything not granted
// by one of them is denied.
package policy

import (
	"ayudasocial/internal/model"

	"github.com/google/uuid"
)

// Actor is the authenticated caller
type Actor struct {
	ID           uuid.UUID
	Rol          model.Rol
	Superusuario bool
}

// Operation names something an actor may attempt
type Operation string

const (
	VerSolicitud          Operation = "ver_solicitud"
	CrearSolicitud        Operation = "crear_solicitud"
	DecisionRepresentante Operation = "decision_representante"
	DecisionSocial        Operation = "decision_social"
	RechazarSolicitud     Operation = "rechazar_solicitud"
	AnotarSolicitud       Operation = "anotar_solicitud" // write notas_internas

	VerInspeccion       Operation = "ver_inspeccion"
	CrearInspeccion     Operation = "crear_inspeccion"
	ResultadoInspeccion Operation = "resultado_inspeccion"

	VerEntrega       Operation = "ver_entrega"
	CrearEntrega     Operation = "crear_entrega"
	CompletarEntrega Operation = "completar_entrega"

	VerProducto       Operation = "ver_producto"
	GestionarProducto Operation = "gestionar_producto"
	AjustarStock      Operation = "ajustar_stock"

	VerUsuarios        Operation = "ver_usuarios"
	RegistrarCiudadano Operation = "registrar_ciudadano"
	GestionarUsuarios  Operation = "gestionar_usuarios"

	VerEstadisticas Operation = "ver_estadisticas"
)

// Relationship says how an actor relates to a request
type Relationship struct {
	Ciudadano     bool // the request belongs to the actor
	Creador       bool
	Representante bool // the actor is the assigned representative
	Inspector     bool // the actor inspected the request
	Encargado     bool // the actor is in charge of one of its deliveries
}

func (r Relationship) matches(granted Relationship) bool {
	return (granted.Ciudadano && r.Ciudadano) ||
		(granted.Creador && r.Creador) ||
		(granted.Representante && r.Representante) ||
		(granted.Inspector && r.Inspector) ||
		(granted.Encargado && r.Encargado)
}

var relational = map[Operation]Relationship{
	VerSolicitud:      {Ciudadano: true, Creador: true, Representante: true, Inspector: true, Encargado: true},
	RechazarSolicitud: {Creador: true, Representante: true},
	AnotarSolicitud:   {Representante: true},
	VerInspeccion:     {Ciudadano: true, Inspector: true},
	VerEntrega:        {Ciudadano: true, Encargado: true},
}

// anyState grants an operation whatever the request state is
var anyState []model.EstadoSolicitud

var roleGrants = map[model.Rol]map[Operation][]model.EstadoSolicitud{
	model.RolCiudadano: {},
	model.RolRecepcion: {
		VerSolicitud:       anyState,
		CrearSolicitud:     anyState,
		VerInspeccion:      anyState,
		VerEntrega:         anyState,
		VerProducto:        anyState,
		VerUsuarios:        anyState,
		RegistrarCiudadano: anyState,
		VerEstadisticas:    anyState,
	},
	model.RolRepresentante: {
		VerSolicitud:          {model.EstadoPendiente},
		DecisionRepresentante: {model.EstadoPendiente},
		RechazarSolicitud:     {model.EstadoPendiente},
		AnotarSolicitud:       {model.EstadoPendiente},
		VerInspeccion:         anyState,
		VerEntrega:            anyState,
		VerProducto:           anyState,
		VerUsuarios:           anyState,
		VerEstadisticas:       anyState,
	},
	model.RolTrabajoSocial: {
		VerSolicitud:        {model.EstadoAprobadoRepresentante, model.EstadoEnInspeccion},
		DecisionSocial:      {model.EstadoAprobadoRepresentante, model.EstadoEnInspeccion},
		RechazarSolicitud:   {model.EstadoAprobadoRepresentante, model.EstadoEnInspeccion},
		AnotarSolicitud:     {model.EstadoAprobadoRepresentante, model.EstadoEnInspeccion},
		VerInspeccion:       {model.EstadoAprobadoRepresentante, model.EstadoEnInspeccion},
		CrearInspeccion:     {model.EstadoAprobadoRepresentante, model.EstadoEnInspeccion},
		ResultadoInspeccion: {model.EstadoEnInspeccion},
		VerEntrega:          anyState,
		VerProducto:         anyState,
		VerUsuarios:         anyState,
		VerEstadisticas:     anyState,
	},
	model.RolAlmacen: {
		VerSolicitud:      {model.EstadoAprobadoSocial, model.EstadoEnEntrega, model.EstadoEntregado},
		RechazarSolicitud: {model.EstadoAprobadoSocial, model.EstadoEnEntrega},
		AnotarSolicitud:   {model.EstadoAprobadoSocial, model.EstadoEnEntrega},
		CrearEntrega:      {model.EstadoAprobadoSocial},
		CompletarEntrega:  {model.EstadoEnEntrega},
		VerInspeccion:     anyState,
		VerEntrega:        anyState,
		VerProducto:       anyState,
		GestionarProducto: anyState,
		AjustarStock:      anyState,
		VerUsuarios:       anyState,
		VerEstadisticas:   anyState,
	},
}

// CanPerform reports whether actor may perform op on a request in estado.
// Operations that do not concern a request (products, users) ignore estado and rel.
func CanPerform(actor Actor, op Operation, estado model.EstadoSolicitud, rel Relationship) bool {
	if actor.Superusuario {
		return true
	}
	if rel.matches(relational[op]) {
		return true
	}
	estados, ok := roleGrants[actor.Rol][op]
	if !ok {
		return false
	}
	return estados == nil || containsEstado(estados, estado)
}

// RelationshipTo fills the parts of Relationship that can be read from the request itself
func RelationshipTo(actor Actor, sol *model.Solicitud) Relationship {
	rel := Relationship{
		Ciudadano: sol.CiudadanoID == actor.ID,
	}
	if sol.CreadoPorID != nil {
		rel.Creador = *sol.CreadoPorID == actor.ID
	}
	if sol.RepresentanteID != nil {
		rel.Representante = *sol.RepresentanteID == actor.ID
	}
	return rel
}

func containsEstado(estados []model.EstadoSolicitud, e model.EstadoSolicitud) bool {
	for _, candidate := range estados {
		if candidate == e {
			return true
		}
	}
	return false
}
