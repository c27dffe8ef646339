package policy

import (
	"testing"

	"ayudasocial/internal/model"

	"github.com/google/uuid"
)

func actor(rol model.Rol) Actor {
	return Actor{ID: uuid.New(), Rol: rol}
}

func TestCanPerformRoleGatedDecisions(t *testing.T) {
	tests := []struct {
		name   string
		rol    model.Rol
		op     Operation
		estado model.EstadoSolicitud
		want   bool
	}{
		{"representante decides pendiente", model.RolRepresentante, DecisionRepresentante, model.EstadoPendiente, true},
		{"representante cannot decide approved", model.RolRepresentante, DecisionRepresentante, model.EstadoAprobadoRepresentante, false},
		{"trabajo social cannot decide as representante", model.RolTrabajoSocial, DecisionRepresentante, model.EstadoPendiente, false},
		{"trabajo social decides approved", model.RolTrabajoSocial, DecisionSocial, model.EstadoAprobadoRepresentante, true},
		{"trabajo social decides in inspection", model.RolTrabajoSocial, DecisionSocial, model.EstadoEnInspeccion, true},
		{"trabajo social cannot decide pendiente", model.RolTrabajoSocial, DecisionSocial, model.EstadoPendiente, false},
		{"representante cannot decide social", model.RolRepresentante, DecisionSocial, model.EstadoAprobadoRepresentante, false},
		{"trabajo social opens inspection", model.RolTrabajoSocial, CrearInspeccion, model.EstadoEnInspeccion, true},
		{"trabajo social records result", model.RolTrabajoSocial, ResultadoInspeccion, model.EstadoEnInspeccion, true},
		{"almacen creates delivery", model.RolAlmacen, CrearEntrega, model.EstadoAprobadoSocial, true},
		{"almacen cannot deliver before approval", model.RolAlmacen, CrearEntrega, model.EstadoAprobadoRepresentante, false},
		{"almacen completes delivery", model.RolAlmacen, CompletarEntrega, model.EstadoEnEntrega, true},
		{"recepcion cannot complete delivery", model.RolRecepcion, CompletarEntrega, model.EstadoEnEntrega, false},
		{"recepcion creates requests", model.RolRecepcion, CrearSolicitud, "", true},
		{"ciudadano cannot create requests", model.RolCiudadano, CrearSolicitud, "", false},
		{"almacen adjusts stock", model.RolAlmacen, AjustarStock, "", true},
		{"representante cannot adjust stock", model.RolRepresentante, AjustarStock, "", false},
		{"nobody manages users by role", model.RolRecepcion, GestionarUsuarios, "", false},
		{"unknown role is denied", model.Rol("invitado"), VerProducto, "", false},
		{"almacen sees the dashboard", model.RolAlmacen, VerEstadisticas, "", true},
		{"ciudadano cannot see the dashboard", model.RolCiudadano, VerEstadisticas, "", false},
		{"almacen annotates during delivery", model.RolAlmacen, AnotarSolicitud, model.EstadoEnEntrega, true},
		{"recepcion does not annotate", model.RolRecepcion, AnotarSolicitud, model.EstadoPendiente, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CanPerform(actor(tt.rol), tt.op, tt.estado, Relationship{})
			if got != tt.want {
				t.Errorf("CanPerform() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSuperuserMayDoAnything(t *testing.T) {
	su := Actor{ID: uuid.New(), Rol: model.RolCiudadano, Superusuario: true}
	for _, op := range []Operation{DecisionRepresentante, CompletarEntrega, GestionarUsuarios, AjustarStock} {
		if !CanPerform(su, op, model.EstadoEntregado, Relationship{}) {
			t.Errorf("superuser denied %s", op)
		}
	}
}

func TestRelationalGrants(t *testing.T) {
	ciudadano := actor(model.RolCiudadano)

	if CanPerform(ciudadano, VerSolicitud, model.EstadoPendiente, Relationship{}) {
		t.Error("a citizen must not see other citizens' requests")
	}
	if !CanPerform(ciudadano, VerSolicitud, model.EstadoEntregado, Relationship{Ciudadano: true}) {
		t.Error("a citizen sees own requests in any state")
	}
	if CanPerform(ciudadano, RechazarSolicitud, model.EstadoPendiente, Relationship{Ciudadano: true}) {
		t.Error("owning a request does not allow rejecting it")
	}

	recepcion := actor(model.RolRecepcion)
	if !CanPerform(recepcion, RechazarSolicitud, model.EstadoAprobadoSocial, Relationship{Creador: true}) {
		t.Error("the creator may reject")
	}
	if CanPerform(recepcion, RechazarSolicitud, model.EstadoAprobadoSocial, Relationship{}) {
		t.Error("recepcion may not reject requests it did not create")
	}
	if CanPerform(recepcion, AnotarSolicitud, model.EstadoAprobadoSocial, Relationship{Creador: true}) {
		t.Error("the creator may not write internal notes")
	}

	rep := actor(model.RolRepresentante)
	if !CanPerform(rep, VerSolicitud, model.EstadoEnEntrega, Relationship{Representante: true}) {
		t.Error("the assigned representative keeps seeing the request")
	}
	if CanPerform(rep, VerSolicitud, model.EstadoEnEntrega, Relationship{}) {
		t.Error("other representatives only see pendiente requests")
	}

	ts := actor(model.RolTrabajoSocial)
	if !CanPerform(ts, VerInspeccion, model.EstadoAprobadoSocial, Relationship{Inspector: true}) {
		t.Error("an inspector keeps seeing own inspections")
	}
	if CanPerform(ts, VerInspeccion, model.EstadoAprobadoSocial, Relationship{}) {
		t.Error("trabajo social only sees inspections of requests under review")
	}
}

func TestReadVisibilityByRole(t *testing.T) {
	visible := map[model.Rol][]model.EstadoSolicitud{
		model.RolCiudadano:     nil,
		model.RolRecepcion:     model.Estados,
		model.RolRepresentante: {model.EstadoPendiente},
		model.RolTrabajoSocial: {model.EstadoAprobadoRepresentante, model.EstadoEnInspeccion},
		model.RolAlmacen:       {model.EstadoAprobadoSocial, model.EstadoEnEntrega, model.EstadoEntregado},
	}

	for rol, estados := range visible {
		want := map[model.EstadoSolicitud]bool{}
		for _, e := range estados {
			want[e] = true
		}
		a := actor(rol)
		for _, e := range model.Estados {
			if got := CanPerform(a, VerSolicitud, e, Relationship{}); got != want[e] {
				t.Errorf("%s viewing %s: got %v, want %v", rol, e, got, want[e])
			}
		}
	}
}

func TestScopeFor(t *testing.T) {
	t.Run("superuser sees all", func(t *testing.T) {
		s := ScopeFor(Actor{ID: uuid.New(), Superusuario: true}, VerSolicitud)
		if !s.All {
			t.Fatal("expected All")
		}
	})

	t.Run("recepcion sees all", func(t *testing.T) {
		if s := ScopeFor(actor(model.RolRecepcion), VerSolicitud); !s.All {
			t.Fatal("expected All")
		}
	})

	t.Run("ciudadano sees own", func(t *testing.T) {
		a := actor(model.RolCiudadano)
		s := ScopeFor(a, VerSolicitud)
		if s.All || len(s.Estados) != 0 || !s.Ciudadano || s.ActorID != a.ID {
			t.Fatalf("unexpected scope %+v", s)
		}
	})

	t.Run("representante sees pendiente plus decided", func(t *testing.T) {
		s := ScopeFor(actor(model.RolRepresentante), VerSolicitud)
		if s.All || len(s.Estados) != 1 || s.Estados[0] != model.EstadoPendiente || !s.Representante {
			t.Fatalf("unexpected scope %+v", s)
		}
	})

	t.Run("scope does not alias the table", func(t *testing.T) {
		s := ScopeFor(actor(model.RolAlmacen), VerSolicitud)
		s.Estados[0] = model.EstadoRechazado
		again := ScopeFor(actor(model.RolAlmacen), VerSolicitud)
		if again.Estados[0] != model.EstadoAprobadoSocial {
			t.Fatal("ScopeFor must return a copy of the granted states")
		}
	})

	t.Run("ungranted operation is empty", func(t *testing.T) {
		if s := ScopeFor(actor(model.RolCiudadano), VerProducto); !s.Empty() {
			t.Fatalf("expected empty scope, got %+v", s)
		}
	})
}

func TestRelationshipTo(t *testing.T) {
	a := actor(model.RolRepresentante)
	other := uuid.New()
	sol := &model.Solicitud{CiudadanoID: other, CreadoPorID: &other, RepresentanteID: &a.ID}

	rel := RelationshipTo(a, sol)
	if rel.Ciudadano || rel.Creador || !rel.Representante {
		t.Fatalf("unexpected relationship %+v", rel)
	}
}
