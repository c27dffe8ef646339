package workflow

import (
	"testing"
	"time"

	"ayudasocial/internal/model"
	"ayudasocial/pkg/apperror"

	"github.com/google/uuid"
)

var allKinds = []Kind{
	DecisionRepresentante,
	DecisionSocial,
	AbrirInspeccion,
	ResultadoInspeccion,
	IniciarEntrega,
	CompletarEntrega,
	Rechazar,
}

// TestApplyOnlyFollowsEdges tries every kind with every target from every state and checks
// that whatever Apply accepts is an edge of the graph and whatever it refuses leaves the request untouched.
func TestApplyOnlyFollowsEdges(t *testing.T) {
	now := time.Now()
	actor := uuid.New()

	for _, kind := range allKinds {
		for _, desde := range model.Estados {
			for _, destino := range model.Estados {
				sol := &model.Solicitud{Estado: desde}
				res, err := Apply(sol, Command{Kind: kind, Destino: destino, ActorID: actor}, now)
				if err != nil {
					if sol.Estado != desde {
						t.Fatalf("%s %s->%s: failed command changed state to %s", kind, desde, destino, sol.Estado)
					}
					k := apperror.KindOf(err)
					if k != apperror.KindValidation && k != apperror.KindStateConflict {
						t.Fatalf("%s %s->%s: unexpected error kind %s", kind, desde, destino, k)
					}
					continue
				}
				if !CanTransition(desde, destino) {
					t.Fatalf("%s accepted %s->%s which is not an edge", kind, desde, destino)
				}
				if sol.Estado != destino || res.Hacia != destino || res.Desde != desde {
					t.Fatalf("%s %s->%s: inconsistent result %+v, estado %s", kind, desde, destino, res, sol.Estado)
				}
			}
		}
	}
}

func TestTerminalStates(t *testing.T) {
	terminal := map[model.EstadoSolicitud]bool{
		model.EstadoRechazadoRepresentante: true,
		model.EstadoRechazadoSocial:        true,
		model.EstadoRechazado:              true,
		model.EstadoEntregado:              true,
	}
	for _, e := range model.Estados {
		if IsTerminal(e) != terminal[e] {
			t.Errorf("IsTerminal(%s) = %v, want %v", e, IsTerminal(e), terminal[e])
		}
	}
	if IsTerminal(model.EstadoSolicitud("desconocido")) {
		t.Error("unknown states are not terminal")
	}
}

func TestDecisionRepresentanteApprovalStampsDateAndAssignsRepresentative(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rep := uuid.New()
	notas := "visitar domicilio"
	sol := &model.Solicitud{Estado: model.EstadoPendiente}

	res, err := Apply(sol, NuevaDecisionRepresentante(model.EstadoAprobadoRepresentante, rep, &notas), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Cambio || sol.Estado != model.EstadoAprobadoRepresentante {
		t.Fatalf("expected aprobado_representante, got %s", sol.Estado)
	}
	if sol.RepresentanteID == nil || *sol.RepresentanteID != rep {
		t.Fatalf("expected representative %s, got %v", rep, sol.RepresentanteID)
	}
	if sol.FechaAprobacionRepresentante == nil || !sol.FechaAprobacionRepresentante.Equal(now) {
		t.Fatalf("expected approval date %v, got %v", now, sol.FechaAprobacionRepresentante)
	}
	if sol.NotasInternas == nil || *sol.NotasInternas != notas {
		t.Fatalf("expected notes to be stored")
	}
}

func TestDecisionRepresentanteRejectionKeepsApprovalDateUnset(t *testing.T) {
	existing := uuid.New()
	sol := &model.Solicitud{Estado: model.EstadoPendiente, RepresentanteID: &existing}

	if _, err := Apply(sol, NuevaDecisionRepresentante(model.EstadoRechazadoRepresentante, uuid.New(), nil), time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sol.FechaAprobacionRepresentante != nil {
		t.Fatal("rejection must not stamp the approval date")
	}
	if *sol.RepresentanteID != existing {
		t.Fatal("an already assigned representative must be kept")
	}
}

func TestDecisionRepresentanteOutsidePendienteConflicts(t *testing.T) {
	for _, e := range model.Estados {
		if e == model.EstadoPendiente {
			continue
		}
		sol := &model.Solicitud{Estado: e}
		_, err := Apply(sol, NuevaDecisionRepresentante(model.EstadoAprobadoRepresentante, uuid.New(), nil), time.Now())
		if !apperror.Is(err, apperror.KindStateConflict) {
			t.Errorf("estado %s: expected state conflict, got %v", e, err)
		}
	}
}

func TestDecisionRepresentanteInvalidDecisionIsValidationError(t *testing.T) {
	sol := &model.Solicitud{Estado: model.EstadoPendiente}
	_, err := Apply(sol, NuevaDecisionRepresentante(model.EstadoAprobadoSocial, uuid.New(), nil), time.Now())
	if !apperror.Is(err, apperror.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAperturaInspeccionIsIdempotent(t *testing.T) {
	sol := &model.Solicitud{Estado: model.EstadoAprobadoRepresentante}
	res, err := Apply(sol, AperturaInspeccion(uuid.New()), time.Now())
	if err != nil || !res.Cambio {
		t.Fatalf("expected change into en_inspeccion, got %+v %v", res, err)
	}

	res, err = Apply(sol, AperturaInspeccion(uuid.New()), time.Now())
	if err != nil {
		t.Fatalf("second apertura must succeed: %v", err)
	}
	if res.Cambio || sol.Estado != model.EstadoEnInspeccion {
		t.Fatalf("second apertura must be a no-op, got %+v", res)
	}
}

func TestDesdeResultadoInspeccion(t *testing.T) {
	cases := []struct {
		resultado model.ResultadoInspeccion
		want      model.EstadoSolicitud
	}{
		{model.ResultadoAprobado, model.EstadoAprobadoSocial},
		{model.ResultadoRechazado, model.EstadoRechazadoSocial},
	}
	for _, tc := range cases {
		cmd, err := DesdeResultadoInspeccion(tc.resultado, uuid.New())
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.resultado, err)
		}
		sol := &model.Solicitud{Estado: model.EstadoEnInspeccion}
		if _, err := Apply(sol, cmd, time.Now()); err != nil {
			t.Fatalf("%s: unexpected error %v", tc.resultado, err)
		}
		if sol.Estado != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.resultado, tc.want, sol.Estado)
		}
	}

	if _, err := DesdeResultadoInspeccion(model.ResultadoPendiente, uuid.New()); !apperror.Is(err, apperror.KindValidation) {
		t.Fatalf("pendiente is not a terminal result, got %v", err)
	}
}

func TestRechazoFromEveryNonTerminalState(t *testing.T) {
	for _, e := range model.Estados {
		sol := &model.Solicitud{Estado: e}
		_, err := Apply(sol, Rechazo(uuid.New(), nil), time.Now())
		if IsTerminal(e) {
			if !apperror.Is(err, apperror.KindStateConflict) {
				t.Errorf("estado %s: expected conflict on terminal state, got %v", e, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("estado %s: unexpected error %v", e, err)
		}
		if sol.Estado != model.EstadoRechazado {
			t.Errorf("estado %s: expected rechazado, got %s", e, sol.Estado)
		}
	}
}

func TestEntregaCommands(t *testing.T) {
	sol := &model.Solicitud{Estado: model.EstadoAprobadoSocial}
	if _, err := Apply(sol, FinEntrega(uuid.New()), time.Now()); !apperror.Is(err, apperror.KindStateConflict) {
		t.Fatalf("completing before starting must conflict, got %v", err)
	}
	if _, err := Apply(sol, InicioEntrega(uuid.New()), time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := Apply(sol, InicioEntrega(uuid.New()), time.Now()); !apperror.Is(err, apperror.KindStateConflict) {
		t.Fatalf("starting twice must conflict, got %v", err)
	}
	if _, err := Apply(sol, FinEntrega(uuid.New()), time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sol.Estado != model.EstadoEntregado {
		t.Fatalf("expected entregado, got %s", sol.Estado)
	}
}

func TestUnknownKindIsInternalError(t *testing.T) {
	sol := &model.Solicitud{Estado: model.EstadoPendiente}
	_, err := Apply(sol, Command{Kind: "otro", Destino: model.EstadoRechazado}, time.Now())
	if err == nil || apperror.KindOf(err) != apperror.KindInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
}
