package repository

import (
	"strings"

	"ayudasocial/internal/policy"

	"gorm.io/gorm"
)

// scopeCondition renders a policy scope as a WHERE fragment over the solicitudes table.
// all is true when the scope does not restrict anything.
func scopeCondition(s policy.Scope) (cond string, args []interface{}, all bool) {
	if s.All {
		return "", nil, true
	}

	var conds []string
	if len(s.Estados) > 0 {
		estados := make([]string, len(s.Estados))
		for i, e := range s.Estados {
			estados[i] = string(e)
		}
		conds = append(conds, "estado IN ?")
		args = append(args, estados)
	}
	if s.Ciudadano {
		conds = append(conds, "ciudadano_id = ?")
		args = append(args, s.ActorID)
	}
	if s.Creador {
		conds = append(conds, "creado_por_id = ?")
		args = append(args, s.ActorID)
	}
	if s.Representante {
		conds = append(conds, "representante_id = ?")
		args = append(args, s.ActorID)
	}
	if s.Inspector {
		conds = append(conds, "id IN (SELECT solicitud_id FROM inspecciones WHERE inspector_id = ?)")
		args = append(args, s.ActorID)
	}
	if s.Encargado {
		conds = append(conds, "id IN (SELECT solicitud_id FROM entregas WHERE encargado_id = ?)")
		args = append(args, s.ActorID)
	}

	if len(conds) == 0 {
		return "1 = 0", nil, false
	}
	return "(" + strings.Join(conds, " OR ") + ")", args, false
}

// visibleSolicitudes restricts a query on solicitudes to the scope
func visibleSolicitudes(s policy.Scope) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		cond, args, all := scopeCondition(s)
		if all {
			return db
		}
		return db.Where(cond, args...)
	}
}

// visibleChildren restricts a query on a table with a solicitud_id column (inspecciones, entregas)
// to rows whose request is in scope
func visibleChildren(s policy.Scope) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		cond, args, all := scopeCondition(s)
		if all {
			return db
		}
		return db.Where("solicitud_id IN (SELECT id FROM solicitudes WHERE "+cond+")", args...)
	}
}
