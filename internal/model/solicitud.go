package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EstadoSolicitud is the lifecycle state of a Solicitud
type EstadoSolicitud string

const (
	EstadoPendiente              EstadoSolicitud = "pendiente"
	EstadoAprobadoRepresentante  EstadoSolicitud = "aprobado_representante"
	EstadoRechazadoRepresentante EstadoSolicitud = "rechazado_representante"
	EstadoEnInspeccion           EstadoSolicitud = "en_inspeccion"
	EstadoAprobadoSocial         EstadoSolicitud = "aprobado_social"
	EstadoRechazadoSocial        EstadoSolicitud = "rechazado_social"
	EstadoEnEntrega              EstadoSolicitud = "en_entrega"
	EstadoEntregado              EstadoSolicitud = "entregado"
	EstadoRechazado              EstadoSolicitud = "rechazado"
)

// Estados lists the nine lifecycle states in workflow order
var Estados = []EstadoSolicitud{
	EstadoPendiente,
	EstadoAprobadoRepresentante,
	EstadoRechazadoRepresentante,
	EstadoEnInspeccion,
	EstadoAprobadoSocial,
	EstadoRechazadoSocial,
	EstadoEnEntrega,
	EstadoEntregado,
	EstadoRechazado,
}

var estadoDisplay = map[EstadoSolicitud]string{
	EstadoPendiente:              "Pendiente de Revisión",
	EstadoAprobadoRepresentante:  "Aprobado por Representante",
	EstadoRechazadoRepresentante: "Rechazado por Representante",
	EstadoEnInspeccion:           "En Inspección",
	EstadoAprobadoSocial:         "Aprobado por Trabajo Social",
	EstadoRechazadoSocial:        "Rechazado por Trabajo Social",
	EstadoEnEntrega:              "En Proceso de Entrega",
	EstadoEntregado:              "Entregado",
	EstadoRechazado:              "Rechazado",
}

// Valid reports whether e is one of the nine states
func (e EstadoSolicitud) Valid() bool {
	_, ok := estadoDisplay[e]
	return ok
}

// Display returns the human readable label of the state
func (e EstadoSolicitud) Display() string {
	return estadoDisplay[e]
}

// Solicitud is a citizen's aid request and the root of the approval workflow.
// Estado is written only by the workflow package.
type Solicitud struct {
	ID                           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Titulo                       string          `gorm:"type:varchar(200);not null" json:"titulo"`
	Descripcion                  string          `gorm:"type:text;not null" json:"descripcion"`
	Estado                       EstadoSolicitud `gorm:"type:varchar(30);not null;default:'pendiente';index" json:"estado"`
	CiudadanoID                  uuid.UUID       `gorm:"type:uuid;not null;index" json:"ciudadano_id"`
	Ciudadano                    *Usuario        `gorm:"foreignKey:CiudadanoID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"ciudadano,omitempty"`
	CreadoPorID                  *uuid.UUID      `gorm:"type:uuid;index" json:"creado_por_id"`
	CreadoPor                    *Usuario        `gorm:"foreignKey:CreadoPorID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"creado_por,omitempty"`
	RepresentanteID              *uuid.UUID      `gorm:"type:uuid;index" json:"representante_id"`
	Representante                *Usuario        `gorm:"foreignKey:RepresentanteID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"representante,omitempty"`
	FechaAprobacionRepresentante *time.Time      `json:"fecha_aprobacion_representante"`
	NotasInternas                *string         `gorm:"type:text" json:"notas_internas"`
	CreatedAt                    time.Time       `gorm:"column:fecha_creacion;autoCreateTime;index" json:"fecha_creacion"`
	UpdatedAt                    time.Time       `gorm:"column:fecha_actualizacion;autoUpdateTime" json:"fecha_actualizacion"`
}

func (Solicitud) TableName() string { return "solicitudes" }

func (s *Solicitud) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
