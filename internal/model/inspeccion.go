package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ResultadoInspeccion is the outcome of a home visit
type ResultadoInspeccion string

const (
	ResultadoPendiente ResultadoInspeccion = "pendiente"
	ResultadoAprobado  ResultadoInspeccion = "aprobado"
	ResultadoRechazado ResultadoInspeccion = "rechazado"
)

// Inspeccion is a social-work visit attached to a Solicitud.
// At most one inspection per solicitud may be pending; the partial unique index backs that up.
type Inspeccion struct {
	ID              uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	SolicitudID     uuid.UUID                   `gorm:"type:uuid;not null;index;uniqueIndex:idx_inspeccion_pendiente_unica,where:resultado = 'pendiente'" json:"solicitud_id"`
	Solicitud       *Solicitud                  `gorm:"foreignKey:SolicitudID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	InspectorID     uuid.UUID                   `gorm:"type:uuid;not null;index" json:"inspector_id"`
	Inspector       *Usuario                    `gorm:"foreignKey:InspectorID" json:"inspector,omitempty"`
	FechaInspeccion time.Time                   `gorm:"autoCreateTime;index" json:"fecha_inspeccion"`
	FechaProgramada *time.Time                  `gorm:"type:date" json:"fecha_programada"`
	Resultado       ResultadoInspeccion         `gorm:"type:varchar(20);not null;default:'pendiente';index" json:"resultado"`
	Notas           *string                     `gorm:"type:text" json:"notas"`
	DireccionVisita string                      `gorm:"type:text;not null" json:"direccion_visita"`
	Lat             decimal.NullDecimal         `gorm:"type:decimal(9,6)" json:"lat"`
	Lng             decimal.NullDecimal         `gorm:"type:decimal(9,6)" json:"lng"`
	Fotos           datatypes.JSONSlice[string] `gorm:"not null" json:"fotos"`
}

func (Inspeccion) TableName() string { return "inspecciones" }

func (i *Inspeccion) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.Fotos == nil {
		i.Fotos = datatypes.JSONSlice[string]{}
	}
	return nil
}
