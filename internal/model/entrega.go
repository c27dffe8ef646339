package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LineaEntrega is a value snapshot of a product at the moment the delivery was created.
// Nombre and Unidad are copied from Producto and never follow later product edits.
type LineaEntrega struct {
	ProductoID uuid.UUID `json:"producto_id"`
	Nombre     string    `json:"nombre"`
	Cantidad   int       `json:"cantidad"`
	Unidad     string    `json:"unidad"`
}

// Entrega is the fulfillment record of goods handed out against a Solicitud
type Entrega struct {
	ID              uuid.UUID                         `gorm:"type:uuid;primaryKey" json:"id"`
	SolicitudID     uuid.UUID                         `gorm:"type:uuid;not null;index" json:"solicitud_id"`
	Solicitud       *Solicitud                        `gorm:"foreignKey:SolicitudID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	EncargadoID     uuid.UUID                         `gorm:"type:uuid;not null;index" json:"encargado_id"`
	Encargado       *Usuario                          `gorm:"foreignKey:EncargadoID" json:"encargado,omitempty"`
	FechaEntrega    time.Time                         `gorm:"autoCreateTime;index" json:"fecha_entrega"`
	FechaProgramada *time.Time                        `gorm:"type:date" json:"fecha_programada"`
	Comentarios     *string                           `gorm:"type:text" json:"comentarios"`
	EvidenciaFotos  datatypes.JSONSlice[string]       `gorm:"not null" json:"evidencia_fotos"`
	FirmaReceptor   *string                           `gorm:"type:text" json:"firma_receptor"`
	Productos       datatypes.JSONSlice[LineaEntrega] `gorm:"not null" json:"productos"`
	Completada      bool                              `gorm:"not null;default:false;index" json:"completada"`
	FechaCompletada *time.Time                        `json:"fecha_completada"`
}

func (Entrega) TableName() string { return "entregas" }

func (e *Entrega) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.EvidenciaFotos == nil {
		e.EvidenciaFotos = datatypes.JSONSlice[string]{}
	}
	return nil
}
