package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Producto is a warehouse item that can be handed out in an Entrega.
// StockComprometido is the quantity held by deliveries that are open but not yet completed.
type Producto struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Nombre            string         `gorm:"type:varchar(255);not null;index" json:"nombre"`
	Descripcion       *string        `gorm:"type:text" json:"descripcion"`
	UnidadMedida      string         `gorm:"type:varchar(50);not null" json:"unidad_medida"`
	Codigo            string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"codigo"`
	StockActual       int            `gorm:"type:int;not null;default:0" json:"stock_actual"`
	StockComprometido int            `gorm:"type:int;not null;default:0" json:"stock_comprometido"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Producto) TableName() string { return "productos" }

func (p *Producto) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Disponible is the stock that new deliveries may still commit
func (p Producto) Disponible() int {
	if d := p.StockActual - p.StockComprometido; d > 0 {
		return d
	}
	return 0
}

// TipoMovimiento enum simulation
const (
	MovimientoAjusteManual = "ajuste_manual"
	MovimientoEntrega      = "entrega"
)

// MovimientoStock is one line of a product's stock card, written with every stock change
type MovimientoStock struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProductoID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"producto_id"`
	Tipo          string     `gorm:"type:varchar(20);not null" json:"tipo"`
	Cantidad      int        `gorm:"type:int;not null" json:"cantidad"` // positive = entrada, negative = salida
	StockAnterior int        `gorm:"type:int;not null" json:"stock_anterior"`
	StockNuevo    int        `gorm:"type:int;not null" json:"stock_nuevo"`
	EntregaID     *uuid.UUID `gorm:"type:uuid;index" json:"entrega_id"`
	UsuarioID     *uuid.UUID `gorm:"type:uuid" json:"usuario_id"`
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`
}

func (MovimientoStock) TableName() string { return "movimientos_stock" }

func (m *MovimientoStock) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
