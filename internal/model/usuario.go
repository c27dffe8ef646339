package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Rol is the fixed role of an actor
type Rol string

const (
	RolCiudadano     Rol = "ciudadano"
	RolRecepcion     Rol = "recepcion"
	RolRepresentante Rol = "representante"
	RolTrabajoSocial Rol = "trabajo_social"
	RolAlmacen       Rol = "almacen"
)

// Roles lists every valid role
var Roles = []Rol{RolCiudadano, RolRecepcion, RolRepresentante, RolTrabajoSocial, RolAlmacen}

// Valid reports whether r is one of the fixed roles
func (r Rol) Valid() bool {
	for _, rol := range Roles {
		if r == rol {
			return true
		}
	}
	return false
}

// Usuario is an authenticated actor: citizen, intake clerk, reviewer or warehouse staff
type Usuario struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Username       string         `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	Email          string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password       string         `gorm:"type:varchar(255);not null" json:"-"` // bcrypt hash, never serialized
	Nombre         string         `gorm:"type:varchar(255)" json:"nombre"`
	Rol            Rol            `gorm:"type:varchar(20);not null;default:'ciudadano';index" json:"rol"`
	EsSuperusuario bool           `gorm:"not null;default:false" json:"es_superusuario"`
	Cedula         *string        `gorm:"type:varchar(20);uniqueIndex" json:"cedula"`
	Telefono       string         `gorm:"type:varchar(20)" json:"telefono"`
	Direccion      string         `gorm:"type:text" json:"direccion"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Usuario) TableName() string { return "usuarios" }

func (u *Usuario) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
