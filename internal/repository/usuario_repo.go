package repository

import (
	"context"

	"ayudasocial/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UsuarioRepository defines data access for Usuario entities
type UsuarioRepository interface {
	Create(ctx context.Context, usuario *model.Usuario) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Usuario, error)
	GetByEmail(ctx context.Context, email string) (*model.Usuario, error)
	GetByUsername(ctx context.Context, username string) (*model.Usuario, error)
	List(ctx context.Context, rol model.Rol, page, limit int) ([]model.Usuario, int64, error)
	Update(ctx context.Context, usuario *model.Usuario) error
}

type usuarioRepository struct {
	db *gorm.DB
}

// NewUsuarioRepository returns a new instance of UsuarioRepository
func NewUsuarioRepository(db *gorm.DB) UsuarioRepository {
	return &usuarioRepository{db: db}
}

func (r *usuarioRepository) Create(ctx context.Context, usuario *model.Usuario) error {
	return GetDB(ctx, r.db).Create(usuario).Error
}

func (r *usuarioRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Usuario, error) {
	var usuario model.Usuario
	if err := GetDB(ctx, r.db).First(&usuario, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &usuario, nil
}

func (r *usuarioRepository) GetByEmail(ctx context.Context, email string) (*model.Usuario, error) {
	var usuario model.Usuario
	if err := GetDB(ctx, r.db).First(&usuario, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &usuario, nil
}

func (r *usuarioRepository) GetByUsername(ctx context.Context, username string) (*model.Usuario, error) {
	var usuario model.Usuario
	if err := GetDB(ctx, r.db).First(&usuario, "username = ?", username).Error; err != nil {
		return nil, err
	}
	return &usuario, nil
}

func (r *usuarioRepository) List(ctx context.Context, rol model.Rol, page, limit int) ([]model.Usuario, int64, error) {
	var usuarios []model.Usuario
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Usuario{})
	if rol != "" {
		query = query.Where("rol = ?", rol)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("nombre ASC").Scopes(paginate(page, limit)).Find(&usuarios).Error; err != nil {
		return nil, 0, err
	}

	return usuarios, total, nil
}

func (r *usuarioRepository) Update(ctx context.Context, usuario *model.Usuario) error {
	return GetDB(ctx, r.db).Save(usuario).Error
}
