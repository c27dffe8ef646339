package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"ayudasocial/internal/logger"
	"ayudasocial/internal/model"
	"ayudasocial/internal/policy"
	"ayudasocial/internal/repository"
	"ayudasocial/pkg/apperror"
	"ayudasocial/pkg/jwtutil"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// DTOs
type CreateUsuarioRequest struct {
	Username       string    `json:"username" binding:"required,max=150"`
	Email          string    `json:"email" binding:"required,email"`
	Password       string    `json:"password" binding:"required,min=6"`
	Nombre         string    `json:"nombre"`
	Rol            model.Rol `json:"rol" binding:"required"`
	EsSuperusuario bool      `json:"es_superusuario"`
	Cedula         *string   `json:"cedula"`
	Telefono       string    `json:"telefono"`
	Direccion      string    `json:"direccion"`
}

// LoginRequest accepts either the username or the email as Username
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token   string         `json:"token"`
	Usuario *model.Usuario `json:"usuario"`
}

type UsuarioService interface {
	Create(ctx context.Context, actor policy.Actor, req CreateUsuarioRequest) (*model.Usuario, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Me(ctx context.Context, actor policy.Actor) (*model.Usuario, error)
	List(ctx context.Context, actor policy.Actor, rol model.Rol, page, limit int) ([]model.Usuario, int64, error)
	EnsureSuperuser(ctx context.Context, username, email, password string) error
}

type usuarioService struct {
	repo     repository.UsuarioRepository
	secret   []byte
	tokenTTL time.Duration
}

func NewUsuarioService(repo repository.UsuarioRepository, secret []byte, tokenTTL time.Duration) UsuarioService {
	return &usuarioService{repo: repo, secret: secret, tokenTTL: tokenTTL}
}

// Create registers a user. Superusers may create any user; recepcion may only register citizens.
func (s *usuarioService) Create(ctx context.Context, actor policy.Actor, req CreateUsuarioRequest) (*model.Usuario, error) {
	if !policy.CanPerform(actor, policy.GestionarUsuarios, "", policy.Relationship{}) {
		if req.Rol != model.RolCiudadano || req.EsSuperusuario {
			return nil, apperror.Forbidden("Solo puede registrar ciudadanos")
		}
		if err := authorize(actor, policy.RegistrarCiudadano, "", policy.Relationship{}); err != nil {
			return nil, err
		}
	}

	usuario, err := s.validar(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, usuario); err != nil {
		return nil, fmt.Errorf("failed to create usuario: %w", err)
	}
	return usuario, nil
}

func (s *usuarioService) validar(ctx context.Context, req CreateUsuarioRequest) (*model.Usuario, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if username == "" {
		return nil, apperror.Validation("username", campoVacio)
	}
	if !emailRegex.MatchString(email) {
		return nil, apperror.Validation("email", "Introduzca una dirección de correo válida")
	}
	if len(req.Password) < 6 {
		return nil, apperror.Validation("password", "La contraseña debe tener al menos 6 caracteres")
	}
	if !req.Rol.Valid() {
		return nil, apperror.Validation("rol", "Rol no válido: %q", req.Rol)
	}

	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return nil, apperror.Validation("username", "Ya existe un usuario con este nombre")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, apperror.Validation("email", "Ya existe un usuario con este correo")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	cedula := trimmedOrNil(req.Cedula)
	if cedula != nil && *cedula == "" {
		cedula = nil
	}

	return &model.Usuario{
		Username:       username,
		Email:          email,
		Password:       string(hashed),
		Nombre:         strings.TrimSpace(req.Nombre),
		Rol:            req.Rol,
		EsSuperusuario: req.EsSuperusuario,
		Cedula:         cedula,
		Telefono:       strings.TrimSpace(req.Telefono),
		Direccion:      strings.TrimSpace(req.Direccion),
	}, nil
}

func (s *usuarioService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	ident := strings.TrimSpace(req.Username)

	usuario, err := s.repo.GetByUsername(ctx, ident)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		usuario, err = s.repo.GetByEmail(ctx, strings.ToLower(ident))
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load usuario: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(usuario.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := jwtutil.GenerateToken(s.secret, usuario.ID, string(usuario.Rol), usuario.EsSuperusuario, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{Token: token, Usuario: usuario}, nil
}

func (s *usuarioService) Me(ctx context.Context, actor policy.Actor) (*model.Usuario, error) {
	usuario, err := s.repo.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, loadErr(err, "Usuario", actor.ID)
	}
	return usuario, nil
}

func (s *usuarioService) List(ctx context.Context, actor policy.Actor, rol model.Rol, page, limit int) ([]model.Usuario, int64, error) {
	if err := authorize(actor, policy.VerUsuarios, "", policy.Relationship{}); err != nil {
		return nil, 0, err
	}
	if rol != "" && !rol.Valid() {
		return nil, 0, apperror.Validation("rol", "Rol no válido: %q", rol)
	}
	page, limit = normalizePage(page, limit)

	usuarios, total, err := s.repo.List(ctx, rol, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list usuarios: %w", err)
	}
	return usuarios, total, nil
}

// EnsureSuperuser creates the bootstrap superuser unless a user with that email exists
func (s *usuarioService) EnsureSuperuser(ctx context.Context, username, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check superuser: %w", err)
	}

	usuario, err := s.validar(ctx, CreateUsuarioRequest{
		Username:       username,
		Email:          email,
		Password:       password,
		Nombre:         "Administrador",
		Rol:            model.RolRecepcion,
		EsSuperusuario: true,
	})
	if err != nil {
		return fmt.Errorf("invalid superuser settings: %w", err)
	}
	if err := s.repo.Create(ctx, usuario); err != nil {
		return fmt.Errorf("failed to create superuser: %w", err)
	}

	logger.FromContext(ctx).Info("Superuser created", zap.String("username", usuario.Username), zap.String("id", usuario.ID.String()))
	return nil
}
