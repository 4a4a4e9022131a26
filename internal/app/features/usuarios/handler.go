// internal/app/features/usuarios/handler.go

// Package usuarios covers registration, login and profile maintenance.
package usuarios

import (
	"context"
	"errors"
	"net/http"

	userstore "github.com/astren-app/astren/internal/app/store/users"
	"github.com/astren-app/astren/internal/app/system/auth"
	"github.com/astren-app/astren/internal/app/system/authutil"
	"github.com/astren-app/astren/internal/app/system/httpjson"
	"github.com/astren-app/astren/internal/app/system/normalize"
	"github.com/astren-app/astren/internal/app/system/ratelimit"
	"github.com/astren-app/astren/internal/app/system/timeouts"
	"github.com/astren-app/astren/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler holds the dependencies for user endpoints.
type Handler struct {
	Users  *userstore.Store
	Limits *ratelimit.LoginLimiter
	Log    *zap.Logger
}

// NewHandler constructs a usuarios Handler.
func NewHandler(users *userstore.Store, limits *ratelimit.LoginLimiter, logger *zap.Logger) *Handler {
	return &Handler{Users: users, Limits: limits, Log: logger}
}

type registerRequest struct {
	Nombre   string `json:"nombre"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Telefono string `json:"telefono"`
}

// ServeRegister handles POST /usuarios.
func (h *Handler) ServeRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}

	req.Nombre = normalize.Name(req.Nombre)
	req.Email = normalize.Email(req.Email)
	if req.Nombre == "" || req.Email == "" || len(req.Password) < 8 {
		httpjson.Error(w, http.StatusBadRequest, "nombre, email y password (mínimo 8 caracteres) son obligatorios")
		return
	}

	hash, err := authutil.HashPassword(req.Password)
	if err != nil {
		httpjson.Internal(w, h.Log, "register: hash password", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, err := h.Users.Create(ctx, models.User{
		Nombre:       req.Nombre,
		Email:        req.Email,
		PasswordHash: hash,
		Telefono:     normalize.Phone(req.Telefono),
	})
	switch {
	case errors.Is(err, userstore.ErrDuplicateEmail):
		httpjson.Error(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		httpjson.Internal(w, h.Log, "register: create user", err)
		return
	}

	httpjson.Write(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ServeLogin handles POST /login.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}
	req.Email = normalize.Email(req.Email)

	if h.Limits != nil {
		if allowed, reason := h.Limits.Check(r, req.Email); !allowed {
			httpjson.Error(w, http.StatusTooManyRequests, reason)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, err := h.Users.GetByEmail(ctx, req.Email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		httpjson.Error(w, http.StatusUnauthorized, "credenciales inválidas")
		return
	}
	if err != nil {
		httpjson.Internal(w, h.Log, "login: get user", err)
		return
	}
	if !authutil.CheckPassword(user.PasswordHash, req.Password) {
		httpjson.Error(w, http.StatusUnauthorized, "credenciales inválidas")
		return
	}

	if err := auth.SignIn(w, r, auth.SessionUser{
		ID:    user.ID.Hex(),
		Name:  user.Nombre,
		Email: user.Email,
	}); err != nil {
		httpjson.Internal(w, h.Log, "login: save session", err)
		return
	}

	if h.Limits != nil {
		h.Limits.ResetEmail(req.Email)
	}

	httpjson.Write(w, http.StatusOK, user)
}

// ServeGet handles GET /usuarios/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "id inválido")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		httpjson.Error(w, http.StatusNotFound, "usuario no encontrado")
		return
	}
	if err != nil {
		httpjson.Internal(w, h.Log, "get user", err)
		return
	}

	httpjson.Write(w, http.StatusOK, user)
}

type passwordRequest struct {
	PasswordActual string `json:"password_actual"`
	PasswordNueva  string `json:"password_nueva"`
}

// ServeUpdatePassword handles PUT /usuarios/{id}/password.
func (h *Handler) ServeUpdatePassword(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "id inválido")
		return
	}

	var req passwordRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}
	if len(req.PasswordNueva) < 8 {
		httpjson.Error(w, http.StatusBadRequest, "la nueva contraseña debe tener al menos 8 caracteres")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, err := h.Users.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		httpjson.Error(w, http.StatusNotFound, "usuario no encontrado")
		return
	}
	if err != nil {
		httpjson.Internal(w, h.Log, "update password: get user", err)
		return
	}
	if !authutil.CheckPassword(user.PasswordHash, req.PasswordActual) {
		httpjson.Error(w, http.StatusUnauthorized, "contraseña actual incorrecta")
		return
	}

	hash, err := authutil.HashPassword(req.PasswordNueva)
	if err != nil {
		httpjson.Internal(w, h.Log, "update password: hash", err)
		return
	}
	if err := h.Users.UpdatePassword(ctx, id, hash); err != nil {
		httpjson.Internal(w, h.Log, "update password: store", err)
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]string{"mensaje": "contraseña actualizada"})
}

type phoneRequest struct {
	Telefono string `json:"telefono"`
}

// ServeUpdatePhone handles PUT /usuarios/{id}/telefono.
func (h *Handler) ServeUpdatePhone(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "id inválido")
		return
	}

	var req phoneRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Users.UpdatePhone(ctx, id, normalize.Phone(req.Telefono)); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "usuario no encontrado")
			return
		}
		httpjson.Internal(w, h.Log, "update phone", err)
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]string{"mensaje": "teléfono actualizado"})
}
