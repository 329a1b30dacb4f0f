package handler

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"github.com/vidnest/vidnest-go/internal/apperr"
	"github.com/vidnest/vidnest-go/internal/media"
	"github.com/vidnest/vidnest-go/internal/middleware"
	"github.com/vidnest/vidnest-go/internal/model"
	"github.com/vidnest/vidnest-go/internal/service"
)

type imageUpdater func(ctx context.Context, p model.Principal, obj *media.Object) (model.User, error)

type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// Register handles POST /users/register (multipart: username, email,
// fullName, password, avatar, optional coverImage)
func (h *UserHandler) Register(c fiber.Ctx) error {
	var body model.RegisterRequest
	if err := bind(c, &body); err != nil {
		return err
	}
	if _, msg := middleware.ValidateUsername(body.Username); msg != "" {
		return apperr.Validation("%s", msg)
	}

	up := newUploads(c)
	defer up.Close()
	avatar, err := up.one("avatar")
	if err != nil {
		return err
	}
	cover, err := up.one("coverImage")
	if err != nil {
		return err
	}

	u, err := h.svc.Register(c.Context(), body, avatar, cover)
	if err != nil {
		return err
	}
	return created(c, u, "User registered successfully")
}

// ChannelProfile handles GET /users/c/:username
func (h *UserHandler) ChannelProfile(c fiber.Ctx) error {
	username, msg := middleware.ValidateUsername(c.Params("username"))
	if msg != "" {
		return apperr.Validation("%s", msg)
	}
	profile, err := h.svc.ChannelProfile(c.Context(), middleware.PrincipalFrom(c), username)
	if err != nil {
		return err
	}
	return success(c, profile, "User channel fetched successfully")
}

// WatchHistory handles GET /users/history
func (h *UserHandler) WatchHistory(c fiber.Ctx) error {
	history, err := h.svc.WatchHistory(c.Context(), middleware.PrincipalFrom(c))
	if err != nil {
		return err
	}
	return success(c, history, "Watch history fetched successfully")
}

// Current handles GET /users/me
func (h *UserHandler) Current(c fiber.Ctx) error {
	u, err := h.svc.Current(c.Context(), middleware.PrincipalFrom(c))
	if err != nil {
		return err
	}
	return success(c, u, "Current user fetched successfully")
}

// UpdateAccount handles PATCH /users/account (json: fullName, email)
func (h *UserHandler) UpdateAccount(c fiber.Ctx) error {
	var body model.UpdateAccountRequest
	if err := bind(c, &body); err != nil {
		return err
	}
	u, err := h.svc.UpdateAccount(c.Context(), middleware.PrincipalFrom(c), body)
	if err != nil {
		return err
	}
	return success(c, u, "Account details updated successfully")
}

// UpdateAvatar handles PATCH /users/avatar (multipart: avatar)
func (h *UserHandler) UpdateAvatar(c fiber.Ctx) error {
	return h.replaceImage(c, "avatar", h.svc.UpdateAvatar, "Avatar updated successfully")
}

// UpdateCoverImage handles PATCH /users/cover-image (multipart: coverImage)
func (h *UserHandler) UpdateCoverImage(c fiber.Ctx) error {
	return h.replaceImage(c, "coverImage", h.svc.UpdateCoverImage, "Cover image updated successfully")
}

// DeleteAccount handles DELETE /users/me
func (h *UserHandler) DeleteAccount(c fiber.Ctx) error {
	report, err := h.svc.DeleteAccount(c.Context(), middleware.PrincipalFrom(c))
	if err != nil {
		return err
	}
	return success(c, report, "Account deleted successfully")
}

func (h *UserHandler) replaceImage(c fiber.Ctx, field string, update imageUpdater, message string) error {
	up := newUploads(c)
	defer up.Close()
	obj, err := up.one(field)
	if err != nil {
		return err
	}
	if obj == nil {
		return apperr.Validation("%s file is required", field)
	}
	u, err := update(c.Context(), middleware.PrincipalFrom(c), obj)
	if err != nil {
		return err
	}
	return success(c, u, message)
}
