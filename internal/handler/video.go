package handler

import (
	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidnest/vidnest-go/internal/apperr"
	"github.com/vidnest/vidnest-go/internal/middleware"
	"github.com/vidnest/vidnest-go/internal/model"
	"github.com/vidnest/vidnest-go/internal/service"
)

type VideoHandler struct {
	svc *service.VideoService
}

func NewVideoHandler(svc *service.VideoService) *VideoHandler {
	return &VideoHandler{svc: svc}
}

// List handles GET /videos?query=&sortBy=&sortType=&userId=&page=&limit=
func (h *VideoHandler) List(c fiber.Ctx) error {
	req, err := pageRequest(c)
	if err != nil {
		return err
	}
	query, msg := middleware.ValidateSearchQuery(c.Query("query"))
	if msg != "" {
		return apperr.Validation("%s", msg)
	}
	var owner bson.ObjectID
	if raw := c.Query("userId"); raw != "" {
		if owner, msg = middleware.ValidateObjectID(raw, "userId"); msg != "" {
			return apperr.Validation("%s", msg)
		}
	}

	page, err := h.svc.List(c.Context(), middleware.PrincipalFrom(c), service.ListVideosQuery{
		Query:    query,
		SortBy:   c.Query("sortBy"),
		SortType: c.Query("sortType"),
		UserID:   owner,
	}, req)
	if err != nil {
		return err
	}
	return success(c, page, "Videos fetched successfully")
}

// Publish handles POST /videos (multipart: title, description, duration,
// videoFile, thumbnail)
func (h *VideoHandler) Publish(c fiber.Ctx) error {
	var body model.PublishVideoRequest
	if err := bind(c, &body); err != nil {
		return err
	}

	up := newUploads(c)
	defer up.Close()
	videoFile, err := up.one("videoFile")
	if err != nil {
		return err
	}
	thumbnail, err := up.one("thumbnail")
	if err != nil {
		return err
	}

	v, err := h.svc.Publish(c.Context(), middleware.PrincipalFrom(c), body, videoFile, thumbnail)
	if err != nil {
		return err
	}
	return created(c, v, "Video uploaded successfully")
}

// Get handles GET /videos/:videoId
func (h *VideoHandler) Get(c fiber.Ctx) error {
	id, err := objectIDParam(c, "videoId")
	if err != nil {
		return err
	}
	v, err := h.svc.Get(c.Context(), middleware.PrincipalFrom(c), id)
	if err != nil {
		return err
	}
	return success(c, v, "Video fetched successfully")
}

// Update handles PATCH /videos/:videoId (title, description, optional
// thumbnail file)
func (h *VideoHandler) Update(c fiber.Ctx) error {
	id, err := objectIDParam(c, "videoId")
	if err != nil {
		return err
	}
	var body model.UpdateVideoRequest
	if err := bind(c, &body); err != nil {
		return err
	}

	up := newUploads(c)
	defer up.Close()
	thumbnail, err := up.one("thumbnail")
	if err != nil {
		return err
	}

	v, err := h.svc.Update(c.Context(), middleware.PrincipalFrom(c), id, body, thumbnail)
	if err != nil {
		return err
	}
	return success(c, v, "Video updated successfully")
}

// Delete handles DELETE /videos/:videoId
func (h *VideoHandler) Delete(c fiber.Ctx) error {
	id, err := objectIDParam(c, "videoId")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Context(), middleware.PrincipalFrom(c), id); err != nil {
		return err
	}
	return success(c, fiber.Map{"videoId": id}, "Video deleted successfully")
}

// TogglePublish handles PATCH /videos/toggle/publish/:videoId
func (h *VideoHandler) TogglePublish(c fiber.Ctx) error {
	id, err := objectIDParam(c, "videoId")
	if err != nil {
		return err
	}
	v, err := h.svc.TogglePublish(c.Context(), middleware.PrincipalFrom(c), id)
	if err != nil {
		return err
	}
	return success(c, v, "Publish status toggled")
}
