package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/vidnest/vidnest-go/internal/middleware"
	"github.com/vidnest/vidnest-go/internal/model"
	"github.com/vidnest/vidnest-go/internal/service"
)

type TweetHandler struct {
	svc *service.TweetService
}

func NewTweetHandler(svc *service.TweetService) *TweetHandler {
	return &TweetHandler{svc: svc}
}

// Create handles POST /tweets (JSON, or multipart with up to four images)
func (h *TweetHandler) Create(c fiber.Ctx) error {
	var body model.TweetRequest
	if err := bind(c, &body); err != nil {
		return err
	}

	up := newUploads(c)
	defer up.Close()
	images, err := up.many("images")
	if err != nil {
		return err
	}

	t, err := h.svc.Create(c.Context(), middleware.PrincipalFrom(c), body, images)
	if err != nil {
		return err
	}
	return created(c, t, "Tweet created successfully")
}

// ListForUser handles GET /tweets/user/:userId?page=&limit=
func (h *TweetHandler) ListForUser(c fiber.Ctx) error {
	owner, err := objectIDParam(c, "userId")
	if err != nil {
		return err
	}
	req, err := pageRequest(c)
	if err != nil {
		return err
	}
	page, err := h.svc.ListForUser(c.Context(), middleware.PrincipalFrom(c), owner, req)
	if err != nil {
		return err
	}
	return success(c, page, "User tweets fetched successfully")
}

// Update handles PATCH /tweets/:tweetId
func (h *TweetHandler) Update(c fiber.Ctx) error {
	id, err := objectIDParam(c, "tweetId")
	if err != nil {
		return err
	}
	var body model.TweetRequest
	if err := bind(c, &body); err != nil {
		return err
	}
	t, err := h.svc.Update(c.Context(), middleware.PrincipalFrom(c), id, body)
	if err != nil {
		return err
	}
	return success(c, t, "Tweet updated successfully")
}

// Delete handles DELETE /tweets/:tweetId
func (h *TweetHandler) Delete(c fiber.Ctx) error {
	id, err := objectIDParam(c, "tweetId")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Context(), middleware.PrincipalFrom(c), id); err != nil {
		return err
	}
	return success(c, fiber.Map{"tweetId": id}, "Tweet deleted successfully")
}
