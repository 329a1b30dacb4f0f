package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/vidnest/vidnest-go/internal/middleware"
	"github.com/vidnest/vidnest-go/internal/model"
	"github.com/vidnest/vidnest-go/internal/service"
)

type CommentHandler struct {
	svc *service.CommentService
}

func NewCommentHandler(svc *service.CommentService) *CommentHandler {
	return &CommentHandler{svc: svc}
}

// List handles GET /comments/:videoId?page=&limit=
func (h *CommentHandler) List(c fiber.Ctx) error {
	videoID, err := objectIDParam(c, "videoId")
	if err != nil {
		return err
	}
	req, err := pageRequest(c)
	if err != nil {
		return err
	}
	page, err := h.svc.List(c.Context(), middleware.PrincipalFrom(c), videoID, req)
	if err != nil {
		return err
	}
	return success(c, page, "Comments fetched successfully")
}

// Add handles POST /comments/:videoId
func (h *CommentHandler) Add(c fiber.Ctx) error {
	videoID, err := objectIDParam(c, "videoId")
	if err != nil {
		return err
	}
	var body model.CommentRequest
	if err := bind(c, &body); err != nil {
		return err
	}
	comment, err := h.svc.Add(c.Context(), middleware.PrincipalFrom(c), videoID, body)
	if err != nil {
		return err
	}
	return created(c, comment, "Comment added successfully")
}

// Update handles PATCH /comments/c/:commentId
func (h *CommentHandler) Update(c fiber.Ctx) error {
	id, err := objectIDParam(c, "commentId")
	if err != nil {
		return err
	}
	var body model.CommentRequest
	if err := bind(c, &body); err != nil {
		return err
	}
	comment, err := h.svc.Update(c.Context(), middleware.PrincipalFrom(c), id, body)
	if err != nil {
		return err
	}
	return success(c, comment, "Comment updated successfully")
}

// Delete handles DELETE /comments/c/:commentId
func (h *CommentHandler) Delete(c fiber.Ctx) error {
	id, err := objectIDParam(c, "commentId")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Context(), middleware.PrincipalFrom(c), id); err != nil {
		return err
	}
	return success(c, fiber.Map{"commentId": id}, "Comment deleted successfully")
}
