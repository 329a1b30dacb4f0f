package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/vidnest/vidnest-go/internal/middleware"
	"github.com/vidnest/vidnest-go/internal/service"
)

type SubscriptionHandler struct {
	svc *service.SubscriptionService
}

func NewSubscriptionHandler(svc *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{svc: svc}
}

// Toggle handles POST /subscriptions/c/:channelId
func (h *SubscriptionHandler) Toggle(c fiber.Ctx) error {
	channel, err := objectIDParam(c, "channelId")
	if err != nil {
		return err
	}
	res, err := h.svc.Toggle(c.Context(), middleware.PrincipalFrom(c), channel)
	if err != nil {
		return err
	}
	return toggled(c, res, "Subscribed successfully", "Unsubscribed successfully")
}

// Subscribers handles GET /subscriptions/c/:channelId?page=&limit=
func (h *SubscriptionHandler) Subscribers(c fiber.Ctx) error {
	channel, err := objectIDParam(c, "channelId")
	if err != nil {
		return err
	}
	req, err := pageRequest(c)
	if err != nil {
		return err
	}
	page, err := h.svc.Subscribers(c.Context(), middleware.PrincipalFrom(c), channel, req)
	if err != nil {
		return err
	}
	return success(c, page, "Subscribers fetched successfully")
}

// SubscribedChannels handles GET /subscriptions/u/:subscriberId?page=&limit=
func (h *SubscriptionHandler) SubscribedChannels(c fiber.Ctx) error {
	subscriber, err := objectIDParam(c, "subscriberId")
	if err != nil {
		return err
	}
	req, err := pageRequest(c)
	if err != nil {
		return err
	}
	page, err := h.svc.SubscribedChannels(c.Context(), subscriber, req)
	if err != nil {
		return err
	}
	return success(c, page, "Subscribed channels fetched successfully")
}
