package handler

import (
	"github.com/labstack/echo/v4"

	"hajzi/internal/adapter/api/middleware"
	"hajzi/internal/usecase"
	"hajzi/pkg/errors"
	"hajzi/pkg/response"
)

type SlotHandler struct {
	slotUseCase *usecase.SlotUseCase
}

func NewSlotHandler(slotUseCase *usecase.SlotUseCase) *SlotHandler {
	return &SlotHandler{
		slotUseCase: slotUseCase,
	}
}

type slotRequest struct {
	ResourceID string `json:"resourceId" validate:"required"`
	Date       string `json:"date" validate:"required"`
	Time       string `json:"time" validate:"required"`
	Duration   int    `json:"duration" validate:"omitempty,min=1,max=1440"`
}

type rescheduleSlotRequest struct {
	ResourceID string `json:"resourceId" validate:"required"`
	Date       string `json:"date" validate:"required"`
	Time       string `json:"time" validate:"required"`
	NewTime    string `json:"newTime" validate:"required"`
	Duration   int    `json:"duration" validate:"omitempty,min=1,max=1440"`
}

func (r slotRequest) key(actor string) usecase.SlotInput {
	return usecase.SlotInput{ResourceID: r.ResourceID, Date: r.Date, Time: r.Time, Actor: actor}
}

func (h *SlotHandler) bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errors.Validation("Invalid request body", err)
	}
	return c.Validate(req)
}

func (h *SlotHandler) ListSlots(c echo.Context) error {
	slots, err := h.slotUseCase.ListSlots(c.Request().Context(), c.Param("resourceId"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, slots)
}

func (h *SlotHandler) CreateSlot(c echo.Context) error {
	var req slotRequest
	if err := h.bind(c, &req); err != nil {
		return response.Error(c, err)
	}

	slot, err := h.slotUseCase.CreateSlot(c.Request().Context(), usecase.CreateSlotInput{
		SlotInput: req.key(middleware.Identity(c)),
		Duration:  req.Duration,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, slot)
}

// BookSlot books the slot for the authenticated caller.
func (h *SlotHandler) BookSlot(c echo.Context) error {
	var req slotRequest
	if err := h.bind(c, &req); err != nil {
		return response.Error(c, err)
	}

	slot, err := h.slotUseCase.BookSlot(c.Request().Context(), usecase.BookSlotInput{
		SlotInput: req.key(""),
		Requester: middleware.Identity(c),
		Duration:  req.Duration,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, slot)
}

func (h *SlotHandler) ReleaseSlot(c echo.Context) error {
	var req slotRequest
	if err := h.bind(c, &req); err != nil {
		return response.Error(c, err)
	}

	slot, err := h.slotUseCase.ReleaseSlot(c.Request().Context(), req.key(middleware.Identity(c)))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, slot)
}

func (h *SlotHandler) RescheduleSlot(c echo.Context) error {
	var req rescheduleSlotRequest
	if err := h.bind(c, &req); err != nil {
		return response.Error(c, err)
	}

	slot, err := h.slotUseCase.RescheduleSlot(c.Request().Context(), usecase.RescheduleSlotInput{
		SlotInput: usecase.SlotInput{
			ResourceID: req.ResourceID,
			Date:       req.Date,
			Time:       req.Time,
			Actor:      middleware.Identity(c),
		},
		NewTime:   req.NewTime,
		Duration:  req.Duration,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, slot)
}

// DeleteSlots removes one slot when date and time are given, otherwise every
// slot of the resource.
func (h *SlotHandler) DeleteSlots(c echo.Context) error {
	resourceID := c.Param("resourceId")
	date, t := c.QueryParam("date"), c.QueryParam("time")

	if date == "" && t == "" {
		removed, err := h.slotUseCase.DeleteAllSlots(c.Request().Context(), resourceID, middleware.Identity(c))
		if err != nil {
			return response.Error(c, err)
		}
		return response.Success(c, map[string]interface{}{
			"resourceId": resourceID,
			"deleted":    removed,
		})
	}

	err := h.slotUseCase.DeleteSlot(c.Request().Context(), usecase.SlotInput{
		ResourceID: resourceID,
		Date:       date,
		Time:       t,
		Actor:      middleware.Identity(c),
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]interface{}{
		"resourceId": resourceID,
		"deleted":    1,
	})
}
