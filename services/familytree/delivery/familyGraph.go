package delivery

import (
	"fmt"
	"mime/multipart"
	"strconv"

	"familytree/config"
	"familytree/domain"
	"familytree/middleware"

	"github.com/gofiber/fiber/v2"
)

type familyGraphHandler struct {
	guc domain.FamilyGraphUseCase
}

func NewFamilyGraphDelivery(router fiber.Router, uc domain.FamilyGraphUseCase) {
	handler := &familyGraphHandler{
		guc: uc,
	}

	route := router.Group("/family-tree")
	route.Get("/", middleware.AuthRequired(), middleware.PaidRequired(), handler.GetGraph)
	route.Post("/node", middleware.AuthRequired(), middleware.PaidRequired(), handler.CreateNode)
	route.Put("/node/:id", middleware.AuthRequired(), middleware.PaidRequired(), handler.UpdateNode)
	route.Put("/save", middleware.AuthRequired(), middleware.PaidRequired(), handler.SaveGraph)
	route.Delete("/node/:id", middleware.AuthRequired(), middleware.PaidRequired(), handler.DeleteNode)
	route.Delete("/clear-all", middleware.AuthRequired(), middleware.PaidRequired(), handler.ClearAll)
	route.Post("/nuclear-delete", middleware.AuthRequired(), middleware.PaidRequired(), handler.WipeAll)
}

func parseNodeForm(c *fiber.Ctx) (*domain.NodeForm, *multipart.FileHeader, error) {
	form := &domain.NodeForm{
		NodeID:      formValue(c, "nodeId"),
		Name:        formValue(c, "name"),
		DateOfBirth: formValue(c, "dateOfBirth"),
		DateOfDeath: formValue(c, "dateOfDeath"),
		Gender:      formValue(c, "gender"),
		Occupation:  formValue(c, "occupation"),
		Location:    formValue(c, "location"),
		Notes:       formValue(c, "notes"),
	}

	x, y := formValue(c, "positionX"), formValue(c, "positionY")
	if x != "" || y != "" {
		px, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid positionX %q", domain.ErrValidation, x)
		}
		py, err := strconv.ParseFloat(y, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid positionY %q", domain.ErrValidation, y)
		}
		form.Position = &domain.Position{X: px, Y: py}
	}

	photo, err := c.FormFile("photo")
	if err != nil {
		photo = nil
	}
	return form, photo, nil
}

func (gh *familyGraphHandler) GetGraph(c *fiber.Ctx) error {
	userToken := claimsOf(c)

	graph, err := gh.guc.GetGraph(c.Context(), userToken.UserID)
	if err != nil {
		return fail(c, &userToken.Username, "GetGraph", "Failed to load family tree", err)
	}

	config.PrintLogInfo(&userToken.Username, fiber.StatusOK, "GetGraph")
	return c.Status(fiber.StatusOK).JSON(domain.Response{
		Success: true,
		Message: "Family tree retrieved successfully",
		Data:    graph,
	})
}

func (gh *familyGraphHandler) CreateNode(c *fiber.Ctx) error {
	userToken := claimsOf(c)

	form, photo, err := parseNodeForm(c)
	if err != nil {
		return fail(c, &userToken.Username, "CreateNode", "Invalid data", err)
	}

	node, err := gh.guc.CreateNode(c.Context(), userToken.UserID, form, photo)
	if err != nil {
		return fail(c, &userToken.Username, "CreateNode", "Failed to add family member", err)
	}

	config.PrintLogInfo(&userToken.Username, fiber.StatusCreated, "CreateNode")
	return c.Status(fiber.StatusCreated).JSON(domain.Response{
		Success: true,
		Message: "Family member added successfully",
		Data:    node,
	})
}

func (gh *familyGraphHandler) UpdateNode(c *fiber.Ctx) error {
	userToken := claimsOf(c)

	form, photo, err := parseNodeForm(c)
	if err != nil {
		return fail(c, &userToken.Username, "UpdateNode", "Invalid data", err)
	}

	node, err := gh.guc.UpdateNode(c.Context(), userToken.UserID, c.Params("id"), form, photo)
	if err != nil {
		return fail(c, &userToken.Username, "UpdateNode", "Failed to update family member", err)
	}

	config.PrintLogInfo(&userToken.Username, fiber.StatusOK, "UpdateNode")
	return c.Status(fiber.StatusOK).JSON(domain.Response{
		Success: true,
		Message: "Family member updated successfully",
		Data:    node,
	})
}

func (gh *familyGraphHandler) SaveGraph(c *fiber.Ctx) error {
	userToken := claimsOf(c)

	var graph domain.FamilyGraph
	if err := c.BodyParser(&graph); err != nil {
		config.PrintLogInfo(&userToken.Username, fiber.StatusBadRequest, "SaveGraph")
		return c.Status(fiber.StatusBadRequest).JSON(domain.Response{
			Success: false,
			Message: "Invalid data",
			Error:   err.Error(),
		})
	}

	if err := gh.guc.SaveGraph(c.Context(), userToken.UserID, &graph); err != nil {
		return fail(c, &userToken.Username, "SaveGraph", "Failed to save family tree", err)
	}

	config.PrintLogInfo(&userToken.Username, fiber.StatusOK, "SaveGraph")
	return c.Status(fiber.StatusOK).JSON(domain.Response{
		Success: true,
		Message: "Family tree saved successfully",
		Data:    graph,
	})
}

func (gh *familyGraphHandler) DeleteNode(c *fiber.Ctx) error {
	userToken := claimsOf(c)

	summary, err := gh.guc.DeleteNode(c.Context(), userToken.UserID, c.Params("id"))
	if err != nil {
		return fail(c, &userToken.Username, "DeleteNode", "Failed to delete family member", err)
	}

	config.PrintLogInfo(&userToken.Username, fiber.StatusOK, "DeleteNode")
	return c.Status(fiber.StatusOK).JSON(domain.Response{
		Success: true,
		Message: fmt.Sprintf("Deleted family member and %d connection(s)", summary.DeletedConnections),
		Data:    summary,
	})
}

func parseConfirm(c *fiber.Ctx) string {
	var req domain.ConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return ""
	}
	return req.Confirm
}

func (gh *familyGraphHandler) ClearAll(c *fiber.Ctx) error {
	userToken := claimsOf(c)

	summary, err := gh.guc.ClearAll(c.Context(), userToken.UserID, parseConfirm(c))
	if err != nil {
		return fail(c, &userToken.Username, "ClearAll", "Failed to clear family tree", err)
	}

	config.PrintLogInfo(&userToken.Username, fiber.StatusOK, "ClearAll")
	return c.Status(fiber.StatusOK).JSON(domain.Response{
		Success: true,
		Message: fmt.Sprintf("Cleared %d node(s) and %d connection(s)", summary.DeletedNodes, summary.DeletedConnections),
		Data:    summary,
	})
}

func (gh *familyGraphHandler) WipeAll(c *fiber.Ctx) error {
	userToken := claimsOf(c)

	summary, err := gh.guc.WipeAll(c.Context(), parseConfirm(c))
	if err != nil {
		return fail(c, &userToken.Username, "WipeAll", "Failed to wipe family tree data", err)
	}

	config.PrintLogInfo(&userToken.Username, fiber.StatusOK, "WipeAll")
	return c.Status(fiber.StatusOK).JSON(domain.Response{
		Success: true,
		Message: fmt.Sprintf("Wiped %d node(s) and %d connection(s)", summary.DeletedNodes, summary.DeletedConnections),
		Data:    summary,
	})
}
