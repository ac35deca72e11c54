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

type memberHandler struct {
	muc domain.MemberUseCase
}

func NewMemberDelivery(router fiber.Router, uc domain.MemberUseCase) {
	handler := &memberHandler{
		muc: uc,
	}

	route := router.Group("/family")
	route.Post("/", middleware.AuthRequired(), middleware.PaidRequired(), handler.CreateMember)
	route.Get("/member/:id", middleware.AuthRequired(), middleware.PaidRequired(), handler.GetMemberByID)
	route.Get("/:user_id", middleware.AuthRequired(), middleware.PaidRequired(), handler.GetFamilyForest)
	route.Put("/:id", middleware.AuthRequired(), middleware.PaidRequired(), handler.UpdateMember)
	route.Delete("/:id", middleware.AuthRequired(), middleware.PaidRequired(), handler.DeleteMember)
}

func parseMemberForm(c *fiber.Ctx) (*domain.MemberForm, *multipart.FileHeader) {
	form := &domain.MemberForm{
		Name:       formValue(c, "name"),
		Relation:   formValue(c, "relation"),
		Gender:     formValue(c, "gender"),
		DOB:        formValue(c, "dob"),
		Occupation: formValue(c, "occupation"),
		ParentID:   formValue(c, "parentId"),
		Address: domain.Address{
			HouseNo: formValue(c, "address_houseNo"),
			Place:   formValue(c, "address_place"),
			City:    formValue(c, "address_city"),
			State:   formValue(c, "address_state"),
			Country: formValue(c, "address_country"),
		},
	}

	photo, err := c.FormFile("photo")
	if err != nil {
		photo = nil
	}
	return form, photo
}

func (mh *memberHandler) CreateMember(c *fiber.Ctx) error {
	userToken := claimsOf(c)
	form, photo := parseMemberForm(c)

	member, err := mh.muc.CreateMember(c.Context(), userToken.UserID, form, photo)
	if err != nil {
		return fail(c, &userToken.Username, "CreateMember", "Failed to create member", err)
	}

	config.PrintLogInfo(&userToken.Username, fiber.StatusCreated, "CreateMember")
	return c.Status(fiber.StatusCreated).JSON(domain.Response{
		Success: true,
		Message: "Member created successfully",
		Data:    member,
	})
}

func (mh *memberHandler) UpdateMember(c *fiber.Ctx) error {
	userToken := claimsOf(c)
	form, photo := parseMemberForm(c)

	member, err := mh.muc.UpdateMember(c.Context(), userToken.UserID, c.Params("id"), form, photo)
	if err != nil {
		return fail(c, &userToken.Username, "UpdateMember", "Failed to update member", err)
	}

	config.PrintLogInfo(&userToken.Username, fiber.StatusOK, "UpdateMember")
	return c.Status(fiber.StatusOK).JSON(domain.Response{
		Success: true,
		Message: "Member updated successfully",
		Data:    member,
	})
}

func (mh *memberHandler) GetMemberByID(c *fiber.Ctx) error {
	userToken := claimsOf(c)

	member, err := mh.muc.GetMemberByID(c.Context(), userToken.UserID, c.Params("id"))
	if err != nil {
		return fail(c, &userToken.Username, "GetMemberByID", "Failed to load member", err)
	}

	config.PrintLogInfo(&userToken.Username, fiber.StatusOK, "GetMemberByID")
	return c.Status(fiber.StatusOK).JSON(domain.Response{
		Success: true,
		Message: "Member retrieved successfully",
		Data:    member,
	})
}

func (mh *memberHandler) GetFamilyForest(c *fiber.Ctx) error {
	userToken := claimsOf(c)

	userID, err := strconv.Atoi(c.Params("user_id"))
	if err != nil {
		config.PrintLogInfo(&userToken.Username, fiber.StatusBadRequest, "GetFamilyForest")
		return c.Status(fiber.StatusBadRequest).JSON(domain.Response{
			Success: false,
			Message: "Invalid user id",
			Error:   err.Error(),
		})
	}
	if userID != userToken.UserID {
		config.PrintLogInfo(&userToken.Username, fiber.StatusForbidden, "GetFamilyForest")
		return c.Status(fiber.StatusForbidden).JSON(domain.Response{
			Success: false,
			Message: "You can only view your own family tree",
		})
	}

	forest, err := mh.muc.GetFamilyForest(c.Context(), userID)
	if err != nil {
		return fail(c, &userToken.Username, "GetFamilyForest", "Failed to load tree", err)
	}

	config.PrintLogInfo(&userToken.Username, fiber.StatusOK, "GetFamilyForest")
	return c.Status(fiber.StatusOK).JSON(domain.Response{
		Success: true,
		Message: "Family tree retrieved successfully",
		Data:    forest,
	})
}

func (mh *memberHandler) DeleteMember(c *fiber.Ctx) error {
	userToken := claimsOf(c)

	n, err := mh.muc.DeleteMember(c.Context(), userToken.UserID, c.Params("id"))
	if err != nil {
		return fail(c, &userToken.Username, "DeleteMember", "Failed to delete member", err)
	}

	config.PrintLogInfo(&userToken.Username, fiber.StatusOK, "DeleteMember")
	return c.Status(fiber.StatusOK).JSON(domain.Response{
		Success: true,
		Message: fmt.Sprintf("Deleted %d member(s)", n),
		Data:    fiber.Map{"deletedMembers": n},
	})
}
