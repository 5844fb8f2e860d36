package handlers

import (
	"errors"

	"github.com/collabserve/collabserve/internal/config"
	"github.com/collabserve/collabserve/internal/services"
	"github.com/collabserve/collabserve/internal/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AuthHandler handles account registration and login
type AuthHandler struct {
	DB  *gorm.DB
	Cfg *config.Config
}

type credentialsBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/auth/register
// @Summary Register a new user
// @Description Create an account from an email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body credentialsBody true "Credentials"
// @Success 201 {object} utils.MessageResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var body credentialsBody
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "auth.validation.input")
	}

	_, err := services.RegisterUser(h.DB, body.Email, body.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDuplicateEmail):
			return utils.ErrorResponse(c, "User already exists", fiber.StatusBadRequest, "auth.register.duplicate")
		case errors.Is(err, services.ErrValidation):
			return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "auth.validation.input")
		default:
			return utils.ErrorResponse(c, "Error registering user", fiber.StatusInternalServerError, "auth.register")
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"ok":      true,
	})
}

// Login handles POST /api/auth/login
// @Summary Login
// @Description Verify credentials and issue a bearer token
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body credentialsBody true "Credentials"
// @Success 200 {object} map[string]string
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var body credentialsBody
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "auth.validation.input")
	}

	token, err := services.LoginUser(h.DB, h.Cfg, body.Email, body.Password)
	if err != nil {
		if errors.Is(err, services.ErrUnauthorized) {
			return utils.ErrorResponse(c, "Invalid email or password", fiber.StatusBadRequest, "auth.login.credentials")
		}
		return utils.ErrorResponse(c, "Error logging in", fiber.StatusInternalServerError, "auth.login")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"token": token})
}
