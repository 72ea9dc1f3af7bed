package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/glacierai/auth-service/internal/api/metrics"
	"github.com/glacierai/auth-service/internal/api/middleware"
	"github.com/glacierai/auth-service/internal/core/domain"
	"github.com/glacierai/auth-service/internal/core/ports"
)

// AuthHandler exposes the credential and token lifecycle over HTTP.
type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a new customer account and returns a token pair.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  errorEnvelope
// @Failure      409   {object}  errorEnvelope
// @Failure      500   {object}  errorEnvelope
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) (err error) {
	defer track("register")(&err)

	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Register(c.Request().Context(), req.Email, req.Password, req.Name)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, envelope{
		Success: true,
		Message: "User registered successfully",
		Data:    toAuthData(res),
	})
}

// Login authenticates a user by email and password.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorEnvelope
// @Failure      401   {object}  errorEnvelope
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) (err error) {
	defer track("login")(&err)

	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, envelope{
		Success: true,
		Message: "Login successful",
		Data:    toAuthData(res),
	})
}

// Refresh exchanges a refresh token for a new token pair.
//
// @Summary      Refresh tokens
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  true  "Refresh token"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorEnvelope
// @Failure      401   {object}  errorEnvelope
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) (err error) {
	defer track("refresh")(&err)

	var req refreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.RefreshToken(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return unauthorizedIfUnknown(err)
	}

	return c.JSON(http.StatusOK, envelope{
		Success: true,
		Message: "Token refreshed successfully",
		Data:    toAuthData(res),
	})
}

// Validate resolves the bearer token to the user it was issued for.
//
// @Summary      Validate a token
// @Tags         auth
// @Produce      json
// @Param        Authorization  header    string  true  "Bearer <token>"
// @Success      200            {object}  userEnvelope
// @Failure      401            {object}  errorEnvelope
// @Router       /auth/validate [get]
func (h *AuthHandler) Validate(c echo.Context) (err error) {
	defer track("validate")(&err)

	token, err := middleware.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error()).SetInternal(domain.ErrInvalidToken)
	}

	user, err := h.authService.ValidateToken(c.Request().Context(), token)
	if err != nil {
		return unauthorizedIfUnknown(err)
	}

	return c.JSON(http.StatusOK, envelope{
		Success: true,
		Message: "Token is valid",
		Data:    toUserResponse(user),
	})
}

// GetUser returns an active user by id.
//
// @Summary      Get user by id
// @Tags         users
// @Produce      json
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  userEnvelope
// @Failure      404  {object}  errorEnvelope
// @Router       /auth/user/{id} [get]
func (h *AuthHandler) GetUser(c echo.Context) (err error) {
	defer track("get_user")(&err)

	user, err := h.authService.GetUserByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, envelope{Success: true, Data: toUserResponse(user)})
}

// Me returns the user behind the request's bearer token.
//
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userEnvelope
// @Failure      401  {object}  errorEnvelope
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, envelope{Success: true, Data: toUserResponse(user)})
}

// Health reports that the auth API is serving.
//
// @Summary      Auth service health
// @Tags         health
// @Produce      json
// @Success      200  {object}  envelope
// @Router       /auth/health [get]
func (h *AuthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, envelope{Success: true, Message: "Authentication service is healthy"})
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload").SetInternal(domain.ErrInvalidInput)
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(domain.ErrInvalidInput)
	}
	return nil
}

// unauthorizedIfUnknown turns a token naming a missing or inactive user into
// a 401 instead of the 404 GetUser would return.
func unauthorizedIfUnknown(err error) error {
	if errors.Is(err, domain.ErrUserNotFound) {
		return echo.NewHTTPError(http.StatusUnauthorized, "user not found").SetInternal(err)
	}
	return err
}

// track records the duration and result of one auth operation.
func track(operation string) func(*error) {
	start := time.Now()
	return func(errp *error) {
		metrics.RequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
		metrics.RequestsTotal.WithLabelValues(operation, resultLabel(*errp)).Inc()
	}
}
