package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/primar/console/internal/api/metrics"
	"github.com/primar/console/internal/core/authz"
	"github.com/primar/console/internal/core/domain"
	"github.com/primar/console/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type signUpRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password"`
	Nome            string `json:"nome" validate:"required"`
}

type signUpResponse struct {
	Email   string `json:"email"`
	Message string `json:"message"`
}

// signUpConflictResponse keeps the submitted values so the form can be refilled.
type signUpConflictResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Email string `json:"email"`
	Nome  string `json:"nome"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// sessionResponse is the client-side view of a session: who is signed in, the
// derived role flags and the sidebar the role may see.
type sessionResponse struct {
	UserID     string          `json:"user_id,omitempty"`
	Email      string          `json:"email,omitempty"`
	ExpiresAt  *time.Time      `json:"expires_at,omitempty"`
	Profile    *domain.Profile `json:"profile"`
	Role       domain.Role     `json:"role"`
	IsAdmin    bool            `json:"is_admin"`
	IsStaff    bool            `json:"is_staff"`
	IsClient   bool            `json:"is_client"`
	Loading    bool            `json:"loading"`
	Navigation []authz.NavItem `json:"navigation"`
}

type authResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Session   sessionResponse `json:"session"`
}

func newSessionResponse(st domain.SessionState) sessionResponse {
	resp := sessionResponse{
		Profile:    st.Profile,
		Role:       st.Role,
		IsAdmin:    st.IsAdmin(),
		IsStaff:    st.IsStaff(),
		IsClient:   st.IsClient(),
		Loading:    st.Loading,
		Navigation: navigationFor(st.Role),
	}
	if st.Session != nil {
		resp.UserID = st.Session.UserID
		resp.Email = st.Session.Email
		exp := st.Session.ExpiresAt
		resp.ExpiresAt = &exp
	}
	return resp
}

func newAuthResponse(res *ports.AuthResult) authResponse {
	return authResponse{Token: res.Token, ExpiresAt: res.ExpiresAt, Session: newSessionResponse(res.State)}
}

// SignUp registers a new account. The account holds no role until an admin assigns one.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signUpRequest  true  "Registration form"
// @Success      201   {object}  signUpResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  signUpConflictResponse
// @Failure      422   {object}  map[string]string
// @Router       /auth/signup [post]
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signUpRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	err := h.authService.SignUp(c.Request().Context(), ports.SignUpInput{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Name:            req.Nome,
	})
	if errors.Is(err, domain.ErrEmailTaken) {
		return c.JSON(http.StatusConflict, signUpConflictResponse{
			Error: "email already registered",
			Code:  "email_taken",
			Email: req.Email,
			Nome:  req.Nome,
		})
	}
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, signUpResponse{
		Email:   req.Email,
		Message: "account created, sign in to continue",
	})
}

// Login authenticates a user and returns a bearer token with the session state.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		metrics.SignInsTotal.WithLabelValues("validation").Inc()
		return err
	}

	res, err := h.authService.SignIn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		result := "error"
		if errors.Is(err, domain.ErrInvalidCredentials) {
			result = "invalid_credentials"
		}
		metrics.SignInsTotal.WithLabelValues(result).Inc()
		return err
	}
	metrics.SignInsTotal.WithLabelValues("success").Inc()

	return c.JSON(http.StatusOK, newAuthResponse(res))
}

// Logout ends the current session. The local session is always cleared.
//
// @Summary      Logout
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  map[string]string
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.authService.SignOut(c.Request().Context(), ctxToken(c)); err != nil {
		c.Logger().Warnf("sign out: %v", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Refresh exchanges the current token for a new one on the same session.
//
// @Summary      Refresh the session token
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  authResponse
// @Failure      401  {object}  map[string]string
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	res, err := h.authService.Refresh(c.Request().Context(), ctxToken(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newAuthResponse(res))
}

// Session returns the current session state, including users without a role.
//
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  map[string]string
// @Router       /auth/session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	st, err := h.authService.State(c.Request().Context(), ctxToken(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newSessionResponse(st))
}
