package server

import (
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/mohammad-safakhou/mindtutor/internal/runtime"
	"github.com/mohammad-safakhou/mindtutor/internal/store"
)

// Auth status codes carried in the code envelope, kept from the original
// frontend contract.
const (
	authOK           = 0
	authUnknownUser  = 1
	authUsernameUsed = 1
	authBadPassword  = 2
)

// passwordRe enforces the signup rule: letters and digits only, 6 to 20
// characters.
var passwordRe = regexp.MustCompile(`^[A-Za-z0-9]{6,20}$`)

type AuthHandler struct {
	Store  *store.Store
	Secret []byte
}

func (a *AuthHandler) Register(g *echo.Group) {
	g.POST("/register", a.register)
	g.POST("/login", a.login)
}

// RegisterProtected mounts the endpoints that require a valid session.
func (a *AuthHandler) RegisterProtected(g *echo.Group) {
	g.POST("/logout", a.logout)
	g.POST("/checkLogin", a.checkLogin)
}

func (a *AuthHandler) register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	_, exists, err := a.Store.GetUserByUsername(c.Request().Context(), req.Username)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if exists {
		return c.JSON(http.StatusOK, CodeResponse{Code: authUsernameUsed})
	}
	if !passwordRe.MatchString(req.Password) {
		return c.JSON(http.StatusOK, CodeResponse{Code: authBadPassword})
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if _, err := a.Store.CreateUser(c.Request().Context(), req.Username, string(hash)); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, CodeResponse{Code: authOK})
}

func (a *AuthHandler) login(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	u, ok, err := a.Store.GetUserByUsername(c.Request().Context(), req.Username)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return c.JSON(http.StatusOK, CodeResponse{Code: authUnknownUser})
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		return c.JSON(http.StatusOK, CodeResponse{Code: authBadPassword})
	}
	signed, err := runtime.SignJWT(strconv.FormatInt(u.ID, 10), a.Secret, runtime.TokenTTL)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	cookie := new(http.Cookie)
	cookie.Name = runtime.AuthCookieName
	cookie.Value = signed
	cookie.Path = "/"
	cookie.HttpOnly = true
	cookie.MaxAge = int(runtime.TokenTTL / time.Second)
	cookie.SameSite = http.SameSiteLaxMode
	c.SetCookie(cookie)
	// also return token for Bearer flows
	c.Response().Header().Set("Authorization", "Bearer "+signed)
	return c.JSON(http.StatusOK, CodeResponse{Code: authOK})
}

func (a *AuthHandler) logout(c echo.Context) error {
	cookie := new(http.Cookie)
	cookie.Name = runtime.AuthCookieName
	cookie.Value = ""
	cookie.Path = "/"
	cookie.MaxAge = -1
	c.SetCookie(cookie)
	return c.JSON(http.StatusOK, CodeResponse{Code: authOK})
}

func (a *AuthHandler) checkLogin(c echo.Context) error {
	id, err := currentUserID(c)
	if err != nil {
		return err
	}
	u, ok, err := a.Store.GetUserByID(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown user")
	}
	return c.JSON(http.StatusOK, CheckLoginResponse{Code: authOK, Username: u.Username})
}

// currentUserID reads the authenticated subject set by the auth middleware.
func currentUserID(c echo.Context) (int64, error) {
	sub, _ := c.Get("user_id").(string)
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "invalid session subject")
	}
	return id, nil
}
