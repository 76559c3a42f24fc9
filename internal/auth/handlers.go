package auth

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/John840001/decentroz/internal/entity"
	"github.com/John840001/decentroz/internal/middleware"
	"github.com/John840001/decentroz/internal/storage"
	"github.com/John840001/decentroz/internal/utils"
)

// Handler issues the participant identities everything else keys on: each
// account gets a generated address at signup and a JWT bound to it.
type Handler struct {
	store  storage.Store
	secret string
}

func NewHandler(store storage.Store, secret string) *Handler {
	return &Handler{store: store, secret: secret}
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /auth/signup
func (h *Handler) Signup(c echo.Context) error {
	req := new(SignupRequest)
	if err := c.Bind(req); err != nil || req.Email == "" || len(req.Password) < 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	account := &entity.Account{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hashed),
		Address:      newAddress(),
		CreatedAt:    time.Now(),
	}
	err = h.store.WithTx(c.Request().Context(), func(tx storage.Tx) error {
		if err := tx.CreateAccount(account); err != nil {
			return err
		}

		return tx.CreateWallet(account.Address)
	})
	if err != nil {
		return utils.HTTPError(c, err)
	}

	token, err := h.sign(account.Address)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"token":   token,
		"address": account.Address,
	})
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /auth/login
func (h *Handler) Login(c echo.Context) error {
	req := new(LoginRequest)
	if err := c.Bind(req); err != nil || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	var account *entity.Account
	err := h.store.WithTx(c.Request().Context(), func(tx storage.Tx) error {
		var err error
		account, err = tx.AccountByEmail(req.Email)

		return err
	})
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)) != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	token, err := h.sign(account.Address)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"token":   token,
		"address": account.Address,
	})
}

// GET /auth/me
func (h *Handler) Me(c echo.Context) error {
	var account *entity.Account
	err := h.store.WithTx(c.Request().Context(), func(tx storage.Tx) error {
		var err error
		account, err = tx.AccountByAddress(middleware.Address(c))

		return err
	})
	if err != nil {
		return utils.HTTPError(c, err)
	}

	return c.JSON(http.StatusOK, account)
}

func (h *Handler) sign(address string) (string, error) {
	claims := jwt.MapClaims{
		"address": address,
		"exp":     time.Now().Add(72 * time.Hour).Unix(),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.secret))
}

func newAddress() string {
	buf := make([]byte, 20)
	_, _ = rand.Read(buf)

	return "0x" + hex.EncodeToString(buf)
}
