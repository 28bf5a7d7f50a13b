package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/spaceventure/server/internal/auth"
	"github.com/spaceventure/server/usecase"
)

// maxUploadBytes is the admission limit for a direct profile picture upload
const maxUploadBytes = 5 << 20

var allowedUploadTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, registration *usecase.RegistrationService, issuer *auth.TokenIssuer, logger *zap.Logger) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "spaceventure-server",
		})
	})

	// API v1 routes
	v1 := e.Group("/api/v1")

	v1.POST("/users/register", func(c echo.Context) error {
		return registerAccount(c, registration, logger)
	})

	// Session token verification for the surrounding session layer
	v1.GET("/session", func(c echo.Context) error {
		return sessionVerify(c, issuer, logger)
	})
}

// registerAccount admits a multipart registration request, normalizes the
// boundary types and runs the registration use case.
func registerAccount(c echo.Context, registration *usecase.RegistrationService, logger *zap.Logger) error {
	federatedRaw := c.FormValue("isFederatedSignup")
	isFederated := false
	if federatedRaw != "" {
		parsed, err := strconv.ParseBool(federatedRaw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Success: false,
				Message: "isFederatedSignup must be \"true\" or \"false\".",
			})
		}
		isFederated = parsed
	}

	req := usecase.RegistrationRequest{
		Name:            c.FormValue("name"),
		Email:           c.FormValue("email"),
		Password:        c.FormValue("password"),
		Phone:           c.FormValue("phone"),
		Address:         c.FormValue("address"),
		Organization:    c.FormValue("organization"),
		DateOfBirth:     c.FormValue("dob"),
		AccountCategory: c.FormValue("accountCategory"),
		IsFederated:     isFederated,
		PictureURL:      c.FormValue("profilePicture"),
	}

	if !isFederated {
		data, err := readUpload(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Success: false,
				Message: err.Error(),
			})
		}
		req.PictureData = data
	}

	account, err := registration.Register(c.Request().Context(), req)
	if err != nil {
		return registrationError(c, err, logger)
	}

	logger.Info("Registration succeeded",
		zap.String("account_id", account.ID.Hex()),
		zap.Bool("federated", account.IsFederated))

	return c.JSON(http.StatusCreated, RegisterResponse{
		Success: true,
		Message: "Registration successful!",
	})
}

// readUpload admits the optional profilePicture file part. Absence is legal;
// oversized or non-image uploads are rejected before the core runs.
func readUpload(c echo.Context) ([]byte, error) {
	header, err := c.FormFile("profilePicture")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		// No multipart file part at all is also a legal absence.
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, errors.New("Invalid profile picture upload.")
	}

	if header.Size > maxUploadBytes {
		return nil, errors.New("Profile picture must be at most 5 MB.")
	}
	contentType := header.Header.Get("Content-Type")
	if !allowedUploadTypes[contentType] {
		return nil, errors.New("Invalid file type. Only JPEG, PNG, and GIF files are allowed.")
	}

	file, err := header.Open()
	if err != nil {
		return nil, errors.New("Invalid profile picture upload.")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		return nil, errors.New("Invalid profile picture upload.")
	}
	if len(data) > maxUploadBytes {
		return nil, errors.New("Profile picture must be at most 5 MB.")
	}
	return data, nil
}

// registrationError maps core error kinds to HTTP statuses. Environment
// failures stay generic toward the caller; full detail goes to the logs only.
func registrationError(c echo.Context, err error, logger *zap.Logger) error {
	var validationErr *usecase.ValidationError
	if errors.As(err, &validationErr) {
		return c.JSON(http.StatusBadRequest, ValidationErrorResponse{
			Success: false,
			Message: "Validation failed.",
			Errors:  validationErr.Violations,
		})
	}

	if errors.Is(err, usecase.ErrDuplicateAccount) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Message: "Account already exists.",
		})
	}

	logger.Error("Registration failed", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Success: false,
		Message: "An error occurred during registration.",
	})
}

// sessionVerify recovers the account identity from a Bearer token
func sessionVerify(c echo.Context, issuer *auth.TokenIssuer, logger *zap.Logger) error {
	var token string
	authHeader := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		token = strings.TrimPrefix(authHeader, "Bearer ")
	}

	if token == "" {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Success: false,
			Message: "Session token is required in Authorization header.",
		})
	}

	accountID, err := issuer.Verify(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			logger.Warn("Session token expired")
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Success: false,
				Message: "Session token is expired, try again.",
			})
		}
		logger.Warn("Session token rejected", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Success: false,
			Message: "Session token is invalid, try again.",
		})
	}

	return c.JSON(http.StatusOK, SessionResponse{AccountID: accountID})
}
