package dto

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate = validator.New()

// LoginRequest — учётные данные администратора.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse — выданный JWT.
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

// ExtractRequest — сообщение расширения, пришедшее по HTTP.
type ExtractRequest struct {
	Action string `json:"action" validate:"required"`
	URL    string `json:"url"`
	HTML   string `json:"html"`
}

// ProxyImageRequest — запрос на перезаливку картинки.
type ProxyImageRequest struct {
	ImageURL string `json:"imageUrl" validate:"required,http_url"`
}

// ProxyImageResponse — ответ /api/proxy-image, его же разбирает релей.
type ProxyImageResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
	Service string `json:"service,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Validate проверяет DTO по тегам validate и собирает понятное сообщение.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed on %q", fe.Namespace(), fe.Tag()))
	}
	return errors.New("validation: " + strings.Join(msgs, "; "))
}
