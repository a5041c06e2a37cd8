package adaptor

import (
	"net"
	"net/http"
	"strings"

	"storefront-auth/internal/usecase"
	"storefront-auth/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Auth    *AuthHandler
	User    *UserHandler
	Session *SessionHandler
}

func NewHandler(service *usecase.Service, config *utils.Config, log *zap.Logger) *Handler {
	return &Handler{
		Auth:    NewAuthHandler(service.Auth, config, log),
		User:    NewUserHandler(service.User, service.Session, log),
		Session: NewSessionHandler(service.Session, log),
	}
}

// clientInfo extracts the user agent and client IP for session records. Both
// are optional; absent values stay nil.
func clientInfo(r *http.Request) (userAgent, ipAddress *string) {
	if ua := r.UserAgent(); ua != "" {
		userAgent = &ua
	}

	ip := r.Header.Get("X-Forwarded-For")
	if ip != "" {
		// First hop is the client
		if idx := strings.IndexByte(ip, ','); idx >= 0 {
			ip = strings.TrimSpace(ip[:idx])
		}
	} else {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err == nil {
			ip = host
		} else {
			ip = r.RemoteAddr
		}
	}
	if ip != "" {
		ipAddress = &ip
	}

	return userAgent, ipAddress
}
