package auth

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/iurnickita/abcretail/internal/auth/config"
	"github.com/iurnickita/abcretail/internal/token"
)

type Auth interface {
	Middleware(h http.HandlerFunc) http.HandlerFunc
}

const (
	HeaderFunctionsKey = "x-functions-key"
	HeaderKeySubject   = "X-Key-Subject"
	queryCode          = "code"
)

type auth struct {
	secret string
	zaplog *zap.Logger
}

func NewAuth(cfg config.Config, zaplog *zap.Logger) Auth {
	if cfg.Secret == "" {
		zaplog.Warn("function key secret is not set, authorization disabled")
	}
	return &auth{secret: cfg.Secret, zaplog: zaplog}
}

func (a *auth) Middleware(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if a.secret == "" {
			h.ServeHTTP(w, r)
			return
		}

		key := a.getKey(r)
		if key == "" {
			http.Error(w, "function key is required", http.StatusUnauthorized)
			return
		}
		subject, err := token.GetSubject(a.secret, key)
		if err != nil {
			a.zaplog.Info("function key rejected", zap.Error(err))
			http.Error(w, token.ErrInvalidToken.Error(), http.StatusUnauthorized)
			return
		}

		// владелец ключа для обработчиков
		r.Header.Set(HeaderKeySubject, subject)

		h.ServeHTTP(w, r)
	}
}

func (a *auth) getKey(r *http.Request) string {
	if key := r.Header.Get(HeaderFunctionsKey); key != "" {
		return key
	}
	return r.URL.Query().Get(queryCode)
}
