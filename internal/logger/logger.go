package logger

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iurnickita/abcretail/internal/logger/config"
)

const HeaderRequestID = "X-Request-Id"

// В лог попадает не больше maxLoggedBody байт тела запроса.
const maxLoggedBody = 4 << 10

func NewZapLog(cfg config.Config) (*zap.Logger, error) {
	// преобразуем текстовый уровень логирования в zap.AtomicLevel
	lvl, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zapcfg := zap.NewProductionConfig()
	zapcfg.Level = lvl
	zl, err := zapcfg.Build()
	if err != nil {
		return nil, err
	}
	return zl, nil
}

// middleware-логер для входящих HTTP-запросов.
// Тело пишется в лог только для JSON, файлы логируются длиной.
func RequestLogMdlw(h http.HandlerFunc, zaplog *zap.Logger) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
			r.Header.Set(HeaderRequestID, requestID)
		}
		w.Header().Set(HeaderRequestID, requestID)

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method),
			zap.Int64("content_length", r.ContentLength),
		}
		if isJSON(r.Header.Get("Content-Type")) {
			// читаем только начало, остаток тела отдаем обработчику как есть
			bodyBytes, _ := io.ReadAll(io.LimitReader(r.Body, maxLoggedBody+1))
			r.Body = readCloser{
				Reader: io.MultiReader(bytes.NewReader(bodyBytes), r.Body),
				Closer: r.Body,
			}
			if len(bodyBytes) > maxLoggedBody {
				fields = append(fields,
					zap.String("body", string(bodyBytes[:maxLoggedBody])),
					zap.Bool("body_truncated", true))
			} else {
				fields = append(fields, zap.String("body", string(bodyBytes)))
			}
		}
		zaplog.Info("got incoming HTTP request", fields...)

		wl := NewResponseWriterLogger(w)

		handlerStart := time.Now()
		h(wl, r)
		handlerDuration := time.Since(handlerStart)

		zaplog.Info("send HTTP response",
			zap.String("request_id", requestID),
			zap.String("code", strconv.Itoa(wl.statusCode)),
			zap.String("body", string(wl.body)),
			zap.String("length", strconv.Itoa(wl.length)),
			zap.String("duration", handlerDuration.String()),
		)
	})
}

type readCloser struct {
	io.Reader
	io.Closer
}

func isJSON(contentType string) bool {
	return strings.HasPrefix(contentType, "application/json")
}

type responseWriterLogger struct {
	http.ResponseWriter
	statusCode int
	length     int
	body       []byte
}

func NewResponseWriterLogger(w http.ResponseWriter) *responseWriterLogger {
	return &responseWriterLogger{w, http.StatusOK, 0, []byte{}}
}

func (wl *responseWriterLogger) WriteHeader(code int) {
	wl.statusCode = code
	wl.ResponseWriter.WriteHeader(code)
}

func (wl *responseWriterLogger) Write(b []byte) (n int, err error) {
	wl.body = b
	n, err = wl.ResponseWriter.Write(b)
	wl.length += n
	return
}
