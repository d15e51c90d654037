package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/iurnickita/abcretail/internal/auth"
	"github.com/iurnickita/abcretail/internal/gzip"
	"github.com/iurnickita/abcretail/internal/handler/config"
	"github.com/iurnickita/abcretail/internal/logger"
	"github.com/iurnickita/abcretail/internal/model"
	"github.com/iurnickita/abcretail/internal/service"
)

const (
	headerFileName   = "file-name"
	formFieldProduct = "product"

	shutdownTimeout = 10 * time.Second

	// предел тела для JSON-маршрутов
	defaultMaxJSONSize = 1 << 20
)

var errMalformedForm = errors.New("malformed multipart form")

// Serve запускает HTTP-сервер и останавливает его при отмене контекста.
func Serve(ctx context.Context, cfg config.Config, auth auth.Auth, service service.Service, zaplog *zap.Logger) error {
	h := newHandler(auth, service, cfg.MaxUploadSize, zaplog)
	router := h.newRouter()

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: router,
	}

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.ListenAndServe()
	}()
	zaplog.Info("functions host listening", zap.String("addr", cfg.ServerAddr))

	select {
	case err := <-srvErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type handler struct {
	auth          auth.Auth
	service       service.Service
	maxUploadSize int64
	maxJSONSize   int64
	zaplog        *zap.Logger
}

func newHandler(auth auth.Auth, service service.Service, maxUploadSize int64, zaplog *zap.Logger) *handler {
	return &handler{
		auth:          auth,
		service:       service,
		maxUploadSize: maxUploadSize,
		maxJSONSize:   defaultMaxJSONSize,
		zaplog:        zaplog,
	}
}

func (h *handler) newRouter() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("POST /api/orders", h.wrap(h.PostOrder))
	mux.HandleFunc("POST /api/customers", h.wrap(h.PostCustomerProfile))
	mux.HandleFunc("POST /api/products", h.wrap(h.PostProduct))
	mux.HandleFunc("POST /api/images", h.wrap(h.PostImage))
	mux.HandleFunc("POST /api/files", h.wrap(h.PostFile))

	return mux
}

func (h *handler) wrap(f http.HandlerFunc) http.HandlerFunc {
	return gzip.GzipMiddleware(logger.RequestLogMdlw(h.auth.Middleware(f), h.zaplog))
}

func (h *handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}

func (h *handler) PostOrder(w http.ResponseWriter, r *http.Request) {
	var order model.Order
	if err := h.decodeJSON(w, r, &order); err != nil {
		h.zaplog.Error("invalid order data", zap.Error(err))
		h.writeDecodeError(w, "Invalid order data.", err)
		return
	}

	err := h.service.PostOrder(r.Context(), order)
	if err != nil {
		h.writeError(w, "Invalid order data.", err)
		return
	}
	w.Write([]byte("Order added successfully."))
}

func (h *handler) PostCustomerProfile(w http.ResponseWriter, r *http.Request) {
	var profile model.CustomerProfile
	if err := h.decodeJSON(w, r, &profile); err != nil {
		h.zaplog.Error("invalid customer profile data", zap.Error(err))
		h.writeDecodeError(w, "Invalid customer profile data.", err)
		return
	}

	err := h.service.PostCustomerProfile(r.Context(), profile)
	if err != nil {
		h.writeError(w, "Invalid customer profile data.", err)
		return
	}
	w.Write([]byte("Customer profile added successfully."))
}

type PostProductJSONResponse struct {
	Message  string `json:"message"`
	ImageURL string `json:"imageUrl"`
}

func (h *handler) PostProduct(w http.ResponseWriter, r *http.Request) {
	image, cleanup, err := h.formFile(w, r)
	if err != nil {
		h.writeError(w, "No file uploaded.", err)
		return
	}
	defer cleanup()
	if image == nil {
		h.writeError(w, "No file uploaded.", service.ErrNoFile)
		return
	}
	// файл проверяется раньше описания товара
	if image.Size <= 0 {
		h.writeError(w, "Invalid file.", service.ErrInvalidFile)
		return
	}

	var product model.Product
	if err := json.Unmarshal([]byte(r.FormValue(formFieldProduct)), &product); err != nil {
		h.zaplog.Error("invalid product data", zap.Error(err))
		http.Error(w, "Invalid product data. "+err.Error(), http.StatusBadRequest)
		return
	}

	product, err = h.service.PostProduct(r.Context(), product, image)
	if err != nil {
		h.writeError(w, "Invalid product data.", err)
		return
	}
	h.writeJSON(w, PostProductJSONResponse{
		Message:  "Product added successfully.",
		ImageURL: product.ImageURL,
	})
}

type PostImageJSONResponse struct {
	ImageURL string `json:"imageUrl"`
}

func (h *handler) PostImage(w http.ResponseWriter, r *http.Request) {
	image, cleanup, err := h.formFile(w, r)
	if err != nil {
		h.writeError(w, "No file uploaded.", err)
		return
	}
	defer cleanup()

	imageURL, err := h.service.UploadImage(r.Context(), image)
	if err != nil {
		h.writeError(w, "Invalid file.", err)
		return
	}
	h.writeJSON(w, PostImageJSONResponse{ImageURL: imageURL})
}

func (h *handler) PostFile(w http.ResponseWriter, r *http.Request) {
	fileName := r.Header.Get(headerFileName)
	if fileName == "" {
		h.zaplog.Error("file name is missing from headers")
		http.Error(w, "File name is required.", http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	_, err := buf.ReadFrom(http.MaxBytesReader(w, r.Body, h.maxUploadSize))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	file := &model.Upload{
		FileName:    fileName,
		ContentType: r.Header.Get("Content-Type"),
		Size:        int64(buf.Len()),
		Body:        &buf,
	}
	err = h.service.UploadFile(r.Context(), file)
	if err != nil {
		if service.IsClientError(err) {
			h.writeError(w, "Invalid file.", err)
			return
		}
		h.zaplog.Error("file upload failed", zap.String("file_name", fileName), zap.Error(err))
		http.Error(w, "File upload failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Write([]byte("File " + fileName + " uploaded successfully to the file share."))
}

func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxJSONSize)
	return json.NewDecoder(r.Body).Decode(v)
}

func (h *handler) writeDecodeError(w http.ResponseWriter, clientMessage string, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	}
	http.Error(w, clientMessage+" "+err.Error(), http.StatusBadRequest)
}

// formFile читает первый файл multipart-формы. Отсутствие файла - не ошибка
// разбора: возвращается nil, решение принимает сервис.
func (h *handler) formFile(w http.ResponseWriter, r *http.Request) (*model.Upload, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return nil, func() {}, service.ErrNoFile
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, func() {}, err
		}
		return nil, func() {}, fmt.Errorf("%w: %v", errMalformedForm, err)
	}
	cleanup := func() { r.MultipartForm.RemoveAll() }

	header := firstFile(r.MultipartForm)
	if header == nil {
		return nil, cleanup, nil
	}
	f, err := header.Open()
	if err != nil {
		return nil, cleanup, fmt.Errorf("%w: %v", errMalformedForm, err)
	}
	cleanupFile := func() {
		f.Close()
		cleanup()
	}
	return &model.Upload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        f,
	}, cleanupFile, nil
}

// Порядок полей формы не сохраняется, поэтому берется поле с наименьшим именем.
func firstFile(form *multipart.Form) *multipart.FileHeader {
	if form == nil || len(form.File) == 0 {
		return nil
	}
	names := make([]string, 0, len(form.File))
	for name := range form.File {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if files := form.File[name]; len(files) > 0 {
			return files[0]
		}
	}
	return nil
}

func (h *handler) writeError(w http.ResponseWriter, clientMessage string, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, errMalformedForm):
		h.zaplog.Error("malformed form", zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrNoFile):
		h.zaplog.Error("no file found in the request")
		http.Error(w, "No file uploaded.", http.StatusBadRequest)
	case errors.Is(err, service.ErrInvalidFile):
		h.zaplog.Error("invalid file")
		http.Error(w, "Invalid file.", http.StatusBadRequest)
	case errors.Is(err, service.ErrEmptyStream):
		h.zaplog.Error("file stream is empty")
		http.Error(w, "File stream is empty.", http.StatusBadRequest)
	case errors.Is(err, service.ErrFileNameNeeded):
		http.Error(w, "File name is required.", http.StatusBadRequest)
	case service.IsClientError(err):
		h.zaplog.Error(clientMessage, zap.Error(err))
		http.Error(w, clientMessage+" "+err.Error(), http.StatusBadRequest)
	default:
		h.zaplog.Error("request failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *handler) writeJSON(w http.ResponseWriter, v any) {
	responseJSON, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(responseJSON)
}
