package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iurnickita/abcretail/internal/auth"
	authConfig "github.com/iurnickita/abcretail/internal/auth/config"
	"github.com/iurnickita/abcretail/internal/model"
	"github.com/iurnickita/abcretail/internal/service"
)

type fakeService struct {
	orders   []model.Order
	profiles []model.CustomerProfile
	products []model.Product
	images   []string
	files    map[string]string
	err      error
}

func (f *fakeService) PostOrder(ctx context.Context, order model.Order) error {
	if f.err != nil {
		return f.err
	}
	if order.OrderID == "" {
		return &service.ValidationError{Entity: "order", Field: "orderId"}
	}
	f.orders = append(f.orders, order)
	return nil
}

func (f *fakeService) PostCustomerProfile(ctx context.Context, profile model.CustomerProfile) error {
	if f.err != nil {
		return f.err
	}
	f.profiles = append(f.profiles, profile)
	return nil
}

func (f *fakeService) PostProduct(ctx context.Context, product model.Product, image *model.Upload) (model.Product, error) {
	if f.err != nil {
		return model.Product{}, f.err
	}
	if image.Size == 0 {
		return model.Product{}, service.ErrInvalidFile
	}
	product.ImageURL = "https://blob.local/product-images/" + image.FileName
	f.products = append(f.products, product)
	return product, nil
}

func (f *fakeService) UploadImage(ctx context.Context, image *model.Upload) (string, error) {
	if image == nil {
		return "", service.ErrNoFile
	}
	b, _ := io.ReadAll(image.Body)
	f.images = append(f.images, string(b))
	return "https://blob.local/product-images/" + image.FileName, nil
}

func (f *fakeService) UploadFile(ctx context.Context, file *model.Upload) error {
	if f.err != nil {
		return f.err
	}
	if file.Size == 0 {
		return service.ErrEmptyStream
	}
	b, _ := io.ReadAll(file.Body)
	f.files[file.FileName] = string(b)
	return nil
}

func newTestServer(t *testing.T, svc service.Service) *httptest.Server {
	t.Helper()
	zaplog := zap.NewNop()
	h := newHandler(auth.NewAuth(authConfig.Config{}, zaplog), svc, 1<<20, zaplog)
	srv := httptest.NewServer(h.newRouter())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url string, contentType string, body io.Reader) (int, string) {
	t.Helper()
	resp, err := http.Post(url, contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func TestPostOrder(t *testing.T) {
	svc := &fakeService{}
	srv := newTestServer(t, svc)

	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
		wantBody string
	}{
		{
			name:     "accepted",
			body:     `{"orderId":"O1","customerId":"C1","totalAmount":42.50}`,
			wantCode: http.StatusOK,
			wantBody: "Order added successfully.",
		},
		{
			name:     "pascal case payload",
			body:     `{"OrderId":"O2","CustomerId":"C1"}`,
			wantCode: http.StatusOK,
			wantBody: "Order added successfully.",
		},
		{
			name:     "validation",
			body:     `{"orderId":"","customerId":"C1"}`,
			wantCode: http.StatusBadRequest,
			wantBody: "Invalid order data. invalid order data: orderId is required",
		},
		{
			name:     "malformed",
			body:     `{"orderId":`,
			wantCode: http.StatusBadRequest,
			wantBody: "Invalid order data.",
		},
		{
			name:     "store failure",
			body:     `{"orderId":"O3","customerId":"C1"}`,
			err:      &service.StoreError{Op: "PutEntity", Table: "Orders", Err: errors.New("unavailable")},
			wantCode: http.StatusInternalServerError,
			wantBody: "store.PutEntity [Orders]: unavailable",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc.err = tt.err
			code, body := post(t, srv.URL+"/api/orders", "application/json", strings.NewReader(tt.body))
			require.Equal(t, tt.wantCode, code)
			require.Contains(t, body, tt.wantBody)
		})
	}

	require.Len(t, svc.orders, 2)
	require.Equal(t, "O1", svc.orders[0].OrderID)
	require.Equal(t, "42.5", svc.orders[0].TotalAmount.String())
	require.Equal(t, "O2", svc.orders[1].OrderID)
	require.Equal(t, "C1", svc.orders[1].CustomerID)
}

func TestPostOrderMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &fakeService{})

	resp, err := http.Get(srv.URL + "/api/orders")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestPostCustomerProfile(t *testing.T) {
	svc := &fakeService{}
	srv := newTestServer(t, svc)

	code, body := post(t, srv.URL+"/api/customers", "application/json",
		strings.NewReader(`{"customerId":"C1","name":"Ann","dateOfBirth":"1990-05-01T00:00:00Z","loyaltyPoints":5}`))
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "Customer profile added successfully.", body)
	require.Len(t, svc.profiles, 1)
	require.Equal(t, 1990, svc.profiles[0].DateOfBirth.Year())

	svc.err = &service.ValidationError{Entity: "customer profile", Field: "name"}
	code, body = post(t, srv.URL+"/api/customers", "application/json", strings.NewReader(`{"customerId":"C1"}`))
	require.Equal(t, http.StatusBadRequest, code)
	require.Contains(t, body, "Invalid customer profile data.")
}

func multipartBody(t *testing.T, product string, fileName string, content string) (string, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if product != "" {
		require.NoError(t, mw.WriteField("product", product))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return mw.FormDataContentType(), &buf
}

func TestPostProduct(t *testing.T) {
	svc := &fakeService{}
	srv := newTestServer(t, svc)

	contentType, body := multipartBody(t, `{"productId":"P1","productName":"Mug","price":"9.99"}`, "mug.png", "png")
	code, resp := post(t, srv.URL+"/api/products", contentType, body)
	require.Equal(t, http.StatusOK, code)

	var answer PostProductJSONResponse
	require.NoError(t, json.Unmarshal([]byte(resp), &answer))
	require.Equal(t, "Product added successfully.", answer.Message)
	require.Equal(t, "https://blob.local/product-images/mug.png", answer.ImageURL)
	require.Len(t, svc.products, 1)
	require.Equal(t, "9.99", svc.products[0].Price.String())
}

func TestPostProductRejects(t *testing.T) {
	svc := &fakeService{}
	srv := newTestServer(t, svc)

	// нет файла
	contentType, body := multipartBody(t, `{"productId":"P1","productName":"Mug"}`, "", "")
	code, resp := post(t, srv.URL+"/api/products", contentType, body)
	require.Equal(t, http.StatusBadRequest, code)
	require.Contains(t, resp, "No file uploaded.")

	// не multipart
	code, resp = post(t, srv.URL+"/api/products", "application/json", strings.NewReader(`{}`))
	require.Equal(t, http.StatusBadRequest, code)
	require.Contains(t, resp, "No file uploaded.")

	// пустой файл
	contentType, body = multipartBody(t, `{"productId":"P1","productName":"Mug"}`, "mug.png", "")
	code, resp = post(t, srv.URL+"/api/products", contentType, body)
	require.Equal(t, http.StatusBadRequest, code)
	require.Contains(t, resp, "Invalid file.")

	// битый JSON товара
	contentType, body = multipartBody(t, `{"productId":`, "mug.png", "png")
	code, resp = post(t, srv.URL+"/api/products", contentType, body)
	require.Equal(t, http.StatusBadRequest, code)
	require.Contains(t, resp, "Invalid product data.")

	require.Empty(t, svc.products)
}

func TestPostImage(t *testing.T) {
	svc := &fakeService{}
	srv := newTestServer(t, svc)

	contentType, body := multipartBody(t, "", "photo.jpg", "jpeg")
	code, resp := post(t, srv.URL+"/api/images", contentType, body)
	require.Equal(t, http.StatusOK, code)

	var answer PostImageJSONResponse
	require.NoError(t, json.Unmarshal([]byte(resp), &answer))
	require.Equal(t, "https://blob.local/product-images/photo.jpg", answer.ImageURL)
	require.Equal(t, []string{"jpeg"}, svc.images)

	contentType, body = multipartBody(t, "", "", "")
	code, resp = post(t, srv.URL+"/api/images", contentType, body)
	require.Equal(t, http.StatusBadRequest, code)
	require.Contains(t, resp, "No file uploaded.")
}

func postFile(t *testing.T, url string, name string, content string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(content))
	require.NoError(t, err)
	if name != "" {
		req.Header.Set("file-name", name)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func TestPostFile(t *testing.T) {
	svc := &fakeService{files: map[string]string{}}
	srv := newTestServer(t, svc)

	code, body := postFile(t, srv.URL+"/api/files", "invoice.pdf", "%PDF")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, "invoice.pdf uploaded successfully")
	require.Equal(t, "%PDF", svc.files["invoice.pdf"])

	code, body = postFile(t, srv.URL+"/api/files", "", "%PDF")
	require.Equal(t, http.StatusBadRequest, code)
	require.Contains(t, body, "File name is required.")

	code, body = postFile(t, srv.URL+"/api/files", "empty.txt", "")
	require.Equal(t, http.StatusBadRequest, code)
	require.Contains(t, body, "File stream is empty.")

	svc.err = &service.UploadError{Target: "documents/documents-directory", Err: errors.New("share offline")}
	code, body = postFile(t, srv.URL+"/api/files", "invoice.pdf", "%PDF")
	require.Equal(t, http.StatusInternalServerError, code)
	require.Contains(t, body, "File upload failed:")
}

func TestPostFileTooLarge(t *testing.T) {
	svc := &fakeService{files: map[string]string{}}

	zaplog := zap.NewNop()
	h := newHandler(auth.NewAuth(authConfig.Config{}, zaplog), svc, 1<<10, zaplog)

	req := httptest.NewRequest(http.MethodPost, "/api/files", strings.NewReader(strings.Repeat("x", 2<<10)))
	req.Header.Set("file-name", "big.bin")
	w := httptest.NewRecorder()
	h.newRouter().ServeHTTP(w, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	require.Empty(t, svc.files)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &fakeService{})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPostJSONTooLarge(t *testing.T) {
	svc := &fakeService{}
	zaplog := zap.NewNop()
	h := newHandler(auth.NewAuth(authConfig.Config{}, zaplog), svc, 1<<20, zaplog)
	h.maxJSONSize = 64

	for _, path := range []string{"/api/orders", "/api/customers"} {
		body := `{"orderId":"O1","customerId":"C1","name":"` + strings.Repeat("x", 256) + `"}`
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		h.newRouter().ServeHTTP(w, req)

		require.Equal(t, http.StatusRequestEntityTooLarge, w.Code, path)
	}
	require.Empty(t, svc.orders)
	require.Empty(t, svc.profiles)
}

func TestPostOrderDates(t *testing.T) {
	svc := &fakeService{}
	srv := newTestServer(t, svc)

	bodies := []string{
		`{"orderId":"O1","customerId":"C1","orderDate":"2024-10-01"}`,
		`{"OrderId":"O2","CustomerId":"C1","OrderDate":"2024-10-01T12:00:00"}`,
		`{"orderId":"O3","customerId":"C1","orderDate":"2024-10-01T12:00:00Z"}`,
		`{"orderId":"O4","customerId":"C1","orderDate":"not a date"}`,
	}
	for _, body := range bodies {
		code, resp := post(t, srv.URL+"/api/orders", "application/json", strings.NewReader(body))
		require.Equal(t, http.StatusOK, code, resp)
	}

	require.Len(t, svc.orders, 4)
	require.True(t, svc.orders[0].OrderDate.Equal(time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)))
	require.True(t, svc.orders[1].OrderDate.Equal(time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)))
	require.True(t, svc.orders[2].OrderDate.Equal(time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)))
	require.True(t, svc.orders[3].OrderDate.IsZero())
}

func TestPostProductEmptyFileFirst(t *testing.T) {
	svc := &fakeService{}
	srv := newTestServer(t, svc)

	contentType, body := multipartBody(t, `{"productId":`, "mug.png", "")
	code, resp := post(t, srv.URL+"/api/products", contentType, body)
	require.Equal(t, http.StatusBadRequest, code)
	require.Contains(t, resp, "Invalid file.")
	require.NotContains(t, resp, "Invalid product data.")
}
