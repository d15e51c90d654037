// Package client - HTTP-клиент функций ABC Retail.
package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/iurnickita/abcretail/internal/model"
)

const (
	headerFunctionsKey = "x-functions-key"
	headerFileName     = "file-name"

	requestTimeout = 30 * time.Second
)

// StatusError - функция ответила не 200.
type StatusError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s request status: %d %s", e.Path, e.StatusCode, e.Body)
}

// JSON ответ на загрузку товара
type ProductAnswer struct {
	Message  string `json:"message"`
	ImageURL string `json:"imageUrl"`
}

type imageAnswer struct {
	ImageURL string `json:"imageUrl"`
}

type Client interface {
	PostOrder(order model.Order) (string, error)
	PostCustomerProfile(profile model.CustomerProfile) (string, error)
	PostProduct(product model.Product, fileName string, image io.Reader) (ProductAnswer, error)
	UploadImage(fileName string, image io.Reader) (string, error)
	UploadFile(fileName string, file io.Reader) (string, error)
}

type client struct {
	resty *resty.Client
}

// NewClient создает клиента. Пустой functionsKey - запросы без ключа.
func NewClient(serviceAddr string, functionsKey string) Client {
	r := resty.New().
		SetBaseURL(serviceAddr).
		SetTimeout(requestTimeout)
	if functionsKey != "" {
		r.SetHeader(headerFunctionsKey, functionsKey)
	}
	return client{resty: r}
}

func (client client) PostOrder(order model.Order) (string, error) {
	path := "/api/orders"

	resp, err := client.resty.R().
		SetBody(order).
		Post(path)
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != http.StatusOK {
		return "", statusError(path, resp)
	}
	return resp.String(), nil
}

func (client client) PostCustomerProfile(profile model.CustomerProfile) (string, error) {
	path := "/api/customers"

	resp, err := client.resty.R().
		SetBody(profile).
		Post(path)
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != http.StatusOK {
		return "", statusError(path, resp)
	}
	return resp.String(), nil
}

func (client client) PostProduct(product model.Product, fileName string, image io.Reader) (ProductAnswer, error) {
	path := "/api/products"

	productJSON, err := json.Marshal(product)
	if err != nil {
		return ProductAnswer{}, err
	}

	var answer ProductAnswer
	resp, err := client.resty.R().
		SetMultipartFormData(map[string]string{"product": string(productJSON)}).
		SetFileReader("file", fileName, image).
		SetResult(&answer).
		Post(path)
	if err != nil {
		return ProductAnswer{}, err
	}
	if resp.StatusCode() != http.StatusOK {
		return ProductAnswer{}, statusError(path, resp)
	}
	return answer, nil
}

func (client client) UploadImage(fileName string, image io.Reader) (string, error) {
	path := "/api/images"

	var answer imageAnswer
	resp, err := client.resty.R().
		SetFileReader("file", fileName, image).
		SetResult(&answer).
		Post(path)
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != http.StatusOK {
		return "", statusError(path, resp)
	}
	return answer.ImageURL, nil
}

func (client client) UploadFile(fileName string, file io.Reader) (string, error) {
	path := "/api/files"

	resp, err := client.resty.R().
		SetHeader(headerFileName, fileName).
		SetHeader("Content-Type", "application/octet-stream").
		SetBody(file).
		Post(path)
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != http.StatusOK {
		return "", statusError(path, resp)
	}
	return resp.String(), nil
}

func statusError(path string, resp *resty.Response) error {
	return &StatusError{
		Path:       path,
		StatusCode: resp.StatusCode(),
		Body:       resp.String(),
	}
}
