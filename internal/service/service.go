package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iurnickita/abcretail/internal/blob"
	"github.com/iurnickita/abcretail/internal/fileshare"
	"github.com/iurnickita/abcretail/internal/model"
	"github.com/iurnickita/abcretail/internal/queue"
	"github.com/iurnickita/abcretail/internal/store"
)

type Service interface {
	PostOrder(ctx context.Context, order model.Order) error
	PostCustomerProfile(ctx context.Context, profile model.CustomerProfile) error
	PostProduct(ctx context.Context, product model.Product, image *model.Upload) (model.Product, error)
	UploadImage(ctx context.Context, image *model.Upload) (string, error)
	UploadFile(ctx context.Context, file *model.Upload) error
}

type service struct {
	store  store.Store
	queue  queue.Queue
	blob   blob.Blob
	share  fileshare.FileShare
	zaplog *zap.Logger
	now    func() time.Time
}

func NewService(store store.Store, queue queue.Queue, blob blob.Blob, share fileshare.FileShare, zaplog *zap.Logger) Service {
	return &service{
		store:  store,
		queue:  queue,
		blob:   blob,
		share:  share,
		zaplog: zaplog,
		now:    time.Now,
	}
}

// PostOrder сохраняет заказ и публикует его копию в очередь уведомлений.
// Ошибка публикации не отменяет запись: заказ может остаться в хранилище
// без уведомления.
func (service *service) PostOrder(ctx context.Context, order model.Order) error {
	if strings.TrimSpace(order.OrderID) == "" {
		return &ValidationError{Entity: "order", Field: "orderId"}
	}
	if strings.TrimSpace(order.CustomerID) == "" {
		return &ValidationError{Entity: "order", Field: "customerId"}
	}

	if err := service.putEntity(ctx, model.OrdersTable, order.Entity()); err != nil {
		return err
	}

	// запрос может завершиться раньше публикации
	if err := service.publishOrder(context.WithoutCancel(ctx), order); err != nil {
		service.zaplog.Error("order notification not published",
			zap.String("order_id", order.OrderID),
			zap.Error(err))
	} else {
		service.zaplog.Info("new order added to the outgoing queue",
			zap.String("order_id", order.OrderID),
			zap.String("queue", service.queue.Name()))
	}

	service.zaplog.Info("order added", zap.String("order_id", order.OrderID))
	return nil
}

func (service *service) publishOrder(ctx context.Context, order model.Order) error {
	message, err := json.Marshal(order)
	if err != nil {
		return &PublishError{Queue: service.queue.Name(), Err: err}
	}
	if err := service.queue.EnsureQueue(ctx); err != nil {
		return &PublishError{Queue: service.queue.Name(), Err: err}
	}
	if err := service.queue.Send(ctx, message); err != nil {
		return &PublishError{Queue: service.queue.Name(), Err: err}
	}
	return nil
}

func (service *service) PostCustomerProfile(ctx context.Context, profile model.CustomerProfile) error {
	if profile.CustomerID == "" {
		return &ValidationError{Entity: "customer profile", Field: "customerId"}
	}
	if profile.Name == "" {
		return &ValidationError{Entity: "customer profile", Field: "name"}
	}

	if err := service.putEntity(ctx, model.CustomerProfilesTable, profile.Entity()); err != nil {
		return err
	}

	service.zaplog.Info("customer profile added",
		zap.String("customer_id", profile.CustomerID),
		zap.String("name", profile.Name))
	return nil
}

// PostProduct загружает изображение товара и сохраняет товар со ссылкой на него.
func (service *service) PostProduct(ctx context.Context, product model.Product, image *model.Upload) (model.Product, error) {
	if err := checkUpload(image); err != nil {
		return model.Product{}, err
	}
	if product.ProductID == "" {
		return model.Product{}, &ValidationError{Entity: "product", Field: "productId"}
	}
	if product.ProductName == "" {
		return model.Product{}, &ValidationError{Entity: "product", Field: "productName"}
	}

	imageURL, err := service.uploadBlob(ctx, image)
	if err != nil {
		return model.Product{}, err
	}
	product.ImageURL = imageURL

	if err := service.putEntity(ctx, model.ProductsTable, product.Entity()); err != nil {
		return model.Product{}, err
	}

	service.zaplog.Info("product added",
		zap.String("product_id", product.ProductID),
		zap.String("image_url", product.ImageURL))
	return product, nil
}

func (service *service) UploadImage(ctx context.Context, image *model.Upload) (string, error) {
	if err := checkUpload(image); err != nil {
		return "", err
	}

	imageURL, err := service.uploadBlob(ctx, image)
	if err != nil {
		return "", err
	}

	service.zaplog.Info("image uploaded", zap.String("image_url", imageURL))
	return imageURL, nil
}

// UploadFile пишет файл в каталог сетевой шары под исходным именем.
func (service *service) UploadFile(ctx context.Context, file *model.Upload) error {
	if file == nil || file.FileName == "" {
		return ErrFileNameNeeded
	}
	if err := fileshare.ValidateName(file.FileName); err != nil {
		return err
	}
	if file.Size <= 0 || file.Body == nil {
		return ErrEmptyStream
	}

	if err := service.share.EnsureDirectory(ctx); err != nil {
		return &UploadError{Target: service.share.Location(), Err: err}
	}
	if err := service.share.Upload(ctx, file.FileName, file.Body, file.Size); err != nil {
		return &UploadError{Target: service.share.Location(), Err: err}
	}

	service.zaplog.Info("file uploaded",
		zap.String("file_name", file.FileName),
		zap.String("location", service.share.Location()))
	return nil
}

func (service *service) putEntity(ctx context.Context, table string, entity model.Entity) error {
	if err := service.store.EnsureTable(ctx, table); err != nil {
		return &StoreError{Op: "EnsureTable", Table: table, Err: err}
	}
	if err := service.store.PutEntity(ctx, table, entity); err != nil {
		return &StoreError{Op: "PutEntity", Table: table, Err: err}
	}
	return nil
}

func (service *service) uploadBlob(ctx context.Context, upload *model.Upload) (string, error) {
	if err := service.blob.EnsureContainer(ctx); err != nil {
		return "", &UploadError{Target: service.blob.Container(), Err: err}
	}
	name := blob.Name(upload.FileName, service.now())
	url, err := service.blob.Upload(ctx, name, upload.ContentType, upload.Body, upload.Size)
	if err != nil {
		return "", &UploadError{Target: service.blob.Container(), Err: err}
	}
	return url, nil
}

func checkUpload(upload *model.Upload) error {
	if upload == nil || upload.Body == nil {
		return ErrNoFile
	}
	if upload.Size <= 0 {
		return ErrInvalidFile
	}
	return nil
}

// IsClientError - ошибка вызвана данными запроса.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNoFile) ||
		errors.Is(err, ErrInvalidFile) ||
		errors.Is(err, ErrFileNameNeeded) ||
		errors.Is(err, ErrEmptyStream) ||
		errors.Is(err, fileshare.ErrInvalidFileName)
}
