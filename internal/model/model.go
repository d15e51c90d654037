package model

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Таблицы и разделы

const (
	OrdersTable           = "Orders"
	CustomerProfilesTable = "CustomerProfiles"
	ProductsTable         = "Products"

	OrderPartition           = "OrderPartition"
	CustomerProfilePartition = "CustomerProfilePartition"
	ProductPartition         = "ProductPartition"
)

// Запись хранилища, ключ (раздел, строка)

type Entity struct {
	PartitionKey string
	RowKey       string
	Properties   map[string]any
	Timestamp    time.Time
}

// Заказы

type Order struct {
	OrderID      string          `json:"orderId"`
	CustomerID   string          `json:"customerId,omitempty"`
	ProductID    string          `json:"productId,omitempty"`
	OrderDate    Date            `json:"orderDate"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	PartitionKey string          `json:"partitionKey,omitempty"`
	RowKey       string          `json:"rowKey,omitempty"`
}

// Entity строит запись заказа. Пустые ключи и ключи из одних пробелов
// заменяются значениями по умолчанию.
func (o Order) Entity() Entity {
	partition := strings.TrimSpace(o.PartitionKey)
	if partition == "" {
		partition = OrderPartition
	}
	row := strings.TrimSpace(o.RowKey)
	if row == "" {
		row = o.OrderID
	}
	return Entity{
		PartitionKey: partition,
		RowKey:       row,
		Properties: map[string]any{
			"OrderId":     o.OrderID,
			"CustomerId":  o.CustomerID,
			"ProductId":   o.ProductID,
			"OrderDate":   o.OrderDate.Time,
			"TotalAmount": o.TotalAmount.String(),
		},
	}
}

// Date - дата в JSON. Кроме RFC 3339 принимает дату-время без зоны (UTC)
// и просто дату. Нераспознанное значение и null дают нулевое время.
type Date struct {
	time.Time
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

func NewDate(t time.Time) Date {
	return Date{Time: t}
}

func (d *Date) UnmarshalJSON(data []byte) error {
	d.Time = time.Time{}
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			d.Time = t
			return nil
		}
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return d.Time.MarshalJSON()
}

// Профили покупателей

type CustomerProfile struct {
	CustomerID    string     `json:"customerId"`
	Name          string     `json:"name"`
	Email         string     `json:"email,omitempty"`
	PhoneNumber   string     `json:"phoneNumber,omitempty"`
	Address       string     `json:"address,omitempty"`
	DateOfBirth   *Date      `json:"dateOfBirth,omitempty"`
	LoyaltyPoints int        `json:"loyaltyPoints"`
}

func (c CustomerProfile) Entity() Entity {
	props := map[string]any{
		"CustomerId":    c.CustomerID,
		"Name":          c.Name,
		"Email":         c.Email,
		"PhoneNumber":   c.PhoneNumber,
		"Address":       c.Address,
		"LoyaltyPoints": c.LoyaltyPoints,
	}
	if c.DateOfBirth != nil {
		props["DateOfBirth"] = c.DateOfBirth.Time
	}
	return Entity{
		PartitionKey: CustomerProfilePartition,
		RowKey:       c.CustomerID,
		Properties:   props,
	}
}

// Товары

type Product struct {
	ProductID     string          `json:"productId"`
	ProductName   string          `json:"productName"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	Category      string          `json:"category,omitempty"`
	StockQuantity int             `json:"stockQuantity"`
	ImageURL      string          `json:"imageUrl,omitempty"`
}

func (p Product) Entity() Entity {
	return Entity{
		PartitionKey: ProductPartition,
		RowKey:       p.ProductID,
		Properties: map[string]any{
			"ProductId":     p.ProductID,
			"ProductName":   p.ProductName,
			"Description":   p.Description,
			"Price":         p.Price.String(),
			"Category":      p.Category,
			"StockQuantity": p.StockQuantity,
			"ImageUrl":      p.ImageURL,
		},
	}
}

// Загружаемый файл

type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}
