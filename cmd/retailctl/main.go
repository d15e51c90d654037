// retailctl - консольный клиент функций ABC Retail.
//
//	retailctl [-s addr] [-k key] order -id O1 -customer C1 [-product P1] [-amount 42.50]
//	retailctl customer -id C1 -name Ann [-email a@b.c]
//	retailctl product -id P1 -name Mug -price 9.99 -image mug.png
//	retailctl image -f photo.jpg
//	retailctl file -f invoice.pdf
//	retailctl token -secret S -subject ops [-ttl 24h]
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iurnickita/abcretail/internal/client"
	"github.com/iurnickita/abcretail/internal/model"
	"github.com/iurnickita/abcretail/internal/token"
)

var errUsage = errors.New("usage: retailctl [-s addr] [-k key] order|customer|product|image|file|token [flags]")

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("retailctl", flag.ContinueOnError)
	serviceAddr := fs.String("s", "http://localhost:8080", "functions host address")
	functionsKey := fs.String("k", os.Getenv("FUNCTIONS_KEY"), "function key")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errUsage
	}

	c := client.NewClient(*serviceAddr, *functionsKey)
	command, rest := fs.Arg(0), fs.Args()[1:]

	switch command {
	case "order":
		return postOrder(c, rest)
	case "customer":
		return postCustomer(c, rest)
	case "product":
		return postProduct(c, rest)
	case "image":
		return uploadImage(c, rest)
	case "file":
		return uploadFile(c, rest)
	case "token":
		return buildToken(rest)
	default:
		return errUsage
	}
}

func postOrder(c client.Client, args []string) error {
	fs := flag.NewFlagSet("order", flag.ContinueOnError)
	orderID := fs.String("id", "", "order id")
	customerID := fs.String("customer", "", "customer id")
	productID := fs.String("product", "", "product id")
	amount := fs.String("amount", "0", "total amount")
	if err := fs.Parse(args); err != nil {
		return err
	}

	totalAmount, err := decimal.NewFromString(*amount)
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}

	answer, err := c.PostOrder(model.Order{
		OrderID:     *orderID,
		CustomerID:  *customerID,
		ProductID:   *productID,
		OrderDate:   model.NewDate(time.Now().UTC()),
		TotalAmount: totalAmount,
	})
	if err != nil {
		return err
	}
	fmt.Println(answer)
	return nil
}

func postCustomer(c client.Client, args []string) error {
	fs := flag.NewFlagSet("customer", flag.ContinueOnError)
	customerID := fs.String("id", "", "customer id")
	name := fs.String("name", "", "customer name")
	email := fs.String("email", "", "email")
	phone := fs.String("phone", "", "phone number")
	address := fs.String("address", "", "address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	answer, err := c.PostCustomerProfile(model.CustomerProfile{
		CustomerID:  *customerID,
		Name:        *name,
		Email:       *email,
		PhoneNumber: *phone,
		Address:     *address,
	})
	if err != nil {
		return err
	}
	fmt.Println(answer)
	return nil
}

func postProduct(c client.Client, args []string) error {
	fs := flag.NewFlagSet("product", flag.ContinueOnError)
	productID := fs.String("id", "", "product id")
	name := fs.String("name", "", "product name")
	price := fs.String("price", "0", "price")
	category := fs.String("category", "", "category")
	stock := fs.Int("stock", 0, "stock quantity")
	imagePath := fs.String("image", "", "image file path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	productPrice, err := decimal.NewFromString(*price)
	if err != nil {
		return fmt.Errorf("price: %w", err)
	}

	image, err := os.Open(*imagePath)
	if err != nil {
		return err
	}
	defer image.Close()

	answer, err := c.PostProduct(model.Product{
		ProductID:     *productID,
		ProductName:   *name,
		Price:         productPrice,
		Category:      *category,
		StockQuantity: *stock,
	}, filepath.Base(*imagePath), image)
	if err != nil {
		return err
	}
	fmt.Println(answer.Message, answer.ImageURL)
	return nil
}

func uploadImage(c client.Client, args []string) error {
	fs := flag.NewFlagSet("image", flag.ContinueOnError)
	path := fs.String("f", "", "image file path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	image, err := os.Open(*path)
	if err != nil {
		return err
	}
	defer image.Close()

	imageURL, err := c.UploadImage(filepath.Base(*path), image)
	if err != nil {
		return err
	}
	fmt.Println(imageURL)
	return nil
}

func uploadFile(c client.Client, args []string) error {
	fs := flag.NewFlagSet("file", flag.ContinueOnError)
	path := fs.String("f", "", "file path")
	name := fs.String("name", "", "file name on the share, defaults to the base name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	file, err := os.Open(*path)
	if err != nil {
		return err
	}
	defer file.Close()

	fileName := *name
	if fileName == "" {
		fileName = filepath.Base(*path)
	}
	answer, err := c.UploadFile(fileName, file)
	if err != nil {
		return err
	}
	fmt.Println(answer)
	return nil
}

func buildToken(args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	secret := fs.String("secret", os.Getenv("FUNCTIONS_KEY_SECRET"), "function key secret")
	subject := fs.String("subject", "", "key owner")
	ttl := fs.Duration("ttl", 0, "key lifetime, 0 - no expiry")
	if err := fs.Parse(args); err != nil {
		return err
	}

	key, err := token.BuildJWT(*secret, *subject, *ttl)
	if err != nil {
		return err
	}
	fmt.Println(key)
	return nil
}
