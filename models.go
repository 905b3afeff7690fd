// models.go

package main

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SizeStock is one size row inside a color variant. Stock is a plain counter
// decremented by settlements; nothing floors it at zero.
type SizeStock struct {
	Size  string `bson:"size" json:"size"`
	Stock int    `bson:"stock" json:"stock"`
}

// ColorVariant groups the images and per-size stock of one product color.
type ColorVariant struct {
	Color  string      `bson:"color" json:"color"`
	Images []string    `bson:"images" json:"images"`
	Sizes  []SizeStock `bson:"sizes" json:"sizes"`
}

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Category    string             `bson:"category" json:"category"`
	Subcategory string             `bson:"subcategory,omitempty" json:"subcategory"`
	Description string             `bson:"description" json:"description"`
	Price       float64            `bson:"price" json:"price"`
	Colors      []ColorVariant     `bson:"colors" json:"colors"`
}

// Subcategory lives only inside its parent Category document.
type Subcategory struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name string             `bson:"name" json:"name"`
}

type Category struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	Subcategories []Subcategory      `bson:"subcategories" json:"subcategories"`
}

type User struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username              string             `bson:"username" json:"username"`
	PhoneNumber           string             `bson:"phonenumber" json:"phonenumber"`
	Address               string             `bson:"address" json:"address"`
	Email                 string             `bson:"email" json:"email"`
	Password              string             `bson:"password" json:"password,omitempty"`
	Role                  string             `bson:"role" json:"role"`
	IsActive              bool               `bson:"isActive" json:"isActive"`
	ActivationToken       string             `bson:"activationToken,omitempty" json:"-"`
	ActivationTokenExpiry time.Time          `bson:"activationTokenExpiry,omitempty" json:"-"`
	ResetToken            string             `bson:"resetToken,omitempty" json:"-"`
	ResetTokenExpiry      time.Time          `bson:"resetTokenExpiry,omitempty" json:"-"`
}

// OrderItem references a product variant by id, color and size. The referent
// is not integrity-checked and may be gone by the time it is read.
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Color     string             `bson:"color" json:"color"`
	Size      string             `bson:"size" json:"size"`
	Quantity  int                `bson:"quantity" json:"quantity"`
}

type Order struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID        string             `bson:"orderId" json:"orderId"`
	UserID         string             `bson:"userId" json:"userId"`
	Username       string             `bson:"username" json:"username"`
	PhoneNumber    string             `bson:"phoneNumber" json:"phoneNumber"`
	Email          string             `bson:"email" json:"email"`
	Address        string             `bson:"address" json:"address"`
	Products       []OrderItem        `bson:"products" json:"products"`
	Price          float64            `bson:"price" json:"price"`
	PaymentMethod  string             `bson:"paymentMethod" json:"paymentMethod"`
	Status         string             `bson:"status" json:"status"`
	PurchaseDate   time.Time          `bson:"purchaseDate" json:"purchaseDate"`
	DeliveryStatus string             `bson:"deliveryStatus" json:"deliveryStatus"`
	// StockApplied guards the payment callback: stock is decremented only by
	// the request that flips this from false to true.
	StockApplied bool `bson:"stockApplied" json:"stockApplied"`
}

// Trending is a curated homepage record, unrelated to Product.
type Trending struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Image       string             `bson:"image" json:"image"`
	Name        string             `bson:"name" json:"name"`
	Category    string             `bson:"category" json:"category"`
	Description string             `bson:"description" json:"description"`
	Price       float64            `bson:"price" json:"price"`
}
