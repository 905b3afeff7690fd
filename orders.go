// orders.go

package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	paymentEsewa  = "esewa"
	paymentKhalti = "khalti"
	paymentCash   = "Cash in hand"

	statusPending   = "pending"
	statusCompleted = "completed"

	deliveryInProgress = "in progress"
	deliveryCompleted  = "completed"
)

func validPaymentMethod(m string) bool {
	return m == paymentEsewa || m == paymentKhalti || m == paymentCash
}

type orderItemRequest struct {
	ProductID primitive.ObjectID `json:"productId" binding:"required"`
	Color     string             `json:"color" binding:"required"`
	Size      string             `json:"size" binding:"required"`
	Quantity  int                `json:"quantity" binding:"required,gt=0"`
}

type createOrderRequest struct {
	OrderID       string             `json:"orderId"`
	UserID        string             `json:"userId"`
	Username      string             `json:"username"`
	PhoneNumber   string             `json:"phoneNumber"`
	Email         string             `json:"email"`
	Address       string             `json:"address"`
	Products      []orderItemRequest `json:"products" binding:"required,min=1,dive"`
	Price         float64            `json:"price" binding:"required,gt=0"`
	PaymentMethod string             `json:"paymentMethod" binding:"required"`
}

// createOrder persists the order in its initial state. No stock is touched
// here; settlement does that later. The total is trusted from the client and
// never cross-checked against the line items.
func createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid product data"})
		return
	}
	if !validPaymentMethod(req.PaymentMethod) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payment method"})
		return
	}
	if req.OrderID == "" {
		req.OrderID = uuid.NewString()
	}

	items := make([]OrderItem, 0, len(req.Products))
	for _, p := range req.Products {
		items = append(items, OrderItem{ProductID: p.ProductID, Color: p.Color, Size: p.Size, Quantity: p.Quantity})
	}

	order := Order{
		OrderID:        req.OrderID,
		UserID:         req.UserID,
		Username:       req.Username,
		PhoneNumber:    req.PhoneNumber,
		Email:          req.Email,
		Address:        req.Address,
		Products:       items,
		Price:          req.Price,
		PaymentMethod:  req.PaymentMethod,
		Status:         statusPending,
		PurchaseDate:   time.Now(),
		DeliveryStatus: deliveryInProgress,
	}
	res, err := db.Collection("orders").InsertOne(c.Request.Context(), order)
	if err != nil {
		logrus.WithError(err).Error("order insert failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to place order", "error": err.Error()})
		return
	}
	order.ID = res.InsertedID.(primitive.ObjectID)
	c.JSON(http.StatusCreated, gin.H{"message": "Order placed successfully", "order": order})
}

// cancelOrder deletes the record. Stock already decremented for this order
// is not restored.
func cancelOrder(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid order id"})
		return
	}
	res, err := db.Collection("orders").DeleteOne(c.Request.Context(), bson.M{"_id": id})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete order", "error": err.Error()})
		return
	}
	if res.DeletedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Order not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order deleted successfully"})
}

func listOrders(c *gin.Context) {
	findOrders(c, bson.M{})
}

// inProgressOrders lists undelivered orders that are actually payable-on-
// delivery or already paid: cash orders, or non-cash orders whose payment
// completed.
func inProgressOrders(c *gin.Context) {
	findOrders(c, bson.M{
		"deliveryStatus": deliveryInProgress,
		"$or": bson.A{
			bson.M{"paymentMethod": paymentCash},
			bson.M{"paymentMethod": bson.M{"$ne": paymentCash}, "status": statusCompleted},
		},
	})
}

func deliveredOrders(c *gin.Context) {
	findOrders(c, bson.M{
		"status":         statusCompleted,
		"deliveryStatus": deliveryCompleted,
	})
}

func findOrders(c *gin.Context, filter bson.M) {
	cur, err := db.Collection("orders").Find(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch orders", "error": err.Error()})
		return
	}
	orders := []Order{}
	if err := cur.All(c.Request.Context(), &orders); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch orders", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, orders)
}

type resolvedOrderItem struct {
	OrderItem
	// Product is the resolved referent, null when the product no longer
	// exists. Line items are weak references; a missing product is an
	// expected state, not an error.
	Product *Product `json:"product"`
}

type resolvedOrder struct {
	Order
	Products []resolvedOrderItem `json:"products"`
}

// ordersByUser returns a user's orders with each line item's product
// resolved to its full record where it still exists.
func ordersByUser(c *gin.Context) {
	ctx := c.Request.Context()
	cur, err := db.Collection("orders").Find(ctx, bson.M{"userId": c.Param("userId")})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch orders", "error": err.Error()})
		return
	}
	orders := []Order{}
	if err := cur.All(ctx, &orders); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch orders", "error": err.Error()})
		return
	}

	ids := make([]primitive.ObjectID, 0)
	seen := map[primitive.ObjectID]bool{}
	for _, o := range orders {
		for _, item := range o.Products {
			if !seen[item.ProductID] {
				seen[item.ProductID] = true
				ids = append(ids, item.ProductID)
			}
		}
	}

	byID := map[primitive.ObjectID]*Product{}
	if len(ids) > 0 {
		pcur, err := db.Collection("products").Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch orders", "error": err.Error()})
			return
		}
		var products []Product
		if err := pcur.All(ctx, &products); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch orders", "error": err.Error()})
			return
		}
		for i := range products {
			byID[products[i].ID] = &products[i]
		}
	}

	resolved := make([]resolvedOrder, 0, len(orders))
	for _, o := range orders {
		ro := resolvedOrder{Order: o, Products: make([]resolvedOrderItem, 0, len(o.Products))}
		for _, item := range o.Products {
			ro.Products = append(ro.Products, resolvedOrderItem{OrderItem: item, Product: byID[item.ProductID]})
		}
		resolved = append(resolved, ro)
	}
	c.JSON(http.StatusOK, resolved)
}

type updateOrderRequest struct {
	Status         string `json:"status"`
	DeliveryStatus string `json:"deliveryStatus"`
}

// updateOrder mutates the two state tracks independently.
func updateOrder(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid order id"})
		return
	}
	var req updateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	set := bson.M{}
	if req.Status != "" {
		if req.Status != statusPending && req.Status != statusCompleted {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid status"})
			return
		}
		set["status"] = req.Status
	}
	if req.DeliveryStatus != "" {
		if req.DeliveryStatus != deliveryInProgress && req.DeliveryStatus != deliveryCompleted {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid delivery status"})
			return
		}
		set["deliveryStatus"] = req.DeliveryStatus
	}
	if len(set) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Nothing to update"})
		return
	}

	var order Order
	err = db.Collection("orders").FindOneAndUpdate(c.Request.Context(),
		bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&order)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"message": "Order not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update order", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, order)
}
