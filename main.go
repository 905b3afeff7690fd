// main.go

package main

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var db *mongo.Database

func main() {
	cfg = loadConfig()
	mailer = newSMTPMailer(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logrus.WithError(err).Fatal("mongodb connection error")
	}
	if err := client.Ping(ctx, nil); err != nil {
		logrus.WithError(err).Fatal("mongodb connection error")
	}
	db = client.Database("pasal")
	logrus.Info("MongoDB connected")

	if err := ensureIndexes(ctx); err != nil {
		logrus.WithError(err).Fatal("index bootstrap failed")
	}

	r := newRouter()
	logrus.WithField("port", cfg.Port).Info("server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}

// ensureIndexes creates the text index the product search relies on.
func ensureIndexes(ctx context.Context) error {
	_, err := db.Collection("products").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "name", Value: "text"}, {Key: "description", Value: "text"}},
	})
	return err
}

func newRouter() *gin.Engine {
	r := gin.Default()
	r.Use(cors.Default())

	r.Static("/uploads", "./"+uploadDir)

	api := r.Group("/api")
	{
		// Products
		api.GET("/products", listProducts)
		api.POST("/products", createProduct)
		api.GET("/products/search", searchProducts)
		api.GET("/products/:id", getProduct)
		api.GET("/products/subcategory/:name", productsBySubcategory)
		api.GET("/products/category/:name", productsByCategory)
		api.PUT("/products/:id", updateProduct)
		api.DELETE("/products/:id", deleteProduct)
		api.GET("/products/:id/stock/:color/:size", getStock)
		api.POST("/products/update-stock", updateStock)
		api.PUT("/products/:id/image", updateTrendingImage)

		// Categories
		api.GET("/categories", listCategories)
		api.POST("/categories", createCategory)
		api.PUT("/categories/:id", updateCategory)
		api.DELETE("/categories/:id", deleteCategory)
		api.POST("/categories/:id/subcategories", addSubcategory)
		api.PUT("/categories/:id/subcategories/:subId", updateSubcategory)
		api.DELETE("/categories/:id/subcategories/:subId", deleteSubcategory)

		// Users
		users := api.Group("/users")
		{
			users.POST("/register", register)
			users.GET("/activate/:token", activate)
			users.POST("/login", login)
			users.GET("/me/:userId", getUser)
			users.POST("/forgot-password", forgotPassword)
			users.POST("/reset-password", resetPassword)
			users.GET("/admins", listUsersByRole("admin"))
			users.GET("/", listUsersByRole("user"))
			users.PATCH("/update-role/:userId", updateUserRole)
			users.PUT("/update/:userId", updateUser)
			users.DELETE("/delete-user/:userId", deleteUser)
		}

		// Orders
		api.POST("/orders", createOrder)
		api.DELETE("/orders/:id", cancelOrder)
		api.GET("/orders", listOrders)
		api.GET("/orders/delivery/in-progress", inProgressOrders)
		api.GET("/orders/delivered", deliveredOrders)
		api.GET("/orders/user/:userId", ordersByUser)
		api.PUT("/orders/:id", updateOrder)

		// Payment
		api.POST("/initialize-esewa", initializeEsewa)
		api.GET("/complete-payment", completePayment)

		// Trending
		api.POST("/trending", createTrending)
		api.GET("/trending", listTrending)
		api.PUT("/trending/:id", updateTrending)
		api.DELETE("/trending/:id", deleteTrending)
	}

	return r
}
