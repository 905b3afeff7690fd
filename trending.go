// trending.go

package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Trending records store the bare uploaded file name, not an uploads/ path.

func createTrending(c *gin.Context) {
	name := c.PostForm("name")
	category := c.PostForm("category")
	description := c.PostForm("description")
	if name == "" || category == "" || description == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "name, category and description are required"})
		return
	}
	price, err := strconv.ParseFloat(c.PostForm("price"), 64)
	if err != nil || price <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "price must be a positive number"})
		return
	}

	image := ""
	if fh, err := c.FormFile("image"); err == nil {
		image, err = saveUpload(c, fh)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	trending := Trending{Name: name, Category: category, Description: description, Price: price, Image: image}
	res, err := db.Collection("trending").InsertOne(c.Request.Context(), trending)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	trending.ID = res.InsertedID.(primitive.ObjectID)
	c.JSON(http.StatusCreated, trending)
}

func listTrending(c *gin.Context) {
	cur, err := db.Collection("trending").Find(c.Request.Context(), bson.M{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	trending := []Trending{}
	if err := cur.All(c.Request.Context(), &trending); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, trending)
}

func updateTrending(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid id"})
		return
	}

	ctx := c.Request.Context()
	var trending Trending
	err = db.Collection("trending").FindOne(ctx, bson.M{"_id": id}).Decode(&trending)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"message": "Product not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	image := ""
	if fh, err := c.FormFile("image"); err == nil {
		image, err = saveUpload(c, fh)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
			return
		}
	}
	// Replacing the image drops the old file from disk, best-effort.
	if image != "" && trending.Image != "" {
		removeUploads([]string{trending.Image})
	}

	if v := c.PostForm("name"); v != "" {
		trending.Name = v
	}
	if v := c.PostForm("category"); v != "" {
		trending.Category = v
	}
	if v := c.PostForm("description"); v != "" {
		trending.Description = v
	}
	if v := c.PostForm("price"); v != "" {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil || price <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "price must be a positive number"})
			return
		}
		trending.Price = price
	}
	if image != "" {
		trending.Image = image
	}

	_, err = db.Collection("trending").UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"name":        trending.Name,
		"category":    trending.Category,
		"description": trending.Description,
		"price":       trending.Price,
		"image":       trending.Image,
	}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error updating product", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, trending)
}

// updateTrendingImage swaps only the image. The route lives under /products
// but operates on the trending collection, which is the path the admin
// frontend calls.
func updateTrendingImage(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid id"})
		return
	}

	ctx := c.Request.Context()
	var trending Trending
	err = db.Collection("trending").FindOne(ctx, bson.M{"_id": id}).Decode(&trending)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"message": "Product not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	fh, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "image file is required"})
		return
	}
	image, err := saveUpload(c, fh)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error updating image", "error": err.Error()})
		return
	}

	if trending.Image != "" {
		removeUploads([]string{trending.Image})
	}
	trending.Image = image

	_, err = db.Collection("trending").UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"image": image}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error updating image", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, trending)
}

func deleteTrending(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid id"})
		return
	}

	ctx := c.Request.Context()
	var trending Trending
	err = db.Collection("trending").FindOne(ctx, bson.M{"_id": id}).Decode(&trending)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"message": "Product not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	if _, err := db.Collection("trending").DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error deleting product", "error": err.Error()})
		return
	}

	warnings := removeUploads([]string{trending.Image})
	if len(warnings) > 0 {
		c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully", "warnings": warnings})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}
