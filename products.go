// products.go

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Multipart convention for product create/update: scalar fields plus a
// "colors" field carrying a JSON array of {color, sizes:[{size,stock}]}.
// Image files are keyed by the index of their color in that array, as
// "colorImages-<i>-image1" .. "colorImages-<i>-image3". Multipart forms
// cannot nest files inside structured values, so the index in the field name
// is the only association between a file and its color.
const maxImagesPerColor = 3

type colorPayload struct {
	Color string      `json:"color"`
	Sizes []SizeStock `json:"sizes"`
}

func parseColorsField(raw string) ([]colorPayload, error) {
	var colors []colorPayload
	if err := json.Unmarshal([]byte(raw), &colors); err != nil {
		return nil, err
	}
	return colors, nil
}

// colorImageHeaders returns the uploaded files attached to the color at the
// given index, in image1..image3 order.
func colorImageHeaders(form *multipart.Form, index int) []*multipart.FileHeader {
	var files []*multipart.FileHeader
	for n := 1; n <= maxImagesPerColor; n++ {
		key := fmt.Sprintf("colorImages-%d-image%d", index, n)
		if fhs := form.File[key]; len(fhs) > 0 {
			files = append(files, fhs[0])
		}
	}
	return files
}

func formValue(form *multipart.Form, key string) string {
	if vs := form.Value[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// ----- CRUD -----

func listProducts(c *gin.Context) {
	cur, err := db.Collection("products").Find(c.Request.Context(), bson.M{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	products := []Product{}
	if err := cur.All(c.Request.Context(), &products); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, products)
}

func getProduct(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid product id"})
		return
	}
	var product Product
	err = db.Collection("products").FindOne(c.Request.Context(), bson.M{"_id": id}).Decode(&product)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"message": "Product not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, product)
}

// searchProducts runs a $text search over the name+description index created
// at startup.
func searchProducts(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing search query"})
		return
	}
	cur, err := db.Collection("products").Find(c.Request.Context(),
		bson.M{"$text": bson.M{"$search": query}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	products := []Product{}
	if err := cur.All(c.Request.Context(), &products); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, products)
}

func productsBySubcategory(c *gin.Context) {
	cur, err := db.Collection("products").Find(c.Request.Context(),
		bson.M{"subcategory": c.Param("name")})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	products := []Product{}
	if err := cur.All(c.Request.Context(), &products); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	if len(products) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "No products found for this subcategory"})
		return
	}
	c.JSON(http.StatusOK, products)
}

func productsByCategory(c *gin.Context) {
	cur, err := db.Collection("products").Find(c.Request.Context(),
		bson.M{"category": c.Param("name")})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	products := []Product{}
	if err := cur.All(c.Request.Context(), &products); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, products)
}

func createProduct(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error uploading files"})
		return
	}

	name := formValue(form, "name")
	description := formValue(form, "description")
	category := formValue(form, "category")
	if name == "" || description == "" || category == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "name, description and category are required"})
		return
	}
	price, err := strconv.ParseFloat(formValue(form, "price"), 64)
	if err != nil || price <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "price must be a positive number"})
		return
	}
	colors, err := parseColorsField(formValue(form, "colors"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid colors data"})
		return
	}

	variants := make([]ColorVariant, 0, len(colors))
	for i, col := range colors {
		variant := ColorVariant{Color: col.Color, Sizes: col.Sizes, Images: []string{}}
		for _, fh := range colorImageHeaders(form, i) {
			stored, err := saveUpload(c, fh)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
				return
			}
			variant.Images = append(variant.Images, uploadDir+"/"+stored)
		}
		variants = append(variants, variant)
	}

	product := Product{
		Name:        name,
		Category:    category,
		Subcategory: formValue(form, "subcategory"),
		Description: description,
		Price:       price,
		Colors:      variants,
	}
	res, err := db.Collection("products").InsertOne(c.Request.Context(), product)
	if err != nil {
		logrus.WithError(err).Error("product insert failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}
	product.ID = res.InsertedID.(primitive.ObjectID)
	c.JSON(http.StatusCreated, gin.H{"message": "Product created successfully", "product": product})
}

func updateProduct(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid product id"})
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error uploading files"})
		return
	}

	ctx := c.Request.Context()
	var existing Product
	err = db.Collection("products").FindOne(ctx, bson.M{"_id": id}).Decode(&existing)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"message": "Product not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	price, err := strconv.ParseFloat(formValue(form, "price"), 64)
	if err != nil || price <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "price must be a positive number"})
		return
	}
	colors, err := parseColorsField(formValue(form, "colors"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid colors data"})
		return
	}

	// A color keeps its stored images unless new files arrived for its index.
	variants := make([]ColorVariant, 0, len(colors))
	for i, col := range colors {
		variant := ColorVariant{Color: col.Color, Sizes: col.Sizes, Images: []string{}}
		for _, fh := range colorImageHeaders(form, i) {
			stored, err := saveUpload(c, fh)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
				return
			}
			variant.Images = append(variant.Images, uploadDir+"/"+stored)
		}
		if len(variant.Images) == 0 && i < len(existing.Colors) {
			variant.Images = existing.Colors[i].Images
		}
		variants = append(variants, variant)
	}

	update := bson.M{"$set": bson.M{
		"name":        formValue(form, "name"),
		"category":    formValue(form, "category"),
		"subcategory": formValue(form, "subcategory"),
		"description": formValue(form, "description"),
		"price":       price,
		"colors":      variants,
	}}
	var updated Product
	err = db.Collection("products").FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&updated)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// deleteProduct removes the record and then best-effort deletes its image
// files. File failures never block the delete; they come back as warnings.
func deleteProduct(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid product id"})
		return
	}

	ctx := c.Request.Context()
	var product Product
	err = db.Collection("products").FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"message": "Product not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	if _, err := db.Collection("products").DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	var refs []string
	for _, color := range product.Colors {
		refs = append(refs, color.Images...)
	}
	warnings := removeUploads(refs)
	if len(warnings) > 0 {
		logrus.WithField("product", id.Hex()).Warn("image cleanup incomplete")
		c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully", "warnings": warnings})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

// ----- Stock -----

var (
	errColorNotFound = errors.New("color not found")
	errSizeNotFound  = errors.New("size not found")
)

// variantStock finds the stock counter for a (color, size) pair.
func variantStock(colors []ColorVariant, color, size string) (int, error) {
	for _, cg := range colors {
		if cg.Color != color {
			continue
		}
		for _, sg := range cg.Sizes {
			if sg.Size == size {
				return sg.Stock, nil
			}
		}
		return 0, errSizeNotFound
	}
	return 0, errColorNotFound
}

func getStock(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid product id"})
		return
	}
	var product Product
	err = db.Collection("products").FindOne(c.Request.Context(), bson.M{"_id": id}).Decode(&product)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"message": "Product not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	stock, err := variantStock(product.Colors, c.Param("color"), c.Param("size"))
	if err == errColorNotFound {
		c.JSON(http.StatusNotFound, gin.H{"message": "Color not found"})
		return
	}
	if err == errSizeNotFound {
		c.JSON(http.StatusNotFound, gin.H{"message": "Size not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stock": stock})
}

// stockDecrementFilter matches the product document holding the variant.
func stockDecrementFilter(item OrderItem) bson.M {
	return bson.M{
		"_id":               item.ProductID,
		"colors.color":      item.Color,
		"colors.sizes.size": item.Size,
	}
}

// stockDecrementUpdate applies stock -= quantity to the matched variant.
// There is no floor: a quantity above the available stock drives the counter
// negative.
func stockDecrementUpdate(item OrderItem) bson.M {
	return bson.M{"$inc": bson.M{"colors.$[color].sizes.$[size].stock": -item.Quantity}}
}

func stockDecrementOptions(item OrderItem) *options.UpdateOptions {
	return options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"color.color": item.Color},
			bson.M{"size.size": item.Size},
		},
	})
}

// decrementStock applies the per-variant decrements one update at a time.
// The items are not wrapped in any all-or-nothing guarantee; a failure
// partway leaves earlier decrements applied.
func decrementStock(ctx context.Context, items []OrderItem) error {
	for _, item := range items {
		_, err := db.Collection("products").UpdateOne(ctx,
			stockDecrementFilter(item), stockDecrementUpdate(item), stockDecrementOptions(item))
		if err != nil {
			return err
		}
	}
	return nil
}

type stockUpdateItem struct {
	ProductID primitive.ObjectID `json:"productId" binding:"required"`
	Color     string             `json:"color" binding:"required"`
	Size      string             `json:"size" binding:"required"`
	Quantity  int                `json:"quantity" binding:"required,gt=0"`
}

type updateStockRequest struct {
	Products []stockUpdateItem `json:"products" binding:"required,min=1,dive"`
}

// updateStock is the cash-settlement endpoint: the client calls it after
// placing a "Cash in hand" order. It has no transactional link to the order.
func updateStock(c *gin.Context) {
	var req updateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	items := make([]OrderItem, 0, len(req.Products))
	for _, p := range req.Products {
		items = append(items, OrderItem{ProductID: p.ProductID, Color: p.Color, Size: p.Size, Quantity: p.Quantity})
	}
	if err := decrementStock(c.Request.Context(), items); err != nil {
		logrus.WithError(err).Error("stock update failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Stock updated successfully"})
}
