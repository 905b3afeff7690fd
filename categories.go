// categories.go

package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ensureSubcategoryIDs assigns ids to embedded subcategories that arrive
// without one.
func ensureSubcategoryIDs(subs []Subcategory) []Subcategory {
	if subs == nil {
		return []Subcategory{}
	}
	for i := range subs {
		if subs[i].ID.IsZero() {
			subs[i].ID = primitive.NewObjectID()
		}
	}
	return subs
}

// removeSubcategory filters one embedded subcategory out by id, leaving the
// siblings untouched.
func removeSubcategory(subs []Subcategory, id primitive.ObjectID) ([]Subcategory, bool) {
	out := make([]Subcategory, 0, len(subs))
	found := false
	for _, s := range subs {
		if s.ID == id {
			found = true
			continue
		}
		out = append(out, s)
	}
	return out, found
}

func listCategories(c *gin.Context) {
	cur, err := db.Collection("categories").Find(c.Request.Context(), bson.M{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	categories := []Category{}
	if err := cur.All(c.Request.Context(), &categories); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, categories)
}

type categoryRequest struct {
	Name          string        `json:"name" binding:"required"`
	Subcategories []Subcategory `json:"subcategories"`
}

func createCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	category := Category{
		Name:          req.Name,
		Subcategories: ensureSubcategoryIDs(req.Subcategories),
	}
	res, err := db.Collection("categories").InsertOne(c.Request.Context(), category)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	category.ID = res.InsertedID.(primitive.ObjectID)
	c.JSON(http.StatusCreated, category)
}

func updateCategory(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid category id"})
		return
	}
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	update := bson.M{"$set": bson.M{
		"name":          req.Name,
		"subcategories": ensureSubcategoryIDs(req.Subcategories),
	}}
	res, err := db.Collection("categories").UpdateOne(c.Request.Context(), bson.M{"_id": id}, update)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if res.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Category not found"})
		return
	}

	var category Category
	if err := db.Collection("categories").FindOne(c.Request.Context(), bson.M{"_id": id}).Decode(&category); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, category)
}

func deleteCategory(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid category id"})
		return
	}
	res, err := db.Collection("categories").DeleteOne(c.Request.Context(), bson.M{"_id": id})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	if res.DeletedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Category not found"})
		return
	}
	// Products referencing this category by name keep their now-dangling
	// label; readers must treat it as unresolved.
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}

// ----- Subcategories -----

type subcategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

func addSubcategory(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid category id"})
		return
	}
	var req subcategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	sub := Subcategory{ID: primitive.NewObjectID(), Name: req.Name}
	res, err := db.Collection("categories").UpdateOne(c.Request.Context(),
		bson.M{"_id": id},
		bson.M{"$push": bson.M{"subcategories": sub}})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if res.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Category not found"})
		return
	}

	var category Category
	if err := db.Collection("categories").FindOne(c.Request.Context(), bson.M{"_id": id}).Decode(&category); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, category)
}

func updateSubcategory(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid category id"})
		return
	}
	subID, err := primitive.ObjectIDFromHex(c.Param("subId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid subcategory id"})
		return
	}
	var req subcategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	res, err := db.Collection("categories").UpdateOne(c.Request.Context(),
		bson.M{"_id": id, "subcategories._id": subID},
		bson.M{"$set": bson.M{"subcategories.$.name": req.Name}})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if res.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Subcategory not found"})
		return
	}

	var category Category
	if err := db.Collection("categories").FindOne(c.Request.Context(), bson.M{"_id": id}).Decode(&category); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, category)
}

// deleteSubcategory filters the parent's array and re-saves it. Nothing
// cascades to products labeled with the removed subcategory.
func deleteSubcategory(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid category id"})
		return
	}
	subID, err := primitive.ObjectIDFromHex(c.Param("subId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid subcategory id"})
		return
	}

	ctx := c.Request.Context()
	var category Category
	err = db.Collection("categories").FindOne(ctx, bson.M{"_id": id}).Decode(&category)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"message": "Category not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	remaining, found := removeSubcategory(category.Subcategories, subID)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"message": "Subcategory not found"})
		return
	}
	category.Subcategories = remaining

	_, err = db.Collection("categories").UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"subcategories": remaining}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, category)
}
