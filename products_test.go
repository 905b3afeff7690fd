// products_test.go

package main

import (
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestVariantStock(t *testing.T) {
	colors := []ColorVariant{
		{Color: "red", Sizes: []SizeStock{{Size: "M", Stock: 5}, {Size: "L", Stock: 0}}},
		{Color: "blue", Sizes: []SizeStock{{Size: "S", Stock: 2}}},
	}

	stock, err := variantStock(colors, "red", "M")
	require.NoError(t, err)
	assert.Equal(t, 5, stock)

	stock, err = variantStock(colors, "red", "L")
	require.NoError(t, err)
	assert.Equal(t, 0, stock)

	_, err = variantStock(colors, "green", "M")
	assert.ErrorIs(t, err, errColorNotFound)

	_, err = variantStock(colors, "red", "XL")
	assert.ErrorIs(t, err, errSizeNotFound)
}

// The decrement update is a bare $inc with no guard: a quantity above the
// available stock drives the counter below zero (stock 2, quantity 5 lands
// at -3).
func TestStockDecrementHasNoFloor(t *testing.T) {
	item := OrderItem{ProductID: primitive.NewObjectID(), Color: "red", Size: "M", Quantity: 5}

	update := stockDecrementUpdate(item)
	inc := update["$inc"].(bson.M)
	assert.Equal(t, -5, inc["colors.$[color].sizes.$[size].stock"])

	filter := stockDecrementFilter(item)
	assert.Equal(t, "red", filter["colors.color"])
	assert.Equal(t, "M", filter["colors.sizes.size"])
	_, hasGuard := filter["colors.sizes.stock"]
	assert.False(t, hasGuard)
}

func TestColorImageHeadersConvention(t *testing.T) {
	form := &multipart.Form{File: map[string][]*multipart.FileHeader{
		"colorImages-0-image1": {{Filename: "front.jpg"}},
		"colorImages-0-image3": {{Filename: "back.jpg"}},
		"colorImages-1-image1": {{Filename: "other.jpg"}},
		"unrelated":            {{Filename: "nope.jpg"}},
	}}

	files := colorImageHeaders(form, 0)
	require.Len(t, files, 2)
	assert.Equal(t, "front.jpg", files[0].Filename)
	assert.Equal(t, "back.jpg", files[1].Filename)

	files = colorImageHeaders(form, 1)
	require.Len(t, files, 1)
	assert.Equal(t, "other.jpg", files[0].Filename)

	assert.Empty(t, colorImageHeaders(form, 2))
}

func TestParseColorsField(t *testing.T) {
	colors, err := parseColorsField(`[{"color":"red","sizes":[{"size":"M","stock":5}]}]`)
	require.NoError(t, err)
	require.Len(t, colors, 1)
	assert.Equal(t, "red", colors[0].Color)
	assert.Equal(t, 5, colors[0].Sizes[0].Stock)

	_, err = parseColorsField(`{"color":"red"`)
	assert.Error(t, err)
}

func TestUploadNameKeepsBase(t *testing.T) {
	name := uploadName("../../etc/passwd")
	assert.True(t, strings.HasSuffix(name, "-passwd"))
	assert.NotContains(t, name, "/")
}

func productDoc(id primitive.ObjectID) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: "Mug"},
		{Key: "category", Value: "Kitchen"},
		{Key: "description", Value: "A mug"},
		{Key: "price", Value: 300.0},
		{Key: "colors", Value: bson.A{
			bson.D{
				{Key: "color", Value: "red"},
				{Key: "images", Value: bson.A{"uploads/1-red.jpg"}},
				{Key: "sizes", Value: bson.A{
					bson.D{{Key: "size", Value: "M"}, {Key: "stock", Value: 2}},
				}},
			},
		}},
	}
}

func TestGetStockHandler(t *testing.T) {
	mt := mockMT(t)

	mt.Run("existing variant", func(mt *mtest.T) {
		r, _ := setupTest(mt)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "pasal.products", mtest.FirstBatch, productDoc(id)))

		w := doJSON(mt.T, r, http.MethodGet, "/api/products/"+id.Hex()+"/stock/red/M", nil)
		require.Equal(mt.T, http.StatusOK, w.Code)
		assert.Equal(mt.T, float64(2), decodeBody(mt.T, w)["stock"])
	})

	mt.Run("unknown color", func(mt *mtest.T) {
		r, _ := setupTest(mt)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "pasal.products", mtest.FirstBatch, productDoc(id)))

		w := doJSON(mt.T, r, http.MethodGet, "/api/products/"+id.Hex()+"/stock/green/M", nil)
		require.Equal(mt.T, http.StatusNotFound, w.Code)
		assert.Equal(mt.T, "Color not found", decodeBody(mt.T, w)["message"])
	})

	mt.Run("unknown product", func(mt *mtest.T) {
		r, _ := setupTest(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "pasal.products", mtest.FirstBatch))

		w := doJSON(mt.T, r, http.MethodGet, "/api/products/"+primitive.NewObjectID().Hex()+"/stock/red/M", nil)
		assert.Equal(mt.T, http.StatusNotFound, w.Code)
	})
}

func TestUpdateStockHandler(t *testing.T) {
	mt := mockMT(t)

	mt.Run("decrements every tuple", func(mt *mtest.T) {
		r, _ := setupTest(mt)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)

		body := map[string]interface{}{
			"products": []map[string]interface{}{
				{"productId": primitive.NewObjectID().Hex(), "color": "red", "size": "M", "quantity": 3},
				{"productId": primitive.NewObjectID().Hex(), "color": "blue", "size": "S", "quantity": 9},
			},
		}
		w := doJSON(mt.T, r, http.MethodPost, "/api/products/update-stock", body)
		require.Equal(mt.T, http.StatusOK, w.Code)
		assert.Equal(mt.T, "Stock updated successfully", decodeBody(mt.T, w)["message"])

		// The wire updates carry the raw negated quantities, arrayFilters and
		// no stock guard, so quantity 9 against stock 2 would land at -7.
		var incs []int64
		for _, evt := range mt.GetAllStartedEvents() {
			if evt.CommandName != "update" {
				continue
			}
			u := evt.Command.Lookup("updates").Array().Index(0).Value().Document()
			inc := u.Lookup("u").Document().Lookup("$inc").Document()
			incs = append(incs, inc.Lookup("colors.$[color].sizes.$[size].stock").AsInt64())
			assert.NotEmpty(mt.T, u.Lookup("arrayFilters").Array())
		}
		assert.Equal(mt.T, []int64{-3, -9}, incs)
	})

	mt.Run("rejects missing fields", func(mt *mtest.T) {
		r, _ := setupTest(mt)
		body := map[string]interface{}{
			"products": []map[string]interface{}{
				{"productId": primitive.NewObjectID().Hex(), "size": "M", "quantity": 3},
			},
		}
		w := doJSON(mt.T, r, http.MethodPost, "/api/products/update-stock", body)
		assert.Equal(mt.T, http.StatusBadRequest, w.Code)
	})

	mt.Run("rejects non-positive quantity", func(mt *mtest.T) {
		r, _ := setupTest(mt)
		body := map[string]interface{}{
			"products": []map[string]interface{}{
				{"productId": primitive.NewObjectID().Hex(), "color": "red", "size": "M", "quantity": 0},
			},
		}
		w := doJSON(mt.T, r, http.MethodPost, "/api/products/update-stock", body)
		assert.Equal(mt.T, http.StatusBadRequest, w.Code)
	})
}
