// esewa.go

package main

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// eSewa ePay v2: the merchant signs a comma-joined "field=value" string over
// the fields named in signed_field_names with HMAC-SHA256, base64 encoded.
// The callback redirect carries a base64 JSON blob signed the same way.

const esewaInitSignedFields = "total_amount,transaction_uuid,product_code"

func esewaSignature(secret, message string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

// esewaPaymentFields builds the signed form field set the frontend posts to
// the gateway.
func esewaPaymentFields(amount float64, transactionUUID string) map[string]string {
	total := formatAmount(amount)
	message := fmt.Sprintf("total_amount=%s,transaction_uuid=%s,product_code=%s",
		total, transactionUUID, cfg.EsewaProductCode)
	return map[string]string{
		"amount":                  total,
		"tax_amount":              "0",
		"product_service_charge":  "0",
		"product_delivery_charge": "0",
		"total_amount":            total,
		"transaction_uuid":        transactionUUID,
		"product_code":            cfg.EsewaProductCode,
		"success_url":             cfg.BaseURL + "/api/complete-payment",
		"failure_url":             cfg.FrontendURL + "/paymentfailure",
		"signed_field_names":      esewaInitSignedFields,
		"signature":               esewaSignature(cfg.EsewaSecretKey, message),
	}
}

type esewaCallback struct {
	TransactionCode  string `json:"transaction_code"`
	Status           string `json:"status"`
	TotalAmount      string `json:"total_amount"`
	TransactionUUID  string `json:"transaction_uuid"`
	ProductCode      string `json:"product_code"`
	SignedFieldNames string `json:"signed_field_names"`
	Signature        string `json:"signature"`
}

func (cb esewaCallback) fieldValue(name string) string {
	switch name {
	case "transaction_code":
		return cb.TransactionCode
	case "status":
		return cb.Status
	case "total_amount":
		return cb.TotalAmount
	case "transaction_uuid":
		return cb.TransactionUUID
	case "product_code":
		return cb.ProductCode
	case "signed_field_names":
		return cb.SignedFieldNames
	}
	return ""
}

// signedMessage rebuilds the exact string the gateway signed, in the field
// order it declared.
func (cb esewaCallback) signedMessage() string {
	names := strings.Split(cb.SignedFieldNames, ",")
	parts := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		parts = append(parts, name+"="+cb.fieldValue(name))
	}
	return strings.Join(parts, ",")
}

var (
	errEsewaBadSignature = errors.New("esewa signature verification failed")
	errEsewaNotComplete  = errors.New("esewa transaction not complete")
	errEsewaProductCode  = errors.New("esewa product code mismatch")
)

// verifyEsewaCallback decodes the redirect blob and checks its signature,
// product code and status.
func verifyEsewaCallback(secret, productCode, data string) (esewaCallback, error) {
	var cb esewaCallback
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		raw, err = base64.RawURLEncoding.DecodeString(data)
		if err != nil {
			return cb, fmt.Errorf("decoding callback data: %w", err)
		}
	}
	if err := json.Unmarshal(raw, &cb); err != nil {
		return cb, fmt.Errorf("decoding callback data: %w", err)
	}
	if cb.ProductCode != productCode {
		return cb, errEsewaProductCode
	}
	expected := esewaSignature(secret, cb.signedMessage())
	if !hmac.Equal([]byte(expected), []byte(cb.Signature)) {
		return cb, errEsewaBadSignature
	}
	if cb.Status != "COMPLETE" {
		return cb, errEsewaNotComplete
	}
	return cb, nil
}

// ----- Handlers -----

type initializePaymentRequest struct {
	OrderID    string  `json:"orderId" binding:"required"`
	TotalPrice float64 `json:"totalPrice" binding:"required,gt=0"`
}

// initializeEsewa checks the claimed amount against the stored order before
// signing anything, so a tampered client-side total never reaches the
// gateway.
func initializeEsewa(c *gin.Context) {
	var req initializePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	orderID, err := primitive.ObjectIDFromHex(req.OrderID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Item not found or price mismatch."})
		return
	}

	var order Order
	err = db.Collection("orders").FindOne(c.Request.Context(),
		bson.M{"_id": orderID, "price": req.TotalPrice}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Item not found or price mismatch."})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"payment": esewaPaymentFields(order.Price, order.ID.Hex()),
		"purchasedItemData": gin.H{
			"_id":           order.ID.Hex(),
			"paymentMethod": paymentEsewa,
			"price":         order.Price,
			"status":        order.Status,
			"purchaseDate":  order.PurchaseDate,
		},
	})
}

// completePayment is the gateway's redirect target. The status flip and the
// stock decrements are separate writes; stockApplied makes the decrement run
// at most once per order even if the gateway replays the callback.
func completePayment(c *gin.Context) {
	cb, err := verifyEsewaCallback(cfg.EsewaSecretKey, cfg.EsewaProductCode, c.Query("data"))
	if err != nil {
		logrus.WithError(err).Error("esewa verification failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "An error occurred during payment verification",
			"error":   err.Error(),
		})
		return
	}

	ctx := c.Request.Context()
	orderID, err := primitive.ObjectIDFromHex(cb.TransactionUUID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Purchase not found"})
		return
	}
	var order Order
	err = db.Collection("orders").FindOne(ctx, bson.M{"_id": orderID}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Purchase not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	res, err := db.Collection("orders").UpdateOne(ctx,
		bson.M{"_id": orderID, "stockApplied": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{"status": statusCompleted, "stockApplied": true}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	if res.ModifiedCount > 0 {
		if err := decrementStock(ctx, order.Products); err != nil {
			// Status is already completed at this point; there is no retry or
			// compensation, only the log.
			logrus.WithError(err).WithField("order", orderID.Hex()).Error("stock decrement failed after payment")
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}
	}

	c.Redirect(http.StatusFound, cfg.FrontendURL+"/thankyou")
}
