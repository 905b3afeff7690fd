// esewa_test.go

package main

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedCallback(t *testing.T, secret string, cb esewaCallback) string {
	t.Helper()
	cb.Signature = esewaSignature(secret, cb.signedMessage())
	raw, err := json.Marshal(cb)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(raw)
}

func testCallback() esewaCallback {
	return esewaCallback{
		TransactionCode:  "000ABC",
		Status:           "COMPLETE",
		TotalAmount:      "1500",
		TransactionUUID:  "66a1b2c3d4e5f6a7b8c9d0e1",
		ProductCode:      "EPAYTEST",
		SignedFieldNames: "transaction_code,status,total_amount,transaction_uuid,product_code,signed_field_names",
	}
}

func TestVerifyEsewaCallbackRoundTrip(t *testing.T) {
	data := signedCallback(t, "test-esewa-secret", testCallback())

	cb, err := verifyEsewaCallback("test-esewa-secret", "EPAYTEST", data)
	require.NoError(t, err)
	assert.Equal(t, "66a1b2c3d4e5f6a7b8c9d0e1", cb.TransactionUUID)
	assert.Equal(t, "COMPLETE", cb.Status)
}

func TestVerifyEsewaCallbackTamperedAmount(t *testing.T) {
	data := signedCallback(t, "test-esewa-secret", testCallback())

	// Re-encode with a different amount but the old signature.
	raw, err := base64.StdEncoding.DecodeString(data)
	require.NoError(t, err)
	var cb esewaCallback
	require.NoError(t, json.Unmarshal(raw, &cb))
	cb.TotalAmount = "1"
	tampered, err := json.Marshal(cb)
	require.NoError(t, err)

	_, err = verifyEsewaCallback("test-esewa-secret", "EPAYTEST", base64.StdEncoding.EncodeToString(tampered))
	assert.ErrorIs(t, err, errEsewaBadSignature)
}

func TestVerifyEsewaCallbackWrongSecret(t *testing.T) {
	data := signedCallback(t, "other-secret", testCallback())

	_, err := verifyEsewaCallback("test-esewa-secret", "EPAYTEST", data)
	assert.ErrorIs(t, err, errEsewaBadSignature)
}

func TestVerifyEsewaCallbackIncompleteStatus(t *testing.T) {
	cb := testCallback()
	cb.Status = "PENDING"
	data := signedCallback(t, "test-esewa-secret", cb)

	_, err := verifyEsewaCallback("test-esewa-secret", "EPAYTEST", data)
	assert.ErrorIs(t, err, errEsewaNotComplete)
}

func TestVerifyEsewaCallbackProductCodeMismatch(t *testing.T) {
	data := signedCallback(t, "test-esewa-secret", testCallback())

	_, err := verifyEsewaCallback("test-esewa-secret", "EPAYLIVE", data)
	assert.ErrorIs(t, err, errEsewaProductCode)
}

func TestVerifyEsewaCallbackGarbage(t *testing.T) {
	_, err := verifyEsewaCallback("s", "EPAYTEST", "%%%not-base64%%%")
	assert.Error(t, err)

	_, err = verifyEsewaCallback("s", "EPAYTEST", base64.StdEncoding.EncodeToString([]byte("not json")))
	assert.Error(t, err)
}

func TestEsewaPaymentFields(t *testing.T) {
	cfg = testConfig()

	fields := esewaPaymentFields(1500.5, "66a1b2c3d4e5f6a7b8c9d0e1")
	assert.Equal(t, "1500.5", fields["total_amount"])
	assert.Equal(t, "1500.5", fields["amount"])
	assert.Equal(t, "66a1b2c3d4e5f6a7b8c9d0e1", fields["transaction_uuid"])
	assert.Equal(t, "EPAYTEST", fields["product_code"])
	assert.Equal(t, esewaInitSignedFields, fields["signed_field_names"])
	assert.Equal(t, "http://api.test/api/complete-payment", fields["success_url"])
	assert.Equal(t, "http://front.test/paymentfailure", fields["failure_url"])

	want := esewaSignature("test-esewa-secret",
		"total_amount=1500.5,transaction_uuid=66a1b2c3d4e5f6a7b8c9d0e1,product_code=EPAYTEST")
	assert.Equal(t, want, fields["signature"])
}

func TestFormatAmountDropsTrailingZeros(t *testing.T) {
	assert.Equal(t, "100", formatAmount(100))
	assert.Equal(t, "99.9", formatAmount(99.9))
}
