// main_test.go

package main

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

type sentMail struct {
	To, Subject, Body string
}

type stubMailer struct {
	sent []sentMail
	err  error
}

func (m *stubMailer) Send(to, subject, html string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: html})
	return nil
}

func testConfig() Config {
	return Config{
		MongoURI:         "mongodb://localhost:27017",
		Port:             "5000",
		BaseURL:          "http://api.test",
		FrontendURL:      "http://front.test",
		JWTSecret:        "test-secret",
		EsewaProductCode: "EPAYTEST",
		EsewaSecretKey:   "test-esewa-secret",
	}
}

// setupTest points the package globals at the mock deployment and builds a
// fresh router.
func setupTest(mt *mtest.T) (*gin.Engine, *stubMailer) {
	gin.SetMode(gin.TestMode)
	cfg = testConfig()
	mail := &stubMailer{}
	mailer = mail
	db = mt.Client.Database("pasal")
	return newRouter(), mail
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response body %q: %v", w.Body.String(), err)
	}
	return body
}

func mockMT(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}
