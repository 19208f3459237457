package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"

	"github.com/miwtoo/credit-card-extraction/extractor/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExtractor struct {
	result  *common.ExtractionResult
	rows    []common.NormalizedRow
	err     error
	panics  bool
	gotPath string
	gotBody string
}

func (f *fakeExtractor) ProcessFile(path string) (*common.ExtractionResult, error) {
	f.gotPath = path
	b, _ := os.ReadFile(path)
	f.gotBody = string(b)
	if f.panics {
		panic("corrupt xref table")
	}
	return f.result, f.err
}

func (f *fakeExtractor) Rows(r io.Reader) ([]common.NormalizedRow, error) {
	b, _ := io.ReadAll(r)
	f.gotBody = string(b)
	return f.rows, f.err
}

func sampleResult() *common.ExtractionResult {
	result := common.NewExtractionResult("TTB")
	result.Statement.AccountLast4 = "1234-XXXX-XXXX-5678"
	result.Transactions = append(result.Transactions, common.Transaction{
		Date:        common.NewDate(2025, 12, 8),
		PostDate:    common.NewDate(2025, 12, 11),
		Description: "KINSHO STORE MATSUBARA JP",
		Amount:      common.AmountFromString("393.71"),
		Currency:    "THB",
	})
	return result
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RateLimit = 0
	return cfg
}

func uploadRequest(t *testing.T, target, filename, contentType string, payload []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if filename != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
		h.Set("Content-Type", contentType)
		part, err := writer.CreatePart(h)
		require.NoError(t, err)
		part.Write(payload)
	}
	writer.WriteField("unused", "x")
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func detail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var response map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	return response["detail"]
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Port != ":8080" {
		t.Errorf("Expected port ':8080', got '%s'", cfg.Port)
	}
	if cfg.MaxUploadMB != 32 {
		t.Errorf("Expected 32MB uploads, got %d", cfg.MaxUploadMB)
	}
}

func TestHealthEndpoint(t *testing.T) {
	server := New(testConfig(), &fakeExtractor{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]string
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response["status"] != "ok" {
		t.Errorf("Expected status 'ok', got '%s'", response["status"])
	}
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestParseEndpoint_MethodNotAllowed(t *testing.T) {
	server := New(testConfig(), &fakeExtractor{})

	req := httptest.NewRequest(http.MethodGet, "/parse", nil)
	w := httptest.NewRecorder()

	server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestParseEndpoint_Success(t *testing.T) {
	ex := &fakeExtractor{result: sampleResult()}
	server := New(testConfig(), ex)

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, uploadRequest(t, "/parse", "statement.pdf", "application/pdf", []byte("%PDF-1.7 body")))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var got common.ExtractionResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "1234-XXXX-XXXX-5678", got.Statement.AccountLast4)
	require.Len(t, got.Transactions, 1)
	assert.Equal(t, "393.71", got.Transactions[0].Amount.StringFixed(2))

	assert.Equal(t, "%PDF-1.7 body", ex.gotBody)
	_, err := os.Stat(ex.gotPath)
	assert.True(t, os.IsNotExist(err), "temp file must be removed")
}

func TestParseEndpoint_TransactionsOnly(t *testing.T) {
	server := New(testConfig(), &fakeExtractor{result: sampleResult()})

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, uploadRequest(t, "/parse?transactions_only=true", "statement.pdf", "application/pdf", []byte("%PDF")))

	require.Equal(t, http.StatusOK, w.Code)
	var got []common.Transaction
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Len(t, got, 1)
}

func TestParseEndpoint_Rejections(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		payload     []byte
		detail      string
	}{
		{"no file", "", "", nil, "No file uploaded."},
		{"not a pdf", "statement.png", "image/png", []byte("png"), "Only PDF uploads are supported."},
		{"empty", "statement.pdf", "application/pdf", nil, "Uploaded file is empty."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := &fakeExtractor{result: sampleResult()}
			server := New(testConfig(), ex)

			w := httptest.NewRecorder()
			server.Handler().ServeHTTP(w, uploadRequest(t, "/parse", tt.filename, tt.contentType, tt.payload))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.detail, detail(t, w))
			assert.Empty(t, ex.gotPath, "extractor must not run")
		})
	}
}

func TestParseEndpoint_NotMultipart(t *testing.T) {
	server := New(testConfig(), &fakeExtractor{})

	req := httptest.NewRequest(http.MethodPost, "/parse", strings.NewReader("raw"))
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No file uploaded.", detail(t, w))
}

func TestParseEndpoint_OctetStreamAccepted(t *testing.T) {
	server := New(testConfig(), &fakeExtractor{result: sampleResult()})

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, uploadRequest(t, "/parse", "download", "application/octet-stream", []byte("%PDF")))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestParseEndpoint_ExtractorFailure(t *testing.T) {
	ex := &fakeExtractor{err: errors.New("malformed PDF")}
	server := New(testConfig(), ex)

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, uploadRequest(t, "/parse", "statement.pdf", "application/pdf", []byte("garbage")))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Failed to parse PDF.", detail(t, w))
	_, err := os.Stat(ex.gotPath)
	assert.True(t, os.IsNotExist(err), "temp file must be removed")
}

func TestParseEndpoint_PanicRecovered(t *testing.T) {
	ex := &fakeExtractor{panics: true}
	server := New(testConfig(), ex)

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, uploadRequest(t, "/parse", "statement.pdf", "application/pdf", []byte("garbage")))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Failed to parse PDF.", detail(t, w))
	_, err := os.Stat(ex.gotPath)
	assert.True(t, os.IsNotExist(err), "temp file must be removed")
}

func TestRowsEndpoint(t *testing.T) {
	rows := []common.NormalizedRow{
		{Text: "Card Number: 1234-XXXX-XXXX-5678", Page: 1, Y: 10},
		{Text: "JPY 2,580.00", Page: 2, Y: 88.5},
	}
	server := New(testConfig(), &fakeExtractor{rows: rows})

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, uploadRequest(t, "/rows", "statement.pdf", "application/pdf", []byte("%PDF")))

	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Filename string                 `json:"filename"`
		Rows     []common.NormalizedRow `json:"rows"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "statement.pdf", got.Filename)
	assert.Equal(t, rows, got.Rows)

	w = httptest.NewRecorder()
	server.Handler().ServeHTTP(w, uploadRequest(t, "/rows?format=fixture", "statement.pdf", "application/pdf", []byte("%PDF")))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "# statement.pdf\n1|10|Card Number: 1234-XXXX-XXXX-5678\n2|88.5|JPY 2,580.00\n", w.Body.String())
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = 0.001
	cfg.RateBurst = 1
	server := New(cfg, &fakeExtractor{result: sampleResult()})
	handler := server.Handler()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, uploadRequest(t, "/parse", "statement.pdf", "application/pdf", []byte("%PDF")))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, uploadRequest(t, "/parse", "statement.pdf", "application/pdf", []byte("%PDF")))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code, "health is not rate limited")
}

func TestRequestIDPropagated(t *testing.T) {
	server := New(testConfig(), &fakeExtractor{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestCORS(t *testing.T) {
	cfg := testConfig()
	cfg.CORSOrigins = []string{"https://app.example.com"}
	server := New(cfg, &fakeExtractor{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	server := New(testConfig(), &fakeExtractor{result: sampleResult()})
	handler := server.Handler()

	handler.ServeHTTP(httptest.NewRecorder(), uploadRequest(t, "/parse", "statement.pdf", "application/pdf", []byte("%PDF")))
	handler.ServeHTTP(httptest.NewRecorder(), uploadRequest(t, "/parse", "", "", nil))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `ccx_parse_requests_total{outcome="ok"} 1`)
	assert.Contains(t, body, `ccx_parse_requests_total{outcome="rejected"} 1`)
	assert.Contains(t, body, "ccx_transactions_extracted_total 1")
}

func TestIsPDFUpload(t *testing.T) {
	assert.True(t, isPDFUpload("a.PDF", "image/png"))
	assert.True(t, isPDFUpload("a", "application/pdf; charset=binary"))
	assert.False(t, isPDFUpload("a.png", "image/png"))
}
