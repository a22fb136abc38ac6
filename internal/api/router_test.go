package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/wonny/dipscan/internal/analytics"
	"github.com/wonny/dipscan/internal/api/handlers"
	"github.com/wonny/dipscan/internal/loader"
	"github.com/wonny/dipscan/internal/metrics"
	"github.com/wonny/dipscan/internal/session"
	"github.com/wonny/dipscan/pkg/config"
	"github.com/wonny/dipscan/pkg/logger"
	"github.com/wonny/dipscan/pkg/redis"
)

const boeingCSV = "Date,Price\n2024-01-01,100\n2024-01-08,110\n2024-01-15,99\n2024-01-22,100\n"
const rtxCSV = "Date,Price\n01/01/2024,90\n01/08/2024,81\n01/15/2024,85\n"

func testConfig() *config.Config {
	return &config.Config{Port: "0", Env: "test"}
}

type testAPI struct {
	handler http.Handler
	metrics *metrics.Metrics
}

func newTestAPI(t *testing.T, uploadsPerMinute int) *testAPI {
	t.Helper()
	return newTestAPIWithProxy(t, uploadsPerMinute, false)
}

func newTestAPIWithProxy(t *testing.T, uploadsPerMinute int, trustProxy bool) *testAPI {
	t.Helper()

	m := metrics.New()
	analyzer := analytics.NewAnalyzer(loader.New(nil, loader.WithObserver(m)), logger.Nop())
	h := handlers.NewAnalysisHandler(analyzer, session.NewMemoryStore(time.Hour), m, handlers.Options{
		MaxUploadBytes:   1 << 20,
		DefaultThreshold: 10,
	}, logger.Nop())

	return &testAPI{
		handler: NewRouter(h, RouterDeps{
			Metrics:         m,
			Limiter:         redis.NewLocalLimiter(),
			UploadPerMinute: uploadsPerMinute,
			TrustProxy:      trustProxy,
			Logger:          logger.Nop(),
		}),
		metrics: m,
	}
}

func (a *testAPI) do(t *testing.T, method, target string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, body)
		req.Header.Set("Content-Type", contentType)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, body := range files {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (a *testAPI) upload(t *testing.T, files map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, files)
	return a.do(t, http.MethodPost, "/api/analyses", body, ct)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func createSession(t *testing.T, a *testAPI) handlers.SessionResponse {
	t.Helper()
	rec := a.upload(t, map[string]string{
		"Boeing Stock Price History.csv": boeingCSV,
		"RTX Corp.csv":                   rtxCSV,
		"broken.csv":                     "Day,Close\n2024-01-01,1\n",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp handlers.SessionResponse
	decode(t, rec, &resp)
	return resp
}

func TestHealth(t *testing.T) {
	rec := newTestAPI(t, 0).do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestCreateAndGet(t *testing.T) {
	a := newTestAPI(t, 0)
	sess := createSession(t, a)

	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, []string{"Boeing", "RTX Corp"}, sess.Window.Companies)
	assert.Equal(t, 7, sess.Window.Rows)
	require.Len(t, sess.Warnings, 1)
	assert.Equal(t, "broken.csv", sess.Warnings[0].File)
	assert.Len(t, sess.Files, 3)

	rec := a.do(t, http.MethodGet, "/api/analyses/"+sess.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"from":"2024-01-01"`)
	assert.Contains(t, rec.Body.String(), `"to":"2024-01-22"`)
}

func TestPrices(t *testing.T) {
	a := newTestAPI(t, 0)
	sess := createSession(t, a)

	rec := a.do(t, http.MethodGet, "/api/analyses/"+sess.ID+"/prices?companies=Boeing&from=2024-01-08&to=2024-01-15", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp handlers.PricesResponse
	decode(t, rec, &resp)
	assert.Equal(t, []string{"company", "date", "price", "return_pct"}, resp.Columns)
	require.Len(t, resp.Points, 2)
	require.NotNil(t, resp.Points[0].ReturnPct, "returns are computed before the window")
	assert.InDelta(t, 10.0, *resp.Points[0].ReturnPct, 1e-9)
	assert.Equal(t, 2, resp.Window.Rows)
}

func TestSummary(t *testing.T) {
	a := newTestAPI(t, 0)
	sess := createSession(t, a)

	rec := a.do(t, http.MethodGet, "/api/analyses/"+sess.ID+"/summary", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.SummaryResponse
	decode(t, rec, &resp)
	require.Len(t, resp.Records, 2)
	assert.Equal(t, "Boeing", resp.Records[0].Company)
	assert.Equal(t, 0.0, *resp.Records[0].TotalReturn)
	assert.Equal(t, "entity", resp.Columns[0])
}

func TestEvents(t *testing.T) {
	a := newTestAPI(t, 0)
	sess := createSession(t, a)

	rec := a.do(t, http.MethodGet, "/api/analyses/"+sess.ID+"/events", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.EventsResponse
	decode(t, rec, &resp)
	assert.Equal(t, 10.0, resp.Threshold)
	// Boeing -10 on 01-15 and RTX -10 on 01-08
	require.Len(t, resp.Declines, 2)
	assert.Equal(t, "Boeing", resp.Declines[0].Company)
	assert.Equal(t, "RTX Corp", resp.Declines[1].Company)
	require.Len(t, resp.Rises, 1)

	rec = a.do(t, http.MethodGet, "/api/analyses/"+sess.ID+"/events?threshold=20", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &resp)
	assert.Empty(t, resp.Declines)
	assert.Empty(t, resp.Rises)
}

func TestExport(t *testing.T) {
	a := newTestAPI(t, 0)
	sess := createSession(t, a)

	rec := a.do(t, http.MethodGet, "/api/analyses/"+sess.ID+"/export.xlsx?companies=RTX%20Corp", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), sess.ID)

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Prices")
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestDelete(t *testing.T) {
	a := newTestAPI(t, 0)
	sess := createSession(t, a)

	rec := a.do(t, http.MethodDelete, "/api/analyses/"+sess.ID, nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/analyses/"+sess.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodDelete, "/api/analyses/"+sess.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestErrorCodes(t *testing.T) {
	a := newTestAPI(t, 0)
	sess := createSession(t, a)
	base := "/api/analyses/" + sess.ID

	tests := []struct {
		name   string
		target string
		status int
		code   string
	}{
		{"unknown session", "/api/analyses/00000000-0000-0000-0000-000000000000/prices", http.StatusNotFound, handlers.CodeNotFound},
		{"empty selection", base + "/prices?companies=Lockheed%20Martin", http.StatusUnprocessableEntity, handlers.CodeEmptySelection},
		{"period outside data", base + "/summary?from=2030-01-01", http.StatusUnprocessableEntity, handlers.CodeEmptySelection},
		{"bad date", base + "/prices?from=01/02/2024", http.StatusBadRequest, handlers.CodeInvalidQuery},
		{"reversed range", base + "/prices?from=2024-02-01&to=2024-01-01", http.StatusBadRequest, handlers.CodeInvalidQuery},
		{"non-numeric threshold", base + "/events?threshold=abc", http.StatusBadRequest, handlers.CodeInvalidQuery},
		{"negative threshold", base + "/events?threshold=-5", http.StatusBadRequest, handlers.CodeInvalidQuery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(t, http.MethodGet, tt.target, nil, "")
			require.Equal(t, tt.status, rec.Code, rec.Body.String())

			var resp handlers.ErrorResponse
			decode(t, rec, &resp)
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestCreate_NoData(t *testing.T) {
	a := newTestAPI(t, 0)

	rec := a.upload(t, map[string]string{"boeing.csv": "Date,Close\n2024-01-01,1\n"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp struct {
		Code    string `json:"code"`
		Details struct {
			Warnings []struct {
				File   string `json:"file"`
				Reason string `json:"reason"`
			} `json:"warnings"`
		} `json:"details"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, handlers.CodeNoData, resp.Code)
	require.Len(t, resp.Details.Warnings, 1)
	assert.Equal(t, "missing_columns", resp.Details.Warnings[0].Reason)
}

func TestCreate_BadRequests(t *testing.T) {
	a := newTestAPI(t, 0)

	body, ct := multipartBody(t, map[string]string{})
	rec := a.do(t, http.MethodPost, "/api/analyses", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), handlers.CodeNoFiles)

	rec = a.do(t, http.MethodPost, "/api/analyses", bytes.NewBufferString("{}"), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), handlers.CodeInvalidUpload)
}

func TestCreate_RateLimited(t *testing.T) {
	a := newTestAPI(t, 1)

	rec := a.upload(t, map[string]string{"boeing.csv": boeingCSV})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = a.upload(t, map[string]string{"boeing.csv": boeingCSV})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestMetricsEndpoint(t *testing.T) {
	a := newTestAPI(t, 0)
	createSession(t, a)

	rec := a.do(t, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "dipscan_sessions_created_total 1")
	assert.Contains(t, body, `dipscan_files_skipped_total{reason="missing_columns"} 1`)
	assert.Contains(t, body, `route="/api/analyses"`)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	assert.Equal(t, "10.0.0.7", clientIP(req, false))
	assert.Equal(t, "10.0.0.7", clientIP(req, true))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "10.0.0.7", clientIP(req, false))
	assert.Equal(t, "203.0.113.9", clientIP(req, true))
}

func (a *testAPI) uploadFrom(t *testing.T, forwardedFor string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, map[string]string{"boeing.csv": boeingCSV})
	req := httptest.NewRequest(http.MethodPost, "/api/analyses", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Forwarded-For", forwardedFor)
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func TestCreate_RateLimitIgnoresForwardedForByDefault(t *testing.T) {
	a := newTestAPI(t, 1)

	require.Equal(t, http.StatusCreated, a.uploadFrom(t, "198.51.100.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, a.uploadFrom(t, "198.51.100.2").Code)
	assert.Equal(t, http.StatusTooManyRequests, a.uploadFrom(t, "198.51.100.3").Code)
}

func TestCreate_RateLimitPerForwardedClientBehindProxy(t *testing.T) {
	a := newTestAPIWithProxy(t, 1, true)

	require.Equal(t, http.StatusCreated, a.uploadFrom(t, "198.51.100.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, a.uploadFrom(t, "198.51.100.1").Code)
	assert.Equal(t, http.StatusCreated, a.uploadFrom(t, "198.51.100.2").Code)
}

func TestServer_Shutdown(t *testing.T) {
	srv := New(testConfig(), logger.Nop(), http.NotFoundHandler())
	assert.Equal(t, ":0", srv.Addr())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	time.Sleep(50 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.NoError(t, <-errCh)
}
