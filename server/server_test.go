package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xhs-insight/models"
	"xhs-insight/services"
	"xhs-insight/session"
	"xhs-insight/storage"
	"xhs-insight/utils"
)

const sampleCSV = "title,likes,link,cover\nPost A,1.5万,urlA,imgA\nPost B,200,urlB,imgB\n,赞,,\n"

type stubGenerator struct {
	text string
	err  error
}

func (g *stubGenerator) GenerateReport(ctx context.Context, posts []*models.CleanPost) (string, error) {
	return g.text, g.err
}

type stubRenderer struct{ got *storage.ReportDocument }

func (r *stubRenderer) RenderPDF(ctx context.Context, doc *storage.ReportDocument) ([]byte, error) {
	r.got = doc
	return []byte("%PDF-1.4 stub"), nil
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type testEnv struct {
	app      *fiber.App
	renderer *stubRenderer
}

func newTestEnv(t *testing.T, gen services.ReportGenerator) *testEnv {
	t.Helper()
	logger := utils.NewNopLogger()
	renderer := &stubRenderer{}

	var reports *services.ReportService
	if gen != nil {
		reports = services.NewReportService(gen, "gemini-test", logger)
	}

	app := New(Deps{
		Parser:         services.NewParser(logger),
		Sessions:       session.NewStore(time.Hour, logger),
		Reports:        reports,
		Renderer:       renderer,
		MaxUploadBytes: 1 << 20,
		Logger:         logger,
	})
	return &testEnv{app: app, renderer: renderer}
}

func multipartRequest(t *testing.T, method, target, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func (e *testEnv) do(t *testing.T, req *http.Request) (int, apiResponse) {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out apiResponse
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &out), "body: %s", raw)
	return resp.StatusCode, out
}

func (e *testEnv) upload(t *testing.T) datasetResponse {
	t.Helper()
	status, out := e.do(t, multipartRequest(t, http.MethodPost, "/api/sessions", "posts.csv", []byte(sampleCSV)))
	require.Equal(t, http.StatusOK, status, out.Error)

	var ds datasetResponse
	require.NoError(t, json.Unmarshal(out.Data, &ds))
	return ds
}

func TestUploadCreatesSession(t *testing.T) {
	env := newTestEnv(t, nil)
	ds := env.upload(t)

	assert.NotEmpty(t, ds.SessionID)
	assert.EqualValues(t, 1, ds.Generation)
	require.Len(t, ds.Posts, 3)
	assert.Equal(t, 15000, ds.Posts[0].Likes)
	assert.Equal(t, models.DefaultTitle, ds.Posts[2].Title)
	require.NotNil(t, ds.Summary)
	assert.Equal(t, 200, ds.Summary.MedianLikes)
	assert.Equal(t, models.TierTail, ds.Summary.Tier)
	assert.Equal(t, "Post A", ds.Summary.TopPosts[0].Title)
}

func TestUploadRawTextBody(t *testing.T) {
	env := newTestEnv(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(sampleCSV))
	req.Header.Set("Content-Type", "text/csv")

	status, out := env.do(t, req)
	assert.Equal(t, http.StatusOK, status, out.Error)
}

func TestUploadUnparseable(t *testing.T) {
	env := newTestEnv(t, nil)
	status, out := env.do(t, multipartRequest(t, http.MethodPost, "/api/sessions", "empty.csv", []byte("title,likes")))

	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.False(t, out.Success)
	assert.Contains(t, out.Error, "could not parse")
}

func TestUploadMissingFile(t *testing.T) {
	env := newTestEnv(t, nil)
	status, out := env.do(t, httptest.NewRequest(http.MethodPost, "/api/sessions", nil))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, out.Success)
}

func TestReplaceDataset(t *testing.T) {
	env := newTestEnv(t, nil)
	ds := env.upload(t)

	status, out := env.do(t, multipartRequest(t, http.MethodPut, "/api/sessions/"+ds.SessionID+"/dataset",
		"next.csv", []byte("title,likes\nX,6000\n")))
	require.Equal(t, http.StatusOK, status, out.Error)

	var next datasetResponse
	require.NoError(t, json.Unmarshal(out.Data, &next))
	assert.EqualValues(t, 2, next.Generation)
	assert.Equal(t, models.TierHead, next.Summary.Tier)

	status, _ = env.do(t, httptest.NewRequest(http.MethodGet, "/api/sessions/"+ds.SessionID+"/summary", nil))
	assert.Equal(t, http.StatusOK, status)
}

func TestReplaceWithBadFileKeepsPreviousData(t *testing.T) {
	env := newTestEnv(t, nil)
	ds := env.upload(t)

	status, _ := env.do(t, multipartRequest(t, http.MethodPut, "/api/sessions/"+ds.SessionID+"/dataset",
		"bad.csv", []byte("only-a-header")))
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, out := env.do(t, httptest.NewRequest(http.MethodGet, "/api/sessions/"+ds.SessionID+"/posts", nil))
	require.Equal(t, http.StatusOK, status)
	var posts []*models.CleanPost
	require.NoError(t, json.Unmarshal(out.Data, &posts))
	assert.Len(t, posts, 3)
}

func TestUnknownSession(t *testing.T) {
	env := newTestEnv(t, nil)
	status, out := env.do(t, httptest.NewRequest(http.MethodGet, "/api/sessions/nope/summary", nil))
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, out.Success)
}

func TestReportFlow(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{text: "## 人设资产与定位审计\n内容"})
	ds := env.upload(t)
	base := "/api/sessions/" + ds.SessionID

	status, _ := env.do(t, httptest.NewRequest(http.MethodGet, base+"/report", nil))
	assert.Equal(t, http.StatusNotFound, status)

	status, out := env.do(t, httptest.NewRequest(http.MethodPost, base+"/report", nil))
	require.Equal(t, http.StatusOK, status, out.Error)
	var report models.Report
	require.NoError(t, json.Unmarshal(out.Data, &report))
	assert.Equal(t, "gemini-test", report.Model)
	assert.EqualValues(t, 1, report.Generation)

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, base+"/report?format=text", nil), -1)
	require.NoError(t, err)
	text, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "## 人设资产与定位审计\n内容", string(text))

	resp, err = env.app.Test(httptest.NewRequest(http.MethodGet, base+"/report.pdf", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	require.NotNil(t, env.renderer.got)
	assert.Equal(t, 200, env.renderer.got.Summary.MedianLikes)
}

func TestReportFailureIsBadGateway(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{err: errors.New("quota exceeded")})
	ds := env.upload(t)

	status, out := env.do(t, httptest.NewRequest(http.MethodPost, "/api/sessions/"+ds.SessionID+"/report", nil))
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Contains(t, out.Error, "quota exceeded")
}

func TestReportWithoutGenerator(t *testing.T) {
	env := newTestEnv(t, nil)
	ds := env.upload(t)

	status, _ := env.do(t, httptest.NewRequest(http.MethodPost, "/api/sessions/"+ds.SessionID+"/report", nil))
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestPostsCSVExport(t *testing.T) {
	env := newTestEnv(t, nil)
	ds := env.upload(t)

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/api/sessions/"+ds.SessionID+"/posts.csv", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "1,Post A,15000,urlA,imgA")
	assert.Contains(t, string(body), "3,no title,0,,")
}

func TestIndexAndHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "XHS INSIGHT")

	resp, err = env.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
