package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/tabedit/internal/config"
	"github.com/JonMunkholm/tabedit/internal/core"
	"github.com/JonMunkholm/tabedit/internal/tabfile"
)

const peopleCSV = "name,email\nAda Lovelace,ada@example.com\nAlan Turing,alan@example.org\n"

type testClient struct {
	t      *testing.T
	srv    *Server
	cookie *http.Cookie
}

func newTestClient(t *testing.T) *testClient {
	t.Helper()
	cfg := &config.Config{
		Server:   config.ServerConfig{RequestTimeout: 10 * time.Second},
		Upload:   config.UploadConfig{MaxFileSize: 1 << 20, MaxConcurrent: 2, MaxWaitTime: time.Second},
		Security: config.SecurityConfig{EnableCSP: true},
		Editor:   config.EditorConfig{PreviewLimit: 10, PageSize: 10},
	}
	svc := core.NewService(core.ServiceConfig{
		MaxFileSize:          cfg.Upload.MaxFileSize,
		MaxConcurrentUploads: cfg.Upload.MaxConcurrent,
	}, tabfile.Codec{}, nil)
	srv := NewServer(svc, cfg)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testClient{t: t, srv: srv}
}

func (c *testClient) do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	c.srv.Router().ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == sessionCookie {
			c.cookie = ck
		}
	}
	return rec
}

func (c *testClient) get(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *testClient) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *testClient) postJSON(path string, body any) *httptest.ResponseRecorder {
	data, err := json.Marshal(body)
	require.NoError(c.t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *testClient) upload(path, field, name string, content []byte, extra map[string]string) *httptest.ResponseRecorder {
	c.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, name)
	require.NoError(c.t, err)
	_, err = fw.Write(content)
	require.NoError(c.t, err)
	for k, v := range extra {
		require.NoError(c.t, mw.WriteField(k, v))
	}
	require.NoError(c.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req)
}

func (c *testClient) table() TableResponse {
	c.t.Helper()
	rec := c.get("/api/table")
	require.Equal(c.t, http.StatusOK, rec.Code)
	var resp TableResponse
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func (c *testClient) loadPeople() {
	c.t.Helper()
	rec := c.upload("/upload", "file", "people.csv", []byte(peopleCSV), nil)
	require.Equal(c.t, http.StatusSeeOther, rec.Code, rec.Body.String())
}

func TestIndex_SetsSessionCookie(t *testing.T) {
	c := newTestClient(t)

	rec := c.get("/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Load a .csv, .xlsx or .xls file")
	require.NotNil(t, c.cookie)
	assert.True(t, c.cookie.HttpOnly)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))

	first := c.cookie.Value
	c.get("/")
	assert.Equal(t, first, c.cookie.Value, "session is reused")
}

func TestUpload_ShowsGrid(t *testing.T) {
	c := newTestClient(t)
	c.loadPeople()

	rec := c.get("/")
	body := rec.Body.String()
	assert.Contains(t, body, "ada@example.com")
	assert.Contains(t, body, `href="/edit/email"`)
	assert.Contains(t, body, "Download Excel")
	assert.NotContains(t, body, "/export.csv")

	tbl := c.table()
	assert.Equal(t, "people.csv", tbl.FileName)
	assert.Equal(t, []string{"name", "email"}, tbl.Columns)
	assert.Equal(t, 2, tbl.TotalRows)
}

func TestUpload_Errors(t *testing.T) {
	c := newTestClient(t)
	c.loadPeople()

	tests := []struct {
		name   string
		file   string
		data   string
		status int
		code   string
	}{
		{"unsupported type", "notes.txt", "hello", http.StatusUnsupportedMediaType, "FILE006"},
		{"empty csv", "empty.csv", "", http.StatusBadRequest, "FILE005"},
		{"garbage xlsx", "bad.xlsx", "not a zip", http.StatusBadRequest, "FILE007"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := c.upload("/upload", "file", tt.file, []byte(tt.data), nil)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.code)
			assert.Equal(t, "people.csv", c.table().FileName, "table unchanged")
		})
	}
}

func TestUpload_NoFile(t *testing.T) {
	c := newTestClient(t)
	rec := c.postForm("/upload", url.Values{"charset": {"utf-8"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "FILE004")
}

func TestUpload_Charset(t *testing.T) {
	c := newTestClient(t)
	rec := c.upload("/upload", "file", "cafe.csv", []byte("name\ncaf\xe9\n"), map[string]string{"charset": "windows-1252"})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "café", c.table().Rows[0]["name"])
}

func TestEditDialog_PreviewApplyUndo(t *testing.T) {
	c := newTestClient(t)
	c.loadPeople()

	rec := c.get("/edit/email")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, c.get("/").Body.String(), "Edit Column: email")

	rec = c.postForm("/edit/preview", url.Values{"op": {"splitByChar"}, "delimiter": {"@"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	page := c.get("/").Body.String()
	assert.Contains(t, page, "2 of 2 rows would change")
	assert.Contains(t, page, "email_split")
	assert.Equal(t, []string{"name", "email"}, c.table().Columns, "preview does not commit")

	rec = c.postForm("/edit/apply", url.Values{"op": {"splitByChar"}, "delimiter": {"@"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	tbl := c.table()
	assert.Equal(t, []string{"name", "email", "email_split"}, tbl.Columns)
	assert.Equal(t, "ada", tbl.Rows[0]["email"])
	assert.Equal(t, "example.com", tbl.Rows[0]["email_split"])
	assert.Equal(t, "idle", tbl.State)
	assert.Equal(t, 1, tbl.UndoDepth)

	rec = c.postForm("/undo", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	tbl = c.table()
	assert.Equal(t, []string{"name", "email"}, tbl.Columns)
	assert.Equal(t, "ada@example.com", tbl.Rows[0]["email"])
}

func TestEditDialog_InvalidExpressionKeepsTable(t *testing.T) {
	c := newTestClient(t)
	c.loadPeople()
	c.get("/edit/name")

	rec := c.postForm("/edit/apply", url.Values{"op": {"customExpression"}, "expression": {"value.("}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "EXPR001")
	assert.Contains(t, body, "Edit Column: name", "dialog stays open")
	assert.Equal(t, "Ada Lovelace", c.table().Rows[0]["name"])
}

func TestEditDialog_Transitions(t *testing.T) {
	c := newTestClient(t)
	c.loadPeople()

	rec := c.postForm("/edit/preview", url.Values{"op": {"removeSpaces"}})
	assert.Equal(t, http.StatusConflict, rec.Code, "preview needs an open dialog")

	c.get("/edit/name")
	assert.Equal(t, http.StatusSeeOther, c.get("/edit/name").Code, "reopening the same column")
	rec = c.get("/edit/email")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "EDIT001")

	require.Equal(t, http.StatusSeeOther, c.postForm("/edit/cancel", nil).Code)
	assert.Equal(t, "idle", c.table().State)

	assert.Equal(t, http.StatusNotFound, c.get("/edit/missing").Code)
	assert.Equal(t, http.StatusConflict, c.postForm("/undo", nil).Code)
}

func TestEditDialog_UnknownOperation(t *testing.T) {
	c := newTestClient(t)
	c.loadPeople()
	c.get("/edit/name")

	rec := c.postForm("/edit/operation", url.Values{"op": {"dropTable"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "EDIT003")
}

func TestEditDialog_EscapesColumnNames(t *testing.T) {
	c := newTestClient(t)
	rec := c.upload("/upload", "file", "x.csv", []byte("<b>bold</b>\n<i>x</i>\n"), nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	body := c.get("/").Body.String()
	assert.NotContains(t, body, "<b>bold</b>")
	assert.Contains(t, body, "&lt;b&gt;bold&lt;/b&gt;")
	assert.Contains(t, body, `href="/edit/%3Cb%3Ebold%3C%2Fb%3E"`)

	require.Equal(t, http.StatusSeeOther, c.get("/edit/%3Cb%3Ebold%3C%2Fb%3E").Code)
	assert.Equal(t, "<b>bold</b>", c.table().Column)
}

func TestExport(t *testing.T) {
	c := newTestClient(t)

	rec := c.get("/export.xlsx")
	assert.Equal(t, http.StatusConflict, rec.Code, "empty table")
	assert.Contains(t, rec.Body.String(), "TBL003")

	c.loadPeople()
	rec = c.get("/export.xlsx")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="edited_data.xlsx"`, rec.Header().Get("Content-Disposition"))

	back, err := tabfile.DecodeXLSX(rec.Body, core.DecodeOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, back.Len())
	assert.Equal(t, []string{"name", "email"}, back.Columns())

	rec = c.get("/export.csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, peopleCSV, rec.Body.String())
}

func TestRecipe_DownloadAndRun(t *testing.T) {
	c := newTestClient(t)
	c.loadPeople()

	rec := c.get("/recipe.yaml")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "EDIT004")
	assert.NotContains(t, rec.Body.String(), "EDIT002")

	rec = c.postJSON("/api/apply", OperationRequest{Column: "name", Op: core.OpRemoveSpaces})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = c.get("/recipe.yaml")
	require.Equal(t, http.StatusOK, rec.Code)
	recipe, err := core.ParseRecipe(rec.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, recipe.Steps, 1)
	assert.Equal(t, core.OpRemoveSpaces, recipe.Steps[0].Op)

	yaml := "steps:\n  - column: email\n    op: splitByChar\n    delimiter: \"@\"\n  - column: email_split\n    op: customExpression\n    expression: value.toUpperCase()\n"
	rec = c.upload("/recipe", "recipe", "r.yaml", []byte(yaml), nil)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	tbl := c.table()
	assert.Equal(t, "EXAMPLE.COM", tbl.Rows[0]["email_split"])
	assert.Equal(t, 3, tbl.Steps)

	bad := "steps:\n  - column: email\n    op: removeSpaces\n  - column: nope\n    op: removeSpaces\n"
	rec = c.upload("/recipe", "recipe", "bad.yaml", []byte(bad), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, tbl.Rows, c.table().Rows, "failed recipe changes nothing")
}

func TestAPI_PreviewApplyProfile(t *testing.T) {
	c := newTestClient(t)
	c.loadPeople()

	rec := c.postJSON("/api/preview", OperationRequest{Column: "name", Op: "customExpression", Expression: "value.toUpperCase()"})
	require.Equal(t, http.StatusOK, rec.Code)
	var p core.Preview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "ADA LOVELACE", p.Rows[0]["name"])
	assert.Equal(t, 2, p.ChangedRows)
	assert.Equal(t, "Ada Lovelace", c.table().Rows[0]["name"])

	rec = c.postJSON("/api/apply", OperationRequest{Column: "name", Op: "removeSpecial"})
	require.Equal(t, http.StatusOK, rec.Code)
	var res core.ApplyResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 0, res.RowsAffected)

	rec = c.get("/api/profile/email")
	require.Equal(t, http.StatusOK, rec.Code)
	var prof core.ColumnProfile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prof))
	assert.Equal(t, 2, prof.Rows)
	assert.Equal(t, 2, prof.Distinct)
}

func TestAPI_Errors(t *testing.T) {
	c := newTestClient(t)
	c.loadPeople()

	tests := []struct {
		name   string
		rec    func() *httptest.ResponseRecorder
		status int
		code   string
	}{
		{
			name:   "unknown column",
			rec:    func() *httptest.ResponseRecorder { return c.postJSON("/api/apply", OperationRequest{Column: "x", Op: "removeSpaces"}) },
			status: http.StatusNotFound,
			code:   "TBL004",
		},
		{
			name:   "bad expression",
			rec:    func() *httptest.ResponseRecorder { return c.postJSON("/api/preview", OperationRequest{Column: "name", Op: "customExpression", Expression: "nope"}) },
			status: http.StatusBadRequest,
			code:   "EXPR001",
		},
		{
			name:   "unknown field",
			rec:    func() *httptest.ResponseRecorder { return c.postJSON("/api/apply", map[string]string{"colum": "name"}) },
			status: http.StatusBadRequest,
			code:   "REQ001",
		},
		{
			name:   "profile of missing column",
			rec:    func() *httptest.ResponseRecorder { return c.get("/api/profile/missing") },
			status: http.StatusNotFound,
			code:   "TBL004",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := tt.rec()
			assert.Equal(t, tt.status, rec.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Code)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestAPI_ApplyRejectedWhileEditing(t *testing.T) {
	c := newTestClient(t)
	c.loadPeople()
	c.get("/edit/name")

	rec := c.postJSON("/api/apply", OperationRequest{Column: "name", Op: "removeSpaces"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHelp(t *testing.T) {
	c := newTestClient(t)
	rec := c.get("/help")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1")
	assert.Contains(t, rec.Body.String(), "toUpperCase()")
	assert.Nil(t, c.cookie, "help needs no session")
}

func TestHealth(t *testing.T) {
	c := newTestClient(t)

	rec := c.get("/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Uploads.MaxConcurrent)

	c.srv.AddHealthCheck("audit", func(context.Context) error { return errors.New("down") })
	rec = c.get("/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "failing", resp.Checks["audit"])
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrColumnNotFound, http.StatusNotFound},
		{core.ErrInvalidTransition, http.StatusConflict},
		{core.ErrNothingToUndo, http.StatusConflict},
		{core.ErrNoSteps, http.StatusConflict},
		{core.ErrEmptyTable, http.StatusConflict},
		{core.ErrUnsupportedFileType, http.StatusUnsupportedMediaType},
		{core.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{core.ErrTooManyUploads, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errNoFile, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     2,
		window:   time.Minute,
		now:      func() time.Time { return now },
	}

	assert.True(t, rl.allow("1.2.3.4"))
	assert.True(t, rl.allow("1.2.3.4"))
	assert.False(t, rl.allow("1.2.3.4"))
	assert.True(t, rl.allow("5.6.7.8"), "limits are per IP")

	now = now.Add(time.Minute + time.Second)
	assert.True(t, rl.allow("1.2.3.4"), "window reset")
}
