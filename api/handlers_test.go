package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/spektr-org/tabula/assistant"
	"github.com/spektr-org/tabula/schema"
)

const streetsCSV = "Location,Date,Action\nA St,6/1/2025,Fixed leak\nB St,6/15/2025,Changed filter\n"

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewRouter(assistant.New(nil), DefaultConfig(), zerolog.Nop()))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, contentType string, body []byte) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func ask(t *testing.T, srv *httptest.Server, question string) (*http.Response, map[string]any) {
	t.Helper()
	body, err := json.Marshal(AskRequestDTO{Question: question})
	require.NoError(t, err)
	resp := do(t, http.MethodPost, srv.URL+"/api/v1/ask", "application/json", body)
	return resp, decode[map[string]any](t, resp)
}

func TestHealth(t *testing.T) {
	srv := newServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/health", "", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", decode[map[string]string](t, resp)["status"])
}

func TestAsk_NoDataset(t *testing.T) {
	srv := newServer(t)

	resp, out := ask(t, srv, "how many records")

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, assistant.NoDatasetMessage, out["error"])
}

func TestLoadCSVThenAsk(t *testing.T) {
	srv := newServer(t)

	resp := do(t, http.MethodPut, srv.URL+"/api/v1/dataset?name=streets.csv", ContentTypeCSV, []byte(streetsCSV))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	loaded := decode[DatasetResponseDTO](t, resp)
	assert.Equal(t, "streets.csv", loaded.Name)
	assert.Equal(t, 2, loaded.Records)
	assert.Equal(t, []string{"Location", "Date", "Action"}, loaded.Columns)

	resp, out := ask(t, srv, "how many in June")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "count", out["intent"])
	assert.EqualValues(t, 2, out["total"])
	assert.Contains(t, out["answer"], "Found 2 records")
	assert.Contains(t, out["answer"], assistant.UnavailableNote)
	assert.Equal(t, true, out["degraded"])
	assert.NotEmpty(t, out["requestId"])
}

func TestAsk_Blank(t *testing.T) {
	srv := newServer(t)
	do(t, http.MethodPut, srv.URL+"/api/v1/dataset", ContentTypeCSV, []byte(streetsCSV))

	resp, out := ask(t, srv, "  ")

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, assistant.BlankMessage, out["error"])
}

func TestAsk_InvalidBody(t *testing.T) {
	srv := newServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/v1/ask", "application/json", []byte("{"))

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid request body", decode[map[string]string](t, resp)["error"])
}

func TestLoadJSON(t *testing.T) {
	srv := newServer(t)
	body := `{"name":"jobs","header":["Location","Cost"],"rows":[["A St",12.5],["B St",3]]}`

	resp := do(t, http.MethodPut, srv.URL+"/api/v1/dataset", "application/json", []byte(body))

	require.Equal(t, http.StatusOK, resp.StatusCode)
	loaded := decode[DatasetResponseDTO](t, resp)
	assert.Equal(t, "jobs", loaded.Name)
	assert.Equal(t, 2, loaded.Records)
}

func TestLoadJSON_NoHeader(t *testing.T) {
	srv := newServer(t)

	resp := do(t, http.MethodPut, srv.URL+"/api/v1/dataset", "application/json", []byte(`{"rows":[["x"]]}`))

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoadXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Location", "Action"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"A St", "Fixed leak"}))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())
	srv := newServer(t)

	resp := do(t, http.MethodPut, srv.URL+"/api/v1/dataset", ContentTypeXLSX, buf.Bytes())

	require.Equal(t, http.StatusOK, resp.StatusCode)
	loaded := decode[DatasetResponseDTO](t, resp)
	assert.Equal(t, sheet, loaded.Name)
	assert.Equal(t, 1, loaded.Records)
}

func TestLoadTooLarge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBodyBytes = 16
	srv := httptest.NewServer(NewRouter(assistant.New(nil), cfg, zerolog.Nop()))
	defer srv.Close()

	resp := do(t, http.MethodPut, srv.URL+"/api/v1/dataset", ContentTypeCSV, []byte(strings.Repeat("a,b\n", 20)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestColumnsAndClear(t *testing.T) {
	srv := newServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/api/v1/dataset/columns", "", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	do(t, http.MethodPut, srv.URL+"/api/v1/dataset?name=streets", ContentTypeCSV, []byte(streetsCSV))

	resp = do(t, http.MethodGet, srv.URL+"/api/v1/dataset/columns", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cfg := decode[schema.Config](t, resp)
	assert.Equal(t, "streets", cfg.Name)
	assert.Equal(t, 2, cfg.RowCount)
	require.Len(t, cfg.Columns, 3)
	assert.Equal(t, "Location", cfg.Columns[0].Name)

	resp = do(t, http.MethodDelete, srv.URL+"/api/v1/dataset", "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = ask(t, srv, "how many")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
