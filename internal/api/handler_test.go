package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockmate/internal/importer"
	"stockmate/internal/model"
	"stockmate/internal/parser"
	"stockmate/internal/service/backup"
	memstore "stockmate/internal/service/store"
	"stockmate/internal/store"
)

const sampleCSV = "N° SERIE,MARQUE,MODELE ou DESCRIPTION,TYPE MATERIEL,DATE ENTREE,PRIX ACHAT HT,FOURNISSEUR\n" +
	"3514C008,CANON,Imprimante,Imprimante,17/01/22,329.00,Bureau Vallée\n" +
	"PF3ABC,LENOVO,ThinkPad,PC PORTABLE,15/01/25,,\n"

type testEnv struct {
	router *gin.Engine
	store  *store.Store
	cache  *memstore.ProductCache
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	st, err := store.New(filepath.Join(dir, "stockmate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	cache := memstore.NewProductCache()
	coord := importer.NewCoordinator(st, cache, parser.MapperOptions{})
	backups, err := backup.NewManager(filepath.Join(dir, "backups"), st, 3)
	require.NoError(t, err)
	h := NewHandler(st, cache, coord, Options{
		UploadDir:      dir,
		ExportDir:      dir,
		MaxUploadBytes: 1 << 20,
		Backups:        backups,
	})
	t.Cleanup(h.Close)

	r := gin.New()
	h.RegisterRoutes(r.Group("/api"))
	return &testEnv{router: r, store: st, cache: cache}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) upload(t *testing.T, path, filename, content string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestProducts_CreateAndDuplicate(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/products", map[string]any{
		"serialNumber":    " SN-1 ",
		"brand":           "HP",
		"model":           "ProBook",
		"equipmentType":   "pc_portable",
		"entryDate":       "2024-01-17",
		"purchasePriceHt": 899.9,
		"supplier":        "Bureau Vallée",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[model.Product](t, w)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "SN-1", created.SerialNumber)
	assert.Equal(t, model.StatusInStock, created.Status)
	assert.Equal(t, 1, created.CurrentQuantity)
	assert.Equal(t, 1, env.cache.Count())

	// 手工新增不做自动改名
	w = env.do(t, http.MethodPost, "/api/products", map[string]any{
		"serialNumber": "SN-1",
		"brand":        "HP",
		"model":        "ProBook",
	})
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
}

func TestProducts_GetBySerial(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/products", map[string]any{
		"serialNumber": "SN-1",
		"brand":        "HP",
		"model":        "ProBook",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[model.Product](t, w)

	w = env.do(t, http.MethodGet, "/api/products/serial/SN-1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, created.ID, decode[model.Product](t, w).ID)

	// 内存列表尚未重载的设备从库中查到
	require.NoError(t, env.store.InsertProduct(context.Background(), &model.Product{
		SerialNumber:    "SN-2",
		Brand:           "Dell",
		Model:           "Latitude",
		EquipmentType:   model.EquipmentLaptop,
		Quantity:        1,
		CurrentQuantity: 1,
		Status:          model.StatusInStock,
	}))
	_, err := env.cache.BySerial("SN-2")
	require.ErrorIs(t, err, memstore.ErrProductNotFound)

	w = env.do(t, http.MethodGet, "/api/products/serial/SN-2", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Dell", decode[model.Product](t, w).Brand)

	w = env.do(t, http.MethodGet, "/api/products/serial/UNKNOWN", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// 数字 id 路由不受影响
	w = env.do(t, http.MethodGet, "/api/products/"+strconv.FormatInt(created.ID, 10), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProducts_Validation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	cases := []map[string]any{
		{"brand": "HP", "model": "X"},
		{"serialNumber": "A", "brand": "HP", "model": "X", "status": "PERDU"},
		{"serialNumber": "A", "brand": "HP", "model": "X", "equipmentType": "frigo"},
		{"serialNumber": "A", "brand": "HP", "model": "X", "entryDate": "17/01/2024"},
		{"serialNumber": "A", "brand": "HP", "model": "X", "purchasePriceHt": -1},
	}
	for _, body := range cases {
		w := env.do(t, http.MethodPost, "/api/products", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}

	w := env.do(t, http.MethodGet, "/api/products/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(t, http.MethodGet, "/api/products/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProducts_UpdateStatusDelete(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/products", map[string]any{
		"serialNumber": "SN-2", "brand": "DELL", "model": "Latitude", "assignment": "Marie",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode[model.Product](t, w).ID
	path := "/api/products/" + strconv.FormatInt(id, 10)

	// 部分更新：未出现的字段保持不变，null 清空
	w = env.do(t, http.MethodPatch, path, map[string]any{"model": "Latitude 5440", "assignment": nil})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[model.Product](t, w)
	assert.Equal(t, "Latitude 5440", updated.Model)
	assert.Equal(t, "DELL", updated.Brand)
	assert.Nil(t, updated.Assignment)

	w = env.do(t, http.MethodPatch, path+"/status", map[string]any{"status": "sav"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, model.StatusRepair, decode[model.Product](t, w).Status)

	w = env.do(t, http.MethodPatch, path+"/status", map[string]any{"status": "LOST"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 0, env.cache.Count())
}

func TestImport_JSONReport(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	w := env.upload(t, "/api/import", "stock.csv", sampleCSV)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	report := decode[parser.ImportReport](t, w)
	assert.Equal(t, "stock.csv", report.Filename)
	assert.Equal(t, parser.TemplateStandard, report.Template)
	require.NotNil(t, report.Outcome)
	assert.Equal(t, 2, report.Outcome.Attempted)
	assert.Equal(t, 2, report.Outcome.Succeeded)
	assert.Equal(t, 1, report.SuppliersAdded)

	// 列表过滤
	w = env.do(t, http.MethodGet, "/api/products?equipmentType=imprimante", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[listProductsResponse](t, w)
	assert.Equal(t, 1, list.Total)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "3514C008", list.Items[0].SerialNumber)

	w = env.do(t, http.MethodGet, "/api/products?page=1&pageSize=1", nil)
	list = decode[listProductsResponse](t, w)
	assert.Equal(t, 2, list.Total)
	assert.Len(t, list.Items, 1)

	w = env.do(t, http.MethodGet, "/api/products?status=PERDU", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 导入日志与供应商
	w = env.do(t, http.MethodGet, "/api/imports", nil)
	require.Equal(t, http.StatusOK, w.Code)
	logs := decode[struct {
		Items []model.ImportLog `json:"items"`
	}](t, w)
	require.Len(t, logs.Items, 1)
	assert.Equal(t, store.ImportStatusDone, logs.Items[0].Status)

	w = env.do(t, http.MethodGet, "/api/suppliers", nil)
	suppliers := decode[struct {
		Items []model.Supplier `json:"items"`
	}](t, w)
	require.Len(t, suppliers.Items, 1)
	assert.Equal(t, "Bureau Vallée", suppliers.Items[0].Name)

	w = env.do(t, http.MethodPost, "/api/suppliers/sync", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"inserted":0}`, w.Body.String())
}

func TestImport_Stream(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	w := env.upload(t, "/api/import?stream=true", "stock.csv", sampleCSV)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	var types []string
	for _, line := range strings.Split(w.Body.String(), "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var evt importer.ProgressEvent
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &evt))
		types = append(types, evt.Type)
	}
	assert.Equal(t, []string{importer.EventStart, importer.EventInfo, importer.EventSync, importer.EventDone}, types)
}

func TestImport_Rejected(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	w := env.upload(t, "/api/import", "stock.pdf", "%PDF")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.upload(t, "/api/import", "broken.json", "{not json")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/import", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSuppliers_Create(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/suppliers", map[string]any{"name": " LDLC ", "email": "pro@ldlc.fr"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sp := decode[model.Supplier](t, w)
	assert.Equal(t, "LDLC", sp.Name)
	assert.True(t, sp.Active)

	w = env.do(t, http.MethodPost, "/api/suppliers", map[string]any{"name": "LDLC"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPost, "/api/suppliers", map[string]any{"name": "X", "email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExport_Download(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	w := env.upload(t, "/api/import", "stock.csv", sampleCSV)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/export", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[exportResult](t, w)
	assert.True(t, strings.HasPrefix(res.Filename, "inventaire_"))
	require.True(t, strings.HasPrefix(res.DownloadURL, "/api/export/download/"))

	w = env.do(t, http.MethodGet, res.DownloadURL, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), res.Filename)

	parsed, err := parser.Parse(bytes.NewReader(w.Body.Bytes()), parser.FormatXLSX)
	require.NoError(t, err)
	assert.Len(t, parsed.Records, 2)

	// 一次性链接
	w = env.do(t, http.MethodGet, res.DownloadURL, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatusAndStats(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	status := decode[StatusResponse](t, w)
	assert.False(t, status.Initialized)
	assert.Nil(t, status.LastImportTime)

	w = env.upload(t, "/api/import", "stock.csv", sampleCSV)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/status", nil)
	status = decode[StatusResponse](t, w)
	assert.True(t, status.Initialized)
	assert.Equal(t, 2, status.TotalProducts)
	assert.Equal(t, 2, status.CachedProducts)
	assert.NotNil(t, status.LastImportTime)

	w = env.do(t, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[StatsResponse](t, w)
	require.NotNil(t, stats.Summary)
	assert.Equal(t, 2, stats.Summary.Products)
	assert.Equal(t, 1, stats.Summary.Suppliers)
	require.NotEmpty(t, stats.Groups)
	assert.Equal(t, "Inventaire", stats.Groups[0].Name)
}

func TestBackups(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	w := env.upload(t, "/api/import", "stock.csv", sampleCSV)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/backups", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	manual := decode[backup.Entry](t, w)
	assert.Equal(t, backup.ReasonManual, manual.Reason)

	w = env.do(t, http.MethodGet, "/api/backups", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Items   []backup.Entry `json:"items"`
		Enabled bool           `json:"enabled"`
	}](t, w)
	assert.True(t, list.Enabled)
	require.Len(t, list.Items, 2)
	assert.Equal(t, manual.ID, list.Items[0].ID)
	assert.Equal(t, backup.ReasonImport, list.Items[1].Reason)
}

func TestConfig(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/config", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"defaultUsageMonths":36}`, w.Body.String())

	w = env.do(t, http.MethodPatch, "/api/config", map[string]any{"defaultUsageMonths": 48})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"defaultUsageMonths":48}`, w.Body.String())

	w = env.do(t, http.MethodPatch, "/api/config", map[string]any{"defaultUsageMonths": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
