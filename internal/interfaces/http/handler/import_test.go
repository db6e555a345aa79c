package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/retail/backoffice/internal/domain/identity"
	"github.com/retail/backoffice/internal/interfaces/http/dto"
	"github.com/retail/backoffice/internal/interfaces/http/handler"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productFile = `code,name,unit,buy_price,sell_price,warehouse_qty,shop_qty
OIL,Sunflower oil 1l,bottle,3,4.5,20,6
FLOUR,Flour 2kg,bag,2,3,,
oil,Duplicate,bottle,1,1,1,1
SALT,Salt,kg,cheap,1,0,0
`

func (f *apiFixture) upload(t *testing.T, user *identity.User, contentType string, body io.Reader) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/import", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(testUserHeader, user.ID.String())
	req.Header.Set(testRoleHeader, string(user.Role))
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w, resp
}

func TestAPI_ImportProducts(t *testing.T) {
	api := newAPI(t, nil)

	w, resp := api.upload(t, api.Storekeeper, "text/csv", strings.NewReader(productFile))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var out handler.ImportResponse
	dataInto(t, resp, &out)
	assert.Equal(t, 2, out.Created)
	require.Len(t, out.Products, 2)
	assert.Equal(t, "OIL", out.Products[0].Code)
	assert.True(t, out.Products[0].ShopQty.Equal(decimal.NewFromInt(6)))

	require.Len(t, out.Failed, 2)
	assert.Equal(t, 4, out.Failed[0].Line)
	assert.Equal(t, "IMPORT_DUPLICATE_CODE", out.Failed[0].Code)
	assert.Equal(t, 5, out.Failed[1].Line)
	assert.Equal(t, "IMPORT_INVALID_NUMBER", out.Failed[1].Code)
	api.RequireBalanced(t)

	t.Run("reimport reports every code as taken", func(t *testing.T) {
		w, resp := api.upload(t, api.Storekeeper, "text/csv", strings.NewReader(productFile))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var again handler.ImportResponse
		dataInto(t, resp, &again)
		assert.Zero(t, again.Created)
		require.Len(t, again.Failed, 4)
		assert.Equal(t, "PRODUCT_CODE_EXISTS", again.Failed[0].Code)
	})
}

func TestAPI_ImportProducts_Multipart(t *testing.T) {
	api := newAPI(t, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "catalog.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("code,name\nTEA,Black tea\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w, resp := api.upload(t, api.Manager, mw.FormDataContentType(), &buf)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var out handler.ImportResponse
	dataInto(t, resp, &out)
	assert.Equal(t, 1, out.Created)
}

func TestAPI_ImportProducts_Rejections(t *testing.T) {
	api := newAPI(t, nil)

	t.Run("cashiers cannot import", func(t *testing.T) {
		w, _ := api.upload(t, api.Cashier, "text/csv", strings.NewReader(productFile))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("missing name column", func(t *testing.T) {
		w, resp := api.upload(t, api.Storekeeper, "text/csv", strings.NewReader("code,unit\nA,kg\n"))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "IMPORT_MISSING_COLUMNS", resp.Error.Code)
	})

	t.Run("empty file", func(t *testing.T) {
		w, resp := api.upload(t, api.Storekeeper, "text/csv", strings.NewReader(""))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "IMPORT_EMPTY_FILE", resp.Error.Code)
	})
}
