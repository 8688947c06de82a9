package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain/credit"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/Inventario-ledger/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/Inventario-ledger/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixture: API completa sobre el store en memoria
// ──────────────────────────────────────────────────────────────────────────────

const (
	productA   = "prod-a"
	productB   = "prod-b"
	warehouse1 = "wh-1"
)

type ledgerAPI struct {
	t     *testing.T
	app   *fiber.App
	store *memory.Store
}

func newLedgerAPI(t *testing.T) *ledgerAPI {
	t.Helper()
	store := memory.NewStore()
	store.AddProduct(entity.Product{ID: productA, CompanyID: testCompanyID, SKU: "A-1", Name: "Arroz", MinStockThreshold: 5})
	store.AddProduct(entity.Product{ID: productB, CompanyID: testCompanyID, SKU: "B-1", Name: "Frijol"})
	store.AddWarehouse(entity.Warehouse{ID: warehouse1, CompanyID: testCompanyID, Name: "Principal"})

	// 10:00 en Bogotá
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	tracker := credit.NewTracker(credit.DefaultUTCOffsetHours).WithClock(func() time.Time { return now })
	uc := inventory.NewLedgerUseCase(store, store.Products(), store.Warehouses(), store.Movements(),
		tracker, inventory.Config{DueSoonDays: 3}, zerolog.Nop())

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Ledger:      uc,
		JWTSecret:   testJWTSecret,
		ServiceName: "inventario-ledger-test",
		Logger:      zerolog.Nop(),
	})
	return &ledgerAPI{t: t, app: app, store: store}
}

func (a *ledgerAPI) do(method, path, role string, body any) (*http.Response, []byte) {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		if raw, ok := body.(string); ok {
			reader = bytes.NewBufferString(raw)
		} else {
			buf, err := json.Marshal(body)
			require.NoError(a.t, err)
			reader = bytes.NewReader(buf)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", bearerFor(a.t, role, testCompanyID))
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	return resp, out
}

func (a *ledgerAPI) purchase(qty int64, unitCost string) dto.MovementResponse {
	a.t.Helper()
	resp, body := a.do(http.MethodPost, "/api/ledger/purchases", pkgjwt.RoleBodeguero, map[string]any{
		"product_id":   productA,
		"warehouse_id": warehouse1,
		"quantity":     qty,
		"unit_cost":    unitCost,
		"payment_type": "cash",
	})
	require.Equal(a.t, http.StatusCreated, resp.StatusCode, string(body))
	var mov dto.MovementResponse
	require.NoError(a.t, json.Unmarshal(body, &mov))
	return mov
}

func saleBody(qty int64, price string) map[string]any {
	return map[string]any{
		"product_id":   productA,
		"warehouse_id": warehouse1,
		"quantity":     qty,
		"unit_price":   price,
		"payment_type": "cash",
	}
}

func decodeError(t *testing.T, body []byte) dto.ErrorResponse {
	t.Helper()
	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e), string(body))
	return e
}

// ──────────────────────────────────────────────────────────────────────────────
// Compras y ventas
// ──────────────────────────────────────────────────────────────────────────────

func TestLedgerAPI_CompraYVentaFIFO(t *testing.T) {
	api := newLedgerAPI(t)
	first := api.purchase(5, "1000")
	assert.Equal(t, "ING-000001", first.MovementNumber)
	api.purchase(5, "1200")

	resp, body := api.do(http.MethodPost, "/api/ledger/sales", pkgjwt.RoleVendedor, saleBody(7, "2000"))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var sale dto.MovementResponse
	require.NoError(t, json.Unmarshal(body, &sale))

	assert.Equal(t, "VEN-000001", sale.MovementNumber)
	assert.Equal(t, entity.MovementTypeSale, sale.Type)
	require.NotNil(t, sale.UnitCost)
	// (5×1000 + 2×1200) / 7
	assert.Equal(t, "1057.14", sale.UnitCost.StringFixed(2))
	require.NotNil(t, sale.Profit)
	assert.Equal(t, "6600", sale.Profit.String())
	assert.Equal(t, first.BatchID, sale.BatchID)
}

func TestLedgerAPI_CompraConRolVendedor_Retorna403(t *testing.T) {
	api := newLedgerAPI(t)
	resp, _ := api.do(http.MethodPost, "/api/ledger/purchases", pkgjwt.RoleVendedor, map[string]any{
		"product_id": productA, "warehouse_id": warehouse1, "quantity": 1, "unit_cost": "10", "payment_type": "cash",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestLedgerAPI_SinToken_Retorna401(t *testing.T) {
	api := newLedgerAPI(t)
	resp, _ := api.do(http.MethodGet, "/api/ledger/credits/due", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLedgerAPI_VentaSinStock_Retorna409ConDisponible(t *testing.T) {
	api := newLedgerAPI(t)
	api.purchase(3, "1000")

	resp, body := api.do(http.MethodPost, "/api/ledger/sales", pkgjwt.RoleVendedor, saleBody(4, "2000"))
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	e := decodeError(t, body)
	assert.Equal(t, "INSUFFICIENT_STOCK", e.Code)
	assert.EqualValues(t, 3, e.Details["available"])
	assert.EqualValues(t, 4, e.Details["requested"])
}

func TestLedgerAPI_CuerpoInvalido_Retorna400(t *testing.T) {
	api := newLedgerAPI(t)
	resp, body := api.do(http.MethodPost, "/api/ledger/sales", pkgjwt.RoleVendedor, "{no es json")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_BODY", decodeError(t, body).Code)
}

func TestLedgerAPI_ValidacionDevuelveCampo(t *testing.T) {
	api := newLedgerAPI(t)
	body := saleBody(0, "2000")
	resp, raw := api.do(http.MethodPost, "/api/ledger/sales", pkgjwt.RoleVendedor, body)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	e := decodeError(t, raw)
	assert.Equal(t, "VALIDATION", e.Code)
	assert.Equal(t, "quantity", e.Details["field"])
}

func TestLedgerAPI_CarritoCreaUnaVentaPorLinea(t *testing.T) {
	api := newLedgerAPI(t)
	api.purchase(10, "500")
	resp, body := api.do(http.MethodPost, "/api/ledger/purchases", pkgjwt.RoleAdmin, map[string]any{
		"product_id": productB, "warehouse_id": warehouse1, "quantity": 10, "unit_cost": "300", "payment_type": "cash",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = api.do(http.MethodPost, "/api/ledger/carts", pkgjwt.RoleVendedor, map[string]any{
		"warehouse_id":  warehouse1,
		"payment_type":  "mixed",
		"cash_amount":   "1000",
		"credit_amount": "2000",
		"credit_days":   30,
		"items": []map[string]any{
			{"product_id": productA, "quantity": 2, "unit_price": "1000"},
			{"product_id": productB, "quantity": 2, "unit_price": "500"},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var list dto.ListResponse[dto.MovementResponse]
	require.NoError(t, json.Unmarshal(body, &list))
	require.Equal(t, 2, list.Total)
	require.NotNil(t, list.Items[0].CashAmount)
	require.NotNil(t, list.Items[1].CreditAmount)
	assert.Equal(t, "1000", list.Items[0].CashAmount.Add(*list.Items[1].CashAmount).String())
	assert.Equal(t, "2000", list.Items[0].CreditAmount.Add(*list.Items[1].CreditAmount).String())
}

// ──────────────────────────────────────────────────────────────────────────────
// Edición, borrado y devoluciones
// ──────────────────────────────────────────────────────────────────────────────

func TestLedgerAPI_EditarVentaSoloAdmin(t *testing.T) {
	api := newLedgerAPI(t)
	api.purchase(10, "1000")
	_, body := api.do(http.MethodPost, "/api/ledger/sales", pkgjwt.RoleVendedor, saleBody(2, "2000"))
	var sale dto.MovementResponse
	require.NoError(t, json.Unmarshal(body, &sale))

	resp, _ := api.do(http.MethodPut, "/api/ledger/sales/"+sale.ID, pkgjwt.RoleVendedor, saleBody(3, "2000"))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = api.do(http.MethodPut, "/api/ledger/sales/"+sale.ID, pkgjwt.RoleAdmin, saleBody(3, "2000"))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var edited dto.MovementResponse
	require.NoError(t, json.Unmarshal(body, &edited))
	assert.Equal(t, sale.ID, edited.ID)
	assert.Equal(t, sale.MovementNumber, edited.MovementNumber)
	assert.EqualValues(t, 3, edited.Quantity)
}

func TestLedgerAPI_BorrarCompraConsumida_Retorna409(t *testing.T) {
	api := newLedgerAPI(t)
	purchase := api.purchase(10, "1000")
	resp, _ := api.do(http.MethodPost, "/api/ledger/sales", pkgjwt.RoleVendedor, saleBody(1, "2000"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := api.do(http.MethodDelete, "/api/ledger/movements/"+purchase.ID, pkgjwt.RoleAdmin, nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", decodeError(t, body).Code)
}

func TestLedgerAPI_BorrarCompraIntacta_Retorna204(t *testing.T) {
	api := newLedgerAPI(t)
	purchase := api.purchase(10, "1000")

	resp, _ := api.do(http.MethodDelete, "/api/ledger/movements/"+purchase.ID, pkgjwt.RoleAdmin, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = api.do(http.MethodGet, "/api/ledger/movements/"+purchase.ID, pkgjwt.RoleBodeguero, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLedgerAPI_DevolucionExcedeLoVendido_Retorna400(t *testing.T) {
	api := newLedgerAPI(t)
	api.purchase(10, "1000")
	_, body := api.do(http.MethodPost, "/api/ledger/sales", pkgjwt.RoleVendedor, saleBody(4, "2000"))
	var sale dto.MovementResponse
	require.NoError(t, json.Unmarshal(body, &sale))

	resp, body := api.do(http.MethodPost, "/api/ledger/sales/"+sale.ID+"/returns", pkgjwt.RoleVendedor, map[string]any{"quantity": 3})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var ret dto.MovementResponse
	require.NoError(t, json.Unmarshal(body, &ret))
	assert.Equal(t, "DEV-000001", ret.MovementNumber)
	assert.Equal(t, sale.ID, ret.ReturnOfID)

	resp, body = api.do(http.MethodPost, "/api/ledger/sales/"+sale.ID+"/returns", pkgjwt.RoleVendedor, map[string]any{"quantity": 2})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decodeError(t, body).Code)
}

func TestLedgerAPI_MovimientoInexistente_Retorna404(t *testing.T) {
	api := newLedgerAPI(t)
	resp, body := api.do(http.MethodGet, "/api/ledger/movements/no-existe", pkgjwt.RoleAdmin, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decodeError(t, body).Code)
}

// ──────────────────────────────────────────────────────────────────────────────
// Cartera
// ──────────────────────────────────────────────────────────────────────────────

func TestLedgerAPI_CreditosPorVencerYPago(t *testing.T) {
	api := newLedgerAPI(t)
	api.purchase(10, "1000")
	body := saleBody(2, "2000")
	body["payment_type"] = "credit"
	body["credit_days"] = 5
	resp, raw := api.do(http.MethodPost, "/api/ledger/sales", pkgjwt.RoleVendedor, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var sale dto.MovementResponse
	require.NoError(t, json.Unmarshal(raw, &sale))
	assert.False(t, sale.CreditPaid)

	// Vence el 15; con 3 días de aviso aparece desde el 12.
	resp, raw = api.do(http.MethodGet, "/api/ledger/credits/due?as_of=2026-03-11", pkgjwt.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var due dto.ListResponse[dto.CreditResponse]
	require.NoError(t, json.Unmarshal(raw, &due))
	assert.Equal(t, 0, due.Total)

	resp, raw = api.do(http.MethodGet, "/api/ledger/credits/due?as_of=2026-03-13", pkgjwt.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &due))
	require.Equal(t, 1, due.Total)
	assert.Equal(t, "2026-03-15", due.Items[0].DueDate)
	assert.Equal(t, string(entity.CreditPending), due.Items[0].Status)
	assert.Equal(t, 2, due.Items[0].DaysUntilDue)
	assert.Equal(t, "4000", due.Items[0].Amount.String())

	resp, raw = api.do(http.MethodGet, "/api/ledger/credits/due?as_of=2026-03-18", pkgjwt.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &due))
	require.Equal(t, 1, due.Total)
	assert.Equal(t, string(entity.CreditOverdue), due.Items[0].Status)
	assert.Equal(t, 3, due.Items[0].DaysOverdue)

	resp, raw = api.do(http.MethodPost, "/api/ledger/movements/"+sale.ID+"/pay", pkgjwt.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var paid dto.MovementResponse
	require.NoError(t, json.Unmarshal(raw, &paid))
	assert.True(t, paid.CreditPaid)
	require.NotNil(t, paid.CreditPaidDate)

	resp, _ = api.do(http.MethodPost, "/api/ledger/movements/"+sale.ID+"/pay", pkgjwt.RoleVendedor, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, raw = api.do(http.MethodGet, "/api/ledger/credits/due?as_of=2026-03-18", pkgjwt.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &due))
	assert.Equal(t, 0, due.Total)
}

func TestLedgerAPI_AsOfMalFormado_Retorna400(t *testing.T) {
	api := newLedgerAPI(t)
	resp, body := api.do(http.MethodGet, "/api/ledger/credits/due?as_of=13-03-2026", pkgjwt.RoleAdmin, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decodeError(t, body).Code)
}

func TestHealth_SinChequeo_RetornaOK(t *testing.T) {
	api := newLedgerAPI(t)
	resp, body := api.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"ok"`)
}
