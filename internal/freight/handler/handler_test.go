package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/entity"
	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/repository"
	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/service"
	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/sse"
	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/testutil"
	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/middleware"
	"github.com/gin-gonic/gin"
)

type memoryStore struct {
	objects map[string][]byte
}

func (s *memoryStore) Upload(ctx context.Context, objectName, contentType string, r io.Reader, size int64) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if s.objects == nil {
		s.objects = map[string][]byte{}
	}
	s.objects[objectName] = data
	return "https://files.test/" + objectName, nil
}

func setupPortalTest(t *testing.T) (*testutil.TestEnv, *memoryStore) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	router := testutil.SetupRouter()

	store := &memoryStore{}
	repos := repository.NewRepositories(db)
	svc := service.NewServices(db, repos, service.Options{
		Files:     store,
		PortalURL: "https://portal.test",
	})
	enforcer, err := middleware.NewEnforcer()
	if err != nil {
		t.Fatalf("Failed to create enforcer: %v", err)
	}

	h := NewHandlers(svc, sse.NewHub())
	h.RegisterRoutes(testutil.AuthGroup(router, "/api/v1"), enforcer)

	return &testutil.TestEnv{DB: db, Router: router, T: t}, store
}

func dataOf(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	resp := testutil.ParseResponse(w)
	data, ok := resp["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected object data, got %s", w.Body.String())
	}
	return data
}

func expectCode(t *testing.T, w *httptest.ResponseRecorder, status int, code float64) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("Expected %d, got %d: %s", status, w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if resp["code"] != code {
		t.Fatalf("Expected code %v, got %v: %s", code, resp["code"], w.Body.String())
	}
}

func TestPortal_QuoteToShipment(t *testing.T) {
	env, _ := setupPortalTest(t)
	client := testutil.TokenFor(entity.RoleClient)
	sales := testutil.TokenFor(entity.RoleSales)
	pricing := testutil.TokenFor(entity.RolePricing)

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/rfqs", map[string]interface{}{
		"company_name": "Nile Traders",
		"mode":         "sea",
		"origin":       "Shanghai",
		"destination":  "Cairo",
		"weight_kg":    1200,
	}, client)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	rfq := dataOf(t, w)
	rfqID := rfq["id"].(string)
	if rfq["status"] != entity.RFQStatusSubmitted {
		t.Fatalf("Expected submitted, got %v", rfq["status"])
	}
	if rfq["client_email"] != "client@test.com" {
		t.Errorf("Expected client email from token, got %v", rfq["client_email"])
	}

	steps := []struct {
		token string
		body  map[string]interface{}
	}{
		{sales, map[string]interface{}{"status": entity.RFQStatusPricingReview}},
		{pricing, map[string]interface{}{"status": entity.RFQStatusQuoted, "quotation_amount": 4200, "quotation_currency": "USD"}},
		{sales, map[string]interface{}{"status": entity.RFQStatusSentToClient}},
	}
	for _, step := range steps {
		w := testutil.DoRequest(env.Router, "POST", "/api/v1/rfqs/"+rfqID+"/transition", step.body, step.token)
		if w.Code != http.StatusOK {
			t.Fatalf("Transition to %v failed: %d %s", step.body["status"], w.Code, w.Body.String())
		}
	}

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/rfqs/"+rfqID+"/transition",
		map[string]interface{}{"status": entity.RFQStatusAccepted}, client)
	if w.Code != http.StatusOK {
		t.Fatalf("Accept failed: %d %s", w.Code, w.Body.String())
	}
	result := dataOf(t, w)
	shipment, ok := result["shipment"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected shipment in accept response: %s", w.Body.String())
	}
	if shipment["status"] != entity.ShipmentStatusBookingConfirmed {
		t.Errorf("Expected booking_confirmed, got %v", shipment["status"])
	}
	tracking := shipment["tracking_number"].(string)

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/shipments/tracking/"+strings.ToLower(tracking), nil, client)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 for tracking lookup, got %d: %s", w.Code, w.Body.String())
	}

	// 重复接受返回同一运单
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/rfqs/"+rfqID+"/transition",
		map[string]interface{}{"status": entity.RFQStatusAccepted}, client)
	if w.Code != http.StatusOK {
		t.Fatalf("Replayed accept failed: %d %s", w.Code, w.Body.String())
	}
	replay := dataOf(t, w)
	if replay["replayed"] != true {
		t.Errorf("Expected replayed=true, got %v", replay["replayed"])
	}
	if replay["shipment"].(map[string]interface{})["id"] != shipment["id"] {
		t.Errorf("Replay returned a different shipment")
	}
}

func TestPortal_RouteAuthorization(t *testing.T) {
	env, _ := setupPortalTest(t)
	testutil.SeedShipment(t, env.DB, "shp-auth", "TF-26-50001", "client@test.com", entity.ShipmentStatusBookingConfirmed)

	cases := []struct {
		name   string
		method string
		path   string
		role   string
	}{
		{"pricing cannot read shipments", "GET", "/api/v1/shipments", entity.RolePricing},
		{"client cannot advance", "POST", "/api/v1/shipments/shp-auth/advance", entity.RoleClient},
		{"sales cannot export", "GET", "/api/v1/shipments/export", entity.RoleSales},
		{"operations cannot force", "POST", "/api/v1/shipments/shp-auth/force-status", entity.RoleOperations},
		{"client cannot read activity", "GET", "/api/v1/activity-logs?entity_type=shipment&entity_id=shp-auth", entity.RoleClient},
		{"pricing cannot create RFQs", "POST", "/api/v1/rfqs", entity.RolePricing},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := testutil.DoRequest(env.Router, tc.method, tc.path, map[string]interface{}{"status": "in_transit"}, testutil.TokenFor(tc.role))
			expectCode(t, w, http.StatusForbidden, 40302)
		})
	}

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/shipments", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 without token, got %d", w.Code)
	}

	// 事件流只接受门户角色
	w = testutil.DoRequest(env.Router, "GET", "/api/v1/events", nil, testutil.TokenFor("guest"))
	expectCode(t, w, http.StatusForbidden, 40312)
}

func TestPortal_ErrorMapping(t *testing.T) {
	env, _ := setupPortalTest(t)
	ops := testutil.TokenFor(entity.RoleOperations)
	testutil.SeedShipment(t, env.DB, "shp-err", "TF-26-50002", "client@test.com", entity.ShipmentStatusBookingConfirmed)
	testutil.SeedShipment(t, env.DB, "shp-done", "TF-26-50003", "client@test.com", entity.ShipmentStatusDelivered)

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/shipments/shp-err/advance",
		map[string]interface{}{"status": entity.ShipmentStatusDelivered}, ops)
	expectCode(t, w, http.StatusBadRequest, CodeInvalidTransition)

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/shipments/shp-done/advance",
		map[string]interface{}{"status": entity.ShipmentStatusOutForDelivery}, ops)
	expectCode(t, w, http.StatusConflict, CodeTerminalState)

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/rfqs/does-not-exist", nil, ops)
	expectCode(t, w, http.StatusNotFound, CodeNotFound)

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/shipments/shp-err/advance", map[string]interface{}{}, ops)
	expectCode(t, w, http.StatusBadRequest, 40000)

	// 其他客户的运单
	w = testutil.DoRequest(env.Router, "GET", "/api/v1/shipments/shp-err", nil,
		testutil.GenerateTestToken("u-2", "Other", "other@test.com", entity.RoleClient))
	expectCode(t, w, http.StatusForbidden, CodeForbidden)
}

func TestPortal_AdvanceNotifiesClient(t *testing.T) {
	env, _ := setupPortalTest(t)
	testutil.SeedShipment(t, env.DB, "shp-adv", "TF-26-50004", "client@test.com", entity.ShipmentStatusBookingConfirmed)

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/shipments/shp-adv/next-statuses", nil, testutil.TokenFor(entity.RoleOperations))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	next := dataOf(t, w)["statuses"].([]interface{})
	if len(next) != 1 || next[0] != entity.ShipmentStatusCargoReceived {
		t.Fatalf("Unexpected next statuses: %v", next)
	}

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/shipments/shp-adv/advance",
		map[string]interface{}{"status": entity.ShipmentStatusCargoReceived, "note": "At CFS"}, testutil.TokenFor(entity.RoleOperations))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	client := testutil.TokenFor(entity.RoleClient)
	w = testutil.DoRequest(env.Router, "GET", "/api/v1/notifications?unread=true", nil, client)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	list := dataOf(t, w)
	items := list["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(items))
	}
	id := items[0].(map[string]interface{})["id"].(string)

	w = testutil.DoRequest(env.Router, "PUT", "/api/v1/notifications/"+id+"/read", nil, client)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/shipments/shp-adv/history", nil, client)
	history := dataOf(t, w)["items"].([]interface{})
	if len(history) != 2 {
		t.Errorf("Expected 2 history entries, got %d", len(history))
	}

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/activity-logs?entity_type=shipment&entity_id=shp-adv", nil, testutil.TokenFor(entity.RoleSales))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	pagination := dataOf(t, w)["pagination"].(map[string]interface{})
	if pagination["total"].(float64) < 1 {
		t.Errorf("Expected activity entries, got %v", pagination["total"])
	}
}

func TestPortal_AmendmentFlow(t *testing.T) {
	env, _ := setupPortalTest(t)
	testutil.SeedShipment(t, env.DB, "shp-amd", "TF-26-50005", "client@test.com", entity.ShipmentStatusInTransit)

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/shipments/shp-amd/amendments", map[string]interface{}{
		"reason": "New consignee",
		"changes_requested": map[string]interface{}{
			"field":           "consignee_name",
			"requested_value": "Delta Foods",
		},
	}, testutil.TokenFor(entity.RoleClient))
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	amdID := dataOf(t, w)["id"].(string)

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/amendments/"+amdID+"/resolve",
		map[string]interface{}{"decision": "approve"}, testutil.TokenFor(entity.RoleClient))
	expectCode(t, w, http.StatusForbidden, 40302)

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/amendments/"+amdID+"/resolve",
		map[string]interface{}{"decision": "approve"}, testutil.TokenFor(entity.RoleOperations))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if dataOf(t, w)["status"] != entity.AmendmentStatusApproved {
		t.Errorf("Expected approved amendment: %s", w.Body.String())
	}

	var shipment entity.Shipment
	env.DB.Where("id = ?", "shp-amd").First(&shipment)
	if shipment.ConsigneeName != "Delta Foods" {
		t.Errorf("Expected consignee updated, got %q", shipment.ConsigneeName)
	}

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/shipments/shp-amd/amendments", nil, testutil.TokenFor(entity.RoleClient))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if n := len(dataOf(t, w)["items"].([]interface{})); n != 1 {
		t.Errorf("Expected 1 amendment, got %d", n)
	}
}

func TestPortal_UploadDocument(t *testing.T) {
	env, store := setupPortalTest(t)
	testutil.SeedShipment(t, env.DB, "shp-doc", "TF-26-50006", "client@test.com", entity.ShipmentStatusCargoReceived)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("document_type", "commercial_invoice")
	part, _ := mw.CreateFormFile("file", "invoice.pdf")
	part.Write([]byte("%PDF-1.4 test"))
	mw.Close()

	req, _ := http.NewRequest("POST", "/api/v1/shipments/shp-doc/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testutil.TokenFor(entity.RoleClient))
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	docs := dataOf(t, w)["document_urls"].([]interface{})
	if len(docs) != 1 {
		t.Fatalf("Expected 1 document, got %d", len(docs))
	}
	if len(store.objects) != 1 {
		t.Fatalf("Expected 1 stored object, got %d", len(store.objects))
	}
	for name, data := range store.objects {
		if !strings.HasPrefix(name, "shipments/shp-doc/") || string(data) != "%PDF-1.4 test" {
			t.Errorf("Unexpected object %s", name)
		}
	}
}

func TestPortal_ExportShipments(t *testing.T) {
	env, _ := setupPortalTest(t)
	testutil.SeedShipment(t, env.DB, "shp-x1", "TF-26-50007", "client@test.com", entity.ShipmentStatusInTransit)

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/shipments/export?status=in_transit", nil, testutil.TokenFor(entity.RoleOperations))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("Unexpected content type %s", ct)
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "shipments_") {
		t.Errorf("Unexpected disposition %s", w.Header().Get("Content-Disposition"))
	}
	if w.Body.Len() == 0 {
		t.Error("Expected workbook body")
	}
}

func TestHandleError_Codes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err    error
		status int
	}{
		{repository.ErrNotFound, http.StatusNotFound},
		{service.ErrForbidden, http.StatusForbidden},
		{service.ErrTerminalState, http.StatusConflict},
		{service.ErrDuplicateSynthesis, http.StatusConflict},
		{service.ErrInvalidTransition, http.StatusBadRequest},
		{service.ErrMissingRequiredField, http.StatusBadRequest},
		{service.ErrInvalidInput, http.StatusBadRequest},
		{service.ErrDependencyFailure, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		HandleError(c, tc.err)
		if w.Code != tc.status {
			t.Errorf("%v: expected %d, got %d", tc.err, tc.status, w.Code)
		}
	}
}
