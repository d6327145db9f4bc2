package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"coursemarket/backend/models"
	"coursemarket/backend/payments"
	"coursemarket/backend/payments/paymentstest"
	"coursemarket/backend/testutil"
	"coursemarket/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testServer struct {
	app *fiber.App
	db  *gorm.DB
	gw  *paymentstest.Gateway
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := testutil.Config()
	db := testutil.NewDB(t)
	gw := paymentstest.New()
	logger := zap.NewNop()
	return &testServer{
		app: NewApp(context.Background(), NewServices(db, cfg, gw, logger), cfg, logger),
		db:  db,
		gw:  gw,
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)

	var result map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&result)
	return resp.StatusCode, result
}

func (s *testServer) register(t *testing.T, email string) string {
	t.Helper()
	status, result := s.do(t, "POST", "/api/auth/register", "", map[string]string{
		"name":     "Test User",
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, fiber.StatusCreated, status, result)
	data := result["data"].(map[string]interface{})
	return data["token"].(string)
}

func data(t *testing.T, result map[string]interface{}) map[string]interface{} {
	t.Helper()
	d, ok := result["data"].(map[string]interface{})
	require.True(t, ok, "missing data in %v", result)
	return d
}

func TestRegisterLoginProfile(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "ada@example.com")

	status, result := s.do(t, "POST", "/api/auth/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "password123",
	})
	require.Equal(t, fiber.StatusOK, status)
	token := data(t, result)["token"].(string)
	assert.NotEmpty(t, token)

	status, result = s.do(t, "GET", "/api/user/profile", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ada@example.com", data(t, result)["email"])
	assert.Equal(t, "student", data(t, result)["role"])

	status, _ = s.do(t, "POST", "/api/auth/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = s.do(t, "POST", "/api/auth/register", "", map[string]string{
		"name":     "Again",
		"email":    "ada@example.com",
		"password": "password123",
	})
	assert.Equal(t, fiber.StatusConflict, status)
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t)

	status, result := s.do(t, "POST", "/api/auth/register", "", map[string]string{
		"name":     "x",
		"email":    "not-an-email",
		"password": "short",
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	details := result["details"].(map[string]interface{})
	assert.Equal(t, "email", details["email"])
	assert.Equal(t, "min=8", details["password"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	for _, tc := range []struct{ method, path string }{
		{"GET", "/api/user/profile"},
		{"POST", "/api/purchases"},
		{"POST", "/api/purchases/complete"},
		{"GET", "/api/purchases/verify"},
		{"POST", "/api/progress"},
		{"GET", "/api/progress"},
		{"POST", "/api/ratings"},
	} {
		status, result := s.do(t, tc.method, tc.path, "", nil)
		assert.Equal(t, fiber.StatusUnauthorized, status, tc.path)
		assert.Equal(t, false, result["success"], tc.path)
	}

	status, _ := s.do(t, "GET", "/api/user/profile", "garbage", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = s.do(t, "GET", "/api/courses", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestPurchaseFlowOverHTTP(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "buyer@example.com")
	educator := testutil.CreateUser(t, s.db, models.RoleEducator)
	course := testutil.CreateCourse(t, s.db, educator, testutil.CourseSpec{Price: "50", Discount: "10", Lectures: []int{2}})
	lectures := testutil.LectureIDs(course)

	status, result := s.do(t, "GET", "/api/courses/"+course.ID.String(), "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "45.00", data(t, result)["discounted_price"])

	status, result = s.do(t, "POST", "/api/purchases", token, map[string]string{"course_id": course.ID.String()})
	require.Equal(t, fiber.StatusCreated, status, result)
	checkout := data(t, result)
	assert.Equal(t, "45.00", checkout["amount"])
	ref := checkout["payment_ref"].(string)

	complete := map[string]string{"course_id": course.ID.String(), "payment_ref": ref}
	status, _ = s.do(t, "POST", "/api/purchases/complete", token, complete)
	assert.Equal(t, fiber.StatusConflict, status)

	status, _ = s.do(t, "POST", "/api/progress", token, map[string]string{
		"course_id":  course.ID.String(),
		"lecture_id": lectures[0].String(),
	})
	assert.Equal(t, fiber.StatusForbidden, status)

	s.gw.SetStatus(ref, payments.StatusSucceeded)
	status, result = s.do(t, "POST", "/api/purchases/complete", token, complete)
	require.Equal(t, fiber.StatusOK, status, result)
	status, _ = s.do(t, "POST", "/api/purchases/complete", token, complete)
	assert.Equal(t, fiber.StatusOK, status)

	status, result = s.do(t, "GET", "/api/progress?course_id="+course.ID.String(), token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, []interface{}{}, data(t, result)["completed_lectures"])
	assert.Equal(t, 0.0, data(t, result)["ratio"])

	status, result = s.do(t, "POST", "/api/progress", token, map[string]string{
		"course_id":  course.ID.String(),
		"lecture_id": lectures[0].String(),
	})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 0.5, data(t, result)["ratio"])

	status, _ = s.do(t, "POST", "/api/ratings", token, map[string]interface{}{"course_id": course.ID.String(), "rating": 6})
	assert.Equal(t, fiber.StatusBadRequest, status)
	status, _ = s.do(t, "POST", "/api/ratings", token, map[string]interface{}{"course_id": course.ID.String(), "rating": 5})
	assert.Equal(t, fiber.StatusOK, status)

	status, result = s.do(t, "GET", "/api/ratings?course_id="+course.ID.String(), token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 5.0, data(t, result)["rating"])

	status, result = s.do(t, "GET", "/api/user/enrolled-courses", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, result["data"], 1)

	status, _ = s.do(t, "POST", "/api/purchases", token, map[string]string{"course_id": course.ID.String()})
	assert.Equal(t, fiber.StatusConflict, status)
}

func TestVerifySessionAcceptsQueryToken(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "redirect@example.com")
	educator := testutil.CreateUser(t, s.db, models.RoleEducator)
	course := testutil.CreateCourse(t, s.db, educator, testutil.CourseSpec{Price: "20"})

	status, result := s.do(t, "POST", "/api/purchases", token, map[string]string{
		"course_id": course.ID.String(),
		"method":    "checkout",
	})
	require.Equal(t, fiber.StatusCreated, status, result)
	checkout := data(t, result)
	assert.NotEmpty(t, checkout["checkout_url"])
	ref := checkout["payment_ref"].(string)
	s.gw.SetStatus(ref, payments.StatusSucceeded)

	path := "/api/purchases/verify?session_id=" + ref + "&course_id=" + course.ID.String() + "&token=" + token
	status, result = s.do(t, "GET", path, "", nil)
	require.Equal(t, fiber.StatusOK, status, result)
	assert.Equal(t, true, result["success"])

	status, _ = s.do(t, "GET", "/api/purchases/verify?course_id="+course.ID.String(), token, nil)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
}

func TestGatewayErrorsAreGeneric(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "gw@example.com")
	educator := testutil.CreateUser(t, s.db, models.RoleEducator)
	course := testutil.CreateCourse(t, s.db, educator, testutil.CourseSpec{Price: "20"})
	s.gw.FailCreate(assert.AnError)

	status, result := s.do(t, "POST", "/api/purchases", token, map[string]string{"course_id": course.ID.String()})
	assert.Equal(t, fiber.StatusBadGateway, status)
	assert.Equal(t, "Payment provider unavailable", result["message"])
	assert.NotContains(t, result["message"], assert.AnError.Error())
}

func TestWebhookEndpoint(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "hook@example.com")
	educator := testutil.CreateUser(t, s.db, models.RoleEducator)
	course := testutil.CreateCourse(t, s.db, educator, testutil.CourseSpec{Price: "20"})

	status, result := s.do(t, "POST", "/api/purchases", token, map[string]string{"course_id": course.ID.String()})
	require.Equal(t, fiber.StatusCreated, status)
	ref := data(t, result)["payment_ref"].(string)
	s.gw.SetStatus(ref, payments.StatusSucceeded)

	send := func(signature string) int {
		req := httptest.NewRequest("POST", "/api/webhooks/payments",
			bytes.NewReader(paymentstest.EventPayload(payments.EventPaymentSucceeded, ref, models.MethodIntent)))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Stripe-Signature", signature)
		resp, err := s.app.Test(req, -1)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusBadRequest, send("bogus"))
	assert.Equal(t, fiber.StatusOK, send(paymentstest.Signature))

	var n int64
	require.NoError(t, s.db.Model(&models.UserCourse{}).Where("course_id = ?", course.ID).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestFreeEnrollAndRoleUpgrade(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "free@example.com")
	educator := testutil.CreateUser(t, s.db, models.RoleEducator)
	free := testutil.CreateCourse(t, s.db, educator, testutil.CourseSpec{Price: "0"})
	paid := testutil.CreateCourse(t, s.db, educator, testutil.CourseSpec{Price: "10"})

	status, _ := s.do(t, "POST", "/api/courses/"+free.ID.String()+"/enroll", token, nil)
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = s.do(t, "POST", "/api/courses/"+paid.ID.String()+"/enroll", token, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	status, _ = s.do(t, "POST", "/api/courses/not-a-uuid/enroll", token, nil)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, result := s.do(t, "POST", "/api/user/role", token, map[string]string{"role": "educator"})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "educator", data(t, result)["role"])
	status, _ = s.do(t, "POST", "/api/user/role", token, map[string]string{"role": "student"})
	assert.Equal(t, fiber.StatusConflict, status)
}

func TestCourseListingHidesDrafts(t *testing.T) {
	s := newTestServer(t)
	educator := testutil.CreateUser(t, s.db, models.RoleEducator)
	testutil.CreateCourse(t, s.db, educator, testutil.CourseSpec{Price: "10"})
	draft := testutil.CreateCourse(t, s.db, educator, testutil.CourseSpec{Price: "10", Unpublished: true})

	req := httptest.NewRequest("GET", "/api/courses", nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	var page utils.PaginatedResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Equal(t, int64(1), page.Total)

	status, _ := s.do(t, "GET", "/api/courses/"+draft.ID.String(), "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}
