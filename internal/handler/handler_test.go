package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	hzconfig "github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/route"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BloodConnect/internal/model/dto"
	"BloodConnect/pkg/response"
)

func newEngine() *route.Engine {
	e := route.NewEngine(hzconfig.NewOptions([]hzconfig.Option{}))
	e.GET("/v1/meta", GetMeta)
	e.GET("/v1/blood-groups/:group/compatibility", GetCompatibility)
	e.POST("/v1/donors", RegisterDonor)
	e.POST("/v1/emergency-requests", CreateEmergencyRequest)
	e.GET("/v1/emergency-requests/:id/dispatch", GetDispatchSummary)
	e.PATCH("/v1/admin/donors/:id/availability", UpdateDonorAvailability)
	e.POST("/v1/admin/login", AdminLogin)
	return e
}

func jsonBody(s string) *ut.Body {
	return &ut.Body{Body: bytes.NewBufferString(s), Len: len(s)}
}

var jsonHeader = ut.Header{Key: "Content-Type", Value: "application/json"}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var resp response.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp.Error.Code
}

func TestGetMeta(t *testing.T) {
	w := ut.PerformRequest(newEngine(), http.MethodGet, "/v1/meta", nil)
	require.Equal(t, http.StatusOK, w.Result().StatusCode())

	var resp struct {
		Data dto.MetaResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Result().Body(), &resp))
	assert.Len(t, resp.Data.BloodGroups, 8)
	assert.Contains(t, resp.Data.BloodGroups, "AB-")
	assert.Contains(t, resp.Data.Districts, "Hyderabad")
	assert.Equal(t, []string{"low", "medium", "high", "critical"}, resp.Data.Urgencies)
}

func TestGetCompatibility(t *testing.T) {
	e := newEngine()

	w := ut.PerformRequest(e, http.MethodGet, "/v1/blood-groups/o-/compatibility", nil)
	require.Equal(t, http.StatusOK, w.Result().StatusCode())

	var resp struct {
		Data struct {
			BloodGroup     string   `json:"blood_group"`
			CanDonateTo    []string `json:"can_donate_to"`
			CanReceiveFrom []string `json:"can_receive_from"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Result().Body(), &resp))
	assert.Equal(t, "O-", resp.Data.BloodGroup)
	assert.Len(t, resp.Data.CanDonateTo, 8)
	assert.Equal(t, []string{"O-"}, resp.Data.CanReceiveFrom)

	w = ut.PerformRequest(e, http.MethodGet, "/v1/blood-groups/AB%2B/compatibility", nil)
	require.Equal(t, http.StatusOK, w.Result().StatusCode())
	require.NoError(t, json.Unmarshal(w.Result().Body(), &resp))
	assert.Equal(t, "AB+", resp.Data.BloodGroup)

	w = ut.PerformRequest(e, http.MethodGet, "/v1/blood-groups/C/compatibility", nil)
	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode())
	assert.Equal(t, "INVALID_BLOOD_GROUP", errorCode(t, w.Result().Body()))
}

func TestBindErrors(t *testing.T) {
	e := newEngine()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{name: "register missing phone", method: http.MethodPost, path: "/v1/donors",
			body: `{"name":"Asha","blood_group":"O+","district":"Hyderabad"}`},
		{name: "emergency malformed json", method: http.MethodPost, path: "/v1/emergency-requests",
			body: `{"blood_group":`},
		{name: "availability missing flag", method: http.MethodPatch, path: "/v1/admin/donors/123/availability",
			body: `{}`},
		{name: "login missing password", method: http.MethodPost, path: "/v1/admin/login",
			body: `{"username":"admin"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ut.PerformRequest(e, tt.method, tt.path, jsonBody(tt.body), jsonHeader)
			assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode())
			assert.Equal(t, "INVALID_REQUEST", errorCode(t, w.Result().Body()))
		})
	}
}

func TestInvalidPathID(t *testing.T) {
	e := newEngine()

	w := ut.PerformRequest(e, http.MethodGet, "/v1/emergency-requests/abc/dispatch", nil)
	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode())
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, w.Result().Body()))

	w = ut.PerformRequest(e, http.MethodPatch, "/v1/admin/donors/-1/availability",
		jsonBody(`{"is_available":true}`), jsonHeader)
	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode())
}
