package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rekrut-api/internal/dto"
	"github.com/noah-isme/rekrut-api/internal/middleware"
	"github.com/noah-isme/rekrut-api/internal/models"
	appErrors "github.com/noah-isme/rekrut-api/pkg/errors"
)

type submissionServiceMock struct {
	lastFilter models.SubmissionFilter
	lastActor  models.Actor
	bulk       *models.BulkStatusResult
	passedErr  error
}

func (m *submissionServiceMock) Create(ctx context.Context, req dto.CreateSubmissionRequest) (*models.Submission, error) {
	return &models.Submission{ID: "s1", FullName: req.FullName}, nil
}

func (m *submissionServiceMock) List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, *models.Pagination, error) {
	m.lastFilter = filter
	return []models.Submission{}, &models.Pagination{Page: 1, PageSize: 20}, nil
}

func (m *submissionServiceMock) Get(ctx context.Context, id string) (*models.Submission, error) {
	return nil, appErrors.NotFound("Submission")
}

func (m *submissionServiceMock) UpdateStatus(ctx context.Context, req dto.BulkStatusRequest, actor models.Actor) (*models.BulkStatusResult, error) {
	m.lastActor = actor
	return m.bulk, nil
}

func (m *submissionServiceMock) UpdateScore(ctx context.Context, id string, req dto.UpdateScoreRequest) (*dto.ScoreResponse, error) {
	return &dto.ScoreResponse{ID: id}, nil
}

func (m *submissionServiceMock) SetPassed(ctx context.Context, req dto.AgreementRequest, actor models.Actor) (*models.Submission, error) {
	if m.passedErr != nil {
		return nil, m.passedErr
	}
	return &models.Submission{ID: req.ID, Passed: *req.Passed}, nil
}

func (m *submissionServiceMock) SetDetermination(ctx context.Context, req dto.DeterminationRequest, actor models.Actor) (*models.Submission, error) {
	return &models.Submission{ID: req.ID, Determination: *req.Determination}, nil
}

func newTestContext(method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", NIP: "100"})
	return c, w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestSubmissionHandlerListLegacyFilter(t *testing.T) {
	svc := &submissionServiceMock{}
	handler := NewSubmissionHandler(svc)

	c, w := newTestContext(http.MethodGet, "/submissions?filterValue=2&periodId=p1", nil)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.lastFilter.Status)
	assert.Equal(t, models.Stage(2), *svc.lastFilter.Status)
	assert.Equal(t, "p1", svc.lastFilter.PeriodID)
	assert.NotNil(t, decodeEnvelope(t, w)["pagination"])
}

func TestSubmissionHandlerListRejectsUnknownFilter(t *testing.T) {
	handler := NewSubmissionHandler(&submissionServiceMock{})

	c, w := newTestContext(http.MethodGet, "/submissions?filter=email&filterValue=a@b.c", nil)
	handler.List(c)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, false, body["success"])
	errs := body["errors"].([]interface{})
	require.Len(t, errs, 1)
	assert.Equal(t, "filterValue", errs[0].(map[string]interface{})["field"])
}

func TestSubmissionHandlerGetNotFound(t *testing.T) {
	handler := NewSubmissionHandler(&submissionServiceMock{})

	c, w := newTestContext(http.MethodGet, "/submissions/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	handler.Get(c)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Submission with the given ID was not found.", decodeEnvelope(t, w)["message"])
}

func TestSubmissionHandlerBulkStatusPartialSuccess(t *testing.T) {
	svc := &submissionServiceMock{bulk: &models.BulkStatusResult{
		Applicants:    []string{"a", "b"},
		UpdatedStatus: models.Stage(3),
		Updated:       []string{"a"},
		Failed:        []models.BulkStatusFailure{{ID: "b", Reason: "Submission with the given ID was not found."}},
	}}
	handler := NewSubmissionHandler(svc)

	c, w := newTestContext(http.MethodPut, "/submissions-update", []byte(`{"applicants":["a","b"],"updatedStatus":3}`))
	handler.UpdateStatus(c)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]interface{})
	assert.Len(t, data["failed"], 1)
	assert.Equal(t, "100", svc.lastActor.NIP)
}

func TestSubmissionHandlerQuotaExceeded(t *testing.T) {
	handler := NewSubmissionHandler(&submissionServiceMock{passedErr: appErrors.ErrQuotaExceeded})

	c, w := newTestContext(http.MethodPut, "/submissions-update/agreement", []byte(`{"id":"s1","passed":1}`))
	handler.SetPassed(c)

	require.Equal(t, http.StatusConflict, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "quota already met", body["message"])
}

func TestSubmissionHandlerMalformedBody(t *testing.T) {
	handler := NewSubmissionHandler(&submissionServiceMock{})

	c, w := newTestContext(http.MethodPost, "/submissions", []byte(`{"fullName":`))
	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
