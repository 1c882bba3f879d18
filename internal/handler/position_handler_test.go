package handler

import (
	"context"
	"net/http"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/rekrut-api/internal/dto"
	"github.com/noah-isme/rekrut-api/internal/models"
	"github.com/noah-isme/rekrut-api/internal/repository"
	"github.com/noah-isme/rekrut-api/internal/service"
	appErrors "github.com/noah-isme/rekrut-api/pkg/errors"
)

type positionServiceMock struct {
	lastFilter models.PositionFilter
	positions  []models.ResolvedPosition
}

func (m *positionServiceMock) List(ctx context.Context, filter models.PositionFilter) ([]models.ResolvedPosition, error) {
	m.lastFilter = filter
	return m.positions, nil
}

func (m *positionServiceMock) Get(ctx context.Context, id string) (*models.ResolvedPosition, error) {
	return nil, appErrors.NotFound("Position")
}

func (m *positionServiceMock) Create(ctx context.Context, req dto.PositionRequest, actor models.Actor) (*models.Position, error) {
	return &models.Position{ID: "pos-1", Name: req.Name, StudyPrograms: req.StudyPrograms, CreatedBy: actor.NIP}, nil
}

func (m *positionServiceMock) Update(ctx context.Context, id string, req dto.PositionRequest, actor models.Actor) (*models.Position, error) {
	return &models.Position{ID: id, Name: req.Name}, nil
}

func (m *positionServiceMock) ToggleStatus(ctx context.Context, id string, actor models.Actor) (models.Status, error) {
	return models.StatusNonActive, nil
}

func (m *positionServiceMock) Delete(ctx context.Context, id string) error {
	return nil
}

func TestPositionHandlerListRendersResolvedScope(t *testing.T) {
	name := "Akuntansi"
	svc := &positionServiceMock{positions: []models.ResolvedPosition{
		{Position: models.Position{ID: "p-any"}, StudyPrograms: models.ResolvedScope{Any: true}},
		{Position: models.Position{ID: "p-some"}, StudyPrograms: models.ResolvedScope{Programs: []models.StudyProgramRef{
			{ID: "sp-a", Name: &name},
			{ID: "gone", Missing: true},
		}}},
	}}
	handler := NewPositionHandler(svc)

	c, w := newTestContext(http.MethodGet, "/positions?status=ACTIVE", nil)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.lastFilter.Status)
	assert.Equal(t, models.StatusActive, *svc.lastFilter.Status)

	data := decodeEnvelope(t, w)["data"].([]interface{})
	require.Len(t, data, 2)
	assert.Equal(t, "ALL", data[0].(map[string]interface{})["study_programs"])
	refs := data[1].(map[string]interface{})["study_programs"].([]interface{})
	require.Len(t, refs, 2)
	assert.Equal(t, "Akuntansi", refs[0].(map[string]interface{})["name"])
	missing := refs[1].(map[string]interface{})
	assert.Nil(t, missing["name"])
	assert.Equal(t, true, missing["missing"])
}

func TestPositionHandlerCreateAcceptsAll(t *testing.T) {
	handler := NewPositionHandler(&positionServiceMock{})

	body := []byte(`{"name":"Lecturer","minimum_graduate":"MAGISTER","study_programs":"ALL","minimum_gpa":3.0}`)
	c, w := newTestContext(http.MethodPost, "/positions", body)
	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	data := decodeEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "ALL", data["study_programs"])
	assert.Equal(t, "100", data["createdBy"])
}

func TestPositionHandlerCreateRejectsBadScope(t *testing.T) {
	handler := NewPositionHandler(&positionServiceMock{})

	c, w := newTestContext(http.MethodPost, "/positions", []byte(`{"name":"Lecturer","study_programs":"SOME"}`))
	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPositionHandlerToggleStatus(t *testing.T) {
	handler := NewPositionHandler(&positionServiceMock{})

	c, w := newTestContext(http.MethodPut, "/positions/edit_status/pos-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "pos-1"}}
	handler.ToggleStatus(c)

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "pos-1", data["id"])
	assert.Equal(t, "NONACTIVE", data["status"])
}

func TestPositionHandlerGetMissing(t *testing.T) {
	handler := NewPositionHandler(&positionServiceMock{})

	c, w := newTestContext(http.MethodGet, "/positions/nope", nil)
	c.Params = gin.Params{{Key: "id", Value: "nope"}}
	handler.Get(c)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Position with the given ID was not found.", decodeEnvelope(t, w)["message"])
}

func TestPositionHandlerGetMalformedIDIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery("FROM positions WHERE id").
		WithArgs("abc").
		WillReturnError(&pq.Error{Code: "22P02", Message: `invalid input syntax for type uuid: "abc"`})

	positions := repository.NewPositionRepository(sqlx.NewDb(db, "sqlmock"))
	handler := NewPositionHandler(service.NewPositionService(positions, nil, nil, zap.NewNop()))

	c, w := newTestContext(http.MethodGet, "/positions/abc", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	handler.Get(c)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Position with the given ID was not found.", decodeEnvelope(t, w)["message"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
