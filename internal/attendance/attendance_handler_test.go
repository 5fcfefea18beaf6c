package attendance_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-presence/internal/attendance"
	attendanceerrors "go-presence/internal/attendance/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeService struct {
	checkInFn               func(ctx context.Context, orgID, subjectID string, req attendance.CheckInRequest) (attendance.AttendanceResponse, error)
	checkOutFn              func(ctx context.Context, orgID, subjectID string, req attendance.CheckOutRequest) (attendance.AttendanceResponse, error)
	findByOfflineIDFn       func(ctx context.Context, orgID, offlineID string) (attendance.AttendanceResponse, error)
	listByEventAndSubjectFn func(ctx context.Context, orgID, eventID, subjectID string) ([]attendance.AttendanceResponse, error)
	getAllFn                func(ctx context.Context, orgID, actorID string, canReadAll bool) ([]attendance.AttendanceResponse, error)
}

func (f *fakeService) CheckIn(ctx context.Context, orgID, subjectID string, req attendance.CheckInRequest) (attendance.AttendanceResponse, error) {
	return f.checkInFn(ctx, orgID, subjectID, req)
}
func (f *fakeService) CheckOut(ctx context.Context, orgID, subjectID string, req attendance.CheckOutRequest) (attendance.AttendanceResponse, error) {
	return f.checkOutFn(ctx, orgID, subjectID, req)
}
func (f *fakeService) FindByOfflineID(ctx context.Context, orgID, offlineID string) (attendance.AttendanceResponse, error) {
	return f.findByOfflineIDFn(ctx, orgID, offlineID)
}
func (f *fakeService) ListByEventAndSubject(ctx context.Context, orgID, eventID, subjectID string) ([]attendance.AttendanceResponse, error) {
	return f.listByEventAndSubjectFn(ctx, orgID, eventID, subjectID)
}
func (f *fakeService) GetAll(ctx context.Context, orgID, actorID string, canReadAll bool) ([]attendance.AttendanceResponse, error) {
	return f.getAllFn(ctx, orgID, actorID, canReadAll)
}

func TestHandler_CheckInAndGetAll(t *testing.T) {
	gin.SetMode(gin.TestMode)
	orgID := uuid.New().String()
	subjectID := uuid.New().String()
	eventID := uuid.New().String()

	svc := &fakeService{
		checkInFn: func(ctx context.Context, gotOrg, gotSubject string, req attendance.CheckInRequest) (attendance.AttendanceResponse, error) {
			assert.Equal(t, orgID, gotOrg)
			assert.Equal(t, subjectID, gotSubject)
			assert.Equal(t, eventID, req.EventID)
			return attendance.AttendanceResponse{ID: uuid.New().String(), OrgID: gotOrg, SubjectID: gotSubject}, nil
		},
		getAllFn: func(ctx context.Context, gotOrg, actorID string, canReadAll bool) ([]attendance.AttendanceResponse, error) {
			assert.False(t, canReadAll)
			return []attendance.AttendanceResponse{{ID: uuid.New().String()}, {ID: uuid.New().String()}}, nil
		},
	}

	h := attendance.NewHandler(svc)

	body := `{"event_id":"` + eventID + `","method":"manual"}`
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("org_id", orgID)
	c.Set("subject_id", subjectID)
	c.Request = httptest.NewRequest(http.MethodPost, "/attendance/checkin", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	h.CheckIn(c)
	assert.Equal(t, http.StatusCreated, w.Code)

	w2 := httptest.NewRecorder()
	c2, _ := gin.CreateTestContext(w2)
	c2.Set("org_id", orgID)
	c2.Set("subject_id", subjectID)
	c2.Request = httptest.NewRequest(http.MethodGet, "/attendance?page=1&page_size=1", nil)
	h.GetAll(c2)
	assert.Equal(t, http.StatusOK, w2.Code)
	assert.Contains(t, w2.Body.String(), "\"meta\"")
}

func TestHandler_CheckIn_ConflictStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := &fakeService{
		checkInFn: func(ctx context.Context, orgID, subjectID string, req attendance.CheckInRequest) (attendance.AttendanceResponse, error) {
			return attendance.AttendanceResponse{}, attendanceerrors.ErrAlreadyCheckedIn
		},
	}

	h := attendance.NewHandler(svc)

	body := `{"event_id":"` + uuid.New().String() + `","method":"manual"}`
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("org_id", uuid.New().String())
	c.Set("subject_id", uuid.New().String())
	c.Request = httptest.NewRequest(http.MethodPost, "/attendance/checkin", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	h.CheckIn(c)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "CONFLICT")
}

func TestHandler_CheckOut_NoOpenRecordStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := &fakeService{
		checkOutFn: func(ctx context.Context, orgID, subjectID string, req attendance.CheckOutRequest) (attendance.AttendanceResponse, error) {
			return attendance.AttendanceResponse{}, attendanceerrors.ErrNoOpenRecord
		},
	}

	h := attendance.NewHandler(svc)

	body := `{"event_id":"` + uuid.New().String() + `"}`
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("org_id", uuid.New().String())
	c.Set("subject_id", uuid.New().String())
	c.Request = httptest.NewRequest(http.MethodPost, "/attendance/checkout", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	h.CheckOut(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_STATE")
}
