package controllers

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vnkhanh/internship-platform-backend/models"
)

var coverLetter = strings.Repeat("I would love to join your backend team this summer. ", 2)

type applyFixture struct {
	student, internship, company, companyUser uuid.UUID
}

func newApplyFixture() applyFixture {
	return applyFixture{
		student:     uuid.New(),
		internship:  uuid.New(),
		company:     uuid.New(),
		companyUser: uuid.New(),
	}
}

// expectOpenInternship: tin đang published, chưa có hồ sơ nào của sinh viên này.
func (f applyFixture) expectOpenInternship(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`SELECT \* FROM "internships" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "company_id", "title", "status"}).
			AddRow(f.internship.String(), f.company.String(), "Backend Intern", string(models.InternshipPublished)))
	mock.ExpectQuery(`SELECT \* FROM "companies" WHERE "companies"."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name"}).
			AddRow(f.company.String(), f.companyUser.String(), "Acme"))
}

func (f applyFixture) body() string {
	return `{"internship_id":"` + f.internship.String() + `","cover_letter":"` + coverLetter + `"}`
}

func TestCreateApplicationConcurrentDuplicateIs400(t *testing.T) {
	db, sqlMock := setupTestDB(t)
	f := newApplyFixture()
	notifier := new(MockEventNotifier)

	f.expectOpenInternship(sqlMock)
	sqlMock.ExpectQuery(`SELECT count\(\*\) FROM "applications" WHERE internship_id = \$1 AND student_id = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	// Request song song đã chèn trước: unique index chặn lại
	sqlMock.ExpectBegin()
	sqlMock.ExpectQuery(`INSERT INTO "applications"`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_application_student"})
	sqlMock.ExpectRollback()

	r := asUser(f.student, models.RoleStudent)
	r.POST("/applications", NewApplicationController(db, notifier, nil).Create)
	w := doRequest(r, http.MethodPost, "/applications", f.body())

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "already applied")
	notifier.AssertNotCalled(t, "NewApplication", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestCreateApplicationExistingIs400(t *testing.T) {
	db, sqlMock := setupTestDB(t)
	f := newApplyFixture()

	f.expectOpenInternship(sqlMock)
	sqlMock.ExpectQuery(`SELECT count\(\*\) FROM "applications"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	r := asUser(f.student, models.RoleStudent)
	r.POST("/applications", NewApplicationController(db, new(MockEventNotifier), nil).Create)
	w := doRequest(r, http.MethodPost, "/applications", f.body())

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "already applied")
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestCreateApplicationCountErrorIs500(t *testing.T) {
	db, sqlMock := setupTestDB(t)
	f := newApplyFixture()

	f.expectOpenInternship(sqlMock)
	sqlMock.ExpectQuery(`SELECT count\(\*\) FROM "applications"`).
		WillReturnError(errors.New("connection reset"))

	r := asUser(f.student, models.RoleStudent)
	r.POST("/applications", NewApplicationController(db, new(MockEventNotifier), nil).Create)
	w := doRequest(r, http.MethodPost, "/applications", f.body())

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestCreateApplicationRemovesResumeWhenInsertFails(t *testing.T) {
	db, sqlMock := setupTestDB(t)
	f := newApplyFixture()
	resumes := new(MockResumeUploader)
	const url = "https://proj.supabase.co/storage/v1/object/public/uploads/resumes/cv.pdf"
	resumes.On("UploadResume", mock.Anything, mock.AnythingOfType("string")).Return(url, nil)
	resumes.On("RemoveResume", url).Return(nil)

	f.expectOpenInternship(sqlMock)
	sqlMock.ExpectQuery(`SELECT count\(\*\) FROM "applications"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	sqlMock.ExpectBegin()
	sqlMock.ExpectQuery(`INSERT INTO "applications"`).WillReturnError(errors.New("disk full"))
	sqlMock.ExpectRollback()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("internship_id", f.internship.String()))
	require.NoError(t, mw.WriteField("cover_letter", coverLetter))
	part, err := mw.CreateFormFile("resume", "cv.pdf")
	require.NoError(t, err)
	_, _ = part.Write([]byte("%PDF-1.4 fake"))
	require.NoError(t, mw.Close())

	r := asUser(f.student, models.RoleStudent)
	r.POST("/applications", NewApplicationController(db, new(MockEventNotifier), resumes).Create)
	req := httptest.NewRequest(http.MethodPost, "/applications", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resumes.AssertExpectations(t)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestUpdateStatusSucceedsWhenNotificationFails(t *testing.T) {
	db, sqlMock := setupTestDB(t)
	f := newApplyFixture()
	appID := uuid.New()

	sqlMock.ExpectQuery(`FROM "applications" JOIN internships i`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "internship_id", "student_id", "status", "cover_letter"}).
			AddRow(appID.String(), f.internship.String(), f.student.String(), string(models.ApplicationPending), coverLetter))
	sqlMock.ExpectQuery(`SELECT \* FROM "internships" WHERE "internships"."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "company_id", "title", "status"}).
			AddRow(f.internship.String(), f.company.String(), "Backend Intern", string(models.InternshipPublished)))
	sqlMock.ExpectQuery(`SELECT \* FROM "companies" WHERE "companies"."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name"}).
			AddRow(f.company.String(), f.companyUser.String(), "Acme"))
	sqlMock.ExpectBegin()
	sqlMock.ExpectExec(`UPDATE "applications" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	sqlMock.ExpectCommit()

	notifier := new(MockEventNotifier)
	notifier.On("ApplicationStatusChanged", mock.Anything, f.student, models.ApplicationAccepted, "Backend Intern", "Acme").
		Return(errors.New("push unavailable"))

	r := asUser(f.companyUser, models.RoleCompany)
	r.PUT("/applications/:id/status", NewApplicationController(db, notifier, nil).UpdateStatus)
	w := doRequest(r, http.MethodPut, "/applications/"+appID.String()+"/status", `{"status":"accepted","response_message":"Welcome aboard"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"accepted"`)
	notifier.AssertExpectations(t)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	db, sqlMock := setupTestDB(t)

	r := asUser(uuid.New(), models.RoleCompany)
	r.PUT("/applications/:id/status", NewApplicationController(db, new(MockEventNotifier), nil).UpdateStatus)
	w := doRequest(r, http.MethodPut, "/applications/"+uuid.New().String()+"/status", `{"status":"withdrawn"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}
