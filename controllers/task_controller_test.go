package controllers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/vnkhanh/internship-platform-backend/models"
)

func taskRows(id, assignee, reviewer uuid.UUID, status models.TaskStatus) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "title", "assigned_to", "assigned_by", "status"}).
		AddRow(id.String(), "Build REST API", assignee.String(), reviewer.String(), string(status))
}

func TestCompleteTaskSucceedsWhenNotificationFails(t *testing.T) {
	db, sqlMock := setupTestDB(t)
	taskID, student, reviewer := uuid.New(), uuid.New(), uuid.New()

	sqlMock.ExpectQuery(`SELECT \* FROM "tasks" WHERE id = \$1 AND assigned_by = \$2`).
		WillReturnRows(taskRows(taskID, student, reviewer, models.TaskSubmitted))
	sqlMock.ExpectBegin()
	sqlMock.ExpectExec(`UPDATE "tasks" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	sqlMock.ExpectCommit()

	notifier := new(MockEventNotifier)
	notifier.On("TaskCompleted", mock.Anything, student, "Build REST API").Return(errors.New("push unavailable"))

	r := asUser(reviewer, models.RoleCompany)
	r.POST("/tasks/:id/complete", NewTaskController(db, notifier).Complete)
	w := doRequest(r, http.MethodPost, "/tasks/"+taskID.String()+"/complete", `{"feedback":"Nice work"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"completed"`)
	notifier.AssertExpectations(t)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestRejectTaskSucceedsWhenNotificationFails(t *testing.T) {
	db, sqlMock := setupTestDB(t)
	taskID, student, admin := uuid.New(), uuid.New(), uuid.New()

	// Admin duyệt được mọi task nên không lọc theo assigned_by
	sqlMock.ExpectQuery(`SELECT \* FROM "tasks" WHERE id = \$1 ORDER BY`).
		WillReturnRows(taskRows(taskID, student, uuid.New(), models.TaskSubmitted))
	sqlMock.ExpectBegin()
	sqlMock.ExpectExec(`UPDATE "tasks" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	sqlMock.ExpectCommit()

	notifier := new(MockEventNotifier)
	notifier.On("TaskRejected", mock.Anything, student, "Build REST API").Return(errors.New("push unavailable"))

	r := asUser(admin, models.RoleAdmin)
	r.POST("/tasks/:id/reject", NewTaskController(db, notifier).Reject)
	w := doRequest(r, http.MethodPost, "/tasks/"+taskID.String()+"/reject", `{"feedback":"Missing tests"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Missing tests")
	notifier.AssertExpectations(t)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestCompleteTaskRequiresSubmission(t *testing.T) {
	db, sqlMock := setupTestDB(t)
	taskID, student, reviewer := uuid.New(), uuid.New(), uuid.New()

	sqlMock.ExpectQuery(`SELECT \* FROM "tasks"`).
		WillReturnRows(taskRows(taskID, student, reviewer, models.TaskInProgress))

	notifier := new(MockEventNotifier)
	r := asUser(reviewer, models.RoleCompany)
	r.POST("/tasks/:id/complete", NewTaskController(db, notifier).Complete)
	w := doRequest(r, http.MethodPost, "/tasks/"+taskID.String()+"/complete", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	notifier.AssertNotCalled(t, "TaskCompleted", mock.Anything, mock.Anything, mock.Anything)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}
