package controllers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnkhanh/internship-platform-backend/models"
)

func TestGetPreferencesCreatesDefaultRowWithEmailOff(t *testing.T) {
	db, sqlMock := setupTestDB(t)
	user := uuid.New()
	def := models.DefaultPreferences(user)

	sqlMock.ExpectQuery(`SELECT \* FROM "user_preferences" WHERE "user_preferences"."user_id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	sqlMock.ExpectBegin()
	sqlMock.ExpectQuery(`INSERT INTO "user_preferences"`).
		WithArgs(sqlmock.AnyArg(), false, def.PushNotifications, def.TaskReminders,
			def.ApplicationUpdates, def.MessageNotifications, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	sqlMock.ExpectCommit()

	r := asUser(user, models.RoleStudent)
	r.GET("/preferences", NewPreferenceController(db).Get)
	w := doRequest(r, http.MethodGet, "/preferences", "")

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Preferences models.UserPreferences `json:"preferences"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Preferences.EmailNotifications)
	assert.True(t, body.Preferences.PushNotifications)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}
