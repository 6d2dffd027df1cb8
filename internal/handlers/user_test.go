package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mkowalczyk-dev/task-tracker-api/internal/constants"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/logger"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/middleware"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/models"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/repository"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/services"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/storage"
)

type userTestEnv struct {
	db     *gorm.DB
	router func(actor *models.User) *gin.Engine
}

func setupUserTestEnv(t *testing.T) userTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.User{}, &models.Task{}, &models.TaskDocument{})
	require.NoError(t, err)

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(db)
	userService := services.NewUserService(userRepo, store, logger.NewNop())
	handler := NewUserHandler(userService, logger.NewNop(), false)

	router := func(actor *models.User) *gin.Engine {
		r := gin.New()
		authStub := func(c *gin.Context) {
			c.Set(constants.ContextKeyUserID, actor.ID)
			c.Set(constants.ContextKeyUserRole, actor.Role)
			c.Next()
		}
		users := r.Group("/api/users", authStub)
		users.GET("", middleware.RequireAdmin(), handler.ListUsers)
		users.PATCH("/:id", handler.UpdateUser)
		users.DELETE("/:id", middleware.RequireAdmin(), handler.DeleteUser)
		return r
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return userTestEnv{db: db, router: router}
}

func (env userTestEnv) createUser(t *testing.T, email string, role models.UserRole) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := &models.User{Email: email, PasswordHash: string(hash), Role: role}
	require.NoError(t, env.db.Create(user).Error)
	return user
}

func TestUserHandler_ListUsers_AdminOnly(t *testing.T) {
	env := setupUserTestEnv(t)
	admin := env.createUser(t, "admin@example.com", models.RoleAdmin)
	regular := env.createUser(t, "user@example.com", models.RoleUser)

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	w := httptest.NewRecorder()
	env.router(regular).ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	env.router(admin).ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Users []struct {
			Email string `json:"email"`
		} `json:"users"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Users, 2)
	require.Equal(t, int64(2), response.Pagination.Total)
}

func TestUserHandler_ListUsers_Search(t *testing.T) {
	env := setupUserTestEnv(t)
	admin := env.createUser(t, "admin@example.com", models.RoleAdmin)
	env.createUser(t, "alice@example.com", models.RoleUser)
	env.createUser(t, "bob@example.com", models.RoleUser)

	req := httptest.NewRequest(http.MethodGet, "/api/users?search=alice", nil)
	w := httptest.NewRecorder()
	env.router(admin).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Users []struct {
			Email string `json:"email"`
		} `json:"users"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Users, 1)
	require.Equal(t, "alice@example.com", response.Users[0].Email)
}

func patchUser(t *testing.T, r *gin.Engine, id uint64, payload map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPatch, "/api/users/"+strconv.FormatUint(id, 10), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUserHandler_UpdateUser_Self(t *testing.T) {
	env := setupUserTestEnv(t)
	user := env.createUser(t, "me@example.com", models.RoleUser)

	w := patchUser(t, env.router(user), user.ID, map[string]any{
		"email": "renamed@example.com",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var stored models.User
	require.NoError(t, env.db.First(&stored, user.ID).Error)
	require.Equal(t, "renamed@example.com", stored.Email)
}

func TestUserHandler_UpdateUser_OtherForbidden(t *testing.T) {
	env := setupUserTestEnv(t)
	user := env.createUser(t, "me@example.com", models.RoleUser)
	other := env.createUser(t, "other@example.com", models.RoleUser)

	w := patchUser(t, env.router(user), other.ID, map[string]any{
		"email": "hijacked@example.com",
	})
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestUserHandler_UpdateUser_RoleChangeRequiresAdmin(t *testing.T) {
	env := setupUserTestEnv(t)
	admin := env.createUser(t, "admin@example.com", models.RoleAdmin)
	user := env.createUser(t, "me@example.com", models.RoleUser)

	// A non-admin's role field is ignored, leaving nothing to patch.
	w := patchUser(t, env.router(user), user.ID, map[string]any{
		"role": "admin",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var stored models.User
	require.NoError(t, env.db.First(&stored, user.ID).Error)
	require.Equal(t, models.RoleUser, stored.Role)

	w = patchUser(t, env.router(admin), user.ID, map[string]any{
		"role": "admin",
	})
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, env.db.First(&stored, user.ID).Error)
	require.Equal(t, models.RoleAdmin, stored.Role)
}

func TestUserHandler_DeleteUser_RemovesOwnedTasks(t *testing.T) {
	env := setupUserTestEnv(t)
	admin := env.createUser(t, "admin@example.com", models.RoleAdmin)
	user := env.createUser(t, "doomed@example.com", models.RoleUser)

	task := &models.Task{Title: "Owned", CreatedBy: user.ID}
	require.NoError(t, env.db.Create(task).Error)
	doc := &models.TaskDocument{TaskID: task.ID, Filename: "a.pdf", OriginalName: "a.pdf", FilePath: "missing/a.pdf"}
	require.NoError(t, env.db.Create(doc).Error)

	req := httptest.NewRequest(http.MethodDelete, "/api/users/"+strconv.FormatUint(user.ID, 10), nil)
	w := httptest.NewRecorder()
	env.router(admin).ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var users, tasks, docs int64
	env.db.Model(&models.User{}).Count(&users)
	env.db.Model(&models.Task{}).Count(&tasks)
	env.db.Model(&models.TaskDocument{}).Count(&docs)
	require.Equal(t, int64(1), users)
	require.Zero(t, tasks)
	require.Zero(t, docs)
}

func TestUserHandler_DeleteUser_SelfGuard(t *testing.T) {
	env := setupUserTestEnv(t)
	admin := env.createUser(t, "admin@example.com", models.RoleAdmin)

	req := httptest.NewRequest(http.MethodDelete, "/api/users/"+strconv.FormatUint(admin.ID, 10), nil)
	w := httptest.NewRecorder()
	env.router(admin).ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var users int64
	env.db.Model(&models.User{}).Count(&users)
	require.Equal(t, int64(1), users)
}
