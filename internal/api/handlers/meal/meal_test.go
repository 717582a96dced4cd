package meal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mealService "smartchef/internal/core/meal"
	"smartchef/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMeals 記錄最後一次呼叫
type fakeMeals struct {
	mode mealService.Mode
	in   mealService.GenerateInput
	err  error
}

func (f *fakeMeals) Generate(_ context.Context, mode mealService.Mode, in mealService.GenerateInput) (*common.GeneratedMeal, error) {
	f.mode = mode
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &common.GeneratedMeal{ID: "meal-1", Mode: string(mode), Title: "Test Meal"}, nil
}

func (f *fakeMeals) ModeInfo(mode mealService.Mode) mealService.ModeInfo {
	return mealService.ModeInfo{Mode: mode, Title: "info"}
}

func newTestRouter(svc MealService, defaultMode string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(requestid.New())
	h := NewHandler(svc, defaultMode)
	r.POST("/meals/generate", h.HandleGenerate)
	r.GET("/meals/modes/:mode", h.HandleModeInfo)
	return r
}

func post(r http.Handler, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandleGenerate(t *testing.T) {
	t.Run("success with body mode", func(t *testing.T) {
		svc := &fakeMeals{}
		r := newTestRouter(svc, "simple")

		w := post(r, "/meals/generate",
			`{"mode":"chef","ingredients":[{"name":"Chicken breast","quantity":150,"unit":"g"}],"calorie_target":600,"use_user_calorie_target":true}`,
			map[string]string{UserIDHeader: " alice "})

		require.Equal(t, http.StatusOK, w.Code)
		var meal common.GeneratedMeal
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &meal))
		assert.Equal(t, "meal-1", meal.ID)

		assert.Equal(t, mealService.ModeChef, svc.mode)
		assert.Equal(t, 600.0, svc.in.CalorieTarget)
		assert.True(t, svc.in.UseUserCalorieTarget)
		assert.Equal(t, "alice", svc.in.UserID)
		require.Len(t, svc.in.Ingredients, 1)
		assert.Equal(t, 150.0, *svc.in.Ingredients[0].Quantity)
	})

	t.Run("query mode wins over body", func(t *testing.T) {
		svc := &fakeMeals{}
		r := newTestRouter(svc, "chef")

		w := post(r, "/meals/generate?mode=simple", `{"mode":"chef","ingredients":[{"name":"Rice"}]}`, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, mealService.ModeSimple, svc.mode)
	})

	t.Run("default mode applies", func(t *testing.T) {
		svc := &fakeMeals{}
		r := newTestRouter(svc, "chef")

		w := post(r, "/meals/generate", `{"ingredients":[{"name":"Rice"}]}`, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, mealService.ModeChef, svc.mode)
	})

	t.Run("user id is not taken from the body", func(t *testing.T) {
		svc := &fakeMeals{}
		r := newTestRouter(svc, "simple")

		w := post(r, "/meals/generate", `{"ingredients":[{"name":"Rice"}],"UserID":"mallory"}`, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, svc.in.UserID)
	})
}

func TestHandleGenerate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		code   string
	}{
		{"malformed json", `{"ingredients":`, nil, http.StatusBadRequest, common.ErrCodeInvalidRequest},
		{"target above limit", `{"ingredients":[{"name":"Rice"}],"calorie_target":50000}`, nil, http.StatusBadRequest, common.ErrCodeInvalidRequest},
		{"negative quantity", `{"ingredients":[{"name":"Rice","quantity":-1}]}`, nil, http.StatusBadRequest, common.ErrCodeInvalidRequest},
		{"validation from service", `{"ingredients":[]}`, common.NewValidationError("Please provide at least one ingredient."), http.StatusBadRequest, common.ErrCodeInvalidRequest},
		{"nutrition lookup failure", `{"ingredients":[{"name":"Rice"}]}`, common.ErrNutritionLookup.Wrap(context.DeadlineExceeded), http.StatusGatewayTimeout, common.ErrCodeGatewayTimeout},
		{"upstream failure", `{"ingredients":[{"name":"Rice"}]}`, common.ErrNutritionLookup.Wrap(assert.AnError), http.StatusServiceUnavailable, "NUTRITION_LOOKUP_FAILED"},
		{"cancelled", `{"ingredients":[{"name":"Rice"}]}`, context.Canceled, http.StatusRequestTimeout, common.ErrCodeRequestTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(&fakeMeals{err: tt.err}, "simple")

			w := post(r, "/meals/generate", tt.body, nil)

			assert.Equal(t, tt.status, w.Code)
			var resp common.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Code)
		})
	}

	t.Run("validation message is returned to the client", func(t *testing.T) {
		r := newTestRouter(&fakeMeals{err: common.NewValidationError("Please provide at least one ingredient.")}, "simple")

		w := post(r, "/meals/generate", `{"ingredients":[]}`, nil)

		var resp common.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Please provide at least one ingredient.", resp.Message)
	})
}

func TestHandleModeInfo(t *testing.T) {
	r := newTestRouter(&fakeMeals{}, "simple")

	req := httptest.NewRequest(http.MethodGet, "/meals/modes/CHEF", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var info mealService.ModeInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, mealService.ModeChef, info.Mode)
}
