package meal

import (
	"context"
	"net/http"
	"strings"

	mealService "smartchef/internal/core/meal"
	"smartchef/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserIDHeader 識別使用者的標頭，用於沿用個人熱量目標
const UserIDHeader = "X-User-ID"

// MealService 餐點生成服務
type MealService interface {
	Generate(ctx context.Context, mode mealService.Mode, in mealService.GenerateInput) (*common.GeneratedMeal, error)
	ModeInfo(mode mealService.Mode) mealService.ModeInfo
}

// GenerateRequest 生成餐點請求
type GenerateRequest struct {
	Mode string `json:"mode,omitempty"` // simple 或 chef，查詢參數優先
	mealService.GenerateInput
}

// Handler 餐點處理程序
type Handler struct {
	meals       MealService
	defaultMode string
}

// NewHandler 創建新的餐點處理程序
func NewHandler(meals MealService, defaultMode string) *Handler {
	return &Handler{meals: meals, defaultMode: defaultMode}
}

// resolveMode 查詢參數 > 請求內容 > 預設值
func (h *Handler) resolveMode(c *gin.Context, body string) mealService.Mode {
	for _, candidate := range []string{c.Query("mode"), body, h.defaultMode} {
		if strings.TrimSpace(candidate) != "" {
			return mealService.ParseMode(candidate)
		}
	}
	return mealService.ModeSimple
}

// HandleGenerate 生成餐點
func (h *Handler) HandleGenerate(c *gin.Context) {
	requestID := requestid.Get(c)

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("請求格式無效",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		resp := common.ErrInvalidRequest.Response()
		resp.Details = err.Error()
		c.JSON(common.ErrInvalidRequest.Status, resp)
		return
	}

	mode := h.resolveMode(c, req.Mode)
	req.UserID = strings.TrimSpace(c.GetHeader(UserIDHeader))

	common.LogInfo("開始處理餐點生成請求",
		zap.String("request_id", requestID),
		zap.String("mode", string(mode)),
		zap.Int("ingredients", len(req.Ingredients)),
		zap.Float64("calorie_target", req.CalorieTarget),
	)

	meal, err := h.meals.Generate(c.Request.Context(), mode, req.GenerateInput)
	if err != nil {
		apiErr := common.ErrorFor(err)
		common.LogWarn("餐點生成失敗",
			zap.Error(err),
			zap.String("code", apiErr.Code),
			zap.String("request_id", requestID),
		)
		c.JSON(apiErr.Status, common.ErrorResponse{
			Code:    apiErr.Code,
			Message: apiErr.Message,
		})
		return
	}

	c.JSON(http.StatusOK, meal)
}

// HandleModeInfo 模式說明與設定警告
func (h *Handler) HandleModeInfo(c *gin.Context) {
	mode := mealService.ParseMode(c.Param("mode"))
	c.JSON(http.StatusOK, h.meals.ModeInfo(mode))
}
