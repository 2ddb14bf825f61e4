package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/flow-planner/pkg/api/dto"
	"github.com/LENAX/flow-planner/pkg/core/contract"
	"github.com/LENAX/flow-planner/pkg/core/engine"
	"github.com/LENAX/flow-planner/pkg/core/graph"
	"github.com/LENAX/flow-planner/pkg/core/validate"
)

// operatorPalette 前端节点面板可用的算子定义
// 与计算引擎支持的算子保持一致
var operatorPalette = []dto.OperatorInfo{
	{Name: "sma", Params: []string{"window"}, Input: []string{"close"}},
	{Name: "ema", Params: []string{"window"}, Input: []string{"close"}},
	{Name: "rsi", Params: []string{"window"}, Input: []string{"close"}},
	{Name: "macd", Params: []string{"fast", "slow", "signal"}, Input: []string{"close"}},
	{Name: "kdj", Params: []string{"n", "m1", "m2"}, Input: []string{"high", "low", "close"}},
	{Name: "bollinger", Params: []string{"window", "num_std"}, Input: []string{"close"}},
	{Name: "rank", Params: []string{"col"}, Input: []string{"close"}, CrossSectional: true},
	{Name: "zscore", Params: []string{"col"}, Input: []string{"close"}, CrossSectional: true},
}

// StrategyHandler 策略图API处理器
type StrategyHandler struct {
	engine *engine.Engine
}

// NewStrategyHandler 创建StrategyHandler
func NewStrategyHandler(eng *engine.Engine) *StrategyHandler {
	return &StrategyHandler{engine: eng}
}

// Validate 校验策略图并返回执行计划
// POST /api/v1/strategy/validate
func (h *StrategyHandler) Validate(c *gin.Context) {
	var payload graph.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, dto.ValidationFailureResponse{
			Errors: []validate.ValidationError{{
				Code:    validate.CodeInternal,
				Message: "请求体解析失败: " + err.Error(),
			}},
		})
		return
	}

	plan, verrs := validate.ValidatePayload(payload, contract.FlavorStrategy)
	if len(verrs) > 0 {
		c.JSON(failureStatus(verrs), dto.ValidationFailureResponse{Errors: verrs})
		return
	}

	c.JSON(http.StatusOK, dto.PlanResponse{
		Order:  plan.Order,
		Levels: plan.Levels,
	})
}

// Backtest 校验策略图并提交回测
// POST /api/v1/strategy/backtest
func (h *StrategyHandler) Backtest(c *gin.Context) {
	var payload graph.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, dto.ValidationFailureResponse{
			Errors: []validate.ValidationError{{
				Code:    validate.CodeInternal,
				Message: "请求体解析失败: " + err.Error(),
			}},
		})
		return
	}

	sub, verrs := h.engine.SubmitBacktest(c.Request.Context(), payload)
	if len(verrs) > 0 {
		c.JSON(failureStatus(verrs), dto.ValidationFailureResponse{Errors: verrs})
		return
	}

	c.JSON(http.StatusOK, dto.BacktestResponse{
		Plan: dto.PlanResponse{
			Order:  sub.Plan.Order,
			Levels: sub.Plan.Levels,
		},
		Result: sub.Result,
	})
}

// Operators 列出可用算子定义
// GET /api/v1/strategy/operators
func (h *StrategyHandler) Operators(c *gin.Context) {
	c.JSON(http.StatusOK, dto.OperatorsResponse{Operators: operatorPalette})
}

// failureStatus 校验错误对应的HTTP状态码
// 全部为内部错误时返回500，否则按不可处理实体返回422
func failureStatus(verrs []validate.ValidationError) int {
	for _, e := range verrs {
		if e.Code != validate.CodeInternal {
			return http.StatusUnprocessableEntity
		}
	}
	return http.StatusInternalServerError
}
