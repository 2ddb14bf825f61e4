package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/flow-planner/pkg/api/dto"
	"github.com/LENAX/flow-planner/pkg/core/engine"
	"github.com/LENAX/flow-planner/pkg/core/flow"
	"github.com/LENAX/flow-planner/pkg/storage"
)

// FlowHandler 流程API处理器
type FlowHandler struct {
	engine    *engine.Engine
	repo      storage.FlowRepository
	scheduler *engine.CronScheduler
}

// NewFlowHandler 创建FlowHandler
func NewFlowHandler(eng *engine.Engine, repo storage.FlowRepository, scheduler *engine.CronScheduler) *FlowHandler {
	return &FlowHandler{engine: eng, repo: repo, scheduler: scheduler}
}

// List 列出所有流程
// GET /api/v1/flows
func (h *FlowHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	flows, err := h.repo.ListFlows(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("查询流程失败: %v", err)))
		return
	}

	items := make([]dto.FlowSummary, 0, len(flows))
	for _, f := range flows {
		items = append(items, flowSummary(f))
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ListResponse[dto.FlowSummary]{
		Total: len(items),
		Items: items,
	}))
}

// Save 保存流程定义（新建或覆盖）
// POST /api/v1/flows
func (h *FlowHandler) Save(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.SaveFlowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, fmt.Sprintf("请求体解析失败: %v", err)))
		return
	}

	f := req.ToFlow()

	// 保存前校验任务依赖图
	if _, verrs := h.engine.ValidateFlow(f); len(verrs) > 0 {
		c.JSON(http.StatusUnprocessableEntity, dto.ValidationFailureResponse{Errors: verrs})
		return
	}

	now := time.Now()
	if existing, err := h.repo.GetFlow(ctx, f.Name); err == nil && existing != nil {
		f.CreateTime = existing.CreateTime
	} else {
		f.CreateTime = now
	}
	f.UpdateTime = now

	if err := h.repo.SaveFlow(ctx, f); err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("保存流程失败: %v", err)))
		return
	}

	// 刷新调度注册
	h.refreshSchedule(f)

	c.JSON(http.StatusOK, dto.NewSuccessResponse(flowSummary(f)))
}

// Get 获取流程详情
// GET /api/v1/flows/:name
func (h *FlowHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	name := c.Param("name")

	f, err := h.repo.GetFlow(ctx, name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("查询流程失败: %v", err)))
		return
	}
	if f == nil {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(404, "流程不存在"))
		return
	}

	tasks := make([]dto.TaskSummary, 0, len(f.Tasks))
	for _, t := range f.Tasks {
		tasks = append(tasks, dto.TaskSummary{
			ID:        t.ID,
			Type:      string(t.Type),
			DependsOn: t.DependsOn,
		})
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.FlowDetail{
		FlowSummary:  flowSummary(f),
		Tasks:        tasks,
		Dependencies: f.Dependencies(),
	}))
}

// Delete 删除流程
// DELETE /api/v1/flows/:name
func (h *FlowHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	name := c.Param("name")

	if h.scheduler != nil {
		_ = h.scheduler.UnregisterFlow(name) // 未注册时忽略
	}

	if err := h.repo.DeleteFlow(ctx, name); err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("删除流程失败: %v", err)))
		return
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(map[string]string{"name": name}))
}

// Run 手动触发流程执行
// POST /api/v1/flows/:name/run
func (h *FlowHandler) Run(c *gin.Context) {
	ctx := c.Request.Context()
	name := c.Param("name")

	// 空请求体按默认参数处理
	var req dto.RunFlowRequest
	_ = c.ShouldBindJSON(&req)

	f, err := h.repo.GetFlow(ctx, name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("查询流程失败: %v", err)))
		return
	}
	if f == nil {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(404, "流程不存在"))
		return
	}

	rec, err := h.engine.ExecuteFlow(ctx, f, req.TargetDate, "manual")
	if err != nil {
		var vfe *engine.ValidationFailedError
		if errors.As(err, &vfe) {
			c.JSON(http.StatusUnprocessableEntity, dto.ValidationFailureResponse{Errors: vfe.Errors})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("流程执行失败: %v", err)))
		return
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ExecuteResponse{
		RunID:   rec.RunID,
		Status:  string(rec.Status),
		Message: "流程执行完成",
	}))
}

// Schedule 变更流程调度状态
// POST /api/v1/flows/:name/schedule
func (h *FlowHandler) Schedule(c *gin.Context) {
	ctx := c.Request.Context()
	name := c.Param("name")

	var req dto.ScheduleFlowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, fmt.Sprintf("请求体解析失败: %v", err)))
		return
	}

	f, err := h.repo.GetFlow(ctx, name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("查询流程失败: %v", err)))
		return
	}
	if f == nil {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(404, "流程不存在"))
		return
	}

	f.Enabled = req.Enabled
	if req.Cron != "" {
		f.Cron = req.Cron
	}
	f.UpdateTime = time.Now()

	if err := h.repo.SaveFlow(ctx, f); err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("保存流程失败: %v", err)))
		return
	}

	h.refreshSchedule(f)

	c.JSON(http.StatusOK, dto.NewSuccessResponse(flowSummary(f)))
}

// Runs 查询流程运行历史
// GET /api/v1/flows/:name/runs
func (h *FlowHandler) Runs(c *gin.Context) {
	ctx := c.Request.Context()
	name := c.Param("name")

	var req dto.RunsQueryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, fmt.Sprintf("查询参数非法: %v", err)))
		return
	}

	runs, err := h.repo.ListRuns(ctx, name, req.GetDefaultLimit())
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("查询运行历史失败: %v", err)))
		return
	}

	items := make([]dto.RunSummary, 0, len(runs))
	for _, r := range runs {
		items = append(items, runSummary(r))
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ListResponse[dto.RunSummary]{
		Total: len(items),
		Items: items,
	}))
}

// GetRun 获取运行记录详情
// GET /api/v1/runs/:id
func (h *FlowHandler) GetRun(c *gin.Context) {
	ctx := c.Request.Context()
	runID := c.Param("id")

	rec, ok := h.engine.GetRun(runID)
	if !ok {
		var err error
		rec, err = h.repo.GetRun(ctx, runID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("查询运行记录失败: %v", err)))
			return
		}
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(404, "运行记录不存在"))
		return
	}

	tasks := make(map[string]dto.TaskRunDetail, len(rec.Tasks))
	for id, r := range rec.Tasks {
		tasks[id] = dto.TaskRunDetail{
			Status:     string(r.Status),
			StartedAt:  optionalTime(r.StartedAt),
			FinishedAt: optionalTime(r.FinishedAt),
			Error:      r.Error,
		}
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.RunDetail{
		RunSummary: runSummary(rec),
		Tasks:      tasks,
	}))
}

// refreshSchedule 根据流程当前状态刷新调度注册
func (h *FlowHandler) refreshSchedule(f *flow.Flow) {
	if h.scheduler == nil {
		return
	}
	_ = h.scheduler.UnregisterFlow(f.Name) // 未注册时忽略
	if f.Enabled && f.Cron != "" {
		_ = h.scheduler.RegisterFlow(f)
	}
}

func flowSummary(f *flow.Flow) dto.FlowSummary {
	return dto.FlowSummary{
		Name:        f.Name,
		Description: f.Description,
		TaskCount:   len(f.Tasks),
		Cron:        f.Cron,
		Tags:        f.Tags,
		Enabled:     f.Enabled,
		CreatedAt:   f.CreateTime,
	}
}

func runSummary(r *flow.RunRecord) dto.RunSummary {
	s := dto.RunSummary{
		RunID:       r.RunID,
		FlowName:    r.FlowName,
		Status:      string(r.Status),
		TriggerType: r.TriggerType,
		TargetDate:  r.TargetDate,
		StartedAt:   r.StartedAt,
		FinishedAt:  optionalTime(r.FinishedAt),
		Error:       r.Error,
	}
	if !r.FinishedAt.IsZero() {
		s.Duration = r.FinishedAt.Sub(r.StartedAt).String()
	}
	return s
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
