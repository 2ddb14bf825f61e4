package flowplanner

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/LENAX/flow-planner/pkg/api/dto"
)

// Client Flow Planner HTTP API客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New 创建Client
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ========== Strategy API ==========

// ValidateResult 策略图校验结果
// Plan与Errors互斥：校验通过时只有Plan，失败时只有Errors
type ValidateResult struct {
	Plan   *dto.PlanResponse
	Errors []ValidationError
}

// ValidationError 校验错误（与服务端wire格式一致）
type ValidationError struct {
	Code    string   `json:"code"`
	NodeIDs []string `json:"nodes"`
	Message string   `json:"message"`
}

// ValidateStrategy 校验策略图JSON
func (c *Client) ValidateStrategy(graphJSON []byte) (*ValidateResult, error) {
	resp, err := c.httpClient.Post(c.baseURL+"/api/v1/strategy/validate", "application/json", bytes.NewReader(graphJSON))
	if err != nil {
		return nil, fmt.Errorf("HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var plan dto.PlanResponse
		if err := json.Unmarshal(body, &plan); err != nil {
			return nil, fmt.Errorf("解析执行计划失败: %w", err)
		}
		return &ValidateResult{Plan: &plan}, nil
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		var failure struct {
			Errors []ValidationError `json:"errors"`
		}
		if err := json.Unmarshal(body, &failure); err != nil {
			return nil, fmt.Errorf("解析校验错误失败: %w", err)
		}
		return &ValidateResult{Errors: failure.Errors}, nil
	default:
		return nil, fmt.Errorf("服务端返回异常状态 %d: %s", resp.StatusCode, string(body))
	}
}

// Operators 查询可用算子定义
func (c *Client) Operators() (*dto.OperatorsResponse, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/api/v1/strategy/operators")
	if err != nil {
		return nil, fmt.Errorf("HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	var result dto.OperatorsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}
	return &result, nil
}

// ========== Flow API ==========

// ListFlows 列出所有流程
func (c *Client) ListFlows() (*dto.ListResponse[dto.FlowSummary], error) {
	var resp dto.APIResponse[dto.ListResponse[dto.FlowSummary]]
	if err := c.get("/api/v1/flows", &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("%s", resp.Message)
	}
	return &resp.Data, nil
}

// GetFlow 获取流程详情
func (c *Client) GetFlow(name string) (*dto.FlowDetail, error) {
	var resp dto.APIResponse[dto.FlowDetail]
	if err := c.get("/api/v1/flows/"+url.PathEscape(name), &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("%s", resp.Message)
	}
	return &resp.Data, nil
}

// SaveFlow 保存流程定义
func (c *Client) SaveFlow(req dto.SaveFlowRequest) (*dto.FlowSummary, error) {
	var resp dto.APIResponse[dto.FlowSummary]
	if err := c.post("/api/v1/flows", req, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("%s", resp.Message)
	}
	return &resp.Data, nil
}

// DeleteFlow 删除流程
func (c *Client) DeleteFlow(name string) error {
	var resp dto.APIResponse[any]
	if err := c.delete("/api/v1/flows/"+url.PathEscape(name), &resp); err != nil {
		return err
	}
	if resp.Code != 0 {
		return fmt.Errorf("%s", resp.Message)
	}
	return nil
}

// RunFlow 手动触发流程执行
func (c *Client) RunFlow(name, targetDate string) (*dto.ExecuteResponse, error) {
	req := dto.RunFlowRequest{TargetDate: targetDate}
	var resp dto.APIResponse[dto.ExecuteResponse]
	if err := c.post("/api/v1/flows/"+url.PathEscape(name)+"/run", req, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("%s", resp.Message)
	}
	return &resp.Data, nil
}

// ScheduleFlow 变更流程调度状态
func (c *Client) ScheduleFlow(name string, enabled bool, cron string) (*dto.FlowSummary, error) {
	req := dto.ScheduleFlowRequest{Enabled: enabled, Cron: cron}
	var resp dto.APIResponse[dto.FlowSummary]
	if err := c.post("/api/v1/flows/"+url.PathEscape(name)+"/schedule", req, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("%s", resp.Message)
	}
	return &resp.Data, nil
}

// ListRuns 查询流程运行历史
func (c *Client) ListRuns(name string, limit int) (*dto.ListResponse[dto.RunSummary], error) {
	path := "/api/v1/flows/" + url.PathEscape(name) + "/runs"
	if limit > 0 {
		path += "?limit=" + fmt.Sprintf("%d", limit)
	}

	var resp dto.APIResponse[dto.ListResponse[dto.RunSummary]]
	if err := c.get(path, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("%s", resp.Message)
	}
	return &resp.Data, nil
}

// GetRun 获取运行记录详情
func (c *Client) GetRun(runID string) (*dto.RunDetail, error) {
	var resp dto.APIResponse[dto.RunDetail]
	if err := c.get("/api/v1/runs/"+url.PathEscape(runID), &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("%s", resp.Message)
	}
	return &resp.Data, nil
}

// ========== Health API ==========

// Health 健康检查
func (c *Client) Health() (*dto.HealthResponse, error) {
	var resp dto.APIResponse[dto.HealthResponse]
	if err := c.get("/health", &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("%s", resp.Message)
	}
	return &resp.Data, nil
}

// ========== HTTP Methods ==========

func (c *Client) get(path string, result interface{}) error {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	return c.parseResponse(resp, result)
}

func (c *Client) post(path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("序列化请求体失败: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", reqBody)
	if err != nil {
		return fmt.Errorf("HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	return c.parseResponse(resp, result)
}

func (c *Client) delete(path string, result interface{}) error {
	req, err := http.NewRequest(http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("构造请求失败: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	return c.parseResponse(resp, result)
}

func (c *Client) parseResponse(resp *http.Response, result interface{}) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取响应失败: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		// 错误响应有两种形态：通用包装或校验错误列表
		var apiErr dto.APIResponse[any]
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Code != 0 {
			return fmt.Errorf("%s", apiErr.Message)
		}
		var failure struct {
			Errors []ValidationError `json:"errors"`
		}
		if json.Unmarshal(body, &failure) == nil && len(failure.Errors) > 0 {
			msgs := make([]string, 0, len(failure.Errors))
			for _, e := range failure.Errors {
				msgs = append(msgs, fmt.Sprintf("[%s] %s", e.Code, e.Message))
			}
			return fmt.Errorf("校验失败: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("解析响应失败 (HTTP %d): %s", resp.StatusCode, string(body))
	}
	return nil
}
