package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/flowcore/engine/pkg/engine"
	"github.com/flowcore/engine/pkg/pause"
	"github.com/flowcore/engine/pkg/types"
)

// SaveWorkflowResponse represents the response from saving a workflow.
type SaveWorkflowResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// LoadWorkflowResponse represents the response from loading a workflow.
type LoadWorkflowResponse struct {
	Success  bool            `json:"success"`
	Workflow *types.Workflow `json:"workflow,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// ListWorkflowsResponse represents the response from listing workflows.
type ListWorkflowsResponse struct {
	Success   bool             `json:"success"`
	Workflows []types.Workflow `json:"workflows"`
	Count     int              `json:"count"`
}

// ExecuteWorkflowRequest is the body accepted by the execute endpoint.
type ExecuteWorkflowRequest struct {
	TriggerEvent  map[string]interface{} `json:"trigger_event"`
	StartFromNode string                  `json:"start_from_node,omitempty"`
}

// ExecuteWorkflowResponse is returned after starting or resuming an execution.
type ExecuteWorkflowResponse struct {
	Success     bool   `json:"success"`
	ExecutionID string `json:"execution_id,omitempty"`
	Status      string `json:"status,omitempty"`
	Error       string `json:"error,omitempty"`
}

// ResumeExecutionRequest is the body accepted by the resume endpoint.
type ResumeExecutionRequest struct {
	NodeID         string                 `json:"node_id"`
	Response       interface{}            `json:"response"`
	Classification string                 `json:"classification,omitempty"`
	Incoming       map[string]interface{} `json:"incoming,omitempty"`
}

// ExecutionSummary is the JSON-serializable view of an Execution, since
// Execution itself keeps its node run map behind a mutex.
type ExecutionSummary struct {
	ID         string                    `json:"id"`
	WorkflowID string                    `json:"workflow_id"`
	Status     types.ExecutionStatus     `json:"status"`
	Path       []string                  `json:"path"`
	NodeRuns   map[string]*types.NodeRun `json:"node_runs"`
}

func newExecutionSummary(exec *types.Execution) ExecutionSummary {
	return ExecutionSummary{
		ID:         exec.ID,
		WorkflowID: exec.WorkflowID,
		Status:     exec.GetStatus(),
		Path:       exec.Path(),
		NodeRuns:   exec.AllNodeRuns(),
	}
}

// GetExecutionResponse wraps an execution's record, log history, and any
// nodes still waiting on a human response or timeout.
type GetExecutionResponse struct {
	Success       bool                  `json:"success"`
	Execution     *ExecutionSummary     `json:"execution,omitempty"`
	Logs          []types.LogEntry      `json:"logs,omitempty"`
	PendingPauses []*types.PauseRecord  `json:"pending_pauses,omitempty"`
	Error         string                `json:"error,omitempty"`
}

// handleWorkflows handles POST (save) and GET (list) on /api/v1/workflows.
func (s *Server) handleWorkflows(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleSaveWorkflow(w, r)
	case http.MethodGet:
		s.handleListWorkflows(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSaveWorkflow(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestBodySize)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeErrorResponse(w, "Failed to read request body", http.StatusBadRequest, err)
		return
	}

	var wf types.Workflow
	if err := json.Unmarshal(body, &wf); err != nil {
		s.writeErrorResponse(w, "Failed to parse workflow", http.StatusBadRequest, err)
		return
	}

	id, err := s.engine.SaveWorkflow(r.Context(), &wf)
	if err != nil {
		s.writeJSONResponse(w, http.StatusBadRequest, SaveWorkflowResponse{
			Success: false,
			Error:   "Failed to save workflow: " + err.Error(),
		})
		return
	}

	s.logger.WithField("id", id).Info("workflow saved")

	s.writeJSONResponse(w, http.StatusCreated, SaveWorkflowResponse{
		Success: true,
		ID:      id,
	})
}

func (s *Server) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	workflows, err := s.engine.ListWorkflows(r.Context())
	if err != nil {
		s.writeErrorResponse(w, "Failed to list workflows", http.StatusInternalServerError, err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, ListWorkflowsResponse{
		Success:   true,
		Workflows: workflows,
		Count:     len(workflows),
	})
}

// handleWorkflowByID dispatches /api/v1/workflows/{id}[/execute].
func (s *Server) handleWorkflowByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/workflows/")
	if strings.HasSuffix(path, "/execute") {
		id := strings.TrimSuffix(path, "/execute")
		s.handleExecuteWorkflow(w, r, strings.TrimSpace(id))
		return
	}

	id := strings.TrimSpace(path)
	if id == "" {
		s.writeJSONResponse(w, http.StatusBadRequest, LoadWorkflowResponse{
			Success: false,
			Error:   "workflow id is required",
		})
		return
	}

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	wf, err := s.engine.LoadWorkflow(r.Context(), id)
	if err != nil {
		s.writeJSONResponse(w, http.StatusNotFound, LoadWorkflowResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	s.writeJSONResponse(w, http.StatusOK, LoadWorkflowResponse{
		Success:  true,
		Workflow: wf,
	})
}

// handleExecuteWorkflow starts a new execution of a saved workflow.
func (s *Server) handleExecuteWorkflow(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if id == "" {
		s.writeErrorResponse(w, "workflow id is required", http.StatusBadRequest, nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeErrorResponse(w, "Failed to read request body", http.StatusBadRequest, err)
		return
	}

	var req ExecuteWorkflowRequest
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			s.writeErrorResponse(w, "Failed to parse request", http.StatusBadRequest, err)
			return
		}
	}

	wf, err := s.engine.LoadWorkflow(r.Context(), id)
	if err != nil {
		s.writeErrorResponse(w, "Failed to load workflow", http.StatusNotFound, err)
		return
	}

	execID, status, err := s.engine.ExecuteWorkflow(r.Context(), wf, req.TriggerEvent, engine.ExecuteOptions{
		StartFromNode: req.StartFromNode,
	})
	if err != nil {
		s.writeErrorResponse(w, "Workflow execution failed", http.StatusInternalServerError, err)
		return
	}

	s.logger.WithField("execution_id", execID).WithField("workflow_id", id).Info("workflow execution started")

	s.writeJSONResponse(w, http.StatusOK, ExecuteWorkflowResponse{
		Success:     true,
		ExecutionID: execID,
		Status:      string(status),
	})
}

// handleExecutionRoutes dispatches /api/v1/executions/{id}[/resume|/cancel].
func (s *Server) handleExecutionRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/executions/")

	switch {
	case strings.HasSuffix(path, "/resume"):
		s.handleResumeExecution(w, r, strings.TrimSuffix(path, "/resume"))
	case strings.HasSuffix(path, "/cancel"):
		s.handleCancelExecution(w, r, strings.TrimSuffix(path, "/cancel"))
	default:
		s.handleGetExecution(w, r, path)
	}
}

func (s *Server) handleResumeExecution(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeErrorResponse(w, "Failed to read request body", http.StatusBadRequest, err)
		return
	}

	var req ResumeExecutionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeErrorResponse(w, "Failed to parse request", http.StatusBadRequest, err)
		return
	}

	status, err := s.engine.ResumeExecution(r.Context(), pause.ResumeRequest{
		ExecutionID:    id,
		NodeID:         req.NodeID,
		Response:       req.Response,
		Classification: req.Classification,
		Incoming:       req.Incoming,
	})
	if err != nil {
		s.writeJSONResponse(w, http.StatusConflict, ExecuteWorkflowResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	s.writeJSONResponse(w, http.StatusOK, ExecuteWorkflowResponse{
		Success:     true,
		ExecutionID: id,
		Status:      string(status),
	})
}

func (s *Server) handleCancelExecution(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status, err := s.engine.CancelExecution(r.Context(), id)
	if err != nil {
		s.writeJSONResponse(w, http.StatusNotFound, ExecuteWorkflowResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	s.writeJSONResponse(w, http.StatusOK, ExecuteWorkflowResponse{
		Success:     true,
		ExecutionID: id,
		Status:      string(status),
	})
}

func (s *Server) handleGetExecution(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id = strings.TrimSpace(id)
	if id == "" {
		s.writeErrorResponse(w, "execution id is required", http.StatusBadRequest, nil)
		return
	}

	view, err := s.engine.GetExecution(r.Context(), id)
	if err != nil {
		s.writeJSONResponse(w, http.StatusNotFound, GetExecutionResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	summary := newExecutionSummary(view.Execution)
	s.writeJSONResponse(w, http.StatusOK, GetExecutionResponse{
		Success:       true,
		Execution:     &summary,
		Logs:          view.Logs,
		PendingPauses: view.PendingPauses,
	})
}
