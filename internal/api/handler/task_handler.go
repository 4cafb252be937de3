package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/primar/console/internal/api/metrics"
	"github.com/primar/console/internal/core/domain"
	"github.com/primar/console/internal/core/ports"
)

type TaskHandler struct {
	service ports.TaskService
}

func NewTaskHandler(service ports.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

type createTaskRequest struct {
	Title              string  `json:"title" validate:"required,max=200"`
	Description        string  `json:"description"`
	Status             string  `json:"status" validate:"task_status"`
	Priority           string  `json:"priority" validate:"task_priority"`
	DueDate            *string `json:"due_date"`
	AssignedTo         string  `json:"assigned_to"`
	ClientID           string  `json:"client_id"`
	IsRecurring        bool    `json:"is_recurring"`
	RecurrenceType     string  `json:"recurrence_type" validate:"recurrence_type"`
	RecurrenceInterval int     `json:"recurrence_interval" validate:"gte=0"`
	IsBlocked          bool    `json:"is_blocked"`
	BlockedReason      string  `json:"blocked_reason"`
	CanAdminOverride   *bool   `json:"can_admin_override"`
}

type updateTaskRequest struct {
	Title              *string `json:"title" validate:"omitempty,max=200"`
	Description        *string `json:"description"`
	Status             *string `json:"status" validate:"omitempty,task_status"`
	Priority           *string `json:"priority" validate:"omitempty,task_priority"`
	DueDate            *string `json:"due_date"`
	ClearDueDate       bool    `json:"clear_due_date"`
	AssignedTo         *string `json:"assigned_to"`
	ClientID           *string `json:"client_id"`
	IsRecurring        *bool   `json:"is_recurring"`
	RecurrenceType     *string `json:"recurrence_type" validate:"omitempty,recurrence_type"`
	RecurrenceInterval *int    `json:"recurrence_interval" validate:"omitempty,gte=1"`
	IsBlocked          *bool   `json:"is_blocked"`
	BlockedReason      *string `json:"blocked_reason"`
	CanAdminOverride   *bool   `json:"can_admin_override"`
}

type taskListResponse struct {
	Tasks []*domain.Task `json:"tasks"`
	Total int            `json:"total"`
}

// parseDueDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
// Plain dates are read as midnight UTC.
func parseDueDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return domain.Timestamp(t), nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, domain.NewValidationError("due_date", "must be YYYY-MM-DD or RFC 3339")
	}
	return t, nil
}

func (r updateTaskRequest) patch() (domain.TaskPatch, error) {
	p := domain.TaskPatch{
		Title:              r.Title,
		Description:        r.Description,
		ClearDueDate:       r.ClearDueDate,
		AssignedTo:         r.AssignedTo,
		ClientID:           r.ClientID,
		IsRecurring:        r.IsRecurring,
		RecurrenceInterval: r.RecurrenceInterval,
		IsBlocked:          r.IsBlocked,
		BlockedReason:      r.BlockedReason,
		CanAdminOverride:   r.CanAdminOverride,
	}
	if r.Status != nil {
		s := domain.TaskStatus(*r.Status)
		p.Status = &s
	}
	if r.Priority != nil {
		pr := domain.Priority(*r.Priority)
		p.Priority = &pr
	}
	if r.RecurrenceType != nil {
		rt := domain.RecurrenceType(*r.RecurrenceType)
		p.RecurrenceType = &rt
	}
	if r.DueDate != nil && !r.ClearDueDate {
		if strings.TrimSpace(*r.DueDate) == "" {
			p.ClearDueDate = true
		} else {
			due, err := parseDueDate(*r.DueDate)
			if err != nil {
				return domain.TaskPatch{}, err
			}
			p.DueDate = &due
		}
	}
	return p, nil
}

// List handles GET /v1/tasks.
//
// @Summary      List tasks, newest first
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        status       query     string  false  "todo, in_progress, completed or cancelled"
// @Param        assigned_to  query     string  false  "Assignee user id"
// @Param        client_id    query     string  false  "Client profile id"
// @Success      200          {object}  taskListResponse
// @Failure      401          {object}  map[string]string
// @Failure      403          {object}  map[string]string
// @Router       /v1/tasks [get]
func (h *TaskHandler) List(c echo.Context) error {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	tasks, err := h.service.List(c.Request().Context(), actor, ports.TaskFilter{
		Status:     domain.TaskStatus(c.QueryParam("status")),
		AssignedTo: c.QueryParam("assigned_to"),
		ClientID:   c.QueryParam("client_id"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, taskListResponse{Tasks: tasks, Total: len(tasks)})
}

// Get handles GET /v1/tasks/:id.
//
// @Summary      Get a task
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task id"
// @Success      200  {object}  domain.Task
// @Failure      404  {object}  map[string]string
// @Router       /v1/tasks/{id} [get]
func (h *TaskHandler) Get(c echo.Context) error {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	task, err := h.service.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// Create handles POST /v1/tasks.
//
// @Summary      Create a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createTaskRequest  true  "Task"
// @Success      201   {object}  domain.Task
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/tasks [post]
func (h *TaskHandler) Create(c echo.Context) error {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req createTaskRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	in := ports.CreateTaskInput{
		Title:              req.Title,
		Description:        req.Description,
		Status:             domain.TaskStatus(req.Status),
		Priority:           domain.Priority(req.Priority),
		AssignedTo:         req.AssignedTo,
		ClientID:           req.ClientID,
		IsRecurring:        req.IsRecurring,
		RecurrenceType:     domain.RecurrenceType(req.RecurrenceType),
		RecurrenceInterval: req.RecurrenceInterval,
		IsBlocked:          req.IsBlocked,
		BlockedReason:      req.BlockedReason,
		CanAdminOverride:   req.CanAdminOverride,
	}
	if req.DueDate != nil && strings.TrimSpace(*req.DueDate) != "" {
		due, err := parseDueDate(*req.DueDate)
		if err != nil {
			return err
		}
		in.DueDate = &due
	}

	task, err := h.service.Create(c.Request().Context(), actor, in)
	if err != nil {
		return err
	}
	metrics.TasksCreatedTotal.WithLabelValues(string(task.Priority)).Inc()

	return c.JSON(http.StatusCreated, task)
}

// Update handles PATCH /v1/tasks/:id.
//
// @Summary      Update a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Task id"
// @Param        body  body      updateTaskRequest  true  "Fields to change"
// @Success      200   {object}  domain.Task
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/tasks/{id} [patch]
func (h *TaskHandler) Update(c echo.Context) error {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req updateTaskRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	patch, err := req.patch()
	if err != nil {
		return err
	}

	task, err := h.service.Update(c.Request().Context(), actor, c.Param("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// Delete handles DELETE /v1/tasks/:id.
//
// @Summary      Delete a task
// @Tags         tasks
// @Security     BearerAuth
// @Param        id   path  string  true  "Task id"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/tasks/{id} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Unblock handles POST /v1/tasks/:id/unblock. Admin only.
//
// @Summary      Unblock a task
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task id"
// @Success      200  {object}  domain.Task
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/tasks/{id}/unblock [post]
func (h *TaskHandler) Unblock(c echo.Context) error {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	task, err := h.service.Unblock(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// Complete handles POST /v1/tasks/:id/complete.
//
// @Summary      Mark a task completed
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task id"
// @Success      200  {object}  domain.Task
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /v1/tasks/{id}/complete [post]
func (h *TaskHandler) Complete(c echo.Context) error {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	task, err := h.service.Complete(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// Requests handles GET /v1/requests: the tasks opened for the calling client.
//
// @Summary      My requests
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  taskListResponse
// @Failure      403  {object}  map[string]string
// @Router       /v1/requests [get]
func (h *TaskHandler) Requests(c echo.Context) error {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	if !actor.IsClient() {
		return domain.ErrForbidden
	}
	tasks, err := h.service.List(c.Request().Context(), actor, ports.TaskFilter{
		Status: domain.TaskStatus(c.QueryParam("status")),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, taskListResponse{Tasks: tasks, Total: len(tasks)})
}
