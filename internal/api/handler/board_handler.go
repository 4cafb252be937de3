package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/primar/console/internal/api/metrics"
	"github.com/primar/console/internal/core/board"
	"github.com/primar/console/internal/core/domain"
	"github.com/primar/console/internal/core/ports"
)

// BoardHandler serves the kanban board and the agenda. Each request builds a
// board for the calling actor from the task service.
type BoardHandler struct {
	tasks  board.TaskSource
	strict bool
	loc    *time.Location
}

func NewBoardHandler(tasks board.TaskSource, strictTransitions bool, loc *time.Location) *BoardHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &BoardHandler{tasks: tasks, strict: strictTransitions, loc: loc}
}

type boardResponse struct {
	Columns []board.Column `json:"columns"`
	Total   int            `json:"total"`
}

type dropResponse struct {
	Move    board.Move     `json:"move"`
	Columns []board.Column `json:"columns"`
}

type agendaMonthResponse struct {
	Month string `json:"month"`
	Days  []int  `json:"days"`
}

type agendaDayResponse struct {
	Date  string         `json:"date"`
	Tasks []*domain.Task `json:"tasks"`
}

func (h *BoardHandler) load(c echo.Context, filter ports.TaskFilter) (*board.Board, error) {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return nil, err
	}
	b := board.New(h.tasks, actor, board.WithStrictTransitions(h.strict), board.WithFilter(filter))
	if err := b.Refresh(c.Request().Context()); err != nil {
		return nil, err
	}
	return b, nil
}

// Board handles GET /v1/board.
//
// @Summary      Kanban board
// @Tags         board
// @Produce      json
// @Security     BearerAuth
// @Param        assigned_to  query     string  false  "Only tasks assigned to this user"
// @Param        client_id    query     string  false  "Only tasks of this client profile"
// @Success      200          {object}  boardResponse
// @Failure      403          {object}  map[string]string
// @Router       /v1/board [get]
func (h *BoardHandler) Board(c echo.Context) error {
	b, err := h.load(c, ports.TaskFilter{
		AssignedTo: c.QueryParam("assigned_to"),
		ClientID:   c.QueryParam("client_id"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, boardResponse{Columns: b.Columns(), Total: len(b.Tasks())})
}

// Drop handles POST /v1/board/drop. A drop outside any column changes nothing.
//
// @Summary      Drop a card on a column
// @Tags         board
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      board.DropEvent  true  "Dragged card and target column"
// @Success      200   {object}  dropResponse
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/board/drop [post]
func (h *BoardHandler) Drop(c echo.Context) error {
	var ev board.DropEvent
	if err := c.Bind(&ev); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}

	b, err := h.load(c, ports.TaskFilter{})
	if err != nil {
		return err
	}
	move, err := b.Drop(c.Request().Context(), ev)
	if err != nil {
		return err
	}
	if move.Moved {
		metrics.BoardMovesTotal.WithLabelValues(string(move.From), string(move.To)).Inc()
	}
	return c.JSON(http.StatusOK, dropResponse{Move: move, Columns: b.Columns()})
}

// Month handles GET /v1/agenda?month=YYYY-MM. It returns the days that have
// tasks due. The current month is used when month is omitted.
//
// @Summary      Agenda days with tasks
// @Tags         agenda
// @Produce      json
// @Security     BearerAuth
// @Param        month  query     string  false  "YYYY-MM"
// @Success      200    {object}  agendaMonthResponse
// @Failure      422    {object}  map[string]string
// @Router       /v1/agenda [get]
func (h *BoardHandler) Month(c echo.Context) error {
	month := time.Now().In(h.loc)
	if raw := c.QueryParam("month"); raw != "" {
		m, err := time.ParseInLocation("2006-01", raw, h.loc)
		if err != nil {
			return domain.NewValidationError("month", "must be YYYY-MM")
		}
		month = m
	}

	b, err := h.load(c, ports.TaskFilter{})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, agendaMonthResponse{
		Month: month.Format("2006-01"),
		Days:  b.DaysWithTasks(month.Year(), month.Month(), h.loc),
	})
}

// Day handles GET /v1/agenda/day?date=YYYY-MM-DD.
//
// @Summary      Tasks due on a day
// @Tags         agenda
// @Produce      json
// @Security     BearerAuth
// @Param        date  query     string  true  "YYYY-MM-DD"
// @Success      200   {object}  agendaDayResponse
// @Failure      422   {object}  map[string]string
// @Router       /v1/agenda/day [get]
func (h *BoardHandler) Day(c echo.Context) error {
	day, err := time.ParseInLocation(time.DateOnly, c.QueryParam("date"), h.loc)
	if err != nil {
		return domain.NewValidationError("date", "must be YYYY-MM-DD")
	}

	b, err := h.load(c, ports.TaskFilter{})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, agendaDayResponse{
		Date:  day.Format(time.DateOnly),
		Tasks: b.TasksOn(day),
	})
}
