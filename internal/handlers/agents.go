package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/dealerflow/dealerflow/internal/db"
	"github.com/dealerflow/dealerflow/internal/db/sqlc"
)

// AgentsHandler manages sales agent identities via REST API.
type AgentsHandler struct {
	queries *sqlc.Queries
	logger  *slog.Logger
}

func NewAgentsHandler(log *slog.Logger, queries *sqlc.Queries) *AgentsHandler {
	return &AgentsHandler{
		queries: queries,
		logger:  log.With(slog.String("handler", "agents")),
	}
}

func (h *AgentsHandler) Register(e *echo.Echo) {
	group := e.Group("/agents")
	group.GET("", h.ListAgents)
	group.GET("/:id", h.GetAgent)
	group.POST("", h.CreateAgent)
}

type createAgentRequest struct {
	DisplayName      string            `json:"display_name"`
	LocalPart        string            `json:"local_part"`
	Domain           string            `json:"domain"`
	Variables        map[string]string `json:"variables"`
	PromptName       string            `json:"prompt_name"`
	PromptBody       string            `json:"prompt_body"`
	PromptTemplateID string            `json:"prompt_template_id"`
}

type agentResponse struct {
	ID               string            `json:"id"`
	DisplayName      string            `json:"display_name"`
	LocalPart        string            `json:"local_part"`
	Domain           string            `json:"domain"`
	Variables        map[string]string `json:"variables"`
	PromptTemplateID string            `json:"prompt_template_id"`
}

// ListAgents godoc
// @Summary List agents
// @Tags agents
// @Success 200 {array} agentResponse
// @Router /agents [get]
func (h *AgentsHandler) ListAgents(c echo.Context) error {
	rows, err := h.queries.ListAgents(c.Request().Context())
	if err != nil {
		h.logger.Error("list agents failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "list failed")
	}
	out := make([]agentResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toAgentResponse(row))
	}
	return c.JSON(http.StatusOK, out)
}

// GetAgent godoc
// @Summary Get an agent
// @Tags agents
// @Param id path string true "Agent ID"
// @Success 200 {object} agentResponse
// @Failure 404 {object} ErrorResponse
// @Router /agents/{id} [get]
func (h *AgentsHandler) GetAgent(c echo.Context) error {
	id, err := db.ParseUUID(strings.TrimSpace(c.Param("id")))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "agent not found")
	}
	row, err := h.queries.GetAgentByID(c.Request().Context(), id)
	if errors.Is(err, pgx.ErrNoRows) {
		return echo.NewHTTPError(http.StatusNotFound, "agent not found")
	}
	if err != nil {
		h.logger.Error("get agent failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "lookup failed")
	}
	return c.JSON(http.StatusOK, toAgentResponse(row))
}

// CreateAgent godoc
// @Summary Create an agent
// @Description Creates a sales agent mailbox with its prompt template
// @Tags agents
// @Param request body createAgentRequest true "Agent definition"
// @Success 201 {object} agentResponse
// @Failure 400 {object} ErrorResponse
// @Router /agents [post]
func (h *AgentsHandler) CreateAgent(c echo.Context) error {
	var req createAgentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.LocalPart = strings.ToLower(strings.TrimSpace(req.LocalPart))
	req.Domain = strings.ToLower(strings.TrimSpace(req.Domain))
	if req.LocalPart == "" || req.Domain == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "local_part and domain are required")
	}
	if req.PromptBody == "" && req.PromptTemplateID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "prompt_body or prompt_template_id is required")
	}

	ctx := c.Request().Context()
	templateID, err := db.ParseUUID(req.PromptTemplateID)
	if req.PromptTemplateID != "" && err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid prompt_template_id")
	}
	if req.PromptTemplateID == "" {
		name := req.PromptName
		if name == "" {
			name = req.LocalPart + "@" + req.Domain
		}
		tpl, err := h.queries.CreatePromptTemplate(ctx, sqlc.CreatePromptTemplateParams{
			Name: name,
			Body: req.PromptBody,
		})
		if err != nil {
			h.logger.Error("create prompt template failed", slog.Any("error", err))
			return echo.NewHTTPError(http.StatusInternalServerError, "create failed")
		}
		templateID = tpl.ID
	}

	if req.Variables == nil {
		req.Variables = map[string]string{}
	}
	variables, err := json.Marshal(req.Variables)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid variables")
	}

	row, err := h.queries.CreateAgent(ctx, sqlc.CreateAgentParams{
		DisplayName:      req.DisplayName,
		LocalPart:        req.LocalPart,
		Domain:           req.Domain,
		Variables:        variables,
		PromptTemplateID: templateID,
	})
	if err != nil {
		h.logger.Error("create agent failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "create failed")
	}
	h.logger.Info("agent created",
		slog.String("agent_id", row.ID.String()),
		slog.String("mailbox", row.LocalPart+"@"+row.Domain))
	return c.JSON(http.StatusCreated, toAgentResponse(row))
}

func toAgentResponse(row sqlc.Agent) agentResponse {
	variables := map[string]string{}
	if len(row.Variables) > 0 {
		_ = json.Unmarshal(row.Variables, &variables)
	}
	return agentResponse{
		ID:               row.ID.String(),
		DisplayName:      row.DisplayName,
		LocalPart:        row.LocalPart,
		Domain:           row.Domain,
		Variables:        variables,
		PromptTemplateID: row.PromptTemplateID.String(),
	}
}
