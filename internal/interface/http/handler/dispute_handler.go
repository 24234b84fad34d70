package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/taskmarket-backend/internal/interface/http/dto"
	"github.com/ignatzorin/taskmarket-backend/internal/interface/http/response"
	"github.com/ignatzorin/taskmarket-backend/internal/usecase/dispute"
)

type DisputeHandler struct {
	fileUC    *dispute.FileDisputeUseCase
	respondUC *dispute.RespondUseCase
	resolveUC *dispute.ResolveUseCase
	queryUC   *dispute.QueryUseCase

	supportEmail string
}

func NewDisputeHandler(
	fileUC *dispute.FileDisputeUseCase,
	respondUC *dispute.RespondUseCase,
	resolveUC *dispute.ResolveUseCase,
	queryUC *dispute.QueryUseCase,
	supportEmail string,
) *DisputeHandler {
	return &DisputeHandler{
		fileUC:       fileUC,
		respondUC:    respondUC,
		resolveUC:    resolveUC,
		queryUC:      queryUC,
		supportEmail: supportEmail,
	}
}

// File POST /disputes
func (h *DisputeHandler) File(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.FileDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	d, err := h.fileUC.Execute(c.Request.Context(), dispute.FileInput{
		TaskID:       req.TaskID,
		FilerID:      actor.UserID,
		Reason:       req.Reason,
		Description:  req.Description,
		EvidenceURLs: req.EvidenceURLs,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToDisputeResponse(d))
}

// Respond POST /disputes/:id/respond
func (h *DisputeHandler) Respond(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	disputeID, ok := uuidParam(c, "id", "некорректный ID спора")
	if !ok {
		return
	}

	var req dto.RespondDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	d, err := h.respondUC.Execute(c.Request.Context(), dispute.RespondInput{
		DisputeID:    disputeID,
		ResponderID:  actor.UserID,
		Description:  req.Description,
		EvidenceURLs: req.EvidenceURLs,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToDisputeResponse(d))
}

// Resolve POST /disputes/:id/resolve (только администратор)
func (h *DisputeHandler) Resolve(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	disputeID, ok := uuidParam(c, "id", "некорректный ID спора")
	if !ok {
		return
	}

	var req dto.ResolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	result, err := h.resolveUC.Execute(c.Request.Context(), dispute.ResolveInput{
		DisputeID:  disputeID,
		Resolution: req.Resolution,
		Notes:      req.Notes,
	}, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ResolveDisputeResponse{
		Dispute: dto.ToDisputeResponse(result.Dispute),
		Task:    dto.ToTaskResponse(result.Task),
		Penalty: dto.ToReviewResponse(result.Penalty),
	})
}

// ListMine GET /disputes?status=open
func (h *DisputeHandler) ListMine(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	disputes, err := h.queryUC.List(c.Request.Context(), actor, c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToDisputeResponses(disputes))
}

// ListAll GET /admin/disputes?status=open
func (h *DisputeHandler) ListAll(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	disputes, err := h.queryUC.ListAll(c.Request.Context(), actor, c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}

	limit := parseIntQuery(c, "limit", 50)
	offset := parseIntQuery(c, "offset", 0)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	total := len(disputes)
	page := disputes[min(offset, total):min(offset+limit, total)]

	response.Paginated(c, dto.ToDisputeResponses(page), total, limit, offset)
}

// Get GET /disputes/:id
func (h *DisputeHandler) Get(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	disputeID, ok := uuidParam(c, "id", "некорректный ID спора")
	if !ok {
		return
	}

	d, err := h.queryUC.Get(c.Request.Context(), disputeID, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToDisputeResponse(d))
}

// ListForTask GET /tasks/:id/disputes
func (h *DisputeHandler) ListForTask(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	taskID, ok := uuidParam(c, "id", "некорректный ID задачи")
	if !ok {
		return
	}

	disputes, err := h.queryUC.ListForTask(c.Request.Context(), taskID, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToDisputeResponses(disputes))
}

// Reasons GET /disputes/reasons
func (h *DisputeHandler) Reasons(c *gin.Context) {
	response.Success(c, dto.DisputeReasonsResponse{
		Reasons:      h.queryUC.Reasons(),
		SupportEmail: h.supportEmail,
	})
}
