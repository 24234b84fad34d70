package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/taskmarket-backend/internal/interface/http/dto"
	"github.com/ignatzorin/taskmarket-backend/internal/interface/http/response"
	"github.com/ignatzorin/taskmarket-backend/internal/usecase/application"
)

type ApplicationHandler struct {
	applyUC    *application.ApplyUseCase
	withdrawUC *application.WithdrawUseCase
	acceptUC   *application.AcceptUseCase
	rejectUC   *application.RejectUseCase
	listUC     *application.ListUseCase
}

func NewApplicationHandler(
	applyUC *application.ApplyUseCase,
	withdrawUC *application.WithdrawUseCase,
	acceptUC *application.AcceptUseCase,
	rejectUC *application.RejectUseCase,
	listUC *application.ListUseCase,
) *ApplicationHandler {
	return &ApplicationHandler{
		applyUC:    applyUC,
		withdrawUC: withdrawUC,
		acceptUC:   acceptUC,
		rejectUC:   rejectUC,
		listUC:     listUC,
	}
}

// Apply POST /tasks/:id/applications
func (h *ApplicationHandler) Apply(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	taskID, ok := uuidParam(c, "id", "некорректный ID задачи")
	if !ok {
		return
	}

	var req dto.ApplyRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "некорректные данные запроса")
			return
		}
	}

	app, err := h.applyUC.Execute(c.Request.Context(), taskID, actor.UserID, req.Message)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToApplicationResponse(app))
}

// Withdraw DELETE /tasks/:id/applications/:applicationId
func (h *ApplicationHandler) Withdraw(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	taskID, ok := uuidParam(c, "id", "некорректный ID задачи")
	if !ok {
		return
	}
	applicationID, ok := uuidParam(c, "applicationId", "некорректный ID заявки")
	if !ok {
		return
	}

	if err := h.withdrawUC.Execute(c.Request.Context(), taskID, applicationID, actor.UserID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "заявка отозвана"})
}

// Accept POST /tasks/:id/applications/:applicationId/accept
func (h *ApplicationHandler) Accept(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	taskID, ok := uuidParam(c, "id", "некорректный ID задачи")
	if !ok {
		return
	}
	applicationID, ok := uuidParam(c, "applicationId", "некорректный ID заявки")
	if !ok {
		return
	}

	result, err := h.acceptUC.Execute(c.Request.Context(), taskID, applicationID, actor.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.AcceptResponse{
		Task:        dto.ToTaskResponse(result.Task),
		Application: dto.ToApplicationResponse(result.Application),
		Rejected:    dto.ToApplicationResponses(result.Rejected),
	})
}

// Reject POST /tasks/:id/applications/:applicationId/reject
func (h *ApplicationHandler) Reject(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	taskID, ok := uuidParam(c, "id", "некорректный ID задачи")
	if !ok {
		return
	}
	applicationID, ok := uuidParam(c, "applicationId", "некорректный ID заявки")
	if !ok {
		return
	}

	app, err := h.rejectUC.Execute(c.Request.Context(), taskID, applicationID, actor.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToApplicationResponse(app))
}

// ListForTask GET /tasks/:id/applications
func (h *ApplicationHandler) ListForTask(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	taskID, ok := uuidParam(c, "id", "некорректный ID задачи")
	if !ok {
		return
	}

	apps, err := h.listUC.ForTask(c.Request.Context(), taskID, actor.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToApplicationResponses(apps))
}

// ListMine GET /applications/mine
func (h *ApplicationHandler) ListMine(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	apps, err := h.listUC.Mine(c.Request.Context(), actor.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToApplicationResponses(apps))
}
