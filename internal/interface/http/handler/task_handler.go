package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/taskmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/taskmarket-backend/internal/interface/http/dto"
	"github.com/ignatzorin/taskmarket-backend/internal/interface/http/response"
	"github.com/ignatzorin/taskmarket-backend/internal/usecase/task"
)

type TaskHandler struct {
	createTaskUC *task.CreateTaskUseCase
	getTaskUC    *task.GetTaskUseCase
	startUC      *task.StartTaskUseCase
	markDoneUC   *task.MarkDoneUseCase
	confirmUC    *task.ConfirmUseCase
	cancelUC     *task.CancelUseCase
	disputeUC    *task.DisputeTaskUseCase
}

func NewTaskHandler(
	createTaskUC *task.CreateTaskUseCase,
	getTaskUC *task.GetTaskUseCase,
	startUC *task.StartTaskUseCase,
	markDoneUC *task.MarkDoneUseCase,
	confirmUC *task.ConfirmUseCase,
	cancelUC *task.CancelUseCase,
	disputeUC *task.DisputeTaskUseCase,
) *TaskHandler {
	return &TaskHandler{
		createTaskUC: createTaskUC,
		getTaskUC:    getTaskUC,
		startUC:      startUC,
		markDoneUC:   markDoneUC,
		confirmUC:    confirmUC,
		cancelUC:     cancelUC,
		disputeUC:    disputeUC,
	}
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	deadline, err := dto.ParseDeadline(req.Deadline)
	if err != nil {
		response.BadRequest(c, "некорректный формат дедлайна")
		return
	}

	created, err := h.createTaskUC.Execute(c.Request.Context(), task.CreateTaskInput{
		CreatorID:   actor.UserID,
		Title:       req.Title,
		Description: req.Description,
		Budget:      req.BudgetMinor(),
		Currency:    req.Currency,
		Deadline:    deadline,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToTaskResponse(created))
}

func (h *TaskHandler) GetTask(c *gin.Context) {
	taskID, ok := uuidParam(c, "id", "некорректный ID задачи")
	if !ok {
		return
	}

	t, err := h.getTaskUC.Execute(c.Request.Context(), taskID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToTaskResponse(t))
}

func (h *TaskHandler) ListMyTasks(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	tasks, err := h.getTaskUC.Mine(c.Request.Context(), actor.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToTaskResponses(tasks))
}

func (h *TaskHandler) StartTask(c *gin.Context) {
	h.transition(c, h.startUC.Execute)
}

func (h *TaskHandler) MarkDone(c *gin.Context) {
	h.transition(c, h.markDoneUC.Execute)
}

func (h *TaskHandler) ConfirmTask(c *gin.Context) {
	h.transition(c, h.confirmUC.Execute)
}

func (h *TaskHandler) CancelTask(c *gin.Context) {
	h.transition(c, h.cancelUC.Execute)
}

func (h *TaskHandler) DisputeTask(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	taskID, ok := uuidParam(c, "id", "некорректный ID задачи")
	if !ok {
		return
	}

	var req dto.DisputeTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	t, d, err := h.disputeUC.Execute(c.Request.Context(), task.DisputeTaskInput{
		TaskID:       taskID,
		ActorID:      actor.UserID,
		Reason:       req.Reason,
		Description:  req.Description,
		EvidenceURLs: req.EvidenceURLs,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{
		"task":    dto.ToTaskResponse(t),
		"dispute": dto.ToDisputeResponse(d),
	})
}

func (h *TaskHandler) transition(c *gin.Context, run func(ctx context.Context, taskID, actorID uuid.UUID) (*entity.Task, error)) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	taskID, ok := uuidParam(c, "id", "некорректный ID задачи")
	if !ok {
		return
	}

	t, err := run(c.Request.Context(), taskID, actor.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToTaskResponse(t))
}
