package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"platsbanken-sync/internal/background"
	"platsbanken-sync/internal/logging"
	"platsbanken-sync/internal/syncer"
	"platsbanken-sync/pkg/models"
	"platsbanken-sync/pkg/utils"
)

// TriggerSyncHandler queues an incremental sync run and returns 202 with the
// process id for polling.
func TriggerSyncHandler(s *syncer.Syncer, taskManager background.TaskManager) echo.HandlerFunc {
	return submitRunHandler(taskManager, background.TaskTypeSync, s.Run)
}

// TriggerSnapshotHandler queues a full snapshot import.
func TriggerSnapshotHandler(s *syncer.Syncer, taskManager background.TaskManager) echo.HandlerFunc {
	return submitRunHandler(taskManager, background.TaskTypeSnapshot, s.RunSnapshot)
}

func submitRunHandler(taskManager background.TaskManager, taskType background.TaskType, run background.SyncRunFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		processID := utils.GenerateRequestID()

		if err := taskManager.SubmitSyncTask(c.Request().Context(), processID, taskType, run); err != nil {
			logging.GetGlobalLogger().Error("Failed to queue sync run", map[string]interface{}{
				"process_id": processID,
				"task_type":  taskType,
				"error":      err.Error(),
			})
			return utils.NewServiceUnavailableError("unable to queue sync run, try again later")
		}

		return c.JSON(http.StatusAccepted, models.SyncAcceptedResponse{
			ProcessID: processID,
			Status:    string(background.TaskStatusAccepted),
			Mode:      string(taskType),
			Timestamp: time.Now(),
		})
	}
}

// SyncStatusHandler returns the state of one queued or finished run.
func SyncStatusHandler(taskManager background.TaskManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		processID := c.Param("processId")
		if processID == "" {
			return utils.NewBadRequestError("processId path parameter is required")
		}

		result, err := taskManager.GetTaskResult(c.Request().Context(), processID)
		if err != nil {
			if errors.Is(err, background.ErrTaskNotFound) {
				return utils.NewNotFoundError("no sync run with that process id")
			}
			return utils.NewInternalServerError(err.Error())
		}

		return c.JSON(http.StatusOK, result)
	}
}

// SyncListHandler returns all tracked sync runs.
func SyncListHandler(taskManager background.TaskManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		results, err := taskManager.ListTasks(c.Request().Context())
		if err != nil {
			return utils.NewInternalServerError(err.Error())
		}

		return c.JSON(http.StatusOK, map[string]interface{}{
			"count": len(results),
			"runs":  results,
		})
	}
}
