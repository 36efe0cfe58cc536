package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/harvest/dispatch"
	"github.com/use-agent/harvest/models"
	"github.com/use-agent/harvest/store"
)

// SubmitTask returns a handler for POST /api/v1/tasks.
//
// Submission is accepted (202) once the task record exists and the job is
// queued; the scrape itself runs out-of-band and the caller polls by ID.
func SubmitTask(d *dispatch.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SubmitTaskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, models.ErrCodeInvalidInput, err.Error())
			return
		}

		task, err := d.Submit(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusAccepted, models.SubmitTaskResponse{
			TaskID: task.ID,
			Status: string(task.Status),
		})
	}
}

// GetTask returns a handler for GET /api/v1/tasks/:id.
func GetTask(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		task, err := st.GetTask(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, task)
	}
}

// ListTasks returns a handler for GET /api/v1/tasks.
//
// Optional query filters: client_name, status, category.
func ListTasks(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		f := models.TaskFilter{
			ClientName: c.Query("client_name"),
			Category:   c.Query("category"),
		}
		if status := c.Query("status"); status != "" {
			ts := models.TaskStatus(status)
			if !ts.Valid() {
				writeError(c, http.StatusBadRequest, models.ErrCodeInvalidInput,
					"invalid status filter: "+status)
				return
			}
			f.Status = ts
		}

		tasks, err := st.ListTasks(c.Request.Context(), f)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks)})
	}
}
