package http

import (
	"net/http"
	"time"

	"github.com/Himanshujchavan/GROQPILOT/pkg/models"
	"github.com/Himanshujchavan/GROQPILOT/pkg/service"
	"github.com/gin-gonic/gin"
)

// statusFor maps an error kind onto an HTTP status.
func statusFor(kind service.ErrorKind) int {
	switch kind {
	case service.UnsupportedTarget, service.EmptyWorkflow, service.MissingParameter,
		service.InvalidParameter, service.UnsupportedAction:
		return http.StatusBadRequest
	case service.NotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(c *gin.Context, err error) {
	kind := service.KindOf(err)
	status := statusFor(kind)
	if status == http.StatusInternalServerError {
		s.logger.Errorf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"success": false, "error": err.Error(), "error_type": kind})
}

func (s *Server) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "error_type": service.InvalidParameter})
}

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "GroqPilot automation API is running"})
}

func (s *Server) health(c *gin.Context) {
	running, err := s.svc.RunningTasks()
	if err != nil {
		s.fail(c, err)
		return
	}
	scheduled := 0
	if s.opts.Scheduler != nil {
		tasks, err := s.opts.Scheduler.List()
		if err != nil {
			s.fail(c, err)
			return
		}
		scheduled = len(tasks)
	}
	c.JSON(http.StatusOK, gin.H{
		"status":            "healthy",
		"timestamp":         time.Now().Format(time.RFC3339),
		"running_tasks":     running,
		"scheduled_tasks":   scheduled,
		"available_targets": s.svc.Targets(),
	})
}

func (s *Server) automate(c *gin.Context) {
	var req models.AutomationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	res := s.svc.Run(c.Request.Context(), req)
	if res.ErrorType == string(service.UnsupportedTarget) {
		c.JSON(http.StatusBadRequest, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) automateAsync(c *gin.Context) {
	var req models.AutomationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	// Background tasks outlive the request.
	sub, err := s.svc.Submit(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (s *Server) executeWorkflow(c *gin.Context) {
	var def models.WorkflowDefinition
	if err := c.ShouldBindJSON(&def); err != nil {
		s.badRequest(c, err)
		return
	}
	if err := s.validate.Struct(def); err != nil {
		s.badRequest(c, err)
		return
	}
	sub, err := s.svc.SubmitWorkflow(c.Request.Context(), def)
	if err != nil {
		s.fail(c, err)
		return
	}
	body := gin.H{"workflow_id": sub.TaskID, "status": sub.Status}
	if sub.ConfirmationMessage != "" {
		body["confirmation_message"] = sub.ConfirmationMessage
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) listTasks(c *gin.Context) {
	tasks, err := s.svc.ListTasks()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (s *Server) getTask(c *gin.Context) {
	task, err := s.svc.GetTask(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) scheduleTask(c *gin.Context) {
	var task models.ScheduledTask
	if err := c.ShouldBindJSON(&task); err != nil {
		s.badRequest(c, err)
		return
	}
	if err := s.validate.Struct(task); err != nil {
		s.badRequest(c, err)
		return
	}
	out, err := s.opts.Scheduler.Create(task)
	if err != nil {
		s.fail(c, err)
		return
	}
	if out.RequiresConfirmation {
		c.JSON(http.StatusOK, gin.H{
			"status":                service.StatusRequiresConfirmation,
			"requires_confirmation": true,
			"confirmation_message":  out.ConfirmationMessage,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"task_id": out.Task.ID, "status": out.Task.Status, "next_run": out.Task.NextRun})
}

func (s *Server) listScheduled(c *gin.Context) {
	tasks, err := s.opts.Scheduler.List()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (s *Server) deleteScheduled(c *gin.Context) {
	task, err := s.opts.Scheduler.Delete(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "task": task})
}
