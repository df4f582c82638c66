// Package server exposes sync jobs over HTTP: a form that starts a job, an
// endpoint that advances it one invocation at a time, job status, health and
// Prometheus metrics.
package server

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/Sternrassler/posts-sync/pkg/batch"
	"github.com/Sternrassler/posts-sync/pkg/checkpoint"
	"github.com/Sternrassler/posts-sync/pkg/logging"
	"github.com/Sternrassler/posts-sync/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

var formTemplate = template.Must(template.New("form").Parse(`<!DOCTYPE html>
<html>
<head><title>{{ .Title }}</title></head>
<body>
<h1>{{ .Title }}</h1>
<form method="post" action="/sync">
<input type="submit" value="Sync posts">
</form>
</body>
</html>
`))

// Server is the admin HTTP server.
type Server struct {
	driver *batch.Driver
	engine *gin.Engine
	srv    *http.Server
	logger zerolog.Logger

	mu   sync.Mutex
	jobs map[string]*sync.Mutex
}

// New builds the router around driver.
func New(driver *batch.Driver, addr string) *Server {
	s := &Server{
		driver: driver,
		logger: logging.NewLogger("server"),
		jobs:   make(map[string]*sync.Mutex),
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.SetHTMLTemplate(formTemplate)

	r.GET("/", s.form)
	r.POST("/sync", s.startJob)
	r.GET("/batch/:id", s.jobStatus)
	r.POST("/batch/:id", s.invokeJob)
	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	s.engine = r
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.srv.Addr).Msg("Starting server")
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info().Msg("Shutting down server")
	return s.srv.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	}
}

func (s *Server) form(c *gin.Context) {
	c.HTML(http.StatusOK, "form", gin.H{"Title": batch.Title})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

func (s *Server) startJob(c *gin.Context) {
	jobID, err := s.driver.Start(c.Request.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to start job")
		c.JSON(http.StatusInternalServerError, gin.H{"error": batch.ErrorMessage})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"job_id":  jobID,
		"title":   batch.Title,
		"message": batch.InitMessage,
	})
}

func (s *Server) jobStatus(c *gin.Context) {
	cp, err := s.driver.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeJobError(c, err)
		return
	}
	c.JSON(http.StatusOK, cp)
}

// jobLock returns the mutex guarding invocations of jobID.
func (s *Server) jobLock(jobID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.jobs[jobID]
	if !ok {
		l = &sync.Mutex{}
		s.jobs[jobID] = l
	}
	return l
}

// invokeJob advances a job by one invocation. Concurrent requests for the
// same job run one after another so each sees the previous checkpoint.
func (s *Server) invokeJob(c *gin.Context) {
	jobID := c.Param("id")
	l := s.jobLock(jobID)
	l.Lock()
	defer l.Unlock()

	cp, err := s.driver.Invoke(c.Request.Context(), jobID)
	if err != nil {
		s.writeJobError(c, err)
		return
	}
	c.JSON(http.StatusOK, progressBody(cp))
}

func (s *Server) writeJobError(c *gin.Context, err error) {
	if batch.IsNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	s.logger.Error().Err(err).Str("job_id", c.Param("id")).Msg("Job request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": batch.ErrorMessage})
}

func progressBody(cp *checkpoint.Checkpoint) gin.H {
	body := gin.H{
		"job_id":   cp.JobID,
		"finished": cp.Finished,
		"message":  cp.Message,
		"progress": cp.Sandbox.Progress,
		"max":      cp.Sandbox.Max,
		"results":  len(cp.Results),
		"errors":   cp.Errors,
	}
	if cp.Done() {
		body["finish_message"] = batch.Summary(cp, nil)
	} else {
		body["progress_message"] = batch.ProgressMessage
	}
	return body
}
