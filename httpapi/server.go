package httpapi

import (
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tbxark/eventagent/agent"
	"github.com/tbxark/eventagent/catalog"
	"github.com/tbxark/eventagent/merge"
	"github.com/tbxark/eventagent/normalize"
	"github.com/tbxark/eventagent/types"
	"go.uber.org/zap"
)

type Server struct {
	engine  *agent.Engine
	flow    *agent.Flow
	merger  *merge.Merger
	cat     *catalog.Registry
	logger  *zap.Logger
	origins []string
}

type Option func(*Server)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

func New(engine *agent.Engine, flow *agent.Flow, merger *merge.Merger, cat *catalog.Registry, opts ...Option) *Server {
	s := &Server{
		engine:  engine,
		flow:    flow,
		merger:  merger,
		cat:     cat,
		logger:  zap.NewNop(),
		origins: []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the gin router.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  s.origins,
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		api.GET("/catalog", s.getCatalog)
		api.POST("/extract", s.extract)
		api.POST("/sessions", s.createSession)
		api.GET("/sessions/:id", s.getSession)
		api.DELETE("/sessions/:id", s.deleteSession)
		api.POST("/sessions/:id/messages", s.postMessage)
	}
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func (s *Server) getCatalog(c *gin.Context) {
	required := s.cat.Required()
	resp := catalogResponse{Required: externalKeys(required)}
	for _, k := range s.cat.Keys() {
		spec, _ := s.cat.Spec(k)
		p := catalogParameter{
			Key:         externalName(k),
			DisplayName: spec.DisplayName,
			Required:    slices.Contains(required, k),
			Multi:       spec.Multi,
		}
		if rng, ok := s.cat.Range(k); ok {
			p.Range = &catalogRange{Min: rng.Min, Max: rng.Max}
		}
		for _, v := range s.cat.Values(k) {
			p.Options = append(p.Options, catalogOption{Value: v.Value, Label: v.Label})
		}
		resp.Parameters = append(resp.Parameters, p)
	}
	c.JSON(http.StatusOK, resp)
}

// extract runs a turn over caller-held state. Existing parameters are
// re-normalized first so nothing unvalidated enters the turn.
func (s *Server) extract(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}
	existing, err := s.merger.Merge(types.ParameterSet{}, fromExternal(req.ExistingParams), normalize.Context{History: req.ConversationHistory})
	if err != nil {
		s.internalError(c, err)
		return
	}
	out, err := s.flow.Process(c.Request.Context(), &agent.Input{
		Message: req.Message,
		Params:  existing.Set,
		History: req.ConversationHistory,
	})
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTurnResponse("", out))
}

func (s *Server) createSession(c *gin.Context) {
	sess, err := s.engine.Start(c.Request.Context())
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session_id": sess.ID})
}

func (s *Server) getSession(c *gin.Context) {
	sess, err := s.engine.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(sess))
}

func (s *Server) deleteSession(c *gin.Context) {
	if err := s.engine.End(c.Request.Context(), c.Param("id")); err != nil {
		s.sessionError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) postMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}
	id := c.Param("id")
	out, err := s.engine.Turn(c.Request.Context(), id, req.Message)
	if err != nil {
		s.sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTurnResponse(id, out))
}

func (s *Server) sessionError(c *gin.Context, err error) {
	if errors.Is(err, agent.ErrInvalidSessionReference) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	s.internalError(c, err)
}

func (s *Server) internalError(c *gin.Context, err error) {
	s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
