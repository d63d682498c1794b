package api

import (
	"log"
	"net/http"

	"drill-talk/internal/config"
	"drill-talk/internal/course"
	"drill-talk/internal/gateway"
	"drill-talk/internal/orchestrator"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Server 承载 HTTP 与 websocket 入口，把入站消息交给编排器。
type Server struct {
	config       *config.Config
	registry     *course.Registry
	hub          *gateway.Hub
	orchestrator *orchestrator.Orchestrator
	directors    map[string]bool

	upgrader websocket.Upgrader
}

func NewServer(cfg *config.Config, registry *course.Registry, hub *gateway.Hub, orch *orchestrator.Orchestrator) *Server {
	directors := make(map[string]bool, len(cfg.Directors))
	for _, id := range cfg.Directors {
		directors[id] = true
	}

	return &Server{
		config:       cfg,
		registry:     registry,
		hub:          hub,
		orchestrator: orch,
		directors:    directors,
		upgrader: websocket.Upgrader{
			// 入口在内网或由上游网关做鉴权，这里不限制来源。
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) Routes() http.Handler {
	// Gin 统一承载中间件与路由，便于扩展日志/鉴权/限流等能力。
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())
	engine.GET("/healthz", s.handleHealthz)
	engine.GET("/api/courses", s.handleCourses)
	engine.POST("/api/reload", s.handleReload)
	engine.GET("/api/trainees/:id/stream", s.handleTraineeStream)
	engine.GET("/api/directors/:id/stream", s.handleDirectorStream)
	return engine
}

// handleHealthz 返回服务健康状态。
func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleCourses 返回课程菜单。
func (s *Server) handleCourses(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"courses": s.registry.Keys()})
}

// handleReload 热更课表。失败时维持原课表。
func (s *Server) handleReload(c *gin.Context) {
	if err := s.registry.Reload(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reloaded"})
}

// handleTraineeStream 学员消息通道。
// 每条入站消息交给独立 goroutine 处理：生成调用是阻塞 IO，
// 不能卡住本连接的读循环，更不能卡住其他学员；
// 同一学员的回合顺序由编排器内的学员级锁保证。
func (s *Server) handleTraineeStream(c *gin.Context) {
	traineeID := c.Param("id")

	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[API] upgrade trainee stream %s: %v", traineeID, err)
		return
	}

	if old := s.hub.RegisterTrainee(traineeID, ws); old != nil {
		_ = old.Close()
	}
	defer func() {
		s.hub.UnregisterTrainee(traineeID, ws)
		_ = ws.Close()
	}()

	log.Printf("[API] trainee %s connected", traineeID)
	for {
		var msg gateway.InboundMessage
		if err := ws.ReadJSON(&msg); err != nil {
			log.Printf("[API] trainee %s disconnected: %v", traineeID, err)
			return
		}
		if msg.Text == "" {
			continue
		}

		go s.orchestrator.OnMessage(c.Request.Context(), traineeID, displayNameOr(msg.DisplayName, traineeID), msg.Text)
	}
}

// handleDirectorStream 导演指令通道，仅配置过的导演可连。
func (s *Server) handleDirectorStream(c *gin.Context) {
	directorID := c.Param("id")
	if !s.directors[directorID] {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a director"})
		return
	}

	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[API] upgrade director stream %s: %v", directorID, err)
		return
	}

	if old := s.hub.RegisterDirector(directorID, ws); old != nil {
		_ = old.Close()
	}
	defer func() {
		s.hub.UnregisterDirector(directorID, ws)
		_ = ws.Close()
	}()

	log.Printf("[API] director %s connected", directorID)
	for {
		var msg gateway.InboundMessage
		if err := ws.ReadJSON(&msg); err != nil {
			log.Printf("[API] director %s disconnected: %v", directorID, err)
			return
		}
		if msg.Text == "" {
			continue
		}

		reply := s.orchestrator.OnDirectorMessage(directorID, msg.Text)
		if err := s.hub.SendToDirector(directorID, reply); err != nil {
			log.Printf("[API] reply to director %s: %v", directorID, err)
		}
	}
}

func displayNameOr(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}
