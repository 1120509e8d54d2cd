package server

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/thereayou/study-hub/internal/books"
	"github.com/thereayou/study-hub/internal/database"
	"github.com/thereayou/study-hub/internal/handlers"
	"github.com/thereayou/study-hub/internal/metrics"
	"github.com/thereayou/study-hub/internal/middleware"
	"github.com/thereayou/study-hub/internal/services"
	"github.com/thereayou/study-hub/internal/websocket"
	"github.com/thereayou/study-hub/pkg/auth"
)

// Dependencies are the long-lived resources the HTTP layer is built from.
type Dependencies struct {
	DB         *database.Database
	Blacklist  middleware.TokenBlacklist
	JWTManager *auth.JWTManager
	Hub        *websocket.Hub
	Books      *books.Client
	Log        *logrus.Logger

	BcryptCost    int
	AuthRateLimit float64
	AuthRateBurst int
}

// NewRouter wires services and handlers into a gin engine.
func NewRouter(deps Dependencies) *gin.Engine {
	gate := services.NewGate(deps.DB)
	authService := services.NewAuthService(deps.DB, deps.BcryptCost, deps.Log)
	studyService := services.NewStudyService(deps.DB, gate, deps.Log)
	boardService := services.NewBoardService(deps.DB, gate, deps.Log)
	chatService := services.NewChatService(deps.DB, gate, deps.Hub, deps.Log)

	messageH := handlers.NewMessageHandler(chatService, deps.Log)

	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestLogger(deps.Log),
		metrics.Middleware(),
		middleware.Session(deps.JWTManager, deps.Blacklist, deps.Log),
	)

	APIEndpoints(r, Endpoints{
		auth:      handlers.NewAuthHandler(authService, deps.JWTManager, deps.Blacklist, deps.Log),
		user:      handlers.NewUserHandler(authService, studyService, deps.JWTManager, deps.Log),
		study:     handlers.NewStudyHandler(studyService, deps.Hub, deps.Log),
		board:     handlers.NewBoardHandler(boardService, deps.Log),
		messages:  handlers.NewHTTPMessageHandler(chatService, deps.Log),
		websocket: handlers.NewWebSocketHandler(deps.Hub, chatService, messageH, deps.Log),
		books:     handlers.NewBookHandler(deps.Books),
		health:    handlers.Health(deps.DB),
		limiter:   middleware.NewRateLimiter(deps.AuthRateLimit, deps.AuthRateBurst, deps.Log),
	})

	return r
}

type Endpoints struct {
	auth      *handlers.AuthHandler
	user      *handlers.UserHandler
	study     *handlers.StudyHandler
	board     *handlers.BoardHandler
	messages  *handlers.HTTPMessageHandler
	websocket *handlers.WebSocketHandler
	books     *handlers.BookHandler
	health    gin.HandlerFunc
	limiter   *middleware.RateLimiter
}

func APIEndpoints(r *gin.Engine, h Endpoints) {
	r.GET("/healthz", h.health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Auth endpoints
	limited := h.limiter.Handler()
	r.POST("/signup", limited, h.auth.Signup)
	r.POST("/login", limited, h.auth.Login)

	login := middleware.RequireLogin()
	r.POST("/logout", login, h.auth.Logout)

	me := r.Group("/me", login)
	{
		me.GET("", h.user.GetMe)
		me.PATCH("", h.user.UpdateMe)
		me.GET("/studies", h.user.MyStudies)
	}

	r.GET("/books/search", login, h.books.Search)

	studies := r.Group("/studies")
	{
		studies.GET("", h.study.ListStudies)
		studies.POST("/create", login, h.study.CreateStudy)
		studies.GET("/:id", h.study.GetStudy)
		studies.GET("/:id/members", h.study.ListMembers)
		studies.POST("/:id/update", login, h.study.UpdateStudy)
		studies.Any("/:id/delete", login, h.study.DeleteStudy)
		studies.POST("/:id/join", login, h.study.JoinStudy)
		studies.POST("/:id/leave", login, h.study.LeaveStudy)

		board := studies.Group("/:id/board", login)
		{
			board.GET("", h.board.ListPosts)
			board.POST("", h.board.CreatePost)
			board.GET("/:postId", h.board.GetPost)
			board.POST("/:postId/delete", h.board.DeletePost)
			board.POST("/:postId/comments", h.board.CreateComment)
			board.POST("/:postId/comments/:commentId/delete", h.board.DeleteComment)
		}

		studies.GET("/:id/chat", login, h.messages.GetStudyMessages)
		// the handshake answers 401 itself before upgrading
		studies.GET("/:id/chat/ws", h.websocket.HandleWebSocket)
	}
	r.GET("/chat/ws", h.websocket.HandleWebSocket)
}
