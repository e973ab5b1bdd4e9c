package server

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/unicampus/portal/internal/middleware"
	"github.com/unicampus/portal/pkg/storage"

	academicHttp "github.com/unicampus/portal/internal/modules/academic/delivery/http"
	academicRepo "github.com/unicampus/portal/internal/modules/academic/repository"
	academicService "github.com/unicampus/portal/internal/modules/academic/service"

	attendanceHttp "github.com/unicampus/portal/internal/modules/attendance/delivery/http"
	attendanceRepo "github.com/unicampus/portal/internal/modules/attendance/repository"
	attendanceService "github.com/unicampus/portal/internal/modules/attendance/service"

	calendarHttp "github.com/unicampus/portal/internal/modules/calendar/delivery/http"
	calendarRepo "github.com/unicampus/portal/internal/modules/calendar/repository"
	calendarService "github.com/unicampus/portal/internal/modules/calendar/service"

	chatHttp "github.com/unicampus/portal/internal/modules/chat/delivery/http"
	chatRepo "github.com/unicampus/portal/internal/modules/chat/repository"
	chatService "github.com/unicampus/portal/internal/modules/chat/service"

	noteHttp "github.com/unicampus/portal/internal/modules/note/delivery/http"
	noteRepo "github.com/unicampus/portal/internal/modules/note/repository"
	noteService "github.com/unicampus/portal/internal/modules/note/service"

	notiHttp "github.com/unicampus/portal/internal/modules/notification/delivery/http"
	notifRepo "github.com/unicampus/portal/internal/modules/notification/repository"
	notifService "github.com/unicampus/portal/internal/modules/notification/service"

	profileHttp "github.com/unicampus/portal/internal/modules/profile/delivery/http"
	profileService "github.com/unicampus/portal/internal/modules/profile/service"

	searchService "github.com/unicampus/portal/internal/modules/search/service"

	userHttp "github.com/unicampus/portal/internal/modules/user/delivery/http"
	userRepo "github.com/unicampus/portal/internal/modules/user/repository"
	userService "github.com/unicampus/portal/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
}

func NewServer(db *gorm.DB, redisClient *redis.Client) *Server {
	users := userRepo.NewUserRepository(db)

	imageStorage, err := storage.NewCloudinaryStorage()
	if err != nil {
		log.Printf("cloudinary storage unavailable, avatar uploads disabled: %v", err)
		imageStorage = nil
	}

	meiliHost := os.Getenv("MEILISEARCH_HOST")
	if meiliHost == "" {
		meiliHost = "http://localhost:7700"
	}
	if !strings.HasPrefix(meiliHost, "http") {
		meiliHost = "http://" + meiliHost + ":7700"
	}
	meiliClient := meilisearch.New(meiliHost, meilisearch.WithAPIKey(os.Getenv("MEILI_MASTER_KEY")))
	meiliSvc := searchService.NewMeiliSearchService(meiliClient)

	authSvc := userService.NewAuthService(users, meiliSvc)
	authHandler := userHttp.NewAuthHandler(authSvc)

	adminSvc := userService.NewAdminService(users, meiliSvc)
	adminHandler := userHttp.NewAdminHandler(adminSvc)

	profileSvc := profileService.NewProfileService(users, imageStorage, meiliSvc)
	profileHandler := profileHttp.NewProfileHandler(profileSvc)

	notificationRepository := notifRepo.NewNotificationRepository(db)
	notificationSvc := notifService.NewNotificationService(notificationRepository, redisClient)
	notificationHandler := notiHttp.NewNotificationHandler(notificationSvc, redisClient)

	subjects := academicRepo.NewSubjectRepository(db)
	grades := academicRepo.NewGradeRepository(db)
	finals := academicRepo.NewFinalRepository(db)
	academicSvc := academicService.NewAcademicService(subjects, grades, finals, users, notificationSvc)
	academicHandler := academicHttp.NewAcademicHandler(academicSvc)

	attendances := attendanceRepo.NewAttendanceRepository(db)
	attendanceSvc := attendanceService.NewAttendanceService(attendances, users)
	attendanceHandler := attendanceHttp.NewAttendanceHandler(attendanceSvc, users)

	chats := chatRepo.NewChatRepository(db)
	chatSvc := chatService.NewChatService(chats, users, subjects, notificationSvc, redisClient)
	chatHandler := chatHttp.NewChatHandler(chatSvc, redisClient)

	calendars := calendarRepo.NewCalendarRepository(db)
	calendarSvc := calendarService.NewCalendarService(calendars, users, notificationSvc)
	calendarHandler := calendarHttp.NewCalendarHandler(calendarSvc)

	notes := noteRepo.NewNoteRepository(db)
	noteSvc := noteService.NewNoteService(notes, users)
	noteHandler := noteHttp.NewNoteHandler(noteSvc)

	router := gin.New()

	setupCORS(router)

	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	authMiddleware := middleware.NewAuthMiddleware(users)

	api := router.Group("/api")

	// Public routes
	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.GET("/google/login", authHandler.GoogleLogin)
		auth.GET("/google/callback", authHandler.GoogleCallback)
	}

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.POST("/auth/logout", authHandler.Logout)

		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMiddleware.RequireAdmin())
		{
			adminGroup.POST("/users", adminHandler.CreateUser)
			adminGroup.GET("/users", adminHandler.GetAllUsers)
			adminGroup.PUT("/users/:id", adminHandler.UpdateUser)
			adminGroup.DELETE("/users/:id", adminHandler.DeleteUser)

			adminGroup.POST("/subjects", academicHandler.CreateSubject)
			adminGroup.POST("/subjects/:id/professors", academicHandler.AssignProfessor)
			adminGroup.POST("/subjects/:id/students", academicHandler.EnrollStudent)

			adminGroup.POST("/finals", academicHandler.CreateFinalExam)
			adminGroup.DELETE("/finals/:id", academicHandler.DeleteFinalExam)

			adminGroup.POST("/events", calendarHandler.CreateEvent)
			adminGroup.PUT("/events/:id", calendarHandler.UpdateEvent)
			adminGroup.DELETE("/events/:id", calendarHandler.DeleteEvent)

			adminGroup.GET("/suggestions", noteHandler.ListSuggestions)
		}

		// Profile routes
		protected.GET("/profile/me", profileHandler.Me)
		protected.GET("/profile/:id", profileHandler.GetByID)
		protected.PUT("/profile", profileHandler.Update)
		protected.POST("/profile/avatar", profileHandler.UploadAvatar)

		// Chat routes
		protected.GET("/chat/conversations", chatHandler.ListConversations)
		protected.POST("/chat/direct", chatHandler.StartDirect)
		protected.POST("/chat/groups", chatHandler.CreateGroup)
		protected.POST("/chat/groups/role", chatHandler.RoleGroup)
		protected.POST("/chat/groups/subject",
			authMiddleware.RequireRoles("professor", "admin"), chatHandler.SubjectGroup)
		protected.GET("/chat/conversations/:id/messages", chatHandler.ListMessages)
		protected.POST("/chat/conversations/:id/messages", chatHandler.SendMessage)
		protected.PUT("/chat/conversations/:id/read", chatHandler.MarkRead)
		protected.GET("/chat/unread-count", chatHandler.UnreadCount)
		protected.GET("/chat/ws", chatHandler.HandleWebSocket)

		// Attendance routes
		protected.POST("/attendance",
			authMiddleware.RequireRoles("preceptor", "admin"), attendanceHandler.Save)
		protected.GET("/attendance/grid",
			authMiddleware.RequireRoles("preceptor", "professor", "admin"), attendanceHandler.MonthlyGrid)
		protected.GET("/attendance/students/:id/summary",
			authMiddleware.RequireRoles("preceptor", "professor", "admin"), attendanceHandler.StudentSummary)
		protected.GET("/attendance/me/summary",
			authMiddleware.RequireRoles("student"), attendanceHandler.MySummary)

		// Academic routes
		protected.GET("/subjects", academicHandler.ListSubjects)
		protected.GET("/subjects/me",
			authMiddleware.RequireRoles("student", "professor", "preceptor", "admin"), academicHandler.MySubjects)
		protected.POST("/grades",
			authMiddleware.RequireRoles("professor", "admin"), academicHandler.CreateGrade)
		protected.GET("/grades/me",
			authMiddleware.RequireRoles("student"), academicHandler.MyGrades)
		protected.GET("/students/:id/grades",
			authMiddleware.RequireRoles("professor", "preceptor", "admin"), academicHandler.StudentGrades)
		protected.PUT("/grades/:id",
			authMiddleware.RequireRoles("professor", "admin"), academicHandler.UpdateGrade)
		protected.DELETE("/grades/:id",
			authMiddleware.RequireRoles("professor", "admin"), academicHandler.DeleteGrade)
		protected.GET("/finals", academicHandler.ListFinalExams)
		protected.POST("/finals/:id/enroll",
			authMiddleware.RequireRoles("student"), academicHandler.EnrollInFinal)
		protected.DELETE("/finals/:id/enroll",
			authMiddleware.RequireRoles("student"), academicHandler.WithdrawFromFinal)

		// Calendar routes
		protected.GET("/events",
			authMiddleware.RequireRoles("student", "professor", "preceptor", "admin"), calendarHandler.ListMonth)

		// Note and suggestion routes
		protected.POST("/notes",
			authMiddleware.RequireRoles("preceptor", "professor", "admin"), noteHandler.CreateNote)
		protected.GET("/students/:id/notes",
			authMiddleware.RequireRoles("preceptor", "professor", "admin"), noteHandler.StudentNotes)
		protected.DELETE("/notes/:id",
			authMiddleware.RequireRoles("preceptor", "professor", "admin"), noteHandler.DeleteNote)
		protected.POST("/suggestions", noteHandler.SubmitSuggestion)

		// Notification routes
		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
	}
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func setupCORS(router *gin.Engine) {
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	var origins []string
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
	} else {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
