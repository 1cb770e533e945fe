package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/parikshasetu/exam-platform/internal/middleware"
	"github.com/parikshasetu/exam-platform/internal/models"
)

var (
	adminOnly = middleware.RequireRoles(models.RoleAdmin)
	staffOnly = middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin)
)

// RegisterSystemRoutes mounts health and metrics outside the API prefix.
func RegisterSystemRoutes(r *gin.Engine, h *HealthHandler, metricsEnabled bool) {
	r.GET("/health", h.Health)
	if metricsEnabled {
		r.GET("/metrics", h.Prometheus)
	}
}

// RegisterCourseRoutes mounts the course service API.
func RegisterCourseRoutes(api *gin.RouterGroup, h *CourseHandler, auth gin.HandlerFunc) {
	courses := api.Group("/courses", auth)
	courses.POST("", staffOnly, h.Create)
	courses.GET("", h.List)
	courses.GET("/teacher/:teacherId", h.ListByTeacher)
	courses.GET("/template/students", staffOnly, h.StudentTemplate)
	courses.GET("/my/:studentId", middleware.RequireRolesOrSelf("studentId", models.RoleTeacher, models.RoleAdmin, models.RoleService), h.MyEnrollments)
	courses.PUT("/enrollments/:enrollmentId/approve", staffOnly, h.Approve)
	courses.PUT("/enrollments/:enrollmentId/reject", staffOnly, h.Reject)
	courses.GET("/:id", h.Get)
	courses.DELETE("/:id", staffOnly, h.Delete)
	courses.POST("/:id/enroll/:studentId", middleware.RequireRolesOrSelf("studentId", models.RoleTeacher, models.RoleAdmin), h.RequestEnrollment)
	courses.GET("/:id/pending", staffOnly, h.Pending)
	courses.GET("/:id/students", staffOnly, h.Students)
	courses.DELETE("/:id/students/:studentId", staffOnly, h.RemoveStudent)
	courses.POST("/:id/students/upload", staffOnly, h.UploadStudents)
}

// RegisterExamRoutes mounts the exam service API.
func RegisterExamRoutes(api *gin.RouterGroup, h *ExamHandler, auth gin.HandlerFunc) {
	exams := api.Group("/exams", auth)
	exams.POST("", staffOnly, h.Create)
	exams.GET("", h.List)
	exams.GET("/template", staffOnly, h.Template)
	exams.POST("/questions", staffOnly, h.AddQuestion)
	exams.POST("/parse-questions", staffOnly, h.ParseQuestions)
	exams.POST("/by-courses", h.ByCourses)
	exams.GET("/teacher/:teacherId", staffOnly, h.ListByTeacher)
	exams.GET("/student/:studentId", middleware.RequireRolesOrSelf("studentId", models.RoleTeacher, models.RoleAdmin), h.StudentExams)
	exams.GET("/:id", h.Get)
	exams.DELETE("/:id", staffOnly, h.Delete)
	exams.POST("/:id/enroll/:studentId", staffOnly, h.EnrollStudent)
}

// RegisterResultRoutes mounts the result service API.
func RegisterResultRoutes(api *gin.RouterGroup, h *ResultHandler, auth gin.HandlerFunc) {
	results := api.Group("/results", auth)
	results.POST("/generate", h.Generate)
	results.GET("", staffOnly, h.List)
	results.GET("/student/:studentId", middleware.RequireRolesOrSelf("studentId", models.RoleTeacher, models.RoleAdmin), h.ByStudent)
	results.GET("/exam/:examId", staffOnly, h.ByExam)
	results.GET("/exam/:examId/export", staffOnly, h.Export)
	results.POST("/by-exams", staffOnly, h.ByExams)
}

// RegisterUserRoutes mounts the auth and user APIs of the user service.
func RegisterUserRoutes(api *gin.RouterGroup, authH *AuthHandler, h *UserHandler, auth gin.HandlerFunc) {
	authGroup := api.Group("/auth")
	authGroup.POST("/register", authH.Register)
	authGroup.POST("/login", authH.Login)
	authGroup.POST("/refresh", authH.Refresh)
	authGroup.PUT("/password", auth, authH.ChangePassword)

	users := api.Group("/users", auth)
	users.GET("", adminOnly, h.List)
	users.GET("/students", staffOnly, h.Students)
	users.GET("/students/template", staffOnly, h.StudentTemplate)
	users.POST("/students/upload", staffOnly, h.UploadStudents)
	users.GET("/stats", adminOnly, h.Stats)
	users.GET("/profile", h.Profile)
	users.GET("/search/email", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher, models.RoleService), h.SearchByEmail)
	users.GET("/:id", middleware.RequireRolesOrSelf("id", models.RoleAdmin, models.RoleTeacher, models.RoleService), h.Get)
	users.PUT("/:id/approve", adminOnly, h.Approve)
	users.DELETE("/:id", adminOnly, h.Delete)
}
