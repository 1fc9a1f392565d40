package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/campus-hire/internal/auth"
	"github.com/justsurfingit/campus-hire/internal/services"
)

// Deps is everything the router needs. UploadDir is served at /uploads when set.
type Deps struct {
	CORSOrigins  []string
	AppBaseURL   string
	UploadDir    string
	AIPerMinute  int
	Sessions     *auth.SessionStore
	Google       *auth.GoogleAuth
	Profiles     *services.ProfileService
	Jobs         *services.JobService
	Applications *services.ApplicationService
	Calls        *services.CallService
	Bookmarks    *services.BookmarkService
	Resumes      *services.ResumeService
	Notify       *services.NotificationService
	LLM          *services.LLMService
	Payments     *services.PaymentService
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = d.CORSOrigins
	if len(corsCfg.AllowOrigins) == 0 {
		corsCfg.AllowOrigins = []string{d.AppBaseURL}
	}
	corsCfg.AllowCredentials = true
	corsCfg.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsCfg))

	if d.UploadDir != "" {
		r.Static("/uploads", d.UploadDir)
	}

	authH := NewAuthHandler(d.Google, d.Sessions, d.Profiles, d.AppBaseURL)
	profileH := NewProfileHandler(d.Profiles)
	jobH := NewJobHandler(d.Jobs, d.Applications)
	appH := NewApplicationHandler(d.Applications)
	callH := NewCallHandler(d.Calls)
	bookmarkH := NewBookmarkHandler(d.Bookmarks)
	notifH := NewNotificationHandler(d.Notify)
	resumeH := NewResumeHandler(d.Resumes)
	aiH := NewAIHandler(d.LLM, d.Jobs, d.Resumes)
	payH := NewPaymentHandler(d.Payments)
	adminH := NewAdminHandler(d.Jobs)

	api := r.Group("/api")
	api.Use(d.Sessions.LoadUser(), loadProfile(d.Profiles))
	{
		api.GET("/health", HealthCheck)

		api.GET("/auth/google/login", authH.GoogleLogin)
		api.GET("/auth/google/callback", authH.GoogleCallback)
		api.POST("/auth/logout", authH.Logout)

		api.GET("/jobs", jobH.ListJobs)
		api.GET("/jobs/:id", jobH.GetJob)
		api.GET("/profiles/:id", profileH.GetPublic)
		api.POST("/webhooks/stripe", payH.Webhook)
	}

	signedIn := api.Group("", auth.RequireUser())
	{
		signedIn.GET("/auth/me", authH.Me)
		signedIn.POST("/profile", profileH.Create)
	}

	// Everything below acts as the caller's profile.
	me := signedIn.Group("", requireProfile())
	{
		me.GET("/profile", profileH.GetOwn)
		me.PATCH("/profile", profileH.Update)
		me.POST("/profile/avatar", profileH.UploadAvatar)

		me.GET("/jobs/mine", jobH.MyJobs)
		me.POST("/jobs", jobH.CreateJob)
		me.PATCH("/jobs/:id", jobH.UpdateJob)
		me.DELETE("/jobs/:id", jobH.DeleteJob)
		me.GET("/jobs/:id/applications", jobH.JobApplications)

		me.POST("/applications", appH.Apply)
		me.GET("/applications", appH.ListMine)
		me.GET("/applications/:id", appH.Get)
		me.PATCH("/applications/:id", appH.UpdateStatus)
		me.DELETE("/applications/:id", appH.Withdraw)

		me.POST("/calls", callH.Create)
		me.GET("/calls", callH.List)
		me.PATCH("/calls/:id", callH.Respond)
		me.GET("/calls/:id/token", callH.Token)

		me.GET("/bookmarks", bookmarkH.List)
		me.POST("/bookmarks", bookmarkH.Add)
		me.DELETE("/bookmarks/:jobId", bookmarkH.Remove)

		me.GET("/notifications", notifH.List)
		me.PATCH("/notifications/:id/read", notifH.MarkRead)
		me.POST("/notifications/read-all", notifH.MarkAllRead)
		me.DELETE("/notifications/read", notifH.ClearRead)
		me.DELETE("/notifications/:id", notifH.Delete)

		me.GET("/resumes", resumeH.List)
		me.POST("/resumes", resumeH.Upload)
		me.PATCH("/resumes/:id/default", resumeH.SetDefault)
		me.DELETE("/resumes/:id", resumeH.Delete)

		me.POST("/payments/checkout", payH.Checkout)
		me.GET("/payments/subscription", payH.Subscription)
	}

	ai := me.Group("/ai", NewProfileLimiter(d.AIPerMinute).Middleware())
	{
		ai.POST("/match-score", aiH.MatchScore)
		ai.POST("/refine-job", aiH.RefineJob)
		ai.POST("/analyze-resume", aiH.AnalyzeResume)
		ai.GET("/recommendations", aiH.Recommendations)
		ai.POST("/interview-tips", aiH.InterviewTips)
		ai.POST("/cover-letter", aiH.CoverLetter)
	}

	admin := me.Group("/admin", requireAdmin())
	{
		admin.GET("/jobs", adminH.ListJobs)
		admin.PATCH("/jobs/:id", adminH.ModerateJob)
		admin.GET("/stats", adminH.Stats)
	}

	return r
}
