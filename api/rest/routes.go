package rest

import "github.com/gin-gonic/gin"

// Handlers groups every /api/v1 handler.
type Handlers struct {
	Auth    *AuthHandler
	Brawler *BrawlerHandler
	Mission *MissionHandler
	Chat    *ChatHandler
}

// Mount registers the /api/v1 routes on g. auth guards the routes that
// need a signed-in brawler.
func (h *Handlers) Mount(g *gin.RouterGroup, auth gin.HandlerFunc) {
	authn := g.Group("/authentication")
	authn.POST("/login", h.Auth.Login)
	authn.POST("/logout", auth, h.Auth.Logout)
	authn.POST("/refresh", auth, h.Auth.Refresh)

	brawlers := g.Group("/brawlers")
	brawlers.POST("/register", h.Brawler.Register)
	brawlers.GET("/leaderboard", h.Brawler.Leaderboard)
	brawlers.GET("/me", auth, h.Brawler.Me)
	brawlers.PUT("/profile", auth, h.Brawler.UpdateProfile)
	brawlers.POST("/avatar", auth, h.Brawler.UploadAvatar)
	brawlers.GET("/my-missions", auth, h.Brawler.MyMissions)

	view := g.Group("/view")
	view.GET("/gets", h.Mission.List)
	view.GET("/count/:id", h.Mission.Crew)
	view.GET("/:id", h.Mission.Get)

	mgmt := g.Group("/mission-management", auth)
	mgmt.POST("", h.Mission.Add)
	mgmt.PATCH("/:id", h.Mission.Edit)
	mgmt.DELETE("/:id", h.Mission.Remove)

	op := g.Group("/mission-operation", auth)
	op.PATCH("/in-progress/:id", h.Mission.Start)
	op.PATCH("/to-completed/:id", h.Mission.Complete)
	op.PATCH("/to-failed/:id", h.Mission.Fail)

	crew := g.Group("/crew-operation", auth)
	crew.POST("/join/:id", h.Mission.Join)
	crew.DELETE("/leave/:id", h.Mission.Leave)

	chatG := g.Group("/chat", auth)
	chatG.GET("/:id/messages", h.Chat.Messages)
	chatG.POST("/:id/messages", h.Chat.Send)
}

// MountAdmin registers the admin routes on g, which the caller protects.
func (a *AdminHandler) MountAdmin(g *gin.RouterGroup) {
	g.GET("/scheduler", a.ListSchedulerTasks)
	g.POST("/scheduler/:name/run", a.RunSchedulerTask)
	g.POST("/leaderboard/rebuild", a.RebuildLeaderboard)
}
