package handlers

import "github.com/gofiber/fiber/v2"

type Handlers struct {
	Posts     *PostHandler
	Approvals *ApprovalHandler
	Channels  *ChannelHandler
	Assets    *AssetHandler
}

// Register mounts the API routes on router, which is expected to carry the
// auth middleware already.
func (h Handlers) Register(router fiber.Router) {
	posts := router.Group("/posts")
	posts.Post("/", h.Posts.CreatePost)
	posts.Get("/", h.Posts.ListPosts)
	posts.Get("/:id", h.Posts.GetPost)
	posts.Put("/:id", h.Posts.UpdatePost)
	posts.Post("/:id/submit-for-approval", h.Approvals.SubmitForApproval)
	posts.Post("/:id/approve", h.Approvals.Approve)
	posts.Post("/:id/reject", h.Approvals.Reject)
	posts.Post("/:id/schedule", h.Approvals.Schedule)
	posts.Post("/:id/publish", h.Posts.PublishPost)
	posts.Get("/:id/history", h.Posts.PostHistory)

	router.Get("/approvals/pending", h.Approvals.ListPending)

	connectors := router.Group("/connectors")
	connectors.Get("/", h.Channels.ListChannels)
	connectors.Post("/connect", h.Channels.Connect)

	assets := router.Group("/assets")
	assets.Get("/", h.Assets.ListAssets)
	assets.Post("/", h.Assets.RegisterAsset)
}
