package handler

import (
	"blog-platform/internal/engagement"
	"blog-platform/pkg/client"
	"blog-platform/pkg/config"
	"blog-platform/pkg/jwtutil"
	"blog-platform/pkg/task"
)

// Handler carries the request handlers' dependencies. Everything here
// is selected once at startup: the signer from JWT_MODE, the dedup
// policy from ENGAGEMENT_DEDUP_POLICY, the admin allow-list from the
// environment.
type Handler struct {
	Config  *config.Config
	Signer  jwtutil.TokenSigner
	Dedup   *engagement.Deduplicator
	Ranker  *engagement.Ranker
	Tasks   *task.Runner
	Storage *client.StorageClient
	Authors *client.AuthorClient
}

// New wires the handler set.
func New(cfg *config.Config, signer jwtutil.TokenSigner, dedup *engagement.Deduplicator,
	ranker *engagement.Ranker, tasks *task.Runner, storage *client.StorageClient,
	authors *client.AuthorClient) *Handler {
	return &Handler{
		Config:  cfg,
		Signer:  signer,
		Dedup:   dedup,
		Ranker:  ranker,
		Tasks:   tasks,
		Storage: storage,
		Authors: authors,
	}
}
