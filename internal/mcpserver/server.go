// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the creature catalog for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/noxistence/noxistence/internal/gallery"
	"github.com/noxistence/noxistence/internal/lore"
	"github.com/noxistence/noxistence/internal/models"
	"github.com/noxistence/noxistence/internal/syncengine"
)

// Server wraps the MCP server with catalog tools.
type Server struct {
	mcp     *server.MCPServer
	gallery *gallery.Service
	lore    *lore.Service
	engine  *syncengine.Engine
}

// New creates a new MCP server with all catalog tools registered.
func New(g *gallery.Service, l *lore.Service, e *syncengine.Engine) *Server {
	s := &Server{gallery: g, lore: l, engine: e}

	s.mcp = server.NewMCPServer(
		"Noxistence",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_creatures",
		mcp.WithDescription("List all creatures in the catalog, most recently uploaded first."),
		mcp.WithString("kind", mcp.Description("Record kind to list: creature (default) or art")),
	), s.listRecords)

	s.mcp.AddTool(mcp.NewTool("get_creature",
		mcp.WithDescription("Fetch a single catalog record by its id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Record id (e.g. creature_1700000000000)")),
	), s.getRecord)

	s.mcp.AddTool(mcp.NewTool("list_articles",
		mcp.WithDescription("List lore articles, newest first. Returns id, title, excerpt, author, and dates."),
	), s.listArticles)

	s.mcp.AddTool(mcp.NewTool("read_article",
		mcp.WithDescription("Read the full content of a lore article."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Article id (e.g. article-1700000000000)")),
	), s.readArticle)

	s.mcp.AddTool(mcp.NewTool("sync_catalog",
		mcp.WithDescription("Reconcile the local creature cache against the remote asset store "+
			"and return the sync report (cloud, local, new, and total record counts)."),
	), s.syncCatalog)

	s.mcp.AddTool(newUploadTool(), s.uploadCreature)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind := models.KindCreature
	if k, err := req.RequireString("kind"); err == nil && k != "" {
		kind = k
	}
	if kind != models.KindCreature && kind != models.KindArt {
		return mcp.NewToolResultError(fmt.Sprintf("unknown kind: %s", kind)), nil
	}

	records := s.gallery.List(ctx, kind)
	out, _ := json.MarshalIndent(records, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.gallery.Get(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	out, _ := json.MarshalIndent(rec, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listArticles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	articles, err := s.lore.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	type articleSummary struct {
		ID        string `json:"id"`
		Title     string `json:"title"`
		Excerpt   string `json:"excerpt"`
		Author    string `json:"author"`
		Date      string `json:"date"`
		UpdatedAt string `json:"updatedAt"`
	}
	summaries := make([]articleSummary, 0, len(articles))
	for _, a := range articles {
		summaries = append(summaries, articleSummary{
			ID:        a.ID,
			Title:     a.Title,
			Excerpt:   a.Excerpt,
			Author:    a.Author,
			Date:      a.Date.Format("2006-01-02"),
			UpdatedAt: a.UpdatedAt.Format("2006-01-02"),
		})
	}
	out, _ := json.MarshalIndent(summaries, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readArticle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	a, err := s.lore.Get(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	out, _ := json.MarshalIndent(a, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) syncCatalog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, _ := s.engine.Sync(ctx)
	out, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
