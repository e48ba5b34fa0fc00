// Package mcpserver exposes the skill cache to MCP clients through a single
// "skill" tool whose description lists every currently cached skill.
package mcpserver

import (
	"github.com/jingkaihe/skillsd/pkg/skills"
	"github.com/jingkaihe/skillsd/pkg/version"
	"github.com/mark3labs/mcp-go/server"
	"github.com/pkg/errors"
)

// ServerName is the implementation name reported to MCP clients
const ServerName = "skills-mcp-server"

// SkillStore is the read side of the skill cache consumed by the server
type SkillStore interface {
	Get(name string) (*skills.Skill, bool)
	All() []*skills.Skill
}

// Server wraps an mcp-go server serving lookups from a SkillStore
type Server struct {
	store     SkillStore
	status    func() skills.Status
	mcpServer *server.MCPServer
}

// Option configures a Server
type Option func(*Server)

// WithStatus exposes scan status on the HTTP health endpoint
func WithStatus(status func() skills.Status) Option {
	return func(s *Server) {
		s.status = status
	}
}

// New creates an MCP server reading skills from store on every request
func New(store SkillStore, opts ...Option) (*Server, error) {
	if store == nil {
		return nil, errors.New("skill store cannot be nil")
	}

	s := &Server{store: store}
	for _, opt := range opts {
		opt(s)
	}

	tool, err := skillTool()
	if err != nil {
		return nil, err
	}

	s.mcpServer = server.NewMCPServer(
		ServerName,
		version.Get().Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithToolFilter(s.describeTools),
		server.WithInstructions("Use the skill tool to load specialized instructions by name."),
	)
	s.mcpServer.AddTool(tool, s.handleSkill)

	return s, nil
}

// MCPServer returns the underlying mcp-go server
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}
