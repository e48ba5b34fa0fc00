package mcpserver

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jingkaihe/skillsd/pkg/skills"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, list ...*skills.Skill) *skills.Cache {
	t.Helper()
	cache := skills.NewCache()
	for _, skill := range list {
		cache.Set(skill)
	}
	return cache
}

func gitSkill() *skills.Skill {
	return &skills.Skill{
		Name:          "Git",
		Description:   "helps with git",
		BaseDirectory: "/work/.agent/skills/git",
		FilePath:      "/work/.agent/skills/git/SKILL.md",
		Content:       "---\nname: Git\ndescription: helps with git\n---\n\n# Git\n",
		LastLoaded:    time.Now(),
		Source:        skills.SourceProjectUniversal,
		Location:      skills.LocationProject,
	}
}

func pdfSkill() *skills.Skill {
	return &skills.Skill{
		Name:          "pdf",
		Description:   "work with PDF files",
		BaseDirectory: "/home/me/.claude/skills/pdf",
		FilePath:      "/home/me/.claude/skills/pdf/SKILL.md",
		Content:       "---\nname: pdf\ndescription: work with PDF files\n---\n",
		Source:        skills.SourceGlobalClaude,
		Location:      skills.LocationGlobal,
	}
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = SkillToolName
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestNew_NilStore(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}

func TestHandleSkill_Found(t *testing.T) {
	srv, err := New(newTestCache(t, gitSkill()))
	require.NoError(t, err)

	for _, command := range []string{"Git", "GIT", "git", "  git "} {
		t.Run(command, func(t *testing.T) {
			result, err := srv.handleSkill(context.Background(), callRequest(map[string]any{"command": command}))
			require.NoError(t, err)
			assert.False(t, result.IsError)

			text := resultText(t, result)
			assert.Equal(t, "Loading: Git\nBase directory: /work/.agent/skills/git\n\n"+gitSkill().Content, text)
		})
	}
}

func TestHandleSkill_NotFoundListsAvailableSkills(t *testing.T) {
	srv, err := New(newTestCache(t, gitSkill(), pdfSkill()))
	require.NoError(t, err)

	result, err := srv.handleSkill(context.Background(), callRequest(map[string]any{"command": "xlsx"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "Skill 'xlsx' not found.")
	assert.Contains(t, text, "- Git: helps with git")
	assert.Contains(t, text, "- pdf: work with PDF files")
	assert.Contains(t, text, "Use the exact skill name (case-insensitive) to load a skill.")
}

func TestHandleSkill_InvalidInput(t *testing.T) {
	srv, err := New(newTestCache(t, gitSkill()))
	require.NoError(t, err)

	tests := []struct {
		name        string
		args        map[string]any
		errContains string
	}{
		{"missing command", map[string]any{}, "command is required"},
		{"nil arguments", nil, "command is required"},
		{"empty command", map[string]any{"command": ""}, "cannot be empty"},
		{"non-string command", map[string]any{"command": 42}, "must be a string"},
		{"unknown argument", map[string]any{"command": "git", "args": "--all"}, "unrecognized argument"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := srv.handleSkill(context.Background(), callRequest(tt.args))
			require.Error(t, err)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestToolDescription(t *testing.T) {
	description := ToolDescription([]*skills.Skill{gitSkill(), pdfSkill()})

	assert.Contains(t, description, "Execute a skill within the main conversation")
	assert.Contains(t, description, "<skill>\n<name>Git</name>\n<description>helps with git</description>\n<location>project</location>\n</skill>")
	assert.Contains(t, description, "<name>pdf</name>")
	assert.Contains(t, description, "<location>global</location>")
	assert.Contains(t, description, "<available_skills>\n<skill>")
}

func TestToolDescription_Empty(t *testing.T) {
	description := ToolDescription(nil)
	assert.Contains(t, description, "<available_skills>\n\n</available_skills>")
}

func TestSkillToolSchema(t *testing.T) {
	tool, err := skillTool()
	require.NoError(t, err)
	assert.Equal(t, SkillToolName, tool.Name)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(tool.RawInputSchema, &schema))
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []any{"command"}, schema["required"])
	assert.Equal(t, false, schema["additionalProperties"])

	properties, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	command, ok := properties["command"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "string", command["type"])
	assert.Equal(t, float64(1), command["minLength"])
}

// rpc sends a raw JSON-RPC message through the server and decodes the reply
func rpc(t *testing.T, srv *Server, message string) map[string]any {
	t.Helper()
	resp := srv.MCPServer().HandleMessage(context.Background(), json.RawMessage(message))
	require.NotNil(t, resp)

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	return decoded
}

func initialize(t *testing.T, srv *Server) {
	t.Helper()
	resp := rpc(t, srv, `{"jsonrpc":"2.0","id":0,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"1.0.0"}}}`)
	require.Contains(t, resp, "result")
	result := resp["result"].(map[string]any)
	serverInfo := result["serverInfo"].(map[string]any)
	assert.Equal(t, ServerName, serverInfo["name"])
}

func TestListTools_DescriptionTracksCache(t *testing.T) {
	cache := newTestCache(t, gitSkill())
	srv, err := New(cache)
	require.NoError(t, err)
	initialize(t, srv)

	listDescription := func() string {
		resp := rpc(t, srv, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
		require.Contains(t, resp, "result")
		tools := resp["result"].(map[string]any)["tools"].([]any)
		require.Len(t, tools, 1)
		tool := tools[0].(map[string]any)
		assert.Equal(t, SkillToolName, tool["name"])
		return tool["description"].(string)
	}

	description := listDescription()
	assert.Contains(t, description, "<name>Git</name>")
	assert.NotContains(t, description, "<name>pdf</name>")

	cache.Set(pdfSkill())
	description = listDescription()
	assert.Contains(t, description, "<name>Git</name>")
	assert.Contains(t, description, "<name>pdf</name>")
}

func TestCallTool_OverJSONRPC(t *testing.T) {
	srv, err := New(newTestCache(t, gitSkill()))
	require.NoError(t, err)
	initialize(t, srv)

	resp := rpc(t, srv, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"skill","arguments":{"command":"GIT"}}}`)
	require.Contains(t, resp, "result")
	content := resp["result"].(map[string]any)["content"].([]any)
	require.Len(t, content, 1)
	assert.Contains(t, content[0].(map[string]any)["text"], "Loading: Git")

	resp = rpc(t, srv, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"skill","arguments":{}}}`)
	assert.Contains(t, resp, "error")
	assert.NotContains(t, resp, "result")
}
