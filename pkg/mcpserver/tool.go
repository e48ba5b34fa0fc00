package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/jingkaihe/skillsd/pkg/logger"
	"github.com/jingkaihe/skillsd/pkg/skills"
	"github.com/jingkaihe/skillsd/pkg/telemetry"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

// SkillToolName is the name of the only tool the server exposes
const SkillToolName = "skill"

// ErrInvalidInput is returned for skill tool calls with a missing or malformed command
var ErrInvalidInput = errors.New("invalid input")

// SkillToolInput is the argument object of the skill tool
type SkillToolInput struct {
	Command string `json:"command" jsonschema:"minLength=1,description=The skill name (no arguments). E.g. pdf or xlsx"`
}

func generateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

func skillTool() (mcp.Tool, error) {
	schema := generateSchema[SkillToolInput]()
	schema.Version = ""
	raw, err := json.Marshal(schema)
	if err != nil {
		return mcp.Tool{}, errors.Wrap(err, "failed to marshal skill tool schema")
	}
	return mcp.NewToolWithRawSchema(SkillToolName, ToolDescription(nil), raw), nil
}

// describeTools regenerates the skill tool description from the live cache on every tools/list
func (s *Server) describeTools(_ context.Context, tools []mcp.Tool) []mcp.Tool {
	for i := range tools {
		if tools[i].Name == SkillToolName {
			tools[i].Description = ToolDescription(s.store.All())
		}
	}
	return tools
}

func (s *Server) handleSkill(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := parseSkillInput(request.GetArguments())
	if err != nil {
		return nil, err
	}

	var result *mcp.CallToolResult
	telemetry.WithSpanFunc(ctx, "skills.invoke", func(ctx context.Context) {
		log := logger.G(ctx).WithField("command", input.Command)

		skill, ok := s.store.Get(input.Command)
		if !ok {
			log.Info("skill not found")
			telemetry.SetAttributes(ctx, attribute.Bool("skill.found", false))
			result = mcp.NewToolResultText(FormatSkillNotFound(input.Command, s.store.All()))
			return
		}

		log.WithField("skill", skill.Name).Debug("loading skill")
		telemetry.SetAttributes(ctx, attribute.Bool("skill.found", true), attribute.String("skill.source", string(skill.Source)))
		result = mcp.NewToolResultText(FormatSkillContent(skill))
	}, attribute.String("skill.command", input.Command))

	return result, nil
}

// parseSkillInput validates the arguments strictly: a non-empty string command and nothing else
func parseSkillInput(args map[string]any) (*SkillToolInput, error) {
	raw, ok := args["command"]
	if !ok {
		return nil, errors.Wrap(ErrInvalidInput, "command is required")
	}
	command, ok := raw.(string)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidInput, "command must be a string, got %T", raw)
	}
	if command == "" {
		return nil, errors.Wrap(ErrInvalidInput, "skill name cannot be empty")
	}
	for key := range args {
		if key != "command" {
			return nil, errors.Wrapf(ErrInvalidInput, "unrecognized argument %q", key)
		}
	}
	return &SkillToolInput{Command: command}, nil
}

// FormatSkillContent renders the response for a successful lookup
func FormatSkillContent(skill *skills.Skill) string {
	return fmt.Sprintf("Loading: %s\nBase directory: %s\n\n%s", skill.Name, skill.BaseDirectory, skill.Content)
}

// FormatSkillNotFound renders the not-found response listing every available skill
func FormatSkillNotFound(requested string, available []*skills.Skill) string {
	lines := make([]string, 0, len(available))
	for _, skill := range available {
		lines = append(lines, fmt.Sprintf("- %s: %s", skill.Name, skill.Description))
	}

	return fmt.Sprintf(`Skill '%s' not found.

Available skills:
%s

Use the exact skill name (case-insensitive) to load a skill.`, requested, strings.Join(lines, "\n"))
}

// ToolDescription renders the skill tool description with the catalog of available skills
func ToolDescription(available []*skills.Skill) string {
	blocks := make([]string, 0, len(available))
	for _, skill := range available {
		blocks = append(blocks, fmt.Sprintf("<skill>\n<name>%s</name>\n<description>%s</description>\n<location>%s</location>\n</skill>",
			skill.Name, skill.Description, skill.Location))
	}

	return fmt.Sprintf(toolDescriptionTemplate, strings.Join(blocks, "\n"))
}

const toolDescriptionTemplate = `Execute a skill within the main conversation

<skills_instructions>
When users ask you to perform tasks, check if any of the available skills below can help complete the task more effectively. Skills provide specialized capabilities and domain knowledge.

How to use skills:
- Invoke skills using this tool with the skill name only (no arguments)
- When you invoke a skill, you will see <command-message>The "{name}" skill is loading</command-message>
- The skill's prompt will expand and provide detailed instructions on how to complete the task
- Examples:
  - command: "pdf" - invoke the pdf skill
  - command: "xlsx" - invoke the xlsx skill
  - command: "ms-office-suite:pdf" - invoke using fully qualified name

Important:
- Only use skills listed in <available_skills> below
- Do not invoke a skill that is already running
- Do not use this tool for built-in CLI commands (like /help, /clear, etc.)
</skills_instructions>

<available_skills>
%s
</available_skills>`
