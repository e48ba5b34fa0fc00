package mcpserver

import (
	"context"
	"io"
	"log"

	"github.com/jingkaihe/skillsd/pkg/logger"
	"github.com/mark3labs/mcp-go/server"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ServeStdio serves MCP over newline-delimited JSON-RPC on in/out until ctx is
// cancelled or the input stream ends.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(log.New(logger.G(ctx).WriterLevel(logrus.ErrorLevel), "", 0))

	logger.G(ctx).Info("skills MCP server running via stdio")
	if err := stdio.Listen(ctx, in, out); err != nil && !errors.Is(err, context.Canceled) {
		return errors.Wrap(err, "stdio transport failed")
	}
	return nil
}
