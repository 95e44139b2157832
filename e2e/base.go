// Package e2e exercises a running relay over its real WebSocket and REST
// surfaces. The suite is skipped unless RELAY_ADDR points at a live server.
package e2e

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
)

type BaseSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests.
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.RelayAddr == "" {
		s.T().Skip("RELAY_ADDR not set, skipping e2e suite")
	}
}

// Dial opens a WebSocket connection to the relay with a colorized header
// in the test log.
func (s *BaseSuite) Dial(t *testing.T, name string) *websocket.Conn {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws://"+s.Config.RelayAddr+"/ws", nil)
	s.Require().NoError(err)
	return conn
}

// Send writes one JSON frame with a short deadline.
func (s *BaseSuite) Send(conn *websocket.Conn, frame any) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Require().NoError(wsjson.Write(ctx, conn, frame))
}

// Receive reads frames until one matches the predicate or the deadline
// passes. Unrelated frames (typing notices, roster refreshes) are skipped.
func (s *BaseSuite) Receive(conn *websocket.Conn, match func(map[string]any) bool) map[string]any {
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		ctx, cancel := context.WithDeadline(context.Background(), deadline)
		var frame map[string]any
		err := wsjson.Read(ctx, conn, &frame)
		cancel()
		s.Require().NoError(err)
		if match(frame) {
			return frame
		}
	}
	s.Require().Fail("no matching frame before deadline")
	return nil
}
