package ui_test

import (
	"bytes"
	"testing"

	"github.com/srg/bacstop/internal/ui"
	"github.com/srg/bacstop/protocol"
	"github.com/stretchr/testify/suite"
)

type UITestSuite struct {
	suite.Suite
}

func (suite *UITestSuite) TestSchemeByName() {
	// GOAL: Verify every published theme resolves and unknown names fall back to default

	for name := range ui.Schemes {
		suite.Run(name, func() {
			suite.Assert().NotNil(ui.SchemeByName(name))
		})
	}

	suite.Run("unknown theme falls back to default", func() {
		suite.Assert().NotNil(ui.SchemeByName("vaporwave"))
	})
}

func (suite *UITestSuite) TestNonTerminalOutput() {
	// GOAL: Verify the UI degrades to plain status lines when stdout is not a TTY
	//
	// TEST SCENARIO: Drive Update with each notification kind → one plain line each → no ANSI clears

	tests := []struct {
		name         string
		notification protocol.Notification
		want         string
	}{
		{
			name:         "countdown",
			notification: protocol.Notification{Kind: protocol.KindCountdown, Seconds: 5},
			want:         "Warming up... 5s\n",
		},
		{
			name:         "start blow",
			notification: protocol.Notification{Kind: protocol.KindStartBlow},
			want:         "BEGIN BLOWING NOW!\n",
		},
		{
			name:         "keep blowing",
			notification: protocol.Notification{Kind: protocol.KindKeepBlowing, Seconds: 3},
			want:         "Keep blowing... 3s\n",
		},
		{
			name:         "analyzing",
			notification: protocol.Notification{Kind: protocol.KindAnalyzing},
			want:         "Analyzing sample...\n",
		},
		{
			name:         "blow error",
			notification: protocol.Notification{Kind: protocol.KindBlowError},
			want:         "ERROR: Blow error - insufficient breath detected\n",
		},
		{
			name:         "timeout",
			notification: protocol.Notification{Kind: protocol.KindTimeout},
			want:         "ERROR: Test timed out\n",
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			var buf bytes.Buffer
			u := ui.NewWithWriter("default", &buf, false)

			u.Update(tt.notification)

			suite.Assert().Equal(tt.want, buf.String())
			suite.Assert().NotContains(buf.String(), "\033[2J", "non-TTY output MUST NOT clear the screen")
		})
	}
}

func (suite *UITestSuite) TestNonTerminalResult() {
	// GOAL: Verify result rendering classifies sober / under / over the 0.08 limit

	tests := []struct {
		name string
		bac  float64
		want string
	}{
		{name: "sober", bac: 0.0, want: "BAC: 0.0000% (Sober)\n"},
		{name: "under limit", bac: 0.0421, want: "BAC: 0.0421% (Under Legal Limit)\n"},
		{name: "over limit", bac: 0.1200, want: "BAC: 0.1200% (Over Legal Limit)\n"},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			var buf bytes.Buffer
			u := ui.NewWithWriter("default", &buf, false)

			u.ShowResult(tt.bac)

			suite.Assert().Equal(tt.want, buf.String())
		})
	}
}

func (suite *UITestSuite) TestInformationalKindsRenderNothingTerminal() {
	// GOAL: Verify Unknown and Invalid frames do not disturb the display

	var buf bytes.Buffer
	u := ui.NewWithWriter("default", &buf, false)

	u.Update(protocol.Notification{Kind: protocol.KindUnknown, RawHex: "dead"})
	u.Update(protocol.Notification{Kind: protocol.KindInvalid})

	suite.Assert().Empty(buf.String(), "unknown frames MUST NOT produce UI output")
}

func TestUITestSuite(t *testing.T) {
	suite.Run(t, new(UITestSuite))
}
