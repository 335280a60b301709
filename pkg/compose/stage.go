package compose

import (
	"context"
	"fmt"

	"github.com/matzehuels/coverkit/pkg/errors"
	"github.com/matzehuels/coverkit/pkg/observability"
)

// Stage is a step of the compose state machine. Stages only move forward,
// one at a time: background, then slots, then texts.
type Stage int

const (
	StageInitialized Stage = iota
	StageBackgroundDrawn
	StageSlotsDrawn
	StageTextsDrawn
	StageDone
)

var stageNames = [...]string{
	StageInitialized:     "initialized",
	StageBackgroundDrawn: "background_drawn",
	StageSlotsDrawn:      "slots_drawn",
	StageTextsDrawn:      "texts_drawn",
	StageDone:            "done",
}

func (s Stage) String() string {
	if s >= 0 && int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// stageMachine tracks progress through a single compose call.
type stageMachine struct {
	ctx      context.Context
	template string
	stage    Stage
}

func newStageMachine(ctx context.Context, template string) *stageMachine {
	return &stageMachine{ctx: ctx, template: template, stage: StageInitialized}
}

// advance moves to next, which must directly follow the current stage.
func (m *stageMachine) advance(next Stage) error {
	if next != m.stage+1 {
		return errors.New(errors.ErrCodeInternal, "compose: cannot move from %s to %s", m.stage, next)
	}
	m.stage = next
	observability.Render().OnStage(m.ctx, m.template, next.String())
	return nil
}
