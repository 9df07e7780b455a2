package main

import (
	"fmt"

	"github.com/chzyer/readline"

	"github.com/wicara-ai/wicara/domain/entities"
)

const (
	promptEnabled  = "you> "
	promptDisabled = "   - "
)

// terminalView renders the transcript and status line around a readline
// prompt. All methods are called from the coordinator's control loop.
type terminalView struct {
	rl *readline.Instance

	// printed counts the settled (non-pending) rows already echoed, so each
	// transcript change only prints what is new. User rows are echoed by
	// readline itself.
	printed int

	lastStatus string
	lastInput  bool
}

func newTerminalView(rl *readline.Instance) *terminalView {
	return &terminalView{rl: rl}
}

func (v *terminalView) TranscriptChanged(entries []entities.TranscriptEntry) {
	settled := 0
	for _, entry := range entries {
		if entry.Pending {
			continue
		}
		settled++
		if settled <= v.printed {
			continue
		}
		if entry.Role == entities.RoleAssistant {
			fmt.Fprintf(v.rl.Stdout(), "assistant> %s\n", entry.Text)
		}
	}
	if settled > v.printed {
		v.printed = settled
	}
	v.rl.Refresh()
}

func (v *terminalView) UIStateChanged(state entities.UIState) {
	if state.StatusText != v.lastStatus {
		v.lastStatus = state.StatusText
		fmt.Fprintf(v.rl.Stdout(), "[%s]\n", state.StatusText)
	}
	if state.InputEnabled != v.lastInput {
		v.lastInput = state.InputEnabled
		if state.InputEnabled {
			v.rl.SetPrompt(promptEnabled)
		} else {
			v.rl.SetPrompt(promptDisabled)
		}
	}
	v.rl.Refresh()
}
