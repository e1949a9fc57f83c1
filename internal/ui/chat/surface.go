// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dailymind/dailymind-tui/internal/model"
	"github.com/dailymind/dailymind-tui/internal/session"
)

// ProgramSurface implements session.Surface by posting messages to a
// running program. It is safe to call from any goroutine.
type ProgramSurface struct {
	send func(tea.Msg)
}

var _ session.Surface = (*ProgramSurface)(nil)

// NewProgramSurface posts to p.
func NewProgramSurface(p *tea.Program) *ProgramSurface {
	return &ProgramSurface{send: p.Send}
}

// NewFuncSurface posts through send; tests use it to collect messages.
func NewFuncSurface(send func(tea.Msg)) *ProgramSurface {
	return &ProgramSurface{send: send}
}

func (s *ProgramSurface) EntryAdded(e model.Entry) { s.send(EntryAddedMsg{Entry: e}) }

func (s *ProgramSurface) EntryAppended(id, fragment string) {
	s.send(EntryAppendedMsg{ID: id, Fragment: fragment})
}

func (s *ProgramSurface) EntryFinalized(e model.Entry) { s.send(EntryFinalizedMsg{Entry: e}) }
func (s *ProgramSurface) ScrollToLatest()              { s.send(ScrollMsg{}) }
func (s *ProgramSurface) SetInputEnabled(enabled bool) { s.send(InputEnabledMsg{Enabled: enabled}) }
func (s *ProgramSurface) ClearInput()                  { s.send(ClearInputMsg{}) }
func (s *ProgramSurface) RequestEmail()                { s.send(RequestEmailMsg{}) }
