// Copyright 2018 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package game

import "fmt"

// Phase is the presentation phase a renderer should show.
type Phase uint8

const (
	PhaseLoading         Phase = iota // initial wallet check outstanding
	PhasePromptConnect                // no account: ask the user to connect
	PhaseSelectCharacter              // connected, no character yet
	PhaseArena                        // connected with a character
)

var phaseNames = map[Phase]string{
	PhaseLoading:         "loading",
	PhasePromptConnect:   "prompt_connect",
	PhaseSelectCharacter: "select_character",
	PhaseArena:           "arena",
}

func (p Phase) String() string {
	if s, ok := phaseNames[p]; ok {
		return s
	}
	return "unknown"
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name.
func (p *Phase) UnmarshalText(text []byte) error {
	for phase, name := range phaseNames {
		if name == string(text) {
			*p = phase
			return nil
		}
	}
	return fmt.Errorf("game: unknown phase %q", text)
}

// SelectPhase maps a session to the phase to render.  It has no side
// effects and must be re-evaluated on every session change.
func SelectPhase(s Session) Phase {
	switch {
	case s.Loading:
		return PhaseLoading
	case !s.HasAccount():
		return PhasePromptConnect
	case s.Character == nil:
		return PhaseSelectCharacter
	default:
		return PhaseArena
	}
}
