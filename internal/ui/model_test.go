// ABOUTME: Tests for TUI model and state management
// ABOUTME: Tests status updates, message handling and rendering helpers
package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestNewModel(t *testing.T) {
	model := NewModel()

	if model.state != "idle" {
		t.Errorf("expected initial state 'idle', got %q", model.state)
	}
	if model.format != "" {
		t.Errorf("expected no format initially, got %q", model.format)
	}
}

func TestStatusMsgUpdatesStream(t *testing.T) {
	model := NewModel()

	model.applyStatus(StatusMsg{
		DeviceName: "default",
		Format:     "FLOAT_LE",
		SampleRate: 48000,
		Channels:   2,
		State:      "Started",
		BufferSize: 4096,
		Position:   512,
	})

	if model.deviceName != "default" {
		t.Errorf("expected device 'default', got %q", model.deviceName)
	}
	if model.format != "FLOAT_LE" || model.sampleRate != 48000 || model.channels != 2 {
		t.Errorf("stream info not applied: %q %d %d",
			model.format, model.sampleRate, model.channels)
	}
	if model.position != 512 || model.bufferSize != 4096 {
		t.Errorf("position not applied: %d/%d", model.position, model.bufferSize)
	}
}

func TestStatusMsgPartialUpdate(t *testing.T) {
	model := NewModel()
	model.applyStatus(StatusMsg{State: "Started", Format: "S16_LE", SampleRate: 44100, Channels: 1})

	// A later message without format info must not wipe it.
	model.applyStatus(StatusMsg{State: "Paused"})

	if model.format != "S16_LE" {
		t.Errorf("format was wiped by partial update: %q", model.format)
	}
	if model.state != "Paused" {
		t.Errorf("expected state 'Paused', got %q", model.state)
	}
}

func TestQuitOnKey(t *testing.T) {
	model := NewModel()

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected quit command on 'q'")
	}
}

func TestViewRendersStream(t *testing.T) {
	model := NewModel()
	model.width = 80
	model.height = 24
	model.applyStatus(StatusMsg{
		DeviceName: "default",
		Format:     "S16_LE",
		SampleRate: 48000,
		Channels:   2,
		State:      "Started",
		SourceName: "test tone",
		BufferSize: 16384,
		Position:   1024,
	})

	view := model.View()
	for _, want := range []string{"S16_LE", "48000", "stereo", "Started", "test tone"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestRenderBar(t *testing.T) {
	tests := []struct {
		name   string
		value  int
		max    int
		filled int
	}{
		{"empty", 0, 100, 0},
		{"half", 50, 100, 5},
		{"full", 100, 100, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := renderBar(tt.value, tt.max, 10)
			if got := strings.Count(bar, "█"); got != tt.filled {
				t.Errorf("expected %d filled cells, got %d", tt.filled, got)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("expected unchanged string, got %q", got)
	}
	if got := truncate("a very long device name", 10); len(got) != 10 {
		t.Errorf("expected 10 characters, got %q", got)
	}
}
