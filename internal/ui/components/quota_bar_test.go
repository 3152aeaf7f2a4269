package components

import (
	"strings"
	"testing"
)

func TestQuotaBar_View(t *testing.T) {
	bar := NewQuotaBar()
	view := bar.View(50.0, "Test", 40)
	if view == "" {
		t.Error("View() returned empty string")
	}
}

func TestQuotaBar_ViewCompact(t *testing.T) {
	bar := NewQuotaBar()
	view := bar.ViewCompact(50.0, 20)
	if !strings.Contains(view, "50%") {
		t.Error("ViewCompact() should contain percentage")
	}
}

func TestQuotaBar_ViewExhausted(t *testing.T) {
	bar := NewQuotaBar()
	view := bar.ViewExhausted("Test", 40)
	if !strings.Contains(view, "EXHAUSTED") {
		t.Error("ViewExhausted() should contain status")
	}
}

func TestRenderGradientBar(t *testing.T) {
	s := RenderGradientBar(50.0, 10)
	if len(s) == 0 {
		t.Error("RenderGradientBar returned empty")
	}
}

func TestSimpleQuotaBar(t *testing.T) {
	s := SimpleQuotaBar(50.0, "Test", 40)
	if len(s) == 0 {
		t.Error("SimpleQuotaBar returned empty")
	}
	if !strings.Contains(s, "50%") {
		t.Error("SimpleQuotaBar should contain percentage")
	}
}

func TestFractionBar(t *testing.T) {
	f := 0.25
	s := FractionBar(&f, "gemini-2.5-pro", 40)
	if !strings.Contains(s, "25%") {
		t.Error("FractionBar should render fraction as percent")
	}

	s = FractionBar(nil, "gemini-2.5-pro", 40)
	if !strings.Contains(s, "n/a") {
		t.Error("FractionBar should render placeholder for nil")
	}
}

func TestSimpleQuotaBarLoading(t *testing.T) {
	for _, provider := range []string{"codex", "gemini", "antigravity", "other"} {
		s := SimpleQuotaBarLoading(provider, 40, 0)
		if len(s) == 0 {
			t.Errorf("SimpleQuotaBarLoading(%q) returned empty", provider)
		}
	}
}

func TestNewQuotaBarWithWidth(t *testing.T) {
	bar := NewQuotaBarWithWidth(30)
	if bar.progress.Width != 30 {
		t.Errorf("Width = %d, want 30", bar.progress.Width)
	}
}

func TestQuotaBar_InitUpdate(t *testing.T) {
	bar := NewQuotaBar()
	if bar.Init() != nil {
		t.Error("Init should return nil")
	}

	model, _ := bar.Update(nil)
	_ = model
}

func TestInterpolateColor(t *testing.T) {
	got := interpolateColor("#000000", "#ffffff", 0)
	if got != "#000000" {
		t.Errorf("t=0: got %s", got)
	}
	got = interpolateColor("#000000", "#ffffff", 1)
	if got != "#ffffff" {
		t.Errorf("t=1: got %s", got)
	}
}
