package ui

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"sysmonitor/internal/models"
)

type fakeStore struct {
	mu   sync.Mutex
	snap *models.Snapshot
}

func (f *fakeStore) Latest() *models.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.snap == nil {
		return models.EmptySnapshot()
	}
	return f.snap
}

func (f *fakeStore) set(s *models.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap = s
}

func manySensors(n int, base float64) []models.SensorReading {
	out := make([]models.SensorReading, n)
	for i := range out {
		out[i] = models.SensorReading{Name: fmt.Sprintf("Sensor %02d", i), Value: models.FloatValue(base + float64(i))}
	}
	return out
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want ui.Model", next)
	}
	return model, cmd
}

func TestModelRendersPlaceholderBeforeFirstSample(t *testing.T) {
	m := NewModel(&fakeStore{}, time.Second, ClassicTheme())
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})

	view := m.View()
	for _, want := range []string{
		"CPU Utilization: 0.0 %",
		"Memory Usage: 0.0 %",
		"GPU Memory Used: 0.00 MB / 0.00 MB",
		"waiting for first sample",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestModelRefreshReadsStoreAndRearms(t *testing.T) {
	store := &fakeStore{}
	m := NewModel(store, time.Second, ModernTheme())
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m.now = func() time.Time { return now }

	store.set(&models.Snapshot{
		Seq:           1,
		TakenAt:       now.Add(-3 * time.Second),
		CPUPercent:    models.Float64(12.5),
		MemoryPercent: models.Float64(48.123),
		GPU:           &models.GPUMemory{UsedBytes: 1073741824, TotalBytes: 8589934592},
		Sensors: []models.SensorReading{
			{Name: "CPU Temp", Value: models.FloatValue(55.678)},
			{Name: "Fan Speed", Value: models.IntValue(1200)},
		},
	})

	m, cmd := update(t, m, refreshMsg(now))
	if cmd == nil {
		t.Fatal("refresh must re-arm the timer")
	}

	r := m.Rendered()
	if r.CPU != "CPU Utilization: 12.5 %" || r.Memory != "Memory Usage: 48.12 %" {
		t.Errorf("labels = %q / %q", r.CPU, r.Memory)
	}
	if r.GPU != "GPU Memory Used: 1024.00 MB / 8192.00 MB" {
		t.Errorf("gpu = %q", r.GPU)
	}
	if r.SensorText() != "CPU Temp: 55.68\nFan Speed: 1200" {
		t.Errorf("sensors = %q", r.SensorText())
	}
	if !strings.Contains(m.View(), "updated 3 seconds ago") {
		t.Errorf("status line missing age:\n%s", m.View())
	}
}

func TestModelRefreshKeepsScrollFraction(t *testing.T) {
	store := &fakeStore{}
	store.set(&models.Snapshot{Seq: 1, Sensors: manySensors(100, 30)})

	m := NewModel(store, time.Second, ClassicTheme())
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 30})
	m.pane.SetFraction(0.42)

	store.set(&models.Snapshot{Seq: 2, Sensors: manySensors(100, 60)})
	m, _ = update(t, m, refreshMsg(time.Now()))

	if got := m.ScrollFraction(); got != 0.42 {
		t.Errorf("scroll fraction after refresh = %v, want 0.42", got)
	}
	if !strings.Contains(m.View(), "Sensor 42: 102.0") {
		t.Errorf("view should show refreshed line 42 at the top:\n%s", m.View())
	}
}

func TestModelQuitKey(t *testing.T) {
	m := NewModel(&fakeStore{}, time.Second, ClassicTheme())
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("q produced %T, want tea.QuitMsg", cmd())
	}
}

func TestModelHomeEndKeys(t *testing.T) {
	store := &fakeStore{}
	store.set(&models.Snapshot{Seq: 1, Sensors: manySensors(100, 0)})
	m := NewModel(store, time.Second, ClassicTheme())
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 30})

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnd})
	if m.pane.YOffset() == 0 {
		t.Error("end should scroll to the bottom")
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyHome})
	if m.pane.YOffset() != 0 {
		t.Errorf("home offset = %d, want 0", m.pane.YOffset())
	}
}

func TestThemeByName(t *testing.T) {
	if ThemeByName("MODERN").Name != "modern" {
		t.Error("modern theme lookup should be case-insensitive")
	}
	if ThemeByName("unknown").Name != "classic" {
		t.Error("unknown theme should fall back to classic")
	}
}

func TestInitSchedulesRefresh(t *testing.T) {
	m := NewModel(&fakeStore{}, 10*time.Millisecond, ClassicTheme())
	cmd := m.Init()
	if cmd == nil {
		t.Fatal("Init should schedule a refresh")
	}
	if _, ok := cmd().(refreshMsg); !ok {
		t.Error("Init command should produce a refreshMsg")
	}
}
