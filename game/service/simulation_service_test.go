package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/treasure-hunt/game/engine"
	"github.com/wricardo/treasure-hunt/game/service"
)

// MockRunStore implements service.RunStore for testing
type MockRunStore struct {
	records map[string]*service.RunRecord
	created int
}

func NewMockRunStore() *MockRunStore {
	return &MockRunStore{records: make(map[string]*service.RunRecord)}
}

func (m *MockRunStore) Create(id, configID string, result *engine.RunResult) (*service.RunRecord, error) {
	if id == "" {
		id = fmt.Sprintf("run_%d", len(m.records)+1)
	}
	m.created++
	record := &service.RunRecord{
		ID:        id,
		ConfigID:  configID,
		CreatedAt: time.Now().Add(time.Duration(m.created) * time.Millisecond),
		Result:    result,
	}
	m.records[id] = record
	return record, nil
}

func (m *MockRunStore) Get(id string) (*service.RunRecord, error) {
	record, exists := m.records[id]
	if !exists {
		return nil, service.ErrRunNotFound
	}
	return record, nil
}

func (m *MockRunStore) List() []*service.RunRecord {
	result := make([]*service.RunRecord, 0, len(m.records))
	for _, record := range m.records {
		result = append(result, record)
	}
	return result
}

func (m *MockRunStore) Delete(id string) error {
	if _, exists := m.records[id]; !exists {
		return service.ErrRunNotFound
	}
	delete(m.records, id)
	return nil
}

// MockConfigManager implements service.ConfigManager for testing
type MockConfigManager struct {
	configs map[string]*engine.WorldConfig
}

func NewMockConfigManager() *MockConfigManager {
	single := &engine.WorldConfig{
		Name:     "Single",
		Rows:     6,
		Cols:     10,
		Registry: engine.Registry{Treasures: []engine.Cell{{Row: 2, Col: 5}}},
	}
	return &MockConfigManager{configs: map[string]*engine.WorldConfig{
		"classic": engine.DefaultWorldConfig(),
		"single":  single,
	}}
}

func (m *MockConfigManager) LoadConfig(name string) (*engine.WorldConfig, error) {
	config, exists := m.configs[name]
	if !exists {
		return nil, service.ErrConfigNotFound
	}
	return config, nil
}

func (m *MockConfigManager) ListConfigs() ([]*service.ConfigInfo, error) {
	var infos []*service.ConfigInfo
	for id, config := range m.configs {
		infos = append(infos, service.NewConfigInfo(id+".json", id, config))
	}
	return infos, nil
}

func (m *MockConfigManager) GetDefault() *engine.WorldConfig {
	return m.configs["classic"]
}

func (m *MockConfigManager) SaveConfig(name string, config *engine.WorldConfig) error {
	if err := engine.ValidateWorldConfig(config); err != nil {
		return fmt.Errorf("%w: %v", service.ErrInvalidConfig, err)
	}
	m.configs[name] = config
	return nil
}

type publishedEvent struct {
	topic, event, runID string
}

// MockPublisher records published run events
type MockPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (m *MockPublisher) PublishRunEvent(topic, event, runID string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, publishedEvent{topic, event, runID})
}

func (m *MockPublisher) count(event string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.events {
		if e.event == event {
			n++
		}
	}
	return n
}

func newTestService() (service.SimulationService, *MockRunStore, *MockPublisher) {
	store := NewMockRunStore()
	publisher := &MockPublisher{}
	svc := service.NewSimulationService(store, NewMockConfigManager(), service.WithPublisher(publisher))
	return svc, store, publisher
}

func TestListConfigs(t *testing.T) {
	svc, _, _ := newTestService()

	configs, err := svc.ListConfigs(context.Background())
	if err != nil {
		t.Fatalf("ListConfigs failed: %v", err)
	}
	if len(configs) != 2 || configs[0].ConfigID != "classic" || configs[1].ConfigID != "single" {
		t.Fatalf("Expected sorted [classic single], got %d configs", len(configs))
	}
	if configs[0].Treasures != 4 || configs[0].Obstacles != 9 {
		t.Errorf("Unexpected classic counts: %+v", configs[0])
	}
}

func TestLoadConfig_NotFound(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.LoadConfig(context.Background(), "missing")
	if !errors.Is(err, service.ErrConfigNotFound) {
		t.Errorf("Expected ErrConfigNotFound, got %v", err)
	}
}

func TestSaveConfig(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if err := svc.SaveConfig(ctx, "", engine.DefaultWorldConfig()); !errors.Is(err, service.ErrInvalidRequest) {
		t.Errorf("Expected ErrInvalidRequest for empty name, got %v", err)
	}
	if err := svc.SaveConfig(ctx, "broken", &engine.WorldConfig{}); !errors.Is(err, service.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}

	config := &engine.WorldConfig{Name: "tiny", Layout: []string{"S.X"}}
	if err := svc.SaveConfig(ctx, "tiny", config); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	if _, err := svc.LoadConfig(ctx, "tiny"); err != nil {
		t.Errorf("Expected saved config to load, got %v", err)
	}
}

func TestRenderConfig(t *testing.T) {
	svc, _, _ := newTestService()

	view, err := svc.RenderConfig(context.Background(), "classic")
	if err != nil {
		t.Fatalf("RenderConfig failed: %v", err)
	}
	if view.Rows != 6 || view.Cols != 10 {
		t.Errorf("Expected 6x10, got %dx%d", view.Rows, view.Cols)
	}
	if view.Grid[0][0] != "PS" || view.Grid[2][5] != "XX" || view.Grid[3][6] != "T3" {
		t.Errorf("Unexpected grid: %v", view.Grid)
	}
	if len(view.Legend) == 0 || view.Text == "" {
		t.Error("Expected legend and text")
	}
}

func TestRenderConfig_Default(t *testing.T) {
	svc, _, _ := newTestService()

	for _, name := range []string{"", service.DefaultConfigName} {
		view, err := svc.RenderConfig(context.Background(), name)
		if err != nil {
			t.Fatalf("RenderConfig(%q) failed: %v", name, err)
		}
		if view.ConfigID != "classic" {
			t.Errorf("Expected default config id 'classic', got '%s'", view.ConfigID)
		}
	}
}

func TestFindPath(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	result, err := svc.FindPath(ctx, "single", service.PathRequest{To: engine.Cell{Row: 2, Col: 5}})
	if err != nil {
		t.Fatalf("FindPath failed: %v", err)
	}
	if !result.Reachable || result.Length != 7 || len(result.Directions) != 7 {
		t.Errorf("Expected a 7-step path, got %+v", result)
	}
	if result.From != (engine.Cell{}) {
		t.Errorf("Expected the path to start at the player start, got %s", result.From)
	}

	result, err = svc.FindPath(ctx, "classic", service.PathRequest{
		From: &engine.Cell{Row: 0, Col: 0},
		To:   engine.Cell{Row: 1, Col: 4},
	})
	if err != nil {
		t.Fatalf("FindPath failed: %v", err)
	}
	if result.Reachable {
		t.Error("Expected an obstacle goal to be unreachable")
	}

	_, err = svc.FindPath(ctx, "classic", service.PathRequest{To: engine.Cell{Row: 6, Col: 0}})
	if !errors.Is(err, service.ErrInvalidRequest) {
		t.Errorf("Expected ErrInvalidRequest, got %v", err)
	}
}

func TestRun(t *testing.T) {
	svc, store, publisher := newTestService()
	ctx := context.Background()

	info, err := svc.Run(ctx, "single", service.RunOptions{IncludeSteps: true})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if info.ID == "" || info.ConfigID != "single" {
		t.Errorf("Unexpected run info: %+v", info)
	}
	if info.Result.TotalSteps != 7 || info.Result.FinalEnergy != 93 {
		t.Errorf("Expected 7 steps and energy 93, got %d and %g", info.Result.TotalSteps, info.Result.FinalEnergy)
	}
	if len(info.Result.Steps) != 7 {
		t.Errorf("Expected 7 step records, got %d", len(info.Result.Steps))
	}
	if _, err := store.Get(info.ID); err != nil {
		t.Errorf("Expected the run to be stored: %v", err)
	}

	if publisher.count(service.EventRunStarted) != 1 || publisher.count(service.EventRunFinished) != 1 {
		t.Error("Expected one run_started and one run_finished event")
	}
	if publisher.count(service.EventStep) != 7 || publisher.count(service.EventLeg) != 1 {
		t.Errorf("Expected 7 step and 1 leg events, got %d and %d",
			publisher.count(service.EventStep), publisher.count(service.EventLeg))
	}
	for _, e := range publisher.events {
		if e.topic != "single" || e.runID != info.ID {
			t.Errorf("Unexpected event routing: %+v", e)
		}
	}
}

func TestRun_EphemeralAndSteps(t *testing.T) {
	svc, store, _ := newTestService()

	info, err := svc.Run(context.Background(), "classic", service.RunOptions{Ephemeral: true})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(store.records) != 0 {
		t.Error("Expected an ephemeral run not to be stored")
	}
	if info.Result.Steps != nil {
		t.Error("Expected steps to be omitted by default")
	}
	if len(info.Result.Legs) != 4 {
		t.Errorf("Expected 4 legs, got %d", len(info.Result.Legs))
	}
}

func TestRun_UnknownConfig(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Run(context.Background(), "nope", service.RunOptions{})
	if !errors.Is(err, service.ErrConfigNotFound) {
		t.Errorf("Expected ErrConfigNotFound, got %v", err)
	}
}

func TestRunHistory(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	first, _ := svc.Run(ctx, "single", service.RunOptions{})
	second, _ := svc.Run(ctx, "classic", service.RunOptions{})
	third, _ := svc.Run(ctx, "single", service.RunOptions{})

	all, err := svc.ListRuns(ctx, service.RunFilter{})
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(all) != 3 || all[0].ID != third.ID {
		t.Errorf("Expected 3 runs newest first, got %d", len(all))
	}

	singles, _ := svc.ListRuns(ctx, service.RunFilter{ConfigID: "single"})
	if len(singles) != 2 {
		t.Errorf("Expected 2 single runs, got %d", len(singles))
	}

	limited, _ := svc.ListRuns(ctx, service.RunFilter{Limit: 1})
	if len(limited) != 1 {
		t.Errorf("Expected limit to apply, got %d", len(limited))
	}

	got, err := svc.GetRun(ctx, second.ID)
	if err != nil || got.ConfigID != "classic" {
		t.Errorf("GetRun returned %+v, %v", got, err)
	}

	if err := svc.DeleteRun(ctx, first.ID); err != nil {
		t.Fatalf("DeleteRun failed: %v", err)
	}
	if _, err := svc.GetRun(ctx, first.ID); !errors.Is(err, service.ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound after delete, got %v", err)
	}
}
