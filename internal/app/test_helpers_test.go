package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/example/canvasai/internal/config"
	"github.com/example/canvasai/internal/core/effects"
	"github.com/example/canvasai/internal/core/policy"
	"github.com/example/canvasai/internal/logging"
	"github.com/example/canvasai/internal/ports/secondary"
)

var testNow = time.Date(2026, 2, 20, 9, 30, 0, 0, time.UTC)

// fakeClock returns a controllable time source.
type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

var discardLogger = logging.Discard()

func int64Ptr(v int64) *int64 { return &v }
func strPtr(v string) *string { return &v }

// ============================================================================
// mockRunRepository
// ============================================================================

var _ secondary.RunRepository = (*mockRunRepository)(nil)

type mockRunRepository struct {
	runs      map[string]*secondary.RunRecord
	order     []string
	updates   []string // statuses passed to Update, in order
	createErr error
	updateErr error
	nextID    int
}

func newMockRunRepository() *mockRunRepository {
	return &mockRunRepository{runs: make(map[string]*secondary.RunRecord)}
}

func (m *mockRunRepository) Create(ctx context.Context, command, status, metadataJSON string) (string, error) {
	if m.createErr != nil {
		return "", m.createErr
	}
	m.nextID++
	id := fmt.Sprintf("run_%016d", m.nextID)
	m.runs[id] = &secondary.RunRecord{ID: id, Command: command, Status: status, MetadataJSON: metadataJSON}
	m.order = append(m.order, id)
	return id, nil
}

func (m *mockRunRepository) GetByID(ctx context.Context, id string) (*secondary.RunRecord, error) {
	r, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", id, secondary.ErrNotFound)
	}
	copied := *r
	return &copied, nil
}

func (m *mockRunRepository) Update(ctx context.Context, id, status string, metadataJSON *string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	r, ok := m.runs[id]
	if !ok {
		return fmt.Errorf("run %s: %w", id, secondary.ErrNotFound)
	}
	r.Status = status
	if metadataJSON != nil {
		r.MetadataJSON = *metadataJSON
	}
	m.updates = append(m.updates, status)
	return nil
}

func (m *mockRunRepository) List(ctx context.Context, limit int) ([]*secondary.RunRecord, error) {
	var out []*secondary.RunRecord
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.runs[m.order[i]])
	}
	return out, nil
}

func (m *mockRunRepository) CountByCommandStatus(ctx context.Context) ([]*secondary.RunCount, error) {
	buckets := map[[2]string]int{}
	for _, r := range m.runs {
		buckets[[2]string{r.Command, r.Status}]++
	}
	var out []*secondary.RunCount
	for k, n := range buckets {
		out = append(out, &secondary.RunCount{Command: k[0], Status: k[1], Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Command != out[j].Command {
			return out[i].Command < out[j].Command
		}
		return out[i].Status < out[j].Status
	})
	return out, nil
}

// ============================================================================
// mockFeedbackRepository
// ============================================================================

var _ secondary.FeedbackRepository = (*mockFeedbackRepository)(nil)

type mockFeedbackRepository struct {
	records   []*secondary.FeedbackRecord // newest first
	listCalls int
	listErr   error
}

func (m *mockFeedbackRepository) Create(ctx context.Context, record *secondary.FeedbackRecord) (int64, error) {
	record.ID = int64(len(m.records) + 1)
	m.records = append([]*secondary.FeedbackRecord{record}, m.records...)
	return record.ID, nil
}

func (m *mockFeedbackRepository) List(ctx context.Context, filters secondary.FeedbackFilters) ([]*secondary.FeedbackRecord, error) {
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*secondary.FeedbackRecord
	for _, r := range m.records {
		if filters.CourseID != nil && (r.CourseID == nil || *r.CourseID != *filters.CourseID) {
			continue
		}
		if filters.AssignmentID != nil && (r.AssignmentID == nil || *r.AssignmentID != *filters.AssignmentID) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// ============================================================================
// mockPlanRepository
// ============================================================================

var _ secondary.PlanRepository = (*mockPlanRepository)(nil)

type mockPlanRepository struct {
	plans map[string]*secondary.PlanRecord
}

func newMockPlanRepository() *mockPlanRepository {
	return &mockPlanRepository{plans: make(map[string]*secondary.PlanRecord)}
}

func (m *mockPlanRepository) Create(ctx context.Context, assignmentID int64, stepsJSON string) (string, error) {
	id := fmt.Sprintf("plan_%016d", len(m.plans)+1)
	m.plans[id] = &secondary.PlanRecord{ID: id, AssignmentID: assignmentID, StepsJSON: stepsJSON}
	return id, nil
}

func (m *mockPlanRepository) GetByID(ctx context.Context, id string) (*secondary.PlanRecord, error) {
	p, ok := m.plans[id]
	if !ok {
		return nil, fmt.Errorf("plan %s: %w", id, secondary.ErrNotFound)
	}
	return p, nil
}

// ============================================================================
// mockReviewTokenRepository / mockIdempotencyRepository / mockActionLog
// ============================================================================

var _ secondary.ReviewTokenRepository = (*mockReviewTokenRepository)(nil)

type mockReviewTokenRepository struct {
	tokens map[string]*secondary.ReviewTokenRecord
}

func newMockReviewTokenRepository() *mockReviewTokenRepository {
	return &mockReviewTokenRepository{tokens: make(map[string]*secondary.ReviewTokenRecord)}
}

func (m *mockReviewTokenRepository) Create(ctx context.Context, token *secondary.ReviewTokenRecord) error {
	m.tokens[token.TokenHash] = token
	return nil
}

func (m *mockReviewTokenRepository) GetByHash(ctx context.Context, tokenHash string) (*secondary.ReviewTokenRecord, error) {
	t, ok := m.tokens[tokenHash]
	if !ok {
		return nil, fmt.Errorf("review token: %w", secondary.ErrNotFound)
	}
	return t, nil
}

var _ secondary.IdempotencyRepository = (*mockIdempotencyRepository)(nil)

type mockIdempotencyRepository struct {
	records map[string]*secondary.IdempotencyRecord
}

func newMockIdempotencyRepository() *mockIdempotencyRepository {
	return &mockIdempotencyRepository{records: make(map[string]*secondary.IdempotencyRecord)}
}

func (m *mockIdempotencyRepository) Create(ctx context.Context, record *secondary.IdempotencyRecord) error {
	if _, exists := m.records[record.Key]; exists {
		return errors.New("UNIQUE constraint failed: submission_idempotency.idempotency_key")
	}
	m.records[record.Key] = record
	return nil
}

func (m *mockIdempotencyRepository) GetByKey(ctx context.Context, key string) (*secondary.IdempotencyRecord, error) {
	r, ok := m.records[key]
	if !ok {
		return nil, fmt.Errorf("idempotency key %s: %w", key, secondary.ErrNotFound)
	}
	return r, nil
}

var _ secondary.ActionLog = (*mockActionLog)(nil)

type mockActionLog struct {
	entries [][2]string
	codes   []*secondary.ErrorCodeCount
}

func (m *mockActionLog) Record(ctx context.Context, command, payload string) error {
	m.entries = append(m.entries, [2]string{command, payload})
	return nil
}

func (m *mockActionLog) TopErrorCodes(ctx context.Context, limit int) ([]*secondary.ErrorCodeCount, error) {
	if len(m.codes) > limit {
		return m.codes[:limit], nil
	}
	return m.codes, nil
}

// ============================================================================
// mockCanvasClient / mockClientProvider
// ============================================================================

var _ secondary.CanvasClient = (*mockCanvasClient)(nil)

type mockCanvasClient struct {
	assignment         *secondary.Assignment
	assignmentErr      error
	getAssignmentCalls int

	courses     []secondary.Course
	due         []secondary.Assignment
	dueWithin   time.Duration
	accounts    []secondary.Account
	accountsErr error
	theme       *secondary.Theme
	themeErr    error

	submitCalls int
	submitErr   error
}

func (m *mockCanvasClient) ListCourses(ctx context.Context) ([]secondary.Course, error) {
	return m.courses, nil
}

func (m *mockCanvasClient) ListAssignmentsDue(ctx context.Context, within time.Duration) ([]secondary.Assignment, error) {
	m.dueWithin = within
	return m.due, nil
}

func (m *mockCanvasClient) GetAssignment(ctx context.Context, id int64) (*secondary.Assignment, error) {
	m.getAssignmentCalls++
	if m.assignmentErr != nil {
		return nil, m.assignmentErr
	}
	return m.assignment, nil
}

func (m *mockCanvasClient) ListAccounts(ctx context.Context) ([]secondary.Account, error) {
	return m.accounts, m.accountsErr
}

func (m *mockCanvasClient) GetBrandingTheme(ctx context.Context) (*secondary.Theme, error) {
	return m.theme, m.themeErr
}

func (m *mockCanvasClient) SubmitAssignment(ctx context.Context, assignmentID int64, filePath string) (map[string]any, error) {
	m.submitCalls++
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	return map[string]any{"status": "stubbed", "message": "Submission flow placeholder. Human-confirmed execution only."}, nil
}

var _ secondary.ClientProvider = (*mockClientProvider)(nil)

type mockClientProvider struct {
	client *mockCanvasClient
	err    error
}

func (m *mockClientProvider) Client(ctx context.Context) (secondary.CanvasClient, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.client, nil
}

func (m *mockClientProvider) OptionalClient(ctx context.Context) secondary.CanvasClient {
	if m.err != nil || m.client == nil {
		return nil
	}
	return m.client
}

// ============================================================================
// mockPolicyStore / mockSettingsStore
// ============================================================================

var _ secondary.PolicyStore = (*mockPolicyStore)(nil)

type mockPolicyStore struct {
	doc     policy.Document
	loadErr error
	written []policy.Document
}

func (m *mockPolicyStore) Load(ctx context.Context) (*policy.Document, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	doc := m.doc
	return &doc, nil
}

func (m *mockPolicyStore) WriteTemplate(ctx context.Context, doc policy.Document) (string, error) {
	m.written = append(m.written, doc)
	return "/cfg/policy.json", nil
}

var _ secondary.SettingsStore = (*mockSettingsStore)(nil)

type mockSettingsStore struct {
	cfg      config.Config
	envURL   string
	envToken string
	saves    int
}

func (m *mockSettingsStore) Load() (*config.Config, error) {
	cfg := m.cfg
	return &cfg, nil
}

func (m *mockSettingsStore) Save(cfg *config.Config) (string, error) {
	m.cfg = *cfg
	m.saves++
	return m.Path(), nil
}

func (m *mockSettingsStore) Settings() (*config.Settings, error) {
	s := &config.Settings{
		BaseURL:  m.cfg.CanvasBaseURL,
		Token:    m.cfg.Auth.Token,
		AuthMode: config.NormalizeAuthMode(m.cfg.Auth.Mode),
		Branding: m.cfg.Branding,
	}
	if m.envURL != "" {
		s.BaseURL = m.envURL
	}
	if m.envToken != "" {
		s.Token = m.envToken
	}
	return s, nil
}

func (m *mockSettingsStore) Path() string { return "/cfg/config.json" }

// ============================================================================
// recordingExecutor
// ============================================================================

var _ EffectExecutor = (*recordingExecutor)(nil)

type recordingExecutor struct {
	executed []effects.Effect
	err      error
}

func (r *recordingExecutor) Execute(ctx context.Context, effs []effects.Effect) error {
	if r.err != nil {
		return r.err
	}
	r.executed = append(r.executed, effs...)
	return nil
}
