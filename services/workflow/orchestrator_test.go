package workflow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/rasel1911/onelimo/models"
	"github.com/rasel1911/onelimo/services/intelligence"
	"github.com/rasel1911/onelimo/services/linkcodec"
	"github.com/rasel1911/onelimo/services/matching"
	"github.com/rasel1911/onelimo/services/notification"
	"github.com/rasel1911/onelimo/services/quotes"
)

// ---- in-memory repositories ----

type memRunRepo struct {
	mu   sync.Mutex
	runs map[string]*models.WorkflowRun
}

func newMemRunRepo() *memRunRepo { return &memRunRepo{runs: make(map[string]*models.WorkflowRun)} }

func (r *memRunRepo) Create(run *models.WorkflowRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = run
	return nil
}
func (r *memRunRepo) Update(run *models.WorkflowRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.runs[run.ID]; !ok {
		return fmt.Errorf("workflow run %s not found", run.ID)
	}
	r.runs[run.ID] = run
	return nil
}
func (r *memRunRepo) UpdateSetDocument(id string, doc bson.M) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return fmt.Errorf("workflow run %s not found", id)
	}
	for k, v := range doc {
		switch k {
		case "booking_analysis":
			run.BookingAnalysis = v.(string)
		case "quote_analysis_summary":
			run.QuoteAnalysisSummary = v.(string)
		case "selected_provider_id":
			run.SelectedProviderID = v.(string)
		case "selected_quote_id":
			run.SelectedQuoteID = v.(string)
		case "selected_quote_amount":
			run.SelectedQuoteAmount = v.(float64)
		case "customer_link_hash":
			run.CustomerLinkHash = v.(string)
		case "customer_link_payload":
			run.CustomerLinkPayload = v.(string)
		case "customer_link_expiry":
			run.CustomerLinkExpiry = v.(time.Time)
		}
	}
	return nil
}
func (r *memRunRepo) GetByID(id string) (*models.WorkflowRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, fmt.Errorf("workflow run %s not found", id)
	}
	return run, nil
}
func (r *memRunRepo) GetByBookingRequestID(bookingRequestID string) (*models.WorkflowRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, run := range r.runs {
		if run.BookingRequestID == bookingRequestID {
			return run, nil
		}
	}
	return nil, nil
}
func (r *memRunRepo) GetByCustomerLinkHash(hash string) (*models.WorkflowRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, run := range r.runs {
		if run.CustomerLinkHash == hash {
			return run, nil
		}
	}
	return nil, nil
}

type memStepRepo struct {
	mu    sync.Mutex
	steps map[string][]*models.WorkflowStep
}

func newMemStepRepo() *memStepRepo {
	return &memStepRepo{steps: make(map[string][]*models.WorkflowStep)}
}

func (r *memStepRepo) CreateMany(steps []models.WorkflowStep) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range steps {
		s := steps[i]
		r.steps[s.WorkflowRunID] = append(r.steps[s.WorkflowRunID], &s)
	}
	return nil
}
func (r *memStepRepo) Update(step *models.WorkflowStep) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.steps[step.WorkflowRunID] {
		if s.ID == step.ID {
			*s = *step
			return nil
		}
	}
	return fmt.Errorf("workflow step %s not found", step.ID)
}
func (r *memStepRepo) GetByRunID(runID string) ([]models.WorkflowStep, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.WorkflowStep
	for _, s := range r.steps[runID] {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}
func (r *memStepRepo) GetByRunAndName(runID, name string) (*models.WorkflowStep, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.steps[runID] {
		if s.Name == name {
			copied := *s
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("workflow step %q not found for run %s", name, runID)
}

type memWFProviderRepo struct {
	mu        sync.Mutex
	providers map[string]*models.WorkflowProvider
}

func newMemWFProviderRepo() *memWFProviderRepo {
	return &memWFProviderRepo{providers: make(map[string]*models.WorkflowProvider)}
}

func (r *memWFProviderRepo) CreateMany(providers []models.WorkflowProvider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range providers {
		p := providers[i]
		r.providers[p.ID] = &p
	}
	return nil
}
func (r *memWFProviderRepo) Update(p *models.WorkflowProvider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.ID] = p
	return nil
}
func (r *memWFProviderRepo) UpdateSetDocument(id string, doc bson.M) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.providers[id]
	if !ok {
		return fmt.Errorf("workflow provider %s not found", id)
	}
	for k, v := range doc {
		switch k {
		case "contact_status":
			p.ContactStatus = v.(string)
		case "link_hash":
			p.LinkHash = v.(string)
		case "link_payload":
			p.LinkPayload = v.(string)
		case "link_expiry":
			p.LinkExpiry = v.(time.Time)
		case "has_responded":
			p.HasResponded = v.(bool)
		case "response_status":
			p.ResponseStatus = v.(string)
		case "response_time":
			t := v.(time.Time)
			p.ResponseTime = &t
		case "response_notes":
			p.ResponseNotes = v.(string)
		case "has_quoted":
			p.HasQuoted = v.(bool)
		case "quote_amount":
			p.QuoteAmount = v.(float64)
		case "quote_time":
			t := v.(time.Time)
			p.QuoteTime = &t
		}
	}
	return nil
}
func (r *memWFProviderRepo) GetByID(id string) (*models.WorkflowProvider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.providers[id]
	if !ok {
		return nil, fmt.Errorf("workflow provider %s not found", id)
	}
	copied := *p
	return &copied, nil
}
func (r *memWFProviderRepo) GetByRunID(runID string) ([]models.WorkflowProvider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.WorkflowProvider
	for _, p := range r.providers {
		if p.WorkflowRunID == runID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
func (r *memWFProviderRepo) GetByLinkHash(hash string) (*models.WorkflowProvider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.providers {
		if p.LinkHash == hash {
			copied := *p
			return &copied, nil
		}
	}
	return nil, nil
}

type memQuoteRepo struct {
	mu     sync.Mutex
	quotes map[string]*models.WorkflowQuote
}

func newMemQuoteRepo() *memQuoteRepo {
	return &memQuoteRepo{quotes: make(map[string]*models.WorkflowQuote)}
}

func (r *memQuoteRepo) Create(q *models.WorkflowQuote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *q
	r.quotes[q.ID] = &copied
	return nil
}
func (r *memQuoteRepo) GetByID(id string) (*models.WorkflowQuote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.quotes[id]
	if !ok {
		return nil, fmt.Errorf("quote %s not found", id)
	}
	copied := *q
	return &copied, nil
}
func (r *memQuoteRepo) GetByRunID(runID string) ([]models.WorkflowQuote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.WorkflowQuote
	for _, q := range r.quotes {
		if q.WorkflowRunID == runID {
			out = append(out, *q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
func (r *memQuoteRepo) SelectByUser(runID, quoteID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	found := false
	for _, q := range r.quotes {
		if q.WorkflowRunID != runID {
			continue
		}
		q.IsSelectedByUser = q.ID == quoteID
		if q.ID == quoteID {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("quote %s not found in run %s", quoteID, runID)
	}
	return nil
}

type memNotificationRepo struct {
	mu   sync.Mutex
	rows []models.WorkflowNotification
}

func (r *memNotificationRepo) Create(n *models.WorkflowNotification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, *n)
	return nil
}
func (r *memNotificationRepo) GetByRunID(runID string) ([]models.WorkflowNotification, error) {
	return r.rows, nil
}
func (r *memNotificationRepo) UpdateStatus(id, status, errCode, errMessage string) error { return nil }
func (r *memNotificationRepo) MarkResponse(id string) error                              { return nil }

type memBookingRepo struct {
	bookings map[string]*models.BookingRequest
}

func (r *memBookingRepo) Create(b *models.BookingRequest) error {
	r.bookings[b.ID] = b
	return nil
}
func (r *memBookingRepo) GetByID(id string) (*models.BookingRequest, error) {
	b, ok := r.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking request %s not found", id)
	}
	return b, nil
}

type memUserRepo struct {
	users map[string]*models.User
}

func (r *memUserRepo) Create(u *models.User) error { r.users[u.ID] = u; return nil }
func (r *memUserRepo) Update(u *models.User) error { r.users[u.ID] = u; return nil }
func (r *memUserRepo) GetByID(id string) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s not found", id)
	}
	return u, nil
}

// ---- collaborator fakes ----

type fakeMatcher struct {
	matches []matching.ScoredProvider
	err     error
}

func (f *fakeMatcher) MatchProviders(req models.BookingRequest) ([]matching.ScoredProvider, error) {
	return f.matches, f.err
}
func (f *fakeMatcher) KnownCities() ([]string, error) { return nil, nil }

// fakeNotifier mimics the production dispatcher's observable contract: it
// issues real links through the codec and persists them before reporting.
type fakeNotifier struct {
	codec        *linkcodec.Codec
	providerRepo *memWFProviderRepo
	runRepo      *memRunRepo

	linkExpiresAt int64 // overrides the default one-hour expiry when set

	mu           sync.Mutex
	dispatches   int
	quoteNotices int
	directSends  []string // workflowProviderID per SendDirect, "" for the customer
	dispatchFail bool
}

func (f *fakeNotifier) expiry() int64 {
	if f.linkExpiresAt != 0 {
		return f.linkExpiresAt
	}
	return time.Now().Add(time.Hour).Unix()
}

func (f *fakeNotifier) DispatchToProviders(ctx context.Context, run *models.WorkflowRun, providers []models.WorkflowProvider, render notification.ProviderMessageRenderer) notification.BatchResult {
	f.mu.Lock()
	f.dispatches++
	fail := f.dispatchFail
	f.mu.Unlock()

	if fail {
		return notification.BatchResult{
			FailureCount: len(providers),
			Errors:       []string{"all channels down"},
		}
	}

	for _, p := range providers {
		link, err := f.codec.EncodeProviderLink(linkcodec.ProviderLinkPayload{
			RunID:              run.ID,
			WorkflowProviderID: p.ID,
			BookingRequestID:   run.BookingRequestID,
			ExpiresAt:          f.expiry(),
		})
		if err != nil {
			return notification.BatchResult{FailureCount: len(providers), Errors: []string{err.Error()}}
		}
		f.providerRepo.UpdateSetDocument(p.ID, bson.M{
			"link_hash":    link.Hash,
			"link_payload": link.Encrypted,
			"link_expiry":  link.ExpiresAt,
		})
	}
	return notification.BatchResult{Success: true, SuccessCount: len(providers)}
}

func (f *fakeNotifier) SendCustomerQuoteNotification(ctx context.Context, run *models.WorkflowRun, contact models.ContactInfo, render notification.QuoteMessageRenderer) notification.BatchResult {
	if !contact.HasAnyChannel() {
		return notification.BatchResult{FailureCount: 1, Errors: []string{"no contact information"}}
	}

	link, err := f.codec.EncodeQuoteLink(linkcodec.QuoteLinkPayload{
		RunID:            run.ID,
		BookingRequestID: run.BookingRequestID,
		ExpiresAt:        f.expiry(),
	})
	if err != nil {
		return notification.BatchResult{FailureCount: 1, Errors: []string{err.Error()}}
	}
	f.runRepo.UpdateSetDocument(run.ID, bson.M{
		"customer_link_hash":    link.Hash,
		"customer_link_payload": link.Encrypted,
		"customer_link_expiry":  link.ExpiresAt,
	})

	f.mu.Lock()
	f.quoteNotices++
	f.mu.Unlock()
	return notification.BatchResult{Success: true, SuccessCount: 1}
}

func (f *fakeNotifier) SendDirect(ctx context.Context, runID, workflowProviderID string, contact models.ContactInfo, msg notification.Message) notification.BatchResult {
	f.mu.Lock()
	f.directSends = append(f.directSends, workflowProviderID)
	f.mu.Unlock()
	return notification.BatchResult{Success: true, SuccessCount: 1}
}

// fakeRanker persists one quote per quoted provider, scoring by price
// ascending, and selects the cheapest.
type fakeRanker struct {
	quoteRepo *memQuoteRepo
	err       error
}

func (f *fakeRanker) RankQuotes(ctx context.Context, run *models.WorkflowRun, quoted []models.WorkflowProvider, booking models.BookingRequest) (*quotes.RankResult, error) {
	if f.err != nil {
		return nil, f.err
	}

	sorted := append([]models.WorkflowProvider(nil), quoted...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].QuoteAmount < sorted[j].QuoteAmount })

	result := &quotes.RankResult{}
	for i, p := range sorted {
		q := models.WorkflowQuote{
			ID:                 "q-" + p.ID,
			WorkflowRunID:      run.ID,
			WorkflowProviderID: p.ID,
			Amount:             p.QuoteAmount,
			Status:             models.QuoteAccepted,
			OverallScore:       90 - i*10,
			IsSelectedByAi:     i == 0,
		}
		if err := f.quoteRepo.Create(&q); err != nil {
			return nil, err
		}
		result.Quotes = append(result.Quotes, q)
		if i == 0 {
			result.SelectedQuoteIDs = []string{q.ID}
		}
	}
	result.MarketSummary = "test market"
	return result, nil
}

type fakeOracle struct{}

func (fakeOracle) AnalyzeMessage(ctx context.Context, text string) (*models.MessageAnalysis, error) {
	return &models.MessageAnalysis{Urgency: "medium", CleanedText: text, Score: 65}, nil
}
func (fakeOracle) AnalyzeQuotes(ctx context.Context, q []models.QuoteForAnalysis, booking models.BookingRequest) (*models.QuoteAnalysis, error) {
	return &models.QuoteAnalysis{}, nil
}

var _ intelligence.AnalysisOracle = fakeOracle{}

type fakeQueue struct {
	mu       sync.Mutex
	advances []string
	checks   []string
}

func (f *fakeQueue) EnqueueAdvance(runID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.advances = append(f.advances, runID)
}
func (f *fakeQueue) EnqueueResponseCheck(runID string, delay time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checks = append(f.checks, runID)
}

// ---- harness ----

type testEnv struct {
	svc       *DefaultWorkflowService
	runs      *memRunRepo
	steps     *memStepRepo
	providers *memWFProviderRepo
	quotes    *memQuoteRepo
	matcher   *fakeMatcher
	notifier  *fakeNotifier
	queue     *fakeQueue
	booking   models.BookingRequest
	user      models.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	codec, err := linkcodec.New("test-secret", 8)
	if err != nil {
		t.Fatalf("failed to build codec: %v", err)
	}

	runs := newMemRunRepo()
	steps := newMemStepRepo()
	providers := newMemWFProviderRepo()
	quoteRepo := newMemQuoteRepo()
	bookingRepo := &memBookingRepo{bookings: make(map[string]*models.BookingRequest)}
	userRepo := &memUserRepo{users: make(map[string]*models.User)}

	booking := models.BookingRequest{
		ID:              "bk-1",
		CustomerID:      "u-1",
		Pickup:          models.Location{City: "London", Postcode: "SW1A 1AA"},
		Dropoff:         models.Location{City: "Manchester", Postcode: "M1 1AE"},
		PickupTime:      time.Now().Add(48 * time.Hour),
		PassengerCount:  2,
		VehicleType:     "sedan",
		SpecialRequests: "need a child seat, urgent",
	}
	user := models.User{ID: "u-1", Name: "Jordan", Email: "jordan@example.com", Phone: "+44700"}
	bookingRepo.Create(&booking)
	userRepo.Create(&user)

	matcher := &fakeMatcher{matches: []matching.ScoredProvider{
		{Provider: models.ServiceProvider{ID: "sp-1", Name: "Acme Cars", Email: "acme@example.com"}, Score: 85},
		{Provider: models.ServiceProvider{ID: "sp-2", Name: "Beta Limos", Phone: "+44111"}, Score: 70},
	}}
	notifier := &fakeNotifier{codec: codec, providerRepo: providers, runRepo: runs}
	queue := &fakeQueue{}

	svc := &DefaultWorkflowService{
		RunRepo:          runs,
		StepRepo:         steps,
		ProviderRepo:     providers,
		QuoteRepo:        quoteRepo,
		NotificationRepo: &memNotificationRepo{},
		BookingRepo:      bookingRepo,
		UserRepo:         userRepo,

		Matcher:  matcher,
		Notifier: notifier,
		Ranker:   &fakeRanker{quoteRepo: quoteRepo},
		Oracle:   fakeOracle{},
		Codec:    codec,
		Queue:    queue,
		Renderer: PlainRenderer{},
	}

	return &testEnv{
		svc:       svc,
		runs:      runs,
		steps:     steps,
		providers: providers,
		quotes:    quoteRepo,
		matcher:   matcher,
		notifier:  notifier,
		queue:     queue,
		booking:   booking,
		user:      user,
	}
}

func (e *testEnv) trigger() TriggerPayload {
	return TriggerPayload{BookingRequest: e.booking, User: e.user}
}

func (e *testEnv) stepByName(t *testing.T, runID, name string) *models.WorkflowStep {
	t.Helper()
	step, err := e.steps.GetByRunAndName(runID, name)
	if err != nil {
		t.Fatalf("step %q missing: %v", name, err)
	}
	return step
}

// submitQuote drives a provider through its stored action link.
func (e *testEnv) submitQuote(t *testing.T, runID string, amount float64) {
	t.Helper()
	providers, _ := e.providers.GetByRunID(runID)
	for _, p := range providers {
		if p.HasQuoted {
			continue
		}
		if _, err := e.svc.RecordProviderQuote(context.Background(), p.LinkHash, amount, "can do"); err != nil {
			t.Fatalf("quote submission failed for %s: %v", p.ID, err)
		}
		return
	}
	t.Fatal("no provider left to quote")
}

// ---- tests ----

func TestStartRunExecutesSynchronousHead(t *testing.T) {
	env := newTestEnv(t)

	run, err := env.svc.StartRun(context.Background(), env.trigger())
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}

	if run.Status != models.RunProcessingResponses {
		t.Fatalf("expected run waiting on responses, got %s", run.Status)
	}
	for _, name := range []string{models.StepRequest, models.StepMessage, models.StepNotification} {
		if s := env.stepByName(t, run.ID, name); s.Status != models.StepCompleted {
			t.Fatalf("expected step %q completed, got %s", name, s.Status)
		}
	}
	if s := env.stepByName(t, run.ID, models.StepProviders); s.Status != models.StepPending {
		t.Fatalf("expected Providers pending, got %s", s.Status)
	}

	if run.BookingAnalysis == "" {
		t.Fatal("message analysis was not stored on the run")
	}

	providers, _ := env.providers.GetByRunID(run.ID)
	if len(providers) != 2 {
		t.Fatalf("expected 2 contacted providers, got %d", len(providers))
	}
	for _, p := range providers {
		if p.ContactStatus != models.ContactNotified {
			t.Fatalf("expected contacted provider, got status %s", p.ContactStatus)
		}
		if p.LinkHash == "" || p.LinkPayload == "" {
			t.Fatalf("provider %s has no persisted action link", p.ID)
		}
	}

	if len(env.queue.checks) == 0 {
		t.Fatal("expected a response check to be scheduled")
	}
}

func TestStartRunIsIdempotentPerBookingRequest(t *testing.T) {
	env := newTestEnv(t)

	first, err := env.svc.StartRun(context.Background(), env.trigger())
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}
	second, err := env.svc.StartRun(context.Background(), env.trigger())
	if err != nil {
		t.Fatalf("re-trigger failed: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected the existing run to be resumed, got %s and %s", first.ID, second.ID)
	}
}

func TestRetriggerAfterMidHeadCrashReplaysHead(t *testing.T) {
	env := newTestEnv(t)

	// A run that died right after creation: run and step rows exist, no
	// head step ever completed.
	crashed := &models.WorkflowRun{
		ID:               "run-crashed",
		BookingRequestID: env.booking.ID,
		Status:           models.RunAnalyzing,
		CurrentStep:      models.StepRequest,
		CurrentStepNum:   1,
		StartedAt:        time.Now(),
	}
	if err := env.runs.Create(crashed); err != nil {
		t.Fatalf("seed run failed: %v", err)
	}
	now := time.Now()
	var rows []models.WorkflowStep
	for i, name := range models.StepOrder {
		row := models.WorkflowStep{
			ID:            fmt.Sprintf("st-%d", i+1),
			WorkflowRunID: crashed.ID,
			Name:          name,
			Number:        i + 1,
			Status:        models.StepPending,
		}
		if i == 0 {
			row.Status = models.StepInProgress
			row.StartedAt = &now
		}
		rows = append(rows, row)
	}
	if err := env.steps.CreateMany(rows); err != nil {
		t.Fatalf("seed steps failed: %v", err)
	}

	resumed, err := env.svc.StartRun(context.Background(), env.trigger())
	if err != nil {
		t.Fatalf("re-trigger after mid-head crash must replay the head, got: %v", err)
	}
	if resumed.ID != crashed.ID {
		t.Fatalf("expected the crashed run to be resumed, got %s", resumed.ID)
	}

	for _, name := range []string{models.StepRequest, models.StepMessage, models.StepNotification} {
		if s := env.stepByName(t, crashed.ID, name); s.Status != models.StepCompleted {
			t.Fatalf("expected replayed step %q completed, got %s", name, s.Status)
		}
	}
	run, _ := env.runs.GetByID(crashed.ID)
	if run.Status != models.RunProcessingResponses {
		t.Fatalf("expected run waiting on responses after replay, got %s", run.Status)
	}
	providers, _ := env.providers.GetByRunID(crashed.ID)
	if len(providers) != 2 {
		t.Fatalf("expected 2 contacted providers after replay, got %d", len(providers))
	}
}

func TestAdvanceReplaysPendingHeadStep(t *testing.T) {
	env := newTestEnv(t)

	run, err := env.svc.StartRun(context.Background(), env.trigger())
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}

	// Rewind as if the process died inside the dispatch: step back to
	// pending, contacted-provider rows never written.
	step := env.stepByName(t, run.ID, models.StepNotification)
	step.Status = models.StepPending
	step.CompletedAt = nil
	env.steps.Update(step)
	env.providers.mu.Lock()
	env.providers.providers = make(map[string]*models.WorkflowProvider)
	env.providers.mu.Unlock()

	if err := env.svc.Advance(context.Background(), run.ID); err != nil {
		t.Fatalf("Advance must replay the pending head step, got: %v", err)
	}

	if s := env.stepByName(t, run.ID, models.StepNotification); s.Status != models.StepCompleted {
		t.Fatalf("expected Notification completed after replay, got %s", s.Status)
	}
	providers, _ := env.providers.GetByRunID(run.ID)
	if len(providers) != 2 {
		t.Fatalf("expected 2 contacted providers after replay, got %d", len(providers))
	}
	for _, p := range providers {
		if p.LinkHash == "" {
			t.Fatalf("provider %s has no re-issued action link", p.ID)
		}
	}
}

func TestEvaluateResponsesWaitsThenAdvances(t *testing.T) {
	env := newTestEnv(t)

	run, err := env.svc.StartRun(context.Background(), env.trigger())
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}

	outcome, err := env.svc.EvaluateResponses(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("EvaluateResponses failed: %v", err)
	}
	if !outcome.StillWaiting || outcome.Advance {
		t.Fatalf("expected still waiting, got %+v", outcome)
	}

	env.submitQuote(t, run.ID, 120)
	env.submitQuote(t, run.ID, 90)

	outcome, err = env.svc.EvaluateResponses(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("EvaluateResponses failed: %v", err)
	}
	if !outcome.Advance {
		t.Fatalf("expected advance once everyone responded, got %+v", outcome)
	}
	if s := env.stepByName(t, run.ID, models.StepProviders); s.Status != models.StepCompleted {
		t.Fatalf("expected Providers completed, got %s", s.Status)
	}
}

func TestEvaluateResponsesWindowElapsed(t *testing.T) {
	env := newTestEnv(t)
	env.svc.ResponseWindow = time.Minute

	run, err := env.svc.StartRun(context.Background(), env.trigger())
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}

	// Only one of two providers quotes; then the window lapses.
	env.submitQuote(t, run.ID, 150)

	notificationStep := env.stepByName(t, run.ID, models.StepNotification)
	past := time.Now().Add(-2 * time.Minute)
	notificationStep.CompletedAt = &past
	env.steps.Update(notificationStep)

	outcome, err := env.svc.EvaluateResponses(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("EvaluateResponses failed: %v", err)
	}
	if !outcome.Advance {
		t.Fatalf("expected advance after window lapse, got %+v", outcome)
	}

	step := env.stepByName(t, run.ID, models.StepProviders)
	decoded, err := models.DecodeStepDetails(models.StepProviders, step.Details)
	if err != nil {
		t.Fatalf("failed to decode details: %v", err)
	}
	details := decoded.(*models.ProvidersDetails)
	if !details.WindowElapsed || details.QuotedCount != 1 {
		t.Fatalf("unexpected details: %+v", details)
	}
}

func TestFullRunToCompletion(t *testing.T) {
	env := newTestEnv(t)

	run, err := env.svc.StartRun(context.Background(), env.trigger())
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}

	env.submitQuote(t, run.ID, 120)
	env.submitQuote(t, run.ID, 90)

	// The durable host would run this after the response check.
	if err := env.svc.Advance(context.Background(), run.ID); err != nil {
		t.Fatalf("Advance through quotes failed: %v", err)
	}

	run, _ = env.runs.GetByID(run.ID)
	if s := env.stepByName(t, run.ID, models.StepQuotes); s.Status != models.StepCompleted {
		t.Fatalf("expected Quotes completed, got %s", s.Status)
	}
	if run.CustomerLinkHash == "" {
		t.Fatal("customer quote link was not issued")
	}
	if env.notifier.quoteNotices != 1 {
		t.Fatalf("expected 1 customer notice, got %d", env.notifier.quoteNotices)
	}
	// The oracle pick is pre-selected before the user decides.
	if run.SelectedQuoteID == "" {
		t.Fatal("expected a pre-selected quote")
	}

	// The user overrides the recommendation with the pricier quote.
	runQuotes, _ := env.quotes.GetByRunID(run.ID)
	var override string
	for _, q := range runQuotes {
		if !q.IsSelectedByAi {
			override = q.ID
		}
	}
	if override == "" {
		t.Fatal("expected a non-recommended quote to exist")
	}
	if err := env.svc.RecordUserQuoteSelection(context.Background(), run.CustomerLinkHash, override); err != nil {
		t.Fatalf("user selection failed: %v", err)
	}
	if len(env.queue.advances) == 0 {
		t.Fatal("expected an advance to be enqueued after user selection")
	}

	if err := env.svc.Advance(context.Background(), run.ID); err != nil {
		t.Fatalf("final Advance failed: %v", err)
	}

	run, _ = env.runs.GetByID(run.ID)
	if run.Status != models.RunCompleted {
		t.Fatalf("expected completed run, got %s", run.Status)
	}
	if run.CompletedAt == nil {
		t.Fatal("expected completion timestamp")
	}
	if run.SelectedQuoteID != override {
		t.Fatalf("expected user override %s, got %s", override, run.SelectedQuoteID)
	}

	steps, _ := env.steps.GetByRunID(run.ID)
	if len(steps) != 8 {
		t.Fatalf("expected 8 step rows, got %d", len(steps))
	}
	for _, s := range steps {
		if s.Status != models.StepCompleted {
			t.Fatalf("step %q not completed: %s", s.Name, s.Status)
		}
	}

	// Both parties got a confirmation.
	if len(env.notifier.directSends) != 2 {
		t.Fatalf("expected 2 confirmation sends, got %d", len(env.notifier.directSends))
	}

	// Exactly one quote carries the user selection.
	selected := 0
	for _, q := range runQuotes {
		fresh, _ := env.quotes.GetByID(q.ID)
		if fresh.IsSelectedByUser {
			selected++
		}
	}
	if selected != 1 {
		t.Fatalf("expected exactly one user-selected quote, got %d", selected)
	}
}

func TestEmptyMatchEndsRunCleanly(t *testing.T) {
	env := newTestEnv(t)
	env.matcher.matches = nil

	run, err := env.svc.StartRun(context.Background(), env.trigger())
	if err != nil {
		t.Fatalf("empty match must not raise: %v", err)
	}

	run, _ = env.runs.GetByID(run.ID)
	if run.Status != models.RunCompleted {
		t.Fatalf("expected completed run, got %s", run.Status)
	}

	step := env.stepByName(t, run.ID, models.StepNotification)
	decoded, err := models.DecodeStepDetails(models.StepNotification, step.Details)
	if err != nil {
		t.Fatalf("failed to decode details: %v", err)
	}
	details := decoded.(*models.NotificationDetails)
	if !details.EndWorkflow || details.MatchedCount != 0 {
		t.Fatalf("unexpected details: %+v", details)
	}

	steps, _ := env.steps.GetByRunID(run.ID)
	for _, s := range steps {
		if s.Status != models.StepCompleted {
			t.Fatalf("step %q not closed out: %s", s.Name, s.Status)
		}
	}

	if env.notifier.dispatches != 0 {
		t.Fatal("nothing may be dispatched without matches")
	}
}

func TestNoQuotesMarksAnalysisFailed(t *testing.T) {
	env := newTestEnv(t)

	run, err := env.svc.StartRun(context.Background(), env.trigger())
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}

	// Both providers decline without quoting.
	providers, _ := env.providers.GetByRunID(run.ID)
	for _, p := range providers {
		if _, err := env.svc.RecordProviderResponse(context.Background(), p.LinkHash, "decline", "fully booked"); err != nil {
			t.Fatalf("decline failed: %v", err)
		}
	}

	if err := env.svc.Advance(context.Background(), run.ID); err != nil {
		t.Fatalf("Advance must not raise on an empty quote set: %v", err)
	}

	run, _ = env.runs.GetByID(run.ID)
	if run.Status != models.RunAnalysisFailed {
		t.Fatalf("expected analysis_failed, got %s", run.Status)
	}
	if s := env.stepByName(t, run.ID, models.StepQuotes); s.Status != models.StepFailed {
		t.Fatalf("expected failed Quotes step, got %s", s.Status)
	}
}

func TestUserDeclineClosesRun(t *testing.T) {
	env := newTestEnv(t)

	run, err := env.svc.StartRun(context.Background(), env.trigger())
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}
	env.submitQuote(t, run.ID, 120)
	env.submitQuote(t, run.ID, 90)
	if err := env.svc.Advance(context.Background(), run.ID); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}

	run, _ = env.runs.GetByID(run.ID)
	if err := env.svc.RecordUserDecline(context.Background(), run.CustomerLinkHash, "too expensive"); err != nil {
		t.Fatalf("decline failed: %v", err)
	}

	run, _ = env.runs.GetByID(run.ID)
	if run.Status != models.RunCompleted {
		t.Fatalf("expected completed run after decline, got %s", run.Status)
	}
	// No confirmations go out on a decline.
	if len(env.notifier.directSends) != 0 {
		t.Fatalf("expected no confirmation sends, got %d", len(env.notifier.directSends))
	}
}

func TestProviderQuoteImpliesAcceptance(t *testing.T) {
	env := newTestEnv(t)

	run, err := env.svc.StartRun(context.Background(), env.trigger())
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}
	env.submitQuote(t, run.ID, 200)

	providers, _ := env.providers.GetByRunID(run.ID)
	var quoted *models.WorkflowProvider
	for i := range providers {
		if providers[i].HasQuoted {
			quoted = &providers[i]
		}
	}
	if quoted == nil {
		t.Fatal("no quoted provider found")
	}
	if !quoted.HasResponded || quoted.ResponseStatus != models.ResponseAccepted {
		t.Fatalf("quoting must imply acceptance: %+v", quoted)
	}
	if quoted.QuoteAmount != 200 {
		t.Fatalf("expected recorded amount 200, got %.2f", quoted.QuoteAmount)
	}
}

func TestLinkFailureModesStayDistinct(t *testing.T) {
	env := newTestEnv(t)

	run, err := env.svc.StartRun(context.Background(), env.trigger())
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}

	// Unknown hash.
	if _, err := env.svc.RecordProviderResponse(context.Background(), "deadbeef", "accept", ""); !errors.Is(err, ErrLinkNotFound) {
		t.Fatalf("expected ErrLinkNotFound, got %v", err)
	}

	// Stored blob tampered with after issue.
	providers, _ := env.providers.GetByRunID(run.ID)
	victim := providers[0]
	env.providers.UpdateSetDocument(victim.ID, bson.M{"link_payload": victim.LinkPayload + "x"})
	if _, err := env.svc.RecordProviderResponse(context.Background(), victim.LinkHash, "accept", ""); !errors.Is(err, linkcodec.ErrDecryptionFailed) {
		t.Fatalf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestProviderLinkStatusRevalidation(t *testing.T) {
	env := newTestEnv(t)

	run, err := env.svc.StartRun(context.Background(), env.trigger())
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}
	providers, _ := env.providers.GetByRunID(run.ID)
	link := providers[0]

	status, err := env.svc.CheckProviderLinkStatus(context.Background(), link.LinkHash)
	if err != nil {
		t.Fatalf("status lookup failed: %v", err)
	}
	if !status.IsValid || status.IsExpired {
		t.Fatalf("fresh link must be valid and unexpired, got %+v", status)
	}

	// Stored blob no longer matching its hash reads as invalid.
	env.providers.UpdateSetDocument(link.ID, bson.M{"link_payload": link.LinkPayload + "x"})
	status, err = env.svc.CheckProviderLinkStatus(context.Background(), link.LinkHash)
	if err != nil {
		t.Fatalf("status lookup failed: %v", err)
	}
	if status.IsValid {
		t.Fatalf("tampered blob must read invalid, got %+v", status)
	}

	if _, err := env.svc.CheckProviderLinkStatus(context.Background(), "deadbeef"); !errors.Is(err, ErrLinkNotFound) {
		t.Fatalf("expected ErrLinkNotFound, got %v", err)
	}
}

func TestProviderLinkStatusReportsExpiry(t *testing.T) {
	env := newTestEnv(t)
	env.notifier.linkExpiresAt = time.Now().Add(-time.Hour).Unix()

	run, err := env.svc.StartRun(context.Background(), env.trigger())
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}
	providers, _ := env.providers.GetByRunID(run.ID)

	status, err := env.svc.CheckProviderLinkStatus(context.Background(), providers[0].LinkHash)
	if err != nil {
		t.Fatalf("status lookup failed: %v", err)
	}
	if !status.IsValid || !status.IsExpired {
		t.Fatalf("expired link must read valid but expired, got %+v", status)
	}
}

func TestExpiredProviderLinkRejected(t *testing.T) {
	env := newTestEnv(t)
	env.notifier.linkExpiresAt = time.Now().Add(-time.Hour).Unix()

	run, err := env.svc.StartRun(context.Background(), env.trigger())
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}

	providers, _ := env.providers.GetByRunID(run.ID)
	if _, err := env.svc.RecordProviderResponse(context.Background(), providers[0].LinkHash, "accept", ""); !errors.Is(err, ErrLinkExpired) {
		t.Fatalf("expected ErrLinkExpired, got %v", err)
	}
}

func TestNotificationDispatchFailureMarksContactFailed(t *testing.T) {
	env := newTestEnv(t)
	env.notifier.dispatchFail = true

	run, err := env.svc.StartRun(context.Background(), env.trigger())
	if err != nil {
		t.Fatalf("total dispatch failure still completes the step: %v", err)
	}

	providers, _ := env.providers.GetByRunID(run.ID)
	for _, p := range providers {
		if p.ContactStatus != models.ContactFailed {
			t.Fatalf("expected failed contact status, got %s", p.ContactStatus)
		}
	}

	step := env.stepByName(t, run.ID, models.StepNotification)
	if step.Status != models.StepCompleted {
		t.Fatalf("partial-failure batches complete the step, got %s", step.Status)
	}
	decoded, _ := models.DecodeStepDetails(models.StepNotification, step.Details)
	details := decoded.(*models.NotificationDetails)
	if details.FailureCount == 0 || len(details.Errors) == 0 {
		t.Fatalf("failure must be recorded in details: %+v", details)
	}
}

func TestGetRunStatusExposesFailedSteps(t *testing.T) {
	env := newTestEnv(t)
	env.matcher.err = errors.New("pool unavailable")

	run, err := env.svc.StartRun(context.Background(), env.trigger())
	if err == nil {
		t.Fatal("expected matcher failure to propagate")
	}
	var stepErr *StepError
	if !errors.As(err, &stepErr) || stepErr.Step != models.StepNotification {
		t.Fatalf("expected a Notification step error, got %v", err)
	}

	status, err := env.svc.GetRunStatus(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("GetRunStatus failed: %v", err)
	}
	if status.Run.Status != models.RunFailed {
		t.Fatalf("expected failed run, got %s", status.Run.Status)
	}
	found := false
	for _, s := range status.Steps {
		if s.Name == models.StepNotification {
			found = true
			if s.Status != models.StepFailed || s.ErrorMessage == "" {
				t.Fatalf("failed step must expose its error: %+v", s)
			}
		}
	}
	if !found {
		t.Fatal("Notification step row missing from status")
	}
}
