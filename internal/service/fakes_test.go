package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"solarshare/internal/models"
	"solarshare/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// world is an in-memory backing store shared by the fake repositories.
type world struct {
	mu          sync.Mutex
	nextID      uint
	profiles    map[uint]*models.Profile
	communities map[uint]*models.Community
	members     map[uint]models.CommunityMember // keyed by user
	requests    map[uint]*models.QuoteRequest
	quotes      map[uint]*models.ProviderQuote
	votes       map[[2]uint]*models.Vote // (request, voter)
	selections  map[uint]*models.SelectedProvider
	projects    map[uint]*models.Project
	energy      []models.EnergyConsumption
	updates     []repository.ProgressUpdate

	// createWithAdminFn overrides CreateWithAdmin when set.
	createWithAdminFn func(*models.Community) error
	// beforeUpsertFn runs inside Upsert before the request status is read.
	beforeUpsertFn func(requestID uint)
}

func newWorld() *world {
	return &world{
		profiles:    map[uint]*models.Profile{},
		communities: map[uint]*models.Community{},
		members:     map[uint]models.CommunityMember{},
		requests:    map[uint]*models.QuoteRequest{},
		quotes:      map[uint]*models.ProviderQuote{},
		votes:       map[[2]uint]*models.Vote{},
		selections:  map[uint]*models.SelectedProvider{},
		projects:    map[uint]*models.Project{},
	}
}

func (w *world) id() uint {
	w.nextID++
	return w.nextID
}

func (w *world) addProfile(name string, provider bool) *models.Profile {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := time.Now()
	p := &models.Profile{ID: w.id(), Email: name + "@example.com", Name: name, IsSolarProvider: provider, EmailConfirmedAt: &now}
	w.profiles[p.ID] = p
	return p
}

func (w *world) addCommunity(admin *models.Profile, code string, members ...*models.Profile) *models.Community {
	w.mu.Lock()
	defer w.mu.Unlock()
	c := &models.Community{ID: w.id(), Name: "Maple Street", ZipCode: "560001", AdminID: admin.ID, CommunityCode: code}
	w.communities[c.ID] = c
	w.members[admin.ID] = models.CommunityMember{CommunityID: c.ID, UserID: admin.ID, JoinedAt: time.Now()}
	for _, m := range members {
		w.members[m.ID] = models.CommunityMember{CommunityID: c.ID, UserID: m.ID, JoinedAt: time.Now()}
	}
	return c
}

func (w *world) addRequest(c *models.Community) *models.QuoteRequest {
	w.mu.Lock()
	defer w.mu.Unlock()
	r := &models.QuoteRequest{ID: w.id(), CommunityID: c.ID, RequestedBy: c.AdminID, Status: models.QuoteRequestStatusOpen, CreatedAt: time.Now()}
	w.requests[r.ID] = r
	return r
}

func (w *world) addQuote(r *models.QuoteRequest, provider *models.Profile, cost string) *models.ProviderQuote {
	w.mu.Lock()
	defer w.mu.Unlock()
	q := &models.ProviderQuote{
		ID:             w.id(),
		QuoteRequestID: r.ID,
		ProviderID:     provider.ID,
		TotalCost:      decimal.RequireFromString(cost),
		Details:        models.QuoteDetails{SystemSizeKW: 10, PanelCount: 24},
		CreatedAt:      time.Now(),
	}
	w.quotes[q.ID] = q
	return q
}

type fakeProfiles struct{ w *world }

func (f fakeProfiles) GetByID(_ context.Context, id uint) (*models.Profile, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	p, ok := f.w.profiles[id]
	if !ok {
		return nil, models.NewNotFoundError("Profile", id)
	}
	cp := *p
	return &cp, nil
}

func (f fakeProfiles) GetByEmail(_ context.Context, email string) (*models.Profile, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	for _, p := range f.w.profiles {
		if p.Email == email {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f fakeProfiles) GetByConfirmationToken(_ context.Context, token string) (*models.Profile, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	for _, p := range f.w.profiles {
		if p.ConfirmationToken != nil && *p.ConfirmationToken == token {
			cp := *p
			return &cp, nil
		}
	}
	return nil, models.NewNotFoundMessage("Confirmation link is invalid or has already been used")
}

func (f fakeProfiles) Create(_ context.Context, p *models.Profile) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	p.ID = f.w.id()
	cp := *p
	f.w.profiles[p.ID] = &cp
	return nil
}

func (f fakeProfiles) UpdateContact(_ context.Context, id uint, name, phone string) (*models.Profile, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	p, ok := f.w.profiles[id]
	if !ok {
		return nil, models.NewNotFoundError("Profile", id)
	}
	p.Name, p.Phone = name, phone
	cp := *p
	return &cp, nil
}

func (f fakeProfiles) Confirm(_ context.Context, id uint, at time.Time) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	p, ok := f.w.profiles[id]
	if !ok {
		return models.NewNotFoundError("Profile", id)
	}
	p.EmailConfirmedAt = &at
	p.ConfirmationToken = nil
	return nil
}

type fakeCommunities struct{ w *world }

func (f fakeCommunities) CreateWithAdmin(_ context.Context, c *models.Community) error {
	if f.w.createWithAdminFn != nil {
		if err := f.w.createWithAdminFn(c); err != nil {
			return err
		}
	}
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	for _, existing := range f.w.communities {
		if existing.CommunityCode == c.CommunityCode {
			return repository.ErrCommunityCodeTaken
		}
	}
	if _, ok := f.w.members[c.AdminID]; ok {
		return models.NewConflictError(models.CodeAlreadyInCommunity, "You are already a member of a community")
	}
	c.ID = f.w.id()
	cp := *c
	f.w.communities[c.ID] = &cp
	f.w.members[c.AdminID] = models.CommunityMember{CommunityID: c.ID, UserID: c.AdminID, JoinedAt: time.Now()}
	return nil
}

func (f fakeCommunities) GetByID(_ context.Context, id uint) (*models.Community, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	c, ok := f.w.communities[id]
	if !ok {
		return nil, models.NewNotFoundError("Community", id)
	}
	cp := *c
	return &cp, nil
}

func (f fakeCommunities) GetByCode(_ context.Context, code string) (*models.Community, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	for _, c := range f.w.communities {
		if c.CommunityCode == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, models.NewNotFoundMessage("Community not found")
}

func (f fakeCommunities) GetMembership(_ context.Context, userID uint) (*models.CommunityMember, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	m, ok := f.w.members[userID]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (f fakeCommunities) AddMember(_ context.Context, communityID, userID uint) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if _, ok := f.w.members[userID]; ok {
		return models.NewConflictError(models.CodeAlreadyInCommunity, "You are already a member of a community")
	}
	f.w.members[userID] = models.CommunityMember{CommunityID: communityID, UserID: userID, JoinedAt: time.Now()}
	return nil
}

func (f fakeCommunities) IsMember(_ context.Context, communityID, userID uint) (bool, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	m, ok := f.w.members[userID]
	return ok && m.CommunityID == communityID, nil
}

func (f fakeCommunities) MemberCount(_ context.Context, communityID uint) (int64, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var n int64
	for _, m := range f.w.members {
		if m.CommunityID == communityID {
			n++
		}
	}
	return n, nil
}

func (f fakeCommunities) MemberCounts(ctx context.Context, ids []uint) (map[uint]int64, error) {
	out := make(map[uint]int64, len(ids))
	for _, id := range ids {
		n, _ := f.MemberCount(ctx, id)
		out[id] = n
	}
	return out, nil
}

func (f fakeCommunities) ListMembers(_ context.Context, communityID uint) ([]models.Profile, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []models.Profile
	for uid, m := range f.w.members {
		if m.CommunityID == communityID {
			out = append(out, *f.w.profiles[uid])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeQuotes struct{ w *world }

func (f fakeQuotes) CreateRequest(_ context.Context, r *models.QuoteRequest) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	r.ID = f.w.id()
	r.CreatedAt = time.Now()
	cp := *r
	f.w.requests[r.ID] = &cp
	return nil
}

func (f fakeQuotes) GetRequest(_ context.Context, id uint) (*models.QuoteRequest, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	r, ok := f.w.requests[id]
	if !ok {
		return nil, models.NewNotFoundError("Quote request", id)
	}
	cp := *r
	if c, ok := f.w.communities[r.CommunityID]; ok {
		cc := *c
		cp.Community = &cc
	}
	return &cp, nil
}

func (f fakeQuotes) GetOpenRequest(_ context.Context, communityID uint) (*models.QuoteRequest, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	for _, r := range f.w.requests {
		if r.CommunityID == communityID && r.IsOpen() {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f fakeQuotes) ListRequests(_ context.Context, communityID uint) ([]models.QuoteRequest, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []models.QuoteRequest
	for _, r := range f.w.requests {
		if r.CommunityID == communityID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f fakeQuotes) ListOpenRequests(_ context.Context, _ int) ([]models.QuoteRequest, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []models.QuoteRequest
	for _, r := range f.w.requests {
		if r.IsOpen() {
			cp := *r
			if c, ok := f.w.communities[r.CommunityID]; ok {
				cc := *c
				cp.Community = &cc
			}
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f fakeQuotes) CreateQuote(_ context.Context, q *models.ProviderQuote) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	for _, existing := range f.w.quotes {
		if existing.QuoteRequestID == q.QuoteRequestID && existing.ProviderID == q.ProviderID {
			return models.NewConflictError("", "You have already submitted a quote for this request")
		}
	}
	q.ID = f.w.id()
	cp := *q
	f.w.quotes[q.ID] = &cp
	return nil
}

func (f fakeQuotes) withProvider(q *models.ProviderQuote) models.ProviderQuote {
	cp := *q
	if p, ok := f.w.profiles[q.ProviderID]; ok {
		pc := *p
		cp.Provider = &pc
	}
	return cp
}

func (f fakeQuotes) GetQuote(_ context.Context, id uint) (*models.ProviderQuote, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	q, ok := f.w.quotes[id]
	if !ok {
		return nil, models.NewNotFoundError("Quote", id)
	}
	cp := f.withProvider(q)
	return &cp, nil
}

func (f fakeQuotes) ListQuotes(_ context.Context, requestID uint) ([]models.ProviderQuote, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []models.ProviderQuote
	for _, q := range f.w.quotes {
		if q.QuoteRequestID == requestID {
			out = append(out, f.withProvider(q))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f fakeQuotes) ListQuotesByProvider(_ context.Context, providerID uint) ([]models.ProviderQuote, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []models.ProviderQuote
	for _, q := range f.w.quotes {
		if q.ProviderID == providerID {
			out = append(out, *q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f fakeQuotes) GetSelection(_ context.Context, requestID uint) (*models.SelectedProvider, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	s, ok := f.w.selections[requestID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f fakeQuotes) CloseVoting(_ context.Context, p repository.CloseVotingParams) (*repository.CloseVotingResult, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	r := f.w.requests[p.Request.ID]
	if r == nil || !r.IsOpen() {
		return nil, repository.ErrVotingAlreadyClosed
	}
	r.Status = models.QuoteRequestStatusClosed
	closed := p.ClosedAt
	r.ClosedAt = &closed

	sel := &models.SelectedProvider{ID: f.w.id(), QuoteRequestID: r.ID, ProviderQuoteID: p.Quote.ID, ProviderID: p.Quote.ProviderID, CreatedAt: closed}
	f.w.selections[r.ID] = sel
	eta := closed.Add(models.ProjectEstimatedDuration)
	project := &models.Project{
		ID:                      f.w.id(),
		CommunityID:             r.CommunityID,
		ProviderID:              p.Quote.ProviderID,
		QuoteRequestID:          r.ID,
		Status:                  models.ProjectStatusPlanning,
		TotalCost:               p.Quote.TotalCost,
		EstimatedCompletionDate: &eta,
		CreatedAt:               closed,
	}
	f.w.projects[project.ID] = project
	return &repository.CloseVotingResult{Selection: *sel, Project: *project}, nil
}

type fakeVotes struct{ w *world }

func (f fakeVotes) Upsert(_ context.Context, requestID, quoteID, voterID uint) (uint, error) {
	if f.w.beforeUpsertFn != nil {
		f.w.beforeUpsertFn(requestID)
	}
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if r, ok := f.w.requests[requestID]; !ok || !r.IsOpen() {
		return 0, repository.ErrVotingAlreadyClosed
	}
	key := [2]uint{requestID, voterID}
	if v, ok := f.w.votes[key]; ok {
		prev := v.ProviderQuoteID
		v.ProviderQuoteID = quoteID
		return prev, nil
	}
	f.w.votes[key] = &models.Vote{ID: f.w.id(), QuoteRequestID: requestID, ProviderQuoteID: quoteID, VoterID: voterID}
	return 0, nil
}

func (f fakeVotes) CountByRequest(_ context.Context, requestID uint) ([]models.QuoteVoteCount, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	counts := map[uint]int64{}
	for key, v := range f.w.votes {
		if key[0] == requestID {
			counts[v.ProviderQuoteID]++
		}
	}
	out := make([]models.QuoteVoteCount, 0, len(counts))
	for id, n := range counts {
		out = append(out, models.QuoteVoteCount{ProviderQuoteID: id, Votes: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProviderQuoteID < out[j].ProviderQuoteID })
	return out, nil
}

func (f fakeVotes) GetForVoter(_ context.Context, requestID, voterID uint) (*models.Vote, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	v, ok := f.w.votes[[2]uint{requestID, voterID}]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

type fakeProjects struct{ w *world }

func (f fakeProjects) GetByID(_ context.Context, id uint) (*models.Project, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	p, ok := f.w.projects[id]
	if !ok {
		return nil, models.NewNotFoundError("Project", id)
	}
	cp := *p
	return &cp, nil
}

func (f fakeProjects) list(match func(*models.Project) bool) []repository.ProjectView {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []repository.ProjectView
	for _, p := range f.w.projects {
		if !match(p) {
			continue
		}
		v := repository.ProjectView{Project: *p}
		if c, ok := f.w.communities[p.CommunityID]; ok {
			v.CommunityName = c.Name
		}
		if pr, ok := f.w.profiles[p.ProviderID]; ok {
			v.ProviderName = pr.Name
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (f fakeProjects) ListForCommunity(_ context.Context, communityID uint) ([]repository.ProjectView, error) {
	return f.list(func(p *models.Project) bool { return p.CommunityID == communityID }), nil
}

func (f fakeProjects) ListForProvider(_ context.Context, providerID uint) ([]repository.ProjectView, error) {
	return f.list(func(p *models.Project) bool { return p.ProviderID == providerID }), nil
}

func (f fakeProjects) LatestCompleted(_ context.Context, communityID uint) (*models.Project, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var latest *models.Project
	for _, p := range f.w.projects {
		if p.CommunityID != communityID || p.CompletedAt == nil {
			continue
		}
		if latest == nil || p.CompletedAt.After(*latest.CompletedAt) {
			latest = p
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (f fakeProjects) UpdateProgress(_ context.Context, u repository.ProgressUpdate) (*models.Project, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	p, ok := f.w.projects[u.Project.ID]
	if !ok {
		return nil, models.NewNotFoundError("Project", u.Project.ID)
	}
	if p.Status != u.Project.Status || p.ProgressPercentage != u.Project.ProgressPercentage {
		return nil, models.NewConflictError("", "Project was updated by someone else, reload and try again")
	}
	f.w.updates = append(f.w.updates, u)
	p.Status = u.Status
	p.ProgressPercentage = u.Progress
	if u.CompletedAt != nil {
		p.CompletedAt = u.CompletedAt
	}
	cp := *p
	return &cp, nil
}

type fakeEnergy struct{ w *world }

func (f fakeEnergy) CreateBatch(_ context.Context, entries []models.EnergyConsumption) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	for _, e := range entries {
		e.ID = f.w.id()
		f.w.energy = append(f.w.energy, e)
	}
	return nil
}

func (f fakeEnergy) ListForUser(_ context.Context, userID, communityID uint) ([]models.EnergyConsumption, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []models.EnergyConsumption
	for _, e := range f.w.energy {
		if e.UserID == userID && e.CommunityID == communityID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodStart.After(out[j].PeriodStart) })
	return out, nil
}

func (f fakeEnergy) CountForUser(_ context.Context, userID uint) (int64, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var n int64
	for _, e := range f.w.energy {
		if e.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (f fakeEnergy) CommunityStats(_ context.Context, ids []uint) (map[uint]repository.CommunityEnergyStats, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	out := map[uint]repository.CommunityEnergyStats{}
	for _, id := range ids {
		var st repository.CommunityEnergyStats
		total := decimal.Zero
		users := map[uint]bool{}
		for _, e := range f.w.energy {
			if e.CommunityID != id {
				continue
			}
			st.TotalUnits += e.UnitsConsumed
			total = total.Add(e.BillAmount)
			st.EntryCount++
			users[e.UserID] = true
		}
		if st.EntryCount == 0 {
			continue
		}
		st.CommunityID = id
		st.ContributorCount = int64(len(users))
		st.AverageBill = total.Div(decimal.NewFromInt(st.EntryCount)).Round(2)
		out[id] = st
	}
	return out, nil
}

// assertCode asserts that err is an AppError carrying code.
func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func closeParams(w *world, req *models.QuoteRequest, q *models.ProviderQuote) repository.CloseVotingParams {
	w.mu.Lock()
	defer w.mu.Unlock()
	cp := *req
	return repository.CloseVotingParams{Request: &cp, Quote: q, ClosedAt: time.Now().UTC()}
}
