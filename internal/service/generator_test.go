package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visabuddy/checklist-engine/internal/domain"
)

type fakeLLM struct {
	responses []string
	err       error
	calls     int
	prompts   []string
}

func (f *fakeLLM) Complete(ctx context.Context, _, userPrompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.prompts = append(f.prompts, userPrompt)
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	idx := f.calls - 1
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	return f.responses[idx], nil
}

type fakeCache struct {
	entries map[string]*domain.GeneratedChecklist
	sets    int
}

func (f *fakeCache) Get(_ context.Context, key string) (*domain.GeneratedChecklist, bool) {
	c, ok := f.entries[key]
	return c, ok
}

func (f *fakeCache) Set(_ context.Context, key string, checklist *domain.GeneratedChecklist) {
	if f.entries == nil {
		f.entries = map[string]*domain.GeneratedChecklist{}
	}
	f.entries[key] = checklist
	f.sets++
}

func newTestGenerator(llm domain.LanguageModel, cache domain.ChecklistCache) *GeneratorService {
	resolver := NewResolverService(testLogger(), &fakeRuleSetStore{}, nil, &fakeFeatures{}, defaultChecklistCfg())
	return NewGeneratorService(testLogger(), llm, resolver, cache, defaultChecklistCfg(), 0)
}

func testApplicant() *domain.ApplicantContext {
	return &domain.ApplicantContext{
		Citizenship:   "UZ",
		TargetCountry: "DE",
		VisaType:      "tourist",
		AppLanguage:   "en",
		SponsorType:   "self",
	}
}

func TestGeneratorService_FirstAttemptSucceeds(t *testing.T) {
	llm := &fakeLLM{responses: []string{"```json\n" + validResponse + "\n```"}}
	gen := newTestGenerator(llm, nil)

	checklist, err := gen.Generate(context.Background(), &GenerateParams{
		ApplicationID: "app-1",
		Applicant:     testApplicant(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, llm.calls)
	assert.True(t, checklist.AIGenerated)
	assert.Len(t, checklist.Items, 5)
	for _, item := range checklist.Items {
		assert.NoError(t, item.Validate())
		assert.Equal(t, item.Category.Required(), item.Required)
	}
}

func TestGeneratorService_RetriesOnceThenSucceeds(t *testing.T) {
	llm := &fakeLLM{responses: []string{"no json here, sorry", validResponse}}
	gen := newTestGenerator(llm, nil)

	checklist, err := gen.Generate(context.Background(), &GenerateParams{
		ApplicationID: "app-1",
		Applicant:     testApplicant(),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, llm.calls)
	assert.True(t, checklist.AIGenerated)

	// The retry prompt must carry the defects of the rejected attempt.
	require.Len(t, llm.prompts, 2)
	assert.Contains(t, llm.prompts[1], "rejected")
}

func TestGeneratorService_BothAttemptsFailFallsBack(t *testing.T) {
	llm := &fakeLLM{responses: []string{"garbage", "more garbage"}}
	gen := newTestGenerator(llm, nil)

	checklist, err := gen.Generate(context.Background(), &GenerateParams{
		ApplicationID: "app-1",
		Applicant:     testApplicant(),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, llm.calls, "exactly two attempts, never more")
	assert.False(t, checklist.AIGenerated)
	assert.NotEmpty(t, checklist.Items)

	joined := strings.Join(checklist.Notes, " ")
	assert.Contains(t, joined, "basic checklist")
}

func TestGeneratorService_TransportErrorSkipsRetry(t *testing.T) {
	llm := &fakeLLM{err: errors.New("connection refused")}
	gen := newTestGenerator(llm, nil)

	checklist, err := gen.Generate(context.Background(), &GenerateParams{
		ApplicationID: "app-1",
		Applicant:     testApplicant(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, llm.calls, "a reworded retry cannot fix a transport failure")
	assert.False(t, checklist.AIGenerated)
}

func TestGeneratorService_CanceledContextFallsBack(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	llm := &fakeLLM{responses: []string{validResponse}}
	gen := newTestGenerator(llm, nil)

	checklist, err := gen.Generate(ctx, &GenerateParams{
		ApplicationID: "app-1",
		Applicant:     testApplicant(),
	})
	require.NoError(t, err)
	assert.False(t, checklist.AIGenerated)
	assert.NotEmpty(t, checklist.Items)
}

func TestGeneratorService_CacheRoundTrip(t *testing.T) {
	llm := &fakeLLM{responses: []string{validResponse}}
	cache := &fakeCache{}
	gen := newTestGenerator(llm, cache)

	params := &GenerateParams{ApplicationID: "app-1", Applicant: testApplicant()}

	first, err := gen.Generate(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	second, err := gen.Generate(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, 1, llm.calls, "second call must be served from cache")
	assert.Equal(t, first, second)
}

func TestGeneratorService_LocalizedPrompts(t *testing.T) {
	for _, lang := range []string{"en", "ru", "uz"} {
		llm := &fakeLLM{responses: []string{validResponse}}
		gen := newTestGenerator(llm, nil)
		applicant := testApplicant()
		applicant.AppLanguage = lang

		_, err := gen.Generate(context.Background(), &GenerateParams{ApplicationID: "app-1", Applicant: applicant})
		require.NoError(t, err)
		require.Len(t, llm.prompts, 1)
		assert.Contains(t, llm.prompts[0], "JSON")
	}
}
