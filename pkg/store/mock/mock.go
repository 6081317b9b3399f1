// Package mock provides an in-memory store.Store for tests.
package mock

import (
	"context"
	"sort"
	"sync"

	"github.com/stafflens/stafflens/pkg/store"
)

// Compile-time interface assertion.
var _ store.Store = (*Store)(nil)

// Store is an in-memory mock implementation of store.Store with error
// injection and call recording.
type Store struct {
	mu sync.Mutex

	// Error injection. When set, the corresponding method returns the error
	// without touching state.
	SaveInterviewErr error
	SaveAnalysisErr  error
	InterviewErr     error
	RecentErr        error
	StatsErr         error
	DeleteErr        error

	// Call records (read after test).
	SaveInterviewCalls []store.Interview
	SaveAnalysisCalls  []store.Analysis
	DeleteCalls        []int64

	nextID     int64
	interviews map[int64]store.Interview
	analyses   map[int64]store.Analysis
}

// SaveInterview implements store.Store.
func (s *Store) SaveInterview(_ context.Context, iv store.Interview) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.SaveInterviewCalls = append(s.SaveInterviewCalls, iv)
	if s.SaveInterviewErr != nil {
		return 0, s.SaveInterviewErr
	}

	if s.interviews == nil {
		s.interviews = make(map[int64]store.Interview)
	}
	s.nextID++
	iv.ID = s.nextID
	s.interviews[iv.ID] = iv
	return iv.ID, nil
}

// SaveAnalysis implements store.Store.
func (s *Store) SaveAnalysis(_ context.Context, a store.Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.SaveAnalysisCalls = append(s.SaveAnalysisCalls, a)
	if s.SaveAnalysisErr != nil {
		return s.SaveAnalysisErr
	}

	if s.analyses == nil {
		s.analyses = make(map[int64]store.Analysis)
	}
	s.analyses[a.InterviewID] = a
	return nil
}

// Interview implements store.Store.
func (s *Store) Interview(_ context.Context, id int64) (*store.Interview, *store.Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.InterviewErr != nil {
		return nil, nil, s.InterviewErr
	}
	iv, ok := s.interviews[id]
	if !ok {
		return nil, nil, store.ErrNotFound
	}
	if a, ok := s.analyses[id]; ok {
		return &iv, &a, nil
	}
	return &iv, nil, nil
}

// Recent implements store.Store.
func (s *Store) Recent(_ context.Context, guildID string, limit int) ([]store.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.RecentErr != nil {
		return nil, s.RecentErr
	}

	var matched []store.Interview
	for _, iv := range s.interviews {
		if iv.GuildID == guildID {
			matched = append(matched, iv)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].StartedAt.After(matched[j].StartedAt)
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	summaries := make([]store.Summary, 0, len(matched))
	for _, iv := range matched {
		sum := store.Summary{
			ID:            iv.ID,
			ApplicantName: iv.ApplicantName,
			ChannelName:   iv.ChannelName,
			StartedAt:     iv.StartedAt,
		}
		if a, ok := s.analyses[iv.ID]; ok {
			sum.Analyzed = true
			sum.FitScore = a.FitScore
			sum.Recommended = a.Recommended
		}
		summaries = append(summaries, sum)
	}
	return summaries, nil
}

// Stats implements store.Store.
func (s *Store) Stats(_ context.Context, guildID string) (*store.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.StatsErr != nil {
		return nil, s.StatsErr
	}

	var st store.Stats
	var scoreSum int
	for id, iv := range s.interviews {
		if iv.GuildID != guildID {
			continue
		}
		st.TotalInterviews++
		if a, ok := s.analyses[id]; ok {
			st.AnalyzedCount++
			scoreSum += a.FitScore
			if a.Recommended {
				st.RecommendedCount++
			}
		}
	}
	if st.AnalyzedCount > 0 {
		st.AverageFitScore = float64(scoreSum) / float64(st.AnalyzedCount)
	}
	return &st, nil
}

// Delete implements store.Store.
func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.DeleteCalls = append(s.DeleteCalls, id)
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	if _, ok := s.interviews[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.interviews, id)
	delete(s.analyses, id)
	return nil
}
