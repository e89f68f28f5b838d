package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knnymrls/whoknows/pkg/store"
	"github.com/knnymrls/whoknows/pkg/types"
)

func TestSemanticStrategyName(t *testing.T) {
	s := NewSemanticStrategy(&fakeVectors{}, newFakeRelations(), &fakeEmbedder{})
	assert.Equal(t, "semantic", s.Name())
}

func TestSemanticStrategyEmbedsOnce(t *testing.T) {
	emb := &fakeEmbedder{vector: []float32{0.1, 0.2}}
	vectors := &fakeVectors{
		profiles: []store.ProfileMatch{{Profile: types.Profile{ID: "p1"}, Similarity: 0.91}},
		posts:    []store.PostMatch{{Post: types.Post{ID: "post1"}, Similarity: 0.88}},
	}
	s := NewSemanticStrategy(vectors, newFakeRelations(), emb)

	_, err := s.Execute(context.Background(), "who knows go", nil)
	require.NoError(t, err)

	// Four table searches share one embedding call.
	assert.Equal(t, 1, emb.calls)
}

func TestSemanticStrategyProfileEnrichment(t *testing.T) {
	emb := &fakeEmbedder{vector: []float32{0.1}}
	vectors := &fakeVectors{
		profiles: []store.ProfileMatch{{Profile: types.Profile{ID: "p1", Name: "Ada"}, Similarity: 0.91}},
	}
	relations := newFakeRelations()
	relations.skills["p1"] = []types.Skill{{ID: "s1", ProfileID: "p1", Name: "golang"}}
	relations.experiences["p1"] = []types.Experience{{ID: "e1", ProfileID: "p1", Role: "SWE"}}
	relations.educations["p1"] = []types.Education{{ID: "ed1", ProfileID: "p1", School: "MIT"}}

	s := NewSemanticStrategy(vectors, relations, emb)
	results, err := s.Execute(context.Background(), "go experts", nil)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, types.ResultProfile, results[0].Type)
	assert.Equal(t, 0.91, results[0].RelevanceScore)
	assert.Equal(t, "Profile semantically similar to query", results[0].MatchReason)

	profile, ok := results[0].Data.(*types.Profile)
	require.True(t, ok)
	assert.Len(t, profile.Skills, 1)
	assert.Len(t, profile.Experiences, 1)
	assert.Len(t, profile.Educations, 1)
	assert.True(t, profile.HasExperiences)
}

func TestSemanticStrategyProfileEnrichmentMarksEmptyFetch(t *testing.T) {
	emb := &fakeEmbedder{vector: []float32{0.1}}
	vectors := &fakeVectors{
		profiles: []store.ProfileMatch{{Profile: types.Profile{ID: "p1"}, Similarity: 0.5}},
	}
	s := NewSemanticStrategy(vectors, newFakeRelations(), emb)

	results, err := s.Execute(context.Background(), "q", nil)
	require.NoError(t, err)
	require.Len(t, results, 1)

	// No experiences exist, but the fetch ran: the flag still flips so gap
	// detection does not ask again.
	profile := results[0].Data.(*types.Profile)
	assert.Empty(t, profile.Experiences)
	assert.True(t, profile.HasExperiences)
}

func TestSemanticStrategyProjectEnrichment(t *testing.T) {
	emb := &fakeEmbedder{vector: []float32{0.1}}
	vectors := &fakeVectors{
		projects: []store.ProjectMatch{{Project: types.Project{ID: "proj1", Title: "Search"}, Similarity: 0.77}},
	}
	relations := newFakeRelations()
	relations.contributions["proj1"] = []types.Contribution{
		{ID: "c1", ProjectID: "proj1", ProfileID: "p1"},
	}

	s := NewSemanticStrategy(vectors, relations, emb)
	results, err := s.Execute(context.Background(), "search work", nil)
	require.NoError(t, err)
	require.Len(t, results, 1)

	project := results[0].Data.(*types.Project)
	assert.True(t, project.HasContributions)
	assert.Len(t, project.Contributions, 1)
	assert.Equal(t, "Project semantically similar to query", results[0].MatchReason)
}

func TestSemanticStrategyProjectRequestCreator(t *testing.T) {
	emb := &fakeEmbedder{vector: []float32{0.1}}
	vectors := &fakeVectors{
		requests: []store.ProjectRequestMatch{{
			Request:    types.ProjectRequest{ID: "r1", Title: "Need Go help", CreatorID: "p1"},
			Similarity: 0.66,
		}},
	}
	relations := newFakeRelations()
	relations.profiles["p1"] = &types.Profile{ID: "p1", Name: "Ada"}

	s := NewSemanticStrategy(vectors, relations, emb)
	results, err := s.Execute(context.Background(), "open asks", nil)
	require.NoError(t, err)
	require.Len(t, results, 1)

	request := results[0].Data.(*types.ProjectRequest)
	require.NotNil(t, request.Creator)
	assert.Equal(t, "Ada", request.Creator.Name)
	assert.Equal(t, "Project opportunity semantically similar to query", results[0].MatchReason)
}

func TestSemanticStrategyEmbedderError(t *testing.T) {
	emb := &fakeEmbedder{err: errors.New("rate limited")}
	s := NewSemanticStrategy(&fakeVectors{}, newFakeRelations(), emb)

	_, err := s.Execute(context.Background(), "q", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding query")
}

func TestSemanticStrategySearchError(t *testing.T) {
	emb := &fakeEmbedder{vector: []float32{0.1}}
	vectors := &fakeVectors{err: errors.New("timeout")}
	s := NewSemanticStrategy(vectors, newFakeRelations(), emb)

	_, err := s.Execute(context.Background(), "q", nil)
	require.Error(t, err)
}

func TestSemanticStrategyMinSimilarityCutoff(t *testing.T) {
	emb := &fakeEmbedder{vector: []float32{0.1}}
	vectors := &fakeVectors{
		posts: []store.PostMatch{
			{Post: types.Post{ID: "hi"}, Similarity: 0.9},
			{Post: types.Post{ID: "lo"}, Similarity: 0.1},
		},
	}
	s := NewSemanticStrategy(vectors, newFakeRelations(), emb)
	s.minSimilarity = 0.5

	results, err := s.Execute(context.Background(), "q", nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "hi", results[0].ID)
}
