package search

import (
	"context"
	"time"

	"github.com/knnymrls/whoknows/pkg/store"
	"github.com/knnymrls/whoknows/pkg/types"
)

// fakeEmbedder returns a canned vector and counts calls.
type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, f.err
}

func (f *fakeEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

func (f *fakeEmbedder) Dimensions() int { return len(f.vector) }

// fakeVectors serves canned similarity matches.
type fakeVectors struct {
	profiles []store.ProfileMatch
	posts    []store.PostMatch
	projects []store.ProjectMatch
	requests []store.ProjectRequestMatch
	err      error
}

func (f *fakeVectors) MatchProfilesByEmbedding(ctx context.Context, embedding []float32, limit int) ([]store.ProfileMatch, error) {
	return f.profiles, f.err
}

func (f *fakeVectors) MatchPostsByEmbedding(ctx context.Context, embedding []float32, limit int) ([]store.PostMatch, error) {
	return f.posts, f.err
}

func (f *fakeVectors) MatchProjectsByEmbedding(ctx context.Context, embedding []float32, limit int) ([]store.ProjectMatch, error) {
	return f.projects, f.err
}

func (f *fakeVectors) MatchProjectRequestsByEmbedding(ctx context.Context, embedding []float32, limit int) ([]store.ProjectRequestMatch, error) {
	return f.requests, f.err
}

// fakePatterns serves canned keyword matches and records the terms it was
// asked for.
type fakePatterns struct {
	profiles    []types.Profile
	experiences []types.Experience
	skills      []types.Skill
	posts       []types.Post
	projects    []types.Project
	lastTerms   []string
	err         error
}

func (f *fakePatterns) FindProfilesMatching(ctx context.Context, terms []string) ([]types.Profile, error) {
	f.lastTerms = terms
	return f.profiles, f.err
}

func (f *fakePatterns) FindExperiencesMatching(ctx context.Context, terms []string) ([]types.Experience, error) {
	return f.experiences, f.err
}

func (f *fakePatterns) FindSkillsMatching(ctx context.Context, terms []string) ([]types.Skill, error) {
	return f.skills, f.err
}

func (f *fakePatterns) FindPostsMatching(ctx context.Context, terms []string) ([]types.Post, error) {
	return f.posts, f.err
}

func (f *fakePatterns) FindProjectsMatching(ctx context.Context, terms []string) ([]types.Project, error) {
	return f.projects, f.err
}

// postMentions is the mention fan-out of a single post.
type postMentions struct {
	profiles []string
	projects []string
}

// fakeRelations resolves relations from in-memory maps and counts fetches
// per node so traversal tests can assert each node is expanded once.
type fakeRelations struct {
	profiles        map[string]*types.Profile
	projects        map[string]*types.Project
	posts           map[string]*types.Post
	skills          map[string][]types.Skill
	experiences     map[string][]types.Experience
	educations      map[string][]types.Education
	contributions   map[string][]types.Contribution
	profileProjects map[string][]types.Project
	authorPosts     map[string][]types.Post
	projectPosts    map[string][]types.Post
	mentions        map[string]postMentions
	recent          []types.Post

	fetches map[string]int
}

func newFakeRelations() *fakeRelations {
	return &fakeRelations{
		profiles:        make(map[string]*types.Profile),
		projects:        make(map[string]*types.Project),
		posts:           make(map[string]*types.Post),
		skills:          make(map[string][]types.Skill),
		experiences:     make(map[string][]types.Experience),
		educations:      make(map[string][]types.Education),
		contributions:   make(map[string][]types.Contribution),
		profileProjects: make(map[string][]types.Project),
		authorPosts:     make(map[string][]types.Post),
		projectPosts:    make(map[string][]types.Post),
		mentions:        make(map[string]postMentions),
		fetches:         make(map[string]int),
	}
}

func (f *fakeRelations) count(method, id string) { f.fetches[method+":"+id]++ }

func (f *fakeRelations) ProfileByID(ctx context.Context, id string) (*types.Profile, error) {
	f.count("ProfileByID", id)
	if p, ok := f.profiles[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeRelations) ProjectByID(ctx context.Context, id string) (*types.Project, error) {
	f.count("ProjectByID", id)
	if p, ok := f.projects[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeRelations) PostByID(ctx context.Context, id string) (*types.Post, error) {
	f.count("PostByID", id)
	if p, ok := f.posts[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeRelations) SkillsForProfile(ctx context.Context, profileID string) ([]types.Skill, error) {
	f.count("SkillsForProfile", profileID)
	return f.skills[profileID], nil
}

func (f *fakeRelations) ExperiencesForProfile(ctx context.Context, profileID string) ([]types.Experience, error) {
	f.count("ExperiencesForProfile", profileID)
	return f.experiences[profileID], nil
}

func (f *fakeRelations) EducationsForProfile(ctx context.Context, profileID string) ([]types.Education, error) {
	f.count("EducationsForProfile", profileID)
	return f.educations[profileID], nil
}

func (f *fakeRelations) ContributionsForProject(ctx context.Context, projectID string) ([]types.Contribution, error) {
	f.count("ContributionsForProject", projectID)
	return f.contributions[projectID], nil
}

func (f *fakeRelations) ProjectsForProfile(ctx context.Context, profileID string) ([]types.Project, error) {
	f.count("ProjectsForProfile", profileID)
	return f.profileProjects[profileID], nil
}

func (f *fakeRelations) PostsByAuthor(ctx context.Context, profileID string, limit int) ([]types.Post, error) {
	f.count("PostsByAuthor", profileID)
	posts := f.authorPosts[profileID]
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (f *fakeRelations) PostsMentioningProject(ctx context.Context, projectID string, limit int) ([]types.Post, error) {
	f.count("PostsMentioningProject", projectID)
	posts := f.projectPosts[projectID]
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (f *fakeRelations) MentionsForPost(ctx context.Context, postID string) ([]string, []string, error) {
	f.count("MentionsForPost", postID)
	m := f.mentions[postID]
	return m.profiles, m.projects, nil
}

func (f *fakeRelations) RecentPostsByAuthors(ctx context.Context, profileIDs []string, since time.Time, limit int) ([]types.Post, error) {
	f.count("RecentPostsByAuthors", "")
	return f.recent, nil
}
