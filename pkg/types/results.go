package types

import "sort"

// ResultType is the kind of entity a search result carries.
type ResultType string

const (
	ResultProfile        ResultType = "profile"
	ResultPost           ResultType = "post"
	ResultProject        ResultType = "project"
	ResultEducation      ResultType = "education"
	ResultExperience     ResultType = "experience"
	ResultProjectRequest ResultType = "project_request"
)

// Payload is the tagged-union contract for result data. Concrete types are
// *Profile, *Post, *Project, *Education, *Experience and *ProjectRequest.
type Payload interface {
	Kind() ResultType
	Key() string
}

// SearchResult is the universal currency passed between retrieval stages.
// Type and ID together form the unique key used for deduplication.
type SearchResult struct {
	Type           ResultType `json:"type"`
	ID             string     `json:"id"`
	Data           Payload    `json:"data"`
	RelevanceScore float64    `json:"relevance_score"`
	MatchReason    string     `json:"match_reason"`
}

// DedupeKey returns the "type:id" identity of the result.
func (r *SearchResult) DedupeKey() string {
	return string(r.Type) + ":" + r.ID
}

// RelationshipType labels a derived edge between two result entities.
type RelationshipType string

const (
	RelationAuthored    RelationshipType = "authored"
	RelationContributes RelationshipType = "contributes"
)

// Relationship is a derived edge reconstructed from authorship and
// contribution fields visible in the organized result set.
type Relationship struct {
	Source string           `json:"source"`
	Target string           `json:"target"`
	Type   RelationshipType `json:"type"`
}

// SearchResults is the organized, per-type view of deduplicated results.
// Buckets are sorted descending by relevance score. The set is created
// empty, populated by the retrieval agent, optionally grown in place by
// data-gap augmentation, and read-only thereafter.
type SearchResults struct {
	Profiles        []SearchResult `json:"profiles"`
	Posts           []SearchResult `json:"posts"`
	Projects        []SearchResult `json:"projects"`
	Educations      []SearchResult `json:"educations"`
	Experiences     []SearchResult `json:"experiences"`
	ProjectRequests []SearchResult `json:"project_requests"`
	Relationships   []Relationship `json:"relationships"`
}

// Total returns the number of entity results across all buckets.
// Relationships are derived edges, not results, and are not counted.
func (r *SearchResults) Total() int {
	return len(r.Profiles) + len(r.Posts) + len(r.Projects) +
		len(r.Educations) + len(r.Experiences) + len(r.ProjectRequests)
}

// Bucket returns the bucket slice for a result type.
func (r *SearchResults) Bucket(t ResultType) []SearchResult {
	switch t {
	case ResultProfile:
		return r.Profiles
	case ResultPost:
		return r.Posts
	case ResultProject:
		return r.Projects
	case ResultEducation:
		return r.Educations
	case ResultExperience:
		return r.Experiences
	case ResultProjectRequest:
		return r.ProjectRequests
	}
	return nil
}

// Append adds a result to the bucket matching its type.
func (r *SearchResults) Append(res SearchResult) {
	switch res.Type {
	case ResultProfile:
		r.Profiles = append(r.Profiles, res)
	case ResultPost:
		r.Posts = append(r.Posts, res)
	case ResultProject:
		r.Projects = append(r.Projects, res)
	case ResultEducation:
		r.Educations = append(r.Educations, res)
	case ResultExperience:
		r.Experiences = append(r.Experiences, res)
	case ResultProjectRequest:
		r.ProjectRequests = append(r.ProjectRequests, res)
	}
}

// SortBuckets orders every bucket descending by relevance score.
func (r *SearchResults) SortBuckets() {
	for _, bucket := range [][]SearchResult{
		r.Profiles, r.Posts, r.Projects, r.Educations, r.Experiences, r.ProjectRequests,
	} {
		sort.SliceStable(bucket, func(i, j int) bool {
			return bucket[i].RelevanceScore > bucket[j].RelevanceScore
		})
	}
}
