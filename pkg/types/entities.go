package types

import "time"

// Profile is a person in the organization, optionally enriched with
// joined child records.
type Profile struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Title       string       `json:"title,omitempty"`
	Bio         string       `json:"bio,omitempty"`
	Location    string       `json:"location,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	Skills      []Skill      `json:"skills,omitempty"`
	Experiences []Experience `json:"experiences,omitempty"`
	Educations  []Education  `json:"educations,omitempty"`

	// HasExperiences distinguishes "no experiences exist" from
	// "experiences were never fetched". Gap detection keys off it.
	HasExperiences bool `json:"-"`
}

// Skill is a single named skill attached to a profile.
type Skill struct {
	ID        string `json:"id"`
	ProfileID string `json:"profile_id"`
	Name      string `json:"name"`
}

// Experience is one work history entry for a profile.
type Experience struct {
	ID          string     `json:"id"`
	ProfileID   string     `json:"profile_id"`
	Role        string     `json:"role"`
	Company     string     `json:"company"`
	Description string     `json:"description,omitempty"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty"`
}

// Education is one education history entry for a profile.
type Education struct {
	ID        string     `json:"id"`
	ProfileID string     `json:"profile_id"`
	School    string     `json:"school"`
	Degree    string     `json:"degree,omitempty"`
	Field     string     `json:"field,omitempty"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

// Post is a short status update authored by a profile. Mentions are the
// profiles and projects the post references.
type Post struct {
	ID                string    `json:"id"`
	AuthorID          string    `json:"author_id"`
	Content           string    `json:"content"`
	CreatedAt         time.Time `json:"created_at"`
	Author            *Profile  `json:"author,omitempty"`
	MentionedProfiles []string  `json:"mentioned_profiles,omitempty"`
	MentionedProjects []string  `json:"mentioned_projects,omitempty"`
}

// Project is a piece of work profiles contribute to.
type Project struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Description   string         `json:"description,omitempty"`
	Status        string         `json:"status,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	Contributions []Contribution `json:"contributions,omitempty"`

	// HasContributions mirrors Profile.HasExperiences for gap detection.
	HasContributions bool `json:"-"`
}

// Contribution links a profile to a project with a role.
type Contribution struct {
	ID          string   `json:"id"`
	ProjectID   string   `json:"project_id"`
	ProfileID   string   `json:"profile_id"`
	Role        string   `json:"role,omitempty"`
	Contributor *Profile `json:"contributor,omitempty"`
}

// ProjectRequest is an open ask for collaborators on upcoming work.
type ProjectRequest struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	SkillsNeeded []string  `json:"skills_needed,omitempty"`
	CreatorID    string    `json:"creator_id"`
	Creator      *Profile  `json:"creator,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Payload implementations. Kind is the tagged-union discriminant and Key
// is the store identity used for deduplication.

func (p *Profile) Kind() ResultType        { return ResultProfile }
func (p *Profile) Key() string             { return p.ID }
func (p *Post) Kind() ResultType           { return ResultPost }
func (p *Post) Key() string                { return p.ID }
func (p *Project) Kind() ResultType        { return ResultProject }
func (p *Project) Key() string             { return p.ID }
func (e *Education) Kind() ResultType      { return ResultEducation }
func (e *Education) Key() string           { return e.ID }
func (e *Experience) Kind() ResultType     { return ResultExperience }
func (e *Experience) Key() string          { return e.ID }
func (r *ProjectRequest) Kind() ResultType { return ResultProjectRequest }
func (r *ProjectRequest) Key() string      { return r.ID }
