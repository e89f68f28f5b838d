package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/knnymrls/whoknows/pkg/types"
)

// PostgresStore implements Store on Postgres with the pgvector extension.
// Similarity uses cosine distance (<=>), reported as 1 - distance.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection pool against the given DSN.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &PostgresStore{db: db}, nil
}

// Ping verifies the connection is usable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// ilikePatterns wraps raw terms for ILIKE ANY matching.
func ilikePatterns(terms []string) interface{} {
	patterns := make([]string, len(terms))
	for i, t := range terms {
		patterns[i] = "%" + t + "%"
	}
	return pq.Array(patterns)
}

const profileColumns = `p.id, p.name, COALESCE(p.title, ''), COALESCE(p.bio, ''), COALESCE(p.location, ''), p.created_at`

func scanProfile(scan func(dest ...any) error, extra ...any) (types.Profile, error) {
	var p types.Profile
	dest := []any{&p.ID, &p.Name, &p.Title, &p.Bio, &p.Location, &p.CreatedAt}
	dest = append(dest, extra...)
	if err := scan(dest...); err != nil {
		return types.Profile{}, err
	}
	return p, nil
}

func (s *PostgresStore) MatchProfilesByEmbedding(ctx context.Context, embedding []float32, limit int) ([]ProfileMatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+profileColumns+`, 1 - (p.embedding <=> $1) AS similarity
		FROM profiles p
		WHERE p.embedding IS NOT NULL
		ORDER BY p.embedding <=> $1
		LIMIT $2`,
		pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("profile similarity search failed: %w", err)
	}
	defer rows.Close()

	var matches []ProfileMatch
	for rows.Next() {
		var m ProfileMatch
		p, err := scanProfile(rows.Scan, &m.Similarity)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile match: %w", err)
		}
		m.Profile = p
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (s *PostgresStore) MatchPostsByEmbedding(ctx context.Context, embedding []float32, limit int) ([]PostMatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, author_id, content, created_at, 1 - (embedding <=> $1) AS similarity
		FROM posts
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1
		LIMIT $2`,
		pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("post similarity search failed: %w", err)
	}
	defer rows.Close()

	var matches []PostMatch
	for rows.Next() {
		var m PostMatch
		if err := rows.Scan(&m.Post.ID, &m.Post.AuthorID, &m.Post.Content, &m.Post.CreatedAt, &m.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan post match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (s *PostgresStore) MatchProjectsByEmbedding(ctx context.Context, embedding []float32, limit int) ([]ProjectMatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, COALESCE(description, ''), COALESCE(status, ''), created_at,
		       1 - (embedding <=> $1) AS similarity
		FROM projects
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1
		LIMIT $2`,
		pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("project similarity search failed: %w", err)
	}
	defer rows.Close()

	var matches []ProjectMatch
	for rows.Next() {
		var m ProjectMatch
		if err := rows.Scan(&m.Project.ID, &m.Project.Title, &m.Project.Description, &m.Project.Status, &m.Project.CreatedAt, &m.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan project match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (s *PostgresStore) MatchProjectRequestsByEmbedding(ctx context.Context, embedding []float32, limit int) ([]ProjectRequestMatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, COALESCE(description, ''), skills_needed, creator_id, created_at,
		       1 - (embedding <=> $1) AS similarity
		FROM project_requests
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1
		LIMIT $2`,
		pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("project request similarity search failed: %w", err)
	}
	defer rows.Close()

	var matches []ProjectRequestMatch
	for rows.Next() {
		var m ProjectRequestMatch
		if err := rows.Scan(&m.Request.ID, &m.Request.Title, &m.Request.Description,
			pq.Array(&m.Request.SkillsNeeded), &m.Request.CreatorID, &m.Request.CreatedAt, &m.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan project request match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (s *PostgresStore) FindProfilesMatching(ctx context.Context, terms []string) ([]types.Profile, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+profileColumns+`
		FROM profiles p
		WHERE p.name ILIKE ANY($1) OR p.title ILIKE ANY($1) OR p.bio ILIKE ANY($1)
		LIMIT 50`,
		ilikePatterns(terms))
	if err != nil {
		return nil, fmt.Errorf("profile pattern search failed: %w", err)
	}
	defer rows.Close()

	var profiles []types.Profile
	for rows.Next() {
		p, err := scanProfile(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (s *PostgresStore) FindExperiencesMatching(ctx context.Context, terms []string) ([]types.Experience, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, profile_id, role, company, COALESCE(description, ''), start_date, end_date
		FROM experiences
		WHERE role ILIKE ANY($1) OR company ILIKE ANY($1) OR description ILIKE ANY($1)
		LIMIT 50`,
		ilikePatterns(terms))
	if err != nil {
		return nil, fmt.Errorf("experience pattern search failed: %w", err)
	}
	defer rows.Close()

	var experiences []types.Experience
	for rows.Next() {
		var e types.Experience
		var end sql.NullTime
		if err := rows.Scan(&e.ID, &e.ProfileID, &e.Role, &e.Company, &e.Description, &e.StartDate, &end); err != nil {
			return nil, fmt.Errorf("failed to scan experience: %w", err)
		}
		if end.Valid {
			e.EndDate = &end.Time
		}
		experiences = append(experiences, e)
	}
	return experiences, rows.Err()
}

func (s *PostgresStore) FindSkillsMatching(ctx context.Context, terms []string) ([]types.Skill, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, profile_id, name
		FROM skills
		WHERE name ILIKE ANY($1)
		LIMIT 100`,
		ilikePatterns(terms))
	if err != nil {
		return nil, fmt.Errorf("skills pattern search failed: %w", err)
	}
	defer rows.Close()

	var skills []types.Skill
	for rows.Next() {
		var sk types.Skill
		if err := rows.Scan(&sk.ID, &sk.ProfileID, &sk.Name); err != nil {
			return nil, fmt.Errorf("failed to scan skill: %w", err)
		}
		skills = append(skills, sk)
	}
	return skills, rows.Err()
}

func (s *PostgresStore) FindPostsMatching(ctx context.Context, terms []string) ([]types.Post, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, author_id, content, created_at
		FROM posts
		WHERE content ILIKE ANY($1)
		ORDER BY created_at DESC
		LIMIT 50`,
		ilikePatterns(terms))
	if err != nil {
		return nil, fmt.Errorf("post pattern search failed: %w", err)
	}
	defer rows.Close()
	return scanPosts(rows)
}

func (s *PostgresStore) FindProjectsMatching(ctx context.Context, terms []string) ([]types.Project, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, COALESCE(description, ''), COALESCE(status, ''), created_at
		FROM projects
		WHERE title ILIKE ANY($1) OR description ILIKE ANY($1)
		LIMIT 50`,
		ilikePatterns(terms))
	if err != nil {
		return nil, fmt.Errorf("project pattern search failed: %w", err)
	}
	defer rows.Close()
	return scanProjects(rows)
}

func (s *PostgresStore) ProfileByID(ctx context.Context, id string) (*types.Profile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+profileColumns+` FROM profiles p WHERE p.id = $1`, id)
	p, err := scanProfile(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile %s: %w", id, err)
	}
	return &p, nil
}

func (s *PostgresStore) ProjectByID(ctx context.Context, id string) (*types.Project, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, COALESCE(description, ''), COALESCE(status, ''), created_at
		FROM projects WHERE id = $1`, id)
	var p types.Project
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Status, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch project %s: %w", id, err)
	}
	return &p, nil
}

func (s *PostgresStore) PostByID(ctx context.Context, id string) (*types.Post, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, author_id, content, created_at FROM posts WHERE id = $1`, id)
	var p types.Post
	err := row.Scan(&p.ID, &p.AuthorID, &p.Content, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch post %s: %w", id, err)
	}
	return &p, nil
}

func (s *PostgresStore) SkillsForProfile(ctx context.Context, profileID string) ([]types.Skill, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, profile_id, name FROM skills WHERE profile_id = $1`, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch skills for profile %s: %w", profileID, err)
	}
	defer rows.Close()

	var skills []types.Skill
	for rows.Next() {
		var sk types.Skill
		if err := rows.Scan(&sk.ID, &sk.ProfileID, &sk.Name); err != nil {
			return nil, fmt.Errorf("failed to scan skill: %w", err)
		}
		skills = append(skills, sk)
	}
	return skills, rows.Err()
}

func (s *PostgresStore) ExperiencesForProfile(ctx context.Context, profileID string) ([]types.Experience, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, profile_id, role, company, COALESCE(description, ''), start_date, end_date
		FROM experiences WHERE profile_id = $1
		ORDER BY start_date DESC`, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch experiences for profile %s: %w", profileID, err)
	}
	defer rows.Close()

	var experiences []types.Experience
	for rows.Next() {
		var e types.Experience
		var end sql.NullTime
		if err := rows.Scan(&e.ID, &e.ProfileID, &e.Role, &e.Company, &e.Description, &e.StartDate, &end); err != nil {
			return nil, fmt.Errorf("failed to scan experience: %w", err)
		}
		if end.Valid {
			e.EndDate = &end.Time
		}
		experiences = append(experiences, e)
	}
	return experiences, rows.Err()
}

func (s *PostgresStore) EducationsForProfile(ctx context.Context, profileID string) ([]types.Education, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, profile_id, school, COALESCE(degree, ''), COALESCE(field, ''), start_date, end_date
		FROM educations WHERE profile_id = $1
		ORDER BY start_date DESC`, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch educations for profile %s: %w", profileID, err)
	}
	defer rows.Close()

	var educations []types.Education
	for rows.Next() {
		var e types.Education
		var end sql.NullTime
		if err := rows.Scan(&e.ID, &e.ProfileID, &e.School, &e.Degree, &e.Field, &e.StartDate, &end); err != nil {
			return nil, fmt.Errorf("failed to scan education: %w", err)
		}
		if end.Valid {
			e.EndDate = &end.Time
		}
		educations = append(educations, e)
	}
	return educations, rows.Err()
}

func (s *PostgresStore) ContributionsForProject(ctx context.Context, projectID string) ([]types.Contribution, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.project_id, c.profile_id, COALESCE(c.role, ''),
		       `+profileColumns+`
		FROM contributions c
		JOIN profiles p ON p.id = c.profile_id
		WHERE c.project_id = $1`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contributions for project %s: %w", projectID, err)
	}
	defer rows.Close()

	var contributions []types.Contribution
	for rows.Next() {
		var c types.Contribution
		var p types.Profile
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.ProfileID, &c.Role,
			&p.ID, &p.Name, &p.Title, &p.Bio, &p.Location, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contribution: %w", err)
		}
		c.Contributor = &p
		contributions = append(contributions, c)
	}
	return contributions, rows.Err()
}

func (s *PostgresStore) ProjectsForProfile(ctx context.Context, profileID string) ([]types.Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pr.id, pr.title, COALESCE(pr.description, ''), COALESCE(pr.status, ''), pr.created_at
		FROM projects pr
		JOIN contributions c ON c.project_id = pr.id
		WHERE c.profile_id = $1`, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch projects for profile %s: %w", profileID, err)
	}
	defer rows.Close()
	return scanProjects(rows)
}

func (s *PostgresStore) PostsByAuthor(ctx context.Context, profileID string, limit int) ([]types.Post, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, author_id, content, created_at
		FROM posts WHERE author_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, profileID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch posts by author %s: %w", profileID, err)
	}
	defer rows.Close()
	return scanPosts(rows)
}

func (s *PostgresStore) PostsMentioningProject(ctx context.Context, projectID string, limit int) ([]types.Post, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.author_id, p.content, p.created_at
		FROM posts p
		JOIN post_mentions m ON m.post_id = p.id
		WHERE m.project_id = $1
		ORDER BY p.created_at DESC
		LIMIT $2`, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch posts mentioning project %s: %w", projectID, err)
	}
	defer rows.Close()
	return scanPosts(rows)
}

func (s *PostgresStore) MentionsForPost(ctx context.Context, postID string) ([]string, []string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT profile_id, project_id FROM post_mentions WHERE post_id = $1`, postID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch mentions for post %s: %w", postID, err)
	}
	defer rows.Close()

	var profileIDs, projectIDs []string
	for rows.Next() {
		var profileID, projectID sql.NullString
		if err := rows.Scan(&profileID, &projectID); err != nil {
			return nil, nil, fmt.Errorf("failed to scan post mention: %w", err)
		}
		if profileID.Valid {
			profileIDs = append(profileIDs, profileID.String)
		}
		if projectID.Valid {
			projectIDs = append(projectIDs, projectID.String)
		}
	}
	return profileIDs, projectIDs, rows.Err()
}

func (s *PostgresStore) RecentPostsByAuthors(ctx context.Context, profileIDs []string, since time.Time, limit int) ([]types.Post, error) {
	if len(profileIDs) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, author_id, content, created_at
		FROM posts
		WHERE author_id = ANY($1) AND created_at >= $2
		ORDER BY created_at DESC
		LIMIT $3`, pq.Array(profileIDs), since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent posts: %w", err)
	}
	defer rows.Close()
	return scanPosts(rows)
}

func (s *PostgresStore) CreateSession(ctx context.Context, userID, title string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_sessions (id, user_id, title, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())`, id, userID, title)
	if err != nil {
		return "", fmt.Errorf("failed to create chat session: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) TouchSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE chat_sessions SET updated_at = NOW() WHERE id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to touch chat session: %w", err)
	}
	return nil
}

func (s *PostgresStore) LogMessage(ctx context.Context, sessionID string, role types.Role, content string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_messages (id, session_id, role, content, created_at)
		VALUES ($1, $2, $3, $4, NOW())`, uuid.NewString(), sessionID, string(role), content)
	if err != nil {
		return fmt.Errorf("failed to log chat message: %w", err)
	}
	return nil
}

func scanPosts(rows *sql.Rows) ([]types.Post, error) {
	var posts []types.Post
	for rows.Next() {
		var p types.Post
		if err := rows.Scan(&p.ID, &p.AuthorID, &p.Content, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func scanProjects(rows *sql.Rows) ([]types.Project, error) {
	var projects []types.Project
	for rows.Next() {
		var p types.Project
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.Status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}
