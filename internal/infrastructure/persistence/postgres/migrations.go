// Package postgres implements PostgreSQL persistence for Guild Rank Hub.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE RANK HIERARCHIES
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create rank hierarchies table
-- Version: 001

-- One row per rank, position is the tier (0 = lowest).
-- The hierarchy is always written wholesale: delete + insert in one
-- transaction, so positions stay dense without renumbering logic.
CREATE TABLE IF NOT EXISTS rank_hierarchies (
    community_id VARCHAR(64) NOT NULL,
    position INTEGER NOT NULL,
    name VARCHAR(100) NOT NULL,
    role_id VARCHAR(64) NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (community_id, position),
    CONSTRAINT valid_position CHECK (position >= 0),
    CONSTRAINT valid_name CHECK (char_length(name) BETWEEN 1 AND 100)
);

-- Rank names are unique per community, case-insensitively.
CREATE UNIQUE INDEX IF NOT EXISTS idx_rank_hierarchies_community_name
    ON rank_hierarchies(community_id, LOWER(name));
`

const migration001Down = `
DROP TABLE IF EXISTS rank_hierarchies;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE MEMBERS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create members table
-- Version: 002

-- One row per member record. current_rank stores the rank NAME, not a
-- foreign key: a rank removed from the hierarchy leaves the reference
-- dangling on purpose, and re-adding the rank restores it.
-- seq preserves creation order for stable leaderboard tie-breaking.
CREATE TABLE IF NOT EXISTS members (
    community_id VARCHAR(64) NOT NULL,
    member_id VARCHAR(64) NOT NULL,
    display_name VARCHAR(100) NOT NULL,
    current_rank VARCHAR(100) NOT NULL DEFAULT '',
    promotion_count INTEGER NOT NULL DEFAULT 0,
    demotion_count INTEGER NOT NULL DEFAULT 0,
    joined_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    last_updated TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    history JSONB NOT NULL DEFAULT '[]'::jsonb,
    seq BIGSERIAL,

    PRIMARY KEY (community_id, member_id),
    CONSTRAINT valid_counts CHECK (promotion_count >= 0 AND demotion_count >= 0)
);

CREATE INDEX IF NOT EXISTS idx_members_community_seq ON members(community_id, seq);
CREATE INDEX IF NOT EXISTS idx_members_community_rank ON members(community_id, LOWER(current_rank));
`

const migration002Down = `
DROP TABLE IF EXISTS members;
`

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_rank_hierarchies",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_members",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
	}
}
