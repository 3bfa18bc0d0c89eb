package repository

import (
	"errors"
	"fmt"
	"testing"

	"solarshare/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestUniqueViolation(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantOK     bool
		constraint string
	}{
		{"nil", nil, false, ""},
		{"postgres", &pgconn.PgError{Code: "23505", ConstraintName: "idx_community_members_user"}, true, "idx_community_members_user"},
		{"postgres wrapped", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "idx_votes_request_voter"}), true, "idx_votes_request_voter"},
		{"postgres other code", &pgconn.PgError{Code: "23503"}, false, ""},
		{"sqlite", errors.New("UNIQUE constraint failed: communities.community_code"), true, "communities.community_code"},
		{"gorm translated", gorm.ErrDuplicatedKey, true, ""},
		{"other", errors.New("connection reset"), false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			constraint, ok := uniqueViolation(tt.err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.constraint, constraint)
		})
	}

	assert.True(t, violates(errors.New("UNIQUE constraint failed: community_members.user_id"), "community_members"))
	assert.False(t, violates(errors.New("UNIQUE constraint failed: community_members.user_id"), "community_code"))
}

func TestNotFoundOr(t *testing.T) {
	assert.True(t, models.HasCode(notFoundOr(gorm.ErrRecordNotFound, "Project", 3), models.CodeNotFound))
	assert.True(t, models.HasCode(notFoundOr(errors.New("boom"), "Project", 3), models.CodeInternal))
}
