package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/domain"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/logger"
)

func TestDecideMerge(t *testing.T) {
	tests := []struct {
		name     string
		existing string
		incoming string
		expected mergeOutcome
	}{
		{"empty incoming keeps", "Jane Doe", "", mergeKeep},
		{"equal keeps", "Jane Doe", "Jane Doe", mergeKeep},
		{"fills empty", "", "Jane Doe", mergeTake},
		{"strictly more complete wins", "Jane Doe", "Jane Doe, PhD", mergeTake},
		{"more complete is case-insensitive", "jane doe", "Dr. Jane Doe", mergeTake},
		{"longer but not containing conflicts", "Jane Doe", "Janet Smithson", mergeConflict},
		{"shorter never overwrites", "Jane A. Doe", "Jane Doe", mergeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, decideMerge(tt.existing, tt.incoming))
		})
	}
}

func TestMergeFields(t *testing.T) {
	entity := &domain.Entity{
		ID:       "entity-1",
		FullName: "Jane Doe",
		Email:    "",
		Employer: "Acme",
		Location: "Berlin",
	}
	rec := &domain.SignalRecord{
		Login:    "jdoe",
		FullName: "Jane Doe, PhD", // more complete
		Email:    "jane@acme.com", // fills empty
		Employer: "Umbrella Corp", // conflict, kept existing
		Location: "Berlin",        // equal
		Bio:      "Engineer",      // fills empty
	}

	changed := mergeFields(entity, rec, logger.NewNoOp())

	assert.True(t, changed)
	assert.Equal(t, "Jane Doe, PhD", entity.FullName)
	assert.Equal(t, "jane@acme.com", entity.Email)
	assert.Equal(t, "Acme", entity.Employer, "populated conflicting field must not be overwritten")
	assert.Equal(t, "Berlin", entity.Location)
	assert.Equal(t, "Engineer", entity.Bio)
}

func TestMergeFields_NoChange(t *testing.T) {
	entity := &domain.Entity{FullName: "Jane Doe", Email: "jane@acme.com"}
	rec := &domain.SignalRecord{FullName: "Jane Doe", Email: "jane@acme.com"}

	assert.False(t, mergeFields(entity, rec, logger.NewNoOp()))
}
