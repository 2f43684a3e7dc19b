package matcher

import (
	"strings"

	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/domain"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/logger"
)

// mergeFields folds an incoming signal record into an existing entity's
// profile fields. A populated field is only replaced when the incoming value
// is strictly more complete: longer and still containing the existing value
// after normalization. Conflicting populated values keep the existing one and
// are logged for review. Returns whether anything changed.
func mergeFields(entity *domain.Entity, rec *domain.SignalRecord, log logger.Interface) bool {
	changed := false
	fields := []struct {
		name     string
		existing *string
		incoming string
	}{
		{"full_name", &entity.FullName, rec.FullName},
		{"email", &entity.Email, rec.Email},
		{"employer", &entity.Employer, rec.Employer},
		{"location", &entity.Location, rec.Location},
		{"bio", &entity.Bio, rec.Bio},
	}

	for _, f := range fields {
		switch decideMerge(*f.existing, f.incoming) {
		case mergeTake:
			*f.existing = f.incoming
			changed = true
		case mergeConflict:
			log.Warn("conflicting field values during merge",
				"entity_id", entity.ID,
				"login", rec.Login,
				"field", f.name,
				"existing", *f.existing,
				"incoming", f.incoming)
		}
	}

	return changed
}

type mergeOutcome int

const (
	mergeKeep mergeOutcome = iota
	mergeTake
	mergeConflict
)

// decideMerge applies the completeness rule for one field pair.
func decideMerge(existing, incoming string) mergeOutcome {
	if incoming == "" || incoming == existing {
		return mergeKeep
	}
	if existing == "" {
		return mergeTake
	}

	// Strictly more complete: longer and containing the existing value.
	if len(incoming) > len(existing) &&
		strings.Contains(strings.ToLower(incoming), strings.ToLower(existing)) {
		return mergeTake
	}

	return mergeConflict
}
