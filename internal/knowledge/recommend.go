package knowledge

import "github.com/studyforge/backend/internal/models"

// SelectRecommendation picks the subject to study next. Unfinished subjects
// win, lowest progress first, earliest input position breaking ties. When
// everything is at 100%, the most recently studied subject is suggested for
// review. No subjects means no recommendation.
func SelectRecommendation(subjects []models.SubjectProgress) *models.SubjectProgress {
	if len(subjects) == 0 {
		return nil
	}

	var pick *models.SubjectProgress
	for i := range subjects {
		s := &subjects[i]
		if s.Progress >= 100 {
			continue
		}
		if pick == nil || s.Progress < pick.Progress {
			pick = s
		}
	}
	if pick != nil {
		return pick
	}

	// All mastered: suggest the most recent one for review.
	pick = &subjects[0]
	for i := range subjects[1:] {
		s := &subjects[i+1]
		if s.LastStudiedAt.After(pick.LastStudiedAt) {
			pick = s
		}
	}
	return pick
}
