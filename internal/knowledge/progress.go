package knowledge

// DocumentPercent is the share of a document's nodes the user has mastered,
// floored to a whole percent. A document with no nodes reads as 0, never an
// error.
func DocumentPercent(known, total int) int {
	if total <= 0 {
		return 0
	}
	return known * 100 / total
}

// SubjectPercent is the floored mean of the subject's document percentages.
// A subject with no completed documents reads as 0.
func SubjectPercent(documentPercents []int) int {
	if len(documentPercents) == 0 {
		return 0
	}
	sum := 0
	for _, p := range documentPercents {
		sum += p
	}
	return sum / len(documentPercents)
}
