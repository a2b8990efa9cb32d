package fuzzy

// Choices is a candidate pool processed once and searched many times.
type Choices struct {
	raw       []string
	processed []string
}

func NewChoices(candidates []string) Choices {
	c := Choices{
		raw:       append([]string(nil), candidates...),
		processed: make([]string, len(candidates)),
	}
	for i, candidate := range candidates {
		c.processed[i] = Process(candidate)
	}
	return c
}

func (c Choices) Len() int { return len(c.raw) }

func (c Choices) At(i int) string { return c.raw[i] }

// ExtractOne returns the index and score of the best scoring candidate.
// Ties keep the earliest candidate. The index is -1 when the query is
// blank or the pool is empty.
func (c Choices) ExtractOne(query string) (int, int) {
	q := Process(query)
	if q == "" || len(c.processed) == 0 {
		return -1, 0
	}

	bestIdx, bestScore := -1, -1
	for i, candidate := range c.processed {
		score := WRatioProcessed(q, candidate)
		if score > bestScore {
			bestIdx, bestScore = i, score
			if bestScore == 100 {
				break
			}
		}
	}
	return bestIdx, bestScore
}
