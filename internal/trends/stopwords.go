package trends

// stopwords are excluded from category names and keyword lists: common
// English function words plus domain words that appear in almost every query
// of a data catalog and therefore separate nothing.
var stopwords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		// English function words.
		"the", "and", "for", "are", "but", "not", "you", "all", "can", "had",
		"her", "was", "one", "our", "out", "has", "have", "him", "his", "how",
		"man", "new", "now", "old", "see", "two", "way", "who", "boy", "did",
		"its", "let", "put", "say", "she", "too", "use", "that", "with",
		"this", "will", "your", "from", "they", "know", "want", "been",
		"good", "much", "some", "time", "very", "when", "come", "here",
		"just", "like", "long", "make", "many", "more", "only", "over",
		"such", "take", "than", "them", "well", "were", "what", "where",
		"which", "while", "would", "there", "their", "about", "could",
		"other", "after", "first", "never", "these", "think", "also",
		"into", "because", "does", "between", "each", "under", "during",
		"before", "being", "both", "most", "should", "then", "those",
		// Domain words: near-universal in catalog searches, zero signal.
		"data", "dataset", "datasets", "nigeria", "nigerian",
	} {
		stopwords[w] = struct{}{}
	}
}

// isStopword reports whether the lowercased token is filtered from names.
func isStopword(token string) bool {
	_, ok := stopwords[token]
	return ok
}

// isAlpha reports whether s is non-empty and consists only of letters.
func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
