package delimiter

// GenerateFamilyDelimiters expands every pattern of a family
func GenerateFamilyDelimiters(f Family) []Delimiter {
	var all []Delimiter
	for _, p := range Patterns(f) {
		all = append(all, p.Expand()...)
	}
	return Dedupe(all)
}

// GenerateLanguageDelimiters builds the table for a language: the family
// patterns plus the language's custom patterns, deduplicated on
// (start, end) and sorted by priority descending.
func GenerateLanguageDelimiters(language string) []Delimiter {
	return generate(FamilyOf(language), language)
}

func generate(f Family, language string) []Delimiter {
	var all []Delimiter
	for _, p := range Patterns(f) {
		all = append(all, p.Expand()...)
	}
	for _, p := range CustomPatterns(language) {
		all = append(all, p.Expand()...)
	}
	return Dedupe(all)
}

// Bounded filters out the generic kinds that describe split points
func Bounded(delims []Delimiter) []Delimiter {
	out := make([]Delimiter, 0, len(delims))
	for _, d := range delims {
		if d.Kind.IsGeneric() || d.Start == "" {
			continue
		}
		out = append(out, d)
	}
	return out
}
