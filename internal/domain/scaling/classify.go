package scaling

import (
	"strings"
	"unicode"
)

// Class is the scaling behaviour of an ingredient
type Class string

const (
	ClassStandard   Class = "standard"
	ClassSpiceHerb  Class = "spice_herb"
	ClassLeavening  Class = "leavening_agent"
	ClassCookingFat Class = "cooking_fat"
	ClassLiquid     Class = "liquid"
)

// rule matches whole words or phrases ("olive oil", "bay leaf") and German
// compound stems. A stem only matches as the final part of a word, so
// "Rapsöl" is a fat while "Salzkartoffeln" is not a spice.
type rule struct {
	class Class
	words []string
	stems []string
}

// Rules are checked in order; the first hit wins.
var rules = []rule{
	{
		class: ClassLeavening,
		words: []string{"baking powder", "baking soda", "bicarbonate", "yeast", "sourdough starter"},
		stems: []string{"backpulver", "natron", "hefe", "sauerteig", "hirschhornsalz"},
	},
	{
		class: ClassLiquid,
		words: []string{"buttermilk", "coconut milk"},
		stems: []string{"buttermilch", "kokosmilch"},
	},
	{
		class: ClassCookingFat,
		words: []string{"butter", "oil", "lard", "ghee", "margarine", "shortening", "dripping"},
		stems: []string{"butter", "öl", "schmalz", "fett"},
	},
	{
		class: ClassSpiceHerb,
		words: []string{
			"salt", "pepper", "paprika", "cumin", "chili", "chilli", "cinnamon", "nutmeg",
			"clove", "oregano", "thyme", "rosemary", "basil", "parsley", "dill", "bay leaf",
			"bay leaves", "curry", "turmeric", "ginger", "garlic powder", "vanilla", "saffron",
			"marjoram",
		},
		stems: []string{
			"salz", "pfeffer", "kümmel", "zimt", "muskat", "muskatnuss", "nelke", "nelken",
			"thymian", "rosmarin", "basilikum", "petersilie", "lorbeer", "kurkuma", "ingwer",
			"majoran", "schnittlauch", "gewürz", "gewürze", "kräuter",
		},
	},
	{
		class: ClassLiquid,
		words: []string{"water", "stock", "broth", "milk", "cream", "wine", "juice", "vinegar", "sauce"},
		stems: []string{"wasser", "brühe", "fond", "milch", "sahne", "wein", "saft", "essig"},
	},
}

// Known collisions: vegetables, meats and pasta whose names carry a keyword.
var exclusions = []string{
	"bell pepper", "sweet pepper", "butternut", "fettuccine", "fettucine", "schwein",
}

// Classify returns the class of an ingredient name
func Classify(name string) Class {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, ex := range exclusions {
		n = strings.ReplaceAll(n, ex, " ")
	}
	tokens := tokenize(n)
	if len(tokens) == 0 {
		return ClassStandard
	}

	for _, r := range rules {
		for _, w := range r.words {
			if containsPhrase(tokens, tokenize(w)) {
				return r.class
			}
		}
		for _, stem := range r.stems {
			for _, t := range tokens {
				if strings.HasSuffix(t, stem) {
					return r.class
				}
			}
		}
	}
	return ClassStandard
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return !unicode.IsLetter(r) })
}

// containsPhrase reports whether phrase occurs as consecutive tokens. The
// last word may carry an English plural ending.
func containsPhrase(tokens, phrase []string) bool {
	if len(phrase) == 0 || len(phrase) > len(tokens) {
		return false
	}
	last := len(phrase) - 1
	for i := 0; i+len(phrase) <= len(tokens); i++ {
		match := true
		for j, w := range phrase {
			t := tokens[i+j]
			if t == w || (j == last && (t == w+"s" || t == w+"es")) {
				continue
			}
			match = false
			break
		}
		if match {
			return true
		}
	}
	return false
}
