// Package patterns holds the declarative scoring tables: weighted regex
// patterns grouped into capped categories, plus bonus combinations granted
// when specific patterns match together.
package patterns

import (
	"regexp"

	"go.uber.org/zap"
)

// Spec declares a single weighted pattern before compilation.
type Spec struct {
	Name   string `mapstructure:"name"`
	Expr   string `mapstructure:"expr"`
	Points int    `mapstructure:"points"`
}

// CategorySpec declares a category with its cap and patterns in priority
// order. Penalty categories use negative points and a zero cap.
type CategorySpec struct {
	Name     string `mapstructure:"name"`
	Cap      int    `mapstructure:"cap"`
	Patterns []Spec `mapstructure:"patterns"`
}

// ComboSpec declares a bonus granted when every named pattern matched.
// Combos sharing a group are mutually exclusive: the first declared one that
// qualifies wins the group. Combos in different groups stack.
type ComboSpec struct {
	Name     string   `mapstructure:"name"`
	Points   int      `mapstructure:"points"`
	Requires []string `mapstructure:"requires"`
	Group    string   `mapstructure:"group"`
}

// TableSpec is the full declarative table, ready to compile.
type TableSpec struct {
	Categories []CategorySpec `mapstructure:"categories"`
	Combos     []ComboSpec    `mapstructure:"combos"`
}

// Pattern is a compiled weighted pattern, optionally carrying OCR-substituted
// variants for fuzzy matching.
type Pattern struct {
	name     string
	points   int
	re       *regexp.Regexp
	variants []*regexp.Regexp
}

// Category is a compiled group of patterns sharing one cap.
type Category struct {
	name     string
	cap      int
	patterns []*Pattern
}

// Table is an immutable compiled pattern table. Hot reload replaces the whole
// table at once, so a scorer holding a *Table always sees one consistent
// generation.
type Table struct {
	categories []*Category
	byName     map[string]*Category
	combos     []ComboSpec
	fuzzy      bool
}

// Compile builds a Table from its spec. A pattern whose expression does not
// compile is logged and dropped, so one bad entry never disables its category.
// With fuzzy enabled, each pattern additionally gets OCR substitution
// variants; variants that fail to compile are skipped quietly because blind
// digit substitution cannot always produce a valid expression.
func Compile(spec TableSpec, fuzzy bool, logger *zap.Logger) *Table {
	t := &Table{
		byName: make(map[string]*Category, len(spec.Categories)),
		combos: append([]ComboSpec(nil), spec.Combos...),
		fuzzy:  fuzzy,
	}
	for _, cs := range spec.Categories {
		cat := &Category{name: cs.Name, cap: cs.Cap}
		for _, ps := range cs.Patterns {
			re, err := regexp.Compile(ps.Expr)
			if err != nil {
				logger.Warn("Skipping pattern that failed to compile",
					zap.String("category", cs.Name),
					zap.String("pattern", ps.Name),
					zap.Error(err))
				continue
			}
			p := &Pattern{name: ps.Name, points: ps.Points, re: re}
			if fuzzy {
				for _, expr := range Variants(ps.Expr) {
					v, err := regexp.Compile(expr)
					if err != nil {
						logger.Debug("Skipping invalid fuzzy variant",
							zap.String("pattern", ps.Name),
							zap.String("variant", expr))
						continue
					}
					p.variants = append(p.variants, v)
				}
			}
			cat.patterns = append(cat.patterns, p)
		}
		t.categories = append(t.categories, cat)
		t.byName[cat.name] = cat
	}
	return t
}

// Category returns the named category or nil.
func (t *Table) Category(name string) *Category {
	return t.byName[name]
}

// Categories returns the categories in declaration order.
func (t *Table) Categories() []*Category {
	return t.categories
}

// Combos returns the bonus combinations in declaration order.
func (t *Table) Combos() []ComboSpec {
	return t.combos
}

// Fuzzy reports whether the table was compiled with OCR tolerance.
func (t *Table) Fuzzy() bool {
	return t.fuzzy
}

// Name returns the category name.
func (c *Category) Name() string {
	if c == nil {
		return ""
	}
	return c.name
}

// Input is the text prepared for matching. Plain is the normalized text; OCR
// is the additionally OCR-folded form, empty when fuzzy matching is off.
type Input struct {
	Plain string
	OCR   string
}

// NewInput prepares normalized text for matching against a table.
func NewInput(normalized string, fuzzy bool) Input {
	in := Input{Plain: normalized}
	if fuzzy {
		in.OCR = NormalizeOCR(normalized)
	}
	return in
}

func (p *Pattern) matches(in Input) bool {
	if p.re.MatchString(in.Plain) {
		return true
	}
	if in.OCR == "" {
		return false
	}
	if p.re.MatchString(in.OCR) {
		return true
	}
	for _, v := range p.variants {
		if v.MatchString(in.OCR) {
			return true
		}
	}
	return false
}

// CategoryResult is the outcome of scoring one category.
type CategoryResult struct {
	Points  int
	Best    string
	Matched []string
}

// Score evaluates the category best-match-wins: the points are those of the
// highest-valued matching pattern, ties resolved by declaration order, capped
// at the category cap after the match. Matched collects every matching
// pattern name because bonus combinations test membership against the full
// set, not just the winner.
func (c *Category) Score(in Input) CategoryResult {
	if c == nil {
		return CategoryResult{}
	}
	var res CategoryResult
	best := -1
	for _, p := range c.patterns {
		if !p.matches(in) {
			continue
		}
		res.Matched = append(res.Matched, p.name)
		if p.points > best {
			best = p.points
			res.Best = p.name
		}
	}
	if best < 0 {
		return CategoryResult{}
	}
	if c.cap > 0 && best > c.cap {
		best = c.cap
	}
	res.Points = best
	return res
}

// Sum evaluates the category additively: every matching pattern contributes
// its points. Used for penalty categories, which accumulate instead of
// competing.
func (c *Category) Sum(in Input) (int, []string) {
	if c == nil {
		return 0, nil
	}
	total := 0
	var matched []string
	for _, p := range c.patterns {
		if p.matches(in) {
			total += p.points
			matched = append(matched, p.name)
		}
	}
	return total, matched
}
