package service

import (
	"sort"
	"strings"

	"github.com/grupodv/dv-assistant-go/internal/locale"
)

// companyAlias maps a folded key (uppercase, no diacritics) to the company
// name used by the reports.
type companyAlias struct {
	Key       string
	Canonical string
}

// companyAliases is ordered. The last key contained in the question wins, so
// longer keys are listed after the shorter keys they contain.
var companyAliases = []companyAlias{
	{"MERCATTO", "MERCATTO DELÍCIA"},
	{"MERCATTO DELICIA", "MERCATTO DELÍCIA"},
	{"MERCATO", "MERCATTO DELÍCIA"},
	{"VILLA", "VILLA GOURMET"},
	{"VILLA GOURMET", "VILLA GOURMET"},
	{"PADARIA", "PADARIA DELÍCIA"},
	{"PADARIA DELICIA", "PADARIA DELÍCIA"},
	{"DELICIA GOURMET", "DELÍCIA GOURMET"},
	{"M.KIDS", "M.KIDS"},
	{"MKIDS", "M.KIDS"},
}

// AliasResolver finds the company a question refers to.
type AliasResolver struct {
	table []companyAlias
}

// NewAliasResolver returns a resolver over the built-in alias table.
func NewAliasResolver() *AliasResolver {
	return &AliasResolver{table: companyAliases}
}

// Keys returns the alias keys in evaluation order.
func (r *AliasResolver) Keys() []string {
	keys := make([]string, len(r.table))
	for i, a := range r.table {
		keys[i] = a.Key
	}
	return keys
}

// Resolve returns the canonical company of the last alias key found in the
// folded question.
func (r *AliasResolver) Resolve(question string) (string, bool) {
	folded := locale.Fold(question)
	best := ""
	for _, a := range r.table {
		if strings.Contains(folded, a.Key) {
			best = a.Canonical
		}
	}
	return best, best != ""
}

// MatchCatalog looks for any of names inside question, comparing folded
// text. Names are tried in sorted order and the first hit wins, so the
// result does not depend on the order rows arrived in.
func MatchCatalog(question string, names []string) (string, bool) {
	if len(names) == 0 {
		return "", false
	}
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	folded := locale.Fold(question)
	for _, n := range sorted {
		key := locale.Fold(strings.TrimSpace(n))
		if key != "" && strings.Contains(folded, key) {
			return n, true
		}
	}
	return "", false
}
