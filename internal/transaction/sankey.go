package transaction

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SankeyData is the cash-flow graph: income sources feed the central account
// node, the account feeds one sink per spending category.
type SankeyData struct {
	Nodes []SankeyNode `json:"nodes"`
	Links []SankeyLink `json:"links"`
}

type SankeyNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"` // source | account | sink
}

type SankeyLink struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Value  float64 `json:"value"`
}

const accountNodeID = "acct"

var titleCaser = cases.Title(language.English)

// ToSankey folds transactions into the flow graph. Credits are grouped by
// merchant into source nodes, debits by category into sink nodes. An empty
// input yields just the account node with no links.
func ToSankey(txs []*Transaction) *SankeyData {
	data := &SankeyData{
		Nodes: []SankeyNode{{ID: accountNodeID, Label: "Main Account", Type: "account"}},
		Links: []SankeyLink{},
	}

	incomeBySource := map[string]decimal.Decimal{}
	spendByCategory := map[string]decimal.Decimal{}

	for _, tx := range txs {
		switch tx.Type {
		case TypeCredit:
			src := tx.MerchantName
			if src == "" {
				src = "Unknown"
			}

			incomeBySource[src] = incomeBySource[src].Add(tx.Amount)
		case TypeDebit:
			cat := string(tx.Category)
			if cat == "" {
				cat = string(CategoryOther)
			}

			spendByCategory[cat] = spendByCategory[cat].Add(tx.Amount)
		}
	}

	for _, src := range sortedKeys(incomeBySource) {
		id := "in_" + slug(src)
		data.Nodes = append(data.Nodes, SankeyNode{ID: id, Label: src, Type: "source"})
		data.Links = append(data.Links, SankeyLink{
			Source: id,
			Target: accountNodeID,
			Value:  incomeBySource[src].InexactFloat64(),
		})
	}

	for _, cat := range sortedKeys(spendByCategory) {
		id := "cat_" + strings.ToLower(cat)
		label := titleCaser.String(strings.ReplaceAll(cat, "_", " "))
		data.Nodes = append(data.Nodes, SankeyNode{ID: id, Label: label, Type: "sink"})
		data.Links = append(data.Links, SankeyLink{
			Source: accountNodeID,
			Target: id,
			Value:  spendByCategory[cat].InexactFloat64(),
		})
	}

	return data
}

func slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "_")
}

func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
