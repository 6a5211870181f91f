package domain

type Intent string

const (
	IntentAdd      Intent = "add"
	IntentRemove   Intent = "remove"
	IntentCheckout Intent = "checkout"
	IntentUnknown  Intent = "unknown"
)

// QuantityAll means "the relevant bound": current stock on add, held
// quantity on remove.
const QuantityAll = -1

// ParsedClause is one conjunct of an utterance.
type ParsedClause struct {
	Quantity int    `json:"quantity"`
	Phrase   string `json:"phrase"`
}

func (c ParsedClause) IsAll() bool {
	return c.Quantity == QuantityAll
}

// Match is a retrieval hit: a catalog item and its similarity score.
type Match struct {
	Item  CatalogItem `json:"item"`
	Score float64     `json:"score"`
}
