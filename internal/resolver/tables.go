package resolver

// pairKey is an unordered intent-code pair.
type pairKey struct{ a, b string }

func key(a, b string) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}

// exclusivePairs maps unordered intent-code pairs to a conflict
// description. Pairs absent from this matrix never conflict.
var exclusivePairs = map[pairKey]string{
	key("RETURN_EXCHANGE.RETURN_INITIATE", "RETURN_EXCHANGE.EXCHANGE_REQUEST"): "Cannot both return and exchange the same item",
	key("RETURN_EXCHANGE.REFUND_STATUS", "RETURN_EXCHANGE.EXCHANGE_REQUEST"):   "Cannot request refund and exchange for the same item",
	key("ORDER_MODIFY.CANCEL_ORDER", "ORDER_MODIFY.EXPEDITE"):                  "Cannot cancel and expedite the same order",
	key("ORDER_MODIFY.CANCEL_ORDER", "ORDER_MODIFY.CHANGE_ADDRESS"):            "Cannot cancel and change address for the same order",
	key("ORDER_MODIFY.CANCEL_ORDER", "ORDER_MODIFY.CHANGE_ITEMS"):              "Cannot cancel and modify items for the same order",
	key("ORDER_MODIFY.EXPEDITE", "ORDER_MODIFY.DELAY_SHIPMENT"):                "Cannot expedite and delay the same shipment",
}

// contradictoryPairs are the hard contradictions: actions that logically
// cannot coexist for any customer, including VIPs.
var contradictoryPairs = map[pairKey]bool{
	key("ORDER_MODIFY.CANCEL_ORDER", "ORDER_MODIFY.EXPEDITE"):       true,
	key("ORDER_MODIFY.EXPEDITE", "ORDER_MODIFY.DELAY_SHIPMENT"):     true,
	key("ORDER_MODIFY.CANCEL_ORDER", "ORDER_MODIFY.CHANGE_ADDRESS"): true,
	key("ORDER_MODIFY.CANCEL_ORDER", "ORDER_MODIFY.CHANGE_ITEMS"):   true,
}

// businessPriority ranks intents for merchant-side tie-breaking. Higher
// wins; an exchange keeps the sale, so it outranks a plain return.
var businessPriority = map[string]int{
	"RETURN_EXCHANGE.EXCHANGE_REQUEST": 3,
	"RETURN_EXCHANGE.RETURN_INITIATE":  2,
	"RETURN_EXCHANGE.REFUND_STATUS":    1,
	"ORDER_MODIFY.EXPEDITE":            2,
	"ORDER_MODIFY.CANCEL_ORDER":        1,
}

// customerFavorablePriority ranks intents by what the customer gets, used
// only under high frustration. Keyed by the intent name, not the full
// code. Kept separate from businessPriority: normal mode tie-breaks for
// the merchant, de-escalation mode tie-breaks for the customer.
var customerFavorablePriority = map[string]int{
	"RETURN_INITIATE":  3,
	"REFUND_STATUS":    3,
	"EXCHANGE_REQUEST": 2,
	"CANCEL_ORDER":     2,
}

// preferenceKeywords maps a preference class to the phrases that signal
// it. Evaluated in order; the first class with a matching keyword wins.
var preferenceKeywords = []struct {
	preference string
	keywords   []string
}{
	{"exchange", []string{"exchange", "swap", "different size", "different color", "replace with"}},
	{"refund", []string{"refund", "money back", "return for refund", "just return"}},
	{"cancel", []string{"cancel", "don't want", "changed my mind"}},
	{"expedite", []string{"faster", "rush", "expedite", "urgent", "asap"}},
}

// preferenceIntent maps a preference class to the intent name it selects.
var preferenceIntent = map[string]string{
	"exchange": "EXCHANGE_REQUEST",
	"refund":   "RETURN_INITIATE",
	"cancel":   "CANCEL_ORDER",
	"expedite": "EXPEDITE",
}

// clarificationDescriptions are the plain-language phrasings used when
// asking the customer to pick between conflicting intents.
var clarificationDescriptions = map[string]string{
	"RETURN_INITIATE":  "return the item for a refund",
	"EXCHANGE_REQUEST": "exchange the item for a different one",
	"REFUND_STATUS":    "get a refund",
	"CANCEL_ORDER":     "cancel your order",
	"EXPEDITE":         "expedite shipping",
	"CHANGE_ADDRESS":   "change the shipping address",
}
