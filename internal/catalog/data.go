package catalog

import "github.com/miwake-ai/miwake/internal/model"

func intent(code, description string, examples ...string) Intent {
	category, name := model.SplitIntentCode(code)
	return Intent{
		Code:        code,
		Category:    category,
		Intent:      name,
		Description: description,
		Examples:    examples,
	}
}

// defaultIntents is the built-in taxonomy. Order matters: it is the catalog
// insertion order used for stable tie-breaks in search results.
var defaultIntents = []Intent{
	// ORDER_STATUS
	intent("ORDER_STATUS.WISMO", "Where is my order / order tracking",
		"Where is my order?",
		"Can you track my package?",
		"I ordered last week and still nothing, where is it?",
		"What's the status of order #12345?",
	),
	intent("ORDER_STATUS.DELIVERY_ESTIMATE", "When will my order arrive",
		"When will my order arrive?",
		"What's the estimated delivery date?",
		"How long until my package gets here?",
	),
	intent("ORDER_STATUS.CONFIRMATION", "Did my order go through",
		"Did my order go through?",
		"I never got a confirmation email",
		"Can you confirm you received my order?",
	),
	intent("ORDER_STATUS.TRACKING_ISSUE", "Tracking number not updating",
		"My tracking number isn't updating",
		"The tracking page shows no movement for days",
		"Tracking says delivered but I don't have it",
	),

	// ORDER_MODIFY
	intent("ORDER_MODIFY.CANCEL_ORDER", "Cancel my order",
		"I want to cancel my order",
		"Please cancel order #98765",
		"Can I still cancel before it ships?",
	),
	intent("ORDER_MODIFY.CHANGE_ADDRESS", "Change shipping address",
		"I need to change my shipping address",
		"I moved, can you ship to my new address?",
		"Wrong address on my order, please update it",
	),
	intent("ORDER_MODIFY.CHANGE_ITEMS", "Add, remove, or change items",
		"Can I add another item to my order?",
		"I want to change the size on my order",
		"Please remove the second pair from my order",
	),
	intent("ORDER_MODIFY.CHANGE_PAYMENT", "Change payment method on an order",
		"Can I switch the card I paid with?",
		"I want to use a different payment method",
	),
	intent("ORDER_MODIFY.EXPEDITE", "Upgrade shipping speed",
		"Can you expedite my shipping?",
		"I need this faster, upgrade to express please",
		"Is overnight shipping possible for my order?",
	),

	// RETURN_EXCHANGE
	intent("RETURN_EXCHANGE.RETURN_INITIATE", "Start a return",
		"I want to return this",
		"How do I start a return?",
		"This doesn't fit, I'd like to send it back",
		"I need a return label",
	),
	intent("RETURN_EXCHANGE.EXCHANGE_REQUEST", "Exchange for a different item",
		"Can I exchange this for a different size?",
		"I'd like to swap this for the blue one",
		"Exchange for a medium instead of small please",
	),
	intent("RETURN_EXCHANGE.REFUND_STATUS", "Check refund status",
		"Where is my refund?",
		"When will I get my money back?",
		"My refund hasn't shown up yet",
	),
	intent("RETURN_EXCHANGE.RETURN_STATUS", "Where is my return",
		"Did you receive my return?",
		"What's the status of the return I shipped?",
	),
	intent("RETURN_EXCHANGE.RETURN_POLICY", "Return policy questions",
		"What is your return policy?",
		"How many days do I have to return an item?",
	),
	intent("RETURN_EXCHANGE.WARRANTY_CLAIM", "Warranty issues",
		"My item broke, is it under warranty?",
		"How do I file a warranty claim?",
	),
	intent("RETURN_EXCHANGE.STORE_CREDIT", "Store credit inquiries",
		"Can I get store credit instead of a refund?",
		"How much store credit do I have?",
	),

	// COMPLAINT
	intent("COMPLAINT.DAMAGED_ITEM", "Item arrived damaged",
		"My item arrived damaged",
		"The box was crushed and the product is broken",
		"This came shattered, I'm very upset",
	),
	intent("COMPLAINT.WRONG_ITEM", "Received the wrong product",
		"You sent me the wrong item",
		"I ordered black but received red",
		"This isn't what I ordered at all",
	),
	intent("COMPLAINT.MISSING_ITEM", "Item missing from the order",
		"An item is missing from my order",
		"The package only had two of the three things I ordered",
	),
	intent("COMPLAINT.QUALITY_ISSUE", "Poor quality or not as described",
		"The quality is much worse than the photos",
		"This is not as described on the website",
	),
	intent("COMPLAINT.LATE_DELIVERY", "Delivery took too long",
		"My order arrived two weeks late",
		"This took way too long to ship",
	),
	intent("COMPLAINT.SERVICE_ISSUE", "Bad customer service experience",
		"Your support agent was rude to me",
		"I've been waiting days for a reply from support",
	),
	intent("COMPLAINT.LOST_PACKAGE", "Package lost in transit",
		"My package seems to be lost",
		"The carrier says my package is missing",
	),

	// PRODUCT_INQUIRY
	intent("PRODUCT_INQUIRY.STOCK", "Is it in stock",
		"Is this in stock?",
		"Do you have this in a size large?",
	),
	intent("PRODUCT_INQUIRY.RESTOCK", "When will it be back in stock",
		"When will this be back in stock?",
		"Can you notify me when it restocks?",
	),
	intent("PRODUCT_INQUIRY.SIZE_FIT", "Sizing questions",
		"Does this run true to size?",
		"What size should I order if I'm between sizes?",
	),
	intent("PRODUCT_INQUIRY.FEATURES", "Product features and specs",
		"Is this machine washable?",
		"What are the dimensions of this product?",
	),
	intent("PRODUCT_INQUIRY.COMPATIBILITY", "Will it work with X",
		"Will this work with my existing setup?",
		"Is this compatible with the older model?",
	),
	intent("PRODUCT_INQUIRY.MATERIALS", "What is it made of",
		"What material is this made from?",
		"Is this genuine leather?",
	),
	intent("PRODUCT_INQUIRY.USAGE", "How do I use it",
		"How do I set this up?",
		"Are there care instructions for this?",
	),
	intent("PRODUCT_INQUIRY.AUTHENTICITY", "Is it genuine",
		"Is this an authentic product?",
		"How do I know this isn't a knockoff?",
	),

	// ACCOUNT_BILLING
	intent("ACCOUNT_BILLING.PAYMENT_ISSUE", "Payment failed or double charged",
		"My payment keeps failing",
		"I was charged twice for one order",
	),
	intent("ACCOUNT_BILLING.UPDATE_PAYMENT", "Change payment details on file",
		"I need to update my card on file",
		"How do I change my default payment method?",
	),
	intent("ACCOUNT_BILLING.INVOICE", "Need an invoice or receipt",
		"Can I get an invoice for my order?",
		"I need a receipt for my records",
	),
	intent("ACCOUNT_BILLING.PROMO_CODE", "Discount code issues",
		"My promo code isn't working",
		"Can you apply the discount code I forgot to use?",
	),
	intent("ACCOUNT_BILLING.SUBSCRIPTION", "Subscription management",
		"I want to pause my subscription",
		"How do I cancel my monthly subscription?",
	),
	intent("ACCOUNT_BILLING.ACCOUNT_ACCESS", "Login issues",
		"I can't log into my account",
		"I forgot my password and the reset email never came",
	),
	intent("ACCOUNT_BILLING.UPDATE_INFO", "Update account details",
		"I need to change the email on my account",
		"How do I update my phone number?",
	),
	intent("ACCOUNT_BILLING.DELETE_ACCOUNT", "Account deletion",
		"Please delete my account",
		"I want all my data removed",
	),

	// DISCOVERY
	intent("DISCOVERY.RECOMMENDATION", "Suggest products",
		"Can you recommend something for running?",
		"What would you suggest for sensitive skin?",
	),
	intent("DISCOVERY.COMPARISON", "Compare products",
		"What's the difference between these two models?",
		"Which one is better for beginners?",
	),
	intent("DISCOVERY.BEST_SELLER", "What's popular",
		"What are your best sellers?",
		"What's the most popular item this month?",
	),
	intent("DISCOVERY.NEW_ARRIVALS", "What's new",
		"What new products did you just release?",
		"Show me the latest arrivals",
	),
	intent("DISCOVERY.GIFT_SUGGESTION", "Gift ideas",
		"I need a gift for my sister, any ideas?",
		"What would make a good birthday present?",
	),
	intent("DISCOVERY.BUNDLE", "Bundle deals",
		"Do you have any bundle deals?",
		"Is there a discount if I buy these together?",
	),

	// META
	intent("META.GREETING", "Hello, hi",
		"Hi there",
		"Hello, I have a question",
	),
	intent("META.FAREWELL", "Goodbye, thanks",
		"Thanks, that's all I needed",
		"Goodbye",
	),
	intent("META.HUMAN_HANDOFF", "Talk to a person",
		"I want to talk to a human",
		"Connect me to a real agent please",
	),
	intent("META.FEEDBACK", "Feedback about the service",
		"I just wanted to say your service is great",
		"I have some feedback about the checkout flow",
	),
	intent("META.UNCLEAR", "Cannot understand the request",
		"asdf qwerty",
		"???",
	),
	intent("META.OFF_TOPIC", "Not commerce related",
		"What's the weather like today?",
		"Tell me a joke",
	),
}

// expectedEntities maps an intent code to the entity types whose presence
// corroborates it. Used for the matcher's similarity boost.
var expectedEntities = map[string][]model.EntityType{
	"ORDER_STATUS.WISMO":               {model.EntityOrderID, model.EntityTrackingNumber},
	"ORDER_STATUS.DELIVERY_ESTIMATE":   {model.EntityOrderID},
	"ORDER_STATUS.TRACKING_ISSUE":      {model.EntityTrackingNumber, model.EntityOrderID},
	"ORDER_MODIFY.CANCEL_ORDER":        {model.EntityOrderID},
	"ORDER_MODIFY.CHANGE_ADDRESS":      {model.EntityOrderID, model.EntityAddress},
	"ORDER_MODIFY.CHANGE_ITEMS":        {model.EntityOrderID, model.EntityProductSKU, model.EntitySize, model.EntityColor},
	"RETURN_EXCHANGE.RETURN_INITIATE":  {model.EntityOrderID, model.EntityReason},
	"RETURN_EXCHANGE.EXCHANGE_REQUEST": {model.EntityOrderID, model.EntitySize, model.EntityColor},
	"RETURN_EXCHANGE.REFUND_STATUS":    {model.EntityOrderID, model.EntityMoneyAmount},
	"COMPLAINT.DAMAGED_ITEM":           {model.EntityOrderID, model.EntityReason},
	"COMPLAINT.WRONG_ITEM":             {model.EntityOrderID, model.EntityProductSKU, model.EntityColor, model.EntitySize},
	"COMPLAINT.MISSING_ITEM":           {model.EntityOrderID, model.EntityProductSKU},
	"PRODUCT_INQUIRY.STOCK":            {model.EntityProductSKU, model.EntitySize, model.EntityColor},
	"PRODUCT_INQUIRY.COMPATIBILITY":    {model.EntityProductSKU},
}
