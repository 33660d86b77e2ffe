package semantic

// PageIndicators are formal FAQ-section phrases used to decide whether a
// URL or page preview is worth fetching in full. The two question openings
// at the end let a preview that starts with a question pass without an
// encoder call.
var PageIndicators = []string{
	"frequently asked questions",
	"common questions",
	"help center",
	"support questions",
	"customer questions",
	"FAQ",
	"questions and answers",
	"Q&A",
	"help and support",
	"how can",
	"how do",
}

// ItemIndicators is the permissive bank used for page gating and item
// validation. It includes bare interrogatives, so almost any question text
// passes the substring check.
var ItemIndicators = []string{
	"common questions",
	"questions about",
	"what to know",
	"frequently asked",
	"FAQ",
	"Q&A",
	"help center",
	"support",
	"can",
	"are",
	"how to",
	"what is",
	"why does",
	"where can",
	"when should",
	"who is",
	"which is",
	"how does",
	"how can",
	"how do",
	"how will",
	"do I",
	"does it",
	"is it",
}
