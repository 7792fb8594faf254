package textnorm

// RuleClass distinguishes the two kinds of substitution rules in the table.
type RuleClass int

const (
	// ClassPhrase is an exact garbled word or phrase known to appear in
	// scanned financial documents, mapped to its correct spelling.
	ClassPhrase RuleClass = iota

	// ClassChar is a single letter the OCR engine commonly emits in place
	// of a digit. Char rules are only applied inside numeric-looking spans
	// so they cannot corrupt ordinary words.
	ClassChar
)

// Rule is one entry of the ordered substitution table. All replacements are
// global: every occurrence in the text is rewritten, not just the first.
type Rule struct {
	Pattern     string
	Replacement string
	Class       RuleClass
}

// DefaultRules is the substitution table for low-quality scans of bank
// statements, invoices and receipts. Order matters: longer, more specific
// phrase rules come before shorter ones so that a short pattern never
// pre-mangles the context a longer pattern needed to match, and all phrase
// rules come before the char rules.
func DefaultRules() []Rule {
	return []Rule{
		// Section headers and institution names, joined forms first.
		{Pattern: "Acc0un7 5ummary", Replacement: "Account Summary", Class: ClassPhrase},
		{Pattern: "Acc0un75ummary", Replacement: "Account Summary", Class: ClassPhrase},
		{Pattern: "5ta7emen7 0f Acc0un7", Replacement: "Statement of Account", Class: ClassPhrase},
		{Pattern: "7ransac7i0n His70ry", Replacement: "Transaction History", Class: ClassPhrase},
		{Pattern: "8a1ance 8r0ugh7 F0rward", Replacement: "Balance Brought Forward", Class: ClassPhrase},
		{Pattern: "0pening 8a1ance", Replacement: "Opening Balance", Class: ClassPhrase},
		{Pattern: "C1osing 8a1ance", Replacement: "Closing Balance", Class: ClassPhrase},
		{Pattern: "R0ya1 8ank", Replacement: "Royal Bank", Class: ClassPhrase},

		// Single garbled words.
		{Pattern: "7ransac7i0n", Replacement: "Transaction", Class: ClassPhrase},
		{Pattern: "5ta7emen7", Replacement: "Statement", Class: ClassPhrase},
		{Pattern: "Wi7hdrawa1", Replacement: "Withdrawal", Class: ClassPhrase},
		{Pattern: "In7eres7", Replacement: "Interest", Class: ClassPhrase},
		{Pattern: "Acc0un7", Replacement: "Account", Class: ClassPhrase},
		{Pattern: "5ummary", Replacement: "Summary", Class: ClassPhrase},
		{Pattern: "8a1ance", Replacement: "Balance", Class: ClassPhrase},
		{Pattern: "1nv0ice", Replacement: "Invoice", Class: ClassPhrase},
		{Pattern: "Amoun7", Replacement: "Amount", Class: ClassPhrase},
		{Pattern: "Depos17", Replacement: "Deposit", Class: ClassPhrase},
		{Pattern: "R0ya1", Replacement: "Royal", Class: ClassPhrase},
		{Pattern: "7o7a1", Replacement: "Total", Class: ClassPhrase},
		{Pattern: "8ank", Replacement: "Bank", Class: ClassPhrase},
		{Pattern: "Da7e", Replacement: "Date", Class: ClassPhrase},

		// Letters that stand for digits in numeric contexts. Applied only
		// within spans that already contain at least one digit.
		{Pattern: "O", Replacement: "0", Class: ClassChar},
		{Pattern: "o", Replacement: "0", Class: ClassChar},
		{Pattern: "I", Replacement: "1", Class: ClassChar},
		{Pattern: "l", Replacement: "1", Class: ClassChar},
		{Pattern: "S", Replacement: "5", Class: ClassChar},
		{Pattern: "s", Replacement: "5", Class: ClassChar},
		{Pattern: "B", Replacement: "8", Class: ClassChar},
		{Pattern: "Z", Replacement: "2", Class: ClassChar},
		{Pattern: "z", Replacement: "2", Class: ClassChar},
	}
}
