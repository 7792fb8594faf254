package store

import "time"

// DocumentStatus tracks a document through the pipeline. Transitions are
// monotonic: PENDING -> PROCESSING -> {COMPLETED, ERROR}; ERROR is terminal.
type DocumentStatus string

const (
	DocumentPending    DocumentStatus = "PENDING"
	DocumentProcessing DocumentStatus = "PROCESSING"
	DocumentCompleted  DocumentStatus = "COMPLETED"
	DocumentError      DocumentStatus = "ERROR"
)

// TransactionType is the closed set of transaction directions.
type TransactionType string

const (
	TypeIncome  TransactionType = "INCOME"
	TypeExpense TransactionType = "EXPENSE"
)

// User owns documents, transactions and categories.
type User struct {
	ID        int64
	Email     string
	CreatedAt time.Time
}

// Category groups transactions. (UserID, Name) is unique; the default
// "Uncategorized" category is lazily created per user on first use.
type Category struct {
	ID     int64
	UserID int64
	Name   string
	Type   TransactionType
}

// Document is one uploaded file and the record that owns its transactions.
type Document struct {
	ID        int64
	FileName  string
	FileType  string
	FileSize  int64
	ObjectURI string
	Status    DocumentStatus
	UserID    int64
	CreatedAt time.Time

	Transactions []Transaction
}

// Transaction is a validated, persistable transaction record.
type Transaction struct {
	ID          int64
	Date        time.Time
	Description string
	Amount      float64
	Type        TransactionType
	CategoryID  int64
	UserID      int64
	DocumentID  int64
}
