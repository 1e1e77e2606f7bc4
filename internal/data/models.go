package data

// Message is a contact message. Immutable once created; keyed by
// email + creation stamp.
type Message struct {
	ID      string `bson:"_id" json:"id"`
	Email   string `bson:"email" json:"email"`
	Type    string `bson:"type" json:"type"`
	Message string `bson:"message" json:"message"`
	Created string `bson:"created" json:"created"`
}

// User maps to the users collection, keyed by normalized email. Created
// is set on first insert and never overwritten.
type User struct {
	ID      string `bson:"_id" json:"id"`
	Email   string `bson:"email" json:"email"`
	Phone   string `bson:"phone,omitempty" json:"phone,omitempty"`
	Created string `bson:"created" json:"created"`
}

// Score is an append-only score entry keyed by email + stamp + value.
type Score struct {
	ID      string  `bson:"_id" json:"id"`
	Name    string  `bson:"name" json:"name"`
	Score   float64 `bson:"score" json:"score"`
	Email   string  `bson:"email,omitempty" json:"email,omitempty"`
	Created string  `bson:"created" json:"created"`
}

// Logs and advice are schemaless: callers may attach arbitrary fields, so
// both are handled as raw documents (map[string]any) by their stores.
