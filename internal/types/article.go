package types

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Version distinguishes first-capture records from rewritten ones.
type Version string

const (
	VersionOriginal Version = "original"
	VersionUpdated  Version = "updated"
)

// Article is the persisted unit. SourceURL is the identity key: a write with
// a colliding SourceURL updates the existing record instead of duplicating it.
type Article struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"           json:"id,omitempty"`
	Title           string             `bson:"title"                   json:"title"`
	Author          string             `bson:"author,omitempty"        json:"author,omitempty"`
	PublishedAt     string             `bson:"publishedAt,omitempty"   json:"publishedAt,omitempty"`
	SourceURL       string             `bson:"sourceUrl"               json:"sourceUrl"`
	OriginalContent string             `bson:"originalContent,omitempty" json:"originalContent,omitempty"`
	UpdatedContent  string             `bson:"updatedContent,omitempty"  json:"updatedContent,omitempty"`
	Version         Version            `bson:"version"                 json:"version"`
	References      []string           `bson:"references,omitempty"    json:"references,omitempty"`
	ParentArticle   primitive.ObjectID `bson:"parentArticle,omitempty" json:"parentArticle,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt,omitempty"     json:"createdAt,omitempty"`
	UpdatedAt       time.Time          `bson:"updatedAt,omitempty"     json:"updatedAt,omitempty"`
}

// IsUpdated reports whether this is a rewrite record. Rewrite records are
// immutable once published.
func (a *Article) IsUpdated() bool { return a.Version == VersionUpdated }

// ListingItem is a title/link pair scraped from a listing page. Transient:
// consumed immediately by the content fetch, never persisted.
type ListingItem struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// SearchResult is one organic result from the search service, in the
// service's own ranking order.
type SearchResult struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// ReferenceArticle is a scraped third-party page used as rewrite input.
// Transient: discarded after the generation call.
type ReferenceArticle struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url"`
}
