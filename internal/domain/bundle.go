package domain

import (
	"regexp"
	"time"
)

// PhotoFileTypes is the image extension allowlist that carves the photo
// collection out of the documents table.
var PhotoFileTypes = []string{"jpg", "jpeg", "png", "gif", "webp", "bmp", "svg", "image"}

// DocumentHit is one row of the documents collection result.
type DocumentHit struct {
	ID          int64     `gorm:"column:id" json:"id"`
	Title       string    `gorm:"column:title" json:"title"`
	Description string    `gorm:"column:description" json:"description"`
	SourceURL   string    `gorm:"column:source_url" json:"source_url"`
	LocalPath   string    `gorm:"column:local_path" json:"local_path"`
	FileType    string    `gorm:"column:file_type" json:"file_type"`
	AISummary   string    `gorm:"column:ai_summary" json:"ai_summary"`
	DataSet     string    `gorm:"column:data_set" json:"data_set"`
	Score       float64   `gorm:"column:score" json:"score"`
	OCRScore    float64   `gorm:"column:ocr_score" json:"ocr_score"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

// EmailHit is one row of the emails collection result.
type EmailHit struct {
	ID          int64      `gorm:"column:id" json:"id"`
	DocumentID  *int64     `gorm:"column:document_id" json:"document_id"`
	Sender      string     `gorm:"column:sender" json:"sender"`
	Recipient   string     `gorm:"column:recipient" json:"recipient"`
	CC          string     `gorm:"column:cc" json:"cc"`
	Subject     string     `gorm:"column:subject" json:"subject"`
	SentAt      *time.Time `gorm:"column:sent_at" json:"sent_at"`
	BodyPreview string     `gorm:"column:body_preview" json:"body_preview"`
	Score       float64    `gorm:"column:score" json:"score"`
}

// FlightHit is one row of the flight logs collection result. PassengerList
// is the joined passenger names for the whole flight, not only the matches.
type FlightHit struct {
	ID            int64      `gorm:"column:id" json:"id"`
	Origin        string     `gorm:"column:origin" json:"origin"`
	Destination   string     `gorm:"column:destination" json:"destination"`
	FlightDate    *time.Time `gorm:"column:flight_date" json:"flight_date"`
	Aircraft      string     `gorm:"column:aircraft" json:"aircraft"`
	AISummary     string     `gorm:"column:ai_summary" json:"ai_summary"`
	PassengerList string     `gorm:"column:passenger_list" json:"passenger_list"`
}

// PhotoHit is one row of the photo collection result.
type PhotoHit struct {
	ID          int64     `gorm:"column:id" json:"id"`
	Title       string    `gorm:"column:title" json:"title"`
	Description string    `gorm:"column:description" json:"description"`
	FileType    string    `gorm:"column:file_type" json:"file_type"`
	LocalPath   string    `gorm:"column:local_path" json:"local_path"`
	SourceURL   string    `gorm:"column:source_url" json:"source_url"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

// EntityHit is one row of the named entity collection result.
type EntityHit struct {
	ID       int64  `gorm:"column:id" json:"id"`
	Name     string `gorm:"column:name" json:"name"`
	Type     string `gorm:"column:type" json:"type"`
	DocCount int    `gorm:"column:doc_count" json:"doc_count"`
}

// NewsHit is one row of the news collection result.
type NewsHit struct {
	ID          int64      `gorm:"column:id" json:"id"`
	Title       string     `gorm:"column:title" json:"title"`
	URL         string     `gorm:"column:url" json:"url"`
	SourceName  string     `gorm:"column:source_name" json:"source_name"`
	PublishedAt *time.Time `gorm:"column:published_at" json:"published_at"`
	AISummary   string     `gorm:"column:ai_summary" json:"ai_summary"`
	AIHeadline  string     `gorm:"column:ai_headline" json:"ai_headline"`
	ShockScore  float64    `gorm:"column:shock_score" json:"shock_score"`
}

// EntityDocumentHit is a document cross-referenced from a matched entity.
// These supplement the entity panel and never contribute to the total.
type EntityDocumentHit struct {
	ID            int64  `gorm:"column:id" json:"id"`
	Title         string `gorm:"column:title" json:"title"`
	FileType      string `gorm:"column:file_type" json:"file_type"`
	AISummary     string `gorm:"column:ai_summary" json:"ai_summary"`
	DataSet       string `gorm:"column:data_set" json:"data_set"`
	EntityMatches int    `gorm:"column:entity_matches" json:"entity_matches"`
}

// SemanticMatchKind names the parent record type of a semantic match.
type SemanticMatchKind string

const (
	SemanticMatchDocument SemanticMatchKind = "document"
	SemanticMatchFlight   SemanticMatchKind = "flight"
)

// SemanticMatch is one embedding-similarity result hydrated to its parent.
// Exactly one of Document and Flight is set, per Kind.
type SemanticMatch struct {
	Kind     SemanticMatchKind `json:"kind"`
	Score    float64           `json:"score"`
	Snippet  string            `json:"snippet"`
	Document *DocumentHit      `json:"document,omitempty"`
	Flight   *FlightHit        `json:"flight,omitempty"`
}

// Per-collection result pairs. Hits is capped, Total comes from an
// independent count query.

type Documents struct {
	Hits  []DocumentHit `json:"hits"`
	Total int           `json:"total"`
}

type Emails struct {
	Hits  []EmailHit `json:"hits"`
	Total int        `json:"total"`
}

type Flights struct {
	Hits  []FlightHit `json:"hits"`
	Total int         `json:"total"`
}

type Photos struct {
	Hits  []PhotoHit `json:"hits"`
	Total int        `json:"total"`
}

type Entities struct {
	Hits  []EntityHit `json:"hits"`
	Total int         `json:"total"`
}

type News struct {
	Hits  []NewsHit `json:"hits"`
	Total int       `json:"total"`
}

// ResultBundle is the assembled response for one query and page. It is the
// unit of caching: a cached bundle is served verbatim.
type ResultBundle struct {
	Documents       Documents           `json:"documents"`
	Emails          Emails              `json:"emails"`
	Flights         Flights             `json:"flights"`
	Photos          Photos              `json:"photos"`
	Entities        Entities            `json:"entities"`
	News            News                `json:"news"`
	EntityDocuments []EntityDocumentHit `json:"entity_documents"`
	SemanticMatches []SemanticMatch     `json:"semantic_matches"`
	HasExactMatch   bool                `json:"has_exact_match"`
	Strategy        Strategy            `json:"strategy"`
}

// Total sums the six collection counts. Entity documents and semantic
// matches are supplements and stay out of the sum.
func (b *ResultBundle) Total() int {
	return b.Documents.Total + b.Emails.Total + b.Flights.Total +
		b.Photos.Total + b.Entities.Total + b.News.Total
}

// ComputeExactMatch sets HasExactMatch when the raw query appears as a
// whole word in any returned row's prominent text fields. Substring hits
// inside longer words do not count.
func (b *ResultBundle) ComputeExactMatch(raw string) {
	b.HasExactMatch = false
	if raw == "" {
		return
	}
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(raw) + `\b`)
	if err != nil {
		return
	}

	match := func(fields ...string) bool {
		for _, f := range fields {
			if re.MatchString(f) {
				return true
			}
		}
		return false
	}

	for _, d := range b.Documents.Hits {
		if match(d.Title, d.AISummary, d.Description) {
			b.HasExactMatch = true
			return
		}
	}
	for _, e := range b.Entities.Hits {
		if match(e.Name) {
			b.HasExactMatch = true
			return
		}
	}
	for _, e := range b.Emails.Hits {
		if match(e.Subject, e.Sender, e.Recipient) {
			b.HasExactMatch = true
			return
		}
	}
	for _, f := range b.Flights.Hits {
		if match(f.PassengerList, f.Origin, f.Destination) {
			b.HasExactMatch = true
			return
		}
	}
}
