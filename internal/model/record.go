// Package model defines the core entities flowing through the provisioning
// report pipeline: per-document extracted fields, per-PON records, and the
// classified and grouped collections handed to the exporter.
package model

// CircuitFamily identifies which label vocabulary a circuit token matched.
type CircuitFamily string

const (
	FamilyNone CircuitFamily = ""
	FamilyEVC  CircuitFamily = "evc"
	FamilyUNI  CircuitFamily = "uni"
)

// RawDocument is one PDF-derived text blob belonging to a PON.
type RawDocument struct {
	PON  string `json:"pon"`
	Path string `json:"path"`
	Text string `json:"text"`
}

// ExtractedFields holds the fields pulled from a single document.
// Empty string means the field was not found; that is an expected outcome,
// not an error.
type ExtractedFields struct {
	Circuit      string        `json:"circuit,omitempty"`
	Family       CircuitFamily `json:"family,omitempty"`
	SentDate     string        `json:"sent_date,omitempty"`
	ContactName  string        `json:"contact_name,omitempty"`
	ContactPhone string        `json:"contact_phone,omitempty"`
	ContactEmail string        `json:"contact_email,omitempty"`
}

// Record is the canonical per-PON entity. It is built additively from the
// PON's documents, enriched with CVLAN and address data, and immutable after
// enrichment.
type Record struct {
	PON       string `json:"pon"`
	TowerName string `json:"tower_name"`

	EVC1 string `json:"evc1,omitempty"`
	EVC2 string `json:"evc2,omitempty"`
	UNI  string `json:"uni,omitempty"`

	ContactName  string `json:"contact_name,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
	SentDate     string `json:"date_sent,omitempty"`

	// Enrichment output.
	CVLAN   string            `json:"cvlan,omitempty"`
	Address map[string]string `json:"address,omitempty"`
}

// NewRecord creates an empty record for a PON. The tower name starts out as
// the PON itself; the lookup tables key on it.
func NewRecord(pon string) Record {
	return Record{PON: pon, TowerName: pon}
}

// Clone returns a deep copy. Stages operate on copies so that ownership of
// each collection passes to exactly one consumer.
func (r Record) Clone() Record {
	out := r
	if r.Address != nil {
		out.Address = make(map[string]string, len(r.Address))
		for k, v := range r.Address {
			out.Address[k] = v
		}
	}
	return out
}

// Field resolves a semantic field key to its value, as used by the report
// cell mapping. Address columns are resolved by their header name.
func (r Record) Field(key string) (string, bool) {
	switch key {
	case "pon":
		return r.PON, r.PON != ""
	case "tower_name":
		return r.TowerName, r.TowerName != ""
	case "evc1":
		return r.EVC1, r.EVC1 != ""
	case "evc2":
		return r.EVC2, r.EVC2 != ""
	case "uni":
		return r.UNI, r.UNI != ""
	case "contact_name":
		return r.ContactName, r.ContactName != ""
	case "contact_phone":
		return r.ContactPhone, r.ContactPhone != ""
	case "contact_email":
		return r.ContactEmail, r.ContactEmail != ""
	case "date_sent":
		return r.SentDate, r.SentDate != ""
	case "cvlan":
		return r.CVLAN, r.CVLAN != ""
	}
	v, ok := r.Address[key]
	return v, ok && v != ""
}

// Bucket names a leaf classification bucket.
type Bucket string

const (
	BucketUniEvc Bucket = "unievc"  // pdisc: uni + evc1 + evc2, tower well-known
	BucketVlan   Bucket = "vlan"    // pdisc: evc pair only, tower well-known
	BucketFdisc  Bucket = "fdisc"   // full circuit set, tower sparsely referenced
	BucketNoType Bucket = "no_type" // everything else
)

// LeafBuckets lists all leaf buckets in report order.
func LeafBuckets() []Bucket {
	return []Bucket{BucketUniEvc, BucketVlan, BucketFdisc, BucketNoType}
}

// ClassifiedSet partitions records into the disconnect categories. The pdisc
// category is split into its unievc and vlan subtypes; every record lands in
// exactly one leaf.
type ClassifiedSet struct {
	PDiscUniEvc map[string]Record `json:"pdisc_unievc"`
	PDiscVlan   map[string]Record `json:"pdisc_vlan"`
	FDisc       map[string]Record `json:"fdisc"`
	NoType      map[string]Record `json:"no_type"`
}

// NewClassifiedSet returns a ClassifiedSet with all buckets allocated.
func NewClassifiedSet() ClassifiedSet {
	return ClassifiedSet{
		PDiscUniEvc: make(map[string]Record),
		PDiscVlan:   make(map[string]Record),
		FDisc:       make(map[string]Record),
		NoType:      make(map[string]Record),
	}
}

// Leaf returns the bucket map for a leaf name.
func (s ClassifiedSet) Leaf(b Bucket) map[string]Record {
	switch b {
	case BucketUniEvc:
		return s.PDiscUniEvc
	case BucketVlan:
		return s.PDiscVlan
	case BucketFdisc:
		return s.FDisc
	default:
		return s.NoType
	}
}

// Size returns the total number of classified records.
func (s ClassifiedSet) Size() int {
	return len(s.PDiscUniEvc) + len(s.PDiscVlan) + len(s.FDisc) + len(s.NoType)
}

// GroupedSet is the terminal structure: bucket → sent date → PON → record.
// Records without a sent date are not present (deliberate drop).
type GroupedSet map[Bucket]map[string]map[string]Record

// NewGroupedSet returns a GroupedSet with all leaf buckets pre-initialized,
// so consumers never observe a missing bucket key.
func NewGroupedSet() GroupedSet {
	g := make(GroupedSet, len(LeafBuckets()))
	for _, b := range LeafBuckets() {
		g[b] = make(map[string]map[string]Record)
	}
	return g
}
