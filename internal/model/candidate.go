package model

import (
	"strings"
	"time"
)

// SellerType identifies who fulfils a marketplace listing.
type SellerType string

const (
	SellerAmazon     SellerType = "amazon"
	SellerOfficial   SellerType = "official_manufacturer"
	SellerThirdParty SellerType = "third_party"
	SellerUnknown    SellerType = "unknown"
)

// ParseSellerType maps loose seller labels onto a SellerType. Anything it
// does not recognise becomes SellerUnknown.
func ParseSellerType(s string) SellerType {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	switch key {
	case "amazon", "marketplace_owner", "marketplaceowner", "marketplace":
		return SellerAmazon
	case "official_manufacturer", "officialmanufacturer", "official", "manufacturer", "brand_owner":
		return SellerOfficial
	case "third_party", "thirdparty", "3p", "merchant":
		return SellerThirdParty
	default:
		return SellerUnknown
	}
}

// Valid reports whether s is one of the known seller types.
func (s SellerType) Valid() bool {
	switch s {
	case SellerAmazon, SellerOfficial, SellerThirdParty, SellerUnknown:
		return true
	}
	return false
}

// Tier is the terminal priority tier of a classified candidate.
type Tier string

const (
	TierUnclassified Tier = ""
	TierA            Tier = "A" // priority, ready to list
	TierB            Tier = "B" // needs review
	TierC            Tier = "C" // reference only
	TierX            Tier = "X" // excluded
)

// Tiers returns the terminal tiers in presentation order.
func Tiers() []Tier {
	return []Tier{TierA, TierB, TierC, TierX}
}

// Rank orders tiers A < B < C < X; unclassified sorts last.
func (t Tier) Rank() int {
	switch t {
	case TierA:
		return 0
	case TierB:
		return 1
	case TierC:
		return 2
	case TierX:
		return 3
	default:
		return 4
	}
}

// Terminal reports whether t is one of A, B, C or X.
func (t Tier) Terminal() bool {
	return t.Rank() < 4
}

// ReviewStatus records a manual override decision.
type ReviewStatus string

const (
	ReviewNone     ReviewStatus = ""
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// BreakdownItem is one line of an itemised composite score.
type BreakdownItem struct {
	Label        string  `json:"label"`
	Contribution float64 `json:"contribution"`
}

// Classification is the outcome of tier assignment for one candidate.
type Classification struct {
	Tier       Tier   `json:"tier"`
	ReasonCode string `json:"reason_code"`
	Reason     string `json:"reason"`
}

// AuditEntry records one manual change to a candidate's tier.
type AuditEntry struct {
	ID       string       `json:"id"`
	RecordID string       `json:"record_id"`
	Action   string       `json:"action"`
	FromTier Tier         `json:"from_tier"`
	ToTier   Tier         `json:"to_tier"`
	Status   ReviewStatus `json:"status"`
	User     string       `json:"user"`
	Note     string       `json:"note,omitempty"`
	At       time.Time    `json:"at"`
}

// CandidateRecord is one search result under evaluation. Input signals are
// never rewritten by the core; scoring and classification only fill the
// augmented fields.
type CandidateRecord struct {
	ResolvedID        string     `json:"resolved_id,omitempty"`
	TitleText         string     `json:"title_text"`
	ExtractedBrand    string     `json:"extracted_brand,omitempty"`
	ExtractedQuantity string     `json:"extracted_quantity,omitempty"`
	SellerType        SellerType `json:"seller_type"`
	IsPrimeEligible   bool       `json:"is_prime_eligible"`
	FulfillmentHours  *float64   `json:"fulfillment_hours"`
	RelevanceScore    float64    `json:"relevance_score"`
	// MissingFields lists required input fields the source did not supply.
	// Decoders fill it; such records are excluded as invalid input.
	MissingFields []string `json:"missing_fields,omitempty"`

	Score                float64         `json:"score"`
	ScoreBreakdown       []BreakdownItem `json:"score_breakdown,omitempty"`
	SafetyVerdict        *SafetyVerdict  `json:"safety_verdict,omitempty"`
	PriorityTier         Tier            `json:"priority_tier,omitempty"`
	ReasonCode           string          `json:"reason_code,omitempty"`
	ClassificationReason string          `json:"classification_reason,omitempty"`
	ReviewStatus         ReviewStatus    `json:"review_status,omitempty"`
	AuditTrail           []AuditEntry    `json:"audit_trail,omitempty"`
}

// unresolvedIDs are placeholder identifiers emitted by catalog lookups that
// found nothing.
var unresolvedIDs = map[string]bool{
	"":     true,
	"n/a":  true,
	"na":   true,
	"none": true,
	"null": true,
	"nil":  true,
	"-":    true,
}

// HasIdentifier reports whether the record carries a resolvable catalog id.
func (r *CandidateRecord) HasIdentifier() bool {
	return !unresolvedIDs[strings.ToLower(strings.TrimSpace(r.ResolvedID))]
}

// Classified reports whether a terminal tier has been assigned.
func (r *CandidateRecord) Classified() bool {
	return r.PriorityTier.Terminal()
}

// SafetyText is the free text scanned by the content filter.
func (r *CandidateRecord) SafetyText() string {
	if r.ExtractedBrand == "" {
		return r.TitleText
	}
	return r.TitleText + " " + r.ExtractedBrand
}

// Apply stores a classification result on the record.
func (r *CandidateRecord) Apply(c Classification) {
	r.PriorityTier = c.Tier
	r.ReasonCode = c.ReasonCode
	r.ClassificationReason = c.Reason
}

// Required input field names.
const FieldRelevanceScore = "relevance_score"

// Hours is a convenience constructor for optional fulfillment times.
func Hours(h float64) *float64 { return &h }
