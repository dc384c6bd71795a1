// Package shop defines the rule catalog and configuration generator for
// simulated retail businesses. A Config is the resolved rule set for one
// scenario and is the single source of truth for what "correct" means when a
// schema is evaluated against the event log it produces.
package shop

import (
	"fmt"
	"strings"
)

// Difficulty gates which trap options the generator may draw.
type Difficulty string

const (
	DifficultyEasy        Difficulty = "easy"
	DifficultyMedium      Difficulty = "medium"
	DifficultyHard        Difficulty = "hard"
	DifficultyAdversarial Difficulty = "adversarial"
)

// Difficulties lists all tiers in ascending order of hostility.
func Difficulties() []Difficulty {
	return []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyAdversarial}
}

// ParseDifficulty validates a difficulty string.
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(s)); d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyAdversarial:
		return d, nil
	}
	return "", fmt.Errorf("invalid difficulty %q (valid: easy, medium, hard, adversarial)", s)
}

// rank orders difficulties for monotonicity checks.
func (d Difficulty) rank() int {
	switch d {
	case DifficultyEasy:
		return 0
	case DifficultyMedium:
		return 1
	case DifficultyHard:
		return 2
	case DifficultyAdversarial:
		return 3
	}
	return -1
}

// AtLeast reports whether d is the same tier as other or a harder one.
func (d Difficulty) AtLeast(other Difficulty) bool { return d.rank() >= other.rank() }

// TransactionGrain is the level of detail at which transactions are recorded.
type TransactionGrain string

const (
	GrainReceiptLevel  TransactionGrain = "receipt_level"
	GrainLineItemLevel TransactionGrain = "line_item_level"
	GrainMixed         TransactionGrain = "mixed"
)

// TimestampRelation states whether the recording timestamp and the business
// date an event belongs to can diverge.
type TimestampRelation string

const (
	TimestampSame      TimestampRelation = "same"
	TimestampDivergent TimestampRelation = "different"
)

// HierarchyChangeFrequency is how often product hierarchy changes occur.
type HierarchyChangeFrequency string

const (
	HierarchyChangeNone       HierarchyChangeFrequency = "none"
	HierarchyChangeOccasional HierarchyChangeFrequency = "occasional"
	HierarchyChangeFrequent   HierarchyChangeFrequency = "frequent"
)

// CustomerIDReliability is how trustworthy customer identifiers are.
type CustomerIDReliability string

const (
	CustomerIDReliable   CustomerIDReliability = "reliable"
	CustomerIDUnreliable CustomerIDReliability = "unreliable"
	CustomerIDAbsent     CustomerIDReliability = "absent"
)

// PromotionsPerLine is whether line items can carry one or many promotions.
type PromotionsPerLine string

const (
	PromotionsOne  PromotionsPerLine = "one"
	PromotionsMany PromotionsPerLine = "many"
)

// ReturnReferencePolicy is whether returns reference the original sale.
type ReturnReferencePolicy string

const (
	ReturnRefAlways    ReturnReferencePolicy = "always"
	ReturnRefSometimes ReturnReferencePolicy = "sometimes"
	ReturnRefNever     ReturnReferencePolicy = "never"
)

// ReturnPricingPolicy is how refund prices are determined.
type ReturnPricingPolicy string

const (
	ReturnPriceOriginal ReturnPricingPolicy = "original_price"
	ReturnPriceCurrent  ReturnPricingPolicy = "current_price"
	ReturnPriceOverride ReturnPricingPolicy = "arbitrary_override"
)

// InventoryMode is how inventory is tracked when tracking is enabled.
type InventoryMode string

const (
	InventoryTransactional InventoryMode = "transactional"
	InventorySnapshot      InventoryMode = "periodic_snapshot"
	InventoryBoth          InventoryMode = "both"
)
