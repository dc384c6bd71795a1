package shop

// weighted pairs an ordered option list with draw weights. Options are kept
// in slices, not maps, so draw order is stable across runs and platforms.
type weighted[T any] struct {
	options []T
	weights []float64
}

// tierWeights holds the draw weights for one difficulty tier. Higher tiers
// shift mass toward the options that create more modeling hazards; an option
// with weight zero at a tier is effectively disabled there.
type tierWeights struct {
	grain        weighted[TransactionGrain]
	timeRelation weighted[TimestampRelation]
	hierarchy    weighted[HierarchyChangeFrequency]
	customerIDs  weighted[CustomerIDReliability]
	returnsRef   weighted[ReturnReferencePolicy]
	returnsPrice weighted[ReturnPricingPolicy]
	promosPerLn  weighted[PromotionsPerLine]
	invMode      weighted[InventoryMode]
	boolTrueProb float64
}

var difficultyWeights = map[Difficulty]tierWeights{
	DifficultyEasy: {
		grain:        weighted[TransactionGrain]{[]TransactionGrain{GrainLineItemLevel, GrainReceiptLevel, GrainMixed}, []float64{0.9, 0.1, 0.0}},
		timeRelation: weighted[TimestampRelation]{[]TimestampRelation{TimestampSame, TimestampDivergent}, []float64{0.9, 0.1}},
		hierarchy:    weighted[HierarchyChangeFrequency]{[]HierarchyChangeFrequency{HierarchyChangeNone, HierarchyChangeOccasional, HierarchyChangeFrequent}, []float64{0.8, 0.2, 0.0}},
		customerIDs:  weighted[CustomerIDReliability]{[]CustomerIDReliability{CustomerIDReliable, CustomerIDUnreliable, CustomerIDAbsent}, []float64{0.8, 0.1, 0.1}},
		returnsRef:   weighted[ReturnReferencePolicy]{[]ReturnReferencePolicy{ReturnRefAlways, ReturnRefSometimes, ReturnRefNever}, []float64{0.8, 0.1, 0.1}},
		returnsPrice: weighted[ReturnPricingPolicy]{[]ReturnPricingPolicy{ReturnPriceOriginal, ReturnPriceCurrent, ReturnPriceOverride}, []float64{0.9, 0.1, 0.0}},
		promosPerLn:  weighted[PromotionsPerLine]{[]PromotionsPerLine{PromotionsOne, PromotionsMany}, []float64{0.9, 0.1}},
		invMode:      weighted[InventoryMode]{[]InventoryMode{InventoryTransactional, InventorySnapshot, InventoryBoth}, []float64{0.8, 0.2, 0.0}},
		boolTrueProb: 0.3,
	},
	DifficultyMedium: {
		grain:        weighted[TransactionGrain]{[]TransactionGrain{GrainLineItemLevel, GrainReceiptLevel, GrainMixed}, []float64{0.6, 0.2, 0.2}},
		timeRelation: weighted[TimestampRelation]{[]TimestampRelation{TimestampSame, TimestampDivergent}, []float64{0.5, 0.5}},
		hierarchy:    weighted[HierarchyChangeFrequency]{[]HierarchyChangeFrequency{HierarchyChangeNone, HierarchyChangeOccasional, HierarchyChangeFrequent}, []float64{0.4, 0.4, 0.2}},
		customerIDs:  weighted[CustomerIDReliability]{[]CustomerIDReliability{CustomerIDReliable, CustomerIDUnreliable, CustomerIDAbsent}, []float64{0.5, 0.3, 0.2}},
		returnsRef:   weighted[ReturnReferencePolicy]{[]ReturnReferencePolicy{ReturnRefAlways, ReturnRefSometimes, ReturnRefNever}, []float64{0.4, 0.4, 0.2}},
		returnsPrice: weighted[ReturnPricingPolicy]{[]ReturnPricingPolicy{ReturnPriceOriginal, ReturnPriceCurrent, ReturnPriceOverride}, []float64{0.5, 0.3, 0.2}},
		promosPerLn:  weighted[PromotionsPerLine]{[]PromotionsPerLine{PromotionsOne, PromotionsMany}, []float64{0.5, 0.5}},
		invMode:      weighted[InventoryMode]{[]InventoryMode{InventoryTransactional, InventorySnapshot, InventoryBoth}, []float64{0.4, 0.4, 0.2}},
		boolTrueProb: 0.5,
	},
	DifficultyHard: {
		grain:        weighted[TransactionGrain]{[]TransactionGrain{GrainLineItemLevel, GrainReceiptLevel, GrainMixed}, []float64{0.3, 0.3, 0.4}},
		timeRelation: weighted[TimestampRelation]{[]TimestampRelation{TimestampSame, TimestampDivergent}, []float64{0.2, 0.8}},
		hierarchy:    weighted[HierarchyChangeFrequency]{[]HierarchyChangeFrequency{HierarchyChangeNone, HierarchyChangeOccasional, HierarchyChangeFrequent}, []float64{0.1, 0.3, 0.6}},
		customerIDs:  weighted[CustomerIDReliability]{[]CustomerIDReliability{CustomerIDReliable, CustomerIDUnreliable, CustomerIDAbsent}, []float64{0.2, 0.5, 0.3}},
		returnsRef:   weighted[ReturnReferencePolicy]{[]ReturnReferencePolicy{ReturnRefAlways, ReturnRefSometimes, ReturnRefNever}, []float64{0.2, 0.5, 0.3}},
		returnsPrice: weighted[ReturnPricingPolicy]{[]ReturnPricingPolicy{ReturnPriceOriginal, ReturnPriceCurrent, ReturnPriceOverride}, []float64{0.2, 0.3, 0.5}},
		promosPerLn:  weighted[PromotionsPerLine]{[]PromotionsPerLine{PromotionsOne, PromotionsMany}, []float64{0.2, 0.8}},
		invMode:      weighted[InventoryMode]{[]InventoryMode{InventoryTransactional, InventorySnapshot, InventoryBoth}, []float64{0.2, 0.2, 0.6}},
		boolTrueProb: 0.7,
	},
	DifficultyAdversarial: {
		grain:        weighted[TransactionGrain]{[]TransactionGrain{GrainLineItemLevel, GrainReceiptLevel, GrainMixed}, []float64{0.1, 0.2, 0.7}},
		timeRelation: weighted[TimestampRelation]{[]TimestampRelation{TimestampSame, TimestampDivergent}, []float64{0.1, 0.9}},
		hierarchy:    weighted[HierarchyChangeFrequency]{[]HierarchyChangeFrequency{HierarchyChangeNone, HierarchyChangeOccasional, HierarchyChangeFrequent}, []float64{0.0, 0.2, 0.8}},
		customerIDs:  weighted[CustomerIDReliability]{[]CustomerIDReliability{CustomerIDReliable, CustomerIDUnreliable, CustomerIDAbsent}, []float64{0.1, 0.6, 0.3}},
		returnsRef:   weighted[ReturnReferencePolicy]{[]ReturnReferencePolicy{ReturnRefAlways, ReturnRefSometimes, ReturnRefNever}, []float64{0.1, 0.6, 0.3}},
		returnsPrice: weighted[ReturnPricingPolicy]{[]ReturnPricingPolicy{ReturnPriceOriginal, ReturnPriceCurrent, ReturnPriceOverride}, []float64{0.1, 0.2, 0.7}},
		promosPerLn:  weighted[PromotionsPerLine]{[]PromotionsPerLine{PromotionsOne, PromotionsMany}, []float64{0.1, 0.9}},
		invMode:      weighted[InventoryMode]{[]InventoryMode{InventoryTransactional, InventorySnapshot, InventoryBoth}, []float64{0.1, 0.1, 0.8}},
		boolTrueProb: 0.85,
	},
}
