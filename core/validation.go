package core

import (
	"math"
	"strings"
)

// ValidateCollectionName rejects names that are empty or could escape
// the data directory when used to build a file path.
func ValidateCollectionName(name string) error {
	if name == "" {
		return newErr(KindDimensionMismatch, "collection name cannot be empty")
	}
	if strings.ContainsAny(name, "/\\") {
		return newErr(KindDimensionMismatch, "collection name %q cannot contain path separators", name)
	}
	return nil
}

// ValidateCollectionConfig checks a configuration is internally
// consistent before a collection is created.
func ValidateCollectionConfig(cfg CollectionConfig) error {
	if err := ValidateCollectionName(cfg.Name); err != nil {
		return err
	}
	if cfg.Dimension <= 0 {
		return newErr(KindDimensionMismatch, "dimension must be positive, got %d", cfg.Dimension)
	}
	switch cfg.Metric {
	case MetricEuclidean, MetricCosine, MetricDotProduct:
	default:
		return newErr(KindDimensionMismatch, "unsupported metric: %s", cfg.Metric)
	}
	if cfg.M <= 0 {
		return newErr(KindDimensionMismatch, "M must be positive, got %d", cfg.M)
	}
	if cfg.EfConstruction <= 0 {
		return newErr(KindDimensionMismatch, "ef_construction must be positive, got %d", cfg.EfConstruction)
	}
	if cfg.EfSearch <= 0 {
		return newErr(KindDimensionMismatch, "ef_search must be positive, got %d", cfg.EfSearch)
	}
	if cfg.MaxElements <= 0 {
		return newErr(KindDimensionMismatch, "max_elements must be positive, got %d", cfg.MaxElements)
	}
	return nil
}

// ValidateVectorValues rejects empty, wrong-dimension, NaN, or infinite
// vectors.
func ValidateVectorValues(values []float32, dimension int) error {
	if len(values) != dimension {
		return NewDimensionMismatch(len(values), dimension)
	}
	for i, v := range values {
		if math.IsNaN(float64(v)) {
			return newErr(KindDimensionMismatch, "value at index %d is NaN", i)
		}
		if math.IsInf(float64(v), 0) {
			return newErr(KindDimensionMismatch, "value at index %d is infinite", i)
		}
	}
	return nil
}

// ValidateK rejects a non-positive top-k request.
func ValidateK(k int) error {
	if k < 1 {
		return newErr(KindDimensionMismatch, "k must be >= 1, got %d", k)
	}
	return nil
}
