package outliers

import (
	"math"
	"testing"

	"countglm/domain/core"
	"countglm/domain/sample"
)

// TestSanitize_ShapePreserved verifies output length equals input length
func TestSanitize_ShapePreserved(t *testing.T) {
	values := []float64{3, math.NaN(), 7, 1, 4, 9, 2, 8}
	out, _, err := Sanitize(values, Options{})
	if err != nil {
		t.Fatalf("Sanitize failed: %v", err)
	}
	if len(out) != len(values) {
		t.Errorf("Expected output length %d, got %d", len(values), len(out))
	}
}

// TestSanitize_IdentityOnCleanSample verifies in-fence samples pass through untouched
func TestSanitize_IdentityOnCleanSample(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	out, bounds, err := Sanitize(values, Options{})
	if err != nil {
		t.Fatalf("Sanitize failed: %v", err)
	}
	// Q1=2, Q3=6, fence is [-4, 12]; everything survives
	for i, v := range out {
		if v != values[i] {
			t.Errorf("Expected identity at index %d: %v != %v", i, v, values[i])
		}
	}
	if bounds.Lower != -4 || bounds.Upper != 12 {
		t.Errorf("Expected fence [-4, 12], got [%v, %v]", bounds.Lower, bounds.Upper)
	}
}

// TestSanitize_ReplacesMissingAndOutliers covers the mixed scenario:
// negatives count toward the quartiles, missing values do not.
func TestSanitize_ReplacesMissingAndOutliers(t *testing.T) {
	values := []float64{1, 2, 100, -5, math.NaN()}
	out, bounds, err := Sanitize(values, Options{})
	if err != nil {
		t.Fatalf("Sanitize failed: %v", err)
	}

	// Quartiles over [-5, 1, 2, 100]: Q1=-5, Q3=2, IQR=7,
	// fence [-15.5, 12.5], mean 24.5
	if bounds.Q1 != -5 || bounds.Q3 != 2 {
		t.Errorf("Expected Q1=-5 Q3=2, got Q1=%v Q3=%v", bounds.Q1, bounds.Q3)
	}
	if bounds.Lower != -15.5 || bounds.Upper != 12.5 {
		t.Errorf("Expected fence [-15.5, 12.5], got [%v, %v]", bounds.Lower, bounds.Upper)
	}
	if bounds.Mean != 24.5 {
		t.Errorf("Expected mean 24.5, got %v", bounds.Mean)
	}

	expected := []float64{1, 2, 24.5, -5, 24.5}
	for i, v := range out {
		if v != expected[i] {
			t.Errorf("Index %d: expected %v, got %v", i, expected[i], v)
		}
	}
}

// TestSanitize_OutputInFenceOrMean verifies every output value is either
// inside the fence or exactly the imputed mean
func TestSanitize_OutputInFenceOrMean(t *testing.T) {
	values := []float64{10, 12, math.NaN(), 11, 9, 500, -300, 13, 10.5, 11.5}
	out, bounds, err := Sanitize(values, Options{})
	if err != nil {
		t.Fatalf("Sanitize failed: %v", err)
	}
	for i, v := range out {
		if !bounds.Contains(v) && v != bounds.Mean {
			t.Errorf("Index %d: value %v neither in fence [%v, %v] nor mean %v",
				i, v, bounds.Lower, bounds.Upper, bounds.Mean)
		}
	}
}

// TestSanitize_DegenerateAllEqual verifies the collapsed-fence case
func TestSanitize_DegenerateAllEqual(t *testing.T) {
	values := []float64{5, 5, 5, 5}
	out, bounds, err := Sanitize(values, Options{})
	if err != nil {
		t.Fatalf("Sanitize failed: %v", err)
	}
	if bounds.Lower != 5 || bounds.Upper != 5 {
		t.Errorf("Expected collapsed fence [5, 5], got [%v, %v]", bounds.Lower, bounds.Upper)
	}
	for i, v := range out {
		if v != 5 {
			t.Errorf("Index %d: expected 5, got %v", i, v)
		}
	}
}

// TestSanitize_InsufficientData verifies tiny samples fail loudly
func TestSanitize_InsufficientData(t *testing.T) {
	cases := [][]float64{
		{},
		{math.NaN()},
		{math.NaN(), 3},
		{1, 2}, // too few points to interpolate the lower quartile
	}
	for i, values := range cases {
		_, _, err := Sanitize(values, Options{})
		if !core.IsInsufficientDataError(err) {
			t.Errorf("Case %d: expected insufficient data error, got %v", i, err)
		}
	}
}

// TestSanitize_MultiplierWidensFence verifies the fence parameter is honored
func TestSanitize_MultiplierWidensFence(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	_, narrow, err := Sanitize(values, Options{IQRMultiplier: 1.5})
	if err != nil {
		t.Fatalf("Sanitize failed: %v", err)
	}
	_, wide, err := Sanitize(values, Options{IQRMultiplier: 3.0})
	if err != nil {
		t.Fatalf("Sanitize failed: %v", err)
	}
	if wide.Lower >= narrow.Lower || wide.Upper <= narrow.Upper {
		t.Errorf("Expected 3.0x fence to contain 1.5x fence: [%v, %v] vs [%v, %v]",
			wide.Lower, wide.Upper, narrow.Lower, narrow.Upper)
	}
}

// TestSanitizeRecords_CategoriesPreserved verifies labels ride along untouched
func TestSanitizeRecords_CategoriesPreserved(t *testing.T) {
	records := []sample.Record{
		{Value: 1, Category: "AA"},
		{Value: math.NaN(), Category: "DL"},
		{Value: 100, Category: "UA"},
		{Value: -5, Category: "AA"},
		{Value: 2, Category: "DL"},
	}
	out, _, err := SanitizeRecords(records, Options{})
	if err != nil {
		t.Fatalf("SanitizeRecords failed: %v", err)
	}
	for i, r := range out {
		if r.Category != records[i].Category {
			t.Errorf("Index %d: category changed from %q to %q", i, records[i].Category, r.Category)
		}
		if math.IsNaN(r.Value) {
			t.Errorf("Index %d: missing value survived sanitization", i)
		}
	}
}
