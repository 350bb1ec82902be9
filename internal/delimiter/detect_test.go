package delimiter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const pythonSample = `import os
from typing import List

@decorator
def foo(x):
    """Docstring."""
    # comment
    return f"{x}"

class Bar:
    pass
`

func TestDetectLanguageFamily_Python(t *testing.T) {
	f, score := DetectLanguageFamily(pythonSample, DefaultMinConfidence)
	assert.Equal(t, PythonStyle, f)
	assert.Equal(t, PythonStyle, score.Family)
	assert.GreaterOrEqual(t, score.Matches, DefaultMinConfidence)
	assert.Greater(t, score.Confidence, 0.0)
	assert.LessOrEqual(t, score.Confidence, 1.0)
}

func TestDetectLanguageFamily_BelowThreshold(t *testing.T) {
	f, _ := DetectLanguageFamily("hello world", DefaultMinConfidence)
	assert.Equal(t, Unknown, f)

	f, _ = DetectLanguageFamily("   \n", 0)
	assert.Equal(t, Unknown, f)
}

func TestDetectLanguageFamily_Deterministic(t *testing.T) {
	f1, s1 := DetectLanguageFamily(pythonSample, 3)
	f2, s2 := DetectLanguageFamily(pythonSample, 3)
	assert.Equal(t, f1, f2)
	assert.Equal(t, s1, s2)
}

func TestSpecificity(t *testing.T) {
	assert.Equal(t, 0.05, specificity("#"))
	assert.Equal(t, 0.5, specificity("//"))
	assert.Equal(t, 0.7, specificity(`"""`))
	assert.Equal(t, 0.8, specificity("<!--"))
	assert.Equal(t, 0.6, specificity("function"))
}

func TestDetector_Memoises(t *testing.T) {
	d, err := NewDetector(16, 2)
	require.NoError(t, err)

	f1, s1 := d.Detect(pythonSample, 0)
	f2, s2 := d.Detect(pythonSample, DefaultMinConfidence)
	assert.Equal(t, f1, f2)
	assert.Equal(t, s1, s2)
	assert.Equal(t, 1, d.Len())

	d.Detect(pythonSample, 5)
	assert.Equal(t, 2, d.Len())
}

func TestDetector_AsyncMatchesSync(t *testing.T) {
	defer goleak.VerifyNone(t)

	d, err := NewDetector(16, 2)
	require.NoError(t, err)

	want, wantScore := DetectLanguageFamily(pythonSample, DefaultMinConfidence)

	results := make([]<-chan DetectResult, 8)
	for i := range results {
		results[i] = d.DetectAsync(context.Background(), pythonSample, DefaultMinConfidence)
	}
	for _, ch := range results {
		r := <-ch
		require.NoError(t, r.Err)
		assert.Equal(t, want, r.Family)
		assert.Equal(t, wantScore, r.Score)
	}
}

func TestNewDetector_InvalidConfig(t *testing.T) {
	_, err := NewDetector(0, 1)
	assert.Error(t, err)

	_, err = NewDetector(8, 0)
	assert.Error(t, err)
}
