package semantic_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"faq_scrap/internal/semantic"
)

type mockEncoder struct {
	mock.Mock
}

func (m *mockEncoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	vecs, _ := args.Get(0).([][]float32)
	return vecs, args.Error(1)
}

func TestClassify_SubstringSkipsEncoder(t *testing.T) {
	enc := &mockEncoder{}
	c := semantic.New(enc, semantic.Options{})

	ok, err := c.Classify(context.Background(), "How can I reset my password?", semantic.ItemIndicators, 0.5)
	require.NoError(t, err)
	assert.True(t, ok)
	enc.AssertNotCalled(t, "Encode", mock.Anything, mock.Anything)
}

func TestClassify_PageIndicatorsMatchQuestionOpenings(t *testing.T) {
	enc := &mockEncoder{}
	c := semantic.New(enc, semantic.Options{})

	ok, err := c.Classify(context.Background(), "How can I apply for benefits?", semantic.PageIndicators, 0.5)
	require.NoError(t, err)
	assert.True(t, ok)
	enc.AssertNotCalled(t, "Encode", mock.Anything, mock.Anything)
}

func TestClassify_SubstringIgnoresCase(t *testing.T) {
	enc := &mockEncoder{}
	c := semantic.New(enc, semantic.Options{})

	ok, err := c.Classify(context.Background(), "Visit our faq section", semantic.PageIndicators, 0.7)
	require.NoError(t, err)
	assert.True(t, ok)
	enc.AssertNotCalled(t, "Encode", mock.Anything, mock.Anything)
}

func TestClassify_FallsBackToSimilarity(t *testing.T) {
	phrases := []string{"alpha", "beta"}
	enc := &mockEncoder{}
	enc.On("Encode", mock.Anything, phrases).Return([][]float32{{1, 0}, {0, 1}}, nil).Once()
	enc.On("Encode", mock.Anything, []string{"shipping times"}).Return([][]float32{{0.6, 0.8}}, nil)

	c := semantic.New(enc, semantic.Options{})

	ok, err := c.Classify(context.Background(), "shipping times", phrases, 0.7)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Classify(context.Background(), "shipping times", phrases, 0.9)
	require.NoError(t, err)
	assert.False(t, ok)

	// Phrase vectors are encoded once and reused.
	enc.AssertNumberOfCalls(t, "Encode", 3)
	enc.AssertExpectations(t)
}

func TestClassify_EncoderErrorIsReturned(t *testing.T) {
	enc := &mockEncoder{}
	enc.On("Encode", mock.Anything, mock.Anything).Return(nil, errors.New("model down"))

	c := semantic.New(enc, semantic.Options{})
	ok, err := c.Classify(context.Background(), "shipping times", []string{"alpha"}, 0.5)
	require.Error(t, err)
	assert.False(t, ok)
}

func TestScore_BlankTextSkipsEncoder(t *testing.T) {
	enc := &mockEncoder{}
	c := semantic.New(enc, semantic.Options{})

	score, err := c.Score(context.Background(), "   ", semantic.PageIndicators)
	require.NoError(t, err)
	assert.Zero(t, score)
	enc.AssertNotCalled(t, "Encode", mock.Anything, mock.Anything)
}

func TestScore_TruncatesTokens(t *testing.T) {
	enc := &mockEncoder{}
	enc.On("Encode", mock.Anything, []string{"p"}).Return([][]float32{{1}}, nil)
	enc.On("Encode", mock.Anything, []string{"one two"}).Return([][]float32{{1}}, nil)

	c := semantic.New(enc, semantic.Options{MaxTokens: 2})
	score, err := c.Score(context.Background(), "one  two three four", []string{"p"})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-9)
	enc.AssertExpectations(t)
}

func TestScore_ClampedToUnitRange(t *testing.T) {
	enc := &mockEncoder{}
	enc.On("Encode", mock.Anything, []string{"p"}).Return([][]float32{{1, 0}}, nil)
	enc.On("Encode", mock.Anything, []string{"text"}).Return([][]float32{{-1, 0}}, nil)

	c := semantic.New(enc, semantic.Options{})
	score, err := c.Score(context.Background(), "text", []string{"p"})
	require.NoError(t, err)
	assert.Zero(t, score)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, semantic.Cosine([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, semantic.Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Zero(t, semantic.Cosine([]float32{0, 0}, []float32{1, 1}))
	assert.Zero(t, semantic.Cosine([]float32{1}, []float32{1, 1}))
}

func TestMatchPhrase(t *testing.T) {
	p, ok := semantic.MatchPhrase("Read the Q&A below", semantic.PageIndicators)
	assert.True(t, ok)
	assert.Equal(t, "Q&A", p)

	_, ok = semantic.MatchPhrase("Pricing and plans", semantic.PageIndicators)
	assert.False(t, ok)
}
