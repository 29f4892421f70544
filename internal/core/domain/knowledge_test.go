package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindDomain(t *testing.T) {
	infos := []DomainInfo{
		{KnowledgeDomain: KnowledgeDomain{Name: DomainLabAssistant}, Count: 3},
		{KnowledgeDomain: KnowledgeDomain{Name: DomainQuizGeneration}},
	}

	info, err := FindDomain(infos, DomainLabAssistant)
	require.NoError(t, err)
	assert.Equal(t, 3, info.Count)

	_, err = FindDomain(infos, "astrology")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "astrology")

	_, err = FindDomain(nil, DomainLabAssistant)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDocument_MetadataString(t *testing.T) {
	doc := Document{Metadata: map[string]any{"user_feedback": "positive", "quality_score": 0.9}}

	assert.Equal(t, "positive", doc.MetadataString("user_feedback"))
	assert.Equal(t, "", doc.MetadataString("quality_score"))
	assert.Equal(t, "", doc.MetadataString("missing"))
	assert.Equal(t, "", Document{}.MetadataString("user_feedback"))
}
