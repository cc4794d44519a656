package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func matches(ids ...string) []Match {
	out := make([]Match, len(ids))
	for i, id := range ids {
		out[i] = Match{Record: Record{ID: id, Content: "content " + id}}
	}
	return out
}

func TestFuseRewardsAgreement(t *testing.T) {
	vector := matches("a", "b", "c")
	keyword := matches("c", "d")

	fused := Fuse(10, vector, keyword)

	require.Len(t, fused, 4)
	assert.Equal(t, "c", fused[0].ID)
	assert.Equal(t, "a", fused[1].ID)
}

func TestFuseRespectsLimit(t *testing.T) {
	fused := Fuse(2, matches("a", "b", "c"))

	require.Len(t, fused, 2)
	assert.Equal(t, []string{"a", "b"}, []string{fused[0].ID, fused[1].ID})
}

func TestFuseTiesKeepFirstSeenOrder(t *testing.T) {
	fused := Fuse(0, matches("a"), matches("b"))

	require.Len(t, fused, 2)
	assert.Equal(t, "a", fused[0].ID)
	assert.Equal(t, "b", fused[1].ID)
}

func TestFuseEmpty(t *testing.T) {
	assert.Empty(t, Fuse(10))
	assert.Empty(t, Fuse(10, nil, nil))
}

func TestSearchRequestDefaults(t *testing.T) {
	assert.Equal(t, 5, SearchRequest{K: 5, Top: 10}.CandidateCount())
	assert.Equal(t, 10, SearchRequest{K: 5, Top: 10}.Limit())
	assert.Equal(t, 10, SearchRequest{Top: 10}.CandidateCount())
	assert.Equal(t, 5, SearchRequest{}.Limit())
}
