package metadata

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCode(t *testing.T) {
	c := NewCode(1700000000000, "application_1700_0001")
	b, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"commitTime":1700000000000,"applicationId":"application_1700_0001"}`, string(b))
}

func TestCodeFromResponseJSON(t *testing.T) {
	t.Run("single", func(t *testing.T) {
		codes, err := CodeFromResponseJSON([]byte(`{"commitTime": 5, "featureGroupCommitId": 9, "applicationId": "app", "content": "print(1)", "href": "x"}`))
		require.NoError(t, err)
		require.Len(t, codes, 1)
		assert.Equal(t, int64(5), *codes[0].CommitTime)
		assert.Equal(t, int64(9), *codes[0].FeatureGroupCommitID)
		assert.Equal(t, "print(1)", codes[0].Content)
	})

	t.Run("envelope", func(t *testing.T) {
		codes, err := CodeFromResponseJSON([]byte(`{"count": 2, "items": [{"applicationId": "a"}, {"applicationId": "b"}]}`))
		require.NoError(t, err)
		require.Len(t, codes, 2)
		assert.Equal(t, "b", codes[1].ApplicationID)
		assert.Nil(t, codes[1].CommitTime)
	})

	t.Run("empty envelope", func(t *testing.T) {
		codes, err := CodeFromResponseJSON([]byte(`{"count": 0}`))
		require.NoError(t, err)
		assert.Empty(t, codes)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := CodeFromResponseJSON([]byte(`{"commitTime": "later"}`))
		assert.Error(t, err)
	})
}

func TestParseRunType(t *testing.T) {
	rt, err := ParseRunType(" jupyter ")
	require.NoError(t, err)
	assert.Equal(t, RunTypeJupyter, rt)

	rt, err = ParseRunType("DATABRICKS")
	require.NoError(t, err)
	assert.Equal(t, RunTypeDatabricks, rt)

	_, err = ParseRunType("lambda")
	assert.Error(t, err)
}
