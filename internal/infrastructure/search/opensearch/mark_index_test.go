package opensearch

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/trademark-screening/internal/config"
	"github.com/turtacn/trademark-screening/internal/domain/trademark"
	"github.com/turtacn/trademark-screening/internal/infrastructure/monitoring/logging"
)

func testIndexConfig() config.OpenSearchConfig {
	return config.OpenSearchConfig{
		ExactIndex:  config.DefaultExactIndex,
		MarkIndex:   config.DefaultMarkIndex,
		EntityIndex: config.DefaultEntityIndex,
		EntityField: config.DefaultEntityField,
	}
}

func TestMarkIndex_MatchTitle(t *testing.T) {
	fc := newFakeCluster(t, func(w http.ResponseWriter, path string, _ map[string]interface{}) {
		assert.Equal(t, "/tm_data_ngram/_search", path)
		_, _ = w.Write([]byte(`{"hits":{"total":{"value":3},"hits":[
			{"_id":"a","_source":{"title":"ABC","applicationDate":"20190301","bigDrawing":"http://img/a.jpg"}},
			{"_id":"b","_source":{"eng_title":"no title"}},
			{"_id":"c","_source":{"title":"ABCD"}}]}}`))
	})
	idx := NewMarkIndex(NewSearcher(newTestClient(t, fc.URL), logging.NewNopLogger()), testIndexConfig(), logging.NewNopLogger())

	recs, err := idx.MatchTitle(context.Background(), "ABC", 500)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, trademark.MarkRecord{Title: "ABC", ApplicationDate: "20190301", ImageReference: "http://img/a.jpg"}, recs[0])
	assert.Equal(t, "ABCD", recs[1].Title)

	body := fc.last().Body
	assert.EqualValues(t, 500, body["size"])
	assert.Equal(t, map[string]interface{}{"title": "ABC"}, body["query"].(map[string]interface{})["match"])
}

func TestMarkIndex_Fuzzy(t *testing.T) {
	fc := newFakeCluster(t, func(w http.ResponseWriter, path string, _ map[string]interface{}) {
		assert.Equal(t, "/tm_data/_search", path)
		_, _ = w.Write([]byte(`{"hits":{"total":{"value":1},"hits":[{"_id":"1","_source":{"title":"삼성","ipa_title":"samsʌŋ"}}]}}`))
	})
	idx := NewMarkIndex(NewSearcher(newTestClient(t, fc.URL), logging.NewNopLogger()), testIndexConfig(), logging.NewNopLogger())

	recs, err := idx.Fuzzy(context.Background(), trademark.FieldIPATitle, "samsʌŋdʑʌndʑa", 2)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "samsʌŋ", recs[0].IPATitle)

	fuzzy := fc.last().Body["query"].(map[string]interface{})["fuzzy"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"value": "samsʌŋdʑʌndʑa", "fuzziness": float64(2)}, fuzzy["ipa_title"])
}

func TestEntityRegistry_IsLargeEntity(t *testing.T) {
	fc := newFakeCluster(t, func(w http.ResponseWriter, path string, body map[string]interface{}) {
		assert.Equal(t, "/big_company/_search", path)
		match := body["query"].(map[string]interface{})["match"].(map[string]interface{})
		if match["column3"] == "삼성" {
			_, _ = w.Write([]byte(`{"hits":{"total":{"value":4},"hits":[{"_id":"x","_source":{"column3":"삼성"}}]}}`))
			return
		}
		_, _ = w.Write([]byte(`{"hits":{"total":{"value":0},"hits":[]}}`))
	})
	reg := NewEntityRegistry(NewSearcher(newTestClient(t, fc.URL), logging.NewNopLogger()), testIndexConfig())

	large, err := reg.IsLargeEntity(context.Background(), "삼성")
	require.NoError(t, err)
	assert.True(t, large)

	large, err = reg.IsLargeEntity(context.Background(), "동네빵집")
	require.NoError(t, err)
	assert.False(t, large)
}
