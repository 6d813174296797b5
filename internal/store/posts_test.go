package store

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/volunteerhub/backend/internal/models"
)

func TestListFilterEscapesRegexMetacharacters(t *testing.T) {
	f := listFilter(models.PostFilter{Search: "c++ (beginners)"})

	title, ok := f["title"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, `c\+\+ \(beginners\)`, title["$regex"])
	assert.Equal(t, "i", title["$options"])

	// The escaped term must still behave as a case-insensitive
	// literal substring match.
	re := regexp.MustCompile("(?i)" + title["$regex"].(string))
	assert.True(t, re.MatchString("Teach C++ (Beginners) at the library"))
	assert.False(t, re.MatchString("Teach CSS beginners"))
}

func TestListFilterLiteralDot(t *testing.T) {
	f := listFilter(models.PostFilter{Search: "a.c"})
	title := f["title"].(bson.M)

	re := regexp.MustCompile("(?i)" + title["$regex"].(string))
	assert.True(t, re.MatchString("Visit a.c shelter"))
	assert.False(t, re.MatchString("abc shelter"), "dot must not act as a wildcard")
}

func TestListFilterEmptySearch(t *testing.T) {
	assert.Empty(t, listFilter(models.PostFilter{}))
}
