package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostValidate(t *testing.T) {
	t.Run("id is required", func(t *testing.T) {
		err := Post{Title: "no id"}.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "id")
	})

	t.Run("missing optional fields are valid", func(t *testing.T) {
		assert.NoError(t, Post{ID: "abc"}.Validate())
	})

	t.Run("unknown image type is rejected", func(t *testing.T) {
		err := Post{ID: "abc", ImageType: String("gallery")}.Validate()
		assert.Error(t, err)
	})

	t.Run("known image type is accepted", func(t *testing.T) {
		assert.NoError(t, Post{ID: "abc", ImageType: String(ImageImgur)}.Validate())
	})
}

func TestPostFieldsOmitsUnsetOptionals(t *testing.T) {
	p := Post{ID: "abc", Title: "hello", ScrapedAt: time.Unix(10, 0)}

	f := p.Fields()
	assert.Equal(t, "abc", f["id"])
	assert.NotContains(t, f, "category")
	assert.NotContains(t, f, "hasImage")
	assert.NotContains(t, f, "crosspost_parent_subreddit")

	p.Category = String("workplace")
	p.HasImage = Bool(false)
	f = p.Fields()
	assert.Equal(t, "workplace", f["category"])
	assert.Equal(t, false, f["hasImage"])
}

func TestCategoryOrEmpty(t *testing.T) {
	assert.Equal(t, "", Post{}.CategoryOrEmpty())
	assert.Equal(t, "advice", Post{Category: String("advice")}.CategoryOrEmpty())
}
