package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veryus/internal/models"
	"veryus/internal/utils"
)

func TestPostDetailViewCountFollowsStore(t *testing.T) {
	env := newTestEnv(t)
	_, cookies := env.member("Singer", utils.RoleMember)
	post := env.createPost(cookies, models.BoardFree, "Setlist")

	for want := 1; want <= 3; want++ {
		rec := env.do(http.MethodGet, "/api/posts/"+post.ID, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, want, decode[models.Post](t, rec).ViewCount)
	}

	// Views counted elsewhere show up even while the rendered post is cached.
	require.NoError(t, env.db.Model(&models.Post{}).Where("id = ?", post.ID).Update("view_count", 10).Error)
	rec := env.do(http.MethodGet, "/api/posts/"+post.ID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 11, decode[models.Post](t, rec).ViewCount)

	rec = env.do(http.MethodGet, "/api/posts/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
