package queryplan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-engine/internal/model"
)

func TestNewRequiresBackend(t *testing.T) {
	_, err := New(model.ModeBusinessSearch, nil)
	assert.Error(t, err)
}

func TestPlanProfileMode(t *testing.T) {
	p, err := New(model.ModeProfileSearch, []model.BackendID{model.BackendGoogle})
	require.NoError(t, err)

	queries := p.Plan("fitness coach", "Miami, FL")
	require.NotEmpty(t, queries)

	for _, q := range queries {
		assert.True(t, strings.HasPrefix(q.Text, "site:instagram.com "), q.Text)
		assert.Equal(t, model.BackendGoogle, q.Backend)
	}

	// Email hints and role groups both appear in the plan.
	joined := strings.Join(textsOf(queries), "\n")
	assert.Contains(t, joined, "@gmail.com")
	assert.Contains(t, joined, `"CEO" OR "Founder"`)
}

func TestPlanListingMode(t *testing.T) {
	p, err := New(model.ModeListingSearch, []model.BackendID{model.BackendGoogle})
	require.NoError(t, err)

	queries := p.Plan("plumbing", "Austin, TX")
	require.NotEmpty(t, queries)
	for _, q := range queries {
		assert.Contains(t, q.Text, "site:linkedin.com/company", q.Text)
		assert.Contains(t, q.Text, "Austin, TX")
	}
}

func TestPlanEmptyKeywordKeepsBaseQuery(t *testing.T) {
	for _, mode := range []model.Mode{
		model.ModeProfileSearch,
		model.ModeBusinessSearch,
		model.ModeListingSearch,
		model.ModeOpenWebSearch,
	} {
		p, err := New(mode, []model.BackendID{model.BackendBing})
		require.NoError(t, err)

		queries := p.Plan("", "Austin, TX")
		require.NotEmpty(t, queries, string(mode))
		for _, q := range queries {
			assert.Contains(t, q.Text, "Austin, TX", string(mode))
		}
	}
}

func TestPlanSpreadsBackends(t *testing.T) {
	p, err := New(model.ModeBusinessSearch, []model.BackendID{model.BackendGoogle, model.BackendBing})
	require.NoError(t, err)

	queries := p.Plan("roofing", "Denver, CO")
	require.Greater(t, len(queries), 1)

	seen := map[model.BackendID]bool{}
	for _, q := range queries {
		seen[q.Backend] = true
	}
	assert.True(t, seen[model.BackendGoogle])
	assert.True(t, seen[model.BackendBing])
}

func TestPlanCapped(t *testing.T) {
	p, err := New(model.ModeBusinessSearch, []model.BackendID{model.BackendBing})
	require.NoError(t, err)
	queries := p.Plan("restaurant contractor marketing", "NYC")
	assert.LessOrEqual(t, len(queries), maxQueries)
}

func TestExpandKeywordFromTable(t *testing.T) {
	syns := ExpandKeyword("emergency plumbing repair")
	require.NotEmpty(t, syns)
	assert.Equal(t, "emergency plumbing repair", syns[0])
	assert.Contains(t, syns, "plumber")
	assert.Contains(t, syns, "drain cleaning")
	assert.LessOrEqual(t, len(syns), maxSynonyms)
}

func TestExpandKeywordHeuristicFallback(t *testing.T) {
	syns := ExpandKeyword("aquarium installer")
	assert.Equal(t, []string{
		"aquarium installer",
		"aquarium installers",
		"aquarium installer services",
		"aquarium installer companies",
		"aquarium installer agency",
	}, syns)
}

func TestExpandKeywordEmpty(t *testing.T) {
	assert.Nil(t, ExpandKeyword("   "))
}

func TestExpandKeywordDeterministic(t *testing.T) {
	a := ExpandKeyword("marketing and fitness")
	b := ExpandKeyword("marketing and fitness")
	assert.Equal(t, a, b)
}

func textsOf(queries []model.SearchQuery) []string {
	out := make([]string, len(queries))
	for i, q := range queries {
		out[i] = q.Text
	}
	return out
}
