package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCanonicalForm(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "lowercases host and path",
			raw:  "https://Acme.COM/Careers",
			want: "https://acme.com/careers",
		},
		{
			name: "strips default https port",
			raw:  "https://acme.com:443/careers",
			want: "https://acme.com/careers",
		},
		{
			name: "strips default http port",
			raw:  "http://acme.com:80/jobs",
			want: "http://acme.com/jobs",
		},
		{
			name: "keeps non-default port",
			raw:  "https://acme.com:8443/careers",
			want: "https://acme.com:8443/careers",
		},
		{
			name: "drops trailing slash",
			raw:  "https://acme.com/careers/",
			want: "https://acme.com/careers",
		},
		{
			name: "keeps root slash",
			raw:  "https://acme.com/",
			want: "https://acme.com/",
		},
		{
			name: "strips fragment",
			raw:  "https://acme.com/careers#openings",
			want: "https://acme.com/careers",
		},
		{
			name: "drops tracking params",
			raw:  "https://acme.com/careers?utm_source=news&utm_campaign=x&dept=eng",
			want: "https://acme.com/careers?dept=eng",
		},
		{
			name: "sorts query keys",
			raw:  "https://acme.com/jobs?type=full&dept=eng",
			want: "https://acme.com/jobs?dept=eng&type=full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate, err := Normalize(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, candidate.Normalized)
		})
	}
}

func TestNormalizeSameEntity(t *testing.T) {
	a, err := Normalize("https://Acme.com/Careers/?b=2&a=1#section")
	require.NoError(t, err)
	b, err := Normalize("https://acme.com:443/careers?a=1&b=2")
	require.NoError(t, err)

	assert.True(t, a.SameEntity(b))
	assert.Equal(t, a.Normalized, b.Normalized)
}

func TestNormalizeRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty string", ""},
		{"whitespace only", "   "},
		{"mailto scheme", "mailto:jobs@acme.com"},
		{"javascript scheme", "javascript:void(0)"},
		{"no host", "https:///careers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestNormalizeSegments(t *testing.T) {
	candidate, err := Normalize("https://acme.com/careers/engineering/backend")
	require.NoError(t, err)

	assert.Equal(t, []string{"careers", "engineering", "backend"}, candidate.Segments)
	assert.Equal(t, 3, candidate.Depth())
}

func TestResolveRef(t *testing.T) {
	candidate, err := ResolveRef("https://acme.com/careers", "/jobs/backend-engineer")
	require.NoError(t, err)
	assert.Equal(t, "https://acme.com/jobs/backend-engineer", candidate.Normalized)

	candidate, err = ResolveRef("https://acme.com/careers/", "engineering")
	require.NoError(t, err)
	assert.Equal(t, "https://acme.com/careers/engineering", candidate.Normalized)
}

func TestIsJobBoard(t *testing.T) {
	board, err := Normalize("https://www.indeed.com/viewjob?jk=abc")
	require.NoError(t, err)
	assert.True(t, board.IsJobBoard())

	tenant, err := Normalize("https://acme.recruitee.com/o/backend-engineer")
	require.NoError(t, err)
	assert.True(t, tenant.IsJobBoard())

	company, err := Normalize("https://acme.com/careers")
	require.NoError(t, err)
	assert.False(t, company.IsJobBoard())
}
