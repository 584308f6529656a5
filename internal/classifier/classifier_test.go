package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyCareerPageAccepted(t *testing.T) {
	c := New(DefaultSettings())

	breakdown := c.Classify("https://acme.com/careers", KindCareer, nil)

	require.True(t, breakdown.Accepted)
	assert.Equal(t, "https://acme.com/careers", breakdown.URL)
	assert.Equal(t, "career", breakdown.Kind)
	assert.Equal(t, 15, breakdown.Total)
	assert.Equal(t, 6, breakdown.Threshold)
	assert.Empty(t, breakdown.RejectionReason)
	assert.NotEmpty(t, breakdown.Factors)
}

func TestClassifyJobLinkAccepted(t *testing.T) {
	c := New(DefaultSettings())

	breakdown := c.Classify("https://acme.com/careers/senior-backend-engineer", KindJob, nil)

	require.True(t, breakdown.Accepted)
	assert.GreaterOrEqual(t, breakdown.Total, 5)
	assert.Equal(t, 5, breakdown.Threshold)
}

func TestClassifyDeterministic(t *testing.T) {
	c := New(DefaultSettings())
	content := &PageContent{Title: "Careers at Acme", BodyText: "apply now join our team"}

	first := c.Classify("https://acme.com/careers?dept=eng", KindCareer, content)
	second := c.Classify("https://acme.com/careers?dept=eng", KindCareer, content)

	assert.Equal(t, first, second)
}

func TestClassifyQueryOrderInvariance(t *testing.T) {
	c := New(DefaultSettings())

	a := c.Classify("https://acme.com/jobs/backend-engineer?dept=eng&type=full", KindJob, nil)
	b := c.Classify("https://acme.com/jobs/backend-engineer?type=full&dept=eng", KindJob, nil)

	assert.Equal(t, a, b)
}

func TestClassifyEarlyRejection(t *testing.T) {
	c := New(DefaultSettings())

	tests := []struct {
		name string
		url  string
		kind Kind
	}{
		{"blog path", "https://acme.com/blog/why-we-hire", KindCareer},
		{"news path", "https://acme.com/news/careers-fair", KindCareer},
		{"date shaped path", "https://acme.com/2024/01/15/hiring-update", KindCareer},
		{"long numeric id", "https://acme.com/jobs/123456789", KindJob},
		{"long hex id", "https://acme.com/careers/deadbeefcafe", KindCareer},
		{"pdf document", "https://acme.com/careers/brochure.pdf", KindCareer},
		{"path too deep", "https://acme.com/a/b/c/d/e/f/jobs", KindJob},
		{"login page", "https://acme.com/login", KindJob},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			breakdown := c.Classify(tt.url, tt.kind, nil)
			assert.False(t, breakdown.Accepted)
			assert.NotEmpty(t, breakdown.RejectionReason)
			// Early rejection short-circuits before any scoring.
			assert.Empty(t, breakdown.Factors)
			assert.Zero(t, breakdown.Total)
		})
	}
}

func TestClassifyUnparseableURLRejected(t *testing.T) {
	c := New(DefaultSettings())

	breakdown := c.Classify("not a url", KindCareer, nil)

	assert.False(t, breakdown.Accepted)
	assert.NotEmpty(t, breakdown.RejectionReason)
}

func TestClassifyThresholdBoundary(t *testing.T) {
	// /positions/qa scores exactly 7 as a job link: high-priority path +5
	// plus one role keyword +2.
	const url = "https://acme.io/positions/qa"

	atThreshold := New(Settings{
		CareerThreshold: 6, JobThreshold: 7,
		MaxCareerDepth: 4, MaxJobDepth: 5,
		StrictBonus: 2,
	})
	breakdown := atThreshold.Classify(url, KindJob, nil)
	require.Equal(t, 7, breakdown.Total)
	assert.True(t, breakdown.Accepted)

	aboveThreshold := New(Settings{
		CareerThreshold: 6, JobThreshold: 8,
		MaxCareerDepth: 4, MaxJobDepth: 5,
		StrictBonus: 2,
	})
	breakdown = aboveThreshold.Classify(url, KindJob, nil)
	require.Equal(t, 7, breakdown.Total)
	assert.False(t, breakdown.Accepted)
	assert.Equal(t, "score 7 below threshold 8", breakdown.RejectionReason)
}

func TestClassifyStrictRaisesThreshold(t *testing.T) {
	settings := Settings{
		CareerThreshold: 6, JobThreshold: 7,
		MaxCareerDepth: 4, MaxJobDepth: 5,
		StrictBonus: 2,
	}

	relaxed := New(settings)
	assert.True(t, relaxed.Classify("https://acme.io/positions/qa", KindJob, nil).Accepted)

	settings.Strict = true
	strict := New(settings)
	breakdown := strict.Classify("https://acme.io/positions/qa", KindJob, nil)
	assert.Equal(t, 9, breakdown.Threshold)
	assert.False(t, breakdown.Accepted)
}

func TestClassifyContentCorroboration(t *testing.T) {
	c := New(DefaultSettings())

	unrelated := &PageContent{
		Title:    "Our Story",
		BodyText: "we build software for logistics companies worldwide",
	}
	breakdown := c.Classify("https://acme.com/careers", KindCareer, unrelated)
	assert.False(t, breakdown.Accepted)
	assert.Contains(t, breakdown.RejectionReason, "corroboration")

	titled := &PageContent{Title: "Careers at Acme"}
	assert.True(t, c.Classify("https://acme.com/careers", KindCareer, titled).Accepted)

	bodied := &PageContent{
		Title:    "Acme",
		BodyText: "apply now and join our team of engineers, open position listings below",
	}
	assert.True(t, c.Classify("https://acme.com/careers", KindCareer, bodied).Accepted)
}

func TestClassifyAnchorSignals(t *testing.T) {
	c := New(DefaultSettings())

	// The URL alone scores 4, below the job threshold.
	withoutAnchor := c.Classify("https://acme.io/roles/qa-tester", KindJob, nil)
	require.False(t, withoutAnchor.Accepted)
	require.Equal(t, 4, withoutAnchor.Total)

	withAnchor := c.ClassifyAnchor("https://acme.io/roles/qa-tester", &Anchor{Text: "Apply now"}, nil)
	assert.True(t, withAnchor.Accepted)
	assert.Equal(t, 7, withAnchor.Total)

	withAttrs := c.ClassifyAnchor("https://acme.io/roles/qa-tester", &Anchor{
		Class: "job-card-link",
		ID:    "job-42-link",
	}, nil)
	assert.True(t, withAttrs.Accepted)
	assert.Equal(t, 8, withAttrs.Total)
}

func TestClassifyDepthLimitAfterScoring(t *testing.T) {
	c := New(DefaultSettings())

	// Scores well but sits five levels deep, over the career maximum of four.
	breakdown := c.Classify("https://acme.com/careers/emea/engineering/platform/backend", KindCareer, nil)
	assert.False(t, breakdown.Accepted)
	assert.Contains(t, breakdown.RejectionReason, "depth")
}
