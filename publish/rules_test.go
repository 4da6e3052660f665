package publish

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRules_Resolve(t *testing.T) {
	rules := Rules{
		Default: "max-age=60",
		Rules: []Rule{
			{Pattern: "*.html", CacheControl: "no-cache"},
			{Pattern: "index.html", CacheControl: "no-store"},
			{Pattern: "blog/*.html", CacheControl: "max-age=300"},
			{Pattern: "*.htm?", CacheControl: "max-age=5"},
			{Pattern: "assets/*", CacheControl: "max-age=31536000"},
		},
	}

	tests := []struct {
		path string
		want string
	}{
		{"about.html", "no-cache"},
		{"docs/about.html", "no-cache"},
		{"index.html", "no-store"},
		{"blog/index.html", "max-age=300"},
		{"blog/post.html", "max-age=300"},
		{"page.htmx", "max-age=5"},
		{"assets/app.js", "max-age=31536000"},
		{"assets/img/logo.png", "max-age=60"},
		{"robots.txt", "max-age=60"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, rules.Resolve(tt.path))
		})
	}
}

func TestRules_TiesKeepDeclarationOrder(t *testing.T) {
	rules := Rules{
		Default: "default",
		Rules: []Rule{
			{Pattern: "*.js", CacheControl: "first"},
			{Pattern: "*.js", CacheControl: "second"},
			{Pattern: "a?.js", CacheControl: "third"},
		},
	}

	assert.Equal(t, "first", rules.Resolve("app.js"))
	// "a?.js" has one more literal than "*.js".
	assert.Equal(t, "third", rules.Resolve("ab.js"))
}

func TestRules_NoRulesUsesDefault(t *testing.T) {
	assert.Equal(t, "max-age=60", Rules{Default: "max-age=60"}.Resolve("any/file"))
	assert.Equal(t, "", Rules{}.Resolve("any/file"))
}

func TestRules_MalformedPatternNeverMatches(t *testing.T) {
	rules := Rules{Default: "d", Rules: []Rule{{Pattern: "[", CacheControl: "broken"}}}

	assert.Equal(t, "d", rules.Resolve("["))
}
