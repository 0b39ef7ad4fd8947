package locator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelector(t *testing.T) {
	tests := []struct {
		name    string
		loc     Locator
		want    string
		isXPath bool
	}{
		{"id", ByID("username"), `[id="username"]`, false},
		{"name", ByName("q"), `[name="q"]`, false},
		{"class", ByClassName("error-message"), ".error-message", false},
		{"class with digit first", ByClassName("1col"), `.\31 col`, false},
		{"tag", ByTagName("h1"), "h1", false},
		{"css", ByCSS("form > input[type=submit]"), "form > input[type=submit]", false},
		{"xpath", ByXPath("//button[contains(text(), 'Login')]"), "//button[contains(text(), 'Login')]", true},
		{"link text", ByLinkText("Forgot Password?"), `//a[normalize-space(.)="Forgot Password?"]`, true},
		{"partial link text", ByPartialLinkText("Sign"), `//a[contains(normalize-space(.), "Sign")]`, true},
		{"id with quote", ByID(`a"b`), `[id="a\"b"]`, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.loc.Selector())
			assert.Equal(t, tc.isXPath, tc.loc.IsXPath())
		})
	}
}

func TestPlaywright(t *testing.T) {
	assert.Equal(t, `css=[id="password"]`, ByID("password").Playwright())
	assert.Equal(t, `xpath=//h1`, ByXPath("//h1").Playwright())
	assert.Equal(t, `xpath=//a[normalize-space(.)="Sign Up"]`, ByLinkText("Sign Up").Playwright())
}

func TestXPathLiteral(t *testing.T) {
	assert.Equal(t, `"plain"`, xpathLiteral("plain"))
	assert.Equal(t, `'say "hi"'`, xpathLiteral(`say "hi"`))
	assert.Equal(t, `concat("it's ", '"', "x", '"')`, xpathLiteral(`it's "x"`))
}

func TestString(t *testing.T) {
	assert.Equal(t, "id=username", ByID("username").String())
	assert.Equal(t, "link text=Sign Up", ByLinkText("Sign Up").String())
}

type sampleTable struct {
	Username Locator
	Password Locator
	note     Locator
	Count    int
}

func TestCollect(t *testing.T) {
	table := sampleTable{
		Username: ByID("username"),
		Password: ByID("password"),
		note:     ByID("hidden"),
	}

	got := Collect(table)
	assert.Equal(t, []Named{
		{Name: "Username", Locator: ByID("username")},
		{Name: "Password", Locator: ByID("password")},
	}, got)
	assert.Equal(t, got, Collect(&table))

	assert.Nil(t, Collect(nil))
	assert.Nil(t, Collect((*sampleTable)(nil)))
	assert.Nil(t, Collect("not a table"))
}
