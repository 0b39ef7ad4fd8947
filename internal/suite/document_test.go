// internal/suite/document_test.go
package suite

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	fuzz "github.com/AdaLogics/go-fuzz-headers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const sampleSuite = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE suite SYSTEM "https://testng.org/testng-1.0.dtd">
<suite name="AutoLogin Suite" parallel="tests" thread-count="3">
  <parameter name="browser.name" value="firefox"/>
  <parameter name="application.base_url" value="https://staging.example.com"/>

  <test name="Smoke Tests">
    <groups>
      <run>
        <include name="smoke"/>
        <exclude name="slow"/>
      </run>
    </groups>
    <classes>
      <class name="TestLogin">
        <methods>
          <include name="test_successful_login"/>
          <include name="test_logout"/>
        </methods>
      </class>
      <class name="TestDashboard"/>
    </classes>
  </test>

  <test name="Regression Tests" enabled="FALSE">
    <parameter name="browser.headless" value="true"/>
    <groups>
      <run>
        <include name="regression"/>
      </run>
    </groups>
  </test>
</suite>`

func TestParse(t *testing.T) {
	doc, err := Parse(strings.NewReader(sampleSuite))
	require.NoError(t, err)

	assert.Equal(t, "AutoLogin Suite", doc.Name)
	assert.Equal(t, "tests", doc.Parallel)
	assert.Equal(t, 3, doc.ThreadCount)
	assert.Equal(t, []string{"browser.name", "application.base_url"}, doc.ParameterOrder)
	assert.Equal(t, "firefox", doc.Parameters["browser.name"])

	require.Len(t, doc.Tests, 2)

	smoke := doc.Tests[0]
	assert.Equal(t, "Smoke Tests", smoke.Name)
	assert.True(t, smoke.Enabled)
	assert.Equal(t, []string{"smoke"}, smoke.Groups)
	assert.Equal(t, []string{"slow"}, smoke.ExcludedGroups)
	assert.Equal(t, []string{"TestLogin", "TestDashboard"}, smoke.Classes)
	assert.Equal(t, []string{"TestLogin::test_successful_login", "TestLogin::test_logout"}, smoke.Methods)
	assert.Equal(t, []string{"test_successful_login", "test_logout"}, smoke.ClassMethods("TestLogin"))
	assert.Empty(t, smoke.ClassMethods("TestDashboard"))
	assert.Empty(t, smoke.Parameters)

	regression := doc.Tests[1]
	assert.Equal(t, "Regression Tests", regression.Name)
	assert.False(t, regression.Enabled, "enabled is compared case-insensitively")
	assert.Equal(t, []string{"regression"}, regression.Groups)
	assert.Empty(t, regression.Classes)
	assert.Equal(t, map[string]string{"browser.headless": "true"}, regression.Parameters)

	enabled := doc.Enabled()
	require.Len(t, enabled, 1)
	assert.Equal(t, "Smoke Tests", enabled[0].Name)

	found, ok := doc.Find("Regression Tests")
	assert.True(t, ok)
	assert.Equal(t, regression.Name, found.Name)
	_, ok = doc.Find("Nightly")
	assert.False(t, ok)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{name: "Malformed", input: `<suite name="x"><test name="a">`},
		{name: "WrongRoot", input: `<tests><test name="a"/></tests>`, want: ErrNotSuite},
		{name: "Empty", input: ``, want: ErrNotSuite},
		{name: "BadThreadCount", input: `<suite name="x" thread-count="many"/>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Nil(t, doc)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestParse_SkipsNamelessEntries(t *testing.T) {
	doc, err := Parse(strings.NewReader(`<suite name="s">
  <parameter value="orphan"/>
  <test name="t">
    <groups><run><include name=" "/><include name="ui"/></run></groups>
    <classes><class/><class name="TestUI"/></classes>
  </test>
</suite>`))
	require.NoError(t, err)

	assert.Empty(t, doc.Parameters)
	require.Len(t, doc.Tests, 1)
	assert.Equal(t, []string{"ui"}, doc.Tests[0].Groups)
	assert.Equal(t, []string{"TestUI"}, doc.Tests[0].Classes)
}

func TestLoad(t *testing.T) {
	t.Run("ValidFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "testng.xml")
		require.NoError(t, os.WriteFile(path, []byte(sampleSuite), 0o644))

		core, logs := observer.New(zapcore.InfoLevel)
		doc := Load(path, zap.New(core))

		assert.Len(t, doc.Tests, 2)
		assert.Equal(t, 1, logs.FilterMessage("Parsed test suites").Len())
	})

	t.Run("MissingFile", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		doc := Load(filepath.Join(t.TempDir(), "nope.xml"), zap.New(core))

		require.NotNil(t, doc)
		assert.Empty(t, doc.Tests)
		assert.NotNil(t, doc.Parameters)
		assert.Equal(t, 1, logs.FilterMessage("Suite file not found").Len())
	})

	t.Run("MalformedFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.xml")
		require.NoError(t, os.WriteFile(path, []byte("<suite><test>"), 0o644))

		core, logs := observer.New(zapcore.InfoLevel)
		doc := Load(path, zap.New(core))

		assert.Empty(t, doc.Tests)
		assert.Equal(t, 1, logs.FilterMessage("Error parsing suite file").Len())
	})
}

// FuzzParse builds loosely structured suite documents from fuzz input and
// checks that parsing never panics and keeps its invariants.
func FuzzParse(f *testing.F) {
	f.Add([]byte(sampleSuite))
	f.Add([]byte("<suite/>"))
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		// Raw input straight through the parser.
		_, _ = Parse(strings.NewReader(string(data)))

		c := fuzz.NewConsumer(data)
		suiteName, err := c.GetString()
		if err != nil {
			return
		}
		testName, err := c.GetString()
		if err != nil {
			return
		}
		group, err := c.GetString()
		if err != nil {
			return
		}
		enabled, err := c.GetBool()
		if err != nil {
			return
		}

		var b strings.Builder
		b.WriteString(`<suite name="` + xmlEscape(suiteName) + `">`)
		b.WriteString(`<test name="` + xmlEscape(testName) + `"`)
		if !enabled {
			b.WriteString(` enabled="false"`)
		}
		b.WriteString(`><groups><run><include name="` + xmlEscape(group) + `"/></run></groups></test></suite>`)

		doc, err := Parse(strings.NewReader(b.String()))
		if err != nil {
			// Control characters are not valid XML; anything else must parse.
			return
		}
		if len(doc.Tests) != 1 {
			t.Fatalf("expected one test, got %d", len(doc.Tests))
		}
		if doc.Tests[0].Enabled != enabled {
			t.Fatalf("enabled mismatch: got %v want %v", doc.Tests[0].Enabled, enabled)
		}
		for _, g := range doc.Tests[0].Groups {
			if strings.TrimSpace(g) == "" {
				t.Fatalf("blank group kept")
			}
		}
	})
}

var xmlAttrEscaper = strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", `>`, "&gt;", `"`, "&quot;")

func xmlEscape(s string) string { return xmlAttrEscaper.Replace(s) }
