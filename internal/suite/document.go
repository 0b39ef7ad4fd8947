// Package suite reads TestNG style suite documents and turns a selection of
// their tests into go test invocations.
package suite

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"
)

// MethodSeparator joins a class and one of its methods in Descriptor.Methods.
const MethodSeparator = "::"

// ErrNotSuite is returned when the document root is not a <suite> element.
var ErrNotSuite = errors.New("root element is not <suite>")

// Document is a parsed suite file.
type Document struct {
	Name string
	// Parallel and ThreadCount mirror the <suite> attributes of the same name.
	Parallel    string
	ThreadCount int

	Parameters     map[string]string
	ParameterOrder []string
	Tests          []Descriptor
}

// Descriptor is one <test> entry.
type Descriptor struct {
	Name           string
	Enabled        bool
	Groups         []string
	ExcludedGroups []string
	Classes        []string
	// Methods holds Class::method entries for every <methods><include>.
	Methods    []string
	Parameters map[string]string
}

// ClassMethods returns the method names listed for class.
func (d Descriptor) ClassMethods(class string) []string {
	var out []string
	prefix := class + MethodSeparator
	for _, m := range d.Methods {
		if strings.HasPrefix(m, prefix) {
			out = append(out, strings.TrimPrefix(m, prefix))
		}
	}
	return out
}

// Find returns the test named name.
func (d *Document) Find(name string) (Descriptor, bool) {
	for _, t := range d.Tests {
		if t.Name == name {
			return t, true
		}
	}
	return Descriptor{}, false
}

// Enabled returns the tests not switched off with enabled="false".
func (d *Document) Enabled() []Descriptor {
	var out []Descriptor
	for _, t := range d.Tests {
		if t.Enabled {
			out = append(out, t)
		}
	}
	return out
}

// Parse reads a suite document. Tests keep their document order.
func Parse(r io.Reader) (*Document, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("failed to parse suite XML: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("failed to parse suite XML: %w", ErrNotSuite)
	}
	if root.Tag != "suite" {
		return nil, fmt.Errorf("%w (found <%s>)", ErrNotSuite, root.Tag)
	}

	out := &Document{
		Name:       root.SelectAttrValue("name", ""),
		Parallel:   root.SelectAttrValue("parallel", ""),
		Parameters: map[string]string{},
	}
	if tc := root.SelectAttrValue("thread-count", ""); tc != "" {
		n, err := strconv.Atoi(strings.TrimSpace(tc))
		if err != nil {
			return nil, fmt.Errorf("invalid thread-count %q: %w", tc, err)
		}
		out.ThreadCount = n
	}

	for _, p := range root.SelectElements("parameter") {
		name := p.SelectAttrValue("name", "")
		if name == "" {
			continue
		}
		if _, seen := out.Parameters[name]; !seen {
			out.ParameterOrder = append(out.ParameterOrder, name)
		}
		out.Parameters[name] = p.SelectAttrValue("value", "")
	}

	for _, el := range root.SelectElements("test") {
		out.Tests = append(out.Tests, parseTest(el))
	}
	return out, nil
}

func parseTest(el *etree.Element) Descriptor {
	d := Descriptor{
		Name:       el.SelectAttrValue("name", ""),
		Enabled:    !strings.EqualFold(strings.TrimSpace(el.SelectAttrValue("enabled", "true")), "false"),
		Parameters: map[string]string{},
	}

	for _, p := range el.SelectElements("parameter") {
		if name := p.SelectAttrValue("name", ""); name != "" {
			d.Parameters[name] = p.SelectAttrValue("value", "")
		}
	}

	d.Groups = names(el.FindElements("groups/run/include"))
	d.ExcludedGroups = names(el.FindElements("groups/run/exclude"))

	for _, class := range el.FindElements("classes/class") {
		className := class.SelectAttrValue("name", "")
		if className == "" {
			continue
		}
		d.Classes = append(d.Classes, className)
		for _, m := range names(class.FindElements("methods/include")) {
			d.Methods = append(d.Methods, className+MethodSeparator+m)
		}
	}
	return d
}

func names(els []*etree.Element) []string {
	var out []string
	for _, e := range els {
		if n := strings.TrimSpace(e.SelectAttrValue("name", "")); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Load parses the suite file at path. A missing or malformed file is logged
// and yields an empty document; later lookups then report "not found".
func Load(path string, logger *zap.Logger) *Document {
	empty := &Document{Parameters: map[string]string{}}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Error("Suite file not found", zap.String("path", path))
		} else {
			logger.Error("Failed to open suite file", zap.String("path", path), zap.Error(err))
		}
		return empty
	}
	defer f.Close()

	doc, err := Parse(f)
	if err != nil {
		logger.Error("Error parsing suite file", zap.String("path", path), zap.Error(err))
		return empty
	}
	logger.Info("Parsed test suites", zap.String("path", path), zap.Int("count", len(doc.Tests)))
	return doc
}
