// Package locator describes how page objects find elements, independent of the
// driver library that eventually runs the query.
package locator

import (
	"fmt"
	"reflect"
	"strings"
)

// Strategy names the lookup mechanism. The string values match the WebDriver
// names so suite files and logs read the same as they always have.
type Strategy string

const (
	ID              Strategy = "id"
	Name            Strategy = "name"
	XPath           Strategy = "xpath"
	CSS             Strategy = "css selector"
	ClassName       Strategy = "class name"
	TagName         Strategy = "tag name"
	LinkText        Strategy = "link text"
	PartialLinkText Strategy = "partial link text"
)

// Locator is a (strategy, value) pair.
type Locator struct {
	By    Strategy
	Value string
}

func ByID(v string) Locator              { return Locator{By: ID, Value: v} }
func ByName(v string) Locator            { return Locator{By: Name, Value: v} }
func ByXPath(v string) Locator           { return Locator{By: XPath, Value: v} }
func ByCSS(v string) Locator             { return Locator{By: CSS, Value: v} }
func ByClassName(v string) Locator       { return Locator{By: ClassName, Value: v} }
func ByTagName(v string) Locator         { return Locator{By: TagName, Value: v} }
func ByLinkText(v string) Locator        { return Locator{By: LinkText, Value: v} }
func ByPartialLinkText(v string) Locator { return Locator{By: PartialLinkText, Value: v} }

func (l Locator) String() string {
	return fmt.Sprintf("%s=%s", l.By, l.Value)
}

// IsXPath reports whether Selector yields an XPath expression rather than a
// CSS selector.
func (l Locator) IsXPath() bool {
	switch l.By {
	case XPath, LinkText, PartialLinkText:
		return true
	default:
		return false
	}
}

// Selector translates the locator into either a CSS selector or an XPath
// expression; IsXPath says which. Unknown strategies are treated as CSS.
func (l Locator) Selector() string {
	switch l.By {
	case ID:
		return fmt.Sprintf("[id=%s]", cssString(l.Value))
	case Name:
		return fmt.Sprintf("[name=%s]", cssString(l.Value))
	case ClassName:
		return "." + cssIdent(l.Value)
	case TagName, CSS:
		return l.Value
	case XPath:
		return l.Value
	case LinkText:
		return fmt.Sprintf("//a[normalize-space(.)=%s]", xpathLiteral(l.Value))
	case PartialLinkText:
		return fmt.Sprintf("//a[contains(normalize-space(.), %s)]", xpathLiteral(l.Value))
	default:
		return l.Value
	}
}

// Playwright returns the selector with the engine prefix playwright expects.
func (l Locator) Playwright() string {
	if l.IsXPath() {
		return "xpath=" + l.Selector()
	}
	return "css=" + l.Selector()
}

// cssString quotes s as a CSS string.
func cssString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

// cssIdent escapes the characters that would end a class name.
func cssIdent(s string) string {
	var b strings.Builder
	for i, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_', c == '-', c >= 0x80:
			b.WriteRune(c)
		case c >= '0' && c <= '9':
			if i == 0 {
				fmt.Fprintf(&b, `\3%c `, c)
			} else {
				b.WriteRune(c)
			}
		default:
			b.WriteRune('\\')
			b.WriteRune(c)
		}
	}
	return b.String()
}

// xpathLiteral quotes s for XPath 1.0, which has no escape sequences.
func xpathLiteral(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, `'`) {
		return `'` + s + `'`
	}
	parts := strings.Split(s, `"`)
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `'"'`)
		}
		if p != "" {
			quoted = append(quoted, `"`+p+`"`)
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

// Named is a locator paired with the field name it was declared under.
type Named struct {
	Name string
	Locator
}

// Collect lists every Locator field of a locator table struct (or pointer to
// one) in declaration order.
func Collect(table any) []Named {
	v := reflect.ValueOf(table)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	locType := reflect.TypeOf(Locator{})
	var out []Named
	for i := 0; i < v.NumField(); i++ {
		f := v.Type().Field(i)
		if !f.IsExported() || f.Type != locType {
			continue
		}
		out = append(out, Named{Name: f.Name, Locator: v.Field(i).Interface().(Locator)})
	}
	return out
}
