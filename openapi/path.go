package openapi

import (
	"regexp"
	"strings"
)

var (
	ruleParam     = regexp.MustCompile(`<(?:([^<>:]+):)?([^<>:]+)>`)
	patternRegexp = regexp.MustCompile(`\{([^{}:]+):[^{}]*\}`)
	nonWord       = regexp.MustCompile(`\W`)
	nonName       = regexp.MustCompile(`[^\w.\-]`)
)

// ParseRule joins URL prefix with route rule and converts it to documented path.
//
// Trailing slash is kept only if rule has it, converters are removed from parameters,
// e.g. "/pets/<int:id>" and "/pets/{id:[0-9]+}" both become "/pets/{id}".
func ParseRule(rule, urlPrefix string) string {
	uri := joinRule(rule, urlPrefix)
	uri = ruleParam.ReplaceAllString(uri, "{$2}")

	return PathFromPattern(uri)
}

// RoutePattern joins URL prefix with route rule and converts it to router pattern.
//
// Known converters of rule parameters become regular expressions, e.g. "/pets/<int:id>"
// becomes "/pets/{id:[0-9]+}".
func RoutePattern(rule, urlPrefix string) string {
	uri := joinRule(rule, urlPrefix)

	return ruleParam.ReplaceAllStringFunc(uri, func(s string) string {
		m := ruleParam.FindStringSubmatch(s)

		switch m[1] {
		case "int":
			return "{" + m[2] + ":[0-9]+}"
		case "float":
			return "{" + m[2] + ":[0-9]+\\.[0-9]+}"
		case "uuid":
			return "{" + m[2] + ":[0-9a-fA-F-]+}"
		default:
			return "{" + m[2] + "}"
		}
	})
}

// PathFromPattern removes regular expressions from router pattern parameters.
func PathFromPattern(pattern string) string {
	return patternRegexp.ReplaceAllString(pattern, "{$1}")
}

func joinRule(rule, urlPrefix string) string {
	trailSlash := strings.HasSuffix(rule, "/")

	uri := rule
	if urlPrefix != "" {
		uri = strings.TrimRight(urlPrefix, "/") + "/" + strings.TrimLeft(rule, "/")
	}

	if !trailSlash {
		uri = strings.TrimRight(uri, "/")
	}

	return uri
}

// OperationIDForPath builds operation id from handler name, path and method.
//
// Non-word characters of name and path are replaced with underscores,
// e.g. ("getPet", "/pets/{id}", "GET") becomes "getPet_pets__id__get".
// Unnamed handler of "/pets" GET gets "_pets_get".
func OperationIDForPath(name, path, method string) string {
	return nonWord.ReplaceAllString(name+path, "_") + "_" + strings.ToLower(method)
}

// NormalizeName makes a component name that satisfies ^[a-zA-Z0-9\.\-_]+$.
func NormalizeName(name string) string {
	return nonName.ReplaceAllString(name, "_")
}

// operationText resolves summary and description of an operation.
//
// First line of doc is a default summary and the rest lines joined with "</br>" are default description.
// If summary is set explicitly, all lines of doc are used as default description.
func operationText(doc, summary, description string) (string, string) {
	doc = strings.TrimSpace(doc)

	var lines []string

	if doc != "" {
		for _, l := range strings.Split(doc, "\n") {
			lines = append(lines, strings.TrimSpace(l))
		}
	}

	var docSummary, docDescription string

	if len(lines) > 0 {
		docSummary = lines[0]

		if summary == "" {
			docDescription = strings.Join(lines[1:], "</br>")
		} else {
			docDescription = strings.Join(lines, "</br>")
		}
	}

	if summary == "" {
		summary = docSummary
	}

	if description == "" {
		description = docDescription
	}

	return summary, description
}
