package render

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const wmlNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
const relNamespace = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
const xmlURL = "http://www.w3.org/XML/1998/namespace"

type xmlNode struct {
	Name     xml.Name
	Attr     []xml.Attr
	Children []*xmlNode
	Text     string
	IsText   bool
}

var xmlHeaderPattern = regexp.MustCompile(`(?s)^\s*(<\?xml[^>]+\?>)`)

func parseXMLDocument(xmlText string) (*xmlNode, string, error) {
	header := ""
	if match := xmlHeaderPattern.FindStringSubmatch(xmlText); len(match) > 0 {
		header = match[1]
		xmlText = strings.TrimSpace(xmlText[len(match[0]):])
	}

	decoder := xml.NewDecoder(strings.NewReader(xmlText))
	var stack []*xmlNode
	var root *xmlNode

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, "", err
		}

		switch t := token.(type) {
		case xml.StartElement:
			node := &xmlNode{Name: t.Name, Attr: t.Attr}
			if len(stack) == 0 {
				root = node
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, node)
			}
			stack = append(stack, node)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) == 0 || len(t) == 0 {
				continue
			}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, &xmlNode{IsText: true, Text: string(t)})
		}
	}

	if root == nil {
		return nil, "", errors.New("document.xml has no root element")
	}
	return root, header, nil
}

// encodeXMLDocument writes root's children between the original root tags so
// the root element keeps its exact namespace declarations.
func encodeXMLDocument(header string, root *xmlNode, rootStart, rootEnd string) ([]byte, error) {
	var buf bytes.Buffer
	if header != "" {
		buf.WriteString(header)
		if !strings.HasSuffix(header, "\n") {
			buf.WriteByte('\n')
		}
	}

	clone := cloneNode(root)
	normalizeXMLNSAttrs(clone)
	applyPrefixMap(clone, prefixMapFromRoot(root))

	required := requiredNamespaceMap(prefixesUsed(clone), root)
	buf.WriteString(ensureRootHasNamespaces(rootStart, required))

	encoder := xml.NewEncoder(&buf)
	for _, child := range clone.Children {
		if err := encodeXMLNode(encoder, child); err != nil {
			return nil, err
		}
	}
	if err := encoder.Flush(); err != nil {
		return nil, err
	}

	buf.WriteString(rootEnd)
	return buf.Bytes(), nil
}

func encodeXMLNode(encoder *xml.Encoder, node *xmlNode) error {
	if node.IsText {
		return encoder.EncodeToken(xml.CharData([]byte(node.Text)))
	}
	start := xml.StartElement{Name: node.Name, Attr: node.Attr}
	if err := encoder.EncodeToken(start); err != nil {
		return err
	}
	for _, child := range node.Children {
		if err := encodeXMLNode(encoder, child); err != nil {
			return err
		}
	}
	return encoder.EncodeToken(start.End())
}

func findBodyNode(root *xmlNode) *xmlNode {
	var match *xmlNode
	walkXML(root, func(node *xmlNode) bool {
		if isElement(node, "body") {
			match = node
			return false
		}
		return true
	})
	return match
}

func walkXML(node *xmlNode, visit func(*xmlNode) bool) bool {
	if node == nil {
		return true
	}
	if !visit(node) {
		return false
	}
	for _, child := range node.Children {
		if !walkXML(child, visit) {
			return false
		}
	}
	return true
}

// inspectXML visits node and its descendants depth-first. Returning false
// from visit skips that node's children but continues with its siblings.
func inspectXML(node *xmlNode, visit func(*xmlNode) bool) {
	if node == nil || !visit(node) {
		return
	}
	for _, child := range node.Children {
		inspectXML(child, visit)
	}
}

func isElement(node *xmlNode, local string) bool {
	if node == nil || node.IsText {
		return false
	}
	if node.Name.Local != local {
		return false
	}
	return node.Name.Space == "" || node.Name.Space == wmlNamespace
}

func cloneNode(node *xmlNode) *xmlNode {
	if node == nil {
		return nil
	}
	cloned := &xmlNode{
		Name:   node.Name,
		Attr:   append([]xml.Attr(nil), node.Attr...),
		Text:   node.Text,
		IsText: node.IsText,
	}
	if len(node.Children) > 0 {
		cloned.Children = make([]*xmlNode, 0, len(node.Children))
		for _, child := range node.Children {
			cloned.Children = append(cloned.Children, cloneNode(child))
		}
	}
	return cloned
}

// newElement builds a WordprocessingML element. attrs alternate local name and value.
func newElement(local string, attrs ...string) *xmlNode {
	node := &xmlNode{Name: xml.Name{Space: wmlNamespace, Local: local}}
	for i := 0; i+1 < len(attrs); i += 2 {
		node.Attr = append(node.Attr, xml.Attr{Name: xml.Name{Space: wmlNamespace, Local: attrs[i]}, Value: attrs[i+1]})
	}
	return node
}

func newTextElement(text string) *xmlNode {
	t := newElement("t")
	if strings.TrimSpace(text) != text {
		t.Attr = append(t.Attr, xml.Attr{Name: xml.Name{Space: xmlURL, Local: "space"}, Value: "preserve"})
	}
	if text != "" {
		t.Children = []*xmlNode{{IsText: true, Text: text}}
	}
	return t
}

func childElement(node *xmlNode, local string) *xmlNode {
	if node == nil {
		return nil
	}
	for _, child := range node.Children {
		if isElement(child, local) {
			return child
		}
	}
	return nil
}

func childElements(node *xmlNode, local string) []*xmlNode {
	if node == nil {
		return nil
	}
	var out []*xmlNode
	for _, child := range node.Children {
		if isElement(child, local) {
			out = append(out, child)
		}
	}
	return out
}

func removeChildElements(node *xmlNode, local string) {
	if node == nil {
		return
	}
	kept := node.Children[:0]
	for _, child := range node.Children {
		if !isElement(child, local) {
			kept = append(kept, child)
		}
	}
	node.Children = kept
}

// attrValue returns the value of a w:-namespaced (or unqualified) attribute.
func attrValue(node *xmlNode, local string) (string, bool) {
	if node == nil {
		return "", false
	}
	for _, attr := range node.Attr {
		if attr.Name.Local == local && (attr.Name.Space == "" || attr.Name.Space == wmlNamespace) {
			return attr.Value, true
		}
	}
	return "", false
}

func setAttrValue(node *xmlNode, local, value string) {
	for i, attr := range node.Attr {
		if attr.Name.Local == local && (attr.Name.Space == "" || attr.Name.Space == wmlNamespace) {
			node.Attr[i].Value = value
			return
		}
	}
	node.Attr = append(node.Attr, xml.Attr{Name: xml.Name{Space: wmlNamespace, Local: local}, Value: value})
}

func removeAttr(node *xmlNode, local string) {
	kept := node.Attr[:0]
	for _, attr := range node.Attr {
		if attr.Name.Local == local && (attr.Name.Space == "" || attr.Name.Space == wmlNamespace) {
			continue
		}
		kept = append(kept, attr)
	}
	node.Attr = kept
}

func intAttr(node *xmlNode, local string) (int, bool, error) {
	raw, ok := attrValue(node, local)
	if !ok || raw == "" {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, true, err
	}
	return value, true, nil
}

// nodeText concatenates the character data directly under node.
func nodeText(node *xmlNode) string {
	if node.IsText {
		return node.Text
	}
	var builder strings.Builder
	for _, child := range node.Children {
		if child.IsText {
			builder.WriteString(child.Text)
		}
	}
	return builder.String()
}

// paragraphText returns the visible text of a paragraph, with run-level w:tab
// as "\t". Property elements are pruned, so tab stop definitions never count.
func paragraphText(p *xmlNode) string {
	var builder strings.Builder
	inspectXML(p, func(n *xmlNode) bool {
		switch {
		case isElement(n, "pPr"), isElement(n, "rPr"), isElement(n, "del"):
			return false
		case isElement(n, "t"):
			builder.WriteString(nodeText(n))
		case isElement(n, "tab"):
			builder.WriteByte('\t')
		}
		return true
	})
	return builder.String()
}

func prefixMapFromRoot(root *xmlNode) map[string]string {
	out := make(map[string]string)
	for _, attr := range root.Attr {
		switch {
		case attr.Name.Space == "xmlns":
			out[attr.Value] = attr.Name.Local
		case attr.Name.Space == "" && attr.Name.Local == "xmlns":
			out[attr.Value] = ""
		case attr.Name.Space == "" && strings.HasPrefix(attr.Name.Local, "xmlns:"):
			out[attr.Value] = strings.TrimPrefix(attr.Name.Local, "xmlns:")
		}
	}
	return out
}

func namespaceDeclsFromRoot(root *xmlNode) map[string]string {
	out := make(map[string]string)
	for _, attr := range root.Attr {
		switch {
		case attr.Name.Space == "xmlns":
			out[attr.Name.Local] = attr.Value
		case attr.Name.Space == "" && attr.Name.Local == "xmlns":
			out[""] = attr.Value
		case attr.Name.Space == "" && strings.HasPrefix(attr.Name.Local, "xmlns:"):
			out[strings.TrimPrefix(attr.Name.Local, "xmlns:")] = attr.Value
		}
	}
	return out
}

func prefixesUsed(node *xmlNode) map[string]struct{} {
	out := make(map[string]struct{})
	walkXML(node, func(n *xmlNode) bool {
		if n.IsText {
			return true
		}
		if prefix := prefixFromName(n.Name.Local); prefix != "" {
			out[prefix] = struct{}{}
		}
		for _, attr := range n.Attr {
			if prefix := prefixFromName(attr.Name.Local); prefix != "" {
				out[prefix] = struct{}{}
			}
		}
		return true
	})
	return out
}

func prefixFromName(name string) string {
	if name == "xmlns" || strings.HasPrefix(name, "xmlns:") {
		return ""
	}
	if idx := strings.IndexByte(name, ':'); idx > 0 {
		return name[:idx]
	}
	return ""
}

func requiredNamespaceMap(prefixes map[string]struct{}, root *xmlNode) map[string]string {
	declared := namespaceDeclsFromRoot(root)
	required := make(map[string]string)
	for prefix := range prefixes {
		if uri, ok := declared[prefix]; ok {
			required[prefix] = uri
			continue
		}
		if uri, ok := knownNamespaceURIs[prefix]; ok {
			required[prefix] = uri
		}
	}
	if _, ok := required["w"]; !ok {
		required["w"] = wmlNamespace
	}
	return required
}

var knownNamespaceURIs = map[string]string{
	"w":   wmlNamespace,
	"r":   relNamespace,
	"a":   "http://schemas.openxmlformats.org/drawingml/2006/main",
	"wp":  "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing",
	"pic": "http://schemas.openxmlformats.org/drawingml/2006/picture",
	"mc":  "http://schemas.openxmlformats.org/markup-compatibility/2006",
	"w14": "http://schemas.microsoft.com/office/word/2010/wordml",
	"w15": "http://schemas.microsoft.com/office/word/2012/wordml",
}

func ensureRootHasNamespaces(rootStart string, required map[string]string) string {
	existing := namespacesFromRootStart(rootStart)
	missing := make([]string, 0, len(required))
	for prefix, uri := range required {
		if current, ok := existing[prefix]; ok && current == uri {
			continue
		}
		if uri != "" {
			missing = append(missing, prefix)
		}
	}
	if len(missing) == 0 {
		return rootStart
	}
	sort.Strings(missing)
	var builder strings.Builder
	for _, prefix := range missing {
		if prefix == "" {
			builder.WriteString(` xmlns="` + required[prefix] + `"`)
			continue
		}
		builder.WriteString(` xmlns:` + prefix + `="` + required[prefix] + `"`)
	}
	insert := builder.String()
	if idx := strings.LastIndex(rootStart, "/>"); idx != -1 && idx == len(rootStart)-2 {
		return rootStart[:idx] + insert + rootStart[idx:]
	}
	if idx := strings.LastIndex(rootStart, ">"); idx != -1 {
		return rootStart[:idx] + insert + rootStart[idx:]
	}
	return rootStart
}

var xmlnsAttrPattern = regexp.MustCompile(`\s+xmlns(?::([A-Za-z0-9._-]+))?="([^"]+)"`)

func namespacesFromRootStart(rootStart string) map[string]string {
	out := make(map[string]string)
	for _, match := range xmlnsAttrPattern.FindAllStringSubmatch(rootStart, -1) {
		out[match[1]] = match[2]
	}
	return out
}

func extractRootTags(xmlText string) (string, string, error) {
	startIdx, endIdx, name, err := findRootStartTag(xmlText)
	if err != nil {
		return "", "", err
	}
	rootStart := xmlText[startIdx : endIdx+1]
	endTag := "</" + name + ">"
	endPos := strings.LastIndex(xmlText, endTag)
	if endPos == -1 {
		return "", "", errors.New("root end tag not found")
	}
	return rootStart, endTag, nil
}

func findRootStartTag(xmlText string) (int, int, string, error) {
	i := 0
	for i < len(xmlText) {
		idx := strings.IndexByte(xmlText[i:], '<')
		if idx == -1 {
			return 0, 0, "", errors.New("root start tag not found")
		}
		i += idx
		var terminator string
		switch {
		case strings.HasPrefix(xmlText[i:], "<?"):
			terminator = "?>"
		case strings.HasPrefix(xmlText[i:], "<!--"):
			terminator = "-->"
		case strings.HasPrefix(xmlText[i:], "<!"):
			terminator = ">"
		}
		if terminator == "" {
			break
		}
		end := strings.Index(xmlText[i:], terminator)
		if end == -1 {
			return 0, 0, "", errors.New("xml prolog not terminated")
		}
		i += end + len(terminator)
	}
	start := i
	inQuote := byte(0)
	for i = start + 1; i < len(xmlText); i++ {
		c := xmlText[i]
		if inQuote != 0 {
			if c == inQuote {
				inQuote = 0
			}
			continue
		}
		if c == '"' || c == '\'' {
			inQuote = c
			continue
		}
		if c == '>' {
			name := rootTagName(xmlText[start+1 : i])
			if name == "" {
				return 0, 0, "", errors.New("root tag name missing")
			}
			return start, i, name, nil
		}
	}
	return 0, 0, "", errors.New("root start tag not terminated")
}

func rootTagName(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw[0] == '/' {
		return ""
	}
	if idx := strings.IndexAny(raw, " \t\r\n/"); idx != -1 {
		return raw[:idx]
	}
	return raw
}

func applyPrefixMap(node *xmlNode, prefixes map[string]string) {
	if node == nil || len(prefixes) == 0 {
		return
	}
	if !node.IsText {
		if prefix, ok := prefixes[node.Name.Space]; ok && prefix != "" {
			node.Name.Local = prefix + ":" + node.Name.Local
			node.Name.Space = ""
		}
		for i, attr := range node.Attr {
			if attr.Name.Space == "xmlns" || (attr.Name.Space == "" && attr.Name.Local == "xmlns") || (attr.Name.Space == "" && strings.HasPrefix(attr.Name.Local, "xmlns:")) {
				continue
			}
			if prefix, ok := prefixes[attr.Name.Space]; ok && prefix != "" {
				attr.Name.Local = prefix + ":" + attr.Name.Local
				attr.Name.Space = ""
				node.Attr[i] = attr
			}
		}
	}
	for _, child := range node.Children {
		applyPrefixMap(child, prefixes)
	}
}

func normalizeXMLNSAttrs(node *xmlNode) {
	if node == nil {
		return
	}
	if !node.IsText {
		for i, attr := range node.Attr {
			if attr.Name.Space != "xmlns" {
				continue
			}
			attr.Name.Space = ""
			if attr.Name.Local == "" {
				attr.Name.Local = "xmlns"
			} else {
				attr.Name.Local = "xmlns:" + attr.Name.Local
			}
			node.Attr[i] = attr
		}
	}
	for _, child := range node.Children {
		normalizeXMLNSAttrs(child)
	}
}
