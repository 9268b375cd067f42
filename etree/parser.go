// Package etree parses httpmon configuration documents with beevik/etree.
package etree

import (
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/httpmon"
)

// RootTag is the tag of the configuration document's root element.
const RootTag = "httpmonitor"

// Ensure Parser implements httpmon.ConfigParser.
var _ httpmon.ConfigParser = (*Parser)(nil)

// Parser reads XML configuration documents of the form
//
//	<httpmonitor>
//	  <minimumInterval>1000</minimumInterval>
//	  <destination>http://dav.example.com/data</destination>
//	  <resource source="http://example.com/a.bin" file="a.bin"/>
//	</httpmonitor>
//
// Unknown elements are ignored. The result is validated before it is
// returned.
type Parser struct{}

// NewParser creates a new Parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseConfig parses and validates a configuration document.
func (p *Parser) ParseConfig(data []byte) (*httpmon.Config, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, httpmon.Errorf(httpmon.EINVALID, "malformed configuration: %v", err)
	}
	root := doc.Root()
	if root == nil || root.Tag != RootTag {
		return nil, httpmon.Errorf(httpmon.EINVALID, "configuration root element must be <%s>", RootTag)
	}

	s, err := parseSettings(root)
	if err != nil {
		return nil, err
	}

	cfg := &httpmon.Config{Settings: s}
	for _, el := range root.SelectElements("resource") {
		rc, err := parseResource(el, s)
		if err != nil {
			return nil, err
		}
		cfg.Resources = append(cfg.Resources, rc)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseSettings(root *etree.Element) (httpmon.Settings, error) {
	s := httpmon.DefaultSettings()
	p := &fieldParser{}

	p.int64Elem(root, "minimumInterval", &s.MinimumInterval)
	p.int64Elem(root, "maximumInterval", &s.MaximumInterval)
	p.int64Elem(root, "deltaFraction", &s.DeltaFraction)
	p.intElem(root, "successCountToMin", &s.SuccessCountToMin)
	p.intElem(root, "failCountToMax", &s.FailCountToMax)
	p.int64Elem(root, "stagger", &s.StaggerDelay)
	p.int64Elem(root, "readTimeout", &s.ReadTimeout)
	p.intElem(root, "tcpPort", &s.TCPPort)
	p.intElem(root, "websocketPort", &s.WebSocketPort)
	p.boolElem(root, "debug", &s.Debug)

	if v, ok := text(root, "destination"); ok && v != "" {
		s.DestinationPrefix = strings.TrimRight(v, "/") + "/"
	}
	if v, ok := text(root, "mkcolQuery"); ok {
		s.MkcolQuery = v
	}

	if el := root.SelectElement("udp"); el != nil {
		s.UDPHost = strings.TrimSpace(el.SelectAttrValue("host", ""))
		p.attrInt(el, "port", &s.UDPPort)
	}
	if el := root.SelectElement("auth"); el != nil {
		s.Authorization = authorization(el)
	}
	if el := root.SelectElement("putAuth"); el != nil {
		s.PutAuthorization = authorization(el)
	}

	return s, p.err
}

func parseResource(el *etree.Element, s httpmon.Settings) (httpmon.ResourceConfig, error) {
	p := &fieldParser{}
	rc := httpmon.ResourceConfig{
		Source:        strings.TrimSpace(el.SelectAttrValue("source", "")),
		Authorization: authorization(el),
	}
	p.attrInt64(el, "minInterval", &rc.MinInterval)
	p.attrInt64(el, "maxInterval", &rc.MaxInterval)
	p.attrInt64(el, "initialSleep", &rc.InitialSleep)
	p.attrBool(el, "gate", &rc.Gate)
	p.attrBool(el, "config", &rc.Config)
	if p.err != nil {
		return rc, p.err
	}
	if rc.Source == "" {
		return rc, httpmon.Errorf(httpmon.EINVALID, "resource without source attribute")
	}

	// The configuration document is watched, never written anywhere.
	if rc.Config {
		return rc, nil
	}

	name := el.SelectAttrValue("file", "")
	if name == "" {
		name = baseName(rc.Source)
	}
	rc.Destination = httpmon.JoinDestination(s.DestinationPrefix, name)
	return rc, nil
}

// authorization returns the Authorization value described by the token,
// user and password attributes of el. A token wins over credentials.
func authorization(el *etree.Element) string {
	if token := el.SelectAttrValue("token", ""); token != "" {
		return token
	}
	user := el.SelectAttrValue("user", "")
	if user == "" {
		return ""
	}
	return httpmon.BasicAuth(user, el.SelectAttrValue("password", ""))
}

// baseName returns the last path segment of a source URL.
func baseName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return "index"
	}
	return path.Base(u.Path)
}

func text(root *etree.Element, tag string) (string, bool) {
	el := root.SelectElement(tag)
	if el == nil {
		return "", false
	}
	return strings.TrimSpace(el.Text()), true
}

// fieldParser keeps the first conversion error so parsing code can stay
// linear.
type fieldParser struct {
	err error
}

func (p *fieldParser) fail(name, value string, err error) {
	if p.err == nil {
		p.err = httpmon.Errorf(httpmon.EINVALID, "invalid %s %q: %v", name, value, err)
	}
}

func (p *fieldParser) int64Elem(root *etree.Element, tag string, dst *int64) {
	if v, ok := text(root, tag); ok {
		p.parseInt64(tag, v, dst)
	}
}

func (p *fieldParser) intElem(root *etree.Element, tag string, dst *int) {
	if v, ok := text(root, tag); ok {
		p.parseInt(tag, v, dst)
	}
}

func (p *fieldParser) boolElem(root *etree.Element, tag string, dst *bool) {
	if v, ok := text(root, tag); ok {
		p.parseBool(tag, v, dst)
	}
}

func (p *fieldParser) attrInt64(el *etree.Element, key string, dst *int64) {
	if v := strings.TrimSpace(el.SelectAttrValue(key, "")); v != "" {
		p.parseInt64(key, v, dst)
	}
}

func (p *fieldParser) attrInt(el *etree.Element, key string, dst *int) {
	if v := strings.TrimSpace(el.SelectAttrValue(key, "")); v != "" {
		p.parseInt(key, v, dst)
	}
}

func (p *fieldParser) attrBool(el *etree.Element, key string, dst *bool) {
	if v := strings.TrimSpace(el.SelectAttrValue(key, "")); v != "" {
		p.parseBool(key, v, dst)
	}
}

func (p *fieldParser) parseInt64(name, v string, dst *int64) {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		p.fail(name, v, err)
		return
	}
	*dst = n
}

func (p *fieldParser) parseInt(name, v string, dst *int) {
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(name, v, err)
		return
	}
	*dst = n
}

func (p *fieldParser) parseBool(name, v string, dst *bool) {
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(name, v, err)
		return
	}
	*dst = b
}
