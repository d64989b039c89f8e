// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package filters holds the flat filter-form state of the article search
// and turns it into the nested request body the search endpoint expects.
package filters

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/article-catalog/pkg/types"
)

// Kind is the value type of a filter field.
type Kind int

const (
	// Text fields hold free text; empty means unset.
	Text Kind = iota
	// Number fields hold text typed by the user and are parsed at build time.
	Number
	// Flag fields are booleans; false means unset.
	Flag
	// List fields hold string lists; empty means unset.
	List
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Number:
		return "number"
	case Flag:
		return "flag"
	case List:
		return "list"
	default:
		return "unknown"
	}
}

// Field names, in form order.
const (
	AuthorName       = "authorName"
	AuthorOrg        = "authorOrg"
	AuthorDepartment = "authorDepartment"
	AuthorSpin       = "authorSpin"

	Year            = "year"
	Source          = "source"
	UniversityName  = "universityName"
	PublicationType = "publicationType"
	Language        = "language"
	EDN             = "edn"

	HasFull = "hasFull"

	AbstractRuText = "abstractRuText"
	AbstractEnText = "abstractEnText"
	HasAbstractRu  = "hasAbstractRu"
	HasAbstractEn  = "hasAbstractEn"
	KeywordsText   = "keywordsText"

	IsRinc       = "isRinc"
	IsCoreRinc   = "isCoreRinc"
	OECDCodeName = "oecdCodeName"
	ASJCCodeName = "asjcCodeName"
	VAKCodeName  = "vakCodeName"
	Patents      = "patents"

	MinViews                 = "minViews"
	MinCitationsRinc         = "minCitationsRinc"
	MinCitirovanieInCoreRinc = "minCitirovanieInCoreRinc"

	AltmetricAllScoreMin              = "altmetricAllScoreMin"
	AltmetricViewsMin                 = "altmetricViewsMin"
	AltmetricDownloadsMin             = "altmetricDownloadsMin"
	AltmetricIncludedInCollectionsMin = "altmetricIncludedInCollectionsMin"
	AltmetricTotalReviewsMin          = "altmetricTotalReviewsMin"
)

type field struct {
	name string
	kind Kind
}

var fields = []field{
	{AuthorName, Text},
	{AuthorOrg, Text},
	{AuthorDepartment, Text},
	{AuthorSpin, Text},
	{Year, Number},
	{Source, Text},
	{UniversityName, Text},
	{PublicationType, Text},
	{Language, Text},
	{EDN, Text},
	{HasFull, Flag},
	{AbstractRuText, Text},
	{AbstractEnText, Text},
	{HasAbstractRu, Flag},
	{HasAbstractEn, Flag},
	{KeywordsText, List},
	{IsRinc, Flag},
	{IsCoreRinc, Flag},
	{OECDCodeName, Text},
	{ASJCCodeName, Text},
	{VAKCodeName, Text},
	{Patents, Text},
	{MinViews, Number},
	{MinCitationsRinc, Number},
	{MinCitirovanieInCoreRinc, Number},
	{AltmetricAllScoreMin, Number},
	{AltmetricViewsMin, Number},
	{AltmetricDownloadsMin, Number},
	{AltmetricIncludedInCollectionsMin, Number},
	{AltmetricTotalReviewsMin, Number},
}

var kinds = func() map[string]Kind {
	m := make(map[string]Kind, len(fields))
	for _, f := range fields {
		m[f.name] = f.kind
	}
	return m
}()

// Names returns every filter field name in form order.
func Names() []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.name
	}
	return out
}

// KindOf returns the kind of the named field.
func KindOf(name string) (Kind, bool) {
	k, ok := kinds[name]
	return k, ok
}

// State is the flat filter form. The zero value is not usable; start from
// Defaults. State is a value type: Set returns nothing but mutates only the
// receiver's own maps, and Clone gives an independent copy.
type State struct {
	text  map[string]string
	flags map[string]bool
	lists map[string][]string
}

// Defaults returns a State with every field at its default: empty text,
// false flags, empty lists.
func Defaults() State {
	s := State{
		text:  make(map[string]string),
		flags: make(map[string]bool),
		lists: make(map[string][]string),
	}
	for _, f := range fields {
		switch f.kind {
		case Text, Number:
			s.text[f.name] = ""
		case Flag:
			s.flags[f.name] = false
		case List:
			s.lists[f.name] = []string{}
		}
	}
	return s
}

// Clone returns a deep copy.
func (s State) Clone() State {
	c := State{
		text:  make(map[string]string, len(s.text)),
		flags: make(map[string]bool, len(s.flags)),
		lists: make(map[string][]string, len(s.lists)),
	}
	for k, v := range s.text {
		c.text[k] = v
	}
	for k, v := range s.flags {
		c.flags[k] = v
	}
	for k, v := range s.lists {
		c.lists[k] = append([]string{}, v...)
	}
	return c
}

// Set assigns one field. Strings are accepted for every kind ("true" for
// flags, comma-separated for lists) so form input and CLI flags share one
// path; numbers are accepted for text and number fields.
func (s State) Set(name string, value any) error {
	kind, ok := kinds[name]
	if !ok {
		return fmt.Errorf("unknown filter %q", name)
	}

	switch kind {
	case Text, Number:
		switch v := value.(type) {
		case string:
			s.text[name] = v
		case int:
			s.text[name] = strconv.Itoa(v)
		case float64:
			s.text[name] = strconv.FormatFloat(v, 'f', -1, 64)
		case nil:
			s.text[name] = ""
		default:
			return fmt.Errorf("filter %s: expected text, got %T", name, value)
		}
	case Flag:
		switch v := value.(type) {
		case bool:
			s.flags[name] = v
		case string:
			if strings.TrimSpace(v) == "" {
				s.flags[name] = false
				return nil
			}
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("filter %s: expected true or false, got %q", name, v)
			}
			s.flags[name] = b
		case nil:
			s.flags[name] = false
		default:
			return fmt.Errorf("filter %s: expected bool, got %T", name, value)
		}
	case List:
		switch v := value.(type) {
		case []string:
			s.lists[name] = []string(types.CleanKeywords(v))
		case []any:
			items := make([]string, 0, len(v))
			for _, item := range v {
				items = append(items, fmt.Sprint(item))
			}
			s.lists[name] = []string(types.CleanKeywords(items))
		case string:
			s.lists[name] = []string(types.SplitKeywords(v))
		case nil:
			s.lists[name] = []string{}
		default:
			return fmt.Errorf("filter %s: expected list, got %T", name, value)
		}
	}
	return nil
}

// Text returns a text or number field's raw value.
func (s State) Text(name string) string { return s.text[name] }

// Flag returns a flag field.
func (s State) Flag(name string) bool { return s.flags[name] }

// List returns a copy of a list field.
func (s State) List(name string) []string {
	return append([]string{}, s.lists[name]...)
}

// Entry is one non-default field for display.
type Entry struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// Entries lists the fields that differ from their defaults, in form order.
func (s State) Entries() []Entry {
	var out []Entry
	for _, f := range fields {
		switch f.kind {
		case Text, Number:
			if v := strings.TrimSpace(s.text[f.name]); v != "" {
				out = append(out, Entry{f.name, v})
			}
		case Flag:
			if s.flags[f.name] {
				out = append(out, Entry{f.name, "true"})
			}
		case List:
			if l := s.lists[f.name]; len(l) > 0 {
				out = append(out, Entry{f.name, strings.Join(l, ", ")})
			}
		}
	}
	return out
}

// Active reports whether any field differs from its default.
func (s State) Active() bool {
	return len(s.Entries()) > 0
}

// LoadFile reads a YAML mapping of field name to value on top of Defaults.
func LoadFile(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return State{}, fmt.Errorf("reading filter file: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return State{}, fmt.Errorf("parsing filter file: %w", err)
	}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	s := Defaults()
	for _, name := range names {
		if err := s.Set(name, raw[name]); err != nil {
			return State{}, fmt.Errorf("filter file %s: %w", path, err)
		}
	}
	return s, nil
}

// WriteFile saves the non-default fields of s as YAML.
func WriteFile(path string, s State) error {
	out := make(map[string]any)
	for _, e := range s.Entries() {
		switch kinds[e.Name] {
		case Flag:
			out[e.Name] = true
		case List:
			out[e.Name] = s.List(e.Name)
		default:
			out[e.Name] = e.Value
		}
	}
	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("marshaling filter file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
